package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/biogo/hts/bam"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inodb/readphase/internal/align"
	"github.com/inodb/readphase/internal/config"
	"github.com/inodb/readphase/internal/phase"
	"github.com/inodb/readphase/internal/resource"
	"github.com/inodb/readphase/internal/stats"
	"github.com/inodb/readphase/internal/vcfio"
)

func newPhaseCmd(cfgFile *string) *cobra.Command {
	cfg := config.Default()

	cmd := &cobra.Command{
		Use:   "phase <variants.vcf> <alignments.bam>",
		Short: "Phase heterozygous variants against read alignments",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			verbose, _ := cmd.Flags().GetBool("verbose")
			quiet, _ := cmd.Flags().GetBool("quiet")
			if err := config.Load(*cfgFile); err != nil {
				return err
			}
			cfg = config.FromViper(cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			logger, err := newLogger(verbose, quiet)
			if err != nil {
				return err
			}
			defer logger.Sync()
			return runPhase(logger, cfg, args[0], args[1])
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&cfg.Output, "output", "o", "", "output VCF (default stdout)")
	flags.StringArrayVar(&cfg.Chromosomes, "chromosome", nil, "restrict to this chromosome (repeatable)")
	flags.BoolVar(&cfg.IgnoreReadGroups, "ignore-read-groups", false, "treat all reads as one sample")
	flags.StringVar(&cfg.Sample, "sample", "", "restrict to this sample's reads")
	flags.IntVar(&cfg.MaxCoverage, "max-coverage", config.DefaultMaxCoverage, "maximum per-column fragment coverage")
	flags.IntVar(&cfg.MappingQuality, "mapping-quality", config.DefaultMappingQuality, "minimum mapping quality")
	flags.Int64Var(&cfg.Seed, "seed", config.DefaultSeed, "coverage slicer shuffle seed")
	flags.BoolVar(&cfg.AllHet, "all-het", false, "treat every site as heterozygous")

	return cmd
}

func runPhase(logger *zap.Logger, cfg config.Config, vcfPath, bamPath string) error {
	var stack resource.Stack
	defer stack.Close()

	vcfReader, err := vcfio.NewReader(vcfPath)
	if err != nil {
		return err
	}
	stack.Push(vcfReader)

	out := os.Stdout
	if cfg.Output != "" {
		f, err := os.Create(cfg.Output)
		if err != nil {
			return err
		}
		stack.Push(f)
		out = f
	}
	writer := vcfio.NewWriter(out, vcfReader.Header(), vcfReader.SampleNames(), "PS")
	if err := writer.WriteHeader(); err != nil {
		return err
	}

	idx, err := align.OpenBAMIndex(bamPath, bamPath+".bai")
	if err != nil {
		return err
	}
	bamFile, err := os.Open(bamPath)
	if err != nil {
		return err
	}
	stack.Push(bamFile)
	bamReader, err := bam.NewReader(bamFile, 0)
	if err != nil {
		return err
	}
	stack.Push(bamReader)

	sample := cfg.Sample
	if sample == "" {
		if samples := vcfReader.SampleNames(); len(samples) == 1 {
			sample = samples[0]
		}
	}
	if cfg.IgnoreReadGroups && len(vcfReader.SampleNames()) > 1 && cfg.Sample == "" {
		return fmt.Errorf("%w: --ignore-read-groups requires --sample on a multi-sample VCF", config.ErrConfiguration)
	}

	source := align.NewBAMSource(bamReader, idx, bamFile, align.AssembleOptions{
		MinMapQ:        byte(cfg.MappingQuality),
		Sample:         sample,
		DefaultQuality: align.DefaultBaseQuality,
	})
	if cfg.IgnoreReadGroups {
		source.Options.Sample = ""
	}

	wanted := make(map[string]bool, len(cfg.Chromosomes))
	for _, c := range cfg.Chromosomes {
		wanted[c] = true
	}

	for {
		table, err := vcfReader.Next()
		if err != nil {
			return err
		}
		if table == nil {
			return nil
		}

		if len(wanted) > 0 && !wanted[table.Chromosome] {
			logger.Info("leaving chromosome unchanged", zap.String("chromosome", table.Chromosome))
			if err := writer.WriteUnchanged(table); err != nil {
				return err
			}
			continue
		}

		if err := phaseChromosome(logger, writer, source, table, sample, cfg); err != nil {
			return err
		}
	}
}

func phaseChromosome(logger *zap.Logger, writer *vcfio.Writer, source *align.BAMSource, table *vcfio.Table, sample string, cfg config.Config) error {
	cstats := stats.Chromosome{Name: table.Chromosome}

	var sites []phase.VariantSite
	genotypeByPos := make(map[int]phase.Genotype, len(table.Variants))
	for _, v := range table.Variants {
		site, ok := v.VariantSite(sample)
		if !ok {
			continue
		}
		sites = append(sites, site)
		genotypeByPos[site.Pos] = site.Genotype
	}

	fragments, astats, err := source.Fragments(table.Chromosome, sites)
	if err != nil {
		return err
	}
	cstats.Assemble = astats

	filtered, fstats := phase.FilterFragments(fragments, phase.DefaultMinVariants)
	cstats.Filter = fstats

	sliceResult := phase.Slice(filtered, phase.SliceOptions{MaxCoverage: cfg.MaxCoverage, Seed: cfg.Seed})
	cstats.Slice = sliceResult

	first := sliceResult.First()
	if len(first) < 2 {
		logger.Info("too few fragments to phase", cstats.Fields()...)
		return writer.WriteUnchanged(table)
	}

	readSet := phase.NewReadSet(first)
	result, err := phase.Phase(readSet, genotypeByPos, cfg.AllHet)
	if errors.Is(err, phase.ErrEmptyReadSet) {
		logger.Info("empty read set after slicing", cstats.Fields()...)
		return writer.WriteUnchanged(table)
	}
	if err != nil {
		return err
	}

	cstats.FragmentsPhased = len(readSet.Fragments)
	cstats.Cost = result.Cost
	unslicedReadSet := phase.NewReadSet(filtered)
	components := phase.Components(unslicedReadSet, result.SuperReads[0])
	logger.Info("phased chromosome", cstats.Fields()...)

	return writer.Write(table, map[string]vcfio.SampleResult{
		sample: {SuperReads: result.SuperReads, Components: components},
	})
}
