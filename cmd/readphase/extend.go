package main

import (
	"fmt"
	"os"

	"github.com/biogo/hts/bam"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inodb/readphase/internal/align"
	"github.com/inodb/readphase/internal/config"
	"github.com/inodb/readphase/internal/extend"
	"github.com/inodb/readphase/internal/phase"
	"github.com/inodb/readphase/internal/resource"
	"github.com/inodb/readphase/internal/stats"
	"github.com/inodb/readphase/internal/vcfio"
)

func newExtendCmd(cfgFile *string) *cobra.Command {
	cfg := config.Default()

	cmd := &cobra.Command{
		Use:   "extend <variants.vcf> <haplotagged.bam> <reference.fasta>",
		Short: "Propagate phase from haplotagged reads onto untouched variants",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			verbose, _ := cmd.Flags().GetBool("verbose")
			quiet, _ := cmd.Flags().GetBool("quiet")
			if err := config.Load(*cfgFile); err != nil {
				return err
			}
			cfg = config.FromViper(cfg)
			cfg.Reference = args[2]
			if err := cfg.Validate(); err != nil {
				return err
			}
			logger, err := newLogger(verbose, quiet)
			if err != nil {
				return err
			}
			defer logger.Sync()
			return runExtend(logger, cfg, args[0], args[1], args[2])
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&cfg.Output, "output", "o", "", "output VCF (default stdout)")
	flags.StringArrayVar(&cfg.Chromosomes, "chromosome", nil, "restrict to this chromosome (repeatable)")
	flags.BoolVar(&cfg.IgnoreReadGroups, "ignore-read-groups", false, "treat all reads as one sample")
	flags.StringVar(&cfg.Sample, "sample", "", "restrict to this sample's reads")
	flags.IntVar(&cfg.MappingQuality, "mapping-quality", config.DefaultMappingQuality, "minimum mapping quality")
	flags.IntVar(&cfg.GapThreshold, "gap-threshold", config.DefaultGapThreshold, "minimum percentage of quality behind the winning vote")
	flags.IntVar(&cfg.CutPoly, "cut-poly", config.DefaultCutPoly, "reject candidates inside homopolymer runs at or above this length (0 selects the default, negative disables)")
	flags.BoolVar(&cfg.OnlyIndels, "only-indels", false, "extend phase onto indels only, skipping unphased SNVs")

	return cmd
}

func runExtend(logger *zap.Logger, cfg config.Config, vcfPath, bamPath, fastaPath string) error {
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

	source := align.NewTaggedBAMSource(bamReader, idx, bamFile, align.AssembleOptions{
		MinMapQ:        byte(cfg.MappingQuality),
		Sample:         sample,
		DefaultQuality: align.DefaultBaseQuality,
	})
	if cfg.IgnoreReadGroups {
		source.Options.Sample = ""
	}

	reference, err := align.OpenReference(fastaPath, fastaPath+".fai")
	if err != nil {
		return err
	}
	stack.Push(reference)

	opts := extend.Options{
		GapThreshold: cfg.GapThreshold,
		CutPoly:      cfg.CutPoly,
		OnlyIndels:   cfg.OnlyIndels,
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

		if err := extendChromosome(logger, writer, source, reference, table, sample, opts); err != nil {
			return err
		}
	}
}

func extendChromosome(logger *zap.Logger, writer *vcfio.Writer, source *align.TaggedBAMSource, reference *align.Reference, table *vcfio.Table, sample string, opts extend.Options) error {
	cstats := stats.Chromosome{Name: table.Chromosome}

	var sites []extend.Site
	var variantSites []phase.VariantSite
	homozygous := make(map[int]bool)
	for _, v := range table.Variants {
		site, ok := v.VariantSite(sample)
		if !ok {
			continue
		}
		variantSites = append(variantSites, site)
		if site.Genotype.IsHomozygous() {
			homozygous[site.Pos] = true
		}
		sites = append(sites, extend.Site{
			Pos:         site.Pos,
			IsSNV:       v.IsSNV(),
			PriorPhased: site.PriorPhase != nil,
		})
	}

	fragments, astats, err := source.Fragments(table.Chromosome, variantSites)
	if err != nil {
		return err
	}
	cstats.Assemble = astats

	chrom, err := reference.Chrom(table.Chromosome)
	if err != nil {
		return err
	}

	sr0, sr1, components, estats := extend.Extend(fragments, sites, homozygous, chrom, opts)
	cstats.Extend = estats
	logger.Info("extended chromosome", cstats.Fields()...)

	if len(sr0.Pos) == 0 {
		return writer.WriteUnchanged(table)
	}

	return writer.Write(table, map[string]vcfio.SampleResult{
		sample: {SuperReads: [2]phase.SuperRead{sr0, sr1}, Components: components},
	})
}
