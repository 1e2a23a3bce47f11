package vcfio

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/inodb/readphase/internal/phase"
)

// SampleResult is one sample's phasing output for a chromosome, ready to be
// merged back into that chromosome's variant table.
type SampleResult struct {
	SuperReads [2]phase.SuperRead
	Components map[int]int // 0-based position -> 0-based representative position
}

// Writer emits a phased VCF: the original header and sample columns,
// overridden per-position with a GT/phase-set pair wherever a phasing
// result covers that position, mirroring the original PhasedVcfWriter.
type Writer struct {
	w           io.Writer
	header      []string
	sampleNames []string
	tag         string
}

// NewWriter builds a Writer. tag is the FORMAT key used for the phase-set
// value; "" selects "PS".
func NewWriter(w io.Writer, header []string, sampleNames []string, tag string) *Writer {
	if tag == "" {
		tag = "PS"
	}
	return &Writer{w: w, header: header, sampleNames: sampleNames, tag: tag}
}

// WriteHeader writes the passthrough header lines, inserting a FORMAT
// definition for the phase-set tag just before #CHROM if one is not already
// present.
func (w *Writer) WriteHeader() error {
	defLine := fmt.Sprintf(`##FORMAT=<ID=%s,Number=1,Type=Integer,Description="Phase set identifier">`, w.tag)
	psDefined := false
	for _, line := range w.header {
		if strings.HasPrefix(line, fmt.Sprintf("##FORMAT=<ID=%s,", w.tag)) {
			psDefined = true
			break
		}
	}
	for _, line := range w.header {
		if !psDefined && strings.HasPrefix(line, "#CHROM") {
			if _, err := fmt.Fprintln(w.w, defLine); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w.w, line); err != nil {
			return err
		}
	}
	return nil
}

// WriteUnchanged writes every variant in table back out verbatim, used for
// chromosomes the driver was not asked to process.
func (w *Writer) WriteUnchanged(table *Table) error {
	for _, v := range table.Variants {
		if err := w.writeLine(v, nil); err != nil {
			return err
		}
	}
	return nil
}

// Write emits table's variants with each sample's genotype overridden by
// its entry in results wherever that sample's phasing result covers the
// position; positions absent from a result keep that sample's original
// genotype untouched.
func (w *Writer) Write(table *Table, results map[string]SampleResult) error {
	lookups := make(map[string]map[int]int, len(results))
	for sample, res := range results {
		m := make(map[int]int, len(res.SuperReads[0].Pos))
		for i, pos := range res.SuperReads[0].Pos {
			m[pos] = i
		}
		lookups[sample] = m
	}

	for _, v := range table.Variants {
		updates := make(map[string]update, len(results))
		for sample, res := range results {
			idx, ok := lookups[sample][v.Pos]
			if !ok {
				continue
			}
			rep := v.Pos
			if r, ok := res.Components[v.Pos]; ok {
				rep = r
			}
			updates[sample] = update{
				gt:    fmt.Sprintf("%d|%d", res.SuperReads[0].Allele[idx], res.SuperReads[1].Allele[idx]),
				ps:    strconv.Itoa(rep + 1),
				hasPS: true,
			}
		}
		if err := w.writeLine(v, updates); err != nil {
			return err
		}
	}
	return nil
}

type update struct {
	gt    string
	ps    string
	hasPS bool
}

func (w *Writer) writeLine(v *Variant, updates map[string]update) error {
	format := v.Format
	needsTag := false
	for _, u := range updates {
		if u.hasPS {
			needsTag = true
		}
	}
	if needsTag && !containsString(format, w.tag) {
		extended := make([]string, len(format), len(format)+1)
		copy(extended, format)
		format = append(extended, w.tag)
	}

	cols := []string{v.Chrom, strconv.Itoa(v.Pos + 1), v.ID, v.Ref, v.Alt, v.Qual, v.Filter, v.Info}
	if len(format) > 0 {
		cols = append(cols, strings.Join(format, ":"))
		for _, sample := range w.sampleNames {
			overrides := map[string]string{}
			if u, ok := updates[sample]; ok {
				overrides["GT"] = u.gt
				if u.hasPS {
					overrides[w.tag] = u.ps
				}
			}
			cols = append(cols, buildSampleColumn(format, v.RawSamples[sample], overrides))
		}
	}

	_, err := fmt.Fprintln(w.w, strings.Join(cols, "\t"))
	return err
}

func buildSampleColumn(format []string, raw string, overrides map[string]string) string {
	parts := strings.Split(raw, ":")
	out := make([]string, len(format))
	for i, key := range format {
		val := "."
		if i < len(parts) && parts[i] != "" {
			val = parts[i]
		}
		if v, ok := overrides[key]; ok {
			val = v
		}
		out[i] = val
	}
	return strings.Join(out, ":")
}

func containsString(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
