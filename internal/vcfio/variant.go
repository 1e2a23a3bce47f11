// Package vcfio streams VCF variants grouped by chromosome and writes
// phased VCF output, generalizing the teacher's internal/vcf package to
// carry per-sample genotypes and phase sets rather than the flat,
// genotype-free Variant the teacher annotated.
package vcfio

import (
	"strings"

	"github.com/inodb/readphase/internal/phase"
)

// Genotype is one sample's parsed GT (+ optional PS) FORMAT value.
type Genotype struct {
	Alleles [2]int // allele indices; -1 if uncalled ('.')
	Phased  bool   // separator was '|' rather than '/'
	PS      string // phase-set FORMAT value, "" if absent
}

// Called reports whether both alleles were called.
func (g Genotype) Called() bool {
	return g.Alleles[0] >= 0 && g.Alleles[1] >= 0
}

// Variant is a single VCF data line, carrying every sample's genotype.
type Variant struct {
	Chrom     string
	Pos       int // 0-based
	ID        string
	Ref       string
	Alt       string
	Qual      string
	Filter    string
	Info      string
	Format    []string
	Genotypes map[string]Genotype // sample name -> genotype
	RawSamples map[string]string  // sample name -> original, unparsed FORMAT-value column
}

// IsSNV reports whether both Ref and Alt are single bases.
func (v *Variant) IsSNV() bool {
	return len(v.Ref) == 1 && len(v.Alt) == 1
}

// VariantSite converts v into the core phasing model's VariantSite for the
// given sample. ok is false when the sample has no genotype on this line.
func (v *Variant) VariantSite(sample string) (phase.VariantSite, bool) {
	gt, ok := v.Genotypes[sample]
	if !ok {
		return phase.VariantSite{}, false
	}
	site := phase.VariantSite{
		Chrom: v.Chrom,
		Pos:   v.Pos,
		Ref:   v.Ref,
		Alt:   v.Alt,
		Genotype: phase.Genotype{
			Alleles: gt.Alleles,
			Called:  gt.Called(),
		},
	}
	if gt.Phased && gt.PS != "" {
		if ps, ok := parsePS(gt.PS, v.Pos); ok {
			site.PriorPhase = &ps
		}
	}
	return site, true
}

func parsePS(ps string, fallback int) (int, bool) {
	n := 0
	ok := true
	for _, c := range ps {
		if c < '0' || c > '9' {
			ok = false
			break
		}
		n = n*10 + int(c-'0')
	}
	if !ok || ps == "" {
		return fallback, false
	}
	return n, true
}

// Table is one chromosome's worth of variants, as produced by Reader.Next.
type Table struct {
	Chromosome string
	Variants   []*Variant
}

// GenotypesOf returns the per-variant genotype for sample, in Variants
// order, matching the original's variant_table.genotypes_of.
func (t *Table) GenotypesOf(sample string) []Genotype {
	out := make([]Genotype, len(t.Variants))
	for i, v := range t.Variants {
		out[i] = v.Genotypes[sample]
	}
	return out
}

func formatGenotype(g Genotype) string {
	if !g.Called() {
		return "./."
	}
	sep := "/"
	if g.Phased {
		sep = "|"
	}
	var b strings.Builder
	b.WriteString(itoa(g.Alleles[0]))
	b.WriteString(sep)
	b.WriteString(itoa(g.Alleles[1]))
	return b.String()
}

func itoa(n int) string {
	if n < 0 {
		return "."
	}
	if n < 10 {
		return string(rune('0' + n))
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}
