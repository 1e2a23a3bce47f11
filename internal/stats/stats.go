// Package stats collects the per-chromosome counters surfaced through
// structured logging at the end of each chromosome's processing, per
// spec.md §7's "single diagnostic line per chromosome" policy.
package stats

import (
	"go.uber.org/zap"

	"github.com/inodb/readphase/internal/align"
	"github.com/inodb/readphase/internal/extend"
	"github.com/inodb/readphase/internal/phase"
)

// Chromosome aggregates every counter produced while processing one
// chromosome, regardless of which pipeline (phase or extend) produced it.
type Chromosome struct {
	Name string

	Assemble align.AssembleStats
	Filter   phase.FilterStats
	Slice    *phase.SliceResult
	Extend   extend.Stats

	FragmentsPhased int
	Cost            int
}

// Fields renders the counters as zap structured fields, in the order the
// driver should log them.
func (c Chromosome) Fields() []zap.Field {
	fields := []zap.Field{
		zap.String("chromosome", c.Name),
		zap.Int("unmapped", c.Assemble.Unmapped),
		zap.Int("secondary", c.Assemble.Secondary),
		zap.Int("supplementary", c.Assemble.Supplementary),
		zap.Int("low_mapq", c.Assemble.LowMapQ),
		zap.Int("missing_cigar", c.Assemble.MissingCigar),
		zap.Int("wrong_sample", c.Assemble.WrongSample),
		zap.Int("single_end_fragments", c.Assemble.SingleEnd),
		zap.Int("merged_fragments", c.Assemble.Merged),
		zap.Int("filtered_mismatch_allele", c.Filter.MismatchAllele),
		zap.Int("filtered_non_monotonic", c.Filter.NonMonotonic),
		zap.Int("filtered_too_few_variants", c.Filter.TooFewVariants),
		zap.Int("fragments_kept", c.Filter.Kept),
	}
	if c.Slice != nil {
		fields = append(fields,
			zap.Int("slice_layers", len(c.Slice.Layers)),
			zap.Int("accessible_positions", c.Slice.AccessiblePositions),
			zap.Int("skipped_single_variant", c.Slice.SkippedSingleVariant),
		)
	}
	fields = append(fields,
		zap.Int("fragments_phased", c.FragmentsPhased),
		zap.Int("dp_cost", c.Cost),
		zap.Int("extend_considered", c.Extend.Considered),
		zap.Int("extend_low_confidence", c.Extend.LowConfidence),
		zap.Int("extend_not_indel", c.Extend.NotIndel),
		zap.Int("extend_homopolymer", c.Extend.Homopolymer),
		zap.Int("extend_extended", c.Extend.Extended),
	)
	return fields
}
