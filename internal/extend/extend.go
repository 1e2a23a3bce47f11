package extend

import (
	"sort"

	"github.com/inodb/readphase/internal/phase"
)

// Extend runs the vote/gate pipeline for one sample's haplotagged fragments
// against its variant sites, returning the two extended super-reads
// (sparse: only positions that pass every gate are present, sorted by
// position) and the position -> phase-set component map. The component map
// records every position the vote table reached, even ones later rejected
// by a gate, matching the original's best_candidate side effect.
func Extend(fragments []*phase.Fragment, sites []Site, homozygous map[int]bool, ref ChromSequence, opts Options) (sr0, sr1 phase.SuperRead, components map[int]int, stats Stats) {
	gapThreshold := opts.GapThreshold
	if gapThreshold <= 0 {
		gapThreshold = DefaultGapThreshold
	}
	cutPoly := opts.CutPoly
	if cutPoly == 0 {
		cutPoly = DefaultCutPoly
	}

	votes := ComputeVotes(fragments, homozygous)
	components = make(map[int]int, len(votes))

	siteByPos := make(map[int]Site, len(sites))
	for _, s := range sites {
		siteByPos[s.Pos] = s
	}

	positions := make([]int, 0, len(votes))
	for pos := range votes {
		positions = append(positions, pos)
	}
	sort.Ints(positions)

	for _, pos := range positions {
		stats.Considered++
		ps, allele, score, total := BestCandidate(votes[pos])
		components[pos] = ps

		site := siteByPos[pos]
		confidence := 0
		if total > 0 {
			// Integer division floors the percentage; because the
			// threshold is a whole percentage, the comparison below gives
			// the same result as comparing the exact fraction.
			confidence = 100 * score / total
		}

		if confidence < gapThreshold && !site.PriorPhased {
			stats.LowConfidence++
			continue
		}
		if opts.OnlyIndels && site.IsSNV && !site.PriorPhased {
			stats.NotIndel++
			continue
		}
		if cutPoly > 0 && ExceedsHomopolymerRun(ref, pos, cutPoly) {
			stats.Homopolymer++
			continue
		}

		sr0.Pos = append(sr0.Pos, pos)
		sr0.Allele = append(sr0.Allele, allele)
		sr0.Quality = append(sr0.Quality, score)
		sr1.Pos = append(sr1.Pos, pos)
		sr1.Allele = append(sr1.Allele, allele^1)
		sr1.Quality = append(sr1.Quality, score)
		stats.Extended++
	}

	return sr0, sr1, components, stats
}
