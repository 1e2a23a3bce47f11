package extend

import (
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/inodb/readphase/internal/phase"
)

// voteKey identifies one (phase set, inferred haplotype label) pairing a
// variant position can accumulate quality under.
type voteKey struct {
	PS     int
	Allele int
}

// ComputeVotes tallies, for every non-homozygous variant position touched by
// a haplotagged fragment, the accumulated quality behind each phase-set/
// allele-label pairing. A fragment missing either its HP or PS tag — or
// whose observation at a position is a mismatch — contributes nothing.
// Mirrors compute_votes in the original extend.py.
func ComputeVotes(fragments []*phase.Fragment, homozygous map[int]bool) map[int]map[voteKey]int {
	votes := make(map[int]map[voteKey]int)
	for _, f := range fragments {
		if f.HP < 0 || f.PS < 0 {
			continue
		}
		for _, o := range f.Obs {
			if o.IsGap || o.Allele == phase.AlleleMismatch {
				continue
			}
			if homozygous[o.Pos] {
				continue
			}
			m, ok := votes[o.Pos]
			if !ok {
				m = map[voteKey]int{
					{PS: f.PS, Allele: 0}: 0,
					{PS: f.PS, Allele: 1}: 0,
				}
				votes[o.Pos] = m
			}
			key := voteKey{PS: f.PS, Allele: f.HP ^ int(o.Allele)}
			m[key] += o.Quality
		}
	}
	return votes
}

// BestCandidate picks the highest-scoring (phase set, allele) pairing for
// one position's vote table, breaking ties deterministically by ascending
// (phase set, allele) since Go map iteration order is not stable. total is
// the summed quality across every candidate at the position, computed with
// gonum/floats. Mirrors best_candidate in the original extend.py.
func BestCandidate(v map[voteKey]int) (ps, allele, score, total int) {
	type candidate struct {
		key   voteKey
		score int
	}
	candidates := make([]candidate, 0, len(v))
	scores := make([]float64, 0, len(v))
	for k, s := range v {
		candidates = append(candidates, candidate{key: k, score: s})
		scores = append(scores, float64(s))
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		if candidates[i].key.PS != candidates[j].key.PS {
			return candidates[i].key.PS < candidates[j].key.PS
		}
		return candidates[i].key.Allele < candidates[j].key.Allele
	})
	best := candidates[0]
	return best.key.PS, best.key.Allele, best.score, int(floats.Sum(scores))
}
