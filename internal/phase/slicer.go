package phase

import (
	"math/rand"
	"sort"

	"github.com/grailbio/bio/interval"
)

// DefaultMaxCoverage is the default cap on per-column fragment coverage
// within a single layer, matching the CLI's --max-coverage default.
const DefaultMaxCoverage = 15

// Layer is one packing of fragments such that no variant-position column is
// spanned by more than MaxCoverage fragments.
type Layer struct {
	Fragments []*Fragment
	Coverage  []int // length len(Positions); diagnostic only past layer 0
}

// SliceOptions configures the Coverage Slicer.
type SliceOptions struct {
	MaxCoverage int
	Seed        int64 // 0 means no shuffle
}

// SliceResult is the output of the Coverage Slicer.
type SliceResult struct {
	Layers               []Layer
	Positions            []int // compressed variant index space, sorted
	AccessiblePositions  int   // positions covered by at least one fragment (== len(Positions))
	SkippedSingleVariant int   // fragments spanning fewer than two variants
}

// First returns the densest (first) layer, the only one phased downstream.
func (r *SliceResult) First() []*Fragment {
	if len(r.Layers) == 0 {
		return nil
	}
	return r.Layers[0].Fragments
}

// Slice packs fragments into coverage-limited layers. Fragments are
// considered in input order after an optional deterministic shuffle seeded
// by opts.Seed. Only fragments spanning at least two distinct variant
// positions participate; the rest are counted in SkippedSingleVariant.
func Slice(fragments []*Fragment, opts SliceOptions) *SliceResult {
	maxCov := opts.MaxCoverage
	if maxCov <= 0 {
		maxCov = DefaultMaxCoverage
	}

	positions := compressedPositions(fragments)
	endpoints := make([]interval.PosType, len(positions))
	for i, p := range positions {
		endpoints[i] = interval.PosType(p)
	}

	order := make([]int, len(fragments))
	for i := range order {
		order[i] = i
	}
	if opts.Seed != 0 {
		rng := rand.New(rand.NewSource(opts.Seed))
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	}

	result := &SliceResult{Positions: positions, AccessiblePositions: len(positions)}

	for _, idx := range order {
		f := fragments[idx]
		first, last, ok := f.Span()
		if !ok {
			continue
		}
		b := int(interval.SearchPosTypes(endpoints, interval.PosType(first)))
		e := int(interval.SearchPosTypes(endpoints, interval.PosType(last)))
		if e <= b {
			result.SkippedSingleVariant++
			continue
		}

		placed := false
		for li := range result.Layers {
			layer := &result.Layers[li]
			if maxRange(layer.Coverage, b, e) < maxCov {
				incrRange(layer.Coverage, b, e)
				layer.Fragments = append(layer.Fragments, f)
				placed = true
				break
			}
		}
		if !placed {
			layer := Layer{Coverage: make([]int, len(positions))}
			incrRange(layer.Coverage, b, e)
			layer.Fragments = append(layer.Fragments, f)
			result.Layers = append(result.Layers, layer)
		}
	}

	return result
}

// compressedPositions gathers, deduplicates, and sorts every variant
// position touched by any fragment.
func compressedPositions(fragments []*Fragment) []int {
	seen := make(map[int]struct{})
	for _, f := range fragments {
		for _, o := range f.Obs {
			if !o.IsGap {
				seen[o.Pos] = struct{}{}
			}
		}
	}
	out := make([]int, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}

func maxRange(coverage []int, b, e int) int {
	m := 0
	for i := b; i <= e && i < len(coverage); i++ {
		if coverage[i] > m {
			m = coverage[i]
		}
	}
	return m
}

func incrRange(coverage []int, b, e int) {
	for i := b; i <= e && i < len(coverage); i++ {
		coverage[i]++
	}
}
