package phase

import "sort"

// obsAt is one fragment's observation at a single compressed column,
// retained for the column-cost computation.
type obsAt struct {
	fragID  int
	allele  Allele
	quality int
}

// columnState is the per-column bookkeeping the DP needs to project a
// previous column's table forward and to backtrace the optimal path.
type columnState struct {
	newActive     []int         // fragment ids active at this column, ascending
	commonOldPos  []int         // bit positions within oldActive, in common order
	commonNewPos  []int         // bit positions within newActive, same order as commonOldPos
	enteringPos   []int         // bit positions within newActive for newly entered fragments
	obs           []obsAt       // observations landing exactly on this column
	genotype      Genotype
	freeChoice    bool          // true when h[c] may be chosen freely (heterozygous or all-het)
	bestH         map[uint32]int
	projectedFrom map[uint32]uint32 // commonMask -> best oldMask achieving it
}

// Phase runs the DP haplotype phaser over readSet's compressed variant
// columns. sites supplies the called genotype for each variant position;
// entries absent from sites are treated as uncalled. When allHet is false,
// every column must resolve to a heterozygous or homozygous genotype, or
// ErrAmbiguousGenotype is returned.
func Phase(readSet *ReadSet, sites map[int]Genotype, allHet bool) (*Result, error) {
	if len(readSet.Fragments) < 2 {
		return nil, ErrEmptyReadSet
	}
	positions := readSet.Positions()
	V := len(positions)
	if V == 0 {
		return nil, ErrEmptyReadSet
	}
	posIndex := make(map[int]int, V)
	for i, p := range positions {
		posIndex[p] = i
	}

	type span struct{ b, e int }
	spans := make(map[int]span, len(readSet.Fragments))
	obsByColumn := make([][]obsAt, V)
	for _, f := range readSet.Fragments {
		b, e := -1, -1
		for _, o := range f.Obs {
			if o.IsGap {
				continue
			}
			c := posIndex[o.Pos]
			if b == -1 {
				b = c
			}
			e = c
			obsByColumn[c] = append(obsByColumn[c], obsAt{fragID: f.ID, allele: o.Allele, quality: o.Quality})
		}
		spans[f.ID] = span{b: b, e: e}
	}

	entering := make([][]int, V)
	leavingAfter := make([][]int, V)
	for _, f := range readSet.Fragments {
		s := spans[f.ID]
		if s.b < 0 {
			continue
		}
		entering[s.b] = append(entering[s.b], f.ID)
		leavingAfter[s.e] = append(leavingAfter[s.e], f.ID)
	}
	for c := range entering {
		sort.Ints(entering[c])
	}

	columns := make([]columnState, V)
	oldActive := []int{}
	dpPrev := map[uint32]int{0: 0}

	for c := 0; c < V; c++ {
		leaving := make(map[int]struct{}, len(leavingAfterPrev(leavingAfter, c)))
		for _, id := range leavingAfterPrev(leavingAfter, c) {
			leaving[id] = struct{}{}
		}

		var common []int
		var commonOldPos []int
		for i, id := range oldActive {
			if _, gone := leaving[id]; gone {
				continue
			}
			common = append(common, id)
			commonOldPos = append(commonOldPos, i)
		}

		newActive, commonNewPos, enteringNewPos := mergeActive(common, entering[c])

		cs := columnState{
			newActive:     newActive,
			commonOldPos:  commonOldPos,
			commonNewPos:  commonNewPos,
			enteringPos:   enteringNewPos,
			obs:           obsByColumn[c],
			bestH:         make(map[uint32]int),
			projectedFrom: make(map[uint32]uint32),
		}

		site, known := sites[positions[c]]
		cs.genotype = site
		switch {
		case allHet || (known && site.IsHeterozygous()):
			cs.freeChoice = true
		case known && site.IsHomozygous():
			cs.freeChoice = false
		default:
			return nil, ErrAmbiguousGenotype
		}

		// Project dpPrev (keyed over oldActive) down to a table keyed over
		// common, marginalizing out bits for fragments that left.
		midDP := make(map[uint32]int)
		midFrom := make(map[uint32]uint32)
		for oldMask, cost := range dpPrev {
			commonMask := extractBits(oldMask, commonOldPos)
			if existing, ok := midDP[commonMask]; !ok || cost < existing || (cost == existing && oldMask < midFrom[commonMask]) {
				midDP[commonMask] = cost
				midFrom[commonMask] = oldMask
			}
		}
		cs.projectedFrom = midFrom

		// Build fragment-id -> bit position map for this column's
		// observations.
		bitOf := make(map[int]int, len(newActive))
		for i, id := range newActive {
			bitOf[id] = i
		}

		nEntering := len(enteringNewPos)
		dpCur := make(map[uint32]int)
		for midMask, midCost := range midDP {
			for enterAssign := uint32(0); enterAssign < (uint32(1) << uint(nEntering)); enterAssign++ {
				full := insertBits(midMask, commonNewPos, enterAssign, enteringNewPos, len(newActive))
				stepCost, h := columnCost(cs, full, bitOf)
				total := midCost + stepCost
				if existing, ok := dpCur[full]; !ok || total < existing {
					dpCur[full] = total
					cs.bestH[full] = h
				}
			}
		}
		columns[c] = cs
		dpPrev = dpCur
		oldActive = newActive
	}

	// Pick the minimum-cost final state; ties broken by smallest mask value
	// for determinism. Together with columnCost's per-column preference for
	// h=0 this makes the choice deterministic, but it does not by itself
	// select the lexicographically smallest haplotype among all optimal ones.
	var bestMask uint32
	bestCost := -1
	masks := make([]uint32, 0, len(dpPrev))
	for m := range dpPrev {
		masks = append(masks, m)
	}
	sort.Slice(masks, func(i, j int) bool { return masks[i] < masks[j] })
	for _, m := range masks {
		if bestCost == -1 || dpPrev[m] < bestCost {
			bestCost = dpPrev[m]
			bestMask = m
		}
	}

	h := make([]int, V)
	quality := make([]int, V)
	mask := bestMask
	for c := V - 1; c >= 0; c-- {
		cs := columns[c]
		bitOf := make(map[int]int, len(cs.newActive))
		for i, id := range cs.newActive {
			bitOf[id] = i
		}
		stepCost, chosenH := columnCost(cs, mask, bitOf)
		h[c] = chosenH
		total := 0
		for _, o := range cs.obs {
			total += o.quality
		}
		quality[c] = total - stepCost

		commonMask := extractBits(mask, cs.commonNewPos)
		mask = cs.projectedFrom[commonMask]
	}

	sr0 := SuperRead{Pos: make([]int, V), Allele: make([]int, V), Quality: make([]int, V)}
	sr1 := SuperRead{Pos: make([]int, V), Allele: make([]int, V), Quality: make([]int, V)}
	for c := 0; c < V; c++ {
		sr0.Pos[c] = positions[c]
		sr1.Pos[c] = positions[c]
		sr0.Allele[c] = h[c]
		sr1.Allele[c] = 1 - h[c]
		if !columns[c].freeChoice {
			// Homozygous column: both haplotypes carry the called allele.
			sr1.Allele[c] = h[c]
		}
		sr0.Quality[c] = quality[c]
		sr1.Quality[c] = quality[c]
	}

	return &Result{SuperReads: [2]SuperRead{sr0, sr1}, Cost: bestCost}, nil
}

func leavingAfterPrev(leavingAfter [][]int, c int) []int {
	if c == 0 {
		return nil
	}
	return leavingAfter[c-1]
}

// mergeActive merges the ascending common and entering id lists into a
// single ascending list, returning the bit position each common/entering
// element lands at in the merged list.
func mergeActive(common, entering []int) (merged []int, commonPos []int, enteringPos []int) {
	merged = make([]int, 0, len(common)+len(entering))
	commonPos = make([]int, 0, len(common))
	enteringPos = make([]int, 0, len(entering))
	i, j := 0, 0
	for i < len(common) || j < len(entering) {
		switch {
		case j >= len(entering) || (i < len(common) && common[i] < entering[j]):
			commonPos = append(commonPos, len(merged))
			merged = append(merged, common[i])
			i++
		default:
			enteringPos = append(enteringPos, len(merged))
			merged = append(merged, entering[j])
			j++
		}
	}
	return merged, commonPos, enteringPos
}

// extractBits reads len(positions) bits out of mask at the given bit
// positions and packs them, in order, into the low bits of the result.
func extractBits(mask uint32, positions []int) uint32 {
	var out uint32
	for k, pos := range positions {
		bit := (mask >> uint(pos)) & 1
		out |= bit << uint(k)
	}
	return out
}

// insertBits scatters commonMask's low len(commonPos) bits and
// enterMask's low len(enterPos) bits into a new mask of width total,
// at the given bit positions.
func insertBits(commonMask uint32, commonPos []int, enterMask uint32, enterPos []int, total int) uint32 {
	var out uint32
	for k, pos := range commonPos {
		bit := (commonMask >> uint(k)) & 1
		out |= bit << uint(pos)
	}
	for k, pos := range enterPos {
		bit := (enterMask >> uint(k)) & 1
		out |= bit << uint(pos)
	}
	return out
}

// columnCost computes the minimum weighted mismatch cost for this column
// given a fixed partition mask over the column's active fragments, and the
// haplotype value (h) that achieves it. For a free-choice column this picks
// whichever of h=0/h=1 is cheaper, ties going to 0. For a fixed column
// (homozygous genotype) h is the called allele and the cost does not depend
// on the mask.
func columnCost(cs columnState, mask uint32, bitOf map[int]int) (cost int, h int) {
	if !cs.freeChoice {
		g := cs.genotype.Alleles[0]
		sum := 0
		for _, o := range cs.obs {
			if int(o.allele) != g {
				sum += o.quality
			}
		}
		return sum, g
	}

	cost0 := 0
	total := 0
	for _, o := range cs.obs {
		total += o.quality
		bit := int((mask >> uint(bitOf[o.fragID])) & 1)
		if int(o.allele) != bit {
			cost0 += o.quality
		}
	}
	cost1 := total - cost0
	if cost0 <= cost1 {
		return cost0, 0
	}
	return cost1, 1
}
