package phase

// unionFind is a union-find over variant positions where the representative
// of a component is always its smallest member (union-by-value, not
// union-by-rank), with path compression applied on Find. Nodes are
// identified by their position value directly rather than by a dense index,
// since variant positions are sparse across a chromosome.
type unionFind struct {
	parent map[int]int
}

func newUnionFind(positions []int) *unionFind {
	parent := make(map[int]int, len(positions))
	for _, p := range positions {
		parent[p] = p
	}
	return &unionFind{parent: parent}
}

func (u *unionFind) find(x int) int {
	root := x
	for u.parent[root] != root {
		root = u.parent[root]
	}
	for u.parent[x] != root {
		u.parent[x], x = root, u.parent[x]
	}
	return root
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	if ra < rb {
		u.parent[rb] = ra
	} else {
		u.parent[ra] = rb
	}
}

// Components builds a union-find over the phased positions in superRead0
// (those with allele 0 or 1), unioning every position that co-occurs on any
// fragment of the original, unsliced read set. It returns the mapping from
// position to the smallest position reachable from it.
func Components(readSet *ReadSet, superRead0 SuperRead) map[int]int {
	phased := make(map[int]struct{}, len(superRead0.Pos))
	for _, p := range superRead0.Pos {
		phased[p] = struct{}{}
	}

	uf := newUnionFind(superRead0.Pos)

	for _, f := range readSet.Fragments {
		first := -1
		hasFirst := false
		for _, o := range f.Obs {
			if o.IsGap {
				continue
			}
			if _, ok := phased[o.Pos]; !ok {
				continue
			}
			if !hasFirst {
				first = o.Pos
				hasFirst = true
				continue
			}
			uf.union(first, o.Pos)
		}
	}

	out := make(map[int]int, len(superRead0.Pos))
	for _, p := range superRead0.Pos {
		out[p] = uf.find(p)
	}
	return out
}
