package phase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFragmentSpan(t *testing.T) {
	f := NewFragment("r1", 60, []Observation{
		{Pos: 10, Allele: AlleleRef, Quality: 30},
		{Pos: 20, Allele: AlleleAlt, Quality: 30},
	})
	first, last, ok := f.Span()
	require.True(t, ok)
	assert.Equal(t, 10, first)
	assert.Equal(t, 20, last)
}

func TestFragmentSpanEmpty(t *testing.T) {
	f := NewFragment("r1", 60, nil)
	_, _, ok := f.Span()
	assert.False(t, ok)
}

func TestFragmentIsMonotonic(t *testing.T) {
	tests := []struct {
		name string
		obs  []Observation
		want bool
	}{
		{"strictly increasing", []Observation{{Pos: 1}, {Pos: 2}, {Pos: 3}}, true},
		{"repeated position", []Observation{{Pos: 1}, {Pos: 1}}, false},
		{"decreasing", []Observation{{Pos: 5}, {Pos: 2}}, false},
		{"gap does not break run", []Observation{{Pos: 1}, {IsGap: true}, {Pos: 2}}, true},
		{"single observation", []Observation{{Pos: 1}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &Fragment{Obs: tt.obs}
			assert.Equal(t, tt.want, f.IsMonotonic())
		})
	}
}

func TestFragmentHasMismatch(t *testing.T) {
	clean := &Fragment{Obs: []Observation{{Allele: AlleleRef}, {Allele: AlleleAlt}}}
	dirty := &Fragment{Obs: []Observation{{Allele: AlleleRef}, {Allele: AlleleMismatch}}}
	assert.False(t, clean.HasMismatch())
	assert.True(t, dirty.HasMismatch())
}

func TestNewReadSetSortsAndAssignsIDs(t *testing.T) {
	fa := NewFragment("a", 60, []Observation{{Pos: 30, Allele: AlleleRef, Quality: 20}})
	fb := NewFragment("b", 60, []Observation{{Pos: 10, Allele: AlleleAlt, Quality: 20}})
	empty := NewFragment("c", 60, nil)

	rs := NewReadSet([]*Fragment{fa, fb, empty})

	require.Len(t, rs.Fragments, 2)
	assert.Equal(t, "b", rs.Fragments[0].Name)
	assert.Equal(t, 0, rs.Fragments[0].ID)
	assert.Equal(t, "a", rs.Fragments[1].Name)
	assert.Equal(t, 1, rs.Fragments[1].ID)
}

func TestReadSetPositions(t *testing.T) {
	fa := NewFragment("a", 60, []Observation{{Pos: 30}, {Pos: 10}})
	fb := NewFragment("b", 60, []Observation{{Pos: 10}, {Pos: 20}})
	rs := NewReadSet([]*Fragment{fa, fb})
	assert.Equal(t, []int{10, 20, 30}, rs.Positions())
}

func TestGenotypeClassification(t *testing.T) {
	het := Genotype{Alleles: [2]int{0, 1}, Called: true}
	hom := Genotype{Alleles: [2]int{1, 1}, Called: true}
	uncalled := Genotype{Alleles: [2]int{-1, -1}, Called: false}

	assert.True(t, het.IsHeterozygous())
	assert.False(t, het.IsHomozygous())
	assert.True(t, hom.IsHomozygous())
	assert.False(t, hom.IsHeterozygous())
	assert.False(t, uncalled.IsHeterozygous())
	assert.False(t, uncalled.IsHomozygous())
}
