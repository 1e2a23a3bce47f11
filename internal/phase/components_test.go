package phase

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComponentsUnionsCoOccurringPositions(t *testing.T) {
	f1 := NewFragment("r1", 60, []Observation{
		{Pos: 0, Allele: AlleleRef, Quality: 20},
		{Pos: 10, Allele: AlleleAlt, Quality: 20},
	})
	f2 := NewFragment("r2", 60, []Observation{
		{Pos: 10, Allele: AlleleAlt, Quality: 20},
		{Pos: 20, Allele: AlleleRef, Quality: 20},
	})
	// f3 touches an isolated position never shared with the others.
	f3 := NewFragment("r3", 60, []Observation{
		{Pos: 30, Allele: AlleleRef, Quality: 20},
	})
	readSet := NewReadSet([]*Fragment{f1, f2, f3})

	superRead0 := SuperRead{Pos: []int{0, 10, 20, 30}, Allele: []int{0, 1, 0, 0}}
	components := Components(readSet, superRead0)

	assert.Equal(t, components[0], components[10])
	assert.Equal(t, components[10], components[20])
	assert.NotEqual(t, components[0], components[30])
	assert.Equal(t, 0, components[0])
	assert.Equal(t, 30, components[30])
}
