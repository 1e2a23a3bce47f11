package extend

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeChrom struct {
	bases string
}

func (f fakeChrom) At(pos int) (byte, bool) {
	if pos < 0 || pos >= len(f.bases) {
		return 0, false
	}
	return f.bases[pos], true
}

func TestLengthOfPolymerCountsRunFromAnchor(t *testing.T) {
	// "AAAAT": a run of 4 A's starting at position 0.
	ref := fakeChrom{"AAAAT"}
	assert.Equal(t, 4, LengthOfPolymer(ref, 0, 1, 10))
}

func TestLengthOfPolymerStopsAtThreshold(t *testing.T) {
	ref := fakeChrom{"AAAAAAAAAA"}
	assert.Equal(t, 5, LengthOfPolymer(ref, 0, 1, 5))
}

func TestLengthOfPolymerBackward(t *testing.T) {
	ref := fakeChrom{"TAAAA"}
	assert.Equal(t, 4, LengthOfPolymer(ref, 4, -1, 10))
}

func TestLengthOfPolymerOutOfRangeAnchor(t *testing.T) {
	ref := fakeChrom{"ACGT"}
	assert.Equal(t, 0, LengthOfPolymer(ref, 10, 1, 10))
}

func TestExceedsHomopolymerRun(t *testing.T) {
	// 8-base run of A's starting at position 2, cutPoly 5: the run from
	// pos+1 forward should reach the cutoff.
	ref := fakeChrom{"TTAAAAAAAAT"}
	assert.True(t, ExceedsHomopolymerRun(ref, 1, 5))
}

func TestExceedsHomopolymerRunBelowThreshold(t *testing.T) {
	ref := fakeChrom{"TTAAT"}
	assert.False(t, ExceedsHomopolymerRun(ref, 1, 5))
}

func TestExceedsHomopolymerRunDisabled(t *testing.T) {
	ref := fakeChrom{"AAAAAAAAAA"}
	assert.False(t, ExceedsHomopolymerRun(ref, 0, 0))
}

func TestExceedsHomopolymerRunNilReference(t *testing.T) {
	assert.False(t, ExceedsHomopolymerRun(nil, 0, 5))
}
