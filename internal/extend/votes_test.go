package extend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/readphase/internal/phase"
)

func taggedFragment(name string, hp, ps int, obs ...phase.Observation) *phase.Fragment {
	return &phase.Fragment{Name: name, Obs: obs, HP: hp, PS: ps}
}

func TestComputeVotesSkipsUntaggedFragments(t *testing.T) {
	fragments := []*phase.Fragment{
		phase.NewFragment("untagged", 60, []phase.Observation{{Pos: 0, Allele: phase.AlleleRef, Quality: 20}}),
		taggedFragment("tagged", 0, 100, phase.Observation{Pos: 0, Allele: phase.AlleleRef, Quality: 20}),
	}
	votes := ComputeVotes(fragments, nil)
	require.Contains(t, votes, 0)
	assert.Equal(t, 20, votes[0][voteKey{PS: 100, Allele: 0}])
}

func TestComputeVotesSkipsHomozygousAndGapAndMismatch(t *testing.T) {
	fragments := []*phase.Fragment{
		taggedFragment("a", 0, 1,
			phase.Observation{Pos: 0, Allele: phase.AlleleRef, Quality: 20},
			phase.Observation{Pos: 1, IsGap: true},
			phase.Observation{Pos: 2, Allele: phase.AlleleMismatch, Quality: 20},
		),
	}
	votes := ComputeVotes(fragments, map[int]bool{0: true})
	assert.NotContains(t, votes, 0)
	assert.NotContains(t, votes, 1)
	assert.NotContains(t, votes, 2)
}

func TestComputeVotesXorsHPWithAllele(t *testing.T) {
	fragments := []*phase.Fragment{
		taggedFragment("a", 1, 5, phase.Observation{Pos: 10, Allele: phase.AlleleAlt, Quality: 30}),
	}
	votes := ComputeVotes(fragments, nil)
	// HP=1 xor Allele(1)=1 -> 0
	assert.Equal(t, 30, votes[10][voteKey{PS: 5, Allele: 0}])
}

func TestBestCandidatePicksHighestScore(t *testing.T) {
	v := map[voteKey]int{
		{PS: 1, Allele: 0}: 10,
		{PS: 1, Allele: 1}: 40,
	}
	ps, allele, score, total := BestCandidate(v)
	assert.Equal(t, 1, ps)
	assert.Equal(t, 1, allele)
	assert.Equal(t, 40, score)
	assert.Equal(t, 50, total)
}

func TestBestCandidateDeterministicTieBreak(t *testing.T) {
	v := map[voteKey]int{
		{PS: 5, Allele: 1}: 20,
		{PS: 2, Allele: 0}: 20,
	}
	ps, allele, score, _ := BestCandidate(v)
	// Equal scores break toward the smaller (PS, Allele) pair.
	assert.Equal(t, 2, ps)
	assert.Equal(t, 0, allele)
	assert.Equal(t, 20, score)
}
