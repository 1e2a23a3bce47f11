package align

import (
	"testing"

	"github.com/biogo/hts/sam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/readphase/internal/phase"
)

func matchRecord(pos int, seq string, qual []byte, cigar sam.Cigar) *sam.Record {
	return &sam.Record{
		Name:  "r1",
		Pos:   pos,
		MapQ:  60,
		Cigar: cigar,
		Seq:   sam.NewSeq([]byte(seq)),
		Qual:  qual,
	}
}

func TestProjectSimpleMatch(t *testing.T) {
	variants := []phase.VariantSite{
		{Pos: 12, Ref: "A", Alt: "G"},
	}
	rec := matchRecord(10, "ACGAATT", []byte{30, 30, 30, 30, 30, 30, 30}, sam.Cigar{sam.NewCigarOp(sam.CigarMatch, 7)})

	obs, err := Project(rec, variants, DefaultBaseQuality)
	require.NoError(t, err)
	require.Len(t, obs, 1)
	assert.Equal(t, 12, obs[0].Pos)
	assert.Equal(t, phase.AlleleRef, obs[0].Allele)
	assert.Equal(t, 30, obs[0].Quality)
}

func TestProjectAltAllele(t *testing.T) {
	variants := []phase.VariantSite{{Pos: 12, Ref: "A", Alt: "G"}}
	rec := matchRecord(10, "ACGGATT", []byte{30, 30, 30, 30, 30, 30, 30}, sam.Cigar{sam.NewCigarOp(sam.CigarMatch, 7)})

	obs, err := Project(rec, variants, DefaultBaseQuality)
	require.NoError(t, err)
	require.Len(t, obs, 1)
	assert.Equal(t, phase.AlleleAlt, obs[0].Allele)
}

func TestProjectMismatchAllele(t *testing.T) {
	variants := []phase.VariantSite{{Pos: 12, Ref: "A", Alt: "G"}}
	rec := matchRecord(10, "ACGCATT", []byte{30, 30, 30, 30, 30, 30, 30}, sam.Cigar{sam.NewCigarOp(sam.CigarMatch, 7)})

	obs, err := Project(rec, variants, DefaultBaseQuality)
	require.NoError(t, err)
	require.Len(t, obs, 1)
	assert.Equal(t, phase.AlleleMismatch, obs[0].Allele)
}

func TestProjectSkipsDeletedVariant(t *testing.T) {
	// Variant falls inside a 3bp deletion starting at position 11.
	variants := []phase.VariantSite{{Pos: 12, Ref: "A", Alt: "G"}}
	rec := matchRecord(10, "ACAT", []byte{30, 30, 30, 30}, sam.Cigar{
		sam.NewCigarOp(sam.CigarMatch, 1),
		sam.NewCigarOp(sam.CigarDeletion, 3),
		sam.NewCigarOp(sam.CigarMatch, 3),
	})

	obs, err := Project(rec, variants, DefaultBaseQuality)
	require.NoError(t, err)
	assert.Empty(t, obs)
}

func TestProjectInsertionAdvancesReadOnly(t *testing.T) {
	variants := []phase.VariantSite{{Pos: 11, Ref: "A", Alt: "G"}}
	// Match at pos 10, 2bp insertion, then match resumes at pos 11.
	rec := matchRecord(10, "AXXG", []byte{30, 30, 30, 30}, sam.Cigar{
		sam.NewCigarOp(sam.CigarMatch, 1),
		sam.NewCigarOp(sam.CigarInsertion, 2),
		sam.NewCigarOp(sam.CigarMatch, 1),
	})

	obs, err := Project(rec, variants, DefaultBaseQuality)
	require.NoError(t, err)
	require.Len(t, obs, 1)
	assert.Equal(t, phase.AlleleAlt, obs[0].Allele)
}

func TestProjectUsesDefaultQualityWhenQualMissingOrSentinel(t *testing.T) {
	variants := []phase.VariantSite{{Pos: 10, Ref: "A", Alt: "G"}}
	rec := matchRecord(10, "A", []byte{0xff}, sam.Cigar{sam.NewCigarOp(sam.CigarMatch, 1)})

	obs, err := Project(rec, variants, 17)
	require.NoError(t, err)
	require.Len(t, obs, 1)
	assert.Equal(t, 17, obs[0].Quality)

	noQual := matchRecord(10, "A", nil, sam.Cigar{sam.NewCigarOp(sam.CigarMatch, 1)})
	obs, err = Project(noQual, variants, 17)
	require.NoError(t, err)
	require.Len(t, obs, 1)
	assert.Equal(t, 17, obs[0].Quality)
}

func TestProjectQualityTracksReadOffsetNotVariantIndex(t *testing.T) {
	// Two variants; only the second is covered by real (non-sentinel)
	// quality at its own read offset. This guards against reusing qual[0]
	// for every observation regardless of its actual position in the read.
	variants := []phase.VariantSite{
		{Pos: 10, Ref: "A", Alt: "G"},
		{Pos: 11, Ref: "C", Alt: "T"},
	}
	rec := matchRecord(10, "AC", []byte{0xff, 42}, sam.Cigar{sam.NewCigarOp(sam.CigarMatch, 2)})

	obs, err := Project(rec, variants, 30)
	require.NoError(t, err)
	require.Len(t, obs, 2)
	assert.Equal(t, 30, obs[0].Quality)
	assert.Equal(t, 42, obs[1].Quality)
}

func TestProjectUnsupportedCigarBack(t *testing.T) {
	variants := []phase.VariantSite{{Pos: 10, Ref: "A", Alt: "G"}}
	rec := matchRecord(10, "A", []byte{30}, sam.Cigar{sam.NewCigarOp(sam.CigarBack, 1)})

	_, err := Project(rec, variants, DefaultBaseQuality)
	assert.ErrorIs(t, err, ErrUnsupportedCigar)
}

func TestProjectIndelWidensComparison(t *testing.T) {
	variants := []phase.VariantSite{{Pos: 10, Ref: "A", Alt: "ATT"}}
	rec := matchRecord(10, "ATT", []byte{30, 30, 30}, sam.Cigar{sam.NewCigarOp(sam.CigarMatch, 3)})

	obs, err := Project(rec, variants, DefaultBaseQuality)
	require.NoError(t, err)
	require.Len(t, obs, 1)
	assert.Equal(t, phase.AlleleAlt, obs[0].Allele)
}
