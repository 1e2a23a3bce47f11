package vcfio

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/readphase/internal/phase"
)

func TestWriteHeaderInsertsPSFormatDefinition(t *testing.T) {
	var buf strings.Builder
	header := []string{"##fileformat=VCFv4.2", "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tS1"}
	w := NewWriter(&buf, header, []string{"S1"}, "")
	require.NoError(t, w.WriteHeader())

	out := buf.String()
	assert.Contains(t, out, `##FORMAT=<ID=PS,Number=1,Type=Integer,Description="Phase set identifier">`)
	assert.Contains(t, out, "#CHROM")
}

func TestWriteHeaderSkipsDuplicatePSDefinition(t *testing.T) {
	var buf strings.Builder
	header := []string{
		`##FORMAT=<ID=PS,Number=1,Type=Integer,Description="Phase set identifier">`,
		"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tS1",
	}
	w := NewWriter(&buf, header, []string{"S1"}, "")
	require.NoError(t, w.WriteHeader())
	assert.Equal(t, 1, strings.Count(buf.String(), "##FORMAT=<ID=PS"))
}

func TestWriteUnchangedPassesThroughOriginalColumns(t *testing.T) {
	var buf strings.Builder
	w := NewWriter(&buf, nil, []string{"S1"}, "")
	table := &Table{
		Chromosome: "chr1",
		Variants: []*Variant{
			{Chrom: "chr1", Pos: 99, ID: ".", Ref: "A", Alt: "G", Qual: ".", Filter: "PASS", Info: ".", Format: []string{"GT"}, RawSamples: map[string]string{"S1": "0/1"}},
		},
	}
	require.NoError(t, w.WriteUnchanged(table))
	assert.Equal(t, "chr1\t100\t.\tA\tG\t.\tPASS\t.\tGT\t0/1\n", buf.String())
}

func TestWriteOverridesGenotypeAndPhaseSet(t *testing.T) {
	var buf strings.Builder
	w := NewWriter(&buf, nil, []string{"S1"}, "")
	table := &Table{
		Chromosome: "chr1",
		Variants: []*Variant{
			{Chrom: "chr1", Pos: 99, ID: ".", Ref: "A", Alt: "G", Qual: ".", Filter: "PASS", Info: ".", Format: []string{"GT"}, RawSamples: map[string]string{"S1": "0/1"}},
			{Chrom: "chr1", Pos: 199, ID: ".", Ref: "C", Alt: "T", Qual: ".", Filter: "PASS", Info: ".", Format: []string{"GT"}, RawSamples: map[string]string{"S1": "1/1"}},
		},
	}
	results := map[string]SampleResult{
		"S1": {
			SuperReads: [2]phase.SuperRead{
				{Pos: []int{99}, Allele: []int{0}},
				{Pos: []int{99}, Allele: []int{1}},
			},
			Components: map[int]int{99: 99},
		},
	}

	require.NoError(t, w.Write(table, results))
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)

	fields := strings.Split(lines[0], "\t")
	assert.Equal(t, "GT:PS", fields[8])
	assert.Equal(t, "0|1:100", fields[9])

	// Position 199 is not covered by the result, so it passes through with
	// its original, unphased genotype.
	fields = strings.Split(lines[1], "\t")
	assert.Equal(t, "GT", fields[8])
	assert.Equal(t, "1/1", fields[9])
}

func TestBuildSampleColumnAppliesOverrides(t *testing.T) {
	out := buildSampleColumn([]string{"GT", "DP", "PS"}, "0/1:30", map[string]string{"GT": "0|1", "PS": "5"})
	assert.Equal(t, "0|1:30:5", out)
}

func TestBuildSampleColumnMissingFieldBecomesDot(t *testing.T) {
	out := buildSampleColumn([]string{"GT", "DP"}, "0/1", nil)
	assert.Equal(t, "0/1:.", out)
}
