package align

import (
	"fmt"
	"os"

	"github.com/biogo/hts/fai"
)

// Reference provides per-chromosome random access to FASTA bases for the
// extension pipeline's homopolymer guard. ChromView implements the
// extension package's ChromSequence structurally; this package never
// imports internal/extend.
type Reference struct {
	file *fai.File
	idx  fai.Index
}

// OpenReference opens fastaPath, reading the accompanying .fai index at
// idxPath or building one from the FASTA itself when the index is missing.
func OpenReference(fastaPath, idxPath string) (*Reference, error) {
	idx, err := readOrBuildFAIIndex(fastaPath, idxPath)
	if err != nil {
		return nil, fmt.Errorf("align: loading reference index for %s: %w", fastaPath, err)
	}
	f, err := fai.OpenFile(fastaPath, idx)
	if err != nil {
		return nil, fmt.Errorf("align: opening reference %s: %w", fastaPath, err)
	}
	return &Reference{file: f, idx: idx}, nil
}

func readOrBuildFAIIndex(fastaPath, idxPath string) (fai.Index, error) {
	if f, err := os.Open(idxPath); err == nil {
		defer f.Close()
		return fai.ReadFrom(f)
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	fasta, err := os.Open(fastaPath)
	if err != nil {
		return nil, err
	}
	defer fasta.Close()
	idx, err := fai.NewIndex(fasta)
	if err != nil {
		return nil, err
	}
	out, err := os.Create(idxPath)
	if err != nil {
		return nil, err
	}
	defer out.Close()
	if err := fai.WriteTo(out, idx); err != nil {
		return nil, err
	}
	return idx, nil
}

// Close releases the underlying mmapped file.
func (r *Reference) Close() error {
	return r.file.Close()
}

// Chrom returns the bounds-checked view of one chromosome's sequence
// consumed by the homopolymer guard.
func (r *Reference) Chrom(name string) (*ChromView, error) {
	rec, ok := r.idx[name]
	if !ok {
		return nil, fmt.Errorf("align: reference has no sequence %q", name)
	}
	seq, err := r.file.Seq(name)
	if err != nil {
		return nil, fmt.Errorf("align: reference has no sequence %q: %w", name, err)
	}
	return &ChromView{seq: seq, length: rec.Length}, nil
}

// ChromView is a bounds-checked, panic-free wrapper over an fai.Seq for one
// chromosome.
type ChromView struct {
	seq    *fai.Seq
	length int
}

// At returns the base at pos, and false when pos falls outside the
// chromosome's length.
func (c *ChromView) At(pos int) (byte, bool) {
	if pos < 0 || pos >= c.length {
		return 0, false
	}
	return c.seq.At(pos), true
}
