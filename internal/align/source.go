package align

import (
	"fmt"
	"io"
	"os"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"

	"github.com/inodb/readphase/internal/phase"
)

// Tags carries the haplotype-tag fields a tagged alignment source attaches
// to each fragment, consumed only by the extension pipeline.
type Tags struct {
	HP int // -1 when absent
	PS int // -1 when absent
}

var noTags = Tags{HP: -1, PS: -1}

// Source is the narrow capability both the phasing and extension pipelines
// need from a chromosome's alignments: enumerate every read covering a
// region and hand back its assembled fragment. Both BAMSource and
// TaggedBAMSource share the same Allele Projector; the difference is
// whether haplotype tags are extracted.
type Source interface {
	// Fragments returns every fragment assembled from alignments against
	// chrom that overlap the given variant list, plus the filtering and
	// assembly statistics produced along the way.
	Fragments(chrom string, variants []phase.VariantSite) ([]*phase.Fragment, AssembleStats, error)
}

// BAMSource reads coordinate-sorted alignments from an indexed BAM file,
// feeding the phasing pipeline's Read Assembler. It owns neither the
// underlying *os.File nor the index; callers register both with a
// resource.Stack so they are closed on every exit path.
type BAMSource struct {
	reader  *bam.Reader
	index   *bam.Index
	raw     io.ReadSeeker
	Options AssembleOptions
}

// NewBAMSource wraps an already-opened BAM reader and its index.
func NewBAMSource(reader *bam.Reader, index *bam.Index, raw io.ReadSeeker, opts AssembleOptions) *BAMSource {
	return &BAMSource{reader: reader, index: index, raw: raw, Options: opts}
}

// OpenBAMIndex loads idxPath, creating it with a linear index pass over
// bamPath first when it is missing. Per the failure semantics, a second
// missing-index condition after that attempt is fatal and returned as-is.
func OpenBAMIndex(bamPath, idxPath string) (*bam.Index, error) {
	f, err := os.Open(idxPath)
	if err == nil {
		defer f.Close()
		return bam.ReadIndex(f)
	}
	if !os.IsNotExist(err) {
		return nil, err
	}

	idx, err := buildBAMIndex(bamPath)
	if err != nil {
		return nil, fmt.Errorf("align: creating missing index for %s: %w", bamPath, err)
	}
	out, err := os.Create(idxPath)
	if err != nil {
		return nil, fmt.Errorf("align: writing index %s: %w", idxPath, err)
	}
	defer out.Close()
	if err := bam.WriteIndex(out, idx); err != nil {
		return nil, fmt.Errorf("align: writing index %s: %w", idxPath, err)
	}
	return idx, nil
}

func buildBAMIndex(bamPath string) (*bam.Index, error) {
	f, err := os.Open(bamPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := bam.NewReader(f, 0)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	idx := &bam.Index{}
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if err := idx.Add(rec, r.LastChunk()); err != nil {
			return nil, err
		}
	}
	return idx, nil
}

// Fragments implements Source by querying the index for chrom's chunk list,
// reading every overlapping record, and delegating to Assemble.
func (s *BAMSource) Fragments(chrom string, variants []phase.VariantSite) ([]*phase.Fragment, AssembleStats, error) {
	header := s.reader.Header()
	var ref *sam.Reference
	for _, r := range header.Refs() {
		if r.Name() == chrom {
			ref = r
			break
		}
	}
	if ref == nil {
		return nil, AssembleStats{}, fmt.Errorf("align: reference %q not found in BAM header", chrom)
	}

	chunks, err := s.index.Chunks(ref, 0, ref.Len())
	if err != nil {
		return nil, AssembleStats{}, fmt.Errorf("align: querying index for %s: %w", chrom, err)
	}

	it, err := bam.NewIterator(s.reader, chunks)
	if err != nil {
		return nil, AssembleStats{}, fmt.Errorf("align: iterating %s: %w", chrom, err)
	}
	defer it.Close()

	var records []*sam.Record
	for it.Next() {
		records = append(records, it.Record())
	}
	if err := it.Error(); err != nil {
		return nil, AssembleStats{}, fmt.Errorf("align: reading %s: %w", chrom, err)
	}

	return Assemble(records, header, variants, s.Options)
}

// TaggedBAMSource behaves like BAMSource but additionally extracts the HP
// and PS tags from each record and propagates them onto the merged
// fragment, feeding the extension pipeline. A mate pair's tags are taken
// from whichever mate carries them; disagreeing tags keep the first mate's.
type TaggedBAMSource struct {
	*BAMSource
}

// NewTaggedBAMSource wraps an already-opened, tag-aware BAM reader.
func NewTaggedBAMSource(reader *bam.Reader, index *bam.Index, raw io.ReadSeeker, opts AssembleOptions) *TaggedBAMSource {
	return &TaggedBAMSource{BAMSource: NewBAMSource(reader, index, raw, opts)}
}

// Fragments delegates to BAMSource.Fragments and then back-fills HP/PS on
// each fragment by re-scanning the records for their aux tags. This keeps
// the untagged path (BAMSource, phasing) free of any extension-only cost.
func (s *TaggedBAMSource) Fragments(chrom string, variants []phase.VariantSite) ([]*phase.Fragment, AssembleStats, error) {
	fragments, stats, err := s.BAMSource.Fragments(chrom, variants)
	if err != nil {
		return nil, stats, err
	}

	header := s.reader.Header()
	var ref *sam.Reference
	for _, r := range header.Refs() {
		if r.Name() == chrom {
			ref = r
			break
		}
	}
	if ref == nil {
		return fragments, stats, nil
	}
	chunks, err := s.index.Chunks(ref, 0, ref.Len())
	if err != nil {
		return fragments, stats, nil
	}
	it, err := bam.NewIterator(s.reader, chunks)
	if err != nil {
		return fragments, stats, nil
	}
	defer it.Close()

	tagsByName := make(map[string]Tags)
	for it.Next() {
		rec := it.Record()
		t := recordTags(rec)
		if prev, ok := tagsByName[rec.Name]; ok {
			if prev.HP < 0 {
				prev.HP = t.HP
			}
			if prev.PS < 0 {
				prev.PS = t.PS
			}
			t = prev
		}
		tagsByName[rec.Name] = t
	}

	for _, f := range fragments {
		t, ok := tagsByName[f.Name]
		if !ok {
			t = noTags
		}
		f.HP = t.HP
		f.PS = t.PS
	}
	return fragments, stats, nil
}

var (
	hpTagBytes = []byte("HP")
	psTagBytes = []byte("PS")
)

func recordTags(rec *sam.Record) Tags {
	t := noTags
	if aux, ok := rec.Tag(hpTagBytes); ok {
		if v, ok := intTagValue(aux.Value()); ok {
			t.HP = v
		}
	}
	if aux, ok := rec.Tag(psTagBytes); ok {
		if v, ok := intTagValue(aux.Value()); ok {
			t.PS = v
		}
	}
	return t
}

func intTagValue(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int8:
		return int(n), true
	case uint8:
		return int(n), true
	case int16:
		return int(n), true
	case uint16:
		return int(n), true
	case int32:
		return int(n), true
	case uint32:
		return int(n), true
	}
	return 0, false
}
