package vcfio

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Reader streams a VCF file grouped by chromosome, mirroring the original
// whatshap VcfReader's variant_table iteration. Input is assumed sorted so
// that every variant for a chromosome appears in one contiguous run;
// supports both plain and gzip-compressed input like the teacher's parser.
type Reader struct {
	reader      *bufio.Reader
	file        *os.File
	gzipReader  *gzip.Reader
	lineNumber  int
	header      []string
	sampleNames []string

	pending *Variant // lookahead: first variant of the next chromosome
	done    bool
}

// NewReader opens path, auto-detecting gzip compression. "-" reads stdin.
func NewReader(path string) (*Reader, error) {
	if path == "-" {
		return NewReaderFrom(os.Stdin)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("vcfio: open %s: %w", path, err)
	}

	r := &Reader{file: file}

	magic := make([]byte, 2)
	if _, err := io.ReadFull(file, magic); err != nil {
		file.Close()
		return nil, fmt.Errorf("vcfio: read header of %s: %w", path, err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		file.Close()
		return nil, fmt.Errorf("vcfio: seek %s: %w", path, err)
	}

	if magic[0] == 0x1f && magic[1] == 0x8b {
		r.gzipReader, err = gzip.NewReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("vcfio: gzip reader for %s: %w", path, err)
		}
		r.reader = bufio.NewReader(r.gzipReader)
	} else {
		r.reader = bufio.NewReader(file)
	}

	if err := r.parseHeader(); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

// NewReaderFrom wraps an already-open stream (e.g. stdin).
func NewReaderFrom(rd io.Reader) (*Reader, error) {
	r := &Reader{reader: bufio.NewReader(rd)}
	if err := r.parseHeader(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Reader) parseHeader() error {
	for {
		line, err := r.reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("vcfio: read header: %w", err)
		}
		r.lineNumber++
		line = strings.TrimRight(line, "\r\n")

		if strings.HasPrefix(line, "##") {
			r.header = append(r.header, line)
			continue
		}
		if strings.HasPrefix(line, "#CHROM") {
			r.header = append(r.header, line)
			fields := strings.Split(line, "\t")
			if len(fields) > 9 {
				r.sampleNames = fields[9:]
			}
			return nil
		}
		return &ParseError{Line: r.lineNumber, Message: "expected #CHROM header line"}
	}
	return &ParseError{Line: r.lineNumber, Message: "no #CHROM header line found"}
}

// Header returns the raw header lines, passed through unchanged by Writer.
func (r *Reader) Header() []string { return r.header }

// SampleNames returns the sample columns declared on #CHROM.
func (r *Reader) SampleNames() []string { return r.sampleNames }

// Next returns the next chromosome's full run of variants, or nil, nil at
// end of input.
func (r *Reader) Next() (*Table, error) {
	if r.done && r.pending == nil {
		return nil, nil
	}

	var v *Variant
	if r.pending != nil {
		v = r.pending
		r.pending = nil
	} else {
		var err error
		v, err = r.nextVariant()
		if err != nil {
			return nil, err
		}
		if v == nil {
			r.done = true
			return nil, nil
		}
	}

	table := &Table{Chromosome: v.Chrom, Variants: []*Variant{v}}
	for {
		next, err := r.nextVariant()
		if err != nil {
			return nil, err
		}
		if next == nil {
			r.done = true
			return table, nil
		}
		if next.Chrom != table.Chromosome {
			r.pending = next
			return table, nil
		}
		table.Variants = append(table.Variants, next)
	}
}

func (r *Reader) nextVariant() (*Variant, error) {
	for {
		line, err := r.reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return nil, nil
			}
			return nil, fmt.Errorf("vcfio: read variant line: %w", err)
		}
		r.lineNumber++
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			continue
		}
		return r.parseLine(line)
	}
}

func (r *Reader) parseLine(line string) (*Variant, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 8 {
		return nil, &ParseError{Line: r.lineNumber, Message: fmt.Sprintf("expected at least 8 columns, found %d", len(fields))}
	}

	pos, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil, &ParseError{Line: r.lineNumber, Message: fmt.Sprintf("invalid position: %s", fields[1])}
	}
	alt := fields[4]
	if strings.Contains(alt, ",") {
		alt = strings.SplitN(alt, ",", 2)[0]
	}

	v := &Variant{
		Chrom:     fields[0],
		Pos:       pos - 1,
		ID:        fields[2],
		Ref:       fields[3],
		Alt:       alt,
		Qual:      fields[5],
		Filter:    fields[6],
		Info:       fields[7],
		Genotypes:  make(map[string]Genotype, len(r.sampleNames)),
		RawSamples: make(map[string]string, len(r.sampleNames)),
	}

	if len(fields) > 9 {
		v.Format = strings.Split(fields[8], ":")
		for i, name := range r.sampleNames {
			col := 9 + i
			if col >= len(fields) {
				break
			}
			v.Genotypes[name] = parseGenotype(v.Format, fields[col])
			v.RawSamples[name] = fields[col]
		}
	}

	return v, nil
}

func parseGenotype(format []string, sample string) Genotype {
	parts := strings.Split(sample, ":")
	byKey := make(map[string]string, len(format))
	for i, key := range format {
		if i < len(parts) {
			byKey[key] = parts[i]
		}
	}

	gt := Genotype{Alleles: [2]int{-1, -1}, PS: byKey["PS"]}
	raw := byKey["GT"]
	if raw == "" {
		return gt
	}

	sep := "/"
	if strings.Contains(raw, "|") {
		sep = "|"
		gt.Phased = true
	}
	alleles := strings.SplitN(raw, sep, 2)
	if len(alleles) != 2 {
		return gt
	}
	gt.Alleles[0] = parseAllele(alleles[0])
	gt.Alleles[1] = parseAllele(alleles[1])
	return gt
}

func parseAllele(s string) int {
	if s == "." {
		return -1
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return -1
	}
	return n
}

// Close releases the underlying file and gzip reader, if any.
func (r *Reader) Close() error {
	if r.gzipReader != nil {
		r.gzipReader.Close()
	}
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

// LineNumber returns the current line number being processed.
func (r *Reader) LineNumber() int { return r.lineNumber }
