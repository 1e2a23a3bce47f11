package vcfio

import (
	"errors"
	"fmt"
)

// ErrFormat is the sentinel every malformed-line error wraps, so callers can
// test for it with errors.Is without caring about line numbers.
var ErrFormat = errors.New("vcfio: malformed vcf")

// ParseError reports a malformed VCF line with its line number, mirroring
// the teacher's own vcf.ParseError.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("vcfio: parse error at line %d: %s", e.Line, e.Message)
}

func (e *ParseError) Unwrap() error { return ErrFormat }
