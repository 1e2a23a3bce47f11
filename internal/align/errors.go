// Package align adapts github.com/biogo/hts alignment records into the
// allele-observation model consumed by the phasing core. Everything here is
// a pluggable collaborator: the core package never imports it.
package align

import "errors"

var (
	// ErrUnsupportedCigar is returned for any CIGAR operator outside the
	// nine bíogo sam.CigarOpType values the projector understands.
	ErrUnsupportedCigar = errors.New("align: unsupported cigar operator")

	// ErrAmbiguousPair is returned when more than two alignments share a
	// read name within one chromosome's worth of records.
	ErrAmbiguousPair = errors.New("align: more than two records share a read name")
)
