package align

import (
	"fmt"

	"github.com/biogo/hts/sam"

	"github.com/inodb/readphase/internal/phase"
)

// DefaultBaseQuality is substituted for the observation quality when a
// record carries no quality string (sam.Record.Qual is nil or "*").
const DefaultBaseQuality = 30

// Project walks rec's CIGAR against the ordered, chromosome-sorted variant
// list and returns the allele observations at every variant position a
// matching CIGAR region covers.
//
// The variant cursor advances monotonically across the whole alignment and
// is never re-anchored at the start of a new CIGAR segment, matching the
// source this was ported from: when two variants share a reference
// position, only the first is ever observed, because the cursor has already
// moved past it by the time the second is considered.
func Project(rec *sam.Record, variants []phase.VariantSite, defaultQuality int) ([]phase.Observation, error) {
	if defaultQuality <= 0 {
		defaultQuality = DefaultBaseQuality
	}
	seq := rec.Seq.Expand()
	qual := rec.Qual

	var obs []phase.Observation
	j := 0
	p := rec.Pos
	s := 0
	for _, co := range rec.Cigar {
		n := co.Len()
		switch co.Type() {
		case sam.CigarMatch, sam.CigarEqual, sam.CigarMismatch:
			for i := 0; i < n; i++ {
				for j < len(variants) && variants[j].Pos < p {
					j++
				}
				if j < len(variants) && variants[j].Pos == p {
					q := defaultQuality
					if s < len(qual) && qual[s] != 0xff {
						q = int(qual[s])
					}
					obs = append(obs, observationAt(variants[j], seq, s, q))
					j++
				}
				s++
				p++
			}
		case sam.CigarInsertion, sam.CigarSoftClipped:
			s += n
		case sam.CigarDeletion, sam.CigarSkipped:
			p += n
		case sam.CigarHardClipped, sam.CigarPadded:
			// consumes neither cursor
		default:
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedCigar, co.Type())
		}
	}
	return obs, nil
}

// observationAt builds the observation for variant v given the read's
// expanded bases and the read offset of v's anchoring position. SNVs
// compare a single base; indels compare the wider of Ref/Alt, truncating
// only at the end of the read, so the compared bases may run past the
// current CIGAR operation into the following one (this core does not
// realign around indels).
func observationAt(v phase.VariantSite, seq []byte, s, quality int) phase.Observation {
	width := len(v.Ref)
	if len(v.Alt) > width {
		width = len(v.Alt)
	}
	end := s + width
	if end > len(seq) {
		end = len(seq)
	}
	bases := ""
	if s < len(seq) {
		bases = string(seq[s:end])
	}

	allele := phase.AlleleMismatch
	switch bases {
	case v.Ref:
		allele = phase.AlleleRef
	case v.Alt:
		allele = phase.AlleleAlt
	}

	return phase.Observation{
		Pos:     v.Pos,
		Bases:   bases,
		Allele:  allele,
		Quality: quality,
	}
}
