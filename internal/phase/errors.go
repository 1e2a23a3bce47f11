package phase

import "errors"

// Sentinel errors surfaced by the phasing pipeline. Per-read problems never
// reach these; they are absorbed as statistics by the assembler and filter.
var (
	// ErrAmbiguousGenotype is returned by the DP when all-heterozygous mode
	// is off and a column's genotype is missing, so the phaser has no basis
	// to fix that column's haplotype value. See the Open Question in the
	// design notes: the phaser refuses rather than guesses.
	ErrAmbiguousGenotype = errors.New("phase: column genotype required when all-het is disabled")

	// ErrEmptyReadSet is returned when a read set has fewer than two
	// fragments or no variant columns; callers treat this as EmptyResult
	// per the failure semantics and leave the chromosome unchanged.
	ErrEmptyReadSet = errors.New("phase: read set has too few fragments to phase")
)
