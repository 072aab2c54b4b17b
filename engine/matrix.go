package engine

import (
	"errors"
	"fmt"
)

// ErrLengthMismatch is returned when an incoming matrix does not have the
// length fixed at startup.
var ErrLengthMismatch = errors.New("matrix length mismatch")

// Store holds the cyclic step matrix. Content is only ever replaced as a
// whole.
type Store struct {
	cells []uint8
}

// NewStore creates an all-zero matrix of the given length
func NewStore(length int) *Store {
	return &Store{cells: make([]uint8, length)}
}

// Set replaces the matrix with a copy of m. Non-zero values are stored as 1.
// A matrix of the wrong length is rejected and the current one kept.
func (s *Store) Set(m []uint8) error {
	if len(m) != len(s.cells) {
		return fmt.Errorf("%w: got %d, want %d", ErrLengthMismatch, len(m), len(s.cells))
	}
	next := make([]uint8, len(m))
	for i, v := range m {
		if v != 0 {
			next[i] = 1
		}
	}
	s.cells = next
	return nil
}

// Get returns a copy of the current matrix
func (s *Store) Get() []uint8 {
	out := make([]uint8, len(s.cells))
	copy(out, s.cells)
	return out
}

// Len returns the fixed matrix length
func (s *Store) Len() int {
	return len(s.cells)
}

// TrackCycleLength returns the per-track cycle length for the given number
// of active tracks. Trailing cells beyond cycle*active are unused.
func (s *Store) TrackCycleLength(active int) int {
	if active <= 0 {
		return 0
	}
	return len(s.cells) / active
}

// Cell returns the value of track at step within a cycle of the given
// length. step may be negative or past the cycle; it wraps. Tracks at or
// beyond the active count wrap around the whole matrix so they can keep
// being refreshed while hidden.
func (s *Store) Cell(track, step, cycle int) uint8 {
	if cycle <= 0 || len(s.cells) == 0 {
		return 0
	}
	idx := mod(step, cycle) + track*cycle
	return s.cells[mod(idx, len(s.cells))]
}

// mod is the Euclidean remainder: the result is always in [0, n).
func mod(a, n int) int {
	r := a % n
	if r < 0 {
		r += n
	}
	return r
}
