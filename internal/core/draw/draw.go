package draw

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientCandidates indicates more winners were requested than candidates exist.
	ErrInsufficientCandidates = errors.New("insufficient candidates")
	// ErrInvalidCount indicates a negative winner count.
	ErrInvalidCount = errors.New("winner count must not be negative")
	// ErrMissingSource indicates a nil random source for a non-empty draw.
	ErrMissingSource = errors.New("random source is required")
	// ErrDrawLimitExceeded indicates the optional raw draw cap was reached
	// before enough distinct indices were collected.
	ErrDrawLimitExceeded = errors.New("draw limit exceeded")
)

// Source produces a stream of 64-bit values.
type Source interface {
	Uint64() uint64
}

// Entry is one accepted draw.
type Entry[T any] struct {
	// Value is the raw value returned by the source.
	Value uint64
	// Index is Value reduced modulo the candidate count.
	Index int
	// Record is the candidate at Index.
	Record T
}

// Result is the ordered outcome of a selection run.
type Result[T any] struct {
	Entries []Entry[T]
	// Draws counts every value taken from the source, including rejected
	// duplicates.
	Draws uint64
}

// Rejected reports how many draws were discarded as duplicates.
func (r Result[T]) Rejected() uint64 {
	return r.Draws - uint64(len(r.Entries))
}

// Values returns the raw accepted values in draw order.
func (r Result[T]) Values() []uint64 {
	values := make([]uint64, len(r.Entries))
	for i, e := range r.Entries {
		values[i] = e.Value
	}
	return values
}

// Indices returns the accepted candidate indices in draw order.
func (r Result[T]) Indices() []int {
	indices := make([]int, len(r.Entries))
	for i, e := range r.Entries {
		indices[i] = e.Index
	}
	return indices
}

// Records returns the selected candidates in draw order.
func (r Result[T]) Records() []T {
	records := make([]T, len(r.Entries))
	for i, e := range r.Entries {
		records[i] = e.Record
	}
	return records
}

type options struct {
	maxDraws uint64
}

// Option configures Select.
type Option func(*options)

// WithMaxDraws caps the number of raw draws. Zero leaves the loop unbounded.
func WithMaxDraws(n uint64) Option {
	return func(o *options) {
		o.maxDraws = n
	}
}

// Select draws k distinct candidates from src.
//
// # Algorithm
//
// Each step takes r = src.Uint64() and reduces it to idx = r mod N, where N
// is len(candidates). An idx that was already accepted is discarded and the
// next value is drawn. Accepted draws are recorded in order until k entries
// exist. The reduction keeps its modulo bias so historical runs replay
// exactly.
//
// # Determinism
//
// For the same source state, the same candidates in the same order, and the
// same k, Select returns the same Result. Candidate order matters: an index
// maps to whatever record sits at that position.
//
// # Termination
//
// Without WithMaxDraws the loop ends with probability one for a well
// distributed source, but the expected number of draws grows like the
// coupon collector's problem as k approaches N.
//
// # Errors
//
//   - k < 0 returns ErrInvalidCount.
//   - k > len(candidates) returns ErrInsufficientCandidates.
//   - a nil src with k > 0 returns ErrMissingSource.
//   - hitting the WithMaxDraws cap returns ErrDrawLimitExceeded.
//
// Preconditions are checked before any value is drawn. On error no partial
// result is returned.
func Select[T any](src Source, candidates []T, k int, opts ...Option) (Result[T], error) {
	if k < 0 {
		return Result[T]{}, fmt.Errorf("%w: got %d", ErrInvalidCount, k)
	}
	if k > len(candidates) {
		return Result[T]{}, fmt.Errorf("%w: %d winners requested from %d candidates", ErrInsufficientCandidates, k, len(candidates))
	}
	if k == 0 {
		return Result[T]{Entries: []Entry[T]{}}, nil
	}
	if src == nil {
		return Result[T]{}, ErrMissingSource
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	n := uint64(len(candidates))
	seen := make(map[uint64]struct{}, k)
	entries := make([]Entry[T], 0, k)
	var draws uint64

	for len(entries) < k {
		if o.maxDraws > 0 && draws >= o.maxDraws {
			return Result[T]{}, fmt.Errorf("%w: %d draws yielded %d of %d winners", ErrDrawLimitExceeded, draws, len(entries), k)
		}
		value := src.Uint64()
		draws++

		idx := value % n
		if _, dup := seen[idx]; dup {
			continue
		}
		seen[idx] = struct{}{}
		entries = append(entries, Entry[T]{
			Value:  value,
			Index:  int(idx),
			Record: candidates[idx],
		})
	}

	return Result[T]{Entries: entries, Draws: draws}, nil
}
