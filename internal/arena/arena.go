// Package arena provides the append-only dataset storage of the LSH index.
//
// Vectors are stored back to back in a single float64 slice. Buckets refer to
// them through dense Handles, so a vector that is present in L tables is
// stored exactly once.
//
// # Concurrency Model
//
// Append is single-writer. Lookups (Vector, ID, Lookup) are safe to run
// concurrently with each other but not with Append.
package arena

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrArenaFull is returned when no more handles can be allocated.
	ErrArenaFull = errors.New("arena is full")
	// ErrDuplicateID is returned when an identifier is appended twice.
	ErrDuplicateID = errors.New("duplicate identifier")
	// ErrDimension is returned when a vector does not match the arena dimension.
	ErrDimension = errors.New("dimension mismatch")
)

// Handle is a dense, arena-local reference to a stored vector.
// Handles are assigned in append order starting at zero.
type Handle = uint32

// Arena stores identifiers and vector payloads of a fixed dimension.
type Arena struct {
	dim   int
	data  []float64
	ids   []uint64
	index map[uint64]Handle
}

// New creates an arena for vectors of dimension dim.
// capacity is a hint for the number of vectors to be appended.
func New(dim, capacity int) *Arena {
	if capacity < 0 {
		capacity = 0
	}
	return &Arena{
		dim:   dim,
		data:  make([]float64, 0, capacity*dim),
		ids:   make([]uint64, 0, capacity),
		index: make(map[uint64]Handle, capacity),
	}
}

// Dim returns the vector dimension.
func (a *Arena) Dim() int { return a.dim }

// Len returns the number of stored vectors.
func (a *Arena) Len() int { return len(a.ids) }

// Append copies v into the arena and returns its handle.
func (a *Arena) Append(id uint64, v []float64) (Handle, error) {
	if len(v) != a.dim {
		return 0, fmt.Errorf("%w: expected %d, got %d", ErrDimension, a.dim, len(v))
	}
	if _, ok := a.index[id]; ok {
		return 0, fmt.Errorf("%w: %d", ErrDuplicateID, id)
	}
	if len(a.ids) >= math.MaxUint32 {
		return 0, ErrArenaFull
	}

	h := Handle(len(a.ids))
	a.data = append(a.data, v...)
	a.ids = append(a.ids, id)
	a.index[id] = h
	return h, nil
}

// Contains reports whether id has been appended.
func (a *Arena) Contains(id uint64) bool {
	_, ok := a.index[id]
	return ok
}

// Lookup returns the handle of id.
func (a *Arena) Lookup(id uint64) (Handle, bool) {
	h, ok := a.index[id]
	return h, ok
}

// ID returns the identifier stored at h.
func (a *Arena) ID(h Handle) uint64 {
	return a.ids[h]
}

// Vector returns a read-only view of the vector stored at h.
// The view stays valid for the lifetime of the arena; callers must not
// modify it.
func (a *Arena) Vector(h Handle) []float64 {
	off := int(h) * a.dim
	return a.data[off : off+a.dim : off+a.dim]
}
