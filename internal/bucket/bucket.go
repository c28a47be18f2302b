// Package bucket implements the per-table bucket store of the LSH index.
//
// A Table maps a hash key (one integer per hash function) to the ordered list
// of arena handles that hashed to it. Buckets are append-only.
package bucket

import (
	"encoding/binary"
)

// Table is one hash table. It is not safe for concurrent writes; the index
// gives every table a single writer.
type Table struct {
	buckets map[string][]uint32
	refs    int
	scratch []byte
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{buckets: make(map[string][]uint32)}
}

// AppendKey appends the canonical encoding of key to dst.
// Two keys have equal encodings iff they are component-wise equal.
func AppendKey(dst []byte, key []int64) []byte {
	for _, k := range key {
		dst = binary.AppendVarint(dst, k)
	}
	return dst
}

// Add appends h to the bucket selected by key.
func (t *Table) Add(key []int64, h uint32) {
	t.scratch = AppendKey(t.scratch[:0], key)
	t.buckets[string(t.scratch)] = append(t.buckets[string(t.scratch)], h)
	t.refs++
}

// Get returns the bucket selected by key in insertion order.
// The returned slice must not be modified. scratch is reused for the key
// encoding and may be nil.
func (t *Table) Get(key []int64, scratch []byte) ([]uint32, []byte) {
	scratch = AppendKey(scratch[:0], key)
	return t.buckets[string(scratch)], scratch
}

// Stats describes the occupancy of a table.
type Stats struct {
	Buckets    int // Number of non-empty buckets
	References int // Total number of stored handles
	MaxBucket  int // Size of the largest bucket
}

// Stats returns the table statistics.
func (t *Table) Stats() Stats {
	s := Stats{Buckets: len(t.buckets), References: t.refs}
	for _, b := range t.buckets {
		if len(b) > s.MaxBucket {
			s.MaxBucket = len(b)
		}
	}
	return s
}
