// Package mmap maps files read-only into memory.
//
// Dataset files in the fvecs and bvecs formats are decoded straight from the
// mapping, and the local blob store serves ranged reads from it.
//
//	m, err := mmap.Open("base.fvecs")
//	if err != nil { ... }
//	defer m.Close()
//	m.Advise(mmap.AccessSequential)
//	data := m.Bytes()
//
// Unix systems use mmap(2) and madvise(2). Windows uses MapViewOfFile;
// Advise is a no-op there.
//
// Bytes must not be touched after Close returns.
package mmap
