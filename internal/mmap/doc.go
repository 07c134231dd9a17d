// Package mmap provides read-only memory-mapped file access.
//
// A matrix file is mapped once and elements are decoded straight out of the
// mapping, which avoids one syscall per element on read-heavy workloads.
//
//	m, err := mmap.Open("matrix.bin")
//	if err != nil { ... }
//	defer m.Close()
//
//	b, err := m.Slice(off, 8) // zero-copy, bounds-checked
//	m.Advise(mmap.AccessRandom)
//
// # Platform Support
//
//   - Unix: mmap(2) with madvise(2) for access hints
//   - Windows: CreateFileMapping/MapViewOfFile (Advise is a no-op)
//
// # Thread Safety
//
// A Mapping is safe for concurrent reads. Close is idempotent, but callers
// must not touch slices returned by Slice after Close returns.
package mmap
