// Package hash provides CRC32-Castagnoli checksums for matrix files and
// archive chunks.
//
// For one-shot checksums:
//
//	checksum := hash.CRC32C(data)
//
// For files that must not be loaded whole, SumReaderAt streams fixed-size
// blocks through the hash:
//
//	checksum, err := hash.SumReaderAt(f, size, hash.DefaultBlockSize)
//
// Go's crc32 package uses hardware instructions (SSE4.2, ARM CRC) when
// available.
package hash
