// Package fs provides filesystem abstractions for testability and fault injection.
//
// The package defines two key interfaces:
//
//   - [File]: an open file with positioned read/write, sync and stat
//   - [FileSystem]: filesystem operations (open, remove, rename, etc.)
//
// # Implementations
//
//   - [LocalFS]: Production implementation using standard os package
//   - [FaultyFS]: Test utility for fault injection (simulate I/O errors)
//
// # Usage
//
// Production code should use fs.Default (which is [LocalFS]):
//
//	file, err := fs.Default.OpenFile(path, os.O_RDWR, 0o644)
//
// Tests can inject [FaultyFS] to simulate failures:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule("matrix.bin", fs.Fault{FailAfterBytes: 16})
//	// inject ffs into the store under test
//
// # Design Notes
//
// This package does NOT include context.Context parameters. Local filesystem
// calls are non-interruptible at the syscall level.
//
// For remote storage, use [blobstore.Blob] which has context support.
package fs
