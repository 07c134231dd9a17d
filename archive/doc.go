// Package archive snapshots matrix files into a blob store and restores
// them.
//
// A snapshot splits the file into fixed-size chunks. Each chunk is framed
// with its raw and compressed sizes, optionally compressed with LZ4 or ZSTD,
// checksummed with CRC32C and uploaded in parallel. The manifest listing the
// chunks is written once under manifests/ and CURRENT is moved to it.
//
//	bs, _ := blobstore.NewLocalStore("/backups/scores")
//	a := archive.New(bs, archive.WithCompression(archive.CompressionLZ4))
//
//	m, err := a.Snapshot(ctx, store)
//	...
//	latest, err := a.Latest(ctx)
//	err = a.Restore(ctx, latest, "/tmp/scores.bin")
//
// # Incremental snapshots
//
// A store opened with binmatrix.WithChangeTracking records the chunks it
// writes. When such a store was last snapshotted into the same archive,
// the next Snapshot uploads only the dirty chunks and references the rest
// from the parent manifest. In every other case the snapshot is full.
//
// # Concurrent writers
//
// Manifests are written with blobstore.PutIfNotExists and never change.
// CURRENT is a plain overwrite unless the store serializes it, as
// s3.DDBCommitStore does.
package archive
