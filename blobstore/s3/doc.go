// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("archives/scores/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
//	_, err = archive.Snapshot(ctx, m, store)
//
// S3 offers no compare-and-swap on overwrite, so archives shared by several
// writers should wrap the store in a DDBCommitStore, which keeps the CURRENT
// pointer in DynamoDB:
//
//	cfg, _ := s3.LoadConfig(ctx, "us-east-1")
//	commits := s3.NewDDBCommitStoreFromConfig(cfg, store, "binmatrix-commits")
//
// # Features
//
//   - Range reads for chunk-wise restores
//   - Multipart uploads with CRC32C verification
//   - Conditional writes (If-None-Match) for immutable manifests
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
package s3
