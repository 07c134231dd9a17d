// Package minio provides a BlobStore implementation using the MinIO client.
//
// It works with MinIO and other S3-compatible systems such as Ceph, Garage
// and SeaweedFS, and needs no AWS dependencies.
//
// # Basic Usage
//
//	store, err := minio.New(ctx, minio.Config{
//	    Endpoint:  "localhost:9000",
//	    AccessKey: "minioadmin",
//	    SecretKey: "minioadmin",
//	}, "my-bucket", "matrices/")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	a := archive.New(store)
//
// An existing *minio.Client can be wrapped with NewStore.
package minio
