package minio

import (
	"context"
	"errors"
	"io"
	"os"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/binmatrix/blobstore"
)

func endpointConfig() Config {
	cfg := Config{
		Endpoint:  os.Getenv("MINIO_ENDPOINT"),
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
	}
	if v := os.Getenv("MINIO_ACCESS_KEY"); v != "" {
		cfg.AccessKey = v
	}
	if v := os.Getenv("MINIO_SECRET_KEY"); v != "" {
		cfg.SecretKey = v
	}
	return cfg
}

// Set MINIO_ENDPOINT (e.g. localhost:9000) to run against a live server.
func TestStore_Integration(t *testing.T) {
	cfg := endpointConfig()
	if cfg.Endpoint == "" {
		t.Skip("MINIO_ENDPOINT not set")
	}

	ctx := context.Background()
	store, err := New(ctx, cfg, "test-binmatrix", "it/")
	if err != nil {
		t.Skipf("MinIO not available: %v", err)
	}
	t.Cleanup(func() {
		for _, name := range []string{"chunks/0", "manifests/a.json", "stream.bin"} {
			_ = store.Delete(ctx, name)
		}
	})

	data := []byte("0123456789abcdef")
	require.NoError(t, store.Put(ctx, "chunks/0", data))

	blob, err := store.Open(ctx, "chunks/0")
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), blob.Size())

	buf := make([]byte, 4)
	n, err := blob.ReadAt(ctx, buf, 10)
	require.NoError(t, err)
	assert.Equal(t, "abcd", string(buf[:n]))

	n, err = blob.ReadAt(ctx, make([]byte, 8), 12)
	assert.Equal(t, 4, n)
	assert.ErrorIs(t, err, io.EOF)

	rc, err := blob.ReadRange(ctx, 2, 3)
	require.NoError(t, err)
	part, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "234", string(part))
	require.NoError(t, rc.Close())
	require.NoError(t, blob.Close())

	require.NoError(t, store.PutIfNotExists(ctx, "manifests/a.json", []byte("{}")))
	require.ErrorIs(t, store.PutIfNotExists(ctx, "manifests/a.json", []byte("{}")), blobstore.ErrExists)

	w, err := store.Create(ctx, "stream.bin")
	require.NoError(t, err)
	_, err = w.Write([]byte("streamed"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.Error(t, w.Close())

	names, err := store.List(ctx, "chunks/")
	require.NoError(t, err)
	assert.Equal(t, []string{"chunks/0"}, names)

	require.NoError(t, store.Delete(ctx, "chunks/0"))
	require.NoError(t, store.Delete(ctx, "chunks/0"))
	_, err = store.Open(ctx, "chunks/0")
	require.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestStore_Keys(t *testing.T) {
	tests := []struct {
		prefix, name, key string
	}{
		{"", "CURRENT", "CURRENT"},
		{"root", "chunks/a", "root/chunks/a"},
		{"root/", "chunks/a", "root/chunks/a"},
		{"/a/b/", "manifests/x.json", "a/b/manifests/x.json"},
	}
	for _, tt := range tests {
		s := NewStore(nil, "bucket", tt.prefix)
		assert.Equal(t, tt.key, s.key(tt.name))
		assert.Equal(t, tt.name, s.name(tt.key))
	}

	assert.Equal(t, "s3://bucket/root", NewStore(nil, "bucket", "root/").URI())
	assert.Equal(t, "s3://bucket", NewStore(nil, "bucket", "").URI())
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound(minio.ErrorResponse{Code: "NoSuchKey"}))
	assert.True(t, isNotFound(minio.ErrorResponse{Code: "NotFound"}))
	assert.False(t, isNotFound(minio.ErrorResponse{Code: "AccessDenied"}))
	assert.False(t, isNotFound(errors.New("network down")))
}
