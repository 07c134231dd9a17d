package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/binmatrix/blobstore"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "binmatrix.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, "local", cfg.Archive.Backend)
}

func TestLoadConfig_S3(t *testing.T) {
	path := writeConfig(t, `
archive:
  backend: s3
  bucket: my-bucket
  prefix: matrices/scores
  region: eu-central-1
  dynamodb_table: binmatrix-commits
  compression: lz4
  chunk_size: 1048576
  concurrency: 8
  rate_limit: 50MiB
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	a := cfg.Archive
	assert.Equal(t, "s3", a.Backend)
	assert.Equal(t, "my-bucket", a.Bucket)
	assert.Equal(t, "matrices/scores", a.Prefix)
	assert.Equal(t, "binmatrix-commits", a.DynamoDBTable)
	assert.Equal(t, "lz4", a.Compression)
	assert.Equal(t, int64(1<<20), a.ChunkSize)
	assert.Equal(t, 8, a.Concurrency)
	assert.Equal(t, ByteSize(50<<20), a.RateLimit)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := map[string]string{
		"Backend":     "archive:\n  backend: ftp\n",
		"Bucket":      "archive:\n  backend: s3\n",
		"Endpoint":    "archive:\n  backend: minio\n  bucket: b\n",
		"Path":        "archive:\n  backend: local\n  path: \"\"\n",
		"Compression": "archive:\n  compression: brotli\n",
		"RateLimit":   "archive:\n  rate_limit: fast\n",
		"YAML":        "archive: [",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, body))
			assert.Error(t, err)
		})
	}

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseByteSize(t *testing.T) {
	tests := map[string]ByteSize{
		"0":      0,
		"1024":   1024,
		"512KiB": 512 << 10,
		"2 MiB":  2 << 20,
		"1GiB":   1 << 30,
		"10B":    10,
	}
	for in, want := range tests {
		got, err := ParseByteSize(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"", "-1", "1.5MiB", "lots"} {
		_, err := ParseByteSize(in)
		assert.Error(t, err, in)
	}
}

func TestArchiveConfig_OpenBlobStore_Local(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "archive")
	cfg := ArchiveConfig{Backend: "local", Path: dir, Compression: "none"}

	bs, err := cfg.OpenBlobStore(context.Background())
	require.NoError(t, err)
	assert.IsType(t, &blobstore.LocalStore{}, bs)
	assert.DirExists(t, dir)

	a, err := cfg.Archiver(bs, nil)
	require.NoError(t, err)
	assert.NotNil(t, a)
}
