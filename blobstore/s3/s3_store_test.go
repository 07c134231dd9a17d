package s3

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/binmatrix"
	"github.com/hupe1980/binmatrix/archive"
	"github.com/hupe1980/binmatrix/blobstore"
)

// Set S3_BUCKET (and the usual AWS environment) to run against a live bucket.
func TestIntegration_ArchiveRoundTrip(t *testing.T) {
	bucket := os.Getenv("S3_BUCKET")
	if bucket == "" {
		t.Skip("S3_BUCKET not set")
	}

	ctx := context.Background()
	store, err := New(ctx, bucket,
		WithPrefix(fmt.Sprintf("test-binmatrix-%d", time.Now().UnixNano())),
		WithRegion(os.Getenv("AWS_REGION")),
	)
	require.NoError(t, err)

	dir := t.TempDir()
	m, err := binmatrix.Open[float64](filepath.Join(dir, "m.bin"), 64, 64, binmatrix.WithLayout(binmatrix.LayoutRowMajor))
	require.NoError(t, err)
	for r := 1; r <= 64; r++ {
		require.NoError(t, m.Set(r, r, float64(r)))
	}

	a := archive.New(store, archive.WithChunkSize(4096))
	manifest, err := a.Snapshot(ctx, m)
	require.NoError(t, err)
	require.NoError(t, m.Close())
	t.Cleanup(func() {
		names, _ := store.List(ctx, "")
		for _, name := range names {
			_ = store.Delete(ctx, name)
		}
	})

	latest, err := a.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, manifest.ID, latest.ID)

	require.ErrorIs(t, blobstore.PutIfNotExists(ctx, store, "manifests/"+manifest.ID+".json", []byte("{}")), blobstore.ErrExists)

	dst := filepath.Join(dir, "restored.bin")
	require.NoError(t, a.Restore(ctx, latest, dst))

	want, err := os.ReadFile(filepath.Join(dir, "m.bin"))
	require.NoError(t, err)
	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(want, got))

	_, err = store.Open(ctx, "manifests/missing.json")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}
