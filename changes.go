package binmatrix

import (
	"fmt"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/binmatrix/internal/conv"
)

// changeTracker records which fixed-size chunks of the file have been
// written. Chunk numbers fit in uint32, which is checked when the tracker is
// created.
type changeTracker struct {
	mu        sync.Mutex
	chunkSize int64
	dirty     *roaring.Bitmap
	since     string
}

func newChangeTracker(chunkSize, length int64) (*changeTracker, error) {
	chunks := (length + chunkSize - 1) / chunkSize
	if _, err := conv.Int64ToUint32(chunks); err != nil {
		return nil, fmt.Errorf("binmatrix: change tracking chunk size %d too small for %d bytes: %w", chunkSize, length, err)
	}
	return &changeTracker{
		chunkSize: chunkSize,
		dirty:     roaring.New(),
	}, nil
}

// mark records the byte range [off, off+n) as dirty.
func (t *changeTracker) mark(off, n int64) {
	if n <= 0 {
		return
	}
	first := uint64(off / t.chunkSize)
	last := uint64((off + n - 1) / t.chunkSize)

	t.mu.Lock()
	t.dirty.AddRange(first, last+1)
	t.mu.Unlock()
}

func (t *changeTracker) snapshot() *roaring.Bitmap {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dirty.Clone()
}

// checkpoint atomically returns the dirty set accumulated since the previous
// checkpoint, together with that checkpoint's tag, and starts a new interval
// labelled tag.
func (t *changeTracker) checkpoint(tag string) (*roaring.Bitmap, string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	dirty, since := t.dirty, t.since
	t.dirty = roaring.New()
	t.since = tag
	return dirty, since
}

// ChangeChunkSize returns the chunk size passed to WithChangeTracking, or 0
// when change tracking is disabled.
func (s *Store[T]) ChangeChunkSize() int64 {
	if s.changes == nil {
		return 0
	}
	return s.changes.chunkSize
}

// Changes returns a copy of the chunks written since the last Checkpoint,
// or nil when change tracking is disabled.
func (s *Store[T]) Changes() *roaring.Bitmap {
	if s.changes == nil {
		return nil
	}
	return s.changes.snapshot()
}

// Checkpoint returns the chunks written since the previous checkpoint and the
// tag that checkpoint was given ("" if there was none), then starts a new
// interval labelled tag. A snapshot that fails after calling Checkpoint
// leaves the store with a tag no manifest carries, which forces the next
// snapshot to be a full one.
func (s *Store[T]) Checkpoint(tag string) (*roaring.Bitmap, string) {
	if s.changes == nil {
		return nil, ""
	}
	return s.changes.checkpoint(tag)
}
