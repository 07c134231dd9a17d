package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/binmatrix/blobstore"
	"github.com/hupe1980/binmatrix/internal/conv"
	"github.com/hupe1980/binmatrix/internal/hash"
)

// Snapshot uploads src and points CURRENT at the new manifest.
//
// A tracked source whose last checkpoint is the archive's latest snapshot
// only uploads the chunks written since; the rest are referenced from the
// parent. Writes that race with Snapshot land in the next interval, so the
// following snapshot picks them up.
func (a *Archiver) Snapshot(ctx context.Context, src Source) (m *Manifest, err error) {
	var uploaded, reused int
	id := ""
	defer func() {
		a.log.LogSnapshot(ctx, id, uploaded, reused, err)
	}()

	uid, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("archive: snapshot id: %w", err)
	}
	id = uid.String()

	parent, err := a.Latest(ctx)
	if err != nil && !errors.Is(err, ErrNoSnapshot) {
		return nil, err
	}

	rows, cols := src.Dims()
	m = &Manifest{
		ID:           id,
		Created:      time.Now().UTC(),
		Rows:         rows,
		Cols:         cols,
		ElementWidth: src.ElementWidth(),
		ChunkSize:    a.opts.chunkSize,
		Compression:  a.opts.compression,
		Codec:        a.opts.codec.Name(),
	}
	if parent != nil {
		m.Parent = parent.ID
	}

	length := src.ByteLength()
	if length != m.ByteLength() {
		return nil, fmt.Errorf("%w: source is %d bytes, %dx%dx%d is %d", ErrIncompatible, length, rows, cols, m.ElementWidth, m.ByteLength())
	}

	var dirty *roaring.Bitmap
	var since string
	if t, ok := src.(Tracked); ok && t.ChangeChunkSize() > 0 && t.ChangeChunkSize() <= maxChunkSize {
		m.ChunkSize = t.ChangeChunkSize()
		dirty, since = t.Checkpoint(id)
	}

	count, err := conv.Int64ToUint32((length + m.ChunkSize - 1) / m.ChunkSize)
	if err != nil {
		return nil, fmt.Errorf("archive: chunk count: %w", err)
	}

	base := incrementalBase(parent, m, dirty, since)

	m.Chunks = make([]ChunkRef, count)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.concurrency)
	for i := range count {
		if base != nil && !dirty.Contains(i) {
			m.Chunks[i] = base.Chunks[i]
			reused++
			continue
		}
		uploaded++
		off := int64(i) * m.ChunkSize
		size := min(m.ChunkSize, length-off)
		g.Go(func() error {
			ref, err := a.putChunk(gctx, src, id, i, off, size)
			if err != nil {
				return err
			}
			m.Chunks[i] = ref
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := a.commit(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// incrementalBase returns parent when next may reuse its chunks.
func incrementalBase(parent, next *Manifest, dirty *roaring.Bitmap, since string) *Manifest {
	if parent == nil || dirty == nil || since != parent.ID {
		return nil
	}
	if parent.Rows != next.Rows || parent.Cols != next.Cols || parent.ElementWidth != next.ElementWidth {
		return nil
	}
	if parent.ChunkSize != next.ChunkSize || parent.Compression != next.Compression {
		return nil
	}
	return parent
}

func (a *Archiver) putChunk(ctx context.Context, src Source, id string, index uint32, off, size int64) (ChunkRef, error) {
	if err := ctx.Err(); err != nil {
		return ChunkRef{}, err
	}
	held, err := a.rc.AcquireMemory(ctx, size)
	if err != nil {
		return ChunkRef{}, err
	}
	defer a.rc.ReleaseMemory(held)

	raw := make([]byte, size)
	n, err := src.ReadAt(raw, off)
	if err != nil && !(errors.Is(err, io.EOF) && int64(n) == size) {
		return ChunkRef{}, fmt.Errorf("archive: read chunk %d: %w", index, err)
	}

	data, err := encodeChunk(raw, a.opts.compression)
	if err != nil {
		return ChunkRef{}, fmt.Errorf("archive: encode chunk %d: %w", index, err)
	}
	if err := a.rc.AcquireIO(ctx, len(data)); err != nil {
		return ChunkRef{}, err
	}

	key := chunkKey(id, index)
	if err := a.bs.Put(ctx, key, data); err != nil {
		return ChunkRef{}, fmt.Errorf("archive: upload chunk %d: %w", index, err)
	}

	return ChunkRef{
		Index:      index,
		Key:        key,
		RawSize:    size,
		StoredSize: int64(len(data)),
		Checksum:   hash.CRC32C(raw),
	}, nil
}

// commit writes the manifest, which is never overwritten, and then moves
// CURRENT to it.
func (a *Archiver) commit(ctx context.Context, m *Manifest) error {
	data, err := a.opts.codec.Marshal(m)
	if err != nil {
		return fmt.Errorf("archive: encode manifest: %w", err)
	}

	name := manifestName(m.ID)
	if err := blobstore.PutIfNotExists(ctx, a.bs, name, data); err != nil {
		return fmt.Errorf("archive: write %s: %w", name, err)
	}
	if err := a.bs.Put(ctx, CurrentName, []byte(name)); err != nil {
		return fmt.Errorf("archive: update %s: %w", CurrentName, err)
	}
	return nil
}
