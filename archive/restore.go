package archive

import (
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/binmatrix/blobstore"
	"github.com/hupe1980/binmatrix/internal/fs"
	"github.com/hupe1980/binmatrix/internal/hash"
)

// Restore writes the matrix described by m to dst, which must not exist.
// Every chunk is checked against its CRC32C before it is written. On any
// failure the partial file is removed.
func (a *Archiver) Restore(ctx context.Context, m *Manifest, dst string) (err error) {
	id := ""
	if m != nil {
		id = m.ID
	}
	defer func() {
		a.log.LogRestore(ctx, id, dst, err)
	}()

	if err := m.validate(); err != nil {
		return err
	}

	f, err := a.opts.fsys.OpenFile(dst, os.O_RDWR|os.O_CREATE|os.O_EXCL, a.opts.perm)
	if err != nil {
		return fmt.Errorf("archive: restore %s: %w", dst, err)
	}

	if err := a.restoreInto(ctx, m, f); err != nil {
		_ = f.Close()
		_ = a.opts.fsys.Remove(dst)
		return err
	}
	if err := f.Close(); err != nil {
		_ = a.opts.fsys.Remove(dst)
		return fmt.Errorf("archive: restore %s: %w", dst, err)
	}
	return nil
}

func (a *Archiver) restoreInto(ctx context.Context, m *Manifest, f fs.File) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.concurrency)
	for _, ref := range m.Chunks {
		g.Go(func() error {
			raw, release, err := a.fetchChunk(gctx, m, ref)
			if err != nil {
				return err
			}
			defer release()

			if _, err := f.WriteAt(raw, int64(ref.Index)*m.ChunkSize); err != nil {
				return fmt.Errorf("archive: write chunk %d: %w", ref.Index, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if err := f.Sync(); err != nil {
		return fmt.Errorf("archive: sync: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("archive: stat: %w", err)
	}
	if info.Size() != m.ByteLength() {
		return fmt.Errorf("%w: restored %d bytes, want %d", ErrIncompatible, info.Size(), m.ByteLength())
	}
	return nil
}

// Verify downloads every chunk of m and checks its checksum without
// writing anything.
func (a *Archiver) Verify(ctx context.Context, m *Manifest) error {
	if err := m.validate(); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.concurrency)
	for _, ref := range m.Chunks {
		g.Go(func() error {
			_, release, err := a.fetchChunk(gctx, m, ref)
			if err != nil {
				return err
			}
			release()
			return nil
		})
	}
	return g.Wait()
}

// fetchChunk downloads, decodes and verifies one chunk. release must be
// called once the raw bytes are no longer needed.
func (a *Archiver) fetchChunk(ctx context.Context, m *Manifest, ref ChunkRef) ([]byte, func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	held, err := a.rc.AcquireMemory(ctx, ref.RawSize+ref.StoredSize)
	if err != nil {
		return nil, nil, err
	}
	release := func() { a.rc.ReleaseMemory(held) }

	data, err := blobstore.ReadAll(ctx, a.bs, ref.Key)
	if err != nil {
		release()
		return nil, nil, fmt.Errorf("archive: fetch chunk %d: %w", ref.Index, err)
	}
	if err := a.rc.AcquireIO(ctx, len(data)); err != nil {
		release()
		return nil, nil, err
	}

	raw, err := decodeChunk(data, m.Compression)
	if err != nil {
		release()
		if errors.Is(err, errCorruptChunk) {
			return nil, nil, fmt.Errorf("archive: chunk %d: %w: %w", ref.Index, ErrChecksumMismatch, err)
		}
		return nil, nil, fmt.Errorf("archive: chunk %d: %w", ref.Index, err)
	}
	if int64(len(raw)) != ref.RawSize || hash.CRC32C(raw) != ref.Checksum {
		release()
		return nil, nil, fmt.Errorf("archive: chunk %d (%s): %w", ref.Index, ref.Key, ErrChecksumMismatch)
	}
	return raw, release, nil
}
