package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/binmatrix"
	"github.com/hupe1980/binmatrix/blobstore"
	"github.com/hupe1980/binmatrix/codec"
	"github.com/hupe1980/binmatrix/internal/resource"
)

var (
	// ErrNoSnapshot is returned by Latest when the archive is empty.
	ErrNoSnapshot = errors.New("archive: no snapshot")
	// ErrChecksumMismatch is returned when a restored chunk fails its CRC32C.
	ErrChecksumMismatch = errors.New("archive: checksum mismatch")
	// ErrIncompatible is returned for manifests whose chunks do not tile the
	// matrix they describe.
	ErrIncompatible = errors.New("archive: incompatible manifest")
)

// Source is a matrix file that can be snapshotted. *binmatrix.Store and
// *binmatrix.View implement it.
type Source interface {
	io.ReaderAt
	Dims() (rows, cols int)
	ElementWidth() int
	ByteLength() int64
}

// Tracked is implemented by sources that record which chunks were written.
// Snapshots of a tracked source upload only the chunks dirtied since the
// previous snapshot into the same archive.
type Tracked interface {
	ChangeChunkSize() int64
	Checkpoint(tag string) (*roaring.Bitmap, string)
}

var (
	_ Source  = (*binmatrix.Store[float64])(nil)
	_ Source  = (*binmatrix.View[float64])(nil)
	_ Tracked = (*binmatrix.Store[float64])(nil)
)

// Archiver snapshots matrix files into a blob store and restores them.
//
// Layout inside the store:
//
//	chunks/<snapshot id>/<index>   framed, optionally compressed chunk
//	manifests/<snapshot id>.json   manifest
//	CURRENT                        name of the latest manifest
//
// Snapshot IDs are UUIDv7, so manifest names sort by creation time.
type Archiver struct {
	bs   blobstore.BlobStore
	opts options
	rc   *resource.Controller
	log  *binmatrix.Logger
}

// New creates an Archiver over bs.
func New(bs blobstore.BlobStore, optFns ...Option) *Archiver {
	o := applyOptions(optFns)
	return &Archiver{
		bs:   bs,
		opts: o,
		rc: resource.NewController(resource.Config{
			MemoryLimitBytes:   o.memoryLimit,
			IOLimitBytesPerSec: o.rateLimit,
		}),
		log: o.logger,
	}
}

// Latest returns the manifest CURRENT points to, or ErrNoSnapshot.
func (a *Archiver) Latest(ctx context.Context) (*Manifest, error) {
	data, err := blobstore.ReadAll(ctx, a.bs, CurrentName)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, ErrNoSnapshot
		}
		return nil, fmt.Errorf("archive: read %s: %w", CurrentName, err)
	}
	return a.load(ctx, strings.TrimSpace(string(data)))
}

// Manifest loads the manifest of snapshot id.
func (a *Archiver) Manifest(ctx context.Context, id string) (*Manifest, error) {
	return a.load(ctx, manifestName(id))
}

// List returns the IDs of all snapshots, oldest first.
func (a *Archiver) List(ctx context.Context) ([]string, error) {
	names, err := a.bs.List(ctx, manifestDir)
	if err != nil {
		return nil, fmt.Errorf("archive: list: %w", err)
	}
	ids := make([]string, 0, len(names))
	for _, name := range names {
		if id, ok := manifestID(name); ok {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

func (a *Archiver) load(ctx context.Context, name string) (*Manifest, error) {
	data, err := blobstore.ReadAll(ctx, a.bs, name)
	if err != nil {
		return nil, fmt.Errorf("archive: read %s: %w", name, err)
	}

	m := new(Manifest)
	if err := a.opts.codec.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("archive: decode %s: %w", name, err)
	}
	if m.Codec != "" && m.Codec != a.opts.codec.Name() {
		c, err := codec.Lookup(m.Codec)
		if err != nil {
			return nil, fmt.Errorf("archive: %s: %w", name, err)
		}
		m = new(Manifest)
		if err := c.Unmarshal(data, m); err != nil {
			return nil, fmt.Errorf("archive: decode %s: %w", name, err)
		}
	}

	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("archive: %s: %w", name, err)
	}
	return m, nil
}
