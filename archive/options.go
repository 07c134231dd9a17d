package archive

import (
	"math"
	"os"

	"github.com/hupe1980/binmatrix"
	"github.com/hupe1980/binmatrix/codec"
	"github.com/hupe1980/binmatrix/internal/fs"
)

const (
	// DefaultChunkSize is used when the source does not track changes.
	DefaultChunkSize = 4 << 20
	// DefaultConcurrency is the number of chunks transferred in parallel.
	DefaultConcurrency = 4

	maxChunkSize = math.MaxUint32
)

type options struct {
	compression Compression
	chunkSize   int64
	concurrency int
	rateLimit   int64
	memoryLimit int64
	codec       codec.Codec
	logger      *binmatrix.Logger
	fsys        fs.FileSystem
	perm        os.FileMode
}

// Option configures an Archiver.
type Option func(*options)

// WithCompression selects the chunk codec. The default is CompressionZSTD.
func WithCompression(c Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithChunkSize sets the chunk size for sources without change tracking.
// Tracked sources always use their own chunk size so that dirty chunks line
// up with archive chunks.
func WithChunkSize(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.chunkSize = min(n, maxChunkSize)
		}
	}
}

// WithConcurrency sets how many chunks are uploaded or downloaded at once.
func WithConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithRateLimit caps transferred chunk bytes per second. 0 means unlimited.
func WithRateLimit(bytesPerSec int64) Option {
	return func(o *options) {
		o.rateLimit = max(bytesPerSec, 0)
	}
}

// WithMemoryLimit bounds the chunk bytes buffered across all workers.
// 0 leaves only the concurrency bound.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.memoryLimit = max(bytes, 0)
	}
}

// WithCodec selects the manifest codec. Readers pick the decoder by the
// name recorded in each manifest.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c != nil {
			o.codec = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *binmatrix.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithFileSystem replaces the filesystem Restore writes to.
func WithFileSystem(fsys fs.FileSystem) Option {
	return func(o *options) {
		if fsys != nil {
			o.fsys = fsys
		}
	}
}

// WithFileMode sets the permissions of restored files.
func WithFileMode(perm os.FileMode) Option {
	return func(o *options) {
		o.perm = perm
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		compression: CompressionZSTD,
		chunkSize:   DefaultChunkSize,
		concurrency: DefaultConcurrency,
		codec:       codec.Default,
		logger:      binmatrix.NoopLogger(),
		fsys:        fs.Default,
		perm:        0o644,
	}
	for _, fn := range optFns {
		fn(&o)
	}
	return o
}
