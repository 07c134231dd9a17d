package binmatrix

import (
	"log/slog"
	"os"

	"github.com/hupe1980/binmatrix/internal/fs"
)

// Durability controls when writes are forced to stable storage.
type Durability int

const (
	// DurabilityAsync hands every write to the operating system before the
	// call returns but leaves flushing to the page cache.
	DurabilityAsync Durability = iota
	// DurabilitySync calls fsync after every write call. Bulk writes sync
	// once, after the last element.
	DurabilitySync
)

const (
	defaultMaxSpan  = 4096
	defaultFileMode = 0o644
)

type options struct {
	fsys             fs.FileSystem
	durability       Durability
	layout           Layout
	logger           *Logger
	metricsCollector MetricsCollector
	changeChunkSize  int64
	maxSpan          int
	perm             os.FileMode
}

// Option configures Open and OpenView.
type Option func(*options)

// WithFileSystem replaces the filesystem used to provision and open the
// backing file. Tests use it to inject faults.
func WithFileSystem(fsys fs.FileSystem) Option {
	return func(o *options) {
		if fsys == nil {
			fsys = fs.Default
		}
		o.fsys = fsys
	}
}

// WithDurability configures whether writes are fsynced before returning.
func WithDurability(d Durability) Option {
	return func(o *options) {
		o.durability = d
	}
}

// WithLayout selects the (row, col) reduction. The default is LayoutRowCount.
func WithLayout(l Layout) Option {
	return func(o *options) {
		o.layout = l
	}
}

// WithChangeTracking records which chunkSize-byte chunks of the file have
// been written since the last Checkpoint. Incremental archive snapshots use
// it to upload only dirty chunks. chunkSize <= 0 disables tracking.
func WithChangeTracking(chunkSize int64) Option {
	return func(o *options) {
		o.changeChunkSize = chunkSize
	}
}

// WithMaxSpan bounds how many adjacent elements a bulk call reads or writes
// with a single positioned I/O. Values < 1 disable coalescing.
func WithMaxSpan(elements int) Option {
	return func(o *options) {
		if elements < 1 {
			elements = 1
		}
		o.maxSpan = elements
	}
}

// WithFileMode sets the permissions used when the backing file is created.
func WithFileMode(perm os.FileMode) Option {
	return func(o *options) {
		o.perm = perm
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &binmatrix.BasicMetricsCollector{}
//	s, _ := binmatrix.Open[float64]("m.bin", 6, 6, binmatrix.WithMetricsCollector(metrics))
//	// ... use s ...
//	stats := metrics.GetStats()
//	fmt.Printf("Reads: %d, Avg latency: %dns\n", stats.ReadCount, stats.ReadAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := binmatrix.NewJSONLogger(slog.LevelInfo)
//	s, _ := binmatrix.Open[int32]("m.bin", 10, 10, binmatrix.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		fsys:             fs.Default,
		durability:       DurabilityAsync,
		layout:           LayoutRowCount,
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
		maxSpan:          defaultMaxSpan,
		perm:             defaultFileMode,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
