package binmatrix

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/hupe1980/binmatrix/internal/fs"
	"github.com/hupe1980/binmatrix/internal/hash"
)

// Store is a dense rows x cols matrix of T kept in a flat binary file.
//
// Elements are addressed either by a zero-based linear index or by a
// one-based (row, col) pair. Every call is bounds-checked before any I/O and
// every element access is a positioned read or write against the file; the
// matrix is never cached in memory.
//
// Reads are safe for concurrent use. Concurrent writers to the same element
// are not coordinated.
type Store[T Element] struct {
	path   string
	ix     indexer
	width  int
	length int64
	opts   options
	log    *Logger

	mu     sync.RWMutex
	file   fs.File
	closed bool

	changes *changeTracker
}

// Open opens the matrix file at path as a rows x cols matrix of T.
//
// A missing file is provisioned with EnsureSized. An existing file must be
// exactly rows*cols*WidthOf[T]() bytes long, otherwise Open fails with a
// *DimensionMismatchError and leaves the file untouched.
func Open[T Element](path string, rows, cols int, optFns ...Option) (*Store[T], error) {
	o := applyOptions(optFns)
	ctx := context.Background()
	shape := Shape{Rows: rows, Cols: cols}
	width := WidthOf[T]()
	log := o.logger.WithPath(path).WithShape(shape)

	length, err := shape.byteLength(width)
	if err != nil {
		log.LogOpen(ctx, width, 0, err)
		return nil, err
	}

	f, err := openValidated(o, log, path, length)
	if err != nil {
		log.LogOpen(ctx, width, length, err)
		return nil, err
	}

	s := &Store[T]{
		path:   path,
		ix:     indexer{shape: shape, layout: o.layout},
		width:  width,
		length: length,
		opts:   o,
		log:    log,
		file:   f,
	}

	if o.changeChunkSize > 0 {
		s.changes, err = newChangeTracker(o.changeChunkSize, length)
		if err != nil {
			_ = f.Close()
			log.LogOpen(ctx, width, length, err)
			return nil, err
		}
	}

	log.LogOpen(ctx, width, length, nil)
	return s, nil
}

// openValidated provisions path if it is absent, opens it read+write and
// checks its length.
func openValidated(o options, log *Logger, path string, length int64) (fs.File, error) {
	exists, err := fs.Exists(o.fsys, path)
	if err != nil {
		return nil, fmt.Errorf("binmatrix: open %s: %w", path, err)
	}
	if !exists {
		err := EnsureSized(o.fsys, path, length, o.perm)
		log.LogProvision(context.Background(), length, err)
		if err != nil {
			return nil, err
		}
	}

	f, err := o.fsys.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("binmatrix: open %s: %w", path, err)
	}

	ok, err := MatchesLength(f, length)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("binmatrix: open %s: %w", path, err)
	}
	if !ok {
		mismatch := &DimensionMismatchError{Path: path, Expected: length, Actual: -1}
		if info, statErr := f.Stat(); statErr == nil {
			mismatch.Actual = info.Size()
		}
		_ = f.Close()
		return nil, mismatch
	}
	return f, nil
}

// Path returns the path of the backing file.
func (s *Store[T]) Path() string { return s.path }

// Dims returns the row and column count.
func (s *Store[T]) Dims() (rows, cols int) { return s.ix.shape.Rows, s.ix.shape.Cols }

// Shape returns the matrix shape.
func (s *Store[T]) Shape() Shape { return s.ix.shape }

// Len returns the number of elements.
func (s *Store[T]) Len() int { return s.ix.shape.Len() }

// ElementWidth returns the size of one element in bytes.
func (s *Store[T]) ElementWidth() int { return s.width }

// ByteLength returns the exact length of the backing file.
func (s *Store[T]) ByteLength() int64 { return s.length }

// Layout returns the (row, col) reduction in use.
func (s *Store[T]) Layout() Layout { return s.ix.layout }

// Index reduces a one-based (row, col) pair to the zero-based linear index
// used by Read and Write.
func (s *Store[T]) Index(row, col int) (int, error) {
	return s.ix.translate("Index", row, col)
}

func (s *Store[T]) offset(index int) int64 {
	return int64(index) * int64(s.width)
}

// Read returns the element at the zero-based linear index.
func (s *Store[T]) Read(index int) (T, error) {
	start := time.Now()
	v, err := s.readElement("Read", index)
	s.opts.metricsCollector.RecordRead(time.Since(start), err)
	return v, err
}

// At returns the element at the one-based (row, col) pair.
func (s *Store[T]) At(row, col int) (T, error) {
	start := time.Now()
	var v T
	index, err := s.ix.translate("At", row, col)
	if err == nil {
		v, err = s.readElement("At", index)
	}
	s.opts.metricsCollector.RecordRead(time.Since(start), err)
	return v, err
}

// Write stores v at the zero-based linear index.
func (s *Store[T]) Write(index int, v T) error {
	start := time.Now()
	err := s.writeElement("Write", index, v)
	s.opts.metricsCollector.RecordWrite(time.Since(start), err)
	return err
}

// Set stores v at the one-based (row, col) pair.
func (s *Store[T]) Set(row, col int, v T) error {
	start := time.Now()
	index, err := s.ix.translate("Set", row, col)
	if err == nil {
		err = s.writeElement("Set", index, v)
	}
	s.opts.metricsCollector.RecordWrite(time.Since(start), err)
	return err
}

func (s *Store[T]) readElement(op string, index int) (T, error) {
	var zero T
	if err := s.ix.checkLinear(op, index); err != nil {
		return zero, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return zero, ErrClosed
	}

	var raw [8]byte
	buf := raw[:s.width]
	if _, err := s.file.ReadAt(buf, s.offset(index)); err != nil {
		return zero, fmt.Errorf("binmatrix: %s: read element %d: %w", op, index, err)
	}
	return decode[T](buf), nil
}

func (s *Store[T]) writeElement(op string, index int, v T) error {
	if err := s.ix.checkLinear(op, index); err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}

	var raw [8]byte
	buf := raw[:s.width]
	encode(buf, v)

	off := s.offset(index)
	n, err := s.file.WriteAt(buf, off)
	s.markChanged(off, int64(n))
	if err != nil {
		return fmt.Errorf("binmatrix: %s: write element %d: %w", op, index, err)
	}
	return s.syncLocked(op)
}

func (s *Store[T]) markChanged(off, n int64) {
	if s.changes != nil {
		s.changes.mark(off, n)
	}
}

// syncLocked fsyncs the file under DurabilitySync. Caller holds s.mu.
func (s *Store[T]) syncLocked(op string) error {
	if s.opts.durability != DurabilitySync {
		return nil
	}
	if err := s.file.Sync(); err != nil {
		return fmt.Errorf("binmatrix: %s: sync: %w", op, err)
	}
	return nil
}

// Sync commits the file's contents to stable storage.
func (s *Store[T]) Sync() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	if err := s.file.Sync(); err != nil {
		return fmt.Errorf("binmatrix: sync: %w", err)
	}
	return nil
}

// ReadAt reads raw bytes of the backing file. It implements io.ReaderAt and
// never reads past ByteLength.
func (s *Store[T]) ReadAt(p []byte, off int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, ErrClosed
	}
	if off < 0 {
		return 0, fmt.Errorf("binmatrix: ReadAt: negative offset %d", off)
	}
	if off >= s.length {
		return 0, io.EOF
	}

	short := false
	if remaining := s.length - off; int64(len(p)) > remaining {
		p = p[:remaining]
		short = true
	}
	n, err := s.file.ReadAt(p, off)
	if err == nil && short {
		err = io.EOF
	}
	return n, err
}

// Checksum returns the CRC32C of the whole file. The file is streamed in
// fixed-size blocks.
func (s *Store[T]) Checksum() (uint32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, ErrClosed
	}

	sum, err := hash.SumReaderAt(s.file, s.length, hash.DefaultBlockSize)
	if err != nil {
		return 0, fmt.Errorf("binmatrix: checksum: %w", err)
	}
	return sum, nil
}

// Close releases the backing file. Close is idempotent; other methods
// return ErrClosed afterwards.
func (s *Store[T]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	err := s.file.Close()
	if err != nil {
		err = fmt.Errorf("binmatrix: close %s: %w", s.path, err)
	}
	s.log.LogClose(context.Background(), err)
	return err
}
