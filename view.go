package binmatrix

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/hupe1980/binmatrix/internal/mmap"
)

// AccessPattern is a paging hint passed to View.Advise.
type AccessPattern = mmap.AccessPattern

// Paging hints accepted by View.Advise.
const (
	AccessDefault    = mmap.AccessDefault
	AccessSequential = mmap.AccessSequential
	AccessRandom     = mmap.AccessRandom
	AccessWillNeed   = mmap.AccessWillNeed
	AccessDontNeed   = mmap.AccessDontNeed
)

// View is a read-only matrix backed by a memory mapping of the file.
//
// It shares indexing and bounds rules with Store but never provisions: the
// file must already exist with the exact length. Values written through a
// Store on the same file become visible to the View through the shared page
// cache.
type View[T Element] struct {
	path  string
	ix    indexer
	width int
	opts  options
	log   *Logger

	mu     sync.RWMutex
	m      *mmap.Mapping
	closed bool
}

// OpenView maps the existing matrix file at path as a rows x cols matrix of
// T. Only WithLayout, WithLogger, WithLogLevel and WithMetricsCollector
// apply; the mapping always goes through the local filesystem.
func OpenView[T Element](path string, rows, cols int, optFns ...Option) (*View[T], error) {
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

	m, err := mmap.Open(path)
	if err != nil {
		err = fmt.Errorf("binmatrix: view %s: %w", path, err)
		log.LogOpen(ctx, width, length, err)
		return nil, err
	}
	if int64(m.Size()) != length {
		err := &DimensionMismatchError{Path: path, Expected: length, Actual: int64(m.Size())}
		_ = m.Close()
		log.LogOpen(ctx, width, length, err)
		return nil, err
	}

	log.LogOpen(ctx, width, length, nil)
	return &View[T]{
		path:  path,
		ix:    indexer{shape: shape, layout: o.layout},
		width: width,
		opts:  o,
		log:   log,
		m:     m,
	}, nil
}

// Path returns the path of the mapped file.
func (v *View[T]) Path() string { return v.path }

// Dims returns the row and column count.
func (v *View[T]) Dims() (rows, cols int) { return v.ix.shape.Rows, v.ix.shape.Cols }

// Shape returns the matrix shape.
func (v *View[T]) Shape() Shape { return v.ix.shape }

// Len returns the number of elements.
func (v *View[T]) Len() int { return v.ix.shape.Len() }

// ElementWidth returns the size of one element in bytes.
func (v *View[T]) ElementWidth() int { return v.width }

// ByteLength returns the length of the mapping.
func (v *View[T]) ByteLength() int64 { return int64(v.ix.shape.Len()) * int64(v.width) }

// Read returns the element at the zero-based linear index.
func (v *View[T]) Read(index int) (T, error) {
	start := time.Now()
	out, err := v.element("Read", index)
	v.opts.metricsCollector.RecordRead(time.Since(start), err)
	return out, err
}

// At returns the element at the one-based (row, col) pair.
func (v *View[T]) At(row, col int) (T, error) {
	start := time.Now()
	var out T
	index, err := v.ix.translate("At", row, col)
	if err == nil {
		out, err = v.element("At", index)
	}
	v.opts.metricsCollector.RecordRead(time.Since(start), err)
	return out, err
}

func (v *View[T]) element(op string, index int) (T, error) {
	var zero T
	if err := v.ix.checkLinear(op, index); err != nil {
		return zero, err
	}

	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.closed {
		return zero, ErrClosed
	}
	b, err := v.m.Slice(index*v.width, v.width)
	if err != nil {
		return zero, fmt.Errorf("binmatrix: %s: element %d: %w", op, index, err)
	}
	return decode[T](b), nil
}

// ReadMany returns the elements at the given one-based linear indices.
func (v *View[T]) ReadMany(indices []int) ([]T, error) {
	start := time.Now()
	var out []T
	positions, err := v.ix.linearPositions("ReadMany", indices)
	if err == nil {
		out = make([]T, len(positions))
		err = v.gather("ReadMany", positions, out)
		if err != nil {
			out = nil
		}
	}
	v.opts.metricsCollector.RecordBulkRead(len(indices), time.Since(start), err)
	v.log.LogBulk(context.Background(), "ReadMany", len(indices), err)
	return out, err
}

// ReadGrid returns the len(rows) x len(cols) grid of one-based pairs
// (rows[a], cols[b]).
func (v *View[T]) ReadGrid(rows, cols []int) (*Grid[T], error) {
	start := time.Now()
	n := len(rows) * len(cols)
	var g *Grid[T]
	positions, err := v.ix.gridPositions("ReadGrid", rows, cols)
	if err == nil {
		g = &Grid[T]{rows: len(rows), cols: len(cols), data: make([]T, n)}
		err = v.gather("ReadGrid", positions, g.data)
		if err != nil {
			g = nil
		}
	}
	v.opts.metricsCollector.RecordBulkRead(n, time.Since(start), err)
	v.log.LogBulk(context.Background(), "ReadGrid", n, err)
	return g, err
}

func (v *View[T]) gather(op string, positions []int, out []T) error {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.closed {
		return ErrClosed
	}
	return forEachSpan(positions, v.opts.maxSpan, func(k, n int) error {
		b, err := v.m.Slice(positions[k]*v.width, n*v.width)
		if err != nil {
			return fmt.Errorf("binmatrix: %s: element %d: %w", op, positions[k], err)
		}
		decodeInto(out[k:k+n], b, v.width)
		return nil
	})
}

// ReadAt implements io.ReaderAt over the mapped bytes.
func (v *View[T]) ReadAt(p []byte, off int64) (int, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.closed {
		return 0, ErrClosed
	}
	n, err := v.m.ReadAt(p, off)
	if err != nil && !errors.Is(err, io.EOF) {
		return n, fmt.Errorf("binmatrix: ReadAt: %w", err)
	}
	return n, err
}

// Advise passes a paging hint for the whole mapping to the kernel.
func (v *View[T]) Advise(pattern AccessPattern) error {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.closed {
		return ErrClosed
	}
	return v.m.Advise(pattern)
}

// Close unmaps the file. Close is idempotent.
func (v *View[T]) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return nil
	}
	v.closed = true

	err := v.m.Close()
	if err != nil {
		err = fmt.Errorf("binmatrix: close view %s: %w", v.path, err)
	}
	v.log.LogClose(context.Background(), err)
	return err
}
