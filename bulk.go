package binmatrix

import (
	"context"
	"fmt"
	"time"
)

// ReadMany returns the elements at the given one-based linear indices, in
// the order given. Duplicates are allowed. If any index is outside
// [1, rows*cols] the whole call fails with ErrOutOfRange before anything is
// read.
func (s *Store[T]) ReadMany(indices []int) ([]T, error) {
	start := time.Now()
	out, err := s.readMany(indices)
	s.opts.metricsCollector.RecordBulkRead(len(indices), time.Since(start), err)
	s.log.LogBulk(context.Background(), "ReadMany", len(indices), err)
	return out, err
}

func (s *Store[T]) readMany(indices []int) ([]T, error) {
	positions, err := s.ix.linearPositions("ReadMany", indices)
	if err != nil {
		return nil, err
	}
	out := make([]T, len(positions))
	if err := s.readPositions("ReadMany", positions, out); err != nil {
		return nil, err
	}
	return out, nil
}

// ReadGrid returns the len(rows) x len(cols) grid whose (a, b) entry is the
// element at the one-based pair (rows[a], cols[b]). Selections may be in any
// order and may repeat. All rows and columns are validated before anything
// is read.
func (s *Store[T]) ReadGrid(rows, cols []int) (*Grid[T], error) {
	start := time.Now()
	g, err := s.readGrid(rows, cols)
	n := len(rows) * len(cols)
	s.opts.metricsCollector.RecordBulkRead(n, time.Since(start), err)
	s.log.LogBulk(context.Background(), "ReadGrid", n, err)
	return g, err
}

func (s *Store[T]) readGrid(rows, cols []int) (*Grid[T], error) {
	positions, err := s.ix.gridPositions("ReadGrid", rows, cols)
	if err != nil {
		return nil, err
	}
	g := &Grid[T]{rows: len(rows), cols: len(cols), data: make([]T, len(positions))}
	if err := s.readPositions("ReadGrid", positions, g.data); err != nil {
		return nil, err
	}
	return g, nil
}

// WriteGrid stores values[a, b] at the one-based pair (rows[a], cols[b]).
//
// values must be len(rows) x len(cols) (ErrShapeMismatch otherwise) and all
// rows and columns must be in range (ErrOutOfRange); both are checked before
// anything is written. The batch is not atomic: an I/O error leaves earlier
// elements written and later ones untouched.
func (s *Store[T]) WriteGrid(rows, cols []int, values *Grid[T]) error {
	start := time.Now()
	n := len(rows) * len(cols)
	written, err := s.writeGrid(rows, cols, values)
	s.opts.metricsCollector.RecordBulkWrite(n, written, time.Since(start), err)
	s.log.LogBulk(context.Background(), "WriteGrid", n, err)
	return err
}

func (s *Store[T]) writeGrid(rows, cols []int, values *Grid[T]) (int, error) {
	want := Shape{Rows: len(rows), Cols: len(cols)}
	if values == nil {
		return 0, shapeMismatch("WriteGrid", Shape{}, want)
	}
	if got := (Shape{Rows: values.rows, Cols: values.cols}); got != want {
		return 0, shapeMismatch("WriteGrid", got, want)
	}

	positions, err := s.ix.gridPositions("WriteGrid", rows, cols)
	if err != nil {
		return 0, err
	}
	return s.writePositions("WriteGrid", positions, values.data)
}

// Fill stores v in every element.
func (s *Store[T]) Fill(v T) error {
	start := time.Now()
	n := s.Len()
	written, err := s.fill(v)
	s.opts.metricsCollector.RecordBulkWrite(n, written, time.Since(start), err)
	s.log.LogBulk(context.Background(), "Fill", n, err)
	return err
}

func (s *Store[T]) fill(v T) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, ErrClosed
	}

	total := s.Len()
	span := min(total, s.opts.maxSpan)
	buf := make([]byte, span*s.width)
	for i := 0; i < span; i++ {
		encode(buf[i*s.width:], v)
	}

	written := 0
	for written < total {
		n := min(span, total-written)
		off := s.offset(written)
		m, err := s.file.WriteAt(buf[:n*s.width], off)
		s.markChanged(off, int64(m))
		if err != nil {
			return written + m/s.width, fmt.Errorf("binmatrix: Fill: write at element %d: %w", written, err)
		}
		written += n
	}
	return written, s.syncLocked("Fill")
}

// forEachSpan splits positions into runs of consecutive linear indices no
// longer than maxSpan and calls fn with the start and length of each run.
func forEachSpan(positions []int, maxSpan int, fn func(start, n int) error) error {
	for k := 0; k < len(positions); {
		n := 1
		for k+n < len(positions) && n < maxSpan && positions[k+n] == positions[k]+n {
			n++
		}
		if err := fn(k, n); err != nil {
			return err
		}
		k += n
	}
	return nil
}

// readPositions fills out[k] with the element at positions[k].
func (s *Store[T]) readPositions(op string, positions []int, out []T) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}

	buf := make([]byte, min(len(positions), s.opts.maxSpan)*s.width)
	return forEachSpan(positions, s.opts.maxSpan, func(k, n int) error {
		b := buf[:n*s.width]
		if _, err := s.file.ReadAt(b, s.offset(positions[k])); err != nil {
			return fmt.Errorf("binmatrix: %s: read element %d: %w", op, positions[k], err)
		}
		decodeInto(out[k:k+n], b, s.width)
		return nil
	})
}

// writePositions stores values[k] at positions[k] and returns how many
// elements reached the file.
func (s *Store[T]) writePositions(op string, positions []int, values []T) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, ErrClosed
	}

	written := 0
	buf := make([]byte, min(len(positions), s.opts.maxSpan)*s.width)
	err := forEachSpan(positions, s.opts.maxSpan, func(k, n int) error {
		b := buf[:n*s.width]
		encodeFrom(b, values[k:k+n], s.width)
		off := s.offset(positions[k])
		m, err := s.file.WriteAt(b, off)
		s.markChanged(off, int64(m))
		written += m / s.width
		if err != nil {
			return fmt.Errorf("binmatrix: %s: write element %d: %w", op, positions[k], err)
		}
		return nil
	})
	if err != nil {
		return written, err
	}
	return written, s.syncLocked(op)
}
