package binmatrix

import (
	"fmt"
	"math"

	"github.com/hupe1980/binmatrix/internal/conv"
)

// Shape describes the dimensions of a matrix file.
type Shape struct {
	Rows int
	Cols int
}

// Len returns the number of elements, Rows*Cols.
func (s Shape) Len() int {
	return s.Rows * s.Cols
}

// String implements fmt.Stringer.
func (s Shape) String() string {
	return fmt.Sprintf("%dx%d", s.Rows, s.Cols)
}

// byteLength validates the shape and returns Rows*Cols*width.
func (s Shape) byteLength(width int) (int64, error) {
	if s.Rows <= 0 || s.Cols <= 0 {
		return 0, fmt.Errorf("%w: %s", ErrInvalidShape, s)
	}
	n, err := conv.MulInt(s.Rows, s.Cols)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrInvalidShape, s, err)
	}
	length, err := conv.MulInt64(int64(n), int64(width))
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrInvalidShape, s, err)
	}
	return length, nil
}

// Layout selects how a (row, col) pair is reduced to a linear index.
type Layout int

const (
	// LayoutRowCount reduces (row, col) to row*Rows + col, keyed on the row
	// count. Files written by earlier tooling use this convention, so it is
	// the default. With Rows > Cols some in-range pairs reduce past the end of
	// the file and are rejected with ErrOutOfRange. With Rows < Cols distinct
	// in-range pairs alias the same element: on a 2x3 store (1,3) and (2,1)
	// both reduce to 2.
	LayoutRowCount Layout = iota
	// LayoutRowMajor reduces (row, col) to row*Cols + col.
	LayoutRowMajor
)

// String implements fmt.Stringer.
func (l Layout) String() string {
	switch l {
	case LayoutRowCount:
		return "row-count"
	case LayoutRowMajor:
		return "row-major"
	default:
		return fmt.Sprintf("Layout(%d)", int(l))
	}
}

// ParseLayout parses the String form of a Layout.
func ParseLayout(s string) (Layout, error) {
	switch s {
	case "row-count", "":
		return LayoutRowCount, nil
	case "row-major":
		return LayoutRowMajor, nil
	default:
		return 0, fmt.Errorf("binmatrix: unknown layout %q", s)
	}
}

// reduce maps a zero-based (row, col) pair to a zero-based linear index.
// ok is false when the index does not fit int.
func (l Layout) reduce(s Shape, row, col int) (index int, ok bool) {
	stride := s.Rows
	if l == LayoutRowMajor {
		stride = s.Cols
	}
	base, err := conv.MulInt(row, stride)
	if err != nil || base > math.MaxInt-col {
		return 0, false
	}
	return base + col, true
}

// indexer holds the bounds-checking and translation rules shared by Store
// and View.
type indexer struct {
	shape  Shape
	layout Layout
}

func (ix indexer) checkLinear(op string, index int) error {
	if index < 0 || index >= ix.shape.Len() {
		return &OutOfRangeError{Op: op, Axis: "index", Index: index, Lower: 0, Upper: ix.shape.Len() - 1}
	}
	return nil
}

func (ix indexer) checkRow(op string, row int) error {
	if row < 1 || row > ix.shape.Rows {
		return &OutOfRangeError{Op: op, Axis: "row", Index: row, Lower: 1, Upper: ix.shape.Rows}
	}
	return nil
}

func (ix indexer) checkCol(op string, col int) error {
	if col < 1 || col > ix.shape.Cols {
		return &OutOfRangeError{Op: op, Axis: "col", Index: col, Lower: 1, Upper: ix.shape.Cols}
	}
	return nil
}

// translate validates a one-based (row, col) pair and returns the zero-based
// linear index, which is itself bounds-checked.
func (ix indexer) translate(op string, row, col int) (int, error) {
	if err := ix.checkRow(op, row); err != nil {
		return 0, err
	}
	if err := ix.checkCol(op, col); err != nil {
		return 0, err
	}
	return ix.position(op, row, col)
}

// position reduces a one-based (row, col) pair that already passed the row
// and column checks. An index that does not fit int is reported against the
// row.
func (ix indexer) position(op string, row, col int) (int, error) {
	index, ok := ix.layout.reduce(ix.shape, row-1, col-1)
	if !ok {
		return 0, &OutOfRangeError{Op: op, Axis: "row", Index: row, Lower: 1, Upper: ix.shape.Rows}
	}
	if err := ix.checkLinear(op, index); err != nil {
		return 0, err
	}
	return index, nil
}

// linearPositions converts one-based linear indices to zero-based positions.
// Every index is validated before any position is returned.
func (ix indexer) linearPositions(op string, indices []int) ([]int, error) {
	positions := make([]int, len(indices))
	for k, i := range indices {
		if i < 1 || i > ix.shape.Len() {
			return nil, &OutOfRangeError{Op: op, Axis: "index", Index: i, Lower: 1, Upper: ix.shape.Len()}
		}
		positions[k] = i - 1
	}
	return positions, nil
}

// gridPositions returns the zero-based linear positions of every
// (rows[a], cols[b]) pair in row-major order of the output grid.
// Rows and columns are validated up front for the whole call.
func (ix indexer) gridPositions(op string, rows, cols []int) ([]int, error) {
	for _, r := range rows {
		if err := ix.checkRow(op, r); err != nil {
			return nil, err
		}
	}
	for _, c := range cols {
		if err := ix.checkCol(op, c); err != nil {
			return nil, err
		}
	}

	positions := make([]int, 0, len(rows)*len(cols))
	for _, r := range rows {
		for _, c := range cols {
			index, err := ix.position(op, r, c)
			if err != nil {
				return nil, err
			}
			positions = append(positions, index)
		}
	}
	return positions, nil
}
