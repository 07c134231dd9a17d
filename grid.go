package binmatrix

import "fmt"

// Grid is a small in-memory matrix used as the result of ReadGrid and the
// input of WriteGrid. Indices are zero-based and data is row-major.
type Grid[T Element] struct {
	rows, cols int
	data       []T
}

// NewGrid returns a zeroed rows x cols grid. Empty grids (0 rows or 0 cols)
// are allowed and describe empty selections.
func NewGrid[T Element](rows, cols int) (*Grid[T], error) {
	if rows < 0 || cols < 0 {
		return nil, fmt.Errorf("%w: grid %dx%d", ErrInvalidShape, rows, cols)
	}
	return &Grid[T]{rows: rows, cols: cols, data: make([]T, rows*cols)}, nil
}

// GridFrom wraps data (row-major, len rows*cols) without copying.
func GridFrom[T Element](rows, cols int, data []T) (*Grid[T], error) {
	if rows < 0 || cols < 0 || len(data) != rows*cols {
		return nil, fmt.Errorf("%w: grid %dx%d with %d values", ErrInvalidShape, rows, cols, len(data))
	}
	return &Grid[T]{rows: rows, cols: cols, data: data}, nil
}

// Dims returns the grid shape.
func (g *Grid[T]) Dims() (rows, cols int) {
	return g.rows, g.cols
}

func (g *Grid[T]) index(op string, a, b int) (int, error) {
	if a < 0 || a >= g.rows {
		return 0, &OutOfRangeError{Op: op, Axis: "row", Index: a, Lower: 0, Upper: g.rows - 1}
	}
	if b < 0 || b >= g.cols {
		return 0, &OutOfRangeError{Op: op, Axis: "col", Index: b, Lower: 0, Upper: g.cols - 1}
	}
	return a*g.cols + b, nil
}

// At returns the value at (a, b).
func (g *Grid[T]) At(a, b int) (T, error) {
	i, err := g.index("Grid.At", a, b)
	if err != nil {
		var zero T
		return zero, err
	}
	return g.data[i], nil
}

// Set stores v at (a, b).
func (g *Grid[T]) Set(a, b int, v T) error {
	i, err := g.index("Grid.Set", a, b)
	if err != nil {
		return err
	}
	g.data[i] = v
	return nil
}

// Row returns row a. The slice aliases the grid.
func (g *Grid[T]) Row(a int) ([]T, error) {
	if a < 0 || a >= g.rows {
		return nil, &OutOfRangeError{Op: "Grid.Row", Axis: "row", Index: a, Lower: 0, Upper: g.rows - 1}
	}
	return g.data[a*g.cols : (a+1)*g.cols], nil
}

// Data returns the row-major backing slice.
func (g *Grid[T]) Data() []T {
	return g.data
}
