package binmatrix

import (
	"errors"
	"fmt"
)

var (
	// ErrDimensionMismatch is returned by Open when an existing file's length
	// is not rows*cols*width.
	ErrDimensionMismatch = errors.New("binmatrix: dimensions do not match file length")

	// ErrOutOfRange is returned when an index, row or column is outside the
	// valid bounds. No I/O is performed for a rejected call.
	ErrOutOfRange = errors.New("binmatrix: index out of range")

	// ErrShapeMismatch is returned by WriteGrid when the value grid does not
	// have shape (len(rows), len(cols)).
	ErrShapeMismatch = errors.New("binmatrix: value shape mismatch")

	// ErrInvalidShape is returned when rows or cols is not positive or the
	// file length would overflow.
	ErrInvalidShape = errors.New("binmatrix: invalid shape")

	// ErrClosed is returned by operations on a closed Store or View.
	ErrClosed = errors.New("binmatrix: store is closed")
)

// DimensionMismatchError reports the expected and physical length of a
// matrix file. It matches ErrDimensionMismatch with errors.Is.
type DimensionMismatchError struct {
	Path     string
	Expected int64
	Actual   int64
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("binmatrix: %s: dimensions do not match file length: expected %d bytes, got %d",
		e.Path, e.Expected, e.Actual)
}

// Is reports whether target is ErrDimensionMismatch.
func (e *DimensionMismatchError) Is(target error) bool {
	return target == ErrDimensionMismatch
}

// OutOfRangeError describes a rejected index. Lower and Upper are inclusive.
// It matches ErrOutOfRange with errors.Is.
type OutOfRangeError struct {
	Op    string
	Axis  string // "index", "row" or "col"
	Index int
	Lower int
	Upper int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("binmatrix: %s: %s %d out of range [%d,%d]", e.Op, e.Axis, e.Index, e.Lower, e.Upper)
}

// Is reports whether target is ErrOutOfRange.
func (e *OutOfRangeError) Is(target error) bool {
	return target == ErrOutOfRange
}

func shapeMismatch(op string, got, want Shape) error {
	return fmt.Errorf("%w: %s: values are %s, want %s", ErrShapeMismatch, op, got, want)
}
