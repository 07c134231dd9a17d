package cli

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/hupe1980/binmatrix"
	"github.com/hupe1980/binmatrix/archive"
)

// matrix is a Store of any element type, with values passed as text.
type matrix interface {
	archive.Source
	Path() string
	Shape() binmatrix.Shape
	Layout() binmatrix.Layout
	Checksum() (uint32, error)
	Close() error

	value(row, col int) (any, error)
	valueAt(index int) (any, error)
	assign(row, col int, text string) error
	fillWith(text string) error
	// eachRow calls fn with Cols consecutive elements at a time, in file
	// order.
	eachRow(fn func(row []any) error) error
}

type typedMatrix[T binmatrix.Element] struct {
	*binmatrix.Store[T]
	parse func(string) (T, error)
}

func (m typedMatrix[T]) value(row, col int) (any, error) {
	return m.At(row, col)
}

func (m typedMatrix[T]) valueAt(index int) (any, error) {
	return m.Read(index)
}

func (m typedMatrix[T]) assign(row, col int, text string) error {
	v, err := m.parse(text)
	if err != nil {
		return err
	}
	return m.Set(row, col, v)
}

func (m typedMatrix[T]) fillWith(text string) error {
	v, err := m.parse(text)
	if err != nil {
		return err
	}
	return m.Fill(v)
}

func (m typedMatrix[T]) eachRow(fn func(row []any) error) error {
	shape := m.Shape()
	indices := make([]int, shape.Cols)
	row := make([]any, shape.Cols)
	for r := range shape.Rows {
		for c := range indices {
			indices[c] = r*shape.Cols + c + 1
		}
		values, err := m.ReadMany(indices)
		if err != nil {
			return err
		}
		for c, v := range values {
			row[c] = v
		}
		if err := fn(row); err != nil {
			return err
		}
	}
	return nil
}

type signed interface{ ~int8 | ~int16 | ~int32 | ~int64 }

type unsigned interface{ ~uint8 | ~uint16 | ~uint32 | ~uint64 }

func parseSigned[T signed](bits int) func(string) (T, error) {
	return func(s string) (T, error) {
		v, err := strconv.ParseInt(strings.TrimSpace(s), 10, bits)
		return T(v), err
	}
}

func parseUnsigned[T unsigned](bits int) func(string) (T, error) {
	return func(s string) (T, error) {
		v, err := strconv.ParseUint(strings.TrimSpace(s), 10, bits)
		return T(v), err
	}
}

func parseFloat[T ~float32 | ~float64](bits int) func(string) (T, error) {
	return func(s string) (T, error) {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), bits)
		return T(v), err
	}
}

func openTyped[T binmatrix.Element](path string, rows, cols int, parse func(string) (T, error), optFns []binmatrix.Option) (matrix, error) {
	s, err := binmatrix.Open[T](path, rows, cols, optFns...)
	if err != nil {
		return nil, err
	}
	return typedMatrix[T]{Store: s, parse: parse}, nil
}

// typeAliases maps alternative element type names to canonical ones.
var typeAliases = map[string]string{
	"char":    "int8",
	"byte":    "uint8",
	"integer": "int32",
	"int":     "int32",
	"float":   "float32",
	"double":  "float64",
}

// ElementTypes lists the canonical --type values.
var ElementTypes = []string{
	"int8", "uint8", "int16", "uint16", "int32",
	"uint32", "int64", "uint64", "float32", "float64",
}

func canonicalType(name string) (string, error) {
	name = strings.ToLower(name)
	if alias, ok := typeAliases[name]; ok {
		name = alias
	}
	if !slices.Contains(ElementTypes, name) {
		return "", fmt.Errorf("unknown element type %q: must be one of %v", name, ElementTypes)
	}
	return name, nil
}

// openMatrix opens path as a matrix of the named element type.
func openMatrix(typ, path string, rows, cols int, optFns ...binmatrix.Option) (matrix, error) {
	typ, err := canonicalType(typ)
	if err != nil {
		return nil, err
	}
	switch typ {
	case "int8":
		return openTyped(path, rows, cols, parseSigned[int8](8), optFns)
	case "uint8":
		return openTyped(path, rows, cols, parseUnsigned[uint8](8), optFns)
	case "int16":
		return openTyped(path, rows, cols, parseSigned[int16](16), optFns)
	case "uint16":
		return openTyped(path, rows, cols, parseUnsigned[uint16](16), optFns)
	case "int32":
		return openTyped(path, rows, cols, parseSigned[int32](32), optFns)
	case "uint32":
		return openTyped(path, rows, cols, parseUnsigned[uint32](32), optFns)
	case "int64":
		return openTyped(path, rows, cols, parseSigned[int64](64), optFns)
	case "uint64":
		return openTyped(path, rows, cols, parseUnsigned[uint64](64), optFns)
	case "float32":
		return openTyped(path, rows, cols, parseFloat[float32](32), optFns)
	default:
		return openTyped(path, rows, cols, parseFloat[float64](64), optFns)
	}
}
