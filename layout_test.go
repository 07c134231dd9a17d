package binmatrix

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShape(t *testing.T) {
	s := Shape{Rows: 3, Cols: 4}
	assert.Equal(t, 12, s.Len())
	assert.Equal(t, "3x4", s.String())

	n, err := s.byteLength(8)
	require.NoError(t, err)
	assert.Equal(t, int64(96), n)
}

func TestLayout_Reduce(t *testing.T) {
	s := Shape{Rows: 2, Cols: 5}
	got, ok := LayoutRowCount.reduce(s, 1, 3)
	require.True(t, ok)
	assert.Equal(t, 1*2+3, got)
	got, ok = LayoutRowMajor.reduce(s, 1, 3)
	require.True(t, ok)
	assert.Equal(t, 1*5+3, got)

	_, ok = LayoutRowCount.reduce(Shape{Rows: math.MaxInt, Cols: 1}, 2, 0)
	assert.False(t, ok)

	assert.Equal(t, "row-count", LayoutRowCount.String())
	assert.Equal(t, "row-major", LayoutRowMajor.String())
	assert.Equal(t, "Layout(7)", Layout(7).String())

	for _, l := range []Layout{LayoutRowCount, LayoutRowMajor} {
		parsed, err := ParseLayout(l.String())
		require.NoError(t, err)
		assert.Equal(t, l, parsed)
	}
	_, err := ParseLayout("column-major")
	assert.Error(t, err)
}

func TestIndexer(t *testing.T) {
	ix := indexer{shape: Shape{Rows: 2, Cols: 2}, layout: LayoutRowCount}

	t.Run("Translate", func(t *testing.T) {
		tests := []struct {
			row, col, want int
		}{
			{1, 1, 0},
			{1, 2, 1},
			{2, 1, 2},
			{2, 2, 3},
		}
		for _, tt := range tests {
			got, err := ix.translate("At", tt.row, tt.col)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		}
	})

	t.Run("LinearPositions", func(t *testing.T) {
		got, err := ix.linearPositions("ReadMany", []int{1, 3, 2})
		require.NoError(t, err)
		assert.Equal(t, []int{0, 2, 1}, got)

		_, err = ix.linearPositions("ReadMany", []int{1, 5})
		var oor *OutOfRangeError
		require.ErrorAs(t, err, &oor)
		assert.Equal(t, "ReadMany", oor.Op)
		assert.Equal(t, 5, oor.Index)
		assert.Equal(t, 1, oor.Lower)
		assert.Equal(t, 4, oor.Upper)
	})

	t.Run("GridPositions", func(t *testing.T) {
		got, err := ix.gridPositions("ReadGrid", []int{2, 1}, []int{2, 1})
		require.NoError(t, err)
		assert.Equal(t, []int{3, 2, 1, 0}, got)

		// A bad column is reported even when it comes after good rows.
		_, err = ix.gridPositions("ReadGrid", []int{1, 2}, []int{3})
		var oor *OutOfRangeError
		require.ErrorAs(t, err, &oor)
		assert.Equal(t, "col", oor.Axis)
	})
}

func TestIndexer_HugeRowCount(t *testing.T) {
	if math.MaxInt < 1<<62 {
		t.Skip("requires 64-bit int")
	}
	shift := 32
	rows := 1<<shift + 1
	ix := indexer{shape: Shape{Rows: rows, Cols: 1}, layout: LayoutRowCount}

	t.Run("Translate", func(t *testing.T) {
		got, err := ix.translate("At", 1, 1)
		require.NoError(t, err)
		assert.Equal(t, 0, got)

		// (rows-1)*rows wraps int64 and must not come back in range.
		_, err = ix.translate("At", rows, 1)
		var oor *OutOfRangeError
		require.ErrorAs(t, err, &oor)
		assert.ErrorIs(t, err, ErrOutOfRange)
		assert.Equal(t, "row", oor.Axis)
		assert.Equal(t, rows, oor.Index)
		assert.Equal(t, rows, oor.Upper)

		_, err = ix.translate("At", 2, 1)
		require.ErrorAs(t, err, &oor)
		assert.Equal(t, "index", oor.Axis)
	})

	t.Run("GridPositions", func(t *testing.T) {
		_, err := ix.gridPositions("ReadGrid", []int{1, rows}, []int{1})
		var oor *OutOfRangeError
		require.ErrorAs(t, err, &oor)
		assert.Equal(t, "ReadGrid", oor.Op)
		assert.Equal(t, "row", oor.Axis)
	})
}

func TestOutOfRangeError_Message(t *testing.T) {
	err := &OutOfRangeError{Op: "At", Axis: "row", Index: 7, Lower: 1, Upper: 6}
	assert.Equal(t, "binmatrix: At: row 7 out of range [1,6]", err.Error())
	assert.ErrorIs(t, err, ErrOutOfRange)
	assert.NotErrorIs(t, err, ErrDimensionMismatch)
}
