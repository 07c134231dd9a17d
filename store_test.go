package binmatrix

import (
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/binmatrix/internal/fs"
	"github.com/hupe1980/binmatrix/internal/hash"
)

func tempPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "matrix.bin")
}

func roundTrip[T Element](t *testing.T, values []T) {
	t.Helper()
	path := tempPath(t)

	s, err := Open[T](path, 3, 3)
	require.NoError(t, err)
	defer s.Close()

	for row := 1; row <= 3; row++ {
		for col := 1; col <= 3; col++ {
			v := values[((row-1)*3+(col-1))%len(values)]
			require.NoError(t, s.Set(row, col, v))

			got, err := s.At(row, col)
			require.NoError(t, err)
			assert.Equal(t, v, got)

			index, err := s.Index(row, col)
			require.NoError(t, err)
			linear, err := s.Read(index)
			require.NoError(t, err)
			assert.Equal(t, got, linear)
		}
	}

	for i := 0; i < s.Len(); i++ {
		v := values[i%len(values)]
		require.NoError(t, s.Write(i, v))
		got, err := s.Read(i)
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}

func TestStore_RoundTrip(t *testing.T) {
	t.Run("int8", func(t *testing.T) { roundTrip(t, []int8{math.MinInt8, -1, 0, 1, math.MaxInt8}) })
	t.Run("uint8", func(t *testing.T) { roundTrip(t, []uint8{0, 'a', 'Z', math.MaxUint8}) })
	t.Run("int16", func(t *testing.T) { roundTrip(t, []int16{math.MinInt16, -2, 7, math.MaxInt16}) })
	t.Run("uint16", func(t *testing.T) { roundTrip(t, []uint16{0, 513, math.MaxUint16}) })
	t.Run("int32", func(t *testing.T) { roundTrip(t, []int32{math.MinInt32, -42, 0, 42, math.MaxInt32}) })
	t.Run("uint32", func(t *testing.T) { roundTrip(t, []uint32{0, 0xdeadbeef, math.MaxUint32}) })
	t.Run("int64", func(t *testing.T) { roundTrip(t, []int64{math.MinInt64, -1, 1 << 40, math.MaxInt64}) })
	t.Run("uint64", func(t *testing.T) { roundTrip(t, []uint64{0, 1 << 63, math.MaxUint64}) })
	t.Run("float32", func(t *testing.T) {
		roundTrip(t, []float32{-1.5, 0, float32(math.Inf(1)), math.SmallestNonzeroFloat32, math.MaxFloat32})
	})
	t.Run("float64", func(t *testing.T) {
		roundTrip(t, []float64{math.Copysign(0, -1), 1.1, math.Inf(-1), math.SmallestNonzeroFloat64, math.MaxFloat64})
	})
}

func TestStore_NaNBitsPreserved(t *testing.T) {
	s, err := Open[float64](tempPath(t), 1, 1)
	require.NoError(t, err)
	defer s.Close()

	nan := math.Float64frombits(0x7ff8_0000_dead_beef)
	require.NoError(t, s.Write(0, nan))

	got, err := s.Read(0)
	require.NoError(t, err)
	assert.Equal(t, math.Float64bits(nan), math.Float64bits(got))
}

func TestStore_SixBySix(t *testing.T) {
	path := tempPath(t)
	s, err := Open[float64](path, 6, 6)
	require.NoError(t, err)

	rows, cols := s.Dims()
	assert.Equal(t, 6, rows)
	assert.Equal(t, 6, cols)

	writes := []struct {
		row, col int
		v        float64
	}{
		{1, 1, 1.1},
		{1, 6, 2.2},
		{2, 1, 3.3},
		{6, 6, 99.99},
	}
	for _, w := range writes {
		require.NoError(t, s.Set(w.row, w.col, w.v))
	}
	for _, w := range writes {
		got, err := s.At(w.row, w.col)
		require.NoError(t, err)
		assert.Equal(t, w.v, got)
	}

	untouched, err := s.At(3, 4)
	require.NoError(t, err)
	assert.Zero(t, untouched)

	require.NoError(t, s.Close())

	// Values survive reopening with the same shape.
	s, err = Open[float64](path, 6, 6)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.At(6, 6)
	require.NoError(t, err)
	assert.Equal(t, 99.99, got)
}

func TestStore_ProvisionsExactLength(t *testing.T) {
	path := tempPath(t)
	s, err := Open[int32](path, 5, 7)
	require.NoError(t, err)
	defer s.Close()

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(5*7*4), info.Size())
	assert.Equal(t, info.Size(), s.ByteLength())
	assert.Equal(t, 4, s.ElementWidth())
	assert.Equal(t, path, s.Path())

	last, err := s.Read(5*7 - 1)
	require.NoError(t, err)
	assert.Zero(t, last)
}

func TestStore_DimensionMismatch(t *testing.T) {
	path := tempPath(t)
	original := []byte("0123456789")
	require.NoError(t, os.WriteFile(path, original, 0o644))

	_, err := Open[float64](path, 2, 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	var mismatch *DimensionMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, int64(32), mismatch.Expected)
	assert.Equal(t, int64(10), mismatch.Actual)
	assert.Equal(t, path, mismatch.Path)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, original, after)
}

func TestStore_SameProductReinterprets(t *testing.T) {
	path := tempPath(t)
	s, err := Open[int32](path, 2, 3, WithLayout(LayoutRowMajor))
	require.NoError(t, err)
	require.NoError(t, s.Set(2, 1, 7))
	require.NoError(t, s.Close())

	// 3x2 has the same length, so the bytes are silently read with the new shape.
	s, err = Open[int32](path, 3, 2, WithLayout(LayoutRowMajor))
	require.NoError(t, err)
	defer s.Close()

	got, err := s.At(2, 2)
	require.NoError(t, err)
	assert.Equal(t, int32(7), got)
}

func TestStore_InvalidShape(t *testing.T) {
	for _, shape := range []Shape{{0, 1}, {1, 0}, {-1, 5}, {math.MaxInt, 2}} {
		_, err := Open[float64](tempPath(t), shape.Rows, shape.Cols)
		assert.ErrorIs(t, err, ErrInvalidShape, shape.String())
	}
}

func TestStore_OutOfRange(t *testing.T) {
	path := tempPath(t)
	s, err := Open[float64](path, 3, 3)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Fill(1.5))
	before, err := s.Checksum()
	require.NoError(t, err)

	_, err = s.Read(-1)
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = s.Read(9)
	assert.ErrorIs(t, err, ErrOutOfRange)
	assert.ErrorIs(t, s.Write(9, 0), ErrOutOfRange)
	assert.ErrorIs(t, s.Write(-1, 0), ErrOutOfRange)

	for _, rc := range [][2]int{{0, 1}, {1, 0}, {4, 1}, {1, 4}} {
		_, err = s.At(rc[0], rc[1])
		assert.ErrorIs(t, err, ErrOutOfRange)
		assert.ErrorIs(t, s.Set(rc[0], rc[1], 0), ErrOutOfRange)
	}

	var oor *OutOfRangeError
	_, err = s.At(1, 4)
	require.ErrorAs(t, err, &oor)
	assert.Equal(t, "col", oor.Axis)
	assert.Equal(t, 4, oor.Index)
	assert.Equal(t, 1, oor.Lower)
	assert.Equal(t, 3, oor.Upper)

	after, err := s.Checksum()
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestStore_RowCountLayout(t *testing.T) {
	t.Run("MoreRowsThanCols", func(t *testing.T) {
		s, err := Open[int64](tempPath(t), 3, 2)
		require.NoError(t, err)
		defer s.Close()

		// (3,2) reduces to 2*3+1 = 7, past the six elements in the file.
		_, err = s.At(3, 2)
		assert.ErrorIs(t, err, ErrOutOfRange)

		index, err := s.Index(2, 2)
		require.NoError(t, err)
		assert.Equal(t, 4, index)
	})

	t.Run("MoreColsThanRows", func(t *testing.T) {
		s, err := Open[int64](tempPath(t), 2, 3)
		require.NoError(t, err)
		defer s.Close()

		// (1,3) and (2,1) both reduce to 2.
		require.NoError(t, s.Set(1, 3, 11))
		got, err := s.At(2, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(11), got)
	})

	t.Run("RowMajor", func(t *testing.T) {
		s, err := Open[int64](tempPath(t), 3, 2, WithLayout(LayoutRowMajor))
		require.NoError(t, err)
		defer s.Close()

		assert.Equal(t, LayoutRowMajor, s.Layout())
		require.NoError(t, s.Set(3, 2, 5))
		got, err := s.Read(5)
		require.NoError(t, err)
		assert.Equal(t, int64(5), got)
	})
}

func TestStore_RowCountLayoutAliases(t *testing.T) {
	s, err := Open[int32](tempPath(t), 2, 3)
	require.NoError(t, err)
	defer s.Close()

	a, err := s.Index(1, 3)
	require.NoError(t, err)
	b, err := s.Index(2, 1)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	require.NoError(t, s.Set(1, 3, 13))
	require.NoError(t, s.Set(2, 1, 21))

	got, err := s.At(1, 3)
	require.NoError(t, err)
	assert.Equal(t, int32(21), got)
}

func TestStore_Closed(t *testing.T) {
	s, err := Open[float32](tempPath(t), 2, 2)
	require.NoError(t, err)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err = s.Read(0)
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, s.Write(0, 1), ErrClosed)
	_, err = s.ReadMany([]int{1})
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, s.Sync(), ErrClosed)
	_, err = s.Checksum()
	assert.ErrorIs(t, err, ErrClosed)

	buf := make([]byte, 4)
	_, err = s.ReadAt(buf, 0)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = s.ReadAt(buf, s.ByteLength()+10)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestStore_IOErrors(t *testing.T) {
	injected := errors.New("disk on fire")

	path := tempPath(t)
	s, err := Open[float64](path, 2, 2)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	t.Run("Read", func(t *testing.T) {
		ffs := fs.NewFaultyFS(nil)
		ffs.AddRule("matrix.bin", fs.Fault{FailAfterBytes: -1, FailOnRead: true, Err: injected})

		s, err := Open[float64](path, 2, 2, WithFileSystem(ffs))
		require.NoError(t, err)
		defer s.Close()

		_, err = s.Read(1)
		assert.ErrorIs(t, err, injected)
		_, err = s.At(1, 1)
		assert.ErrorIs(t, err, injected)
	})

	t.Run("Write", func(t *testing.T) {
		ffs := fs.NewFaultyFS(nil)
		ffs.AddRule("matrix.bin", fs.Fault{FailAfterBytes: 0, Err: injected})

		s, err := Open[float64](path, 2, 2, WithFileSystem(ffs))
		require.NoError(t, err)
		defer s.Close()

		assert.ErrorIs(t, s.Write(0, 1), injected)
	})

	t.Run("Open", func(t *testing.T) {
		ffs := fs.NewFaultyFS(nil)
		ffs.AddRule("matrix.bin", fs.Fault{FailAfterBytes: -1, FailOnOpen: true, Err: injected})

		_, err := Open[float64](path, 2, 2, WithFileSystem(ffs))
		assert.ErrorIs(t, err, injected)
	})

	t.Run("Provision", func(t *testing.T) {
		ffs := fs.NewFaultyFS(nil)
		ffs.SetLimit(0)

		fresh := filepath.Join(t.TempDir(), "fresh.bin")
		_, err := Open[float64](fresh, 2, 2, WithFileSystem(ffs))
		require.Error(t, err)
	})
}

func TestStore_Durability(t *testing.T) {
	injected := errors.New("sync failed")
	path := tempPath(t)
	s, err := Open[int32](path, 2, 2)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	ffs := fs.NewFaultyFS(nil)
	ffs.AddRule("matrix.bin", fs.Fault{FailAfterBytes: -1, FailOnSync: true, Err: injected})

	t.Run("Async", func(t *testing.T) {
		s, err := Open[int32](path, 2, 2, WithFileSystem(ffs))
		require.NoError(t, err)
		defer s.Close()

		assert.NoError(t, s.Write(0, 1))
		assert.ErrorIs(t, s.Sync(), injected)
	})

	t.Run("Sync", func(t *testing.T) {
		s, err := Open[int32](path, 2, 2, WithFileSystem(ffs), WithDurability(DurabilitySync))
		require.NoError(t, err)
		defer s.Close()

		assert.ErrorIs(t, s.Write(0, 1), injected)
		assert.ErrorIs(t, s.Set(1, 1, 1), injected)

		g, err := GridFrom(1, 1, []int32{3})
		require.NoError(t, err)
		assert.ErrorIs(t, s.WriteGrid([]int{1}, []int{1}, g), injected)

		// The bytes reached the file before the failing sync.
		got, err := s.Read(0)
		require.NoError(t, err)
		assert.Equal(t, int32(3), got)
	})
}

func TestStore_ReadAtAndChecksum(t *testing.T) {
	path := tempPath(t)
	s, err := Open[uint8](path, 2, 4)
	require.NoError(t, err)
	defer s.Close()

	for i := 0; i < s.Len(); i++ {
		require.NoError(t, s.Write(i, uint8('a'+i)))
	}

	buf := make([]byte, 16)
	n, err := s.ReadAt(buf, 2)
	assert.Equal(t, 6, n)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, []byte("cdefgh"), buf[:n])

	_, err = s.ReadAt(buf, 8)
	assert.ErrorIs(t, err, io.EOF)

	sum, err := s.Checksum()
	require.NoError(t, err)
	assert.Equal(t, hash.CRC32C([]byte("abcdefgh")), sum)
}

func TestStore_ConcurrentReaders(t *testing.T) {
	s, err := Open[int64](tempPath(t), 16, 16, WithLayout(LayoutRowMajor))
	require.NoError(t, err)
	defer s.Close()

	for i := 0; i < s.Len(); i++ {
		require.NoError(t, s.Write(i, int64(i)))
	}

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := w; i < s.Len(); i += 8 {
				v, err := s.Read(i)
				assert.NoError(t, err)
				assert.Equal(t, int64(i), v)
			}
		}(w)
	}
	wg.Wait()
}
