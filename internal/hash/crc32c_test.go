package hash

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCRC32C_StreamingMatchesOneShot(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog")

	h := NewCRC32C()
	_, _ = h.Write(data[:10])
	_, _ = h.Write(data[10:])

	assert.Equal(t, CRC32C(data), h.Sum32())
}

func TestSumReaderAt(t *testing.T) {
	data := bytes.Repeat([]byte{1, 2, 3, 4, 5, 6, 7}, 1000)
	want := CRC32C(data)

	for _, blockSize := range []int{0, 1, 7, 64, 4096, len(data) + 1} {
		got, err := SumReaderAt(bytes.NewReader(data), int64(len(data)), blockSize)
		require.NoError(t, err)
		assert.Equal(t, want, got, "blockSize=%d", blockSize)
	}
}

func TestSumReaderAt_Prefix(t *testing.T) {
	data := []byte("0123456789")

	got, err := SumReaderAt(bytes.NewReader(data), 4, 3)
	require.NoError(t, err)
	assert.Equal(t, CRC32C(data[:4]), got)
}

func TestSumReaderAt_Empty(t *testing.T) {
	got, err := SumReaderAt(bytes.NewReader(nil), 0, 16)
	require.NoError(t, err)
	assert.Equal(t, CRC32C(nil), got)
}

func TestSumReaderAt_ShortSource(t *testing.T) {
	_, err := SumReaderAt(bytes.NewReader([]byte("abc")), 10, 4)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}
