package hash

import (
	"errors"
	"hash"
	"hash/crc32"
	"io"
)

// DefaultBlockSize is the read size used by SumReaderAt when blockSize <= 0.
const DefaultBlockSize = 1 << 20

// crc32cTable is pre-computed for CRC32-Castagnoli polynomial.
var crc32cTable = crc32.MakeTable(crc32.Castagnoli)

// CRC32C computes the CRC32-Castagnoli checksum of data.
func CRC32C(data []byte) uint32 {
	return crc32.Checksum(data, crc32cTable)
}

// NewCRC32C returns a new CRC32-Castagnoli hash.Hash32.
func NewCRC32C() hash.Hash32 {
	return crc32.New(crc32cTable)
}

// SumReaderAt computes the CRC32C of the first size bytes of r, reading
// blockSize bytes at a time. Only one block is held in memory.
func SumReaderAt(r io.ReaderAt, size int64, blockSize int) (uint32, error) {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	if size < int64(blockSize) {
		blockSize = int(size)
	}

	buf := make([]byte, blockSize)
	var sum uint32
	for off := int64(0); off < size; {
		n := int64(len(buf))
		if remaining := size - off; remaining < n {
			n = remaining
		}
		read, err := r.ReadAt(buf[:n], off)
		if int64(read) < n {
			if err == nil || errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return 0, err
		}
		sum = crc32.Update(sum, crc32cTable, buf[:n])
		off += n
	}
	return sum, nil
}
