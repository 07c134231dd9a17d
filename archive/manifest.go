package archive

import (
	"fmt"
	"path"
	"strings"
	"time"
)

// CurrentName is the blob naming the latest manifest.
const CurrentName = "CURRENT"

const (
	manifestDir = "manifests/"
	chunkDir    = "chunks/"
)

// Manifest describes one snapshot of a matrix file.
type Manifest struct {
	ID           string      `json:"id"`
	Parent       string      `json:"parent,omitempty"`
	Created      time.Time   `json:"created"`
	Rows         int         `json:"rows"`
	Cols         int         `json:"cols"`
	ElementWidth int         `json:"element_width"`
	ChunkSize    int64       `json:"chunk_size"`
	Compression  Compression `json:"compression"`
	Codec        string      `json:"codec"`
	Chunks       []ChunkRef  `json:"chunks"`
}

// ChunkRef locates one chunk of the matrix file. Chunk i covers bytes
// [i*ChunkSize, i*ChunkSize+RawSize).
type ChunkRef struct {
	Index      uint32 `json:"index"`
	Key        string `json:"key"`
	RawSize    int64  `json:"raw_size"`
	StoredSize int64  `json:"stored_size"`
	Checksum   uint32 `json:"crc32c"`
}

// ByteLength returns rows*cols*width.
func (m *Manifest) ByteLength() int64 {
	return int64(m.Rows) * int64(m.Cols) * int64(m.ElementWidth)
}

// StoredBytes returns the total size of the chunk blobs.
func (m *Manifest) StoredBytes() int64 {
	var n int64
	for _, c := range m.Chunks {
		n += c.StoredSize
	}
	return n
}

// Owned returns the number of chunks this snapshot uploaded itself, as
// opposed to referencing its parent's.
func (m *Manifest) Owned() int {
	prefix := chunkPrefix(m.ID)
	n := 0
	for _, c := range m.Chunks {
		if strings.HasPrefix(c.Key, prefix) {
			n++
		}
	}
	return n
}

// validate checks that the chunks tile the file exactly.
func (m *Manifest) validate() error {
	if m == nil {
		return fmt.Errorf("%w: nil manifest", ErrIncompatible)
	}
	if m.Rows < 1 || m.Cols < 1 {
		return fmt.Errorf("%w: shape %dx%d", ErrIncompatible, m.Rows, m.Cols)
	}
	switch m.ElementWidth {
	case 1, 2, 4, 8:
	default:
		return fmt.Errorf("%w: element width %d", ErrIncompatible, m.ElementWidth)
	}
	if m.ChunkSize < 1 {
		return fmt.Errorf("%w: chunk size %d", ErrIncompatible, m.ChunkSize)
	}

	length := m.ByteLength()
	want := (length + m.ChunkSize - 1) / m.ChunkSize
	if int64(len(m.Chunks)) != want {
		return fmt.Errorf("%w: %d chunks for %d bytes at chunk size %d", ErrIncompatible, len(m.Chunks), length, m.ChunkSize)
	}
	for i, c := range m.Chunks {
		off := int64(i) * m.ChunkSize
		if int64(c.Index) != int64(i) {
			return fmt.Errorf("%w: chunk %d has index %d", ErrIncompatible, i, c.Index)
		}
		if c.RawSize != min(m.ChunkSize, length-off) {
			return fmt.Errorf("%w: chunk %d has %d bytes", ErrIncompatible, i, c.RawSize)
		}
		if c.Key == "" {
			return fmt.Errorf("%w: chunk %d has no key", ErrIncompatible, i)
		}
	}
	return nil
}

func manifestName(id string) string {
	return manifestDir + id + ".json"
}

func manifestID(name string) (string, bool) {
	base := path.Base(name)
	if !strings.HasPrefix(name, manifestDir) || !strings.HasSuffix(base, ".json") {
		return "", false
	}
	return strings.TrimSuffix(base, ".json"), true
}

func chunkPrefix(id string) string {
	return chunkDir + id + "/"
}

func chunkKey(id string, index uint32) string {
	return fmt.Sprintf("%s%08d", chunkPrefix(id), index)
}
