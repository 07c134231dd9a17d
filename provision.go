package binmatrix

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hupe1980/binmatrix/internal/fs"
)

// EnsureSized makes sure a file exists at path. A missing file is created
// and, when length > 0, extended to exactly length bytes by writing a single
// zero byte at offset length-1. An existing file is left untouched, even if
// its length is wrong; Open catches that with MatchesLength.
func EnsureSized(fsys fs.FileSystem, path string, length int64, perm os.FileMode) error {
	exists, err := fs.Exists(fsys, path)
	if err != nil {
		return fmt.Errorf("binmatrix: provision %s: %w", path, err)
	}
	if exists {
		return nil
	}

	f, err := fsys.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, perm)
	if errors.Is(err, os.ErrExist) {
		// Another creator won the race.
		return nil
	}
	if err != nil {
		return fmt.Errorf("binmatrix: provision %s: %w", path, err)
	}

	if length > 0 {
		if _, err := f.WriteAt([]byte{0}, length-1); err != nil {
			_ = f.Close()
			return fmt.Errorf("binmatrix: provision %s: %w", path, err)
		}
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("binmatrix: provision %s: %w", path, err)
	}
	return nil
}

// MatchesLength reports whether the physical length of f equals expected.
// It seeks to the end to measure and back to the start afterwards.
func MatchesLength(f fs.File, expected int64) (bool, error) {
	size, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return false, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return false, err
	}
	return size == expected, nil
}
