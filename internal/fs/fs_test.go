package fs

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFS(t *testing.T) {
	tmp := t.TempDir()
	lfs := LocalFS{}

	dir := filepath.Join(tmp, "subdir")
	assert.NoError(t, lfs.MkdirAll(dir, 0o755))

	fpath := filepath.Join(dir, "test.bin")
	f, err := lfs.OpenFile(fpath, os.O_CREATE|os.O_RDWR, 0o644)
	require.NoError(t, err)

	// Positioned writes leave a hole that reads back as zero.
	_, err = f.WriteAt([]byte("hello"), 3)
	require.NoError(t, err)
	assert.NoError(t, f.Sync())

	info, err := f.Stat()
	require.NoError(t, err)
	assert.Equal(t, int64(8), info.Size())

	buf := make([]byte, 8)
	n, err := f.ReadAt(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, 8, n)
	assert.Equal(t, []byte{0, 0, 0, 'h', 'e', 'l', 'l', 'o'}, buf)

	end, err := f.Seek(0, io.SeekEnd)
	require.NoError(t, err)
	assert.Equal(t, int64(8), end)
	assert.Equal(t, fpath, f.Name())

	assert.NoError(t, f.Close())

	ok, err := Exists(lfs, fpath)
	require.NoError(t, err)
	assert.True(t, ok)

	entries, err := lfs.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	newPath := filepath.Join(dir, "renamed.bin")
	require.NoError(t, lfs.Rename(fpath, newPath))

	require.NoError(t, lfs.Remove(newPath))
	ok, err = Exists(lfs, newPath)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFaultyFS_GlobalLimit(t *testing.T) {
	tmp := t.TempDir()
	ffs := NewFaultyFS(LocalFS{})
	ffs.SetLimit(5)

	f, err := ffs.OpenFile(filepath.Join(tmp, "faulty.bin"), os.O_CREATE|os.O_RDWR, 0o644)
	require.NoError(t, err)
	defer f.Close()

	n, err := f.WriteAt([]byte("hello"), 0)
	assert.NoError(t, err)
	assert.Equal(t, 5, n)

	n, err = f.WriteAt([]byte("!"), 5)
	assert.Error(t, err)
	assert.Equal(t, 0, n)

	assert.Equal(t, int64(5), ffs.GetWritten())
}

func TestFaultyFS_Rules(t *testing.T) {
	tmp := t.TempDir()
	boom := errors.New("boom")
	ffs := NewFaultyFS(nil)
	ffs.AddRule("broken", Fault{FailAfterBytes: 2, FailOnRead: true, FailOnSync: true, FailOnClose: true, Err: boom})
	ffs.AddRule("locked", Fault{FailAfterBytes: -1, FailOnOpen: true, Err: boom})

	_, err := ffs.OpenFile(filepath.Join(tmp, "locked.bin"), os.O_CREATE|os.O_RDWR, 0o644)
	assert.ErrorIs(t, err, boom)

	f, err := ffs.OpenFile(filepath.Join(tmp, "broken.bin"), os.O_CREATE|os.O_RDWR, 0o644)
	require.NoError(t, err)

	_, err = f.WriteAt([]byte("ab"), 0)
	assert.NoError(t, err)
	_, err = f.WriteAt([]byte("c"), 2)
	assert.ErrorIs(t, err, boom)

	_, err = f.ReadAt(make([]byte, 1), 0)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, f.Sync(), boom)
	assert.ErrorIs(t, f.Close(), boom)

	// Unmatched files fall back to the default (no faults).
	g, err := ffs.OpenFile(filepath.Join(tmp, "healthy.bin"), os.O_CREATE|os.O_RDWR, 0o644)
	require.NoError(t, err)
	_, err = g.WriteAt([]byte("abc"), 0)
	assert.NoError(t, err)
	assert.NoError(t, g.Close())
}

func TestFaultyFS_Delegation(t *testing.T) {
	tmp := t.TempDir()
	ffs := NewFaultyFS(LocalFS{})

	dir := filepath.Join(tmp, "subdir")
	assert.NoError(t, ffs.MkdirAll(dir, 0o755))

	fpath := filepath.Join(dir, "test.bin")
	f, err := ffs.OpenFile(fpath, os.O_CREATE|os.O_RDWR, 0o644)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	assert.NoError(t, ffs.Rename(fpath, fpath+".renamed"))
	_, err = ffs.Stat(fpath + ".renamed")
	assert.NoError(t, err)

	entries, err := ffs.ReadDir(dir)
	assert.NoError(t, err)
	assert.Len(t, entries, 1)

	assert.NoError(t, ffs.Remove(fpath+".renamed"))
}

func TestFaultyFS_LastRuleWins(t *testing.T) {
	tmp := t.TempDir()
	ffs := NewFaultyFS(nil)
	ffs.AddRule(".bin", Fault{FailAfterBytes: -1, FailOnRead: true})
	ffs.AddRule("matrix", Fault{FailAfterBytes: -1})

	f, err := ffs.OpenFile(filepath.Join(tmp, "matrix.bin"), os.O_CREATE|os.O_RDWR, 0o644)
	require.NoError(t, err)
	defer f.Close()
	_, err = f.WriteAt([]byte("x"), 0)
	require.NoError(t, err)
	_, err = f.ReadAt(make([]byte, 1), 0)
	assert.NoError(t, err)

	g, err := ffs.OpenFile(filepath.Join(tmp, "other.bin"), os.O_CREATE|os.O_RDWR, 0o644)
	require.NoError(t, err)
	defer g.Close()
	_, err = g.ReadAt(make([]byte, 1), 0)
	assert.ErrorIs(t, err, ErrInjected)
}
