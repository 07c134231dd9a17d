package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArchive_SnapshotListRestore(t *testing.T) {
	_, path := sampleMatrix(t)
	cfg := writeConfig(t, "archive:\n  backend: local\n  path: "+filepath.Join(t.TempDir(), "archive")+"\n  compression: lz4\n")

	out := run(t, "archive", "snapshot", path, "--config", cfg)
	assert.Contains(t, out, "shape:    2x3 (4-byte elements)")
	assert.Contains(t, out, "chunks:   1 (1 uploaded)")
	first := strings.TrimPrefix(strings.SplitN(out, "\n", 2)[0], "snapshot ")

	run(t, "set", path, "1", "1", "77")
	out = run(t, "archive", "snapshot", path, "--config", cfg, "--format", "json")
	var snap struct {
		Data Snapshot `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	second := snap.Data.ID
	assert.Equal(t, first, snap.Data.Parent)

	out, err := execute(t, "archive", "list", "--config", cfg)
	require.NoError(t, err)
	assert.Equal(t, "  "+first+"\n* "+second+"\n", out)

	// Latest by default.
	latest := filepath.Join(t.TempDir(), "latest.bin")
	_, err = execute(t, "archive", "restore", latest, "--config", cfg)
	require.NoError(t, err)
	assert.Equal(t, "77\n", run(t, "get", latest, "1", "1"))

	// An older snapshot by ID.
	older := filepath.Join(t.TempDir(), "older.bin")
	_, err = execute(t, "archive", "restore", older, "--config", cfg, "--id", first)
	require.NoError(t, err)
	assert.Equal(t, "11\n", run(t, "get", older, "1", "1"))

	// Never overwrites.
	_, err = execute(t, "archive", "restore", older, "--config", cfg)
	require.ErrorIs(t, err, os.ErrExist)
}

func TestArchive_RestoreEmpty(t *testing.T) {
	cfg := writeConfig(t, "archive:\n  backend: local\n  path: "+filepath.Join(t.TempDir(), "archive")+"\n")

	out, err := execute(t, "archive", "list", "--config", cfg)
	require.NoError(t, err)
	assert.Empty(t, out)

	_, err = execute(t, "archive", "restore", filepath.Join(t.TempDir(), "x.bin"), "--config", cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no snapshot")
}

func TestArchive_BadConfig(t *testing.T) {
	cfg := writeConfig(t, "archive:\n  backend: ftp\n")
	_, err := execute(t, "archive", "list", "--config", cfg)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
