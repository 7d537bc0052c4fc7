package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalSourceOpensAbsolutePath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jarvis4everyone.zip")
	require.NoError(t, os.WriteFile(path, []byte("PK-zip"), 0o600))

	src := NewLocalSource(path)
	obj, err := src.Open(context.Background())
	require.NoError(t, err)
	defer obj.Body.Close()

	body, err := io.ReadAll(obj.Body)
	require.NoError(t, err)
	require.Equal(t, "PK-zip", string(body))
	require.Equal(t, int64(6), obj.Size)
}

func TestLocalSourceFallsBackToHiddenDownloads(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".downloads"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".downloads", "app.zip"), []byte("x"), 0o600))

	src := &LocalSource{path: "./downloads/app.zip", cwd: func() (string, error) { return dir, nil }}
	path, err := src.Resolve()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, ".downloads", "app.zip"), path)
}

func TestLocalSourceMissingFile(t *testing.T) {
	dir := t.TempDir()
	src := &LocalSource{path: "./.downloads/missing.zip", cwd: func() (string, error) { return dir, nil }}

	_, err := src.Open(context.Background())
	require.True(t, errors.Is(err, ErrNotFound))
	require.Error(t, src.Ping(context.Background()))
}
