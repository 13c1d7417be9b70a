package io

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadFileCaches(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "4859.png.json")
	require.NoError(t, os.WriteFile(p, []byte(`{"text":{}}`), 0o600))

	l := NewIOFileLoader()
	got, err := l.ReadFile(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, `{"text":{}}`, string(got))

	require.NoError(t, os.Remove(p))
	got, err = l.ReadFile(context.Background(), p)
	require.NoError(t, err, "second read is served from cache")
	assert.Equal(t, `{"text":{}}`, string(got))
}

func TestReadFileMissing(t *testing.T) {
	l := NewIOFileLoader()
	_, err := l.ReadFile(context.Background(), filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestListFilesSkipsDirectories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.json"), []byte("{}"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.json"), []byte("{}"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o700))

	l := NewIOFileLoader()
	files, err := l.ListFiles(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.json"), filepath.Join(dir, "b.json")}, files)
	assert.Equal(t, filepath.Join(dir, "x"), l.Join(dir, "x"))
}
