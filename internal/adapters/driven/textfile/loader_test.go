package textfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtensions(t *testing.T) {
	exts := New().Extensions()
	assert.Contains(t, exts, ".txt")
	assert.Contains(t, exts, ".md")
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello notes"), 0o644))

	docs, err := New().Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	assert.Equal(t, path, docs[0].Source)
	assert.Equal(t, "hello notes", docs[0].Content)
	assert.True(t, docs[0].Location.IsZero())
}

func TestLoad_Missing(t *testing.T) {
	_, err := New().Load(context.Background(), filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}

func TestLoad_InvalidUTF8(t *testing.T) {
	path := filepath.Join(t.TempDir(), "binary.txt")
	require.NoError(t, os.WriteFile(path, []byte{0xff, 0xfe, 0xfd}, 0o644))

	_, err := New().Load(context.Background(), path)
	assert.Error(t, err)
}
