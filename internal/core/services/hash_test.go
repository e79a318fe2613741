package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestHashFile tests content hashing of files
func TestHashFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o644))

	hash, err := HashFile(path)
	require.NoError(t, err)

	// SHA-256 of "hello world"
	assert.Equal(t, "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9", hash)
}

// TestHashFile_SameContentDifferentName tests that identical content
// hashes identically regardless of file name
func TestHashFile_SameContentDifferentName(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.pdf")
	b := filepath.Join(dir, "copy-of-a.pdf")
	require.NoError(t, os.WriteFile(a, []byte("same bytes"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("same bytes"), 0o644))

	hashA, err := HashFile(a)
	require.NoError(t, err)
	hashB, err := HashFile(b)
	require.NoError(t, err)

	assert.Equal(t, hashA, hashB)
}

// TestHashFile_DifferentContent tests that different content produces
// different hashes
func TestHashFile_DifferentContent(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(a, []byte("first"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("second"), 0o644))

	hashA, err := HashFile(a)
	require.NoError(t, err)
	hashB, err := HashFile(b)
	require.NoError(t, err)

	assert.NotEqual(t, hashA, hashB)
}

// TestHashFile_Missing tests error on missing file
func TestHashFile_Missing(t *testing.T) {
	_, err := HashFile(filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}

// TestHashFile_Empty tests hashing an empty file
func TestHashFile_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	hash, err := HashFile(path)
	require.NoError(t, err)

	// SHA-256 of the empty string
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", hash)
}
