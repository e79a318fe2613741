package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/corpus-cli/internal/core/domain"
	"github.com/custodia-labs/corpus-cli/internal/core/ports/driven"
)

// --- Mock implementations for ingest testing ---

// ingestMockWalker implements driven.FileWalker.
type ingestMockWalker struct {
	paths []string
	err   error
}

func (m *ingestMockWalker) Walk(_ context.Context, _ string) ([]string, error) {
	return m.paths, m.err
}

// ingestMockLoader implements driven.DocumentLoader.
type ingestMockLoader struct {
	extensions []string
	docs       map[string][]domain.Document
	err        error
}

func (m *ingestMockLoader) Extensions() []string { return m.extensions }

func (m *ingestMockLoader) Load(_ context.Context, path string) ([]domain.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.docs[path], nil
}

// ingestMockImages implements driven.ImagePipeline.
type ingestMockImages struct {
	pdfDescs  map[string][]domain.ImageDescriptor
	imageDesc map[string]domain.ImageDescriptor
	pdfErr    error
	imageErr  error
	closed    bool
}

func (m *ingestMockImages) ProcessPDF(_ context.Context, path string) ([]domain.ImageDescriptor, error) {
	if m.pdfErr != nil {
		return nil, m.pdfErr
	}
	return m.pdfDescs[path], nil
}

func (m *ingestMockImages) ProcessImage(_ context.Context, path string) (domain.ImageDescriptor, error) {
	if m.imageErr != nil {
		return domain.ImageDescriptor{}, m.imageErr
	}
	return m.imageDesc[path], nil
}

func (m *ingestMockImages) Close() error {
	m.closed = true
	return nil
}

// ingestMockCatalog implements driven.CatalogStore.
type ingestMockCatalog struct {
	seeded    bool
	hashes    map[string]bool
	rebuilt   [][]domain.CatalogEntry
	appended  [][]domain.CatalogEntry
	seededErr error
}

func (m *ingestMockCatalog) Seeded(_ context.Context) (bool, error) {
	return m.seeded, m.seededErr
}

func (m *ingestMockCatalog) HasHash(_ context.Context, hash string) (bool, error) {
	return m.hashes[hash], nil
}

func (m *ingestMockCatalog) Rebuild(_ context.Context, entries []domain.CatalogEntry) error {
	m.rebuilt = append(m.rebuilt, entries)
	return nil
}

func (m *ingestMockCatalog) Append(_ context.Context, entries []domain.CatalogEntry) error {
	m.appended = append(m.appended, entries)
	return nil
}

func (m *ingestMockCatalog) Search(_ context.Context, _ []float32, _ int) ([]domain.SearchHit, error) {
	return nil, nil
}

// ingestMockChunks implements driven.ChunkStore.
type ingestMockChunks struct {
	rebuilt  [][]domain.Chunk
	appended [][]domain.Chunk
}

func (m *ingestMockChunks) Rebuild(_ context.Context, chunks []domain.Chunk) error {
	m.rebuilt = append(m.rebuilt, chunks)
	return nil
}

func (m *ingestMockChunks) Append(_ context.Context, chunks []domain.Chunk) error {
	m.appended = append(m.appended, chunks)
	return nil
}

func (m *ingestMockChunks) Search(_ context.Context, _ []float32, _ string, _ int) ([]domain.SearchHit, error) {
	return nil, nil
}

// ingestMockEmbedder implements driven.EmbeddingService.
type ingestMockEmbedder struct {
	err   error
	calls int
}

func (m *ingestMockEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	return []float32{0.1, 0.2}, m.err
}

func (m *ingestMockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.calls++
	vectors := make([][]float32, len(texts))
	for i := range vectors {
		vectors[i] = []float32{float32(i), 0.5}
	}
	return vectors, nil
}

func (m *ingestMockEmbedder) Dimensions() int              { return 2 }
func (m *ingestMockEmbedder) ModelName() string            { return "mock-embed" }
func (m *ingestMockEmbedder) Ping(_ context.Context) error { return nil }
func (m *ingestMockEmbedder) Close() error                 { return nil }

// ingestMockLLM implements driven.LLMService.
type ingestMockLLM struct {
	err error
}

func (m *ingestMockLLM) Generate(_ context.Context, _ string, _ driven.GenerateOptions) (string, error) {
	return "", nil
}

func (m *ingestMockLLM) Summarise(_ context.Context, content string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return fmt.Sprintf("summary of %d bytes", len(content)), nil
}

func (m *ingestMockLLM) ModelName() string            { return "mock-llm" }
func (m *ingestMockLLM) Ping(_ context.Context) error { return nil }
func (m *ingestMockLLM) Close() error                 { return nil }

// writeTestFile creates a file with the given content and returns its path.
func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestIngestor(
	filesDir string,
	walker *ingestMockWalker,
	loader *ingestMockLoader,
	images *ingestMockImages,
	catalog *ingestMockCatalog,
	chunks *ingestMockChunks,
	opts ...IngestorOption,
) *Ingestor {
	return NewIngestor(
		filesDir,
		walker,
		[]driven.DocumentLoader{loader},
		images,
		catalog,
		chunks,
		&ingestMockEmbedder{},
		&ingestMockLLM{},
		NewSplitter(),
		opts...,
	)
}

// TestIngestor_FreshRun tests ingesting new files into an empty catalog
func TestIngestor_FreshRun(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFile(t, dir, "doc.txt", "some document text")

	walker := &ingestMockWalker{paths: []string{path}}
	loader := &ingestMockLoader{
		extensions: []string{".txt"},
		docs:       map[string][]domain.Document{path: {{Source: path, Content: "some document text"}}},
	}
	catalog := &ingestMockCatalog{hashes: map[string]bool{}}
	chunks := &ingestMockChunks{}

	ing := newTestIngestor(dir, walker, loader, &ingestMockImages{}, catalog, chunks)

	stats, err := ing.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.FilesSeen)
	assert.Equal(t, 1, stats.FilesIngested)
	assert.Equal(t, 0, stats.FilesSkipped)
	assert.Empty(t, stats.Failures)
	assert.Equal(t, 1, stats.CatalogEntries)
	assert.Equal(t, 1, stats.Chunks)

	// Append mode by default
	require.Len(t, catalog.appended, 1)
	require.Len(t, catalog.rebuilt, 0)
	entry := catalog.appended[0][0]
	assert.Equal(t, path, entry.Source)
	assert.NotEmpty(t, entry.Hash)
	assert.NotEmpty(t, entry.Summary)
	assert.NotEmpty(t, entry.Embedding)
}

// TestIngestor_Overwrite tests that overwrite mode rebuilds both tables
func TestIngestor_Overwrite(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFile(t, dir, "doc.txt", "content")

	walker := &ingestMockWalker{paths: []string{path}}
	loader := &ingestMockLoader{
		extensions: []string{".txt"},
		docs:       map[string][]domain.Document{path: {{Source: path, Content: "content"}}},
	}
	catalog := &ingestMockCatalog{seeded: true, hashes: map[string]bool{}}
	chunks := &ingestMockChunks{}

	ing := newTestIngestor(dir, walker, loader, &ingestMockImages{}, catalog, chunks, WithOverwrite(true))

	stats, err := ing.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.FilesIngested)
	assert.Len(t, catalog.rebuilt, 1)
	assert.Len(t, chunks.rebuilt, 1)
	assert.Empty(t, catalog.appended)
	assert.Empty(t, chunks.appended)
}

// TestIngestor_SkipsKnownHash tests incremental dedup against the catalog
func TestIngestor_SkipsKnownHash(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFile(t, dir, "doc.txt", "already ingested content")

	hash, err := HashFile(path)
	require.NoError(t, err)

	walker := &ingestMockWalker{paths: []string{path}}
	loader := &ingestMockLoader{extensions: []string{".txt"}}
	catalog := &ingestMockCatalog{seeded: true, hashes: map[string]bool{hash: true}}
	chunks := &ingestMockChunks{}

	ing := newTestIngestor(dir, walker, loader, &ingestMockImages{}, catalog, chunks)

	stats, err := ing.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, stats.FilesIngested)
	assert.Equal(t, 1, stats.FilesSkipped)
	require.Len(t, catalog.appended, 1)
	assert.Empty(t, catalog.appended[0])
}

// TestIngestor_IntraRunDuplicate tests that two files with identical
// content produce a single catalog entry
func TestIngestor_IntraRunDuplicate(t *testing.T) {
	dir := t.TempDir()
	a := writeTestFile(t, dir, "a.txt", "identical content")
	b := writeTestFile(t, dir, "b.txt", "identical content")

	walker := &ingestMockWalker{paths: []string{a, b}}
	loader := &ingestMockLoader{
		extensions: []string{".txt"},
		docs: map[string][]domain.Document{
			a: {{Source: a, Content: "identical content"}},
			b: {{Source: b, Content: "identical content"}},
		},
	}
	catalog := &ingestMockCatalog{hashes: map[string]bool{}}
	chunks := &ingestMockChunks{}

	ing := newTestIngestor(dir, walker, loader, &ingestMockImages{}, catalog, chunks)

	stats, err := ing.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.FilesIngested)
	assert.Equal(t, 1, stats.FilesSkipped)
	assert.Equal(t, 1, stats.CatalogEntries)
	require.Len(t, catalog.appended, 1)
	assert.Len(t, catalog.appended[0], 1)
}

// TestIngestor_UnsupportedTypeSkipped tests files with no loader are skipped
func TestIngestor_UnsupportedTypeSkipped(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFile(t, dir, "archive.zip", "binary stuff")

	walker := &ingestMockWalker{paths: []string{path}}
	loader := &ingestMockLoader{extensions: []string{".txt"}}
	catalog := &ingestMockCatalog{hashes: map[string]bool{}}

	ing := newTestIngestor(dir, walker, loader, &ingestMockImages{}, catalog, &ingestMockChunks{})

	stats, err := ing.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, stats.FilesIngested)
	assert.Equal(t, 1, stats.FilesSkipped)
	assert.Empty(t, stats.Failures)
}

// TestIngestor_FailureBoundary tests that one failing file does not
// stop the run
func TestIngestor_FailureBoundary(t *testing.T) {
	dir := t.TempDir()
	bad := writeTestFile(t, dir, "bad.txt", "unreadable")
	good := writeTestFile(t, dir, "good.txt", "fine content")

	loadErr := errors.New("parse failed")
	walker := &ingestMockWalker{paths: []string{bad, good}}
	loader := &ingestMockLoader{
		extensions: []string{".txt"},
		docs:       map[string][]domain.Document{good: {{Source: good, Content: "fine content"}}},
	}
	catalog := &ingestMockCatalog{hashes: map[string]bool{}}
	chunks := &ingestMockChunks{}

	ing := NewIngestor(
		dir,
		walker,
		[]driven.DocumentLoader{&pathAwareLoader{good: good, docs: loader.docs, err: loadErr}},
		&ingestMockImages{},
		catalog,
		chunks,
		&ingestMockEmbedder{},
		&ingestMockLLM{},
		NewSplitter(),
	)

	stats, err := ing.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.FilesIngested)
	require.Len(t, stats.Failures, 1)
	assert.ErrorIs(t, stats.Failures[bad], loadErr)
}

// pathAwareLoader fails every path except the one named good.
type pathAwareLoader struct {
	good string
	docs map[string][]domain.Document
	err  error
}

func (l *pathAwareLoader) Extensions() []string { return []string{".txt"} }

func (l *pathAwareLoader) Load(_ context.Context, path string) ([]domain.Document, error) {
	if path != l.good {
		return nil, l.err
	}
	return l.docs[path], nil
}

// TestIngestor_ImageFile tests standalone images flow through the image pipeline
func TestIngestor_ImageFile(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFile(t, dir, "diagram.png", "fake png bytes")

	walker := &ingestMockWalker{paths: []string{path}}
	loader := &ingestMockLoader{extensions: []string{".txt"}}
	images := &ingestMockImages{
		imageDesc: map[string]domain.ImageDescriptor{
			path: {Source: path, ImagePath: path, Description: "Standalone image file diagram.png."},
		},
	}
	catalog := &ingestMockCatalog{hashes: map[string]bool{}}
	chunks := &ingestMockChunks{}

	ing := newTestIngestor(dir, walker, loader, images, catalog, chunks)

	stats, err := ing.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.FilesIngested)
	require.Len(t, chunks.appended, 1)
	require.Len(t, chunks.appended[0], 1)
	assert.Contains(t, chunks.appended[0][0].Content, "diagram.png")
	assert.NotEmpty(t, chunks.appended[0][0].ID)
}

// TestIngestor_PDFPages tests that PDF page images become extra chunks
func TestIngestor_PDFPages(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFile(t, dir, "report.pdf", "%PDF-1.4 fake")

	pageOne := 1
	walker := &ingestMockWalker{paths: []string{path}}
	loader := &ingestMockLoader{
		extensions: []string{".pdf"},
		docs:       map[string][]domain.Document{path: {{Source: path, Content: "page text"}}},
	}
	images := &ingestMockImages{
		pdfDescs: map[string][]domain.ImageDescriptor{
			path: {{Source: path, Description: "Image from page 1 of report.pdf.", PageNumber: &pageOne}},
		},
	}
	catalog := &ingestMockCatalog{hashes: map[string]bool{}}
	chunks := &ingestMockChunks{}

	ing := newTestIngestor(dir, walker, loader, images, catalog, chunks)

	stats, err := ing.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.FilesIngested)
	require.Len(t, chunks.appended, 1)
	// one text chunk plus one page image chunk
	require.Len(t, chunks.appended[0], 2)
	assert.NotEmpty(t, chunks.appended[0][0].ID)
	assert.NotEmpty(t, chunks.appended[0][1].ID)
	assert.NotEqual(t, chunks.appended[0][0].ID, chunks.appended[0][1].ID)
}

// TestIngestor_PageRenderFailureIsRecoverable tests that a rasteriser
// failure keeps the text content
func TestIngestor_PageRenderFailureIsRecoverable(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFile(t, dir, "report.pdf", "%PDF-1.4 fake")

	walker := &ingestMockWalker{paths: []string{path}}
	loader := &ingestMockLoader{
		extensions: []string{".pdf"},
		docs:       map[string][]domain.Document{path: {{Source: path, Content: "page text"}}},
	}
	images := &ingestMockImages{pdfErr: errors.New("pdftoppm not found")}
	catalog := &ingestMockCatalog{hashes: map[string]bool{}}
	chunks := &ingestMockChunks{}

	ing := newTestIngestor(dir, walker, loader, images, catalog, chunks)

	stats, err := ing.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.FilesIngested)
	assert.Empty(t, stats.Failures)
	require.Len(t, chunks.appended, 1)
	assert.Len(t, chunks.appended[0], 1)
}

// TestIngestor_EmptyContentSummary tests the filename fallback summary
func TestIngestor_EmptyContentSummary(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFile(t, dir, "blank.txt", "x")

	walker := &ingestMockWalker{paths: []string{path}}
	loader := &ingestMockLoader{
		extensions: []string{".txt"},
		docs:       map[string][]domain.Document{path: {{Source: path, Content: "   "}}},
	}
	catalog := &ingestMockCatalog{hashes: map[string]bool{}}

	ing := newTestIngestor(dir, walker, loader, &ingestMockImages{}, catalog, &ingestMockChunks{})

	_, err := ing.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, catalog.appended, 1)
	require.Len(t, catalog.appended[0], 1)
	assert.Contains(t, catalog.appended[0][0].Summary, "blank.txt")
}

// TestIngestor_WalkError tests that an unreadable directory aborts the run
func TestIngestor_WalkError(t *testing.T) {
	walker := &ingestMockWalker{err: errors.New("permission denied")}
	loader := &ingestMockLoader{extensions: []string{".txt"}}

	ing := newTestIngestor(t.TempDir(), walker, loader, &ingestMockImages{},
		&ingestMockCatalog{}, &ingestMockChunks{})

	_, err := ing.Run(context.Background())
	assert.Error(t, err)
}

// TestIngestor_Progress tests the progress callback fires per file
func TestIngestor_Progress(t *testing.T) {
	dir := t.TempDir()
	a := writeTestFile(t, dir, "a.txt", "aaa")
	b := writeTestFile(t, dir, "b.txt", "bbb")

	walker := &ingestMockWalker{paths: []string{a, b}}
	loader := &ingestMockLoader{
		extensions: []string{".txt"},
		docs: map[string][]domain.Document{
			a: {{Source: a, Content: "aaa"}},
			b: {{Source: b, Content: "bbb"}},
		},
	}

	var calls []int
	ing := newTestIngestor(dir, walker, loader, &ingestMockImages{},
		&ingestMockCatalog{hashes: map[string]bool{}}, &ingestMockChunks{},
		WithProgress(func(done, total int, _ string) {
			calls = append(calls, done)
			assert.Equal(t, 2, total)
		}))

	_, err := ing.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2}, calls)
}
