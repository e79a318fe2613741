package pdf

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/corpus-cli/internal/core/ports/driven"
)

// mockRunner is a test double for CommandRunner.
type mockRunner struct {
	output []byte
	err    error
}

func (m *mockRunner) Run(_ context.Context, _ string, _ ...string) ([]byte, error) {
	return m.output, m.err
}

// scriptedRunner returns canned output per command name.
type scriptedRunner struct {
	outputs map[string][]byte
	errs    map[string]error
	calls   []string
}

func (s *scriptedRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	s.calls = append(s.calls, name+" "+strings.Join(args, " "))
	if err := s.errs[name]; err != nil {
		return nil, err
	}
	return s.outputs[name], nil
}

func TestNew(t *testing.T) {
	loader := New()
	require.NotNil(t, loader)
	assert.IsType(t, &Loader{}, loader)
}

func TestExtensions(t *testing.T) {
	assert.Equal(t, []string{".pdf"}, New().Extensions())
}

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.DocumentLoader = (*Loader)(nil)
	var _ driven.Rasterizer = (*Rasterizer)(nil)
}

// TestLoad_PerPage tests that each PDF page becomes one document with
// its page number.
func TestLoad_PerPage(t *testing.T) {
	runner := &scriptedRunner{
		outputs: map[string][]byte{
			"pdfinfo":   []byte("Title: Report\nPages: 3\nEncrypted: no\n"),
			"pdftotext": []byte("page text\n"),
		},
	}
	loader := NewWithRunner(runner)

	docs, err := loader.Load(context.Background(), "/docs/report.pdf")
	require.NoError(t, err)
	require.Len(t, docs, 3)

	for i, doc := range docs {
		assert.Equal(t, "/docs/report.pdf", doc.Source)
		assert.Equal(t, "page text", doc.Content)
		require.NotNil(t, doc.Location.PageNumber)
		assert.Equal(t, i+1, *doc.Location.PageNumber)
	}

	// pdfinfo once plus pdftotext per page
	assert.Len(t, runner.calls, 4)
	assert.Contains(t, runner.calls[1], "-f 1 -l 1")
	assert.Contains(t, runner.calls[3], "-f 3 -l 3")
}

// TestLoad_PdfinfoError tests failure when page count cannot be read
func TestLoad_PdfinfoError(t *testing.T) {
	runner := &mockRunner{err: errors.New("not a PDF")}
	loader := NewWithRunner(runner)

	_, err := loader.Load(context.Background(), "/docs/broken.pdf")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "pdfinfo failed")
}

// TestLoad_MissingPageCount tests pdfinfo output without a Pages line
func TestLoad_MissingPageCount(t *testing.T) {
	runner := &mockRunner{output: []byte("Title: whatever\n")}
	loader := NewWithRunner(runner)

	_, err := loader.Load(context.Background(), "/docs/odd.pdf")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "page count")
}

// TestLoad_PdftotextError tests a page extraction failure
func TestLoad_PdftotextError(t *testing.T) {
	runner := &scriptedRunner{
		outputs: map[string][]byte{
			"pdfinfo": []byte("Pages: 2\n"),
		},
		errs: map[string]error{
			"pdftotext": errors.New("pdftotext crashed"),
		},
	}
	loader := NewWithRunner(runner)

	_, err := loader.Load(context.Background(), "/docs/report.pdf")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "pdftotext failed")
}

// TestRasterize_Args tests the pdftoppm invocation
func TestRasterize_Args(t *testing.T) {
	runner := &scriptedRunner{outputs: map[string][]byte{}}
	r := NewRasterizerWithRunner(runner)

	// no PNGs exist in the scratch dir, so the result is empty
	pages, err := r.Rasterize(context.Background(), "/docs/report.pdf", t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, pages)

	require.Len(t, runner.calls, 1)
	assert.Contains(t, runner.calls[0], "pdftoppm")
	assert.Contains(t, runner.calls[0], "-png")
	assert.Contains(t, runner.calls[0], fmt.Sprintf("-scale-to %d", DefaultScaleTo))
}

// TestRasterize_Error tests pdftoppm failure
func TestRasterize_Error(t *testing.T) {
	runner := &mockRunner{err: errors.New("out of memory")}
	r := NewRasterizerWithRunner(runner)

	_, err := r.Rasterize(context.Background(), "/docs/report.pdf", t.TempDir())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "pdftoppm failed")
}

func TestInstallInstructions(t *testing.T) {
	instructions := InstallInstructions()
	assert.Contains(t, instructions, "pdftotext")
	assert.Contains(t, instructions, "brew install poppler")
	assert.Contains(t, instructions, "apt install poppler-utils")
}

func TestErrPDFToolNotFound(t *testing.T) {
	assert.Error(t, ErrPDFToolNotFound)
	assert.Contains(t, ErrPDFToolNotFound.Error(), "pdftotext")
}
