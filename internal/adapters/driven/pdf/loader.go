package pdf

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/custodia-labs/corpus-cli/internal/core/domain"
	"github.com/custodia-labs/corpus-cli/internal/core/ports/driven"
)

// Ensure Loader implements the interface.
var _ driven.DocumentLoader = (*Loader)(nil)

// Loader extracts PDF text content one page at a time, so every chunk
// downstream can cite its page number.
type Loader struct {
	runner CommandRunner
}

// New creates a PDF loader using the system poppler tools.
func New() *Loader {
	return &Loader{runner: execRunner{}}
}

// NewWithRunner creates a PDF loader with a custom command runner.
func NewWithRunner(runner CommandRunner) *Loader {
	return &Loader{runner: runner}
}

// Extensions returns the file extensions this loader handles.
func (l *Loader) Extensions() []string {
	return []string{".pdf"}
}

// Load extracts one document per page of the PDF at path.
func (l *Loader) Load(ctx context.Context, path string) ([]domain.Document, error) {
	pages, err := l.pageCount(ctx, path)
	if err != nil {
		return nil, err
	}

	docs := make([]domain.Document, 0, pages)
	for page := 1; page <= pages; page++ {
		out, err := l.runner.Run(ctx, "pdftotext",
			"-f", strconv.Itoa(page),
			"-l", strconv.Itoa(page),
			path, "-")
		if err != nil {
			return nil, fmt.Errorf("pdftotext failed on page %d: %w", page, err)
		}

		pageNumber := page
		docs = append(docs, domain.Document{
			Source:   path,
			Content:  strings.TrimSpace(string(out)),
			Location: domain.Location{PageNumber: &pageNumber},
		})
	}
	return docs, nil
}

// pageCount parses the "Pages:" line of pdfinfo output.
func (l *Loader) pageCount(ctx context.Context, path string) (int, error) {
	out, err := l.runner.Run(ctx, "pdfinfo", path)
	if err != nil {
		return 0, fmt.Errorf("pdfinfo failed: %w", err)
	}

	for _, line := range strings.Split(string(out), "\n") {
		if !strings.HasPrefix(line, "Pages:") {
			continue
		}
		count, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "Pages:")))
		if err != nil {
			return 0, fmt.Errorf("parsing page count %q: %w", line, err)
		}
		return count, nil
	}
	return 0, fmt.Errorf("pdfinfo output missing page count")
}
