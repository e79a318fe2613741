// Package textfile loads plain text documents.
package textfile

import (
	"context"
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/custodia-labs/corpus-cli/internal/core/domain"
	"github.com/custodia-labs/corpus-cli/internal/core/ports/driven"
)

// Ensure Loader implements the interface.
var _ driven.DocumentLoader = (*Loader)(nil)

// Loader reads UTF-8 text files as single documents.
type Loader struct{}

// New creates a plain text loader.
func New() *Loader {
	return &Loader{}
}

// Extensions returns the file extensions this loader handles.
func (l *Loader) Extensions() []string {
	return []string{".txt", ".md", ".markdown", ".rst", ".log"}
}

// Load reads the whole file as one document.
func (l *Loader) Load(_ context.Context, path string) ([]domain.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: file is not valid UTF-8", domain.ErrInvalidInput)
	}

	return []domain.Document{{
		Source:  path,
		Content: string(data),
	}}, nil
}
