package driven

import (
	"context"

	"github.com/custodia-labs/corpus-cli/internal/core/domain"
)

// DocumentLoader extracts text content from a file on disk.
// Each loader handles a set of file extensions; the ingestion service
// routes files to the first loader that claims the extension.
//
// Loaders return one Document per logical unit of the file, e.g. one
// per PDF page, so downstream chunks keep their source location.
type DocumentLoader interface {
	// Extensions returns the lowercase file extensions this loader
	// handles, including the leading dot (".pdf", ".txt").
	Extensions() []string

	// Load extracts the documents contained in the file at path.
	Load(ctx context.Context, path string) ([]domain.Document, error)
}
