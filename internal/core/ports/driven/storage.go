package driven

import (
	"context"

	"github.com/custodia-labs/corpus-cli/internal/core/domain"
)

// CatalogStore persists document-level catalog entries and serves
// vector similarity search over their summary embeddings.
//
// Each entry carries the content hash of its source file, which is how
// incremental ingestion decides whether a file has already been seen.
type CatalogStore interface {
	// Seeded reports whether the catalog contains any entries.
	// A missing or empty catalog means every file is new.
	Seeded(ctx context.Context) (bool, error)

	// HasHash reports whether an entry with the given content hash exists.
	HasHash(ctx context.Context, hash string) (bool, error)

	// Rebuild replaces all catalog entries with the given batch.
	// Existing rows and their vectors are removed first.
	Rebuild(ctx context.Context, entries []domain.CatalogEntry) error

	// Append adds catalog entries without touching existing rows.
	Append(ctx context.Context, entries []domain.CatalogEntry) error

	// Search returns the entries closest to the query vector, best first.
	Search(ctx context.Context, query []float32, limit int) ([]domain.SearchHit, error)
}

// ChunkStore persists content chunks and serves vector similarity
// search over their embeddings.
type ChunkStore interface {
	// Rebuild replaces all chunks with the given batch.
	// Existing rows and their vectors are removed first.
	Rebuild(ctx context.Context, chunks []domain.Chunk) error

	// Append adds chunks without touching existing rows.
	Append(ctx context.Context, chunks []domain.Chunk) error

	// Search returns the chunks closest to the query vector, best first.
	// When source is non-empty, results are restricted to that source path.
	Search(ctx context.Context, query []float32, source string, limit int) ([]domain.SearchHit, error)
}
