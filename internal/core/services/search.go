package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/corpus-cli/internal/core/ports/driven"
	"github.com/custodia-labs/corpus-cli/internal/core/ports/driving"
	"github.com/custodia-labs/corpus-cli/internal/logger"
)

// Ensure Searcher implements the interface.
var _ driving.SearchService = (*Searcher)(nil)

// DefaultSearchLimit is the number of hits returned per query.
const DefaultSearchLimit = 10

// Searcher answers queries by embedding them and running vector
// similarity search against the catalog or chunk tables.
type Searcher struct {
	catalog  driven.CatalogStore
	chunks   driven.ChunkStore
	embedder driven.EmbeddingService
	limit    int
}

// SearcherOption configures the searcher.
type SearcherOption func(*Searcher)

// WithSearchLimit sets the maximum number of hits per query.
func WithSearchLimit(limit int) SearcherOption {
	return func(s *Searcher) {
		if limit > 0 {
			s.limit = limit
		}
	}
}

// NewSearcher creates a search service over the given stores.
func NewSearcher(
	catalog driven.CatalogStore,
	chunks driven.ChunkStore,
	embedder driven.EmbeddingService,
	opts ...SearcherOption,
) *Searcher {
	s := &Searcher{
		catalog:  catalog,
		chunks:   chunks,
		embedder: embedder,
		limit:    DefaultSearchLimit,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// CatalogSearch finds documents whose summaries match the query.
func (s *Searcher) CatalogSearch(ctx context.Context, text string) (string, error) {
	query, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return "", fmt.Errorf("embed query: %w", err)
	}

	hits, err := s.catalog.Search(ctx, query, s.limit)
	if err != nil {
		return "", fmt.Errorf("search catalog: %w", err)
	}

	logger.Debug("Catalog search %q returned %d hits", text, len(hits))
	return FormatHits(hits), nil
}

// ChunksSearch finds matching chunks within a single source document.
func (s *Searcher) ChunksSearch(ctx context.Context, text, source string) (string, error) {
	query, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return "", fmt.Errorf("embed query: %w", err)
	}

	hits, err := s.chunks.Search(ctx, query, source, s.limit)
	if err != nil {
		return "", fmt.Errorf("search chunks: %w", err)
	}

	logger.Debug("Chunk search %q in %s returned %d hits", text, source, len(hits))
	return FormatHits(hits), nil
}

// AllChunksSearch finds matching chunks across every document.
func (s *Searcher) AllChunksSearch(ctx context.Context, text string) (string, error) {
	return s.ChunksSearch(ctx, text, "")
}
