package driving

import "context"

// SearchService answers natural-language queries against the indexed
// corpus. Each method returns a formatted, citation-ready text block
// suitable for direct display.
type SearchService interface {
	// CatalogSearch finds documents whose summaries match the query.
	CatalogSearch(ctx context.Context, text string) (string, error)

	// ChunksSearch finds matching chunks within a single source document.
	ChunksSearch(ctx context.Context, text, source string) (string, error)

	// AllChunksSearch finds matching chunks across every document.
	AllChunksSearch(ctx context.Context, text string) (string, error)
}
