package cli

import (
	"context"

	"github.com/custodia-labs/corpus-cli/internal/core/ports/driving"
)

// cliMockSearchService records which search operation was invoked.
type cliMockSearchService struct {
	text       string
	err        error
	calledOp   string
	lastSource string
}

func (m *cliMockSearchService) CatalogSearch(_ context.Context, _ string) (string, error) {
	m.calledOp = "catalog"
	return m.text, m.err
}

func (m *cliMockSearchService) ChunksSearch(_ context.Context, _, source string) (string, error) {
	m.calledOp = "chunks"
	m.lastSource = source
	return m.text, m.err
}

func (m *cliMockSearchService) AllChunksSearch(_ context.Context, _ string) (string, error) {
	m.calledOp = "all_chunks"
	return m.text, m.err
}

// cliMockIngestor returns canned stats.
type cliMockIngestor struct {
	stats driving.IngestStats
	err   error
	runs  int
}

func (m *cliMockIngestor) Run(_ context.Context) (driving.IngestStats, error) {
	m.runs++
	return m.stats, m.err
}

// setupSearchService swaps the search service builder for a stub and
// returns a cleanup restoring the original.
func setupSearchService(mock *cliMockSearchService) func() {
	original := newSearchService
	newSearchService = func(_ string, _ int) (driving.SearchService, func(), error) {
		return mock, func() {}, nil
	}
	return func() { newSearchService = original }
}

// setupIngestor swaps the ingestor builder for a stub and returns a
// cleanup restoring the original. The captured config is returned for
// assertions.
func setupIngestor(mock *cliMockIngestor) (func(), *seedConfig) {
	captured := &seedConfig{}
	original := newIngestor
	newIngestor = func(cfg seedConfig) (driving.Ingestor, func(), error) {
		*captured = cfg
		return mock, func() {}, nil
	}
	return func() { newIngestor = original }, captured
}
