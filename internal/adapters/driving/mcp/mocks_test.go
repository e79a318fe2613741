package mcp

import (
	"context"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	catalogText string
	chunksText  string
	lastText    string
	lastSource  string
	err         error
}

func (m *mockSearchService) CatalogSearch(_ context.Context, text string) (string, error) {
	m.lastText = text
	return m.catalogText, m.err
}

func (m *mockSearchService) ChunksSearch(_ context.Context, text, source string) (string, error) {
	m.lastText = text
	m.lastSource = source
	return m.chunksText, m.err
}

func (m *mockSearchService) AllChunksSearch(_ context.Context, text string) (string, error) {
	return m.ChunksSearch(context.Background(), text, "")
}
