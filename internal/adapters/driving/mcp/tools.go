package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// QueryInput is the input schema for tools that take only query text.
type QueryInput struct {
	Text string `json:"text" jsonschema:"the text to search for"`
}

// SourceQueryInput is the input schema for source-scoped chunk search.
type SourceQueryInput struct {
	Text   string `json:"text" jsonschema:"the text to search for"`
	Source string `json:"source" jsonschema:"the source document path to search within"`
}

// SearchOutput is the output schema for all search tools.
type SearchOutput struct {
	Text string `json:"text"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "catalog_search",
		Description: "Search document summaries in the catalog to find relevant documents",
	}, s.handleCatalogSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "chunks_search",
		Description: "Search content chunks within a specific source document",
	}, s.handleChunksSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "all_chunks_search",
		Description: "Search content chunks across all indexed documents",
	}, s.handleAllChunksSearch)
}

// handleCatalogSearch handles the catalog_search tool invocation.
func (s *Server) handleCatalogSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QueryInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	text, err := s.ports.Search.CatalogSearch(ctx, input.Text)
	if err != nil {
		return nil, SearchOutput{}, err
	}
	return nil, SearchOutput{Text: text}, nil
}

// handleChunksSearch handles the chunks_search tool invocation.
func (s *Server) handleChunksSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SourceQueryInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	text, err := s.ports.Search.ChunksSearch(ctx, input.Text, input.Source)
	if err != nil {
		return nil, SearchOutput{}, err
	}
	return nil, SearchOutput{Text: text}, nil
}

// handleAllChunksSearch handles the all_chunks_search tool invocation.
func (s *Server) handleAllChunksSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QueryInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	text, err := s.ports.Search.AllChunksSearch(ctx, input.Text)
	if err != nil {
		return nil, SearchOutput{}, err
	}
	return nil, SearchOutput{Text: text}, nil
}
