package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/corpus-cli/internal/adapters/driving/mcp"
)

var mcpDBPath string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server for AI assistant integration.

By default, the server communicates over stdio using JSON-RPC and can be
used with Claude Desktop and other MCP-compatible AI assistants.

Use --port to start an HTTP server instead, which enables:
  - Testing with MCP Inspector web UI
  - Remote access via HTTP

Examples:
  # Stdio mode (default, for Claude Desktop)
  corpus mcp serve --dbpath ~/.corpus/data

  # HTTP mode (for MCP Inspector, remote access)
  corpus mcp serve --dbpath ~/.corpus/data --port 8080

Claude Desktop configuration (claude_desktop_config.json):
  {
    "mcpServers": {
      "corpus": {
        "command": "/path/to/corpus",
        "args": ["mcp", "serve", "--dbpath", "/path/to/data"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().StringVar(&mcpDBPath, "dbpath", "", "directory holding the database")
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpServeCmd.MarkFlagRequired("dbpath") //nolint:errcheck
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	searcher, cleanup, err := newSearchService(mcpDBPath, 0)
	if err != nil {
		return err
	}
	defer cleanup()

	server, err := mcp.NewServer(&mcp.Ports{Search: searcher})
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
