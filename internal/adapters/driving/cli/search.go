package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	searchDBPath  string
	searchSource  string
	searchCatalog bool
	searchLimit   int
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed documents",
	Long: `Performs semantic vector search over the ingested corpus.

By default content chunks across all documents are searched. Use
--catalog to search document summaries instead, or --source to
restrict chunk search to a single source document.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVar(&searchDBPath, "dbpath", "", "directory holding the database (default ~/.corpus/data)")
	searchCmd.Flags().StringVar(&searchSource, "source", "", "restrict chunk search to this source document")
	searchCmd.Flags().BoolVar(&searchCatalog, "catalog", false, "search document summaries instead of chunks")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "maximum number of results")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	if searchCatalog && searchSource != "" {
		return fmt.Errorf("--catalog and --source are mutually exclusive")
	}

	searcher, cleanup, err := newSearchService(searchDBPath, searchLimit)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()

	var text string
	switch {
	case searchCatalog:
		text, err = searcher.CatalogSearch(ctx, query)
	case searchSource != "":
		text, err = searcher.ChunksSearch(ctx, query, searchSource)
	default:
		text, err = searcher.AllChunksSearch(ctx, query)
	}
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	cmd.Println(text)
	return nil
}
