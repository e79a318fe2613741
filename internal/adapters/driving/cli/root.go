// Package cli provides the cobra command tree for the corpus binary.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/corpus-cli/internal/logger"
)

// version is set from main via SetVersion.
var version = "dev"

var (
	verbose   bool
	configDir string
)

var rootCmd = &cobra.Command{
	Use:   "corpus",
	Short: "Local document corpus with vector search",
	Long: `Corpus ingests a directory of documents into a local vector index
and exposes semantic search over it, both on the command line and as
an MCP server for AI assistants.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "",
		"config directory (default ~/.corpus)")
}

// SetVersion records the build version for the version command.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with the given context, so
// long-running commands stop on cancellation.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
