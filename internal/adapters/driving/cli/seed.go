package cli

import (
	"fmt"
	"io"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/corpus-cli/internal/adapters/driven/fswatch"
	"github.com/custodia-labs/corpus-cli/internal/core/ports/driving"
	"github.com/custodia-labs/corpus-cli/internal/core/services"
	"github.com/custodia-labs/corpus-cli/internal/logger"
)

var (
	seedDBPath    string
	seedFilesDir  string
	seedOverwrite bool
	seedExclude   []string
	seedWatch     bool
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Ingest documents into the vector index",
	Long: `Walks a directory of documents, summarises and chunks each one, and
stores embeddings in a local SQLite database.

Already-ingested documents are recognised by content hash and skipped,
so repeated runs only pick up new or changed files. Use --overwrite to
rebuild the index from scratch instead.`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedDBPath, "dbpath", "", "directory holding the database")
	seedCmd.Flags().StringVar(&seedFilesDir, "filesdir", "", "directory of documents to ingest")
	seedCmd.Flags().BoolVar(&seedOverwrite, "overwrite", false, "rebuild the index from scratch")
	seedCmd.Flags().StringArrayVar(&seedExclude, "exclude", nil, "glob pattern to skip (repeatable)")
	seedCmd.Flags().BoolVar(&seedWatch, "watch", false, "keep running and re-ingest on file changes")
	seedCmd.MarkFlagRequired("dbpath")   //nolint:errcheck
	seedCmd.MarkFlagRequired("filesdir") //nolint:errcheck
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, _ []string) error {
	if err := runSeedOnce(cmd, seedOverwrite); err != nil {
		return err
	}

	if !seedWatch {
		return nil
	}

	ctx := cmd.Context()
	signals, err := fswatch.New(seedFilesDir).Watch(ctx)
	if err != nil {
		return fmt.Errorf("watching %s: %w", seedFilesDir, err)
	}

	cmd.Println("Watching for changes. Press Ctrl+C to stop.")
	for range signals {
		// Follow-up runs append; hash dedup skips unchanged files.
		if err := runSeedOnce(cmd, false); err != nil {
			logger.Warn("Re-ingest failed: %v", err)
		}
	}
	return nil
}

// runSeedOnce performs a single ingestion pass.
func runSeedOnce(cmd *cobra.Command, overwrite bool) error {
	ingestor, cleanup, err := newIngestor(seedConfig{
		dbPath:    seedDBPath,
		filesDir:  seedFilesDir,
		overwrite: overwrite,
		exclude:   seedExclude,
		progress:  seedProgress(cmd.OutOrStdout()),
	})
	if err != nil {
		return err
	}
	defer cleanup()

	stats, err := ingestor.Run(cmd.Context())
	if err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}

	printSeedStats(cmd, stats)
	return nil
}

// seedProgress returns a progress callback backed by a terminal bar.
// The bar is created lazily once the total is known.
func seedProgress(out io.Writer) services.ProgressFunc {
	var bar *progressbar.ProgressBar
	return func(done, total int, _ string) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(out),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("Ingesting"),
				progressbar.OptionOnCompletion(func() {
					fmt.Fprintln(out)
				}),
			)
		}
		bar.Set(done) //nolint:errcheck
	}
}

func printSeedStats(cmd *cobra.Command, stats driving.IngestStats) {
	cmd.Printf("Ingested %d of %d files (%d skipped), %d chunks stored.\n",
		stats.FilesIngested, stats.FilesSeen, stats.FilesSkipped, stats.Chunks)

	if len(stats.Failures) == 0 {
		return
	}
	cmd.Printf("%d files failed:\n", len(stats.Failures))
	for path, err := range stats.Failures {
		cmd.Printf("  %s: %v\n", path, err)
	}
}
