package driving

import "context"

// Ingestor coordinates document ingestion from a directory into the
// catalog and chunk tables.
type Ingestor interface {
	// Run ingests every supported file under the configured directory.
	// Per-file failures are recorded in the returned stats; Run only
	// errors when the whole run cannot proceed.
	Run(ctx context.Context) (IngestStats, error)
}

// IngestStats summarises an ingestion run.
type IngestStats struct {
	// FilesSeen is the number of candidate files discovered.
	FilesSeen int

	// FilesIngested is the number of files successfully processed.
	FilesIngested int

	// FilesSkipped is the number of files skipped as already ingested.
	FilesSkipped int

	// CatalogEntries is the number of catalog rows written.
	CatalogEntries int

	// Chunks is the number of chunk rows written.
	Chunks int

	// Failures maps a source path to the error that stopped it.
	Failures map[string]error
}
