package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/corpus-cli/internal/core/domain"
	"github.com/custodia-labs/corpus-cli/internal/core/ports/driven"
	"github.com/custodia-labs/corpus-cli/internal/core/ports/driving"
	"github.com/custodia-labs/corpus-cli/internal/logger"
)

// Ensure Ingestor implements the interface.
var _ driving.Ingestor = (*Ingestor)(nil)

// summaryInputLimit caps how much content is sent to the LLM for
// summarisation. Large documents are represented well enough by their
// opening sections.
const summaryInputLimit = 8000

// imageExtensions are the standalone image types routed through the
// image pipeline instead of a document loader.
var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
}

// ProgressFunc is called after each candidate file is handled.
type ProgressFunc func(done, total int, path string)

// Ingestor walks a directory and loads every supported file into the
// catalog and chunk tables.
type Ingestor struct {
	walker    driven.FileWalker
	loaders   []driven.DocumentLoader
	images    driven.ImagePipeline
	catalog   driven.CatalogStore
	chunks    driven.ChunkStore
	embedder  driven.EmbeddingService
	llm       driven.LLMService
	splitter  *Splitter
	filesDir  string
	overwrite bool
	progress  ProgressFunc

	byExtension map[string]driven.DocumentLoader
}

// IngestorOption configures the ingestor.
type IngestorOption func(*Ingestor)

// WithOverwrite makes the run rebuild both tables from scratch instead
// of appending to them.
func WithOverwrite(overwrite bool) IngestorOption {
	return func(i *Ingestor) {
		i.overwrite = overwrite
	}
}

// WithProgress sets a callback invoked after each file is handled.
func WithProgress(fn ProgressFunc) IngestorOption {
	return func(i *Ingestor) {
		i.progress = fn
	}
}

// NewIngestor creates an ingestor for the given directory.
func NewIngestor(
	filesDir string,
	walker driven.FileWalker,
	loaders []driven.DocumentLoader,
	images driven.ImagePipeline,
	catalog driven.CatalogStore,
	chunks driven.ChunkStore,
	embedder driven.EmbeddingService,
	llm driven.LLMService,
	splitter *Splitter,
	opts ...IngestorOption,
) *Ingestor {
	ing := &Ingestor{
		walker:      walker,
		loaders:     loaders,
		images:      images,
		catalog:     catalog,
		chunks:      chunks,
		embedder:    embedder,
		llm:         llm,
		splitter:    splitter,
		filesDir:    filesDir,
		byExtension: make(map[string]driven.DocumentLoader),
	}

	for _, opt := range opts {
		opt(ing)
	}

	// First loader claiming an extension wins.
	for _, loader := range loaders {
		for _, ext := range loader.Extensions() {
			if _, ok := ing.byExtension[ext]; !ok {
				ing.byExtension[ext] = loader
			}
		}
	}

	return ing
}

// stagedSource is one successfully processed file waiting for commit.
type stagedSource struct {
	entry  domain.CatalogEntry
	chunks []domain.Chunk
}

// Run ingests every supported file under the configured directory.
//
// Files are processed sequentially. A failure in one file is recorded
// and the run moves on; only setup failures (unreadable directory,
// unreachable services, storage errors) abort the whole run.
//
//nolint:gocyclo // Orchestration function with necessary sequential steps
func (i *Ingestor) Run(ctx context.Context) (driving.IngestStats, error) {
	stats := driving.IngestStats{Failures: make(map[string]error)}

	paths, err := i.walker.Walk(ctx, i.filesDir)
	if err != nil {
		return stats, fmt.Errorf("walk files: %w", err)
	}
	stats.FilesSeen = len(paths)

	seeded := false
	if !i.overwrite {
		seeded, err = i.catalog.Seeded(ctx)
		if err != nil {
			return stats, fmt.Errorf("check catalog: %w", err)
		}
	}

	logger.Info("Ingesting %d files from %s (overwrite=%v)", len(paths), i.filesDir, i.overwrite)

	var staged []stagedSource
	seenHashes := make(map[string]bool)

	for n, path := range paths {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		skip, err := i.processOne(ctx, path, seeded, seenHashes, &staged)
		switch {
		case err != nil:
			stats.Failures[path] = err
			logger.Warn("Failed to ingest %s: %v", path, err)
		case skip:
			stats.FilesSkipped++
			logger.Debug("Skipping %s: already ingested", path)
		default:
			stats.FilesIngested++
		}

		if i.progress != nil {
			i.progress(n+1, len(paths), path)
		}
	}

	entries := make([]domain.CatalogEntry, 0, len(staged))
	var allChunks []domain.Chunk
	for _, src := range staged {
		entries = append(entries, src.entry)
		allChunks = append(allChunks, src.chunks...)
	}

	if i.overwrite {
		if err := i.catalog.Rebuild(ctx, entries); err != nil {
			return stats, fmt.Errorf("rebuild catalog: %w", err)
		}
		if err := i.chunks.Rebuild(ctx, allChunks); err != nil {
			return stats, fmt.Errorf("rebuild chunks: %w", err)
		}
	} else {
		if err := i.catalog.Append(ctx, entries); err != nil {
			return stats, fmt.Errorf("append catalog: %w", err)
		}
		if err := i.chunks.Append(ctx, allChunks); err != nil {
			return stats, fmt.Errorf("append chunks: %w", err)
		}
	}

	stats.CatalogEntries = len(entries)
	stats.Chunks = len(allChunks)

	logger.Info("Ingest complete: %d ingested, %d skipped, %d failed, %d chunks",
		stats.FilesIngested, stats.FilesSkipped, len(stats.Failures), stats.Chunks)
	return stats, nil
}

// processOne handles a single file. It returns skip=true when the file
// is a duplicate of an already ingested or already staged document.
func (i *Ingestor) processOne(
	ctx context.Context,
	path string,
	seeded bool,
	seenHashes map[string]bool,
	staged *[]stagedSource,
) (skip bool, err error) {
	// 1. HASH AND DEDUPLICATE
	hash, err := HashFile(path)
	if err != nil {
		return false, fmt.Errorf("hash file: %w", err)
	}
	if seenHashes[hash] {
		return true, nil
	}
	if seeded {
		exists, err := i.catalog.HasHash(ctx, hash)
		if err != nil {
			return false, fmt.Errorf("check hash: %w", err)
		}
		if exists {
			return true, nil
		}
	}

	// 2. EXTRACT CONTENT
	ext := strings.ToLower(filepath.Ext(path))
	var (
		summaryInput string
		chunks       []domain.Chunk
	)
	switch {
	case imageExtensions[ext]:
		if i.images == nil {
			logger.Debug("Skipping %s: %v", path, domain.ErrUnsupportedType)
			return true, nil
		}
		desc, err := i.images.ProcessImage(ctx, path)
		if err != nil {
			return false, fmt.Errorf("process image: %w", err)
		}
		summaryInput = desc.Description
		chunks = []domain.Chunk{desc.Chunk()}

	default:
		loader, ok := i.byExtension[ext]
		if !ok {
			logger.Debug("Skipping %s: %v", path, domain.ErrUnsupportedType)
			return true, nil
		}
		docs, err := loader.Load(ctx, path)
		if err != nil {
			return false, fmt.Errorf("load document: %w", err)
		}

		// 3. SPLIT INTO CHUNKS
		chunks = i.splitter.Split(docs)

		// 4. RENDER PAGES (PDF only)
		if ext == ".pdf" && i.images != nil {
			descs, err := i.images.ProcessPDF(ctx, path)
			if err != nil {
				// Page rendering is additive; the text content
				// already made it through.
				logger.Warn("Page rendering failed for %s: %v", path, err)
			}
			for _, desc := range descs {
				chunks = append(chunks, desc.Chunk())
			}
		}

		summaryInput = concatContent(docs)
	}

	// 5. SUMMARISE
	summary, err := i.summarise(ctx, path, summaryInput)
	if err != nil {
		return false, fmt.Errorf("summarise: %w", err)
	}

	// 6. EMBED SUMMARY AND CHUNKS
	texts := make([]string, 0, len(chunks)+1)
	texts = append(texts, summary)
	for _, c := range chunks {
		texts = append(texts, c.Content)
	}
	vectors, err := i.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return false, fmt.Errorf("embed: %w", err)
	}
	if len(vectors) != len(texts) {
		return false, fmt.Errorf("embed: got %d vectors for %d texts", len(vectors), len(texts))
	}
	for n := range chunks {
		chunks[n].Embedding = vectors[n+1]
	}

	// 7. STAGE FOR COMMIT
	entry := domain.CatalogEntry{
		ID:        uuid.New().String(),
		Source:    path,
		Hash:      hash,
		Summary:   summary,
		Embedding: vectors[0],
	}
	*staged = append(*staged, stagedSource{entry: entry, chunks: chunks})
	seenHashes[hash] = true
	return false, nil
}

// summarise produces the catalog summary for a document. Empty content
// falls back to a filename-based description so the entry still exists.
func (i *Ingestor) summarise(ctx context.Context, path, content string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return fmt.Sprintf("Document %s with no extractable text content.", filepath.Base(path)), nil
	}
	if len(content) > summaryInputLimit {
		content = content[:summaryInputLimit]
	}
	summary, err := i.llm.Summarise(ctx, content)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(summary), nil
}

func concatContent(docs []domain.Document) string {
	var b strings.Builder
	for _, doc := range docs {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(doc.Content)
		if b.Len() >= summaryInputLimit {
			break
		}
	}
	return b.String()
}
