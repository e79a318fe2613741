package cli

import (
	"fmt"

	"github.com/custodia-labs/corpus-cli/internal/adapters/driven/ai"
	configfile "github.com/custodia-labs/corpus-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/corpus-cli/internal/adapters/driven/fswalk"
	"github.com/custodia-labs/corpus-cli/internal/adapters/driven/images"
	"github.com/custodia-labs/corpus-cli/internal/adapters/driven/pdf"
	"github.com/custodia-labs/corpus-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/corpus-cli/internal/adapters/driven/textfile"
	"github.com/custodia-labs/corpus-cli/internal/core/domain"
	"github.com/custodia-labs/corpus-cli/internal/core/ports/driven"
	"github.com/custodia-labs/corpus-cli/internal/core/ports/driving"
	"github.com/custodia-labs/corpus-cli/internal/core/services"
	"github.com/custodia-labs/corpus-cli/internal/logger"
)

// seedConfig carries the seed command's resolved flag values.
type seedConfig struct {
	dbPath    string
	filesDir  string
	overwrite bool
	exclude   []string
	progress  services.ProgressFunc
}

// loadSettings reads application settings from the configured directory.
var loadSettings = func() (domain.AppSettings, error) {
	store, err := configfile.NewSettingsStore(configDir)
	if err != nil {
		return domain.AppSettings{}, fmt.Errorf("opening settings: %w", err)
	}
	return store.Load()
}

// newSearchService builds a search service over the database at dbPath.
// The returned cleanup must be called when the service is done.
var newSearchService = func(dbPath string, limit int) (driving.SearchService, func(), error) {
	settings, err := loadSettings()
	if err != nil {
		return nil, nil, err
	}

	embedder, err := ai.CreateAndValidateEmbeddingService(&settings.Embedding)
	if err != nil {
		return nil, nil, err
	}

	store, err := sqlite.NewStore(dbPath)
	if err != nil {
		embedder.Close() //nolint:errcheck
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}

	var opts []services.SearcherOption
	if limit > 0 {
		opts = append(opts, services.WithSearchLimit(limit))
	}
	searcher := services.NewSearcher(store.Catalog(), store.Chunks(), embedder, opts...)

	cleanup := func() {
		store.Close()    //nolint:errcheck
		embedder.Close() //nolint:errcheck
	}
	return searcher, cleanup, nil
}

// newIngestor builds an ingestor and its dependency graph for one seed
// run. The returned cleanup must be called when the run is done.
var newIngestor = func(cfg seedConfig) (driving.Ingestor, func(), error) {
	settings, err := loadSettings()
	if err != nil {
		return nil, nil, err
	}

	embedder, err := ai.CreateAndValidateEmbeddingService(&settings.Embedding)
	if err != nil {
		return nil, nil, err
	}

	llm, err := ai.CreateAndValidateLLMService(&settings.LLM)
	if err != nil {
		embedder.Close() //nolint:errcheck
		return nil, nil, err
	}

	store, err := sqlite.NewStore(cfg.dbPath)
	if err != nil {
		embedder.Close() //nolint:errcheck
		llm.Close()      //nolint:errcheck
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}

	loaders := []driven.DocumentLoader{textfile.New()}
	var rasterizer driven.Rasterizer
	if err := pdf.CheckAvailable(); err != nil {
		logger.Warn("PDF support disabled: %v", err)
		logger.Warn("%s", pdf.InstallInstructions())
	} else {
		loaders = append(loaders, pdf.New())
		rasterizer = pdf.NewRasterizer()
	}

	pipeline, err := images.New(rasterizer, images.WithMaxDim(settings.Ingest.MaxImageDim))
	if err != nil {
		store.Close()    //nolint:errcheck
		embedder.Close() //nolint:errcheck
		llm.Close()      //nolint:errcheck
		return nil, nil, fmt.Errorf("creating image pipeline: %w", err)
	}

	exclude := append([]string{}, settings.Ingest.Exclude...)
	exclude = append(exclude, cfg.exclude...)

	splitter := services.NewSplitter(
		services.WithChunkSize(settings.Ingest.ChunkSize),
		services.WithOverlap(settings.Ingest.ChunkOverlap),
	)

	ingestor := services.NewIngestor(
		cfg.filesDir,
		fswalk.New(exclude),
		loaders,
		pipeline,
		store.Catalog(),
		store.Chunks(),
		embedder,
		llm,
		splitter,
		services.WithOverwrite(cfg.overwrite),
		services.WithProgress(cfg.progress),
	)

	cleanup := func() {
		pipeline.Close() //nolint:errcheck
		store.Close()    //nolint:errcheck
		embedder.Close() //nolint:errcheck
		llm.Close()      //nolint:errcheck
	}
	return ingestor, cleanup, nil
}
