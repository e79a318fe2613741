package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/corpus-cli/internal/core/domain"
	"github.com/custodia-labs/corpus-cli/internal/core/ports/driven"
)

// Environment variables that override file values. API keys in
// particular should not live in a config file on disk.
const (
	envEmbeddingAPIKey = "CORPUS_EMBEDDING_API_KEY"
	envLLMAPIKey       = "CORPUS_LLM_API_KEY"
	envOpenAIAPIKey    = "OPENAI_API_KEY"
)

// Ensure SettingsStore implements the interface.
var _ driven.SettingsStore = (*SettingsStore)(nil)

// SettingsStore is a file-based implementation of driven.SettingsStore
// using TOML. Settings are stored in a TOML file within the corpus
// config directory.
type SettingsStore struct {
	filePath string
}

// tomlSettings mirrors the on-disk layout. All fields are optional;
// anything unset keeps its default.
type tomlSettings struct {
	Embedding tomlAISettings     `toml:"embedding"`
	LLM       tomlAISettings     `toml:"llm"`
	Ingest    tomlIngestSettings `toml:"ingest"`
}

type tomlAISettings struct {
	Provider string `toml:"provider"`
	Model    string `toml:"model"`
	BaseURL  string `toml:"base_url"`
	APIKey   string `toml:"api_key"`
}

type tomlIngestSettings struct {
	ChunkSize    int      `toml:"chunk_size"`
	ChunkOverlap int      `toml:"chunk_overlap"`
	MaxImageDim  int      `toml:"max_image_dim"`
	Exclude      []string `toml:"exclude"`
}

// NewSettingsStore creates a TOML-based settings store.
// If configDir is empty, defaults to ~/.corpus.
func NewSettingsStore(configDir string) (*SettingsStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory: %w", err)
		}
		configDir = filepath.Join(home, ".corpus")
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	return &SettingsStore{
		filePath: filepath.Join(configDir, "config.toml"),
	}, nil
}

// Load reads settings from the TOML file, falling back to defaults for
// anything unset. A missing file is not an error. Environment
// variables override file values for API keys.
func (s *SettingsStore) Load() (domain.AppSettings, error) {
	// A .env file next to the working directory is picked up for
	// development setups. Absence is fine.
	_ = godotenv.Load()

	settings := domain.DefaultAppSettings()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(&settings)
			return settings, nil
		}
		return domain.AppSettings{}, fmt.Errorf("reading config file: %w", err)
	}

	var loaded tomlSettings
	if err := toml.Unmarshal(data, &loaded); err != nil {
		return domain.AppSettings{}, fmt.Errorf("parsing config file %s: %w", s.filePath, err)
	}

	applyAISettings(&settings.Embedding, loaded.Embedding, domain.DefaultEmbeddingModels())
	applyLLMSettings(&settings.LLM, loaded.LLM, domain.DefaultLLMModels())

	if loaded.Ingest.ChunkSize > 0 {
		settings.Ingest.ChunkSize = loaded.Ingest.ChunkSize
	}
	if loaded.Ingest.ChunkOverlap > 0 {
		settings.Ingest.ChunkOverlap = loaded.Ingest.ChunkOverlap
	}
	if loaded.Ingest.MaxImageDim > 0 {
		settings.Ingest.MaxImageDim = loaded.Ingest.MaxImageDim
	}
	if len(loaded.Ingest.Exclude) > 0 {
		settings.Ingest.Exclude = loaded.Ingest.Exclude
	}

	applyEnvOverrides(&settings)
	return settings, nil
}

// applyAISettings overlays file values onto the defaults. Switching
// provider without naming a model picks that provider's default model.
func applyAISettings(dst *domain.EmbeddingSettings, src tomlAISettings, defaultModels map[domain.AIProvider]string) {
	if src.Provider != "" {
		provider := domain.AIProvider(strings.ToLower(src.Provider))
		if provider.IsValid() && provider != dst.Provider {
			dst.Provider = provider
			dst.Model = defaultModels[provider]
			dst.BaseURL = ""
		}
	}
	if src.Model != "" {
		dst.Model = src.Model
	}
	if src.BaseURL != "" {
		dst.BaseURL = src.BaseURL
	}
	if src.APIKey != "" {
		dst.APIKey = src.APIKey
	}
}

func applyLLMSettings(dst *domain.LLMSettings, src tomlAISettings, defaultModels map[domain.AIProvider]string) {
	if src.Provider != "" {
		provider := domain.AIProvider(strings.ToLower(src.Provider))
		if provider.IsValid() && provider != dst.Provider {
			dst.Provider = provider
			dst.Model = defaultModels[provider]
			dst.BaseURL = ""
		}
	}
	if src.Model != "" {
		dst.Model = src.Model
	}
	if src.BaseURL != "" {
		dst.BaseURL = src.BaseURL
	}
	if src.APIKey != "" {
		dst.APIKey = src.APIKey
	}
}

// applyEnvOverrides lets environment variables win over file values.
// OPENAI_API_KEY covers both services when the provider-specific
// variables are unset.
func applyEnvOverrides(settings *domain.AppSettings) {
	if key := os.Getenv(envEmbeddingAPIKey); key != "" {
		settings.Embedding.APIKey = key
	}
	if key := os.Getenv(envLLMAPIKey); key != "" {
		settings.LLM.APIKey = key
	}
	if key := os.Getenv(envOpenAIAPIKey); key != "" {
		if settings.Embedding.APIKey == "" {
			settings.Embedding.APIKey = key
		}
		if settings.LLM.APIKey == "" {
			settings.LLM.APIKey = key
		}
	}
}

// Path returns the settings file path.
func (s *SettingsStore) Path() string {
	return s.filePath
}
