package driven

import "github.com/custodia-labs/corpus-cli/internal/core/domain"

// SettingsStore provides access to application settings.
// Implementations handle persistence (e.g., TOML files) and
// environment variable overrides.
type SettingsStore interface {
	// Load reads settings from storage, falling back to defaults for
	// anything unset.
	Load() (domain.AppSettings, error)

	// Path returns the settings file path.
	Path() string
}
