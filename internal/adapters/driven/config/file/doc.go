// Package file provides a TOML file-backed implementation of the
// SettingsStore port with environment variable overrides.
package file
