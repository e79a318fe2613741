// Package driven defines interfaces for infrastructure adapters
// (secondary/outbound ports).
//
// Ports in this package are implemented by adapters under
// internal/adapters/driven and consumed by the core services. The core
// never imports an adapter directly.
//
// Ports:
//   - CatalogStore, ChunkStore: persistent vector-backed document storage
//   - EmbeddingService: text to vector embedding generation
//   - LLMService: summarisation and text generation
//   - DocumentLoader: per-file-type content extraction
//   - ImagePipeline: page rendering and image normalisation
//   - FileWalker: directory traversal with exclusion patterns
//   - SettingsStore: configuration persistence
package driven
