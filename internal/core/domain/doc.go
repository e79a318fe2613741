// Package domain defines the core business entities for the corpus tool.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: One loaded unit of text (a PDF page) with its location
//   - CatalogEntry: One summary row per unique source-file content
//   - Chunk: A searchable window of text or one image's descriptor
//   - Location: A best-effort, loader-dependent position tag
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
