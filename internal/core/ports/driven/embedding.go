package driven

import "context"

// EmbeddingService generates vector embeddings from text.
// Both ingestion and search depend on it: catalog summaries, content
// chunks, and incoming queries all pass through the same model so
// their vectors live in the same space.
//
// Implementations may include:
//   - Ollama (snowflake-arctic-embed2, nomic-embed-text)
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts efficiently.
	// This is more efficient than calling Embed in a loop for large batches.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 768, 1024, 1536).
	// This is determined by the model and must match the vector table schema.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	// This is used at startup to fail fast before ingestion begins.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
