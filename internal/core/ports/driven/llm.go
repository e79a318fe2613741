package driven

import "context"

// LLMService provides language model operations for document understanding.
// Ingestion uses it to produce the one-paragraph catalog summary for
// each document.
//
// Implementations may include:
//   - Ollama (local models)
//   - OpenAI (GPT-4, GPT-4o-mini)
type LLMService interface {
	// Generate produces text completion from a prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// Summarise creates a concise summary of document content.
	Summarise(ctx context.Context, content string) (string, error)

	// ModelName returns the name of the LLM model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	// This is used at startup to fail fast before ingestion begins.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64

	// StopWords are sequences that stop generation when encountered.
	StopWords []string
}
