package services

import (
	"github.com/google/uuid"

	"github.com/custodia-labs/corpus-cli/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 500

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 10

// Splitter cuts document content into fixed-size overlapping chunks.
// Each chunk inherits the source path and location of the document it
// came from, so search results can cite a page or line range.
type Splitter struct {
	chunkSize int
	overlap   int
}

// SplitterOption configures the splitter.
type SplitterOption func(*Splitter)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) SplitterOption {
	return func(s *Splitter) {
		if size > 0 {
			s.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) SplitterOption {
	return func(s *Splitter) {
		if overlap >= 0 {
			s.overlap = overlap
		}
	}
}

// NewSplitter creates a new splitter with the given options.
func NewSplitter(opts ...SplitterOption) *Splitter {
	s := &Splitter{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(s)
	}

	// Ensure overlap doesn't exceed chunk size
	if s.overlap >= s.chunkSize {
		s.overlap = s.chunkSize / 4
	}

	return s
}

// Split chunks every document and returns the chunks in document order.
// Documents with empty content produce no chunks.
func (s *Splitter) Split(docs []domain.Document) []domain.Chunk {
	var chunks []domain.Chunk
	for _, doc := range docs {
		chunks = append(chunks, s.splitOne(doc)...)
	}
	return chunks
}

func (s *Splitter) splitOne(doc domain.Document) []domain.Chunk {
	if doc.Content == "" {
		return nil
	}

	content := doc.Content
	contentLen := len(content)

	estimatedChunks := (contentLen / (s.chunkSize - s.overlap)) + 1
	chunks := make([]domain.Chunk, 0, estimatedChunks)

	start := 0
	for start < contentLen {
		end := start + s.chunkSize
		if end > contentLen {
			end = contentLen
		}

		chunks = append(chunks, domain.Chunk{
			ID:       uuid.New().String(),
			Source:   doc.Source,
			Content:  content[start:end],
			Location: doc.Location,
		})

		start += s.chunkSize - s.overlap
	}

	return chunks
}
