package domain

import "github.com/google/uuid"

// Document represents one loaded unit of text from a source file.
// Loaders that split a file into pages emit one Document per page.
type Document struct {
	// Source is the path of the file this document was loaded from.
	Source string

	// Content is the extracted text.
	Content string

	// Location is the position of this document within the source file.
	// Loader-dependent and best-effort; never used for identity.
	Location Location
}

// CatalogEntry is one summary row per unique source-file content.
// At most one entry exists per distinct content hash; re-ingesting a
// file whose hash is already catalogued produces no new entry.
type CatalogEntry struct {
	// ID is the unique identifier for the entry.
	ID string

	// Source is the path of the summarised file.
	Source string

	// Hash is the hex-encoded content digest used as dedup identity.
	Hash string

	// Summary is a one-sentence overview of the document text.
	Summary string

	// Embedding is the vector representation of the summary.
	Embedding []float32
}

// Chunk is a searchable unit: either a fixed-size window of document
// text or the textual descriptor of one extracted image.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// Source is the path of the file the chunk came from. It must
	// correspond to a file that was not skipped by deduplication.
	Source string

	// Content is the chunk text.
	Content string

	// Location is carried over from the originating document.
	Location Location

	// Embedding is the vector representation for semantic search.
	Embedding []float32
}

// ImageDescriptor is the transient record produced for one extracted or
// normalised image before it is converted into a Chunk. The backing
// image file is ephemeral and removed after the run.
type ImageDescriptor struct {
	// Source is the original PDF or image path.
	Source string

	// ImagePath is the processed (or fallback original) image path.
	ImagePath string

	// Description is the metadata-only textual descriptor.
	Description string

	// PageNumber is set only for PDF-derived images, starting at 1.
	PageNumber *int
}

// Chunk converts the descriptor into its indexable form with a fresh
// unique ID.
func (d ImageDescriptor) Chunk() Chunk {
	return Chunk{
		ID:       uuid.New().String(),
		Source:   d.Source,
		Content:  d.Description,
		Location: Location{PageNumber: d.PageNumber},
	}
}

// SearchHit is a single similarity-search result from either table.
type SearchHit struct {
	// Source is the originating file path.
	Source string

	// Content is the matched text (chunk content or catalog summary).
	Content string

	// Location is the hit's position tag, if any survived ingestion.
	Location Location

	// Score is the similarity score, higher is better.
	Score float64
}
