package domain

import "time"

// Chunk metadata keys.
const (
	// MetaSourceFile is the display name of the file a chunk came from.
	MetaSourceFile = "source_file"

	// MetaPage is the 1-based page number a chunk starts on.
	MetaPage = "page"

	// MetaAddedAt is the RFC 3339 time a chunk was appended after the
	// initial build of its collection.
	MetaAddedAt = "added_at"
)

// DocumentInfo describes an ingested document.
// Its identity is the content fingerprint.
type DocumentInfo struct {
	// Fingerprint is the content digest of the file bytes.
	Fingerprint string `json:"file_hash"`

	// Name is the display name.
	Name string `json:"file_name"`

	// Path is the file location at ingestion time.
	Path string `json:"file_path"`

	// PagesCount is the number of pages extracted.
	PagesCount int `json:"pages_count"`

	// ChunksCount is the number of chunks indexed.
	ChunksCount int `json:"chunks_count"`

	// IngestedAt is when the document was first indexed.
	IngestedAt time.Time `json:"timestamp"`

	// ProcessingTime is how long ingestion took.
	ProcessingTime time.Duration `json:"processing_time"`

	// Backend is the vector store variant holding the document.
	Backend BackendKind `json:"vector_store_type"`
}

// Chunk represents a retrieval unit within a document.
// Documents are split into overlapping chunks before embedding.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string `json:"id"`

	// DocumentID is the fingerprint of the owning document.
	DocumentID string `json:"document_id"`

	// Content is the text content of this chunk.
	Content string `json:"content"`

	// Position is the ordinal position within the document.
	Position int `json:"position"`

	// Embedding is the vector representation, set after embedding.
	Embedding []float32 `json:"-"`

	// Metadata contains chunk-specific key-value pairs.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Source returns the source file name recorded on the chunk.
func (c Chunk) Source() string {
	if c.Metadata == nil {
		return ""
	}
	s, _ := c.Metadata[MetaSourceFile].(string)
	return s
}

// Page returns the page number recorded on the chunk, or 0.
func (c Chunk) Page() int {
	if c.Metadata == nil {
		return 0
	}
	switch v := c.Metadata[MetaPage].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

// ScoredChunk is a chunk returned by retrieval with its similarity.
type ScoredChunk struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}

// SourceSummary is one distinct source within a collection.
type SourceSummary struct {
	// Source is the source file name.
	Source string `json:"source"`

	// ChunkCount is the number of chunks from this source.
	ChunkCount int `json:"chunk_count"`

	// AddedAt is when the source was appended, empty for the initial document.
	AddedAt string `json:"added_at,omitempty"`
}
