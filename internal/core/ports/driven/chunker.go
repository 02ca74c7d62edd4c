package driven

import (
	"context"

	"github.com/custodia-labs/paperqa/internal/core/domain"
)

// Chunker splits a loaded document into bounded, overlapping chunks.
type Chunker interface {
	// Chunk returns the chunks of doc with ids "<fingerprint>_<position>".
	// Returns domain.ErrEmptyDocument when the document yields no chunk.
	Chunk(ctx context.Context, doc *domain.LoadedDocument, fingerprint string) ([]domain.Chunk, error)
}
