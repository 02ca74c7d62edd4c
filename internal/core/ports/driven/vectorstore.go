package driven

import (
	"context"

	"github.com/custodia-labs/paperqa/internal/core/domain"
)

// VectorStore stores chunk vectors and serves similarity queries.
//
// There are exactly two variants, identified by Kind and described by
// Capabilities. Callers dispatch on those, never on the concrete type:
//
//   - incremental: Add and DeleteBySource work, every mutation is persisted
//     immediately and Save is a no-op.
//   - batch-only: only Build works, Add and DeleteBySource return
//     domain.ErrUnsupportedOperation, and the collection is lost unless
//     Save is called after Build.
type VectorStore interface {
	// Kind returns the variant tag.
	Kind() domain.BackendKind

	// Capabilities returns the fixed capability set of the variant.
	Capabilities() domain.Capabilities

	// Build creates the collection from scratch, replacing any previous
	// contents. chunks and vectors are parallel slices.
	Build(ctx context.Context, spec domain.CollectionSpec, chunks []domain.Chunk, vectors [][]float32) (*domain.Collection, error)

	// Load restores a persisted collection from spec.Dir.
	// Returns domain.ErrNotFound when nothing usable is stored there.
	Load(ctx context.Context, spec domain.CollectionSpec) (*domain.Collection, error)

	// Save persists the collection to dir.
	Save(ctx context.Context, collectionID, dir string) error

	// Add appends chunks to an existing collection and returns the number stored.
	Add(ctx context.Context, collectionID string, chunks []domain.Chunk, vectors [][]float32) (int, error)

	// DeleteBySource removes every chunk whose source file matches and
	// returns the number removed. Returns domain.ErrNotFound if none matched.
	DeleteBySource(ctx context.Context, collectionID, source string) (int, error)

	// Retrieve returns up to k chunks by descending cosine similarity.
	// Ties keep insertion order.
	Retrieve(ctx context.Context, collectionID string, query []float32, k int) ([]domain.ScoredChunk, error)

	// ListSources returns the distinct sources with their chunk counts.
	ListSources(ctx context.Context, collectionID string) ([]domain.SourceSummary, error)

	// Count returns the number of vectors in the collection.
	Count(ctx context.Context, collectionID string) (int, error)

	// Release drops the in-process handle of a collection without touching disk.
	Release(collectionID string) error

	// Close releases all resources.
	Close() error
}
