package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/custodia-labs/paperqa/internal/adapters/driven/storage/vecindex"
	"github.com/custodia-labs/paperqa/internal/core/domain"
	"github.com/custodia-labs/paperqa/internal/core/ports/driven"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

// Files written by Save.
const (
	IndexFile    = "index.bin"
	DocstoreFile = "docstore.json"
)

// VectorStore is the batch-only backend. Collections live in memory, are
// built in one shot and survive the process only through Save.
type VectorStore struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

type collection struct {
	spec   domain.CollectionSpec
	index  vecindex.Index
	chunks []domain.Chunk
}

// docstore is the on-disk chunk table, parallel to the index ids.
type docstore struct {
	CollectionID string         `json:"collection_id"`
	Fingerprint  string         `json:"fingerprint"`
	Source       string         `json:"source"`
	Chunks       []domain.Chunk `json:"chunks"`
}

// NewVectorStore creates an empty batch-only store.
func NewVectorStore() *VectorStore {
	return &VectorStore{collections: make(map[string]*collection)}
}

// Kind returns the variant tag.
func (s *VectorStore) Kind() domain.BackendKind {
	return domain.BackendBatchOnly
}

// Capabilities returns the fixed capability set.
func (s *VectorStore) Capabilities() domain.Capabilities {
	return domain.CapabilitiesOf(domain.BackendBatchOnly)
}

// Build replaces the collection with chunks and vectors.
func (s *VectorStore) Build(
	ctx context.Context, spec domain.CollectionSpec, chunks []domain.Chunk, vectors [][]float32,
) (*domain.Collection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(chunks) != len(vectors) {
		return nil, fmt.Errorf("%w: %d chunks for %d vectors", domain.ErrInvalidInput, len(chunks), len(vectors))
	}

	c := &collection{spec: spec, chunks: append([]domain.Chunk(nil), chunks...)}
	ids := make([]string, len(chunks))
	for i, ch := range chunks {
		ids[i] = ch.ID
	}
	if err := c.index.Build(ids, vectors); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.collections[spec.ID] = c
	s.mu.Unlock()

	return c.describe(), nil
}

// Load reads index.bin and docstore.json from spec.Dir.
func (s *VectorStore) Load(_ context.Context, spec domain.CollectionSpec) (*domain.Collection, error) {
	raw, err := os.ReadFile(filepath.Join(spec.Dir, IndexFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: no index in %s", domain.ErrNotFound, spec.Dir)
		}
		return nil, fmt.Errorf("read index: %w", err)
	}
	docRaw, err := os.ReadFile(filepath.Join(spec.Dir, DocstoreFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: no docstore in %s", domain.ErrNotFound, spec.Dir)
		}
		return nil, fmt.Errorf("read docstore: %w", err)
	}

	c := &collection{spec: spec}
	if err := c.index.UnmarshalBinary(raw); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrCacheCorruption, err)
	}
	var ds docstore
	if err := json.Unmarshal(docRaw, &ds); err != nil {
		return nil, fmt.Errorf("%w: decode docstore: %w", domain.ErrCacheCorruption, err)
	}
	ids := c.index.IDs()
	if len(ds.Chunks) != len(ids) {
		return nil, fmt.Errorf("%w: %d chunks for %d vectors", domain.ErrCacheCorruption, len(ds.Chunks), len(ids))
	}
	for i, ch := range ds.Chunks {
		if ch.ID != ids[i] {
			return nil, fmt.Errorf("%w: chunk %d is %s, index has %s", domain.ErrCacheCorruption, i, ch.ID, ids[i])
		}
	}
	c.chunks = ds.Chunks

	s.mu.Lock()
	s.collections[spec.ID] = c
	s.mu.Unlock()

	return c.describe(), nil
}

// Save writes the collection to dir. Files are replaced atomically.
func (s *VectorStore) Save(_ context.Context, collectionID, dir string) error {
	s.mu.RLock()
	c, ok := s.collections[collectionID]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: collection %s", domain.ErrNotFound, collectionID)
	}

	raw, err := c.index.MarshalBinary()
	if err != nil {
		return fmt.Errorf("encode index: %w", err)
	}
	docRaw, err := json.Marshal(docstore{
		CollectionID: collectionID,
		Fingerprint:  c.spec.Fingerprint,
		Source:       c.spec.Source,
		Chunks:       c.chunks,
	})
	if err != nil {
		return fmt.Errorf("encode docstore: %w", err)
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create collection dir: %w", err)
	}
	if err := replaceFile(filepath.Join(dir, IndexFile), raw); err != nil {
		return err
	}
	return replaceFile(filepath.Join(dir, DocstoreFile), docRaw)
}

// Add is not supported by the batch-only backend.
func (s *VectorStore) Add(context.Context, string, []domain.Chunk, [][]float32) (int, error) {
	return 0, fmt.Errorf("%w: the batch-only store cannot append chunks", domain.ErrUnsupportedOperation)
}

// DeleteBySource is not supported by the batch-only backend.
func (s *VectorStore) DeleteBySource(context.Context, string, string) (int, error) {
	return 0, fmt.Errorf("%w: the batch-only store cannot delete chunks", domain.ErrUnsupportedOperation)
}

// Retrieve returns up to k chunks by descending cosine similarity.
func (s *VectorStore) Retrieve(_ context.Context, collectionID string, query []float32, k int) ([]domain.ScoredChunk, error) {
	c, err := s.get(collectionID)
	if err != nil {
		return nil, err
	}

	hits, err := c.index.Query(query, k)
	if err != nil {
		return nil, err
	}
	out := make([]domain.ScoredChunk, len(hits))
	for i, h := range hits {
		out[i] = domain.ScoredChunk{Chunk: c.chunks[h.Pos], Score: h.Score}
	}
	return out, nil
}

// ListSources groups the chunks by source file.
func (s *VectorStore) ListSources(_ context.Context, collectionID string) ([]domain.SourceSummary, error) {
	c, err := s.get(collectionID)
	if err != nil {
		return nil, err
	}

	out := []domain.SourceSummary{}
	pos := make(map[string]int)
	for _, ch := range c.chunks {
		src := ch.Source()
		if src == "" {
			src = c.spec.Source
		}
		i, seen := pos[src]
		if !seen {
			i = len(out)
			pos[src] = i
			out = append(out, domain.SourceSummary{Source: src})
		}
		out[i].ChunkCount++
	}
	return out, nil
}

// Count returns the number of vectors in the collection.
func (s *VectorStore) Count(_ context.Context, collectionID string) (int, error) {
	c, err := s.get(collectionID)
	if err != nil {
		return 0, err
	}
	return c.index.Len(), nil
}

// Release drops the collection from memory.
func (s *VectorStore) Release(collectionID string) error {
	s.mu.Lock()
	delete(s.collections, collectionID)
	s.mu.Unlock()
	return nil
}

// Close drops every collection.
func (s *VectorStore) Close() error {
	s.mu.Lock()
	s.collections = make(map[string]*collection)
	s.mu.Unlock()
	return nil
}

func (s *VectorStore) get(collectionID string) (*collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[collectionID]
	if !ok {
		return nil, fmt.Errorf("%w: collection %s", domain.ErrNotFound, collectionID)
	}
	return c, nil
}

func (c *collection) describe() *domain.Collection {
	return &domain.Collection{
		ID:          c.spec.ID,
		Fingerprint: c.spec.Fingerprint,
		Backend:     domain.BackendBatchOnly,
		Location:    c.spec.Dir,
		VectorCount: c.index.Len(),
		Dimensions:  c.index.Dim(),
		State:       domain.StateReady,
	}
}

// replaceFile writes data to a temporary file beside path and renames it.
func replaceFile(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", filepath.Base(path), err)
	}
	return nil
}
