package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/custodia-labs/paperqa/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/paperqa/internal/adapters/driven/storage/vecindex"
	"github.com/custodia-labs/paperqa/internal/core/domain"
	"github.com/custodia-labs/paperqa/internal/core/ports/driven"
)

// VectorsFile is the database file inside a collection directory.
const VectorsFile = "vectors.db"

const metaDimensions = "dimensions"

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

// VectorStore is the incremental backend. Every mutation is committed to
// the collection's vectors.db before it returns.
type VectorStore struct {
	mu          sync.Mutex
	collections map[string]*vectorCollection
}

type vectorCollection struct {
	mu   sync.Mutex
	db   *sql.DB
	spec domain.CollectionSpec

	// snapshot caches the rows for ranking until the next mutation.
	snapshot *snapshot
}

type snapshot struct {
	index  vecindex.Index
	chunks []domain.Chunk
}

// NewVectorStore creates an incremental store with no open collections.
func NewVectorStore() *VectorStore {
	return &VectorStore{collections: make(map[string]*vectorCollection)}
}

// Kind returns the variant tag.
func (s *VectorStore) Kind() domain.BackendKind {
	return domain.BackendIncremental
}

// Capabilities returns the fixed capability set.
func (s *VectorStore) Capabilities() domain.Capabilities {
	return domain.CapabilitiesOf(domain.BackendIncremental)
}

// Build creates or replaces the collection in spec.Dir.
func (s *VectorStore) Build(
	ctx context.Context, spec domain.CollectionSpec, chunks []domain.Chunk, vectors [][]float32,
) (*domain.Collection, error) {
	if len(chunks) != len(vectors) {
		return nil, fmt.Errorf("%w: %d chunks for %d vectors", domain.ErrInvalidInput, len(chunks), len(vectors))
	}
	if err := os.MkdirAll(spec.Dir, 0700); err != nil {
		return nil, fmt.Errorf("create collection dir: %w", err)
	}

	c, err := s.open(spec, true)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin build: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks`); err != nil {
		return nil, fmt.Errorf("clear collection: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM collection_meta`); err != nil {
		return nil, fmt.Errorf("clear collection meta: %w", err)
	}
	if err := insertChunks(ctx, tx, 0, chunks, vectors); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit build: %w", err)
	}
	c.snapshot = nil

	return c.describe(ctx)
}

// Load opens the collection stored in spec.Dir.
func (s *VectorStore) Load(ctx context.Context, spec domain.CollectionSpec) (*domain.Collection, error) {
	if _, err := os.Stat(filepath.Join(spec.Dir, VectorsFile)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: no %s in %s", domain.ErrNotFound, VectorsFile, spec.Dir)
		}
		return nil, fmt.Errorf("stat %s: %w", VectorsFile, err)
	}

	c, err := s.open(spec, false)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.describe(ctx)
}

// Save is a no-op: mutations are already committed.
func (s *VectorStore) Save(_ context.Context, collectionID, _ string) error {
	_, err := s.get(collectionID)
	return err
}

// Add appends chunks to the collection.
func (s *VectorStore) Add(ctx context.Context, collectionID string, chunks []domain.Chunk, vectors [][]float32) (int, error) {
	if len(chunks) != len(vectors) {
		return 0, fmt.Errorf("%w: %d chunks for %d vectors", domain.ErrInvalidInput, len(chunks), len(vectors))
	}
	c, err := s.get(collectionID)
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	dim, err := c.dimensions(ctx)
	if err != nil {
		return 0, err
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin add: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := insertChunks(ctx, tx, dim, chunks, vectors); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit add: %w", err)
	}
	c.snapshot = nil
	return len(chunks), nil
}

// DeleteBySource removes every chunk of a source file.
func (s *VectorStore) DeleteBySource(ctx context.Context, collectionID, source string) (int, error) {
	c, err := s.get(collectionID)
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	res, err := c.db.ExecContext(ctx, `DELETE FROM chunks WHERE source = ?`, source)
	if err != nil {
		return 0, fmt.Errorf("deleting chunks: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("deleting chunks: %w", err)
	}
	if n == 0 {
		return 0, fmt.Errorf("%w: no chunks from %q", domain.ErrNotFound, source)
	}
	c.snapshot = nil
	return int(n), nil
}

// Retrieve returns up to k chunks by descending cosine similarity.
func (s *VectorStore) Retrieve(ctx context.Context, collectionID string, query []float32, k int) ([]domain.ScoredChunk, error) {
	c, err := s.get(collectionID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	snap, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	hits, err := snap.index.Query(query, k)
	if err != nil {
		return nil, err
	}

	out := make([]domain.ScoredChunk, len(hits))
	for i, h := range hits {
		out[i] = domain.ScoredChunk{Chunk: snap.chunks[h.Pos], Score: h.Score}
	}
	return out, nil
}

// ListSources returns the distinct sources in first-insertion order.
func (s *VectorStore) ListSources(ctx context.Context, collectionID string) ([]domain.SourceSummary, error) {
	c, err := s.get(collectionID)
	if err != nil {
		return nil, err
	}

	rows, err := c.db.QueryContext(ctx, `
		SELECT source, COUNT(*), MAX(added_at), MIN(seq) AS first
		FROM chunks
		GROUP BY source
		ORDER BY first
	`)
	if err != nil {
		return nil, fmt.Errorf("listing sources: %w", err)
	}
	defer rows.Close()

	out := []domain.SourceSummary{}
	for rows.Next() {
		var sum domain.SourceSummary
		var first int64
		if err := rows.Scan(&sum.Source, &sum.ChunkCount, &sum.AddedAt, &first); err != nil {
			return nil, fmt.Errorf("scanning source: %w", err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Count returns the number of vectors in the collection.
func (s *VectorStore) Count(ctx context.Context, collectionID string) (int, error) {
	c, err := s.get(collectionID)
	if err != nil {
		return 0, err
	}
	return c.count(ctx)
}

// Release closes the collection's database.
func (s *VectorStore) Release(collectionID string) error {
	s.mu.Lock()
	c, ok := s.collections[collectionID]
	delete(s.collections, collectionID)
	s.mu.Unlock()

	if !ok {
		return nil
	}
	return c.db.Close()
}

// Close closes every open collection.
func (s *VectorStore) Close() error {
	s.mu.Lock()
	open := s.collections
	s.collections = make(map[string]*vectorCollection)
	s.mu.Unlock()

	var errs []error
	for _, c := range open {
		errs = append(errs, c.db.Close())
	}
	return errors.Join(errs...)
}

// open returns the handle for spec.ID, opening vectors.db when needed.
// A handle pointing at another directory is closed first.
func (s *VectorStore) open(spec domain.CollectionSpec, create bool) (*vectorCollection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.collections[spec.ID]; ok {
		if c.spec.Dir == spec.Dir {
			c.spec = spec
			return c, nil
		}
		_ = c.db.Close()
		delete(s.collections, spec.ID)
	}

	path := filepath.Join(spec.Dir, VectorsFile)
	if !create {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
		}
	}
	db, err := open(path, migrations.Vectors())
	if err != nil {
		return nil, err
	}

	c := &vectorCollection{db: db, spec: spec}
	s.collections[spec.ID] = c
	return c, nil
}

func (s *VectorStore) get(collectionID string) (*vectorCollection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[collectionID]
	if !ok {
		return nil, fmt.Errorf("%w: collection %s is not open", domain.ErrNotFound, collectionID)
	}
	return c, nil
}

// insertChunks writes chunks inside tx. dim is the collection dimension,
// 0 when the collection is empty.
func insertChunks(ctx context.Context, tx *sql.Tx, dim int, chunks []domain.Chunk, vectors [][]float32) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, document_id, content, position, source, added_at, metadata, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, ch := range chunks {
		vec := vectors[i]
		if len(vec) == 0 {
			return fmt.Errorf("%w: empty vector for chunk %s", domain.ErrInvalidInput, ch.ID)
		}
		if dim == 0 {
			dim = len(vec)
			if _, err := tx.ExecContext(ctx,
				`INSERT OR REPLACE INTO collection_meta (key, value) VALUES (?, ?)`,
				metaDimensions, strconv.Itoa(dim)); err != nil {
				return fmt.Errorf("recording dimension: %w", err)
			}
		}
		if len(vec) != dim {
			return fmt.Errorf("%w: chunk %s has dimension %d, collection has %d",
				domain.ErrInvalidInput, ch.ID, len(vec), dim)
		}

		meta, err := json.Marshal(ch.Metadata)
		if err != nil {
			return fmt.Errorf("encoding metadata of %s: %w", ch.ID, err)
		}
		addedAt, _ := ch.Metadata[domain.MetaAddedAt].(string)

		if _, err := stmt.ExecContext(ctx, ch.ID, ch.DocumentID, ch.Content, ch.Position,
			ch.Source(), addedAt, string(meta), vecindex.EncodeEmbedding(vec)); err != nil {
			return fmt.Errorf("inserting chunk %s: %w", ch.ID, err)
		}
	}
	return nil
}

// dimensions returns the recorded dimension, 0 for an empty collection.
func (c *vectorCollection) dimensions(ctx context.Context) (int, error) {
	var value string
	err := c.db.QueryRowContext(ctx,
		`SELECT value FROM collection_meta WHERE key = ?`, metaDimensions).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading dimension: %w", err)
	}
	return strconv.Atoi(value)
}

func (c *vectorCollection) count(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return n, nil
}

// load returns the cached snapshot, reading every row when it is stale.
// The caller holds c.mu.
func (c *vectorCollection) load(ctx context.Context) (*snapshot, error) {
	if c.snapshot != nil {
		return c.snapshot, nil
	}

	rows, err := c.db.QueryContext(ctx, `
		SELECT id, document_id, content, position, metadata, embedding
		FROM chunks ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("reading chunks: %w", err)
	}
	defer rows.Close()

	snap := &snapshot{}
	for rows.Next() {
		var ch domain.Chunk
		var meta string
		var blob []byte
		if err := rows.Scan(&ch.ID, &ch.DocumentID, &ch.Content, &ch.Position, &meta, &blob); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		if err := json.Unmarshal([]byte(meta), &ch.Metadata); err != nil {
			return nil, fmt.Errorf("%w: metadata of %s: %w", domain.ErrCacheCorruption, ch.ID, err)
		}
		vec, err := vecindex.DecodeEmbedding(blob)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrCacheCorruption, err)
		}
		if err := snap.index.Add(ch.ID, vec); err != nil {
			return nil, err
		}
		snap.chunks = append(snap.chunks, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	c.snapshot = snap
	return snap, nil
}

func (c *vectorCollection) describe(ctx context.Context) (*domain.Collection, error) {
	n, err := c.count(ctx)
	if err != nil {
		return nil, err
	}
	dim, err := c.dimensions(ctx)
	if err != nil {
		return nil, err
	}
	return &domain.Collection{
		ID:          c.spec.ID,
		Fingerprint: c.spec.Fingerprint,
		Backend:     domain.BackendIncremental,
		Location:    c.spec.Dir,
		VectorCount: n,
		Dimensions:  dim,
		State:       domain.StateReady,
	}, nil
}
