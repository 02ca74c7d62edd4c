package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/paperqa/internal/core/domain"
)

const testFP = "0123456789abcdef0123456789abcdef"

func testSpec(dir string) domain.CollectionSpec {
	return domain.CollectionSpec{
		ID:          domain.CollectionID(domain.BackendBatchOnly, testFP),
		Fingerprint: testFP,
		Dir:         dir,
		Source:      "paper.pdf",
	}
}

func testChunks() ([]domain.Chunk, [][]float32) {
	chunks := []domain.Chunk{
		{ID: testFP + "_0", DocumentID: testFP, Content: "alpha", Position: 0,
			Metadata: map[string]any{domain.MetaSourceFile: "paper.pdf", domain.MetaPage: 1}},
		{ID: testFP + "_1", DocumentID: testFP, Content: "beta", Position: 1,
			Metadata: map[string]any{domain.MetaSourceFile: "paper.pdf", domain.MetaPage: 2}},
		{ID: testFP + "_2", DocumentID: testFP, Content: "gamma", Position: 2,
			Metadata: map[string]any{domain.MetaSourceFile: "paper.pdf", domain.MetaPage: 2}},
	}
	vectors := [][]float32{{1, 0, 0}, {0, 1, 0}, {0.7, 0.7, 0}}
	return chunks, vectors
}

func TestVectorStore_Capabilities(t *testing.T) {
	s := NewVectorStore()

	assert.Equal(t, domain.BackendBatchOnly, s.Kind())
	assert.False(t, s.Capabilities().SupportsIncrementalUpdate())
	assert.True(t, s.Capabilities().ExplicitPersistence)

	_, err := s.Add(context.Background(), "x", nil, nil)
	assert.ErrorIs(t, err, domain.ErrUnsupportedOperation)
	_, err = s.DeleteBySource(context.Background(), "x", "paper.pdf")
	assert.ErrorIs(t, err, domain.ErrUnsupportedOperation)
}

func TestVectorStore_BuildAndRetrieve(t *testing.T) {
	ctx := context.Background()
	s := NewVectorStore()
	spec := testSpec(t.TempDir())
	chunks, vectors := testChunks()

	coll, err := s.Build(ctx, spec, chunks, vectors)
	require.NoError(t, err)
	assert.Equal(t, 3, coll.VectorCount)
	assert.Equal(t, 3, coll.Dimensions)
	assert.Equal(t, domain.StateReady, coll.State)

	results, err := s.Retrieve(ctx, spec.ID, []float32{1, 0.1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "alpha", results[0].Chunk.Content)
	assert.Equal(t, "gamma", results[1].Chunk.Content)

	sources, err := s.ListSources(ctx, spec.ID)
	require.NoError(t, err)
	assert.Equal(t, []domain.SourceSummary{{Source: "paper.pdf", ChunkCount: 3}}, sources)
}

func TestVectorStore_BuildRejectsBadInput(t *testing.T) {
	s := NewVectorStore()
	chunks, vectors := testChunks()

	_, err := s.Build(context.Background(), testSpec(t.TempDir()), chunks, vectors[:2])
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	vectors[1] = []float32{1, 0}
	_, err = s.Build(context.Background(), testSpec(t.TempDir()), chunks, vectors)
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "mixed dimensions")
}

func TestVectorStore_LostWithoutSave(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	chunks, vectors := testChunks()

	s := NewVectorStore()
	_, err := s.Build(ctx, testSpec(dir), chunks, vectors)
	require.NoError(t, err)

	_, err = NewVectorStore().Load(ctx, testSpec(dir))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestVectorStore_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	spec := testSpec(dir)
	chunks, vectors := testChunks()

	s := NewVectorStore()
	_, err := s.Build(ctx, spec, chunks, vectors)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, spec.ID, dir))

	for _, f := range []string{IndexFile, DocstoreFile} {
		_, err := os.Stat(filepath.Join(dir, f))
		assert.NoError(t, err, f)
	}

	fresh := NewVectorStore()
	coll, err := fresh.Load(ctx, spec)
	require.NoError(t, err)
	assert.Equal(t, 3, coll.VectorCount)

	results, err := fresh.Retrieve(ctx, spec.ID, []float32{0, 1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "beta", results[0].Chunk.Content)
	assert.Equal(t, 2, results[0].Chunk.Page(), "page survives the JSON round trip")
}

func TestVectorStore_LoadCorrupt(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	spec := testSpec(dir)
	chunks, vectors := testChunks()

	s := NewVectorStore()
	_, err := s.Build(ctx, spec, chunks, vectors)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, spec.ID, dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, DocstoreFile), []byte(`{"chunks":[]}`), 0600))
	_, err = NewVectorStore().Load(ctx, spec)
	assert.ErrorIs(t, err, domain.ErrCacheCorruption)

	require.NoError(t, os.WriteFile(filepath.Join(dir, IndexFile), []byte{1}, 0600))
	_, err = NewVectorStore().Load(ctx, spec)
	assert.ErrorIs(t, err, domain.ErrCacheCorruption)

	// dim=1, n=0xFFFFFFFF with no items.
	header := []byte{1, 0, 0, 0, 0xff, 0xff, 0xff, 0xff}
	require.NoError(t, os.WriteFile(filepath.Join(dir, IndexFile), header, 0600))
	_, err = NewVectorStore().Load(ctx, spec)
	assert.ErrorIs(t, err, domain.ErrCacheCorruption)
}

func TestVectorStore_ReleaseAndMissing(t *testing.T) {
	ctx := context.Background()
	s := NewVectorStore()
	spec := testSpec(t.TempDir())
	chunks, vectors := testChunks()
	_, err := s.Build(ctx, spec, chunks, vectors)
	require.NoError(t, err)

	n, err := s.Count(ctx, spec.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	require.NoError(t, s.Release(spec.ID))
	_, err = s.Count(ctx, spec.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = s.Retrieve(ctx, spec.ID, []float32{1, 0, 0}, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, s.Save(ctx, spec.ID, t.TempDir()), domain.ErrNotFound)
	assert.NoError(t, s.Close())
}
