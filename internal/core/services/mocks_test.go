package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/paperqa/internal/core/domain"
	"github.com/custodia-labs/paperqa/internal/core/ports/driven"
)

// mockEmbedding returns deterministic vectors derived from the text.
type mockEmbedding struct {
	mu        sync.Mutex
	dims      int
	calls     int
	batchLens []int
	failFirst int   // number of leading EmbedBatch calls that fail
	err       error // returned on every call when set
}

func newMockEmbedding(dims int) *mockEmbedding {
	return &mockEmbedding{dims: dims}
}

func (m *mockEmbedding) vector(text string) []float32 {
	v := make([]float32, m.dims)
	for i, r := range text {
		v[i%m.dims] += float32(r%31) + 1
	}
	if strings.TrimSpace(text) == "" {
		v[0] = 1
	}
	return v
}

func (m *mockEmbedding) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := m.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (m *mockEmbedding) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.batchLens = append(m.batchLens, len(texts))
	if m.err != nil {
		return nil, m.err
	}
	if m.calls <= m.failFirst {
		return nil, errors.New("503 service unavailable")
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.vector(t)
	}
	return out, nil
}

func (m *mockEmbedding) Dimensions() int            { return m.dims }
func (m *mockEmbedding) ModelName() string          { return "mock-embed" }
func (m *mockEmbedding) Ping(context.Context) error { return nil }
func (m *mockEmbedding) Close() error               { return nil }

func (m *mockEmbedding) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

var _ driven.EmbeddingService = (*mockEmbedding)(nil)

// mockLLM records prompts and returns a canned answer.
type mockLLM struct {
	mu      sync.Mutex
	answer  string
	err     error
	prompts []string
	opts    []driven.GenerateOptions
}

func (m *mockLLM) Generate(_ context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, prompt)
	m.opts = append(m.opts, opts)
	if m.err != nil {
		return "", m.err
	}
	return m.answer, nil
}

func (m *mockLLM) ModelName() string          { return "mock-llm" }
func (m *mockLLM) Ping(context.Context) error { return nil }
func (m *mockLLM) Close() error               { return nil }

var _ driven.LLMService = (*mockLLM)(nil)

// mockVectorStore keeps collections in memory and honours the capability
// set of the kind it is created with. persisted tracks what Save/Build
// would have left on disk, keyed by directory.
type mockVectorStore struct {
	mu          sync.Mutex
	kind        domain.BackendKind
	collections map[string]*mockCollection
	persisted   map[string]*mockCollection
	buildErr    error
	builds      int
	adds        int
}

type mockCollection struct {
	chunks  []domain.Chunk
	vectors [][]float32
}

func newMockVectorStore(kind domain.BackendKind) *mockVectorStore {
	return &mockVectorStore{
		kind:        kind,
		collections: make(map[string]*mockCollection),
		persisted:   make(map[string]*mockCollection),
	}
}

func (s *mockVectorStore) Kind() domain.BackendKind { return s.kind }

func (s *mockVectorStore) Capabilities() domain.Capabilities { return domain.CapabilitiesOf(s.kind) }

func (s *mockVectorStore) Build(
	_ context.Context, spec domain.CollectionSpec, chunks []domain.Chunk, vectors [][]float32,
) (*domain.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.builds++
	if s.buildErr != nil {
		return nil, s.buildErr
	}
	c := &mockCollection{chunks: append([]domain.Chunk{}, chunks...), vectors: vectors}
	s.collections[spec.ID] = c
	if s.kind == domain.BackendIncremental {
		s.persisted[spec.Dir] = c
	}
	return s.describe(spec.ID, spec, c), nil
}

func (s *mockVectorStore) Load(_ context.Context, spec domain.CollectionSpec) (*domain.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.persisted[spec.Dir]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, spec.Dir)
	}
	s.collections[spec.ID] = c
	return s.describe(spec.ID, spec, c), nil
}

func (s *mockVectorStore) Save(_ context.Context, id, dir string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[id]
	if !ok {
		return domain.ErrNotFound
	}
	s.persisted[dir] = c
	return nil
}

func (s *mockVectorStore) Add(_ context.Context, id string, chunks []domain.Chunk, vectors [][]float32) (int, error) {
	if !s.Capabilities().SupportsIncrementalUpdate() {
		return 0, domain.ErrUnsupportedOperation
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[id]
	if !ok {
		return 0, domain.ErrNotFound
	}
	s.adds++
	c.chunks = append(c.chunks, chunks...)
	c.vectors = append(c.vectors, vectors...)
	return len(chunks), nil
}

func (s *mockVectorStore) DeleteBySource(_ context.Context, id, source string) (int, error) {
	if !s.Capabilities().SupportsIncrementalUpdate() {
		return 0, domain.ErrUnsupportedOperation
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[id]
	if !ok {
		return 0, domain.ErrNotFound
	}
	var keptChunks []domain.Chunk
	var keptVectors [][]float32
	for i, ch := range c.chunks {
		if ch.Source() == source {
			continue
		}
		keptChunks = append(keptChunks, ch)
		keptVectors = append(keptVectors, c.vectors[i])
	}
	removed := len(c.chunks) - len(keptChunks)
	if removed == 0 {
		return 0, fmt.Errorf("%w: source %s", domain.ErrNotFound, source)
	}
	c.chunks, c.vectors = keptChunks, keptVectors
	return removed, nil
}

func (s *mockVectorStore) Retrieve(_ context.Context, id string, query []float32, k int) ([]domain.ScoredChunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := make([]domain.ScoredChunk, len(c.chunks))
	for i, ch := range c.chunks {
		out[i] = domain.ScoredChunk{Chunk: ch, Score: cosine(query, c.vectors[i])}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if k < len(out) {
		out = out[:k]
	}
	return out, nil
}

func (s *mockVectorStore) ListSources(_ context.Context, id string) ([]domain.SourceSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	var out []domain.SourceSummary
	index := map[string]int{}
	for _, ch := range c.chunks {
		i, seen := index[ch.Source()]
		if !seen {
			added, _ := ch.Metadata[domain.MetaAddedAt].(string)
			index[ch.Source()] = len(out)
			out = append(out, domain.SourceSummary{Source: ch.Source(), AddedAt: added})
			i = len(out) - 1
		}
		out[i].ChunkCount++
	}
	return out, nil
}

func (s *mockVectorStore) Count(_ context.Context, id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[id]
	if !ok {
		return 0, domain.ErrNotFound
	}
	return len(c.chunks), nil
}

func (s *mockVectorStore) Release(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections, id)
	return nil
}

func (s *mockVectorStore) Close() error { return nil }

func (s *mockVectorStore) describe(id string, spec domain.CollectionSpec, c *mockCollection) *domain.Collection {
	dims := 0
	if len(c.vectors) > 0 {
		dims = len(c.vectors[0])
	}
	return &domain.Collection{
		ID:          id,
		Fingerprint: spec.Fingerprint,
		Backend:     s.kind,
		Location:    spec.Dir,
		VectorCount: len(c.chunks),
		Dimensions:  dims,
		State:       domain.StateReady,
	}
}

var _ driven.VectorStore = (*mockVectorStore)(nil)

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// mockCacheStore keeps metadata records in memory. Dir is derived from the
// fingerprint so the mock vector store can key persisted data on it.
type mockCacheStore struct {
	mu      sync.Mutex
	entries map[string]*domain.CacheEntry
	corrupt map[string]bool
	active  *domain.ActivePointer
	removed []string
}

func newMockCacheStore() *mockCacheStore {
	return &mockCacheStore{
		entries: make(map[string]*domain.CacheEntry),
		corrupt: make(map[string]bool),
	}
}

func (c *mockCacheStore) Dir(fp string) string { return "/cache/" + fp }

func (c *mockCacheStore) Lookup(fp string) domain.CacheLookup {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.corrupt[fp] {
		return domain.CacheMiss(domain.MissCorrupt, domain.ErrCacheCorruption)
	}
	e, ok := c.entries[fp]
	if !ok {
		return domain.CacheMiss(domain.MissAbsent, nil)
	}
	copied := *e
	return domain.CacheHit(&copied)
}

func (c *mockCacheStore) Write(fp string, entry *domain.CacheEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	copied := *entry
	c.entries[fp] = &copied
	delete(c.corrupt, fp)
	return nil
}

func (c *mockCacheStore) Remove(fp string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, fp)
	c.removed = append(c.removed, fp)
	return nil
}

func (c *mockCacheStore) LoadActive() (*domain.ActivePointer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return nil, nil
	}
	p := *c.active
	return &p, nil
}

func (c *mockCacheStore) SaveActive(ptr domain.ActivePointer) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = &ptr
	return nil
}

func (c *mockCacheStore) ClearActive() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = nil
	return nil
}

func (c *mockCacheStore) entry(fp string) *domain.CacheEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[fp]
}

var _ driven.CacheStore = (*mockCacheStore)(nil)

// mockLoader splits files into pages on form feeds.
type mockLoader struct {
	err error
}

func (l *mockLoader) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.LoadedDocument, error) {
	if l.err != nil {
		return nil, l.err
	}
	doc := &domain.LoadedDocument{Name: raw.Name, Path: raw.Path}
	for i, text := range strings.Split(string(raw.Content), "\f") {
		doc.Pages = append(doc.Pages, domain.Page{Number: i + 1, Text: text})
	}
	return doc, nil
}

func (l *mockLoader) Register(driven.Normaliser) {}

func (l *mockLoader) SupportedMIMETypes() []string { return []string{"application/pdf", "text/plain"} }

var _ driven.NormaliserRegistry = (*mockLoader)(nil)

// mockHistory records QA records.
type mockHistory struct {
	mu      sync.Mutex
	records []domain.QARecord
	err     error
}

func (h *mockHistory) Record(_ context.Context, r domain.QARecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return h.err
	}
	h.records = append(h.records, r)
	return nil
}

func (h *mockHistory) Recent(_ context.Context, sessionID string, limit int) ([]domain.QARecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []domain.QARecord
	for i := len(h.records) - 1; i >= 0 && len(out) < limit; i-- {
		if sessionID == "" || h.records[i].SessionID == sessionID {
			out = append(out, h.records[i])
		}
	}
	return out, nil
}

var (
	_ driven.HistoryRecorder = (*mockHistory)(nil)
	_ driven.HistoryReader   = (*mockHistory)(nil)
)

// mockPrompts serves fixed templates.
type mockPrompts struct {
	prompts map[string]string
}

func (p *mockPrompts) Load(name string) (string, error) {
	if s, ok := p.prompts[name]; ok {
		return s, nil
	}
	return "", fmt.Errorf("%w: prompt %s", domain.ErrNotFound, name)
}

func (p *mockPrompts) Reload() {}

var _ driven.PromptStore = (*mockPrompts)(nil)
