package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/paperqa/internal/core/domain"
	"github.com/custodia-labs/paperqa/internal/core/ports/driven"
	"github.com/custodia-labs/paperqa/internal/core/ports/driving"
	"github.com/custodia-labs/paperqa/internal/logger"
)

// Ensure Manager implements the interface.
var _ driving.IndexManager = (*Manager)(nil)

// mimeTypes maps supported file extensions to the MIME type handed to the loader.
var mimeTypes = map[string]string{
	".pdf":      "application/pdf",
	".txt":      "text/plain",
	".md":       "text/markdown",
	".markdown": "text/markdown",
}

// MIMETypeFor returns the MIME type for a path, or "" if the extension is unknown.
func MIMETypeFor(path string) string {
	return mimeTypes[strings.ToLower(filepath.Ext(path))]
}

// slot guards one collection. Mutations hold the write lock for their whole
// duration, so readers queue behind them and never observe a partial build.
type slot struct {
	mu    sync.RWMutex
	state domain.CollectionState
}

// active is the collection questions are answered from.
type active struct {
	pointer    domain.ActivePointer
	collection *domain.Collection
}

// Manager owns the document set lifecycle: fingerprinting, cache lookup,
// chunking, embedding, vector store builds and the active collection.
type Manager struct {
	store   driven.VectorStore
	cache   driven.CacheStore
	loader  driven.NormaliserRegistry
	chunker driven.Chunker
	gateway *EmbeddingGateway
	now     func() time.Time

	mu      sync.Mutex // guards slots and current
	slots   map[string]*slot
	current *active

	restoreOnce sync.Once
}

// NewManager creates an index manager. The store's kind decides the
// collection id prefix and which operations are available.
func NewManager(
	store driven.VectorStore,
	cache driven.CacheStore,
	loader driven.NormaliserRegistry,
	chunker driven.Chunker,
	gateway *EmbeddingGateway,
) *Manager {
	return &Manager{
		store:   store,
		cache:   cache,
		loader:  loader,
		chunker: chunker,
		gateway: gateway,
		now:     time.Now,
		slots:   make(map[string]*slot),
	}
}

// Capabilities returns the capability set of the configured backend.
func (m *Manager) Capabilities() domain.Capabilities {
	return m.store.Capabilities()
}

// Ingest makes the file the active document set. When the same bytes were
// ingested before with the same backend and the stored collection still
// loads, it is reused without chunking or embedding anything.
func (m *Manager) Ingest(ctx context.Context, path, name string) (res domain.IngestResult) {
	defer func() {
		if r := recover(); r != nil {
			res = ingestFailure(fmt.Errorf("ingest panicked: %v", r))
		}
	}()

	// Settle the stored pointer before any collection lock is taken.
	m.activeSnapshot(ctx)

	res, prev := m.ingest(ctx, path, name)
	m.releasePrevious(prev)
	return res
}

// ingest runs under the collection's write lock and returns the collection
// it displaced, if any.
func (m *Manager) ingest(ctx context.Context, path, name string) (domain.IngestResult, *active) {
	logger.Section("Ingest")
	start := m.now()

	name, err := m.validateFile(path, name)
	if err != nil {
		return ingestFailure(err), nil
	}

	fp, err := FingerprintFile(path)
	if err != nil {
		return ingestFailure(err), nil
	}
	id := domain.CollectionID(m.store.Kind(), fp)
	ptr := domain.ActivePointer{Fingerprint: fp, CollectionID: id, Backend: m.store.Kind()}
	logger.Debug("Fingerprint %s -> collection %s", fp, id)

	s := m.slot(id)
	s.mu.Lock()
	defer s.mu.Unlock()

	if info, coll, ok := m.tryCache(ctx, fp, id, true); ok {
		s.state = domain.StateReady
		prev := m.activate(ptr, coll)
		logger.Info("Loaded %s from cache (%d vectors)", id, coll.VectorCount)
		return domain.IngestResult{
			Success:  true,
			Message:  fmt.Sprintf("Loaded %q from cache (%d chunks)", info.Name, coll.VectorCount),
			Document: info,
			CacheHit: true,
		}, prev
	}

	s.state = domain.StateBuilding
	info, coll, err := m.build(ctx, path, name, fp, id, start)
	if err != nil {
		s.state = domain.StateAbsent
		logger.Warn("Ingest of %s failed: %v", name, err)
		return ingestFailure(err), nil
	}
	s.state = domain.StateReady
	prev := m.activate(ptr, coll)

	logger.Info("Ingested %s: %d pages, %d chunks in %s", name, info.PagesCount, info.ChunksCount, info.ProcessingTime)
	return domain.IngestResult{
		Success:  true,
		Message:  fmt.Sprintf("Ingested %q (%d pages, %d chunks)", name, info.PagesCount, info.ChunksCount),
		Document: info,
	}, prev
}

// Add appends a file to the active document set. Backends without
// incremental update refuse unless opts.AllowRebuild is set, in which case
// the file replaces the active document set.
func (m *Manager) Add(ctx context.Context, path, name string, opts domain.AddOptions) (res domain.IngestResult) {
	defer func() {
		if r := recover(); r != nil {
			res = ingestFailure(fmt.Errorf("add panicked: %v", r))
		}
	}()

	logger.Section("Add")

	cur := m.activeSnapshot(ctx)
	if cur == nil {
		return ingestFailure(fmt.Errorf("%w: ingest a document first", domain.ErrNoDocument))
	}

	if !m.store.Capabilities().SupportsIncrementalUpdate() {
		if !opts.AllowRebuild {
			return ingestFailure(fmt.Errorf("%w: %s backend cannot add documents; rebuilding would replace %s",
				domain.ErrUnsupportedOperation, m.store.Kind(), cur.collection.ID))
		}
		logger.Info("Backend %s cannot add; rebuilding with %s as the only document", m.store.Kind(), path)
		res = m.Ingest(ctx, path, name)
		if res.Success {
			res.Message = "Replaced the active document set: " + res.Message
		}
		return res
	}

	start := m.now()
	name, err := m.validateFile(path, name)
	if err != nil {
		return ingestFailure(err)
	}
	fp, err := FingerprintFile(path)
	if err != nil {
		return ingestFailure(err)
	}

	id := cur.collection.ID
	s := m.slot(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.CanRead() {
		return ingestFailure(fmt.Errorf("%w: collection %s is %s", domain.ErrNoDocument, id, s.state))
	}

	doc, chunks, err := m.load(ctx, path, name, fp)
	if err != nil {
		return ingestFailure(err)
	}
	// Appended chunks get ids of their own so the same bytes can be added
	// under several names.
	addedAt := m.now().UTC().Format(time.RFC3339)
	batch := uuid.NewString()
	for i := range chunks {
		chunks[i].ID = fmt.Sprintf("add_%s_%d", batch, chunks[i].Position)
		if chunks[i].Metadata == nil {
			chunks[i].Metadata = make(map[string]any, 2)
		}
		chunks[i].Metadata[domain.MetaAddedAt] = addedAt
		chunks[i].Metadata[domain.MetaSourceFile] = name
	}

	vectors, err := m.embed(ctx, chunks)
	if err != nil {
		return ingestFailure(err)
	}

	n, err := m.store.Add(ctx, id, chunks, vectors)
	if err != nil {
		return ingestFailure(fmt.Errorf("add to %s: %w", id, err))
	}

	entry := m.entryFor(cur.pointer.Fingerprint)
	if entry != nil {
		entry.Chunks = append(entry.Chunks, chunkMetadata(chunks)...)
		entry.Document.ChunksCount += n
		entry.UpdatedAt = m.now().UTC()
		if err := m.cache.Write(cur.pointer.Fingerprint, entry); err != nil {
			logger.Warn("Failed to update cache record for %s: %v", id, err)
		}
	}
	m.refreshCount(ctx, id)

	info := &domain.DocumentInfo{
		Fingerprint:    fp,
		Name:           name,
		Path:           path,
		PagesCount:     len(doc.Pages),
		ChunksCount:    n,
		IngestedAt:     m.now().UTC(),
		ProcessingTime: m.now().Sub(start),
		Backend:        m.store.Kind(),
	}
	logger.Info("Added %s to %s: %d chunks", name, id, n)
	return domain.IngestResult{
		Success:  true,
		Message:  fmt.Sprintf("Added %q (%d chunks)", name, n),
		Document: info,
	}
}

// Delete removes every chunk of source from the active document set.
func (m *Manager) Delete(ctx context.Context, source string) domain.DeleteResult {
	logger.Section("Delete")

	if !m.store.Capabilities().SupportsIncrementalUpdate() {
		return deleteFailure(fmt.Errorf("%w: %s backend cannot delete documents",
			domain.ErrUnsupportedOperation, m.store.Kind()))
	}
	if strings.TrimSpace(source) == "" {
		return deleteFailure(fmt.Errorf("%w: source is required", domain.ErrInvalidInput))
	}

	cur := m.activeSnapshot(ctx)
	if cur == nil {
		return deleteFailure(fmt.Errorf("%w: ingest a document first", domain.ErrNoDocument))
	}

	id := cur.collection.ID
	s := m.slot(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.CanRead() {
		return deleteFailure(fmt.Errorf("%w: collection %s is %s", domain.ErrNoDocument, id, s.state))
	}

	s.state = domain.StateDeleting
	defer func() { s.state = domain.StateReady }()

	n, err := m.store.DeleteBySource(ctx, id, source)
	if err != nil {
		return deleteFailure(fmt.Errorf("delete %q: %w", source, err))
	}

	entry := m.entryFor(cur.pointer.Fingerprint)
	if entry != nil {
		entry.Chunks = slices.DeleteFunc(entry.Chunks, func(md map[string]any) bool {
			src, _ := md[domain.MetaSourceFile].(string)
			return src == source
		})
		entry.Document.ChunksCount = max(entry.Document.ChunksCount-n, 0)
		entry.UpdatedAt = m.now().UTC()
		if err := m.cache.Write(cur.pointer.Fingerprint, entry); err != nil {
			logger.Warn("Failed to update cache record for %s: %v", id, err)
		}
	}
	m.refreshCount(ctx, id)

	logger.Info("Deleted %d chunks of %s from %s", n, source, id)
	return domain.DeleteResult{
		Success:      true,
		Message:      fmt.Sprintf("Deleted %d chunks of %q", n, source),
		DeletedCount: n,
	}
}

// List returns the distinct sources of the active document set.
func (m *Manager) List(ctx context.Context) domain.ListResult {
	cur := m.activeSnapshot(ctx)
	if cur == nil {
		err := fmt.Errorf("%w: ingest a document first", domain.ErrNoDocument)
		return domain.ListResult{Message: err.Error(), Err: err}
	}

	id := cur.collection.ID
	s := m.slot(id)
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.state.CanRead() {
		err := fmt.Errorf("%w: collection %s is %s", domain.ErrNoDocument, id, s.state)
		return domain.ListResult{Message: err.Error(), Err: err}
	}

	sources, err := m.store.ListSources(ctx, id)
	if err != nil {
		err = fmt.Errorf("list %s: %w", id, err)
		return domain.ListResult{Message: err.Error(), Err: err}
	}
	if sources == nil {
		sources = []domain.SourceSummary{}
	}

	return domain.ListResult{
		Success:   true,
		Message:   fmt.Sprintf("%d documents", len(sources)),
		Documents: sources,
	}
}

// Info describes the active document set.
func (m *Manager) Info(ctx context.Context) domain.InfoResult {
	cur := m.activeSnapshot(ctx)
	if cur == nil {
		return domain.InfoResult{Success: true}
	}

	coll := *cur.collection
	res := domain.InfoResult{Success: true, HasDocument: true, Collection: &coll}
	if entry := m.entryFor(cur.pointer.Fingerprint); entry != nil {
		doc := entry.Document
		res.Document = &doc
	}
	return res
}

// Reset forgets the active document set. Cache entries stay on disk so a
// later ingest of the same file is a cache hit.
func (m *Manager) Reset(ctx context.Context) error {
	cur := m.activeSnapshot(ctx)
	if cur != nil {
		s := m.slot(cur.collection.ID)
		s.mu.Lock()
		defer s.mu.Unlock()
		if err := m.store.Release(cur.collection.ID); err != nil {
			logger.Warn("Failed to release %s: %v", cur.collection.ID, err)
		}
		s.state = domain.StateAbsent
	}

	m.mu.Lock()
	m.current = nil
	m.mu.Unlock()

	if err := m.cache.ClearActive(); err != nil {
		return fmt.Errorf("clear active collection: %w", err)
	}
	logger.Info("Active collection cleared")
	return nil
}

// Active returns the active collection, or domain.ErrNoDocument.
func (m *Manager) Active(ctx context.Context) (*domain.Collection, error) {
	cur := m.activeSnapshot(ctx)
	if cur == nil {
		return nil, domain.ErrNoDocument
	}
	coll := *cur.collection
	return &coll, nil
}

// Retrieve returns the top-k chunks of the active collection for a query
// vector. It waits for any in-flight mutation of the collection. Returns
// domain.ErrNoDocument when nothing is loaded or the collection is empty.
func (m *Manager) Retrieve(ctx context.Context, query []float32, k int) ([]domain.ScoredChunk, *domain.Collection, error) {
	cur := m.activeSnapshot(ctx)
	if cur == nil {
		return nil, nil, domain.ErrNoDocument
	}

	id := cur.collection.ID
	s := m.slot(id)
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.state.CanRead() {
		return nil, nil, fmt.Errorf("%w: collection %s is %s", domain.ErrNoDocument, id, s.state)
	}

	count, err := m.store.Count(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: count %s: %w", domain.ErrRetrieval, id, err)
	}
	if count == 0 {
		return nil, nil, fmt.Errorf("%w: collection %s is empty", domain.ErrNoDocument, id)
	}

	results, err := m.store.Retrieve(ctx, id, query, k)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", domain.ErrRetrieval, err)
	}
	coll := *cur.collection
	coll.VectorCount = count
	return results, &coll, nil
}

// validateFile checks the file exists and has a supported format, and
// returns the display name.
func (m *Manager) validateFile(path, name string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("%w: file path is required", domain.ErrInvalidInput)
	}
	st, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", domain.ErrNotFound, path)
		}
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	if st.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", domain.ErrInvalidInput, path)
	}

	mimeType := MIMETypeFor(path)
	if mimeType == "" || !slices.Contains(m.loader.SupportedMIMETypes(), mimeType) {
		return "", fmt.Errorf("%w: unsupported file format %q", domain.ErrInvalidInput, filepath.Ext(path))
	}

	if strings.TrimSpace(name) == "" {
		name = filepath.Base(path)
	}
	return name, nil
}

// tryCache reuses a cached collection. Every failure is a miss. With
// needBase set, an entry whose own document was deleted is a miss too.
func (m *Manager) tryCache(ctx context.Context, fp, id string, needBase bool) (*domain.DocumentInfo, *domain.Collection, bool) {
	lookup := m.cache.Lookup(fp)
	if !lookup.Hit() {
		m.logMiss(fp, lookup.Reason, lookup.Err)
		return nil, nil, false
	}

	entry := lookup.Entry
	if entry.Backend != m.store.Kind() {
		m.logMiss(fp, domain.MissBackend, fmt.Errorf("cached %s, configured %s", entry.Backend, m.store.Kind()))
		return nil, nil, false
	}
	if len(entry.Chunks) == 0 {
		m.logMiss(fp, domain.MissEmptyChunkList, nil)
		return nil, nil, false
	}
	if needBase && !hasSource(entry.Chunks, entry.Document.Name) {
		m.logMiss(fp, domain.MissBaseDeleted, fmt.Errorf("%q was deleted from %s", entry.Document.Name, id))
		return nil, nil, false
	}

	spec := domain.CollectionSpec{ID: id, Fingerprint: fp, Dir: m.cache.Dir(fp), Source: entry.Document.Name}
	coll, err := m.store.Load(ctx, spec)
	if err != nil {
		m.logMiss(fp, domain.MissDangling, err)
		return nil, nil, false
	}
	if coll.VectorCount == 0 {
		_ = m.store.Release(id)
		m.logMiss(fp, domain.MissDangling, errors.New("collection is empty"))
		return nil, nil, false
	}

	info := entry.Document
	return &info, coll, true
}

func (m *Manager) logMiss(fp string, reason domain.CacheMissReason, err error) {
	switch {
	case errors.Is(err, domain.ErrCacheCorruption):
		logger.Warn("Cache record for %s is unreadable, rebuilding: %v", fp, err)
	case err != nil:
		logger.Debug("Cache miss for %s (%s): %v", fp, reason, err)
	default:
		logger.Debug("Cache miss for %s (%s)", fp, reason)
	}
}

// build runs the full pipeline. On failure nothing is left behind: the
// in-process handle is released and the cache directory removed.
func (m *Manager) build(
	ctx context.Context, path, name, fp, id string, start time.Time,
) (info *domain.DocumentInfo, coll *domain.Collection, err error) {
	dir := m.cache.Dir(fp)

	// Start from a clean directory so stale files of an older build or
	// another backend are never mixed in.
	_ = m.store.Release(id)
	if err := m.cache.Remove(fp); err != nil {
		return nil, nil, fmt.Errorf("clear cache dir: %w", err)
	}

	defer func() {
		if err != nil {
			_ = m.store.Release(id)
			if rmErr := m.cache.Remove(fp); rmErr != nil {
				logger.Warn("Failed to remove partial cache dir %s: %v", dir, rmErr)
			}
		}
	}()

	doc, chunks, err := m.load(ctx, path, name, fp)
	if err != nil {
		return nil, nil, err
	}

	vectors, err := m.embed(ctx, chunks)
	if err != nil {
		return nil, nil, err
	}

	done := logger.Timed("build " + id)
	spec := domain.CollectionSpec{ID: id, Fingerprint: fp, Dir: dir, Source: name}
	coll, err = m.store.Build(ctx, spec, chunks, vectors)
	done()
	if err != nil {
		return nil, nil, fmt.Errorf("build %s: %w", id, err)
	}
	if err := m.store.Save(ctx, id, dir); err != nil {
		return nil, nil, fmt.Errorf("save %s: %w", id, err)
	}

	now := m.now().UTC()
	info = &domain.DocumentInfo{
		Fingerprint:    fp,
		Name:           name,
		Path:           path,
		PagesCount:     len(doc.Pages),
		ChunksCount:    len(chunks),
		IngestedAt:     now,
		ProcessingTime: m.now().Sub(start),
		Backend:        m.store.Kind(),
	}
	entry := &domain.CacheEntry{
		FormatVersion: domain.CacheFormatVersion,
		Backend:       m.store.Kind(),
		CollectionID:  id,
		CreatedAt:     now,
		UpdatedAt:     now,
		Document:      *info,
		Chunks:        chunkMetadata(chunks),
	}
	if err := m.cache.Write(fp, entry); err != nil {
		return nil, nil, fmt.Errorf("write cache record: %w", err)
	}

	return info, coll, nil
}

// load reads and chunks a file.
func (m *Manager) load(ctx context.Context, path, name, fp string) (*domain.LoadedDocument, []domain.Chunk, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}

	raw := &domain.RawDocument{
		Path:     path,
		Name:     name,
		MIMEType: MIMETypeFor(path),
		Content:  content,
	}
	doc, err := m.loader.Normalise(ctx, raw)
	if err != nil {
		return nil, nil, fmt.Errorf("load %s: %w", name, err)
	}
	doc.Name = name
	logger.Debug("Loaded %s: %d pages", name, len(doc.Pages))

	chunks, err := m.chunker.Chunk(ctx, doc, fp)
	if err != nil {
		return nil, nil, fmt.Errorf("chunk %s: %w", name, err)
	}
	logger.Debug("Split %s into %d chunks", name, len(chunks))
	return doc, chunks, nil
}

func (m *Manager) embed(ctx context.Context, chunks []domain.Chunk) ([][]float32, error) {
	done := logger.Timed(fmt.Sprintf("embed %d chunks", len(chunks)))
	defer done()

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	return m.gateway.Embed(ctx, texts)
}

func (m *Manager) slot(id string) *slot {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[id]
	if !ok {
		s = &slot{state: domain.StateAbsent}
		m.slots[id] = s
	}
	return s
}

// activate records the active collection in memory and on disk and
// returns the collection it replaced.
func (m *Manager) activate(ptr domain.ActivePointer, coll *domain.Collection) *active {
	m.mu.Lock()
	prev := m.current
	m.current = &active{pointer: ptr, collection: coll}
	m.mu.Unlock()

	if err := m.cache.SaveActive(ptr); err != nil {
		logger.Warn("Failed to persist active collection: %v", err)
	}
	if prev != nil && prev.collection.ID == coll.ID {
		return nil
	}
	return prev
}

// releasePrevious drops the in-process handle of a displaced collection.
// It must be called without holding any collection lock.
func (m *Manager) releasePrevious(prev *active) {
	if prev == nil {
		return
	}
	id := prev.collection.ID
	s := m.slot(id)
	s.mu.Lock()
	defer s.mu.Unlock()

	m.mu.Lock()
	reactivated := m.current != nil && m.current.collection.ID == id
	m.mu.Unlock()
	if reactivated {
		return
	}

	if err := m.store.Release(id); err != nil {
		logger.Warn("Failed to release %s: %v", id, err)
	}
	s.state = domain.StateAbsent
}

// activeSnapshot returns the active collection, restoring it from the
// stored pointer on first use.
func (m *Manager) activeSnapshot(ctx context.Context) *active {
	m.restoreOnce.Do(func() { m.restore(ctx) })

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil
	}
	cur := *m.current
	return &cur
}

// restore reopens the collection named by the stored active pointer.
func (m *Manager) restore(ctx context.Context) {
	ptr, err := m.cache.LoadActive()
	if err != nil {
		logger.Warn("Ignoring unreadable active pointer: %v", err)
		return
	}
	if ptr == nil {
		return
	}
	if ptr.Backend != m.store.Kind() {
		logger.Debug("Active collection %s uses backend %s, configured %s", ptr.CollectionID, ptr.Backend, m.store.Kind())
		return
	}

	s := m.slot(ptr.CollectionID)
	s.mu.Lock()
	defer s.mu.Unlock()

	_, coll, ok := m.tryCache(ctx, ptr.Fingerprint, ptr.CollectionID, false)
	if !ok {
		logger.Warn("Active collection %s is no longer available", ptr.CollectionID)
		return
	}
	s.state = domain.StateReady

	m.mu.Lock()
	m.current = &active{pointer: *ptr, collection: coll}
	m.mu.Unlock()
	logger.Debug("Restored active collection %s", coll)
}

func (m *Manager) entryFor(fp string) *domain.CacheEntry {
	lookup := m.cache.Lookup(fp)
	if !lookup.Hit() {
		return nil
	}
	return lookup.Entry
}

// refreshCount updates the in-memory vector count after a mutation.
func (m *Manager) refreshCount(ctx context.Context, id string) {
	n, err := m.store.Count(ctx, id)
	if err != nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil && m.current.collection.ID == id {
		coll := *m.current.collection
		coll.VectorCount = n
		m.current.collection = &coll
	}
}

// chunkMetadata copies the metadata of each chunk with its id, for the
// cache record.
func chunkMetadata(chunks []domain.Chunk) []map[string]any {
	out := make([]map[string]any, len(chunks))
	for i, c := range chunks {
		md := make(map[string]any, len(c.Metadata)+1)
		for k, v := range c.Metadata {
			md[k] = v
		}
		md["chunk_id"] = c.ID
		out[i] = md
	}
	return out
}

// hasSource reports whether any chunk record came from source.
func hasSource(chunks []map[string]any, source string) bool {
	return slices.ContainsFunc(chunks, func(md map[string]any) bool {
		src, _ := md[domain.MetaSourceFile].(string)
		return src == source
	})
}

func ingestFailure(err error) domain.IngestResult {
	return domain.IngestResult{Message: err.Error(), Err: err}
}

func deleteFailure(err error) domain.DeleteResult {
	return domain.DeleteResult{Message: err.Error(), Err: err}
}
