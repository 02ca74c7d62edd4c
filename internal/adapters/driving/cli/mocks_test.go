package cli

import (
	"context"
	"strings"
	"time"

	"github.com/custodia-labs/paperqa/internal/core/domain"
	"github.com/custodia-labs/paperqa/internal/core/ports/driving"
)

type mockIndexManager struct {
	backend  domain.BackendKind
	docs     []domain.SourceSummary
	active   bool
	addCalls []domain.AddOptions
	resets   int
}

func (m *mockIndexManager) Ingest(_ context.Context, path, name string) domain.IngestResult {
	if strings.HasSuffix(path, ".bad") {
		return domain.IngestResult{Message: "could not read " + path, Err: domain.ErrInvalidInput}
	}
	if name == "" {
		name = path
	}
	m.active = true
	m.docs = []domain.SourceSummary{{Source: name, ChunkCount: 3}}
	return domain.IngestResult{
		Success: true,
		Message: "Ingested " + name,
		Document: &domain.DocumentInfo{
			Name:        name,
			Path:        path,
			PagesCount:  2,
			ChunksCount: 3,
			Backend:     m.backend,
		},
	}
}

func (m *mockIndexManager) Add(ctx context.Context, path, name string, opts domain.AddOptions) domain.IngestResult {
	m.addCalls = append(m.addCalls, opts)
	if !domain.CapabilitiesOf(m.backend).SupportsIncrementalUpdate() && !opts.AllowRebuild {
		return domain.IngestResult{
			Message: "backend cannot append documents",
			Err:     domain.ErrUnsupportedOperation,
		}
	}
	if !m.active {
		return m.Ingest(ctx, path, name)
	}
	m.docs = append(m.docs, domain.SourceSummary{Source: name, ChunkCount: 1, AddedAt: "2026-01-02T03:04:05Z"})
	return domain.IngestResult{Success: true, Message: "Added " + name, Document: &domain.DocumentInfo{Name: name}}
}

func (m *mockIndexManager) Delete(_ context.Context, source string) domain.DeleteResult {
	for i, d := range m.docs {
		if d.Source == source {
			m.docs = append(m.docs[:i], m.docs[i+1:]...)
			return domain.DeleteResult{Success: true, Message: "Deleted " + source, DeletedCount: d.ChunkCount}
		}
	}
	return domain.DeleteResult{Message: "no chunks for " + source, Err: domain.ErrNotFound}
}

func (m *mockIndexManager) List(_ context.Context) domain.ListResult {
	if !m.active {
		return domain.ListResult{Message: "no active document", Err: domain.ErrNoDocument}
	}
	return domain.ListResult{Success: true, Documents: m.docs}
}

func (m *mockIndexManager) Info(_ context.Context) domain.InfoResult {
	if !m.active {
		return domain.InfoResult{Success: true}
	}
	return domain.InfoResult{
		Success:     true,
		HasDocument: true,
		Document: &domain.DocumentInfo{
			Name:        m.docs[0].Source,
			Fingerprint: "0123456789abcdef",
			IngestedAt:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		},
		Collection: &domain.Collection{ID: "doc_01234567", Backend: m.backend, VectorCount: 3, Dimensions: 4},
	}
}

func (m *mockIndexManager) Reset(_ context.Context) error {
	m.resets++
	m.active = false
	m.docs = nil
	return nil
}

func (m *mockIndexManager) Capabilities() domain.Capabilities {
	return domain.CapabilitiesOf(m.backend)
}

type mockQueryEngine struct {
	last domain.AskRequest
}

func (m *mockQueryEngine) Ask(_ context.Context, req domain.AskRequest) domain.AskResult {
	m.last = req
	if req.Question == "fail" {
		return domain.AskResult{Question: req.Question, Message: "no active document", Err: domain.ErrNoDocument}
	}
	return domain.AskResult{
		Success:        true,
		Question:       req.Question,
		Answer:         "The answer is 42.",
		ProcessingTime: 1500 * time.Millisecond,
		Sources: []domain.ScoredChunk{{
			Chunk: domain.Chunk{
				Content:  "Forty two is the answer.",
				Metadata: map[string]any{domain.MetaSourceFile: "guide.pdf", domain.MetaPage: 7},
			},
			Score: 0.91,
		}},
	}
}

func (m *mockQueryEngine) Summarize(ctx context.Context, req domain.AskRequest) domain.AskResult {
	req.Question = domain.DefaultSummaryQuestion
	return m.Ask(ctx, req)
}

type mockHistoryService struct {
	records []domain.QARecord
	session string
	limit   int
}

func (m *mockHistoryService) Recent(_ context.Context, sessionID string, limit int) ([]domain.QARecord, error) {
	m.session = sessionID
	m.limit = limit
	return m.records, nil
}

type mockSettingsService struct {
	settings  domain.Settings
	backend   domain.BackendKind
	validated bool
}

func (m *mockSettingsService) Get() (*domain.Settings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(s *domain.Settings) error {
	m.settings = *s
	return nil
}

func (m *mockSettingsService) SetBackend(kind domain.BackendKind) error {
	m.backend = kind
	m.settings.Store.Backend = kind
	return nil
}

func (m *mockSettingsService) SetEmbeddingProvider(p domain.AIProvider, model, apiKey string) error {
	m.settings.Embedding.Provider = p
	m.settings.Embedding.Model = model
	m.settings.Embedding.APIKey = apiKey
	return nil
}

func (m *mockSettingsService) SetLLMProvider(p domain.AIProvider, model, apiKey string) error {
	m.settings.LLM.Provider = p
	m.settings.LLM.Model = model
	m.settings.LLM.APIKey = apiKey
	return nil
}

func (m *mockSettingsService) Validate() error {
	if !m.settings.Embedding.IsConfigured() {
		return domain.ErrEmbeddingUnavailable
	}
	return nil
}

func (m *mockSettingsService) GetDefaults() domain.Settings { return domain.DefaultSettings() }

func (m *mockSettingsService) ValidateEmbeddingConfig() error {
	m.validated = true
	return nil
}

func (m *mockSettingsService) ValidateLLMConfig() error { return nil }

var _ driving.SettingsService = (*mockSettingsService)(nil)

type testServices struct {
	index    *mockIndexManager
	query    *mockQueryEngine
	history  *mockHistoryService
	settings *mockSettingsService
}

// setupTestServices installs mocks behind every command and returns a
// function restoring the previous state.
func setupTestServices() (*testServices, func()) {
	ts := &testServices{
		index:    &mockIndexManager{backend: domain.BackendIncremental},
		query:    &mockQueryEngine{},
		history:  &mockHistoryService{},
		settings: &mockSettingsService{settings: domain.DefaultSettings()},
	}

	prevServices, prevLoader, prevSettings := services, serviceLoader, settingsService
	prevIdentity := identityService
	prevStdin, prevTerminal := stdin, stdinIsTerminal

	services = &Services{Index: ts.index, Query: ts.query, History: ts.history}
	serviceLoader = nil
	settingsService = ts.settings
	identityService = nil
	stdinIsTerminal = func() bool { return false }

	return ts, func() {
		services, serviceLoader, settingsService = prevServices, prevLoader, prevSettings
		identityService = prevIdentity
		stdin, stdinIsTerminal = prevStdin, prevTerminal
		resetFlags()
	}
}

// resetFlags restores flag variables shared between commands.
func resetFlags() {
	docName = ""
	addReplace = false
	outputJSON = false
	askSession = ""
	askTopK = 0
	askSources = false
	historySession = ""
	historyLimit = defaultHistoryLimit
	chatSession = ""
	envFile = ".env"
	loginPort = 0
	loginNoBrowser = false
	loginClientID = ""
	loginClientSecret = ""
}
