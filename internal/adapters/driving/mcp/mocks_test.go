package mcp

import (
	"context"

	"github.com/custodia-labs/paperqa/internal/core/domain"
)

// mockIndexManager is a mock implementation of driving.IndexManager.
type mockIndexManager struct {
	ingest domain.IngestResult
	add    domain.IngestResult
	del    domain.DeleteResult
	list   domain.ListResult
	info   domain.InfoResult

	lastPath string
	lastName string
	lastOpts domain.AddOptions
}

func (m *mockIndexManager) Ingest(_ context.Context, path, name string) domain.IngestResult {
	m.lastPath, m.lastName = path, name
	return m.ingest
}

func (m *mockIndexManager) Add(_ context.Context, path, name string, opts domain.AddOptions) domain.IngestResult {
	m.lastPath, m.lastName, m.lastOpts = path, name, opts
	return m.add
}

func (m *mockIndexManager) Delete(_ context.Context, source string) domain.DeleteResult {
	m.lastName = source
	return m.del
}

func (m *mockIndexManager) List(_ context.Context) domain.ListResult {
	return m.list
}

func (m *mockIndexManager) Info(_ context.Context) domain.InfoResult {
	return m.info
}

func (m *mockIndexManager) Reset(_ context.Context) error {
	return nil
}

func (m *mockIndexManager) Capabilities() domain.Capabilities {
	return domain.CapabilitiesOf(domain.BackendIncremental)
}

// mockQueryEngine is a mock implementation of driving.QueryEngine.
type mockQueryEngine struct {
	result  domain.AskResult
	lastReq domain.AskRequest
}

func (m *mockQueryEngine) Ask(_ context.Context, req domain.AskRequest) domain.AskResult {
	m.lastReq = req
	return m.result
}

func (m *mockQueryEngine) Summarize(_ context.Context, req domain.AskRequest) domain.AskResult {
	m.lastReq = req
	return m.result
}

// mockHistoryService is a mock implementation of driving.HistoryService.
type mockHistoryService struct {
	records []domain.QARecord
	err     error
}

func (m *mockHistoryService) Recent(_ context.Context, _ string, _ int) ([]domain.QARecord, error) {
	return m.records, m.err
}

func newTestServer(index *mockIndexManager, query *mockQueryEngine) *Server {
	s, err := NewServer(&Ports{Index: index, Query: query})
	if err != nil {
		panic(err)
	}
	return s
}
