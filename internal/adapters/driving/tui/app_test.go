package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/paperqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/paperqa/internal/core/domain"
)

type stubIndex struct{}

func (stubIndex) Ingest(context.Context, string, string) domain.IngestResult {
	return domain.IngestResult{}
}

func (stubIndex) Add(context.Context, string, string, domain.AddOptions) domain.IngestResult {
	return domain.IngestResult{}
}

func (stubIndex) Delete(context.Context, string) domain.DeleteResult { return domain.DeleteResult{} }

func (stubIndex) List(context.Context) domain.ListResult {
	return domain.ListResult{Success: true, Documents: []domain.SourceSummary{{Source: "a.pdf", ChunkCount: 2}}}
}

func (stubIndex) Info(context.Context) domain.InfoResult { return domain.InfoResult{} }

func (stubIndex) Reset(context.Context) error { return nil }

func (stubIndex) Capabilities() domain.Capabilities {
	return domain.CapabilitiesOf(domain.BackendIncremental)
}

type stubQuery struct{}

func (stubQuery) Ask(_ context.Context, req domain.AskRequest) domain.AskResult {
	return domain.AskResult{Success: true, Question: req.Question, Answer: "42"}
}

func (stubQuery) Summarize(ctx context.Context, req domain.AskRequest) domain.AskResult {
	return stubQuery{}.Ask(ctx, req)
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	app, err := NewApp(&Ports{Index: stubIndex{}, Query: stubQuery{}, SessionID: "s"})
	require.NoError(t, err)
	return app
}

func TestPorts_Validate(t *testing.T) {
	assert.ErrorIs(t, (&Ports{Query: stubQuery{}}).Validate(), ErrMissingIndexManager)
	assert.ErrorIs(t, (&Ports{Index: stubIndex{}}).Validate(), ErrMissingQueryEngine)
	assert.NoError(t, (&Ports{Index: stubIndex{}, Query: stubQuery{}}).Validate())
}

func TestNewApp_InvalidPorts(t *testing.T) {
	_, err := NewApp(&Ports{})
	assert.ErrorIs(t, err, ErrMissingIndexManager)
}

func TestApp_InitialState(t *testing.T) {
	app := newTestApp(t)

	assert.Equal(t, messages.ViewChat, app.CurrentView())
	assert.False(t, app.Ready())
	assert.Equal(t, "Initialising...", app.View())
	assert.NotNil(t, app.Init())
}

func TestApp_WindowSize(t *testing.T) {
	app := newTestApp(t)

	app.SetDimensions(100, 30)

	assert.True(t, app.Ready())
	assert.Contains(t, app.View(), "paperqa")
}

func TestApp_CtrlCQuits(t *testing.T) {
	app := newTestApp(t)

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestApp_SwitchToDocuments(t *testing.T) {
	app := newTestApp(t)
	app.SetDimensions(100, 30)

	_, cmd := app.Update(messages.ViewChanged{View: messages.ViewDocuments})
	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewDocuments, app.CurrentView())

	app.Update(cmd())
	require.Len(t, app.Documents().Documents(), 1)
	assert.Contains(t, app.View(), "a.pdf  2 chunks")
}

func TestApp_HelpAndBack(t *testing.T) {
	app := newTestApp(t)
	app.SetDimensions(100, 30)

	app.Update(messages.ViewChanged{View: messages.ViewHelp})
	assert.Contains(t, app.View(), "Help")
	assert.Contains(t, app.View(), "summarise")

	app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, messages.ViewDocuments, app.CurrentView())
}

func TestApp_AnswerRoutedToChat(t *testing.T) {
	app := newTestApp(t)
	app.SetDimensions(100, 30)

	app.Update(messages.AnswerReceived{Result: domain.AskResult{Success: true, Question: "q", Answer: "42"}})

	assert.Equal(t, 1, app.Chat().Transcript())
	assert.Contains(t, app.Chat().Content(), "42")
}

func TestApp_ErrorRecorded(t *testing.T) {
	app := newTestApp(t)

	app.Update(messages.ErrorOccurred{Err: domain.ErrNoDocument})

	assert.ErrorIs(t, app.Err(), domain.ErrNoDocument)
}

func TestApp_QuitMessage(t *testing.T) {
	app := newTestApp(t)

	_, cmd := app.Update(messages.Quit{})

	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
