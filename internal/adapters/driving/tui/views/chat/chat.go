// Package chat provides the question and answer view for the TUI.
package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/paperqa/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/paperqa/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/paperqa/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/paperqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/paperqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/paperqa/internal/core/domain"
	"github.com/custodia-labs/paperqa/internal/core/ports/driving"
)

// chrome is the number of lines used by the header, input and status bar.
const chrome = 8

// excerptLength bounds passages shown under an answer.
const excerptLength = 200

// exchange is one question with its answer, nil while pending.
type exchange struct {
	question string
	result   *domain.AskResult
}

// View is the chat view with transcript, input and status bar.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.QuestionInput
	statusbar *status.Bar
	viewport  viewport.Model
	spinner   spinner.Model

	query     driving.QueryEngine
	sessionID string
	userID    string
	ctx       context.Context

	transcript  []exchange
	thinking    bool
	showSources bool
	width       int
	height      int
	ready       bool
}

// NewView creates a chat view over query.
func NewView(s *styles.Styles, km *keymap.KeyMap, query driving.QueryEngine, sessionID string) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:    s,
		keymap:    km,
		input:     input.NewQuestionInput(s),
		statusbar: status.NewBar(s, km.ChatHelp()),
		viewport:  viewport.New(80, 24-chrome),
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(s.Muted)),
		query:     query,
		sessionID: sessionID,
		ctx:       context.Background(),
		width:     80,
		height:    24,
	}
}

// WithContext sets the context passed to the query engine.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// WithUserID sets the user recorded with every question.
func (v *View) WithUserID(id string) *View {
	v.userID = id
	return v
}

// Init starts the input cursor.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the chat view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.AnswerReceived:
		v.handleAnswer(msg.Result)
		return v, nil

	case messages.ErrorOccurred:
		v.thinking = false
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(msg.Err.Error())
		return v, nil

	case spinner.TickMsg:
		if !v.thinking {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		v.refresh()
		return v, cmd
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keymap.Documents):
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewDocuments}
		}

	case key.Matches(msg, v.keymap.Sources):
		v.showSources = !v.showSources
		v.refresh()
		return v, nil

	case key.Matches(msg, v.keymap.Summarize):
		if v.thinking {
			return v, nil
		}
		return v, v.submit(domain.DefaultSummaryQuestion, true)

	case key.Matches(msg, v.keymap.Ask):
		question := strings.TrimSpace(v.input.Value())
		if question == "" || v.thinking {
			return v, nil
		}
		v.input.Reset()
		return v, v.submit(question, false)
	}

	//nolint:exhaustive // only scrolling keys go to the viewport
	switch msg.Type {
	case tea.KeyUp, tea.KeyDown, tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		v.viewport, cmd = v.viewport.Update(msg)
		return v, cmd
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// submit appends a pending exchange and starts the query.
func (v *View) submit(question string, summary bool) tea.Cmd {
	v.transcript = append(v.transcript, exchange{question: question})
	v.thinking = true
	v.statusbar.SetState(status.StateThinking)
	v.refresh()
	return tea.Batch(v.spinner.Tick, v.ask(question, summary))
}

func (v *View) ask(question string, summary bool) tea.Cmd {
	return func() tea.Msg {
		if v.query == nil {
			return messages.ErrorOccurred{Err: ErrNoQueryEngine}
		}
		req := domain.AskRequest{Question: question, SessionID: v.sessionID, UserID: v.userID}
		if summary {
			return messages.AnswerReceived{Result: v.query.Summarize(v.ctx, req)}
		}
		return messages.AnswerReceived{Result: v.query.Ask(v.ctx, req)}
	}
}

func (v *View) handleAnswer(res domain.AskResult) {
	v.thinking = false
	if n := len(v.transcript); n > 0 && v.transcript[n-1].result == nil {
		v.transcript[n-1].result = &res
	} else {
		v.transcript = append(v.transcript, exchange{question: res.Question, result: &res})
	}

	if res.Success {
		v.statusbar.SetAnswered(len(res.Sources), res.ProcessingTime)
	} else {
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(res.Message)
	}
	v.refresh()
}

// refresh re-renders the transcript into the viewport.
func (v *View) refresh() {
	v.viewport.SetContent(v.renderTranscript())
	v.viewport.GotoBottom()
}

func (v *View) renderTranscript() string {
	if len(v.transcript) == 0 {
		return v.styles.Muted.Render("Ask anything about the active document. ctrl+s summarises it.")
	}

	wrap := v.width - 4
	if wrap < 20 {
		wrap = 20
	}

	var b strings.Builder
	for i, ex := range v.transcript {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(v.styles.Question.Render("Q: "))
		b.WriteString(ex.question)
		b.WriteString("\n")

		switch {
		case ex.result == nil:
			b.WriteString(v.spinner.View())
			b.WriteString(v.styles.Muted.Render(" thinking"))
			b.WriteString("\n")
		case !ex.result.Success:
			b.WriteString(v.styles.Error.Render("✗ " + ex.result.Message))
			b.WriteString("\n")
		default:
			b.WriteString(v.styles.Answer.Width(wrap).Render(ex.result.Answer))
			b.WriteString("\n")
			if v.showSources {
				b.WriteString(v.renderSources(ex.result.Sources, wrap))
			}
		}
	}
	return b.String()
}

func (v *View) renderSources(sources []domain.ScoredChunk, wrap int) string {
	var b strings.Builder
	for i, sc := range sources {
		label := sc.Chunk.Source()
		if label == "" {
			label = "unknown"
		}
		if p := sc.Chunk.Page(); p > 0 {
			label = fmt.Sprintf("%s p.%d", label, p)
		}
		b.WriteString(v.styles.Source.Render(fmt.Sprintf("  [%d] %s", i+1, label)))
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf(" (%.2f)", sc.Score)))
		b.WriteString("\n")
		b.WriteString(v.styles.Muted.Width(wrap).PaddingLeft(6).Render(excerpt(sc.Chunk.Content)))
		b.WriteString("\n")
	}
	return b.String()
}

// excerpt flattens whitespace and cuts text at excerptLength runes.
func excerpt(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	r := []rune(text)
	if len(r) <= excerptLength {
		return text
	}
	return string(r[:excerptLength]) + "…"
}

// View renders the chat view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		v.styles.Title.Render("paperqa"),
		"",
		v.viewport.View(),
		"",
		v.input.View(),
		v.statusbar.View(),
	)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.statusbar.SetWidth(width)
	v.viewport.Width = width
	v.viewport.Height = max(height-chrome, 1)
	v.refresh()
}

// Thinking reports whether a question is in flight.
func (v *View) Thinking() bool {
	return v.thinking
}

// ShowSources reports whether passages are shown under answers.
func (v *View) ShowSources() bool {
	return v.showSources
}

// Transcript returns the number of exchanges.
func (v *View) Transcript() int {
	return len(v.transcript)
}

// Status returns the status bar.
func (v *View) Status() *status.Bar {
	return v.statusbar
}

// Input returns the question input.
func (v *View) Input() *input.QuestionInput {
	return v.input
}

// Content returns the rendered transcript.
func (v *View) Content() string {
	return v.renderTranscript()
}
