// Package documents provides the document list view for the TUI.
package documents

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/paperqa/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/paperqa/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/paperqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/paperqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/paperqa/internal/core/domain"
	"github.com/custodia-labs/paperqa/internal/core/ports/driving"
)

// View lists the documents of the active set.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	statusbar *status.Bar
	index     driving.IndexManager
	ctx       context.Context

	documents     []domain.SourceSummary
	selected      int
	pendingDelete string
	loading       bool
	err           error
	width         int
	height        int
}

// NewView creates a documents view over index.
func NewView(s *styles.Styles, km *keymap.KeyMap, index driving.IndexManager) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &View{
		styles:    s,
		keymap:    km,
		statusbar: status.NewBar(s, km.DocumentsHelp()),
		index:     index,
		ctx:       context.Background(),
		width:     80,
		height:    24,
	}
}

// WithContext sets the context passed to the index manager.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads the document list.
func (v *View) Init() tea.Cmd {
	v.loading = true
	v.pendingDelete = ""
	return v.load()
}

func (v *View) load() tea.Cmd {
	return func() tea.Msg {
		return messages.DocumentsLoaded{Result: v.index.List(v.ctx)}
	}
}

func (v *View) remove(source string) tea.Cmd {
	return func() tea.Msg {
		return messages.DocumentDeleted{Source: source, Result: v.index.Delete(v.ctx, source)}
	}
}

// Update handles messages for the documents view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.DocumentsLoaded:
		v.loading = false
		v.documents = msg.Result.Documents
		v.err = msg.Result.Err
		if v.selected >= len(v.documents) {
			v.selected = max(len(v.documents)-1, 0)
		}
		return v, nil

	case messages.DocumentDeleted:
		if !msg.Result.Success {
			v.statusbar.SetState(status.StateError)
			v.statusbar.SetMessage(msg.Result.Message)
			return v, nil
		}
		v.statusbar.SetState(status.StateReady)
		v.statusbar.SetMessage(msg.Result.Message)
		return v, v.load()
	}
	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if v.pendingDelete != "" {
		source := v.pendingDelete
		v.pendingDelete = ""
		if key.Matches(msg, v.keymap.Confirm) {
			return v, v.remove(source)
		}
		v.statusbar.Clear()
		return v, nil
	}

	switch {
	case key.Matches(msg, v.keymap.Back), key.Matches(msg, v.keymap.Documents):
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewChat}
		}
	case key.Matches(msg, v.keymap.Help):
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewHelp}
		}
	case key.Matches(msg, v.keymap.Up):
		if v.selected > 0 {
			v.selected--
		}
	case key.Matches(msg, v.keymap.Down):
		if v.selected < len(v.documents)-1 {
			v.selected++
		}
	case key.Matches(msg, v.keymap.Refresh):
		v.loading = true
		return v, v.load()
	case key.Matches(msg, v.keymap.Delete):
		if doc := v.Selected(); doc != nil {
			v.pendingDelete = doc.Source
			v.statusbar.SetState(status.StateReady)
			v.statusbar.SetMessage(fmt.Sprintf("Delete %s? y to confirm", doc.Source))
		}
	}
	return v, nil
}

// View renders the document list.
func (v *View) View() string {
	var b strings.Builder
	b.WriteString(v.styles.Title.Render("Documents"))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render(v.err.Error()))
	case len(v.documents) == 0:
		b.WriteString(v.styles.Muted.Render("No documents."))
	default:
		for i, d := range v.documents {
			line := fmt.Sprintf("%s  %d chunks", d.Source, d.ChunkCount)
			if d.AddedAt != "" {
				line += "  added " + d.AddedAt
			}
			if i == v.selected {
				b.WriteString(v.styles.Selected.Render("> " + line))
			} else {
				b.WriteString(v.styles.Normal.Render("  " + line))
			}
			b.WriteString("\n")
		}
	}

	lines := strings.Count(b.String(), "\n")
	if pad := v.height - lines - 2; pad > 0 {
		b.WriteString(strings.Repeat("\n", pad))
	}
	b.WriteString("\n")
	b.WriteString(v.statusbar.View())
	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.statusbar.SetWidth(width)
}

// Documents returns the loaded documents.
func (v *View) Documents() []domain.SourceSummary {
	return v.documents
}

// Selected returns the highlighted document, or nil.
func (v *View) Selected() *domain.SourceSummary {
	if v.selected < 0 || v.selected >= len(v.documents) {
		return nil
	}
	return &v.documents[v.selected]
}

// PendingDelete returns the source awaiting confirmation.
func (v *View) PendingDelete() string {
	return v.pendingDelete
}

// Err returns the last list error.
func (v *View) Err() error {
	return v.err
}

// Status returns the status bar.
func (v *View) Status() *status.Bar {
	return v.statusbar
}
