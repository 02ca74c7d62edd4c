package keymap

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

func TestDefaultKeyMap_Bindings(t *testing.T) {
	km := DefaultKeyMap()

	assert.True(t, key.Matches(tea.KeyMsg{Type: tea.KeyEnter}, km.Ask))
	assert.True(t, key.Matches(tea.KeyMsg{Type: tea.KeyCtrlS}, km.Summarize))
	assert.True(t, key.Matches(tea.KeyMsg{Type: tea.KeyTab}, km.Documents))
	assert.True(t, key.Matches(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("k")}, km.Up))
	assert.False(t, key.Matches(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")}, km.Quit))
}

func TestKeyMap_Help(t *testing.T) {
	km := DefaultKeyMap()

	assert.Len(t, km.ChatHelp(), 5)
	assert.Len(t, km.DocumentsHelp(), 6)
	assert.Len(t, km.FullHelp(), 3)
}
