package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/paperqa/internal/core/domain"
)

// excerptLength bounds the source excerpts printed under an answer.
const excerptLength = 160

// Palette.
var (
	colourPrimary = lipgloss.Color("#7C3AED") // Purple
	colourAccent  = lipgloss.Color("#06B6D4") // Cyan
	colourMuted   = lipgloss.Color("#6C7086") // Medium gray
	colourSuccess = lipgloss.Color("#A6E3A1") // Green
	colourWarning = lipgloss.Color("#F9E2AF") // Yellow
	colourError   = lipgloss.Color("#F38BA8") // Red
	colourBorder  = lipgloss.Color("#45475A") // Border gray
)

// Styles for command output. lipgloss drops colours when stdout is not a
// terminal, so piped output stays plain.
var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(colourPrimary)
	labelStyle   = lipgloss.NewStyle().Bold(true).Foreground(colourAccent)
	mutedStyle   = lipgloss.NewStyle().Foreground(colourMuted)
	successStyle = lipgloss.NewStyle().Foreground(colourSuccess)
	warningStyle = lipgloss.NewStyle().Foreground(colourWarning)
	errorStyle   = lipgloss.NewStyle().Foreground(colourError)
	answerStyle  = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colourBorder).
			Padding(0, 1)
)

func renderSuccess(msg string) string {
	return successStyle.Render("✓ " + msg)
}

func renderWarning(msg string) string {
	return warningStyle.Render("! " + msg)
}

func renderError(msg string) string {
	return errorStyle.Render("✗ " + msg)
}

// renderAnswer formats an answer and, when showSources is set, the
// passages it was drawn from.
func renderAnswer(res domain.AskResult, showSources bool) string {
	var b strings.Builder
	b.WriteString(labelStyle.Render("Q: "))
	b.WriteString(res.Question)
	b.WriteString("\n")
	b.WriteString(answerStyle.Render(res.Answer))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(fmt.Sprintf("%d sources, %s", len(res.Sources), res.ProcessingTime.Round(time.Millisecond))))
	b.WriteString("\n")

	if showSources {
		for i, sc := range res.Sources {
			b.WriteString("\n")
			b.WriteString(labelStyle.Render(fmt.Sprintf("[%d] %s", i+1, sourceLabel(sc.Chunk))))
			b.WriteString(mutedStyle.Render(fmt.Sprintf(" (%.2f)", sc.Score)))
			b.WriteString("\n    ")
			b.WriteString(excerpt(sc.Chunk.Content, excerptLength))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func sourceLabel(c domain.Chunk) string {
	src := c.Source()
	if src == "" {
		src = "unknown"
	}
	if p := c.Page(); p > 0 {
		return fmt.Sprintf("%s p.%d", src, p)
	}
	return src
}

// excerpt flattens whitespace and cuts text at n runes.
func excerpt(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	r := []rune(text)
	if len(r) <= n {
		return text
	}
	return string(r[:n]) + "…"
}
