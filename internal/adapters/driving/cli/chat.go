package cli

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/paperqa/internal/adapters/driving/tui"
)

var chatSession string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open the interactive chat",
	Long: `Open a terminal chat over the active document.

Controls:
  Enter    - Ask the typed question
  Ctrl+S   - Summarise the document
  Ctrl+O   - Show or hide sources
  Tab      - Document list (d to delete, r to refresh)
  Ctrl+C   - Quit`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatSession, "session", "", "session id recorded in history (default: random)")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	svc, err := core()
	if err != nil {
		return err
	}

	session := chatSession
	if session == "" {
		session = uuid.NewString()
	}

	app, err := tui.NewApp(&tui.Ports{
		Index:     svc.Index,
		Query:     svc.Query,
		SessionID: session,
		UserID:    currentUserID(),
	})
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}

	if err := app.Run(commandContext(cmd)); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
