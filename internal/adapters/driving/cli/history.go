package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

// defaultHistoryLimit is the number of records shown without --limit.
const defaultHistoryLimit = 20

var (
	historySession string
	historyLimit   int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent questions and answers",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().StringVar(&historySession, "session", "", "only show this session")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", defaultHistoryLimit, "maximum records to show")
	historyCmd.Flags().BoolVar(&outputJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	svc, err := core()
	if err != nil {
		return err
	}
	if svc.History == nil {
		return errors.New("history is not available")
	}

	records, err := svc.History.Recent(commandContext(cmd), historySession, historyLimit)
	if err != nil {
		return err
	}
	if outputJSON {
		return printJSON(cmd, records)
	}

	if len(records) == 0 {
		cmd.Println("No history yet.")
		return nil
	}
	for _, r := range records {
		status := successStyle.Render("✓")
		if !r.Success {
			status = errorStyle.Render("✗")
		}
		cmd.Printf("%s %s %s\n", status, mutedStyle.Render(r.CreatedAt.Local().Format("2006-01-02 15:04")), r.Question)
		if r.Answer != "" {
			cmd.Printf("    %s\n", excerpt(r.Answer, excerptLength))
		}
	}
	return nil
}
