package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/paperqa/internal/core/domain"
)

var (
	askSession string
	askTopK    int
	askSources bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about the active document",
	Long: `Retrieves the passages most similar to the question and asks the
completion model to answer from them only.

Examples:
  paperqa ask "What dataset was used?"
  paperqa ask --sources --top-k 8 "Which baselines are compared?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Summarise the active document",
	Args:  cobra.NoArgs,
	RunE:  runSummarize,
}

func init() {
	askCmd.Flags().StringVar(&askSession, "session", "", "session id recorded in history")
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "number of passages to retrieve (default from settings)")
	askCmd.Flags().BoolVar(&askSources, "sources", false, "print the retrieved passages")
	askCmd.Flags().BoolVar(&outputJSON, "json", false, "output as JSON")

	summarizeCmd.Flags().StringVar(&askSession, "session", "", "session id recorded in history")
	summarizeCmd.Flags().BoolVar(&askSources, "sources", false, "print the retrieved passages")
	summarizeCmd.Flags().BoolVar(&outputJSON, "json", false, "output as JSON")

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(summarizeCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	svc, err := core()
	if err != nil {
		return err
	}

	req := domain.AskRequest{
		Question:  strings.Join(args, " "),
		SessionID: askSession,
		UserID:    currentUserID(),
		TopK:      askTopK,
	}
	return printAnswer(cmd, svc.Query.Ask(commandContext(cmd), req))
}

func runSummarize(cmd *cobra.Command, _ []string) error {
	svc, err := core()
	if err != nil {
		return err
	}

	req := domain.AskRequest{SessionID: askSession, UserID: currentUserID()}
	return printAnswer(cmd, svc.Query.Summarize(commandContext(cmd), req))
}

func printAnswer(cmd *cobra.Command, res domain.AskResult) error {
	if outputJSON {
		if err := printJSON(cmd, res); err != nil {
			return err
		}
		if !res.Success {
			return resultErr(res.Message, res.Err)
		}
		return nil
	}

	if !res.Success {
		return fmt.Errorf("could not answer: %w", resultErr(res.Message, res.Err))
	}
	cmd.Print(renderAnswer(res, askSources))
	return nil
}
