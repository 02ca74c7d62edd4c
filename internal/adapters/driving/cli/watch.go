package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/paperqa/internal/adapters/driving/watch"
)

var (
	watchInitial  bool
	watchReplace  bool
	watchDebounce time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Keep the document set in sync with a directory",
	Long: `Watches a directory and applies changes to the active document set.
New and modified files are added, removed files are deleted. When no
document is active the first file is ingested.

Runs until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchInitial, "initial", false, "process files already in the directory")
	watchCmd.Flags().BoolVar(&watchReplace, "replace", false, "rebuild when the backend cannot append")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watch.DefaultDebounce, "quiet period before a change is applied")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	svc, err := core()
	if err != nil {
		return err
	}

	w := watch.New(args[0], svc.Index, watch.Options{
		Debounce:     watchDebounce,
		Initial:      watchInitial,
		AllowRebuild: watchReplace,
		OnOutcome: func(o watch.Outcome) {
			if o.Success {
				cmd.Println(renderSuccess(o.Action.String() + " " + o.Path + ": " + o.Message))
				return
			}
			cmd.Println(renderError(o.Action.String() + " " + o.Path + ": " + o.Message))
		},
	})

	cmd.Printf("Watching %s (Ctrl+C to stop)\n", args[0])
	return w.Run(commandContext(cmd))
}
