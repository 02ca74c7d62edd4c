package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/paperqa/internal/core/domain"
)

// stdinIsTerminal reports whether consent can be asked interactively.
var stdinIsTerminal = func() bool {
	f, ok := stdin.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

var (
	docName    string
	addReplace bool
	outputJSON bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Make a PDF the active document",
	Long: `Fingerprints, chunks and embeds a file and makes it the active document
set. Ingesting the same bytes again loads the stored collection without
calling the embedding service.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

var addCmd = &cobra.Command{
	Use:   "add [file]",
	Short: "Add a file to the active document set",
	Long: `Appends a file to the active document set.

The batch-only backend cannot append. With --replace, or after confirming
on a terminal, the file replaces the active document set instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

var deleteCmd = &cobra.Command{
	Use:   "delete [source]",
	Short: "Remove a document from the active document set",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents in the active document set",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the active document",
	Args:  cobra.NoArgs,
	RunE:  runInfo,
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget the active document",
	Long:  `Clears the active document set. Stored collections are kept, so ingesting the same file again is fast.`,
	Args:  cobra.NoArgs,
	RunE:  runReset,
}

func init() {
	ingestCmd.Flags().StringVar(&docName, "name", "", "display name (default: file name)")
	addCmd.Flags().StringVar(&docName, "name", "", "display name (default: file name)")
	addCmd.Flags().BoolVar(&addReplace, "replace", false, "replace the document set when the backend cannot append")
	listCmd.Flags().BoolVar(&outputJSON, "json", false, "output as JSON")
	infoCmd.Flags().BoolVar(&outputJSON, "json", false, "output as JSON")

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(resetCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	svc, err := core()
	if err != nil {
		return err
	}

	res := svc.Index.Ingest(commandContext(cmd), args[0], docName)
	if !res.Success {
		return resultErr(res.Message, res.Err)
	}
	printIngest(cmd, res)
	return nil
}

func runAdd(cmd *cobra.Command, args []string) error {
	svc, err := core()
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)

	res := svc.Index.Add(ctx, args[0], docName, domain.AddOptions{AllowRebuild: addReplace})
	if errors.Is(res.Err, domain.ErrUnsupportedOperation) && !addReplace && stdinIsTerminal() {
		cmd.Println(renderWarning(res.Message))
		if confirm(cmd, stdin, "Replace the active document set with this file?") {
			res = svc.Index.Add(ctx, args[0], docName, domain.AddOptions{AllowRebuild: true})
		} else {
			cmd.Println("Cancelled.")
			return nil
		}
	}
	if !res.Success {
		if errors.Is(res.Err, domain.ErrUnsupportedOperation) {
			return fmt.Errorf("%s\nRe-run with --replace to rebuild with this file", res.Message)
		}
		return resultErr(res.Message, res.Err)
	}
	printIngest(cmd, res)
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	svc, err := core()
	if err != nil {
		return err
	}

	res := svc.Index.Delete(commandContext(cmd), args[0])
	if !res.Success {
		return resultErr(res.Message, res.Err)
	}
	cmd.Println(renderSuccess(res.Message))
	return nil
}

func runList(cmd *cobra.Command, _ []string) error {
	svc, err := core()
	if err != nil {
		return err
	}

	res := svc.Index.List(commandContext(cmd))
	if !res.Success {
		return resultErr(res.Message, res.Err)
	}
	if outputJSON {
		return printJSON(cmd, res)
	}

	if len(res.Documents) == 0 {
		cmd.Println("No documents.")
		return nil
	}
	cmd.Println(titleStyle.Render("Documents"))
	for i, d := range res.Documents {
		line := fmt.Sprintf("  [%d] %s  %d chunks", i+1, d.Source, d.ChunkCount)
		if d.AddedAt != "" {
			line += mutedStyle.Render("  added " + d.AddedAt)
		}
		cmd.Println(line)
	}
	return nil
}

func runInfo(cmd *cobra.Command, _ []string) error {
	svc, err := core()
	if err != nil {
		return err
	}

	res := svc.Index.Info(commandContext(cmd))
	if res.Err != nil {
		return res.Err
	}
	if outputJSON {
		return printJSON(cmd, res)
	}

	if !res.HasDocument {
		cmd.Println("No active document. Run 'paperqa ingest <file>' first.")
		return nil
	}

	cmd.Println(titleStyle.Render("Active document"))
	if d := res.Document; d != nil {
		cmd.Printf("  Name:       %s\n", d.Name)
		cmd.Printf("  Path:       %s\n", d.Path)
		cmd.Printf("  Pages:      %d\n", d.PagesCount)
		cmd.Printf("  Chunks:     %d\n", d.ChunksCount)
		cmd.Printf("  Ingested:   %s\n", d.IngestedAt.Local().Format("2006-01-02 15:04:05"))
		cmd.Printf("  Hash:       %s\n", d.Fingerprint)
	}
	if c := res.Collection; c != nil {
		cmd.Printf("  Collection: %s\n", c.ID)
		cmd.Printf("  Backend:    %s\n", c.Backend.Description())
		cmd.Printf("  Vectors:    %d x %d\n", c.VectorCount, c.Dimensions)
	}
	return nil
}

func runReset(cmd *cobra.Command, _ []string) error {
	svc, err := core()
	if err != nil {
		return err
	}

	if err := svc.Index.Reset(commandContext(cmd)); err != nil {
		return fmt.Errorf("reset failed: %w", err)
	}
	cmd.Println(renderSuccess("Active document cleared"))
	return nil
}

func printIngest(cmd *cobra.Command, res domain.IngestResult) {
	cmd.Println(renderSuccess(res.Message))
	if d := res.Document; d != nil {
		cmd.Println(mutedStyle.Render(fmt.Sprintf("  %s  %d pages, %d chunks, %s",
			d.Backend, d.PagesCount, d.ChunksCount, d.ProcessingTime.Round(time.Millisecond))))
	}
}

// confirm asks a yes/no question, defaulting to no.
func confirm(cmd *cobra.Command, in io.Reader, question string) bool {
	cmd.Printf("%s [y/N]: ", question)
	answer := readLine(bufio.NewReader(in))
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

// resultErr turns a failed result into the command error.
func resultErr(message string, err error) error {
	if message != "" {
		return errors.New(message)
	}
	if err != nil {
		return err
	}
	return errors.New("operation failed")
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
