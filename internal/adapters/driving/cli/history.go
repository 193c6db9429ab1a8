package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/reposync/internal/core/domain"
)

var (
	historyLimit int
	historyJSON  bool
)

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "List recent sync runs",
	Long: `Lists recorded sync runs, most recent first. With a run ID, shows the
details and errors of that run.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "maximum number of runs")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	if historyService == nil {
		return errNotConfigured("history")
	}

	ctx := cmd.Context()
	w := cmd.OutOrStdout()

	if len(args) == 1 {
		run, err := historyService.Get(ctx, args[0])
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("no sync run with ID %s", args[0])
		}
		if err != nil {
			return fmt.Errorf("failed to get sync run: %w", err)
		}
		if historyJSON {
			return writeJSON(w, run)
		}
		printRun(w, run)
		return nil
	}

	runs, err := historyService.List(ctx, historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list sync runs: %w", err)
	}
	if historyJSON {
		return writeJSON(w, runs)
	}
	printRuns(w, runs)
	return nil
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

func printRuns(w io.Writer, runs []domain.SyncRun) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No sync runs recorded.")
		return
	}

	p := newPalette(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tDURATION\tPROJECTS\tSTATUS")
	for i := range runs {
		run := &runs[i]
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
			run.ID,
			run.StartedAt.Local().Format(time.DateTime),
			run.Duration().Round(time.Second),
			run.Projects,
			runStatus(p, run))
	}
	_ = tw.Flush()
}

func printRun(w io.Writer, run *domain.SyncRun) {
	p := newPalette(w)

	fmt.Fprintf(w, "%s %s\n", p.title.Render("Run"), run.ID)
	fmt.Fprintf(w, "  Started:   %s\n", run.StartedAt.Local().Format(time.DateTime))
	fmt.Fprintf(w, "  Duration:  %s\n", run.Duration().Round(time.Millisecond))
	fmt.Fprintf(w, "  Projects:  %d in %d batches\n", run.Projects, run.Batches)
	fmt.Fprintf(w, "  Jobs:      %d (network %d, checkout %d)\n", run.Jobs.Jobs, run.Jobs.Network, run.Jobs.Checkout)
	fmt.Fprintf(w, "  Failures:  %d fetch, %d checkout\n", run.FetchFailures, run.CheckoutFailures)
	fmt.Fprintf(w, "  Status:    %s\n", runStatus(p, run))

	if len(run.Errors) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, p.heading.Render("Errors"))
		for _, msg := range run.Errors {
			fmt.Fprintf(w, "  %s\n", msg)
		}
	}
}

func runStatus(p palette, run *domain.SyncRun) string {
	switch {
	case run.Aborted:
		return p.fail.Render("aborted")
	case run.Success():
		return p.ok.Render("ok")
	default:
		return p.warn.Render(fmt.Sprintf("%d errors", len(run.Errors)))
	}
}
