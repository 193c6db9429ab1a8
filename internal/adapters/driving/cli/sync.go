package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/reposync/internal/adapters/driving/tui"
	"github.com/custodia-labs/reposync/internal/core/domain"
	"github.com/custodia-labs/reposync/internal/core/ports/driving"
	"github.com/custodia-labs/reposync/internal/logger"
)

// errSyncFailed is returned when a run finished with per-project errors so
// the process exits non-zero after the summary has been printed.
var errSyncFailed = errors.New("sync finished with errors")

// runProgress renders the live progress view; swapped in tests.
var runProgress = tui.RunSync

var (
	syncJobs          int
	syncJobsNetwork   int
	syncJobsCheckout  int
	syncFailFast      bool
	syncLocalOnly     bool
	syncNetworkOnly   bool
	syncForceSync     bool
	syncForceCheckout bool
	syncDetach        bool
	syncPrune         bool
	syncCurrentBranch bool
	syncTags          bool
	syncRetryFetches  int
	syncNoProgress    bool
)

var syncCmd = &cobra.Command{
	Use:   "sync [path...]",
	Short: "Fetch and check out workspace projects",
	Long: `Fetches every project from its remote and checks out the manifest
revision. When paths are given, only those projects are synchronised.

Checkouts run in batches so that a project is never checked out before a
project it is nested in. Within a batch, projects sharing an object store
are handled by the same worker.`,
	RunE: runSync,
}

func init() {
	flags := syncCmd.Flags()
	flags.IntVarP(&syncJobs, "jobs", "j", 0, "number of projects to sync in parallel")
	flags.IntVar(&syncJobsNetwork, "jobs-network", 0, "number of parallel fetches (default: --jobs)")
	flags.IntVar(&syncJobsCheckout, "jobs-checkout", 0, "number of parallel checkouts (default: --jobs)")
	flags.BoolVar(&syncFailFast, "fail-fast", false, "stop after the first batch with a failure")
	flags.BoolVarP(&syncLocalOnly, "local-only", "l", false, "only check out from already fetched objects")
	flags.BoolVarP(&syncNetworkOnly, "network-only", "n", false, "only fetch, do not update working trees")
	flags.BoolVar(&syncForceSync, "force-sync", false, "overwrite diverged branches")
	flags.BoolVar(&syncForceCheckout, "force-checkout", false, "discard local modifications")
	flags.BoolVarP(&syncDetach, "detach", "d", false, "check out the manifest revision on a detached HEAD")
	flags.BoolVar(&syncPrune, "prune", false, "delete refs that no longer exist on the remote")
	flags.BoolVarP(&syncCurrentBranch, "current-branch", "c", false, "fetch only the manifest revision")
	flags.BoolVar(&syncTags, "tags", false, "fetch tags")
	flags.IntVar(&syncRetryFetches, "retry-fetches", 0, "number of extra attempts for a failed fetch")
	flags.BoolVar(&syncNoProgress, "no-progress", false, "do not show the live progress view")
	syncCmd.MarkFlagsMutuallyExclusive("local-only", "network-only")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	if syncOrchestrator == nil {
		return errNotConfigured("sync")
	}
	if syncJobs < 0 || syncJobsNetwork < 0 || syncJobsCheckout < 0 || syncRetryFetches < 0 {
		return errors.New("job counts and --retry-fetches must not be negative")
	}

	req := driving.SyncRequest{
		Paths:   args,
		Options: syncOptionsFromFlags(),
	}

	var (
		report *driving.SyncReport
		err    error
	)
	out := cmd.OutOrStdout()
	if showProgress(out) {
		report, err = runProgress(cmd.Context(), syncOrchestrator, req, tea.WithOutput(out))
	} else {
		report, err = syncOrchestrator.Sync(cmd.Context(), req)
	}
	if report != nil && !quiet {
		printSyncReport(out, report)
	}
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	if err := report.Err(); err != nil {
		logger.Debug("sync errors:\n%v", err)
		return fmt.Errorf("%w: %d error(s)", errSyncFailed, len(report.Errors))
	}
	return nil
}

// showProgress reports whether the live view should replace the log stream.
// Verbose runs keep the log lines, which the view would overwrite.
func showProgress(out io.Writer) bool {
	return !quiet && !verbose && !syncNoProgress && isTerminal(out)
}

func syncOptionsFromFlags() domain.SyncOptions {
	return domain.SyncOptions{
		Jobs: domain.JobRequest{
			Jobs:         syncJobs,
			NetworkJobs:  syncJobsNetwork,
			CheckoutJobs: syncJobsCheckout,
		},
		LocalOnly:         syncLocalOnly,
		NetworkOnly:       syncNetworkOnly,
		FailFast:          syncFailFast,
		ForceSync:         syncForceSync,
		ForceCheckout:     syncForceCheckout,
		DetachHead:        syncDetach,
		Tags:              syncTags,
		Prune:             syncPrune,
		CurrentBranchOnly: syncCurrentBranch,
		RetryFetches:      syncRetryFetches,
		Quiet:             quiet,
	}
}

func printSyncReport(w io.Writer, report *driving.SyncReport) {
	p := newPalette(w)

	if report.ResumedPartial {
		fmt.Fprintln(w, p.warn.Render("Previous sync was interrupted; resuming."))
	}

	if run := report.Run; run != nil {
		fmt.Fprintf(w, "%s %d projects in %d batches %s\n",
			p.title.Render("Synced"),
			run.Projects, run.Batches,
			p.muted.Render(fmt.Sprintf("(jobs %d, network %d, checkout %d, %s)",
				run.Jobs.Jobs, run.Jobs.Network, run.Jobs.Checkout,
				run.Duration().Round(time.Millisecond))))
		if run.FetchFailures > 0 || run.CheckoutFailures > 0 {
			fmt.Fprintln(w, p.fail.Render(fmt.Sprintf("Failures: %d fetch, %d checkout",
				run.FetchFailures, run.CheckoutFailures)))
		}
		if run.Aborted {
			fmt.Fprintln(w, p.fail.Render("Run aborted before all batches completed."))
		}
	}

	if n := len(report.Skipped); n > 0 {
		fmt.Fprintln(w, p.warn.Render(fmt.Sprintf("Skipped %d projects: %s", n, strings.Join(report.Skipped, ", "))))
	}
	for _, batch := range report.StalledBatches {
		fmt.Fprintln(w, p.warn.Render(fmt.Sprintf("Batch %d stalled: no project finished for a whole stall interval.", batch)))
	}

	for _, err := range report.Errors {
		fmt.Fprintf(w, "  %s %v\n", p.fail.Render("error:"), err)
	}
	if len(report.Errors) == 0 {
		fmt.Fprintln(w, p.ok.Render("All projects up to date."))
	}
}
