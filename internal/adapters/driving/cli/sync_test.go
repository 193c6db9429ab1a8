package cli

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/reposync/internal/core/domain"
	"github.com/custodia-labs/reposync/internal/core/ports/driving"
)

func cleanReport() *driving.SyncReport {
	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	return &driving.SyncReport{
		Run: &domain.SyncRun{
			ID:        "run-1",
			StartedAt: start,
			EndedAt:   start.Add(2 * time.Second),
			Projects:  12,
			Batches:   3,
			Jobs:      domain.JobLimits{Jobs: 8, Network: 8, Checkout: 4},
		},
	}
}

func TestSyncCmd_Use(t *testing.T) {
	assert.Equal(t, "sync [path...]", syncCmd.Use)
	assert.Equal(t, "Fetch and check out workspace projects", syncCmd.Short)
}

func TestSyncCmd_ExecutesWithoutArgs(t *testing.T) {
	orch := &mockSyncOrchestrator{report: cleanReport()}
	setupServices(t, &Services{Sync: orch})

	out, err := execute(t, "sync")
	require.NoError(t, err)

	assert.Empty(t, orch.got.Paths)
	assert.Contains(t, out, "Synced 12 projects in 3 batches")
	assert.Contains(t, out, "jobs 8, network 8, checkout 4, 2s")
	assert.Contains(t, out, "All projects up to date.")
}

func TestSyncCmd_PassesFlags(t *testing.T) {
	orch := &mockSyncOrchestrator{report: cleanReport()}
	setupServices(t, &Services{Sync: orch})

	_, err := execute(t, "sync", "-j", "6", "--jobs-network", "3", "--jobs-checkout", "2",
		"--fail-fast", "-n", "--force-sync", "--force-checkout", "-d", "--prune", "-c",
		"--tags", "--retry-fetches", "2", "build", "tools")
	require.NoError(t, err)

	assert.Equal(t, []string{"build", "tools"}, orch.got.Paths)
	assert.Equal(t, domain.SyncOptions{
		Jobs:              domain.JobRequest{Jobs: 6, NetworkJobs: 3, CheckoutJobs: 2},
		NetworkOnly:       true,
		FailFast:          true,
		ForceSync:         true,
		ForceCheckout:     true,
		DetachHead:        true,
		Tags:              true,
		Prune:             true,
		CurrentBranchOnly: true,
		RetryFetches:      2,
	}, orch.got.Options)
}

func TestSyncCmd_LocalAndNetworkOnlyExclusive(t *testing.T) {
	orch := &mockSyncOrchestrator{report: cleanReport()}
	setupServices(t, &Services{Sync: orch})

	_, err := execute(t, "sync", "-l", "-n")
	assert.Error(t, err)
	assert.Empty(t, orch.got.Paths)
	assert.False(t, orch.got.Options.LocalOnly)
}

func TestSyncCmd_NegativeJobs(t *testing.T) {
	setupServices(t, &Services{Sync: &mockSyncOrchestrator{report: cleanReport()}})

	_, err := execute(t, "sync", "-j", "-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must not be negative")
}

func TestSyncCmd_ServiceNotConfigured(t *testing.T) {
	setupServices(t, nil)

	_, err := execute(t, "sync")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sync service not configured")
}

func TestSyncCmd_ProjectErrorsExitNonZero(t *testing.T) {
	report := cleanReport()
	report.Run.FetchFailures = 1
	report.Errors = []error{&domain.ProjectError{RelPath: "build", Phase: domain.PhaseFetch, Err: errors.New("timeout")}}
	setupServices(t, &Services{Sync: &mockSyncOrchestrator{report: report}})

	out, err := execute(t, "sync")
	require.Error(t, err)

	assert.ErrorIs(t, err, errSyncFailed)
	assert.Contains(t, err.Error(), "1 error(s)")
	assert.Contains(t, out, "Failures: 1 fetch, 0 checkout")
	assert.Contains(t, out, "error: fetch build: timeout")
	assert.NotContains(t, out, "All projects up to date.")
}

func TestSyncCmd_FailFast(t *testing.T) {
	report := cleanReport()
	report.Run.Aborted = true
	failErr := &domain.SyncFailFastError{Batch: 0, Failed: []string{"build"}}
	report.Errors = []error{failErr}
	setupServices(t, &Services{Sync: &mockSyncOrchestrator{report: report, err: failErr}})

	out, err := execute(t, "sync", "--fail-fast")
	require.Error(t, err)

	assert.ErrorIs(t, err, domain.ErrSyncFailFast)
	assert.Contains(t, err.Error(), "sync failed")
	assert.Contains(t, out, "Run aborted")
}

func TestSyncCmd_ResumedPartial(t *testing.T) {
	report := cleanReport()
	report.ResumedPartial = true
	setupServices(t, &Services{Sync: &mockSyncOrchestrator{report: report}})

	out, err := execute(t, "sync")
	require.NoError(t, err)
	assert.Contains(t, out, "Previous sync was interrupted")
}

func TestSyncCmd_SkippedAndStalled(t *testing.T) {
	report := cleanReport()
	report.Skipped = []string{"tools", "vendor/lib"}
	report.StalledBatches = []int{1}
	setupServices(t, &Services{Sync: &mockSyncOrchestrator{report: report}})

	out, err := execute(t, "sync")
	require.NoError(t, err)
	assert.Contains(t, out, "Skipped 2 projects: tools, vendor/lib")
	assert.Contains(t, out, "Batch 1 stalled")
}

func TestSyncCmd_QuietSuppressesSummary(t *testing.T) {
	orch := &mockSyncOrchestrator{report: cleanReport()}
	setupServices(t, &Services{Sync: orch})

	out, err := execute(t, "sync", "--quiet")
	require.NoError(t, err)

	assert.Empty(t, out)
	assert.True(t, orch.got.Options.Quiet)
}

func TestSyncCmd_StartError(t *testing.T) {
	setupServices(t, &Services{Sync: &mockSyncOrchestrator{err: domain.ErrManifestInvalid}})

	_, err := execute(t, "sync")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrManifestInvalid)
}

func TestSyncCmd_ProgressViewOnTerminal(t *testing.T) {
	orch := &mockSyncOrchestrator{report: cleanReport()}
	setupServices(t, &Services{Sync: orch})

	oldTerm, oldRun := isTerminal, runProgress
	t.Cleanup(func() { isTerminal, runProgress = oldTerm, oldRun })
	isTerminal = func(io.Writer) bool { return true }

	var used bool
	runProgress = func(ctx context.Context, sync driving.SyncOrchestrator, req driving.SyncRequest,
		_ ...tea.ProgramOption) (*driving.SyncReport, error) {
		used = true
		return sync.Sync(ctx, req)
	}

	out, err := execute(t, "sync", "build")
	require.NoError(t, err)
	assert.True(t, used)
	assert.Equal(t, []string{"build"}, orch.got.Paths)
	assert.Contains(t, out, "All projects up to date.")
}

func TestSyncCmd_ProgressViewDisabled(t *testing.T) {
	oldTerm, oldRun := isTerminal, runProgress
	t.Cleanup(func() { isTerminal, runProgress = oldTerm, oldRun })
	isTerminal = func(io.Writer) bool { return true }

	var used bool
	runProgress = func(context.Context, driving.SyncOrchestrator, driving.SyncRequest,
		...tea.ProgramOption) (*driving.SyncReport, error) {
		used = true
		return cleanReport(), nil
	}

	for _, args := range [][]string{
		{"sync", "--no-progress"},
		{"sync", "-v"},
		{"sync", "-q"},
	} {
		orch := &mockSyncOrchestrator{report: cleanReport()}
		setupServices(t, &Services{Sync: orch})

		_, err := execute(t, args...)
		require.NoError(t, err, args)
		assert.False(t, used, args)
	}
}
