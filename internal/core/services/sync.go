package services

import (
	"context"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/reposync/internal/core/domain"
	"github.com/custodia-labs/reposync/internal/core/ports/driven"
	"github.com/custodia-labs/reposync/internal/core/ports/driving"
	"github.com/custodia-labs/reposync/internal/logger"
)

// Ensure SyncOrchestrator implements the interface.
var _ driving.SyncOrchestrator = (*SyncOrchestrator)(nil)

// SyncOrchestrator runs a workspace sync: batches in nesting order, work
// items per batch on a bounded pool, state bookkeeping between batches.
type SyncOrchestrator struct {
	manifests driven.ManifestLoader
	state     driven.LocalSyncState
	runs      driven.SyncRunStore
	probe     driven.ResourceProbe
	settings  domain.SyncSettings

	executor *ParallelExecutor
	guard    *SelfUpdateGuard
	now      func() time.Time
}

// NewSyncOrchestrator creates a new sync orchestrator.
// runs is optional - if nil, run history is not recorded.
func NewSyncOrchestrator(
	manifests driven.ManifestLoader,
	state driven.LocalSyncState,
	runs driven.SyncRunStore,
	probe driven.ResourceProbe,
	settings domain.SyncSettings,
) *SyncOrchestrator {
	return &SyncOrchestrator{
		manifests: manifests,
		state:     state,
		runs:      runs,
		probe:     probe,
		settings:  settings,
		executor: NewParallelExecutor(ExecutorConfig{
			StallInterval: settings.StallInterval,
			RetryDelay:    DefaultRetryDelay,
		}),
		guard: NewSelfUpdateGuard(state, domain.DefaultSelfUpdateWindow),
		now:   time.Now,
	}
}

// Sync runs one orchestrated sync.
//
//nolint:gocyclo // Orchestration function with necessary sequential steps
func (o *SyncOrchestrator) Sync(ctx context.Context, req driving.SyncRequest) (*driving.SyncReport, error) {
	opts := req.Options
	if opts.LocalOnly && opts.NetworkOnly {
		return nil, fmt.Errorf("%w: local-only and network-only are mutually exclusive", domain.ErrInvalidInput)
	}
	if o.settings.FailFast {
		opts.FailFast = true
	}

	// 1. Load manifest and select projects
	manifest, err := o.manifests.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load manifest: %w", err)
	}
	projects, err := selectProjects(manifest.Projects, req.Paths)
	if err != nil {
		return nil, err
	}

	// 2. Resolve concurrency
	if opts.Jobs.WorkspaceDefault == 0 {
		opts.Jobs.WorkspaceDefault = manifest.DefaultJobs
		if o.settings.Jobs > 0 {
			opts.Jobs.WorkspaceDefault = o.settings.Jobs
		}
	}
	limits := ResolveJobLimits(opts.Jobs, ProbeResources(o.probe), o.settings.Tuning)
	jobs := limits.Jobs
	switch {
	case opts.LocalOnly:
		jobs = limits.Checkout
	case opts.NetworkOnly:
		jobs = limits.Network
	}

	run := &domain.SyncRun{
		ID:        uuid.NewString(),
		StartedAt: o.now(),
		Projects:  len(projects),
		Jobs:      limits,
	}
	report := &driving.SyncReport{Run: run}
	errs := &domain.ErrorList{}

	logger.Section("Sync")
	logger.Info("Syncing %d projects (jobs=%d network=%d checkout=%d)",
		len(projects), limits.Jobs, limits.Network, limits.Checkout)

	// 3. Inspect the previous run
	if o.state.IsPartiallySynced() {
		report.ResumedPartial = true
		logger.Warn("previous sync was interrupted between fetch and checkout; resuming")
	}
	if !opts.NetworkOnly {
		if err := o.state.PruneRemovedProjects(); err != nil {
			logger.Warn("prune sync state: %v", err)
		}
	}

	// 4. Refresh the bookkeeping project
	if manifest.Self != nil {
		o.guard.Run(ctx, manifest.Self, opts, errs)
	}

	// 5. Run batches
	precious := PreciousObjectsPlan(projects, manifest.Projects)
	byPath := make(map[string]driven.Project, len(projects))
	for _, p := range projects {
		byPath[p.RelPath()] = p
	}

	batches := SafeCheckoutOrder(projects)
	var done atomic.Int64

	var abortErr error
	dispatched := 0
	for i, batch := range batches {
		if ctx.Err() != nil {
			break
		}
		dispatched = i + 1

		items, effective := PlanWorkItems(batch, jobs)
		logger.Info("Batch %d: %d projects in %d work items on %d workers", i, len(batch), len(items), effective)

		result := o.executor.ExecuteBatch(ctx, BatchRequest{
			Index:    i,
			Projects: batch,
			Items:    items,
			Jobs:     effective,
			Options:  opts,
			Precious: precious,
			OnOutcome: progressFunc(req.Progress, func(outcome domain.SyncOutcome) domain.ProgressEvent {
				return domain.ProgressEvent{
					Outcome: outcome,
					Batch:   i,
					Batches: len(batches),
					Done:    int(done.Add(1)),
					Total:   len(projects),
				}
			}),
		})
		run.Batches++

		for _, outcome := range result.Outcomes {
			o.record(byPath[outcome.RelPath], outcome, opts, run, errs)
		}
		report.Outcomes = append(report.Outcomes, result.Outcomes...)
		report.Skipped = append(report.Skipped, result.Skipped...)
		if result.Stalled {
			report.StalledBatches = append(report.StalledBatches, i)
		}

		if result.Failed && opts.FailFast {
			abortErr = &domain.SyncFailFastError{
				Batch:    i,
				Failed:   result.FailedPaths,
				InFlight: result.Dispatched,
				Skipped:  slices.Concat(result.Skipped, relPaths(batches[i+1:])),
			}
			logger.Error("%v", abortErr)
			break
		}
	}
	report.Skipped = append(report.Skipped, relPaths(batches[dispatched:])...)
	if abortErr == nil && ctx.Err() != nil {
		abortErr = fmt.Errorf("sync interrupted: %w", ctx.Err())
	}

	// 6. Persist state and history
	if err := o.state.Save(); err != nil {
		errs.Append(fmt.Errorf("save sync state: %w", err))
	}

	run.Aborted = abortErr != nil
	run.EndedAt = o.now()
	for _, err := range errs.Errors() {
		run.Errors = append(run.Errors, err.Error())
	}
	o.recordRun(run)

	report.Errors = errs.Errors()
	logger.Info("Sync complete in %s: %d fetch failures, %d checkout failures",
		run.Duration().Round(time.Millisecond), run.FetchFailures, run.CheckoutFailures)
	return report, abortErr
}

// relPaths flattens batches into their relative paths.
func relPaths(batches [][]driven.Project) []string {
	var out []string
	for _, batch := range batches {
		for _, p := range batch {
			out = append(out, p.RelPath())
		}
	}
	return out
}

// progressFunc adapts a progress callback to the executor hook. Nil stays nil.
func progressFunc(
	progress func(domain.ProgressEvent),
	event func(domain.SyncOutcome) domain.ProgressEvent,
) func(domain.SyncOutcome) {
	if progress == nil {
		return nil
	}
	return func(outcome domain.SyncOutcome) {
		progress(event(outcome))
	}
}

// record applies one outcome to the sync state and the run counters.
func (o *SyncOrchestrator) record(
	p driven.Project,
	outcome domain.SyncOutcome,
	opts domain.SyncOptions,
	run *domain.SyncRun,
	errs *domain.ErrorList,
) {
	if !outcome.FetchSuccess {
		run.FetchFailures++
		errs.Append(&domain.ProjectError{RelPath: outcome.RelPath, Phase: domain.PhaseFetch, Err: outcome.FetchError})
		return
	}
	if p != nil && !opts.LocalOnly {
		o.state.SetFetchTime(p)
	}

	if !outcome.CheckoutSuccess {
		run.CheckoutFailures++
		errs.Append(&domain.ProjectError{RelPath: outcome.RelPath, Phase: domain.PhaseCheckout, Err: outcome.CheckoutError})
		return
	}
	if p != nil && !opts.NetworkOnly {
		o.state.SetCheckoutTime(p)
	}
}

// recordRun stores the run in history and trims old runs. Failures are
// logged only.
func (o *SyncOrchestrator) recordRun(run *domain.SyncRun) {
	if o.runs == nil {
		return
	}
	// Use a fresh context so an interrupted run is still recorded.
	ctx := context.Background()
	if err := o.runs.RecordRun(ctx, run); err != nil {
		logger.Warn("record sync run: %v", err)
		return
	}
	if o.settings.HistoryKeep > 0 {
		if err := o.runs.PruneRuns(ctx, o.settings.HistoryKeep); err != nil {
			logger.Warn("prune sync history: %v", err)
		}
	}
}

// selectProjects filters the manifest by relative path. An empty filter
// selects every project.
func selectProjects(all []driven.Project, paths []string) ([]driven.Project, error) {
	if len(paths) == 0 {
		return all, nil
	}
	byPath := make(map[string]driven.Project, len(all))
	for _, p := range all {
		byPath[p.RelPath()] = p
	}
	selected := make([]driven.Project, 0, len(paths))
	seen := make(map[string]bool, len(paths))
	for _, path := range paths {
		p, ok := byPath[path]
		if !ok {
			return nil, fmt.Errorf("%w: project %q is not in the manifest", domain.ErrNotFound, path)
		}
		if seen[path] {
			continue
		}
		seen[path] = true
		selected = append(selected, p)
	}
	return selected, nil
}
