package driving

import (
	"context"
	"errors"

	"github.com/custodia-labs/reposync/internal/core/domain"
)

// SyncOrchestrator coordinates a parallel fetch and checkout of the workspace.
type SyncOrchestrator interface {
	// Sync runs one orchestrated sync. Per-project failures are collected in
	// the report; the returned error is non-nil only when the run was aborted
	// (fail-fast or context cancellation) or could not start.
	Sync(ctx context.Context, req SyncRequest) (*SyncReport, error)
}

// SyncRequest selects the projects and options of a run.
type SyncRequest struct {
	// Paths restricts the run to these relative paths. Empty means every
	// project in the manifest.
	Paths []string

	// Options controls the run.
	Options domain.SyncOptions

	// Progress, when set, is called as each project finishes. It is called
	// from worker goroutines and must be safe for concurrent use.
	Progress func(domain.ProgressEvent)
}

// SyncReport summarises a finished (or aborted) run.
type SyncReport struct {
	// Run is the history record written for this run.
	Run *domain.SyncRun

	// Outcomes holds one entry per project that was attempted.
	Outcomes []domain.SyncOutcome

	// Errors is the aggregated error list.
	Errors []error

	// ResumedPartial is set when the previous run left projects fetched but
	// not checked out.
	ResumedPartial bool

	// Skipped lists projects that were never attempted because the run was
	// cancelled or aborted by fail-fast.
	Skipped []string

	// StalledBatches lists the batches in which no project finished for a
	// whole stall interval.
	StalledBatches []int
}

// Err joins the collected errors. Nil when the run was clean.
func (r *SyncReport) Err() error {
	if r == nil {
		return nil
	}
	return errors.Join(r.Errors...)
}

// StateService exposes the persisted per-project sync state.
type StateService interface {
	// Entries returns the tracked projects keyed by relative path.
	Entries(ctx context.Context) (map[string]domain.SyncStateEntry, error)

	// IsPartiallySynced reports whether the last run was interrupted between
	// fetch and checkout.
	IsPartiallySynced(ctx context.Context) (bool, error)

	// Prune removes entries for projects no longer on disk and saves.
	// Returns the number of entries removed.
	Prune(ctx context.Context) (int, error)
}

// HistoryService exposes recorded sync runs.
type HistoryService interface {
	// List returns up to limit runs, most recent first.
	List(ctx context.Context, limit int) ([]domain.SyncRun, error)

	// Get returns one run by ID.
	Get(ctx context.Context, id string) (*domain.SyncRun, error)
}
