package driven

import (
	"context"

	"github.com/custodia-labs/reposync/internal/core/domain"
)

// SyncRunStore persists the history of orchestrated sync runs.
type SyncRunStore interface {
	// RecordRun logs a finished run.
	RecordRun(ctx context.Context, run *domain.SyncRun) error

	// GetRun retrieves a run by ID.
	// Returns domain.ErrNotFound if the run does not exist.
	GetRun(ctx context.Context, id string) (*domain.SyncRun, error)

	// ListRuns returns recent runs ordered by start time descending
	// (most recent first).
	ListRuns(ctx context.Context, limit int) ([]domain.SyncRun, error)

	// PruneRuns removes runs beyond the retention limit, keeping the most
	// recent 'keep' runs.
	PruneRuns(ctx context.Context, keep int) error
}
