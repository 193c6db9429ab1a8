package driven

import (
	"time"

	"github.com/custodia-labs/reposync/internal/core/domain"
)

// LocalSyncState is the durable record of per-project fetch and checkout
// times. It is owned by a single goroutine; implementations need not be safe
// for concurrent use.
type LocalSyncState interface {
	// SetFetchTime records now as the project's last fetch.
	SetFetchTime(p Project)

	// SetCheckoutTime records now as the project's last checkout.
	SetCheckoutTime(p Project)

	// GetFetchTime returns the recorded fetch time, if any.
	GetFetchTime(p Project) (time.Time, bool)

	// GetCheckoutTime returns the recorded checkout time, if any.
	GetCheckoutTime(p Project) (time.Time, bool)

	// Entries returns a copy of all tracked entries keyed by relative path.
	Entries() map[string]domain.SyncStateEntry

	// IsPartiallySynced reports whether a previous run fetched projects
	// without checking them out.
	IsPartiallySynced() bool

	// PruneRemovedProjects drops entries whose working copy is gone or has
	// been replaced by a symbolic link.
	PruneRemovedProjects() error

	// Save persists the state.
	Save() error
}
