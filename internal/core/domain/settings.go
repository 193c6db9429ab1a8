package domain

import "time"

// Configuration defaults.
const (
	// DefaultStallInterval is how long a batch may go without a completed
	// project before a stall warning is logged.
	DefaultStallInterval = 5 * time.Minute

	// DefaultSelfUpdateWindow is the freshness window of the bookkeeping project.
	DefaultSelfUpdateWindow = 24 * time.Hour

	// DefaultSelfProject is the relative path of the tool's own bookkeeping project.
	DefaultSelfProject = ".repo/repo"

	// DefaultSelfRevision is the branch of the bookkeeping project to track.
	DefaultSelfRevision = "main"

	// DefaultHistoryKeep is how many sync runs are retained in history.
	DefaultHistoryKeep = 100
)

// SyncSettings holds workspace-level configuration for the scheduler.
type SyncSettings struct {
	// Jobs is the workspace default job count. Zero defers to the manifest.
	Jobs int

	// Tuning controls the descriptor clamp and checkout default.
	Tuning JobTuning

	// StallInterval is the advisory stall detection interval.
	StallInterval time.Duration

	// FailFast enables fail-fast unless the command line says otherwise.
	FailFast bool

	// SelfProject is the relative path of the bookkeeping project.
	SelfProject string

	// SelfURL is the remote of the bookkeeping project. Empty disables
	// self-update.
	SelfURL string

	// SelfRevision is the branch of the bookkeeping project.
	SelfRevision string

	// HistoryKeep is the number of sync runs retained.
	HistoryKeep int
}

// DefaultSyncSettings returns sensible defaults.
func DefaultSyncSettings() SyncSettings {
	return SyncSettings{
		Tuning:        DefaultJobTuning(),
		StallInterval: DefaultStallInterval,
		SelfProject:   DefaultSelfProject,
		SelfRevision:  DefaultSelfRevision,
		HistoryKeep:   DefaultHistoryKeep,
	}
}
