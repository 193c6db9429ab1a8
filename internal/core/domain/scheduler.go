package domain

import "time"

// SyncOptions controls a single orchestrated sync run.
type SyncOptions struct {
	// Jobs carries the user job settings; WorkspaceDefault comes from the manifest.
	Jobs JobRequest

	// LocalOnly skips the network half; fetches count as trivially successful.
	LocalOnly bool

	// NetworkOnly skips the local half; checkouts count as trivially successful.
	NetworkOnly bool

	// FailFast stops scheduling further batches after a failed batch.
	FailFast bool

	// ForceSync overwrites existing git state when it diverges.
	ForceSync bool

	// ForceCheckout discards local modifications on checkout.
	ForceCheckout bool

	// DetachHead checks out the manifest revision on a detached HEAD.
	DetachHead bool

	// Tags fetches tags as well as branches.
	Tags bool

	// Prune removes stale remote-tracking refs during fetch.
	Prune bool

	// CurrentBranchOnly fetches only the manifest revision.
	CurrentBranchOnly bool

	// RetryFetches is the number of extra attempts for a failed fetch.
	RetryFetches int

	// Quiet suppresses progress output.
	Quiet bool
}

// WorkItem is the unit of work handed to one worker within a batch: the
// indices of the batch projects it covers, processed in order.
type WorkItem []int

// SyncOutcome is the per-project result reported by a worker.
type SyncOutcome struct {
	RelPath          string
	FetchSuccess     bool
	FetchError       error
	CheckoutSuccess  bool
	CheckoutError    error
	FetchDuration    time.Duration
	CheckoutDuration time.Duration
}

// Failed reports whether either half failed.
func (o SyncOutcome) Failed() bool {
	return !o.FetchSuccess || !o.CheckoutSuccess
}

// SyncRun is the history record of one orchestrated run.
type SyncRun struct {
	// ID is the unique identifier for the run.
	ID string

	// StartedAt is when the run started.
	StartedAt time.Time

	// EndedAt is when the run returned.
	EndedAt time.Time

	// Projects is the number of projects in the run.
	Projects int

	// Batches is the number of checkout batches dispatched.
	Batches int

	// Jobs is the effective job limits.
	Jobs JobLimits

	// FetchFailures counts projects whose network half failed.
	FetchFailures int

	// CheckoutFailures counts projects whose local half failed.
	CheckoutFailures int

	// Aborted indicates the run stopped on fail-fast or cancellation.
	Aborted bool

	// Errors holds the error messages collected during the run.
	Errors []string
}

// Success reports whether the run finished with no errors.
func (r *SyncRun) Success() bool {
	return !r.Aborted && len(r.Errors) == 0
}

// Duration returns how long the run took.
func (r *SyncRun) Duration() time.Duration {
	if r.EndedAt.IsZero() {
		return 0
	}
	return r.EndedAt.Sub(r.StartedAt)
}
