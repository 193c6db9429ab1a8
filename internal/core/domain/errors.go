package domain

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Domain errors represent scheduling and state failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSyncFailFast indicates a batch failed while fail-fast was requested
	// and no further batches were scheduled.
	ErrSyncFailFast = errors.New("sync aborted by fail-fast")

	// ErrUnsupportedStateVersion indicates the persisted sync state was
	// written by a newer schema than this build understands.
	ErrUnsupportedStateVersion = errors.New("unsupported sync state version")

	// ErrManifestInvalid indicates the workspace manifest could not be used.
	ErrManifestInvalid = errors.New("invalid manifest")
)

// SyncPhase names the half of a project sync that produced an error.
type SyncPhase string

const (
	// PhaseFetch is the network half.
	PhaseFetch SyncPhase = "fetch"

	// PhaseCheckout is the local half.
	PhaseCheckout SyncPhase = "checkout"

	// PhaseSelfUpdate is the bookkeeping project refresh.
	PhaseSelfUpdate SyncPhase = "self-update"
)

// ProjectError attributes an error to a single project and phase.
type ProjectError struct {
	RelPath string
	Phase   SyncPhase
	Err     error
}

func (e *ProjectError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Phase, e.RelPath, e.Err)
}

func (e *ProjectError) Unwrap() error {
	return e.Err
}

// SyncFailFastError reports the batch that tripped fail-fast.
type SyncFailFastError struct {
	// Batch is the zero-based index of the failing batch.
	Batch int

	// Failed lists the relative paths whose fetch or checkout failed.
	Failed []string

	// InFlight lists the relative paths dispatched in the failing batch.
	InFlight []string

	// Skipped lists the relative paths never attempted: undispatched
	// projects of the failing batch and every project of later batches.
	Skipped []string
}

func (e *SyncFailFastError) Error() string {
	return fmt.Sprintf("sync aborted by fail-fast after batch %d (failed: %s)",
		e.Batch, strings.Join(e.Failed, ", "))
}

// Is makes errors.Is(err, ErrSyncFailFast) match.
func (e *SyncFailFastError) Is(target error) bool {
	return target == ErrSyncFailFast
}

// ErrorList collects per-project errors across a run. It is safe for
// concurrent use.
type ErrorList struct {
	mu   sync.Mutex
	errs []error
}

// Append adds non-nil errors to the list.
func (l *ErrorList) Append(errs ...error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, err := range errs {
		if err != nil {
			l.errs = append(l.errs, err)
		}
	}
}

// Len returns the number of collected errors.
func (l *ErrorList) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.errs)
}

// Errors returns a copy of the collected errors.
func (l *ErrorList) Errors() []error {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]error, len(l.errs))
	copy(out, l.errs)
	return out
}
