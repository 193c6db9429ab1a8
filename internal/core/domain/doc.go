// Package domain defines the core entities of reposync.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - SyncOptions: What a sync run should do
//   - JobRequest, JobLimits: Concurrency inputs and resolved levels
//   - WorkItem: The unit of work handed to one worker
//   - SyncOutcome: Per-project fetch/checkout result
//   - SyncStateEntry: Persisted last-fetch/last-checkout times
//   - SyncRun: History record of one run
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
