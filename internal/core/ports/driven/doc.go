// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - Project: One working copy with its network and local halves
//   - LocalSyncState: Persisted per-project fetch/checkout times
//   - ResourceProbe: Host CPU and open-file limits
//   - ConfigStore: Workspace configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - SyncRunStore: Run history. Without it, runs are not recorded.
//   - SelfProject: Bookkeeping project. Without it, self-update is skipped.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
