package driven

import "context"

// NetworkHalfOptions is passed to Project.SyncNetworkHalf.
type NetworkHalfOptions struct {
	// Tags fetches tags as well as branches.
	Tags bool

	// Prune removes stale remote-tracking refs.
	Prune bool

	// ForceSync overwrites diverged object store state.
	ForceSync bool

	// CurrentBranchOnly fetches only the manifest revision.
	CurrentBranchOnly bool

	// PreciousObjects enables object pruning protection on the shared store.
	PreciousObjects bool
}

// LocalHalfOptions is passed to Project.SyncLocalHalf.
type LocalHalfOptions struct {
	// ForceSync overwrites a diverged working copy.
	ForceSync bool

	// ForceCheckout discards local modifications.
	ForceCheckout bool

	// DetachHead checks out the revision on a detached HEAD.
	DetachHead bool
}

// Project is one independently versioned working copy registered in the
// workspace manifest. Projects are owned by the manifest layer; the
// scheduler only references them.
type Project interface {
	// RelPath is the path relative to the workspace root. Unique per workspace.
	RelPath() string

	// Name is the display name (the remote project name).
	Name() string

	// ObjDir identifies the on-disk object store. Projects with equal
	// ObjDir are storage siblings.
	ObjDir() string

	// Worktree is the bound working tree path, or "" when unbound.
	Worktree() string

	// Exists reports whether the project is present on disk.
	Exists() bool

	// UseGitWorktrees reports per-project isolated worktree storage.
	UseGitWorktrees() bool

	// UseAlternates reports an alternate object store linkage.
	UseAlternates() bool

	// SyncNetworkHalf fetches objects from the remote.
	SyncNetworkHalf(ctx context.Context, opts NetworkHalfOptions) error

	// SyncLocalHalf updates the working tree from fetched objects.
	SyncLocalHalf(ctx context.Context, opts LocalHalfOptions) error
}

// SelfProject is the tool's own bookkeeping project.
type SelfProject interface {
	Project

	// PostFetch runs after a successful refresh (e.g. to verify and stage an
	// upgrade of the tool).
	PostFetch(ctx context.Context) error
}
