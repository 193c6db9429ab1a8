package driven

import "context"

// Manifest is the loaded project set of a workspace.
type Manifest struct {
	// Projects lists every project in the manifest.
	Projects []Project

	// DefaultJobs is the manifest-level sync-j. Zero means unset.
	DefaultJobs int

	// Self is the bookkeeping project, or nil when not configured.
	Self SelfProject
}

// ManifestLoader reads the workspace manifest.
type ManifestLoader interface {
	// Load parses the manifest and builds its projects.
	Load(ctx context.Context) (*Manifest, error)
}
