package git

import (
	"context"
	"fmt"
	"path"

	"github.com/custodia-labs/reposync/internal/core/ports/driven"
)

// Ensure SelfProject implements the interface.
var _ driven.SelfProject = (*SelfProject)(nil)

// SelfProject is the tool's own checkout. Sync refreshes its store; PostFetch
// fast-forwards the checkout so the next invocation runs the update.
type SelfProject struct {
	*Project
}

// NewSelfProject creates the bookkeeping project at relpath.
func NewSelfProject(root, relpath, url, revision string) *SelfProject {
	return &SelfProject{Project: &Project{
		root:              root,
		name:              path.Base(relpath),
		relpath:           relpath,
		url:               url,
		revision:          revision,
		objdir:            relpath + ".git",
		currentBranchOnly: true,
	}}
}

// PostFetch applies the fetched revision to the tool checkout.
func (s *SelfProject) PostFetch(ctx context.Context) error {
	if err := s.SyncLocalHalf(ctx, driven.LocalHalfOptions{}); err != nil {
		return fmt.Errorf("stage update: %w", err)
	}
	return nil
}
