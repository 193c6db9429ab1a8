package services

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/custodia-labs/reposync/internal/core/domain"
	"github.com/custodia-labs/reposync/internal/core/ports/driven"
	"github.com/custodia-labs/reposync/internal/logger"
)

// SkipSelfUpdateEnv disables the bookkeeping project refresh when truthy.
const SkipSelfUpdateEnv = "REPO_SKIP_SELF_UPDATE"

// SelfUpdateGuard refreshes the tool's own bookkeeping project before the
// main pass, at most once per window.
type SelfUpdateGuard struct {
	state  driven.LocalSyncState
	window time.Duration
	now    func() time.Time
	getenv func(string) string
}

// NewSelfUpdateGuard creates a guard backed by the sync state.
func NewSelfUpdateGuard(state driven.LocalSyncState, window time.Duration) *SelfUpdateGuard {
	if window <= 0 {
		window = domain.DefaultSelfUpdateWindow
	}
	return &SelfUpdateGuard{
		state:  state,
		window: window,
		now:    time.Now,
		getenv: os.Getenv,
	}
}

// Disabled reports whether the environment turns the refresh off.
func (g *SelfUpdateGuard) Disabled() bool {
	return isTruthy(g.getenv(SkipSelfUpdateEnv))
}

// Due reports whether the project was last fetched before the window.
func (g *SelfUpdateGuard) Due(self driven.Project) bool {
	last, ok := g.state.GetFetchTime(self)
	if !ok {
		return true
	}
	return g.now().Sub(last) >= g.window
}

// Run fetches self when it is due and then runs its post-fetch hook.
// Failures are appended to errs and never stop the run. It reports whether
// a fetch was attempted.
func (g *SelfUpdateGuard) Run(ctx context.Context, self driven.SelfProject, opts domain.SyncOptions, errs *domain.ErrorList) bool {
	if self == nil || opts.LocalOnly || g.Disabled() {
		return false
	}
	if !g.Due(self) {
		logger.Debug("self-update: %s is fresh, skipping", self.RelPath())
		return false
	}

	logger.Info("self-update: fetching %s", self.RelPath())
	err := safeCall(func() error {
		return self.SyncNetworkHalf(ctx, driven.NetworkHalfOptions{
			Tags:      opts.Tags,
			ForceSync: opts.ForceSync,
		})
	})
	if err != nil {
		logger.Warn("self-update of %s failed: %v", self.RelPath(), err)
		errs.Append(&domain.ProjectError{RelPath: self.RelPath(), Phase: domain.PhaseSelfUpdate, Err: err})
		return true
	}
	g.state.SetFetchTime(self)

	if err := safeCall(func() error { return self.PostFetch(ctx) }); err != nil {
		logger.Warn("self-update of %s: post-fetch hook failed: %v", self.RelPath(), err)
		errs.Append(&domain.ProjectError{RelPath: self.RelPath(), Phase: domain.PhaseSelfUpdate, Err: err})
	}
	return true
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
