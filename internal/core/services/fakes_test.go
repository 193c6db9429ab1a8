package services

import (
	"context"
	"sync"

	"github.com/custodia-labs/reposync/internal/core/ports/driven"
)

// fakeProject implements driven.Project for testing.
type fakeProject struct {
	relpath      string
	name         string
	objdir       string
	worktree     string
	exists       bool
	gitWorktrees bool
	alternates   bool

	fetchErrs   []error
	checkoutErr error
	fetchPanic  any
	onFetch     func(ctx context.Context) error

	mu             sync.Mutex
	fetchCalls     int
	checkoutCalls  int
	lastNetworkOpt driven.NetworkHalfOptions
	lastLocalOpt   driven.LocalHalfOptions
	events         *eventLog
}

func newFakeProject(relpath string) *fakeProject {
	return &fakeProject{
		relpath:  relpath,
		name:     relpath,
		objdir:   relpath + ".git",
		worktree: "/ws/" + relpath,
		exists:   true,
	}
}

func (p *fakeProject) RelPath() string       { return p.relpath }
func (p *fakeProject) Name() string          { return p.name }
func (p *fakeProject) ObjDir() string        { return p.objdir }
func (p *fakeProject) Worktree() string      { return p.worktree }
func (p *fakeProject) Exists() bool          { return p.exists }
func (p *fakeProject) UseGitWorktrees() bool { return p.gitWorktrees }
func (p *fakeProject) UseAlternates() bool   { return p.alternates }

func (p *fakeProject) SyncNetworkHalf(ctx context.Context, opts driven.NetworkHalfOptions) error {
	p.mu.Lock()
	call := p.fetchCalls
	p.fetchCalls++
	p.lastNetworkOpt = opts
	p.mu.Unlock()

	p.events.add("fetch " + p.relpath)
	if p.fetchPanic != nil {
		panic(p.fetchPanic)
	}
	if p.onFetch != nil {
		if err := p.onFetch(ctx); err != nil {
			return err
		}
	}
	if call < len(p.fetchErrs) {
		return p.fetchErrs[call]
	}
	return nil
}

func (p *fakeProject) SyncLocalHalf(_ context.Context, opts driven.LocalHalfOptions) error {
	p.mu.Lock()
	p.checkoutCalls++
	p.lastLocalOpt = opts
	p.mu.Unlock()

	p.events.add("checkout " + p.relpath)
	return p.checkoutErr
}

func (p *fakeProject) calls() (fetch, checkout int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fetchCalls, p.checkoutCalls
}

// fakeSelfProject implements driven.SelfProject for testing.
type fakeSelfProject struct {
	*fakeProject
	postFetchErr   error
	postFetchCalls int
}

func (p *fakeSelfProject) PostFetch(_ context.Context) error {
	p.postFetchCalls++
	return p.postFetchErr
}

// eventLog records the order of project operations. A nil log discards.
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(event string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

func (l *eventLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

func toProjects(fakes ...*fakeProject) []driven.Project {
	out := make([]driven.Project, len(fakes))
	for i, f := range fakes {
		out[i] = f
	}
	return out
}

func projectRelPaths(projects []driven.Project) []string {
	out := make([]string, len(projects))
	for i, p := range projects {
		out[i] = p.RelPath()
	}
	return out
}
