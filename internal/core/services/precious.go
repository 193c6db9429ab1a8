package services

import "github.com/custodia-labs/reposync/internal/core/ports/driven"

// PreciousObjectsState decides whether p's object store should be marked as
// holding precious objects. That protection is only needed when more than
// one project in the manifest shares the store, and it is incompatible with
// per-project git worktrees and with alternates.
func PreciousObjectsState(p driven.Project, manifest []driven.Project) bool {
	if p.UseGitWorktrees() || p.ObjDir() == "" {
		return false
	}
	shared := 0
	for _, q := range manifest {
		if q.ObjDir() == p.ObjDir() {
			shared++
		}
	}
	if shared <= 1 {
		return false
	}
	return !p.UseAlternates()
}

// PreciousObjectsPlan evaluates PreciousObjectsState once for each project
// to be synced, keyed by relative path.
func PreciousObjectsPlan(projects, manifest []driven.Project) map[string]bool {
	plan := make(map[string]bool, len(projects))
	for _, p := range projects {
		plan[p.RelPath()] = PreciousObjectsState(p, manifest)
	}
	return plan
}
