package services

import (
	"sort"
	"strings"

	"github.com/custodia-labs/reposync/internal/core/ports/driven"
)

// SafeCheckoutOrder groups projects into batches so that every project is
// checked out in a later batch than any project whose path contains it.
//
// A project's batch is the number of other projects that are its ancestor
// directories. Ancestry follows path components, so "foo" contains
// "foo/bar" but not "foo-bar" or "foobar". Batches are sorted by path.
func SafeCheckoutOrder(projects []driven.Project) [][]driven.Project {
	if len(projects) == 0 {
		return nil
	}

	paths := make([]string, len(projects))
	for i, p := range projects {
		paths[i] = strings.TrimSuffix(p.RelPath(), "/")
	}

	byDepth := make(map[int][]driven.Project)
	maxDepth := 0
	for i, p := range projects {
		depth := 0
		for j, other := range paths {
			if i != j && isAncestorPath(other, paths[i]) {
				depth++
			}
		}
		byDepth[depth] = append(byDepth[depth], p)
		maxDepth = max(maxDepth, depth)
	}

	batches := make([][]driven.Project, 0, len(byDepth))
	for depth := 0; depth <= maxDepth; depth++ {
		batch, ok := byDepth[depth]
		if !ok {
			continue
		}
		sort.SliceStable(batch, func(a, b int) bool {
			return batch[a].RelPath() < batch[b].RelPath()
		})
		batches = append(batches, batch)
	}
	return batches
}

// isAncestorPath reports whether dir is a strict ancestor of path.
func isAncestorPath(dir, path string) bool {
	return dir != "" && strings.HasPrefix(path, dir+"/")
}
