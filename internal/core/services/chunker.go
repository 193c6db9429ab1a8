package services

import (
	"github.com/custodia-labs/reposync/internal/core/domain"
	"github.com/custodia-labs/reposync/internal/core/ports/driven"
)

// MaxChunkSize caps the projects handed to a single worker so a failure is
// reported within a bounded amount of work.
const MaxChunkSize = 32

// Chunksize returns the number of projects per work item for a batch of n
// projects spread over jobs workers.
func Chunksize(n, jobs int) int {
	if jobs <= 0 {
		jobs = 1
	}
	return max(1, min(MaxChunkSize, n/jobs))
}

// PlanWorkItems splits a batch into work items. Projects sharing an object
// directory form one indivisible group and always land in the same item,
// in batch order. Groups are packed into items up to the chunk size; a group
// larger than the chunk size becomes an item of its own.
//
// The returned effective job count never exceeds the number of items.
func PlanWorkItems(batch []driven.Project, jobs int) ([]domain.WorkItem, int) {
	if len(batch) == 0 {
		return nil, 0
	}

	groups := groupByObjDir(batch)
	size := Chunksize(len(batch), jobs)

	var items []domain.WorkItem
	var current domain.WorkItem
	for _, group := range groups {
		if len(current) > 0 && len(current)+len(group) > size {
			items = append(items, current)
			current = nil
		}
		current = append(current, group...)
		if len(current) >= size {
			items = append(items, current)
			current = nil
		}
	}
	if len(current) > 0 {
		items = append(items, current)
	}

	return items, min(max(1, jobs), len(items))
}

// groupByObjDir collapses storage siblings, preserving first appearance.
func groupByObjDir(batch []driven.Project) [][]int {
	index := make(map[string]int)
	var groups [][]int
	for i, p := range batch {
		key := p.ObjDir()
		if key == "" {
			// No shared store to protect.
			groups = append(groups, []int{i})
			continue
		}
		if g, ok := index[key]; ok {
			groups[g] = append(groups[g], i)
			continue
		}
		index[key] = len(groups)
		groups = append(groups, []int{i})
	}
	return groups
}
