package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/reposync/internal/core/domain"
	"github.com/custodia-labs/reposync/internal/core/ports/driven"
)

// Ensure SyncRunStore implements the interface.
var _ driven.SyncRunStore = (*SyncRunStore)(nil)

// SyncRunStore is an in-memory implementation of driven.SyncRunStore.
type SyncRunStore struct {
	mu   sync.RWMutex
	runs map[string]domain.SyncRun
}

// NewSyncRunStore creates a new in-memory run store.
func NewSyncRunStore() *SyncRunStore {
	return &SyncRunStore{
		runs: make(map[string]domain.SyncRun),
	}
}

// RecordRun stores a copy of the run.
func (s *SyncRunStore) RecordRun(_ context.Context, run *domain.SyncRun) error {
	if run == nil || run.ID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *run
	stored.Errors = append([]string(nil), run.Errors...)
	s.runs[run.ID] = stored
	return nil
}

// GetRun retrieves a run by ID.
func (s *SyncRunStore) GetRun(_ context.Context, id string) (*domain.SyncRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &run, nil
}

// ListRuns returns runs, most recent first.
func (s *SyncRunStore) ListRuns(_ context.Context, limit int) ([]domain.SyncRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	runs := s.sorted()
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// PruneRuns keeps only the most recent keep runs.
func (s *SyncRunStore) PruneRuns(_ context.Context, keep int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	runs := s.sorted()
	if keep < 0 || len(runs) <= keep {
		return nil
	}
	for _, run := range runs[keep:] {
		delete(s.runs, run.ID)
	}
	return nil
}

func (s *SyncRunStore) sorted() []domain.SyncRun {
	runs := make([]domain.SyncRun, 0, len(s.runs))
	for _, r := range s.runs {
		runs = append(runs, r)
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})
	return runs
}
