package services

import (
	"context"

	"github.com/custodia-labs/reposync/internal/core/domain"
	"github.com/custodia-labs/reposync/internal/core/ports/driven"
	"github.com/custodia-labs/reposync/internal/core/ports/driving"
)

// Ensure HistoryService implements the interface.
var _ driving.HistoryService = (*HistoryService)(nil)

// HistoryService reads recorded sync runs.
type HistoryService struct {
	runs driven.SyncRunStore
}

// NewHistoryService creates a new history service.
func NewHistoryService(runs driven.SyncRunStore) *HistoryService {
	return &HistoryService{runs: runs}
}

// List returns up to limit runs, most recent first.
func (s *HistoryService) List(ctx context.Context, limit int) ([]domain.SyncRun, error) {
	if s.runs == nil {
		return nil, nil
	}
	return s.runs.ListRuns(ctx, limit)
}

// Get returns one run by ID.
func (s *HistoryService) Get(ctx context.Context, id string) (*domain.SyncRun, error) {
	if s.runs == nil {
		return nil, domain.ErrNotFound
	}
	return s.runs.GetRun(ctx, id)
}
