package services

import (
	"context"

	"github.com/custodia-labs/reposync/internal/core/domain"
	"github.com/custodia-labs/reposync/internal/core/ports/driven"
	"github.com/custodia-labs/reposync/internal/core/ports/driving"
)

// Ensure StateService implements the interface.
var _ driving.StateService = (*StateService)(nil)

// StateService exposes the local sync state to the CLI.
type StateService struct {
	state driven.LocalSyncState
}

// NewStateService creates a new state service.
func NewStateService(state driven.LocalSyncState) *StateService {
	return &StateService{state: state}
}

// Entries returns the tracked projects.
func (s *StateService) Entries(_ context.Context) (map[string]domain.SyncStateEntry, error) {
	return s.state.Entries(), nil
}

// IsPartiallySynced reports whether the last run was interrupted.
func (s *StateService) IsPartiallySynced(_ context.Context) (bool, error) {
	return s.state.IsPartiallySynced(), nil
}

// Prune drops entries for projects gone from disk and saves the state.
func (s *StateService) Prune(_ context.Context) (int, error) {
	before := len(s.state.Entries())
	if err := s.state.PruneRemovedProjects(); err != nil {
		return 0, err
	}
	removed := before - len(s.state.Entries())
	if err := s.state.Save(); err != nil {
		return removed, err
	}
	return removed, nil
}
