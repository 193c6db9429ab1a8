package memory

import (
	"sync"
	"time"

	"github.com/custodia-labs/reposync/internal/core/domain"
	"github.com/custodia-labs/reposync/internal/core/ports/driven"
)

// Ensure LocalSyncState implements the interface.
var _ driven.LocalSyncState = (*LocalSyncState)(nil)

// LocalSyncState is an in-memory implementation of driven.LocalSyncState.
// Paths passed to MarkRemoved are treated as gone from disk by
// PruneRemovedProjects.
type LocalSyncState struct {
	mu       sync.RWMutex
	entries  map[string]domain.SyncStateEntry
	removed  map[string]bool
	selfPath string
	now      func() time.Time
	saves    int
	saveErr  error
}

// NewLocalSyncState creates an empty state. selfPath names the bookkeeping
// project; now defaults to time.Now.
func NewLocalSyncState(selfPath string, now func() time.Time) *LocalSyncState {
	if now == nil {
		now = time.Now
	}
	return &LocalSyncState{
		entries:  make(map[string]domain.SyncStateEntry),
		removed:  make(map[string]bool),
		selfPath: selfPath,
		now:      now,
	}
}

// SetFetchTime records now as the project's last fetch.
func (s *LocalSyncState) SetFetchTime(p driven.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entries[p.RelPath()]
	e.LastFetch = s.now()
	s.entries[p.RelPath()] = e
}

// SetCheckoutTime records now as the project's last checkout.
func (s *LocalSyncState) SetCheckoutTime(p driven.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entries[p.RelPath()]
	e.LastCheckout = s.now()
	s.entries[p.RelPath()] = e
}

// GetFetchTime returns the recorded fetch time.
func (s *LocalSyncState) GetFetchTime(p driven.Project) (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e := s.entries[p.RelPath()]
	return e.LastFetch, e.HasFetch()
}

// GetCheckoutTime returns the recorded checkout time.
func (s *LocalSyncState) GetCheckoutTime(p driven.Project) (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e := s.entries[p.RelPath()]
	return e.LastCheckout, e.HasCheckout()
}

// Entries returns a copy of the tracked entries.
func (s *LocalSyncState) Entries() map[string]domain.SyncStateEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]domain.SyncStateEntry, len(s.entries))
	for k, v := range s.entries {
		out[k] = v
	}
	return out
}

// Put seeds an entry directly.
func (s *LocalSyncState) Put(relpath string, entry domain.SyncStateEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[relpath] = entry
}

// IsPartiallySynced reports whether a previous run was interrupted.
func (s *LocalSyncState) IsPartiallySynced() bool {
	return domain.IsPartiallySynced(s.Entries(), s.selfPath)
}

// MarkRemoved makes PruneRemovedProjects treat the paths as deleted.
func (s *LocalSyncState) MarkRemoved(relpaths ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range relpaths {
		s.removed[p] = true
	}
}

// PruneRemovedProjects drops entries marked as removed.
func (s *LocalSyncState) PruneRemovedProjects() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for path := range s.entries {
		if s.removed[path] {
			delete(s.entries, path)
		}
	}
	return nil
}

// Save counts the call; it returns the error set by FailSaves.
func (s *LocalSyncState) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	return s.saveErr
}

// FailSaves makes Save return err.
func (s *LocalSyncState) FailSaves(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveErr = err
}

// Saves returns how many times Save was called.
func (s *LocalSyncState) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}
