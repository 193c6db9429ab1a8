package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path"
	"sync"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/custodia-labs/reposync/internal/core/domain"
	"github.com/custodia-labs/reposync/internal/core/ports/driven"
	"github.com/custodia-labs/reposync/internal/logger"
)

// Ensure LocalSyncState implements the interface.
var _ driven.LocalSyncState = (*LocalSyncState)(nil)

const (
	// RepoDir is the workspace metadata directory.
	RepoDir = ".repo"

	// FileName is the state file name inside RepoDir.
	FileName = ".repo_localsyncstate.json"
)

// LocalSyncState is the file-backed driven.LocalSyncState.
type LocalSyncState struct {
	fs       billy.Filesystem
	file     string
	selfPath string
	now      func() time.Time

	mu      sync.RWMutex
	entries map[string]domain.SyncStateEntry

	// loadErr is set when the file was written by a newer schema; Save
	// refuses to overwrite it.
	loadErr error
}

// New opens the state of the workspace rooted at fs. A missing, unreadable
// or corrupt file yields an empty state. selfPath names the bookkeeping
// project excluded from partial-sync detection.
func New(fs billy.Filesystem, selfPath string) *LocalSyncState {
	s := &LocalSyncState{
		fs:       fs,
		file:     path.Join(RepoDir, FileName),
		selfPath: selfPath,
		now:      time.Now,
		entries:  make(map[string]domain.SyncStateEntry),
	}
	s.load()
	return s
}

// Path returns the state file path relative to the workspace root.
func (s *LocalSyncState) Path() string {
	return s.file
}

func (s *LocalSyncState) load() {
	data, err := util.ReadFile(s.fs, s.file)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Warn("read %s: %v", s.file, err)
		}
		return
	}

	entries, err := decode(data)
	if err != nil {
		if errors.Is(err, domain.ErrUnsupportedStateVersion) {
			s.loadErr = err
		}
		logger.Warn("ignoring %s: %v", s.file, err)
		return
	}
	s.entries = entries
	logger.Debug("loaded sync state for %d projects", len(entries))
}

// SetFetchTime records now as the project's last fetch.
func (s *LocalSyncState) SetFetchTime(p driven.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entries[p.RelPath()]
	e.LastFetch = s.stamp()
	s.entries[p.RelPath()] = e
}

// SetCheckoutTime records now as the project's last checkout.
func (s *LocalSyncState) SetCheckoutTime(p driven.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entries[p.RelPath()]
	e.LastCheckout = s.stamp()
	s.entries[p.RelPath()] = e
}

// stamp returns now at the precision the state file keeps, so a reloaded
// map equals the saved one.
func (s *LocalSyncState) stamp() time.Time {
	return s.now().Round(time.Microsecond)
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

// Entries returns a copy of all tracked entries.
func (s *LocalSyncState) Entries() map[string]domain.SyncStateEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]domain.SyncStateEntry, len(s.entries))
	for k, v := range s.entries {
		out[k] = v
	}
	return out
}

// IsPartiallySynced reports whether a previous run was interrupted between
// fetch and checkout.
func (s *LocalSyncState) IsPartiallySynced() bool {
	return domain.IsPartiallySynced(s.Entries(), s.selfPath)
}

// PruneRemovedProjects drops entries whose path is missing or is a symlink.
func (s *LocalSyncState) PruneRemovedProjects() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for relpath := range s.entries {
		info, err := s.fs.Lstat(relpath)
		switch {
		case errors.Is(err, os.ErrNotExist):
			delete(s.entries, relpath)
		case err != nil:
			return fmt.Errorf("stat %s: %w", relpath, err)
		case info.Mode()&os.ModeSymlink != 0:
			delete(s.entries, relpath)
		}
	}
	return nil
}

// Save writes the state atomically.
func (s *LocalSyncState) Save() error {
	if s.loadErr != nil {
		return fmt.Errorf("save %s: %w", s.file, s.loadErr)
	}

	s.mu.RLock()
	data, err := encode(s.entries)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("encode sync state: %w", err)
	}

	if err := s.fs.MkdirAll(RepoDir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", RepoDir, err)
	}
	tmp, err := util.TempFile(s.fs, RepoDir, FileName+".tmp")
	if err != nil {
		return fmt.Errorf("save %s: %w", s.file, err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = s.fs.Remove(tmp.Name())
		return fmt.Errorf("save %s: %w", s.file, err)
	}
	if err := tmp.Close(); err != nil {
		_ = s.fs.Remove(tmp.Name())
		return fmt.Errorf("save %s: %w", s.file, err)
	}
	if err := s.fs.Rename(tmp.Name(), s.file); err != nil {
		_ = s.fs.Remove(tmp.Name())
		return fmt.Errorf("save %s: %w", s.file, err)
	}
	return nil
}

// fileEntry is the on-disk form of an entry. Times are fractional Unix
// seconds; a missing key means never recorded.
type fileEntry struct {
	LastFetch    *float64 `json:"last_fetch,omitempty"`
	LastCheckout *float64 `json:"last_checkout,omitempty"`
}

type fileState struct {
	Version  int                  `json:"version"`
	Projects map[string]fileEntry `json:"projects"`
}

func encode(entries map[string]domain.SyncStateEntry) ([]byte, error) {
	out := fileState{
		Version:  domain.SyncStateVersion,
		Projects: make(map[string]fileEntry, len(entries)),
	}
	for relpath, e := range entries {
		var fe fileEntry
		if e.HasFetch() {
			fe.LastFetch = toSeconds(e.LastFetch)
		}
		if e.HasCheckout() {
			fe.LastCheckout = toSeconds(e.LastCheckout)
		}
		out.Projects[relpath] = fe
	}
	return json.MarshalIndent(out, "", "  ")
}

// decode accepts the versioned layout and the legacy bare map of relative
// path to entry.
func decode(data []byte) (map[string]domain.SyncStateEntry, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	var projects map[string]fileEntry
	if raw, ok := probe["version"]; ok && isNumber(raw) {
		var st fileState
		if err := json.Unmarshal(data, &st); err != nil {
			return nil, fmt.Errorf("decode: %w", err)
		}
		if st.Version > domain.SyncStateVersion {
			return nil, fmt.Errorf("%w: %d", domain.ErrUnsupportedStateVersion, st.Version)
		}
		projects = st.Projects
	} else if err := json.Unmarshal(data, &projects); err != nil {
		return nil, fmt.Errorf("decode legacy: %w", err)
	}

	entries := make(map[string]domain.SyncStateEntry, len(projects))
	for relpath, fe := range projects {
		var e domain.SyncStateEntry
		if fe.LastFetch != nil {
			e.LastFetch = fromSeconds(*fe.LastFetch)
		}
		if fe.LastCheckout != nil {
			e.LastCheckout = fromSeconds(*fe.LastCheckout)
		}
		entries[relpath] = e
	}
	return entries, nil
}

func isNumber(raw json.RawMessage) bool {
	var n float64
	return json.Unmarshal(raw, &n) == nil
}

func toSeconds(t time.Time) *float64 {
	s := float64(t.UnixNano()) / 1e9
	return &s
}

func fromSeconds(s float64) time.Time {
	sec, frac := math.Modf(s)
	return time.Unix(int64(sec), int64(math.Round(frac*1e6))*1e3)
}
