package memory

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/reposync/internal/core/domain"
	"github.com/custodia-labs/reposync/internal/core/ports/driven"
)

// stubProject satisfies driven.Project; only RelPath is called.
type stubProject struct {
	driven.Project
	path string
}

func (p stubProject) RelPath() string { return p.path }

func TestLocalSyncState_SetAndGet(t *testing.T) {
	clock := time.Unix(100, 0)
	state := NewLocalSyncState(".repo/repo", func() time.Time { return clock })

	p := stubProject{path: "a"}
	_, ok := state.GetFetchTime(p)
	assert.False(t, ok)

	state.SetFetchTime(p)
	clock = time.Unix(200, 0)
	state.SetCheckoutTime(p)

	fetch, ok := state.GetFetchTime(p)
	assert.True(t, ok)
	assert.Equal(t, time.Unix(100, 0), fetch)
	checkout, ok := state.GetCheckoutTime(p)
	assert.True(t, ok)
	assert.Equal(t, time.Unix(200, 0), checkout)
	assert.False(t, state.IsPartiallySynced())
}

func TestLocalSyncState_Partial(t *testing.T) {
	state := NewLocalSyncState(".repo/repo", nil)
	state.Put("a", domain.SyncStateEntry{LastFetch: time.Unix(2, 0), LastCheckout: time.Unix(3, 0)})
	state.Put("b", domain.SyncStateEntry{LastFetch: time.Unix(2, 0)})

	assert.True(t, state.IsPartiallySynced())
}

func TestLocalSyncState_Prune(t *testing.T) {
	state := NewLocalSyncState("", nil)
	state.Put("a", domain.SyncStateEntry{LastFetch: time.Unix(1, 0)})
	state.Put("b", domain.SyncStateEntry{LastFetch: time.Unix(1, 0)})
	state.MarkRemoved("b")

	assert.NoError(t, state.PruneRemovedProjects())
	assert.Equal(t, []string{"a"}, keys(state.Entries()))
}

func TestLocalSyncState_Save(t *testing.T) {
	state := NewLocalSyncState("", nil)
	assert.NoError(t, state.Save())
	state.FailSaves(errors.New("disk full"))
	assert.Error(t, state.Save())
	assert.Equal(t, 2, state.Saves())
}

func keys(m map[string]domain.SyncStateEntry) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
