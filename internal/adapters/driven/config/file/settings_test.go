package file

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/reposync/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/reposync/internal/core/domain"
)

func TestLoadSyncSettings_Defaults(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, domain.DefaultSyncSettings(), LoadSyncSettings(store))
	assert.Equal(t, domain.DefaultSyncSettings(), LoadSyncSettings(nil))
}

func TestLoadSyncSettings_AllKeys(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, `
[sync]
jobs = 16
local_jobs = 4
fd_reserve = 10
fd_per_job = 4
stall_interval = "2m"
fail_fast = true
self_project = ".repo/tool"
self_url = "https://example.com/tool.git"
self_revision = "stable"
history_keep = 20
`)
	store, err := NewConfigStore(root)
	require.NoError(t, err)

	got := LoadSyncSettings(store)

	assert.Equal(t, domain.SyncSettings{
		Jobs:          16,
		Tuning:        domain.JobTuning{LocalJobs: 4, FDReserve: 10, FDPerJob: 4},
		StallInterval: 2 * time.Minute,
		FailFast:      true,
		SelfProject:   ".repo/tool",
		SelfURL:       "https://example.com/tool.git",
		SelfRevision:  "stable",
		HistoryKeep:   20,
	}, got)
}

func TestLoadSyncSettings_InvalidValuesKeepDefaults(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, `
[sync]
jobs = -3
fd_per_job = 0
stall_interval = "soon"
history_keep = -1
`)
	store, err := NewConfigStore(root)
	require.NoError(t, err)

	assert.Equal(t, domain.DefaultSyncSettings(), LoadSyncSettings(store))
}

func TestLoadSyncSettings_ZeroStallIntervalDisables(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "[sync]\nstall_interval = \"0s\"\nfd_reserve = 0\n")
	store, err := NewConfigStore(root)
	require.NoError(t, err)

	got := LoadSyncSettings(store)

	assert.Equal(t, time.Duration(0), got.StallInterval)
	assert.Equal(t, domain.DefaultFDReserve, got.Tuning.FDReserve, "zero reserve means unset")
}

func TestLoadSyncSettings_MemoryStore(t *testing.T) {
	store := memory.NewConfigStore()
	require.NoError(t, store.Set(KeyJobs, 3))
	require.NoError(t, store.Set(KeyStallInterval, "30s"))
	require.NoError(t, store.Set(KeySelfURL, "/srv/mirror/tool.git"))

	got := LoadSyncSettings(store)

	assert.Equal(t, 3, got.Jobs)
	assert.Equal(t, 30*time.Second, got.StallInterval)
	assert.Equal(t, "/srv/mirror/tool.git", got.SelfURL)
	assert.Equal(t, domain.DefaultSelfRevision, got.SelfRevision)
}
