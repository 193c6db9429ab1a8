package file

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, root, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".repo"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".repo", FileName), []byte(content), 0o644))
}

func TestNewConfigStore_NoFile(t *testing.T) {
	root := t.TempDir()

	store, err := NewConfigStore(root)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, ".repo", "reposync.toml"), store.Path())
	_, ok := store.Get("sync.jobs")
	assert.False(t, ok)
	_, err = os.Stat(store.Path())
	assert.True(t, os.IsNotExist(err), "opening must not create the file")
}

func TestNewConfigStore_ReadsTables(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, `
[sync]
jobs = 12
fail_fast = true
self_project = ".repo/tool"
stall_interval = "90s"
`)

	store, err := NewConfigStore(root)
	require.NoError(t, err)

	assert.Equal(t, 12, store.GetInt("sync.jobs"))
	assert.True(t, store.GetBool("sync.fail_fast"))
	assert.Equal(t, ".repo/tool", store.GetString("sync.self_project"))
	assert.Equal(t, 90*time.Second, store.GetDuration("sync.stall_interval"))
}

func TestNewConfigStore_InvalidTOML(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "[sync\njobs = ")

	_, err := NewConfigStore(root)

	assert.Error(t, err)
}

func TestConfigStore_SetPersistsAsTables(t *testing.T) {
	root := t.TempDir()
	store, err := NewConfigStore(root)
	require.NoError(t, err)

	require.NoError(t, store.Set("sync.jobs", 4))
	require.NoError(t, store.Set("sync.stall_interval", 2*time.Minute))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "[sync]")

	reopened, err := NewConfigStore(root)
	require.NoError(t, err)
	assert.Equal(t, 4, reopened.GetInt("sync.jobs"))
	assert.Equal(t, 2*time.Minute, reopened.GetDuration("sync.stall_interval"))
}

func TestConfigStore_TypeMismatch(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, `
[sync]
jobs = "many"
fail_fast = "yes"
self_project = 3
stall_interval = "soon"
`)

	store, err := NewConfigStore(root)
	require.NoError(t, err)

	assert.Equal(t, 0, store.GetInt("sync.jobs"))
	assert.False(t, store.GetBool("sync.fail_fast"))
	assert.Equal(t, "", store.GetString("sync.self_project"))
	assert.Equal(t, time.Duration(0), store.GetDuration("sync.stall_interval"))
}

func TestConfigStore_DurationFromSeconds(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "[sync]\nstall_interval = 30\n")

	store, err := NewConfigStore(root)
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, store.GetDuration("sync.stall_interval"))
}

func TestFlattenAndNest(t *testing.T) {
	nested := map[string]any{
		"sync": map[string]any{"jobs": int64(4), "deep": map[string]any{"x": true}},
		"top":  "v",
	}

	flat := flattenMap(nested, "")
	assert.Equal(t, map[string]any{"sync.jobs": int64(4), "sync.deep.x": true, "top": "v"}, flat)
	assert.Equal(t, nested, nestMap(flat))
}
