package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindWorkspace(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".repo"), 0o755))
	nested := filepath.Join(root, "platform", "build")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	got, err := findWorkspace(nested)
	require.NoError(t, err)
	assert.Equal(t, root, got)

	got, err = findWorkspace(root)
	require.NoError(t, err)
	assert.Equal(t, root, got)
}

func TestFindWorkspace_NotFound(t *testing.T) {
	_, err := findWorkspace(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not inside a workspace")
}

func TestBootstrap(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".repo"), 0o755))

	svcs, closer, err := bootstrap(root)
	require.NoError(t, err)
	defer func() { require.NoError(t, closer()) }()

	assert.NotNil(t, svcs.Sync)
	assert.NotNil(t, svcs.State)
	assert.NotNil(t, svcs.History)
	assert.FileExists(t, filepath.Join(root, ".repo", "reposync.db"))
}
