// Command reposync synchronises a multi-repository workspace.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/go-git/go-billy/v5/osfs"

	"github.com/custodia-labs/reposync/internal/adapters/driven/config/file"
	"github.com/custodia-labs/reposync/internal/adapters/driven/git"
	"github.com/custodia-labs/reposync/internal/adapters/driven/state"
	"github.com/custodia-labs/reposync/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/reposync/internal/adapters/driven/system"
	"github.com/custodia-labs/reposync/internal/adapters/driving/cli"
	"github.com/custodia-labs/reposync/internal/core/services"
	"github.com/custodia-labs/reposync/internal/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cli.SetVersion(version)
	cli.SetBootstrap(bootstrap)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Command().ExecuteContext(ctx); err != nil {
		logger.Error("%v", err)
		stop()
		os.Exit(1)
	}
}

// bootstrap wires the adapters for the workspace containing dir.
func bootstrap(dir string) (*cli.Services, func() error, error) {
	root, err := findWorkspace(dir)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("workspace root: %s", root)

	configStore, err := file.NewConfigStore(root)
	if err != nil {
		return nil, nil, err
	}
	settings := file.LoadSyncSettings(configStore)

	store, err := sqlite.NewStore(filepath.Join(root, state.RepoDir))
	if err != nil {
		return nil, nil, err
	}

	localState := state.New(osfs.New(root), settings.SelfProject)
	manifests := git.NewManifestLoader(root, git.LoaderOptions{
		SelfPath:     settings.SelfProject,
		SelfURL:      settings.SelfURL,
		SelfRevision: settings.SelfRevision,
	})

	svcs := &cli.Services{
		Sync: services.NewSyncOrchestrator(
			manifests,
			localState,
			store.SyncRunStore(),
			system.NewResourceProbe(),
			settings,
		),
		State:   services.NewStateService(localState),
		History: services.NewHistoryService(store.SyncRunStore()),
	}
	return svcs, store.Close, nil
}

// findWorkspace walks up from dir to the nearest directory holding .repo.
func findWorkspace(dir string) (string, error) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("get working directory: %w", err)
		}
		dir = wd
	}

	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	for cur := dir; ; {
		info, err := os.Stat(filepath.Join(cur, state.RepoDir))
		if err == nil && info.IsDir() {
			return cur, nil
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return "", errors.New("not inside a workspace: no " + state.RepoDir + " directory found from " + dir)
		}
		cur = parent
	}
}
