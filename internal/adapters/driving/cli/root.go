// Package cli implements the reposync command line.
package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/reposync/internal/core/ports/driving"
	"github.com/custodia-labs/reposync/internal/logger"
)

var (
	version = "dev"

	verbose   bool
	quiet     bool
	workspace string

	syncOrchestrator driving.SyncOrchestrator
	stateService     driving.StateService
	historyService   driving.HistoryService

	bootstrap Bootstrap
	shutdown  func() error
)

// Services holds the driving ports the commands call.
type Services struct {
	Sync    driving.SyncOrchestrator
	State   driving.StateService
	History driving.HistoryService
}

// Bootstrap builds the services for a workspace root once flags are parsed.
// The returned function releases whatever the services hold open.
type Bootstrap func(workspace string) (*Services, func() error, error)

var rootCmd = &cobra.Command{
	Use:   "reposync",
	Short: "Synchronise a multi-repository workspace",
	Long: `reposync fetches and checks out every project listed in the
workspace manifest (.repo/manifest.xml) in parallel.

Projects nested inside other projects are checked out after their parents,
and projects sharing an object store are never synchronised concurrently.`,
	SilenceUsage:       true,
	SilenceErrors:      true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "show debug output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only show errors")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "workspace root (default: current directory)")
	rootCmd.MarkFlagsMutuallyExclusive("verbose", "quiet")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// Command returns the root command so callers can execute it with a context.
func Command() *cobra.Command {
	return rootCmd
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetBootstrap registers the function that wires services on startup.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// SetServices installs services directly.
func SetServices(s *Services) {
	if s == nil {
		s = &Services{}
	}
	syncOrchestrator = s.Sync
	stateService = s.State
	historyService = s.History
}

func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	logger.SetQuiet(quiet)

	if bootstrap == nil || cmd == versionCmd {
		return nil
	}

	svcs, closer, err := bootstrap(workspace)
	if err != nil {
		return fmt.Errorf("failed to open workspace: %w", err)
	}
	SetServices(svcs)
	shutdown = closer
	return nil
}

func teardown(_ *cobra.Command, _ []string) error {
	if shutdown == nil {
		return nil
	}
	err := shutdown()
	shutdown = nil
	if err != nil {
		return fmt.Errorf("failed to close workspace: %w", err)
	}
	return nil
}

// errNotConfigured reports a service that bootstrap did not provide.
func errNotConfigured(name string) error {
	return errors.New(name + " service not configured")
}
