package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/reposync/internal/core/domain"
)

var stateOutput string

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Inspect the local sync state",
	Long: `The local sync state records when each project was last fetched and
last checked out. A project fetched more recently than it was checked out
means the previous sync was interrupted.`,
	RunE: runStateShow,
}

var stateShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show per-project fetch and checkout times",
	RunE:  runStateShow,
}

var statePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Forget projects that are no longer on disk",
	RunE:  runStatePrune,
}

func init() {
	for _, c := range []*cobra.Command{stateCmd, stateShowCmd} {
		c.Flags().StringVarP(&stateOutput, "output", "o", "text", "output format: text, json or yaml")
	}
	stateCmd.AddCommand(stateShowCmd)
	stateCmd.AddCommand(statePruneCmd)
	rootCmd.AddCommand(stateCmd)
}

type stateView struct {
	Partial  bool               `json:"partial" yaml:"partial"`
	Projects []projectStateView `json:"projects" yaml:"projects"`
}

type projectStateView struct {
	Path         string     `json:"path" yaml:"path"`
	LastFetch    *time.Time `json:"last_fetch,omitempty" yaml:"last_fetch,omitempty"`
	LastCheckout *time.Time `json:"last_checkout,omitempty" yaml:"last_checkout,omitempty"`
}

func runStateShow(cmd *cobra.Command, _ []string) error {
	if stateService == nil {
		return errNotConfigured("state")
	}

	ctx := cmd.Context()
	entries, err := stateService.Entries(ctx)
	if err != nil {
		return fmt.Errorf("failed to read sync state: %w", err)
	}
	partial, err := stateService.IsPartiallySynced(ctx)
	if err != nil {
		return fmt.Errorf("failed to read sync state: %w", err)
	}

	view := buildStateView(entries, partial)
	w := cmd.OutOrStdout()

	switch stateOutput {
	case "json":
		data, err := json.MarshalIndent(view, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal state: %w", err)
		}
		fmt.Fprintln(w, string(data))
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(view); err != nil {
			return fmt.Errorf("failed to marshal state: %w", err)
		}
		return enc.Close()
	case "text", "":
		printStateTable(w, view)
	default:
		return fmt.Errorf("unknown output format %q", stateOutput)
	}
	return nil
}

func buildStateView(entries map[string]domain.SyncStateEntry, partial bool) stateView {
	view := stateView{Partial: partial, Projects: make([]projectStateView, 0, len(entries))}
	for path, e := range entries {
		pv := projectStateView{Path: path}
		if e.HasFetch() {
			t := e.LastFetch.UTC()
			pv.LastFetch = &t
		}
		if e.HasCheckout() {
			t := e.LastCheckout.UTC()
			pv.LastCheckout = &t
		}
		view.Projects = append(view.Projects, pv)
	}
	sort.Slice(view.Projects, func(i, j int) bool {
		return view.Projects[i].Path < view.Projects[j].Path
	})
	return view
}

func printStateTable(w io.Writer, view stateView) {
	p := newPalette(w)

	if len(view.Projects) == 0 {
		fmt.Fprintln(w, "No sync state recorded.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PROJECT\tLAST FETCH\tLAST CHECKOUT")
	for _, pv := range view.Projects {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", pv.Path, formatStamp(pv.LastFetch), formatStamp(pv.LastCheckout))
	}
	_ = tw.Flush()

	if view.Partial {
		fmt.Fprintln(w)
		fmt.Fprintln(w, p.warn.Render("Partially synced: run 'reposync sync' to finish checking out."))
	}
}

func formatStamp(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(time.RFC3339)
}

func runStatePrune(cmd *cobra.Command, _ []string) error {
	if stateService == nil {
		return errNotConfigured("state")
	}

	n, err := stateService.Prune(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to prune sync state: %w", err)
	}
	cmd.Printf("Pruned %d entries.\n", n)
	return nil
}
