package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/reposync/internal/core/ports/driving"
)

// RunSync runs req while rendering progress, and returns what the sync
// returned.
func RunSync(
	ctx context.Context,
	sync driving.SyncOrchestrator,
	req driving.SyncRequest,
	opts ...tea.ProgramOption,
) (*driving.SyncReport, error) {
	app, err := NewApp(&Ports{Sync: sync}, req)
	if err != nil {
		return nil, err
	}
	app.WithContext(ctx)

	final, err := tea.NewProgram(app, opts...).Run()
	if err != nil {
		return nil, fmt.Errorf("progress view: %w", err)
	}

	result, ok := final.(*App)
	if !ok {
		return nil, fmt.Errorf("progress view: unexpected model %T", final)
	}
	return result.Report(), result.Err()
}
