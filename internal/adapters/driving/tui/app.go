package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/reposync/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/reposync/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/reposync/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/reposync/internal/core/domain"
	"github.com/custodia-labs/reposync/internal/core/ports/driving"
)

const (
	// maxFailuresShown caps the failure lines under the bar.
	maxFailuresShown = 5

	// maxBarWidth caps the progress bar on wide terminals.
	maxBarWidth = 60

	// eventBuffer decouples workers from rendering.
	eventBuffer = 64
)

// App is the sync progress view following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports *Ports
	req   driving.SyncRequest

	// ctx scopes the sync; cancel is called on the first cancel key.
	ctx    context.Context
	cancel context.CancelFunc

	// events carries progress from workers to the update loop.
	events chan domain.ProgressEvent

	styles  *styles.Styles
	keys    *keymap.KeyMap
	help    help.Model
	bar     progress.Model
	spinner spinner.Model

	done     int
	total    int
	batch    int
	batches  int
	last     string
	failures []string

	cancelled bool
	finished  bool
	report    *driving.SyncReport
	err       error
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a progress view for one sync request.
func NewApp(ports *Ports, req driving.SyncRequest) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = s.Title

	bar := progress.New(
		progress.WithGradient(string(s.Theme().Primary), string(s.Theme().Secondary)),
		progress.WithWidth(maxBarWidth/2),
	)

	a := &App{
		ports:   ports,
		req:     req,
		events:  make(chan domain.ProgressEvent, eventBuffer),
		styles:  s,
		keys:    keymap.DefaultKeyMap(),
		help:    help.New(),
		bar:     bar,
		spinner: sp,
	}
	return a.WithContext(context.Background()), nil
}

// WithContext sets the parent context of the sync.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx, a.cancel = context.WithCancel(ctx)
	return a
}

// Report returns the sync report once the run finished.
func (a *App) Report() *driving.SyncReport {
	return a.report
}

// Err returns the error the sync returned, or context.Canceled when the
// view was quit before the sync finished.
func (a *App) Err() error {
	return a.err
}

// Finished reports whether the sync returned.
func (a *App) Finished() bool {
	return a.finished
}

// Init implements tea.Model. It starts the sync and the spinner.
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.spinner.Tick, a.startSync(), a.waitForEvent())
}

// startSync runs the sync on the command goroutine.
func (a *App) startSync() tea.Cmd {
	req := a.req
	req.Progress = a.publish
	return func() tea.Msg {
		report, err := a.ports.Sync.Sync(a.ctx, req)
		close(a.events)
		return messages.SyncFinished{Report: report, Err: err}
	}
}

// publish forwards a progress event unless the view has gone away.
func (a *App) publish(e domain.ProgressEvent) {
	select {
	case a.events <- e:
	case <-a.ctx.Done():
	}
}

func (a *App) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		e, ok := <-a.events
		if !ok {
			return nil
		}
		return messages.ProjectFinished{Event: e}
	}
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.bar.Width = max(10, min(msg.Width-4, maxBarWidth))
		a.help.Width = msg.Width
		return a, nil

	case tea.KeyMsg:
		if !key.Matches(msg, a.keys.Cancel) {
			return a, nil
		}
		if a.cancelled || a.finished {
			if !a.finished {
				a.err = context.Canceled
			}
			return a, tea.Quit
		}
		a.cancelled = true
		a.cancel()
		return a, nil

	case messages.ProjectFinished:
		a.apply(msg.Event)
		return a, a.waitForEvent()

	case messages.SyncFinished:
		a.finished = true
		a.report = msg.Report
		a.err = msg.Err
		a.cancel()
		return a, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a *App) apply(e domain.ProgressEvent) {
	a.done = e.Done
	a.total = e.Total
	a.batch = e.Batch
	a.batches = e.Batches
	a.last = e.Outcome.RelPath

	if !e.Outcome.Failed() {
		return
	}
	line := e.Outcome.RelPath
	switch {
	case e.Outcome.FetchError != nil:
		line = fmt.Sprintf("fetch %s: %v", line, e.Outcome.FetchError)
	case e.Outcome.CheckoutError != nil:
		line = fmt.Sprintf("checkout %s: %v", line, e.Outcome.CheckoutError)
	}
	a.failures = append(a.failures, line)
}

func (a *App) fraction() float64 {
	if a.total == 0 {
		return 0
	}
	return float64(a.done) / float64(a.total)
}

// View implements tea.Model. The final frame is empty so the summary
// printed afterwards stands alone.
func (a *App) View() string {
	if a.finished {
		return ""
	}

	var b strings.Builder

	status := "Syncing"
	if a.cancelled {
		status = "Cancelling"
	}
	fmt.Fprintf(&b, "%s %s %s", a.spinner.View(), a.styles.Title.Render(status),
		a.styles.Counter.Render(fmt.Sprintf("%d/%d", a.done, a.total)))
	if a.batches > 0 {
		b.WriteString(a.styles.Muted.Render(fmt.Sprintf("  batch %d/%d", a.batch+1, a.batches)))
	}
	b.WriteString("\n")
	b.WriteString(a.bar.ViewAs(a.fraction()))
	b.WriteString("\n")

	if a.last != "" {
		b.WriteString(a.styles.Muted.Render("last: " + a.last))
		b.WriteString("\n")
	}

	shown := a.failures
	if len(shown) > maxFailuresShown {
		shown = shown[len(shown)-maxFailuresShown:]
	}
	for _, f := range shown {
		b.WriteString(a.styles.Error.Render("✗ " + f))
		b.WriteString("\n")
	}

	if a.cancelled {
		b.WriteString(a.styles.Warning.Render("Waiting for running projects to finish..."))
		b.WriteString("\n")
	}
	b.WriteString(a.help.ShortHelpView(a.keys.ShortHelp()))
	return b.String()
}
