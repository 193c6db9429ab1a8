package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// palette styles command output. Every style is plain when the writer is
// not a terminal so piped output stays free of escape codes.
type palette struct {
	title   lipgloss.Style
	ok      lipgloss.Style
	warn    lipgloss.Style
	fail    lipgloss.Style
	muted   lipgloss.Style
	heading lipgloss.Style
}

// isTerminal is swapped in tests.
var isTerminal = func(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func newPalette(w io.Writer) palette {
	if !isTerminal(w) {
		plain := lipgloss.NewStyle()
		return palette{title: plain, ok: plain, warn: plain, fail: plain, muted: plain, heading: plain}
	}
	return palette{
		title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED")),
		ok:      lipgloss.NewStyle().Foreground(lipgloss.Color("#A6E3A1")),
		warn:    lipgloss.NewStyle().Foreground(lipgloss.Color("#F9E2AF")),
		fail:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F38BA8")),
		muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086")),
		heading: lipgloss.NewStyle().Underline(true),
	}
}
