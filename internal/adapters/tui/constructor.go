// Package tui provides the interactive terminal view of a running build.
package tui

import (
	"io"
	"os"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/strata/internal/ui/output"
)

// NewModel creates a new TUI model with default settings.
func NewModel(w io.Writer) Model {
	if w == nil {
		w = os.Stderr
	}

	out := output.New(w)
	lipgloss.SetColorProfile(out.Profile)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = stepRunningStyle

	return Model{
		Steps:      make([]*StepNode, 0),
		StepMap:    make(map[string]*StepNode),
		SpanMap:    make(map[string]*StepNode),
		TreeRoots:  make([]*StepNode, 0),
		FlatList:   make([]*StepNode, 0),
		Output:     out,
		Spinner:    s,
		AutoScroll: true,
		ViewMode:   ViewModeTree,
		FollowMode: true,
	}
}

// WithDisableTick returns a copy of m that does not animate the spinner.
//
//nolint:gocritic // hugeParam ignored
func (m Model) WithDisableTick() Model {
	m.DisableTick = true
	return m
}
