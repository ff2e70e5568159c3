package tui

import (
	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/strata/internal/ui/style"
)

var (
	listStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, true, false, false).
			BorderForeground(style.Muted).
			MarginRight(1).
			PaddingRight(1)

	logStyle = lipgloss.NewStyle().
			PaddingLeft(1)

	stepPendingStyle = lipgloss.NewStyle().
				Foreground(style.Muted)

	stepRunningStyle = lipgloss.NewStyle().
				Foreground(style.Accent).
				Bold(true)

	stepDoneStyle = lipgloss.NewStyle().
			Foreground(style.Done)

	stepErrorStyle = lipgloss.NewStyle().
			Foreground(style.Failed)

	stepInheritedStyle = lipgloss.NewStyle().
				Foreground(style.Muted).
				Faint(true)

	selectedStyle = lipgloss.NewStyle().
			Foreground(style.Accent).
			Bold(true)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Background(style.Accent).
			Foreground(style.Light)

	failureTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Padding(0, 1).
				Background(style.Failed).
				Foreground(style.Light)
)
