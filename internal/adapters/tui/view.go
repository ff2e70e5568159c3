package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"go.trai.ch/strata/internal/ui/style"
)

// View renders the UI.
func (m *Model) View() string {
	if m.ListHeight == 0 {
		return "Initializing..."
	}

	if m.ViewMode == ViewModeLogs {
		return m.logPane()
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.stepList(),
		m.logPane(),
	)
}

func (m *Model) stepList() string {
	var s strings.Builder

	title := titleStyle
	if m.Failed {
		title = failureTitleStyle
	}
	s.WriteString(title.Render("STEPS") + "\n\n")

	start := m.ListOffset
	end := min(m.ListOffset+m.ListHeight, len(m.FlatList))
	start = min(start, end)

	for i := start; i < end; i++ {
		s.WriteString(m.renderRow(i, m.FlatList[i]) + "\n")
	}

	return listStyle.Render(s.String())
}

func (m *Model) renderRow(index int, node *StepNode) string {
	status, inherited := node.State()
	icon := m.icon(status, inherited)
	rowStyle := statusStyle(status, inherited)

	cursor := "  "
	if index == m.SelectedIdx {
		cursor = selectedStyle.Render("> ")
		if status != StatusDone && status != StatusError {
			rowStyle = selectedStyle
		}
	}

	marker := ""
	if node.IsGroup() {
		marker = "▸ "
		if node.IsExpanded {
			marker = "▾ "
		}
	}

	label := node.Label
	if label == "" {
		label = node.Name
	}
	indent := strings.Repeat("  ", node.Depth)
	if m.ListWidth > 0 {
		room := m.ListWidth - runewidth.StringWidth(indent+marker) - 4
		label = truncate(label, room)
	}

	content := fmt.Sprintf("%s%s%s %s", indent, marker, icon, label)
	if d := node.duration(); d > 0 && status == StatusDone && !inherited {
		content += " " + d.Round(time.Millisecond).String()
	}
	return cursor + rowStyle.Render(content)
}

func (n *StepNode) duration() time.Duration {
	c := n.CanonicalNode
	if c == nil || c.StartTime.IsZero() || c.EndTime.IsZero() {
		return 0
	}
	return c.EndTime.Sub(c.StartTime)
}

func (m *Model) icon(status StepStatus, inherited bool) string {
	if status == StatusDone && inherited {
		return style.GlyphInherited
	}

	switch status {
	case StatusRunning:
		if m.DisableTick {
			return style.GlyphRunning
		}
		return m.Spinner.View()
	case StatusDone:
		return style.GlyphDone
	case StatusError:
		return style.GlyphFailed
	default:
		return style.GlyphPending
	}
}

func statusStyle(status StepStatus, inherited bool) lipgloss.Style {
	if status == StatusDone && inherited {
		return stepInheritedStyle
	}

	switch status {
	case StatusRunning:
		return stepRunningStyle
	case StatusDone:
		return stepDoneStyle
	case StatusError:
		return stepErrorStyle
	default:
		return stepPendingStyle
	}
}

func (m *Model) logPane() string {
	node, ok := m.StepMap[m.ActiveStepName]
	if !ok {
		msg := "LOGS (Waiting...)"
		if m.ViewMode == ViewModeLogs {
			msg = "No step selected"
		}
		return logStyle.Render(titleStyle.Render(msg))
	}

	mode := " (Manual)"
	if m.FollowMode {
		mode = " (Following)"
	}
	header := titleStyle.Render("LOGS: " + m.ActiveStepName + mode)
	if m.ViewMode == ViewModeLogs {
		header += " [" + string(node.Status) + "]"
	}
	if !node.Output.Following() {
		header += fmt.Sprintf(" line %d/%d", node.Output.Top()+1, node.Output.Lines())
	}

	return logStyle.Render(
		lipgloss.JoinVertical(
			lipgloss.Left,
			header,
			node.Output.View(),
		),
	)
}

func truncate(value string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width-3, "...")
}
