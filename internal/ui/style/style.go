// Package style holds the colors, glyphs and table layout shared by the build views.
package style

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Palette.
var (
	Accent = lipgloss.Color("#0EA5E9")
	Muted  = lipgloss.Color("#64748B")
	Light  = lipgloss.Color("#F8FAFC")
	Done   = lipgloss.Color("#16A34A")
	Failed = lipgloss.Color("#DC2626")
	Warn   = lipgloss.Color("#D97706")
)

// Glyphs mark the state of a phase or a log message.
const (
	GlyphDone      = "✓"
	GlyphFailed    = "✗"
	GlyphWarn      = "!"
	GlyphInherited = "~"
	GlyphRunning   = "●"
	GlyphPending   = "○"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Foreground(Accent).Padding(0, 1)

var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// LayerTable returns an empty table for listing layers, one row per layer.
// Columns after the first two are dimmed.
func LayerTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(Muted)).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col >= 2:
				return cellStyle.Foreground(Muted)
			default:
				return cellStyle
			}
		})
}
