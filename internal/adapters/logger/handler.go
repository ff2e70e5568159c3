// Package logger implements a logging adapter using log/slog.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"go.trai.ch/strata/internal/ui/output"
	"go.trai.ch/strata/internal/ui/style"
)

// levelLook is how a level is marked on the terminal.
type levelLook struct {
	glyph string
	color lipgloss.Color
}

var looks = map[slog.Level]levelLook{
	slog.LevelDebug: {glyph: style.GlyphPending, color: style.Muted},
	slog.LevelInfo:  {color: style.Muted},
	slog.LevelWarn:  {glyph: style.GlyphWarn, color: style.Warn},
	slog.LevelError: {glyph: style.GlyphFailed, color: style.Failed},
}

// PrettyHandler is a slog.Handler writing one colored line per record:
// the level glyph, the message, then key=value attributes.
type PrettyHandler struct {
	out   *termenv.Output
	mu    *sync.Mutex
	level slog.Leveler
	// attrs holds attributes added with WithAttrs, already rendered.
	attrs string
	// prefix is the dotted group path for attributes added later.
	prefix string
}

// NewPrettyHandler creates a PrettyHandler writing to w, or os.Stderr when w is nil.
func NewPrettyHandler(w io.Writer, opts *slog.HandlerOptions) *PrettyHandler {
	if w == nil {
		w = os.Stderr
	}
	h := &PrettyHandler{out: output.New(w), mu: &sync.Mutex{}, level: slog.LevelInfo}
	if opts != nil && opts.Level != nil {
		h.level = opts.Level
	}
	return h
}

// Enabled implements slog.Handler.
func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle implements slog.Handler.
//
//nolint:gocritic // slog.Handler interface requires slog.Record by value
func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	look, ok := looks[r.Level]
	if !ok {
		look = looks[slog.LevelInfo]
	}

	var b strings.Builder
	if look.glyph != "" {
		b.WriteString(look.glyph + " ")
	}
	b.WriteString(r.Message)
	b.WriteString(h.attrs)
	r.Attrs(func(a slog.Attr) bool {
		appendAttr(&b, h.prefix, a)
		return true
	})

	line := h.out.String(b.String()).Foreground(termenv.RGBColor(string(look.color))).String() + "\n"

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.out.WriteString(line)
	return err
}

// WithAttrs implements slog.Handler.
func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	var b strings.Builder
	b.WriteString(h.attrs)
	for _, a := range attrs {
		appendAttr(&b, h.prefix, a)
	}
	clone := *h
	clone.attrs = b.String()
	return &clone
}

// WithGroup implements slog.Handler.
func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = h.prefix + name + "."
	return &clone
}

// appendAttr renders a as " key=value", flattening groups into dotted keys.
func appendAttr(b *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		inner := prefix
		if a.Key != "" {
			inner += a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			appendAttr(b, inner, ga)
		}
		return
	}
	b.WriteString(" " + prefix + a.Key + "=" + a.Value.String())
}
