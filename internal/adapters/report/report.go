// Package report prints the end-of-build summary and error log.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/ui/style"
)

// Summary is the outcome of one build as seen by the user.
type Summary struct {
	Runtimes []domain.RuntimeStatus
	Duration time.Duration
	// MaxErrors is the workspace error cap; a runtime that hit it is marked truncated.
	MaxErrors int
	Canceled  bool
}

// Failed reports whether any runtime recorded an error.
func (s Summary) Failed() bool {
	for _, rt := range s.Runtimes {
		if len(rt.Errors) > 0 {
			return true
		}
	}
	return false
}

// Reporter writes summaries.
type Reporter struct {
	w      io.Writer
	fail   *color.Color
	ok     *color.Color
	header *color.Color
	dim    *color.Color
}

// New creates a Reporter writing to w. Colors are used only when colored is set.
func New(w io.Writer, colored bool) *Reporter {
	r := &Reporter{
		w:      w,
		fail:   color.New(color.FgRed, color.Bold),
		ok:     color.New(color.FgGreen, color.Bold),
		header: color.New(color.FgYellow),
		dim:    color.New(color.Faint),
	}
	for _, c := range []*color.Color{r.fail, r.ok, r.header, r.dim} {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return r
}

// Write prints s.
func (r *Reporter) Write(s Summary) error {
	var b strings.Builder
	elapsed := s.Duration.Round(time.Millisecond)

	switch {
	case s.Canceled:
		b.WriteString(r.fail.Sprintf(style.GlyphFailed+" Build canceled after %v", elapsed))
		b.WriteString("\n")
	case s.Failed():
		b.WriteString(r.fail.Sprintf(style.GlyphFailed+" Build failed in %v", elapsed))
		b.WriteString("\n")
	default:
		b.WriteString(r.ok.Sprintf(style.GlyphDone+" Build succeeded in %v", elapsed))
		b.WriteString(r.dim.Sprintf(" (%s)", runtimeSummary(s.Runtimes)))
		b.WriteString("\n")
		_, err := io.WriteString(r.w, b.String())
		return err
	}

	for _, rt := range s.Runtimes {
		if len(rt.Errors) == 0 {
			continue
		}
		b.WriteString("\n")
		b.WriteString(r.header.Sprintf("%s: %d error(s)", rt.Name, len(rt.Errors)))
		b.WriteString("\n")
		for _, msg := range rt.Errors {
			lines := strings.Split(msg, "\n")
			b.WriteString("  • " + lines[0] + "\n")
			for _, line := range lines[1:] {
				b.WriteString("    " + line + "\n")
			}
		}
		if s.MaxErrors > 0 && len(rt.Errors) >= s.MaxErrors {
			b.WriteString(r.dim.Sprintf("  error limit of %d reached; further errors were not reported", s.MaxErrors))
			b.WriteString("\n")
		}
	}

	_, err := io.WriteString(r.w, b.String())
	return err
}

func runtimeSummary(runtimes []domain.RuntimeStatus) string {
	layers := 0
	for _, rt := range runtimes {
		layers += len(rt.Layers)
	}
	return fmt.Sprintf("%d runtime(s), %d layer(s)", len(runtimes), layers)
}
