// Package linear provides a synchronous, line-buffered renderer for CI environments.
package linear

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/muesli/termenv"
	"go.trai.ch/strata/internal/ui/output"
	"go.trai.ch/strata/internal/ui/style"
)

// prefixColors are the ANSI colors step prefixes rotate through.
var prefixColors = []termenv.ANSIColor{
	termenv.ANSICyan,
	termenv.ANSIMagenta,
	termenv.ANSIBlue,
	termenv.ANSIYellow,
	termenv.ANSIBrightCyan,
	termenv.ANSIBrightMagenta,
	termenv.ANSIBrightBlue,
}

// Renderer implements ports.Renderer for CI/non-interactive environments.
// It writes step output line by line, prefixed with the step name.
type Renderer struct {
	stdout io.Writer
	stderr io.Writer
	output *termenv.Output

	mu      sync.Mutex
	steps   map[string]*stepState // spanID -> step state
	buffers map[string]*bytes.Buffer

	built     int
	inherited int
	failed    int
}

type stepState struct {
	name      string
	startTime time.Time
}

// NewRenderer creates a new linear Renderer.
func NewRenderer(stdout, stderr io.Writer) *Renderer {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	return &Renderer{
		stdout:  stdout,
		stderr:  stderr,
		output:  output.Linear(stderr),
		steps:   make(map[string]*stepState),
		buffers: make(map[string]*bytes.Buffer),
	}
}

// Start is a no-op for linear renderer (synchronous).
func (r *Renderer) Start(_ context.Context) error {
	return nil
}

// Stop flushes all remaining buffers and prints the totals.
func (r *Renderer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for spanID := range r.buffers {
		r.flushBufferLocked(spanID)
	}

	if r.built+r.inherited+r.failed > 0 {
		_, _ = fmt.Fprintf(r.stderr, "%d step(s) built, %d inherited, %d failed\n",
			r.built, r.inherited, r.failed)
	}
	return nil
}

// Wait is a no-op for linear renderer (synchronous).
func (r *Renderer) Wait() error {
	return nil
}

// OnPlanEmit prints the planned steps.
func (r *Renderer) OnPlanEmit(steps []string, _ map[string][]string, targets []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, _ = fmt.Fprintf(r.stderr, "Planning %d step(s) for layer(s): %s\n",
		len(steps), strings.Join(targets, ", "))
}

// OnStepStart prints a step start message.
func (r *Renderer) OnStepStart(spanID, _ /* parentID */, name string, startTime time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.steps[spanID] = &stepState{
		name:      name,
		startTime: startTime,
	}
	r.buffers[spanID] = new(bytes.Buffer)

	_, _ = fmt.Fprintf(r.stderr, "%s Starting...\n", r.prefix(name))
}

// OnStepLog buffers output and prints complete lines with the step prefix.
func (r *Renderer) OnStepLog(spanID string, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	step, ok := r.steps[spanID]
	if !ok {
		return
	}

	buf := r.buffers[spanID]
	buf.Write(data)

	for {
		idx := bytes.IndexByte(buf.Bytes(), '\n')
		if idx < 0 {
			break
		}
		line := buf.Next(idx + 1)
		r.printLineLocked(step.name, line)
	}
}

// OnStepComplete flushes remaining output and prints the step's outcome.
func (r *Renderer) OnStepComplete(spanID string, endTime time.Time, err error, inherited bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	step, ok := r.steps[spanID]
	if !ok {
		return
	}

	r.flushBufferLocked(spanID)

	duration := endTime.Sub(step.startTime).Round(time.Millisecond)
	prefix := r.prefix(step.name)

	switch {
	case err != nil:
		r.failed++
		symbol := r.output.String(style.GlyphFailed).Foreground(termenv.ANSIRed).String()
		_, _ = fmt.Fprintf(r.stderr, "%s %s Failed after %v: %v\n", prefix, symbol, duration, err)
	case inherited:
		r.inherited++
		symbol := r.output.String(style.GlyphInherited).Faint().String()
		_, _ = fmt.Fprintf(r.stderr, "%s %s Up to date\n", prefix, symbol)
	default:
		r.built++
		symbol := r.output.String(style.GlyphDone).Foreground(termenv.ANSIGreen).String()
		_, _ = fmt.Fprintf(r.stderr, "%s %s Completed in %v\n", prefix, symbol, duration)
	}

	delete(r.steps, spanID)
	delete(r.buffers, spanID)
}

// prefix renders "[name]" in a color derived from the name.
func (r *Renderer) prefix(name string) string {
	color := prefixColors[xxhash.Sum64String(name)%uint64(len(prefixColors))]
	return r.output.String("[" + name + "]").Foreground(color).String()
}

// flushBufferLocked prints the partial line left for a step. Callers hold r.mu.
func (r *Renderer) flushBufferLocked(spanID string) {
	step, ok := r.steps[spanID]
	if !ok {
		return
	}

	buf := r.buffers[spanID]
	if buf.Len() > 0 {
		r.printLineLocked(step.name, buf.Bytes())
		buf.Reset()
	}
}

// printLineLocked prints a line with the step name prefix. Callers hold r.mu.
func (r *Renderer) printLineLocked(stepName string, line []byte) {
	line = bytes.TrimSuffix(line, []byte("\n"))
	line = bytes.TrimSuffix(line, []byte("\r"))

	if len(line) == 0 {
		return
	}

	_, _ = fmt.Fprintf(r.stdout, "[%s] %s\n", stepName, line)
}
