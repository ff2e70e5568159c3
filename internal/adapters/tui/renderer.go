package tui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.trai.ch/strata/internal/adapters/telemetry"
)

// Renderer drives the step tree as a ports.Renderer. Besides forwarding events to the
// model it counts finished steps per runtime, so the interactive view can leave a
// plain tally behind once the alternate screen is gone.
type Renderer struct {
	program *tea.Program
	model   *Model
	errCh   chan error
	summary io.Writer

	mu       sync.Mutex
	spans    map[string]string // spanID -> runtime
	runtimes []string
	tallies  map[string]*tally
}

type tally struct {
	planned   int
	built     int
	inherited int
	failed    int
}

// NewRenderer creates a new TUI renderer.
func NewRenderer(model *Model, opts ...tea.ProgramOption) *Renderer {
	return &Renderer{
		program: tea.NewProgram(model, opts...),
		model:   model,
		errCh:   make(chan error, 1),
		spans:   make(map[string]string),
		tallies: make(map[string]*tally),
	}
}

// WithSummary makes Wait write one tally line per runtime to w after the program exits.
func (r *Renderer) WithSummary(w io.Writer) *Renderer {
	r.summary = w
	return r
}

// Start launches the TUI in a background goroutine.
func (r *Renderer) Start(_ context.Context) error {
	go func() {
		_, err := r.program.Run()
		r.errCh <- err
	}()
	return nil
}

// Stop signals the TUI to quit.
func (r *Renderer) Stop() error {
	r.program.Quit()
	return nil
}

// Wait blocks until the TUI has terminated.
func (r *Renderer) Wait() error {
	err := <-r.errCh
	if err == nil && r.summary != nil {
		r.writeSummary()
	}
	return err
}

// OnPlanEmit resets the step tree and the per runtime counts.
func (r *Renderer) OnPlanEmit(steps []string, deps map[string][]string, targets []string) {
	r.mu.Lock()
	r.runtimes = r.runtimes[:0]
	clear(r.tallies)
	for _, step := range steps {
		r.count(runtimeOf(step)).planned++
	}
	r.mu.Unlock()

	r.program.Send(telemetry.MsgInitSteps{
		Steps:        steps,
		Dependencies: deps,
		Targets:      targets,
	})
}

// OnStepStart forwards step start events to the TUI.
func (r *Renderer) OnStepStart(spanID, parentID, name string, startTime time.Time) {
	r.mu.Lock()
	r.spans[spanID] = runtimeOf(name)
	r.mu.Unlock()

	r.program.Send(telemetry.MsgStepStart{
		SpanID:    spanID,
		ParentID:  parentID,
		Name:      name,
		StartTime: startTime,
	})
}

// OnStepLog forwards step output to the TUI.
func (r *Renderer) OnStepLog(spanID string, data []byte) {
	r.program.Send(telemetry.MsgStepLog{
		SpanID: spanID,
		Data:   data,
	})
}

// OnStepComplete counts the outcome and forwards it to the TUI.
func (r *Renderer) OnStepComplete(spanID string, endTime time.Time, err error, inherited bool) {
	r.mu.Lock()
	if runtime, ok := r.spans[spanID]; ok {
		delete(r.spans, spanID)
		t := r.count(runtime)
		switch {
		case err != nil:
			t.failed++
		case inherited:
			t.inherited++
		default:
			t.built++
		}
	}
	r.mu.Unlock()

	r.program.Send(telemetry.MsgStepComplete{
		SpanID:    spanID,
		EndTime:   endTime,
		Err:       err,
		Inherited: inherited,
	})
}

// Model returns the rendered model.
func (r *Renderer) Model() *Model {
	return r.model
}

// count returns the tally of a runtime, registering it on first use. Callers hold r.mu.
func (r *Renderer) count(runtime string) *tally {
	t, ok := r.tallies[runtime]
	if !ok {
		t = &tally{}
		r.tallies[runtime] = t
		r.runtimes = append(r.runtimes, runtime)
	}
	return t
}

func (r *Renderer) writeSummary() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, runtime := range r.runtimes {
		t := r.tallies[runtime]
		line := fmt.Sprintf("%s: %d step(s) built, %d inherited, %d failed", runtime, t.built, t.inherited, t.failed)
		if skipped := t.planned - t.built - t.inherited - t.failed; skipped > 0 {
			line += fmt.Sprintf(", %d not run", skipped)
		}
		_, _ = fmt.Fprintln(r.summary, line)
	}
}

// runtimeOf returns the runtime part of a "runtime/layer/phase" step name.
func runtimeOf(step string) string {
	runtime, _, _ := strings.Cut(step, "/")
	return runtime
}
