package telemetry_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// eventRenderer records renderer callbacks as readable lines.
type eventRenderer struct {
	mu     sync.Mutex
	events []string
	names  map[string]string
	output map[string]*strings.Builder
}

func newEventRenderer() *eventRenderer {
	return &eventRenderer{
		names:  make(map[string]string),
		output: make(map[string]*strings.Builder),
	}
}

func (r *eventRenderer) Start(context.Context) error { return nil }
func (r *eventRenderer) Stop() error                 { return nil }
func (r *eventRenderer) Wait() error                 { return nil }

func (r *eventRenderer) OnPlanEmit(steps []string, _ map[string][]string, targets []string) {
	r.record(fmt.Sprintf("plan %s -> %s", strings.Join(steps, ","), strings.Join(targets, ",")))
}

func (r *eventRenderer) OnStepStart(spanID, _, name string, _ time.Time) {
	r.mu.Lock()
	r.names[spanID] = name
	r.output[spanID] = &strings.Builder{}
	r.mu.Unlock()
	r.record("start " + name)
}

func (r *eventRenderer) OnStepLog(spanID string, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.output[spanID]
	if !ok {
		b = &strings.Builder{}
		r.output[spanID] = b
	}
	b.Write(data)
}

func (r *eventRenderer) OnStepComplete(spanID string, _ time.Time, err error, inherited bool) {
	r.mu.Lock()
	name := r.names[spanID]
	r.mu.Unlock()

	line := "done " + name
	switch {
	case err != nil:
		line = "failed " + name + ": " + err.Error()
	case inherited:
		line = "inherited " + name
	}
	r.record(line)
}

func (r *eventRenderer) record(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, line)
}

func (r *eventRenderer) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

// Output returns the output of all steps.
func (r *eventRenderer) Output() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all strings.Builder
	for _, b := range r.output {
		all.WriteString(b.String())
	}
	return all.String()
}
