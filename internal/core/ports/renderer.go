package ports

import (
	"context"
	"time"
)

// Renderer is the abstraction for output rendering.
// It decouples telemetry collection from presentation logic,
// allowing the same event stream to drive either a rich TUI or linear CI logs.
//
//go:generate mockgen -source=renderer.go -destination=mocks/mock_renderer.go -package=mocks
type Renderer interface {
	// Start initializes the renderer and begins its lifecycle.
	Start(ctx context.Context) error

	// Stop signals the renderer to stop accepting new events and flush buffered output.
	Stop() error

	// Wait blocks until the renderer has fully terminated.
	Wait() error

	// OnPlanEmit is called once the build steps are known.
	// steps: "runtime/layer/phase" names in execution order
	// deps: step -> steps it waits for
	// targets: the requested target layers
	OnPlanEmit(steps []string, deps map[string][]string, targets []string)

	// OnStepStart is called when a step begins.
	OnStepStart(spanID, parentID, name string, startTime time.Time)

	// OnStepLog is called when a step emits output. data may hold partial lines or ANSI sequences.
	OnStepLog(spanID string, data []byte)

	// OnStepComplete is called when a step finishes. inherited is true when nothing had to be rebuilt.
	OnStepComplete(spanID string, endTime time.Time, err error, inherited bool)
}
