package ports

import (
	"context"
	"io"
)

//go:generate mockgen -source=telemetry.go -destination=mocks/mock_telemetry.go -package=mocks

// Tracer is the entry point for creating spans.
type Tracer interface {
	// Start creates a new span.
	Start(ctx context.Context, name string, opts ...SpanOption) (context.Context, Span)
	// EmitPlan signals the build steps planned for this invocation.
	EmitPlan(ctx context.Context, steps []string, deps map[string][]string, targets []string)
}

// Span represents a unit of work.
type Span interface {
	io.Writer
	// End completes the span.
	End()
	// RecordError records an error for the span.
	RecordError(err error)
	// SetAttribute adds a key-value pair to the span.
	SetAttribute(key string, value any)
	// MarkInherited flags a step whose work was reused from a previous build.
	MarkInherited()
}

// SpanConfig holds configuration for a starting span.
type SpanConfig struct {
	// Parent names the step this span belongs to, for renderers that group by step.
	Parent string
}

// SpanOption is a functional option for configuring a span.
type SpanOption func(*SpanConfig)

// WithParent sets SpanConfig.Parent.
func WithParent(name string) SpanOption {
	return func(c *SpanConfig) { c.Parent = name }
}
