package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.trai.ch/strata/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	defaultFailure = "step failed"
	// exceptionEvent and exceptionMessage are what Span.RecordError records.
	exceptionEvent   = "exception"
	exceptionMessage = attribute.Key("exception.message")
)

var _ sdktrace.SpanProcessor = (*Bridge)(nil)

// Bridge is a span processor that reports step spans to a renderer as they
// start and end.
type Bridge struct {
	renderer ports.Renderer
}

// NewBridge creates a Bridge. A nil renderer makes it a no-op.
func NewBridge(renderer ports.Renderer) *Bridge {
	return &Bridge{renderer: renderer}
}

// OnStart implements sdktrace.SpanProcessor.
func (b *Bridge) OnStart(parent context.Context, s sdktrace.ReadWriteSpan) {
	if b.renderer == nil || !s.SpanContext().IsValid() {
		return
	}

	var parentID string
	if p := trace.SpanContextFromContext(parent); p.IsValid() {
		parentID = p.SpanID().String()
	}
	b.renderer.OnStepStart(s.SpanContext().SpanID().String(), parentID, s.Name(), s.StartTime())
}

// OnEnd implements sdktrace.SpanProcessor.
func (b *Bridge) OnEnd(s sdktrace.ReadOnlySpan) {
	if b.renderer == nil || !s.SpanContext().IsValid() {
		return
	}

	attrs := attribute.NewSet(s.Attributes()...)
	inherited := false
	if v, ok := attrs.Value(AttrInherited); ok {
		inherited = v.AsBool()
	}
	b.renderer.OnStepComplete(s.SpanContext().SpanID().String(), s.EndTime(), stepError(s), inherited)
}

// stepError rebuilds the failure of an errored span. The status description
// wins; otherwise the message of the last recorded exception is used.
func stepError(s sdktrace.ReadOnlySpan) error {
	if s.Status().Code != codes.Error {
		return nil
	}
	if desc := s.Status().Description; desc != "" {
		return zerr.New(desc)
	}
	events := s.Events()
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Name != exceptionEvent {
			continue
		}
		for _, kv := range events[i].Attributes {
			if kv.Key == exceptionMessage && kv.Value.AsString() != "" {
				return zerr.New(kv.Value.AsString())
			}
		}
	}
	return zerr.New(defaultFailure)
}

// ForceFlush implements sdktrace.SpanProcessor. Steps are reported synchronously.
func (b *Bridge) ForceFlush(context.Context) error { return nil }

// Shutdown implements sdktrace.SpanProcessor.
func (b *Bridge) Shutdown(context.Context) error { return nil }
