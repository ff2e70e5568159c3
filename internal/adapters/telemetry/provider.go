package telemetry

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.trai.ch/strata/internal/core/ports"
)

// LogBufferSize determines the size of the async log channel.
const LogBufferSize = 4096

const (
	// AttrInherited marks a step that reused the outputs of an earlier build.
	AttrInherited = "strata.inherited"
	// AttrParent carries the step name given with ports.WithParent.
	AttrParent = "strata.parent"
)

type stepLog struct {
	spanID string
	data   []byte
}

// OTelTracer is a concrete implementation of ports.Tracer using OpenTelemetry.
type OTelTracer struct {
	tracer   trace.Tracer
	renderer ports.Renderer
	logChan  chan stepLog
	done     chan struct{}
	closed   bool
	mu       sync.RWMutex
}

// NewOTelTracer creates a new OTelTracer with the given instrumentation name.
func NewOTelTracer(name string) *OTelTracer {
	return NewOTelTracerWithProvider(otel.GetTracerProvider(), name)
}

// NewOTelTracerWithProvider creates an OTelTracer on top of tp.
func NewOTelTracerWithProvider(tp trace.TracerProvider, name string) *OTelTracer {
	t := &OTelTracer{
		tracer:  tp.Tracer(name),
		logChan: make(chan stepLog, LogBufferSize),
		done:    make(chan struct{}),
	}
	go t.runLoop()
	return t
}

func (t *OTelTracer) runLoop() {
	defer close(t.done)
	for msg := range t.logChan {
		t.mu.RLock()
		r := t.renderer
		t.mu.RUnlock()

		if r != nil {
			r.OnStepLog(msg.spanID, msg.data)
		}
	}
}

// Shutdown stops the background log processor after delivering queued logs.
func (t *OTelTracer) Shutdown(ctx context.Context) error {
	t.mu.Lock()
	if !t.closed {
		t.closed = true
		close(t.logChan)
	}
	t.mu.Unlock()

	select {
	case <-t.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WithRenderer sets the renderer that receives step output and plans.
func (t *OTelTracer) WithRenderer(r ports.Renderer) *OTelTracer {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.renderer = r
	return t
}

// Start creates a new span.
func (t *OTelTracer) Start(ctx context.Context, name string, opts ...ports.SpanOption) (context.Context, ports.Span) {
	cfg := &ports.SpanConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	var startOpts []trace.SpanStartOption
	if cfg.Parent != "" {
		startOpts = append(startOpts, trace.WithAttributes(attribute.String(AttrParent, cfg.Parent)))
	}
	ctx, span := t.tracer.Start(ctx, name, startOpts...)

	t.mu.RLock()
	r := t.renderer
	t.mu.RUnlock()

	var batcher *LineBatcher
	if r != nil {
		spanID := span.SpanContext().SpanID().String()
		batcher = NewLineBatcher(0, 0, func(data []byte) {
			t.mu.RLock()
			defer t.mu.RUnlock()
			if t.closed {
				return
			}
			select {
			case t.logChan <- stepLog{spanID: spanID, data: data}:
			default:
				// Drop logs if buffer is full to prevent blocking the build
			}
		})
	}

	return ctx, &OTelSpan{span: span, batcher: batcher}
}

// EmitPlan records the planned steps on the current span and hands them to the renderer.
func (t *OTelTracer) EmitPlan(ctx context.Context, steps []string, deps map[string][]string, targets []string) {
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.AddEvent("plan_emitted", trace.WithAttributes(
			attribute.StringSlice("steps", steps),
			attribute.StringSlice("targets", targets),
		))
	}

	t.mu.RLock()
	r := t.renderer
	t.mu.RUnlock()

	if r != nil {
		r.OnPlanEmit(steps, deps, targets)
	}
}

// OTelSpan is a concrete implementation of ports.Span using OpenTelemetry.
type OTelSpan struct {
	span    trace.Span
	batcher *LineBatcher
}

// End completes the span.
func (s *OTelSpan) End() {
	if s.batcher != nil {
		_ = s.batcher.Close()
	}
	s.span.End()
}

// RecordError records an error for the span.
func (s *OTelSpan) RecordError(err error) {
	if err == nil {
		return
	}
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

// MarkInherited flags the step as reused.
func (s *OTelSpan) MarkInherited() {
	s.span.SetAttributes(attribute.Bool(AttrInherited, true))
}

// SetAttribute adds a key-value pair to the span.
func (s *OTelSpan) SetAttribute(key string, value any) {
	switch v := value.(type) {
	case string:
		s.span.SetAttributes(attribute.String(key, v))
	case int:
		s.span.SetAttributes(attribute.Int(key, v))
	case int64:
		s.span.SetAttributes(attribute.Int64(key, v))
	case float64:
		s.span.SetAttributes(attribute.Float64(key, v))
	case bool:
		s.span.SetAttributes(attribute.Bool(key, v))
	case []string:
		s.span.SetAttributes(attribute.StringSlice(key, v))
	default:
		s.span.SetAttributes(attribute.String(key, fmt.Sprintf("%v", v)))
	}
}

// Write satisfies io.Writer by adding a log event to the span or writing to the batcher.
func (s *OTelSpan) Write(p []byte) (n int, err error) {
	if s.batcher != nil {
		return s.batcher.Write(p)
	}
	s.span.AddEvent("log", trace.WithAttributes(attribute.String("message", string(p))))
	return len(p), nil
}
