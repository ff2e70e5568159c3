package telemetry_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.trai.ch/strata/internal/adapters/telemetry"
	"go.trai.ch/strata/internal/core/ports"
)

func setupRecorder(t *testing.T) (*tracetest.SpanRecorder, *sdktrace.TracerProvider) {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return sr, tp
}

func TestOTelTracer_WithRenderer(t *testing.T) {
	r := newEventRenderer()
	tracer := telemetry.NewOTelTracer("test-tracer").WithRenderer(r)
	ctx := context.Background()

	tracer.EmitPlan(ctx, []string{"jvm/app/process"}, map[string][]string{}, []string{"app"})

	_, span := tracer.Start(ctx, "jvm/app/process")
	_, err := span.Write([]byte("processed 3 sources\n"))
	require.NoError(t, err)
	span.End()

	require.NoError(t, tracer.Shutdown(ctx))

	assert.Equal(t, []string{"plan jvm/app/process -> app"}, r.Events())
	assert.Equal(t, "processed 3 sources\n", r.Output())
}

func TestOTelTracer_EmitPlanEvent(t *testing.T) {
	sr, tp := setupRecorder(t)
	tracer := telemetry.NewOTelTracerWithProvider(tp, "test")

	ctx, root := tp.Tracer("test").Start(context.Background(), "build")
	tracer.EmitPlan(ctx, []string{"jvm/app/process", "jvm/app/compile"}, nil, []string{"app"})
	root.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	events := spans[0].Events()
	require.Len(t, events, 1)
	assert.Equal(t, "plan_emitted", events[0].Name)
}

func TestOTelSpan_Attributes(t *testing.T) {
	sr, tp := setupRecorder(t)
	tracer := telemetry.NewOTelTracerWithProvider(tp, "test")

	_, span := tracer.Start(context.Background(), "attr-test", ports.WithParent("app"))
	span.SetAttribute("str", "val")
	span.SetAttribute("int", 123)
	span.SetAttribute("int64", int64(456))
	span.SetAttribute("float", 3.14)
	span.SetAttribute("bool", true)
	span.SetAttribute("slice", []string{"a", "b"})
	span.SetAttribute("unknown", struct{}{})
	span.MarkInherited()
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)

	attrMap := make(map[string]any)
	for _, a := range spans[0].Attributes() {
		switch a.Value.Type() {
		case attribute.STRING:
			attrMap[string(a.Key)] = a.Value.AsString()
		case attribute.INT64:
			attrMap[string(a.Key)] = a.Value.AsInt64()
		case attribute.FLOAT64:
			attrMap[string(a.Key)] = a.Value.AsFloat64()
		case attribute.BOOL:
			attrMap[string(a.Key)] = a.Value.AsBool()
		case attribute.STRINGSLICE:
			attrMap[string(a.Key)] = a.Value.AsStringSlice()
		}
	}

	assert.Equal(t, "val", attrMap["str"])
	assert.Equal(t, int64(123), attrMap["int"])
	assert.Equal(t, int64(456), attrMap["int64"])
	assert.InEpsilon(t, 3.14, attrMap["float"], 0.001)
	assert.Equal(t, true, attrMap["bool"])
	assert.Equal(t, []string{"a", "b"}, attrMap["slice"])
	assert.Equal(t, "{}", attrMap["unknown"])
	assert.Equal(t, "app", attrMap[telemetry.AttrParent])
	assert.Equal(t, true, attrMap[telemetry.AttrInherited])
}

func TestOTelSpan_WriteWithoutRenderer(t *testing.T) {
	sr, tp := setupRecorder(t)
	tracer := telemetry.NewOTelTracerWithProvider(tp, "test")

	_, span := tracer.Start(context.Background(), "log-test")
	n, err := span.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	span.RecordError(nil)
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	events := spans[0].Events()
	require.Len(t, events, 1)
	assert.Equal(t, "log", events[0].Name)
	assert.Equal(t, "hello", events[0].Attributes[0].Value.AsString())
}

func TestBridge_EndToEnd(t *testing.T) {
	r := newEventRenderer()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(telemetry.NewBridge(r)))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	tracer := telemetry.NewOTelTracerWithProvider(tp, "test")

	_, ok := tracer.Start(context.Background(), "jvm/app/process")
	ok.MarkInherited()
	ok.End()

	_, failed := tracer.Start(context.Background(), "jvm/app/compile")
	failed.RecordError(errors.New("compile failed"))
	failed.End()

	assert.Equal(t, []string{
		"start jvm/app/process",
		"inherited jvm/app/process",
		"start jvm/app/compile",
		"failed jvm/app/compile: compile failed",
	}, r.Events())
}

func TestOTelTracer_LogBatching(t *testing.T) {
	r := newEventRenderer()
	tracer := telemetry.NewOTelTracer("test").WithRenderer(r)
	ctx := context.Background()

	_, span := tracer.Start(ctx, "step")
	for i := range 10 {
		_, _ = fmt.Fprintf(span, "line %d\n", i)
	}
	span.End()

	shutdownCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, tracer.Shutdown(shutdownCtx))
	require.NoError(t, tracer.Shutdown(shutdownCtx))

	out := r.Output()
	assert.Equal(t, 10, strings.Count(out, "\n"))
	assert.True(t, strings.HasPrefix(out, "line 0\n"))
	assert.True(t, strings.HasSuffix(out, "line 9\n"))
}
