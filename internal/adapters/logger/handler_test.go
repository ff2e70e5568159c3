package logger_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/strata/internal/adapters/logger"
)

func TestPrettyHandler_Handle_Levels(t *testing.T) {
	tests := []struct {
		name  string
		level slog.Level
		msg   string
		want  string
	}{
		{name: "info level", level: slog.LevelInfo, msg: "information message", want: "information message\n"},
		{name: "warn level", level: slog.LevelWarn, msg: "warning message", want: "! warning message\n"},
		{name: "error level", level: slog.LevelError, msg: "error message", want: "✗ error message\n"},
		{name: "debug level filtered", level: slog.LevelDebug, msg: "debug message", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("NO_COLOR", "1")

			buf := &bytes.Buffer{}
			handler := logger.NewPrettyHandler(buf, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			})
			lg := slog.New(handler)

			lg.Log(t.Context(), tt.level, tt.msg)

			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestPrettyHandler_LevelVar(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	buf := &bytes.Buffer{}
	level := &slog.LevelVar{}
	lg := slog.New(logger.NewPrettyHandler(buf, &slog.HandlerOptions{Level: level}))

	lg.Debug("hidden")
	level.Set(slog.LevelDebug)
	lg.Debug("shown")

	assert.Equal(t, "○ shown\n", buf.String())
}

func TestPrettyHandler_Attrs(t *testing.T) {
	tests := []struct {
		name  string
		build func(h slog.Handler) slog.Handler
		args  []any
		want  string
	}{
		{
			name:  "handler attrs",
			build: func(h slog.Handler) slog.Handler { return h.WithAttrs([]slog.Attr{slog.String("layer", "app")}) },
			want:  "scanned layer=app\n",
		},
		{
			name:  "record attrs",
			build: func(h slog.Handler) slog.Handler { return h },
			args:  []any{"files", 3, "full", true},
			want:  "scanned files=3 full=true\n",
		},
		{
			name: "group prefixes keys",
			build: func(h slog.Handler) slog.Handler {
				return h.WithGroup("scan").WithAttrs([]slog.Attr{slog.String("phase", "process")})
			},
			want: "scanned scan.phase=process\n",
		},
		{
			name: "handler attrs before record attrs",
			build: func(h slog.Handler) slog.Handler {
				return h.WithAttrs([]slog.Attr{slog.String("runtime", "jvm")})
			},
			args: []any{"files", 1},
			want: "scanned runtime=jvm files=1\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("NO_COLOR", "1")

			buf := &bytes.Buffer{}
			h := logger.NewPrettyHandler(buf, &slog.HandlerOptions{Level: slog.LevelInfo})
			slog.New(tt.build(h)).Info("scanned", tt.args...)

			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestPrettyHandler_Enabled(t *testing.T) {
	tests := []struct {
		name         string
		handlerLevel slog.Level
		recordLevel  slog.Level
		wantEnabled  bool
	}{
		{
			name:         "debug below info",
			handlerLevel: slog.LevelInfo,
			recordLevel:  slog.LevelDebug,
			wantEnabled:  false,
		},
		{
			name:         "info at info",
			handlerLevel: slog.LevelInfo,
			recordLevel:  slog.LevelInfo,
			wantEnabled:  true,
		},
		{
			name:         "warn above info",
			handlerLevel: slog.LevelInfo,
			recordLevel:  slog.LevelWarn,
			wantEnabled:  true,
		},
		{
			name:         "error above info",
			handlerLevel: slog.LevelInfo,
			recordLevel:  slog.LevelError,
			wantEnabled:  true,
		},
		{
			name:         "debug at debug",
			handlerLevel: slog.LevelDebug,
			recordLevel:  slog.LevelDebug,
			wantEnabled:  true,
		},
		{
			name:         "error at error",
			handlerLevel: slog.LevelError,
			recordLevel:  slog.LevelError,
			wantEnabled:  true,
		},
		{
			name:         "warn at error",
			handlerLevel: slog.LevelError,
			recordLevel:  slog.LevelWarn,
			wantEnabled:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			handler := logger.NewPrettyHandler(buf, &slog.HandlerOptions{
				Level: tt.handlerLevel,
			})

			ctx := t.Context()
			got := handler.Enabled(ctx, tt.recordLevel)
			assert.Equal(t, tt.wantEnabled, got)
		})
	}
}

func TestPrettyHandler_NilWriter(t *testing.T) {
	// Test that nil writer defaults to os.Stderr without panic
	require.NotPanics(t, func() {
		_ = logger.NewPrettyHandler(nil, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	})
}

func TestPrettyHandler_Handle_ReturnsError(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	// Test with a writer that returns an error
	brokenWriter := &brokenWriter{}
	handler := logger.NewPrettyHandler(brokenWriter, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	lg := slog.New(handler)

	// This should not panic, even though write fails
	require.NotPanics(t, func() {
		lg.Info("this will fail to write")
	})
}

// brokenWriter simulates a writer that always returns an error.
type brokenWriter struct{}

func (bw *brokenWriter) Write([]byte) (int, error) {
	return 0, assert.AnError
}

func TestPrettyHandler_Groups(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	buf := &bytes.Buffer{}
	h := logger.NewPrettyHandler(buf, &slog.HandlerOptions{Level: slog.LevelInfo})
	lg := slog.New(h).With("runtime", "jvm").WithGroup("layer").With("name", "app")

	lg.Info("compiled", slog.Group("classes", "written", 4, "skipped", 1), "empty", slog.GroupValue())

	assert.Equal(t, "compiled runtime=jvm layer.name=app layer.classes.written=4 layer.classes.skipped=1\n", buf.String())
}
