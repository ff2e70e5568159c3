package logger_test

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/strata/internal/adapters/logger"
	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/zerr"
)

// newTestLogger creates a logger with an injected bytes.Buffer for isolated testing.
// It also sets NO_COLOR=1 to ensure deterministic output without ANSI escape codes.
func newTestLogger(t *testing.T) (*logger.Logger, *bytes.Buffer) {
	t.Helper()
	t.Setenv("NO_COLOR", "1")

	buf := &bytes.Buffer{}
	lg := logger.New().(*logger.Logger)
	lg.SetOutput(buf)
	return lg, buf
}

func TestLogger_Golden(t *testing.T) {
	tests := []struct {
		name       string
		log        func(lg *logger.Logger)
		goldenName string
	}{
		{
			name:       "info",
			log:        func(lg *logger.Logger) { lg.Info("some message") },
			goldenName: "info_basic",
		},
		{
			name:       "warn",
			log:        func(lg *logger.Logger) { lg.Warn("some warning") },
			goldenName: "warn_basic",
		},
		{
			name:       "debug filtered by default",
			log:        func(lg *logger.Logger) { lg.Debug("checking records") },
			goldenName: "debug_filtered",
		},
		{
			name: "debug enabled",
			log: func(lg *logger.Logger) {
				lg.SetLevel(slog.LevelDebug)
				lg.Debug("checking records")
			},
			goldenName: "debug_enabled",
		},
		{
			name: "error with metadata",
			log: func(lg *logger.Logger) {
				err := zerr.Wrap(errors.New("permission denied"), "failed to write dependency record")
				lg.Error(zerr.With(err, "path", "build/.app.process.deps"))
			},
			goldenName: "error_chain",
		},
		{
			name: "nested zerr chain",
			log: func(lg *logger.Logger) {
				inner := zerr.With(zerr.Wrap(errors.New("unknown type Bar"), "parse failed"), "file", "Foo.strata")
				outer := zerr.With(zerr.Wrap(inner, "build phase failed"), "layer", "app")
				lg.Error(zerr.With(outer, "phase", "process"))
			},
			goldenName: "error_nested",
		},
		{
			name: "multiline error",
			log: func(lg *logger.Logger) {
				lg.Error(errors.New("yaml: unmarshal errors:\n  line 30: cannot unmarshal"))
			},
			goldenName: "error_multiline",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lg, buf := newTestLogger(t)
			tt.log(lg)

			g := goldie.New(t)
			g.Assert(t, tt.goldenName, buf.Bytes())
		})
	}
}

func TestLogger_Error_PlainWithMetadata(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.Error(zerr.With(os.ErrNotExist, "path", "layers/app"))

	assert.Equal(t, "✗ Error: file does not exist (path=layers/app)\n", buf.String())
}

func TestLogger_Error_Nil(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.Error(nil)

	assert.Empty(t, buf.String(), "Expected no output for nil error")
}

func TestLogger_JSON(t *testing.T) {
	resolveErr := zerr.Wrap(zerr.With(domain.ErrLayerNotFound, "layer", "ghost"), "failed to resolve layers")

	tests := []struct {
		name string
		log  func(lg *logger.Logger)
		want []string
	}{
		{
			name: "resolution error keeps its chain",
			log:  func(lg *logger.Logger) { lg.Error(resolveErr) },
			want: []string{`"level":"ERROR"`, `"msg":"operation failed"`, "failed to resolve layers"},
		},
		{
			name: "skipped record",
			log: func(lg *logger.Logger) {
				lg.Warn(domain.ErrDependencyFileUnreadable.Error() + ", ignoring build/app/jvm/src/.app.process.deps")
			},
			want: []string{`"level":"WARN"`, "build/app/jvm/src/.app.process.deps"},
		},
		{
			name: "phase progress",
			log:  func(lg *logger.Logger) { lg.Info("jvm/app/process: 2 file(s) generated") },
			want: []string{`"level":"INFO"`, `"msg":"jvm/app/process: 2 file(s) generated"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lg, buf := newTestLogger(t)
			lg.SetJSON(true)
			tt.log(lg)

			out := buf.String()
			for _, want := range tt.want {
				assert.Contains(t, out, want)
			}
			assert.NotContains(t, out, "✗")
		})
	}
}

func TestLogger_WatchTogglesFormat(t *testing.T) {
	lg, buf := newTestLogger(t)
	cycles := []struct {
		json bool
		err  error
	}{
		{json: false, err: zerr.With(domain.ErrParseFailed, "file", "Screen.strata")},
		{json: true, err: zerr.With(domain.ErrParseFailed, "file", "Screen.strata")},
		{json: false, err: zerr.With(domain.ErrParseFailed, "file", "Widget.strata")},
	}

	for _, c := range cycles {
		buf.Reset()
		lg.SetJSON(c.json)
		lg.Error(c.err)

		if c.json {
			assert.Contains(t, buf.String(), `"error"`)
			assert.NotContains(t, buf.String(), "✗")
			continue
		}
		assert.True(t, strings.HasPrefix(buf.String(), "✗ Error: "+domain.ErrParseFailed.Error()), buf.String())
		assert.NotContains(t, buf.String(), `"error"`)
	}
}

func TestLogger_SetOutputNilFallsBackToStderr(t *testing.T) {
	lg := logger.New().(*logger.Logger)
	require.NotPanics(t, func() {
		lg.SetOutput(nil)
		lg.Debug("scanning app")
	})
}

func TestLogger_RuntimesLogConcurrently(t *testing.T) {
	lg, buf := newTestLogger(t)

	var wg sync.WaitGroup
	for _, runtime := range []string{"jvm", "web", "native"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lg.Info(runtime + "/app/process started")
			lg.Warn(runtime + "/app/compile slow")
			lg.Error(zerr.With(domain.ErrBuildExecutionFailed, "runtime", runtime))
		}()
	}
	wg.Wait()

	out := buf.String()
	for _, runtime := range []string{"jvm", "web", "native"} {
		assert.Contains(t, out, runtime+"/app/process started")
		assert.Contains(t, out, runtime+"/app/compile slow")
		assert.Contains(t, out, "runtime="+runtime)
	}
}

func TestFromEnv(t *testing.T) {
	tests := []struct {
		level     string
		wantDebug bool
		wantInfo  bool
		wantErr   bool
	}{
		{level: "", wantInfo: true},
		{level: "debug", wantDebug: true, wantInfo: true},
		{level: "WARN"},
		{level: "loud", wantErr: true},
	}

	for _, tt := range tests {
		t.Run("level "+tt.level, func(t *testing.T) {
			t.Setenv("NO_COLOR", "1")

			l, err := logger.FromEnv(tt.level)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorContains(t, err, "invalid log level")
				return
			}
			require.NoError(t, err)

			var buf bytes.Buffer
			l.SetOutput(&buf)
			l.Debug("scanning base")
			l.Info("scanned base")

			assert.Equal(t, tt.wantDebug, bytes.Contains(buf.Bytes(), []byte("scanning base")))
			assert.Equal(t, tt.wantInfo, bytes.Contains(buf.Bytes(), []byte("scanned base")))
		})
	}
}
