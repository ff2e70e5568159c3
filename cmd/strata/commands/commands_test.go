package commands_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/strata/cmd/strata/commands"
	"go.trai.ch/strata/internal/app"
	"go.trai.ch/strata/internal/build"
	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/engine/orchestrator"
)

type queryTypeCall struct {
	runtime  string
	typeName string
	from     int
	opts     app.QueryOptions
}

type mockApp struct {
	jsonLogs  bool
	verbose   bool
	buildErr  error
	build     *app.BuildOptions
	watch     *app.WatchOptions
	clean     *app.CleanOptions
	layers    *app.LayersOptions
	explained []string
	status    *app.QueryOptions
	queryType *queryTypeCall
}

func (m *mockApp) ConfigureLogging(json, verbose bool) {
	m.jsonLogs = json
	m.verbose = verbose
}

func (m *mockApp) Build(_ context.Context, opts app.BuildOptions) error {
	m.build = &opts
	return m.buildErr
}

func (m *mockApp) Watch(_ context.Context, opts app.WatchOptions) error {
	m.watch = &opts
	return nil
}

func (m *mockApp) Clean(_ context.Context, opts app.CleanOptions) error {
	m.clean = &opts
	return nil
}

func (m *mockApp) Layers(_ context.Context, opts app.LayersOptions) error {
	m.layers = &opts
	return nil
}

func (m *mockApp) Explain(_ context.Context, file string) error {
	m.explained = append(m.explained, file)
	return nil
}

func (m *mockApp) QueryStatus(_ context.Context, opts app.QueryOptions) error {
	m.status = &opts
	return nil
}

func (m *mockApp) QueryType(_ context.Context, runtime, typeName string, from int, opts app.QueryOptions) error {
	m.queryType = &queryTypeCall{runtime: runtime, typeName: typeName, from: from, opts: opts}
	return nil
}

func execute(t *testing.T, mock *mockApp, args ...string) (string, error) {
	t.Helper()
	cli := commands.New(mock)
	buf := new(bytes.Buffer)
	cli.SetOutput(buf, buf)
	cli.SetArgs(args)
	err := cli.Execute(context.Background())
	return buf.String(), err
}

func TestCommands_Build(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want app.BuildOptions
	}{
		{
			name: "defaults",
			args: []string{"build"},
			want: app.BuildOptions{Runtimes: []string{}, OutputMode: "auto"},
		},
		{
			name: "all flags",
			args: []string{
				"build", "-r", "jvm", "--runtime", "web", "--full", "--retry", "incremental",
				"--explain", "--inspect", "-o", "tui", "--metrics-addr", ":9090", "--no-introspect",
				"--socket", "/tmp/s.sock",
			},
			want: app.BuildOptions{
				Runtimes:     []string{"jvm", "web"},
				Full:         true,
				Retry:        orchestrator.RetryIncremental,
				Explain:      true,
				Inspect:      true,
				OutputMode:   "tui",
				MetricsAddr:  ":9090",
				Socket:       "/tmp/s.sock",
				NoIntrospect: true,
			},
		},
		{
			name: "ci forces linear output",
			args: []string{"build", "--ci", "--output-mode", "tui"},
			want: app.BuildOptions{Runtimes: []string{}, OutputMode: "linear"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockApp{}
			_, err := execute(t, mock, tt.args...)
			require.NoError(t, err)
			require.NotNil(t, mock.build)
			assert.Equal(t, tt.want, *mock.build)
		})
	}
}

func TestCommands_Build_Errors(t *testing.T) {
	t.Run("invalid retry mode", func(t *testing.T) {
		mock := &mockApp{}
		_, err := execute(t, mock, "build", "--retry", "sometimes")
		require.Error(t, err)
		assert.ErrorContains(t, err, domain.ErrInvalidConfig.Error())
		assert.Nil(t, mock.build)
	})

	t.Run("returns error on build failure", func(t *testing.T) {
		mock := &mockApp{buildErr: errors.New("simulated error")}
		_, err := execute(t, mock, "build")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "simulated error")
	})

	t.Run("rejects arguments", func(t *testing.T) {
		mock := &mockApp{}
		_, err := execute(t, mock, "build", "app")
		require.Error(t, err)
		assert.Nil(t, mock.build)
	})
}

func TestCommands_Watch(t *testing.T) {
	mock := &mockApp{}
	_, err := execute(t, mock, "watch", "--ci", "-r", "jvm", "--debounce", "200ms", "--idle-timeout", "1h")
	require.NoError(t, err)
	require.NotNil(t, mock.watch)
	assert.Equal(t, app.WatchOptions{
		BuildOptions: app.BuildOptions{Runtimes: []string{"jvm"}, OutputMode: "linear"},
		Debounce:     200 * time.Millisecond,
		IdleTimeout:  time.Hour,
	}, *mock.watch)
}

func TestCommands_Clean(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want app.CleanOptions
	}{
		{name: "default", args: []string{"clean"}, want: app.CleanOptions{Build: true}},
		{name: "state", args: []string{"clean", "--state"}, want: app.CleanOptions{State: true}},
		{name: "all", args: []string{"clean", "-a"}, want: app.CleanOptions{Build: true, State: true}},
		{
			name: "socket",
			args: []string{"clean", "--socket", "/tmp/s.sock"},
			want: app.CleanOptions{Build: true, Socket: "/tmp/s.sock"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockApp{}
			_, err := execute(t, mock, tt.args...)
			require.NoError(t, err)
			require.NotNil(t, mock.clean)
			assert.Equal(t, tt.want, *mock.clean)
		})
	}
}

func TestCommands_Layers(t *testing.T) {
	mock := &mockApp{}
	_, err := execute(t, mock, "layers", "-r", "jvm")
	require.NoError(t, err)
	require.NotNil(t, mock.layers)
	assert.Equal(t, []string{"jvm"}, mock.layers.Runtimes)
}

func TestCommands_Explain(t *testing.T) {
	mock := &mockApp{}
	_, err := execute(t, mock, "explain", "layers/app/src/Screen.strata")
	require.NoError(t, err)
	assert.Equal(t, []string{"layers/app/src/Screen.strata"}, mock.explained)

	_, err = execute(t, mock, "explain")
	require.Error(t, err)
}

func TestCommands_Query(t *testing.T) {
	t.Run("status", func(t *testing.T) {
		mock := &mockApp{}
		_, err := execute(t, mock, "query", "status", "--json", "--socket", "/tmp/s.sock")
		require.NoError(t, err)
		require.NotNil(t, mock.status)
		assert.Equal(t, app.QueryOptions{Socket: "/tmp/s.sock", JSON: true}, *mock.status)
		assert.True(t, mock.jsonLogs)
	})

	t.Run("type", func(t *testing.T) {
		mock := &mockApp{}
		_, err := execute(t, mock, "query", "type", "jvm", "Widget")
		require.NoError(t, err)
		require.NotNil(t, mock.queryType)
		assert.Equal(t, queryTypeCall{runtime: "jvm", typeName: "Widget", from: -1}, *mock.queryType)

		_, err = execute(t, mock, "query", "type", "jvm", "Widget", "--from", "2")
		require.NoError(t, err)
		assert.Equal(t, 2, mock.queryType.from)
	})

	t.Run("type needs runtime and type", func(t *testing.T) {
		mock := &mockApp{}
		_, err := execute(t, mock, "query", "type", "Widget")
		require.Error(t, err)
		assert.Nil(t, mock.queryType)
	})
}

func TestCommands_Verbose(t *testing.T) {
	mock := &mockApp{}
	_, err := execute(t, mock, "layers", "--verbose")
	require.NoError(t, err)
	assert.True(t, mock.verbose)
	assert.False(t, mock.jsonLogs)
}

func TestCommands_Version(t *testing.T) {
	out, err := execute(t, &mockApp{}, "version")
	require.NoError(t, err)
	assert.Contains(t, out, build.Version)

	out, err = execute(t, &mockApp{}, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "commit: "+build.Commit)
}

func TestCommands_VersionJSON(t *testing.T) {
	out, err := execute(t, &mockApp{}, "version", "--json")
	require.NoError(t, err)

	var v map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, build.Commit, v["commit"])
	assert.Equal(t, runtime.Version(), v["go"])
}
