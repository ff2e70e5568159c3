// Package app implements the application layer for strata.
package app

import (
	"context"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"go.trai.ch/strata/internal/adapters/classifier"
	"go.trai.ch/strata/internal/adapters/config"
	"go.trai.ch/strata/internal/adapters/daemon"
	"go.trai.ch/strata/internal/adapters/fs"
	"go.trai.ch/strata/internal/adapters/metrics"
	"go.trai.ch/strata/internal/adapters/watcher"
	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports"
	"go.trai.ch/strata/internal/engine/orchestrator"
	"go.trai.ch/zerr"
)

// RecordStore persists dependency records and explains how they change.
type RecordStore interface {
	ports.DependencyStore
	ports.RecordExplainer
}

// Deps are the adapters an App drives.
type Deps struct {
	Loader    ports.ConfigLoader
	Logger    ports.Logger
	Parser    ports.Parser
	Generator ports.Generator
	Compiler  ports.Compiler
	Files     ports.FileSystem
	Outputs   ports.OutputFS
	Records   RecordStore
	BuildInfo ports.BuildInfoStore
	Metrics   *metrics.Collector
	Daemon    *daemon.Factory
	Walker    *fs.Walker
	Filter    *watcher.ContentFilter
}

// App represents the main application logic.
type App struct {
	deps        Deps
	stdout      io.Writer
	stderr      io.Writer
	teaOptions  []tea.ProgramOption
	disableTick bool
}

// New creates a new App instance.
func New(deps Deps) *App {
	return &App{
		deps:   deps,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
}

// WithTeaOptions adds bubbletea program options to the App.
// This is primarily used for testing to disable input/output.
func (a *App) WithTeaOptions(opts ...tea.ProgramOption) *App {
	a.teaOptions = append(a.teaOptions, opts...)
	return a
}

// WithDisableTick disables the TUI tick loop.
// This is primarily used for testing with synctest to avoid goroutine deadlocks.
func (a *App) WithDisableTick() *App {
	a.disableTick = true
	return a
}

// WithOutput redirects what the App prints for the user.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	return a
}

type logConfigurer interface {
	SetJSON(enable bool)
	SetLevel(level slog.Level)
}

// ConfigureLogging switches the logger to JSON output and debug level when asked.
func (a *App) ConfigureLogging(json, verbose bool) {
	lc, ok := a.deps.Logger.(logConfigurer)
	if !ok {
		return
	}
	lc.SetJSON(json)
	if verbose {
		lc.SetLevel(slog.LevelDebug)
	}
}

// open loads the workspace and resolves the layers of every runtime. It fails only when
// no layer resolved at all.
func (a *App) open(tracer ports.Tracer) (*domain.Workspace, *orchestrator.Coordinator, error) {
	ws, err := a.deps.Loader.Load(".")
	if err != nil {
		return nil, nil, zerr.Wrap(err, "failed to load configuration")
	}

	var m ports.Metrics
	if a.deps.Metrics != nil {
		m = a.deps.Metrics
	}
	co := orchestrator.NewCoordinator(ws, config.NewLayerSource(config.NewOSFS(), ws.LayerPath), orchestrator.Collaborators{
		Parser:     a.deps.Parser,
		Generator:  a.deps.Generator,
		Compiler:   a.deps.Compiler,
		Classifier: classifier.New(ws.Processors),
		Files:      a.deps.Files,
		Outputs:    a.deps.Outputs,
		Records:    a.deps.Records,
		Explainer:  a.deps.Records,
		BuildInfo:  a.deps.BuildInfo,
		Logger:     a.deps.Logger,
		Tracer:     tracer,
		Metrics:    m,
	})
	if err := co.Init(); err != nil {
		err = zerr.Wrap(err, "failed to resolve layers")
		if !co.HasTargets() {
			return nil, nil, err
		}
		// The layers that resolved are still built.
		a.deps.Logger.Error(err)
	}
	return ws, co, nil
}

// serverRunning reports whether an introspection server already answers on socket.
func (a *App) serverRunning(ctx context.Context, socket string) bool {
	if a.deps.Daemon == nil {
		return false
	}
	client, err := a.deps.Daemon.Dial(socket)
	if err != nil {
		return false
	}
	defer func() { _ = client.Close() }()

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	_, err = client.Status(ctx)
	return err == nil
}
