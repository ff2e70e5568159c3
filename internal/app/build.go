package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/strata/internal/adapters/daemon"
	"go.trai.ch/strata/internal/adapters/detector"
	"go.trai.ch/strata/internal/adapters/linear"
	"go.trai.ch/strata/internal/adapters/report"
	"go.trai.ch/strata/internal/adapters/telemetry"
	"go.trai.ch/strata/internal/adapters/tui"
	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports"
	"go.trai.ch/strata/internal/engine/orchestrator"
	"golang.org/x/sync/errgroup"
)

const pingTimeout = time.Second

// BuildOptions configuration for the Build method.
type BuildOptions struct {
	// Runtimes limits the build to these runtimes. Empty builds every runtime.
	Runtimes []string
	Full     bool
	Retry    orchestrator.RetryMode
	Explain  bool
	// Inspect keeps the TUI open after the build.
	Inspect    bool
	OutputMode string
	// MetricsAddr serves Prometheus metrics while building when set.
	MetricsAddr string
	// Socket overrides the introspection socket path.
	Socket string
	// NoIntrospect disables the introspection server.
	NoIntrospect bool
}

// Build builds the target layers of the workspace.
//
//nolint:cyclop,funlen // orchestration function
func (a *App) Build(ctx context.Context, opts BuildOptions) error {
	parent := ctx
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// 1. Initialize Renderer
	mode, err := detector.ResolveMode(detector.DetectEnvironment(), opts.OutputMode)
	if err != nil {
		return err
	}
	renderer := a.newRenderer(ctx, mode)

	// 2. Initialize Telemetry
	// Spans are forwarded to the renderer through the bridge.
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(telemetry.NewBridge(renderer)))
	defer func() {
		_ = tp.Shutdown(context.WithoutCancel(ctx))
	}()
	tracer := telemetry.NewOTelTracerWithProvider(tp, "strata").WithRenderer(renderer)
	defer func() {
		_ = tracer.Shutdown(context.WithoutCancel(ctx))
	}()

	// 3. Load the workspace
	ws, co, err := a.open(tracer)
	if err != nil {
		return err
	}

	// 4. Optional metrics endpoint
	if opts.MetricsAddr != "" && a.deps.Metrics != nil {
		addr, err := a.deps.Metrics.Serve(ctx, opts.MetricsAddr, a.deps.Logger)
		if err != nil {
			return err
		}
		a.deps.Logger.Info("serving metrics on http://" + addr + "/metrics")
	}

	// 5. Run Renderer, introspection server and build concurrently
	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	serveCtx, stopServing := context.WithCancel(gctx)
	defer stopServing()

	g.Go(func() error {
		if err := renderer.Start(gctx); err != nil {
			return err
		}
		return renderer.Wait()
	})

	if !opts.NoIntrospect {
		a.serveIntrospection(serveCtx, g, co, a.socketPath(ws, opts.Socket))
	}

	var buildErr error
	g.Go(func() error {
		defer func() {
			if r := recover(); r != nil {
				buildErr = errors.Join(domain.ErrBuildExecutionFailed, fmt.Errorf("build panic: %v", r))
			}
			stopServing()
			if !opts.Inspect {
				_ = renderer.Stop()
			}
		}()

		buildErr = co.Build(gctx, opts.Runtimes, orchestrator.BuildOptions{
			Full:    opts.Full,
			Retry:   opts.Retry,
			Explain: opts.Explain,
		})
		if initErr := co.InitErr(); initErr != nil && buildErr == nil {
			buildErr = errors.Join(domain.ErrBuildExecutionFailed, initErr)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	// 6. Report
	snap := co.Snapshot()
	summary := report.Summary{
		Runtimes:  snap.Runtimes,
		Duration:  time.Since(start),
		MaxErrors: ws.MaxErrors,
		Canceled:  errors.Is(buildErr, domain.ErrBuildCanceled) || parent.Err() != nil,
	}
	if err := report.New(a.stderr, !color.NoColor).Write(summary); err != nil {
		a.deps.Logger.Warn("failed to write build report: " + err.Error())
	}
	return buildErr
}

func (a *App) newRenderer(ctx context.Context, mode detector.OutputMode) ports.Renderer {
	if mode == detector.ModeTUI {
		model := tui.NewModel(a.stderr)
		if a.disableTick {
			model = model.WithDisableTick()
		}
		optsTea := append([]tea.ProgramOption{tea.WithContext(ctx)}, a.teaOptions...)
		return tui.NewRenderer(&model, optsTea...).WithSummary(a.stderr)
	}
	return linear.NewRenderer(a.stdout, a.stderr)
}

func (a *App) socketPath(ws *domain.Workspace, override string) string {
	if override != "" {
		return override
	}
	return domain.DefaultSocketPath(ws.Root)
}

// serveIntrospection answers status queries for co on socket until ctx is done.
// A second build in the same workspace runs without its own server.
func (a *App) serveIntrospection(ctx context.Context, g *errgroup.Group, co *orchestrator.Coordinator, socket string) {
	if a.deps.Daemon == nil {
		return
	}
	if a.serverRunning(ctx, socket) {
		a.deps.Logger.Warn("another build is serving " + socket + "; introspection disabled")
		return
	}

	server := a.deps.Daemon.NewServer(co, daemon.NewLifecycle(0))
	lis, err := server.Listen(socket)
	if err != nil {
		a.deps.Logger.Warn("introspection disabled: " + err.Error())
		return
	}
	g.Go(func() error {
		if err := server.Serve(ctx, lis); err != nil {
			a.deps.Logger.Warn(err.Error())
		}
		return nil
	})
	a.deps.Logger.Debug("introspection listening on " + socket)
}
