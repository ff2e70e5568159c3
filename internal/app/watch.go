package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fatih/color"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/strata/internal/adapters/daemon"
	"go.trai.ch/strata/internal/adapters/linear"
	"go.trai.ch/strata/internal/adapters/report"
	"go.trai.ch/strata/internal/adapters/telemetry"
	"go.trai.ch/strata/internal/adapters/watcher"
	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports"
	"go.trai.ch/strata/internal/engine/orchestrator"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// WatchOptions configuration for the Watch method.
type WatchOptions struct {
	BuildOptions
	// Debounce is how long changes settle before a rebuild. Zero uses the watcher default.
	Debounce time.Duration
	// IdleTimeout stops watching after this long without changes or queries. Zero never stops.
	IdleTimeout time.Duration
}

// liveCoordinator lets the introspection server follow coordinator replacements.
type liveCoordinator struct {
	co atomic.Pointer[orchestrator.Coordinator]
}

func (l *liveCoordinator) Snapshot() domain.StatusSnapshot {
	return l.co.Load().Snapshot()
}

func (l *liveCoordinator) LookupType(
	ctx context.Context, runtime, typeName string, fromPosition int,
) (domain.TypeLookup, error) {
	return l.co.Load().LookupType(ctx, runtime, typeName, fromPosition)
}

// Watch builds once, then rebuilds whenever a source or layer definition changes.
// It returns when ctx is done or the idle timeout expires.
//
//nolint:cyclop,funlen // orchestration function
func (a *App) Watch(ctx context.Context, opts WatchOptions) error {
	renderer := linear.NewRenderer(a.stdout, a.stderr)
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(telemetry.NewBridge(renderer)))
	defer func() {
		_ = tp.Shutdown(context.WithoutCancel(ctx))
	}()
	tracer := telemetry.NewOTelTracerWithProvider(tp, "strata").WithRenderer(renderer)
	defer func() {
		_ = tracer.Shutdown(context.WithoutCancel(ctx))
		_ = renderer.Stop()
	}()

	ws, co, err := a.open(tracer)
	if err != nil {
		return err
	}
	live := &liveCoordinator{}
	live.co.Store(co)

	ignores := append([]string{filepath.Base(ws.BuildDir)}, watcher.DefaultIgnores...)
	w, err := watcher.NewWatcher(a.deps.Walker, a.deps.Logger, ignores)
	if err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	g, ctx := errgroup.WithContext(ctx)
	lifecycle := daemon.NewLifecycle(opts.IdleTimeout)
	defer lifecycle.Close()

	if opts.MetricsAddr != "" && a.deps.Metrics != nil {
		addr, err := a.deps.Metrics.Serve(ctx, opts.MetricsAddr, a.deps.Logger)
		if err != nil {
			return err
		}
		a.deps.Logger.Info("serving metrics on http://" + addr + "/metrics")
	}
	if !opts.NoIntrospect && a.deps.Daemon != nil {
		socket := a.socketPath(ws, opts.Socket)
		if a.serverRunning(ctx, socket) {
			return zerr.With(domain.ErrBuildRunning, "socket", socket)
		}
		server := a.deps.Daemon.NewServer(live, lifecycle)
		lis, err := server.Listen(socket)
		if err != nil {
			return err
		}
		g.Go(func() error { return server.Serve(ctx, lis) })
	}

	if err := a.deps.Filter.Seed(ctx, ws.Root); err != nil {
		return zerr.Wrap(err, domain.ErrWatcherFailed.Error())
	}
	if err := w.Start(ctx, ws.Root); err != nil {
		return err
	}

	window := opts.Debounce
	if window <= 0 {
		window = watcher.DefaultDebounceWindow
	}
	batches := make(chan []ports.Change)
	debouncer := watcher.NewDebouncer(window, func(batch []ports.Change) {
		select {
		case batches <- batch:
		case <-ctx.Done():
		}
	})
	g.Go(func() error {
		for c := range w.Changes() {
			debouncer.Add(c)
		}
		return nil
	})

	g.Go(func() error {
		defer func() { _ = w.Stop() }()

		build := func() {
			release := lifecycle.Busy()
			defer release()
			a.rebuild(ctx, ws, live.co.Load(), opts.BuildOptions)
		}

		build()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-lifecycle.Idle():
				a.deps.Logger.Info("no activity for " + opts.IdleTimeout.String() + "; stopping")
				return nil
			case batch := <-batches:
				paths := watcher.Paths(batch)
				changed, err := a.deps.Filter.Changed(ctx, paths)
				if err != nil {
					a.deps.Logger.Warn("failed to hash changed files: " + err.Error())
					changed = paths
				}
				if len(changed) == 0 {
					continue
				}
				lifecycle.Touch()
				a.deps.Logger.Info(fmt.Sprintf("%d file(s) changed, rebuilding", len(changed)))

				if definitionsChanged(changed) {
					nextWS, next, err := a.open(tracer)
					if err != nil {
						a.deps.Logger.Error(err)
						continue
					}
					a.deps.Logger.Info("workspace configuration reloaded")
					ws = nextWS
					live.co.Store(next)
				}
				build()
			}
		}
	})

	return g.Wait()
}

// rebuild runs one build and reports it. Build failures are reported, not returned.
func (a *App) rebuild(ctx context.Context, ws *domain.Workspace, co *orchestrator.Coordinator, opts BuildOptions) {
	start := time.Now()
	err := co.Build(ctx, opts.Runtimes, orchestrator.BuildOptions{
		Full:    opts.Full,
		Retry:   opts.Retry,
		Explain: opts.Explain,
	})
	if err != nil && !errors.Is(err, domain.ErrBuildExecutionFailed) {
		a.deps.Logger.Error(err)
	}
	summary := report.Summary{
		Runtimes:  co.Snapshot().Runtimes,
		Duration:  time.Since(start),
		MaxErrors: ws.MaxErrors,
		Canceled:  ctx.Err() != nil,
	}
	if err := report.New(a.stderr, !color.NoColor).Write(summary); err != nil {
		a.deps.Logger.Warn("failed to write build report: " + err.Error())
	}
}

func definitionsChanged(paths []string) bool {
	for _, p := range paths {
		if base := filepath.Base(p); base == domain.LayerFileName || base == domain.WorkspaceFileName {
			return true
		}
	}
	return false
}
