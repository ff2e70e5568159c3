// Package metrics records build counters with Prometheus and serves them over HTTP.
package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports"
	"go.trai.ch/zerr"
)

const namespace = "strata"

const shutdownTimeout = 5 * time.Second

var _ ports.Metrics = (*Collector)(nil)

// Collector implements ports.Metrics on its own Prometheus registry.
type Collector struct {
	registry *prometheus.Registry

	scans          *prometheus.CounterVec
	scanDuration   *prometheus.HistogramVec
	scheduled      *prometheus.CounterVec
	outputs        *prometheus.CounterVec
	compiles       *prometheus.CounterVec
	compileFiles   *prometheus.CounterVec
	compileSeconds *prometheus.HistogramVec
	phases         *prometheus.CounterVec
}

// NewCollector creates a Collector with every build metric registered.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		scans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scans_total",
			Help:      "Staleness scans run, by runtime and phase.",
		}, []string{"runtime", "phase"}),
		scanDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scan_duration_seconds",
			Help:      "Time spent scanning source trees.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"runtime", "phase"}),
		scheduled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_scheduled_total",
			Help:      "Source files scheduled for generation by the scanner.",
		}, []string{"runtime", "phase"}),
		outputs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outputs_total",
			Help:      "Generated outputs, split into fresh and inherited.",
		}, []string{"runtime", "kind"}),
		compiles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compiles_total",
			Help:      "Compiler runs, by result.",
		}, []string{"runtime", "result"}),
		compileFiles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compile_inputs_total",
			Help:      "Files handed to the compiler.",
		}, []string{"runtime"}),
		compileSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "compile_duration_seconds",
			Help:      "Time spent in the native compiler.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"runtime"}),
		phases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "phases_total",
			Help:      "Layer phases finished, by final status.",
		}, []string{"runtime", "phase", "status"}),
	}

	c.registry.MustRegister(
		c.scans,
		c.scanDuration,
		c.scheduled,
		c.outputs,
		c.compiles,
		c.compileFiles,
		c.compileSeconds,
		c.phases,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// ObserveScan records one scanner run and how many files it scheduled.
func (c *Collector) ObserveScan(runtime string, phase domain.BuildPhase, scheduled int, d time.Duration) {
	p := phase.String()
	c.scans.WithLabelValues(runtime, p).Inc()
	c.scanDuration.WithLabelValues(runtime, p).Observe(d.Seconds())
	c.scheduled.WithLabelValues(runtime, p).Add(float64(scheduled))
}

// AddGenerated counts freshly generated and inherited outputs.
func (c *Collector) AddGenerated(runtime string, generated, inherited int) {
	c.outputs.WithLabelValues(runtime, "generated").Add(float64(generated))
	c.outputs.WithLabelValues(runtime, "inherited").Add(float64(inherited))
}

// ObserveCompile records one compiler run.
func (c *Collector) ObserveCompile(runtime string, files int, d time.Duration, failed bool) {
	result := "ok"
	if failed {
		result = "failed"
	}
	c.compiles.WithLabelValues(runtime, result).Inc()
	c.compileFiles.WithLabelValues(runtime).Add(float64(files))
	c.compileSeconds.WithLabelValues(runtime).Observe(d.Seconds())
}

// PhaseFinished records the final status of a layer's phase.
func (c *Collector) PhaseFinished(runtime string, phase domain.BuildPhase, status domain.BuildStatus) {
	c.phases.WithLabelValues(runtime, phase.String(), status.String()).Inc()
}

// Registry exposes the underlying registry for gathering.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Serve exposes /metrics on addr until ctx is done.
// It returns once the listener is bound, with the bound address.
func (c *Collector) Serve(ctx context.Context, addr string, logger ports.Logger) (string, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, domain.ErrMetricsServeFailed.Error()), "addr", addr)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: shutdownTimeout}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(zerr.Wrap(err, domain.ErrMetricsServeFailed.Error()))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Debug("metrics available on http://" + ln.Addr().String() + "/metrics")
	return ln.Addr().String(), nil
}
