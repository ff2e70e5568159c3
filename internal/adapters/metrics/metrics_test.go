package metrics_test

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/strata/internal/adapters/metrics"
	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func TestCollector_Records(t *testing.T) {
	c := metrics.NewCollector()

	c.ObserveScan("jvm", domain.PhaseProcess, 3, 20*time.Millisecond)
	c.ObserveScan("jvm", domain.PhaseProcess, 2, 10*time.Millisecond)
	c.AddGenerated("jvm", 4, 1)
	c.ObserveCompile("jvm", 5, time.Second, false)
	c.ObserveCompile("jvm", 1, time.Second, true)
	c.PhaseFinished("jvm", domain.PhaseProcess, domain.StatusDone)

	expected := `
# HELP strata_files_scheduled_total Source files scheduled for generation by the scanner.
# TYPE strata_files_scheduled_total counter
strata_files_scheduled_total{phase="process",runtime="jvm"} 5
# HELP strata_outputs_total Generated outputs, split into fresh and inherited.
# TYPE strata_outputs_total counter
strata_outputs_total{kind="generated",runtime="jvm"} 4
strata_outputs_total{kind="inherited",runtime="jvm"} 1
# HELP strata_compiles_total Compiler runs, by result.
# TYPE strata_compiles_total counter
strata_compiles_total{result="failed",runtime="jvm"} 1
strata_compiles_total{result="ok",runtime="jvm"} 1
`
	err := testutil.GatherAndCompare(c.Registry(), strings.NewReader(expected),
		"strata_files_scheduled_total", "strata_outputs_total", "strata_compiles_total")
	require.NoError(t, err)

	n, err := testutil.GatherAndCount(c.Registry(), "strata_phases_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCollector_IndependentRegistries(t *testing.T) {
	a := metrics.NewCollector()
	b := metrics.NewCollector()

	a.AddGenerated("jvm", 1, 0)

	n, err := testutil.GatherAndCount(b.Registry(), "strata_outputs_total")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCollector_Serve(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Debug(gomock.Any()).AnyTimes()

	c := metrics.NewCollector()
	c.AddGenerated("jvm", 2, 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addr, err := c.Serve(ctx, "127.0.0.1:0", log)
	require.NoError(t, err)

	resp, err := http.Get("http://" + addr + "/metrics") //nolint:noctx // test request
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `strata_outputs_total{kind="generated",runtime="jvm"} 2`)
}

func TestCollector_ServeBadAddress(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)

	_, err := metrics.NewCollector().Serve(context.Background(), "not-an-address", log)
	require.ErrorContains(t, err, domain.ErrMetricsServeFailed.Error())
}
