package ports

import (
	"time"

	"go.trai.ch/strata/internal/core/domain"
)

// Metrics records build counters.
//
//go:generate mockgen -source=metrics.go -destination=mocks/mock_metrics.go -package=mocks
type Metrics interface {
	// ObserveScan records one scanner run and how many files it scheduled.
	ObserveScan(runtime string, phase domain.BuildPhase, scheduled int, d time.Duration)
	// AddGenerated counts freshly generated and inherited outputs.
	AddGenerated(runtime string, generated, inherited int)
	// ObserveCompile records one compiler run.
	ObserveCompile(runtime string, files int, d time.Duration, failed bool)
	// PhaseFinished records the final status of a layer's phase.
	PhaseFinished(runtime string, phase domain.BuildPhase, status domain.BuildStatus)
}
