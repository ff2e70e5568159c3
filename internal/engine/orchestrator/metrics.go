package orchestrator

import (
	"time"

	"go.trai.ch/strata/internal/core/domain"
)

type noopMetrics struct{}

func (noopMetrics) ObserveScan(string, domain.BuildPhase, int, time.Duration)   {}
func (noopMetrics) AddGenerated(string, int, int)                               {}
func (noopMetrics) ObserveCompile(string, int, time.Duration, bool)             {}
func (noopMetrics) PhaseFinished(string, domain.BuildPhase, domain.BuildStatus) {}
