package orchestrator

import (
	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/zerr"
)

// RetryMode says how a failed phase is retried.
type RetryMode int

const (
	// RetryNone gives up on the first failure.
	RetryNone RetryMode = iota
	// RetryIncremental reruns the phase reusing everything that succeeded.
	RetryIncremental
	// RetryFull reruns the phase regenerating every file.
	RetryFull
)

// maxAttempts bounds how often one phase runs within a build.
const maxAttempts = 3

// String returns the mode name.
func (m RetryMode) String() string {
	switch m {
	case RetryIncremental:
		return "incremental"
	case RetryFull:
		return "full"
	default:
		return "none"
	}
}

// ParseRetryMode parses a mode name.
func ParseRetryMode(s string) (RetryMode, error) {
	switch s {
	case "", "none":
		return RetryNone, nil
	case "incremental":
		return RetryIncremental, nil
	case "full":
		return RetryFull, nil
	default:
		return RetryNone, zerr.With(domain.ErrInvalidConfig, "retry", s)
	}
}

// PhaseErrorFunc decides how a failed phase is retried.
type PhaseErrorFunc func(layer *domain.Layer, phase domain.BuildPhase, err error) RetryMode

// BuildOptions configures one build.
type BuildOptions struct {
	// Full regenerates every file of every phase.
	Full bool
	// Retry is applied once after a failed phase when OnPhaseError is nil.
	Retry RetryMode
	// OnPhaseError is asked after every failed attempt.
	OnPhaseError PhaseErrorFunc
	// Explain logs why files are scheduled and how records change.
	Explain bool
}

func (o BuildOptions) retryAfter(layer *domain.Layer, phase domain.BuildPhase, attempt int, err error) RetryMode {
	if o.OnPhaseError != nil {
		return o.OnPhaseError(layer, phase, err)
	}
	if attempt == 0 {
		return o.Retry
	}
	return RetryNone
}
