package domain

import "go.trai.ch/zerr"

// BuildPhase is one of the ordered passes applied to every layer.
type BuildPhase uint8

const (
	// PhasePrepare runs before Process. Outputs of Prepare may feed Process.
	PhasePrepare BuildPhase = iota
	// PhaseProcess is the main generation and compile pass.
	PhaseProcess

	phaseCount
)

// Phases returns every build phase in execution order.
func Phases() []BuildPhase {
	out := make([]BuildPhase, 0, phaseCount)
	for p := range phaseCount {
		out = append(out, p)
	}
	return out
}

// String returns the lower-case phase name used in file names and flags.
func (p BuildPhase) String() string {
	switch p {
	case PhasePrepare:
		return "prepare"
	case PhaseProcess:
		return "process"
	default:
		return "unknown"
	}
}

// ParseBuildPhase converts a phase name into a BuildPhase.
func ParseBuildPhase(s string) (BuildPhase, error) {
	for _, p := range Phases() {
		if p.String() == s {
			return p, nil
		}
	}
	return 0, zerr.With(ErrInvalidConfig, "phase", s)
}

// BuildStatus is the state of a layer's pass through one phase.
type BuildStatus uint8

const (
	// StatusNotStarted is the initial state.
	StatusNotStarted BuildStatus = iota
	// StatusScanning means the staleness scanner is running.
	StatusScanning
	// StatusGenerating means scheduled files are being parsed and generated.
	StatusGenerating
	// StatusCompiling means the native compiler is running.
	StatusCompiling
	// StatusDone means the phase finished without errors.
	StatusDone
	// StatusError is absorbing: the phase failed.
	StatusError
)

// statusTransitions lists the states each state may move to.
var statusTransitions = map[BuildStatus][]BuildStatus{
	StatusNotStarted: {StatusScanning},
	StatusScanning:   {StatusGenerating, StatusError},
	StatusGenerating: {StatusCompiling, StatusError},
	StatusCompiling:  {StatusDone, StatusError},
}

// CanTransition reports whether moving from s to next is allowed.
func (s BuildStatus) CanTransition(next BuildStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (s BuildStatus) IsTerminal() bool {
	return s == StatusDone || s == StatusError
}

// String returns the status name.
func (s BuildStatus) String() string {
	switch s {
	case StatusNotStarted:
		return "not-started"
	case StatusScanning:
		return "scanning"
	case StatusGenerating:
		return "generating"
	case StatusCompiling:
		return "compiling"
	case StatusDone:
		return "done"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}
