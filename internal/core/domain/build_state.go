package domain

import (
	"slices"

	"go.trai.ch/zerr"
)

// BuildState is the scratch record of one layer's pass through one phase.
// It is created when the pass starts and reset when it completes or is retried.
type BuildState struct {
	Layer  LayerID
	Phase  BuildPhase
	Status BuildStatus

	toCompile []string
	compile   map[string]struct{}

	// Modified holds source paths regenerated in this pass.
	Modified map[string]struct{}
	// DependentFilesChanged maps a changed file to the files scheduled because of it.
	DependentFilesChanged map[string][]string
	// ProcessedDirs holds relative directories already visited.
	ProcessedDirs map[string]struct{}

	Errors   []error
	AnyError bool

	Generated int
	Inherited int
}

// NewBuildState creates an empty state for a layer and phase.
func NewBuildState(layer LayerID, phase BuildPhase) *BuildState {
	s := &BuildState{Layer: layer, Phase: phase}
	s.Reset()
	return s
}

// Transition moves the state to next or returns ErrInvalidTransition.
func (s *BuildState) Transition(next BuildStatus) error {
	if !s.Status.CanTransition(next) {
		err := zerr.With(ErrInvalidTransition, "from", s.Status.String())
		return zerr.With(err, "to", next.String())
	}
	s.Status = next
	return nil
}

// Fail records err. The state moves to StatusError when that is allowed from the current status.
func (s *BuildState) Fail(err error) {
	if err != nil {
		s.Errors = append(s.Errors, err)
	}
	s.AnyError = true
	if s.Status.CanTransition(StatusError) {
		s.Status = StatusError
	}
}

// AddError records a per-file error without changing status.
func (s *BuildState) AddError(err error) {
	s.Errors = append(s.Errors, err)
	s.AnyError = true
}

// AddToCompile queues a generated file for compilation. Duplicates are ignored.
func (s *BuildState) AddToCompile(path string) {
	if _, ok := s.compile[path]; ok {
		return
	}
	s.compile[path] = struct{}{}
	s.toCompile = append(s.toCompile, path)
}

// RemoveFromCompile drops a file from the compile queue.
func (s *BuildState) RemoveFromCompile(path string) {
	if _, ok := s.compile[path]; !ok {
		return
	}
	delete(s.compile, path)
	s.toCompile = slices.DeleteFunc(s.toCompile, func(p string) bool { return p == path })
}

// ToCompile returns queued files in insertion order.
func (s *BuildState) ToCompile() []string {
	return slices.Clone(s.toCompile)
}

// MarkModified records a regenerated source path.
func (s *BuildState) MarkModified(path string) {
	s.Modified[path] = struct{}{}
}

// Reset clears every transient set and returns the state to StatusNotStarted.
func (s *BuildState) Reset() {
	s.Status = StatusNotStarted
	s.toCompile = nil
	s.compile = make(map[string]struct{})
	s.Modified = make(map[string]struct{})
	s.DependentFilesChanged = make(map[string][]string)
	s.ProcessedDirs = make(map[string]struct{})
	s.Errors = nil
	s.AnyError = false
	s.Generated = 0
	s.Inherited = 0
}
