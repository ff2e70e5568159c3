package ports

import "go.trai.ch/strata/internal/core/domain"

// FileClassifier decides which files are build inputs.
//
//go:generate mockgen -source=classifier.go -destination=mocks/mock_classifier.go -package=mocks
type FileClassifier interface {
	// Classify returns the processor for relName in layer during phase.
	// The boolean is false when the file is not an input of that phase.
	Classify(relName string, layer *domain.Layer, phase domain.BuildPhase) (domain.Processor, bool)
}
