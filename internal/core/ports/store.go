package ports

import (
	"time"

	"go.trai.ch/strata/internal/core/domain"
)

//go:generate mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks

// BuildInfoStore defines the interface for storing and retrieving layer build information.
type BuildInfoStore interface {
	// Get retrieves the build info for a runtime and layer.
	// Returns nil, nil if not found.
	Get(root, runtime, layer string) (*domain.BuildInfo, error)

	// Put stores the build info.
	Put(root string, info domain.BuildInfo) error
}

// DependencyStore persists dependency records.
type DependencyStore interface {
	// Read returns the record at path. A missing or unreadable record yields nil, nil.
	Read(path string) (*domain.DependencyFile, error)

	// Write persists df and sets the file's modification time to buildStart.
	Write(path string, df *domain.DependencyFile, buildStart time.Time) error

	// Delete removes the record at path.
	Delete(path string) error

	// Path returns where the record of layer, relDir and phase lives below buildSrcDir.
	Path(buildSrcDir, layer, relDir string, phase domain.BuildPhase) string
}

// RecordExplainer describes how a dependency record changed.
type RecordExplainer interface {
	// Explain returns a unified diff between two versions of the record at name.
	// It is empty when nothing changed.
	Explain(name string, before, after *domain.DependencyFile) (string, error)
}
