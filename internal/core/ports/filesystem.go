package ports

import (
	"time"

	"go.trai.ch/strata/internal/core/domain"
)

//go:generate mockgen -source=filesystem.go -destination=mocks/mock_filesystem.go -package=mocks

// FileSystem is the read side of the file system the scanner needs.
type FileSystem interface {
	// ListDir returns the entries of dir sorted by name. A missing directory has no entries.
	ListDir(dir string) ([]domain.FileStat, error)

	// Stat returns metadata for path. The boolean is false when path does not exist.
	Stat(path string) (domain.FileStat, bool, error)
}

// Hasher computes content hashes.
type Hasher interface {
	// HashFile returns the hex content hash of the file at path.
	HashFile(path string) (string, error)

	// HashBytes returns the hex content hash of data.
	HashBytes(data []byte) string
}

// OutputFS manages generated outputs.
type OutputFS interface {
	// Promote moves a staged file to target, creating parent directories.
	Promote(staged, target string) error

	// Remove deletes path. A missing path is not an error.
	Remove(path string) error

	// Touch sets the modification time of path.
	Touch(path string, t time.Time) error

	// ResetDir removes dir with its contents and creates it empty.
	ResetDir(dir string) error
}
