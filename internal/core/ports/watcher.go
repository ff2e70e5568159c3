package ports

import (
	"context"
	"iter"
)

// ChangeKind classifies a file change seen while watching a workspace.
type ChangeKind uint8

const (
	// ChangeModified means the file content may differ.
	ChangeModified ChangeKind = iota
	// ChangeCreated means a file or directory appeared.
	ChangeCreated
	// ChangeRemoved means a file or directory was deleted or renamed away.
	ChangeRemoved
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeCreated:
		return "created"
	case ChangeRemoved:
		return "removed"
	default:
		return "modified"
	}
}

// Change is one file change below the watched workspace root.
type Change struct {
	Path string
	Kind ChangeKind
}

// Watcher reports changes to the sources and definitions of a workspace.
//
//go:generate mockgen -source=watcher.go -destination=mocks/mock_watcher.go -package=mocks
type Watcher interface {
	// Start watches root and every directory below it that is not ignored.
	Start(ctx context.Context, root string) error
	// Stop releases the underlying watches. Calling it twice is safe.
	Stop() error
	// Changes yields changes until the watcher stops.
	Changes() iter.Seq[Change]
}
