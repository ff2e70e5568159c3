package fs

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/strata/internal/core/ports"
)

const (
	// FilesNodeID is the unique identifier for the file system Graft node.
	FilesNodeID graft.ID = "adapter.fs.files"
	// FileSystemNodeID is the unique identifier for the read-only file system Graft node.
	FileSystemNodeID graft.ID = "adapter.fs.filesystem"
	// OutputsNodeID is the unique identifier for the generated-output Graft node.
	OutputsNodeID graft.ID = "adapter.fs.outputs"
	// WalkerNodeID is the unique identifier for the walker Graft node.
	WalkerNodeID graft.ID = "adapter.fs.walker"
	// HasherNodeID is the unique identifier for the hasher Graft node.
	HasherNodeID graft.ID = "adapter.fs.hasher"
)

func init() {
	graft.Register(graft.Node[*Files]{
		ID:        FilesNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*Files, error) {
			return NewFiles(), nil
		},
	})

	graft.Register(graft.Node[ports.FileSystem]{
		ID:        FileSystemNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{FilesNodeID},
		Run: func(ctx context.Context) (ports.FileSystem, error) {
			files, err := graft.Dep[*Files](ctx)
			if err != nil {
				return nil, err
			}
			return files, nil
		},
	})

	graft.Register(graft.Node[ports.OutputFS]{
		ID:        OutputsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{FilesNodeID},
		Run: func(ctx context.Context) (ports.OutputFS, error) {
			files, err := graft.Dep[*Files](ctx)
			if err != nil {
				return nil, err
			}
			return files, nil
		},
	})

	graft.Register(graft.Node[*Walker]{
		ID:        WalkerNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*Walker, error) {
			return NewWalker(), nil
		},
	})

	graft.Register(graft.Node[*Hasher]{
		ID:        HasherNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*Hasher, error) {
			return NewHasher(), nil
		},
	})
}
