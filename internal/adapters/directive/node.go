package directive

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/strata/internal/adapters/fs"
	"go.trai.ch/strata/internal/core/ports"
)

const (
	// ParserNodeID is the unique identifier for the directive parser Graft node.
	ParserNodeID graft.ID = "adapter.directive.parser"
	// GeneratorNodeID is the unique identifier for the directive generator Graft node.
	GeneratorNodeID graft.ID = "adapter.directive.generator"
)

func init() {
	graft.Register(graft.Node[ports.Parser]{
		ID:        ParserNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Parser, error) {
			return NewParser(), nil
		},
	})

	graft.Register(graft.Node[ports.Generator]{
		ID:        GeneratorNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{fs.HasherNodeID},
		Run: func(ctx context.Context) (ports.Generator, error) {
			hasher, err := graft.Dep[*fs.Hasher](ctx)
			if err != nil {
				return nil, err
			}
			return NewGenerator(hasher), nil
		},
	})
}
