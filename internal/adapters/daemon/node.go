package daemon

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/strata/internal/adapters/logger"
	"go.trai.ch/strata/internal/core/ports"
)

// NodeID is the unique identifier for the introspection factory Graft node.
const NodeID graft.ID = "adapter.daemon"

// Factory builds introspection servers and clients.
type Factory struct {
	logger ports.Logger
}

// NewFactory creates a Factory whose servers log to logger.
func NewFactory(logger ports.Logger) *Factory {
	return &Factory{logger: logger}
}

// NewServer creates a server answering for provider.
func (f *Factory) NewServer(provider ports.StatusProvider, lifecycle *Lifecycle) *Server {
	return NewServer(provider, lifecycle, f.logger)
}

// Dial opens a client on socketPath.
func (f *Factory) Dial(socketPath string) (ports.IntrospectionClient, error) {
	return Dial(socketPath)
}

func init() {
	graft.Register(graft.Node[*Factory]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (*Factory, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewFactory(log), nil
		},
	})
}
