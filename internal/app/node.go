package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/strata/internal/adapters/cas"       //nolint:depguard // Wired in app layer
	"go.trai.ch/strata/internal/adapters/config"    //nolint:depguard // Wired in app layer
	"go.trai.ch/strata/internal/adapters/daemon"    //nolint:depguard // Wired in app layer
	"go.trai.ch/strata/internal/adapters/depfile"   //nolint:depguard // Wired in app layer
	"go.trai.ch/strata/internal/adapters/directive" //nolint:depguard // Wired in app layer
	"go.trai.ch/strata/internal/adapters/fs"        //nolint:depguard // Wired in app layer
	"go.trai.ch/strata/internal/adapters/logger"    //nolint:depguard // Wired in app layer
	"go.trai.ch/strata/internal/adapters/metrics"   //nolint:depguard // Wired in app layer
	"go.trai.ch/strata/internal/adapters/shell"     //nolint:depguard // Wired in app layer
	"go.trai.ch/strata/internal/adapters/watcher"   //nolint:depguard // Wired in app layer
	"go.trai.ch/strata/internal/core/ports"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

// Components contains all the initialized application components.
// This struct provides controlled access to components needed by the CLI layer.
type Components struct {
	App    *App
	Logger ports.Logger
}

func init() {
	// App Node
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			logger.NodeID,
			directive.ParserNodeID,
			directive.GeneratorNodeID,
			shell.CompilerNodeID,
			fs.FileSystemNodeID,
			fs.OutputsNodeID,
			fs.WalkerNodeID,
			depfile.NodeID,
			cas.NodeID,
			metrics.NodeID,
			daemon.NodeID,
			watcher.FilterNodeID,
		},
		Run: runAppNode,
	})

	// Components Node
	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			a, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return &Components{App: a, Logger: log}, nil
		},
	})
}

//nolint:cyclop // one lookup per dependency
func runAppNode(ctx context.Context) (*App, error) {
	loader, err := graft.Dep[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}
	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}
	parser, err := graft.Dep[ports.Parser](ctx)
	if err != nil {
		return nil, err
	}
	generator, err := graft.Dep[ports.Generator](ctx)
	if err != nil {
		return nil, err
	}
	compiler, err := graft.Dep[ports.Compiler](ctx)
	if err != nil {
		return nil, err
	}
	files, err := graft.Dep[ports.FileSystem](ctx)
	if err != nil {
		return nil, err
	}
	outputs, err := graft.Dep[ports.OutputFS](ctx)
	if err != nil {
		return nil, err
	}
	walker, err := graft.Dep[*fs.Walker](ctx)
	if err != nil {
		return nil, err
	}
	records, err := graft.Dep[*depfile.Store](ctx)
	if err != nil {
		return nil, err
	}
	info, err := graft.Dep[*cas.Store](ctx)
	if err != nil {
		return nil, err
	}
	collector, err := graft.Dep[*metrics.Collector](ctx)
	if err != nil {
		return nil, err
	}
	factory, err := graft.Dep[*daemon.Factory](ctx)
	if err != nil {
		return nil, err
	}
	filter, err := graft.Dep[*watcher.ContentFilter](ctx)
	if err != nil {
		return nil, err
	}

	return New(Deps{
		Loader:    loader,
		Logger:    log,
		Parser:    parser,
		Generator: generator,
		Compiler:  compiler,
		Files:     files,
		Outputs:   outputs,
		Records:   records,
		BuildInfo: info,
		Metrics:   collector,
		Daemon:    factory,
		Walker:    walker,
		Filter:    filter,
	}), nil
}
