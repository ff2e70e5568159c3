package orchestrator

import (
	"context"
	"errors"
	"slices"

	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports"
	"go.trai.ch/strata/internal/engine/layergraph"
	"go.trai.ch/strata/internal/engine/typecache"
	"go.trai.ch/zerr"
)

// Coordinator drives every runtime of a workspace over one shared layer graph.
// A build layer is completed in every runtime that includes it before any runtime
// moves on to the next build layer.
type Coordinator struct {
	shared  Shared
	systems []*System
	tracer  ports.Tracer
	initErr error
}

// NewCoordinator creates one System per configured runtime.
func NewCoordinator(ws *domain.Workspace, source ports.LayerSource, c Collaborators) *Coordinator {
	shared := Shared{
		Workspace: ws,
		Graph:     layergraph.New(source, ws.BuildDir),
		Registry:  typecache.NewRegistry(),
		Lock:      NewDynLock(),
	}
	co := &Coordinator{shared: shared, tracer: c.Tracer}
	for _, rt := range ws.Runtimes {
		co.systems = append(co.systems, NewSystem(rt, shared, c))
	}

	shared.Graph.OnRemove(func(removed *domain.Layer) {
		types := shared.Registry.RemoveLayer(removed.ID)
		for _, s := range co.systems {
			s.LayerRemoved(removed, types)
		}
	})
	shared.Graph.OnInsert(func(_ *domain.Layer, pos int) {
		for _, s := range co.systems {
			s.LayerInserted(pos)
		}
	})
	return co
}

// Init resolves the layers of every runtime.
func (c *Coordinator) Init() error {
	c.shared.Lock.Lock()
	defer c.shared.Lock.Unlock()

	var errs []error
	for _, s := range c.systems {
		if err := s.Init(); err != nil {
			errs = append(errs, err)
		}
	}
	c.initErr = errors.Join(errs...)
	return c.initErr
}

// InitErr returns the layer resolution errors of the last Init. Layers that resolved
// stay buildable.
func (c *Coordinator) InitErr() error {
	c.shared.Lock.RLock()
	defer c.shared.Lock.RUnlock()
	return c.initErr
}

// HasTargets reports whether any runtime resolved at least one target layer.
func (c *Coordinator) HasTargets() bool {
	c.shared.Lock.RLock()
	defer c.shared.Lock.RUnlock()
	for _, s := range c.systems {
		if len(s.targets) > 0 {
			return true
		}
	}
	return false
}

// Graph returns the shared layer graph.
func (c *Coordinator) Graph() *layergraph.Graph { return c.shared.Graph }

// Systems returns the runtime orchestrators in configuration order.
func (c *Coordinator) Systems() []*System { return slices.Clone(c.systems) }

// System returns the orchestrator of a runtime.
func (c *Coordinator) System(runtime string) (*System, error) {
	for _, s := range c.systems {
		if s.Name() == runtime {
			return s, nil
		}
	}
	return nil, zerr.With(domain.ErrUnknownRuntime, "runtime", runtime)
}

func (c *Coordinator) selectSystems(runtimes []string) ([]*System, error) {
	if len(runtimes) == 0 {
		return c.systems, nil
	}
	out := make([]*System, 0, len(runtimes))
	for _, name := range runtimes {
		s, err := c.System(name)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Build builds the target layers of the selected runtimes, or of every runtime when
// runtimes is empty. The write lock is released between build layers so introspection
// can observe progress.
func (c *Coordinator) Build(ctx context.Context, runtimes []string, opts BuildOptions) error {
	c.shared.Lock.Lock()
	systems, order, err := c.plan(ctx, runtimes)
	c.shared.Lock.Unlock()
	if err != nil {
		return err
	}

	for _, s := range systems {
		s.building.Store(true)
	}
	defer func() {
		for _, s := range systems {
			s.building.Store(false)
		}
	}()

	for _, layer := range order {
		if err := c.buildLayer(ctx, systems, layer, opts); err != nil {
			return err
		}
	}
	return nil
}

func (c *Coordinator) plan(ctx context.Context, runtimes []string) ([]*System, []*domain.Layer, error) {
	systems, err := c.selectSystems(runtimes)
	if err != nil {
		return nil, nil, err
	}

	var targets []domain.LayerID
	var targetNames []string
	for _, s := range systems {
		s.errors.Reset()
		for _, t := range s.targets {
			if !slices.Contains(targets, t.ID) {
				targets = append(targets, t.ID)
				targetNames = append(targetNames, t.Name.String())
			}
		}
	}
	if len(targets) == 0 {
		return nil, nil, domain.ErrNoTargetsSpecified
	}

	order := c.shared.Graph.BuildOrder(targets)
	c.emitPlan(ctx, systems, order, targetNames)
	return systems, order, nil
}

// buildLayer completes layer in every selected runtime that includes it.
func (c *Coordinator) buildLayer(ctx context.Context, systems []*System, layer *domain.Layer, opts BuildOptions) error {
	c.shared.Lock.Lock()
	defer c.shared.Lock.Unlock()

	var errs []error
	for _, s := range systems {
		if !s.Includes(layer) {
			continue
		}
		if err := s.BuildLayer(ctx, layer, opts); err != nil {
			errs = append(errs, zerr.With(zerr.Wrap(err, "runtime build failed"), "runtime", s.Name()))
		}
	}
	if len(errs) > 0 {
		return errors.Join(domain.ErrBuildExecutionFailed, errors.Join(errs...))
	}
	return nil
}

func (c *Coordinator) emitPlan(ctx context.Context, systems []*System, order []*domain.Layer, targets []string) {
	var steps []string
	deps := make(map[string][]string)
	for _, s := range systems {
		prev := ""
		for _, layer := range order {
			if !s.Includes(layer) {
				continue
			}
			for _, phase := range domain.Phases() {
				step := s.stepName(layer, phase)
				steps = append(steps, step)
				if prev != "" {
					deps[step] = []string{prev}
				}
				prev = step
			}
		}
	}
	c.tracer.EmitPlan(ctx, steps, deps, targets)
}

// RemoveLayer unloads a layer from every runtime.
func (c *Coordinator) RemoveLayer(name string) error {
	c.shared.Lock.Lock()
	defer c.shared.Lock.Unlock()

	_, err := c.shared.Graph.Remove(name)
	return err
}

// Snapshot implements ports.StatusProvider.
func (c *Coordinator) Snapshot() domain.StatusSnapshot {
	c.shared.Lock.RLock()
	defer c.shared.Lock.RUnlock()

	snap := domain.StatusSnapshot{Root: c.shared.Workspace.Root}
	for _, s := range c.systems {
		snap.Runtimes = append(snap.Runtimes, s.Status())
	}
	return snap
}

// LookupType implements ports.StatusProvider.
// A negative fromPosition searches from the most specific layer.
func (c *Coordinator) LookupType(
	ctx context.Context,
	runtime, typeName string,
	fromPosition int,
) (domain.TypeLookup, error) {
	c.shared.Lock.RLock()
	defer c.shared.Lock.RUnlock()

	s, err := c.System(runtime)
	if err != nil {
		return domain.TypeLookup{}, err
	}
	if fromPosition < 0 {
		fromPosition = c.shared.Graph.Len() - 1
	}
	return s.cache.Lookup(ctx, typeName, fromPosition), nil
}

// Errors returns the error messages of every runtime, deduplicated.
func (c *Coordinator) Errors() []string {
	var out []string
	for _, s := range c.systems {
		for _, e := range s.errors.Entries() {
			if !slices.Contains(out, e) {
				out = append(out, e)
			}
		}
	}
	return out
}
