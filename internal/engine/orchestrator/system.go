// Package orchestrator drives layers through the build phases for one or more runtimes.
package orchestrator

import (
	"context"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync/atomic"

	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports"
	"go.trai.ch/strata/internal/engine/layergraph"
	"go.trai.ch/strata/internal/engine/scanner"
	"go.trai.ch/strata/internal/engine/typecache"
	"go.trai.ch/zerr"
)

// Collaborators bundles the ports a System drives.
type Collaborators struct {
	Parser     ports.Parser
	Generator  ports.Generator
	Compiler   ports.Compiler
	Classifier ports.FileClassifier
	Files      ports.FileSystem
	Outputs    ports.OutputFS
	Records    ports.DependencyStore
	Explainer  ports.RecordExplainer
	BuildInfo  ports.BuildInfoStore
	Logger     ports.Logger
	Tracer     ports.Tracer
	Metrics    ports.Metrics
}

// Shared is the state every runtime of a workspace shares.
type Shared struct {
	Workspace *domain.Workspace
	Graph     *layergraph.Graph
	Registry  *typecache.Registry
	Lock      *DynLock
}

type stateKey struct {
	layer domain.LayerID
	phase domain.BuildPhase
}

// System is the orchestrator of one runtime. It is driven from one goroutine at a time
// under the shared write lock.
type System struct {
	runtime domain.Runtime
	shared  Shared
	c       Collaborators

	cache    *typecache.Cache
	resolver *registryResolver
	scanner  *scanner.Scanner
	failed   map[string]struct{}

	targets []*domain.Layer
	states  map[stateKey]*domain.BuildState
	// known holds the type definitions this runtime last saw in each layer, by type name.
	known      map[domain.LayerID]map[string]string
	compiled   map[domain.LayerID]struct{}
	builtEpoch map[domain.LayerID]uint64
	classpath  []string
	errors     *domain.ErrorLog
	building   atomic.Bool
}

// NewSystem creates the orchestrator of runtime.
func NewSystem(runtime domain.Runtime, shared Shared, c Collaborators) *System {
	if c.Metrics == nil {
		c.Metrics = noopMetrics{}
	}
	s := &System{
		runtime:    runtime,
		shared:     shared,
		c:          c,
		failed:     make(map[string]struct{}),
		states:     make(map[stateKey]*domain.BuildState),
		known:      make(map[domain.LayerID]map[string]string),
		compiled:   make(map[domain.LayerID]struct{}),
		builtEpoch: make(map[domain.LayerID]uint64),
		errors:     domain.NewErrorLog(shared.Workspace.MaxErrors),
	}
	s.resolver = &registryResolver{
		registry: shared.Registry,
		graph:    shared.Graph,
		files:    c.Files,
		failed:   s.failed,
	}
	s.cache = typecache.New(s.resolver)
	s.scanner = scanner.New(c.Files, c.Records, c.Classifier, shared.Graph, c.Logger)
	return s
}

// Name returns the runtime name.
func (s *System) Name() string { return s.runtime.Name }

// Cache returns the runtime's type declaration cache.
func (s *System) Cache() *typecache.Cache { return s.cache }

// Errors returns the runtime's error log.
func (s *System) Errors() *domain.ErrorLog { return s.errors }

// Classpath returns the compiled class directories in the order they were added.
func (s *System) Classpath() []string { return slices.Clone(s.classpath) }

// State returns the build state of a layer's phase, or nil before its first pass.
func (s *System) State(layer domain.LayerID, phase domain.BuildPhase) *domain.BuildState {
	return s.states[stateKey{layer: layer, phase: phase}]
}

// Compiled reports whether the layer compiled in this runtime.
func (s *System) Compiled(layer domain.LayerID) bool {
	_, ok := s.compiled[layer]
	return ok
}

// Init resolves the runtime's target layers.
// Layers that fail to resolve are reported; the ones that resolved are kept.
func (s *System) Init() error {
	layers, err := s.shared.Graph.Resolve(s.runtime.Layers)
	for _, l := range layers {
		s.shared.Graph.MarkBuildLayer(l.ID)
	}
	s.targets = layers
	if err != nil {
		return zerr.With(err, "runtime", s.runtime.Name)
	}
	return nil
}

// Targets returns the resolved target layers.
func (s *System) Targets() []*domain.Layer { return slices.Clone(s.targets) }

// Includes reports whether layer belongs to this runtime's stack.
func (s *System) Includes(layer *domain.Layer) bool {
	for _, t := range s.targets {
		if t.ID == layer.ID {
			return true
		}
		for _, a := range s.shared.Graph.Ancestors(t.ID) {
			if a.ID == layer.ID {
				return true
			}
		}
	}
	return false
}

// startLayers makes sure every layer up to and including target exposes its current type
// names, then validates them, before anything is generated.
func (s *System) startLayers(ctx context.Context, target *domain.Layer) error {
	layers := append(s.shared.Graph.Ancestors(target.ID), target)
	for _, l := range layers {
		if err := s.syncLayer(l); err != nil {
			return err
		}
	}
	for _, l := range layers {
		s.validateLayer(ctx, l)
	}
	return nil
}

// syncLayer registers the type names a layer defines on disk and drops the ones whose
// file is gone. Every type whose definition appeared, moved or vanished since this runtime
// last looked is invalidated, so lookups and dependents see the change.
func (s *System) syncLayer(layer *domain.Layer) error {
	found := make(map[string]domain.SourceEntry)
	queue := []string{""}
	for len(queue) > 0 {
		rel := queue[0]
		queue = queue[1:]

		dir := filepath.Join(layer.SourceDir, filepath.FromSlash(rel))
		listing, err := s.c.Files.ListDir(dir)
		if err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrDirectoryListFailed.Error()), "dir", dir)
		}
		for _, fi := range listing {
			if strings.HasPrefix(fi.Name, ".") {
				continue
			}
			child := path.Join(rel, fi.Name)
			if fi.IsDir {
				if filepath.Join(dir, fi.Name) != layer.BuildDir {
					queue = append(queue, child)
				}
				continue
			}
			if entry, ok := s.typeEntry(layer, child); ok && entry.TypeName != "" {
				found[entry.TypeName] = entry
			}
		}
	}

	known := s.known[layer.ID]
	next := make(map[string]string, len(found))
	for name, entry := range found {
		s.shared.Registry.Register(name, entry)
		next[name] = entry.Path
		if known[name] != entry.Path {
			s.cache.Invalidate(name)
		}
	}
	for name := range known {
		if _, ok := found[name]; ok {
			continue
		}
		s.shared.Registry.Unregister(name, layer.ID)
		s.cache.Invalidate(name)
	}
	s.known[layer.ID] = next
	return nil
}

// typeEntry returns the source entry of rel when some phase treats it as defining a type.
func (s *System) typeEntry(layer *domain.Layer, rel string) (domain.SourceEntry, bool) {
	for _, phase := range domain.Phases() {
		proc, ok := s.c.Classifier.Classify(rel, layer, phase)
		if !ok || !proc.ProducesTypes {
			continue
		}
		return domain.NewSourceEntry(layer, rel, proc), true
	}
	return domain.SourceEntry{}, false
}

// validateLayer resolves every type of layer through the cache.
func (s *System) validateLayer(ctx context.Context, layer *domain.Layer) {
	for _, name := range s.shared.Registry.Types(layer.ID) {
		if res := s.cache.Lookup(ctx, name, layer.Position); res.Status == domain.LookupInvalid {
			s.c.Logger.Debug("type " + name + " of layer " + layer.Name.String() + " is invalid")
		}
	}
}

// LayerRemoved updates the runtime's caches after a layer was deregistered.
func (s *System) LayerRemoved(removed *domain.Layer, types []string) {
	s.cache.LayerRemoved(removed.Position, types)
	delete(s.known, removed.ID)
	delete(s.compiled, removed.ID)
	delete(s.builtEpoch, removed.ID)
	for _, phase := range domain.Phases() {
		delete(s.states, stateKey{layer: removed.ID, phase: phase})
	}
	s.classpath = slices.DeleteFunc(s.classpath, func(p string) bool { return p == removed.ClassesDir(s.runtime.Name) })
	s.targets = slices.DeleteFunc(s.targets, func(l *domain.Layer) bool { return l.ID == removed.ID })
}

// LayerInserted updates the runtime's caches after a layer was placed at pos.
func (s *System) LayerInserted(pos int) {
	s.cache.LayerInserted(pos)
}

// Status returns the introspection view of the runtime.
func (s *System) Status() domain.RuntimeStatus {
	st := domain.RuntimeStatus{
		Name:      s.runtime.Name,
		Building:  s.building.Load(),
		Errors:    s.errors.Entries(),
		Classpath: s.Classpath(),
	}
	for l := range s.shared.Graph.Layers() {
		if !s.Includes(l) {
			continue
		}
		ls := domain.LayerStatus{
			Name:     l.Name.String(),
			Position: l.Position,
			Flags:    l.Flags.String(),
			Phases:   make(map[string]string),
		}
		for _, phase := range domain.Phases() {
			if state := s.State(l.ID, phase); state != nil {
				ls.Phases[phase.String()] = state.Status.String()
			}
		}
		st.Layers = append(st.Layers, ls)
	}
	return st
}
