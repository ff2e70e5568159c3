// Package layergraph keeps the ordered stack of layers and their extends relation.
package layergraph

import (
	"errors"
	"iter"
	"path/filepath"
	"slices"
	"strings"

	"fortio.org/safecast"
	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports"
	"go.trai.ch/zerr"
)

// RemoveListener is called after a layer is deregistered.
type RemoveListener func(removed *domain.Layer)

// InsertListener is called after a layer is placed at position pos.
// Layers previously at pos and above moved up by one.
type InsertListener func(inserted *domain.Layer, pos int)

// Graph is the ordered list of resolved layers.
// Layers live in an arena indexed by domain.LayerID; edges are IDs, never pointers.
type Graph struct {
	source   ports.LayerSource
	buildDir string

	layers []*domain.Layer
	order  []domain.LayerID
	byName map[string]domain.LayerID

	listeners []RemoveListener
	inserts   []InsertListener
}

// New creates an empty graph that reads definitions from source.
// Build output paths are derived below buildDir.
func New(source ports.LayerSource, buildDir string) *Graph {
	return &Graph{
		source:   source,
		buildDir: buildDir,
		byName:   make(map[string]domain.LayerID),
	}
}

// OnRemove registers a listener for layer removal.
func (g *Graph) OnRemove(fn RemoveListener) {
	g.listeners = append(g.listeners, fn)
}

// OnInsert registers a listener for layer insertion.
func (g *Graph) OnInsert(fn InsertListener) {
	g.inserts = append(g.inserts, fn)
}

// Resolve resolves names and their extends chains, registering every new layer.
// A name that fails does not stop the others: the layers that resolved are returned
// together with the joined errors.
func (g *Graph) Resolve(names []string) ([]*domain.Layer, error) {
	var (
		errs []error
		out  []*domain.Layer
	)
	for _, name := range names {
		l, err := g.resolve(name, nil)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !slices.Contains(out, l) {
			out = append(out, l)
		}
	}
	return out, errors.Join(errs...)
}

func (g *Graph) resolve(name string, path []string) (*domain.Layer, error) {
	if id, ok := g.byName[name]; ok {
		return g.layers[id], nil
	}
	if i := slices.Index(path, name); i >= 0 {
		cycle := strings.Join(append(slices.Clone(path[i:]), name), " -> ")
		return nil, zerr.With(domain.ErrLayerCycle, "cycle", cycle)
	}
	if err := domain.ValidateLayerName(name); err != nil {
		return nil, err
	}

	def, err := g.definition(name)
	if err != nil {
		if len(path) > 0 {
			err = zerr.With(err, "required_by", path[len(path)-1])
		}
		return nil, err
	}

	path = append(path, name)
	extends := make([]domain.LayerID, 0, len(def.Extends))
	dynamic := def.Dynamic
	for _, ext := range def.Extends {
		base, err := g.resolve(ext, path)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(extends, base.ID) {
			extends = append(extends, base.ID)
		}
		if base.IsDynamic() {
			dynamic = true
		}
	}

	return g.insert(def, extends, dynamic)
}

func (g *Graph) definition(name string) (domain.LayerDefinition, error) {
	defs, err := g.source.FindLayer(name)
	if err != nil {
		return domain.LayerDefinition{}, zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "layer", name)
	}
	switch len(defs) {
	case 0:
		return domain.LayerDefinition{}, zerr.With(domain.ErrLayerNotFound, "layer", name)
	case 1:
		return defs[0], nil
	default:
		paths := make([]string, len(defs))
		for i, d := range defs {
			paths[i] = d.Path
		}
		err := zerr.With(domain.ErrDuplicateLayerDefinition, "layer", name)
		return domain.LayerDefinition{}, zerr.With(err, "definitions", strings.Join(paths, ", "))
	}
}

// insert places a new layer. Dynamic layers go last. Compiled layers go just before the
// first dynamic layer, which shifts every dynamic layer up by one.
func (g *Graph) insert(def domain.LayerDefinition, extends []domain.LayerID, dynamic bool) (*domain.Layer, error) {
	id, err := safecast.Conv[domain.LayerID](len(g.layers))
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "layer arena is full"), "layer", def.Name)
	}

	buildDir := filepath.Join(g.buildDir, domain.SanitizeLayerName(def.Name))
	l := &domain.Layer{
		ID:             id,
		Name:           domain.NewInternedString(def.Name),
		Extends:        extends,
		Package:        def.Package,
		Dir:            def.Dir,
		SourceDir:      def.SourceDir,
		DefinitionPath: def.Path,
		BuildDir:       buildDir,
	}
	if dynamic {
		l.Flags |= domain.FlagDynamic
	}
	if def.BuildSeparate {
		l.Flags |= domain.FlagBuildSeparate
	}
	if def.BuildLayer {
		l.Flags |= domain.FlagBuildLayer
	}
	g.layers = append(g.layers, l)
	g.byName[def.Name] = id

	at := len(g.order)
	if !dynamic {
		for i, other := range g.order {
			if g.layers[other].IsDynamic() {
				at = i
				break
			}
		}
	}
	g.order = slices.Insert(g.order, at, id)
	g.renumber(at)

	for _, fn := range g.inserts {
		fn(l, at)
	}
	return l, nil
}

// renumber rewrites positions from index from onwards.
func (g *Graph) renumber(from int) {
	for i := from; i < len(g.order); i++ {
		g.layers[g.order[i]].Position = i
	}
}

// Remove deregisters a layer. Removing a layer that another layer extends is refused.
func (g *Graph) Remove(name string) (*domain.Layer, error) {
	id, ok := g.byName[name]
	if !ok {
		return nil, zerr.With(domain.ErrLayerNotFound, "layer", name)
	}
	for _, other := range g.order {
		if slices.Contains(g.layers[other].Extends, id) {
			err := zerr.With(domain.ErrLayerInUse, "layer", name)
			return nil, zerr.With(err, "extended_by", g.layers[other].Name.String())
		}
	}

	removed := g.layers[id]
	at := removed.Position
	g.order = slices.Delete(g.order, at, at+1)
	g.layers[id] = nil
	delete(g.byName, name)
	g.renumber(at)

	for _, fn := range g.listeners {
		fn(removed)
	}
	return removed, nil
}

// Layer returns the layer for id, or nil when it was removed.
func (g *Graph) Layer(id domain.LayerID) *domain.Layer {
	if int(id) >= len(g.layers) {
		return nil
	}
	return g.layers[id]
}

// ByName returns a registered layer.
func (g *Graph) ByName(name string) (*domain.Layer, bool) {
	id, ok := g.byName[name]
	if !ok {
		return nil, false
	}
	return g.layers[id], true
}

// At returns the layer at position pos.
func (g *Graph) At(pos int) *domain.Layer {
	if pos < 0 || pos >= len(g.order) {
		return nil
	}
	return g.layers[g.order[pos]]
}

// Len returns the number of registered layers.
func (g *Graph) Len() int { return len(g.order) }

// Layers yields registered layers in position order.
func (g *Graph) Layers() iter.Seq[*domain.Layer] {
	return func(yield func(*domain.Layer) bool) {
		for _, id := range g.order {
			if !yield(g.layers[id]) {
				return
			}
		}
	}
}

// Before reports whether a comes before b, that is whether b's definitions win over a's.
func (g *Graph) Before(a, b domain.LayerID) bool {
	return g.layers[a].Position < g.layers[b].Position
}

// Ancestors returns every layer id transitively extends, in position order.
func (g *Graph) Ancestors(id domain.LayerID) []*domain.Layer {
	seen := make(map[domain.LayerID]struct{})
	var walk func(domain.LayerID)
	walk = func(cur domain.LayerID) {
		for _, ext := range g.layers[cur].Extends {
			if _, ok := seen[ext]; ok {
				continue
			}
			seen[ext] = struct{}{}
			walk(ext)
		}
	}
	walk(id)
	return g.sorted(seen)
}

// BuildUnit returns the layers built together into target's output, most specific first.
// It holds target and every ancestor reached without crossing a separately built layer.
func (g *Graph) BuildUnit(target domain.LayerID) []*domain.Layer {
	seen := map[domain.LayerID]struct{}{target: {}}
	var walk func(domain.LayerID)
	walk = func(cur domain.LayerID) {
		for _, ext := range g.layers[cur].Extends {
			if _, ok := seen[ext]; ok {
				continue
			}
			if g.layers[ext].Flags.Has(domain.FlagBuildSeparate) {
				continue
			}
			seen[ext] = struct{}{}
			walk(ext)
		}
	}
	walk(target)
	unit := g.sorted(seen)
	slices.Reverse(unit)
	return unit
}

// BuildOrder returns the build layers needed for targets, in position order.
// Targets count as build layers, as does every separately built ancestor.
func (g *Graph) BuildOrder(targets []domain.LayerID) []*domain.Layer {
	seen := make(map[domain.LayerID]struct{})
	for _, t := range targets {
		seen[t] = struct{}{}
		for _, a := range g.Ancestors(t) {
			if a.IsBuildLayer() {
				seen[a.ID] = struct{}{}
			}
		}
	}
	return g.sorted(seen)
}

// MarkBuildLayer flags id as owning build output.
func (g *Graph) MarkBuildLayer(id domain.LayerID) {
	g.layers[id].Flags |= domain.FlagBuildLayer
}

// MarkCompiled flags id and every layer it extends as compiled.
func (g *Graph) MarkCompiled(id domain.LayerID) {
	g.layers[id].Flags |= domain.FlagCompiled
	for _, a := range g.Ancestors(id) {
		a.Flags |= domain.FlagCompiled
	}
}

func (g *Graph) sorted(ids map[domain.LayerID]struct{}) []*domain.Layer {
	out := make([]*domain.Layer, 0, len(ids))
	for id := range ids {
		out = append(out, g.layers[id])
	}
	slices.SortFunc(out, func(a, b *domain.Layer) int { return a.Position - b.Position })
	return out
}
