package orchestrator

import (
	"context"
	"slices"

	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports"
	"go.trai.ch/strata/internal/engine/layergraph"
	"go.trai.ch/strata/internal/engine/typecache"
	"go.trai.ch/zerr"
)

// registryResolver resolves types from the shared registry. Definitions whose file
// vanished are dropped. Definitions whose last parse failed are returned with an error.
type registryResolver struct {
	registry *typecache.Registry
	graph    *layergraph.Graph
	files    ports.FileSystem
	failed   map[string]struct{}
}

func (r *registryResolver) ResolveType(
	_ context.Context,
	typeName string,
	low, high int,
) (*domain.TypeDeclaration, error) {
	type candidate struct {
		def   typecache.Definition
		layer *domain.Layer
	}
	var found []candidate
	for _, d := range r.registry.Definitions(typeName) {
		l := r.graph.Layer(d.Layer)
		if l == nil || l.Position < low || l.Position > high {
			continue
		}
		found = append(found, candidate{def: d, layer: l})
	}
	slices.SortFunc(found, func(a, b candidate) int { return b.layer.Position - a.layer.Position })

	for _, c := range found {
		_, ok, err := r.files.Stat(c.def.Entry.Path)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrPathStatFailed.Error()), "path", c.def.Entry.Path)
		}
		if !ok {
			r.registry.Unregister(typeName, c.def.Layer)
			continue
		}
		decl := &domain.TypeDeclaration{
			TypeName:    typeName,
			Layer:       c.layer.ID,
			Position:    c.layer.Position,
			Source:      c.def.Entry.Path,
			Transformed: c.def.Entry.Processor.NeedsCompile && !c.layer.IsDynamic(),
			Dynamic:     c.layer.IsDynamic(),
		}
		if _, bad := r.failed[c.def.Entry.Path]; bad {
			return decl, zerr.With(domain.ErrParseFailed, "type", typeName)
		}
		return decl, nil
	}
	return nil, nil
}

// Defining returns the most specific registered definition of typeName at or below position.
func (r *registryResolver) Defining(typeName string, position int) (string, string, bool) {
	var best *domain.Layer
	var rel string
	for _, d := range r.registry.Definitions(typeName) {
		l := r.graph.Layer(d.Layer)
		if l == nil || l.Position > position {
			continue
		}
		if best == nil || l.Position > best.Position {
			best, rel = l, d.Entry.RelPath
		}
	}
	if best == nil {
		return "", "", false
	}
	return best.Name.String(), rel, true
}
