package typecache

import (
	"slices"
	"sync"

	"go.trai.ch/strata/internal/core/domain"
)

// Definition records that a layer defines a type in a source file.
type Definition struct {
	Layer domain.LayerID
	Entry domain.SourceEntry
}

// Registry is the type-name to defining-layers index shared by every runtime.
type Registry struct {
	mu      sync.RWMutex
	defs    map[string][]Definition
	byLayer map[domain.LayerID][]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		defs:    make(map[string][]Definition),
		byLayer: make(map[domain.LayerID][]string),
	}
}

// Register records that entry's layer defines typeName. It reports whether the
// registration is new.
func (r *Registry) Register(typeName string, entry domain.SourceEntry) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, d := range r.defs[typeName] {
		if d.Layer == entry.Layer {
			r.defs[typeName][i].Entry = entry
			return false
		}
	}
	r.defs[typeName] = append(r.defs[typeName], Definition{Layer: entry.Layer, Entry: entry})
	r.byLayer[entry.Layer] = append(r.byLayer[entry.Layer], typeName)
	return true
}

// Unregister removes typeName from layer.
func (r *Registry) Unregister(typeName string, layer domain.LayerID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.defs[typeName] = slices.DeleteFunc(r.defs[typeName], func(d Definition) bool { return d.Layer == layer })
	if len(r.defs[typeName]) == 0 {
		delete(r.defs, typeName)
	}
	r.byLayer[layer] = slices.DeleteFunc(r.byLayer[layer], func(n string) bool { return n == typeName })
}

// RemoveLayer drops every definition of layer and returns the affected type names.
func (r *Registry) RemoveLayer(layer domain.LayerID) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := r.byLayer[layer]
	delete(r.byLayer, layer)
	for _, name := range names {
		r.defs[name] = slices.DeleteFunc(r.defs[name], func(d Definition) bool { return d.Layer == layer })
		if len(r.defs[name]) == 0 {
			delete(r.defs, name)
		}
	}
	return names
}

// Definitions returns every definition of typeName.
func (r *Registry) Definitions(typeName string) []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.defs[typeName])
}

// Types returns the type names layer defines.
func (r *Registry) Types(layer domain.LayerID) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.byLayer[layer])
}
