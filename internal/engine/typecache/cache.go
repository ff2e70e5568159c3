// Package typecache indexes type names to their most specific loaded definition.
//
// Every entry remembers the interval of layer positions already searched for its
// type. Lookups inside the interval are answered from the cache; lookups outside it
// search only the missing positions and insert what they find in descending
// position order. An entry with no candidates records that the type is absent
// from its interval. A definition that failed to load is kept as a broken position:
// lookups whose most specific definition it is are invalid, lookups below it are not.
package typecache

import (
	"context"
	"slices"
	"sync"

	"go.trai.ch/strata/internal/core/domain"
)

// Resolver finds type definitions through the external parse path.
type Resolver interface {
	// ResolveType returns the definition of typeName with the highest position in
	// [low, high], or nil when no layer in that range defines it.
	// An error together with a declaration means that definition exists but failed
	// to load. An error alone means the range could not be searched.
	ResolveType(ctx context.Context, typeName string, low, high int) (*domain.TypeDeclaration, error)
}

type entry struct {
	// candidates are sorted by descending position.
	candidates []domain.DeclID
	bottom     int
	top        int
	searched   bool
	// broken holds positions of definitions that failed to load.
	broken []int
}

type link struct {
	id   domain.DeclID
	from int
}

// Stats counts how lookups were answered.
type Stats struct {
	Hits     int
	Misses   int
	Resolves int
	Relinked int
}

// Cache is the type declaration cache of one runtime.
type Cache struct {
	mu       sync.Mutex
	resolver Resolver
	decls    Arena[domain.TypeDeclaration]
	entries  map[string]*entry

	// links[referrer][target] is the declaration referrer was linked to.
	links     map[string]map[string]link
	referrers map[string]map[string]struct{}

	epoch   uint64
	reloads map[string]uint64
	stats   Stats
}

// New creates an empty cache resolving misses through resolver.
func New(resolver Resolver) *Cache {
	return &Cache{
		resolver:  resolver,
		entries:   make(map[string]*entry),
		links:     make(map[string]map[string]link),
		referrers: make(map[string]map[string]struct{}),
		reloads:   make(map[string]uint64),
	}
}

// Lookup returns the most specific definition of typeName at or below fromPosition.
func (c *Cache) Lookup(ctx context.Context, typeName string, fromPosition int) domain.TypeLookup {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lookup(ctx, typeName, fromPosition)
}

func (c *Cache) lookup(ctx context.Context, typeName string, from int) domain.TypeLookup {
	e, ok := c.entries[typeName]
	if !ok {
		e = &entry{}
		c.entries[typeName] = e
	}
	if e.searched && from >= e.bottom && from <= e.top {
		c.stats.Hits++
	} else {
		c.stats.Misses++
		if err := c.extend(ctx, typeName, e, from); err != nil {
			return domain.Invalid()
		}
	}
	return c.answer(e, from)
}

// answer picks the most specific known definition at or below from.
func (c *Cache) answer(e *entry, from int) domain.TypeLookup {
	res, best := domain.NotFound(), -1
	for _, id := range e.candidates {
		decl, ok := c.decls.Get(id)
		if ok && decl.Position <= from {
			res, best = domain.Found(id, decl), decl.Position
			break
		}
	}
	for _, p := range e.broken {
		if p <= from && p > best {
			return domain.Invalid()
		}
	}
	return res
}

// extend grows the searched interval of e so that it covers from.
func (c *Cache) extend(ctx context.Context, typeName string, e *entry, from int) error {
	switch {
	case !e.searched:
		bottom, err := c.searchDown(ctx, typeName, e, from)
		if err != nil {
			return err
		}
		e.bottom, e.top, e.searched = bottom, from, true
	case from > e.top:
		if err := c.fill(ctx, typeName, e, e.top+1, from); err != nil {
			return err
		}
		e.top = from
	case from < e.bottom:
		if err := c.fill(ctx, typeName, e, from+1, e.bottom-1); err != nil {
			return err
		}
		bottom, err := c.searchDown(ctx, typeName, e, from)
		if err != nil {
			return err
		}
		e.bottom = bottom
	}
	return nil
}

// searchDown resolves the first definition at or below from and returns the
// lowest position now known to be searched.
func (c *Cache) searchDown(ctx context.Context, typeName string, e *entry, from int) (int, error) {
	decl, err := c.resolve(ctx, typeName, 0, from)
	if err != nil {
		if decl == nil {
			return 0, err
		}
		c.markBroken(e, decl.Position)
		return decl.Position, nil
	}
	if decl == nil {
		return 0, nil
	}
	if err := c.insert(e, *decl); err != nil {
		return 0, err
	}
	return decl.Position, nil
}

// fill resolves every definition in [low, high].
func (c *Cache) fill(ctx context.Context, typeName string, e *entry, low, high int) error {
	for high >= low {
		decl, err := c.resolve(ctx, typeName, low, high)
		switch {
		case err != nil && decl == nil:
			return err
		case err != nil:
			c.markBroken(e, decl.Position)
		case decl == nil:
			return nil
		default:
			if err := c.insert(e, *decl); err != nil {
				return err
			}
		}
		high = decl.Position - 1
	}
	return nil
}

func (c *Cache) resolve(ctx context.Context, typeName string, low, high int) (*domain.TypeDeclaration, error) {
	c.stats.Resolves++
	return c.resolver.ResolveType(ctx, typeName, low, high)
}

// insert adds decl at its rank. Candidates stay sorted by descending position.
func (c *Cache) insert(e *entry, decl domain.TypeDeclaration) error {
	at := len(e.candidates)
	for i, id := range e.candidates {
		cur, ok := c.decls.Get(id)
		if !ok {
			continue
		}
		if cur.Position == decl.Position {
			return nil
		}
		if cur.Position < decl.Position {
			at = i
			break
		}
	}
	id, err := c.decls.Alloc(decl)
	if err != nil {
		return err
	}
	e.candidates = slices.Insert(e.candidates, at, id)
	return nil
}

func (c *Cache) markBroken(e *entry, pos int) {
	if !slices.Contains(e.broken, pos) {
		e.broken = append(e.broken, pos)
	}
}

// Get returns the declaration behind a handle.
func (c *Cache) Get(id domain.DeclID) (domain.TypeDeclaration, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.decls.Get(id)
}

// Candidates returns the cached candidates of typeName, most specific first.
func (c *Cache) Candidates(typeName string) []domain.TypeDeclaration {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[typeName]
	if !ok {
		return nil
	}
	out := make([]domain.TypeDeclaration, 0, len(e.candidates))
	for _, id := range e.candidates {
		if d, ok := c.decls.Get(id); ok {
			out = append(out, d)
		}
	}
	return out
}

// Searched returns the searched interval of typeName.
func (c *Cache) Searched(typeName string) (bottom, top int, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, found := c.entries[typeName]
	if !found || !e.searched {
		return 0, 0, false
	}
	return e.bottom, e.top, true
}

// Invalidate drops every candidate of typeName and marks it reloaded.
// Call it when a layer defining the type is removed or when its source changes.
func (c *Cache) Invalidate(typeName string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidate(typeName)
}

func (c *Cache) invalidate(typeName string) {
	c.epoch++
	c.reloads[typeName] = c.epoch
	e, ok := c.entries[typeName]
	if !ok {
		return
	}
	for _, id := range e.candidates {
		c.decls.Dispose(id)
	}
	delete(c.entries, typeName)
}

// Epoch returns the current reload epoch.
func (c *Cache) Epoch() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch
}

// ReloadedSince reports whether typeName was invalidated after epoch.
func (c *Cache) ReloadedSince(typeName string, epoch uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reloads[typeName] > epoch
}

// AddReference records that referrer was linked to target's declaration id,
// found by a lookup from position from. Flush uses it to re-link referrers.
func (c *Cache) AddReference(referrer, target string, id domain.DeclID, from int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.links[referrer] == nil {
		c.links[referrer] = make(map[string]link)
	}
	c.links[referrer][target] = link{id: id, from: from}
	if c.referrers[target] == nil {
		c.referrers[target] = make(map[string]struct{})
	}
	c.referrers[target][referrer] = struct{}{}
}

// Link returns the declaration referrer is linked to for target.
func (c *Cache) Link(referrer, target string) (domain.DeclID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	l, ok := c.links[referrer][target]
	return l.id, ok
}

// Flush discards entries produced by code generation transforms and keeps the
// others. Direct referrers of a discarded entry are then re-linked to a fresh
// resolution. It returns the names discarded.
func (c *Cache) Flush(ctx context.Context) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var discarded []string
	for name, e := range c.entries {
		if c.transformed(e) {
			discarded = append(discarded, name)
		}
	}
	slices.Sort(discarded)

	gone := make(map[string]struct{}, len(discarded))
	for _, name := range discarded {
		gone[name] = struct{}{}
		e := c.entries[name]
		for _, id := range e.candidates {
			c.decls.Dispose(id)
		}
		delete(c.entries, name)
	}

	// One pass over direct referrers. Links held by discarded referrers are dropped.
	for _, name := range discarded {
		for referrer := range c.referrers[name] {
			if _, dead := gone[referrer]; dead {
				continue
			}
			old := c.links[referrer][name]
			res := c.lookup(ctx, name, old.from)
			if !res.IsFound() {
				delete(c.links[referrer], name)
				continue
			}
			c.links[referrer][name] = link{id: res.ID, from: old.from}
			c.stats.Relinked++
		}
	}
	for _, name := range discarded {
		delete(c.links, name)
	}
	return discarded
}

func (c *Cache) transformed(e *entry) bool {
	for _, id := range e.candidates {
		if d, ok := c.decls.Get(id); ok && d.Transformed {
			return true
		}
	}
	return false
}

// LayerInserted shifts cached positions after a layer was inserted at pos.
// Types the new layer defines must be invalidated separately once they are known.
func (c *Cache) LayerInserted(pos int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	up := func(p int) int {
		if p >= pos {
			return p + 1
		}
		return p
	}
	for _, e := range c.entries {
		e.bottom, e.top = up(e.bottom), up(e.top)
	}
	c.shift(up)
}

// LayerRemoved invalidates the types a removed layer defined and closes the gap
// its position leaves.
func (c *Cache) LayerRemoved(pos int, definedTypes []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, name := range definedTypes {
		c.invalidate(name)
	}
	for _, e := range c.entries {
		if !e.searched {
			continue
		}
		if e.top >= pos {
			e.top--
		}
		if e.bottom > pos {
			e.bottom--
		}
		if e.top < e.bottom {
			e.searched = false
		}
	}
	c.shift(func(p int) int {
		if p > pos {
			return p - 1
		}
		if p == pos {
			return max(p-1, 0)
		}
		return p
	})
}

// shift remaps candidate and link positions.
func (c *Cache) shift(remap func(int) int) {
	for _, e := range c.entries {
		for _, id := range e.candidates {
			c.decls.Update(id, func(d *domain.TypeDeclaration) { d.Position = remap(d.Position) })
		}
		for i, p := range e.broken {
			e.broken[i] = remap(p)
		}
	}
	for _, targets := range c.links {
		for name, l := range targets {
			l.from = remap(l.from)
			targets[name] = l
		}
	}
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns lookup counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}
