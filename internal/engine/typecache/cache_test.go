package typecache_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/engine/typecache"
)

type fakeResolver struct {
	defs map[string][]domain.TypeDeclaration
	// broken holds the positions whose definition fails to load, per type.
	broken       map[string]map[int]bool
	unsearchable map[string]bool
	calls        int
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{
		defs:         make(map[string][]domain.TypeDeclaration),
		broken:       make(map[string]map[int]bool),
		unsearchable: make(map[string]bool),
	}
}

func (f *fakeResolver) breakAt(name string, pos int) {
	if f.broken[name] == nil {
		f.broken[name] = make(map[int]bool)
	}
	f.broken[name][pos] = true
}

func (f *fakeResolver) define(name string, pos int, transformed bool) {
	f.defs[name] = append(f.defs[name], domain.TypeDeclaration{
		TypeName:    name,
		Layer:       domain.LayerID(pos),
		Position:    pos,
		Source:      "/src/" + name,
		Transformed: transformed,
	})
}

func (f *fakeResolver) ResolveType(_ context.Context, name string, low, high int) (*domain.TypeDeclaration, error) {
	f.calls++
	if f.unsearchable[name] {
		return nil, errors.New("permission denied")
	}
	var best *domain.TypeDeclaration
	for i := range f.defs[name] {
		d := f.defs[name][i]
		if d.Position < low || d.Position > high {
			continue
		}
		if best == nil || d.Position > best.Position {
			best = &d
		}
	}
	if best != nil && f.broken[name][best.Position] {
		return best, errors.New("syntax error")
	}
	return best, nil
}

func positions(decls []domain.TypeDeclaration) []int {
	out := make([]int, len(decls))
	for i, d := range decls {
		out[i] = d.Position
	}
	return out
}

func TestLookup_OverrideCorrectness(t *testing.T) {
	res := newFakeResolver()
	res.define("com.acme.Foo", 0, false) // base
	res.define("com.acme.Foo", 1, false) // app overrides
	c := typecache.New(res)
	ctx := context.Background()

	got := c.Lookup(ctx, "com.acme.Foo", 1)
	require.True(t, got.IsFound())
	assert.Equal(t, 1, got.Decl.Position)

	got = c.Lookup(ctx, "com.acme.Foo", 3)
	require.True(t, got.IsFound())
	assert.Equal(t, 1, got.Decl.Position, "lookups above the override still see it")

	got = c.Lookup(ctx, "com.acme.Foo", 0)
	require.True(t, got.IsFound())
	assert.Equal(t, 0, got.Decl.Position, "lookups below the override see the base definition")

	assert.Equal(t, []int{1, 0}, positions(c.Candidates("com.acme.Foo")))
}

func TestLookup_AnsweredFromCacheInsideSearchedRange(t *testing.T) {
	res := newFakeResolver()
	res.define("Foo", 2, false)
	c := typecache.New(res)
	ctx := context.Background()

	c.Lookup(ctx, "Foo", 4)
	calls := res.calls

	for _, from := range []int{2, 3, 4} {
		got := c.Lookup(ctx, "Foo", from)
		require.True(t, got.IsFound())
		assert.Equal(t, 2, got.Decl.Position)
	}
	assert.Equal(t, calls, res.calls, "no resolution inside the searched interval")

	bottom, top, ok := c.Searched("Foo")
	require.True(t, ok)
	assert.Equal(t, 2, bottom)
	assert.Equal(t, 4, top)

	c.Lookup(ctx, "Foo", 1)
	assert.Greater(t, res.calls, calls, "a lookup below the searched interval resolves again")
}

func TestLookup_NotFoundIsCached(t *testing.T) {
	res := newFakeResolver()
	c := typecache.New(res)
	ctx := context.Background()

	got := c.Lookup(ctx, "Missing", 3)
	assert.Equal(t, domain.LookupNotFound, got.Status)
	calls := res.calls

	got = c.Lookup(ctx, "Missing", 1)
	assert.Equal(t, domain.LookupNotFound, got.Status)
	assert.Equal(t, calls, res.calls)

	stats := c.Stats()
	assert.Equal(t, 1, stats.Hits)
	assert.Equal(t, 1, stats.Misses)
}

func TestLookup_Invalid(t *testing.T) {
	res := newFakeResolver()
	res.define("Bad", 0, false)
	res.breakAt("Bad", 0)
	c := typecache.New(res)
	ctx := context.Background()

	assert.Equal(t, domain.LookupInvalid, c.Lookup(ctx, "Bad", 0).Status)
	calls := res.calls
	assert.Equal(t, domain.LookupInvalid, c.Lookup(ctx, "Bad", 0).Status)
	assert.Equal(t, calls, res.calls, "invalid results are cached until invalidated")

	delete(res.broken, "Bad")
	c.Invalidate("Bad")
	assert.True(t, c.Lookup(ctx, "Bad", 0).IsFound())
}

func TestLookup_InvalidOnlyAboveBrokenDefinition(t *testing.T) {
	res := newFakeResolver()
	res.define("Foo", 0, false)
	res.define("Foo", 1, false)
	res.define("Foo", 3, false)
	res.breakAt("Foo", 1)
	c := typecache.New(res)
	ctx := context.Background()

	tests := []struct {
		name string
		from int
		want domain.LookupStatus
		pos  int
	}{
		{name: "below the broken override", from: 0, want: domain.LookupFound, pos: 0},
		{name: "at the broken override", from: 1, want: domain.LookupInvalid},
		{name: "between", from: 2, want: domain.LookupInvalid},
		{name: "above a valid override", from: 3, want: domain.LookupFound, pos: 3},
		{name: "base again", from: 0, want: domain.LookupFound, pos: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Lookup(ctx, "Foo", tt.from)
			require.Equal(t, tt.want, got.Status)
			if got.IsFound() {
				assert.Equal(t, tt.pos, got.Decl.Position)
			}
		})
	}

	calls := res.calls
	assert.Equal(t, domain.LookupInvalid, c.Lookup(ctx, "Foo", 2).Status)
	assert.Equal(t, calls, res.calls, "the broken position is cached")
}

func TestLookup_UnsearchableIsNotCached(t *testing.T) {
	res := newFakeResolver()
	res.define("Foo", 0, false)
	res.unsearchable["Foo"] = true
	c := typecache.New(res)
	ctx := context.Background()

	assert.Equal(t, domain.LookupInvalid, c.Lookup(ctx, "Foo", 0).Status)

	delete(res.unsearchable, "Foo")
	assert.True(t, c.Lookup(ctx, "Foo", 0).IsFound())
}

func TestLookup_InsertionKeepsDescendingOrder(t *testing.T) {
	res := newFakeResolver()
	for _, pos := range []int{0, 2, 4} {
		res.define("T", pos, false)
	}
	c := typecache.New(res)
	ctx := context.Background()

	assert.Equal(t, 2, c.Lookup(ctx, "T", 3).Decl.Position)
	assert.Equal(t, 4, c.Lookup(ctx, "T", 5).Decl.Position)
	assert.Equal(t, 0, c.Lookup(ctx, "T", 1).Decl.Position)
	assert.Equal(t, []int{4, 2, 0}, positions(c.Candidates("T")))
}

func TestInvalidate(t *testing.T) {
	res := newFakeResolver()
	res.define("Foo", 0, false)
	c := typecache.New(res)
	ctx := context.Background()

	got := c.Lookup(ctx, "Foo", 0)
	require.True(t, got.IsFound())
	epoch := c.Epoch()
	assert.False(t, c.ReloadedSince("Foo", epoch))

	c.Invalidate("Foo")

	_, ok := c.Get(got.ID)
	assert.False(t, ok, "handles of invalidated candidates are disposed")
	assert.Empty(t, c.Candidates("Foo"))
	assert.True(t, c.ReloadedSince("Foo", epoch))
	assert.False(t, c.ReloadedSince("Bar", epoch))
}

func TestFlush_DiscardsTransformedAndRelinks(t *testing.T) {
	res := newFakeResolver()
	res.define("Gen", 1, true)
	res.define("Plain", 1, false)
	res.define("User", 2, false)
	c := typecache.New(res)
	ctx := context.Background()

	gen := c.Lookup(ctx, "Gen", 2)
	plain := c.Lookup(ctx, "Plain", 2)
	c.Lookup(ctx, "User", 2)
	c.AddReference("User", "Gen", gen.ID, 2)
	c.AddReference("User", "Plain", plain.ID, 2)

	discarded := c.Flush(ctx)
	assert.Equal(t, []string{"Gen"}, discarded)

	_, ok := c.Get(gen.ID)
	assert.False(t, ok)
	_, ok = c.Get(plain.ID)
	assert.True(t, ok, "untransformed entries survive a flush")

	fresh, ok := c.Link("User", "Gen")
	require.True(t, ok)
	assert.NotEqual(t, gen.ID, fresh)
	decl, ok := c.Get(fresh)
	require.True(t, ok)
	assert.Equal(t, "Gen", decl.TypeName)

	kept, ok := c.Link("User", "Plain")
	require.True(t, ok)
	assert.Equal(t, plain.ID, kept)
	assert.Equal(t, 1, c.Stats().Relinked)
}

func TestLayerRemoved_FallsBackToBase(t *testing.T) {
	res := newFakeResolver()
	res.define("Foo", 0, false)
	res.define("Foo", 1, false)
	c := typecache.New(res)
	ctx := context.Background()

	require.Equal(t, 1, c.Lookup(ctx, "Foo", 1).Decl.Position)

	// The layer at position 1 goes away.
	res.defs["Foo"] = res.defs["Foo"][:1]
	c.LayerRemoved(1, []string{"Foo"})

	assert.Empty(t, c.Candidates("Foo"))
	got := c.Lookup(ctx, "Foo", 0)
	require.True(t, got.IsFound())
	assert.Equal(t, 0, got.Decl.Position)
	assert.Equal(t, []int{0}, positions(c.Candidates("Foo")))
}

func TestLayerInserted_ShiftsPositions(t *testing.T) {
	res := newFakeResolver()
	res.define("Foo", 1, false)
	c := typecache.New(res)
	ctx := context.Background()

	c.Lookup(ctx, "Foo", 2)
	c.LayerInserted(1)

	assert.Equal(t, []int{2}, positions(c.Candidates("Foo")))
	bottom, top, ok := c.Searched("Foo")
	require.True(t, ok)
	assert.Equal(t, 2, bottom)
	assert.Equal(t, 3, top)
}
