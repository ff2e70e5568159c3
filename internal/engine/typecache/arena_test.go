package typecache_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/strata/internal/engine/typecache"
)

func TestArena(t *testing.T) {
	var a typecache.Arena[string]

	first, err := a.Alloc("first")
	require.NoError(t, err)
	second, err := a.Alloc("second")
	require.NoError(t, err)
	assert.Equal(t, 2, a.Len())

	v, ok := a.Get(first)
	require.True(t, ok)
	assert.Equal(t, "first", v)

	assert.True(t, a.Dispose(first))
	assert.False(t, a.Dispose(first), "double dispose is a no-op")
	_, ok = a.Get(first)
	assert.False(t, ok)

	reused, err := a.Alloc("third")
	require.NoError(t, err)
	assert.Equal(t, first.Index, reused.Index, "disposed slots are reused")
	assert.NotEqual(t, first.Gen, reused.Gen)

	_, ok = a.Get(first)
	assert.False(t, ok, "stale handles never see the new value")

	assert.True(t, a.Update(second, func(s *string) { *s = "changed" }))
	v, _ = a.Get(second)
	assert.Equal(t, "changed", v)
	assert.Equal(t, 2, a.Len())
}

func TestRegistry(t *testing.T) {
	r := typecache.NewRegistry()

	base := domainEntry(0, "Foo")
	app := domainEntry(1, "Foo")

	assert.True(t, r.Register("Foo", base))
	assert.True(t, r.Register("Foo", app))
	assert.False(t, r.Register("Foo", app))
	assert.True(t, r.Register("Bar", app))

	assert.Len(t, r.Definitions("Foo"), 2)
	assert.ElementsMatch(t, []string{"Foo", "Bar"}, r.Types(1))

	removed := r.RemoveLayer(1)
	assert.ElementsMatch(t, []string{"Foo", "Bar"}, removed)
	assert.Len(t, r.Definitions("Foo"), 1)
	assert.Empty(t, r.Definitions("Bar"))

	r.Unregister("Foo", 0)
	assert.Empty(t, r.Definitions("Foo"))
}
