package layergraph_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/engine/layergraph"
	"go.trai.ch/zerr"
)

type fakeSource map[string][]domain.LayerDefinition

func (f fakeSource) FindLayer(name string) ([]domain.LayerDefinition, error) {
	if name == "broken" {
		return nil, errors.New("disk on fire")
	}
	return f[name], nil
}

func def(name string, extends ...string) domain.LayerDefinition {
	return domain.LayerDefinition{
		Name:      name,
		Path:      "/ws/layers/" + name + "/layer.toml",
		Dir:       "/ws/layers/" + name,
		SourceDir: "/ws/layers/" + name,
		Extends:   extends,
	}
}

func dynamicDef(name string, extends ...string) domain.LayerDefinition {
	d := def(name, extends...)
	d.Dynamic = true
	return d
}

func names(g *layergraph.Graph) []string {
	var out []string
	for l := range g.Layers() {
		out = append(out, l.Name.String())
	}
	return out
}

func TestResolve_OrdersExtendsFirst(t *testing.T) {
	src := fakeSource{
		"base": {def("base")},
		"util": {def("util", "base")},
		"ui":   {def("ui", "base")},
		"app":  {def("app", "ui", "util")},
	}
	g := layergraph.New(src, "/ws/build")

	layers, err := g.Resolve([]string{"app"})
	require.NoError(t, err)
	require.Len(t, layers, 1)

	assert.Equal(t, []string{"base", "ui", "util", "app"}, names(g))
	for l := range g.Layers() {
		for _, ext := range l.Extends {
			assert.Less(t, g.Layer(ext).Position, l.Position, "%s must come after %s", l, g.Layer(ext))
		}
	}

	app, ok := g.ByName("app")
	require.True(t, ok)
	assert.Equal(t, "/ws/build/app", app.BuildDir)
	assert.Equal(t, "/ws/build/app/jvm/src", app.SrcDir("jvm"))
	assert.Equal(t, "/ws/build/app/web/classes", app.ClassesDir("web"))
}

func TestResolve_Deduplicates(t *testing.T) {
	src := fakeSource{
		"base": {def("base")},
		"app":  {def("app", "base", "base")},
	}
	g := layergraph.New(src, "/ws/build")

	layers, err := g.Resolve([]string{"app", "base", "app"})
	require.NoError(t, err)
	assert.Len(t, layers, 2)
	assert.Equal(t, 2, g.Len())

	app, _ := g.ByName("app")
	assert.Len(t, app.Extends, 1)
}

func TestResolve_Errors(t *testing.T) {
	tests := []struct {
		name        string
		src         fakeSource
		resolve     []string
		errContains []string
		resolved    []string
	}{
		{
			name: "cycle reports full path",
			src: fakeSource{
				"a": {def("a", "b")},
				"b": {def("b", "c")},
				"c": {def("c", "a")},
			},
			resolve:     []string{"a"},
			errContains: []string{domain.ErrLayerCycle.Error()},
		},
		{
			name: "duplicate definition",
			src: fakeSource{
				"dup": {def("dup"), {Name: "dup", Path: "/other/dup/layer.toml"}},
			},
			resolve:     []string{"dup"},
			errContains: []string{domain.ErrDuplicateLayerDefinition.Error()},
		},
		{
			name: "missing layer does not block siblings",
			src: fakeSource{
				"base": {def("base")},
				"app":  {def("app", "nope")},
			},
			resolve:     []string{"app", "base"},
			errContains: []string{domain.ErrLayerNotFound.Error()},
			resolved:    []string{"base"},
		},
		{
			name:        "loader failure",
			src:         fakeSource{},
			resolve:     []string{"broken"},
			errContains: []string{domain.ErrConfigReadFailed.Error()},
		},
		{
			name:        "invalid name",
			src:         fakeSource{},
			resolve:     []string{"../escape"},
			errContains: []string{domain.ErrInvalidLayerName.Error()},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := layergraph.New(tt.src, "/ws/build")
			layers, err := g.Resolve(tt.resolve)
			require.Error(t, err)
			for _, s := range tt.errContains {
				assert.ErrorContains(t, err, s)
			}
			var got []string
			for _, l := range layers {
				got = append(got, l.Name.String())
			}
			assert.Equal(t, tt.resolved, got)
		})
	}
}

func TestResolve_CyclePathMetadata(t *testing.T) {
	src := fakeSource{
		"a": {def("a", "b")},
		"b": {def("b", "a")},
	}
	g := layergraph.New(src, "/ws/build")

	_, err := g.Resolve([]string{"a"})
	require.Error(t, err)

	var zErr *zerr.Error
	require.ErrorAs(t, err, &zErr)
	assert.Equal(t, "a -> b -> a", zErr.Metadata()["cycle"])
}

func TestResolve_DynamicInsertion(t *testing.T) {
	src := fakeSource{
		"base":  {def("base")},
		"dyn1":  {dynamicDef("dyn1", "base")},
		"dyn2":  {dynamicDef("dyn2", "dyn1")},
		"late":  {def("late", "base")},
		"child": {def("child", "dyn1")},
	}
	g := layergraph.New(src, "/ws/build")

	_, err := g.Resolve([]string{"dyn2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"base", "dyn1", "dyn2"}, names(g))

	dyn1, _ := g.ByName("dyn1")
	dyn2, _ := g.ByName("dyn2")
	assert.Equal(t, 1, dyn1.Position)
	assert.Equal(t, 2, dyn2.Position)

	_, err = g.Resolve([]string{"late"})
	require.NoError(t, err)
	assert.Equal(t, []string{"base", "late", "dyn1", "dyn2"}, names(g))
	assert.Equal(t, 2, dyn1.Position, "dynamic layers shift up")
	assert.Equal(t, 3, dyn2.Position)

	late, _ := g.ByName("late")
	assert.True(t, g.Before(late.ID, dyn1.ID))

	_, err = g.Resolve([]string{"child"})
	require.NoError(t, err)
	child, _ := g.ByName("child")
	assert.True(t, child.IsDynamic(), "extending a dynamic layer makes a layer dynamic")
	assert.Equal(t, 4, child.Position)
}

func TestOnInsert(t *testing.T) {
	src := fakeSource{
		"base": {def("base")},
		"dyn":  {dynamicDef("dyn", "base")},
		"late": {def("late", "base")},
	}
	g := layergraph.New(src, "/ws/build")

	var got []string
	g.OnInsert(func(l *domain.Layer, pos int) {
		got = append(got, fmt.Sprintf("%s@%d", l.Name, pos))
	})

	_, err := g.Resolve([]string{"dyn", "late"})
	require.NoError(t, err)
	assert.Equal(t, []string{"base@0", "dyn@1", "late@1"}, got)
}

func TestRemove(t *testing.T) {
	src := fakeSource{
		"base": {def("base")},
		"mid":  {def("mid", "base")},
		"app":  {def("app", "mid")},
	}
	g := layergraph.New(src, "/ws/build")
	_, err := g.Resolve([]string{"app"})
	require.NoError(t, err)

	var notified []string
	g.OnRemove(func(l *domain.Layer) { notified = append(notified, l.Name.String()) })

	_, err = g.Remove("mid")
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrLayerInUse.Error())

	removed, err := g.Remove("app")
	require.NoError(t, err)
	assert.Equal(t, "app", removed.Name.String())
	assert.Nil(t, g.Layer(removed.ID))
	assert.Equal(t, []string{"app"}, notified)
	assert.Equal(t, []string{"base", "mid"}, names(g))

	_, err = g.Remove("app")
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrLayerNotFound.Error())
}

func TestRemove_CompactsPositions(t *testing.T) {
	src := fakeSource{
		"a": {def("a")},
		"b": {def("b")},
		"c": {def("c")},
	}
	g := layergraph.New(src, "/ws/build")
	_, err := g.Resolve([]string{"a", "b", "c"})
	require.NoError(t, err)

	_, err = g.Remove("a")
	require.NoError(t, err)

	for i := range g.Len() {
		assert.Equal(t, i, g.At(i).Position)
	}
}

func TestBuildUnitAndOrder(t *testing.T) {
	sep := def("lib", "base")
	sep.BuildSeparate = true
	src := fakeSource{
		"base": {def("base")},
		"lib":  {sep},
		"ui":   {def("ui", "lib")},
		"app":  {def("app", "ui")},
	}
	g := layergraph.New(src, "/ws/build")
	_, err := g.Resolve([]string{"app"})
	require.NoError(t, err)

	app, _ := g.ByName("app")
	lib, _ := g.ByName("lib")

	var unit []string
	for _, l := range g.BuildUnit(app.ID) {
		unit = append(unit, l.Name.String())
	}
	assert.Equal(t, []string{"app", "ui"}, unit, "unit stops at separately built layers")

	unit = nil
	for _, l := range g.BuildUnit(lib.ID) {
		unit = append(unit, l.Name.String())
	}
	assert.Equal(t, []string{"lib", "base"}, unit)

	var order []string
	for _, l := range g.BuildOrder([]domain.LayerID{app.ID}) {
		order = append(order, l.Name.String())
	}
	assert.Equal(t, []string{"lib", "app"}, order)

	assert.Len(t, g.Ancestors(app.ID), 3)

	g.MarkCompiled(app.ID)
	for l := range g.Layers() {
		assert.True(t, l.IsCompiled(), l.Name.String())
	}
}
