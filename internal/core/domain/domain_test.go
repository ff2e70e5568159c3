package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/zerr"
)

func TestBuildStatus_Transitions(t *testing.T) {
	tests := []struct {
		name string
		from domain.BuildStatus
		to   domain.BuildStatus
		ok   bool
	}{
		{name: "start scanning", from: domain.StatusNotStarted, to: domain.StatusScanning, ok: true},
		{name: "scan to generate", from: domain.StatusScanning, to: domain.StatusGenerating, ok: true},
		{name: "generate to compile", from: domain.StatusGenerating, to: domain.StatusCompiling, ok: true},
		{name: "compile to done", from: domain.StatusCompiling, to: domain.StatusDone, ok: true},
		{name: "scan fails", from: domain.StatusScanning, to: domain.StatusError, ok: true},
		{name: "compile fails", from: domain.StatusCompiling, to: domain.StatusError, ok: true},
		{name: "skip scanning", from: domain.StatusNotStarted, to: domain.StatusGenerating},
		{name: "not started cannot fail", from: domain.StatusNotStarted, to: domain.StatusError},
		{name: "error is absorbing", from: domain.StatusError, to: domain.StatusScanning},
		{name: "done is final", from: domain.StatusDone, to: domain.StatusScanning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.ok, tt.from.CanTransition(tt.to))
		})
	}
}

func TestBuildState(t *testing.T) {
	s := domain.NewBuildState(3, domain.PhaseProcess)
	require.Equal(t, domain.StatusNotStarted, s.Status)

	require.NoError(t, s.Transition(domain.StatusScanning))
	err := s.Transition(domain.StatusDone)
	require.Error(t, err)
	require.ErrorContains(t, err, domain.ErrInvalidTransition.Error())

	s.AddToCompile("b.gen")
	s.AddToCompile("a.gen")
	s.AddToCompile("b.gen")
	assert.Equal(t, []string{"b.gen", "a.gen"}, s.ToCompile())

	s.RemoveFromCompile("b.gen")
	assert.Equal(t, []string{"a.gen"}, s.ToCompile())

	s.Fail(errors.New("boom"))
	assert.Equal(t, domain.StatusError, s.Status)
	assert.True(t, s.AnyError)
	assert.Len(t, s.Errors, 1)

	s.Reset()
	assert.Equal(t, domain.StatusNotStarted, s.Status)
	assert.Empty(t, s.ToCompile())
	assert.False(t, s.AnyError)
	assert.Empty(t, s.Errors)
}

func TestPhases(t *testing.T) {
	assert.Equal(t, []domain.BuildPhase{domain.PhasePrepare, domain.PhaseProcess}, domain.Phases())

	p, err := domain.ParseBuildPhase("process")
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseProcess, p)

	_, err = domain.ParseBuildPhase("link")
	require.Error(t, err)
}

func TestDependencyFile(t *testing.T) {
	df := domain.NewDependencyFile("base", domain.PhaseProcess, "ui")
	df.ClearChanged()

	df.Put(domain.DependencyEntry{FileName: "b.strata"})
	df.Put(domain.DependencyEntry{FileName: "a.strata"})
	df.Put(domain.DependencyEntry{FileName: "c", IsDirectory: true})
	assert.True(t, df.Changed())

	names := make([]string, 0, len(df.Entries))
	for _, e := range df.Entries {
		names = append(names, e.FileName)
	}
	assert.Equal(t, []string{"a.strata", "b.strata", "c"}, names)

	df.Put(domain.DependencyEntry{FileName: "a.strata", Error: true})
	e, ok := df.Entry("a.strata")
	require.True(t, ok)
	assert.True(t, e.Error)
	assert.Len(t, df.Entries, 3)

	clone := df.Clone()
	clone.Entries[0].Error = false
	assert.True(t, df.Entries[0].Error, "clone must not share entries")

	df.ClearChanged()
	assert.False(t, df.Remove("missing"))
	assert.False(t, df.Changed())
	assert.True(t, df.Remove("b.strata"))
	assert.True(t, df.Changed())
}

func TestNewSourceEntry(t *testing.T) {
	layer := &domain.Layer{
		ID:        2,
		Name:      domain.NewInternedString("app"),
		Package:   "com.acme",
		SourceDir: "/ws/layers/app",
	}

	withPkg := domain.NewSourceEntry(layer, "ui/Button.strata", domain.Processor{PrependLayerPackage: true})
	assert.Equal(t, "com.acme.ui.Button", withPkg.TypeName)
	assert.Equal(t, "/ws/layers/app/ui/Button.strata", withPkg.Path)
	assert.Equal(t, "ui", withPkg.Dir())

	bare := domain.NewSourceEntry(layer, "Main.strata", domain.Processor{})
	assert.Equal(t, "Main", bare.TypeName)
	assert.Empty(t, bare.Dir())

	other := domain.NewSourceEntry(layer, "ui/Button.strata", domain.Processor{})
	assert.True(t, withPkg.Equal(other))
}

func TestErrorLog(t *testing.T) {
	log := domain.NewErrorLog(3)

	require.NoError(t, log.Add(errors.New("one")))
	require.NoError(t, log.Add(errors.New("one")))
	require.NoError(t, log.Add(errors.New("two")))
	assert.Equal(t, 2, log.Len())
	assert.Equal(t, 1, log.Repeats())

	err := log.Add(errors.New("three"))
	require.Error(t, err)
	require.ErrorContains(t, err, domain.ErrTooManyErrors.Error())
	assert.True(t, log.Full())

	err = log.Add(errors.New("four"))
	require.Error(t, err)
	assert.Equal(t, []string{"one", "two", "three"}, log.Entries())
}

func TestDescribe(t *testing.T) {
	err := zerr.With(zerr.Wrap(errors.New("boom"), "parse failed"), "file", "a.strata")
	err = zerr.With(err, "layer", "app")
	assert.Equal(t, "parse failed: boom (file=a.strata layer=app)", domain.Describe(err))
	assert.Equal(t, "plain", domain.Describe(errors.New("plain")))
	assert.Empty(t, domain.Describe(nil))
}

func TestMergeBuildInfo(t *testing.T) {
	early := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	late := early.Add(time.Hour)

	merged := domain.MergeBuildInfo([]*domain.BuildInfo{
		{Layer: "app", Position: 1, Jars: []string{"app.jar", "lib.jar"}, MainClasses: []string{"App"}, LastCompiled: early},
		nil,
		{Layer: "base", Position: 0, Jars: []string{"lib.jar"}, MainClasses: []string{"Base"}, LastCompiled: late},
	})

	assert.Equal(t, "app", merged.Layer)
	assert.Equal(t, []string{"lib.jar", "app.jar"}, merged.Jars)
	assert.Equal(t, []string{"Base", "App"}, merged.MainClasses)
	assert.Equal(t, late, merged.LastCompiled)
}

func TestValidateLayerName(t *testing.T) {
	for _, name := range []string{"base", "ui/app", "v1.2", "my_layer-2"} {
		assert.NoError(t, domain.ValidateLayerName(name), name)
	}
	for _, name := range []string{"", "/abs", "a//b", "a/", "bad name"} {
		assert.Error(t, domain.ValidateLayerName(name), name)
	}
}
