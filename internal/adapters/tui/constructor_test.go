package tui_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/strata/internal/adapters/tui"
)

func TestNewModel(t *testing.T) {
	m := tui.NewModel(nil)

	assert.NotNil(t, m.Steps)
	assert.Empty(t, m.Steps)
	assert.NotNil(t, m.StepMap)
	assert.NotNil(t, m.SpanMap)
	assert.True(t, m.AutoScroll, "AutoScroll should be true by default")
	assert.True(t, m.FollowMode)
	assert.Equal(t, tui.ViewModeTree, m.ViewMode)
}

func TestNewModel_WithWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	m := tui.NewModel(buf)

	assert.NotNil(t, m.Output)
	assert.NotNil(t, m.Init(), "spinner should tick by default")
}

func TestModel_WithDisableTick(t *testing.T) {
	m := tui.NewModel(nil)
	assert.False(t, m.DisableTick)

	m = m.WithDisableTick()
	assert.True(t, m.DisableTick)
	assert.Nil(t, m.Init())
}
