package tui_test

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/strata/internal/adapters/telemetry"
	"go.trai.ch/strata/internal/adapters/tui"
)

func plannedModel(t *testing.T, steps ...string) *tui.Model {
	t.Helper()
	m := tui.NewModel(nil).WithDisableTick()
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m.Update(telemetry.MsgInitSteps{Steps: steps})
	return &m
}

func TestModel_InitSteps(t *testing.T) {
	m := plannedModel(t, "jvm/base/process", "jvm/app/process")

	require.Len(t, m.Steps, 2)
	assert.Equal(t, tui.StatusPending, m.StepMap["jvm/app/process"].Status)
	w, _ := m.StepMap["jvm/app/process"].Output.Size()
	assert.Equal(t, 80, w)
	require.Len(t, m.TreeRoots, 1)
	assert.Len(t, m.FlatList, 3)
}

func TestModel_StepLifecycle(t *testing.T) {
	m := plannedModel(t, "jvm/base/process", "jvm/app/process")
	start := time.Now()

	m.Update(telemetry.MsgStepStart{SpanID: "s1", Name: "jvm/app/process", StartTime: start})
	node := m.StepMap["jvm/app/process"]
	assert.Equal(t, tui.StatusRunning, node.Status)
	assert.Equal(t, "jvm/app/process", m.ActiveStepName)
	require.Less(t, m.SelectedIdx, len(m.FlatList))
	assert.Equal(t, "jvm/app/process", m.FlatList[m.SelectedIdx].Name, "follow mode focuses the running step")

	m.Update(telemetry.MsgStepLog{SpanID: "s1", Data: []byte("hello\n")})
	assert.Contains(t, node.Output.View(), "hello")

	m.Update(telemetry.MsgStepComplete{SpanID: "s1", EndTime: start.Add(time.Second), Inherited: true})
	assert.Equal(t, tui.StatusDone, node.Status)
	assert.True(t, node.Inherited)
	assert.False(t, m.Failed)

	m.Update(telemetry.MsgStepStart{SpanID: "s2", Name: "jvm/base/process", StartTime: start})
	m.Update(telemetry.MsgStepComplete{SpanID: "s2", Err: errors.New("boom")})
	assert.Equal(t, tui.StatusError, m.StepMap["jvm/base/process"].Status)
	assert.True(t, m.Failed)
}

func TestModel_UnplannedStep(t *testing.T) {
	m := plannedModel(t, "jvm/app/process")

	m.Update(telemetry.MsgStepStart{SpanID: "x", Name: "clean"})
	require.Contains(t, m.StepMap, "clean")
	assert.Equal(t, tui.StatusRunning, m.StepMap["clean"].Status)
	assert.Len(t, m.TreeRoots, 2)
}

func TestModel_Navigation(t *testing.T) {
	m := plannedModel(t, "jvm/base/process", "jvm/app/process")

	tests := []struct {
		name     string
		key      tea.KeyMsg
		wantIdx  int
		wantRows int
		follow   bool
	}{
		{"down", tea.KeyMsg{Type: tea.KeyDown}, 1, 3, false},
		{"expand", tea.KeyMsg{Type: tea.KeyEnter}, 1, 4, false},
		{"down again", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")}, 2, 4, false},
		{"up", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("k")}, 1, 4, false},
		{"collapse", tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")}, 1, 3, false},
		{"follow", tea.KeyMsg{Type: tea.KeyEsc}, 1, 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m.Update(tt.key)
			assert.Equal(t, tt.wantIdx, m.SelectedIdx)
			assert.Len(t, m.FlatList, tt.wantRows)
			assert.Equal(t, tt.follow, m.FollowMode)
		})
	}
}

func TestModel_ToggleViewMode(t *testing.T) {
	m := plannedModel(t, "jvm/app/process")

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, tui.ViewModeLogs, m.ViewMode)
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, tui.ViewModeTree, m.ViewMode)
}

func TestModel_Quit(t *testing.T) {
	m := plannedModel(t)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
