package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"go.trai.ch/strata/internal/adapters/telemetry"
)

const (
	stepListWidthRatio = 0.3
	logPaneBorderWidth = 4
)

// StepStatus represents the current state of a build step.
type StepStatus string

const (
	// StatusPending indicates the step is waiting to start.
	StatusPending StepStatus = "Pending"
	// StatusRunning indicates the step is currently executing.
	StatusRunning StepStatus = "Running"
	// StatusDone indicates the step completed successfully.
	StatusDone StepStatus = "Done"
	// StatusError indicates the step failed.
	StatusError StepStatus = "Error"
)

// ViewMode selects between the split tree view and the full screen log view.
type ViewMode int

const (
	// ViewModeTree shows the step tree next to the selected step's output.
	ViewModeTree ViewMode = iota
	// ViewModeLogs shows only the selected step's output.
	ViewModeLogs
)

// StepNode is one row of the step tree.
// Group rows (runtime, layer) have no Output and derive their status from their children.
type StepNode struct {
	Name      string
	Label     string
	Status    StepStatus
	Output    *Pane
	Inherited bool
	StartTime time.Time
	EndTime   time.Time

	Children      []*StepNode
	Parent        *StepNode
	Depth         int
	IsExpanded    bool
	CanonicalNode *StepNode
}

// IsGroup reports whether the row stands for several steps.
func (n *StepNode) IsGroup() bool {
	return n.CanonicalNode == nil && len(n.Children) > 0
}

// State returns the row's status and whether all of its work was inherited.
func (n *StepNode) State() (StepStatus, bool) {
	if n.CanonicalNode != nil {
		return n.CanonicalNode.Status, n.CanonicalNode.Inherited
	}
	if len(n.Children) == 0 {
		return n.Status, n.Inherited
	}

	var running, pending, failed bool
	inherited := true
	for _, c := range n.Children {
		status, inh := c.State()
		switch status {
		case StatusError:
			failed = true
		case StatusRunning:
			running = true
		case StatusPending:
			pending = true
		case StatusDone:
		}
		inherited = inherited && inh
	}
	switch {
	case failed:
		return StatusError, false
	case running:
		return StatusRunning, false
	case pending:
		return StatusPending, false
	default:
		return StatusDone, inherited
	}
}

// Model represents the main TUI state.
type Model struct {
	Steps     []*StepNode
	StepMap   map[string]*StepNode
	SpanMap   map[string]*StepNode
	TreeRoots []*StepNode
	FlatList  []*StepNode

	Output  *termenv.Output
	Spinner spinner.Model

	AutoScroll     bool
	ActiveStepName string
	SelectedIdx    int
	ListOffset     int
	ListHeight     int
	ListWidth      int
	LogWidth       int
	LogHeight      int
	FollowMode     bool
	ViewMode       ViewMode
	DisableTick    bool
	Failed         bool
}

// Init starts the spinner unless ticking is disabled.
func (m *Model) Init() tea.Cmd {
	if m.DisableTick {
		return nil
	}
	return m.Spinner.Tick
}

func (m *Model) ensureVisible() {
	if m.ListHeight <= 0 {
		return
	}
	if m.SelectedIdx < m.ListOffset {
		m.ListOffset = m.SelectedIdx
	} else if m.SelectedIdx >= m.ListOffset+m.ListHeight {
		m.ListOffset = m.SelectedIdx - m.ListHeight + 1
	}
}

func (m *Model) selected() *StepNode {
	if m.SelectedIdx >= 0 && m.SelectedIdx < len(m.FlatList) {
		return m.FlatList[m.SelectedIdx]
	}
	return nil
}

func (m *Model) updateActiveView() {
	node := m.selected()
	if node == nil || node.Output == nil {
		return
	}
	m.ActiveStepName = node.Name
	if m.FollowMode && m.AutoScroll {
		node.Output.Follow()
	}
}

func (m *Model) reflatten() {
	current := m.selected()
	m.FlatList = flattenTree(m.TreeRoots)
	if current != nil {
		for i, n := range m.FlatList {
			if n == current {
				m.SelectedIdx = i
				break
			}
		}
	}
	if m.SelectedIdx >= len(m.FlatList) {
		m.SelectedIdx = max(len(m.FlatList)-1, 0)
	}
	m.ensureVisible()
}

func (m *Model) newPane() *Pane {
	pane := NewPane()
	if m.LogWidth > 0 && m.LogHeight > 0 {
		pane.Resize(m.LogWidth, m.LogHeight)
	}
	return pane
}

// Update handles incoming messages and updates the model state.
//
//nolint:cyclop // one case per message kind
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case spinner.TickMsg:
		if m.DisableTick {
			return m, nil
		}
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case telemetry.MsgInitSteps:
		m.Steps = make([]*StepNode, len(msg.Steps))
		m.StepMap = make(map[string]*StepNode, len(msg.Steps))
		m.SpanMap = make(map[string]*StepNode)
		for i, name := range msg.Steps {
			m.Steps[i] = &StepNode{
				Name:   name,
				Status: StatusPending,
				Output: m.newPane(),
			}
			m.StepMap[name] = m.Steps[i]
		}
		m.TreeRoots = buildTree(msg.Steps, m.StepMap)
		m.SelectedIdx = 0
		m.ListOffset = 0
		m.reflatten()

	case telemetry.MsgStepStart:
		node, ok := m.StepMap[msg.Name]
		if !ok {
			// Steps outside the plan still get output.
			node = &StepNode{Name: msg.Name, Label: msg.Name, Output: m.newPane()}
			node.CanonicalNode = node
			m.Steps = append(m.Steps, node)
			m.StepMap[msg.Name] = node
			m.TreeRoots = append(m.TreeRoots, node)
			m.reflatten()
		}
		node.Status = StatusRunning
		node.StartTime = msg.StartTime
		m.SpanMap[msg.SpanID] = node
		if m.FollowMode {
			m.focus(msg.Name)
		}

	case telemetry.MsgStepLog:
		if node, ok := m.SpanMap[msg.SpanID]; ok {
			_, _ = node.Output.Write(msg.Data)
		}

	case telemetry.MsgStepComplete:
		if node, ok := m.SpanMap[msg.SpanID]; ok {
			node.EndTime = msg.EndTime
			node.Inherited = msg.Inherited
			if msg.Err != nil {
				node.Status = StatusError
				m.Failed = true
			} else {
				node.Status = StatusDone
			}
		}
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "k", "up":
		if m.SelectedIdx > 0 {
			m.SelectedIdx--
			m.FollowMode = false
			m.ensureVisible()
			m.updateActiveView()
		}
	case "j", "down":
		if m.SelectedIdx < len(m.FlatList)-1 {
			m.SelectedIdx++
			m.FollowMode = false
			m.ensureVisible()
			m.updateActiveView()
		}
	case "enter", " ":
		if node := m.selected(); node != nil && node.IsGroup() {
			node.IsExpanded = !node.IsExpanded
			m.reflatten()
		}
	case "tab":
		if m.ViewMode == ViewModeTree {
			m.ViewMode = ViewModeLogs
		} else {
			m.ViewMode = ViewModeTree
		}
	case "esc":
		m.FollowMode = true
		for _, s := range m.Steps {
			if s.Status == StatusRunning {
				m.focus(s.Name)
				break
			}
		}
	default:
		if node, ok := m.StepMap[m.ActiveStepName]; ok {
			node.Output.Update(msg)
		}
	}
	return m, nil
}

// focus selects the tree row of the named step, opening its groups.
func (m *Model) focus(name string) {
	m.ActiveStepName = name

	var leaf *StepNode
	var walk func(nodes []*StepNode)
	walk = func(nodes []*StepNode) {
		for _, n := range nodes {
			if leaf != nil {
				return
			}
			if n.CanonicalNode != nil && n.CanonicalNode.Name == name {
				leaf = n
				return
			}
			walk(n.Children)
		}
	}
	walk(m.TreeRoots)
	if leaf == nil {
		return
	}

	expandPath(leaf)
	m.FlatList = flattenTree(m.TreeRoots)
	for i, n := range m.FlatList {
		if n == leaf {
			m.SelectedIdx = i
			break
		}
	}
	m.ensureVisible()
	m.updateActiveView()
}

func (m *Model) resize(width, height int) {
	m.ListWidth = int(float64(width) * stepListWidthRatio)
	m.LogWidth = width - m.ListWidth - logPaneBorderWidth
	if m.ViewMode == ViewModeLogs {
		m.LogWidth = width - logPaneBorderWidth
	}

	headerHeight := lipgloss.Height(titleStyle.Render("STEPS"))
	m.LogHeight = height - headerHeight

	fullHeader := titleStyle.Render("STEPS") + "\n\n"
	m.ListHeight = height - lipgloss.Height(fullHeader)
	m.ensureVisible()

	for _, node := range m.Steps {
		node.Output.Resize(m.LogWidth, m.LogHeight)
	}
}
