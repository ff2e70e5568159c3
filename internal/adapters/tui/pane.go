package tui

import (
	"bytes"
	"sync"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/vito/midterm"
)

type paneKeyMap struct {
	LineUp   key.Binding
	LineDown key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Top      key.Binding
	Bottom   key.Binding
}

var paneKeys = paneKeyMap{
	LineUp:   key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "scroll up")),
	LineDown: key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "scroll down")),
	PageUp:   key.NewBinding(key.WithKeys("pgup", "b"), key.WithHelp("pgup", "page up")),
	PageDown: key.NewBinding(key.WithKeys("pgdown", "f"), key.WithHelp("pgdn", "page down")),
	Top:      key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("home", "first line")),
	Bottom:   key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("end", "follow output")),
}

// Pane holds the output of one build step, such as compiler diagnostics,
// rendered through a virtual terminal so escape sequences display correctly.
// While it follows, new output keeps the last line in view.
type Pane struct {
	mu     sync.Mutex
	term   *midterm.Terminal
	buf    bytes.Buffer
	top    int
	height int
	width  int
	follow bool
}

// NewPane creates an empty pane that follows its output.
func NewPane() *Pane {
	return &Pane{
		term:   midterm.NewAutoResizingTerminal(),
		height: 1,
		follow: true,
	}
}

// Write appends step output.
func (p *Pane) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	n, err := p.term.Write(b)
	p.settle()
	return n, err
}

// Resize sets the visible area. Sizes below one line or column are raised to one.
func (p *Pane) Resize(width, height int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.width = max(width, 1)
	p.height = max(height, 1)
	p.term.ResizeX(p.width)
	p.settle()
}

// Size returns the visible width and height.
func (p *Pane) Size() (int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.width, p.height
}

// Lines returns how many lines of output the pane holds.
func (p *Pane) Lines() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.term.UsedHeight()
}

// Top returns the index of the first visible line.
func (p *Pane) Top() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.top
}

// Following reports whether the pane keeps the last line in view.
func (p *Pane) Following() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.follow
}

// Follow scrolls to the last line and keeps it in view.
func (p *Pane) Follow() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.follow = true
	p.settle()
}

// Update scrolls the pane on navigation keys. Scrolling up stops following;
// reaching the last line resumes it.
func (p *Pane) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return p, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case key.Matches(k, paneKeys.LineUp):
		p.top--
	case key.Matches(k, paneKeys.LineDown):
		p.top++
	case key.Matches(k, paneKeys.PageUp):
		p.top -= p.height
	case key.Matches(k, paneKeys.PageDown):
		p.top += p.height
	case key.Matches(k, paneKeys.Top):
		p.top = 0
	case key.Matches(k, paneKeys.Bottom):
		p.top = p.bottom()
	default:
		return p, nil
	}
	p.top = min(max(p.top, 0), p.bottom())
	p.follow = p.top == p.bottom()
	return p, nil
}

// Init implements tea.Model.
func (p *Pane) Init() tea.Cmd { return nil }

// View renders the visible lines.
func (p *Pane) View() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.buf.Reset()
	used := p.term.UsedHeight()
	for row := p.top; row < p.top+p.height && row < used; row++ {
		if row > p.top {
			p.buf.WriteByte('\n')
		}
		_ = p.term.RenderLine(&p.buf, row)
	}
	return p.buf.String()
}

func (p *Pane) bottom() int {
	return max(p.term.UsedHeight()-p.height, 0)
}

// settle re-applies following and clamps the scroll position. Callers hold p.mu.
func (p *Pane) settle() {
	if p.follow {
		p.top = p.bottom()
		return
	}
	p.top = min(p.top, p.bottom())
}
