// Package watcher turns file system events into rebuild triggers for watch mode.
package watcher

import (
	"maps"
	"slices"
	"sync"
	"time"

	"go.trai.ch/strata/internal/core/ports"
)

// Debouncer groups changes arriving in quick succession into one batch.
// A batch is emitted once no change arrived for the window, or once the oldest
// pending change has waited maxWait, whichever comes first.
type Debouncer struct {
	window  time.Duration
	maxWait time.Duration
	emit    func([]ports.Change)

	mu      sync.Mutex
	pending map[string]ports.ChangeKind
	since   time.Time
	timer   *time.Timer
	gen     uint64
}

// NewDebouncer creates a debouncer. maxWait defaults to ten windows.
func NewDebouncer(window time.Duration, emit func([]ports.Change)) *Debouncer {
	return &Debouncer{
		window:  window,
		maxWait: 10 * window,
		emit:    emit,
		pending: make(map[string]ports.ChangeKind),
	}
}

// WithMaxWait bounds how long a steady stream of changes can hold back a batch.
func (d *Debouncer) WithMaxWait(maxWait time.Duration) *Debouncer {
	d.maxWait = maxWait
	return d
}

// Add records a change and restarts the quiet window.
func (d *Debouncer) Add(c ports.Change) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.pending) == 0 {
		d.since = time.Now()
	}
	d.pending[c.Path] = merge(d.pending[c.Path], c.Kind, d.has(c.Path))

	wait := d.window
	if left := d.maxWait - time.Since(d.since); left < wait {
		wait = max(left, 0)
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(wait, func() { d.fire(gen) })
}

// Flush emits pending changes now and waits for the callback to return.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	batch := d.takeLocked()
	d.mu.Unlock()

	if len(batch) > 0 && d.emit != nil {
		d.emit(batch)
	}
}

func (d *Debouncer) has(path string) bool {
	_, ok := d.pending[path]
	return ok
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen {
		d.mu.Unlock()
		return
	}
	batch := d.takeLocked()
	d.mu.Unlock()

	if len(batch) > 0 && d.emit != nil {
		d.emit(batch)
	}
}

// takeLocked empties the pending set and invalidates the running timer.
func (d *Debouncer) takeLocked() []ports.Change {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++

	batch := make([]ports.Change, 0, len(d.pending))
	for _, p := range slices.Sorted(maps.Keys(d.pending)) {
		batch = append(batch, ports.Change{Path: p, Kind: d.pending[p]})
	}
	clear(d.pending)
	return batch
}

// merge folds a new change into the pending one for the same path.
// Editors that save by replacing a file produce remove then create.
func merge(prev, next ports.ChangeKind, seen bool) ports.ChangeKind {
	if !seen {
		return next
	}
	switch {
	case prev == ports.ChangeCreated && next == ports.ChangeModified:
		return ports.ChangeCreated
	case prev == ports.ChangeRemoved && next == ports.ChangeCreated:
		return ports.ChangeModified
	default:
		return next
	}
}

// Paths returns the paths of a batch.
func Paths(batch []ports.Change) []string {
	paths := make([]string, len(batch))
	for i, c := range batch {
		paths[i] = c.Path
	}
	return paths
}
