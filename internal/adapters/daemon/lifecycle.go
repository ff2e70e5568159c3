package daemon

import (
	"sync"
	"time"
)

// Lifecycle tracks activity of a long-running build process and signals when
// it has been idle for the configured timeout. Running builds hold it busy.
// A zero timeout never goes idle.
type Lifecycle struct {
	timeout time.Duration
	started time.Time
	idle    chan struct{}
	once    sync.Once

	mu    sync.Mutex
	last  time.Time
	busy  int
	timer *time.Timer
}

// NewLifecycle creates a lifecycle whose idle period starts now.
func NewLifecycle(timeout time.Duration) *Lifecycle {
	now := time.Now()
	l := &Lifecycle{
		timeout: timeout,
		started: now,
		last:    now,
		idle:    make(chan struct{}),
	}
	if timeout > 0 {
		l.timer = time.AfterFunc(timeout, l.Close)
	}
	return l
}

// Touch records activity and restarts the idle period.
func (l *Lifecycle) Touch() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.last = time.Now()
	l.armLocked()
}

// Busy keeps the lifecycle from going idle until the returned release runs.
// Release counts as activity and may be called more than once.
func (l *Lifecycle) Busy() func() {
	l.mu.Lock()
	l.busy++
	l.last = time.Now()
	if l.timer != nil {
		l.timer.Stop()
	}
	l.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			l.busy--
			l.last = time.Now()
			l.armLocked()
		})
	}
}

// armLocked restarts the idle timer unless a build holds the lifecycle. Callers hold l.mu.
func (l *Lifecycle) armLocked() {
	if l.timer != nil && l.busy == 0 {
		l.timer.Reset(l.timeout)
	}
}

// IdleRemaining returns the time left before going idle. It is zero when the
// timeout is disabled and the full timeout while busy.
func (l *Lifecycle) IdleRemaining() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch {
	case l.timeout <= 0:
		return 0
	case l.busy > 0:
		return l.timeout
	}
	return max(l.timeout-time.Since(l.last), 0)
}

// Uptime returns how long the process has been running.
func (l *Lifecycle) Uptime() time.Duration {
	return time.Since(l.started)
}

// LastActivity returns when activity was last recorded.
func (l *Lifecycle) LastActivity() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.last
}

// Idle returns a channel closed once the lifecycle went idle or was closed.
func (l *Lifecycle) Idle() <-chan struct{} {
	return l.idle
}

// Close ends the lifecycle. It is safe to call more than once.
func (l *Lifecycle) Close() {
	l.once.Do(func() {
		l.mu.Lock()
		if l.timer != nil {
			l.timer.Stop()
		}
		l.mu.Unlock()
		close(l.idle)
	})
}
