package orchestrator

import "sync"

// DynLock is the process-wide lock shared by every runtime.
// Builds and anything that mutates layers take the write side; introspection takes the read side.
type DynLock struct {
	mu sync.RWMutex
}

// NewDynLock creates a new DynLock.
func NewDynLock() *DynLock {
	return &DynLock{}
}

// Lock takes the write side.
func (l *DynLock) Lock() { l.mu.Lock() }

// Unlock releases the write side.
func (l *DynLock) Unlock() { l.mu.Unlock() }

// RLock takes the read side.
func (l *DynLock) RLock() { l.mu.RLock() }

// RUnlock releases the read side.
func (l *DynLock) RUnlock() { l.mu.RUnlock() }
