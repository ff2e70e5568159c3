package typecache

import (
	"fortio.org/safecast"
	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/zerr"
)

type slot[T any] struct {
	gen  uint32
	live bool
	val  T
}

// Arena is a generation-indexed table of values addressed by domain.DeclID handles.
// Disposed slots are reused; a handle to a reused slot no longer resolves.
type Arena[T any] struct {
	slots []slot[T]
	free  []uint32
	live  int
}

// Alloc stores v and returns its handle.
func (a *Arena[T]) Alloc(v T) (domain.DeclID, error) {
	if n := len(a.free); n > 0 {
		idx := a.free[n-1]
		a.free = a.free[:n-1]
		s := &a.slots[idx]
		s.gen++
		s.live = true
		s.val = v
		a.live++
		return domain.DeclID{Index: idx, Gen: s.gen}, nil
	}
	idx, err := safecast.Conv[uint32](len(a.slots))
	if err != nil {
		return domain.DeclID{}, zerr.Wrap(err, "declaration arena is full")
	}
	a.slots = append(a.slots, slot[T]{gen: 1, live: true, val: v})
	a.live++
	return domain.DeclID{Index: idx, Gen: 1}, nil
}

// Get returns the value behind id. The boolean is false for disposed or unknown handles.
func (a *Arena[T]) Get(id domain.DeclID) (T, bool) {
	var zero T
	if int(id.Index) >= len(a.slots) {
		return zero, false
	}
	s := a.slots[id.Index]
	if !s.live || s.gen != id.Gen {
		return zero, false
	}
	return s.val, true
}

// Dispose releases id. Disposing a stale handle is a no-op and reports false.
func (a *Arena[T]) Dispose(id domain.DeclID) bool {
	if int(id.Index) >= len(a.slots) {
		return false
	}
	s := &a.slots[id.Index]
	if !s.live || s.gen != id.Gen {
		return false
	}
	var zero T
	s.live = false
	s.val = zero
	a.free = append(a.free, id.Index)
	a.live--
	return true
}

// Update replaces the value behind a live handle.
func (a *Arena[T]) Update(id domain.DeclID, fn func(*T)) bool {
	if int(id.Index) >= len(a.slots) {
		return false
	}
	s := &a.slots[id.Index]
	if !s.live || s.gen != id.Gen {
		return false
	}
	fn(&s.val)
	return true
}

// Len returns the number of live values.
func (a *Arena[T]) Len() int { return a.live }
