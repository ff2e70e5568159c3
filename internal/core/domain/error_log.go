package domain

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

// ErrorLog is a deduplicated, capped list of user-visible error messages.
type ErrorLog struct {
	limit   int
	seen    map[string]struct{}
	entries []string
	repeats int
}

// NewErrorLog creates a log that holds at most limit distinct messages.
func NewErrorLog(limit int) *ErrorLog {
	if limit <= 0 {
		limit = DefaultMaxErrors
	}
	return &ErrorLog{limit: limit, seen: make(map[string]struct{})}
}

// Add records err. It returns ErrTooManyErrors once the cap is reached.
func (l *ErrorLog) Add(err error) error {
	if err == nil {
		return nil
	}
	msg := Describe(err)
	if _, ok := l.seen[msg]; ok {
		l.repeats++
		return nil
	}
	if len(l.entries) >= l.limit {
		return zerr.With(ErrTooManyErrors, "limit", l.limit)
	}
	l.seen[msg] = struct{}{}
	l.entries = append(l.entries, msg)
	if len(l.entries) == l.limit {
		return zerr.With(ErrTooManyErrors, "limit", l.limit)
	}
	return nil
}

// Entries returns the distinct messages in arrival order.
func (l *ErrorLog) Entries() []string {
	out := make([]string, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of distinct messages.
func (l *ErrorLog) Len() int { return len(l.entries) }

// Repeats returns how many duplicate messages were dropped.
func (l *ErrorLog) Repeats() int { return l.repeats }

// Full reports whether the cap is reached.
func (l *ErrorLog) Full() bool { return len(l.entries) >= l.limit }

// Reset empties the log.
func (l *ErrorLog) Reset() {
	l.seen = make(map[string]struct{})
	l.entries = nil
	l.repeats = 0
}

type metadataCarrier interface {
	Metadata() map[string]any
}

// Describe renders err followed by the metadata attached anywhere in its chain,
// as sorted key=value pairs.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	meta := make(map[string]any)
	for cur := err; cur != nil; cur = errors.Unwrap(cur) {
		m, ok := cur.(metadataCarrier)
		if !ok {
			continue
		}
		for k, v := range m.Metadata() {
			if _, set := meta[k]; !set {
				meta[k] = v
			}
		}
	}
	if len(meta) == 0 {
		return err.Error()
	}
	parts := make([]string, 0, len(meta))
	for _, k := range slices.Sorted(maps.Keys(meta)) {
		parts = append(parts, fmt.Sprintf("%s=%v", k, meta[k]))
	}
	return err.Error() + " (" + strings.Join(parts, " ") + ")"
}
