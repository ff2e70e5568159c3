package domain

import "unique"

// InternedString is a value object that wraps a unique.Handle[string].
// Layer names and type names repeat across every record, so they are interned.
type InternedString struct {
	h unique.Handle[string]
}

// NewInternedString creates a new InternedString from a string.
func NewInternedString(s string) InternedString {
	return InternedString{
		h: unique.Make(s),
	}
}

// NewInternedStrings creates a new InternedString slice from a string slice.
func NewInternedStrings(s []string) []InternedString {
	res := make([]InternedString, len(s))
	for i, s := range s {
		res[i] = NewInternedString(s)
	}
	return res
}

// String returns the string value.
func (s InternedString) String() string {
	var zero unique.Handle[string]
	if s.h == zero {
		return ""
	}
	return s.h.Value()
}

// Value returns the underlying handle.
func (s InternedString) Value() unique.Handle[string] {
	return s.h
}

// IsZero reports whether the string was never set.
func (s InternedString) IsZero() bool {
	var zero unique.Handle[string]
	return s.h == zero
}

// MarshalText implements encoding.TextMarshaler.
func (s InternedString) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *InternedString) UnmarshalText(text []byte) error {
	*s = NewInternedString(string(text))
	return nil
}
