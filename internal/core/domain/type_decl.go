package domain

// DeclID is a generation-indexed handle to a cached type declaration.
// A handle outlives its declaration: once disposed, lookups through it report Invalid.
type DeclID struct {
	Index uint32
	Gen   uint32
}

// IsZero reports whether the handle was never allocated.
func (id DeclID) IsZero() bool { return id.Gen == 0 }

// TypeDeclaration is one candidate definition of a fully-qualified type.
type TypeDeclaration struct {
	TypeName string
	Layer    LayerID
	Position int
	// Source is the absolute path of the defining file.
	Source string
	// Transformed is true when the definition came out of code generation.
	Transformed bool
	// Dynamic is true when the defining layer is dynamic.
	Dynamic bool
}

// LookupStatus tags a TypeLookup.
type LookupStatus uint8

const (
	// LookupNotFound means no layer in the searched range defines the type.
	LookupNotFound LookupStatus = iota
	// LookupFound means Decl holds the most specific definition in range.
	LookupFound
	// LookupInvalid means the definition exists but could not be loaded.
	LookupInvalid
)

// String returns the status name.
func (s LookupStatus) String() string {
	switch s {
	case LookupFound:
		return "found"
	case LookupInvalid:
		return "invalid"
	default:
		return "not-found"
	}
}

// TypeLookup is the result of a type cache lookup.
type TypeLookup struct {
	Status LookupStatus
	ID     DeclID
	Decl   TypeDeclaration
}

// Found builds a successful lookup.
func Found(id DeclID, decl TypeDeclaration) TypeLookup {
	return TypeLookup{Status: LookupFound, ID: id, Decl: decl}
}

// NotFound builds a lookup for a type absent from the searched layers.
func NotFound() TypeLookup {
	return TypeLookup{Status: LookupNotFound}
}

// Invalid builds a lookup for a type whose definition failed to load.
func Invalid() TypeLookup {
	return TypeLookup{Status: LookupInvalid}
}

// IsFound reports whether the lookup found a definition.
func (l TypeLookup) IsFound() bool { return l.Status == LookupFound }
