package ports

import (
	"context"

	"go.trai.ch/strata/internal/core/domain"
)

//go:generate mockgen -source=introspection.go -destination=mocks/mock_introspection.go -package=mocks

// StatusProvider answers read-only questions about a running build.
// Implementations take the shared read lock.
type StatusProvider interface {
	Snapshot() domain.StatusSnapshot
	LookupType(ctx context.Context, runtime, typeName string, fromPosition int) (domain.TypeLookup, error)
}

// IntrospectionClient talks to the introspection server of a running build.
type IntrospectionClient interface {
	Status(ctx context.Context) (*domain.StatusSnapshot, error)
	LookupType(ctx context.Context, runtime, typeName string, fromPosition int) (domain.TypeLookup, error)
	Close() error
}
