package ports

import (
	"context"

	"go.trai.ch/strata/internal/core/domain"
)

//go:generate mockgen -source=collaborators.go -destination=mocks/mock_collaborators.go -package=mocks

// Parser parses and typechecks one source file.
type Parser interface {
	// Parse returns the unit result for entry, or a *domain.ParseError.
	// It must be safe to call again with the same entry.
	Parse(ctx context.Context, entry domain.SourceEntry) (*domain.UnitResult, error)
}

// Generator turns a validated unit into output files.
type Generator interface {
	// Generate writes the unit's outputs below outDir and returns them with content hashes.
	// A nil slice means the unit produces no output.
	Generate(ctx context.Context, unit *domain.UnitResult, outDir string) ([]domain.GeneratedFile, error)
}

// Compiler runs the native compiler.
type Compiler interface {
	// Compile returns a result for any run that started; the error is reserved for runs that could not start.
	Compile(ctx context.Context, req domain.CompileRequest) (*domain.CompileResult, error)
}
