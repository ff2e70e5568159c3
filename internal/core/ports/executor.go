package ports

import (
	"context"
	"io"

	"go.trai.ch/strata/internal/core/domain"
)

// Executor runs subprocesses.
//
//go:generate mockgen -source=executor.go -destination=mocks/mock_executor.go -package=mocks
type Executor interface {
	// Execute runs cmd and blocks until it exits. A non-zero exit is reported as an error.
	Execute(ctx context.Context, cmd *domain.Command, stdout, stderr io.Writer) error
}
