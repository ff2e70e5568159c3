// Package main is the entry point for the strata build tool.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/grindlemire/graft"
	"go.trai.ch/strata/cmd/strata/commands"
	"go.trai.ch/strata/internal/app"
	"go.trai.ch/strata/internal/core/domain"
	_ "go.trai.ch/strata/internal/wiring"
)

const (
	exitOK          = 0
	exitFailure     = 1
	exitInterrupted = 130
)

// ComponentProvider builds the application components and a cleanup to run on exit.
type ComponentProvider func(context.Context) (*app.Components, func(), error)

func graftComponents(ctx context.Context) (*app.Components, func(), error) {
	c, _, err := graft.ExecuteFor[*app.Components](ctx)
	return c, func() {}, err
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stderr, graftComponents))
}

// run executes the CLI and returns the process exit code.
func run(
	ctx context.Context,
	args []string,
	stderr io.Writer,
	provider ComponentProvider,
	opts ...func(*app.App),
) int {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	components, cleanup, err := provider(ctx)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, "Error: "+err.Error())
		return exitFailure
	}
	defer cleanup()

	for _, opt := range opts {
		opt(components.App)
	}

	cli := commands.New(components.App)
	cli.SetArgs(args)
	cli.SetOutput(os.Stdout, stderr)

	err = cli.Execute(ctx)
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, domain.ErrBuildExecutionFailed):
		// already reported by the build summary
		return exitFailure
	case ctx.Err() != nil && errors.Is(err, context.Canceled):
		return exitInterrupted
	default:
		components.Logger.Error(err)
		return exitFailure
	}
}
