package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/zerr"
)

// CleanOptions configuration for the Clean method.
type CleanOptions struct {
	// Build removes generated sources, compiled output and dependency records.
	Build bool
	// State removes the build info store and staging area.
	State  bool
	Socket string
}

// Clean removes build output and workspace state based on the provided options.
func (a *App) Clean(ctx context.Context, options CleanOptions) error {
	ws, err := a.deps.Loader.Load(".")
	if err != nil {
		return zerr.Wrap(err, "failed to load configuration")
	}
	if a.serverRunning(ctx, a.socketPath(ws, options.Socket)) {
		return zerr.With(domain.ErrBuildRunning, "root", ws.Root)
	}

	var errs error
	remove := func(path, name string) {
		if err := a.removeAll(path, name); err != nil {
			errs = errors.Join(errs, zerr.With(zerr.Wrap(err, domain.ErrCleanFailed.Error()), "path", path))
		}
	}

	if options.Build {
		remove(ws.BuildDir, "build output")
	}
	if options.State {
		remove(filepath.Join(ws.Root, domain.DefaultStorePath()), "build info store")
		remove(filepath.Join(ws.Root, domain.DefaultStrataPath(), domain.StagingDirName), "staging area")
	}
	return errs
}

// removeAll deletes path and logs what it removed.
func (a *App) removeAll(path, name string) error {
	if _, err := os.Lstat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	a.deps.Logger.Info(fmt.Sprintf("removing %s...", name))
	if err := os.RemoveAll(path); err != nil {
		return err
	}
	a.deps.Logger.Info(fmt.Sprintf("removed %s", name))
	return nil
}
