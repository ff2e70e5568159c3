package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.trai.ch/strata/internal/adapters/depfile"
	"go.trai.ch/strata/internal/adapters/telemetry"
	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/zerr"
)

// Explain prints whether the next build would regenerate file, why, and what its
// dependency record holds.
func (a *App) Explain(ctx context.Context, file string) error {
	abs, err := filepath.Abs(file)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrFailedToGetRoot.Error()), "path", file)
	}

	ws, co, err := a.open(telemetry.NewNoOpTracer())
	if err != nil {
		return err
	}
	reports, err := co.ExplainFile(ctx, abs)
	if err != nil {
		return err
	}

	var b strings.Builder
	for i, r := range reports {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s %s/%s: %s:%s\n", r.Runtime, r.BuildLayer, r.Phase, r.Source.LayerName, r.Source.RelPath)
		switch {
		case r.OverriddenBy != "":
			fmt.Fprintf(&b, "  overridden by %s\n", relTo(ws.Root, r.OverriddenBy))
			continue
		case r.Scheduled:
			fmt.Fprintf(&b, "  regenerate: %s\n", r.Reason)
		default:
			b.WriteString("  up to date\n")
		}
		for _, d := range r.Dependents {
			fmt.Fprintf(&b, "  also regenerates %s\n", relTo(ws.Root, d))
		}
		if r.Entry == nil {
			b.WriteString("  no dependency record\n")
			continue
		}
		rec := depfile.Render(&domain.DependencyFile{Entries: []domain.DependencyEntry{*r.Entry}})
		for line := range strings.Lines(rec) {
			b.WriteString("  " + line)
		}
	}

	_, err = fmt.Fprint(a.stdout, b.String())
	return err
}

func relTo(root, path string) string {
	if rel, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(rel)
	}
	return path
}
