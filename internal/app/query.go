package app

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports"
	"go.trai.ch/zerr"
)

// QueryOptions configuration for the query methods.
type QueryOptions struct {
	Socket string
	JSON   bool
}

func (a *App) dial(opts QueryOptions) (ports.IntrospectionClient, error) {
	socket := opts.Socket
	if socket == "" {
		root, err := a.deps.Loader.DiscoverRoot(".")
		if err != nil {
			return nil, err
		}
		socket = domain.DefaultSocketPath(root)
	}
	if a.deps.Daemon == nil {
		return nil, zerr.With(domain.ErrDaemonNotRunning, "socket", socket)
	}
	return a.deps.Daemon.Dial(socket)
}

// QueryStatus prints the state of the build running in the workspace.
func (a *App) QueryStatus(ctx context.Context, opts QueryOptions) error {
	client, err := a.dial(opts)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	snap, err := client.Status(ctx)
	if err != nil {
		return err
	}
	if opts.JSON {
		return a.printJSON(snap)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "build running in %s (pid %d, up %v", snap.Root, snap.PID, snap.Uptime.Round(time.Second))
	if !snap.LastActivity.IsZero() {
		fmt.Fprintf(&b, ", last query %s", snap.LastActivity.Local().Format(time.TimeOnly))
	}
	b.WriteString(")\n")
	for _, rt := range snap.Runtimes {
		state := "idle"
		if rt.Building {
			state = "building"
		}
		fmt.Fprintf(&b, "%s: %s\n", rt.Name, state)
		for _, l := range rt.Layers {
			fmt.Fprintf(&b, "  %d %s", l.Position, l.Name)
			if l.Flags != "" {
				fmt.Fprintf(&b, " [%s]", l.Flags)
			}
			for _, phase := range slices.Sorted(maps.Keys(l.Phases)) {
				fmt.Fprintf(&b, " %s=%s", phase, l.Phases[phase])
			}
			b.WriteString("\n")
		}
		if len(rt.Errors) > 0 {
			fmt.Fprintf(&b, "  %d error(s)\n", len(rt.Errors))
		}
	}
	_, err = fmt.Fprint(a.stdout, b.String())
	return err
}

// QueryType prints where the running build resolves typeName for runtime.
// A negative from searches from the most specific layer.
func (a *App) QueryType(ctx context.Context, runtime, typeName string, from int, opts QueryOptions) error {
	client, err := a.dial(opts)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	lookup, err := client.LookupType(ctx, runtime, typeName, from)
	if err != nil {
		return err
	}
	if opts.JSON {
		return a.printJSON(lookup)
	}

	var line string
	switch lookup.Status {
	case domain.LookupFound:
		line = fmt.Sprintf("%s: found at position %d in %s", typeName, lookup.Decl.Position, lookup.Decl.Source)
		if lookup.Decl.Dynamic {
			line += " (dynamic)"
		}
	default:
		line = fmt.Sprintf("%s: %s", typeName, lookup.Status)
	}
	_, err = fmt.Fprintln(a.stdout, line)
	return err
}

func (a *App) printJSON(v any) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
