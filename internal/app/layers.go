package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.trai.ch/strata/internal/adapters/telemetry"
	"go.trai.ch/strata/internal/ui/style"
)

// LayersOptions configuration for the Layers method.
type LayersOptions struct {
	Runtimes []string
}

// Layers prints the resolved layer order of each runtime with its flags and last compile.
func (a *App) Layers(_ context.Context, opts LayersOptions) error {
	ws, co, err := a.open(telemetry.NewNoOpTracer())
	if err != nil {
		return err
	}

	selected := make(map[string]bool, len(opts.Runtimes))
	for _, name := range opts.Runtimes {
		if _, err := ws.Runtime(name); err != nil {
			return err
		}
		selected[name] = true
	}

	var b strings.Builder
	for _, rt := range co.Snapshot().Runtimes {
		if len(selected) > 0 && !selected[rt.Name] {
			continue
		}
		t := style.LayerTable("POS", "LAYER", "FLAGS", "LAST COMPILED")
		for _, l := range rt.Layers {
			compiled := "never"
			info, err := a.deps.BuildInfo.Get(ws.Root, rt.Name, l.Name)
			if err != nil {
				a.deps.Logger.Warn("failed to read build info of " + l.Name + ": " + err.Error())
			} else if info != nil && !info.LastCompiled.IsZero() {
				compiled = info.LastCompiled.Local().Format(time.DateTime)
			}
			flags := l.Flags
			if flags == "" {
				flags = "-"
			}
			t.Row(strconv.Itoa(l.Position), l.Name, flags, compiled)
		}
		fmt.Fprintf(&b, "%s\n%s\n", rt.Name, t.String())
	}

	_, err = fmt.Fprint(a.stdout, b.String())
	return err
}
