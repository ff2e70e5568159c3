package domain

import (
	"slices"

	"go.trai.ch/zerr"
)

// Workspace is the loaded workspace configuration with absolute paths.
type Workspace struct {
	Root       string
	LayerPath  []string
	BuildDir   string
	MaxErrors  int
	Processors []Processor
	Runtimes   []Runtime
}

// Runtime is one build target sharing the workspace layer stack.
type Runtime struct {
	Name     string
	Layers   []string
	Compiler CompilerConfig
}

// CompilerConfig describes how a runtime invokes its native compiler.
type CompilerConfig struct {
	// Command is a template. {out}, {classpath}, {debug} and {inputs} are substituted.
	Command []string
	Debug   bool
	// Benign lists diagnostic substrings that never count as failures.
	Benign []string
	Env    map[string]string
}

// Runtime returns the runtime with the given name.
func (w *Workspace) Runtime(name string) (Runtime, error) {
	for _, r := range w.Runtimes {
		if r.Name == name {
			return r, nil
		}
	}
	return Runtime{}, zerr.With(ErrUnknownRuntime, "runtime", name)
}

// RuntimeNames returns every configured runtime name in declaration order.
func (w *Workspace) RuntimeNames() []string {
	names := make([]string, 0, len(w.Runtimes))
	for _, r := range w.Runtimes {
		names = append(names, r.Name)
	}
	return names
}

// TargetLayers returns the union of every runtime's layers, first occurrence first.
func (w *Workspace) TargetLayers() []string {
	var out []string
	for _, r := range w.Runtimes {
		for _, l := range r.Layers {
			if !slices.Contains(out, l) {
				out = append(out, l)
			}
		}
	}
	return out
}
