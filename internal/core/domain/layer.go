package domain

import (
	"path/filepath"
	"regexp"
	"strings"

	"go.trai.ch/zerr"
)

// LayerID is a handle into a layer graph's arena. It stays stable while positions shift.
type LayerID uint32

// LayerFlags is a bitset of layer attributes.
type LayerFlags uint8

const (
	// FlagDynamic marks a layer loaded at runtime rather than compiled ahead of time.
	FlagDynamic LayerFlags = 1 << iota
	// FlagBuildSeparate marks a layer compiled into its own output directory.
	FlagBuildSeparate
	// FlagBuildLayer marks a layer that owns a build output directory.
	FlagBuildLayer
	// FlagCompiled is set once a build pass has compiled the layer.
	FlagCompiled
)

// Has reports whether every flag in f is set.
func (fl LayerFlags) Has(f LayerFlags) bool {
	return fl&f == f
}

// String renders set flags as a comma separated list.
func (fl LayerFlags) String() string {
	var parts []string
	if fl.Has(FlagDynamic) {
		parts = append(parts, "dynamic")
	}
	if fl.Has(FlagBuildSeparate) {
		parts = append(parts, "separate")
	}
	if fl.Has(FlagBuildLayer) {
		parts = append(parts, "build")
	}
	if fl.Has(FlagCompiled) {
		parts = append(parts, "compiled")
	}
	return strings.Join(parts, ",")
}

// Layer is a named, ordered unit of source.
type Layer struct {
	ID       LayerID
	Name     InternedString
	Position int
	Extends  []LayerID
	Flags    LayerFlags

	// Package is prepended to type names of files whose processor asks for it.
	Package string

	// Dir is the directory holding the layer definition.
	Dir string
	// SourceDir is the root of the layer's source files.
	SourceDir string
	// DefinitionPath is the layer definition file. A newer definition invalidates every record.
	DefinitionPath string

	// BuildDir holds the layer's build output. Every runtime writes below its own
	// subdirectory, see SrcDir and ClassesDir.
	BuildDir string
}

// SrcDir returns the directory the generated sources and dependency records of runtime live in.
func (l *Layer) SrcDir(runtime string) string {
	return filepath.Join(l.BuildDir, runtime, SrcDirName)
}

// ClassesDir returns the compiler output directory of runtime.
func (l *Layer) ClassesDir(runtime string) string {
	return filepath.Join(l.BuildDir, runtime, ClassesDirName)
}

// IsDynamic reports whether the layer is dynamic.
func (l *Layer) IsDynamic() bool { return l.Flags.Has(FlagDynamic) }

// IsBuildLayer reports whether the layer owns build output.
func (l *Layer) IsBuildLayer() bool {
	return l.Flags.Has(FlagBuildLayer) || l.Flags.Has(FlagBuildSeparate)
}

// IsCompiled reports whether the layer has been compiled in this process.
func (l *Layer) IsCompiled() bool { return l.Flags.Has(FlagCompiled) }

// String returns the layer name.
func (l *Layer) String() string { return l.Name.String() }

// LayerDefinition is a layer as described on disk, before it is placed in the graph.
type LayerDefinition struct {
	Name          string
	Path          string
	Dir           string
	Package       string
	Extends       []string
	Dynamic       bool
	BuildSeparate bool
	BuildLayer    bool
	SourceDir     string
}

var layerNameRegex = regexp.MustCompile(`^[a-zA-Z0-9_][a-zA-Z0-9_.\-]*(/[a-zA-Z0-9_][a-zA-Z0-9_.\-]*)*$`)

// ValidateLayerName checks that a layer name is a slash separated list of simple identifiers.
func ValidateLayerName(name string) error {
	if !layerNameRegex.MatchString(name) {
		return zerr.With(ErrInvalidLayerName, "layer", name)
	}
	return nil
}
