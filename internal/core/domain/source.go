package domain

import (
	"path"
	"path/filepath"
	"strings"
)

// Processor describes how files with a given extension take part in a build phase.
type Processor struct {
	// Ext is the file extension, including the dot.
	Ext string
	// Phase is the build phase the file is processed in.
	Phase BuildPhase
	// ProducesTypes is true when the file defines types other files can reference.
	ProducesTypes bool
	// NeedsCompile is true when generated output goes through the native compiler.
	NeedsCompile bool
	// PrependLayerPackage prefixes the layer package to derived type names.
	PrependLayerPackage bool
}

// SourceEntry identifies one physical source file. It is immutable once constructed.
type SourceEntry struct {
	Layer     LayerID
	LayerName string
	// Path is absolute.
	Path string
	// RelPath is relative to the layer source root and uses forward slashes.
	RelPath   string
	TypeName  string
	Processor Processor
}

// NewSourceEntry builds a SourceEntry for relPath inside layer and derives its type name.
func NewSourceEntry(layer *Layer, relPath string, proc Processor) SourceEntry {
	relPath = filepath.ToSlash(relPath)
	pkg := ""
	if proc.PrependLayerPackage {
		pkg = layer.Package
	}
	return SourceEntry{
		Layer:     layer.ID,
		LayerName: layer.Name.String(),
		Path:      filepath.Join(layer.SourceDir, filepath.FromSlash(relPath)),
		RelPath:   relPath,
		TypeName:  TypeNameFor(pkg, relPath),
		Processor: proc,
	}
}

// Equal reports whether both entries point at the same file.
func (e SourceEntry) Equal(other SourceEntry) bool {
	return e.Path == other.Path
}

// Dir returns the entry's directory relative to the layer source root.
func (e SourceEntry) Dir() string {
	d := path.Dir(e.RelPath)
	if d == "." {
		return ""
	}
	return d
}

// TypeNameFor derives a dotted type name from a relative source path and an optional package.
// "ui/Button.strata" in package "com.acme" becomes "com.acme.ui.Button".
func TypeNameFor(pkg, relPath string) string {
	relPath = filepath.ToSlash(relPath)
	base := strings.TrimSuffix(relPath, path.Ext(relPath))
	name := strings.ReplaceAll(base, "/", ".")
	if pkg == "" {
		return name
	}
	return pkg + "." + name
}
