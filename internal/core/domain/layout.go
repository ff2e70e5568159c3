package domain

import (
	"path/filepath"
	"strings"
)

const (
	// StrataDirName is the name of the internal workspace directory.
	StrataDirName = ".strata"

	// StoreDirName is the name of the build info store directory.
	StoreDirName = "store"

	// StagingDirName is the name of the directory generated output is staged in before it is compared.
	StagingDirName = "staging"

	// WorkspaceFileName is the name of the workspace configuration file.
	WorkspaceFileName = "strata.yaml"

	// LayerFileName is the name of a layer definition file.
	LayerFileName = "layer.toml"

	// DefaultBuildDir is the build output directory used when the workspace does not name one.
	DefaultBuildDir = "build"

	// DefaultLayerPath is the layer search root used when the workspace does not name one.
	DefaultLayerPath = "layers"

	// DefaultMaxErrors caps the number of distinct errors shown before a build aborts.
	DefaultMaxErrors = 50

	// DepFileExt is the extension of persisted dependency records.
	DepFileExt = ".deps"

	// SrcDirName is the generated source directory below a layer's runtime build directory.
	SrcDirName = "src"

	// ClassesDirName is the compiled output directory below a layer's runtime build directory.
	ClassesDirName = "classes"

	// SocketFileName is the name of the introspection socket.
	SocketFileName = "strata.sock"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644

	// PrivateFilePerm is the default permission for private files (rw-------).
	PrivateFilePerm = 0o600

	// SocketPerm restricts the introspection socket to its owner (rw-------).
	SocketPerm = 0o600
)

// DefaultStrataPath returns the default root directory for strata metadata.
func DefaultStrataPath() string {
	return StrataDirName
}

// DefaultStorePath returns the default path for the build info store.
// It joins .strata and store.
func DefaultStorePath() string {
	return filepath.Join(StrataDirName, StoreDirName)
}

// DefaultSocketPath returns the default introspection socket path below root.
func DefaultSocketPath(root string) string {
	return filepath.Join(root, StrataDirName, SocketFileName)
}

// StagingPath returns the staging directory for a runtime, layer and phase below root.
func StagingPath(root, runtime, layer string, phase BuildPhase) string {
	return filepath.Join(root, StrataDirName, StagingDirName, runtime, SanitizeLayerName(layer), phase.String())
}

// DepFileName returns the dependency record file name for a layer and phase.
// Records from different layers sharing one generated directory never collide.
func DepFileName(layer string, phase BuildPhase) string {
	return "." + SanitizeLayerName(layer) + "." + phase.String() + DepFileExt
}

// IsDepFileName reports whether name is a dependency record file name.
func IsDepFileName(name string) bool {
	return strings.HasPrefix(name, ".") && strings.HasSuffix(name, DepFileExt)
}

// SanitizeLayerName turns a slash separated layer name into a single path element.
func SanitizeLayerName(layer string) string {
	return strings.ReplaceAll(layer, "/", ".")
}
