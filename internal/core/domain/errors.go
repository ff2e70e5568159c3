package domain

import "go.trai.ch/zerr"

var (
	// ErrConfigNotFound is returned when no workspace file can be found.
	ErrConfigNotFound = zerr.New("could not find strata.yaml")

	// ErrConfigReadFailed is returned when a configuration file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when a configuration file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrInvalidConfig is returned when a configuration value is out of range or malformed.
	ErrInvalidConfig = zerr.New("invalid configuration")

	// ErrUnknownConfigKey is returned when a layer definition contains keys strata does not know.
	ErrUnknownConfigKey = zerr.New("unknown key in layer definition")

	// ErrLayerNotFound is returned when no definition exists for a layer name.
	ErrLayerNotFound = zerr.New("layer not found")

	// ErrDuplicateLayerDefinition is returned when a layer name resolves to more than one definition on disk.
	ErrDuplicateLayerDefinition = zerr.New("layer has more than one definition")

	// ErrLayerCycle is returned when layer extends relations form a cycle.
	ErrLayerCycle = zerr.New("layer extends cycle detected")

	// ErrLayerInUse is returned when removing a layer that another registered layer extends.
	ErrLayerInUse = zerr.New("layer is extended by another layer")

	// ErrInvalidLayerName is returned when a layer name contains invalid characters.
	ErrInvalidLayerName = zerr.New("invalid layer name")

	// ErrUnknownRuntime is returned when a requested runtime is not configured.
	ErrUnknownRuntime = zerr.New("unknown runtime")

	// ErrNoTargetsSpecified is returned when a build has no target layers.
	ErrNoTargetsSpecified = zerr.New("no target layers specified")

	// ErrDependencyFileCorrupt is reported when a dependency record cannot be decoded.
	ErrDependencyFileCorrupt = zerr.New("dependency record is corrupt")

	// ErrDependencyFileUnreadable is reported when a dependency record exists but cannot be read.
	ErrDependencyFileUnreadable = zerr.New("dependency record is unreadable")

	// ErrDependencyFileWriteFailed is returned when a dependency record cannot be persisted.
	ErrDependencyFileWriteFailed = zerr.New("failed to write dependency record")

	// ErrDirectoryListFailed is returned when a source directory cannot be listed.
	ErrDirectoryListFailed = zerr.New("failed to list source directory")

	// ErrStoreCreateFailed is returned when the build info store directory cannot be created.
	ErrStoreCreateFailed = zerr.New("failed to create build info store directory")

	// ErrStoreReadFailed is returned when the build info cannot be read.
	ErrStoreReadFailed = zerr.New("failed to read build info")

	// ErrStoreUnmarshalFailed is returned when the build info cannot be unmarshaled.
	ErrStoreUnmarshalFailed = zerr.New("failed to unmarshal build info")

	// ErrStoreMarshalFailed is returned when the build info cannot be marshaled.
	ErrStoreMarshalFailed = zerr.New("failed to marshal build info")

	// ErrStoreWriteFailed is returned when the build info cannot be written.
	ErrStoreWriteFailed = zerr.New("failed to write build info")

	// ErrParseFailed is returned when a source file fails to parse or typecheck.
	ErrParseFailed = zerr.New("parse failed")

	// ErrGenerateFailed is returned when code generation for a unit fails.
	ErrGenerateFailed = zerr.New("code generation failed")

	// ErrCompileFailed is returned when the native compiler reports a failure.
	ErrCompileFailed = zerr.New("compile failed")

	// ErrPhaseFailed is returned when a build phase finishes with errors.
	ErrPhaseFailed = zerr.New("build phase failed")

	// ErrBuildExecutionFailed is returned when the build execution fails.
	ErrBuildExecutionFailed = zerr.New("build execution failed")

	// ErrBuildCanceled is returned when a build is aborted between phases.
	ErrBuildCanceled = zerr.New("build canceled")

	// ErrTooManyErrors is returned when the error log reaches its cap.
	ErrTooManyErrors = zerr.New("too many errors, aborting")

	// ErrInvalidTransition is returned when a build state transition is not allowed.
	ErrInvalidTransition = zerr.New("invalid build state transition")

	// ErrFileOpenFailed is returned when a file cannot be opened.
	ErrFileOpenFailed = zerr.New("failed to open file")

	// ErrFileHashFailed is returned when hashing a file fails.
	ErrFileHashFailed = zerr.New("failed to hash file content")

	// ErrPathStatFailed is returned when stating a path fails.
	ErrPathStatFailed = zerr.New("failed to stat path")

	// ErrOutputRemoveFailed is returned when a stale generated output cannot be removed.
	ErrOutputRemoveFailed = zerr.New("failed to remove generated output")

	// ErrOutputMoveFailed is returned when a staged output cannot be moved into place.
	ErrOutputMoveFailed = zerr.New("failed to move generated output into place")

	// ErrFailedToGetRoot is returned when the workspace root path cannot be determined.
	ErrFailedToGetRoot = zerr.New("failed to get absolute path of workspace root")

	// ErrDaemonNotRunning is returned when no introspection server answers on the socket.
	ErrDaemonNotRunning = zerr.New("no build is running")

	// ErrWatcherFailed is returned when the file watcher cannot be started.
	ErrWatcherFailed = zerr.New("failed to start file watcher")

	// ErrInvalidOutputMode is returned when the requested output mode is unknown.
	ErrInvalidOutputMode = zerr.New("invalid output mode")

	// ErrMetricsServeFailed is returned when the metrics endpoint cannot listen.
	ErrMetricsServeFailed = zerr.New("failed to serve metrics")

	// ErrIntrospectionFailed is returned when the introspection server cannot start or answer.
	ErrIntrospectionFailed = zerr.New("introspection request failed")

	// ErrNotASourceFile is returned when a path is not an input of any build unit.
	ErrNotASourceFile = zerr.New("not a source file of any build layer")

	// ErrCleanFailed is returned when build output cannot be removed.
	ErrCleanFailed = zerr.New("failed to remove build output")

	// ErrBuildRunning is returned when an operation needs the workspace while a build holds it.
	ErrBuildRunning = zerr.New("a build is running in this workspace")
)
