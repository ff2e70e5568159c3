// Package config provides the workspace and layer definition loaders for strata.
package config

import (
	"errors"
	"io/fs"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	Logger ports.Logger
	FS     FileSystem
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger, FS: NewOSFS()}
}

const workspaceVersion = "1"

var validRuntimeNameRegex = regexp.MustCompile("^[a-zA-Z0-9_-]+$")

// Load finds strata.yaml at or above cwd and returns the workspace.
func (l *Loader) Load(cwd string) (*domain.Workspace, error) {
	root, err := l.DiscoverRoot(cwd)
	if err != nil {
		return nil, err
	}

	configPath := filepath.Join(root, domain.WorkspaceFileName)
	var wf WorkspaceFile
	if err := l.readAndUnmarshalYAML(configPath, &wf); err != nil {
		return nil, zerr.With(err, "path", configPath)
	}

	ws, err := l.buildWorkspace(root, &wf)
	if err != nil {
		return nil, zerr.With(err, "path", configPath)
	}
	return ws, nil
}

// DiscoverRoot walks up from cwd to find the directory containing strata.yaml.
func (l *Loader) DiscoverRoot(cwd string) (string, error) {
	absCwd, err := filepath.Abs(cwd)
	if err != nil {
		return "", zerr.Wrap(err, domain.ErrFailedToGetRoot.Error())
	}

	currentDir := absCwd
	for {
		candidate := filepath.Join(currentDir, domain.WorkspaceFileName)
		if _, err := l.FS.Stat(candidate); err == nil {
			return currentDir, nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return "", zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "path", candidate)
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			// Reached root
			break
		}
		currentDir = parentDir
	}

	return "", zerr.With(domain.ErrConfigNotFound, "cwd", cwd)
}

func (l *Loader) buildWorkspace(root string, wf *WorkspaceFile) (*domain.Workspace, error) {
	if wf.Version != "" && wf.Version != workspaceVersion {
		return nil, zerr.With(domain.ErrInvalidConfig, "version", wf.Version)
	}

	ws := &domain.Workspace{
		Root:      root,
		BuildDir:  resolvePath(root, wf.BuildDir, domain.DefaultBuildDir),
		MaxErrors: wf.MaxErrors,
	}

	switch {
	case wf.MaxErrors < 0:
		return nil, zerr.With(domain.ErrInvalidConfig, "maxErrors", wf.MaxErrors)
	case wf.MaxErrors == 0:
		ws.MaxErrors = domain.DefaultMaxErrors
	}

	layerPath := wf.LayerPath
	if len(layerPath) == 0 {
		layerPath = []string{domain.DefaultLayerPath}
	}
	for _, p := range layerPath {
		abs := resolvePath(root, p, domain.DefaultLayerPath)
		if !slices.Contains(ws.LayerPath, abs) {
			ws.LayerPath = append(ws.LayerPath, abs)
		}
	}

	processors, err := buildProcessors(wf.Processors)
	if err != nil {
		return nil, err
	}
	if len(processors) == 0 {
		l.Logger.Warn("no processors configured in " + domain.WorkspaceFileName + "; no source file will be built")
	}
	ws.Processors = processors

	runtimes, err := buildRuntimes(wf.Runtimes)
	if err != nil {
		return nil, err
	}
	ws.Runtimes = runtimes

	return ws, nil
}

func buildProcessors(dtos []*ProcessorDTO) ([]domain.Processor, error) {
	out := make([]domain.Processor, 0, len(dtos))
	seen := make(map[string]bool, len(dtos))
	for _, dto := range dtos {
		if dto == nil {
			continue
		}
		if !strings.HasPrefix(dto.Ext, ".") || len(dto.Ext) < 2 {
			return nil, zerr.With(domain.ErrInvalidConfig, "processor_ext", dto.Ext)
		}
		phase := domain.PhaseProcess
		if dto.Phase != "" {
			p, err := domain.ParseBuildPhase(dto.Phase)
			if err != nil {
				return nil, zerr.With(err, "processor_ext", dto.Ext)
			}
			phase = p
		}
		key := dto.Ext + "@" + phase.String()
		if seen[key] {
			err := zerr.With(domain.ErrInvalidConfig, "duplicate_processor", dto.Ext)
			return nil, zerr.With(err, "phase", phase.String())
		}
		seen[key] = true

		out = append(out, domain.Processor{
			Ext:                 dto.Ext,
			Phase:               phase,
			ProducesTypes:       dto.ProducesTypes,
			NeedsCompile:        dto.NeedsCompile,
			PrependLayerPackage: dto.PrependLayerPackage,
		})
	}
	return out, nil
}

func buildRuntimes(dtos []*RuntimeDTO) ([]domain.Runtime, error) {
	if len(dtos) == 0 {
		return nil, zerr.With(domain.ErrInvalidConfig, "runtimes", "none configured")
	}

	out := make([]domain.Runtime, 0, len(dtos))
	seen := make(map[string]bool, len(dtos))
	for _, dto := range dtos {
		if dto == nil {
			continue
		}
		if !validRuntimeNameRegex.MatchString(dto.Name) {
			return nil, zerr.With(domain.ErrInvalidConfig, "runtime", dto.Name)
		}
		if seen[dto.Name] {
			return nil, zerr.With(domain.ErrInvalidConfig, "duplicate_runtime", dto.Name)
		}
		seen[dto.Name] = true

		if len(dto.Layers) == 0 {
			return nil, zerr.With(domain.ErrNoTargetsSpecified, "runtime", dto.Name)
		}
		for _, name := range dto.Layers {
			if err := domain.ValidateLayerName(name); err != nil {
				return nil, zerr.With(err, "runtime", dto.Name)
			}
		}

		rt := domain.Runtime{Name: dto.Name}
		for _, name := range dto.Layers {
			if !slices.Contains(rt.Layers, name) {
				rt.Layers = append(rt.Layers, name)
			}
		}
		if dto.Compiler != nil {
			rt.Compiler = domain.CompilerConfig{
				Command: dto.Compiler.Command,
				Debug:   dto.Compiler.Debug,
				Benign:  dto.Compiler.Benign,
				Env:     dto.Compiler.Env,
			}
		}
		out = append(out, rt)
	}
	return out, nil
}

// resolvePath makes configured relative to root, falling back to def when it is empty.
func resolvePath(root, configured, def string) string {
	if configured == "" {
		configured = def
	}
	if filepath.IsAbs(configured) {
		return filepath.Clean(configured)
	}
	return filepath.Clean(filepath.Join(root, configured))
}

// readAndUnmarshalYAML reads a YAML file and unmarshals it into the target struct.
func (l *Loader) readAndUnmarshalYAML(configPath string, target *WorkspaceFile) error {
	configFile, err := l.FS.ReadFile(configPath)
	if err != nil {
		return zerr.Wrap(err, domain.ErrConfigReadFailed.Error())
	}

	if parseErr := yaml.Unmarshal(configFile, target); parseErr != nil {
		return zerr.Wrap(parseErr, domain.ErrConfigParseFailed.Error())
	}

	return nil
}
