package config

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/zerr"
)

// DefaultSourcesDir is the source root used when a layer definition does not name one.
const DefaultSourcesDir = "src"

// LayerSource implements ports.LayerSource by searching the workspace layer path.
// A layer named a/b lives in <root>/a/b/layer.toml for one of the roots.
type LayerSource struct {
	fs    FileSystem
	roots []string
}

// NewLayerSource creates a LayerSource searching roots in order.
func NewLayerSource(fsys FileSystem, roots []string) *LayerSource {
	return &LayerSource{fs: fsys, roots: roots}
}

// FindLayer returns every definition of name on the layer path.
func (s *LayerSource) FindLayer(name string) ([]domain.LayerDefinition, error) {
	if err := domain.ValidateLayerName(name); err != nil {
		return nil, err
	}

	var defs []domain.LayerDefinition
	for _, root := range s.roots {
		dir := filepath.Join(root, filepath.FromSlash(name))
		path := filepath.Join(dir, domain.LayerFileName)
		if _, err := s.fs.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "path", path)
		}

		def, err := s.load(name, dir, path)
		if err != nil {
			return nil, zerr.With(err, "path", path)
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func (s *LayerSource) load(name, dir, path string) (domain.LayerDefinition, error) {
	data, err := s.fs.ReadFile(path)
	if err != nil {
		return domain.LayerDefinition{}, zerr.Wrap(err, domain.ErrConfigReadFailed.Error())
	}

	var lf LayerFile
	meta, err := toml.Decode(string(data), &lf)
	if err != nil {
		return domain.LayerDefinition{}, zerr.Wrap(err, domain.ErrConfigParseFailed.Error())
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return domain.LayerDefinition{}, zerr.With(domain.ErrUnknownConfigKey, "keys", strings.Join(keys, ", "))
	}
	if !meta.IsDefined("layer") {
		return domain.LayerDefinition{}, zerr.With(domain.ErrInvalidConfig, "missing", "[layer]")
	}

	for _, ext := range lf.Layer.Extends {
		if err := domain.ValidateLayerName(ext); err != nil {
			return domain.LayerDefinition{}, zerr.With(err, "extends", ext)
		}
		if ext == name {
			return domain.LayerDefinition{}, zerr.With(domain.ErrLayerCycle, "cycle", name+" -> "+name)
		}
	}

	sources := lf.Layer.Sources
	if sources == "" {
		sources = DefaultSourcesDir
	}
	sourceDir := filepath.Join(dir, filepath.FromSlash(sources))
	if rel, err := filepath.Rel(dir, sourceDir); err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return domain.LayerDefinition{}, zerr.With(domain.ErrInvalidConfig, "sources", sources)
	}

	return domain.LayerDefinition{
		Name:          name,
		Path:          path,
		Dir:           dir,
		Package:       lf.Layer.Package,
		Extends:       lf.Layer.Extends,
		Dynamic:       lf.Layer.Dynamic,
		BuildSeparate: lf.Layer.BuildSeparate,
		BuildLayer:    lf.Layer.BuildLayer,
		SourceDir:     sourceDir,
	}, nil
}
