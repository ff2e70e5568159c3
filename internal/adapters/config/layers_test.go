package config_test

import (
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/strata/internal/adapters/config"
	"go.trai.ch/strata/internal/core/domain"
)

func TestLayerSource_FindLayer(t *testing.T) {
	rootDir := t.TempDir()
	layers := filepath.Join(rootDir, "layers")
	createFile(t, layers, "base/layer.toml", `
[layer]
package = "com.example.base"
`)
	createFile(t, layers, "app/web/layer.toml", `
[layer]
package = "com.example.web"
extends = ["base"]
dynamic = true
buildSeparate = true
buildLayer = true
sources = "java"
`)

	source := config.NewLayerSource(config.NewOSFS(), []string{layers})

	defs, err := source.FindLayer("base")
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, domain.LayerDefinition{
		Name:      "base",
		Path:      filepath.Join(layers, "base", domain.LayerFileName),
		Dir:       filepath.Join(layers, "base"),
		Package:   "com.example.base",
		SourceDir: filepath.Join(layers, "base", config.DefaultSourcesDir),
	}, defs[0])

	defs, err = source.FindLayer("app/web")
	require.NoError(t, err)
	require.Len(t, defs, 1)
	web := defs[0]
	assert.Equal(t, []string{"base"}, web.Extends)
	assert.True(t, web.Dynamic)
	assert.True(t, web.BuildSeparate)
	assert.True(t, web.BuildLayer)
	assert.Equal(t, filepath.Join(layers, "app", "web", "java"), web.SourceDir)

	defs, err = source.FindLayer("missing")
	require.NoError(t, err)
	assert.Empty(t, defs)
}

func TestLayerSource_FindLayer_Duplicate(t *testing.T) {
	fsys := fstest.MapFS{
		"ws/layers/app/layer.toml": &fstest.MapFile{Data: []byte("[layer]\n")},
		"ws/extra/app/layer.toml":  &fstest.MapFile{Data: []byte("[layer]\npackage = \"x\"\n")},
	}
	source := config.NewLayerSource(config.NewRootedFS("/", fsys), []string{"/ws/layers", "/ws/extra"})

	defs, err := source.FindLayer("app")
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, "/ws/layers/app/layer.toml", defs[0].Path)
	assert.Equal(t, "/ws/extra/app/layer.toml", defs[1].Path)
}

func TestLayerSource_FindLayer_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		layer   string
		content string
		wantErr string
	}{
		{
			name:    "unknown key",
			layer:   "app",
			content: "[layer]\npackage = \"a\"\nexport = true\n",
			wantErr: domain.ErrUnknownConfigKey.Error(),
		},
		{
			name:    "missing layer table",
			layer:   "app",
			content: "",
			wantErr: domain.ErrInvalidConfig.Error(),
		},
		{
			name:    "malformed toml",
			layer:   "app",
			content: "[layer\n",
			wantErr: domain.ErrConfigParseFailed.Error(),
		},
		{
			name:    "extends itself",
			layer:   "app",
			content: "[layer]\nextends = [\"app\"]\n",
			wantErr: domain.ErrLayerCycle.Error(),
		},
		{
			name:    "sources escape layer",
			layer:   "app",
			content: "[layer]\nsources = \"../other\"\n",
			wantErr: domain.ErrInvalidConfig.Error(),
		},
		{
			name:    "invalid extends name",
			layer:   "app",
			content: "[layer]\nextends = [\"a b\"]\n",
			wantErr: domain.ErrInvalidLayerName.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := fstest.MapFS{
				"layers/" + tt.layer + "/layer.toml": &fstest.MapFile{Data: []byte(tt.content)},
			}
			source := config.NewLayerSource(config.NewRootedFS("/", fsys), []string{"/layers"})

			_, err := source.FindLayer(tt.layer)
			require.Error(t, err)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestLayerSource_FindLayer_InvalidName(t *testing.T) {
	source := config.NewLayerSource(config.NewOSFS(), []string{t.TempDir()})
	_, err := source.FindLayer("../escape")
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrInvalidLayerName.Error())
}
