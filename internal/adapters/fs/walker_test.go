package fs_test

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/strata/internal/adapters/fs"
)

// layerTree creates a small workspace and returns its root.
func layerTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for _, f := range []string{
		"strata.yaml",
		"layers/base/layer.toml",
		"layers/base/src/Widget.strata",
		"layers/app/src/Screen.strata",
		"layers/app/src/ui/Dialog.strata",
		"layers/app/src/Screen.strata~",
		"build/app/src/Screen.gen",
		".git/HEAD",
		".strata/store/info",
	} {
		p := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
		require.NoError(t, os.WriteFile(p, []byte(f), 0o600))
	}
	return root
}

func rel(t *testing.T, root string, paths []string) []string {
	t.Helper()
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		r, err := filepath.Rel(root, p)
		require.NoError(t, err)
		out = append(out, filepath.ToSlash(r))
	}
	slices.Sort(out)
	return out
}

func TestWalker_WalkFiles(t *testing.T) {
	tests := []struct {
		name    string
		sub     string
		ignores []string
		want    []string
	}{
		{
			name: "hidden directories skipped",
			want: []string{
				"build/app/src/Screen.gen",
				"layers/app/src/Screen.strata",
				"layers/app/src/Screen.strata~",
				"layers/app/src/ui/Dialog.strata",
				"layers/base/layer.toml",
				"layers/base/src/Widget.strata",
				"strata.yaml",
			},
		},
		{
			name:    "ignored directory and file pattern",
			ignores: []string{"build", "*~"},
			want: []string{
				"layers/app/src/Screen.strata",
				"layers/app/src/ui/Dialog.strata",
				"layers/base/layer.toml",
				"layers/base/src/Widget.strata",
				"strata.yaml",
			},
		},
		{
			name:    "rooted below the workspace",
			sub:     "layers/app",
			ignores: []string{"*~"},
			want: []string{
				"layers/app/src/Screen.strata",
				"layers/app/src/ui/Dialog.strata",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := layerTree(t)
			start := filepath.Join(root, filepath.FromSlash(tt.sub))

			got := slices.Collect(fs.NewWalker().WalkFiles(start, tt.ignores))
			assert.Equal(t, tt.want, rel(t, root, got))
		})
	}
}

func TestWalker_WalkDirs(t *testing.T) {
	root := layerTree(t)

	got := slices.Collect(fs.NewWalker().WalkDirs(root, []string{"build"}))
	assert.Equal(t, []string{
		".",
		"layers",
		"layers/app",
		"layers/app/src",
		"layers/app/src/ui",
		"layers/base",
		"layers/base/src",
	}, rel(t, root, got))
}

func TestWalker_StopEarly(t *testing.T) {
	root := layerTree(t)

	var seen int
	for range fs.NewWalker().WalkFiles(root, nil) {
		seen++
		if seen == 2 {
			break
		}
	}
	assert.Equal(t, 2, seen)
}

func TestWalker_Missing(t *testing.T) {
	got := slices.Collect(fs.NewWalker().WalkFiles(filepath.Join(t.TempDir(), "absent"), nil))
	assert.Empty(t, got)
}
