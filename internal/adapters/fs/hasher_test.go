package fs_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/strata/internal/adapters/fs"
	"go.trai.ch/strata/internal/core/domain"
)

func TestHasher_HashFile(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a")
	b := filepath.Join(dir, "b")
	require.NoError(t, os.WriteFile(a, []byte("content"), 0o600))
	require.NoError(t, os.WriteFile(b, []byte("content"), 0o600))

	h := fs.NewHasher()
	ha, err := h.HashFile(a)
	require.NoError(t, err)
	hb, err := h.HashFile(b)
	require.NoError(t, err)

	assert.Len(t, ha, 16)
	assert.Equal(t, ha, hb)
	assert.Equal(t, ha, h.HashBytes([]byte("content")))
	assert.NotEqual(t, ha, h.HashBytes([]byte("other")))
}

func TestHasher_HashFile_Missing(t *testing.T) {
	_, err := fs.NewHasher().HashFile(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrFileOpenFailed.Error())
}

func TestHasher_HashFiles(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for _, name := range []string{"a", "b", "c"} {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(name), 0o600))
		paths = append(paths, p)
	}

	h := fs.NewHasher()
	sums, err := h.HashFiles(t.Context(), paths)
	require.NoError(t, err)
	require.Len(t, sums, 3)
	assert.Equal(t, h.HashBytes([]byte("b")), sums[paths[1]])

	_, err = h.HashFiles(t.Context(), append(paths, filepath.Join(dir, "missing")))
	require.Error(t, err)
}
