package fs

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports"
	"go.trai.ch/zerr"
)

var (
	_ ports.FileSystem = (*Files)(nil)
	_ ports.OutputFS   = (*Files)(nil)
)

// Files is the local file system as seen by the build engine.
type Files struct{}

// NewFiles creates a new Files.
func NewFiles() *Files {
	return &Files{}
}

// ListDir returns the entries of dir sorted by name. A missing directory has no entries.
func (f *Files) ListDir(dir string) ([]domain.FileStat, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.With(zerr.Wrap(err, domain.ErrDirectoryListFailed.Error()), "dir", dir)
	}

	out := make([]domain.FileStat, 0, len(entries))
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, zerr.With(zerr.Wrap(err, domain.ErrPathStatFailed.Error()), "path", filepath.Join(dir, e.Name()))
		}
		out = append(out, domain.FileStat{Name: e.Name(), IsDir: e.IsDir(), ModTime: info.ModTime()})
	}
	slices.SortFunc(out, func(a, b domain.FileStat) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

// Stat returns metadata for path. The boolean is false when path does not exist.
func (f *Files) Stat(path string) (domain.FileStat, bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.FileStat{}, false, nil
		}
		return domain.FileStat{}, false, zerr.With(zerr.Wrap(err, domain.ErrPathStatFailed.Error()), "path", path)
	}
	return domain.FileStat{Name: info.Name(), IsDir: info.IsDir(), ModTime: info.ModTime()}, true, nil
}

// Promote moves a staged file to target, creating parent directories.
func (f *Files) Promote(staged, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrOutputMoveFailed.Error()), "path", target)
	}
	if err := os.Rename(staged, target); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrOutputMoveFailed.Error()), "path", target)
	}
	return nil
}

// Remove deletes path. A missing path is not an error.
func (f *Files) Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return zerr.With(zerr.Wrap(err, domain.ErrOutputRemoveFailed.Error()), "path", path)
	}
	return nil
}

// Touch sets the modification time of path.
func (f *Files) Touch(path string, t time.Time) error {
	if err := os.Chtimes(path, t, t); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrPathStatFailed.Error()), "path", path)
	}
	return nil
}

// ResetDir removes dir with its contents and creates it empty.
func (f *Files) ResetDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrOutputRemoveFailed.Error()), "dir", dir)
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrOutputMoveFailed.Error()), "dir", dir)
	}
	return nil
}
