// Package depfile persists dependency records as msgpack files next to the generated sources.
package depfile

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports"
	"go.trai.ch/zerr"
)

const schemaVersion uint16 = 1

type envelope struct {
	Schema uint16                 `msgpack:"schema"`
	Record *domain.DependencyFile `msgpack:"record"`
}

type cached struct {
	record  *domain.DependencyFile
	modTime time.Time
	size    int64
}

// Store implements ports.DependencyStore.
// Records read once are kept in memory until the file on disk changes.
type Store struct {
	logger ports.Logger

	mu    sync.RWMutex
	cache map[string]cached
}

// NewStore creates a new dependency record store.
func NewStore(logger ports.Logger) *Store {
	return &Store{
		logger: logger,
		cache:  make(map[string]cached),
	}
}

// Path returns the location of a record.
func (s *Store) Path(buildSrcDir, layer, relDir string, phase domain.BuildPhase) string {
	return filepath.Join(buildSrcDir, filepath.FromSlash(relDir), domain.DepFileName(layer, phase))
}

// Read loads the record at path.
// A missing, unreadable, corrupt or outdated record is reported as absent so the directory
// is rebuilt.
func (s *Store) Read(path string) (*domain.DependencyFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.unreadable(path, err)
		}
		s.forget(path)
		return nil, nil
	}

	s.mu.RLock()
	c, ok := s.cache[path]
	s.mu.RUnlock()
	if ok && c.modTime.Equal(info.ModTime()) && c.size == info.Size() {
		return loaded(c.record, info.ModTime()), nil
	}

	//nolint:gosec // Path is built from the layer build directory
	data, err := os.ReadFile(path)
	if err != nil {
		s.unreadable(path, err)
		s.forget(path)
		return nil, nil
	}

	var env envelope
	if err := msgpack.NewDecoder(bytes.NewReader(data)).Decode(&env); err != nil || env.Record == nil {
		s.logger.Warn(domain.ErrDependencyFileCorrupt.Error() + ", ignoring " + path)
		s.forget(path)
		return nil, nil
	}
	if env.Schema != schemaVersion {
		s.logger.Warn("ignoring dependency record with unknown schema " + path)
		s.forget(path)
		return nil, nil
	}

	s.mu.Lock()
	s.cache[path] = cached{record: env.Record, modTime: info.ModTime(), size: info.Size()}
	s.mu.Unlock()

	return loaded(env.Record, info.ModTime()), nil
}

func (s *Store) unreadable(path string, err error) {
	s.logger.Warn(domain.ErrDependencyFileUnreadable.Error() + ", ignoring " + path + ": " + err.Error())
}

// Write persists df atomically and stamps the file with buildStart.
func (s *Store) Write(path string, df *domain.DependencyFile, buildStart time.Time) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrDependencyFileWriteFailed.Error()), "path", path)
	}

	f, err := os.CreateTemp(dir, ".deps-*")
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrDependencyFileWriteFailed.Error()), "path", path)
	}
	tmp := f.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmp)
		}
	}()

	if err := msgpack.NewEncoder(f).Encode(envelope{Schema: schemaVersion, Record: df}); err != nil {
		_ = f.Close()
		return zerr.With(zerr.Wrap(err, domain.ErrDependencyFileWriteFailed.Error()), "path", path)
	}
	if err := f.Close(); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrDependencyFileWriteFailed.Error()), "path", path)
	}
	if err := os.Rename(tmp, path); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrDependencyFileWriteFailed.Error()), "path", path)
	}
	committed = true

	if err := os.Chtimes(path, buildStart, buildStart); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrDependencyFileWriteFailed.Error()), "path", path)
	}

	info, err := os.Stat(path)
	if err != nil {
		s.forget(path)
	} else {
		s.mu.Lock()
		s.cache[path] = cached{record: df.Clone(), modTime: info.ModTime(), size: info.Size()}
		s.mu.Unlock()
		df.LastBuild = info.ModTime()
	}

	df.ClearChanged()
	return nil
}

// Delete removes the record at path. A missing record is not an error.
func (s *Store) Delete(path string) error {
	s.forget(path)
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return zerr.With(zerr.Wrap(err, domain.ErrOutputRemoveFailed.Error()), "path", path)
	}
	return nil
}

func (s *Store) forget(path string) {
	s.mu.Lock()
	delete(s.cache, path)
	s.mu.Unlock()
}

func loaded(record *domain.DependencyFile, modTime time.Time) *domain.DependencyFile {
	out := record.Clone()
	out.LastBuild = modTime
	out.ClearChanged()
	return out
}
