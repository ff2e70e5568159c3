// Package cas implements content-addressed storage of layer build info.
package cas

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.BuildInfoStore = (*Store)(nil)

// Store implements ports.BuildInfoStore using one JSON file per runtime and layer.
type Store struct{}

// NewStore creates a new BuildInfoStore. Every operation names the workspace root it works in.
func NewStore() (*Store, error) {
	return &Store{}, nil
}

// Get retrieves the build info of a runtime's layer.
func (s *Store) Get(root, runtime, layer string) (*domain.BuildInfo, error) {
	return s.read(s.getFilename(root, domain.BuildInfoKey(runtime, layer)))
}

func (s *Store) read(filename string) (*domain.BuildInfo, error) {
	//nolint:gosec // Path is constructed from trusted directory and hashed filename
	data, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.Wrap(err, domain.ErrStoreReadFailed.Error())
	}

	var info domain.BuildInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrStoreUnmarshalFailed.Error()), "path", filename)
	}

	return &info, nil
}

// Put stores the build info.
func (s *Store) Put(root string, info domain.BuildInfo) error {
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return zerr.Wrap(err, domain.ErrStoreMarshalFailed.Error())
	}

	filename := s.getFilename(root, info.Key())
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return zerr.Wrap(err, domain.ErrStoreCreateFailed.Error())
	}

	//nolint:gosec // Path is constructed from trusted directory and hashed filename
	if err := os.WriteFile(filename, data, domain.FilePerm); err != nil {
		return zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())
	}

	return nil
}

// List returns every stored build info of runtime, in no particular order.
func (s *Store) List(root, runtime string) ([]*domain.BuildInfo, error) {
	storeDir := filepath.Join(root, domain.DefaultStorePath())
	entries, err := os.ReadDir(storeDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.Wrap(err, domain.ErrStoreReadFailed.Error())
	}

	var out []*domain.BuildInfo
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		info, err := s.read(filepath.Join(storeDir, e.Name()))
		if err != nil {
			return nil, err
		}
		if info != nil && info.Runtime == runtime {
			out = append(out, info)
		}
	}
	return out, nil
}

// Merged folds every stored build info of runtime in layer position order.
func (s *Store) Merged(root, runtime string) (domain.BuildInfo, error) {
	infos, err := s.List(root, runtime)
	if err != nil {
		return domain.BuildInfo{}, err
	}
	return domain.MergeBuildInfo(infos), nil
}

func (s *Store) getFilename(root, key string) string {
	hash := sha256.Sum256([]byte(key))
	hexHash := hex.EncodeToString(hash[:])
	storeDir := filepath.Join(root, domain.DefaultStorePath())
	return filepath.Join(storeDir, hexHash+".json")
}
