package config

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileSystem reads workspace and layer definition files.
type FileSystem interface {
	Stat(path string) (fs.FileInfo, error)
	ReadFile(path string) ([]byte, error)
}

// OSFS reads definitions from the host filesystem.
type OSFS struct{}

// NewOSFS creates a new OSFS instance.
func NewOSFS() *OSFS {
	return &OSFS{}
}

// Stat implements FileSystem.
func (OSFS) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

// ReadFile implements FileSystem.
func (OSFS) ReadFile(path string) ([]byte, error) {
	// #nosec G304 -- definition paths come from the workspace layout
	return os.ReadFile(path)
}

// RootedFS serves absolute paths below Root from an fs.FS, typically an fstest.MapFS.
// Paths outside Root do not exist.
type RootedFS struct {
	FS   fs.FS
	Root string
}

// NewRootedFS creates a RootedFS mounting fsys at root.
func NewRootedFS(root string, fsys fs.FS) *RootedFS {
	return &RootedFS{FS: fsys, Root: filepath.Clean(root)}
}

// Stat implements FileSystem.
func (r *RootedFS) Stat(path string) (fs.FileInfo, error) {
	name, err := r.name("stat", path)
	if err != nil {
		return nil, err
	}
	return fs.Stat(r.FS, name)
}

// ReadFile implements FileSystem.
func (r *RootedFS) ReadFile(path string) ([]byte, error) {
	name, err := r.name("open", path)
	if err != nil {
		return nil, err
	}
	return fs.ReadFile(r.FS, name)
}

// name maps path to a slash-separated fs.FS name.
func (r *RootedFS) name(op, path string) (string, error) {
	rel := path
	if filepath.IsAbs(path) {
		var err error
		rel, err = filepath.Rel(r.Root, path)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return "", &fs.PathError{Op: op, Path: path, Err: fs.ErrNotExist}
		}
	}
	name := filepath.ToSlash(rel)
	if !fs.ValidPath(name) {
		return "", &fs.PathError{Op: op, Path: path, Err: fs.ErrInvalid}
	}
	return name, nil
}
