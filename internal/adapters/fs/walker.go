// Package fs provides file system adapters for listing, walking, hashing and
// replacing build files.
package fs

import (
	"io/fs"
	"iter"
	"path/filepath"
	"strings"
)

// Walker provides file walking functionality.
type Walker struct{}

// NewWalker creates a new Walker.
func NewWalker() *Walker {
	return &Walker{}
}

// WalkFiles yields every file below root. Hidden directories and directories
// matching an ignore pattern are skipped.
func (w *Walker) WalkFiles(root string, ignores []string) iter.Seq[string] {
	return w.walk(root, ignores, false)
}

// WalkDirs yields root and every directory below it, with the same skipping rules as WalkFiles.
func (w *Walker) WalkDirs(root string, ignores []string) iter.Seq[string] {
	return w.walk(root, ignores, true)
}

func (w *Walker) walk(root string, ignores []string, dirs bool) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if path != root {
				switch w.shouldSkip(d, ignores) {
				case skipDir:
					return filepath.SkipDir
				case skipEntry:
					return nil
				}
			}

			if d.IsDir() != dirs {
				return nil
			}
			if !yield(path) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

type skipAction int

const (
	keep skipAction = iota
	skipDir
	skipEntry
)

func (w *Walker) shouldSkip(d fs.DirEntry, ignores []string) skipAction {
	name := d.Name()

	if d.IsDir() && strings.HasPrefix(name, ".") {
		return skipDir
	}

	for _, ignore := range ignores {
		if matched, _ := filepath.Match(ignore, name); matched {
			if d.IsDir() {
				return skipDir
			}
			return skipEntry
		}
	}

	return keep
}
