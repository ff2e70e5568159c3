package watcher

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"slices"
	"strings"
	"sync"
	"unique"

	strfs "go.trai.ch/strata/internal/adapters/fs"
)

// FileHasher hashes a batch of files.
type FileHasher interface {
	HashFiles(ctx context.Context, paths []string) (map[string]string, error)
}

// ContentFilter remembers the content hash of every watched file so that
// events which leave a file unchanged (touch, editor save without edits) do
// not trigger a rebuild.
type ContentFilter struct {
	hasher  FileHasher
	walker  *strfs.Walker
	ignores []string

	mu     sync.Mutex
	hashes map[unique.Handle[string]]string
}

// NewContentFilter creates an empty filter.
func NewContentFilter(hasher FileHasher, walker *strfs.Walker, ignores []string) *ContentFilter {
	return &ContentFilter{
		hasher:  hasher,
		walker:  walker,
		ignores: ignores,
		hashes:  make(map[unique.Handle[string]]string),
	}
}

// Seed records the current hash of every file below root.
func (f *ContentFilter) Seed(ctx context.Context, root string) error {
	paths := slices.Collect(f.walker.WalkFiles(root, f.ignores))
	sums, err := f.hasher.HashFiles(ctx, paths)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for p, sum := range sums {
		f.hashes[unique.Make(p)] = sum
	}
	return nil
}

// Changed returns the paths whose content differs from the last recorded state,
// including files that appeared or disappeared, and records the new state.
// Directories below a changed path are expanded to the files they contain.
func (f *ContentFilter) Changed(ctx context.Context, paths []string) ([]string, error) {
	var files, gone []string
	for _, p := range paths {
		info, err := os.Stat(p)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			gone = append(gone, p)
		case err != nil:
			return nil, err
		case info.IsDir():
			files = append(files, slices.Collect(f.walker.WalkFiles(p, f.ignores))...)
		default:
			files = append(files, p)
		}
	}

	sums, err := f.hasher.HashFiles(ctx, files)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	var changed []string
	for _, p := range files {
		key := unique.Make(p)
		if old, ok := f.hashes[key]; !ok || old != sums[p] {
			changed = append(changed, p)
			f.hashes[key] = sums[p]
		}
	}
	for _, p := range gone {
		key := unique.Make(p)
		if _, ok := f.hashes[key]; ok {
			delete(f.hashes, key)
			changed = append(changed, p)
			continue
		}
		// A removed directory: forget everything below it.
		prefix := p + string(os.PathSeparator)
		for k := range f.hashes {
			if strings.HasPrefix(k.Value(), prefix) {
				delete(f.hashes, k)
				changed = append(changed, k.Value())
			}
		}
	}

	slices.Sort(changed)
	return slices.Compact(changed), nil
}
