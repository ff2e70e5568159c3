package watcher

import (
	"context"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.trai.ch/strata/internal/adapters/fs"
	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Watcher = (*Watcher)(nil)

// DefaultIgnores are directory names never watched.
var DefaultIgnores = []string{"node_modules", domain.DefaultBuildDir}

const changeBuffer = 128

// Watcher reports workspace changes using fsnotify.
// Directories created while watching are picked up as well.
type Watcher struct {
	notify  *fsnotify.Watcher
	walker  *fs.Walker
	logger  ports.Logger
	ignores []string
	changes chan ports.Change
	once    sync.Once
}

// NewWatcher creates a watcher skipping hidden entries and the given directory names.
func NewWatcher(walker *fs.Walker, logger ports.Logger, ignores []string) (*Watcher, error) {
	n, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrWatcherFailed.Error())
	}
	return &Watcher{
		notify:  n,
		walker:  walker,
		logger:  logger,
		ignores: ignores,
		changes: make(chan ports.Change, changeBuffer),
	}, nil
}

// Start implements ports.Watcher.
func (w *Watcher) Start(ctx context.Context, root string) error {
	if err := w.addTree(root); err != nil {
		return err
	}
	go w.loop(ctx)
	return nil
}

// Stop implements ports.Watcher.
func (w *Watcher) Stop() error {
	var err error
	w.once.Do(func() { err = w.notify.Close() })
	return err
}

// Changes implements ports.Watcher. The sequence ends once the watcher stops
// or the context given to Start is done.
func (w *Watcher) Changes() iter.Seq[ports.Change] {
	return func(yield func(ports.Change) bool) {
		for c := range w.changes {
			if !yield(c) {
				return
			}
		}
	}
}

func (w *Watcher) addTree(root string) error {
	for dir := range w.walker.WalkDirs(root, w.ignores) {
		if err := w.notify.Add(dir); err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrWatcherFailed.Error()), "path", dir)
		}
	}
	return nil
}

func (w *Watcher) skip(path string) bool {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") {
		return true
	}
	for _, pattern := range w.ignores {
		if ok, _ := filepath.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.changes)

	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-w.notify.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher: " + err.Error())
		case ev, ok := <-w.notify.Events:
			if !ok {
				return
			}
			c, relevant := toChange(ev)
			if !relevant || w.skip(ev.Name) {
				continue
			}
			select {
			case w.changes <- c:
			case <-ctx.Done():
				return
			}
			if c.Kind != ports.ChangeCreated {
				continue
			}
			if info, err := os.Stat(c.Path); err == nil && info.IsDir() {
				if err := w.addTree(c.Path); err != nil {
					w.logger.Warn(err.Error())
				}
			}
		}
	}
}

// toChange classifies an fsnotify event. Attribute-only events are not changes.
func toChange(ev fsnotify.Event) (ports.Change, bool) {
	c := ports.Change{Path: ev.Name}
	switch {
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		c.Kind = ports.ChangeRemoved
	case ev.Has(fsnotify.Create):
		c.Kind = ports.ChangeCreated
	case ev.Has(fsnotify.Write):
		c.Kind = ports.ChangeModified
	default:
		return c, false
	}
	return c, true
}
