// Package scanner decides which source files of a build unit need regeneration or recompilation.
package scanner

import (
	"context"
	"path"
	"path/filepath"
	"strings"
	"time"

	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports"
	"go.trai.ch/zerr"
)

// LayerIndex finds registered layers by name.
type LayerIndex interface {
	ByName(name string) (*domain.Layer, bool)
}

// ReloadTracker reports types whose cached definitions were replaced.
type ReloadTracker interface {
	ReloadedSince(typeName string, epoch uint64) bool
}

// DefinitionIndex finds the file that currently defines a type.
type DefinitionIndex interface {
	// Defining returns the layer and relative path of the most specific definition of
	// typeName at or below position.
	Defining(typeName string, position int) (layer, relPath string, ok bool)
}

// Request describes one scan.
type Request struct {
	// Layers is the build unit, most specific layer first.
	Layers []*domain.Layer
	// OutputDir holds the generated output and records of the whole unit for one runtime.
	OutputDir string
	Phase     domain.BuildPhase
	// Full schedules every input regardless of records.
	Full bool
	// Reloads and BuiltEpoch detect dependency types replaced since the unit last built.
	Reloads    ReloadTracker
	BuiltEpoch uint64
	// Definitions detects dependencies that another file now defines, such as a new
	// override in a more specific layer.
	Definitions DefinitionIndex
}

// Scanner implements the staleness scan.
type Scanner struct {
	fs         ports.FileSystem
	store      ports.DependencyStore
	classifier ports.FileClassifier
	layers     LayerIndex
	logger     ports.Logger
}

// New creates a new Scanner.
func New(
	fs ports.FileSystem,
	store ports.DependencyStore,
	classifier ports.FileClassifier,
	layers LayerIndex,
	logger ports.Logger,
) *Scanner {
	return &Scanner{
		fs:         fs,
		store:      store,
		classifier: classifier,
		layers:     layers,
		logger:     logger,
	}
}

type pass struct {
	*Scanner
	req    Request
	root   string
	result *Result
	// seen maps a logical name to the most specific file claiming it.
	seen  map[string]string
	stats map[string]statResult
}

type statResult struct {
	stat domain.FileStat
	ok   bool
}

// Scan walks every layer of the unit and returns what must be regenerated and recompiled.
func (s *Scanner) Scan(ctx context.Context, req Request) (*Result, error) {
	if len(req.Layers) == 0 {
		return newResult(), nil
	}

	p := &pass{
		Scanner: s,
		req:     req,
		root:    req.OutputDir,
		result:  newResult(),
		seen:    make(map[string]string),
		stats:   make(map[string]statResult),
	}

	for _, layer := range req.Layers {
		if err := ctx.Err(); err != nil {
			return nil, zerr.Wrap(err, domain.ErrBuildCanceled.Error())
		}
		if err := p.walkLayer(layer); err != nil {
			return nil, err
		}
	}

	p.propagate()
	p.result.finish()
	return p.result, nil
}

func (p *pass) walkLayer(layer *domain.Layer) error {
	defTime := time.Time{}
	if layer.DefinitionPath != "" {
		st, ok, err := p.stat(layer.DefinitionPath)
		if err != nil {
			return err
		}
		if ok {
			defTime = st.ModTime
		}
	}

	queue := []string{""}
	for len(queue) > 0 {
		relDir := queue[0]
		queue = queue[1:]

		subdirs, err := p.scanDir(layer, relDir, defTime)
		if err != nil {
			return err
		}
		queue = append(queue, subdirs...)
	}
	return nil
}

func (p *pass) scanDir(layer *domain.Layer, relDir string, defTime time.Time) ([]string, error) {
	absDir := filepath.Join(layer.SourceDir, filepath.FromSlash(relDir))
	listing, err := p.fs.ListDir(absDir)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrDirectoryListFailed.Error()), "dir", absDir)
	}

	recPath := p.store.Path(p.root, layer.Name.String(), relDir, p.req.Phase)
	rec, err := p.store.Read(recPath)
	if err != nil {
		return nil, err
	}

	rescan := p.req.Full
	switch {
	case rec == nil:
		rec = domain.NewDependencyFile(layer.Name.String(), p.req.Phase, relDir)
		rescan = true
	case defTime.After(rec.LastBuild):
		p.logger.Debug("layer definition changed, rescanning " + layer.Name.String() + "/" + relDir)
		rescan = true
	}
	p.result.Records[recPath] = rec

	present := make(map[string]struct{}, len(listing))
	var subdirs []string
	for _, fi := range listing {
		if strings.HasPrefix(fi.Name, ".") {
			continue
		}
		rel := path.Join(relDir, fi.Name)
		if fi.IsDir {
			if p.isBuildDir(layer, filepath.Join(absDir, fi.Name)) {
				continue
			}
			present[fi.Name] = struct{}{}
			subdirs = append(subdirs, rel)
			if e, ok := rec.Entry(fi.Name); !ok || !e.IsDirectory {
				rec.Put(domain.DependencyEntry{FileName: fi.Name, IsDirectory: true})
			}
			continue
		}

		proc, ok := p.classifier.Classify(rel, layer, p.req.Phase)
		if !ok {
			continue
		}
		present[fi.Name] = struct{}{}
		p.visitFile(layer, rec, recPath, fi, rel, proc, rescan)
	}

	p.prune(layer, rec, present)
	return subdirs, nil
}

func (p *pass) visitFile(
	layer *domain.Layer,
	rec *domain.DependencyFile,
	recPath string,
	fi domain.FileStat,
	rel string,
	proc domain.Processor,
	rescan bool,
) {
	src := domain.NewSourceEntry(layer, rel, proc)
	key := rel
	if proc.ProducesTypes && src.TypeName != "" {
		key = src.TypeName
	}

	if winner, ok := p.seen[key]; ok {
		// A more specific layer already claims this name. Dropping the entry makes
		// this copy reappear as new when the override goes away.
		rec.Remove(fi.Name)
		p.result.Overridden = append(p.result.Overridden, Override{Source: src, By: winner})
		return
	}
	p.seen[key] = src.Path

	entry, _ := rec.Entry(fi.Name)
	p.result.add(src, recPath)

	if rescan {
		p.result.schedule(src.Path, ReasonRescan)
		return
	}
	if reason := p.staleness(rec, entry, fi); reason != "" {
		p.result.schedule(src.Path, reason)
		return
	}
	if entry.Pending {
		for _, g := range entry.GenFiles {
			p.result.pending = append(p.result.pending, pendingOutput{source: src.Path, path: p.outputPath(g.Name)})
		}
	}
}

// staleness returns why an existing file needs regeneration, or an empty string.
func (p *pass) staleness(rec *domain.DependencyFile, entry *domain.DependencyEntry, fi domain.FileStat) string {
	switch {
	case entry == nil:
		return ReasonNew
	case entry.IsDirectory:
		return ReasonNew
	case entry.Error:
		return ReasonPreviousError
	}

	for _, g := range entry.GenFiles {
		st, ok, err := p.stat(p.outputPath(g.Name))
		if err != nil || !ok {
			return ReasonOutputMissing
		}
		if st.ModTime.Before(fi.ModTime) {
			return ReasonOutputOutdated
		}
	}

	for _, dep := range entry.SrcEntries {
		depLayer, ok := p.layers.ByName(dep.Layer)
		if !ok {
			return ReasonDependencyRemoved
		}
		st, ok, err := p.stat(filepath.Join(depLayer.SourceDir, filepath.FromSlash(dep.RelPath)))
		if err != nil || !ok {
			return ReasonDependencyRemoved
		}
		if st.ModTime.After(rec.LastBuild) {
			return ReasonDependencyChanged
		}
		if dep.TypeName == "" {
			continue
		}
		if p.req.Reloads != nil && p.req.Reloads.ReloadedSince(dep.TypeName, p.req.BuiltEpoch) {
			return ReasonTypeReloaded
		}
		if p.req.Definitions != nil {
			l, rel, ok := p.req.Definitions.Defining(dep.TypeName, p.req.Layers[0].Position)
			if ok && (l != dep.Layer || rel != dep.RelPath) {
				return ReasonDependencyOverridden
			}
		}
	}
	return ""
}

// prune drops records of files that vanished from disk.
func (p *pass) prune(layer *domain.Layer, rec *domain.DependencyFile, present map[string]struct{}) {
	var gone []string
	for _, e := range rec.Entries {
		if _, ok := present[e.FileName]; !ok {
			gone = append(gone, e.FileName)
		}
	}
	for _, name := range gone {
		e, _ := rec.Entry(name)
		if e.IsDirectory {
			p.pruneTree(layer, path.Join(rec.Dir, name))
		} else {
			p.vanish(layer, path.Join(rec.Dir, name), e)
		}
		rec.Remove(name)
	}
}

// pruneTree empties the records of a source directory that no longer exists, recursively.
func (p *pass) pruneTree(layer *domain.Layer, relDir string) {
	recPath := p.store.Path(p.root, layer.Name.String(), relDir, p.req.Phase)
	rec, err := p.store.Read(recPath)
	if err != nil || rec == nil {
		return
	}
	for _, e := range rec.Entries {
		if e.IsDirectory {
			p.pruneTree(layer, path.Join(relDir, e.FileName))
			continue
		}
		p.vanish(layer, path.Join(relDir, e.FileName), &e)
	}
	p.result.Deleted = append(p.result.Deleted, recPath)
}

// vanish reports a source file that no longer exists together with its outputs.
func (p *pass) vanish(layer *domain.Layer, rel string, e *domain.DependencyEntry) {
	for _, g := range e.GenFiles {
		p.result.Removed = append(p.result.Removed, p.outputPath(g.Name))
	}
	if proc, ok := p.classifier.Classify(rel, layer, p.req.Phase); ok {
		p.result.Vanished = append(p.result.Vanished, domain.NewSourceEntry(layer, rel, proc))
	}
}

// propagate schedules dependents of scheduled files until nothing changes.
func (p *pass) propagate() {
	r := p.result
	for {
		groups := make(map[string]string)
		for _, f := range r.files {
			if _, ok := r.scheduled[f.Source.Path]; !ok {
				continue
			}
			if e := r.entry(f); e != nil {
				for _, g := range e.Groups {
					if _, ok := groups[g]; !ok {
						groups[g] = f.Source.Path
					}
				}
			}
		}

		changed := false
		for _, f := range r.files {
			if _, ok := r.scheduled[f.Source.Path]; ok {
				continue
			}
			e := r.entry(f)
			if e == nil {
				continue
			}
			if cause, ok := p.scheduledDependency(e); ok {
				r.schedule(f.Source.Path, ReasonDependencyScheduled)
				r.DependentFilesChanged[cause] = append(r.DependentFilesChanged[cause], f.Source.Path)
				changed = true
				continue
			}
			for _, g := range e.GroupDeps {
				if cause, ok := groups[g]; ok {
					r.schedule(f.Source.Path, ReasonGroupChanged)
					r.DependentFilesChanged[cause] = append(r.DependentFilesChanged[cause], f.Source.Path)
					changed = true
					break
				}
			}
		}
		if !changed {
			return
		}
	}
}

func (p *pass) scheduledDependency(e *domain.DependencyEntry) (string, bool) {
	for _, dep := range e.SrcEntries {
		l, ok := p.layers.ByName(dep.Layer)
		if !ok {
			continue
		}
		abs := filepath.Join(l.SourceDir, filepath.FromSlash(dep.RelPath))
		if _, ok := p.result.scheduled[abs]; ok {
			return abs, true
		}
	}
	return "", false
}

func (p *pass) outputPath(name string) string {
	return filepath.Join(p.root, filepath.FromSlash(name))
}

func (p *pass) isBuildDir(layer *domain.Layer, abs string) bool {
	if abs == layer.BuildDir {
		return true
	}
	for _, l := range p.req.Layers {
		if abs == l.BuildDir {
			return true
		}
	}
	return false
}

func (p *pass) stat(abs string) (domain.FileStat, bool, error) {
	if r, ok := p.stats[abs]; ok {
		return r.stat, r.ok, nil
	}
	st, ok, err := p.fs.Stat(abs)
	if err != nil {
		return domain.FileStat{}, false, zerr.With(zerr.Wrap(err, domain.ErrPathStatFailed.Error()), "path", abs)
	}
	p.stats[abs] = statResult{stat: st, ok: ok}
	return st, ok, nil
}
