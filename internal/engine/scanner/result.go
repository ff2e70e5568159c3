package scanner

import (
	"path"

	"go.trai.ch/strata/internal/core/domain"
)

// Reasons a file is scheduled for generation.
const (
	ReasonRescan               = "no usable dependency record"
	ReasonNew                  = "new file"
	ReasonPreviousError        = "previous build failed"
	ReasonOutputMissing        = "generated output missing"
	ReasonOutputOutdated       = "generated output older than source"
	ReasonDependencyRemoved    = "dependency removed"
	ReasonDependencyChanged    = "dependency changed since last build"
	ReasonTypeReloaded         = "dependency type reloaded"
	ReasonDependencyOverridden = "dependency type defined by another file"
	ReasonDependencyScheduled  = "dependency regenerated"
	ReasonGroupChanged         = "type group member regenerated"
)

// Override records a source file hidden by a more specific layer.
type Override struct {
	Source domain.SourceEntry
	// By is the absolute path of the file that wins.
	By string
}

// File is a visible source file of the unit and the record that tracks it.
type File struct {
	Source     domain.SourceEntry
	RecordPath string
}

type pendingOutput struct {
	source string
	path   string
}

// Result is the outcome of a scan.
type Result struct {
	// ToGenerate lists scheduled files in walk order.
	ToGenerate []domain.SourceEntry
	// ToCompile lists generated outputs still waiting for a successful compile.
	ToCompile []string
	// Records holds every record the scan read or created, by path.
	Records map[string]*domain.DependencyFile
	// Removed lists generated outputs whose sources vanished.
	Removed []string
	// Vanished lists source files that disappeared since their record was written.
	Vanished []domain.SourceEntry
	// Deleted lists records of vanished directories.
	Deleted    []string
	Overridden []Override
	// Reasons maps a scheduled source path to why it was scheduled.
	Reasons map[string]string
	// DependentFilesChanged maps a scheduled file to the files scheduled because of it.
	DependentFilesChanged map[string][]string

	files     []File
	index     map[string]int
	scheduled map[string]struct{}
	pending   []pendingOutput
}

func newResult() *Result {
	return &Result{
		Records:               make(map[string]*domain.DependencyFile),
		Reasons:               make(map[string]string),
		DependentFilesChanged: make(map[string][]string),
		index:                 make(map[string]int),
		scheduled:             make(map[string]struct{}),
	}
}

func (r *Result) add(src domain.SourceEntry, recPath string) {
	r.index[src.Path] = len(r.files)
	r.files = append(r.files, File{Source: src, RecordPath: recPath})
}

func (r *Result) schedule(srcPath, reason string) {
	if _, ok := r.scheduled[srcPath]; ok {
		return
	}
	r.scheduled[srcPath] = struct{}{}
	r.Reasons[srcPath] = reason
}

func (r *Result) entry(f File) *domain.DependencyEntry {
	rec := r.Records[f.RecordPath]
	if rec == nil {
		return nil
	}
	e, _ := rec.Entry(path.Base(f.Source.RelPath))
	return e
}

func (r *Result) finish() {
	for _, f := range r.files {
		if _, ok := r.scheduled[f.Source.Path]; ok {
			r.ToGenerate = append(r.ToGenerate, f.Source)
		}
	}
	for _, p := range r.pending {
		if _, ok := r.scheduled[p.source]; !ok {
			r.ToCompile = append(r.ToCompile, p.path)
		}
	}
}

// Scheduled reports whether the file at srcPath is scheduled for generation.
func (r *Result) Scheduled(srcPath string) bool {
	_, ok := r.scheduled[srcPath]
	return ok
}

// Files returns every visible source file of the unit in walk order.
func (r *Result) Files() []File {
	return r.files
}

// File returns the visible file at srcPath.
func (r *Result) File(srcPath string) (File, bool) {
	i, ok := r.index[srcPath]
	if !ok {
		return File{}, false
	}
	return r.files[i], true
}

// Entry returns the record entry of a visible file, or nil when the file has none yet.
func (r *Result) Entry(f File) *domain.DependencyEntry {
	return r.entry(f)
}

// Record returns the record a visible file belongs to.
func (r *Result) Record(f File) *domain.DependencyFile {
	return r.Records[f.RecordPath]
}

// Consumers returns unscheduled files that collect any of groups.
func (r *Result) Consumers(groups []string) []File {
	if len(groups) == 0 {
		return nil
	}
	want := make(map[string]struct{}, len(groups))
	for _, g := range groups {
		want[g] = struct{}{}
	}
	var out []File
	for _, f := range r.files {
		if r.Scheduled(f.Source.Path) {
			continue
		}
		e := r.entry(f)
		if e == nil {
			continue
		}
		for _, g := range e.GroupDeps {
			if _, ok := want[g]; ok {
				out = append(out, f)
				break
			}
		}
	}
	return out
}

// Schedule adds a visible file to the generate set after the scan.
func (r *Result) Schedule(srcPath, reason string) bool {
	if r.Scheduled(srcPath) {
		return false
	}
	f, ok := r.File(srcPath)
	if !ok {
		return false
	}
	r.schedule(srcPath, reason)
	r.ToGenerate = append(r.ToGenerate, f.Source)
	return true
}
