package domain

import (
	"cmp"
	"slices"
	"time"
)

// DependencyRef points at a source file another file depends on.
type DependencyRef struct {
	Layer    string `msgpack:"layer"`
	RelPath  string `msgpack:"rel"`
	TypeName string `msgpack:"type,omitempty"`
}

// GeneratedFile is one output of code generation. Name is relative to the generated source root.
type GeneratedFile struct {
	Name string `msgpack:"name"`
	Hash string `msgpack:"hash"`
}

// DependencyEntry is one row of a DependencyFile.
// GenFiles, SrcEntries and the group lists are only meaningful when IsDirectory is false.
type DependencyEntry struct {
	FileName    string          `msgpack:"file"`
	IsDirectory bool            `msgpack:"dir,omitempty"`
	GenFiles    []GeneratedFile `msgpack:"gen,omitempty"`
	SrcEntries  []DependencyRef `msgpack:"deps,omitempty"`
	// Groups lists the type groups this file is a member of.
	Groups []string `msgpack:"groups,omitempty"`
	// GroupDeps lists the type groups this file collects.
	GroupDeps []string `msgpack:"group_deps,omitempty"`
	// Error is sticky: the file is regenerated on the next pass until it succeeds.
	Error bool `msgpack:"error,omitempty"`
	// Pending is set while GenFiles wait for a successful compile.
	Pending bool `msgpack:"pending,omitempty"`
}

// GenFile returns the recorded output with the given name.
func (e *DependencyEntry) GenFile(name string) (GeneratedFile, bool) {
	for _, g := range e.GenFiles {
		if g.Name == name {
			return g, true
		}
	}
	return GeneratedFile{}, false
}

// DependencyFile holds the records of one source directory of one layer in one phase.
// Entries are kept sorted by file name.
type DependencyFile struct {
	Layer   string            `msgpack:"layer"`
	Phase   BuildPhase        `msgpack:"phase"`
	Dir     string            `msgpack:"dir"`
	Entries []DependencyEntry `msgpack:"entries"`

	// LastBuild is the on-disk modification time when the record was loaded.
	LastBuild time.Time `msgpack:"-"`

	changed bool
}

// NewDependencyFile creates an empty, changed record for a directory.
func NewDependencyFile(layer string, phase BuildPhase, dir string) *DependencyFile {
	return &DependencyFile{Layer: layer, Phase: phase, Dir: dir, changed: true}
}

// Changed reports whether the record was modified since it was loaded.
func (f *DependencyFile) Changed() bool { return f.changed }

// MarkChanged flags the record for persisting.
func (f *DependencyFile) MarkChanged() { f.changed = true }

// ClearChanged resets the changed flag after the record is persisted.
func (f *DependencyFile) ClearChanged() { f.changed = false }

// Entry returns the entry for a file name.
func (f *DependencyFile) Entry(name string) (*DependencyEntry, bool) {
	for i := range f.Entries {
		if f.Entries[i].FileName == name {
			return &f.Entries[i], true
		}
	}
	return nil, false
}

// Put inserts or replaces the entry for e.FileName, keeping entries sorted by name.
func (f *DependencyFile) Put(e DependencyEntry) {
	f.changed = true
	i, found := slices.BinarySearchFunc(f.Entries, e.FileName, func(a DependencyEntry, name string) int {
		return cmp.Compare(a.FileName, name)
	})
	if found {
		f.Entries[i] = e
		return
	}
	f.Entries = slices.Insert(f.Entries, i, e)
}

// Remove deletes the entry for name and reports whether it existed.
func (f *DependencyFile) Remove(name string) bool {
	for i := range f.Entries {
		if f.Entries[i].FileName == name {
			f.Entries = slices.Delete(f.Entries, i, i+1)
			f.changed = true
			return true
		}
	}
	return false
}

// Clone returns a deep copy.
func (f *DependencyFile) Clone() *DependencyFile {
	if f == nil {
		return nil
	}
	out := *f
	out.Entries = make([]DependencyEntry, len(f.Entries))
	for i, e := range f.Entries {
		e.GenFiles = slices.Clone(e.GenFiles)
		e.SrcEntries = slices.Clone(e.SrcEntries)
		e.Groups = slices.Clone(e.Groups)
		e.GroupDeps = slices.Clone(e.GroupDeps)
		out.Entries[i] = e
	}
	return &out
}
