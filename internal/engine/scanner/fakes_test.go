package scanner_test

import (
	"path"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/engine/scanner"
)

type nopLogger struct{}

func (nopLogger) Debug(string) {}
func (nopLogger) Info(string)  {}
func (nopLogger) Warn(string)  {}
func (nopLogger) Error(error)  {}

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// memFS is an in-memory file tree with explicit modification times.
type memFS struct {
	files map[string]time.Time
}

func newMemFS() *memFS {
	return &memFS{files: make(map[string]time.Time)}
}

func (m *memFS) write(p string, at time.Time) { m.files[filepath.Clean(p)] = at }
func (m *memFS) remove(p string)              { delete(m.files, filepath.Clean(p)) }

func (m *memFS) removeTree(dir string) {
	prefix := filepath.Clean(dir) + string(filepath.Separator)
	for p := range m.files {
		if strings.HasPrefix(p, prefix) {
			delete(m.files, p)
		}
	}
}

func (m *memFS) ListDir(dir string) ([]domain.FileStat, error) {
	dir = filepath.Clean(dir)
	prefix := dir + string(filepath.Separator)
	seen := make(map[string]domain.FileStat)
	for p, at := range m.files {
		if !strings.HasPrefix(p, prefix) {
			continue
		}
		rest := strings.TrimPrefix(p, prefix)
		if i := strings.IndexRune(rest, filepath.Separator); i >= 0 {
			seen[rest[:i]] = domain.FileStat{Name: rest[:i], IsDir: true}
			continue
		}
		seen[rest] = domain.FileStat{Name: rest, ModTime: at}
	}
	out := make([]domain.FileStat, 0, len(seen))
	for _, st := range seen {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memFS) Stat(p string) (domain.FileStat, bool, error) {
	at, ok := m.files[filepath.Clean(p)]
	if !ok {
		return domain.FileStat{}, false, nil
	}
	return domain.FileStat{Name: filepath.Base(p), ModTime: at}, true, nil
}

// memStore keeps records in memory and stamps them like the disk store.
type memStore struct {
	records map[string]*domain.DependencyFile
	writes  int
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string]*domain.DependencyFile)}
}

func (s *memStore) Read(p string) (*domain.DependencyFile, error) {
	df, ok := s.records[p]
	if !ok {
		return nil, nil
	}
	out := df.Clone()
	out.ClearChanged()
	return out, nil
}

func (s *memStore) Write(p string, df *domain.DependencyFile, buildStart time.Time) error {
	s.writes++
	c := df.Clone()
	c.LastBuild = buildStart
	s.records[p] = c
	df.ClearChanged()
	return nil
}

func (s *memStore) Delete(p string) error {
	delete(s.records, p)
	return nil
}

func (s *memStore) Path(buildSrcDir, layer, relDir string, phase domain.BuildPhase) string {
	return filepath.Join(buildSrcDir, filepath.FromSlash(relDir), domain.DepFileName(layer, phase))
}

type extClassifier struct{}

func (extClassifier) Classify(relName string, _ *domain.Layer, phase domain.BuildPhase) (domain.Processor, bool) {
	if path.Ext(relName) != ".src" || phase != domain.PhaseProcess {
		return domain.Processor{}, false
	}
	return domain.Processor{Ext: ".src", Phase: phase, ProducesTypes: true, NeedsCompile: true}, true
}

type layerIndex map[string]*domain.Layer

func (l layerIndex) ByName(name string) (*domain.Layer, bool) {
	layer, ok := l[name]
	return layer, ok
}

type reloads map[string]uint64

func (r reloads) ReloadedSince(typeName string, epoch uint64) bool {
	at, ok := r[typeName]
	return ok && at > epoch
}

// definitions maps a type name to the file that defines it now.
type definitions map[string]domain.DependencyRef

func (d definitions) Defining(typeName string, _ int) (string, string, bool) {
	ref, ok := d[typeName]
	return ref.Layer, ref.RelPath, ok
}

func testLayer(id domain.LayerID, name string, pos int) *domain.Layer {
	dir := "/ws/layers/" + name
	return &domain.Layer{
		ID:             id,
		Name:           domain.NewInternedString(name),
		Position:       pos,
		Dir:            dir,
		SourceDir:      dir,
		DefinitionPath: dir + "/layer.toml",
		BuildDir:       "/ws/build/" + name,
	}
}

// harness drives scans and simulates what the orchestrator does with the results.
type harness struct {
	fs     *memFS
	store  *memStore
	layers layerIndex
	unit   []*domain.Layer
	deps   map[string][]domain.DependencyRef
	groups map[string][]string
	uses   map[string][]string
	scan   *scanner.Scanner
	now    time.Time
}

func newHarness(unit ...*domain.Layer) *harness {
	h := &harness{
		fs:     newMemFS(),
		store:  newMemStore(),
		layers: layerIndex{},
		unit:   unit,
		deps:   make(map[string][]domain.DependencyRef),
		groups: make(map[string][]string),
		uses:   make(map[string][]string),
		now:    t0,
	}
	for _, l := range unit {
		h.layers[l.Name.String()] = l
		h.fs.write(l.DefinitionPath, t0.Add(-time.Hour))
	}
	h.scan = scanner.New(h.fs, h.store, extClassifier{}, h.layers, nopLogger{})
	return h
}

// out is where the unit's generated files and records live.
func (h *harness) out() string {
	return h.unit[0].SrcDir("jvm")
}

func (h *harness) tick() time.Time {
	h.now = h.now.Add(time.Minute)
	return h.now
}

func (h *harness) src(layer, rel string) string {
	return filepath.Join(h.layers[layer].SourceDir, filepath.FromSlash(rel))
}

func (h *harness) touch(layer, rel string) {
	h.fs.write(h.src(layer, rel), h.tick())
}

func (h *harness) dependsOn(layer, rel, depLayer, depRel string) {
	key := h.src(layer, rel)
	h.deps[key] = append(h.deps[key], domain.DependencyRef{
		Layer:    depLayer,
		RelPath:  depRel,
		TypeName: domain.TypeNameFor("", depRel),
	})
}

func (h *harness) request() scanner.Request {
	return scanner.Request{Layers: h.unit, OutputDir: h.out(), Phase: domain.PhaseProcess}
}

// build scans and commits every scheduled file as successfully generated.
func (h *harness) build(t *testing.T) *scanner.Result {
	t.Helper()
	res := h.scanOnly(t)
	h.commit(res)
	return res
}

func (h *harness) scanOnly(t *testing.T) *scanner.Result {
	t.Helper()
	res, err := h.scan.Scan(t.Context(), h.request())
	require.NoError(t, err)
	return res
}

func (h *harness) commit(res *scanner.Result) {
	start := h.tick()
	for _, src := range res.ToGenerate {
		f, _ := res.File(src.Path)
		out := strings.TrimSuffix(src.RelPath, ".src") + ".gen"
		h.fs.write(filepath.Join(h.out(), out), start.Add(time.Second))
		res.Record(f).Put(domain.DependencyEntry{
			FileName:   path.Base(src.RelPath),
			GenFiles:   []domain.GeneratedFile{{Name: out, Hash: "h"}},
			SrcEntries: h.deps[src.Path],
			Groups:     h.groups[src.Path],
			GroupDeps:  h.uses[src.Path],
		})
	}
	for _, p := range res.Deleted {
		_ = h.store.Delete(p)
	}
	for p, df := range res.Records {
		if df.Changed() {
			_ = h.store.Write(p, df, start)
		}
	}
	h.tick()
}

func rels(entries []domain.SourceEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.LayerName+":"+e.RelPath)
	}
	return out
}
