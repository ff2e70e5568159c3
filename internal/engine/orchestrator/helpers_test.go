package orchestrator_test

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.trai.ch/strata/internal/adapters/cas"
	"go.trai.ch/strata/internal/adapters/classifier"
	"go.trai.ch/strata/internal/adapters/config"
	"go.trai.ch/strata/internal/adapters/depfile"
	"go.trai.ch/strata/internal/adapters/directive"
	fsadapter "go.trai.ch/strata/internal/adapters/fs"
	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports"
	"go.trai.ch/strata/internal/engine/orchestrator"
)

type captureLogger struct {
	mu    sync.Mutex
	infos []string
}

func (l *captureLogger) Debug(string) {}
func (l *captureLogger) Warn(string)  {}
func (l *captureLogger) Error(error)  {}

func (l *captureLogger) Info(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infos = append(l.infos, msg)
}

// countingParser records every file handed to the parser.
type countingParser struct {
	inner  *directive.Parser
	parsed []string
}

func (p *countingParser) Parse(ctx context.Context, entry domain.SourceEntry) (*domain.UnitResult, error) {
	p.parsed = append(p.parsed, entry.LayerName+":"+entry.RelPath)
	return p.inner.Parse(ctx, entry)
}

// take returns the files parsed since the last call, sorted.
func (p *countingParser) take() []string {
	out := slices.Clone(p.parsed)
	slices.Sort(out)
	p.parsed = nil
	return out
}

// flakyGenerator fails for the source files named in fail.
type flakyGenerator struct {
	inner *directive.Generator
	fail  map[string]bool
}

func (g *flakyGenerator) Generate(ctx context.Context, unit *domain.UnitResult, outDir string) ([]domain.GeneratedFile, error) {
	if g.fail[unit.Entry.RelPath] {
		return nil, domain.ErrGenerateFailed
	}
	return g.inner.Generate(ctx, unit, outDir)
}

// fakeCompiler records compile requests and fails the next failures runs.
type fakeCompiler struct {
	calls    []domain.CompileRequest
	failures int
}

func (c *fakeCompiler) Compile(_ context.Context, req domain.CompileRequest) (*domain.CompileResult, error) {
	c.calls = append(c.calls, req)
	if c.failures > 0 {
		c.failures--
		return &domain.CompileResult{ExitCode: 1, Diagnostics: []string{"Widget.java:1: error: broken"}}, nil
	}
	return &domain.CompileResult{}, nil
}

// inputs returns the base names of the inputs of compile call i.
func (c *fakeCompiler) inputs(i int) []string {
	var out []string
	for _, in := range c.calls[i].Inputs {
		out = append(out, filepath.Base(in))
	}
	slices.Sort(out)
	return out
}

// recordingTracer keeps the order in which steps start and how they end.
type recordingTracer struct {
	mu        sync.Mutex
	started   []string
	inherited []string
	failed    []string
	plan      []string
}

func (t *recordingTracer) Start(ctx context.Context, name string, _ ...ports.SpanOption) (context.Context, ports.Span) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.started = append(t.started, name)
	return ctx, &recordingSpan{tracer: t, name: name}
}

func (t *recordingTracer) EmitPlan(_ context.Context, steps []string, _ map[string][]string, _ []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.plan = slices.Clone(steps)
}

func (t *recordingTracer) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.started, t.inherited, t.failed, t.plan = nil, nil, nil, nil
}

type recordingSpan struct {
	tracer *recordingTracer
	name   string
}

func (s *recordingSpan) Write(p []byte) (int, error) { return len(p), nil }
func (s *recordingSpan) End()                        {}
func (s *recordingSpan) SetAttribute(string, any)    {}

func (s *recordingSpan) RecordError(err error) {
	if err == nil {
		return
	}
	s.tracer.mu.Lock()
	defer s.tracer.mu.Unlock()
	s.tracer.failed = append(s.tracer.failed, s.name)
}

func (s *recordingSpan) MarkInherited() {
	s.tracer.mu.Lock()
	defer s.tracer.mu.Unlock()
	s.tracer.inherited = append(s.tracer.inherited, s.name)
}

// fixture is a workspace on disk driven by real adapters and fake tools.
type fixture struct {
	t         *testing.T
	ws        *domain.Workspace
	parser    *countingParser
	generator *flakyGenerator
	compiler  *fakeCompiler
	tracer    *recordingTracer
	logger    *captureLogger
	co        *orchestrator.Coordinator
}

func newFixture(t *testing.T, runtimes ...domain.Runtime) *fixture {
	t.Helper()
	if len(runtimes) == 0 {
		runtimes = []domain.Runtime{{Name: "jvm", Layers: []string{"app"}}}
	}
	root := t.TempDir()
	hasher := fsadapter.NewHasher()
	return &fixture{
		t: t,
		ws: &domain.Workspace{
			Root:      root,
			LayerPath: []string{filepath.Join(root, domain.DefaultLayerPath)},
			BuildDir:  filepath.Join(root, domain.DefaultBuildDir),
			MaxErrors: domain.DefaultMaxErrors,
			Processors: []domain.Processor{{
				Ext:           ".strata",
				Phase:         domain.PhaseProcess,
				ProducesTypes: true,
				NeedsCompile:  true,
			}},
			Runtimes: runtimes,
		},
		parser:    &countingParser{inner: directive.NewParser()},
		generator: &flakyGenerator{inner: directive.NewGenerator(hasher), fail: make(map[string]bool)},
		compiler:  &fakeCompiler{},
		tracer:    &recordingTracer{},
		logger:    &captureLogger{},
	}
}

// layer writes the definition of a layer. def is the body of its [layer] table.
func (f *fixture) layer(name, def string) {
	f.t.Helper()
	dir := filepath.Join(f.ws.LayerPath[0], filepath.FromSlash(name))
	require.NoError(f.t, os.MkdirAll(filepath.Join(dir, config.DefaultSourcesDir), domain.DirPerm))
	require.NoError(f.t, os.WriteFile(filepath.Join(dir, domain.LayerFileName), []byte("[layer]\n"+def), domain.FilePerm))
}

func (f *fixture) srcPath(layer, rel string) string {
	return filepath.Join(f.ws.LayerPath[0], filepath.FromSlash(layer), config.DefaultSourcesDir, filepath.FromSlash(rel))
}

// write creates or replaces a source file.
func (f *fixture) write(layer, rel string, lines ...string) {
	f.t.Helper()
	p := f.srcPath(layer, rel)
	require.NoError(f.t, os.MkdirAll(filepath.Dir(p), domain.DirPerm))
	require.NoError(f.t, os.WriteFile(p, []byte(strings.Join(lines, "\n")+"\n"), domain.FilePerm))
}

// output returns the generated file of a source in the jvm build directory of buildLayer.
func (f *fixture) output(buildLayer, rel string) string {
	return f.outputIn("jvm", buildLayer, rel)
}

// outputIn returns the generated file of a source in runtime's build directory of buildLayer.
func (f *fixture) outputIn(runtime, buildLayer, rel string) string {
	name := strings.TrimSuffix(rel, filepath.Ext(rel)) + directive.DefaultOutputExt
	dir := filepath.Join(f.ws.BuildDir, domain.SanitizeLayerName(buildLayer), runtime, domain.SrcDirName)
	return filepath.Join(dir, filepath.FromSlash(name))
}

// open starts a fresh coordinator, as a new process would.
func (f *fixture) open() *orchestrator.Coordinator {
	f.t.Helper()
	files := fsadapter.NewFiles()
	records := depfile.NewStore(f.logger)
	info, err := cas.NewStore()
	require.NoError(f.t, err)

	f.co = orchestrator.NewCoordinator(f.ws, config.NewLayerSource(config.NewOSFS(), f.ws.LayerPath), orchestrator.Collaborators{
		Parser:     f.parser,
		Generator:  f.generator,
		Compiler:   f.compiler,
		Classifier: classifier.New(f.ws.Processors),
		Files:      files,
		Outputs:    files,
		Records:    records,
		Explainer:  records,
		BuildInfo:  info,
		Logger:     f.logger,
		Tracer:     f.tracer,
	})
	require.NoError(f.t, f.co.Init())
	return f.co
}

func (f *fixture) build(opts orchestrator.BuildOptions) error {
	f.t.Helper()
	if f.co == nil {
		f.open()
	}
	return f.co.Build(f.t.Context(), nil, opts)
}

// baseAndApp lays out a base layer with Widget and an app layer whose Screen uses it.
func (f *fixture) baseAndApp() {
	f.layer("base", "")
	f.layer("app", `extends = ["base"]`+"\n")
	f.write("base", "Widget.strata", "type Widget", "a widget")
	f.write("app", "Screen.strata", "type Screen", "use Widget", "a screen")
}

func readFile(t *testing.T, p string) string {
	t.Helper()
	data, err := os.ReadFile(p)
	require.NoError(t, err)
	return string(data)
}
