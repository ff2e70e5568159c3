package orchestrator

import (
	"context"
	"errors"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports"
	"go.trai.ch/strata/internal/engine/scanner"
	"go.trai.ch/zerr"
)

// phasePass is one attempt at one phase of one layer.
type phasePass struct {
	layer      *domain.Layer
	unit       []*domain.Layer
	phase      domain.BuildPhase
	state      *domain.BuildState
	span       ports.Span
	scan       *scanner.Result
	buildStart time.Time
	explain    bool
	// before holds record snapshots for explain diffs.
	before map[string]*domain.DependencyFile
}

// BuildLayer drives layer through every phase. It must be called under the write lock.
func (s *System) BuildLayer(ctx context.Context, layer *domain.Layer, opts BuildOptions) error {
	if err := s.startLayers(ctx, layer); err != nil {
		return err
	}

	buildStart := time.Now()
	for _, phase := range domain.Phases() {
		if err := ctx.Err(); err != nil {
			return zerr.Wrap(err, domain.ErrBuildCanceled.Error())
		}
		if err := s.runPhaseWithRetry(ctx, layer, phase, buildStart, opts); err != nil {
			return err
		}
	}

	s.shared.Graph.MarkCompiled(layer.ID)
	if classes := layer.ClassesDir(s.runtime.Name); !slices.Contains(s.classpath, classes) {
		s.classpath = append(s.classpath, classes)
	}
	s.compiled[layer.ID] = struct{}{}
	for _, a := range s.shared.Graph.Ancestors(layer.ID) {
		s.compiled[a.ID] = struct{}{}
	}
	s.builtEpoch[layer.ID] = s.cache.Epoch()
	return nil
}

func (s *System) runPhaseWithRetry(
	ctx context.Context,
	layer *domain.Layer,
	phase domain.BuildPhase,
	buildStart time.Time,
	opts BuildOptions,
) error {
	full := opts.Full
	for attempt := 0; ; attempt++ {
		err := s.runPhase(ctx, layer, phase, buildStart, full, opts.Explain)
		if err == nil {
			return nil
		}
		if s.errors.Full() || attempt+1 >= maxAttempts || ctx.Err() != nil {
			return err
		}

		switch opts.retryAfter(layer, phase, attempt, err) {
		case RetryIncremental:
			s.c.Logger.Info("retrying " + s.stepName(layer, phase) + " incrementally")
		case RetryFull:
			s.c.Logger.Info("retrying " + s.stepName(layer, phase) + " from scratch")
			full = true
		default:
			return err
		}
	}
}

func (s *System) stepName(layer *domain.Layer, phase domain.BuildPhase) string {
	return s.runtime.Name + "/" + layer.Name.String() + "/" + phase.String()
}

func (s *System) runPhase(
	ctx context.Context,
	layer *domain.Layer,
	phase domain.BuildPhase,
	buildStart time.Time,
	full, explain bool,
) (err error) {
	key := stateKey{layer: layer.ID, phase: phase}
	state, ok := s.states[key]
	if !ok {
		state = domain.NewBuildState(layer.ID, phase)
		s.states[key] = state
	}
	state.Reset()

	_, span := s.c.Tracer.Start(ctx, s.stepName(layer, phase))
	p := &phasePass{
		layer:      layer,
		unit:       s.shared.Graph.BuildUnit(layer.ID),
		phase:      phase,
		state:      state,
		span:       span,
		buildStart: buildStart,
		explain:    explain,
		before:     make(map[string]*domain.DependencyFile),
	}
	defer func() {
		if err != nil {
			state.Fail(nil)
			span.RecordError(err)
		} else if state.Generated == 0 && len(state.ToCompile()) == 0 {
			span.MarkInherited()
		}
		span.End()
		s.c.Metrics.PhaseFinished(s.runtime.Name, phase, state.Status)
	}()

	if err := state.Transition(domain.StatusScanning); err != nil {
		return err
	}
	if err := s.scan(ctx, p, full); err != nil {
		return err
	}

	if err := state.Transition(domain.StatusGenerating); err != nil {
		return err
	}
	units := s.parseAll(ctx, p)
	if state.AnyError {
		return s.failPhase(p, domain.ErrParseFailed)
	}
	s.generateAll(ctx, p, units)
	if state.AnyError {
		return s.failPhase(p, domain.ErrGenerateFailed)
	}

	if err := state.Transition(domain.StatusCompiling); err != nil {
		return err
	}
	if err := s.compile(ctx, p); err != nil {
		state.Fail(err)
		if perr := s.persist(p); perr != nil {
			return errors.Join(err, perr)
		}
		return err
	}
	if err := s.persist(p); err != nil {
		return err
	}

	s.cache.Flush(ctx)
	return state.Transition(domain.StatusDone)
}

func (s *System) scan(ctx context.Context, p *phasePass, full bool) error {
	epoch, ok := s.builtEpoch[p.layer.ID]
	if !ok {
		epoch = s.cache.Epoch()
	}

	start := time.Now()
	res, err := s.scanner.Scan(ctx, scanner.Request{
		Layers:      p.unit,
		OutputDir:   p.unit[0].SrcDir(s.runtime.Name),
		Phase:       p.phase,
		Full:        full,
		Reloads:     s.cache,
		BuiltEpoch:  epoch,
		Definitions: s.resolver,
	})
	if err != nil {
		return err
	}
	s.c.Metrics.ObserveScan(s.runtime.Name, p.phase, len(res.ToGenerate), time.Since(start))
	p.scan = res

	for recPath, df := range res.Records {
		p.before[recPath] = df.Clone()
	}
	for cause, deps := range res.DependentFilesChanged {
		p.state.DependentFilesChanged[cause] = slices.Clone(deps)
	}
	for _, src := range res.ToGenerate {
		p.state.ProcessedDirs[src.LayerName+"/"+src.Dir()] = struct{}{}
		if p.explain {
			s.c.Logger.Info(src.LayerName + ":" + src.RelPath + ": " + res.Reasons[src.Path])
		}
	}

	for _, v := range res.Vanished {
		s.shared.Registry.Unregister(v.TypeName, v.Layer)
		s.cache.Invalidate(v.TypeName)
	}
	for _, out := range res.Removed {
		if err := s.c.Outputs.Remove(out); err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrOutputRemoveFailed.Error()), "path", out)
		}
	}
	for _, out := range res.ToCompile {
		p.state.AddToCompile(out)
	}
	return nil
}

// parseAll parses every scheduled file. Failures are recorded without stopping the batch.
// Consumers of type groups touched by the batch are scheduled and parsed last.
func (s *System) parseAll(ctx context.Context, p *phasePass) []*domain.UnitResult {
	var units []*domain.UnitResult
	parsed := make(map[string]struct{})

	parse := func(list []domain.SourceEntry) {
		for _, src := range list {
			if _, ok := parsed[src.Path]; ok {
				continue
			}
			parsed[src.Path] = struct{}{}
			if unit := s.parseOne(ctx, p, src); unit != nil {
				units = append(units, unit)
			}
		}
	}
	parse(p.scan.ToGenerate)

	var groups []string
	for _, u := range units {
		groups = append(groups, u.Groups...)
	}
	for _, src := range p.scan.ToGenerate {
		if f, ok := p.scan.File(src.Path); ok {
			if e := p.scan.Entry(f); e != nil {
				groups = append(groups, e.Groups...)
			}
		}
	}
	slices.Sort(groups)
	groups = slices.Compact(groups)

	var consumers []domain.SourceEntry
	for _, f := range p.scan.Consumers(groups) {
		if p.scan.Schedule(f.Source.Path, scanner.ReasonGroupChanged) {
			consumers = append(consumers, f.Source)
		}
	}
	parse(consumers)
	return units
}

func (s *System) parseOne(ctx context.Context, p *phasePass, src domain.SourceEntry) *domain.UnitResult {
	unit, err := s.c.Parser.Parse(ctx, src)
	if err == nil && unit != nil && unit.Error {
		err = &domain.ParseError{File: src.RelPath, Msg: "unit reported errors"}
	}
	if err == nil && unit != nil {
		err = s.resolveDependencies(ctx, p, src, unit)
	}
	if err != nil || unit == nil {
		if err == nil {
			err = &domain.ParseError{File: src.RelPath, Msg: "no result"}
		}
		s.failed[src.Path] = struct{}{}
		s.cache.Invalidate(src.TypeName)
		s.fileError(p, src, zerr.Wrap(err, domain.ErrParseFailed.Error()))
		return nil
	}
	delete(s.failed, src.Path)
	if unit.Entry.Path == "" {
		unit.Entry = src
	}
	return unit
}

// resolveDependencies resolves the dependency types of unit through the type cache and
// fills in the file that defines each one.
func (s *System) resolveDependencies(
	ctx context.Context,
	p *phasePass,
	src domain.SourceEntry,
	unit *domain.UnitResult,
) error {
	referrer := src.TypeName
	if len(unit.Types) > 0 {
		referrer = unit.Types[0]
	}

	var errs []error
	deps := make([]domain.DependencyRef, 0, len(unit.Dependencies))
	for _, dep := range unit.Dependencies {
		if dep.Layer != "" || dep.TypeName == "" {
			// A pinned file is not looked up again, so it never counts as overridden.
			deps = append(deps, domain.DependencyRef{Layer: dep.Layer, RelPath: dep.RelPath})
			continue
		}
		if slices.Contains(unit.Types, dep.TypeName) {
			continue
		}

		res := s.cache.Lookup(ctx, dep.TypeName, p.layer.Position)
		switch res.Status {
		case domain.LookupFound:
			ref, ok := s.reference(res.Decl)
			if !ok {
				errs = append(errs, &domain.ParseError{File: src.RelPath, Msg: "unknown type " + dep.TypeName})
				continue
			}
			s.cache.AddReference(referrer, dep.TypeName, res.ID, p.layer.Position)
			if !slices.Contains(deps, ref) {
				deps = append(deps, ref)
			}
		case domain.LookupInvalid:
			errs = append(errs, &domain.ParseError{File: src.RelPath, Msg: "type " + dep.TypeName + " failed to load"})
		default:
			errs = append(errs, &domain.ParseError{File: src.RelPath, Msg: "unknown type " + dep.TypeName})
		}
	}
	unit.Dependencies = deps
	return errors.Join(errs...)
}

func (s *System) reference(decl domain.TypeDeclaration) (domain.DependencyRef, bool) {
	for _, d := range s.shared.Registry.Definitions(decl.TypeName) {
		if d.Layer != decl.Layer {
			continue
		}
		return domain.DependencyRef{
			Layer:    d.Entry.LayerName,
			RelPath:  d.Entry.RelPath,
			TypeName: decl.TypeName,
		}, true
	}
	return domain.DependencyRef{}, false
}

// generateAll generates every parsed unit. Units collecting type groups go last so they
// see every member generated in this pass.
func (s *System) generateAll(ctx context.Context, p *phasePass, units []*domain.UnitResult) {
	slices.SortStableFunc(units, func(a, b *domain.UnitResult) int {
		return boolRank(len(a.GroupDeps) > 0) - boolRank(len(b.GroupDeps) > 0)
	})

	generated, inherited := 0, 0
	for _, unit := range units {
		if len(unit.GroupDeps) > 0 {
			unit.Members = s.groupMembers(p, units, unit.GroupDeps)
		}
		g, i, ok := s.generateOne(ctx, p, unit)
		if !ok {
			continue
		}
		generated += g
		inherited += i
		p.state.MarkModified(unit.Entry.Path)
	}
	p.state.Generated += generated
	p.state.Inherited += inherited
	s.c.Metrics.AddGenerated(s.runtime.Name, generated, inherited)
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

// groupMembers lists the type names of each group, from this pass and from the records.
func (s *System) groupMembers(p *phasePass, units []*domain.UnitResult, groups []string) map[string][]string {
	members := make(map[string][]string, len(groups))
	fresh := make(map[string]struct{}, len(units))
	for _, u := range units {
		fresh[u.Entry.Path] = struct{}{}
		for _, g := range u.Groups {
			if slices.Contains(groups, g) {
				members[g] = append(members[g], u.Entry.TypeName)
			}
		}
	}
	for _, f := range p.scan.Files() {
		if _, ok := fresh[f.Source.Path]; ok {
			continue
		}
		e := p.scan.Entry(f)
		if e == nil || e.Error {
			continue
		}
		for _, g := range e.Groups {
			if slices.Contains(groups, g) {
				members[g] = append(members[g], f.Source.TypeName)
			}
		}
	}
	for g := range members {
		slices.Sort(members[g])
		members[g] = slices.Compact(members[g])
	}
	return members
}

// generateOne generates one unit into the staging directory and promotes what changed.
// Outputs whose hash matches the record are inherited: the staged copy is dropped and the
// existing file kept.
func (s *System) generateOne(ctx context.Context, p *phasePass, unit *domain.UnitResult) (int, int, bool) {
	src := unit.Entry
	f, ok := p.scan.File(src.Path)
	if !ok {
		return 0, 0, false
	}
	rec := p.scan.Record(f)
	var old domain.DependencyEntry
	if e := p.scan.Entry(f); e != nil && !e.IsDirectory {
		old = *e
	}
	root := p.unit[0].SrcDir(s.runtime.Name)
	stage := domain.StagingPath(s.shared.Workspace.Root, s.runtime.Name, p.layer.Name.String(), p.phase)

	if err := s.c.Outputs.ResetDir(stage); err != nil {
		s.fileError(p, src, zerr.With(zerr.Wrap(err, domain.ErrGenerateFailed.Error()), "staging", stage))
		return 0, 0, false
	}
	files, err := s.c.Generator.Generate(ctx, unit, stage)
	if err != nil {
		for _, g := range old.GenFiles {
			_ = s.c.Outputs.Remove(filepath.Join(root, filepath.FromSlash(g.Name)))
		}
		rec.Put(domain.DependencyEntry{
			FileName:   path.Base(src.RelPath),
			SrcEntries: unit.Dependencies,
			Error:      true,
		})
		s.fileError(p, src, zerr.Wrap(err, domain.ErrGenerateFailed.Error()))
		return 0, 0, false
	}

	entry := domain.DependencyEntry{
		FileName:   path.Base(src.RelPath),
		GenFiles:   files,
		SrcEntries: unit.Dependencies,
		Groups:     unit.Groups,
		GroupDeps:  unit.GroupDeps,
		Pending:    old.Pending,
	}

	generated, inherited, changed := 0, 0, false
	now := time.Now()
	for _, g := range files {
		target := filepath.Join(root, filepath.FromSlash(g.Name))
		staged := filepath.Join(stage, filepath.FromSlash(g.Name))
		prev, had := old.GenFile(g.Name)
		_, exists, _ := s.c.Files.Stat(target)

		if had && exists && prev.Hash == g.Hash {
			if err := s.c.Outputs.Remove(staged); err == nil {
				err = s.c.Outputs.Touch(target, now)
			}
			if err != nil {
				s.fileError(p, src, zerr.With(zerr.Wrap(err, domain.ErrOutputMoveFailed.Error()), "path", target))
				return generated, inherited, false
			}
			inherited++
			if entry.Pending && src.Processor.NeedsCompile {
				p.state.AddToCompile(target)
			}
			continue
		}

		if err := s.c.Outputs.Promote(staged, target); err != nil {
			s.fileError(p, src, zerr.With(zerr.Wrap(err, domain.ErrOutputMoveFailed.Error()), "path", target))
			return generated, inherited, false
		}
		generated++
		changed = true
		if src.Processor.NeedsCompile {
			entry.Pending = true
			p.state.AddToCompile(target)
		}
	}

	for _, g := range old.GenFiles {
		if _, still := entry.GenFile(g.Name); still {
			continue
		}
		target := filepath.Join(root, filepath.FromSlash(g.Name))
		p.state.RemoveFromCompile(target)
		if err := s.c.Outputs.Remove(target); err != nil {
			s.c.Logger.Warn("could not remove stale output " + target)
		}
		changed = true
	}

	rec.Put(entry)
	if changed {
		for _, t := range unit.Types {
			s.cache.Invalidate(t)
		}
	}
	return generated, inherited, true
}

// markUngenerated flags every scheduled file that was not regenerated so the next
// pass picks it up again even though its record is rewritten now.
func (s *System) markUngenerated(p *phasePass, done map[string]struct{}) {
	for _, src := range p.scan.ToGenerate {
		if _, ok := done[src.Path]; ok {
			continue
		}
		f, ok := p.scan.File(src.Path)
		if !ok {
			continue
		}
		rec := p.scan.Record(f)
		entry := domain.DependencyEntry{FileName: path.Base(src.RelPath)}
		if e := p.scan.Entry(f); e != nil && !e.IsDirectory {
			entry = *e
		}
		if entry.Error {
			continue
		}
		entry.Error = true
		rec.Put(entry)
	}
}

func (s *System) fileError(p *phasePass, src domain.SourceEntry, err error) {
	err = zerr.With(zerr.With(err, "file", src.RelPath), "layer", src.LayerName)
	p.state.AddError(err)
	_, _ = p.span.Write([]byte(err.Error() + "\n"))
	if capErr := s.errors.Add(err); capErr != nil {
		p.state.AddError(capErr)
	}
}

func (s *System) failPhase(p *phasePass, cause error) error {
	if p.state.AnyError {
		s.markUngenerated(p, p.state.Modified)
	}
	err := zerr.With(zerr.With(cause, "layer", p.layer.Name.String()), "phase", p.phase.String())
	err = zerr.With(err, "errors", len(p.state.Errors))
	p.state.Fail(nil)
	if perr := s.persist(p); perr != nil {
		return errors.Join(err, perr)
	}
	if s.errors.Full() {
		return errors.Join(domain.ErrTooManyErrors, err)
	}
	return errors.Join(domain.ErrPhaseFailed, err)
}

// compile runs the native compiler over the queued outputs. Records are written first so
// an interrupted compile leaves its inputs marked pending.
func (s *System) compile(ctx context.Context, p *phasePass) error {
	inputs := p.state.ToCompile()
	if len(inputs) == 0 {
		return nil
	}
	if err := s.persist(p); err != nil {
		return err
	}

	start := time.Now()
	res, err := s.c.Compiler.Compile(ctx, domain.CompileRequest{
		Runtime:   s.runtime.Name,
		Inputs:    inputs,
		OutputDir: p.unit[0].ClassesDir(s.runtime.Name),
		Classpath: strings.Join(s.classpath, string(os.PathListSeparator)),
		Debug:     s.runtime.Compiler.Debug,
		WorkDir:   s.shared.Workspace.Root,
		Compiler:  s.runtime.Compiler,
	})
	failed := err != nil || res == nil || res.Failed()
	s.c.Metrics.ObserveCompile(s.runtime.Name, len(inputs), time.Since(start), failed)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrCompileFailed.Error()), "layer", p.layer.Name.String())
	}
	if res == nil || res.Failed() {
		cerr := zerr.With(domain.ErrCompileFailed, "layer", p.layer.Name.String())
		if res != nil {
			cerr = zerr.With(cerr, "exit_code", res.ExitCode)
			_, _ = p.span.Write([]byte(res.Summary() + "\n"))
			if capErr := s.errors.Add(zerr.With(cerr, "diagnostics", res.Summary())); capErr != nil {
				return errors.Join(domain.ErrTooManyErrors, cerr)
			}
		}
		return cerr
	}

	for _, df := range p.scan.Records {
		for _, e := range df.Entries {
			if e.Pending {
				e.Pending = false
				df.Put(e)
			}
		}
	}
	return s.recordCompile(p, start)
}

// recordCompile stores build info and extends the classpath after a successful compile.
func (s *System) recordCompile(p *phasePass, compiledAt time.Time) error {
	build := p.unit[0]
	if classes := build.ClassesDir(s.runtime.Name); !slices.Contains(s.classpath, classes) {
		s.classpath = append(s.classpath, classes)
	}

	info := domain.BuildInfo{
		Runtime:      s.runtime.Name,
		Layer:        build.Name.String(),
		Position:     build.Position,
		Compiled:     true,
		LastCompiled: compiledAt,
		Classpath:    s.Classpath(),
	}
	if prev, err := s.c.BuildInfo.Get(s.shared.Workspace.Root, s.runtime.Name, info.Layer); err == nil && prev != nil {
		info.Jars = prev.Jars
		info.MainClasses = prev.MainClasses
	}
	if err := s.c.BuildInfo.Put(s.shared.Workspace.Root, info); err != nil {
		return err
	}
	return nil
}

// persist writes every changed record and drops records of vanished directories.
func (s *System) persist(p *phasePass) error {
	paths := make([]string, 0, len(p.scan.Records))
	for recPath := range p.scan.Records {
		paths = append(paths, recPath)
	}
	slices.Sort(paths)

	var errs []error
	for _, recPath := range paths {
		df := p.scan.Records[recPath]
		if !df.Changed() {
			continue
		}
		if p.explain {
			s.explain(recPath, p.before[recPath], df)
		}
		if err := s.c.Records.Write(recPath, df, p.buildStart); err != nil {
			errs = append(errs, err)
			continue
		}
		p.before[recPath] = df.Clone()
	}
	for _, recPath := range p.scan.Deleted {
		if err := s.c.Records.Delete(recPath); err != nil {
			errs = append(errs, err)
		}
	}
	p.scan.Deleted = nil
	return errors.Join(errs...)
}

func (s *System) explain(recPath string, before, after *domain.DependencyFile) {
	if s.c.Explainer == nil {
		return
	}
	diff, err := s.c.Explainer.Explain(recPath, before, after)
	if err != nil || diff == "" {
		return
	}
	s.c.Logger.Info("record changed\n" + diff)
}
