package orchestrator

import (
	"context"
	"path/filepath"
	"strings"

	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/engine/scanner"
	"go.trai.ch/zerr"
)

// FileReport tells whether one source file would be regenerated by the next build.
type FileReport struct {
	Runtime    string
	BuildLayer string
	Phase      domain.BuildPhase
	Source     domain.SourceEntry
	Scheduled  bool
	// Reason is empty when the file is up to date.
	Reason string
	// OverriddenBy names the file that hides this one in a more specific layer.
	OverriddenBy string
	// Entry is the file's current record, nil before its first build.
	Entry *domain.DependencyEntry
	// Dependents lists files that would be regenerated because of this one.
	Dependents []string
}

// ExplainFile scans every build unit that contains absPath without building anything.
// It must not run concurrently with Build.
func (c *Coordinator) ExplainFile(ctx context.Context, absPath string) ([]FileReport, error) {
	c.shared.Lock.Lock()
	defer c.shared.Lock.Unlock()

	absPath = filepath.Clean(absPath)
	var reports []FileReport
	for _, s := range c.systems {
		var targets []domain.LayerID
		for _, t := range s.targets {
			targets = append(targets, t.ID)
		}
		for _, bl := range c.shared.Graph.BuildOrder(targets) {
			unit := c.shared.Graph.BuildUnit(bl.ID)
			if !unitContains(unit, absPath) {
				continue
			}
			for _, phase := range domain.Phases() {
				r, ok, err := s.explainIn(ctx, unit, bl, phase, absPath)
				if err != nil {
					return nil, err
				}
				if ok {
					reports = append(reports, r)
				}
			}
		}
	}
	if len(reports) == 0 {
		return nil, zerr.With(domain.ErrNotASourceFile, "path", absPath)
	}
	return reports, nil
}

func (s *System) explainIn(
	ctx context.Context,
	unit []*domain.Layer,
	buildLayer *domain.Layer,
	phase domain.BuildPhase,
	absPath string,
) (FileReport, bool, error) {
	if err := s.startLayers(ctx, buildLayer); err != nil {
		return FileReport{}, false, err
	}
	epoch, ok := s.builtEpoch[buildLayer.ID]
	if !ok {
		epoch = s.cache.Epoch()
	}
	res, err := s.scanner.Scan(ctx, scanner.Request{
		Layers:      unit,
		OutputDir:   buildLayer.SrcDir(s.runtime.Name),
		Phase:       phase,
		Reloads:     s.cache,
		BuiltEpoch:  epoch,
		Definitions: s.resolver,
	})
	if err != nil {
		return FileReport{}, false, err
	}

	report := FileReport{Runtime: s.runtime.Name, BuildLayer: buildLayer.Name.String(), Phase: phase}
	for _, o := range res.Overridden {
		if o.Source.Path == absPath {
			report.Source = o.Source
			report.OverriddenBy = o.By
			return report, true, nil
		}
	}
	f, ok := res.File(absPath)
	if !ok {
		return FileReport{}, false, nil
	}
	report.Source = f.Source
	report.Scheduled = res.Scheduled(absPath)
	report.Reason = res.Reasons[absPath]
	report.Entry = res.Entry(f)
	report.Dependents = res.DependentFilesChanged[absPath]
	return report, true, nil
}

func unitContains(unit []*domain.Layer, absPath string) bool {
	for _, l := range unit {
		if strings.HasPrefix(absPath, l.SourceDir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
