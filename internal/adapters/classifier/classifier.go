// Package classifier decides which files in a layer's source tree are build inputs.
package classifier

import (
	"path"
	"slices"
	"strings"

	"go.trai.ch/strata/internal/core/domain"
)

// Classifier implements ports.FileClassifier from the workspace processor rules.
type Classifier struct {
	byPhase map[domain.BuildPhase]map[string]domain.Processor
	exts    []string
}

// New builds a Classifier. A later rule for the same extension and phase replaces an earlier one.
func New(processors []domain.Processor) *Classifier {
	c := &Classifier{byPhase: make(map[domain.BuildPhase]map[string]domain.Processor)}
	for _, p := range processors {
		rules, ok := c.byPhase[p.Phase]
		if !ok {
			rules = make(map[string]domain.Processor)
			c.byPhase[p.Phase] = rules
		}
		rules[p.Ext] = p
		if !slices.Contains(c.exts, p.Ext) {
			c.exts = append(c.exts, p.Ext)
		}
	}
	slices.Sort(c.exts)
	return c
}

// Classify returns the processor for relName during phase.
// Hidden files and dependency records are never inputs.
func (c *Classifier) Classify(relName string, _ *domain.Layer, phase domain.BuildPhase) (domain.Processor, bool) {
	base := path.Base(relName)
	if base == "" || strings.HasPrefix(base, ".") || domain.IsDepFileName(base) {
		return domain.Processor{}, false
	}
	p, ok := c.byPhase[phase][path.Ext(base)]
	return p, ok
}

// Extensions returns every configured extension, sorted.
func (c *Classifier) Extensions() []string {
	return slices.Clone(c.exts)
}

// Matches reports whether relName is an input of any phase.
func (c *Classifier) Matches(relName string) bool {
	for _, phase := range domain.Phases() {
		if _, ok := c.Classify(relName, nil, phase); ok {
			return true
		}
	}
	return false
}
