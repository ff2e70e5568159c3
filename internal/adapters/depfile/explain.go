package depfile

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"go.trai.ch/strata/internal/core/domain"
)

// Render formats a record as stable text, one fact per line.
func Render(df *domain.DependencyFile) string {
	if df == nil {
		return ""
	}
	var b strings.Builder
	for _, e := range df.Entries {
		if e.IsDirectory {
			b.WriteString("dir " + e.FileName + "\n")
			continue
		}
		b.WriteString("file " + e.FileName + "\n")
		for _, g := range e.GenFiles {
			b.WriteString("  gen " + g.Name + " " + g.Hash + "\n")
		}
		for _, d := range e.SrcEntries {
			line := "  dep " + d.Layer + ":" + d.RelPath
			if d.TypeName != "" {
				line += " (" + d.TypeName + ")"
			}
			b.WriteString(line + "\n")
		}
		for _, g := range e.Groups {
			b.WriteString("  group " + g + "\n")
		}
		for _, g := range e.GroupDeps {
			b.WriteString("  collect " + g + "\n")
		}
		if e.Error {
			b.WriteString("  error\n")
		}
		if e.Pending {
			b.WriteString("  pending\n")
		}
	}
	return b.String()
}

// Explain implements ports.RecordExplainer.
func (s *Store) Explain(name string, before, after *domain.DependencyFile) (string, error) {
	return Explain(name, before, after)
}

// Explain returns a unified diff between two versions of a record.
// The result is empty when both render identically.
func Explain(name string, before, after *domain.DependencyFile) (string, error) {
	a, b := Render(before), Render(after)
	if a == b {
		return "", nil
	}
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(a),
		B:        difflib.SplitLines(b),
		FromFile: name + " (recorded)",
		ToFile:   name + " (current)",
		Context:  1,
	})
}
