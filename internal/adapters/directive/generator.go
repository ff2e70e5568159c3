package directive

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports"
	"go.trai.ch/zerr"
)

// DefaultOutputExt is the extension of generated files.
const DefaultOutputExt = ".gen"

// Generator implements ports.Generator for directive documents.
// It writes one output per unit, named after the source with the output extension.
type Generator struct {
	hasher ports.Hasher
	ext    string
}

// NewGenerator creates a Generator hashing outputs with hasher.
func NewGenerator(hasher ports.Hasher) *Generator {
	return &Generator{hasher: hasher, ext: DefaultOutputExt}
}

// Generate renders unit below outDir.
func (g *Generator) Generate(ctx context.Context, unit *domain.UnitResult, outDir string) ([]domain.GeneratedFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, ok := unit.Model.(*Document)
	if !ok {
		return nil, zerr.With(domain.ErrGenerateFailed, "file", unit.Entry.RelPath)
	}

	name := strings.TrimSuffix(unit.Entry.RelPath, path.Ext(unit.Entry.RelPath)) + g.ext
	content := Render(unit, doc)

	target := filepath.Join(outDir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(target), domain.DirPerm); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrGenerateFailed.Error()), "path", target)
	}
	if err := os.WriteFile(target, content, domain.FilePerm); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrGenerateFailed.Error()), "path", target)
	}

	return []domain.GeneratedFile{{Name: name, Hash: g.hasher.HashBytes(content)}}, nil
}

// Render returns the generated text of a unit. It depends only on the unit, so an
// unchanged source renders byte for byte the same output.
func Render(unit *domain.UnitResult, doc *Document) []byte {
	var b strings.Builder
	b.WriteString("// Code generated by strata from " + unit.Entry.LayerName + ":" + unit.Entry.RelPath + ". DO NOT EDIT.\n")
	b.WriteString("type " + doc.TypeName + "\n")
	for _, dep := range unit.Dependencies {
		b.WriteString("use " + dep.TypeName)
		if dep.Layer != "" {
			b.WriteString(" from " + dep.Layer + ":" + dep.RelPath)
		}
		b.WriteString("\n")
	}
	for _, g := range doc.Groups {
		b.WriteString("group " + g + "\n")
	}
	for _, g := range doc.Collects {
		b.WriteString("collect " + g + ": " + strings.Join(unit.Members[g], ", ") + "\n")
	}
	if len(doc.Body) > 0 {
		b.WriteString("\n")
		for _, line := range doc.Body {
			b.WriteString(line + "\n")
		}
	}
	return []byte(b.String())
}
