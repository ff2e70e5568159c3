// Package directive implements the reference source format.
//
// A directive file is plain text. Lines starting with one of the keywords below are
// directives, every other line is body text copied into the generated output:
//
//	type <Name>       names the type the file defines; it must match the file name
//	use <Type>        depends on another type, fully qualified
//	group <name>      joins a type group
//	collect <name>    collects every member of a type group
package directive

import (
	"context"
	"os"
	"regexp"
	"slices"
	"strings"

	"go.trai.ch/strata/internal/core/domain"
)

// Document is the parsed form of a directive file. It travels to the generator as the unit model.
type Document struct {
	TypeName string
	Uses     []string
	Groups   []string
	Collects []string
	Body     []string
}

// FileReader reads source files.
type FileReader interface {
	ReadFile(path string) ([]byte, error)
}

type osReader struct{}

func (osReader) ReadFile(path string) ([]byte, error) {
	// #nosec G304 -- path comes from the layer graph
	return os.ReadFile(path)
}

// Parser implements ports.Parser for directive files.
type Parser struct {
	files FileReader
}

// NewParser creates a Parser reading from the local file system.
func NewParser() *Parser {
	return &Parser{files: osReader{}}
}

// NewParserWithReader creates a Parser reading through files.
func NewParserWithReader(files FileReader) *Parser {
	return &Parser{files: files}
}

var (
	typeNameRegex  = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)
	groupNameRegex = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_.\-]*$`)
)

// Parse reads entry and returns its unit. Problems are reported as *domain.ParseError.
func (p *Parser) Parse(ctx context.Context, entry domain.SourceEntry) (*domain.UnitResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := p.files.ReadFile(entry.Path)
	if err != nil {
		return nil, &domain.ParseError{File: entry.RelPath, Msg: err.Error()}
	}

	doc, err := ParseDocument(entry, string(data))
	if err != nil {
		return nil, err
	}

	unit := &domain.UnitResult{
		Entry:     entry,
		Types:     []string{doc.TypeName},
		Groups:    doc.Groups,
		GroupDeps: doc.Collects,
		Model:     doc,
	}
	for _, use := range doc.Uses {
		unit.Dependencies = append(unit.Dependencies, domain.DependencyRef{TypeName: use})
	}
	return unit, nil
}

// ParseDocument parses the text of a directive file.
func ParseDocument(entry domain.SourceEntry, text string) (*Document, error) {
	doc := &Document{TypeName: entry.TypeName}
	declared := false

	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, line := range lines {
		keyword, arg, isDirective := splitDirective(line)
		if !isDirective {
			doc.Body = append(doc.Body, line)
			continue
		}

		lineNo := i + 1
		col := strings.Index(line, keyword) + 1
		if arg == "" {
			return nil, &domain.ParseError{File: entry.RelPath, Line: lineNo, Column: col, Msg: keyword + " needs an argument"}
		}
		argCol := strings.Index(line[col-1+len(keyword):], arg) + col + len(keyword)

		switch keyword {
		case "type":
			if declared {
				return nil, &domain.ParseError{File: entry.RelPath, Line: lineNo, Column: col, Msg: "type declared twice"}
			}
			declared = true
			if !typeNameRegex.MatchString(arg) {
				return nil, &domain.ParseError{File: entry.RelPath, Line: lineNo, Column: argCol, Msg: "invalid type name " + arg}
			}
			if arg != simpleName(entry.TypeName) && arg != entry.TypeName {
				return nil, &domain.ParseError{
					File:   entry.RelPath,
					Line:   lineNo,
					Column: argCol,
					Msg:    "type " + arg + " does not match file name " + simpleName(entry.TypeName),
				}
			}
		case "use":
			if !typeNameRegex.MatchString(arg) {
				return nil, &domain.ParseError{File: entry.RelPath, Line: lineNo, Column: argCol, Msg: "invalid type name " + arg}
			}
			if !slices.Contains(doc.Uses, arg) {
				doc.Uses = append(doc.Uses, arg)
			}
		case "group", "collect":
			if !groupNameRegex.MatchString(arg) {
				return nil, &domain.ParseError{File: entry.RelPath, Line: lineNo, Column: argCol, Msg: "invalid group name " + arg}
			}
			if keyword == "group" {
				doc.Groups = appendUnique(doc.Groups, arg)
			} else {
				doc.Collects = appendUnique(doc.Collects, arg)
			}
		}
	}
	return doc, nil
}

// splitDirective reports whether line is a directive and returns its keyword and argument.
func splitDirective(line string) (string, string, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", "", false
	}
	switch fields[0] {
	case "type", "use", "group", "collect":
	default:
		return "", "", false
	}
	if len(fields) > 2 {
		// More than one argument makes it prose.
		return "", "", false
	}
	if len(fields) == 1 {
		return fields[0], "", true
	}
	return fields[0], fields[1], true
}

func simpleName(typeName string) string {
	if i := strings.LastIndex(typeName, "."); i >= 0 {
		return typeName[i+1:]
	}
	return typeName
}

func appendUnique(list []string, v string) []string {
	if slices.Contains(list, v) {
		return list
	}
	return append(list, v)
}
