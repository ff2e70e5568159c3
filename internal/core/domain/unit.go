package domain

import (
	"fmt"
	"strings"
)

// UnitResult is what the parse collaborator returns for one source file.
type UnitResult struct {
	Entry SourceEntry
	// Types lists the fully-qualified type names the file defines.
	Types []string
	// Dependencies lists the files this file depends on.
	Dependencies []DependencyRef
	// Groups lists type groups the file joins; GroupDeps lists groups it collects.
	Groups    []string
	GroupDeps []string
	// Members maps each collected group to its member type names. It is filled in
	// before a collecting unit is generated.
	Members map[string][]string
	Error   bool
	// Model is collaborator specific and handed back to the generator untouched.
	Model any
}

// ParseError is a structured parse or typecheck failure.
type ParseError struct {
	File   string
	Line   int
	Column int
	Msg    string
}

// Error implements error.
func (e *ParseError) Error() string {
	if e.Line == 0 {
		return e.File + ": " + e.Msg
	}
	return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Msg)
}

// CompileRequest is one invocation of the native compiler.
type CompileRequest struct {
	Runtime   string
	Inputs    []string
	OutputDir string
	Classpath string
	Debug     bool
	WorkDir   string
	Compiler  CompilerConfig
}

// CompileResult is what the compiler runner reports.
type CompileResult struct {
	ExitCode    int
	Diagnostics []string
	// Suppressed counts diagnostics matching a benign notice.
	Suppressed int
}

// Failed reports whether the compile failed.
func (r *CompileResult) Failed() bool {
	return r.ExitCode != 0
}

// Summary joins the diagnostics into one block.
func (r *CompileResult) Summary() string {
	return strings.Join(r.Diagnostics, "\n")
}
