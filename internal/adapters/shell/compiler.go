package shell

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"slices"
	"sort"
	"strings"
	"sync"

	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports"
	"go.trai.ch/zerr"
)

// Placeholders substituted in a compiler command template.
const (
	PlaceholderOut       = "{out}"
	PlaceholderClasspath = "{classpath}"
	PlaceholderDebug     = "{debug}"
	PlaceholderInputs    = "{inputs}"
)

// DebugFlag replaces {debug} when a runtime compiles with debug information.
const DebugFlag = "-g"

// Compiler implements ports.Compiler by running the runtime's command template.
type Compiler struct {
	executor ports.Executor
	logger   ports.Logger
}

// NewCompiler creates a Compiler running commands through executor.
func NewCompiler(executor ports.Executor, logger ports.Logger) *Compiler {
	return &Compiler{executor: executor, logger: logger}
}

// Compile runs the compiler over req.Inputs. A run that exits non-zero is a failed
// result, not an error; the error is reserved for runs that could not start.
func (c *Compiler) Compile(ctx context.Context, req domain.CompileRequest) (*domain.CompileResult, error) {
	if len(req.Compiler.Command) == 0 {
		c.logger.Debug("no compiler configured for runtime " + req.Runtime + "; skipping compile")
		return &domain.CompileResult{}, nil
	}
	if err := os.MkdirAll(req.OutputDir, domain.DirPerm); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrCompileFailed.Error()), "path", req.OutputDir)
	}

	argv := ExpandCommand(req.Compiler.Command, req)
	cmd := &domain.Command{
		Name: argv[0],
		Args: argv[1:],
		Dir:  req.WorkDir,
		Env:  envPairs(req.Compiler.Env),
	}

	scraper := newDiagnostics(req.Compiler.Benign)
	err := c.executor.Execute(ctx, cmd, scraper, scraper)
	scraper.flush()

	res := &domain.CompileResult{
		Diagnostics: scraper.lines,
		Suppressed:  scraper.suppressed,
	}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, zerr.With(err, "runtime", req.Runtime)
		}
		res.ExitCode = exitErr.ExitCode()
		if res.ExitCode == 0 {
			res.ExitCode = -1
		}
	}
	return res, nil
}

// ExpandCommand substitutes the placeholders of template.
// An argument that is exactly {inputs} expands to one argument per input; an empty {debug}
// argument is dropped.
func ExpandCommand(template []string, req domain.CompileRequest) []string {
	debug := ""
	if req.Debug {
		debug = DebugFlag
	}
	replacer := strings.NewReplacer(
		PlaceholderOut, req.OutputDir,
		PlaceholderClasspath, req.Classpath,
		PlaceholderDebug, debug,
		PlaceholderInputs, strings.Join(req.Inputs, " "),
	)

	out := make([]string, 0, len(template)+len(req.Inputs))
	for _, arg := range template {
		switch arg {
		case PlaceholderInputs:
			out = append(out, req.Inputs...)
		case PlaceholderDebug:
			if debug != "" {
				out = append(out, debug)
			}
		default:
			out = append(out, replacer.Replace(arg))
		}
	}
	return out
}

func envPairs(env map[string]string) []string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(env))
	for _, k := range keys {
		pairs = append(pairs, k+"="+env[k])
	}
	return pairs
}

// diagnostics collects compiler output lines. Lines containing a benign notice are counted
// and dropped.
type diagnostics struct {
	mu         sync.Mutex
	benign     []string
	buf        []byte
	lines      []string
	suppressed int
}

func newDiagnostics(benign []string) *diagnostics {
	return &diagnostics{benign: slices.Clone(benign)}
}

func (d *diagnostics) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.buf = append(d.buf, p...)
	for {
		i := bytes.IndexByte(d.buf, '\n')
		if i < 0 {
			break
		}
		d.add(string(d.buf[:i]))
		d.buf = d.buf[i+1:]
	}
	return len(p), nil
}

func (d *diagnostics) flush() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.buf) > 0 {
		d.add(string(d.buf))
		d.buf = nil
	}
}

func (d *diagnostics) add(line string) {
	line = strings.TrimRight(line, "\r")
	if strings.TrimSpace(line) == "" {
		return
	}
	for _, b := range d.benign {
		if b != "" && strings.Contains(line, b) {
			d.suppressed++
			return
		}
	}
	d.lines = append(d.lines, line)
}
