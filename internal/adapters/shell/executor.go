// Package shell runs subprocesses in a pseudo terminal and drives the native compiler.
package shell

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"

	"fortio.org/safecast"
	"github.com/creack/pty"
	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports"
	"go.trai.ch/zerr"
)

// Process represents a running command.
type Process interface {
	Wait() error
	Resize(rows, cols int) error
}

type ptyProcess struct {
	cmd    *exec.Cmd
	ptmx   *os.File
	ioDone <-chan struct{}
}

func (p *ptyProcess) Wait() error {
	err := p.cmd.Wait()

	// The copy loop closes the pty master once it has drained it.
	<-p.ioDone

	return err
}

func (p *ptyProcess) Resize(rows, cols int) error {
	r, err := safecast.Conv[uint16](rows)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "terminal size out of bounds"), "rows", rows)
	}
	c, err := safecast.Conv[uint16](cols)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "terminal size out of bounds"), "cols", cols)
	}

	return pty.Setsize(p.ptmx, &pty.Winsize{Rows: r, Cols: c})
}

// Executor implements ports.Executor using os/exec and pty.
type Executor struct {
	logger ports.Logger
}

// NewExecutor creates a new Executor.
func NewExecutor(logger ports.Logger) *Executor {
	return &Executor{
		logger: logger,
	}
}

// Start launches cmd in a PTY.
// It returns a Process to control and wait for the command, or nil for an empty command.
func (e *Executor) Start(ctx context.Context, cmd *domain.Command, stdout io.Writer) (Process, error) {
	outLog := &logWriter{logger: e.logger}
	return start(ctx, cmd, io.MultiWriter(outLog, stdout), outLog)
}

func start(ctx context.Context, command *domain.Command, stdout io.Writer, outLog *logWriter) (Process, error) {
	if command == nil || command.Name == "" {
		return nil, nil
	}

	cmdEnv := resolveEnvironment(os.Environ(), command.Env)

	// Resolve the executable path
	executable := command.Name
	if !filepath.IsAbs(executable) {
		if lp, err := lookPath(executable, cmdEnv); err == nil {
			executable = lp
		}
	}

	cmd := exec.CommandContext(ctx, executable, command.Args...) //nolint:gosec // user provided command
	if len(cmd.Args) > 0 {
		cmd.Args[0] = command.Name
	}
	if command.Dir != "" {
		cmd.Dir = command.Dir
	}
	cmd.Env = cmdEnv

	ptmx, err := pty.Start(cmd)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to start pty"), "command", command.Name)
	}

	ioDone := make(chan struct{})
	go func() {
		defer close(ioDone)
		defer func() { _ = ptmx.Close() }()
		defer func() { _ = outLog.Close() }()

		// PTY merges stdout and stderr.
		_, _ = io.Copy(stdout, ptmx)
	}()

	return &ptyProcess{
		cmd:    cmd,
		ptmx:   ptmx,
		ioDone: ioDone,
	}, nil
}

// Execute runs cmd and waits for it to complete. Output goes to stdout; stderr is
// unused because the PTY merges both streams.
func (e *Executor) Execute(ctx context.Context, cmd *domain.Command, stdout, _ io.Writer) error {
	proc, err := e.Start(ctx, cmd, stdout)
	if err != nil {
		return err
	}
	if proc == nil {
		return nil // Empty command
	}

	if err := proc.Wait(); err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return zerr.With(zerr.Wrap(err, "command failed"), "exit_code", exitCode)
	}

	return nil
}

// logWriter forwards complete output lines to the debug log.
type logWriter struct {
	logger ports.Logger
	buf    []byte
}

func (w *logWriter) Write(p []byte) (n int, err error) {
	w.buf = append(w.buf, p...)

	// Scan for newlines
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}

		line := w.buf[:i]
		w.logLine(line)

		// Advance buffer
		w.buf = w.buf[i+1:]
	}

	return len(p), nil
}

func (w *logWriter) Close() error {
	if len(w.buf) > 0 {
		w.logLine(w.buf)
		w.buf = nil
	}
	return nil
}

func (w *logWriter) logLine(line []byte) {
	msg := string(line)
	// PTYs may introduce \r. Remove it.
	msg = strings.TrimSuffix(msg, "\r")

	w.logger.Debug(msg)
}

// allowListedEnvVars are the host environment variables a subprocess inherits.
// Everything else comes from the command itself so compiles stay reproducible.
var allowListedEnvVars = map[string]struct{}{
	"HOME": {},
	"TERM": {},
	"USER": {},
	"PATH": {},
}

// resolveEnvironment merges the allow-listed host environment with the command's own.
// A PATH from the command is prepended to the host PATH.
func resolveEnvironment(sysEnv, cmdEnv []string) []string {
	envMap := filterSystemEnv(sysEnv)
	applyEnv(envMap, cmdEnv)

	keys := make([]string, 0, len(envMap))
	for k := range envMap {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	result := make([]string, 0, len(envMap))
	for _, k := range keys {
		result = append(result, k+"="+envMap[k])
	}
	return result
}

func filterSystemEnv(sysEnv []string) map[string]string {
	envMap := make(map[string]string)
	for _, entry := range sysEnv {
		k, v, ok := strings.Cut(entry, "=")
		if ok {
			if _, allowed := allowListedEnvVars[k]; allowed {
				envMap[k] = v
			}
		}
	}
	return envMap
}

func applyEnv(envMap map[string]string, cmdEnv []string) {
	for _, entry := range cmdEnv {
		k, v, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		if k == "PATH" {
			if sysPath, exists := envMap["PATH"]; exists && sysPath != "" {
				v = v + string(os.PathListSeparator) + sysPath
			}
		}
		envMap[k] = v
	}
}

// lookPath searches for an executable in the directories named by the PATH environment variable.
func lookPath(file string, env []string) (string, error) {
	// Find PATH in env
	var path string
	for _, e := range env {
		if strings.HasPrefix(e, "PATH=") {
			path = strings.TrimPrefix(e, "PATH=")
			break
		}
	}

	if path == "" {
		return "", exec.ErrNotFound
	}

	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			// Unix shell semantics: path element "" means "."
			dir = "."
		}
		path := filepath.Join(dir, file)
		if err := findExecutable(path); err == nil {
			return path, nil
		}
	}
	return "", exec.ErrNotFound
}

func findExecutable(file string) error {
	d, err := os.Stat(file)
	if err != nil {
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0o111 != 0 {
		return nil
	}
	return os.ErrPermission
}
