// Package system talks to everything outside the process: child commands,
// apt, flatpak, git, the GitHub releases API, plain HTTP downloads, tar.gz
// archives and a few host probes.
//
// Commands are always structured argv lists. Shell strings are only used
// for fixed scripts written in this codebase (see ShellCommand).
package system

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/nyarchlinux/nyarchify/pkg/errors"
	"github.com/nyarchlinux/nyarchify/pkg/logging"
	"github.com/rs/zerolog"
)

// Command is one child process invocation
type Command struct {
	Name string
	Args []string
	// Dir is the working directory; empty means the current one
	Dir string
	// Env holds extra KEY=VALUE pairs on top of the target environment
	Env []string
	// Sudo runs the command through sudo unless we already are root
	Sudo  bool
	Stdin io.Reader
}

// NewCommand builds a Command from an argv list
func NewCommand(name string, args ...string) Command {
	return Command{Name: name, Args: args}
}

// ShellCommand wraps a fixed script in sh -c. Never pass it anything that
// came from outside the program.
func ShellCommand(script string) Command {
	return Command{Name: "sh", Args: []string{"-c", script}}
}

// AsRoot returns a copy of c that runs elevated
func (c Command) AsRoot() Command {
	c.Sudo = true
	return c
}

// In returns a copy of c that runs in dir
func (c Command) In(dir string) Command {
	c.Dir = dir
	return c
}

// WithEnv returns a copy of c with extra environment entries
func (c Command) WithEnv(kv ...string) Command {
	c.Env = append(append([]string(nil), c.Env...), kv...)
	return c
}

// WithStdin returns a copy of c reading stdin from r
func (c Command) WithStdin(r io.Reader) Command {
	c.Stdin = r
	return c
}

// Argv returns the full argument vector, without any sudo prefix
func (c Command) Argv() []string {
	return append([]string{c.Name}, c.Args...)
}

func (c Command) String() string {
	s := strings.Join(c.Argv(), " ")
	if c.Sudo {
		return "sudo " + s
	}
	return s
}

// Runner executes commands
type Runner interface {
	// Run executes cmd with its output going to the terminal
	Run(ctx context.Context, cmd Command) error
	// Output executes cmd and returns its trimmed stdout
	Output(ctx context.Context, cmd Command) (string, error)
}

// EnvironFunc builds a child environment from a base one
type EnvironFunc func(base []string) []string

// ExecRunner runs commands with os/exec
type ExecRunner struct {
	environ EnvironFunc
	stdout  io.Writer
	stderr  io.Writer
	isRoot  bool
	logger  zerolog.Logger
}

// NewExecRunner creates a runner whose children get the environment
// produced by environ (typically TargetIdentity.Environ).
func NewExecRunner(environ EnvironFunc) *ExecRunner {
	if environ == nil {
		environ = func(base []string) []string { return base }
	}
	return &ExecRunner{
		environ: environ,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
		isRoot:  os.Geteuid() == 0,
		logger:  logging.GetLogger("system.runner"),
	}
}

// WithOutput redirects the output of Run
func (r *ExecRunner) WithOutput(stdout, stderr io.Writer) *ExecRunner {
	r.stdout = stdout
	r.stderr = stderr
	return r
}

// Run implements Runner
func (r *ExecRunner) Run(ctx context.Context, cmd Command) error {
	c := r.build(ctx, cmd)
	c.Stdout = r.stdout
	c.Stderr = r.stderr
	return r.wrap(cmd, c.Run(), nil)
}

// Output implements Runner
func (r *ExecRunner) Output(ctx context.Context, cmd Command) (string, error) {
	c := r.build(ctx, cmd)
	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr
	if err := c.Run(); err != nil {
		return "", r.wrap(cmd, err, &stderr)
	}
	return strings.TrimSpace(stdout.String()), nil
}

func (r *ExecRunner) build(ctx context.Context, cmd Command) *exec.Cmd {
	argv := cmd.Argv()
	if cmd.Sudo && !r.isRoot {
		argv = append([]string{"sudo"}, argv...)
	}
	logging.LogCommand(r.logger, argv[0], argv[1:])

	c := exec.CommandContext(ctx, argv[0], argv[1:]...)
	c.Dir = cmd.Dir
	c.Env = append(r.environ(os.Environ()), cmd.Env...)
	c.Stdin = cmd.Stdin
	return c
}

func (r *ExecRunner) wrap(cmd Command, err error, stderr *bytes.Buffer) error {
	if err == nil {
		return nil
	}
	var nerr *errors.NyarchError
	var exitErr *exec.ExitError
	switch {
	case stderrors.Is(err, exec.ErrNotFound):
		nerr = errors.Wrapf(err, errors.ErrDependency, "%s is not installed", cmd.Name)
	case stderrors.As(err, &exitErr):
		nerr = errors.Wrapf(err, errors.ErrCommand, "%s failed", cmd).
			WithDetail("exit_code", exitErr.ExitCode())
	default:
		nerr = errors.Wrapf(err, errors.ErrCommand, "could not run %s", cmd)
	}
	if stderr != nil && stderr.Len() > 0 {
		nerr.WithDetail("stderr", strings.TrimSpace(stderr.String()))
	}
	r.logger.Debug().Err(nerr).Msg("Command failed")
	return nerr
}
