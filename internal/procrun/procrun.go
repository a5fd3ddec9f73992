// Package procrun starts external tools (gir, rustdoc-stripper, git, cargo)
// and reports their outcome. Captured runs hold stdout and stderr in separate
// buffers that are only handed back once the process has exited and both
// streams are drained.
package procrun

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/specialistvlad/girregen/internal/ctxlog"
)

// Command describes one process invocation.
type Command struct {
	Name string
	Args []string
	// Dir is the working directory; empty means the current one.
	Dir string
	// Env entries are appended to the parent environment.
	Env []string
}

// String renders the command line for logs and error messages.
func (c Command) String() string {
	parts := append([]string{c.Name}, c.Args...)
	return strings.Join(parts, " ")
}

// Output is what a captured run produced.
type Output struct {
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// ExitError reports a process that ran but exited unsuccessfully. Stderr is
// the verbatim captured error stream (empty for attached runs).
type ExitError struct {
	Command string
	Code    int
	Stderr  string
	Err     error
}

func (e *ExitError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		msg = e.Err.Error()
	}
	return fmt.Sprintf("`%s` failed (exit status %d): %s", e.Command, e.Code, msg)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// Runner runs commands with captured output.
type Runner interface {
	Run(ctx context.Context, cmd Command) (*Output, error)
}

// Local runs commands as child processes of this one.
type Local struct{}

// Run implements Runner.
func (Local) Run(ctx context.Context, cmd Command) (*Output, error) {
	return Run(ctx, cmd)
}

// Run starts cmd, waits for it and returns both streams. A non-zero exit
// status yields an *ExitError alongside the (still populated) Output.
func Run(ctx context.Context, cmd Command) (*Output, error) {
	logger := ctxlog.FromContext(ctx)

	var stdout, stderr bytes.Buffer
	c := build(ctx, cmd)
	c.Stdout = &stdout
	c.Stderr = &stderr

	logger.Debug("Starting process.", "command", cmd.String(), "dir", cmd.Dir)
	start := time.Now()
	err := c.Run()
	out := &Output{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}
	logger.Debug("Process finished.", "command", cmd.String(), "duration", out.Duration, "error", err)

	if err != nil {
		return out, wrapErr(cmd, err, out.Stderr)
	}
	return out, nil
}

// RunAttached runs cmd with its streams connected to the given writers,
// for steps whose progress the user should see live.
func RunAttached(ctx context.Context, cmd Command, stdout, stderr io.Writer) error {
	logger := ctxlog.FromContext(ctx)

	c := build(ctx, cmd)
	c.Stdin = os.Stdin
	c.Stdout = stdout
	c.Stderr = stderr

	logger.Debug("Starting attached process.", "command", cmd.String(), "dir", cmd.Dir)
	if err := c.Run(); err != nil {
		return wrapErr(cmd, err, "")
	}
	return nil
}

func build(ctx context.Context, cmd Command) *exec.Cmd {
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}
	return c
}

func wrapErr(cmd Command, err error, stderr string) error {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{
			Command: cmd.String(),
			Code:    exitErr.ExitCode(),
			Stderr:  stderr,
			Err:     err,
		}
	}
	return fmt.Errorf("failed to run `%s`: %w", cmd.String(), err)
}
