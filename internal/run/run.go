// Package run executes external tools and turns their exit statuses into
// errors. Every tool invocation in kfbuild goes through a Runner so that a
// nonzero exit uniformly aborts the calling step.
package run

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// stderrTailLimit bounds how much captured stderr ends up in error messages.
const stderrTailLimit = 4096

// Runner runs one external command described for error reporting.
type Runner interface {
	Run(ctx context.Context, desc string, cmd *exec.Cmd) error
}

// ExitError reports an external tool that exited with a nonzero status.
type ExitError struct {
	Desc     string   // human-readable description of the step
	Path     string   // program that was run
	Args     []string // full argument vector, including the program
	ExitCode int
	Stderr   string // trimmed tail of captured stderr
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s: %s exited with status %d", e.Desc, e.Path, e.ExitCode)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

// Command builds an exec.Cmd bound to ctx with its working directory set.
// An empty dir leaves the command in the caller's working directory.
func Command(ctx context.Context, dir, name string, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	return cmd
}

// Exec is the production Runner. Tool output streams to the configured
// writers while stderr is also captured for error messages.
type Exec struct {
	Stdout io.Writer // defaults to os.Stdout
	Stderr io.Writer // defaults to os.Stderr
}

func (e *Exec) Run(ctx context.Context, desc string, cmd *exec.Cmd) error {
	stdout := e.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stderr := e.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	var tail bytes.Buffer
	if cmd.Stdout == nil {
		cmd.Stdout = stdout
	}
	if cmd.Stderr == nil {
		cmd.Stderr = io.MultiWriter(stderr, &tail)
	}

	err := cmd.Run()
	if err == nil {
		return nil
	}

	var xerr *exec.ExitError
	if errors.As(err, &xerr) {
		return &ExitError{
			Desc:     desc,
			Path:     cmd.Path,
			Args:     cmd.Args,
			ExitCode: xerr.ExitCode(),
			Stderr:   tailString(&tail),
		}
	}
	if ctx.Err() != nil {
		return fmt.Errorf("%s: %w", desc, ctx.Err())
	}
	return fmt.Errorf("%s: %w", desc, err)
}

// tailString returns the last stderrTailLimit bytes of buf, trimmed.
func tailString(buf *bytes.Buffer) string {
	b := buf.Bytes()
	if len(b) > stderrTailLimit {
		b = b[len(b)-stderrTailLimit:]
	}
	return strings.TrimSpace(string(b))
}
