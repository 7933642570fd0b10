// Package output provides colored, CI-aware terminal output for kfbuild.
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// DefaultLogger is used when no logger is supplied.
var DefaultLogger = New()

// Logger prints colored status messages and, when running under CI,
// collapsible log groups around long external-tool output.
type Logger struct {
	out     io.Writer
	errOut  io.Writer
	verbose bool
	ci      bool
	grouped bool
}

// New returns a Logger writing to stdout/stderr. Color is disabled when
// stdout is not a terminal; group markers are emitted when the CI
// environment variable is set.
func New() *Logger {
	l := NewTo(os.Stdout, os.Stderr)
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		color.NoColor = true
	}
	return l
}

// NewTo returns a Logger writing to the given writers.
func NewTo(out, errOut io.Writer) *Logger {
	return &Logger{
		out:    out,
		errOut: errOut,
		ci:     RunningInCI(),
	}
}

// RunningInCI reports whether the process runs under a CI service,
// signalled by the conventional CI environment variable.
func RunningInCI() bool {
	switch os.Getenv("CI") {
	case "true", "1":
		return true
	}
	return false
}

// SetVerbose enables debug output.
func (l *Logger) SetVerbose(verbose bool) {
	l.verbose = verbose
}

// SetCI overrides CI detection (used by tests).
func (l *Logger) SetCI(ci bool) {
	l.ci = ci
}

// Writer returns the writer external tool output should be streamed to.
func (l *Logger) Writer() io.Writer {
	return l.out
}

// ErrWriter returns the writer external tool stderr should be streamed to.
func (l *Logger) ErrWriter() io.Writer {
	return l.errOut
}

// Info prints an informational message in default color.
func (l *Logger) Info(format string, args ...any) {
	fmt.Fprintf(l.out, format+"\n", args...)
}

// Warn prints a warning message in yellow.
func (l *Logger) Warn(format string, args ...any) {
	yellow := color.New(color.FgYellow)
	yellow.Fprintf(l.errOut, "Warning: "+format+"\n", args...)
}

// Error prints an error message in red.
func (l *Logger) Error(format string, args ...any) {
	red := color.New(color.FgRed)
	red.Fprintf(l.errOut, "Error: "+format+"\n", args...)
}

// Success prints a success message in green with a checkmark.
func (l *Logger) Success(format string, args ...any) {
	green := color.New(color.FgGreen)
	green.Fprintf(l.out, "✓ "+format+"\n", args...)
}

// Debug prints a debug message when verbose mode is enabled.
func (l *Logger) Debug(format string, args ...any) {
	if !l.verbose {
		return
	}
	gray := color.New(color.FgHiBlack)
	gray.Fprintf(l.out, "[DEBUG] "+format+"\n", args...)
}

// Group opens a log section. Under CI it emits a ::group:: marker that log
// viewers render collapsed; otherwise it prints a bold header.
func (l *Logger) Group(format string, args ...any) {
	name := fmt.Sprintf(format, args...)
	if l.ci {
		fmt.Fprintf(l.out, "::group::%s\n", name)
		l.grouped = true
		return
	}
	bold := color.New(color.Bold)
	bold.Fprintf(l.out, "=== %s ===\n", name)
}

// EndGroup closes the section opened by Group. Outside CI it is a no-op.
func (l *Logger) EndGroup() {
	if l.ci && l.grouped {
		fmt.Fprintln(l.out, "::endgroup::")
		l.grouped = false
	}
}
