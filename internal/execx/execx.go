// Package execx runs external tools and captures their output.
//
// The build and registry layers only see the Runner interface, so tests can
// substitute a fake instead of spawning ant, maven, or RCS binaries.
package execx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Redacted replaces secret values in reported command lines.
const Redacted = "<password>"

// Cmd describes one external tool invocation.
type Cmd struct {
	// Name is the program to run, resolved via PATH unless absolute.
	Name string

	// Args are the program arguments.
	Args []string

	// Dir is the working directory. Empty means the current directory.
	Dir string

	// Env holds extra KEY=VALUE pairs appended to the inherited environment.
	Env []string

	// Secrets are values that must never appear in errors or logs. They are
	// replaced with Redacted wherever the command line is rendered.
	Secrets []string
}

// String renders the command line with secrets redacted.
func (c Cmd) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, c.Name)
	for _, arg := range c.Args {
		parts = append(parts, c.redact(arg))
	}
	return strings.Join(parts, " ")
}

func (c Cmd) redact(s string) string {
	for _, secret := range c.Secrets {
		if secret != "" {
			s = strings.ReplaceAll(s, secret, Redacted)
		}
	}
	return s
}

// Result holds the captured output of a completed invocation.
type Result struct {
	Stdout string
	Stderr string
}

// Error reports a tool that exited nonzero.
type Error struct {
	// Command is the redacted command line.
	Command string

	// ExitCode is the tool's exit status.
	ExitCode int

	// Stderr is the captured standard error, redacted.
	Stderr string
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: exit status %d", e.Command, e.ExitCode)
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += ": " + stderr
	}
	return msg
}

// Runner executes external commands.
type Runner interface {
	// Run executes cmd, waiting for completion. A nonzero exit surfaces as
	// *Error; spawn failures surface as-is.
	Run(ctx context.Context, cmd Cmd) (*Result, error)

	// LookPath reports whether a program is available on PATH.
	LookPath(name string) bool
}

// osRunner is the production Runner backed by os/exec.
type osRunner struct{}

// New returns a Runner backed by the operating system.
func New() Runner {
	return osRunner{}
}

func (osRunner) Run(ctx context.Context, cmd Cmd) (*Result, error) {
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	c.Env = append(os.Environ(), cmd.Env...)

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	err := c.Run()
	result := &Result{
		Stdout: cmd.redact(stdout.String()),
		Stderr: cmd.redact(stderr.String()),
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return result, &Error{
				Command:  cmd.String(),
				ExitCode: exitErr.ExitCode(),
				Stderr:   result.Stderr,
			}
		}
		return result, fmt.Errorf("%s: %w", cmd.String(), err)
	}
	return result, nil
}

func (osRunner) LookPath(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
