package executil

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

// Executor runs a command and returns its exit status and output.
//
// A non-nil error means the process could not be run at all (binary missing,
// context cancelled). A process that ran and exited non-zero is reported
// through Result.ExitCode with a nil error; callers decide what that means.
type Executor interface {
	Execute(ctx context.Context, cmd Command) (Result, error)
}

// Command describes a single external process invocation.
type Command struct {
	// Name is the binary to run, looked up in PATH.
	Name string
	Args []string

	// Env holds extra KEY=VALUE pairs appended to the current environment.
	Env []string

	// Dir is the working directory. Empty means the current directory.
	Dir string

	Stdin io.Reader

	// Stdout, if set, receives a copy of the process stdout (for example a
	// file the output is redirected to). Output is captured regardless.
	Stdout io.Writer

	// Sensitive values are masked when the command is rendered for logs.
	Sensitive []string
}

// String renders the command line with sensitive values masked.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, c.Name)
	parts = append(parts, c.Args...)
	line := strings.Join(parts, " ")
	for _, s := range c.Sensitive {
		if s != "" {
			line = strings.ReplaceAll(line, s, "****")
		}
	}
	return line
}

// Result is the outcome of a process that ran to completion.
type Result struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// Err returns an *ExitError if the process exited non-zero, nil otherwise.
func (r Result) Err(cmd Command) error {
	if r.ExitCode == 0 {
		return nil
	}
	return &ExitError{
		Command:  cmd.Name,
		ExitCode: r.ExitCode,
		Stderr:   strings.TrimSpace(string(r.Stderr)),
	}
}

// ExitError reports a process that exited with a non-zero status.
type ExitError struct {
	Command  string
	ExitCode int
	Stderr   string
}

func (e *ExitError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("%s exited with code %d", e.Command, e.ExitCode)
	}
	return fmt.Sprintf("%s exited with code %d: %s", e.Command, e.ExitCode, e.Stderr)
}

// OSExecutor spawns real processes.
type OSExecutor struct {
	// Stream copies process output to the terminal while it runs.
	Stream bool
}

// Execute implements Executor.
func (e *OSExecutor) Execute(ctx context.Context, cmd Command) (Result, error) {
	// #nosec G204 - commands are assembled by the pipelines, not from user input
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	c.Stdin = cmd.Stdin
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}

	var stdout, stderr bytes.Buffer
	stdoutWriters := []io.Writer{&stdout}
	stderrWriters := []io.Writer{&stderr}
	if cmd.Stdout != nil {
		stdoutWriters = append(stdoutWriters, cmd.Stdout)
	} else if e.Stream {
		stdoutWriters = append(stdoutWriters, os.Stdout)
	}
	if e.Stream {
		stderrWriters = append(stderrWriters, os.Stderr)
	}
	c.Stdout = io.MultiWriter(stdoutWriters...)
	c.Stderr = io.MultiWriter(stderrWriters...)

	err := c.Run()
	res := Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return res, fmt.Errorf("%s interrupted: %w", cmd.Name, ctxErr)
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return res, fmt.Errorf("failed to run %s: %w", cmd.Name, err)
	}
	return res, nil
}

// Output runs cmd and returns its trimmed stdout, treating a non-zero exit
// as an error.
func Output(ctx context.Context, e Executor, cmd Command) (string, error) {
	res, err := e.Execute(ctx, cmd)
	if err != nil {
		return "", err
	}
	if err := res.Err(cmd); err != nil {
		return "", err
	}
	return strings.TrimSpace(string(res.Stdout)), nil
}
