package gcovr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
)

// Result is the outcome of one coverage tool run.
type Result struct {
	Stdout   []byte
	ExitCode int
}

// Runner executes the coverage tool. Tests substitute a fake.
type Runner interface {
	Run(ctx context.Context, name string, args []string) (Result, error)
}

// ExecRunner runs the tool as a child process. Stdout is captured; stderr
// passes through to Stderr (os.Stderr when nil).
type ExecRunner struct {
	Stderr io.Writer
	// Dir is the child's working directory; empty inherits the caller's.
	Dir string
}

// NewExecRunner returns a runner whose tool stderr goes to stderr, or to
// the process's stderr when nil.
func NewExecRunner(stderr io.Writer) *ExecRunner {
	if stderr == nil {
		stderr = os.Stderr
	}
	return &ExecRunner{Stderr: stderr}
}

// Run starts name with args and waits for it. A non-zero exit is reported
// through Result.ExitCode, not as an error. A child killed by a signal has
// no exit code and is reported as 1. Errors are returned only when the
// process could not be run at all.
func (r *ExecRunner) Run(ctx context.Context, name string, args []string) (Result, error) {
	if name == "" {
		return Result{}, ErrEmptyTool
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = r.Dir
	cmd.Stderr = r.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	out, err := cmd.Output()
	if err == nil {
		return Result{Stdout: out}, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		if code <= 0 {
			code = 1
		}
		return Result{Stdout: out, ExitCode: code}, nil
	}
	return Result{}, fmt.Errorf("%w: %s: %v", ErrToolStart, name, err)
}
