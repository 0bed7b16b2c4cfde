package wasmforge

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
)

// Command describes a single external tool invocation.
type Command struct {
	// Name is the executable to run, resolved against PATH unless absolute.
	Name string
	// Args are the arguments, not including the executable name.
	Args []string
	// Dir is the working directory for the subprocess. Empty means inherit.
	Dir string
	// Env holds KEY=VALUE pairs appended to the inherited environment for
	// this invocation only. The parent process environment is never mutated.
	Env []string
	// Stdout and Stderr receive the subprocess output streams. Nil discards.
	Stdout io.Writer
	Stderr io.Writer
}

// Runner executes external tool processes. Implementations other than
// ExecRunner exist for testing pipeline behavior without real tools.
type Runner interface {
	// Run executes the command and blocks until it exits. A non-zero exit
	// is returned as an error carrying the exit status.
	Run(ctx context.Context, cmd Command) error

	// LookPath resolves an executable name against the search path.
	LookPath(name string) (string, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, c Command) error {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	cmd.Stdout = c.Stdout
	cmd.Stderr = c.Stderr
	return cmd.Run()
}

// LookPath implements Runner.
func (ExecRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// ExitCode extracts the subprocess exit status from an error returned by
// Runner.Run. It returns -1 when the error carries no exit status (the
// process never started, or was killed by a signal).
func ExitCode(err error) int {
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return ee.ExitCode()
	}
	return -1
}
