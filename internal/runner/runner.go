// Package runner wraps subprocess invocation behind a narrow interface so
// repair procedures never scrape exec.Cmd directly and tests can substitute
// a fake without spawning processes.
package runner

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
)

// Result holds the outcome of a single tool invocation.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Output returns stdout, or stderr when stdout is empty. Trimmed.
func (r Result) Output() string {
	out := strings.TrimSpace(r.Stdout)
	if out == "" {
		out = strings.TrimSpace(r.Stderr)
	}
	return out
}

// OK reports whether the tool exited zero.
func (r Result) OK() bool {
	return r.ExitCode == 0
}

// Runner executes external tools.
type Runner interface {
	// Run invokes name with args in dir (empty dir = current process dir).
	// A non-zero exit is not an error; err is reserved for failures to run
	// the tool at all (not found, cancelled context).
	Run(ctx context.Context, dir, name string, args ...string) (Result, error)

	// LookPath reports the resolved path of a tool, or an error if absent.
	LookPath(name string) (string, error)
}

// Exec is the production Runner backed by os/exec.
type Exec struct{}

// New returns the default subprocess-backed runner.
func New() *Exec {
	return &Exec{}
}

// Run implements Runner.
func (e *Exec) Run(ctx context.Context, dir, name string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return res, err
	}
	return res, nil
}

// LookPath implements Runner.
func (e *Exec) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}
