// Package execrun runs external programs (downloader scripts, wget, du)
// behind a narrow interface so callers can be tested without shelling out.
package execrun

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
)

type Runner interface {
	// Run executes the command with its output passed through.
	Run(ctx context.Context, name string, args ...string) error
	// Output executes the command and returns its standard output.
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

type ExecRunner struct {
	Dir    string
	Stdout io.Writer
	Stderr io.Writer
}

func (r ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = r.Dir
	cmd.Stdout = orDefault(r.Stdout, os.Stdout)
	cmd.Stderr = orDefault(r.Stderr, os.Stderr)
	return cmd.Run()
}

func (r ExecRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = r.Dir
	cmd.Stderr = orDefault(r.Stderr, os.Stderr)
	return cmd.Output()
}

// ExitCode reports the exit status carried by err, if the process ran and exited.
func ExitCode(err error) (int, bool) {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), true
	}
	return 0, false
}

func orDefault(w io.Writer, def io.Writer) io.Writer {
	if w == nil {
		return def
	}
	return w
}
