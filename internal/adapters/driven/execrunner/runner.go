// Package execrunner implements the CommandRunner port on top of
// os/exec. Every external tool the pipeline drives (apt-get, tar's
// build chain, monetdbd, monetdb, pip, python) runs through here.
package execrunner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/monetci/monetup/internal/core/ports/driven"
	"github.com/monetci/monetup/internal/logger"
)

// Ensure Runner implements the interface.
var _ driven.CommandRunner = (*Runner)(nil)

// outputTail bounds how much combined output a failure error carries.
const outputTail = 4096

// Runner executes commands with the inherited environment plus any
// per-invocation additions.
type Runner struct{}

// New creates a Runner.
func New() *Runner {
	return &Runner{}
}

// Run executes the command and waits for it. On a non-zero exit the
// returned error carries the command line and the tail of the combined
// output.
func (r *Runner) Run(ctx context.Context, spec driven.CommandSpec) error {
	cmd := r.build(ctx, spec)

	var buf bytes.Buffer
	if logger.IsVerbose() {
		cmd.Stdout = os.Stderr
		cmd.Stderr = os.Stderr
	} else {
		cmd.Stdout = &buf
		cmd.Stderr = &buf
	}

	logger.Debug("running: %s", commandLine(spec))
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w%s", commandLine(spec), err, tail(buf.Bytes()))
	}
	return nil
}

// Output executes the command and returns its standard output.
func (r *Runner) Output(ctx context.Context, spec driven.CommandSpec) ([]byte, error) {
	cmd := r.build(ctx, spec)

	logger.Debug("running: %s", commandLine(spec))
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("%s: %w%s", commandLine(spec), err, tail(exitErr.Stderr))
		}
		return nil, fmt.Errorf("%s: %w", commandLine(spec), err)
	}
	return out, nil
}

func (r *Runner) build(ctx context.Context, spec driven.CommandSpec) *exec.Cmd {
	cmd := exec.CommandContext(ctx, spec.Name, spec.Args...)
	cmd.Dir = spec.Dir
	if len(spec.Env) > 0 {
		cmd.Env = append(os.Environ(), spec.Env...)
	}
	return cmd
}

func commandLine(spec driven.CommandSpec) string {
	if len(spec.Args) == 0 {
		return spec.Name
	}
	return spec.Name + " " + strings.Join(spec.Args, " ")
}

// tail formats the last portion of captured output for inclusion in an
// error message.
func tail(out []byte) string {
	out = bytes.TrimSpace(out)
	if len(out) == 0 {
		return ""
	}
	if len(out) > outputTail {
		out = out[len(out)-outputTail:]
	}
	return "\n" + string(out)
}
