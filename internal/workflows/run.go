package workflows

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"

	cerrors "github.com/clerk-dev/clerk/internal/errors"
	"github.com/clerk-dev/clerk/internal/utils"
	"github.com/clerk-dev/clerk/internal/vault"
)

// RunOptions configures the run workflow.
type RunOptions struct {
	Target

	// Command is the program and its arguments.
	Command []string

	// Stdin, Stdout and Stderr default to the process streams.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// RunResult contains the outcome of a run operation.
type RunResult struct {
	// ExitCode is the child's exit status.
	ExitCode int

	// Injected is the number of variables added to the child environment.
	Injected int
}

// Run starts a command with the environment's variables added to the
// current process environment, overriding any of the same name. The vault
// is closed before the child starts. A child that exits non-zero is not an
// error; its code is returned in RunResult.
func Run(ctx context.Context, h *Handle, opts RunOptions) (*RunResult, error) {
	if len(opts.Command) == 0 {
		return nil, cerrors.ErrNoCommand
	}

	_, env, err := resolve(ctx, h, opts.Target)
	if err != nil {
		return nil, err
	}

	list, err := secretsAll(ctx, h, env.ID)
	if err != nil {
		return nil, err
	}
	environ := append(os.Environ(), utils.EnvironList(toEntries(list))...)
	injected := len(list)
	vault.WipeAll(list)

	// Nothing else needs the key while the child runs.
	if err := h.Close(); err != nil {
		h.log.Warnf("Failed to close vault: %v", err)
	}

	cmd := exec.CommandContext(ctx, opts.Command[0], opts.Command[1:]...)
	cmd.Env = environ
	cmd.Stdin = orDefault(opts.Stdin, os.Stdin)
	cmd.Stdout = orDefaultWriter(opts.Stdout, os.Stdout)
	cmd.Stderr = orDefaultWriter(opts.Stderr, os.Stderr)

	h.log.Debugf("Running %s with %d injected variables", opts.Command[0], injected)

	result := &RunResult{Injected: injected}
	err = cmd.Run()

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return result, nil
	case errors.As(err, &exitErr):
		result.ExitCode = exitStatus(exitErr)
		return result, nil
	default:
		return nil, fmt.Errorf("running %s: %w", opts.Command[0], err)
	}
}

// exitStatus follows the shell convention of 128+N for a child killed by
// signal N. Any other status that is not a plain exit code becomes 1.
func exitStatus(exitErr *exec.ExitError) int {
	if code := exitErr.ExitCode(); code >= 0 {
		return code
	}
	if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return 1
}

func orDefault(r io.Reader, def io.Reader) io.Reader {
	if r == nil {
		return def
	}
	return r
}

func orDefaultWriter(w io.Writer, def io.Writer) io.Writer {
	if w == nil {
		return def
	}
	return w
}
