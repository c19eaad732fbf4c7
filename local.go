package xdpready

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
)

// Local runs commands on this machine through sh -c.
type Local struct {
	policy ExecPolicy
	logger *slog.Logger

	// Stdin is attached to privileged commands so that sudo can prompt
	// on the controlling terminal. Defaults to os.Stdin.
	Stdin io.Reader
}

// NewLocal returns a Local backend. Its default policy is [Concurrent].
func NewLocal(logger *slog.Logger, opts ...BackendOption) *Local {
	cfg := newBackendConfig(Concurrent, opts)
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Local{
		policy: cfg.policy,
		logger: logger,
		Stdin:  os.Stdin,
	}
}

// Run runs line with sh -c and returns its standard output.
func (l *Local) Run(ctx context.Context, line string) (string, error) {
	return l.run(ctx, line, nil)
}

// RunPrivileged runs line behind sudo, letting sudo read from l.Stdin.
func (l *Local) RunPrivileged(ctx context.Context, line string) (string, error) {
	return l.run(ctx, "sudo "+line, l.Stdin)
}

func (l *Local) run(ctx context.Context, line string, stdin io.Reader) (string, error) {
	l.logger.Debug("running local command", "command", line)

	cmd := exec.CommandContext(ctx, "sh", "-c", line)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.Stdin = stdin

	err := cmd.Run()
	if err == nil {
		return stdout.String(), nil
	}

	ee := &ExecError{
		Command:    line,
		ExitStatus: -1,
		Stdout:     stdout.String(),
		Stderr:     stderr.String(),
		Err:        err,
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		ee.ExitStatus = exitErr.ExitCode()
	}
	return stdout.String(), ee
}

// Policy implements [Backend].
func (l *Local) Policy() ExecPolicy {
	return l.policy
}

func (l *Local) String() string {
	return "local"
}

// Close implements [Backend]. Local holds no resources.
func (l *Local) Close() error {
	return nil
}
