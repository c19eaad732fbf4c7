package xdpready

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/ssh"
)

// ExecPolicy tells stages whether independent commands may be issued
// concurrently on a backend.
type ExecPolicy int

const (
	// Sequential issues one command at a time.
	Sequential ExecPolicy = iota
	// Concurrent allows stages to fan out independent commands.
	Concurrent
)

func (p ExecPolicy) String() string {
	switch p {
	case Sequential:
		return "sequential"
	case Concurrent:
		return "concurrent"
	default:
		return fmt.Sprintf("ExecPolicy(%d)", p)
	}
}

// Backend runs shell command lines on the host under diagnosis.
//
// Run and RunPrivileged return the command's standard output. A non-zero
// exit or a transport failure is reported as an *[ExecError].
type Backend interface {
	Run(ctx context.Context, line string) (string, error)
	// RunPrivileged runs line with elevated privileges. The escalation
	// prefix applies to the first command of a pipeline.
	RunPrivileged(ctx context.Context, line string) (string, error)
	// Policy reports whether independent commands may run concurrently.
	Policy() ExecPolicy
	// String names the backend for logs and console output.
	String() string
	Close() error
}

// kernelReleaser is implemented by backends that can report the kernel
// release without running a command.
type kernelReleaser interface {
	KernelRelease(ctx context.Context) (string, error)
}

// Commands shared by every backend.
const (
	kernelReleaseCommand = "uname -r"
	// hostIdentityCommand prints the os-release ID, falling back to the node
	// name. A POSIX sh exits when "." cannot read its file, so the file is
	// tested first.
	hostIdentityCommand = `{ [ -r /etc/os-release ] && . /etc/os-release && echo "$ID"; } 2>/dev/null || uname -n`
	linkListCommand     = `ip -o link show | awk -F': ' '{print $2}'`
)

// kernelRelease returns the trimmed kernel release of the host behind b.
func kernelRelease(ctx context.Context, b Backend) (string, error) {
	if r, ok := b.(kernelReleaser); ok {
		return r.KernelRelease(ctx)
	}
	out, err := b.Run(ctx, kernelReleaseCommand)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// BackendOption configures a backend.
type BackendOption func(*backendConfig)

type backendConfig struct {
	policy   ExecPolicy
	hostKeys ssh.HostKeyCallback
}

// WithExecPolicy overrides the backend's default execution policy.
func WithExecPolicy(p ExecPolicy) BackendOption {
	return func(c *backendConfig) {
		c.policy = p
	}
}

// WithHostKeyCallback sets how a [Remote] verifies server host keys.
// Without it, host keys are not verified. Local backends ignore it.
func WithHostKeyCallback(cb ssh.HostKeyCallback) BackendOption {
	return func(c *backendConfig) {
		c.hostKeys = cb
	}
}

func newBackendConfig(defaultPolicy ExecPolicy, opts []BackendOption) backendConfig {
	cfg := backendConfig{policy: defaultPolicy}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
