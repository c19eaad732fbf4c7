package xdpready

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCancelled is returned by [Analyzer.Run] when the operator declines
// the configuration confirmation.
var ErrCancelled = errors.New("cancelled")

// ErrUnsupportedPlatform is returned by probes that only work on Linux.
var ErrUnsupportedPlatform = errors.New("unsupported platform: requires Linux")

// ErrUnsupportedOS is matched by *[UnsupportedPlatformError]: the host runs
// an OS whose package family is not known.
var ErrUnsupportedOS = errors.New("unsupported OS")

// ConnectError is returned when the remote host cannot be reached or the
// SSH handshake fails. It is fatal for the run.
type ConnectError struct {
	Addr string
	Err  error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connect %s: %v", e.Addr, e.Err)
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}

// AuthError is returned when the remote host rejects the credentials.
// It is fatal for the run.
type AuthError struct {
	User string
	Addr string
	Err  error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authenticate %s@%s: %v", e.User, e.Addr, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// ExecError is returned when a command exits non-zero or could not be
// delivered. ExitStatus is -1 for transport failures.
type ExecError struct {
	Command    string
	ExitStatus int
	Stdout     string
	Stderr     string
	Err        error
}

func (e *ExecError) Error() string {
	msg := fmt.Sprintf("command %q", e.Command)
	if e.ExitStatus >= 0 {
		msg += fmt.Sprintf(" exited with status %d", e.ExitStatus)
	} else if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += ": " + stderr
	}
	return msg
}

func (e *ExecError) Unwrap() error {
	return e.Err
}

// isNoMatch reports whether err is the "no lines selected" exit of a
// grep-like filter at the end of a pipeline.
func isNoMatch(err error) bool {
	var ee *ExecError
	if !errors.As(err, &ee) {
		return false
	}
	return ee.ExitStatus == 1 && strings.TrimSpace(ee.Stderr) == ""
}

// IncompatibleKernelVersionError is returned when the running kernel is
// older than the minimum required release.
type IncompatibleKernelVersionError struct {
	Actual  string
	Minimum string
}

func (e *IncompatibleKernelVersionError) Error() string {
	return fmt.Sprintf("incompatible kernel version %s: minimal compatible version is %s", e.Actual, e.Minimum)
}

// UnsupportedPlatformError is returned when the host identity does not
// match any known package family.
type UnsupportedPlatformError struct {
	Identity string
}

func (e *UnsupportedPlatformError) Error() string {
	return fmt.Sprintf("unsupported OS: %q", e.Identity)
}

// Is lets errors.Is(err, ErrUnsupportedOS) match.
func (e *UnsupportedPlatformError) Is(target error) bool {
	return target == ErrUnsupportedOS
}

// MissingPackagesError lists required packages that are not installed.
type MissingPackagesError struct {
	Packages []string
}

func (e *MissingPackagesError) Error() string {
	return "missing packages:\n - " + strings.Join(e.Packages, "\n - ")
}

// MissingDependencyError is reported instead of running a stage whose
// helper tool is known to be missing.
type MissingDependencyError struct {
	Tool  string
	Stage string
}

func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("cannot check %s without the %s package", strings.ToLower(e.Stage), e.Tool)
}

// MissingKernelFlagsError lists kernel build flags that are not enabled.
type MissingKernelFlagsError struct {
	Flags []string
}

func (e *MissingKernelFlagsError) Error() string {
	return "missing kernel flags:\n - " + strings.Join(e.Flags, "\n - ")
}

// InterfaceNotFoundError is returned when the target interface does not
// exist on the host.
type InterfaceNotFoundError struct {
	Name string
}

func (e *InterfaceNotFoundError) Error() string {
	return fmt.Sprintf("interface %q is not available", e.Name)
}
