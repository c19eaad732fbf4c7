//go:build !linux

package xdpready

import (
	"context"
	"strings"
)

// KernelRelease returns the output of uname -r.
// On non-Linux platforms there is no uname(2) binding, so the command is run.
func (l *Local) KernelRelease(ctx context.Context) (string, error) {
	out, err := l.Run(ctx, kernelReleaseCommand)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
