//go:build linux

package xdpready

import (
	"context"

	"golang.org/x/sys/unix"
)

// KernelRelease returns the kernel release string (e.g., "6.17.0-1005-aws")
// using uname(2).
func (l *Local) KernelRelease(_ context.Context) (string, error) {
	var uname unix.Utsname
	if err := unix.Uname(&uname); err != nil {
		return "", err
	}
	return unix.ByteSliceToString(uname.Release[:]), nil
}
