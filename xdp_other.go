//go:build !linux

package xdpready

// haveXDP always fails: BPF program types can only be probed on Linux.
var haveXDP = func() error {
	return ErrUnsupportedPlatform
}
