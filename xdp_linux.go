//go:build linux

package xdpready

import (
	"errors"
	"fmt"

	"github.com/cilium/ebpf"
	"github.com/cilium/ebpf/features"
)

// ProgramTypeError is returned when the running kernel does not accept
// a BPF program type.
type ProgramTypeError struct {
	Type ebpf.ProgramType
	Err  error
}

func (e *ProgramTypeError) Error() string {
	if errors.Is(e.Err, ebpf.ErrNotSupported) {
		return fmt.Sprintf("program type %s not supported by running kernel", e.Type)
	}
	return fmt.Sprintf("failed to probe program type %s: %v", e.Type, e.Err)
}

func (e *ProgramTypeError) Unwrap() error {
	return e.Err
}

// haveXDP asks the local kernel whether it can load XDP programs.
// The probe needs CAP_BPF or CAP_SYS_ADMIN.
var haveXDP = func() error {
	if err := features.HaveProgramType(ebpf.XDP); err != nil {
		return &ProgramTypeError{Type: ebpf.XDP, Err: err}
	}
	return nil
}
