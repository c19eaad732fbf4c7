package xdpready

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// RequiredKernelFlags are the kernel build options XDP programs need.
var RequiredKernelFlags = []string{
	"CONFIG_BPF",
	"CONFIG_BPF_SYSCALL",
	"CONFIG_BPF_JIT",
	"CONFIG_BPF_EVENTS",
}

// flagEnabledMarker is how bpftool reports a built-in option.
const flagEnabledMarker = "is set to y"

// kernelFlagsCommand lists the required options as reported by bpftool,
// filtered with ripgrep. It needs privileges.
func kernelFlagsCommand() string {
	return fmt.Sprintf("bpftool feature | rg -w '%s'", strings.Join(RequiredKernelFlags, "|"))
}

// KernelFlag is one option line of bpftool feature output.
type KernelFlag struct {
	Name  string
	Value ConfigValue
	Line  string
}

// Satisfied reports whether the line marks the option as built in.
func (f KernelFlag) Satisfied() bool {
	return strings.Contains(f.Line, flagEnabledMarker)
}

// ParseKernelFlags parses lines like "CONFIG_BPF is set to y" or
// "CONFIG_BPF_EVENTS is not set". Blank lines are skipped.
func ParseKernelFlags(output string) ([]KernelFlag, error) {
	var flags []KernelFlag
	scanner := bufio.NewScanner(strings.NewReader(output))

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		name, _, _ := strings.Cut(line, " ")
		f := KernelFlag{Name: name, Line: line}
		switch {
		case strings.Contains(line, flagEnabledMarker):
			f.Value = ConfigBuiltin
		case strings.Contains(line, "is set to m"):
			f.Value = ConfigModule
		}
		flags = append(flags, f)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return flags, nil
}

// CheckKernelFlags returns a *[MissingKernelFlagsError] listing every
// unsatisfied line, plus every required option absent from the output.
// bpftool prints a line for each option it knows, so an absent one is
// reported as "<NAME> is not reported" rather than passing silently.
func CheckKernelFlags(flags []KernelFlag, required []string) error {
	var missing []string
	seen := make(map[string]bool, len(flags))

	for _, f := range flags {
		seen[f.Name] = true
		if !f.Satisfied() {
			missing = append(missing, f.Line)
		}
	}
	for _, name := range required {
		if !seen[name] {
			missing = append(missing, name+" is not reported")
		}
	}

	if len(missing) > 0 {
		return &MissingKernelFlagsError{Flags: missing}
	}
	return nil
}

// ReadKernelFlags runs bpftool on b and parses the required options.
func ReadKernelFlags(ctx context.Context, b Backend) ([]KernelFlag, error) {
	out, err := b.RunPrivileged(ctx, kernelFlagsCommand())
	if err != nil && !isNoMatch(err) {
		return nil, fmt.Errorf("kernel flags: %w", err)
	}
	flags, err := ParseKernelFlags(out)
	if err != nil {
		return nil, fmt.Errorf("kernel flags: %w", err)
	}
	return flags, nil
}

// checkKernelFlags runs the kernel flag stage on b.
func checkKernelFlags(ctx context.Context, b Backend) error {
	flags, err := ReadKernelFlags(ctx, b)
	if err != nil {
		return err
	}
	return CheckKernelFlags(flags, RequiredKernelFlags)
}
