package xdpready

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// ParseLinkNames parses the newline-separated interface names printed by
// `ip -o link show | awk -F': ' '{print $2}'`. Names of the form
// "veth0@if3" are reduced to "veth0".
func ParseLinkNames(output string) []string {
	var names []string
	for _, line := range strings.Split(output, "\n") {
		name := strings.TrimSpace(line)
		if name == "" {
			continue
		}
		name, _, _ = strings.Cut(name, "@")
		names = append(names, name)
	}
	return names
}

// CheckInterface returns an *[InterfaceNotFoundError] unless iface is
// exactly one of names.
func CheckInterface(iface string, names []string) error {
	if slices.Contains(names, iface) {
		return nil
	}
	return &InterfaceNotFoundError{Name: iface}
}

// checkInterface runs the interface stage on b.
func checkInterface(ctx context.Context, b Backend, iface string) error {
	out, err := b.Run(ctx, linkListCommand)
	if err != nil {
		return fmt.Errorf("list interfaces: %w", err)
	}
	return CheckInterface(iface, ParseLinkNames(out))
}
