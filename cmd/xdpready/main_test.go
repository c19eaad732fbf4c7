package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leodido/xdpready"
	"github.com/spf13/cobra"
)

func TestParseFamily_CaseInsensitive(t *testing.T) {
	tests := []struct {
		input string
		want  xdpready.FamilyKind
	}{
		{"", xdpready.FamilyAuto},
		{"auto", xdpready.FamilyAuto},
		{" APT ", xdpready.FamilyApt},
		{"Pacman", xdpready.FamilyPacman},
	}
	for _, tt := range tests {
		got, err := parseFamily(tt.input)
		if err != nil {
			t.Fatalf("parseFamily(%q) error = %v", tt.input, err)
		}
		if xdpready.FamilyKind(got) != tt.want {
			t.Errorf("parseFamily(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestParseFamily_Unknown(t *testing.T) {
	_, err := parseFamily("dnf")
	if err == nil {
		t.Fatal("parseFamily(dnf) expected error")
	}

	msg := err.Error()
	if !strings.Contains(msg, `unknown package family: "dnf"`) {
		t.Fatalf("error %q missing unknown family context", msg)
	}
	if !strings.Contains(msg, "available: auto, apt, pacman") {
		t.Fatalf("error %q missing available families", msg)
	}
}

func TestFamilyFlag(t *testing.T) {
	var f familyFlag
	if err := f.Set("PACMAN"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if got := f.String(); got != "pacman" {
		t.Errorf("String() = %q, want pacman", got)
	}
	if f.Type() != "family" {
		t.Errorf("Type() = %q", f.Type())
	}
	if err := f.Set("zypper"); err == nil {
		t.Error("Set(zypper) expected error")
	}
	if got := f.String(); got != "pacman" {
		t.Errorf("failed Set() changed the value to %q", got)
	}
}

func TestAnalyzeOptionsCompleteFamily(t *testing.T) {
	opts := &AnalyzeOptions{}

	got, directive := opts.CompleteFamily(nil, nil, "")
	if len(got) != len(xdpready.FamilyKindNames()) {
		t.Fatalf("candidates = %v, want every family", got)
	}
	if directive != cobra.ShellCompDirectiveNoFileComp {
		t.Fatalf("directive = %v, want %v", directive, cobra.ShellCompDirectiveNoFileComp)
	}

	got, _ = opts.CompleteFamily(nil, nil, "PA")
	if len(got) != 1 || got[0] != "pacman" {
		t.Errorf("candidates = %v, want [pacman]", got)
	}
}

// parseAnalyze runs the analyze flag parsing without executing the command.
func parseAnalyze(t *testing.T, args ...string) (*AnalyzeOptions, *cobra.Command) {
	t.Helper()
	cmd, opts := newAnalyzeCmd()
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("ParseFlags(%v) error = %v", args, err)
	}
	if err := cmd.PreRunE(cmd, nil); err != nil {
		t.Fatalf("PreRunE() error = %v", err)
	}
	return opts, cmd
}

func TestAnalyzeSettings_Flags(t *testing.T) {
	opts, cmd := parseAnalyze(t, "--host", "10.0.0.7", "-i", "eth1", "-y", "--family", "apt")

	s, err := opts.settings(cmd.Flags())
	if err != nil {
		t.Fatalf("settings() error = %v", err)
	}
	if s.Host != "10.0.0.7" || s.Interface != "eth1" || !s.SkipConfirmation || s.Family != xdpready.FamilyApt {
		t.Errorf("settings() = %+v", s)
	}
	if s.SSHPort() != xdpready.DefaultSSHPort {
		t.Errorf("SSHPort() = %d", s.SSHPort())
	}
}

func TestAnalyzeSettings_FileWithOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xdpready.yaml")
	content := "hostname: 10.0.0.7\nport: 2222\nusername: root\niface: eth0\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	opts, cmd := parseAnalyze(t, "--settings", path, "--iface", "wlp2s0")
	s, err := opts.settings(cmd.Flags())
	if err != nil {
		t.Fatalf("settings() error = %v", err)
	}
	if s.Interface != "wlp2s0" {
		t.Errorf("Interface = %q, want the flag to win", s.Interface)
	}
	if s.Port != 2222 || s.Username != "root" || s.Host != "10.0.0.7" {
		t.Errorf("file values lost: %+v", s)
	}
}

func TestAnalyzeSettings_Invalid(t *testing.T) {
	opts, cmd := parseAnalyze(t, "--port", "0")
	if _, err := opts.settings(cmd.Flags()); err == nil {
		t.Error("settings() without an interface expected error")
	}
}

func TestDescribeFlag(t *testing.T) {
	tests := []struct {
		value xdpready.ConfigValue
		want  string
	}{
		{xdpready.ConfigBuiltin, "built in"},
		{xdpready.ConfigModule, "module (must be built in)"},
		{xdpready.ConfigNotSet, "not set"},
	}
	for _, tt := range tests {
		if got := describeFlag(tt.value); got != tt.want {
			t.Errorf("describeFlag(%v) = %q, want %q", tt.value, got, tt.want)
		}
	}
}
