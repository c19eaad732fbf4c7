package xdpready

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestDetectFamily(t *testing.T) {
	tests := []struct {
		identity string
		want     string
	}{
		{"ubuntu", "apt"},
		{"debian\n", "apt"},
		{"arch", "pacman"},
		{"archlinux", "pacman"},
	}
	for _, tt := range tests {
		t.Run(tt.identity, func(t *testing.T) {
			f, err := DetectFamily(tt.identity)
			if err != nil {
				t.Fatalf("DetectFamily(%q) error = %v", tt.identity, err)
			}
			if f.Name() != tt.want {
				t.Errorf("DetectFamily(%q) = %s, want %s", tt.identity, f.Name(), tt.want)
			}
		})
	}

	_, err := DetectFamily("fedora")
	var ue *UnsupportedPlatformError
	if !errors.As(err, &ue) {
		t.Fatalf("DetectFamily(fedora) = %v, want *UnsupportedPlatformError", err)
	}
	if ue.Identity != "fedora" {
		t.Errorf("Identity = %q, want fedora", ue.Identity)
	}
	if !errors.Is(err, ErrUnsupportedOS) {
		t.Error("errors.Is(err, ErrUnsupportedOS) = false")
	}
	if errors.Is(err, ErrUnsupportedPlatform) {
		t.Error("unknown OS matches the non-Linux sentinel")
	}
}

func TestFamilyFor(t *testing.T) {
	if FamilyFor(FamilyAuto) != nil {
		t.Error("FamilyFor(FamilyAuto) != nil")
	}
	if got := FamilyFor(FamilyApt).Name(); got != "apt" {
		t.Errorf("FamilyFor(FamilyApt) = %s", got)
	}
	if got := FamilyFor(FamilyPacman).Name(); got != "pacman" {
		t.Errorf("FamilyFor(FamilyPacman) = %s", got)
	}
}

func TestAptRequiredPackages(t *testing.T) {
	got := aptFamily{}.RequiredPackages(testRelease + "\n")
	want := []string{"linux-tools-common", "linux-tools-" + testRelease, "ripgrep", "clang", "libbpf-dev"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("RequiredPackages() = %v, want %v", got, want)
	}

	// The package list itself is never rewritten.
	if aptPackages[1] != kernelToolsPlaceholder {
		t.Errorf("aptPackages[1] = %q, want placeholder", aptPackages[1])
	}
}

func TestAptQueryInstalled(t *testing.T) {
	pkgs := aptFamily{}.RequiredPackages(testRelease)

	for _, policy := range []ExecPolicy{Concurrent, Sequential} {
		t.Run(policy.String(), func(t *testing.T) {
			b := readyUbuntu(policy)
			b.delay = 20 * time.Millisecond
			b.markMissing("clang")
			b.markMissing("linux-tools-common")

			missing, err := aptFamily{}.QueryInstalled(context.Background(), b, pkgs)
			if err != nil {
				t.Fatalf("QueryInstalled() error = %v", err)
			}
			want := []string{"linux-tools-common", "clang"}
			if !reflect.DeepEqual(missing, want) {
				t.Errorf("missing = %v, want %v", missing, want)
			}

			if policy == Sequential && b.maxInflight != 1 {
				t.Errorf("sequential policy ran %d queries at once", b.maxInflight)
			}
			if policy == Concurrent && b.maxInflight < 2 {
				t.Errorf("concurrent policy never overlapped queries (max in flight %d)", b.maxInflight)
			}
			if len(b.calls) != len(pkgs) {
				t.Errorf("issued %d queries, want %d", len(b.calls), len(pkgs))
			}
		})
	}
}

func TestAptQueryInstalled_Error(t *testing.T) {
	b := readyUbuntu(Concurrent)
	b.errs["apt -qq list clang"] = &ExecError{Command: "apt -qq list clang", ExitStatus: 100, Stderr: "E: broken"}

	_, err := aptFamily{}.QueryInstalled(context.Background(), b, []string{"ripgrep", "clang"})
	var ee *ExecError
	if !errors.As(err, &ee) {
		t.Fatalf("QueryInstalled() = %v, want *ExecError", err)
	}
}

func TestPacmanQueryInstalled(t *testing.T) {
	pkgs := pacmanFamily{}.RequiredPackages("")
	query := "pacman -Qqen | grep -wE 'bpf|libbpf|base|base-devel|ripgrep|clang'"

	t.Run("some missing", func(t *testing.T) {
		b := newFakeBackend(Concurrent)
		b.outputs[query] = "base\nbase-devel\nbpf\nlibbpf\n"

		missing, err := pacmanFamily{}.QueryInstalled(context.Background(), b, pkgs)
		if err != nil {
			t.Fatalf("QueryInstalled() error = %v", err)
		}
		want := []string{"ripgrep", "clang"}
		if !reflect.DeepEqual(missing, want) {
			t.Errorf("missing = %v, want %v", missing, want)
		}
		if len(b.calls) != 1 {
			t.Errorf("issued %d queries, want a single batched one", len(b.calls))
		}
	})

	t.Run("grep matches nothing", func(t *testing.T) {
		b := newFakeBackend(Sequential)
		b.errs[query] = &ExecError{Command: query, ExitStatus: 1}

		missing, err := pacmanFamily{}.QueryInstalled(context.Background(), b, pkgs)
		if err != nil {
			t.Fatalf("QueryInstalled() error = %v", err)
		}
		if !reflect.DeepEqual(missing, pkgs) {
			t.Errorf("missing = %v, want %v", missing, pkgs)
		}
	})

	t.Run("pacman fails", func(t *testing.T) {
		b := newFakeBackend(Sequential)
		b.errs[query] = &ExecError{Command: query, ExitStatus: 1, Stderr: "pacman: command not found"}

		if _, err := (pacmanFamily{}).QueryInstalled(context.Background(), b, pkgs); err == nil {
			t.Fatal("QueryInstalled() = nil, want error")
		}
	})
}

func TestInstallCommand(t *testing.T) {
	if got, want := (aptFamily{}).InstallCommand([]string{"clang", "ripgrep"}), "apt install --assume-yes clang ripgrep"; got != want {
		t.Errorf("apt InstallCommand() = %q, want %q", got, want)
	}
	if got, want := (pacmanFamily{}).InstallCommand([]string{"clang"}), "pacman --noconfirm -S clang"; got != want {
		t.Errorf("pacman InstallCommand() = %q, want %q", got, want)
	}
}
