package xdpready

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// FilterTool is the package providing the text filter used by the
// kernel flag stage.
const FilterTool = "ripgrep"

// Family is a package-management ecosystem: how to recognize it, which
// packages it needs, how to query them and how to install them.
type Family interface {
	// Name is the family name ("apt", "pacman").
	Name() string
	// Detect reports whether the host identity belongs to this family.
	Detect(identity string) bool
	// RequiredPackages lists the packages needed on a host running the
	// given kernel release.
	RequiredPackages(kernelRelease string) []string
	// QueryInstalled returns the subset of pkgs that is not installed,
	// in the order of pkgs.
	QueryInstalled(ctx context.Context, b Backend, pkgs []string) ([]string, error)
	// InstallCommand returns the command line installing pkgs. It must
	// be run with [Backend.RunPrivileged].
	InstallCommand(pkgs []string) string
}

// Families returns every supported family.
func Families() []Family {
	return []Family{aptFamily{}, pacmanFamily{}}
}

// DetectFamily returns the family recognizing identity, or an
// *[UnsupportedPlatformError].
func DetectFamily(identity string) (Family, error) {
	identity = strings.TrimSpace(identity)
	for _, f := range Families() {
		if f.Detect(identity) {
			return f, nil
		}
	}
	return nil, &UnsupportedPlatformError{Identity: identity}
}

// FamilyFor returns the family selected by k. FamilyAuto yields nil.
func FamilyFor(k FamilyKind) Family {
	switch k {
	case FamilyApt:
		return aptFamily{}
	case FamilyPacman:
		return pacmanFamily{}
	default:
		return nil
	}
}

// aptFamily covers Ubuntu and Debian.
type aptFamily struct{}

// kernelToolsPlaceholder is replaced with linux-tools-<release>.
const kernelToolsPlaceholder = "linux-tools-generic"

var aptPackages = []string{
	"linux-tools-common",
	kernelToolsPlaceholder,
	FilterTool,
	"clang",
	"libbpf-dev",
}

func (aptFamily) Name() string { return "apt" }

func (aptFamily) Detect(identity string) bool {
	return identity == "ubuntu" || identity == "debian"
}

func (aptFamily) RequiredPackages(kernelRelease string) []string {
	pkgs := slices.Clone(aptPackages)
	release := strings.TrimSpace(kernelRelease)
	if release == "" {
		return pkgs
	}
	for i, p := range pkgs {
		if p == kernelToolsPlaceholder {
			pkgs[i] = "linux-tools-" + release
		}
	}
	return pkgs
}

// aptInstalledMarker matches "[installed]", "[installed,automatic]", ...
const aptInstalledMarker = "[installed"

// QueryInstalled runs one apt query per package. Under the [Concurrent]
// policy the queries run in parallel.
func (aptFamily) QueryInstalled(ctx context.Context, b Backend, pkgs []string) ([]string, error) {
	var (
		mu      sync.Mutex
		missing = make(map[string]bool, len(pkgs))
	)

	query := func(ctx context.Context, pkg string) error {
		out, err := b.Run(ctx, "apt -qq list "+pkg)
		if err != nil {
			return fmt.Errorf("query package %s: %w", pkg, err)
		}
		if !strings.Contains(out, aptInstalledMarker) {
			mu.Lock()
			missing[pkg] = true
			mu.Unlock()
		}
		return nil
	}

	if b.Policy() == Concurrent {
		g, gctx := errgroup.WithContext(ctx)
		for _, pkg := range pkgs {
			g.Go(func() error {
				return query(gctx, pkg)
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for _, pkg := range pkgs {
			if err := query(ctx, pkg); err != nil {
				return nil, err
			}
		}
	}

	var out []string
	for _, pkg := range pkgs {
		if missing[pkg] {
			out = append(out, pkg)
		}
	}
	return out, nil
}

func (aptFamily) InstallCommand(pkgs []string) string {
	return "apt install --assume-yes " + strings.Join(pkgs, " ")
}

// pacmanFamily covers Arch Linux.
type pacmanFamily struct{}

var pacmanPackages = []string{"bpf", "libbpf", "base", "base-devel", FilterTool, "clang"}

func (pacmanFamily) Name() string { return "pacman" }

func (pacmanFamily) Detect(identity string) bool {
	return identity == "arch" || identity == "archlinux"
}

func (pacmanFamily) RequiredPackages(string) []string {
	return slices.Clone(pacmanPackages)
}

// QueryInstalled issues a single query listing the explicitly installed
// packages among pkgs. A package counts as installed if its name occurs
// anywhere in the output.
func (pacmanFamily) QueryInstalled(ctx context.Context, b Backend, pkgs []string) ([]string, error) {
	line := fmt.Sprintf("pacman -Qqen | grep -wE '%s'", strings.Join(pkgs, "|"))
	out, err := b.Run(ctx, line)
	if err != nil && !isNoMatch(err) {
		return nil, fmt.Errorf("query packages: %w", err)
	}

	var missing []string
	for _, pkg := range pkgs {
		if !strings.Contains(out, pkg) {
			missing = append(missing, pkg)
		}
	}
	return missing, nil
}

func (pacmanFamily) InstallCommand(pkgs []string) string {
	return "pacman --noconfirm -S " + strings.Join(pkgs, " ")
}
