package xdpready

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
)

// PackageAuditor checks that the packages required to build and load
// XDP programs are installed, and optionally installs the missing ones.
type PackageAuditor struct {
	Backend  Backend
	Prompter Prompter
	Ledger   *Ledger
	Console  *Console
	Logger   *slog.Logger

	// SkipConfirmation installs missing packages without asking.
	SkipConfirmation bool
	// Family forces a package family instead of detecting it.
	Family FamilyKind
}

// Audit runs the package stage. Missing packages that the operator
// declines to install are recorded in the ledger and reported as a
// *[MissingPackagesError].
func (a *PackageAuditor) Audit(ctx context.Context) error {
	fam, err := a.family(ctx)
	if err != nil {
		return err
	}

	release, err := kernelRelease(ctx, a.Backend)
	if err != nil {
		return fmt.Errorf("kernel release: %w", err)
	}

	pkgs := fam.RequiredPackages(release)
	a.logger().Debug("auditing packages", "family", fam.Name(), "packages", pkgs, "policy", a.Backend.Policy())

	missing, err := fam.QueryInstalled(ctx, a.Backend, pkgs)
	if err != nil {
		return err
	}
	for _, pkg := range pkgs {
		if !slices.Contains(missing, pkg) {
			a.Console.Infof("Package %q is installed.", pkg)
		}
	}

	if len(missing) == 0 {
		return nil
	}

	a.Console.List("Missing packages", missing)
	if !a.SkipConfirmation {
		install, err := a.Prompter.Confirm("Attempt to install missing packages")
		if err != nil {
			a.logger().Warn("install confirmation failed", "err", err)
		}
		if err != nil || !install {
			a.Ledger.Add(missing...)
			return &MissingPackagesError{Packages: missing}
		}
	}

	a.install(ctx, fam, missing)
	return nil
}

// install runs the install command and waits for it. Its outcome is
// logged but does not affect the stage, and packages are not re-queried.
func (a *PackageAuditor) install(ctx context.Context, fam Family, missing []string) {
	a.Console.List("Installing missing packages", missing)
	a.Console.Infof("please wait...")

	line := fam.InstallCommand(missing)
	if _, err := a.Backend.RunPrivileged(ctx, line); err != nil {
		a.logger().Warn("install command failed", "family", fam.Name(), "err", err)
	}
	a.Console.Infof("Missing packages installed.")
}

func (a *PackageAuditor) family(ctx context.Context) (Family, error) {
	if f := FamilyFor(a.Family); f != nil {
		return f, nil
	}
	out, err := a.Backend.Run(ctx, hostIdentityCommand)
	if err != nil {
		return nil, fmt.Errorf("host identity: %w", err)
	}
	identity := strings.TrimSpace(out)
	a.logger().Debug("detected host identity", "identity", identity)
	return DetectFamily(identity)
}

func (a *PackageAuditor) logger() *slog.Logger {
	if a.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return a.Logger
}
