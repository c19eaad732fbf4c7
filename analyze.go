package xdpready

import (
	"context"
	"fmt"
	"log/slog"
)

// Stage names, in execution order.
const (
	StageKernelVersion = "Kernel Version"
	StagePackages      = "Required Packages"
	StageKernelFlags   = "Kernel Flags"
	StageInterface     = "Network Interface"
	StageXDP           = "XDP Program Type"
)

// RemoteBackend is a [Backend] that must connect and authenticate
// before running commands.
type RemoteBackend interface {
	Backend
	Connect(ctx context.Context, host string, port int) error
	Authenticate(user, secret string) error
}

// Analyzer runs the readiness diagnosis described by Settings.
type Analyzer struct {
	Settings Settings
	Prompter Prompter
	Console  *Console
	Logger   *slog.Logger
	// Session holds the ledger and the secret cache. NewAnalyzer creates one.
	Session *Session

	// Local and Remote override the backends used for the run.
	// When nil, a *Local or a *Remote is created on demand.
	Local  Backend
	Remote RemoteBackend
	// BackendOptions are passed to backends created on demand.
	BackendOptions []BackendOption
}

// NewAnalyzer returns an Analyzer with a fresh session.
func NewAnalyzer(s Settings, p Prompter, c *Console, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Analyzer{
		Settings: s,
		Prompter: p,
		Console:  c,
		Logger:   logger,
		Session:  NewSession(p),
	}
}

// Run confirms the settings, selects a backend and runs every stage.
//
// Stage failures never make Run fail: they are collected in the report.
// Run returns an error only when the operator declines the settings
// ([ErrCancelled]) or when the remote host cannot be reached
// (*[ConnectError]) or logged into (*[AuthError]).
func (a *Analyzer) Run(ctx context.Context) (*Report, error) {
	if a.Session == nil {
		a.Session = NewSession(a.Prompter)
	}
	if a.Logger == nil {
		a.Logger = slog.New(slog.DiscardHandler)
	}

	if !a.Settings.SkipConfirmation {
		a.Console.Section("CONFIG")
		fmt.Fprintln(a.Console.Writer(), a.Settings)
		ok, err := a.Prompter.Confirm("Analyze: Using config above. Proceed")
		if err != nil {
			return nil, fmt.Errorf("confirm settings: %w", err)
		}
		if !ok {
			return nil, ErrCancelled
		}
	}

	b, err := a.backend(ctx)
	if err != nil {
		return nil, err
	}
	defer b.Close()

	logger := a.Logger.With("backend", b.String())
	logger.Debug("starting analysis", "policy", b.Policy())

	report := &Report{Backend: b.String()}
	record := func(o CheckOutcome) {
		report.add(o)
		if o.Passed() {
			logger.Debug("stage passed", "stage", o.Stage)
		} else {
			logger.Debug("stage failed", "stage", o.Stage, "err", o.Err)
		}
	}

	record(a.kernelVersionStage(ctx, b))
	record(a.packageStage(ctx, b))
	record(a.kernelFlagsStage(ctx, b))
	record(a.interfaceStage(ctx, b))
	if a.Settings.ProbeXDP {
		if a.Settings.IsRemote() {
			logger.Warn("XDP program type probe only runs locally, skipping")
		} else {
			record(a.xdpStage())
		}
	}

	report.Print(a.Console)
	logger.Debug("analysis complete", "failures", report.Failures())
	return report, nil
}

// backend returns the Local backend, or connects and authenticates the
// Remote one.
func (a *Analyzer) backend(ctx context.Context) (Backend, error) {
	if !a.Settings.IsRemote() {
		if a.Local != nil {
			return a.Local, nil
		}
		return NewLocal(a.Logger, a.BackendOptions...), nil
	}

	r := a.Remote
	if r == nil {
		r = NewRemote(a.Session.Secrets, a.Logger, a.BackendOptions...)
	}

	host, port := a.Settings.Host, a.Settings.SSHPort()
	if err := r.Connect(ctx, host, port); err != nil {
		return nil, err
	}

	user := a.Settings.Username
	if user == "" {
		var err error
		user, err = a.Prompter.Line("Username")
		if err != nil {
			r.Close()
			return nil, &AuthError{Addr: r.String(), Err: fmt.Errorf("username: %w", err)}
		}
	} else {
		a.Console.Infof("Using username %q", user)
	}

	secret, err := a.Session.Secrets.Secret()
	if err != nil {
		r.Close()
		return nil, &AuthError{User: user, Addr: r.String(), Err: fmt.Errorf("password: %w", err)}
	}
	if err := r.Authenticate(user, secret); err != nil {
		r.Close()
		return nil, err
	}

	a.Console.Infof("Connected to %s\n", host)
	return r, nil
}

func (a *Analyzer) kernelVersionStage(ctx context.Context, b Backend) CheckOutcome {
	a.Console.Section(StageKernelVersion + " Check")

	release, err := kernelRelease(ctx, b)
	if err == nil {
		a.Console.Infof("Kernel version: %s", a.Console.Bold(release))
		err = CheckKernelVersion(release, MinKernelVersion)
	}
	a.Console.Status("Kernel version", err == nil)
	return outcomeOf(StageKernelVersion, err)
}

func (a *Analyzer) packageStage(ctx context.Context, b Backend) CheckOutcome {
	a.Console.Section(StagePackages + " Check")

	auditor := &PackageAuditor{
		Backend:          b,
		Prompter:         a.Prompter,
		Ledger:           a.Session.Ledger,
		Console:          a.Console,
		Logger:           a.Logger,
		SkipConfirmation: a.Settings.SkipConfirmation,
		Family:           a.Settings.Family,
	}
	err := auditor.Audit(ctx)
	a.Console.Status("Required packages", err == nil)
	return outcomeOf(StagePackages, err)
}

func (a *Analyzer) kernelFlagsStage(ctx context.Context, b Backend) CheckOutcome {
	a.Console.Section(StageKernelFlags + " Check")

	var err error
	if a.Session.Ledger.Contains(FilterTool) {
		err = &MissingDependencyError{Tool: FilterTool, Stage: StageKernelFlags}
	} else {
		err = checkKernelFlags(ctx, b)
	}
	a.Console.Status("Required kernel flags", err == nil)
	return outcomeOf(StageKernelFlags, err)
}

func (a *Analyzer) interfaceStage(ctx context.Context, b Backend) CheckOutcome {
	a.Console.Section(StageInterface + " Check")

	iface := a.Settings.Interface
	err := checkInterface(ctx, b, iface)
	a.Console.Status(fmt.Sprintf("Network interface %q", iface), err == nil)
	return outcomeOf(StageInterface, err)
}

func (a *Analyzer) xdpStage() CheckOutcome {
	a.Console.Section(StageXDP + " Check")

	err := haveXDP()
	a.Console.Status("XDP program type", err == nil)
	return outcomeOf(StageXDP, err)
}
