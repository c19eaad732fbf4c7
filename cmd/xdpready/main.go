package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/google/uuid"
	"github.com/leodido/structcli"
	"github.com/leodido/xdpready"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/thediveo/enumflag/v2"
)

// Build metadata injected via ldflags.
// When built without ldflags (e.g., plain `go build`), these remain
// at their zero values and the version command omits them gracefully.
var (
	version = ""
	commit  = ""
	date    = ""
)

func main() {
	root := &cobra.Command{
		Use:   "xdpready",
		Short: "Check whether a machine can host XDP programs",
		Long: `xdpready checks the prerequisites for deploying XDP packet-filtering programs
on this machine or on a remote one reached over SSH: kernel version, toolchain
packages, kernel build flags and the target network interface.`,
		SilenceUsage: true,
	}

	root.AddCommand(analyzeCmd())
	root.AddCommand(flagsCmd())
	root.AddCommand(versionCmd())

	if err := root.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// AnalyzeOptions defines flags for the analyze subcommand.
type AnalyzeOptions struct {
	Host       string     `flag:"host" flagshort:"H" flagdescr:"Host to analyze over SSH (empty or loopback for this machine)"`
	Port       int        `flag:"port" flagshort:"p" flagdescr:"SSH port"`
	Username   string     `flag:"username" flagshort:"u" flagdescr:"SSH username (prompted when empty)"`
	Interface  string     `flag:"iface" flagshort:"i" flagdescr:"Network interface the XDP program attaches to"`
	NoConfirm  bool       `flag:"noconfirm" flagshort:"y" flagdescr:"Skip every confirmation prompt"`
	Family     familyFlag `flag:"family" flagdescr:"Package family (auto, apt, pacman)" flagcustom:"true"`
	KnownHosts string     `flag:"known-hosts" flagdescr:"OpenSSH known_hosts file used to verify the remote host"`
	ProbeXDP   bool       `flag:"probe-xdp" flagdescr:"Also ask the local kernel whether it loads XDP programs"`
	Settings   string     `flag:"settings" flagshort:"s" flagdescr:"Settings file (YAML or JSON)"`
	JSON       bool       `flag:"json" flagshort:"j" flagdescr:"Output the report in JSON format"`
	Verbose    bool       `flag:"verbose" flagdescr:"Enable debug logging"`
}

func (o *AnalyzeOptions) Attach(c *cobra.Command) error {
	return structcli.Define(c, o)
}

func (o *AnalyzeOptions) DefineFamily(name, short, descr string, structField reflect.StructField, fieldValue reflect.Value) (pflag.Value, string) {
	fieldPtr := fieldValue.Addr().Interface().(*familyFlag)
	*fieldPtr = familyFlag(xdpready.FamilyAuto)
	return fieldPtr, descr
}

func (o *AnalyzeOptions) DecodeFamily(input any) (any, error) {
	s, ok := input.(string)
	if !ok {
		return input, nil
	}

	return parseFamily(s)
}

// CompleteFamily completes --family values. structcli registers it by name.
func (o *AnalyzeOptions) CompleteFamily(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	prefix := strings.ToLower(strings.TrimSpace(toComplete))
	var out []string
	for _, name := range xdpready.FamilyKindNames() {
		if strings.HasPrefix(name, prefix) {
			out = append(out, name)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

// settings builds the run settings. Values from the settings file are
// overridden by flags given on the command line.
func (o *AnalyzeOptions) settings(flags *pflag.FlagSet) (xdpready.Settings, error) {
	var s xdpready.Settings
	if o.Settings != "" {
		var err error
		s, err = xdpready.LoadSettings(o.Settings)
		if err != nil {
			return s, err
		}
	}

	use := func(name string) bool {
		return o.Settings == "" || flags.Changed(name)
	}
	if use("host") {
		s.Host = o.Host
	}
	if use("port") {
		s.Port = o.Port
	}
	if use("username") {
		s.Username = o.Username
	}
	if use("iface") {
		s.Interface = o.Interface
	}
	if use("noconfirm") {
		s.SkipConfirmation = o.NoConfirm
	}
	if use("family") {
		s.Family = xdpready.FamilyKind(o.Family)
	}
	if use("known-hosts") {
		s.KnownHosts = o.KnownHosts
	}
	if use("probe-xdp") {
		s.ProbeXDP = o.ProbeXDP
	}

	return s, s.Validate()
}

func analyzeCmd() *cobra.Command {
	cmd, _ := newAnalyzeCmd()
	return cmd
}

func newAnalyzeCmd() (*cobra.Command, *AnalyzeOptions) {
	opts := &AnalyzeOptions{Port: xdpready.DefaultSSHPort}

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Check that a machine is ready for XDP programs",
		Long: `Check the kernel version, required packages, kernel flags and network interface
of this machine (default) or of a remote one (--host).

Every check runs even if an earlier one fails; the failures are listed at the end.
Exits with code 1 only if the run was cancelled or the remote host could not be
reached or logged into.`,
		PreRunE: func(c *cobra.Command, args []string) error {
			return structcli.Unmarshal(c, opts)
		},
		RunE: func(c *cobra.Command, args []string) error {
			settings, err := opts.settings(c.Flags())
			if err != nil {
				return err
			}

			logger := newLogger(opts.Verbose).With("run", uuid.NewString())

			// Keep stdout clean for the JSON document.
			var transcript io.Writer = os.Stdout
			if opts.JSON {
				transcript = os.Stderr
			}

			a := xdpready.NewAnalyzer(settings, xdpready.NewTerminalPrompter(), xdpready.NewConsole(transcript), logger)
			if settings.IsRemote() {
				cb, err := xdpready.HostKeyCallback(settings.KnownHosts, logger)
				if err != nil {
					return err
				}
				a.BackendOptions = append(a.BackendOptions, xdpready.WithHostKeyCallback(cb))
			}

			report, err := a.Run(c.Context())
			if err != nil {
				logger.Error("analysis aborted", "err", err)
				return err
			}

			if opts.JSON {
				return printJSON(report)
			}
			return nil
		},
	}

	if err := opts.Attach(cmd); err != nil {
		panic(err)
	}
	return cmd, opts
}

// FlagsOptions defines flags for the flags subcommand.
type FlagsOptions struct {
	JSON bool `flag:"json" flagshort:"j" flagdescr:"Output in JSON format"`
}

func (o *FlagsOptions) Attach(c *cobra.Command) error {
	return structcli.Define(c, o)
}

func flagsCmd() *cobra.Command {
	opts := &FlagsOptions{}

	cmd := &cobra.Command{
		Use:   "flags",
		Short: "Display the kernel build flags required by XDP programs on this machine",
		PreRunE: func(c *cobra.Command, args []string) error {
			return structcli.Unmarshal(c, opts)
		},
		RunE: func(c *cobra.Command, args []string) error {
			flags, err := xdpready.ReadKernelFlags(c.Context(), xdpready.NewLocal(newLogger(false)))
			if err != nil {
				return err
			}

			if opts.JSON {
				out := make(map[string]flagStatus, len(flags))
				for _, f := range flags {
					out[f.Name] = flagStatus{
						Value:   f.Value.String(),
						Enabled: f.Value.IsEnabled(),
						Builtin: f.Value.IsBuiltin(),
					}
				}
				return printJSON(out)
			}

			for _, f := range flags {
				fmt.Printf("%-20s %s\n", f.Name+":", describeFlag(f.Value))
			}
			if err := xdpready.CheckKernelFlags(flags, xdpready.RequiredKernelFlags); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			return nil
		},
	}

	if err := opts.Attach(cmd); err != nil {
		panic(err)
	}
	return cmd
}

type flagStatus struct {
	Value   string `json:"value"`
	Enabled bool   `json:"enabled"`
	Builtin bool   `json:"builtin"`
}

// describeFlag tells a module apart from a built-in option: XDP needs the latter.
func describeFlag(v xdpready.ConfigValue) string {
	switch {
	case v.IsBuiltin():
		return "built in"
	case v.IsEnabled():
		return "module (must be built in)"
	default:
		return "not set"
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show kernel and tool version",
		RunE: func(c *cobra.Command, args []string) error {
			if version != "" {
				fmt.Printf("xdpready %s", version)
				if commit != "" {
					fmt.Printf(" (%s)", commit)
				}
				if date != "" {
					fmt.Printf(" built %s", date)
				}
				fmt.Println()
			} else {
				fmt.Println("xdpready (dev)")
			}

			release, err := xdpready.NewLocal(nil).KernelRelease(c.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Kernel: %s (minimum %s)\n", release, xdpready.MinKernelVersion)
			return nil
		},
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type familyFlag xdpready.FamilyKind

var familyIdentifierMap = func() map[xdpready.FamilyKind][]string {
	ids := make(map[xdpready.FamilyKind][]string, len(xdpready.FamilyKindValues()))
	for _, k := range xdpready.FamilyKindValues() {
		ids[k] = []string{k.String()}
	}
	return ids
}()

func (f *familyFlag) String() string {
	return xdpready.FamilyKind(*f).String()
}

func (f *familyFlag) Set(input string) error {
	parsed, err := parseFamily(input)
	if err != nil {
		return err
	}

	*f = parsed
	return nil
}

func (f *familyFlag) Type() string {
	return "family"
}

func parseFamily(input string) (familyFlag, error) {
	name := strings.TrimSpace(input)
	if name == "" {
		return familyFlag(xdpready.FamilyAuto), nil
	}

	var kind xdpready.FamilyKind
	enumValue := enumflag.New(&kind, "xdpready.FamilyKind", familyIdentifierMap, enumflag.EnumCaseInsensitive)
	if err := enumValue.Set(name); err != nil {
		return 0, fmt.Errorf("unknown package family: %q (available: %s)", name, strings.Join(xdpready.FamilyKindNames(), ", "))
	}

	return familyFlag(kind), nil
}
