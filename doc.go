// Package xdpready checks whether a machine can host XDP packet-filtering
// programs.
//
// A diagnosis runs four stages against the target machine, in order:
//   - kernel version: the running kernel must be at least [MinKernelVersion]
//   - required packages: the toolchain packages of the host's package
//     family must be installed (missing ones can be installed on the spot)
//   - kernel flags: bpftool must report every [RequiredKernelFlags] option
//     as built in
//   - network interface: the configured interface must exist
//
// Every stage runs even if an earlier one failed, except that the kernel
// flag stage is reported as a *[MissingDependencyError] without running
// when the package stage left [FilterTool] uninstalled.
//
// # Backends
//
// Commands run through a [Backend]. [Local] spawns processes on this
// machine; [Remote] runs them over SSH. Whether a backend may run
// independent commands concurrently is its [ExecPolicy]: the apt package
// audit fans out one query per package under [Concurrent] and issues them
// one by one under [Sequential].
//
// # Running a diagnosis
//
//	a := xdpready.NewAnalyzer(settings, xdpready.NewTerminalPrompter(), xdpready.NewConsole(os.Stdout), logger)
//	report, err := a.Run(ctx)
//	if err != nil {
//	    // cancelled, or the remote host could not be reached or logged into
//	    log.Fatal(err)
//	}
//	fmt.Println(report.Failures(), "stages failed")
//
// Stage failures are never returned by [Analyzer.Run]; they are collected
// as [CheckOutcome] values in the [Report].
//
// # Credentials
//
// For remote runs the SSH password is asked once per [Session] and reused
// for privileged commands, where it is written to sudo's standard input
// instead of the command line.
package xdpready
