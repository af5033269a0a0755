// SPDX-FileCopyrightText: 2024 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"flag"
	"fmt"
	"io"
	"runtime/debug"

	"github.com/aibor/vmirun/internal/sys"
	"github.com/aibor/vmirun/internal/vm"
)

const (
	name = "vmirun"

	memMin = 128
	memMax = 65536

	smpMin = 1
	smpMax = 64

	monitorDefault = "stdio"

	usageMessage = `Usage of 'vmirun':
    vmirun [flags...] disk-image [qemu-args...]

Starts QEMU with the given disk image and a QMP control socket for
introspection tools. All arguments after the disk image are passed to QEMU
verbatim.

Example:
	vmirun -memory=4096 -snapshot=booted ./win7.qcow2 -usb

All vmirun flags can also be provided via environment variable VMIRUN_ARGS:
	VMIRUN_ARGS="-debug -noHint" vmirun ./win7.qcow2

All vmirun flags can also be provided via file ./.vmirun-args, with one
argument per line.
`
)

type flags struct {
	cfg     vm.Config
	flagSet *flag.FlagSet

	socketPath    filePath
	vncDisplay    string
	notFileBacked bool
	gdb           bool
	noHint        bool
	verbose       bool
	version       bool
	debug         bool
}

func newFlags(output io.Writer) *flags {
	flags := &flags{
		cfg: vm.Config{
			SMP:     vm.DefaultSMP,
			Memory:  vm.DefaultMemory,
			Monitor: monitorDefault,
			Timing: vm.Timing{
				ConnectTimeout:  vm.DefaultConnectTimeout,
				ShutdownTimeout: vm.DefaultShutdownTimeout,
			},
		},
	}

	flags.initFlagset(output)

	return flags
}

// ParseArgs parses the given arguments. The first positional argument is the
// disk image. All further arguments are passed to QEMU.
func (f *flags) ParseArgs(args []string) error {
	// Parses arguments up to the first one that is not prefixed with a "-" or
	// is "--".
	err := f.flagSet.Parse(args)
	if err != nil {
		return &ParseArgsError{msg: "flag parse", err: err}
	}

	// With version flag, just print the version and exit. Using [ErrHelp]
	// the main binary is supposed to return with a non error exit code.
	if f.version {
		err := f.printVersionInformation()
		return &ParseArgsError{msg: "version requested", err: err}
	}

	positionalArgs := f.flagSet.Args()

	if len(positionalArgs) < 1 {
		return f.fail("no disk image given", nil)
	}

	diskImage, err := sys.AbsolutePath(positionalArgs[0])
	if err != nil {
		return f.fail("disk image path", err)
	}

	f.cfg.DiskImage = diskImage
	f.cfg.ExtraArgs = positionalArgs[1:]
	f.cfg.SocketPath = string(f.socketPath)
	f.cfg.FileBackedMemory = !f.notFileBacked

	if f.vncDisplay != "" {
		f.cfg.Display = "vnc=:" + f.vncDisplay
	}

	return nil
}

func (f *flags) startOptions(stdio IO) vm.StartOptions {
	return vm.StartOptions{
		Mode:   vm.Blocking,
		Debug:  f.gdb,
		Stdin:  stdio.Stdin,
		Stdout: stdio.Stdout,
		Stderr: stdio.Stderr,
	}
}

func (f *flags) initFlagset(output io.Writer) {
	flagSet := flag.NewFlagSet(name, flag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.Usage = f.usage

	flagSet.StringVar(
		&f.cfg.Executable,
		"qemuBin",
		f.cfg.Executable,
		"QEMU binary to use (default depends on host arch: qemu-system-*)",
	)

	flagSet.Var(
		&limitedUintValue{
			Value: &f.cfg.Memory,
			min:   memMin,
			max:   memMax,
		},
		"memory",
		"memory (in MiB) for the QEMU VM",
	)

	flagSet.Var(
		&limitedUintValue{
			Value: &f.cfg.SMP,
			min:   smpMin,
			max:   smpMax,
		},
		"smp",
		"number of CPUs for the QEMU VM",
	)

	flagSet.BoolVar(
		&f.notFileBacked,
		"notFileBacked",
		f.notFileBacked,
		"do not back the guest memory by a shared file. File backed memory "+
			"allows fast memory access by introspection tools.",
	)

	flagSet.BoolVar(
		&f.gdb,
		"gdb",
		f.gdb,
		"start QEMU in a gdb session",
	)

	flagSet.StringVar(
		&f.cfg.Snapshot,
		"snapshot",
		f.cfg.Snapshot,
		"start from a snapshot stored in the image",
	)

	flagSet.BoolVar(
		&f.cfg.Network,
		"network",
		f.cfg.Network,
		"enable NATed network",
	)

	flagSet.Var(
		&f.socketPath,
		"qmpPath",
		"path of the QMP socket (default is generated in the temp dir)",
	)

	flagSet.StringVar(
		&f.vncDisplay,
		"vnc",
		f.vncDisplay,
		"VNC display number to use as display",
	)

	flagSet.StringVar(
		&f.cfg.Monitor,
		"monitor",
		f.cfg.Monitor,
		"redirect the QEMU monitor (empty for QEMU default)",
	)

	flagSet.BoolVar(
		&f.cfg.NoKVM,
		"nokvm",
		f.cfg.NoKVM,
		"disable hardware support (default is enabled if present)",
	)

	flagSet.DurationVar(
		&f.cfg.Timing.ConnectTimeout,
		"connectTimeout",
		f.cfg.Timing.ConnectTimeout,
		"time to wait for the QMP socket to become available",
	)

	flagSet.DurationVar(
		&f.cfg.Timing.ShutdownTimeout,
		"shutdownTimeout",
		f.cfg.Timing.ShutdownTimeout,
		"time QEMU is given to quit before it is terminated",
	)

	flagSet.BoolVar(
		&f.noHint,
		"noHint",
		f.noHint,
		"do not print the QMP socket connection hint",
	)

	flagSet.BoolVar(
		&f.verbose,
		"verbose",
		f.verbose,
		"print the QEMU command before executing it",
	)

	flagSet.BoolVar(
		&f.debug,
		"debug",
		f.debug,
		"enable debug output",
	)

	flagSet.BoolVar(
		&f.version,
		"version",
		f.version,
		"show version and exit",
	)

	f.flagSet = flagSet
}

// fail fails like flag does. It prints the error first and then usage.
func (f *flags) fail(msg string, err error) error {
	err = &ParseArgsError{msg: msg, err: err}
	fmt.Fprintln(f.flagSet.Output(), err.Error())

	f.flagSet.Usage()

	return err
}

func (f *flags) printVersionInformation() error {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return ErrReadBuildInfo
	}

	fmt.Fprintf(f.flagSet.Output(), "Version: %s\n", buildInfo.Main.Version)

	return ErrHelp
}

func (f *flags) usage() {
	fmt.Fprint(f.flagSet.Output(), usageMessage)
	fmt.Fprintln(f.flagSet.Output(), "\nFlags:")
	f.flagSet.PrintDefaults()
}
