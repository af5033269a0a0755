// SPDX-FileCopyrightText: 2024 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/aibor/vmirun/internal/sys"
	"github.com/aibor/vmirun/internal/vm"
)

// IO provides input and output details for the command.
type IO struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

func parseArgs(args []string, stdio IO) (*flags, error) {
	args, err := MergedArgs(args, os.DirFS("."), localConfigFile)
	if err != nil {
		return nil, err
	}

	flags := newFlags(stdio.Stderr)

	err = flags.ParseArgs(args)
	if err != nil {
		return nil, fmt.Errorf("parse args: %w", err)
	}

	return flags, nil
}

func validate(cfg *vm.Config) error {
	if cfg.Executable != "" {
		_, err := exec.LookPath(cfg.Executable)
		if err != nil {
			return fmt.Errorf("qemu binary: %w", err)
		}
	}

	err := sys.ValidateRegularFile(cfg.DiskImage)
	if err != nil {
		return fmt.Errorf("disk image: %w", err)
	}

	return nil
}

func printHint(w io.Writer, socketPath string) {
	fmt.Fprintf(w, "\nQMP socket created @ %s\n", socketPath)
	fmt.Fprintf(w, "To connect use: rekal -f %s\n\n", socketPath)
}

func printCommand(w io.Writer, argv []string) {
	fmt.Fprintln(w, "Executing qemu with the following parameters:")
	fmt.Fprintln(w, strings.Join(argv, " "))
}

func run(ctx context.Context, flags *flags, stdio IO) error {
	err := validate(&flags.cfg)
	if err != nil {
		return fmt.Errorf("validate: %w", err)
	}

	arch := sys.Native
	if !flags.cfg.NoKVM && !arch.KVMAvailable() {
		slog.Warn("KVM not available, running without hardware support")

		flags.cfg.NoKVM = true
	}

	ctrl, err := vm.New(flags.cfg, vm.WithLogger(slog.Default()))
	if err != nil {
		return err //nolint:wrapcheck
	}

	if !flags.noHint {
		printHint(stdio.Stdout, ctrl.SocketPath())
	}

	opts := flags.startOptions(stdio)

	if flags.verbose {
		argv, err := ctrl.Command(opts)
		if err == nil {
			printCommand(stdio.Stdout, argv)
		}
	}

	runErr := ctrl.Start(ctx, opts)
	if runErr != nil && ctx.Err() != nil {
		slog.Info("Interrupted, shutting down", slog.Any("cause", context.Cause(ctx)))
	}

	// Shut down gracefully even if the context is done already.
	stopErr := ctrl.Stop(context.WithoutCancel(ctx))
	if stopErr != nil {
		stopErr = fmt.Errorf("stop: %w", stopErr)
	}

	return errors.Join(runErr, stopErr)
}

func handleParseArgsError(err error) int {
	// [ErrHelp] is returned when help is requested. So exit without error
	// in this case.
	if errors.Is(err, ErrHelp) {
		return 0
	}

	// ParseArgs already prints errors, so we just exit without an error.
	if !errors.Is(err, &ParseArgsError{}) {
		slog.Error(err.Error())
	}

	return -1
}

func handleRunError(err error) int {
	exitCode := -1

	var exitErr *vm.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode > 0 {
		exitCode = exitErr.ExitCode
	}

	slog.Error(err.Error())

	return exitCode
}

// Run is the main entry point for the CLI command.
func Run(ctx context.Context, args []string, stdio IO) int {
	flags, err := parseArgs(args, stdio)
	if err != nil {
		return handleParseArgsError(err)
	}

	setupLogging(stdio.Stderr, flags.debug)

	err = run(ctx, flags, stdio)
	if err != nil {
		return handleRunError(err)
	}

	return 0
}
