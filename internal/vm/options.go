// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package vm

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"

	"github.com/aibor/vmirun/internal/qmp"
)

// ControlConn is a connection to the control socket of the process.
//
// [*qmp.Client] implements it.
type ControlConn interface {
	Execute(ctx context.Context, command string, args any) (json.RawMessage, error)
	Close() error
}

// DialFunc establishes a [ControlConn] to the socket at path. The returned
// error must wrap [unix.ENOENT] if the socket does not exist, so the
// connection is retried.
type DialFunc func(ctx context.Context, path string) (ControlConn, error)

// Option configures a [Controller] in [New].
type Option func(*Controller)

// WithDialer sets the function used for establishing control connections.
//
// Default: [qmp.Dial].
func WithDialer(dial DialFunc) Option {
	return func(c *Controller) {
		if dial != nil {
			c.dial = dial
		}
	}
}

// WithLogger sets the logger for operational messages.
//
// Default: [slog.Default].
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// StartOptions are the per start options of [Controller.Start].
type StartOptions struct {
	Mode StartMode

	// Debug runs QEMU in the Debugger.
	Debug bool

	// Debugger is the debugger front-end command. Defaults to
	// [DefaultDebugger].
	Debugger []string

	// Stdin, Stdout and Stderr of the process. Nil means the null device.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// DefaultDebugger is used if [StartOptions.Debug] is set and no
// [StartOptions.Debugger] is given.
var DefaultDebugger = []string{"gdb", "--args"} //nolint:gochecknoglobals

func (o *StartOptions) debugger() []string {
	if !o.Debug {
		return nil
	}

	if len(o.Debugger) > 0 {
		return o.Debugger
	}

	return DefaultDebugger
}

func dialQMP(logger *slog.Logger) DialFunc {
	return func(ctx context.Context, path string) (ControlConn, error) {
		client, err := qmp.Dial(ctx, path, qmp.WithLogger(logger))
		if err != nil {
			return nil, err //nolint:wrapcheck
		}

		return client, nil
	}
}
