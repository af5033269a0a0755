// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package vm

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"

	"github.com/gofrs/flock"
)

// Controller supervises a single QEMU process.
//
// Controller is not safe for concurrent use. Callers must serialize access to
// all methods.
type Controller struct {
	cfg             Config
	socketPath      string
	socketGenerated bool
	memoryFile      string

	state State
	proc  *process
	conn  ControlConn
	lock  *flock.Flock

	dial   DialFunc
	logger *slog.Logger
}

// New validates the [Config] and allocates the control socket path and the
// memory backing file, if requested.
//
// It returns a [*ConfigError] for an invalid config. No files are created in
// that case.
func New(cfg Config, opts ...Option) (*Controller, error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}

	ctrl := &Controller{
		cfg:        cfg,
		socketPath: cfg.SocketPath,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(ctrl)
	}

	if ctrl.dial == nil {
		ctrl.dial = dialQMP(ctrl.logger)
	}

	if ctrl.socketPath == "" {
		ctrl.socketPath = GenerateSocketPath(
			os.TempDir(),
			os.Getpid(),
			rand.IntN(socketSuffixMax+1), //nolint:gosec
		)
		ctrl.socketGenerated = true
	}

	err = validateSocketPath(ctrl.socketPath)
	if err != nil {
		return nil, err
	}

	spec := cfg.commandSpec(ctrl.socketPath, "")

	err = spec.Validate()
	if err != nil {
		return nil, &ConfigError{err}
	}

	if cfg.FileBackedMemory {
		file, err := os.CreateTemp("", memoryFilePattern)
		if err != nil {
			return nil, fmt.Errorf("create memory file: %w", err)
		}

		_ = file.Close()
		ctrl.memoryFile = file.Name()
	}

	return ctrl, nil
}

// State returns the current lifecycle [State].
func (c *Controller) State() State {
	return c.state
}

// SocketPath returns the control socket path.
func (c *Controller) SocketPath() string {
	return c.socketPath
}

// MemoryFile returns the path of the memory backing file. It is empty if
// file backed memory is not used.
func (c *Controller) MemoryFile() string {
	return c.memoryFile
}

// Pid returns the process ID of the running process, or 0 if not running.
func (c *Controller) Pid() int {
	if c.proc == nil {
		return 0
	}

	return c.proc.pid()
}

// Command returns the argument vector [Controller.Start] executes for the
// given options.
func (c *Controller) Command(opts StartOptions) ([]string, error) {
	spec := c.cfg.commandSpec(c.socketPath, c.memoryFile)
	spec.Debugger = opts.debugger()

	argv, err := spec.Argv()
	if err != nil {
		return nil, &ConfigError{err}
	}

	return argv, nil
}

// Start spawns the process.
//
// With [Blocking] mode, Start waits for the process to exit like
// [Controller.Wait] does. With [NonBlocking] mode it returns right after the
// process has been spawned.
//
// It returns [ErrAlreadyRunning] if a process is running already and a
// [*SpawnError] if the process can not be started.
func (c *Controller) Start(ctx context.Context, opts StartOptions) error {
	switch c.state {
	case StateRunning:
		return ErrAlreadyRunning
	case StateStopped:
		return ErrControllerStopped
	case StateIdle:
	}

	argv, err := c.Command(opts)
	if err != nil {
		return err
	}

	lock, err := acquireSocketLock(c.socketPath)
	if err != nil {
		return err
	}

	proc, err := startProcess(argv, opts)
	if err != nil {
		c.releaseLock(lock)
		return err
	}

	c.proc = proc
	c.lock = lock
	c.state = StateRunning

	c.logger.Debug("process started",
		slog.Int("pid", proc.pid()),
		slog.String("socket", c.socketPath),
	)

	if opts.Mode == NonBlocking {
		return nil
	}

	return c.Wait(ctx)
}

// Wait waits for the running process to exit. The control connection is
// closed and the controller becomes idle again. The memory backing file is
// kept until [Controller.Stop].
//
// If the context is done before the process exits, the context's error is
// returned and the process keeps running.
//
// It returns an [*ExitError] if the process exited with non-zero exit code.
func (c *Controller) Wait(ctx context.Context) error {
	if c.proc == nil {
		return nil
	}

	select {
	case <-c.proc.exited:
	case <-ctx.Done():
		return fmt.Errorf("wait: %w", ctx.Err())
	}

	err := c.proc.result()

	c.logger.Debug("process exited",
		slog.Int("pid", c.proc.pid()),
		slog.Any("error", err),
	)

	c.closeConnection()
	c.proc = nil
	c.releaseLock(c.lock)
	c.lock = nil
	c.state = StateIdle

	return err
}

func (c *Controller) closeConnection() {
	if c.conn == nil {
		return
	}

	err := c.conn.Close()
	if err != nil {
		c.logger.Debug("close control connection", slog.Any("error", err))
	}

	c.conn = nil
}

func (c *Controller) releaseLock(lock *flock.Flock) {
	if lock == nil {
		return
	}

	err := lock.Close()
	if err != nil {
		c.logger.Debug("release socket lock",
			slog.String("path", lock.Path()),
			slog.Any("error", err),
		)
	}
}
