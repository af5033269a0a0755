// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package vm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/aibor/vmirun/internal/qmp"
	"k8s.io/apimachinery/pkg/util/wait"
)

// Stop shuts down the process, if running, and releases all resources.
//
// The process is asked to quit via the control connection. If the
// connection can not be established, quit fails or the process does not
// exit within [Timing.ShutdownTimeout], it is terminated by SIGTERM and, after
// [Timing.KillTimeout], SIGKILL.
//
// The memory backing file is removed in any case. Stop is idempotent and the
// controller can not be started again afterwards. Errors returned are from
// termination and resource cleanup. They never prevent the remaining steps.
func (c *Controller) Stop(ctx context.Context) error {
	if c.state == StateStopped {
		return nil
	}

	var errs []error

	if c.proc != nil {
		errs = append(errs, c.shutdown(ctx))
	}

	c.closeConnection()
	c.proc = nil
	c.releaseLock(c.lock)
	c.lock = nil

	if c.socketGenerated {
		errs = append(errs,
			removeFile(c.socketPath),
			removeFile(c.socketPath+lockSuffix),
		)
	}

	if c.memoryFile != "" {
		errs = append(errs, removeFile(c.memoryFile))
	}

	c.state = StateStopped

	return errors.Join(errs...)
}

func (c *Controller) shutdown(ctx context.Context) error {
	proc := c.proc

	if !proc.alive() {
		c.logger.Debug("process exited already", slog.Any("error", proc.result()))
		return nil
	}

	err := c.quit(ctx)
	if err == nil {
		err = c.awaitExit(ctx, proc)
		if err == nil {
			return nil
		}
	}

	c.logger.Info("graceful shutdown failed, terminating process",
		slog.Int("pid", proc.pid()),
		slog.Any("reason", err),
	)

	err = proc.terminate(c.cfg.Timing.KillTimeout, c.logger)
	if err != nil {
		c.logger.Warn("process termination failed; process may be orphaned",
			slog.Int("pid", proc.pid()),
			slog.Any("error", err),
		)

		return fmt.Errorf("terminate: %w", err)
	}

	return nil
}

// quit sends the quit command via the control connection. QEMU closes the
// connection right after, so a connection closed before the reply arrived
// is not considered an error.
func (c *Controller) quit(ctx context.Context) error {
	conn, err := c.ControlConnection(ctx)
	if err != nil {
		return err
	}

	defer c.closeConnection()

	quitCtx, cancel := context.WithTimeout(ctx, c.cfg.Timing.ShutdownTimeout)
	defer cancel()

	_, err = conn.Execute(quitCtx, "quit", nil)
	if err != nil && !errors.Is(err, qmp.ErrClosed) && !errors.Is(err, io.EOF) {
		return fmt.Errorf("quit: %w", err)
	}

	return nil
}

func (c *Controller) awaitExit(ctx context.Context, proc *process) error {
	timing := c.cfg.Timing

	err := wait.PollUntilContextTimeout(
		ctx,
		timing.ShutdownPollInterval,
		timing.ShutdownTimeout,
		true,
		func(context.Context) (bool, error) {
			return !proc.alive(), nil
		},
	)
	if err != nil {
		if ctx.Err() == nil && wait.Interrupted(err) {
			return errShutdownTimeout
		}

		return fmt.Errorf("await exit: %w", err)
	}

	return nil
}

func removeFile(path string) error {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove: %w", err)
	}

	return nil
}
