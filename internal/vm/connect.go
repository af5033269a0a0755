// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package vm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sys/unix"
	"k8s.io/apimachinery/pkg/util/wait"
)

// ControlConnection returns the control connection, establishing it if
// there is none yet.
//
// As long as the socket does not exist, connecting is retried every
// [Timing.ConnectRetryInterval] until [Timing.ConnectTimeout]. If the
// timeout is hit, a [*ConnectionTimeoutError] wrapping the last error is
// returned. Any other failure is returned immediately as [*ConnectionError].
func (c *Controller) ControlConnection(ctx context.Context) (ControlConn, error) {
	if c.state == StateStopped {
		return nil, ErrControllerStopped
	}

	if c.conn != nil {
		return c.conn, nil
	}

	var exited <-chan struct{}
	if c.proc != nil {
		exited = c.proc.exited
	}

	timing := c.cfg.Timing
	attempt := 0

	var lastErr error

	err := wait.PollUntilContextTimeout(
		ctx,
		timing.ConnectRetryInterval,
		timing.ConnectTimeout,
		true,
		func(pollCtx context.Context) (bool, error) {
			if exited != nil {
				select {
				case <-exited:
					return false, &ConnectionError{c.socketPath, ErrProcessExited}
				default:
				}
			}

			// The final attempt may run after the timeout expired. Its error
			// is an artifact of the expired context and must not replace
			// the last real one.
			if pollCtx.Err() != nil {
				return false, nil
			}

			attempt++

			conn, err := c.dial(pollCtx, c.socketPath)
			if err == nil {
				c.conn = conn
				return true, nil
			}

			if pollCtx.Err() != nil {
				return false, nil
			}

			lastErr = err

			if errors.Is(err, unix.ENOENT) {
				return false, nil
			}

			return false, &ConnectionError{c.socketPath, err}
		},
	)
	if err == nil {
		c.logger.Debug("control connection established",
			slog.String("socket", c.socketPath),
			slog.Int("attempt", attempt),
		)

		return c.conn, nil
	}

	var connErr *ConnectionError
	if errors.As(err, &connErr) {
		return nil, connErr
	}

	if ctx.Err() != nil {
		return nil, fmt.Errorf("connect: %w", ctx.Err())
	}

	if lastErr == nil {
		lastErr = err
	}

	if wait.Interrupted(err) {
		return nil, &ConnectionTimeoutError{
			Path:    c.socketPath,
			Timeout: timing.ConnectTimeout,
			Err:     lastErr,
		}
	}

	return nil, &ConnectionError{c.socketPath, err}
}
