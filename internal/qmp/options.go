// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qmp

import "log/slog"

// Option configures a [Client] in [Dial].
type Option func(*Client)

// WithLogger sets the logger used for events and unexpected messages.
//
// Default: [slog.Default].
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}
