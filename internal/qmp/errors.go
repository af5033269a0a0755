// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qmp

import "errors"

var (
	// ErrClosed is returned if the connection is closed, either by calling
	// [Client.Close] or by the server hanging up.
	ErrClosed = errors.New("qmp connection closed")

	// ErrHandshake is returned if the server does not behave as expected
	// during greeting or capabilities negotiation.
	ErrHandshake = errors.New("qmp handshake failed")
)

// CommandError is an error reply sent by the server.
type CommandError struct {
	Class string `json:"class"`
	Desc  string `json:"desc"`
}

// Error implements the [error] interface.
func (e *CommandError) Error() string {
	return "qmp " + e.Class + ": " + e.Desc
}

// Is implements the [errors.Is] interface.
func (e *CommandError) Is(other error) bool {
	_, ok := other.(*CommandError)
	return ok
}
