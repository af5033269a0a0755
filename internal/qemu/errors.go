// SPDX-FileCopyrightText: 2024 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qemu

import "errors"

// ErrArgumentCollision is returned if two [Argument]s are considered equal.
var ErrArgumentCollision = errors.New("colliding args")

// ArgumentError indicates an issue with an input argument.
type ArgumentError struct {
	msg string
}

// Error implements the [error] interface.
func (e *ArgumentError) Error() string {
	return "argument error: " + e.msg
}

// Is implements the [errors.Is] interface.
func (e *ArgumentError) Is(other error) bool {
	_, ok := other.(*ArgumentError)
	return ok
}
