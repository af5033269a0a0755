// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package vm

import (
	"errors"
	"strconv"
	"time"
)

var (
	// ErrAlreadyRunning is returned by [Controller.Start] if a process is
	// running already.
	ErrAlreadyRunning = errors.New("process already running")

	// ErrControllerStopped is returned if a [Controller] is used after
	// [Controller.Stop].
	ErrControllerStopped = errors.New("controller stopped")

	// ErrSocketInUse is returned if another controller holds the lock for
	// the control socket path.
	ErrSocketInUse = errors.New("control socket in use")

	// ErrDiskImageEmpty is returned if no disk image is configured.
	ErrDiskImageEmpty = errors.New("disk image must not be empty")

	// ErrSocketPathTooLong is returned if the control socket path exceeds
	// the unix socket address limit.
	ErrSocketPathTooLong = errors.New("control socket path too long")

	// ErrProcessExited is returned if the process exits while a control
	// connection is being established.
	ErrProcessExited = errors.New("process exited")

	errShutdownTimeout = errors.New("process did not exit after quit")
	errKillTimeout     = errors.New("process did not exit after SIGKILL")
)

// ConfigError indicates an invalid [Config].
type ConfigError struct {
	Err error
}

// Error implements the [error] interface.
func (e *ConfigError) Error() string {
	return "config: " + e.Err.Error()
}

// Is implements the [errors.Is] interface.
func (e *ConfigError) Is(other error) bool {
	_, ok := other.(*ConfigError)
	return ok
}

// Unwrap implements the [errors.Unwrap] interface.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// SpawnError is returned if the process could not be started.
type SpawnError struct {
	Err error
}

// Error implements the [error] interface.
func (e *SpawnError) Error() string {
	return "spawn: " + e.Err.Error()
}

// Is implements the [errors.Is] interface.
func (e *SpawnError) Is(other error) bool {
	_, ok := other.(*SpawnError)
	return ok
}

// Unwrap implements the [errors.Unwrap] interface.
func (e *SpawnError) Unwrap() error {
	return e.Err
}

// ExitError is returned if the process exited with non-zero exit code.
//
// ExitCode is -1 if the process was terminated by a signal.
type ExitError struct {
	ExitCode int
	Err      error
}

// Error implements the [error] interface.
func (e *ExitError) Error() string {
	return "process exited with code " + strconv.Itoa(e.ExitCode)
}

// Is implements the [errors.Is] interface.
func (e *ExitError) Is(other error) bool {
	_, ok := other.(*ExitError)
	return ok
}

// Unwrap implements the [errors.Unwrap] interface.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// ConnectionTimeoutError is returned if the control socket did not become
// available within the connect timeout. Err is the last error encountered.
type ConnectionTimeoutError struct {
	Path    string
	Timeout time.Duration
	Err     error
}

// Error implements the [error] interface.
func (e *ConnectionTimeoutError) Error() string {
	return "connect " + e.Path + ": timeout after " + e.Timeout.String() +
		": " + e.Err.Error()
}

// Is implements the [errors.Is] interface.
func (e *ConnectionTimeoutError) Is(other error) bool {
	_, ok := other.(*ConnectionTimeoutError)
	return ok
}

// Unwrap implements the [errors.Unwrap] interface.
func (e *ConnectionTimeoutError) Unwrap() error {
	return e.Err
}

// ConnectionError is returned for connection failures that are not retried.
type ConnectionError struct {
	Path string
	Err  error
}

// Error implements the [error] interface.
func (e *ConnectionError) Error() string {
	return "connect " + e.Path + ": " + e.Err.Error()
}

// Is implements the [errors.Is] interface.
func (e *ConnectionError) Is(other error) bool {
	_, ok := other.(*ConnectionError)
	return ok
}

// Unwrap implements the [errors.Unwrap] interface.
func (e *ConnectionError) Unwrap() error {
	return e.Err
}
