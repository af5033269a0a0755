// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package vm

// State is the lifecycle state of a [Controller].
type State int

const (
	// StateIdle means no process is running. Start may be called.
	StateIdle State = iota
	// StateRunning means the process has been started and not yet been
	// waited for.
	StateRunning
	// StateStopped is terminal. All resources are released.
	StateStopped
)

// String implements [fmt.Stringer].
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// StartMode defines if [Controller.Start] waits for the process to exit.
type StartMode int

const (
	// Blocking waits for the process to exit.
	Blocking StartMode = iota
	// NonBlocking returns right after the process has been spawned.
	NonBlocking
)
