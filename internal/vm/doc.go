// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package vm supervises a single QEMU process with a QMP control socket.
//
// A [Controller] is created from a [Config] with [New], which allocates the
// control socket path and the optional memory backing file. The process is
// started with [Controller.Start] and shut down with [Controller.Stop]. Stop
// asks QEMU to quit via QMP first and terminates the process with signals if
// that does not succeed in time. The memory backing file is removed by Stop
// in any case.
//
// Lifecycle:
//
//	StateIdle --Start--> StateRunning --exit/Wait--> StateIdle
//	    \                     |
//	     \---------Stop-------+-------------------> StateStopped
package vm
