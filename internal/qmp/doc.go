// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package qmp implements a client for the QEMU Machine Protocol served on a
// unix socket.
//
// A [Client] performs the capabilities negotiation on [Dial] and can then
// be used to [Client.Execute] commands concurrently. Asynchronous events sent
// by QEMU are logged at debug level.
package qmp
