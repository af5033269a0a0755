// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package qemu composes QEMU system emulation command lines for a single
// disk image backed virtual machine that exposes a QMP control socket.
//
// Nothing in this package spawns processes. Use [CommandSpec.Argv] to get the
// final argument vector.
package qemu
