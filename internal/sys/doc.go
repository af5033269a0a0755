// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package sys provides host system helpers: architecture detection, QEMU
// executable defaults, KVM availability and path handling.
package sys
