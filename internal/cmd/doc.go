// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package cmd implements the vmirun command line interface.
//
// Arguments are read from the local file ".vmirun-args", the environment
// variable VMIRUN_ARGS and the command line, in this order.
package cmd
