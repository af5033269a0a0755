// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

//go:build !linux

package vm

import "os/exec"

// configureSysProcAttr is a no-op. Parent death signals are Linux only.
func configureSysProcAttr(_ *exec.Cmd) {}
