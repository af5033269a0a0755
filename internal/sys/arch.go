// SPDX-FileCopyrightText: 2024 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sys

import (
	"os"
	"runtime"
)

type Arch string

// Supported guest architectures.
const (
	AMD64   Arch = "amd64"
	ARM64   Arch = "arm64"
	RISCV64 Arch = "riscv64"
)

// Native is the architecture of the host. Using the same architecture for the
// guest allows using KVM, if available. Use [Arch.KVMAvailable] to check.
const Native Arch = Arch(runtime.GOARCH)

// kvmDevice is the KVM device node. It is a variable so tests can point it to
// a file they control.
var kvmDevice = "/dev/kvm" //nolint:gochecknoglobals

func (a *Arch) IsNative() bool {
	return Native == *a
}

// KVMAvailable checks if KVM support is available for the given architecture.
func (a *Arch) KVMAvailable() bool {
	if !a.IsNative() {
		return false
	}

	f, err := os.OpenFile(kvmDevice, os.O_WRONLY, 0)
	if err != nil {
		return false
	}

	_ = f.Close()

	return true
}

// QemuExecutable returns the name of the qemu-system binary for the
// architecture.
func (a *Arch) QemuExecutable() (string, error) {
	switch *a {
	case AMD64:
		return "qemu-system-x86_64", nil
	case ARM64:
		return "qemu-system-aarch64", nil
	case RISCV64:
		return "qemu-system-riscv64", nil
	default:
		return "", ErrArchNotSupported
	}
}
