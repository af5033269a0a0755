// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qemu

import (
	"strconv"
)

// memoryBackendID is the object ID the file backed memory is registered
// with and the NUMA node refers to.
const memoryBackendID = "vmi"

// bytesPerMiB is used for converting memory sizes given in MiB.
const bytesPerMiB = 1024 * 1024

// MemoryBytes returns the given number of MiB in bytes.
func MemoryBytes(mib uint64) uint64 {
	return mib * bytesPerMiB
}

// CommandSpec describes the QEMU command for a single virtual machine.
type CommandSpec struct {
	// Executable is the QEMU system binary, like "qemu-system-x86_64".
	Executable string

	// DiskImage is attached as primary hard disk.
	DiskImage string

	// SMP is the number of virtual CPUs.
	SMP uint64

	// Memory is the guest memory size in MiB.
	Memory uint64

	// ControlSocket is the path of the unix socket QEMU serves QMP on.
	ControlSocket string

	// MemoryBackingFile backs the guest memory, if set. The memory is shared
	// with and preallocated in this file.
	MemoryBackingFile string

	// NoNetwork disables all network devices.
	NoNetwork bool

	// Snapshot is the name of a snapshot to load at startup.
	Snapshot string

	// Display is passed to -display verbatim, like "vnc=:1".
	Display string

	// Monitor is passed to -monitor verbatim, like "stdio".
	Monitor string

	// NoKVM disables hardware acceleration.
	NoKVM bool

	// ExtraArgs are appended verbatim after all other arguments. They are
	// not checked for collisions.
	ExtraArgs []string

	// Debugger is prepended to the command, like []string{"gdb", "--args"}.
	Debugger []string
}

// Validate checks that all required fields are set.
func (s *CommandSpec) Validate() error {
	switch {
	case s.Executable == "":
		return &ArgumentError{"executable must not be empty"}
	case s.DiskImage == "":
		return &ArgumentError{"disk image must not be empty"}
	case s.SMP == 0:
		return &ArgumentError{"smp must be greater than 0"}
	case s.Memory == 0:
		return &ArgumentError{"memory must be greater than 0"}
	case s.ControlSocket == "":
		return &ArgumentError{"control socket must not be empty"}
	}

	return nil
}

// Arguments returns the QEMU [Argument]s for the [CommandSpec].
func (s *CommandSpec) Arguments() []Argument {
	var args []Argument

	if !s.NoKVM {
		args = append(args, UniqueArg("enable-kvm"))
	}

	args = append(args,
		UniqueArg("hda", s.DiskImage),
		UniqueArg("smp", strconv.FormatUint(s.SMP, 10)),
		UniqueArg("m", strconv.FormatUint(s.Memory, 10)),
	)

	if s.MemoryBackingFile != "" {
		args = append(args,
			RepeatableArg("object",
				"memory-backend-file",
				Prop("id", memoryBackendID),
				Prop("size", strconv.FormatUint(MemoryBytes(s.Memory), 10)),
				Prop("mem-path", s.MemoryBackingFile),
				Prop("share", "on"),
			),
			UniqueArg("mem-prealloc"),
			RepeatableArg("numa", "node", Prop("memdev", memoryBackendID)),
		)
	}

	args = append(args,
		RepeatableArg("qmp",
			"unix:"+Escape(s.ControlSocket),
			Prop("server", "on"),
			Prop("wait", "off"),
		),
	)

	if s.NoNetwork {
		args = append(args, UniqueArg("net", "none"))
	}

	if s.Snapshot != "" {
		args = append(args, UniqueArg("loadvm", s.Snapshot))
	}

	if s.Display != "" {
		args = append(args, UniqueArg("display", s.Display))
	}

	if s.Monitor != "" {
		args = append(args, RepeatableArg("monitor", s.Monitor))
	}

	return args
}

// Argv returns the complete argument vector including the executable as
// first element, or the debugger if set.
func (s *CommandSpec) Argv() ([]string, error) {
	err := s.Validate()
	if err != nil {
		return nil, err
	}

	args, err := BuildArgumentStrings(s.Arguments())
	if err != nil {
		return nil, err
	}

	argv := make([]string, 0, len(s.Debugger)+1+len(args)+len(s.ExtraArgs))
	argv = append(argv, s.Debugger...)
	argv = append(argv, s.Executable)
	argv = append(argv, args...)
	argv = append(argv, s.ExtraArgs...)

	return argv, nil
}
