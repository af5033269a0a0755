// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package vm

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/aibor/vmirun/internal/qemu"
	"github.com/aibor/vmirun/internal/sys"
)

// Default values applied to zero fields of [Config].
const (
	DefaultSMP    = 2
	DefaultMemory = 2048

	DefaultConnectRetryInterval = 200 * time.Millisecond
	DefaultConnectTimeout       = 5 * time.Second
	DefaultShutdownPollInterval = 200 * time.Millisecond
	DefaultShutdownTimeout      = 5 * time.Second
	DefaultKillTimeout          = 5 * time.Second
)

// maxSocketPathLen is the maximum length of a unix socket path on Linux,
// sizeof(sun_path) minus the terminating NUL byte.
const maxSocketPathLen = 107

// socketSuffixMax is the upper bound of the random suffix of generated
// socket paths.
const socketSuffixMax = 10000

const (
	socketPrefix      = "qmp."
	memoryFilePattern = "vmi_*.mem"
)

// Timing defines the intervals and timeouts of the connection retry and the
// shutdown sequence.
type Timing struct {
	// ConnectRetryInterval is the delay between attempts to connect to a
	// control socket that does not exist yet.
	ConnectRetryInterval time.Duration

	// ConnectTimeout is the overall time budget for establishing the
	// control connection.
	ConnectTimeout time.Duration

	// ShutdownPollInterval is the delay between process liveness checks
	// after quit has been sent.
	ShutdownPollInterval time.Duration

	// ShutdownTimeout is the time the process is given to exit after quit
	// has been sent, before it is terminated by signal.
	ShutdownTimeout time.Duration

	// KillTimeout is the time the process is given to exit after SIGTERM,
	// before SIGKILL is sent.
	KillTimeout time.Duration
}

func (t Timing) withDefaults() Timing {
	if t.ConnectRetryInterval <= 0 {
		t.ConnectRetryInterval = DefaultConnectRetryInterval
	}

	if t.ConnectTimeout <= 0 {
		t.ConnectTimeout = DefaultConnectTimeout
	}

	if t.ShutdownPollInterval <= 0 {
		t.ShutdownPollInterval = DefaultShutdownPollInterval
	}

	if t.ShutdownTimeout <= 0 {
		t.ShutdownTimeout = DefaultShutdownTimeout
	}

	if t.KillTimeout <= 0 {
		t.KillTimeout = DefaultKillTimeout
	}

	return t
}

// Config is the configuration of a single virtual machine.
type Config struct {
	// Executable is the QEMU binary. Defaults to the qemu-system binary for
	// the host architecture.
	Executable string

	// DiskImage is the primary disk image. It is required.
	DiskImage string

	// SMP is the number of CPU cores. Defaults to [DefaultSMP].
	SMP uint64

	// Memory is the memory size in MiB. Defaults to [DefaultMemory].
	Memory uint64

	// SocketPath is the path of the QMP control socket. If empty, a unique
	// path in [os.TempDir] is generated.
	//
	// The socket is guarded by a lock file at SocketPath + ".lock". For
	// generated paths it is removed on [Controller.Stop]. For a given path it
	// is left in place, as another controller may hold it by then.
	SocketPath string

	// FileBackedMemory backs the guest memory by a temporary file, so it
	// can be accessed by other processes.
	FileBackedMemory bool

	// Snapshot is loaded on start, if set.
	Snapshot string

	// Network enables the default network. It is disabled otherwise.
	Network bool

	// Display is the display target, like "vnc=:1".
	Display string

	// Monitor is where the human monitor is redirected to, like "stdio".
	Monitor string

	// NoKVM disables KVM acceleration.
	NoKVM bool

	// ExtraArgs are passed to QEMU verbatim after all other arguments.
	ExtraArgs []string

	Timing Timing
}

func (c Config) withDefaults() (Config, error) {
	if c.DiskImage == "" {
		return c, &ConfigError{ErrDiskImageEmpty}
	}

	if c.Executable == "" {
		arch := sys.Native

		executable, err := arch.QemuExecutable()
		if err != nil {
			return c, &ConfigError{fmt.Errorf("default executable: %w", err)}
		}

		c.Executable = executable
	}

	if c.SMP == 0 {
		c.SMP = DefaultSMP
	}

	if c.Memory == 0 {
		c.Memory = DefaultMemory
	}

	c.Timing = c.Timing.withDefaults()

	return c, nil
}

// commandSpec returns the [qemu.CommandSpec] for the given control socket and
// memory backing file.
func (c *Config) commandSpec(socketPath, memoryFile string) qemu.CommandSpec {
	return qemu.CommandSpec{
		Executable:        c.Executable,
		DiskImage:         c.DiskImage,
		SMP:               c.SMP,
		Memory:            c.Memory,
		ControlSocket:     socketPath,
		MemoryBackingFile: memoryFile,
		NoNetwork:         !c.Network,
		Snapshot:          c.Snapshot,
		Display:           c.Display,
		Monitor:           c.Monitor,
		NoKVM:             c.NoKVM,
		ExtraArgs:         c.ExtraArgs,
	}
}

// GenerateSocketPath returns a control socket path in dir that is unique for
// the given process ID and number.
func GenerateSocketPath(dir string, pid int, n int) string {
	name := socketPrefix + strconv.Itoa(pid) + "." + strconv.Itoa(n)
	return filepath.Join(dir, name)
}

func validateSocketPath(path string) error {
	if len(path) > maxSocketPathLen {
		return &ConfigError{fmt.Errorf("%w: %s", ErrSocketPathTooLong, path)}
	}

	return nil
}
