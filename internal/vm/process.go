// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package vm

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"golang.org/x/sys/unix"
)

// killDrainTimeout bounds the wait for the process to be reaped after
// SIGKILL.
const killDrainTimeout = 5 * time.Second

// process is a started QEMU process.
//
// Exactly one goroutine calls [exec.Cmd.Wait]. Its result is available once
// exited is closed.
type process struct {
	cmd     *exec.Cmd
	exited  chan struct{}
	waitErr error
}

func startProcess(argv []string, opts StartOptions) (*process, error) {
	cmd := exec.Command(argv[0], argv[1:]...) //nolint:gosec,noctx
	cmd.Stdin = opts.Stdin
	cmd.Stdout = opts.Stdout
	cmd.Stderr = opts.Stderr
	configureSysProcAttr(cmd)

	err := cmd.Start()
	if err != nil {
		return nil, &SpawnError{Err: err}
	}

	proc := &process{
		cmd:    cmd,
		exited: make(chan struct{}),
	}

	go func() {
		proc.waitErr = cmd.Wait()
		close(proc.exited)
	}()

	return proc, nil
}

func (p *process) pid() int {
	return p.cmd.Process.Pid
}

func (p *process) alive() bool {
	select {
	case <-p.exited:
		return false
	default:
		return true
	}
}

// result returns the exit error of the process. It must only be called after
// exited is closed.
func (p *process) result() error {
	if p.waitErr == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(p.waitErr, &exitErr) {
		return &ExitError{ExitCode: exitErr.ExitCode(), Err: p.waitErr}
	}

	return fmt.Errorf("wait: %w", p.waitErr)
}

// terminate sends SIGTERM and escalates to SIGKILL if the process does not
// exit within grace.
func (p *process) terminate(grace time.Duration, logger *slog.Logger) error {
	if !p.alive() {
		return nil
	}

	logger.Debug("send SIGTERM", slog.Int("pid", p.pid()))

	err := p.cmd.Process.Signal(unix.SIGTERM)
	if err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("send SIGTERM: %w", err)
	}

	if p.awaitExit(grace) {
		return nil
	}

	logger.Warn("process did not exit after SIGTERM, killing",
		slog.Int("pid", p.pid()),
		slog.Duration("grace", grace),
	)

	err = p.cmd.Process.Kill()
	if err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("send SIGKILL: %w", err)
	}

	if !p.awaitExit(killDrainTimeout) {
		return errKillTimeout
	}

	return nil
}

func (p *process) awaitExit(timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-p.exited:
		return true
	case <-timer.C:
		return false
	}
}
