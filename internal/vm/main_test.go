// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package vm_test

import (
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/aibor/vmirun/internal/qmp"
	"go.uber.org/goleak"
	"golang.org/x/sys/unix"
)

// fakeModeEnv makes the test binary act as fake QEMU if set. Values:
//
//	serve        serve QMP and exit on quit
//	ignore-quit  serve QMP but ignore quit
//	stubborn     like ignore-quit and ignore SIGTERM
//	silent       never bind the control socket
//	mute         accept control connections but never answer, ignore SIGTERM
//	exit:N       exit immediately with code N
const fakeModeEnv = "VMIRUN_FAKE_QEMU"

func TestMain(m *testing.M) {
	if mode, ok := os.LookupEnv(fakeModeEnv); ok {
		os.Exit(runFakeQEMU(mode, os.Args[1:]))
	}

	goleak.VerifyTestMain(m)
}

func runFakeQEMU(mode string, args []string) int {
	if code, found := strings.CutPrefix(mode, "exit:"); found {
		exitCode, err := strconv.Atoi(code)
		if err != nil {
			return 125
		}

		return exitCode
	}

	if mode == "silent" {
		time.Sleep(time.Hour)
		return 0
	}

	listener, err := net.Listen("unix", qmpSocketPath(args))
	if err != nil {
		return 126
	}

	if mode == "mute" {
		signal.Ignore(unix.SIGTERM)
		holdConnections(listener)

		return 0
	}

	server := &qmp.FakeServer{}

	switch mode {
	case "serve":
		server.OnQuit = func() {
			_ = listener.Close()

			os.Exit(0)
		}
	case "stubborn":
		signal.Ignore(unix.SIGTERM)

		fallthrough
	case "ignore-quit":
		server.IgnoreQuit = true
	default:
		return 127
	}

	_ = server.Serve(listener)

	return 0
}

// holdConnections accepts connections and keeps them open without ever
// writing to them.
func holdConnections(listener net.Listener) {
	var conns []net.Conn

	for {
		conn, err := listener.Accept()
		if err != nil {
			return
		}

		conns = append(conns, conn)
	}
}

func qmpSocketPath(args []string) string {
	for idx, arg := range args[:len(args)-1] {
		if arg != "-qmp" {
			continue
		}

		path := strings.TrimPrefix(args[idx+1], "unix:")
		path, _, _ = strings.Cut(path, ",")

		return path
	}

	return ""
}
