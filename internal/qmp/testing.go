// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qmp

import (
	"encoding/json"
	"errors"
	"net"
)

// CommandHandler handles a single command received by a [FakeServer]. If it
// returns an error of type [*CommandError], it is sent as error reply.
// Any other error terminates the connection without reply.
type CommandHandler func(command string, args json.RawMessage) (any, error)

// FakeServer is a minimal QMP server for testing. It serves connections
// sequentially.
//
// Like QEMU, it hangs up after replying to "quit", unless IgnoreQuit is set.
type FakeServer struct {
	// Greeting is sent to every new connection.
	Greeting Greeting

	// Handler is called for every command except "qmp_capabilities". If
	// nil, all commands are replied to with an empty return.
	Handler CommandHandler

	// IgnoreQuit makes the server reply to "quit" and keep the connection
	// open.
	IgnoreQuit bool

	// OnQuit is called after "quit" was replied to and the connection is
	// closed.
	OnQuit func()
}

// Serve accepts connections on the listener until it is closed.
func (s *FakeServer) Serve(listener net.Listener) error {
	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}

			return err //nolint:wrapcheck
		}

		quit, err := s.serveConn(conn)
		_ = conn.Close()

		if err != nil {
			continue
		}

		if quit && s.OnQuit != nil {
			s.OnQuit()
		}
	}
}

func (s *FakeServer) serveConn(conn net.Conn) (bool, error) {
	encoder := json.NewEncoder(conn)
	decoder := json.NewDecoder(conn)

	err := encoder.Encode(greetingMessage{QMP: &s.Greeting})
	if err != nil {
		return false, err //nolint:wrapcheck
	}

	for {
		var req struct {
			Execute   string          `json:"execute"`
			Arguments json.RawMessage `json:"arguments"`
			ID        string          `json:"id"`
		}

		err := decoder.Decode(&req)
		if err != nil {
			return false, err //nolint:wrapcheck
		}

		resp := message{ID: req.ID, Return: json.RawMessage("{}")}

		if req.Execute != "qmp_capabilities" && s.Handler != nil {
			ret, err := s.Handler(req.Execute, req.Arguments)

			var cmdErr *CommandError
			if errors.As(err, &cmdErr) {
				resp = message{ID: req.ID, Error: cmdErr}
			} else if err != nil {
				return false, err
			}

			if ret != nil && resp.Error == nil {
				resp.Return, err = json.Marshal(ret)
				if err != nil {
					return false, err //nolint:wrapcheck
				}
			}
		}

		err = encoder.Encode(resp)
		if err != nil {
			return false, err //nolint:wrapcheck
		}

		if req.Execute == "quit" && !s.IgnoreQuit {
			_ = encoder.Encode(message{Event: "SHUTDOWN", Data: json.RawMessage(`{"guest":false,"reason":"host-qmp-quit"}`)})
			return true, nil
		}
	}
}
