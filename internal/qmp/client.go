// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qmp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Client is a QMP client connected to a single QEMU instance.
//
// Execute may be called concurrently.
type Client struct {
	conn     net.Conn
	decoder  *json.Decoder
	logger   *slog.Logger
	greeting Greeting

	writeMu sync.Mutex
	encoder *json.Encoder

	mu      sync.Mutex
	pending map[string]chan message
	closed  bool

	readDone chan struct{}
	group    errgroup.Group
}

// Dial connects to the QMP server listening on the unix socket at path and
// negotiates capabilities.
//
// The context bounds the connection establishment and the handshake. The
// returned error wraps the underlying dial error, so a socket that does not
// exist yet can be identified with [errors.Is] and [unix.ENOENT].
func Dial(ctx context.Context, path string, opts ...Option) (*Client, error) {
	var dialer net.Dialer

	conn, err := dialer.DialContext(ctx, "unix", path)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	client := &Client{
		conn:     conn,
		decoder:  json.NewDecoder(conn),
		encoder:  json.NewEncoder(conn),
		logger:   slog.Default(),
		pending:  make(map[string]chan message),
		readDone: make(chan struct{}),
	}

	for _, opt := range opts {
		opt(client)
	}

	err = client.handshake(ctx)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	client.group.Go(client.readLoop)

	return client, nil
}

// Greeting returns the greeting the server sent on connection.
func (c *Client) Greeting() Greeting {
	return c.greeting
}

func (c *Client) handshake(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetDeadline(time.Unix(1, 0))
	})

	err := c.negotiate()

	if !stop() {
		return fmt.Errorf("%w: %w", ErrHandshake, ctx.Err())
	}

	return err
}

func (c *Client) negotiate() error {
	greeting := greetingMessage{QMP: &c.greeting}

	err := c.decoder.Decode(&greeting)
	if err != nil {
		return fmt.Errorf("%w: read greeting: %w", ErrHandshake, err)
	}

	err = c.encoder.Encode(request{Execute: "qmp_capabilities"})
	if err != nil {
		return fmt.Errorf("%w: send capabilities: %w", ErrHandshake, err)
	}

	for {
		var msg message

		err := c.decoder.Decode(&msg)
		if err != nil {
			return fmt.Errorf("%w: read capabilities: %w", ErrHandshake, err)
		}

		if msg.isEvent() {
			c.logEvent(&msg)
			continue
		}

		if msg.Error != nil {
			return fmt.Errorf("%w: %w", ErrHandshake, msg.Error)
		}

		return nil
	}
}

// Execute sends the command with the given arguments and waits for the
// response. Arguments are omitted if nil.
//
// If the server replies with an error, it is returned as [*CommandError].
// If the connection is gone before the response is received, [ErrClosed] is
// returned.
func (c *Client) Execute(
	ctx context.Context,
	command string,
	args any,
) (json.RawMessage, error) {
	id := uuid.NewString()
	respCh := make(chan message, 1)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}

	c.pending[id] = respCh
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	c.writeMu.Lock()
	err := c.encoder.Encode(request{
		Execute:   command,
		Arguments: args,
		ID:        id,
	})
	c.writeMu.Unlock()

	if err != nil {
		return nil, fmt.Errorf("send %s: %w", command, errors.Join(ErrClosed, err))
	}

	select {
	case msg := <-respCh:
		return msg.result()
	case <-c.readDone:
		// The response might have been delivered right before the reader
		// terminated.
		select {
		case msg := <-respCh:
			return msg.result()
		default:
			return nil, ErrClosed
		}
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", command, ctx.Err())
	}
}

func (m *message) result() (json.RawMessage, error) {
	if m.Error != nil {
		return nil, m.Error
	}

	return m.Return, nil
}

// Close closes the connection and waits for the reader to terminate. It is
// safe to call Close multiple times.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}

	c.closed = true
	c.mu.Unlock()

	closeErr := c.conn.Close()
	if errors.Is(closeErr, net.ErrClosed) {
		closeErr = nil
	}

	return errors.Join(closeErr, c.group.Wait())
}

func (c *Client) readLoop() error {
	defer close(c.readDone)

	for {
		var msg message

		err := c.decoder.Decode(&msg)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				c.logger.Debug("qmp connection closed")
				return nil
			}

			return fmt.Errorf("read: %w", err)
		}

		switch {
		case msg.isEvent():
			c.logEvent(&msg)
		case msg.isResponse():
			c.deliver(msg)
		default:
			c.logger.Warn("unknown qmp message received")
		}
	}
}

func (c *Client) deliver(msg message) {
	c.mu.Lock()
	respCh, exists := c.pending[msg.ID]
	delete(c.pending, msg.ID)
	c.mu.Unlock()

	if !exists {
		c.logger.Debug("qmp response without waiting caller", slog.String("id", msg.ID))
		return
	}

	respCh <- msg
}

func (c *Client) logEvent(msg *message) {
	c.logger.Debug("qmp event",
		slog.String("event", msg.Event),
		slog.String("data", string(msg.Data)),
	)
}
