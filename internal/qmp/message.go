// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qmp

import (
	"encoding/json"
	"strconv"
)

// Version is the QEMU version reported in the [Greeting].
type Version struct {
	QEMU struct {
		Major int `json:"major"`
		Minor int `json:"minor"`
		Micro int `json:"micro"`
	} `json:"qemu"`
	Package string `json:"package"`
}

// String implements [fmt.Stringer].
func (v Version) String() string {
	return strconv.Itoa(v.QEMU.Major) + "." +
		strconv.Itoa(v.QEMU.Minor) + "." +
		strconv.Itoa(v.QEMU.Micro)
}

// Greeting is sent by the server right after the connection is established.
type Greeting struct {
	Version      Version  `json:"version"`
	Capabilities []string `json:"capabilities"`
}

type greetingMessage struct {
	QMP *Greeting `json:"QMP"`
}

type request struct {
	Execute   string `json:"execute"`
	Arguments any    `json:"arguments,omitempty"`
	ID        string `json:"id,omitempty"`
}

type timestamp struct {
	Seconds      int64 `json:"seconds"`
	Microseconds int64 `json:"microseconds"`
}

// message is any message sent by the server after the greeting. It is either
// a command response or an event.
type message struct {
	ID        string          `json:"id,omitempty"`
	Return    json.RawMessage `json:"return,omitempty"`
	Error     *CommandError   `json:"error,omitempty"`
	Event     string          `json:"event,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp *timestamp      `json:"timestamp,omitempty"`
}

func (m *message) isEvent() bool {
	return m.Event != ""
}

func (m *message) isResponse() bool {
	return m.Return != nil || m.Error != nil
}
