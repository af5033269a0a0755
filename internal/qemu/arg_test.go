// SPDX-FileCopyrightText: 2024 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qemu_test

import (
	"testing"

	"github.com/aibor/vmirun/internal/qemu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildArgumentStrings(t *testing.T) {
	tests := []struct {
		name        string
		args        []qemu.Argument
		expected    []string
		expectedErr error
	}{
		{
			name:     "empty",
			expected: []string{},
		},
		{
			name: "builds",
			args: []qemu.Argument{
				qemu.UniqueArg("hda", "disk.img"),
				qemu.UniqueArg("smp", "2"),
				qemu.UniqueArg("enable-kvm"),
				qemu.RepeatableArg("numa", "node", "memdev=vmi"),
			},
			expected: []string{
				"-hda", "disk.img",
				"-smp", "2",
				"-enable-kvm",
				"-numa", "node,memdev=vmi",
			},
		},
		{
			name: "repeatable with different values",
			args: []qemu.Argument{
				qemu.RepeatableArg("monitor", "stdio"),
				qemu.RepeatableArg("monitor", "none"),
			},
			expected: []string{
				"-monitor", "stdio",
				"-monitor", "none",
			},
		},
		{
			name: "unique collision",
			args: []qemu.Argument{
				qemu.UniqueArg("m", "128"),
				qemu.UniqueArg("m", "256"),
			},
			expectedErr: qemu.ErrArgumentCollision,
		},
		{
			name: "repeatable collision",
			args: []qemu.Argument{
				qemu.RepeatableArg("monitor", "stdio"),
				qemu.RepeatableArg("monitor", "stdio"),
			},
			expectedErr: qemu.ErrArgumentCollision,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actual, err := qemu.BuildArgumentStrings(tt.args)
			require.ErrorIs(t, err, tt.expectedErr)

			assert.Equal(t, tt.expected, actual)
		})
	}
}

func TestProp(t *testing.T) {
	tests := []struct {
		key      string
		value    string
		expected string
	}{
		{
			key:      "share",
			value:    "on",
			expected: "share=on",
		},
		{
			key:      "mem-path",
			value:    "/tmp/a,b/vmi_1.mem",
			expected: "mem-path=/tmp/a,,b/vmi_1.mem",
		},
		{
			key:      "id",
			value:    "",
			expected: "id=",
		},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.expected, qemu.Prop(tt.key, tt.value))
		})
	}
}
