// SPDX-FileCopyrightText: 2024 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimitedUintValue_Set(t *testing.T) {
	ptr := func(n uint64) *uint64 {
		return &n
	}

	tests := []struct {
		name        string
		value       limitedUintValue
		input       string
		expected    *uint64
		expectedErr error
	}{
		{
			name:        "empty",
			value:       limitedUintValue{Value: ptr(1)},
			expected:    ptr(1),
			expectedErr: strconv.ErrSyntax,
		},
		{
			name:        "signed int",
			value:       limitedUintValue{Value: ptr(1)},
			input:       "-1",
			expected:    ptr(1),
			expectedErr: strconv.ErrSyntax,
		},
		{
			name:        "longer than 64bit",
			value:       limitedUintValue{Value: ptr(1)},
			input:       "184467440737095516151111111111111111111",
			expected:    ptr(1),
			expectedErr: strconv.ErrRange,
		},
		{
			name:     "no limits",
			value:    limitedUintValue{Value: ptr(42)},
			input:    "0",
			expected: ptr(0),
		},
		{
			name:        "is lower",
			value:       limitedUintValue{Value: ptr(256), min: 128},
			input:       "64",
			expected:    ptr(256),
			expectedErr: ErrValueOutOfRange,
		},
		{
			name:        "is higher",
			value:       limitedUintValue{Value: ptr(256), max: 1024},
			input:       "2048",
			expected:    ptr(256),
			expectedErr: ErrValueOutOfRange,
		},
		{
			name:     "in range",
			value:    limitedUintValue{Value: ptr(256), min: 128, max: 1024},
			input:    "512",
			expected: ptr(512),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.value.Set(tt.input)
			require.ErrorIs(t, err, tt.expectedErr)

			assert.Equal(t, tt.expected, tt.value.Value)
		})
	}
}

func TestLimitedUintValue_String(t *testing.T) {
	value := uint64(17)

	assert.Equal(t, "0", (&limitedUintValue{}).String())
	assert.Equal(t, "17", (&limitedUintValue{Value: &value}).String())
}
