// SPDX-FileCopyrightText: 2024 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qemu

import (
	"fmt"
	"slices"
	"strings"
)

// Argument is a single QEMU command line option, like "-smp 2" or
// "-mem-prealloc".
//
// Options QEMU accepts only once are unique by name. Repeatable options,
// like "-object", may occur multiple times with different values.
type Argument struct {
	name       string
	value      string
	repeatable bool
}

func (a Argument) String() string {
	if a.value == "" {
		return "-" + a.name
	}

	return "-" + a.name + " " + a.value
}

// conflicts reports if both [Argument]s can not be used together.
func (a Argument) conflicts(other Argument) bool {
	if a.name != other.name {
		return false
	}

	return !a.repeatable || a.value == other.value
}

// UniqueArg returns an [Argument] that may occur only once. The value parts
// are joined into a comma separated option list.
func UniqueArg(name string, value ...string) Argument {
	return Argument{
		name:  name,
		value: strings.Join(value, ","),
	}
}

// RepeatableArg returns an [Argument] that may occur multiple times with
// different values.
func RepeatableArg(name string, value ...string) Argument {
	return Argument{
		name:       name,
		value:      strings.Join(value, ","),
		repeatable: true,
	}
}

// Escape doubles commas in a free form value, like a file path, so QEMU's
// option parser does not split it.
func Escape(value string) string {
	return strings.ReplaceAll(value, ",", ",,")
}

// Prop returns the option property "key=value" with the value escaped.
func Prop(key, value string) string {
	return key + "=" + Escape(value)
}

// BuildArgumentStrings compiles the [Argument]s into the argument list for
// [exec.Command].
//
// Returns [ErrArgumentCollision] if an [Argument] conflicts with a preceding
// one.
func BuildArgumentStrings(args []Argument) ([]string, error) {
	argStrings := make([]string, 0, len(args)*2) //nolint:mnd

	for idx, arg := range args {
		if i := slices.IndexFunc(args[:idx], arg.conflicts); i != -1 {
			return nil, fmt.Errorf("%w: %s conflicts with %s",
				ErrArgumentCollision, arg, args[i])
		}

		argStrings = append(argStrings, "-"+arg.name)

		if arg.value != "" {
			argStrings = append(argStrings, arg.value)
		}
	}

	return argStrings, nil
}
