// SPDX-FileCopyrightText: 2024 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"github.com/aibor/vmirun/internal/sys"
)

// filePath is a [flag.Value] that is resolved to an absolute path.
type filePath string

func (f *filePath) String() string {
	return string(*f)
}

func (f *filePath) Set(s string) error {
	path, err := sys.AbsolutePath(s)
	if err != nil {
		return err //nolint:wrapcheck
	}

	*f = filePath(path)

	return nil
}
