// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package vm

import (
	"fmt"

	"github.com/gofrs/flock"
)

const lockSuffix = ".lock"

// acquireSocketLock takes an exclusive lock for the control socket path, so
// no two controllers start processes serving the same socket.
func acquireSocketLock(socketPath string) (*flock.Flock, error) {
	fl := flock.New(socketPath + lockSuffix)

	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", fl.Path(), err)
	}

	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrSocketInUse, socketPath)
	}

	return fl, nil
}
