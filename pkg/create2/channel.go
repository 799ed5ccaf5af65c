// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package create2

import (
	"io"
	"time"
)

// Channel is the duplex byte stream to the robot.
//
// Read must return 0, nil once its read timeout elapses with no data, the
// way go.bug.st/serial ports behave. The driver treats that empty read as the
// end of a response, so response boundaries depend on the timeout.
type Channel interface {
	io.Reader
	io.Writer
}

// timeoutSetter is implemented by channels with a configurable read timeout
type timeoutSetter interface {
	SetReadTimeout(t time.Duration) error
}

// inputFlusher is implemented by channels that can discard unread input
type inputFlusher interface {
	ResetInputBuffer() error
}
