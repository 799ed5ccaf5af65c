// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package create2

import "time"

// Default driver timing
const (
	DefaultSettleDelay = 100 * time.Millisecond
	DefaultReadTimeout = 500 * time.Millisecond
	DefaultResetDelay  = 4 * time.Second
)

// Config holds driver policy values
type Config struct {
	// SettleDelay is waited after every mode or actuation command.
	SettleDelay time.Duration

	// ReadTimeout is applied to channels that support SetReadTimeout.
	// It bounds every read and therefore decides where a response ends.
	ReadTimeout time.Duration

	// ResetDelay is waited after a reset before the banner is read.
	ResetDelay time.Duration

	// AutoStart enables the implicit start before drive commands (into Safe)
	// and before queries (into Passive) when the robot is not ready.
	AutoStart bool

	// Sleep implements the delays. Defaults to time.Sleep.
	Sleep func(time.Duration)
}

// DefaultConfig returns the default driver configuration
func DefaultConfig() Config {
	return Config{
		SettleDelay: DefaultSettleDelay,
		ReadTimeout: DefaultReadTimeout,
		ResetDelay:  DefaultResetDelay,
		AutoStart:   true,
		Sleep:       time.Sleep,
	}
}
