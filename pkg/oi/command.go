// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package oi

import "time"

// Command represents one OI command: an opcode and its argument bytes
type Command struct {
	opcode    byte
	data      []byte
	timestamp time.Time
}

// NewCommand creates a command with the given opcode and argument bytes
func NewCommand(opcode byte, data ...byte) *Command {
	return &Command{
		opcode:    opcode,
		data:      data,
		timestamp: time.Now(),
	}
}

// Opcode returns the command opcode
func (c *Command) Opcode() byte {
	return c.opcode
}

// Data returns the argument bytes
func (c *Command) Data() []byte {
	return c.data
}

// Timestamp returns when the command was built or decoded
func (c *Command) Timestamp() time.Time {
	return c.timestamp
}

// Bytes returns the command in wire format
func (c *Command) Bytes() []byte {
	out := make([]byte, 0, 1+len(c.data))
	out = append(out, c.opcode)
	return append(out, c.data...)
}

// Word returns the unsigned big-endian word at argument offset i
func (c *Command) Word(i int) (uint16, bool) {
	if i < 0 || i+2 > len(c.data) {
		return 0, false
	}
	return Word(c.data[i:]), true
}

// Command builder functions. Each returns a Command ready for Bytes().

// NewStartCommand creates the activation command, optionally followed by a
// mode-select opcode.
func NewStartCommand(sel ModeSelect) *Command {
	if op, ok := sel.Opcode(); ok {
		return NewCommand(OpStart, op)
	}
	return NewCommand(OpStart)
}

// NewStopCommand creates the deactivation command.
func NewStopCommand() *Command {
	return NewCommand(OpStop)
}

// NewResetCommand creates the soft reset command.
func NewResetCommand() *Command {
	return NewCommand(OpReset)
}

// NewSeekDockCommand creates the seek dock command.
func NewSeekDockCommand() *Command {
	return NewCommand(OpSeekDock)
}

// NewPowerDownCommand creates the power down command.
func NewPowerDownCommand() *Command {
	return NewCommand(OpPowerDown)
}

// NewDriveCommand creates a DRIVE command.
// Velocity is in mm/s, radius in mm; use RadiusStraight to drive straight.
func NewDriveCommand(velocity, radius int16) *Command {
	data := make([]byte, 4)
	PutSignedWord(data[0:2], velocity)
	PutSignedWord(data[2:4], radius)
	return NewCommand(OpDrive, data...)
}

// NewDriveDirectCommand creates a DRIVE_DIRECT command.
// The right wheel velocity is transmitted first.
func NewDriveDirectCommand(right, left int16) *Command {
	data := make([]byte, 4)
	PutSignedWord(data[0:2], right)
	PutSignedWord(data[2:4], left)
	return NewCommand(OpDriveDirect, data...)
}

// NewQueryCommand creates a SENSORS query for one packet group.
func NewQueryCommand(id PacketID) *Command {
	return NewCommand(OpSensors, byte(id))
}
