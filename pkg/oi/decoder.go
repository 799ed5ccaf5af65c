// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package oi

import (
	"fmt"
	"time"
)

// Command decoder states (internal)
const (
	stateOpcode = iota
	stateArgs
)

// CommandDecoder rebuilds OI commands from a sniffed controller byte stream.
// OI has no framing, so the decoder relies on the argument length of each
// opcode and resynchronises on the next byte after an unknown opcode.
type CommandDecoder struct {
	state   int
	command *Command
	need    int
}

// NewCommandDecoder creates a new command stream decoder
func NewCommandDecoder() *CommandDecoder {
	return &CommandDecoder{state: stateOpcode}
}

// Reset drops any partially decoded command
func (d *CommandDecoder) Reset() {
	d.state = stateOpcode
	d.command = nil
	d.need = 0
}

// Pending reports whether a command is partially decoded
func (d *CommandDecoder) Pending() bool {
	return d.state == stateArgs
}

// DecodeByte processes a single byte through the decoder state machine.
// Returns a completed command, or nil if more bytes are needed.
// Returns an error for bytes that do not start a known command.
func (d *CommandDecoder) DecodeByte(b byte) (*Command, error) {
	switch d.state {
	case stateOpcode:
		n, ok := ArgLength(b)
		if !ok {
			return nil, fmt.Errorf("%w: 0x%02X", ErrUnknownOpcode, b)
		}
		cmd := &Command{opcode: b, data: make([]byte, 0, n), timestamp: time.Now()}
		if n == 0 {
			return cmd, nil
		}
		d.command = cmd
		d.need = n
		d.state = stateArgs
		return nil, nil

	case stateArgs:
		d.command.data = append(d.command.data, b)
		if len(d.command.data) < d.need {
			return nil, nil
		}
		cmd := d.command
		d.Reset()
		return cmd, nil

	default:
		d.Reset()
		return nil, fmt.Errorf("invalid state: %d", d.state)
	}
}

// DecodeCommands decodes every complete command in data.
// Unknown bytes are reported as errors alongside the decoded commands.
func DecodeCommands(data []byte) ([]*Command, []error) {
	d := NewCommandDecoder()
	var cmds []*Command
	var errs []error
	for _, b := range data {
		cmd, err := d.DecodeByte(b)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	if d.Pending() {
		errs = append(errs, fmt.Errorf("incomplete %s command at end of data", FormatOpcode(d.command.opcode)))
	}
	return cmds, errs
}
