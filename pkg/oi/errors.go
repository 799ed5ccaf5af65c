// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package oi

import "errors"

var (
	// ErrChannelWrite indicates the transport did not accept outgoing bytes.
	ErrChannelWrite = errors.New("channel write failure")
	// ErrChannelRead indicates the transport failed while reading a response.
	ErrChannelRead = errors.New("channel read failure")
	// ErrTruncatedResponse indicates fewer bytes arrived than the packet group needs.
	ErrTruncatedResponse = errors.New("truncated response")
	// ErrIllegalCommand indicates a command is not allowed in the current mode.
	ErrIllegalCommand = errors.New("illegal command in current state")
	// ErrUnknownPacket indicates a packet id this package cannot decode.
	ErrUnknownPacket = errors.New("unknown packet id")
	// ErrUnknownOpcode indicates a byte that does not start a known command.
	ErrUnknownOpcode = errors.New("unknown opcode")
)
