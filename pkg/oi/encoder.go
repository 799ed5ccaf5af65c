// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package oi

// All multi-byte OI fields are 16-bit big-endian: high byte first.

// SplitWord returns the high and low bytes of v.
func SplitWord(v uint16) (hi, lo byte) {
	return byte((v >> 8) & 0xFF), byte(v & 0xFF)
}

// JoinWord combines a high and low byte into a word.
func JoinWord(hi, lo byte) uint16 {
	return uint16(hi)<<8 | uint16(lo)
}

// PutWord writes v into b[0:2] as high byte, low byte.
func PutWord(b []byte, v uint16) {
	b[0], b[1] = SplitWord(v)
}

// PutSignedWord writes the two's-complement form of v into b[0:2].
func PutSignedWord(b []byte, v int16) {
	PutWord(b, uint16(v))
}

// Word reads an unsigned big-endian word from b[0:2].
func Word(b []byte) uint16 {
	return JoinWord(b[0], b[1])
}

// SignedWord reads a two's-complement big-endian word from b[0:2].
func SignedWord(b []byte) int16 {
	return int16(Word(b))
}

// EncodeStart returns [start] or [start, mode].
func EncodeStart(sel ModeSelect) []byte {
	return NewStartCommand(sel).Bytes()
}

// EncodeStop returns the deactivation bytes.
func EncodeStop() []byte {
	return []byte{OpStop}
}

// EncodeReset returns the soft reset bytes.
func EncodeReset() []byte {
	return []byte{OpReset}
}

// EncodeSeekDock returns the seek dock bytes.
func EncodeSeekDock() []byte {
	return []byte{OpSeekDock}
}

// EncodePowerDown returns the power down bytes.
func EncodePowerDown() []byte {
	return []byte{OpPowerDown}
}

// EncodeDrive returns [drive, v_hi, v_lo, r_hi, r_lo].
func EncodeDrive(velocity, radius int16) []byte {
	return NewDriveCommand(velocity, radius).Bytes()
}

// EncodeDriveDirect returns [drive_direct, r_hi, r_lo, l_hi, l_lo].
func EncodeDriveDirect(right, left int16) []byte {
	return NewDriveDirectCommand(right, left).Bytes()
}

// EncodeQuery returns [sensors, packet_id].
func EncodeQuery(id PacketID) []byte {
	return []byte{OpSensors, byte(id)}
}
