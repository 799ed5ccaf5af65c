// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package oi provides a Go implementation of the Open Interface (OI) serial
// protocol used by iRobot Create 2 class robots.
//
// OI is an unframed command/response protocol: every command is a single
// opcode byte followed by a fixed number of argument bytes, and sensor
// responses carry no length prefix. This package provides command encoding,
// command stream decoding, sensor packet decoding, validation and
// human-readable formatting.
package oi

import "fmt"

// Opcodes (Controller → Robot)
const (
	OpReset       = 7
	OpStart       = 128
	OpSafe        = 131
	OpFull        = 132
	OpPowerDown   = 133
	OpDrive       = 137
	OpSensors     = 142
	OpSeekDock    = 143
	OpDriveDirect = 145
	OpStop        = 173
)

// PacketID identifies a sensor packet group requested with OpSensors.
type PacketID uint8

// Sensor packet groups
const (
	PacketBumpsEnvironment PacketID = 1
	PacketBattery          PacketID = 3
	PacketLightBumpSignals PacketID = 106
)

// Minimum response lengths per packet group (highest decoded offset + 1)
const (
	BumpsEnvironmentLength = 9
	BatteryLength          = 11
	LightBumpSignalsLength = 12
)

// Bumps and wheel drops status byte
const (
	MaskBumpRight      = 0x01
	MaskBumpLeft       = 0x02
	MaskWheelDropRight = 0x04
	MaskWheelDropLeft  = 0x08
)

// Offsets inside the bumps & environment group
const (
	offsetBumpsWheelDrops = 0
	offsetWall            = 1
	offsetCliffLeft       = 2
	offsetCliffFrontLeft  = 3
	offsetCliffFrontRight = 4
	offsetCliffRight      = 5
	offsetVirtualWall     = 6
	offsetDirtDetect      = 8
)

// Offsets inside the battery group
const (
	offsetChargingState = 0
	offsetVoltage       = 1
	offsetCurrent       = 3
	offsetTemperature   = 6
	offsetCharge        = 7
	offsetCapacity      = 9
)

// Special radius values for OpDrive
const (
	RadiusStraight             int16 = -0x8000 // 0x8000 on the wire
	RadiusStraightAlt          int16 = 0x7FFF
	RadiusSpinClockwise        int16 = -1
	RadiusSpinCounterClockwise int16 = 1
)

// Actuation limits documented by the OI
const (
	MaxVelocity = 500  // mm/s
	MaxRadius   = 2000 // mm
)

// LightBumperCount is the number of light bumper channels, left to right.
const LightBumperCount = 6

// Light bumper positions
const (
	LightBumperLeft = iota
	LightBumperFrontLeft
	LightBumperCenterLeft
	LightBumperCenterRight
	LightBumperFrontRight
	LightBumperRight
)

// LightBumperNames labels the light bumper positions by index
var LightBumperNames = [LightBumperCount]string{
	"left", "front_left", "center_left", "center_right", "front_right", "right",
}

// BannerMarker is emitted between lines of the reset banner and is not text.
const BannerMarker = 0xFC

// argLengths holds the number of argument bytes following each known opcode
var argLengths = map[byte]int{
	OpReset:       0,
	OpStart:       0,
	OpSafe:        0,
	OpFull:        0,
	OpPowerDown:   0,
	OpDrive:       4,
	OpSensors:     1,
	OpSeekDock:    0,
	OpDriveDirect: 4,
	OpStop:        0,
}

// ArgLength returns the argument length for an opcode and whether it is known.
func ArgLength(opcode byte) (int, bool) {
	n, ok := argLengths[opcode]
	return n, ok
}

// RequiredLength returns the minimum response length for a packet group.
func RequiredLength(id PacketID) (int, bool) {
	switch id {
	case PacketBumpsEnvironment:
		return BumpsEnvironmentLength, true
	case PacketBattery:
		return BatteryLength, true
	case PacketLightBumpSignals:
		return LightBumpSignalsLength, true
	}
	return 0, false
}

// DeviceMode is the operating mode of the robot
type DeviceMode int

// Device mode values
const (
	ModeOff DeviceMode = iota
	ModePassive
	ModeSafe
	ModeFull
)

// String returns the mode name
func (m DeviceMode) String() string {
	switch m {
	case ModeOff:
		return "OFF"
	case ModePassive:
		return "PASSIVE"
	case ModeSafe:
		return "SAFE"
	case ModeFull:
		return "FULL"
	default:
		return "UNKNOWN"
	}
}

// MarshalText encodes the mode by name
func (m DeviceMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText decodes a mode name written by MarshalText
func (m *DeviceMode) UnmarshalText(text []byte) error {
	for _, mode := range []DeviceMode{ModeOff, ModePassive, ModeSafe, ModeFull} {
		if mode.String() == string(text) {
			*m = mode
			return nil
		}
	}
	return fmt.Errorf("unknown device mode %q", text)
}

// CanActuate reports whether drive commands are accepted in this mode.
func (m DeviceMode) CanActuate() bool {
	return m == ModeSafe || m == ModeFull
}

// ModeSelect is the optional mode byte sent together with OpStart.
// NoModeSelect sends OpStart alone and leaves the robot in Passive mode.
type ModeSelect int

// Mode select values
const (
	NoModeSelect ModeSelect = iota
	SelectSafe
	SelectFull
)

// Target returns the device mode reached after a start with this selection.
func (s ModeSelect) Target() DeviceMode {
	switch s {
	case SelectSafe:
		return ModeSafe
	case SelectFull:
		return ModeFull
	default:
		return ModePassive
	}
}

// Opcode returns the mode-select opcode, or false for NoModeSelect.
func (s ModeSelect) Opcode() (byte, bool) {
	switch s {
	case SelectSafe:
		return OpSafe, true
	case SelectFull:
		return OpFull, true
	default:
		return 0, false
	}
}

// String returns the selection name
func (s ModeSelect) String() string {
	switch s {
	case NoModeSelect:
		return "NONE"
	case SelectSafe:
		return "SAFE"
	case SelectFull:
		return "FULL"
	default:
		return "UNKNOWN"
	}
}

// ParseModeSelect parses "passive", "safe" or "full".
func ParseModeSelect(s string) (ModeSelect, bool) {
	switch s {
	case "", "passive", "none":
		return NoModeSelect, true
	case "safe":
		return SelectSafe, true
	case "full":
		return SelectFull, true
	}
	return NoModeSelect, false
}

// ChargingState represents the battery charging state code
type ChargingState uint8

// Charging state values
const (
	NotCharging ChargingState = iota
	ReconditioningCharging
	FullCharging
	TrickleCharging
	ChargingWaiting
	ChargingFault
)
