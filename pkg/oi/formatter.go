// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package oi

import (
	"fmt"
	"strings"
)

// FormatCommand formats a command into a human-readable string
func FormatCommand(c *Command) string {
	timestamp := c.timestamp.Format("15:04:05.000")
	result := fmt.Sprintf("[%s] %s (0x%02X) len=%d\n", timestamp, FormatOpcode(c.opcode), c.opcode, len(c.data))
	return result + FormatArguments(c)
}

// FormatOpcode returns the human-readable name for an opcode
func FormatOpcode(opcode byte) string {
	switch opcode {
	case OpReset:
		return "RESET"
	case OpStart:
		return "START"
	case OpSafe:
		return "SAFE"
	case OpFull:
		return "FULL"
	case OpPowerDown:
		return "POWER_DOWN"
	case OpDrive:
		return "DRIVE"
	case OpSensors:
		return "SENSORS"
	case OpSeekDock:
		return "SEEK_DOCK"
	case OpDriveDirect:
		return "DRIVE_DIRECT"
	case OpStop:
		return "STOP"
	default:
		return "UNKNOWN"
	}
}

// FormatArguments formats the argument bytes based on opcode
func FormatArguments(c *Command) string {
	switch c.opcode {
	case OpDrive:
		if len(c.data) >= 4 {
			velocity := SignedWord(c.data[0:])
			radius := SignedWord(c.data[2:])
			return fmt.Sprintf("  Velocity: %d mm/s, Radius: %s\n", velocity, FormatRadius(radius))
		}

	case OpDriveDirect:
		if len(c.data) >= 4 {
			right := SignedWord(c.data[0:])
			left := SignedWord(c.data[2:])
			return fmt.Sprintf("  Right: %d mm/s, Left: %d mm/s\n", right, left)
		}

	case OpSensors:
		if len(c.data) >= 1 {
			id := PacketID(c.data[0])
			return fmt.Sprintf("  Packet: %s (%d)\n", FormatPacketID(id), id)
		}
	}

	if len(c.data) == 0 {
		return ""
	}
	return "  Data: " + hexDump(c.data) + "\n"
}

// FormatRadius returns the radius in mm, or the name of a special radius
func FormatRadius(radius int16) string {
	switch radius {
	case RadiusStraight, RadiusStraightAlt:
		return "STRAIGHT"
	case RadiusSpinClockwise:
		return "SPIN_CW"
	case RadiusSpinCounterClockwise:
		return "SPIN_CCW"
	}
	return fmt.Sprintf("%d mm", radius)
}

// FormatPacketID returns the name of a sensor packet group
func FormatPacketID(id PacketID) string {
	switch id {
	case PacketBumpsEnvironment:
		return "BUMPS_ENVIRONMENT"
	case PacketBattery:
		return "BATTERY"
	case PacketLightBumpSignals:
		return "LIGHT_BUMP_SIGNALS"
	default:
		return "UNKNOWN"
	}
}

// String returns the charging state name
func (c ChargingState) String() string {
	switch c {
	case NotCharging:
		return "NOT_CHARGING"
	case ReconditioningCharging:
		return "RECONDITIONING"
	case FullCharging:
		return "FULL_CHARGING"
	case TrickleCharging:
		return "TRICKLE"
	case ChargingWaiting:
		return "WAITING"
	case ChargingFault:
		return "FAULT"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint8(c))
	}
}

// FormatEnvironment formats bump, wheel drop, cliff, wall and dirt readings
func FormatEnvironment(s SensorSnapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "  Bump: left=%s right=%s\n", onOff(s.BumpLeft), onOff(s.BumpRight))
	fmt.Fprintf(&b, "  Wheel Drop: left=%s right=%s\n", onOff(s.WheelDropLeft), onOff(s.WheelDropRight))
	fmt.Fprintf(&b, "  Cliff: left=%s front_left=%s front_right=%s right=%s\n",
		onOff(s.CliffLeft), onOff(s.CliffFrontLeft), onOff(s.CliffFrontRight), onOff(s.CliffRight))
	fmt.Fprintf(&b, "  Wall: %s, Virtual Wall: %s\n", onOff(s.WallDetected), onOff(s.VirtualWall))
	fmt.Fprintf(&b, "  Dirt: %s (raw %d)\n", onOff(s.DirtDetected), s.DirtLevel)
	return b.String()
}

// FormatBattery formats battery readings
func FormatBattery(bat BatterySnapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "  Charging: %s\n", bat.ChargingState)
	fmt.Fprintf(&b, "  Voltage: %d mV, Current: %d mA\n", bat.VoltageMV, bat.CurrentMA)
	fmt.Fprintf(&b, "  Temperature: %d°C\n", bat.TemperatureC)
	fmt.Fprintf(&b, "  Charge: %d / %d mAh (%.1f%%)\n", bat.ChargeMAh, bat.CapacityMAh, bat.Percent())
	return b.String()
}

// FormatLightBumpers formats the six light bumper signals, left to right
func FormatLightBumpers(signals [LightBumperCount]uint16) string {
	parts := make([]string, len(signals))
	for i, v := range signals {
		parts[i] = fmt.Sprintf("%s=%d", LightBumperNames[i], v)
	}
	return "  Light Bumpers: " + strings.Join(parts, " ") + "\n"
}

// FormatResponse decodes and formats a raw sensor response.
// Responses that cannot be decoded are shown as a hex dump with the error.
func FormatResponse(id PacketID, raw []byte) string {
	result := fmt.Sprintf("%s (%d) len=%d\n", FormatPacketID(id), id, len(raw))

	decoded, err := Decode(id, raw)
	if err != nil {
		result += fmt.Sprintf("  Error: %v\n", err)
		if len(raw) > 0 {
			result += "  Payload: " + hexDump(raw) + "\n"
		}
		return result
	}

	switch v := decoded.(type) {
	case SensorSnapshot:
		result += FormatEnvironment(v)
	case BatterySnapshot:
		result += FormatBattery(v)
	case [LightBumperCount]uint16:
		result += FormatLightBumpers(v)
	}
	return result
}

func onOff(v bool) string {
	if v {
		return "ON"
	}
	return "off"
}

func hexDump(data []byte) string {
	var b strings.Builder
	for i, v := range data {
		if i > 0 && i%16 == 0 {
			b.WriteString("\n           ")
		}
		fmt.Fprintf(&b, "%02X ", v)
	}
	return strings.TrimRight(b.String(), " ")
}
