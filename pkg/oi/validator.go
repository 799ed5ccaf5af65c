// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package oi

import "fmt"

// AnomalyType represents different types of command anomalies
type AnomalyType int

const (
	AnomalyLengthMismatch AnomalyType = iota
	AnomalyVelocityRange
	AnomalyRadiusRange
	AnomalyUnknownPacket
	AnomalyUnknownOpcode
)

// ValidationError represents a command validation finding
type ValidationError struct {
	Type    AnomalyType
	Message string
	Details map[string]interface{}
}

// Error implements the error interface
func (v *ValidationError) Error() string {
	return v.Message
}

// ValidateCommand checks a command against the documented OI limits.
// Returns a slice of validation errors (empty if the command is valid).
// The robot clamps or ignores out-of-range values, so findings are advisory.
func ValidateCommand(c *Command) []ValidationError {
	n, ok := ArgLength(c.opcode)
	if !ok {
		return []ValidationError{{
			Type:    AnomalyUnknownOpcode,
			Message: fmt.Sprintf("Unknown opcode 0x%02X", c.opcode),
			Details: map[string]interface{}{"opcode": c.opcode},
		}}
	}
	if c.opcode == OpStart && len(c.data) == 1 && (c.data[0] == OpSafe || c.data[0] == OpFull) {
		return []ValidationError{}
	}
	if len(c.data) != n {
		return []ValidationError{{
			Type:    AnomalyLengthMismatch,
			Message: fmt.Sprintf("%s argument length mismatch (expected %d bytes)", FormatOpcode(c.opcode), n),
			Details: map[string]interface{}{"length": len(c.data), "expected": n},
		}}
	}

	switch c.opcode {
	case OpDrive:
		return validateDrive(c)
	case OpDriveDirect:
		return validateDriveDirect(c)
	case OpSensors:
		return validateQuery(c)
	}
	return []ValidationError{}
}

// validateDrive validates DRIVE velocity and radius
func validateDrive(c *Command) []ValidationError {
	errors := []ValidationError{}

	velocity := SignedWord(c.data[0:])
	radius := SignedWord(c.data[2:])

	if err := checkVelocity("velocity", velocity); err != nil {
		errors = append(errors, *err)
	}

	switch radius {
	case RadiusStraight, RadiusStraightAlt, RadiusSpinClockwise, RadiusSpinCounterClockwise:
	default:
		if radius < -MaxRadius || radius > MaxRadius {
			errors = append(errors, ValidationError{
				Type:    AnomalyRadiusRange,
				Message: fmt.Sprintf("Radius out of range (%d mm, valid: -%d to %d)", radius, MaxRadius, MaxRadius),
				Details: map[string]interface{}{"radius": radius, "max": MaxRadius},
			})
		}
	}

	return errors
}

// validateDriveDirect validates DRIVE_DIRECT wheel velocities
func validateDriveDirect(c *Command) []ValidationError {
	errors := []ValidationError{}

	if err := checkVelocity("right", SignedWord(c.data[0:])); err != nil {
		errors = append(errors, *err)
	}
	if err := checkVelocity("left", SignedWord(c.data[2:])); err != nil {
		errors = append(errors, *err)
	}

	return errors
}

// validateQuery validates the requested packet id
func validateQuery(c *Command) []ValidationError {
	id := PacketID(c.data[0])
	if _, ok := RequiredLength(id); !ok {
		return []ValidationError{{
			Type:    AnomalyUnknownPacket,
			Message: fmt.Sprintf("Packet %d has no decoder", id),
			Details: map[string]interface{}{"packet": id},
		}}
	}
	return []ValidationError{}
}

func checkVelocity(name string, v int16) *ValidationError {
	if v >= -MaxVelocity && v <= MaxVelocity {
		return nil
	}
	return &ValidationError{
		Type:    AnomalyVelocityRange,
		Message: fmt.Sprintf("%s out of range (%d mm/s, valid: -%d to %d)", name, v, MaxVelocity, MaxVelocity),
		Details: map[string]interface{}{name: v, "max": MaxVelocity},
	}
}
