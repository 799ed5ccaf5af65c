// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package oi

import "fmt"

// checkLength returns ErrTruncatedResponse if raw is too short for id
func checkLength(id PacketID, raw []byte) error {
	need, ok := RequiredLength(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownPacket, id)
	}
	if len(raw) < need {
		return fmt.Errorf("%w: packet %d: got %d bytes, need %d", ErrTruncatedResponse, id, len(raw), need)
	}
	return nil
}

// DecodeEnvironment decodes the bumps & environment group (packet 1).
// Light bumper signals are left at zero.
func DecodeEnvironment(raw []byte) (SensorSnapshot, error) {
	if err := checkLength(PacketBumpsEnvironment, raw); err != nil {
		return SensorSnapshot{}, err
	}

	status := raw[offsetBumpsWheelDrops]
	dirt := raw[offsetDirtDetect]
	return SensorSnapshot{
		BumpRight:       status&MaskBumpRight != 0,
		BumpLeft:        status&MaskBumpLeft != 0,
		WheelDropRight:  status&MaskWheelDropRight != 0,
		WheelDropLeft:   status&MaskWheelDropLeft != 0,
		WallDetected:    raw[offsetWall] != 0,
		CliffLeft:       raw[offsetCliffLeft] != 0,
		CliffFrontLeft:  raw[offsetCliffFrontLeft] != 0,
		CliffFrontRight: raw[offsetCliffFrontRight] != 0,
		CliffRight:      raw[offsetCliffRight] != 0,
		VirtualWall:     raw[offsetVirtualWall] != 0,
		DirtDetected:    dirt == 1,
		DirtLevel:       dirt,
	}, nil
}

// DecodeBattery decodes the battery group (packet 3).
func DecodeBattery(raw []byte) (BatterySnapshot, error) {
	if err := checkLength(PacketBattery, raw); err != nil {
		return BatterySnapshot{}, err
	}

	return BatterySnapshot{
		ChargingState: ChargingState(raw[offsetChargingState]),
		VoltageMV:     Word(raw[offsetVoltage:]),
		CurrentMA:     SignedWord(raw[offsetCurrent:]),
		TemperatureC:  int8(raw[offsetTemperature]),
		ChargeMAh:     Word(raw[offsetCharge:]),
		CapacityMAh:   Word(raw[offsetCapacity:]),
	}, nil
}

// DecodeLightBumpers decodes the light bump signal group (packet 106).
func DecodeLightBumpers(raw []byte) ([LightBumperCount]uint16, error) {
	var signals [LightBumperCount]uint16
	if err := checkLength(PacketLightBumpSignals, raw); err != nil {
		return signals, err
	}

	for i := range signals {
		signals[i] = Word(raw[i*2:])
	}
	return signals, nil
}

// Decode decodes raw according to id.
// The result is a SensorSnapshot, BatterySnapshot or [6]uint16.
func Decode(id PacketID, raw []byte) (interface{}, error) {
	switch id {
	case PacketBumpsEnvironment:
		return DecodeEnvironment(raw)
	case PacketBattery:
		return DecodeBattery(raw)
	case PacketLightBumpSignals:
		return DecodeLightBumpers(raw)
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownPacket, id)
}
