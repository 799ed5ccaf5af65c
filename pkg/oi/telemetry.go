// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package oi

// SensorSnapshot holds decoded environment and light bumper readings.
// Values are produced fresh by the decoders; a failed decode returns a zero
// snapshot and never a partially filled one.
type SensorSnapshot struct {
	BumpLeft       bool `json:"bump_left" cbor:"1,keyasint"`
	BumpRight      bool `json:"bump_right" cbor:"2,keyasint"`
	WheelDropLeft  bool `json:"wheeldrop_left" cbor:"3,keyasint"`
	WheelDropRight bool `json:"wheeldrop_right" cbor:"4,keyasint"`
	WallDetected   bool `json:"wall" cbor:"5,keyasint"`

	CliffLeft       bool `json:"cliff_left" cbor:"6,keyasint"`
	CliffFrontLeft  bool `json:"cliff_front_left" cbor:"7,keyasint"`
	CliffFrontRight bool `json:"cliff_front_right" cbor:"8,keyasint"`
	CliffRight      bool `json:"cliff_right" cbor:"9,keyasint"`
	VirtualWall     bool `json:"virtual_wall" cbor:"10,keyasint"`

	// DirtDetected is true only when the dirt byte equals 1; DirtLevel keeps
	// the raw byte.
	DirtDetected bool  `json:"dirt_detected" cbor:"11,keyasint"`
	DirtLevel    uint8 `json:"dirt_level" cbor:"12,keyasint"`

	// LightBumperSignal is ordered left to right.
	LightBumperSignal [LightBumperCount]uint16 `json:"light_bumper_signal" cbor:"13,keyasint"`
}

// Bumped reports whether either bumper is pressed.
func (s SensorSnapshot) Bumped() bool {
	return s.BumpLeft || s.BumpRight
}

// WheelDropped reports whether either wheel is dropped.
func (s SensorSnapshot) WheelDropped() bool {
	return s.WheelDropLeft || s.WheelDropRight
}

// BatterySnapshot holds decoded battery readings.
type BatterySnapshot struct {
	ChargingState ChargingState `json:"charging_state" cbor:"1,keyasint"`
	VoltageMV     uint16        `json:"voltage_mv" cbor:"2,keyasint"`
	CurrentMA     int16         `json:"current_ma" cbor:"3,keyasint"`
	TemperatureC  int8          `json:"temperature_c" cbor:"4,keyasint"`
	ChargeMAh     uint16        `json:"charge_mah" cbor:"5,keyasint"`
	CapacityMAh   uint16        `json:"capacity_mah" cbor:"6,keyasint"`
}

// Percent returns the state of charge in percent, 0 if capacity is unknown.
func (b BatterySnapshot) Percent() float64 {
	if b.CapacityMAh == 0 {
		return 0
	}
	return float64(b.ChargeMAh) * 100.0 / float64(b.CapacityMAh)
}

// Charging reports whether the battery is receiving charge.
func (b BatterySnapshot) Charging() bool {
	switch b.ChargingState {
	case ReconditioningCharging, FullCharging, TrickleCharging:
		return true
	}
	return false
}
