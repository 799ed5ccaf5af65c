// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package oi

import (
	"errors"
	"testing"
)

// environmentResponse builds a 10-byte group 1 response
func environmentResponse(status, wall, dirt byte) []byte {
	raw := make([]byte, 10)
	raw[offsetBumpsWheelDrops] = status
	raw[offsetWall] = wall
	raw[offsetDirtDetect] = dirt
	return raw
}

func TestDecodeEnvironment_StatusBits(t *testing.T) {
	tests := []struct {
		name           string
		status         byte
		bumpLeft       bool
		bumpRight      bool
		wheelDropLeft  bool
		wheelDropRight bool
	}{
		{"no flags", 0b0000, false, false, false, false},
		{"bump right only", 0b0001, false, true, false, false},
		{"bump left only", 0b0010, true, false, false, false},
		{"both wheel drops", 0b1100, false, false, true, true},
		{"wheel drop right", 0b0100, false, false, false, true},
		{"everything", 0b1111, true, true, true, true},
		{"high bits ignored", 0b1111_0000, false, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := DecodeEnvironment(environmentResponse(tt.status, 0, 0))
			if err != nil {
				t.Fatalf("DecodeEnvironment failed: %v", err)
			}
			if s.BumpLeft != tt.bumpLeft {
				t.Errorf("BumpLeft = %v, want %v", s.BumpLeft, tt.bumpLeft)
			}
			if s.BumpRight != tt.bumpRight {
				t.Errorf("BumpRight = %v, want %v", s.BumpRight, tt.bumpRight)
			}
			if s.WheelDropLeft != tt.wheelDropLeft {
				t.Errorf("WheelDropLeft = %v, want %v", s.WheelDropLeft, tt.wheelDropLeft)
			}
			if s.WheelDropRight != tt.wheelDropRight {
				t.Errorf("WheelDropRight = %v, want %v", s.WheelDropRight, tt.wheelDropRight)
			}
		})
	}
}

func TestDecodeEnvironment_WallAndDirt(t *testing.T) {
	tests := []struct {
		name      string
		wall      byte
		dirt      byte
		wantWall  bool
		wantDirt  bool
		wantLevel uint8
	}{
		{"nothing", 0, 0, false, false, 0},
		{"wall and dirt flag", 1, 1, true, true, 1},
		{"nonzero wall", 7, 0, true, false, 0},
		{"dirt magnitude is not a flag", 0, 42, false, false, 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := DecodeEnvironment(environmentResponse(0, tt.wall, tt.dirt))
			if err != nil {
				t.Fatalf("DecodeEnvironment failed: %v", err)
			}
			if s.WallDetected != tt.wantWall {
				t.Errorf("WallDetected = %v, want %v", s.WallDetected, tt.wantWall)
			}
			if s.DirtDetected != tt.wantDirt {
				t.Errorf("DirtDetected = %v, want %v", s.DirtDetected, tt.wantDirt)
			}
			if s.DirtLevel != tt.wantLevel {
				t.Errorf("DirtLevel = %d, want %d", s.DirtLevel, tt.wantLevel)
			}
		})
	}
}

func TestDecodeEnvironment_Cliffs(t *testing.T) {
	raw := environmentResponse(0, 0, 0)
	raw[offsetCliffLeft] = 1
	raw[offsetCliffRight] = 1
	raw[offsetVirtualWall] = 1

	s, err := DecodeEnvironment(raw)
	if err != nil {
		t.Fatalf("DecodeEnvironment failed: %v", err)
	}
	if !s.CliffLeft || s.CliffFrontLeft || s.CliffFrontRight || !s.CliffRight {
		t.Errorf("unexpected cliffs: %+v", s)
	}
	if !s.VirtualWall {
		t.Error("VirtualWall should be set")
	}
}

func TestDecodeEnvironment_Truncated(t *testing.T) {
	_, err := DecodeEnvironment(make([]byte, BumpsEnvironmentLength-1))
	if !errors.Is(err, ErrTruncatedResponse) {
		t.Errorf("expected ErrTruncatedResponse, got %v", err)
	}
}

func TestDecodeBattery(t *testing.T) {
	raw := []byte{
		byte(TrickleCharging),
		0x3A, 0x98, // 15000 mV
		0xFE, 0x0C, // -500 mA
		0x00,       // unused
		0xE7,       // -25 °C
		0x0A, 0xF0, // 2800 mAh
		0x0B, 0xB8, // 3000 mAh
	}

	b, err := DecodeBattery(raw)
	if err != nil {
		t.Fatalf("DecodeBattery failed: %v", err)
	}
	if b.ChargingState != TrickleCharging {
		t.Errorf("ChargingState = %v, want TRICKLE", b.ChargingState)
	}
	if b.VoltageMV != 15000 {
		t.Errorf("VoltageMV = %d, want 15000", b.VoltageMV)
	}
	if b.CurrentMA != -500 {
		t.Errorf("CurrentMA = %d, want -500", b.CurrentMA)
	}
	if b.TemperatureC != -25 {
		t.Errorf("TemperatureC = %d, want -25", b.TemperatureC)
	}
	if b.ChargeMAh != 2800 {
		t.Errorf("ChargeMAh = %d, want 2800", b.ChargeMAh)
	}
	if b.CapacityMAh != 3000 {
		t.Errorf("CapacityMAh = %d, want 3000", b.CapacityMAh)
	}
}

func TestDecodeBattery_Truncated(t *testing.T) {
	for n := 0; n < BatteryLength; n++ {
		b, err := DecodeBattery(make([]byte, n))
		if !errors.Is(err, ErrTruncatedResponse) {
			t.Errorf("len=%d: expected ErrTruncatedResponse, got %v", n, err)
		}
		if b != (BatterySnapshot{}) {
			t.Errorf("len=%d: snapshot should be zero on failure, got %+v", n, b)
		}
	}
}

func TestDecodeLightBumpers(t *testing.T) {
	raw := make([]byte, 22)
	copy(raw, []byte{
		0x01, 0x2C,
		0x00, 0x00,
		0x00, 0x00,
		0x00, 0x00,
		0x00, 0x00,
		0x02, 0x58,
	})

	signals, err := DecodeLightBumpers(raw)
	if err != nil {
		t.Fatalf("DecodeLightBumpers failed: %v", err)
	}
	want := [LightBumperCount]uint16{300, 0, 0, 0, 0, 600}
	if signals != want {
		t.Errorf("signals = %v, want %v", signals, want)
	}
}

func TestDecodeLightBumpers_Truncated(t *testing.T) {
	_, err := DecodeLightBumpers(make([]byte, LightBumpSignalsLength-1))
	if !errors.Is(err, ErrTruncatedResponse) {
		t.Errorf("expected ErrTruncatedResponse, got %v", err)
	}
}

func TestDecode_Dispatch(t *testing.T) {
	v, err := Decode(PacketBattery, make([]byte, BatteryLength))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if _, ok := v.(BatterySnapshot); !ok {
		t.Errorf("Decode(PacketBattery) returned %T", v)
	}

	_, err = Decode(PacketID(99), []byte{1, 2, 3})
	if !errors.Is(err, ErrUnknownPacket) {
		t.Errorf("expected ErrUnknownPacket, got %v", err)
	}
}

func TestBatteryPercent(t *testing.T) {
	if p := (BatterySnapshot{ChargeMAh: 1500, CapacityMAh: 3000}).Percent(); p != 50 {
		t.Errorf("Percent() = %v, want 50", p)
	}
	if p := (BatterySnapshot{ChargeMAh: 1500}).Percent(); p != 0 {
		t.Errorf("Percent() with no capacity = %v, want 0", p)
	}
}
