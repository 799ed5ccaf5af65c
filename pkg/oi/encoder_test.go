// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package oi

import (
	"bytes"
	"math"
	"testing"
)

func TestEncodeCommands(t *testing.T) {
	tests := []struct {
		name string
		got  []byte
		want []byte
	}{
		{"start passive", EncodeStart(NoModeSelect), []byte{128}},
		{"start safe", EncodeStart(SelectSafe), []byte{128, 131}},
		{"start full", EncodeStart(SelectFull), []byte{128, 132}},
		{"stop", EncodeStop(), []byte{173}},
		{"reset", EncodeReset(), []byte{7}},
		{"seek dock", EncodeSeekDock(), []byte{143}},
		{"power down", EncodePowerDown(), []byte{133}},
		{"query battery", EncodeQuery(PacketBattery), []byte{142, 3}},
		{"query light bumpers", EncodeQuery(PacketLightBumpSignals), []byte{142, 106}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !bytes.Equal(tt.got, tt.want) {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestEncodeDrive(t *testing.T) {
	tests := []struct {
		name     string
		velocity int16
		radius   int16
		want     []byte
	}{
		{"straight forward", 200, RadiusStraight, []byte{137, 0x00, 0xC8, 0x80, 0x00}},
		{"backwards turn", -200, 500, []byte{137, 0xFF, 0x38, 0x01, 0xF4}},
		{"spin clockwise", 100, RadiusSpinClockwise, []byte{137, 0x00, 0x64, 0xFF, 0xFF}},
		{"halt", 0, 0, []byte{137, 0, 0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EncodeDrive(tt.velocity, tt.radius)
			if !bytes.Equal(got, tt.want) {
				t.Errorf("EncodeDrive(%d, %d) = % X, want % X", tt.velocity, tt.radius, got, tt.want)
			}
		})
	}
}

func TestEncodeDriveDirect_RightFirst(t *testing.T) {
	got := EncodeDriveDirect(300, -300)
	want := []byte{145, 0x01, 0x2C, 0xFE, 0xD4}
	if !bytes.Equal(got, want) {
		t.Errorf("EncodeDriveDirect = % X, want % X", got, want)
	}
}

func TestWord_RoundTripUnsigned(t *testing.T) {
	buf := make([]byte, 2)
	for v := 0; v <= math.MaxUint16; v++ {
		PutWord(buf, uint16(v))
		hi, lo := SplitWord(uint16(v))
		if buf[0] != hi || buf[1] != lo {
			t.Fatalf("PutWord(%d) = % X, SplitWord = %02X %02X", v, buf, hi, lo)
		}
		if got := Word(buf); got != uint16(v) {
			t.Fatalf("Word(PutWord(%d)) = %d", v, got)
		}
		if got := JoinWord(hi, lo); got != uint16(v) {
			t.Fatalf("JoinWord(SplitWord(%d)) = %d", v, got)
		}
	}
}

func TestWord_RoundTripSigned(t *testing.T) {
	buf := make([]byte, 2)
	for v := math.MinInt16; v <= math.MaxInt16; v++ {
		PutSignedWord(buf, int16(v))
		if got := SignedWord(buf); got != int16(v) {
			t.Fatalf("SignedWord(PutSignedWord(%d)) = %d", v, got)
		}
	}
}

func TestDriveCommand_RoundTrip(t *testing.T) {
	velocities := []int16{-500, -1, 0, 1, 250, 500, math.MinInt16, math.MaxInt16}
	radii := []int16{RadiusStraight, RadiusStraightAlt, RadiusSpinClockwise, RadiusSpinCounterClockwise, -2000, 2000, 0}

	for _, v := range velocities {
		for _, r := range radii {
			cmds, errs := DecodeCommands(EncodeDrive(v, r))
			if len(errs) > 0 || len(cmds) != 1 {
				t.Fatalf("decode drive(%d, %d): cmds=%d errs=%v", v, r, len(cmds), errs)
			}
			data := cmds[0].Data()
			if SignedWord(data[0:]) != v || SignedWord(data[2:]) != r {
				t.Errorf("drive(%d, %d) decoded as (%d, %d)", v, r, SignedWord(data[0:]), SignedWord(data[2:]))
			}
		}
	}
}

func TestModeSelect(t *testing.T) {
	tests := []struct {
		sel        ModeSelect
		target     DeviceMode
		wantOpcode bool
		opcode     byte
	}{
		{NoModeSelect, ModePassive, false, 0},
		{SelectSafe, ModeSafe, true, OpSafe},
		{SelectFull, ModeFull, true, OpFull},
	}

	for _, tt := range tests {
		t.Run(tt.sel.String(), func(t *testing.T) {
			if got := tt.sel.Target(); got != tt.target {
				t.Errorf("Target() = %v, want %v", got, tt.target)
			}
			op, ok := tt.sel.Opcode()
			if ok != tt.wantOpcode || op != tt.opcode {
				t.Errorf("Opcode() = %d, %v; want %d, %v", op, ok, tt.opcode, tt.wantOpcode)
			}
		})
	}
}

func TestParseModeSelect(t *testing.T) {
	for in, want := range map[string]ModeSelect{"": NoModeSelect, "passive": NoModeSelect, "safe": SelectSafe, "full": SelectFull} {
		got, ok := ParseModeSelect(in)
		if !ok || got != want {
			t.Errorf("ParseModeSelect(%q) = %v, %v; want %v", in, got, ok, want)
		}
	}
	if _, ok := ParseModeSelect("turbo"); ok {
		t.Error("ParseModeSelect(turbo) should fail")
	}
}

func TestDeviceModeText(t *testing.T) {
	for _, mode := range []DeviceMode{ModeOff, ModePassive, ModeSafe, ModeFull} {
		text, err := mode.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%v): %v", mode, err)
		}
		var got DeviceMode
		if err := got.UnmarshalText(text); err != nil || got != mode {
			t.Errorf("UnmarshalText(%q) = %v, %v; want %v", text, got, err, mode)
		}
	}

	var m DeviceMode
	if err := m.UnmarshalText([]byte("DOCKED")); err == nil {
		t.Error("UnmarshalText(DOCKED) should fail")
	}
	if !ModeSafe.CanActuate() || !ModeFull.CanActuate() || ModePassive.CanActuate() || ModeOff.CanActuate() {
		t.Error("CanActuate should hold only in Safe and Full")
	}
}
