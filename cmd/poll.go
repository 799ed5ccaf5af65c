// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/Thermoquad/oistat/pkg/create2"
	"github.com/Thermoquad/oistat/pkg/oi"
	"github.com/Thermoquad/oistat/pkg/telemetry"
)

// pollGroups are queried in this order on every poll
var pollGroups = []oi.PacketID{
	oi.PacketBumpsEnvironment,
	oi.PacketLightBumpSignals,
	oi.PacketBattery,
}

// pollSample queries every group once and records each query in stats.
// A sample is returned only when all groups decode. The OI is never
// started here: with the OI off the poll fails with ErrIllegalCommand
// before anything is written and stats are left alone.
func pollSample(d *create2.Driver, stats *oi.Statistics) (telemetry.Sample, error) {
	var s telemetry.Sample
	for _, id := range pollGroups {
		data, err := d.Poll(id)
		if errors.Is(err, oi.ErrIllegalCommand) {
			return telemetry.Sample{}, err
		}
		if err == nil {
			err = decodeInto(&s, id, data)
		}
		stats.Update(len(data), err)
		if err != nil {
			return telemetry.Sample{}, err
		}
	}
	s.Time = time.Now()
	s.Mode = d.Mode()
	return s, nil
}

func decodeInto(s *telemetry.Sample, id oi.PacketID, data []byte) error {
	switch id {
	case oi.PacketBumpsEnvironment:
		env, err := oi.DecodeEnvironment(data)
		if err != nil {
			return err
		}
		env.LightBumperSignal = s.Sensors.LightBumperSignal
		s.Sensors = env
	case oi.PacketLightBumpSignals:
		signals, err := oi.DecodeLightBumpers(data)
		if err != nil {
			return err
		}
		s.Sensors.LightBumperSignal = signals
	case oi.PacketBattery:
		battery, err := oi.DecodeBattery(data)
		if err != nil {
			return err
		}
		s.Battery = battery
	default:
		return fmt.Errorf("%w: %d", oi.ErrUnknownPacket, id)
	}
	return nil
}

// formatSampleLine renders a sample on one line for periodic output
func formatSampleLine(s telemetry.Sample) string {
	env := s.Sensors
	bat := s.Battery
	return fmt.Sprintf("[%s] %-7s bump=%s%s drop=%s%s wall=%s dirt=%3d | %5dmV %6dmA %3d°C %5.1f%% %s",
		s.Time.Format("15:04:05.000"), s.Mode,
		flag(env.BumpLeft, "L"), flag(env.BumpRight, "R"),
		flag(env.WheelDropLeft, "L"), flag(env.WheelDropRight, "R"),
		flag(env.WallDetected, "Y"), env.DirtLevel,
		bat.VoltageMV, bat.CurrentMA, bat.TemperatureC, bat.Percent(), bat.ChargingState)
}

func flag(v bool, s string) string {
	if v {
		return s
	}
	return "-"
}
