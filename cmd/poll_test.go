// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/oistat/pkg/create2"
	"github.com/Thermoquad/oistat/pkg/oi"
	"github.com/Thermoquad/oistat/pkg/telemetry"
)

// scriptedChannel returns one scripted chunk per Read; nil chunks time out
type scriptedChannel struct {
	reads  [][]byte
	writes [][]byte
}

func (c *scriptedChannel) Read(p []byte) (int, error) {
	if len(c.reads) == 0 {
		return 0, nil
	}
	chunk := c.reads[0]
	c.reads = c.reads[1:]
	return copy(p, chunk), nil
}

func (c *scriptedChannel) Write(p []byte) (int, error) {
	c.writes = append(c.writes, append([]byte(nil), p...))
	return len(p), nil
}

var (
	envResponse     = []byte{0x03, 1, 0, 0, 0, 0, 0, 0, 7}
	lightResponse   = []byte{0, 100, 0, 200, 1, 44, 1, 144, 1, 244, 2, 88}
	batteryResponse = []byte{2, 0x3E, 0x80, 0xFF, 0x38, 0, 25, 0x05, 0xDC, 0x0B, 0xB8}
)

func newTestDriver(t *testing.T, ch *scriptedChannel) *create2.Driver {
	t.Helper()
	cfg := create2.DefaultConfig()
	cfg.Sleep = func(time.Duration) {}
	d, err := create2.NewDriver(ch, cfg)
	require.NoError(t, err)
	return d
}

func TestPollSample(t *testing.T) {
	// the leading nil ends the startup drain
	ch := &scriptedChannel{reads: [][]byte{nil, envResponse, nil, lightResponse, nil, batteryResponse, nil}}
	d := newTestDriver(t, ch)
	require.NoError(t, d.Startup(oi.NoModeSelect))
	stats := oi.NewStatistics()

	sample, err := pollSample(d, stats)
	require.NoError(t, err)

	assert.Equal(t, [][]byte{{oi.OpStart}, {oi.OpSensors, 1}, {oi.OpSensors, 106}, {oi.OpSensors, 3}}, ch.writes)
	assert.Equal(t, oi.ModePassive, sample.Mode)
	assert.False(t, sample.Time.IsZero())

	assert.True(t, sample.Sensors.BumpLeft)
	assert.True(t, sample.Sensors.BumpRight)
	assert.True(t, sample.Sensors.WallDetected)
	assert.Equal(t, uint8(7), sample.Sensors.DirtLevel)
	assert.Equal(t, [oi.LightBumperCount]uint16{100, 200, 300, 400, 500, 600}, sample.Sensors.LightBumperSignal)

	assert.Equal(t, oi.FullCharging, sample.Battery.ChargingState)
	assert.Equal(t, uint16(16000), sample.Battery.VoltageMV)
	assert.Equal(t, int16(-200), sample.Battery.CurrentMA)
	assert.Equal(t, int8(25), sample.Battery.TemperatureC)
	assert.Equal(t, 50.0, sample.Battery.Percent())

	assert.Equal(t, uint64(3), stats.TotalQueries)
	assert.Equal(t, uint64(3), stats.ValidResponses)
	assert.Equal(t, uint64(32), stats.BytesReceived)
}

func TestPollSample_Truncated(t *testing.T) {
	ch := &scriptedChannel{reads: [][]byte{nil, envResponse, nil, lightResponse, nil, batteryResponse[:5], nil}}
	d := newTestDriver(t, ch)
	require.NoError(t, d.Startup(oi.NoModeSelect))
	stats := oi.NewStatistics()

	sample, err := pollSample(d, stats)
	require.ErrorIs(t, err, oi.ErrTruncatedResponse)
	assert.Equal(t, telemetry.Sample{}, sample)

	assert.Equal(t, uint64(3), stats.TotalQueries)
	assert.Equal(t, uint64(2), stats.ValidResponses)
	assert.Equal(t, uint64(1), stats.Truncated)
}

func TestPollSample_NotStarted(t *testing.T) {
	ch := &scriptedChannel{reads: [][]byte{envResponse, lightResponse, batteryResponse}}
	d := newTestDriver(t, ch)
	stats := oi.NewStatistics()

	sample, err := pollSample(d, stats)
	require.ErrorIs(t, err, oi.ErrIllegalCommand)
	assert.Equal(t, telemetry.Sample{}, sample)
	assert.Empty(t, ch.writes)
	assert.Equal(t, oi.ModeOff, d.Mode())
	assert.Equal(t, uint64(0), stats.TotalQueries)
}

func TestPollSample_AfterPowerDown(t *testing.T) {
	ch := &scriptedChannel{}
	d := newTestDriver(t, ch)
	require.NoError(t, d.Startup(oi.SelectSafe))
	require.NoError(t, d.PowerDown())
	require.Equal(t, [][]byte{{oi.OpStart, oi.OpSafe}, {oi.OpPowerDown}}, ch.writes)

	ch.reads = [][]byte{envResponse, lightResponse, batteryResponse}
	_, err := pollSample(d, oi.NewStatistics())
	require.ErrorIs(t, err, oi.ErrIllegalCommand)

	// nothing follows the power down, in particular no Start
	assert.Equal(t, [][]byte{{oi.OpStart, oi.OpSafe}, {oi.OpPowerDown}}, ch.writes)
	assert.Equal(t, oi.ModeOff, d.Mode())
	assert.False(t, d.Engaged())
}

func TestConnectionLost(t *testing.T) {
	assert.True(t, connectionLost(oi.ErrChannelRead))
	assert.True(t, connectionLost(oi.ErrChannelWrite))
	assert.False(t, connectionLost(oi.ErrTruncatedResponse))
	assert.False(t, connectionLost(nil))
}

type bufferCloser struct {
	bytes.Buffer
}

func (b *bufferCloser) Close() error { return nil }

func TestReplaySamples(t *testing.T) {
	var rec bufferCloser
	recorder := telemetry.NewRecorder(&rec)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.Local)
	for i := 0; i < 2; i++ {
		require.NoError(t, recorder.Publish(telemetry.Sample{
			Time:    base.Add(time.Duration(i) * time.Second),
			Mode:    oi.ModeSafe,
			Sensors: oi.SensorSnapshot{BumpLeft: i == 1},
			Battery: oi.BatterySnapshot{VoltageMV: 15000, ChargeMAh: 1000, CapacityMAh: 2000},
		}))
	}

	var out bytes.Buffer
	require.NoError(t, replaySamples(telemetry.NewPlayer(&rec.Buffer), &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "SAFE")
	assert.Contains(t, lines[0], "bump=--")
	assert.Contains(t, lines[1], "bump=L-")
	assert.Contains(t, lines[1], "15000mV")
	assert.Contains(t, lines[1], "50.0%")
	assert.Equal(t, "2 samples", lines[2])
}

func TestReplaySamples_Corrupt(t *testing.T) {
	err := replaySamples(telemetry.NewPlayer(strings.NewReader("\xff\xff")), io.Discard)
	assert.Error(t, err)
}
