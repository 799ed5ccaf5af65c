// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package create2 drives a robot over the Open Interface protocol.
//
// The Driver owns the device mode state machine (Off, Passive, Safe, Full),
// writes encoded commands to a Channel and decodes sensor responses into
// snapshots. All operations are synchronous and serialised on the channel.
package create2

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/Thermoquad/oistat/pkg/oi"
)

// maxResponseSize bounds one read-until-timeout accumulation
const maxResponseSize = 512

// Driver implements the device state machine on top of a Channel
type Driver struct {
	mu      sync.Mutex
	ch      Channel
	cfg     Config
	mode    oi.DeviceMode
	engaged bool
}

// NewDriver creates a driver in mode Off.
// The configured read timeout is applied if the channel supports it.
func NewDriver(ch Channel, cfg Config) (*Driver, error) {
	if cfg.Sleep == nil {
		cfg.Sleep = time.Sleep
	}
	if ts, ok := ch.(timeoutSetter); ok && cfg.ReadTimeout > 0 {
		if err := ts.SetReadTimeout(cfg.ReadTimeout); err != nil {
			return nil, fmt.Errorf("failed to set read timeout: %w", err)
		}
	}
	return &Driver{
		ch:   ch,
		cfg:  cfg,
		mode: oi.ModeOff,
	}, nil
}

// Mode returns the current device mode
func (d *Driver) Mode() oi.DeviceMode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mode
}

// Engaged reports whether the OI has been started
func (d *Driver) Engaged() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.engaged
}

// Startup starts the OI and enters the selected mode.
// It may be called in any mode and always resets the mode.
func (d *Driver) Startup(sel oi.ModeSelect) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.startup(sel); err != nil {
		return err
	}
	// discard whatever the robot printed while starting
	if _, err := d.readUntilTimeout(); err != nil {
		return err
	}
	return nil
}

// Stop stops the OI. Idempotent.
func (d *Driver) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.send(oi.EncodeStop()); err != nil {
		return err
	}
	d.mode = oi.ModeOff
	d.engaged = false
	return nil
}

// SeekDock sends the robot looking for its dock. Mode is unchanged.
func (d *Driver) SeekDock() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.engaged {
		return fmt.Errorf("%w: seek dock while %s", oi.ErrIllegalCommand, d.mode)
	}
	return d.send(oi.EncodeSeekDock())
}

// PowerDown powers the robot down and leaves the OI off.
func (d *Driver) PowerDown() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.engaged {
		return fmt.Errorf("%w: power down while %s", oi.ErrIllegalCommand, d.mode)
	}
	if err := d.send(oi.EncodePowerDown()); err != nil {
		return err
	}
	d.mode = oi.ModeOff
	d.engaged = false
	return nil
}

// Drive moves the robot with velocity in mm/s along radius in mm.
func (d *Driver) Drive(velocity, radius int16) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ensureActuation("drive"); err != nil {
		return err
	}
	return d.send(oi.EncodeDrive(velocity, radius))
}

// DriveDirect sets the right and left wheel velocities in mm/s.
func (d *Driver) DriveDirect(right, left int16) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ensureActuation("drive direct"); err != nil {
		return err
	}
	return d.send(oi.EncodeDriveDirect(right, left))
}

// Halt stops both wheels.
func (d *Driver) Halt() error {
	return d.Drive(0, 0)
}

// Query requests one sensor packet group and returns the raw response.
// With AutoStart set, a query while the OI is off first sends Start and
// leaves the robot in Passive mode, not Safe; drive commands are the ones
// that auto-start into Safe. Without AutoStart a query while off returns
// ErrIllegalCommand.
func (d *Driver) Query(id oi.PacketID) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.query(id, d.cfg.AutoStart)
}

// Poll is Query that never starts the OI, whatever AutoStart says.
// Polling loops use it so a robot stopped or powered down by the user
// stays that way.
func (d *Driver) Poll(id oi.PacketID) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.query(id, false)
}

// ReadEnvironment reads bumps, wheel drops, cliffs, walls and dirt.
func (d *Driver) ReadEnvironment() (oi.SensorSnapshot, error) {
	raw, err := d.Query(oi.PacketBumpsEnvironment)
	if err != nil {
		return oi.SensorSnapshot{}, err
	}
	return oi.DecodeEnvironment(raw)
}

// ReadBattery reads the battery group.
func (d *Driver) ReadBattery() (oi.BatterySnapshot, error) {
	raw, err := d.Query(oi.PacketBattery)
	if err != nil {
		return oi.BatterySnapshot{}, err
	}
	return oi.DecodeBattery(raw)
}

// ReadLightBumpers reads the six light bumper signals, left to right.
func (d *Driver) ReadLightBumpers() ([oi.LightBumperCount]uint16, error) {
	raw, err := d.Query(oi.PacketLightBumpSignals)
	if err != nil {
		return [oi.LightBumperCount]uint16{}, err
	}
	return oi.DecodeLightBumpers(raw)
}

// ReadSensors reads the environment, light bumper and battery groups.
// Nothing is returned unless all three decode.
func (d *Driver) ReadSensors() (oi.SensorSnapshot, oi.BatterySnapshot, error) {
	env, err := d.ReadEnvironment()
	if err != nil {
		return oi.SensorSnapshot{}, oi.BatterySnapshot{}, err
	}
	signals, err := d.ReadLightBumpers()
	if err != nil {
		return oi.SensorSnapshot{}, oi.BatterySnapshot{}, err
	}
	battery, err := d.ReadBattery()
	if err != nil {
		return oi.SensorSnapshot{}, oi.BatterySnapshot{}, err
	}
	env.LightBumperSignal = signals
	return env, battery, nil
}

// Reset soft-resets the robot and returns its startup banner.
// The OI is off afterwards.
func (d *Driver) Reset() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.write(oi.EncodeReset()); err != nil {
		return "", err
	}
	d.mode = oi.ModeOff
	d.engaged = false
	d.cfg.Sleep(d.cfg.ResetDelay)

	// the banner arrives in two bursts separated by a pause
	var banner strings.Builder
	for burst := 0; burst < 2; burst++ {
		data, err := d.readUntilTimeout()
		if err != nil {
			return banner.String(), err
		}
		for _, b := range data {
			if b != oi.BannerMarker {
				banner.WriteByte(b)
			}
		}
	}
	return banner.String(), nil
}

// startup writes the start command and updates the mode. Lock must be held.
func (d *Driver) startup(sel oi.ModeSelect) error {
	if err := d.send(oi.EncodeStart(sel)); err != nil {
		return err
	}
	d.mode = sel.Target()
	d.engaged = true
	return nil
}

// ensureActuation auto-starts into Safe mode if allowed. Lock must be held.
func (d *Driver) ensureActuation(what string) error {
	if d.mode.CanActuate() {
		return nil
	}
	if !d.cfg.AutoStart {
		return fmt.Errorf("%w: %s while %s", oi.ErrIllegalCommand, what, d.mode)
	}
	return d.startup(oi.SelectSafe)
}

// query writes a sensor request and collects the response. Lock must be held.
func (d *Driver) query(id oi.PacketID, autoStart bool) ([]byte, error) {
	if d.mode == oi.ModeOff {
		if !autoStart {
			return nil, fmt.Errorf("%w: query packet %d while %s", oi.ErrIllegalCommand, id, d.mode)
		}
		if err := d.startup(oi.NoModeSelect); err != nil {
			return nil, err
		}
	}

	if f, ok := d.ch.(inputFlusher); ok {
		if err := f.ResetInputBuffer(); err != nil {
			return nil, fmt.Errorf("%w: %w", oi.ErrChannelRead, err)
		}
	}

	if err := d.write(oi.EncodeQuery(id)); err != nil {
		return nil, err
	}
	return d.readUntilTimeout()
}

// send writes a command and waits for the robot to process it
func (d *Driver) send(data []byte) error {
	if err := d.write(data); err != nil {
		return err
	}
	d.cfg.Sleep(d.cfg.SettleDelay)
	return nil
}

// write writes all of data or reports ErrChannelWrite
func (d *Driver) write(data []byte) error {
	n, err := d.ch.Write(data)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", oi.ErrChannelWrite, oi.FormatOpcode(data[0]), err)
	}
	if n != len(data) {
		return fmt.Errorf("%w: %s: short write (%d of %d bytes)", oi.ErrChannelWrite, oi.FormatOpcode(data[0]), n, len(data))
	}
	return nil
}

// readUntilTimeout accumulates bytes until a read returns nothing
func (d *Driver) readUntilTimeout() ([]byte, error) {
	var out []byte
	buf := make([]byte, 64)
	for len(out) < maxResponseSize {
		n, err := d.ch.Read(buf)
		out = append(out, buf[:n]...)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return out, fmt.Errorf("%w: %w", oi.ErrChannelRead, err)
		}
		if n == 0 {
			return out, nil
		}
	}
	return out, nil
}
