// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/oistat/pkg/create2"
	"github.com/Thermoquad/oistat/pkg/oi"
)

var controlPollInterval time.Duration

var controlCmd = &cobra.Command{
	Use:   "control",
	Short: "Interactive TUI for driving the robot",
	Long: `Drive and monitor the robot via an interactive terminal UI.

Features:
  - Mode selection (passive, safe, full), docking, power down
  - Arrow-key driving at an adjustable speed
  - Live bumper, cliff, wall and light bumper readings
  - Battery gauge
  - Query statistics and event log
  - Automatic reconnection on connection loss

Tab cycles between the drive pad, the action list and the speed field.
On the drive pad: arrows drive, space halts.

Supports both serial and WebSocket connections.`,
	Args: cobra.NoArgs,
	RunE: runControl,
}

func init() {
	rootCmd.AddCommand(controlCmd)
	controlCmd.Flags().DurationVar(&controlPollInterval, "interval", 500*time.Millisecond, "Sensor polling interval")
}

// connectionManager handles connection lifecycle and reconnection
type connectionManager struct {
	conn     Connection
	driver   *create2.Driver
	connInfo string
	mu       sync.RWMutex
	p        *tea.Program
	done     chan struct{}
}

func (cm *connectionManager) getDriver() *create2.Driver {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.driver
}

func (cm *connectionManager) set(driver *create2.Driver, conn Connection, connInfo string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.driver = driver
	cm.conn = conn
	cm.connInfo = connInfo
}

func (cm *connectionManager) close() {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.conn != nil {
		cm.conn.Close()
	}
}

func runControl(cmd *cobra.Command, args []string) error {
	driver, conn, connInfo, err := OpenDriver()
	if err != nil {
		return err
	}
	// polling never starts the OI, so a Stop or Power Down from the TUI sticks
	if err := driver.Startup(oi.NoModeSelect); err != nil {
		conn.Close()
		return fmt.Errorf("failed to start OI: %w", err)
	}

	cm := &connectionManager{
		done: make(chan struct{}),
	}
	cm.set(driver, conn, connInfo)

	m := initialControlModel(cm, connInfo)

	p := tea.NewProgram(m, tea.WithAltScreen())
	cm.p = p

	go cm.pollLoop()

	_, runErr := p.Run()
	close(cm.done) // Signal goroutines to stop

	// Leave the robot stationary
	if d := cm.getDriver(); d != nil && d.Mode().CanActuate() {
		d.Halt()
	}
	cm.close()

	if runErr != nil {
		return fmt.Errorf("TUI error: %w", runErr)
	}
	return nil
}

// pollLoop polls sensors and reconnects when the link is lost
func (cm *connectionManager) pollLoop() {
	stats := oi.NewStatistics()
	ticker := time.NewTicker(controlPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-cm.done:
			return
		case <-ticker.C:
		}

		driver := cm.getDriver()
		sample, err := pollSample(driver, stats)
		stats.CalculateRates()
		cm.p.Send(sensorMsg{sample: sample, err: err, stats: *stats, mode: driver.Mode()})

		if connectionLost(err) {
			cm.p.Send(connectionLostMsg{})
			if !cm.reconnect() {
				return // Shutdown requested during reconnect
			}
		}
	}
}

// connectionLost reports whether err means the channel itself failed
func connectionLost(err error) bool {
	return errors.Is(err, oi.ErrChannelRead) || errors.Is(err, oi.ErrChannelWrite)
}

// reconnect attempts to reconnect with exponential backoff
// Returns false if shutdown was requested during reconnection
func (cm *connectionManager) reconnect() bool {
	resume := cm.getDriver().Engaged()
	cm.close()

	backoff := 1 * time.Second
	maxBackoff := 30 * time.Second

	for {
		select {
		case <-cm.done:
			return false
		case <-time.After(backoff):
		}

		// The new driver starts in mode Off, matching a robot we can no longer vouch for.
		// Passive is restored only if the OI was started before the link dropped.
		driver, conn, connInfo, err := OpenDriver()
		if err == nil && resume {
			if err = driver.Startup(oi.NoModeSelect); err != nil {
				conn.Close()
			}
		}
		if err == nil {
			cm.set(driver, conn, connInfo)
			cm.p.Send(reconnectedMsg{connInfo: connInfo})
			return true
		}

		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}
