// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/oistat/pkg/create2"
)

var (
	// Serial connection flags
	portName string
	baudRate int

	// WebSocket connection flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	// Driver flags
	readTimeout time.Duration
	settleDelay time.Duration
	noAutoStart bool
)

var rootCmd = &cobra.Command{
	Use:   "oistat",
	Short: "iRobot Create 2 Open Interface tool",
	Long: `Oistat - A CLI tool for driving and monitoring an iRobot Create 2 over the
Open Interface serial protocol.

Provides commands for mode changes, driving, sensor queries, telemetry
export (MQTT, Prometheus, CBOR recordings) and passive command sniffing.

Connection modes:
  Serial:    --port /dev/ttyUSB0 [--baud 115200]
  WebSocket: --url ws://host/path [--username user]

For WebSocket authentication, the password is read from the OISTAT_PASSWORD
environment variable, or prompted interactively if not set. The --password
flag is intentionally not provided to avoid leaking credentials in shell history.`,
	Version:      "1.0.0",
	SilenceUsage: true,
}

func init() {
	// Serial connection flags
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 115200, "Baud rate (serial only)")

	// WebSocket connection flags
	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	// Driver flags
	rootCmd.PersistentFlags().DurationVar(&readTimeout, "read-timeout", create2.DefaultReadTimeout, "Silence that ends a sensor response")
	rootCmd.PersistentFlags().DurationVar(&settleDelay, "settle-delay", create2.DefaultSettleDelay, "Delay after mode and drive commands")
	rootCmd.PersistentFlags().BoolVar(&noAutoStart, "no-auto-start", false, "Fail instead of starting the OI implicitly")
}

// driverConfig builds the driver configuration from the persistent flags
func driverConfig() create2.Config {
	cfg := create2.DefaultConfig()
	cfg.ReadTimeout = readTimeout
	cfg.SettleDelay = settleDelay
	cfg.AutoStart = !noAutoStart
	return cfg
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
