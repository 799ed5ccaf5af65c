// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/oistat/pkg/create2"
	"github.com/Thermoquad/oistat/pkg/oi"
)

var startCmd = &cobra.Command{
	Use:       "start [passive|safe|full]",
	Short:     "Start the Open Interface and select a mode",
	Long:      `Start the Open Interface. Without an argument the robot enters Passive mode.`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"passive", "safe", "full"},
	RunE:      runStart,
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the Open Interface",
	Args:  cobra.NoArgs,
	RunE: withDriver(func(d *create2.Driver) error {
		return d.Stop()
	}),
}

var dockCmd = &cobra.Command{
	Use:   "dock",
	Short: "Send the robot to its charging dock",
	Args:  cobra.NoArgs,
	RunE: withDriver(func(d *create2.Driver) error {
		if err := d.Startup(oi.NoModeSelect); err != nil {
			return err
		}
		return d.SeekDock()
	}),
}

var powerDownCmd = &cobra.Command{
	Use:   "power_down",
	Short: "Power the robot down",
	Args:  cobra.NoArgs,
	RunE: withDriver(func(d *create2.Driver) error {
		if err := d.Startup(oi.NoModeSelect); err != nil {
			return err
		}
		return d.PowerDown()
	}),
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Soft-reset the robot and print its startup banner",
	Long: `Soft-reset the robot, as if the battery had been removed and reinserted.

The robot prints a startup banner over the serial link, which takes a few
seconds. The Open Interface is off afterwards.`,
	Args: cobra.NoArgs,
	RunE: withDriver(func(d *create2.Driver) error {
		banner, err := d.Reset()
		if banner != "" {
			fmt.Println(strings.TrimSpace(banner))
		}
		return err
	}),
}

func init() {
	rootCmd.AddCommand(startCmd, stopCmd, dockCmd, powerDownCmd, resetCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	sel := oi.NoModeSelect
	if len(args) == 1 {
		var ok bool
		sel, ok = oi.ParseModeSelect(args[0])
		if !ok {
			return fmt.Errorf("unknown mode %q (use passive, safe or full)", args[0])
		}
	}

	return withDriver(func(d *create2.Driver) error {
		if err := d.Startup(sel); err != nil {
			return err
		}
		fmt.Printf("Mode: %s\n", d.Mode())
		return nil
	})(cmd, args)
}

// withDriver opens a driver for the duration of one command
func withDriver(fn func(d *create2.Driver) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		driver, conn, _, err := OpenDriver()
		if err != nil {
			return err
		}
		defer conn.Close()

		return fn(driver)
	}
}
