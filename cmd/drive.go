// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/oistat/pkg/create2"
	"github.com/Thermoquad/oistat/pkg/oi"
)

var (
	driveVelocity int16
	driveRadius   int16
	driveLeft     int16
	driveRight    int16
	driveDuration time.Duration
)

var driveCmd = &cobra.Command{
	Use:   "drive",
	Short: "Drive along a radius for a fixed time",
	Long: `Drive with the given velocity (mm/s) along the given radius (mm), then halt.

Special radii:
  -32768  straight (the default)
   32767  straight
      -1  spin clockwise in place
       1  spin counter-clockwise in place

The robot is started in Safe mode first unless --no-auto-start is set.
Ctrl+C halts the robot early.`,
	Args: cobra.NoArgs,
	RunE: runDrive,
}

var driveDirectCmd = &cobra.Command{
	Use:   "drive_direct",
	Short: "Drive each wheel at its own velocity for a fixed time",
	Long: `Drive the left and right wheels independently (mm/s), then halt.

The robot is started in Safe mode first unless --no-auto-start is set.
Ctrl+C halts the robot early.`,
	Args: cobra.NoArgs,
	RunE: runDriveDirect,
}

func init() {
	rootCmd.AddCommand(driveCmd, driveDirectCmd)

	driveCmd.Flags().Int16Var(&driveVelocity, "velocity", 0, "Velocity in mm/s (-500 to 500)")
	driveCmd.Flags().Int16Var(&driveRadius, "radius", oi.RadiusStraight, "Radius in mm (-2000 to 2000)")
	driveCmd.Flags().DurationVar(&driveDuration, "duration", time.Second, "How long to drive before halting")

	driveDirectCmd.Flags().Int16Var(&driveLeft, "left", 0, "Left wheel velocity in mm/s (-500 to 500)")
	driveDirectCmd.Flags().Int16Var(&driveRight, "right", 0, "Right wheel velocity in mm/s (-500 to 500)")
	driveDirectCmd.Flags().DurationVar(&driveDuration, "duration", time.Second, "How long to drive before halting")
}

func runDrive(cmd *cobra.Command, args []string) error {
	command := oi.NewDriveCommand(driveVelocity, driveRadius)
	return driveFor(command, func(d *create2.Driver) error {
		return d.Drive(driveVelocity, driveRadius)
	})
}

func runDriveDirect(cmd *cobra.Command, args []string) error {
	command := oi.NewDriveDirectCommand(driveRight, driveLeft)
	return driveFor(command, func(d *create2.Driver) error {
		return d.DriveDirect(driveRight, driveLeft)
	})
}

// driveFor validates and issues a motion command, waits, then halts
func driveFor(command *oi.Command, issue func(d *create2.Driver) error) error {
	if driveDuration <= 0 {
		return fmt.Errorf("--duration must be positive")
	}

	// The robot clamps out-of-range values itself; warn but still send
	for _, warning := range oi.ValidateCommand(command) {
		log.Printf("Warning: %s", warning.Message)
	}

	driver, conn, connInfo, err := OpenDriver()
	if err != nil {
		return err
	}
	defer conn.Close()

	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Print(oi.FormatCommand(command))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := issue(driver); err != nil {
		return err
	}

	select {
	case <-time.After(driveDuration):
	case <-ctx.Done():
		fmt.Println("Interrupted")
	}

	if err := driver.Halt(); err != nil {
		return fmt.Errorf("failed to halt: %w", err)
	}
	fmt.Printf("Halted (mode %s)\n", driver.Mode())
	return nil
}
