// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/oistat/pkg/oi"
	"github.com/Thermoquad/oistat/pkg/telemetry"
)

var sensorsJSON bool

var sensorsCmd = &cobra.Command{
	Use:   "sensors",
	Short: "Read and display all sensor groups once",
	Long: `Query the environment, light bumper and battery groups and print them.

Each group is shown decoded, or as a hex dump with the decode error when the
response is incomplete. With --json a single sample is printed instead and the
command fails unless all three groups decode.`,
	Args: cobra.NoArgs,
	RunE: runSensors,
}

func init() {
	rootCmd.AddCommand(sensorsCmd)
	sensorsCmd.Flags().BoolVar(&sensorsJSON, "json", false, "Print one JSON sample")
}

func runSensors(cmd *cobra.Command, args []string) error {
	driver, conn, connInfo, err := OpenDriver()
	if err != nil {
		return err
	}
	defer conn.Close()

	if sensorsJSON {
		env, battery, err := driver.ReadSensors()
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(telemetry.Sample{
			Time:    time.Now(),
			Mode:    driver.Mode(),
			Sensors: env,
			Battery: battery,
		})
	}

	fmt.Printf("Connection: %s\n\n", connInfo)

	groups := []oi.PacketID{oi.PacketBumpsEnvironment, oi.PacketLightBumpSignals, oi.PacketBattery}
	var failed error
	for _, id := range groups {
		raw, err := driver.Query(id)
		if err != nil {
			fmt.Printf("%s: %v\n", oi.FormatPacketID(id), err)
			failed = err
			continue
		}
		fmt.Print(oi.FormatResponse(id, raw))
		fmt.Println()
	}

	fmt.Printf("Mode: %s\n", driver.Mode())
	return failed
}
