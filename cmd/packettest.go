// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/oistat/pkg/oi"
)

var (
	packetTestTimeout int
	packetTestID      uint8
)

var packetTestCmd = &cobra.Command{
	Use:   "packet_test",
	Short: "Test connection by querying one sensor group",
	Long: `Query one sensor packet group and check that a complete response arrives.

The OI is started in Passive mode first unless --no-auto-start is set.
Supported groups: 1 (bumps and environment), 3 (battery), 106 (light bumpers).

Exit codes:
  0 - Complete response received before timeout
  1 - Timeout reached, or the response was truncated
  2 - Connection error

Useful for testing connectivity to the robot or a WebSocket bridge.`,
	Args: cobra.NoArgs,
	RunE: runPacketTest,
}

func init() {
	rootCmd.AddCommand(packetTestCmd)
	packetTestCmd.Flags().IntVar(&packetTestTimeout, "timeout", 10, "Timeout in seconds to wait for a response")
	packetTestCmd.Flags().Uint8Var(&packetTestID, "packet", uint8(oi.PacketBattery), "Sensor packet group to query")
}

type queryResult struct {
	raw []byte
	err error
}

func runPacketTest(cmd *cobra.Command, args []string) error {
	id := oi.PacketID(packetTestID)
	if _, ok := oi.RequiredLength(id); !ok {
		fmt.Fprintf(os.Stderr, "Unsupported packet group %d\n", id)
		os.Exit(2)
	}

	driver, conn, connInfo, err := OpenDriver()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer conn.Close()

	fmt.Printf("Oistat - Packet Test\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Timeout: %d seconds\n", packetTestTimeout)
	fmt.Printf("Querying %s (%d)...\n\n", oi.FormatPacketID(id), id)

	resultChan := make(chan queryResult, 1)
	go func() {
		raw, err := driver.Query(id)
		if err == nil {
			_, err = oi.Decode(id, raw)
		}
		resultChan <- queryResult{raw: raw, err: err}
	}()

	select {
	case result := <-resultChan:
		switch {
		case result.err == nil:
			fmt.Printf("SUCCESS: Received complete response\n")
			fmt.Print(oi.FormatResponse(id, result.raw))
			os.Exit(0)

		case errors.Is(result.err, oi.ErrTruncatedResponse):
			fmt.Fprintf(os.Stderr, "TRUNCATED: %v\n", result.err)
			fmt.Print(oi.FormatResponse(id, result.raw))
			os.Exit(1)

		default:
			fmt.Fprintf(os.Stderr, "Connection error: %v\n", result.err)
			os.Exit(2)
		}

	case <-time.After(time.Duration(packetTestTimeout) * time.Second):
		fmt.Fprintf(os.Stderr, "TIMEOUT: No response within %d seconds\n", packetTestTimeout)
		os.Exit(1)
	}

	return nil
}
