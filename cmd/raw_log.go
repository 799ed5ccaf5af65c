// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/oistat/pkg/oi"
)

var rawLogValidate bool

var rawLogCmd = &cobra.Command{
	Use:   "raw_log",
	Short: "Display sniffed OI commands in human-readable format",
	Long: `Continuously decode and display Open Interface commands as they arrive.

Attach to the controller side of the link (for example a tap on the robot's
RX line) to watch what another program sends. Each command is shown with
timestamp, opcode and decoded arguments. Unknown bytes are reported and the
decoder resynchronises on the next byte.

Supports both serial and WebSocket connections.`,
	Args: cobra.NoArgs,
	RunE: runRawLog,
}

func init() {
	rootCmd.AddCommand(rawLogCmd)
	rawLogCmd.Flags().BoolVar(&rawLogValidate, "validate", true, "Flag out-of-range arguments")
}

func runRawLog(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	fmt.Printf("Oistat - Raw Command Log\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	decoder := oi.NewCommandDecoder()
	buf := make([]byte, 128)

	for {
		n, err := conn.Read(buf)
		if err != nil {
			// For WebSocket connections, a read error usually means
			// the connection is permanently closed - exit gracefully
			if errors.Is(err, ErrConnectionClosed) || errors.Is(err, io.EOF) {
				log.Printf("Connection closed")
				return nil
			}
			log.Printf("Read error: %v", err)
			continue
		}

		for i := 0; i < n; i++ {
			command, err := decoder.DecodeByte(buf[i])
			if err != nil {
				fmt.Printf("[ERROR] %v\n", err)
				continue
			}
			if command == nil {
				continue
			}
			fmt.Print(oi.FormatCommand(command))
			if rawLogValidate {
				for _, warning := range oi.ValidateCommand(command) {
					fmt.Printf("  [WARN] %s\n", warning.Message)
				}
			}
		}
	}
}
