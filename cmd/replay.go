// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/oistat/pkg/oi"
	"github.com/Thermoquad/oistat/pkg/telemetry"
)

var (
	replayJSON    bool
	replayVerbose bool
)

var replayCmd = &cobra.Command{
	Use:   "replay FILE",
	Short: "Print samples from a CBOR recording",
	Long: `Print the samples stored by "monitor --record FILE".

By default each sample is printed on one line. --verbose prints the full
decoded groups and --json prints one JSON object per line. Does not need a
connection.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().BoolVar(&replayJSON, "json", false, "Print samples as JSON lines")
	replayCmd.Flags().BoolVarP(&replayVerbose, "verbose", "v", false, "Print every field")
}

func runReplay(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	return replaySamples(telemetry.NewPlayer(f), os.Stdout)
}

func replaySamples(player *telemetry.Player, w io.Writer) error {
	enc := json.NewEncoder(w)
	count := 0
	for {
		sample, err := player.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("sample %d: %w", count+1, err)
		}
		count++

		switch {
		case replayJSON:
			if err := enc.Encode(sample); err != nil {
				return err
			}
		case replayVerbose:
			fmt.Fprintf(w, "[%s] Mode: %s\n", sample.Time.Format("2006-01-02 15:04:05.000"), sample.Mode)
			fmt.Fprint(w, oi.FormatEnvironment(sample.Sensors))
			fmt.Fprint(w, oi.FormatLightBumpers(sample.Sensors.LightBumperSignal))
			fmt.Fprint(w, oi.FormatBattery(sample.Battery))
			fmt.Fprintln(w)
		default:
			fmt.Fprintln(w, formatSampleLine(sample))
		}
	}

	if !replayJSON {
		fmt.Fprintf(w, "%d samples\n", count)
	}
	return nil
}
