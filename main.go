// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// Oistat - iRobot Create 2 Open Interface tool
//
// A CLI tool for driving an iRobot Create 2 and decoding its sensor
// responses in human-readable format.

package main

import (
	"os"

	"github.com/Thermoquad/oistat/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
