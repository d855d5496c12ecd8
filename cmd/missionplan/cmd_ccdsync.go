/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var ccdsyncCmd = &cobra.Command{
	Use:   "ccdsync",
	Short: "Print the sensor synchronization settings of the mission",
	RunE:  runCCDSync,
}

func init() {
	rootCmd.AddCommand(ccdsyncCmd)
}

func runCCDSync(cmd *cobra.Command, args []string) error {
	mission, err := loadConfig()
	if err != nil {
		return err
	}
	settings, err := synchronize(mission)
	if err != nil {
		return err
	}
	if settings == nil {
		return fmt.Errorf("mission has no sensors")
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(settings)
}
