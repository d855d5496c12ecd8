/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/friendsincode/missionplan/internal/config"
	"github.com/friendsincode/missionplan/internal/logging"
	"github.com/friendsincode/missionplan/internal/version"
)

var (
	logger zerolog.Logger
	cfg    *config.Config

	missionPath string
)

var rootCmd = &cobra.Command{
	Use:          "missionplan",
	Short:        "Mission timeline planner and command sequencer",
	Long:         "missionplan allocates payload activities onto a conflict-free mission timeline and expands it into a time-ordered command stream.",
	Version:      version.String(),
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&missionPath, "mission", "m", "mission.yaml", "Mission file (YAML)")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads process configuration and the mission file.
func loadConfig() (*config.Mission, error) {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger = logging.Setup(cfg.Environment)

	mission, err := config.LoadMission(missionPath)
	if err != nil {
		return nil, err
	}
	if cfg.Workers > 0 {
		mission.Workers = cfg.Workers
	}
	return mission, nil
}
