/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/friendsincode/missionplan/internal/config"
	"github.com/friendsincode/missionplan/internal/events"
	"github.com/friendsincode/missionplan/internal/models"
	"github.com/friendsincode/missionplan/internal/storage"
)

var sequenceRunID string

var sequenceCmd = &cobra.Command{
	Use:   "sequence",
	Short: "Expand a planned timeline into commands",
	Long: `Load the timeline of a plan run and write commands.json next to it.

The timeline is read from the database when persistence is configured and
from the artifact store otherwise.

Examples:
  missionplan sequence -m mission.yaml --run 4f7c...
`,
	RunE: runSequence,
}

func init() {
	sequenceCmd.Flags().StringVar(&sequenceRunID, "run", "", "Plan run id (defaults to the latest stored run)")
	rootCmd.AddCommand(sequenceCmd)
}

func runSequence(cmd *cobra.Command, args []string) error {
	mission, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	rt, err := setupRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.close(context.Background())

	runID := sequenceRunID
	if runID == "" {
		if rt.store == nil {
			return fmt.Errorf("--run is required without a database")
		}
		latest, err := rt.store.LatestRun(ctx)
		if err != nil {
			return err
		}
		runID = latest.ID
	}

	tl, err := loadTimeline(ctx, rt, runID)
	if err != nil {
		return err
	}
	n, err := sequenceTimeline(ctx, rt, mission, runID, tl)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "run %s: %d commands\n", runID, n)
	return nil
}

func loadTimeline(ctx context.Context, rt *runtime, runID string) (models.Timeline, error) {
	if rt.store != nil {
		return rt.store.LoadTimeline(ctx, runID)
	}
	data, err := rt.artifacts.Get(ctx, storage.RunKey(runID, "timeline.json"))
	if err != nil {
		return models.Timeline{}, err
	}
	var tl models.Timeline
	if err := json.Unmarshal(data, &tl); err != nil {
		return models.Timeline{}, fmt.Errorf("decode timeline: %w", err)
	}
	return tl, nil
}

func sequenceTimeline(ctx context.Context, rt *runtime, mission *config.Mission, runID string, tl models.Timeline) (int, error) {
	seq, err := newSequencer(mission)
	if err != nil {
		return 0, err
	}
	result, err := seq.Sequence(ctx, tl)
	if err != nil {
		return 0, fmt.Errorf("sequence: %w", err)
	}

	if rt.store != nil {
		if err := rt.store.SaveCommands(ctx, runID, result.Commands); err != nil {
			return 0, fmt.Errorf("save commands: %w", err)
		}
	}
	if err := rt.putJSON(ctx, storage.RunKey(runID, "commands.json"), result.Commands); err != nil {
		return 0, err
	}

	for _, w := range result.Warnings {
		rt.bus.Publish(events.EventActivityBoundary, warningPayload(runID, w))
	}
	rt.bus.Publish(events.EventSequenceCompleted, events.Payload{
		"run_id":   runID,
		"commands": len(result.Commands),
		"elided":   result.Elided,
		"warnings": len(result.Warnings),
	})
	return len(result.Commands), nil
}
