/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/friendsincode/missionplan/internal/config"
	"github.com/friendsincode/missionplan/internal/events"
	"github.com/friendsincode/missionplan/internal/models"
	"github.com/friendsincode/missionplan/internal/oracle"
	"github.com/friendsincode/missionplan/internal/planner"
	"github.com/friendsincode/missionplan/internal/storage"
)

var planAndSequence bool

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Allocate the mission's activities onto a timeline",
	Long: `Run the priority planner over the mission file and write timeline.json.

Examples:
  # Plan only
  missionplan plan -m mission.yaml

  # Plan and expand the timeline into commands in one run
  missionplan plan -m mission.yaml --sequence
`,
	RunE: runPlan,
}

func init() {
	planCmd.Flags().BoolVar(&planAndSequence, "sequence", false, "Also sequence the planned timeline")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
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

	var candidates oracle.Oracle
	if mission.CandidatesFile != "" {
		static, err := oracle.LoadStatic(mission.CandidatesFile)
		if err != nil {
			return err
		}
		candidates = static
	}

	runID, tl, err := planMission(ctx, rt, mission, candidates)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "run %s: %d activities\n", runID, tl.Len())

	if !planAndSequence {
		return nil
	}
	n, err := sequenceTimeline(ctx, rt, mission, runID, tl)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "run %s: %d commands\n", runID, n)
	return nil
}

func planMission(ctx context.Context, rt *runtime, mission *config.Mission, candidates oracle.Oracle) (string, models.Timeline, error) {
	proposers, err := planner.NewConfigProposers(mission, candidates)
	if err != nil {
		return "", models.Timeline{}, err
	}
	result, err := planner.New(proposers, planner.ConfigFromMission(mission), logger).Plan(ctx, mission.Priorities)
	if err != nil {
		return "", models.Timeline{}, fmt.Errorf("plan: %w", err)
	}
	tl, err := result.Freeze(mission.Start, mission.End())
	if err != nil {
		return "", models.Timeline{}, fmt.Errorf("freeze timeline: %w", err)
	}

	runID := uuid.New().String()
	if rt.store != nil {
		if runID, err = rt.store.SaveTimeline(ctx, tl); err != nil {
			return "", models.Timeline{}, fmt.Errorf("save timeline: %w", err)
		}
	}
	if err := rt.putJSON(ctx, storage.RunKey(runID, "timeline.json"), tl); err != nil {
		return "", models.Timeline{}, err
	}

	for _, o := range result.Omitted() {
		rt.bus.Publish(events.EventActivityOmitted, events.Payload{
			"run_id": runID,
			"kind":   o.Kind,
			"status": string(o.Status),
			"reason": o.Reason,
		})
	}
	for _, w := range result.Warnings() {
		rt.bus.Publish(events.EventActivityBoundary, warningPayload(runID, w))
	}
	rt.bus.Publish(events.EventPlanCompleted, events.Payload{
		"run_id":     runID,
		"activities": tl.Len(),
		"omitted":    len(result.Omitted()),
		"fillers":    result.Fillers,
	})
	return runID, tl, nil
}

func warningPayload(runID string, w models.Warning) events.Payload {
	return events.Payload{
		"run_id":  runID,
		"kind":    w.Kind,
		"reason":  string(w.Reason),
		"message": w.Message,
		"start":   w.Start,
		"end":     w.End,
	}
}
