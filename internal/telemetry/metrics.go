/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package telemetry

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

var (
	// PlanRunsTotal counts planner passes.
	PlanRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "missionplan",
		Name:      "plan_runs_total",
		Help:      "Number of planner passes executed.",
	})

	// PlanOutcomesTotal counts per-kind outcomes by status.
	PlanOutcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "missionplan",
		Name:      "plan_outcomes_total",
		Help:      "Activity outcomes by status (scheduled, omitted, rejected).",
	}, []string{"status"})

	// PostponementsTotal counts interval shifts applied during resolution.
	PostponementsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "missionplan",
		Name:      "postponements_total",
		Help:      "Interval postponements applied while resolving collisions.",
	})

	// FillerActivitiesTotal counts filler activities inserted into gaps.
	FillerActivitiesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "missionplan",
		Name:      "filler_activities_total",
		Help:      "Filler activities inserted into unbooked gaps.",
	})

	// CommandsEmittedTotal counts sequenced commands.
	CommandsEmittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "missionplan",
		Name:      "commands_emitted_total",
		Help:      "Commands emitted by the sequencer.",
	})

	// PointingElidedTotal counts redundant pointing commands that were skipped.
	PointingElidedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "missionplan",
		Name:      "pointing_elided_total",
		Help:      "Fixed-rate pointing commands elided because the attitude was already settled.",
	})

	// BoundaryWarningsTotal counts boundary warnings by reason.
	BoundaryWarningsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "missionplan",
		Name:      "boundary_warnings_total",
		Help:      "Boundary warnings raised during planning and sequencing.",
	}, []string{"reason"})

	// PassDuration observes the wall time of plan and sequence passes.
	PassDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "missionplan",
		Name:      "pass_duration_seconds",
		Help:      "Duration of planner and sequencer passes.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
	}, []string{"pass"})

	// DatabaseQueryDuration observes run persistence statements.
	DatabaseQueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "missionplan",
		Name:      "database_query_duration_seconds",
		Help:      "Duration of database operations by operation and table.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// DatabaseErrorsTotal counts failed database operations.
	DatabaseErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "missionplan",
		Name:      "database_errors_total",
		Help:      "Failed database operations by operation and table.",
	}, []string{"operation", "table"})
)

// Push sends the default registry to a Prometheus Pushgateway. Batch runs have
// no scrape endpoint, so this is the only way their metrics leave the process.
func Push(ctx context.Context, gatewayURL, job string) error {
	if gatewayURL == "" {
		return nil
	}
	if err := push.New(gatewayURL, job).Gatherer(prometheus.DefaultGatherer).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
