/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package models

import "time"

// WarningReason enumerates planning-quality signals that do not stop a pass.
type WarningReason string

const (
	WarningBeforeMission    WarningReason = "before_mission_start" // Activity starts before the mission window
	WarningAfterMission     WarningReason = "after_mission_end"    // Activity ends after the mission window
	WarningDurationMismatch WarningReason = "duration_mismatch"    // Duration differs from the configured one
	WarningBurstOverrun     WarningReason = "burst_overrun"        // Commands run past the activity end
	WarningDelayedBurst     WarningReason = "delayed_burst"        // Commands start after the activity start
)

// Warning is a boundary violation attached to an activity.
type Warning struct {
	Kind    string        `json:"kind"`
	Reason  WarningReason `json:"reason"`
	Message string        `json:"message"`
	Start   time.Time     `json:"start"`
	End     time.Time     `json:"end"`
}
