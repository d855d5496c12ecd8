/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package models

import "time"

// PlanRun is one persisted planner pass.
type PlanRun struct {
	ID           string `gorm:"type:uuid;primaryKey"`
	MissionStart time.Time
	MissionEnd   time.Time
	Activities   int
	Commands     int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ActivityRecord stores one timeline activity of a run.
type ActivityRecord struct {
	ID         string `gorm:"type:uuid;primaryKey"`
	RunID      string `gorm:"type:uuid;index"`
	Position   int    `gorm:"index"`
	Kind       string `gorm:"type:varchar(64);index"`
	StartsAt   time.Time
	EndsAt     time.Time
	Parameters map[string]any `gorm:"type:jsonb;serializer:json"`
	Annotation string         `gorm:"type:text"`
	CreatedAt  time.Time
}

// CommandRecord stores one sequenced command of a run.
type CommandRecord struct {
	ID             string `gorm:"type:uuid;primaryKey"`
	RunID          string `gorm:"type:uuid;index"`
	Position       int    `gorm:"index"`
	RelativeTimeNS int64
	Mnemonic       string `gorm:"type:varchar(64)"`
	Args           []Arg  `gorm:"type:jsonb;serializer:json"`
	Comment        string `gorm:"type:text"`
	CreatedAt      time.Time
}
