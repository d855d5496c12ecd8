/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package planner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/missionplan/internal/config"
	"github.com/friendsincode/missionplan/internal/oracle"
)

func testMission() *config.Mission {
	fixedStart := at(7200)
	return &config.Mission{
		Start:            epoch,
		Duration:         4 * time.Hour,
		ModeSeparation:   time.Minute,
		MaxPostponements: 100,
		Workers:          2,
		Priorities:       []string{"STAR", "CROP", "LIMB"},
		Kinds: map[string]config.KindConfig{
			"STAR": {Duration: 10 * time.Minute, Ranked: true, Lead: 2 * time.Minute},
			"CROP": {Duration: 5 * time.Minute, Offset: time.Hour, Parameters: map[string]any{"altitude": 92500}},
			"LIMB": {Duration: 5 * time.Minute, Start: &fixedStart},
		},
	}
}

func TestNewConfigProposers(t *testing.T) {
	o := oracle.NewStatic(map[string][]oracle.Candidate{
		"STAR": {
			{Instant: at(3000), Merit: 0.9},
			{Instant: at(600), Merit: 0.2, Annotations: map[string]any{"ra": 10.5}},
		},
	})
	m := testMission()
	props, err := NewConfigProposers(m, o)
	if err != nil {
		t.Fatalf("NewConfigProposers() error = %v", err)
	}

	star, err := props["STAR"].Propose(context.Background(), "STAR")
	if err != nil {
		t.Fatal(err)
	}
	if !star.Ranked || len(star.Candidates) != 2 {
		t.Fatalf("STAR proposal = %+v", star)
	}
	best := star.Candidates[0]
	if best.Merit != 0.2 || !best.Start.Equal(at(480)) || best.End.Sub(best.Start) != 10*time.Minute {
		t.Fatalf("best = %+v, want merit 0.2 at 480s", best)
	}
	if best.Parameters["ra"] != 10.5 || best.Annotation != "ra=10.5" {
		t.Fatalf("best annotations = %v / %q", best.Parameters, best.Annotation)
	}

	crop, _ := props["CROP"].Propose(context.Background(), "CROP")
	if crop.Ranked || !crop.Candidates[0].Start.Equal(at(3600)) {
		t.Fatalf("CROP = %+v, want fixed at 1h", crop)
	}
	limb, _ := props["LIMB"].Propose(context.Background(), "LIMB")
	if !limb.Candidates[0].Start.Equal(at(7200)) {
		t.Fatalf("LIMB start = %v, want 2h", limb.Candidates[0].Start.Sub(epoch))
	}

	res, err := New(props, ConfigFromMission(m), zerolog.Nop()).Plan(context.Background(), m.Priorities)
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if len(res.Activities) != 3 {
		t.Fatalf("activities = %d, want 3", len(res.Activities))
	}
}

func TestNewConfigProposersInconsistencies(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Mission)
		oracle oracle.Oracle
	}{
		{"unconfigured kind", func(m *config.Mission) { m.Priorities = append(m.Priorities, "GHOST") }, oracle.NewStatic(nil)},
		{"zero duration", func(m *config.Mission) {
			kc := m.Kinds["CROP"]
			kc.Duration = 0
			m.Kinds["CROP"] = kc
		}, oracle.NewStatic(nil)},
		{"ranked without oracle", func(*config.Mission) {}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := testMission()
			tt.mutate(m)
			if _, err := NewConfigProposers(m, tt.oracle); !errors.Is(err, ErrConfigInconsistency) {
				t.Fatalf("error = %v, want ErrConfigInconsistency", err)
			}
		})
	}
}

func TestConfigFromMissionFiller(t *testing.T) {
	m := testMission()
	m.Filler = config.FillerConfig{
		Default:  "FILL",
		Seasonal: []config.SeasonalRule{{Kind: "FILL_SPRING", Months: []int{3}}},
	}
	cfg := ConfigFromMission(m)
	if cfg.Filler == nil {
		t.Fatal("expected filler func")
	}
	if got := cfg.Filler(epoch); got != "FILL_SPRING" {
		t.Fatalf("filler in March = %q, want FILL_SPRING", got)
	}
	if !cfg.MissionEnd.Equal(at(4 * 3600)) {
		t.Fatalf("MissionEnd = %v", cfg.MissionEnd)
	}
	if cfg.FillerParameters["CROP"]["altitude"] != 92500 {
		t.Fatalf("filler parameters = %v", cfg.FillerParameters)
	}
}
