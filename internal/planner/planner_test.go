/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package planner

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/missionplan/internal/models"
)

var epoch = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func at(sec int) time.Time {
	return epoch.Add(time.Duration(sec) * time.Second)
}

func fixed(startSec, endSec int) Proposer {
	return ProposerFunc(func(context.Context, string) (Proposal, error) {
		return Single(Candidate{Start: at(startSec), End: at(endSec)}), nil
	})
}

func ranked(cs ...Candidate) Proposer {
	return ProposerFunc(func(context.Context, string) (Proposal, error) {
		return Ranked(cs), nil
	})
}

func baseConfig() Config {
	return Config{
		MissionStart:     epoch,
		MissionEnd:       at(4 * 3600),
		ModeSeparation:   60 * time.Second,
		MaxPostponements: 1000,
		Workers:          4,
	}
}

func TestPlanPostponesLowerPriority(t *testing.T) {
	p := New(map[string]Proposer{
		"A": fixed(0, 100),
		"B": fixed(50, 90),
	}, baseConfig(), zerolog.Nop())

	res, err := p.Plan(context.Background(), []string{"A", "B"})
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if len(res.Activities) != 2 {
		t.Fatalf("activities = %d, want 2", len(res.Activities))
	}
	a, b := res.Activities[0], res.Activities[1]
	if !a.Start.Equal(at(0)) || !a.End.Equal(at(100)) {
		t.Fatalf("A = [%v, %v), want [0, 100)", a.Start, a.End)
	}
	if b.Start.Before(at(100)) {
		t.Fatalf("B start = %v, want >= 100s", b.Start.Sub(epoch))
	}
	if !b.Start.Equal(at(170)) || b.Duration() != 40*time.Second {
		t.Fatalf("B = [%v, %v), want [170s, 210s)", b.Start.Sub(epoch), b.End.Sub(epoch))
	}
	if res.Outcomes[1].Shifts != 1 {
		t.Fatalf("B shifts = %d, want 1", res.Outcomes[1].Shifts)
	}
	if !strings.Contains(b.Annotation, "postponed 1 times") {
		t.Fatalf("B annotation = %q", b.Annotation)
	}
}

func TestPlanBookingsAreDisjoint(t *testing.T) {
	proposers := map[string]Proposer{}
	var kinds []string
	for i, k := range []string{"A", "B", "C", "D", "E", "F"} {
		proposers[k] = fixed(i*30, i*30+200)
		kinds = append(kinds, k)
	}
	res, err := New(proposers, baseConfig(), zerolog.Nop()).Plan(context.Background(), kinds)
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	acts := res.Activities
	for i := range acts {
		if !acts[i].Start.Before(acts[i].End) {
			t.Fatalf("%s has empty window", acts[i].Kind)
		}
		for j := i + 1; j < len(acts); j++ {
			if acts[i].Start.Before(acts[j].End) && acts[j].Start.Before(acts[i].End) {
				t.Fatalf("%s overlaps %s", acts[i].Kind, acts[j].Kind)
			}
		}
	}
}

func TestPlanIsDeterministic(t *testing.T) {
	build := func() *Planner {
		return New(map[string]Proposer{
			"A": fixed(0, 100),
			"B": fixed(50, 150),
			"C": ranked(Candidate{Start: at(10), End: at(60)}, Candidate{Start: at(1000), End: at(1100), Merit: 2}),
		}, baseConfig(), zerolog.Nop())
	}
	first, err := build().Plan(context.Background(), []string{"A", "B", "C"})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		again, err := build().Plan(context.Background(), []string{"A", "B", "C"})
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(first.Activities, again.Activities) {
			t.Fatalf("run %d differs: %+v vs %+v", i, again.Activities, first.Activities)
		}
	}
}

func TestPlanRankedFallsBackAndOmits(t *testing.T) {
	p := New(map[string]Proposer{
		"A": fixed(0, 100),
		"STAR": ranked(
			Candidate{Start: at(-50), End: at(10), Merit: 0.1},
			Candidate{Start: at(20), End: at(80), Merit: 0.2},
			Candidate{Start: at(300), End: at(400), Merit: 0.3},
		),
		"MOON": ranked(Candidate{Start: at(350), End: at(380), Merit: 1}),
		"NONE": ranked(),
	}, baseConfig(), zerolog.Nop())

	res, err := p.Plan(context.Background(), []string{"A", "STAR", "MOON", "NONE"})
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	star := res.Outcomes[1]
	if star.Status != StatusScheduled || !star.Activity.Start.Equal(at(300)) {
		t.Fatalf("STAR = %+v, want scheduled at 300s", star)
	}
	if !strings.Contains(star.Activity.Annotation, "figure of merit 0.3") {
		t.Fatalf("STAR annotation = %q", star.Activity.Annotation)
	}
	if res.Outcomes[2].Status != StatusOmitted || res.Outcomes[3].Status != StatusOmitted {
		t.Fatalf("statuses = %s, %s; want omitted", res.Outcomes[2].Status, res.Outcomes[3].Status)
	}
	if len(res.Omitted()) != 2 {
		t.Fatalf("Omitted() = %d, want 2", len(res.Omitted()))
	}
}

func TestPlanRejectsWhenPostponementCapExceeded(t *testing.T) {
	cfg := baseConfig()
	cfg.MaxPostponements = 2
	p := New(map[string]Proposer{
		"A": fixed(0, 1000),
		"B": fixed(10, 20),
	}, cfg, zerolog.Nop())

	res, err := p.Plan(context.Background(), []string{"A", "B"})
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if res.Outcomes[1].Status != StatusRejected {
		t.Fatalf("B status = %s, want rejected", res.Outcomes[1].Status)
	}
	if len(res.Activities) != 1 {
		t.Fatalf("activities = %d, want 1", len(res.Activities))
	}
}

func TestPlanMissingProposer(t *testing.T) {
	p := New(map[string]Proposer{"A": fixed(0, 100)}, baseConfig(), zerolog.Nop())
	_, err := p.Plan(context.Background(), []string{"A", "B"})
	if !errors.Is(err, ErrConfigInconsistency) {
		t.Fatalf("error = %v, want ErrConfigInconsistency", err)
	}
}

func TestPlanProposerErrorAborts(t *testing.T) {
	boom := errors.New("oracle down")
	p := New(map[string]Proposer{
		"A": fixed(0, 100),
		"B": ProposerFunc(func(context.Context, string) (Proposal, error) { return Proposal{}, boom }),
	}, baseConfig(), zerolog.Nop())
	if _, err := p.Plan(context.Background(), []string{"A", "B"}); !errors.Is(err, boom) {
		t.Fatalf("error = %v, want %v", err, boom)
	}
}

func TestPlanBoundaryWarnings(t *testing.T) {
	p := New(map[string]Proposer{
		"EARLY": fixed(-100, -10),
		"LATE":  fixed(4*3600-30, 4*3600+30),
	}, baseConfig(), zerolog.Nop())
	res, err := p.Plan(context.Background(), []string{"EARLY", "LATE"})
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if len(res.Activities) != 2 {
		t.Fatalf("activities = %d, want 2 (boundary violations are kept)", len(res.Activities))
	}
	got := res.Warnings()
	if len(got) != 2 || got[0].Reason != models.WarningBeforeMission || got[1].Reason != models.WarningAfterMission {
		t.Fatalf("warnings = %+v", got)
	}
}

func TestPlanComputesProposalsConcurrently(t *testing.T) {
	var inflight, peak atomic.Int32
	release := make(chan struct{})
	slow := ProposerFunc(func(ctx context.Context, kind string) (Proposal, error) {
		n := inflight.Add(1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		if n == 3 {
			close(release)
		}
		select {
		case <-release:
		case <-time.After(2 * time.Second):
		}
		inflight.Add(-1)
		return Single(Candidate{Start: at(0), End: at(10)}), nil
	})
	cfg := baseConfig()
	cfg.Workers = 3
	p := New(map[string]Proposer{"A": slow, "B": slow, "C": slow}, cfg, zerolog.Nop())
	if _, err := p.Plan(context.Background(), []string{"A", "B", "C"}); err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if peak.Load() != 3 {
		t.Fatalf("peak concurrency = %d, want 3", peak.Load())
	}
}

func TestFreezeSortsChronologically(t *testing.T) {
	p := New(map[string]Proposer{
		"A": fixed(500, 600),
		"B": fixed(0, 100),
	}, baseConfig(), zerolog.Nop())
	res, err := p.Plan(context.Background(), []string{"A", "B"})
	if err != nil {
		t.Fatal(err)
	}
	tl, err := res.Freeze(epoch, at(4*3600))
	if err != nil {
		t.Fatalf("Freeze() error = %v", err)
	}
	acts := tl.Activities()
	if acts[0].Kind != "B" || acts[1].Kind != "A" {
		t.Fatalf("order = %s, %s; want B, A", acts[0].Kind, acts[1].Kind)
	}
}
