/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package planner allocates activities onto the mission timeline in priority
// order and fills the remaining gaps.
package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/friendsincode/missionplan/internal/interval"
	"github.com/friendsincode/missionplan/internal/models"
	"github.com/friendsincode/missionplan/internal/telemetry"
)

// ErrConfigInconsistency indicates a priority kind that cannot be proposed.
var ErrConfigInconsistency = errors.New("configuration inconsistency")

// Candidate is one possible placement for an activity.
type Candidate struct {
	Start      time.Time
	End        time.Time
	Merit      float64
	Parameters map[string]any
	Annotation string
}

// Proposal is what a Proposer returns: one deterministic candidate, or a list
// ranked by ascending merit.
type Proposal struct {
	Ranked     bool
	Candidates []Candidate
}

// Single wraps a deterministic candidate.
func Single(c Candidate) Proposal {
	return Proposal{Candidates: []Candidate{c}}
}

// Ranked wraps candidates already ordered best first.
func Ranked(cs []Candidate) Proposal {
	return Proposal{Ranked: true, Candidates: cs}
}

// Proposer computes the proposal for a kind.
type Proposer interface {
	Propose(ctx context.Context, kind string) (Proposal, error)
}

// ProposerFunc adapts a function to Proposer.
type ProposerFunc func(ctx context.Context, kind string) (Proposal, error)

// Propose calls f.
func (f ProposerFunc) Propose(ctx context.Context, kind string) (Proposal, error) {
	return f(ctx, kind)
}

// Status is the fate of one priority kind.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusOmitted   Status = "omitted"
	StatusRejected  Status = "rejected"
)

// Outcome records what happened to one priority kind.
type Outcome struct {
	Kind     string
	Status   Status
	Activity models.Activity // zero unless Scheduled
	Shifts   int
	Reason   string
	Warnings []models.Warning
}

// Config holds the planning window and allocation limits.
type Config struct {
	MissionStart     time.Time
	MissionEnd       time.Time
	ModeSeparation   time.Duration
	MinFillDuration  time.Duration
	MaxPostponements int
	Workers          int
	// Filler names the activity for a gap; nil disables filling.
	Filler           FillerKindFunc
	FillerParameters map[string]map[string]any
}

// Result is the output of a planning pass. Activities are in booking order:
// priority placements first, then fillers.
type Result struct {
	Activities []models.Activity
	Outcomes   []Outcome
	Fillers    int
	Occupied   *interval.Set
}

// Omitted returns the outcomes that did not produce an activity.
func (r Result) Omitted() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Status != StatusScheduled {
			out = append(out, o)
		}
	}
	return out
}

// Warnings collects the boundary warnings of all outcomes.
func (r Result) Warnings() []models.Warning {
	var out []models.Warning
	for _, o := range r.Outcomes {
		out = append(out, o.Warnings...)
	}
	return out
}

// Freeze turns the result into the immutable timeline handed to the sequencer.
func (r Result) Freeze(start, end time.Time) (models.Timeline, error) {
	return models.NewTimeline(start, end, r.Activities)
}

// Planner runs greedy priority allocation passes.
type Planner struct {
	proposers map[string]Proposer
	cfg       Config
	logger    zerolog.Logger
}

// New constructs a planner.
func New(proposers map[string]Proposer, cfg Config, logger zerolog.Logger) *Planner {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Planner{
		proposers: proposers,
		cfg:       cfg,
		logger:    logger.With().Str("component", "planner").Logger(),
	}
}

// Plan allocates priorities in order. Proposals are computed concurrently;
// booking is sequential so earlier kinds always win.
func (p *Planner) Plan(ctx context.Context, priorities []string) (Result, error) {
	ctx, span := telemetry.StartSpan(ctx, "planner", "Plan")
	defer span.End()
	started := time.Now()
	telemetry.PlanRunsTotal.Inc()

	for _, kind := range priorities {
		if _, ok := p.proposers[kind]; !ok {
			err := fmt.Errorf("%w: no proposer for kind %q", ErrConfigInconsistency, kind)
			telemetry.RecordError(span, err)
			return Result{}, err
		}
	}

	proposals, err := p.propose(ctx, priorities)
	if err != nil {
		telemetry.RecordError(span, err)
		return Result{}, err
	}

	res := Result{Occupied: interval.NewSet()}
	for i, kind := range priorities {
		outcome, err := p.allocate(res.Occupied, kind, proposals[i])
		if err != nil {
			telemetry.RecordError(span, err)
			return Result{}, err
		}
		if outcome.Status == StatusScheduled {
			res.Activities = append(res.Activities, outcome.Activity)
		}
		telemetry.PlanOutcomesTotal.WithLabelValues(string(outcome.Status)).Inc()
		res.Outcomes = append(res.Outcomes, outcome)
	}

	if p.cfg.Filler != nil {
		fillers, err := Fill(res.Occupied, p.cfg)
		if err != nil {
			telemetry.RecordError(span, err)
			return Result{}, err
		}
		res.Activities = append(res.Activities, fillers...)
		res.Fillers = len(fillers)
		telemetry.FillerActivitiesTotal.Add(float64(len(fillers)))
	}

	telemetry.PassDuration.WithLabelValues("plan").Observe(time.Since(started).Seconds())
	telemetry.AddSpanAttributes(span, map[string]any{
		"priorities": len(priorities),
		"activities": len(res.Activities),
		"fillers":    res.Fillers,
	})
	p.logger.Info().
		Int("priorities", len(priorities)).
		Int("activities", len(res.Activities)).
		Int("omitted", len(res.Omitted())).
		Int("fillers", res.Fillers).
		Msg("planning completed")

	return res, nil
}

func (p *Planner) propose(ctx context.Context, priorities []string) ([]Proposal, error) {
	proposals := make([]Proposal, len(priorities))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)
	for i, kind := range priorities {
		proposer := p.proposers[kind]
		g.Go(func() error {
			prop, err := proposer.Propose(gctx, kind)
			if err != nil {
				return fmt.Errorf("propose %s: %w", kind, err)
			}
			proposals[i] = prop
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return proposals, nil
}

func (p *Planner) allocate(set *interval.Set, kind string, prop Proposal) (Outcome, error) {
	if prop.Ranked {
		return p.allocateRanked(set, kind, prop.Candidates)
	}
	if len(prop.Candidates) != 1 {
		return Outcome{}, fmt.Errorf("%w: kind %q proposed %d deterministic candidates", ErrConfigInconsistency, kind, len(prop.Candidates))
	}
	return p.allocateSingle(set, kind, prop.Candidates[0])
}

func (p *Planner) allocateSingle(set *interval.Set, kind string, c Candidate) (Outcome, error) {
	iv := interval.Interval{Start: c.Start, End: c.End}
	if !iv.Start.Before(iv.End) {
		return Outcome{}, fmt.Errorf("%w: kind %q has empty window", ErrConfigInconsistency, kind)
	}
	resolved, shifts, err := interval.Resolve(set, iv, p.cfg.ModeSeparation, p.cfg.MaxPostponements)
	telemetry.PostponementsTotal.Add(float64(shifts))
	if errors.Is(err, interval.ErrSchedulingExhausted) {
		p.logger.Warn().Str("kind", kind).Int("shifts", shifts).Msg("activity rejected")
		return Outcome{Kind: kind, Status: StatusRejected, Shifts: shifts, Reason: err.Error()}, nil
	}
	if err != nil {
		return Outcome{}, err
	}
	return p.book(set, kind, c, resolved, shifts)
}

func (p *Planner) allocateRanked(set *interval.Set, kind string, cs []Candidate) (Outcome, error) {
	if len(cs) == 0 {
		p.logger.Warn().Str("kind", kind).Msg("activity omitted: no candidates")
		return Outcome{Kind: kind, Status: StatusOmitted, Reason: "no candidates"}, nil
	}
	skipped := 0
	for _, c := range cs {
		iv := interval.Interval{Start: c.Start, End: c.End}
		if !iv.Start.Before(iv.End) || iv.Start.Before(p.cfg.MissionStart) || set.Collides(iv) {
			skipped++
			continue
		}
		return p.book(set, kind, c, iv, 0)
	}
	reason := fmt.Sprintf("all %d candidates collide or precede mission start", skipped)
	p.logger.Warn().Str("kind", kind).Int("candidates", len(cs)).Msg("activity omitted")
	return Outcome{Kind: kind, Status: StatusOmitted, Reason: reason}, nil
}

func (p *Planner) book(set *interval.Set, kind string, c Candidate, iv interval.Interval, shifts int) (Outcome, error) {
	if err := set.Book(kind, iv); err != nil {
		return Outcome{}, err
	}
	act := models.Activity{
		Kind:       kind,
		Start:      iv.Start,
		End:        iv.End,
		Parameters: c.Parameters,
		Annotation: annotate(c, shifts),
	}
	out := Outcome{Kind: kind, Status: StatusScheduled, Activity: act, Shifts: shifts}
	out.Warnings = p.boundaryWarnings(act)
	for _, w := range out.Warnings {
		telemetry.BoundaryWarningsTotal.WithLabelValues(string(w.Reason)).Inc()
		p.logger.Warn().Str("kind", kind).Str("reason", string(w.Reason)).Msg(w.Message)
	}
	p.logger.Debug().Str("kind", kind).Time("start", iv.Start).Time("end", iv.End).Int("shifts", shifts).Msg("activity booked")
	return out, nil
}

func (p *Planner) boundaryWarnings(a models.Activity) []models.Warning {
	var out []models.Warning
	if a.Start.Before(p.cfg.MissionStart) {
		out = append(out, models.Warning{
			Kind: a.Kind, Reason: models.WarningBeforeMission, Start: a.Start, End: a.End,
			Message: "activity starts before mission start",
		})
	}
	if !p.cfg.MissionEnd.IsZero() && a.End.After(p.cfg.MissionEnd) {
		out = append(out, models.Warning{
			Kind: a.Kind, Reason: models.WarningAfterMission, Start: a.Start, End: a.End,
			Message: "activity ends after mission end",
		})
	}
	return out
}

func annotate(c Candidate, shifts int) string {
	parts := make([]string, 0, 2)
	if c.Annotation != "" {
		parts = append(parts, c.Annotation)
	}
	parts = append(parts, fmt.Sprintf("postponed %d times; figure of merit %g", shifts, c.Merit))
	return strings.Join(parts, "; ")
}
