/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package sequencer turns a frozen timeline into a time-monotonic command stream.
package sequencer

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/missionplan/internal/models"
	"github.com/friendsincode/missionplan/internal/telemetry"
)

// Pointing marks a step as an attitude command. A zero Rate holds the limb
// pointing at Altitude; any other rate sweeps and leaves the final attitude
// unknown at issue time.
type Pointing struct {
	Altitude float64
	Rate     float64
}

// Step is one command produced by a macro expansion. TimeCost is the dwell the
// command needs before the next one may be issued.
type Step struct {
	Mnemonic string
	Args     []models.Arg
	TimeCost time.Duration
	Pointing *Pointing
}

// Translator expands an activity into its command burst.
type Translator interface {
	Expand(kind string, relativeTime time.Duration, params map[string]any) ([]Step, error)
}

// Config holds the timing constraints of the command stream.
type Config struct {
	CommandSeparation     time.Duration
	PointingStabilization time.Duration
	// Durations maps kinds to their configured duration; activities that
	// disagree are reported. Kinds without an entry are not checked.
	Durations map[string]time.Duration
}

// Result is the output of one sequencing pass.
type Result struct {
	Commands []models.Command
	Warnings []models.Warning
	Elided   int
}

// Sequencer expands timelines. It holds no per-pass state and may be reused.
type Sequencer struct {
	translator Translator
	cfg        Config
	logger     zerolog.Logger
}

// New constructs a sequencer.
func New(translator Translator, cfg Config, logger zerolog.Logger) *Sequencer {
	return &Sequencer{
		translator: translator,
		cfg:        cfg,
		logger:     logger.With().Str("component", "sequencer").Logger(),
	}
}

// pass is the state owned by a single Sequence call.
type pass struct {
	cursor   time.Duration
	pointing models.PointingState
	result   Result
}

// Sequence walks tl in order and emits commands. Boundary problems are
// reported as warnings; a translator failure aborts the pass.
func (s *Sequencer) Sequence(ctx context.Context, tl models.Timeline) (Result, error) {
	_, span := telemetry.StartSpan(ctx, "sequencer", "Sequence")
	defer span.End()
	started := time.Now()

	p := &pass{}
	for _, a := range tl.Activities() {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		if err := s.sequenceActivity(p, tl, a); err != nil {
			telemetry.RecordError(span, err)
			return Result{}, err
		}
	}

	telemetry.CommandsEmittedTotal.Add(float64(len(p.result.Commands)))
	telemetry.PointingElidedTotal.Add(float64(p.result.Elided))
	telemetry.PassDuration.WithLabelValues("sequence").Observe(time.Since(started).Seconds())
	telemetry.AddSpanAttributes(span, map[string]any{
		"activities": tl.Len(),
		"commands":   len(p.result.Commands),
		"elided":     p.result.Elided,
	})

	s.logger.Info().
		Int("activities", tl.Len()).
		Int("commands", len(p.result.Commands)).
		Int("elided", p.result.Elided).
		Int("warnings", len(p.result.Warnings)).
		Msg("sequencing completed")

	return p.result, nil
}

func (s *Sequencer) sequenceActivity(p *pass, tl models.Timeline, a models.Activity) error {
	s.checkBounds(p, tl, a)

	offset := a.Start.Sub(tl.Start())
	start := max(offset, p.cursor)
	if offset >= 0 && start > offset {
		s.warn(p, a, models.WarningDelayedBurst, fmt.Sprintf("commands delayed by %s behind previous burst", start-offset))
	}
	p.cursor = start

	steps, err := s.translator.Expand(a.Kind, start, a.Parameters)
	if err != nil {
		return fmt.Errorf("expand %s at %s: %w", a.Kind, a.Start.Format(time.RFC3339), err)
	}

	first := true
	for _, step := range steps {
		if step.Pointing != nil && step.Pointing.Rate == 0 {
			if p.pointing.SettledAt(step.Pointing.Altitude) {
				p.result.Elided++
				s.logger.Debug().Str("kind", a.Kind).Float64("altitude", step.Pointing.Altitude).Msg("pointing command elided")
				continue
			}
			s.emit(p, a, step, &first)
			p.pointing.Settle(step.Pointing.Altitude)
			p.cursor += s.cfg.PointingStabilization
			continue
		}
		if step.Pointing != nil {
			p.pointing.Invalidate()
		}
		s.emit(p, a, step, &first)
		p.cursor += max(s.cfg.CommandSeparation, step.TimeCost)
	}

	if end := tl.Start().Add(p.cursor); end.After(a.End) {
		s.warn(p, a, models.WarningBurstOverrun, fmt.Sprintf("commands run %s past activity end", end.Sub(a.End)))
	}
	return nil
}

func (s *Sequencer) emit(p *pass, a models.Activity, step Step, first *bool) {
	comment := a.Kind
	if *first && a.Annotation != "" {
		comment = a.Kind + ": " + a.Annotation
	}
	*first = false

	args := make([]models.Arg, len(step.Args))
	copy(args, step.Args)
	p.result.Commands = append(p.result.Commands, models.Command{
		RelativeTime: p.cursor,
		Mnemonic:     step.Mnemonic,
		Args:         args,
		Comment:      comment,
	})
}

func (s *Sequencer) checkBounds(p *pass, tl models.Timeline, a models.Activity) {
	if a.Start.Before(tl.Start()) {
		s.warn(p, a, models.WarningBeforeMission, "activity starts before mission start "+tl.Start().Format(time.RFC3339))
	}
	if a.End.After(tl.End()) {
		s.warn(p, a, models.WarningAfterMission, "activity ends after mission end "+tl.End().Format(time.RFC3339))
	}
	if want, ok := s.cfg.Durations[a.Kind]; ok && want > 0 && a.Duration() != want {
		s.warn(p, a, models.WarningDurationMismatch, fmt.Sprintf("duration %s, configured %s", a.Duration(), want))
	}
}

func (s *Sequencer) warn(p *pass, a models.Activity, reason models.WarningReason, msg string) {
	p.result.Warnings = append(p.result.Warnings, models.Warning{
		Kind:    a.Kind,
		Reason:  reason,
		Message: msg,
		Start:   a.Start,
		End:     a.End,
	})
	telemetry.BoundaryWarningsTotal.WithLabelValues(string(reason)).Inc()
	s.logger.Warn().
		Str("kind", a.Kind).
		Str("reason", string(reason)).
		Time("start", a.Start).
		Time("end", a.End).
		Msg(msg)
}
