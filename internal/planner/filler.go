/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package planner

import (
	"fmt"
	"time"

	"github.com/friendsincode/missionplan/internal/interval"
	"github.com/friendsincode/missionplan/internal/models"
)

// FillerKindFunc picks the filler kind for a gap starting at start.
type FillerKindFunc func(start time.Time) string

// SeasonalRule maps calendar months to a filler kind.
type SeasonalRule struct {
	Kind   string
	Months []time.Month
}

// SeasonalFiller returns the kind of the first rule matching the gap's month,
// or fallback.
func SeasonalFiller(rules []SeasonalRule, fallback string) FillerKindFunc {
	byMonth := make(map[time.Month]string)
	for _, r := range rules {
		for _, m := range r.Months {
			if _, taken := byMonth[m]; !taken {
				byMonth[m] = r.Kind
			}
		}
	}
	return func(start time.Time) string {
		if kind, ok := byMonth[start.UTC().Month()]; ok {
			return kind
		}
		return fallback
	}
}

// Fill books a filler activity into every gap of set longer than
// cfg.MinFillDuration, leaving cfg.ModeSeparation free before the next
// booking. Gaps are bounded by the mission window.
func Fill(set *interval.Set, cfg Config) ([]models.Activity, error) {
	if cfg.Filler == nil {
		return nil, nil
	}

	var gaps []interval.Interval
	cursor := cfg.MissionStart
	for _, b := range set.Bookings() {
		if b.Start.After(cursor) {
			gaps = append(gaps, interval.Interval{Start: cursor, End: minTime(b.Start, cfg.MissionEnd)})
		}
		if b.End.After(cursor) {
			cursor = b.End
		}
	}
	if cfg.MissionEnd.After(cursor) {
		gaps = append(gaps, interval.Interval{Start: cursor, End: cfg.MissionEnd})
	}

	var out []models.Activity
	for _, gap := range gaps {
		if gap.Duration() <= cfg.MinFillDuration {
			continue
		}
		iv := interval.Interval{Start: gap.Start, End: gap.End.Add(-cfg.ModeSeparation)}
		if !iv.Start.Before(iv.End) {
			continue
		}
		kind := cfg.Filler(iv.Start)
		if kind == "" {
			continue
		}
		if err := set.Book(kind, iv); err != nil {
			return nil, fmt.Errorf("book filler: %w", err)
		}
		out = append(out, models.Activity{
			Kind:       kind,
			Start:      iv.Start,
			End:        iv.End,
			Parameters: cloneParams(cfg.FillerParameters[kind]),
			Annotation: fmt.Sprintf("filler for %s gap", gap.Duration()),
		})
	}
	return out, nil
}

func minTime(a, b time.Time) time.Time {
	if b.IsZero() || a.Before(b) {
		return a
	}
	return b
}

func cloneParams(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
