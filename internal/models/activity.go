/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrInvalidActivity indicates an activity whose window is empty or inverted.
var ErrInvalidActivity = errors.New("activity start must be before end")

// Activity is one scheduled block of payload behaviour.
type Activity struct {
	Kind       string         `json:"kind"`
	Start      time.Time      `json:"start"`
	End        time.Time      `json:"end"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Annotation string         `json:"annotation,omitempty"`
}

// Duration returns End - Start.
func (a Activity) Duration() time.Duration {
	return a.End.Sub(a.Start)
}

// Validate checks the start < end invariant.
func (a Activity) Validate() error {
	if !a.Start.Before(a.End) {
		return fmt.Errorf("%s [%s, %s): %w", a.Kind, a.Start.Format(time.RFC3339), a.End.Format(time.RFC3339), ErrInvalidActivity)
	}
	return nil
}

// Timeline is the frozen, chronologically sorted activity list handed from the
// planner to the sequencer. The zero value is an empty timeline.
type Timeline struct {
	start      time.Time
	end        time.Time
	activities []Activity
}

// NewTimeline validates and sorts activities into a Timeline bounded by the
// mission window [start, end). The input slice is not retained.
func NewTimeline(start, end time.Time, activities []Activity) (Timeline, error) {
	if !start.Before(end) {
		return Timeline{}, fmt.Errorf("mission window [%s, %s) is empty", start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	sorted := make([]Activity, len(activities))
	for i, a := range activities {
		if err := a.Validate(); err != nil {
			return Timeline{}, err
		}
		sorted[i] = a.clone()
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Start.Equal(sorted[j].Start) {
			return sorted[i].Start.Before(sorted[j].Start)
		}
		return sorted[i].Kind < sorted[j].Kind
	})
	return Timeline{start: start, end: end, activities: sorted}, nil
}

// Start is the mission start; command relative times are offsets from it.
func (t Timeline) Start() time.Time { return t.start }

// End is the mission end.
func (t Timeline) End() time.Time { return t.end }

// Len returns the number of activities.
func (t Timeline) Len() int { return len(t.activities) }

// Activities returns a copy of the sorted activities.
func (t Timeline) Activities() []Activity {
	out := make([]Activity, len(t.activities))
	for i, a := range t.activities {
		out[i] = a.clone()
	}
	return out
}

type timelineJSON struct {
	Start      time.Time  `json:"start"`
	End        time.Time  `json:"end"`
	Activities []Activity `json:"activities"`
}

// MarshalJSON encodes the timeline artifact.
func (t Timeline) MarshalJSON() ([]byte, error) {
	acts := t.activities
	if acts == nil {
		acts = []Activity{}
	}
	return json.Marshal(timelineJSON{Start: t.start, End: t.end, Activities: acts})
}

// UnmarshalJSON decodes and re-validates a timeline artifact.
func (t *Timeline) UnmarshalJSON(data []byte) error {
	var raw timelineJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	tl, err := NewTimeline(raw.Start, raw.End, raw.Activities)
	if err != nil {
		return err
	}
	*t = tl
	return nil
}

func (a Activity) clone() Activity {
	if a.Parameters == nil {
		return a
	}
	params := make(map[string]any, len(a.Parameters))
	for k, v := range a.Parameters {
		params[k] = v
	}
	a.Parameters = params
	return a
}
