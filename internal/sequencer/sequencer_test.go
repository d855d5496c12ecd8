/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package sequencer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/missionplan/internal/models"
)

var missionStart = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

type fakeTranslator struct {
	macros map[string][]Step
	calls  []time.Duration
	err    error
}

func (f *fakeTranslator) Expand(kind string, rel time.Duration, _ map[string]any) ([]Step, error) {
	f.calls = append(f.calls, rel)
	if f.err != nil {
		return nil, f.err
	}
	return f.macros[kind], nil
}

func point(alt, rate float64) Step {
	return Step{
		Mnemonic: "TC_acfLimbPointingAltitudeOffset",
		Args:     []models.Arg{{Name: "Initial", Value: alt}, {Name: "Final", Value: alt}, {Name: "Rate", Value: rate}},
		Pointing: &Pointing{Altitude: alt, Rate: rate},
	}
}

func plain(mnemonic string) Step {
	return Step{Mnemonic: mnemonic}
}

func activity(kind string, startSec, endSec int) models.Activity {
	return models.Activity{
		Kind:  kind,
		Start: missionStart.Add(time.Duration(startSec) * time.Second),
		End:   missionStart.Add(time.Duration(endSec) * time.Second),
	}
}

func timeline(t *testing.T, acts ...models.Activity) models.Timeline {
	t.Helper()
	tl, err := models.NewTimeline(missionStart, missionStart.Add(24*time.Hour), acts)
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}
	return tl
}

func newSequencer(tr Translator) *Sequencer {
	return New(tr, Config{CommandSeparation: 2 * time.Second, PointingStabilization: 60 * time.Second}, zerolog.Nop())
}

func TestSequenceElidesRepeatedPointing(t *testing.T) {
	tr := &fakeTranslator{macros: map[string][]Step{
		"Mode120": {point(92500, 0), plain("TC_pafMode")},
	}}
	tl := timeline(t, activity("Mode120", 0, 600), activity("Mode120", 600, 1200))

	res, err := newSequencer(tr).Sequence(context.Background(), tl)
	if err != nil {
		t.Fatalf("sequence: %v", err)
	}

	pointing := 0
	for _, c := range res.Commands {
		if c.Mnemonic == "TC_acfLimbPointingAltitudeOffset" {
			pointing++
		}
	}
	if pointing != 1 {
		t.Fatalf("pointing commands = %d, want 1", pointing)
	}
	if res.Elided != 1 {
		t.Fatalf("elided = %d, want 1", res.Elided)
	}
	if len(res.Commands) != 3 {
		t.Fatalf("commands = %d, want 3", len(res.Commands))
	}
	// Pointing at 0 settles for 60s, mode at 60s, second burst starts at 600s.
	wantTimes := []time.Duration{0, 60 * time.Second, 600 * time.Second}
	for i, c := range res.Commands {
		if c.RelativeTime != wantTimes[i] {
			t.Fatalf("command %d at %v, want %v", i, c.RelativeTime, wantTimes[i])
		}
	}
}

func TestSequenceSweepInvalidatesPointing(t *testing.T) {
	tr := &fakeTranslator{macros: map[string][]Step{
		"Sweep": {point(92500, 0), point(92500, 5), point(92500, 0)},
	}}
	tl := timeline(t, activity("Sweep", 0, 600))

	res, err := newSequencer(tr).Sequence(context.Background(), tl)
	if err != nil {
		t.Fatalf("sequence: %v", err)
	}
	if len(res.Commands) != 3 || res.Elided != 0 {
		t.Fatalf("commands/elided = %d/%d, want 3/0", len(res.Commands), res.Elided)
	}
	want := []time.Duration{0, 60 * time.Second, 62 * time.Second}
	for i, c := range res.Commands {
		if c.RelativeTime != want[i] {
			t.Fatalf("command %d at %v, want %v", i, c.RelativeTime, want[i])
		}
	}
}

func TestSequenceIsMonotonicAndDelaysOverlappingBursts(t *testing.T) {
	long := make([]Step, 0, 10)
	for i := 0; i < 10; i++ {
		long = append(long, Step{Mnemonic: "TC_pafWait", TimeCost: 30 * time.Second})
	}
	tr := &fakeTranslator{macros: map[string][]Step{
		"Long":  long,
		"Short": {plain("TC_pafMode"), plain("TC_pafUpload")},
	}}
	tl := timeline(t, activity("Long", 0, 200), activity("Short", 200, 400))

	res, err := newSequencer(tr).Sequence(context.Background(), tl)
	if err != nil {
		t.Fatalf("sequence: %v", err)
	}
	for i := 1; i < len(res.Commands); i++ {
		if res.Commands[i].RelativeTime < res.Commands[i-1].RelativeTime {
			t.Fatalf("command %d at %v before command %d at %v", i, res.Commands[i].RelativeTime, i-1, res.Commands[i-1].RelativeTime)
		}
	}
	if tr.calls[1] != 300*time.Second {
		t.Fatalf("second burst expanded at %v, want 300s", tr.calls[1])
	}

	reasons := map[models.WarningReason]int{}
	for _, w := range res.Warnings {
		reasons[w.Reason]++
	}
	if reasons[models.WarningBurstOverrun] != 1 || reasons[models.WarningDelayedBurst] != 1 {
		t.Fatalf("warnings = %v, want one overrun and one delayed burst", reasons)
	}
}

func TestSequenceReportsBoundaryButEmits(t *testing.T) {
	tr := &fakeTranslator{macros: map[string][]Step{"Mode1": {plain("TC_pafMode")}}}
	tl, err := models.NewTimeline(missionStart, missionStart.Add(time.Hour), []models.Activity{
		activity("Mode1", 3000, 4000),
	})
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}
	seq := New(tr, Config{
		CommandSeparation: time.Second,
		Durations:         map[string]time.Duration{"Mode1": 600 * time.Second},
	}, zerolog.Nop())

	res, err := seq.Sequence(context.Background(), tl)
	if err != nil {
		t.Fatalf("sequence: %v", err)
	}
	if len(res.Commands) != 1 {
		t.Fatalf("commands = %d, want 1", len(res.Commands))
	}
	got := map[models.WarningReason]bool{}
	for _, w := range res.Warnings {
		got[w.Reason] = true
	}
	if !got[models.WarningAfterMission] || !got[models.WarningDurationMismatch] {
		t.Fatalf("warnings = %+v, want after-mission and duration mismatch", res.Warnings)
	}
}

func TestSequenceCommentsCarryAnnotation(t *testing.T) {
	tr := &fakeTranslator{macros: map[string][]Step{"Mode1": {plain("A"), plain("B")}}}
	a := activity("Mode1", 0, 100)
	a.Annotation = "postponed 0 times"

	res, err := newSequencer(tr).Sequence(context.Background(), timeline(t, a))
	if err != nil {
		t.Fatalf("sequence: %v", err)
	}
	if res.Commands[0].Comment != "Mode1: postponed 0 times" || res.Commands[1].Comment != "Mode1" {
		t.Fatalf("comments = %q, %q", res.Commands[0].Comment, res.Commands[1].Comment)
	}
}

func TestSequenceTranslatorErrorAborts(t *testing.T) {
	boom := errors.New("no macro")
	tr := &fakeTranslator{err: boom}

	_, err := newSequencer(tr).Sequence(context.Background(), timeline(t, activity("X", 0, 10)))
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped translator error", err)
	}
}

func TestSequencePointingStateIsPassScoped(t *testing.T) {
	tr := &fakeTranslator{macros: map[string][]Step{"Mode1": {point(90000, 0)}}}
	seq := newSequencer(tr)
	tl := timeline(t, activity("Mode1", 0, 100))

	for run := 0; run < 2; run++ {
		res, err := seq.Sequence(context.Background(), tl)
		if err != nil {
			t.Fatalf("run %d: %v", run, err)
		}
		if len(res.Commands) != 1 {
			t.Fatalf("run %d: commands = %d, want 1", run, len(res.Commands))
		}
	}
}
