/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package interval

import (
	"errors"
	"testing"
	"time"
)

var epoch = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func at(sec int) time.Time {
	return epoch.Add(time.Duration(sec) * time.Second)
}

func iv(start, end int) Interval {
	return Interval{Start: at(start), End: at(end)}
}

func TestCollision(t *testing.T) {
	existing := iv(150, 180)

	tests := []struct {
		name     string
		proposed Interval
		collides bool
	}{
		{"start inside", iv(160, 200), true},
		{"end inside", iv(100, 160), true},
		{"contains", iv(100, 200), true},
		{"identical", iv(150, 180), true},
		{"inside", iv(155, 170), true},
		{"abuts before", iv(100, 150), false},
		{"abuts after", iv(180, 200), false},
		{"disjoint", iv(300, 400), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.proposed.collidesWith(existing); got != tt.collides {
				t.Errorf("collidesWith = %v, want %v", got, tt.collides)
			}
		})
	}
}

func TestResolveShiftsPastExisting(t *testing.T) {
	set := NewSet()
	if err := set.Book("Mode120", iv(150, 180)); err != nil {
		t.Fatalf("book: %v", err)
	}

	got, shifts, err := Resolve(set, iv(100, 200), 60*time.Second, 100)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if shifts != 1 {
		t.Fatalf("shifts = %d, want 1", shifts)
	}
	if !got.Start.Equal(at(220)) || !got.End.Equal(at(320)) {
		t.Fatalf("resolved = [%v, %v), want [220s, 320s)", got.Start.Sub(epoch), got.End.Sub(epoch))
	}
	if set.Collides(got) {
		t.Fatal("resolved interval still collides")
	}
}

func TestResolveRestartsScanAfterShift(t *testing.T) {
	set := NewSet()
	// The second booking only collides after the first shift, and lies before
	// the third in scan order.
	for i, b := range []Interval{iv(0, 100), iv(130, 180), iv(500, 600)} {
		if err := set.Book("K", b); err != nil {
			t.Fatalf("book %d: %v", i, err)
		}
	}

	got, shifts, err := Resolve(set, iv(50, 90), 30*time.Second, 100)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	// [110,150) ends inside [130,180), [170,210) starts inside it, [230,270) is free.
	if shifts != 3 {
		t.Fatalf("shifts = %d, want 3", shifts)
	}
	if !got.Start.Equal(at(230)) {
		t.Fatalf("start = %v, want 230s", got.Start.Sub(epoch))
	}
}

func TestResolveNoCollisionKeepsInterval(t *testing.T) {
	set := NewSet()
	want := iv(10, 20)
	got, shifts, err := Resolve(set, want, time.Minute, 0)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if shifts != 0 || got != want {
		t.Fatalf("got %v after %d shifts, want unchanged", got, shifts)
	}
}

func TestResolveCapReturnsExhausted(t *testing.T) {
	set := NewSet()
	if err := set.Book("K", iv(0, 10000)); err != nil {
		t.Fatalf("book: %v", err)
	}

	_, shifts, err := Resolve(set, iv(0, 100), time.Second, 5)
	if !errors.Is(err, ErrSchedulingExhausted) {
		t.Fatalf("err = %v, want ErrSchedulingExhausted", err)
	}
	if shifts != 5 {
		t.Fatalf("shifts = %d, want 5", shifts)
	}
}

func TestResolveZeroSeparationExhausts(t *testing.T) {
	set := NewSet()
	if err := set.Book("K", iv(0, 100)); err != nil {
		t.Fatalf("book: %v", err)
	}
	if _, _, err := Resolve(set, iv(50, 60), 0, 1000); !errors.Is(err, ErrSchedulingExhausted) {
		t.Fatalf("err = %v, want ErrSchedulingExhausted", err)
	}
}

func TestBookRejectsOverlapAndKeepsOrder(t *testing.T) {
	set := NewSet()
	for _, b := range []Interval{iv(300, 400), iv(0, 100), iv(150, 200)} {
		if err := set.Book("K", b); err != nil {
			t.Fatalf("book: %v", err)
		}
	}
	if err := set.Book("Other", iv(350, 450)); !errors.Is(err, ErrOverlap) {
		t.Fatalf("err = %v, want ErrOverlap", err)
	}
	if err := set.Book("Other", iv(5, 5)); !errors.Is(err, ErrEmptyInterval) {
		t.Fatalf("err = %v, want ErrEmptyInterval", err)
	}
	if set.Version() != 3 {
		t.Fatalf("version = %d, want 3", set.Version())
	}

	bookings := set.Bookings()
	for i := 1; i < len(bookings); i++ {
		if !bookings[i-1].Start.Before(bookings[i].Start) {
			t.Fatalf("bookings not sorted at %d", i)
		}
	}
	if got := len(set.ByKind()["K"]); got != 3 {
		t.Fatalf("ByKind[K] = %d, want 3", got)
	}
}
