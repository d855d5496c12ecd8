/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package interval keeps the set of booked activity windows and resolves
// proposed windows against it by postponement.
package interval

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

var (
	// ErrSchedulingExhausted indicates no free slot was found within the postponement cap.
	ErrSchedulingExhausted = errors.New("scheduling exhausted")

	// ErrOverlap indicates a booking would overlap an existing one.
	ErrOverlap = errors.New("interval overlaps an existing booking")

	// ErrEmptyInterval indicates start is not before end.
	ErrEmptyInterval = errors.New("interval start must be before end")
)

// Interval is a half-open time window [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Duration returns End - Start.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// Shift moves both bounds by d.
func (iv Interval) Shift(d time.Duration) Interval {
	return Interval{Start: iv.Start.Add(d), End: iv.End.Add(d)}
}

// Booking is an interval owned by an activity kind.
type Booking struct {
	Kind string
	Interval
}

// collidesWith reports whether iv collides with other: either bound strictly
// inside other, or iv covering other entirely. Abutment is not a collision.
func (iv Interval) collidesWith(other Interval) bool {
	if strictlyInside(iv.Start, other) || strictlyInside(iv.End, other) {
		return true
	}
	return !iv.Start.After(other.Start) && !iv.End.Before(other.End)
}

func strictlyInside(t time.Time, iv Interval) bool {
	return t.After(iv.Start) && t.Before(iv.End)
}

// Set is the occupied timeline: bookings sorted by start, never overlapping.
// It is owned by a single planner pass and is not safe for concurrent use.
type Set struct {
	bookings []Booking
	version  uint64
}

// NewSet returns an empty set.
func NewSet() *Set {
	return &Set{}
}

// Len returns the number of bookings.
func (s *Set) Len() int { return len(s.bookings) }

// Version increments on every successful Book.
func (s *Set) Version() uint64 { return s.version }

// Book records iv under kind.
func (s *Set) Book(kind string, iv Interval) error {
	if !iv.Start.Before(iv.End) {
		return ErrEmptyInterval
	}
	if other, ok := s.firstCollision(iv); ok {
		return fmt.Errorf("%s [%s, %s) vs %s: %w", kind, iv.Start.Format(time.RFC3339), iv.End.Format(time.RFC3339), other.Kind, ErrOverlap)
	}
	idx := sort.Search(len(s.bookings), func(i int) bool {
		return iv.Start.Before(s.bookings[i].Start)
	})
	s.bookings = append(s.bookings, Booking{})
	copy(s.bookings[idx+1:], s.bookings[idx:])
	s.bookings[idx] = Booking{Kind: kind, Interval: iv}
	s.version++
	return nil
}

// Collides reports whether iv collides with any booking.
func (s *Set) Collides(iv Interval) bool {
	_, ok := s.firstCollision(iv)
	return ok
}

func (s *Set) firstCollision(iv Interval) (Booking, bool) {
	for _, b := range s.bookings {
		if iv.collidesWith(b.Interval) {
			return b, true
		}
	}
	return Booking{}, false
}

// Bookings returns a copy of all bookings in ascending start order.
func (s *Set) Bookings() []Booking {
	out := make([]Booking, len(s.bookings))
	copy(out, s.bookings)
	return out
}

// ByKind groups bookings by kind.
func (s *Set) ByKind() map[string][]Interval {
	out := make(map[string][]Interval)
	for _, b := range s.bookings {
		out[b.Kind] = append(out[b.Kind], b.Interval)
	}
	return out
}

// Resolve postpones iv until it collides with nothing in s. Each collision
// shifts both bounds by 2*separation and restarts the scan from the first
// booking. It returns the final interval and the number of shifts; more than
// maxShifts shifts (or a collision with no positive separation) yields
// ErrSchedulingExhausted.
func Resolve(s *Set, iv Interval, separation time.Duration, maxShifts int) (Interval, int, error) {
	step := 2 * separation
	shifts := 0
	for {
		if !s.Collides(iv) {
			return iv, shifts, nil
		}
		if step <= 0 || shifts >= maxShifts {
			return iv, shifts, fmt.Errorf("gave up after %d postponements: %w", shifts, ErrSchedulingExhausted)
		}
		iv = iv.Shift(step)
		shifts++
	}
}
