/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package models

import "time"

// Arg is one ordered command argument.
type Arg struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// Command is a single timed hardware command. RelativeTime is the offset from
// the timeline start.
type Command struct {
	RelativeTime time.Duration `json:"relative_time"`
	Mnemonic     string        `json:"mnemonic"`
	Args         []Arg         `json:"args,omitempty"`
	Comment      string        `json:"comment,omitempty"`
}

// Arg returns the value of the named argument.
func (c Command) Arg(name string) (any, bool) {
	for _, a := range c.Args {
		if a.Name == name {
			return a.Value, true
		}
	}
	return nil, false
}

// PointingState tracks the last settled pointing altitude. It is known only
// after a zero-rate pointing command; a sweep makes it unknown again.
type PointingState struct {
	altitude float64
	settled  bool
}

// Settle records a completed fixed-rate pointing command.
func (p *PointingState) Settle(altitude float64) {
	p.altitude = altitude
	p.settled = true
}

// Invalidate forgets the attitude after a ramped move.
func (p *PointingState) Invalidate() {
	p.altitude = 0
	p.settled = false
}

// SettledAt reports whether the attitude is known to be settled at altitude.
func (p PointingState) SettledAt(altitude float64) bool {
	return p.settled && p.altitude == altitude
}

// Altitude returns the settled altitude and whether it is known.
func (p PointingState) Altitude() (float64, bool) {
	return p.altitude, p.settled
}
