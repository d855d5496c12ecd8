/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package ccdsync derives a shared trigger cadence and per-sensor start
// offsets so that synchronized sensors never read out over each other.
package ccdsync

import (
	"errors"
	"fmt"
	"sort"

	"github.com/friendsincode/missionplan/internal/readout"
)

// TickMS is the resolution of the offset and interval registers.
const TickMS = 10

var (
	// ErrTimingOverflow indicates the active sensors cannot be packed under the interval ceiling.
	ErrTimingOverflow = errors.New("sensor synchronization exceeds interval ceiling")

	// ErrNoSensors indicates an empty sensor list.
	ErrNoSensors = errors.New("no sensors configured")
)

// Sensor is one sensor's window and exposure for this cycle. ExposureMS of
// zero disables the sensor.
type Sensor struct {
	Name       string         `yaml:"name" json:"name"`
	ExposureMS int            `yaml:"exposure_ms" json:"exposure_ms"`
	Window     readout.Window `yaml:",inline" json:"window"`
}

// Options bound the packing. FloorMS is the smallest allowed interval and the
// fallback when every sensor is disabled; CeilingMS of zero means unbounded.
type Options struct {
	MarginMS      int `yaml:"margin_ms"`
	ExtraOffsetMS int `yaml:"extra_offset_ms"`
	FloorMS       int `yaml:"floor_ms"`
	CeilingMS     int `yaml:"ceiling_ms"`
}

// Slot is the computed schedule of one sensor.
type Slot struct {
	Index      int          `json:"index"`
	Name       string       `json:"name"`
	Active     bool         `json:"active"`
	ExposureMS int          `json:"exposure_ms"`
	ReadoutMS  int          `json:"readout_ms"`
	OffsetMS   int          `json:"offset_ms"`
	Plan       readout.Plan `json:"plan"`
}

// Settings is the synchronization result, in sensor index order.
type Settings struct {
	Slots              []Slot `json:"slots"`
	ExposureIntervalMS int    `json:"exposure_interval_ms"`
	SelectMask         uint32 `json:"select_mask"`
	ActiveCount        int    `json:"active_count"`
}

// Offsets returns the start offsets of all sensors in index order; disabled
// sensors report zero.
func (s Settings) Offsets() []int {
	out := make([]int, len(s.Slots))
	for i, slot := range s.Slots {
		out[i] = slot.OffsetMS
	}
	return out
}

// Calculator combines readout plans into synchronization settings.
type Calculator struct {
	model *readout.Model
	opts  Options
}

// NewCalculator constructs a calculator.
func NewCalculator(model *readout.Model, opts Options) *Calculator {
	if opts.MarginMS < 0 {
		opts.MarginMS = 0
	}
	if opts.ExtraOffsetMS < 0 {
		opts.ExtraOffsetMS = 0
	}
	return &Calculator{model: model, opts: opts}
}

// Synchronize computes settings for sensors.
func (c *Calculator) Synchronize(sensors []Sensor) (Settings, error) {
	if len(sensors) == 0 {
		return Settings{}, ErrNoSensors
	}
	if len(sensors) > 32 {
		return Settings{}, fmt.Errorf("%d sensors do not fit a 32-bit select mask", len(sensors))
	}

	settings := Settings{Slots: make([]Slot, len(sensors))}
	var active []int
	for i, s := range sensors {
		plan, err := c.model.Plan(s.Window)
		if err != nil {
			return Settings{}, fmt.Errorf("sensor %d (%s): %w", i, s.Name, err)
		}
		settings.Slots[i] = Slot{
			Index:      i,
			Name:       s.Name,
			Active:     s.ExposureMS > 0,
			ExposureMS: s.ExposureMS,
			ReadoutMS:  plan.ReadoutMS(),
			Plan:       plan,
		}
		if s.ExposureMS > 0 {
			active = append(active, i)
			settings.SelectMask |= 1 << uint(i)
		}
	}
	settings.ActiveCount = len(active)

	if len(active) == 0 {
		settings.ExposureIntervalMS = c.opts.FloorMS
		return settings, nil
	}

	sort.SliceStable(active, func(a, b int) bool {
		return settings.Slots[active[a]].ExposureMS < settings.Slots[active[b]].ExposureMS
	})

	margin := c.opts.MarginMS
	cursor := c.opts.ExtraOffsetMS
	prevEnd := 0
	maxOffset := 0
	last := active[0]
	interval := 0
	for _, idx := range active {
		slot := &settings.Slots[idx]
		offset := roundToTick(cursor)
		for offset < prevEnd {
			offset += TickMS
		}
		slot.OffsetMS = offset
		prevEnd = offset + slot.ReadoutMS
		cursor = prevEnd + margin
		if offset >= maxOffset {
			maxOffset = offset
			last = idx
		}
		interval = max(interval, slot.ReadoutMS+slot.ExposureMS+margin)
	}

	// A fast sensor would retrigger while the last window still holds the bus.
	fastest := settings.Slots[active[0]]
	if fastest.ExposureMS < maxOffset {
		interval = max(interval, maxOffset+settings.Slots[last].ReadoutMS+margin)
	}
	interval = max(interval, c.opts.FloorMS)
	interval = ceilToTick(interval)

	if c.opts.CeilingMS > 0 && interval > c.opts.CeilingMS {
		return Settings{}, fmt.Errorf("interval %d ms > %d ms for %d sensors: %w", interval, c.opts.CeilingMS, len(active), ErrTimingOverflow)
	}
	settings.ExposureIntervalMS = interval
	return settings, nil
}

func roundToTick(ms int) int {
	return (ms + TickMS/2) / TickMS * TickMS
}

func ceilToTick(ms int) int {
	return (ms + TickMS - 1) / TickMS * TickMS
}
