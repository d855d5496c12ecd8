/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package readout models CCD readout timing at clock-cycle granularity.
package readout

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrWindowTooWide indicates the binned column window does not fit the horizontal register.
	ErrWindowTooWide = errors.New("column window exceeds row length")

	// ErrWindowTooTall indicates the binned row window does not fit the image area.
	ErrWindowTooTall = errors.New("row window exceeds column height")

	// ErrInvalidWindow indicates a negative register value.
	ErrInvalidWindow = errors.New("invalid readout window")
)

// Window holds the readout register values of one sensor. Columns is encoded
// as count-1 and FPGABinExp as a power of two, as in the instrument registers.
// Zero bin factors mean no binning.
type Window struct {
	RowSkip    int `yaml:"row_skip" json:"row_skip"`
	RowBin     int `yaml:"row_bin" json:"row_bin"`
	Rows       int `yaml:"rows" json:"rows"`
	ColumnSkip int `yaml:"column_skip" json:"column_skip"`
	ColumnBin  int `yaml:"column_bin" json:"column_bin"`
	FPGABinExp int `yaml:"fpga_bin_exp" json:"fpga_bin_exp"`
	Columns    int `yaml:"columns" json:"columns"`
	Flushes    int `yaml:"flushes" json:"flushes"`
}

// Timing holds the clock constants of the readout electronics.
type Timing struct {
	ClockPeriod     time.Duration `yaml:"clock_period"`
	FullPixelCycles int64         `yaml:"full_pixel_cycles"`
	FastPixelCycles int64         `yaml:"fast_pixel_cycles"`
	RowShiftCycles  int64         `yaml:"row_shift_cycles"`
	RowLength       int           `yaml:"row_length"`
	ColumnHeight    int           `yaml:"column_height"`
}

// DefaultTiming returns the nominal electronics constants: a 20 MHz clock,
// 2.5 µs per digitized pixel, 0.2 µs per skipped pixel, and 60 µs per row shift.
func DefaultTiming() Timing {
	return Timing{
		ClockPeriod:     50 * time.Nanosecond,
		FullPixelCycles: 50,
		FastPixelCycles: 4,
		RowShiftCycles:  1200,
		RowLength:       2048,
		ColumnHeight:    511,
	}
}

// Plan is the derived timing of one window.
type Plan struct {
	ReadoutTime time.Duration `json:"readout_time"`
	DelayTime   time.Duration `json:"delay_time"`
	SmearTime   time.Duration `json:"smear_time"`
}

// ReadoutMS returns the readout time rounded up to whole milliseconds.
func (p Plan) ReadoutMS() int {
	return int((p.ReadoutTime + time.Millisecond - 1) / time.Millisecond)
}

// Model computes readout plans for a fixed timing.
type Model struct {
	timing Timing
}

// NewModel constructs a model; zero fields of t fall back to DefaultTiming.
func NewModel(t Timing) *Model {
	def := DefaultTiming()
	if t.ClockPeriod <= 0 {
		t.ClockPeriod = def.ClockPeriod
	}
	if t.FullPixelCycles <= 0 {
		t.FullPixelCycles = def.FullPixelCycles
	}
	if t.FastPixelCycles <= 0 {
		t.FastPixelCycles = def.FastPixelCycles
	}
	if t.RowShiftCycles <= 0 {
		t.RowShiftCycles = def.RowShiftCycles
	}
	if t.RowLength <= 0 {
		t.RowLength = def.RowLength
	}
	if t.ColumnHeight <= 0 {
		t.ColumnHeight = def.ColumnHeight
	}
	return &Model{timing: t}
}

// Timing returns the effective constants.
func (m *Model) Timing() Timing { return m.timing }

// Plan computes the readout, flush delay and smear times of w.
func (m *Model) Plan(w Window) (Plan, error) {
	cycles, err := m.Cycles(w)
	if err != nil {
		return Plan{}, err
	}
	return Plan{
		ReadoutTime: m.duration(cycles.Readout),
		DelayTime:   m.duration(cycles.Delay),
		SmearTime:   m.duration(cycles.Smear),
	}, nil
}

// CycleCount is a plan expressed in clock cycles.
type CycleCount struct {
	FullPixels int64
	FastPixels int64
	PerRow     int64
	Readout    int64
	Delay      int64
	Smear      int64
}

// Cycles computes the plan of w in clock cycles.
func (m *Model) Cycles(w Window) (CycleCount, error) {
	if w.RowSkip < 0 || w.RowBin < 0 || w.Rows < 0 || w.ColumnSkip < 0 ||
		w.ColumnBin < 0 || w.FPGABinExp < 0 || w.Columns < 0 || w.Flushes < 0 {
		return CycleCount{}, ErrInvalidWindow
	}
	if w.FPGABinExp > 10 {
		return CycleCount{}, fmt.Errorf("fpga bin exponent %d: %w", w.FPGABinExp, ErrInvalidWindow)
	}

	t := m.timing
	ncol := int64(w.Columns) + 1
	colBin := int64(max(w.ColumnBin, 1))
	fpgaBin := int64(1) << w.FPGABinExp
	rowBin := int64(max(w.RowBin, 1))
	rows := int64(w.Rows)
	rowSkip := int64(w.RowSkip)

	width := int64(w.ColumnSkip) + ncol*colBin*fpgaBin
	if width > int64(t.RowLength) {
		return CycleCount{}, fmt.Errorf("width %d > %d: %w", width, t.RowLength, ErrWindowTooWide)
	}
	height := rowSkip + rows*rowBin
	if height > int64(t.ColumnHeight) {
		return CycleCount{}, fmt.Errorf("height %d > %d: %w", height, t.ColumnHeight, ErrWindowTooTall)
	}

	// Each digitized (on-chip binned) pixel is clocked at full timing; every
	// other shift of the horizontal register is a fast dump.
	full := ncol * fpgaBin
	fast := int64(t.RowLength) - full

	perRow := full*t.FullPixelCycles + fast*t.FastPixelCycles
	return CycleCount{
		FullPixels: full,
		FastPixels: fast,
		PerRow:     perRow,
		Readout:    perRow*(rows+rowSkip+1) + t.RowShiftCycles*(1+rowBin*rows),
		Delay:      t.RowShiftCycles * int64(w.Flushes),
		Smear:      t.RowShiftCycles * height,
	}, nil
}

func (m *Model) duration(cycles int64) time.Duration {
	return time.Duration(cycles) * m.timing.ClockPeriod
}
