/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package macro expands activities into command bursts from configured tables.
package macro

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/friendsincode/missionplan/internal/ccdsync"
	"github.com/friendsincode/missionplan/internal/models"
	"github.com/friendsincode/missionplan/internal/sequencer"
)

const (
	// PointingMnemonic is used for pointing steps that name no mnemonic.
	PointingMnemonic = "TC_acfLimbPointingAltitudeOffset"

	// SyncMnemonic is used for CCD synchronization steps that name no mnemonic.
	SyncMnemonic = "TC_pafCCDSynchronize"
)

var (
	// ErrUnknownMacro indicates a kind with no macro table entry.
	ErrUnknownMacro = errors.New("no macro for activity kind")

	// ErrMissingParameter indicates a $reference to an absent activity parameter.
	ErrMissingParameter = errors.New("missing activity parameter")

	// ErrNotNumeric indicates a pointing value that is not a number.
	ErrNotNumeric = errors.New("value is not numeric")

	// ErrNoSyncSettings indicates a ccd_sync step without computed settings.
	ErrNoSyncSettings = errors.New("ccd_sync step without synchronization settings")
)

// Step is one configured command template.
type Step struct {
	Mnemonic string        `yaml:"mnemonic"`
	Args     []ArgSpec     `yaml:"args"`
	TimeCost time.Duration `yaml:"time_cost"`
	Pointing *PointingSpec `yaml:"pointing"`
	CCDSync  bool          `yaml:"ccd_sync"`
}

// ArgSpec is a named argument. A string value of the form "$name" is replaced
// by the activity parameter name.
type ArgSpec struct {
	Name  string `yaml:"name"`
	Value any    `yaml:"value"`
}

// PointingSpec describes a limb pointing command; each field accepts a number
// or a $reference. Final defaults to Initial.
type PointingSpec struct {
	Initial any `yaml:"initial"`
	Final   any `yaml:"final"`
	Rate    any `yaml:"rate"`
}

// Table is a configured translator.
type Table struct {
	macros map[string][]Step
	sync   *ccdsync.Settings
}

// NewTable builds a translator. sync may be nil when no step uses ccd_sync.
func NewTable(macros map[string][]Step, sync *ccdsync.Settings) *Table {
	return &Table{macros: macros, sync: sync}
}

// Has reports whether kind has a macro.
func (t *Table) Has(kind string) bool {
	_, ok := t.macros[kind]
	return ok
}

// Expand renders the macro of kind with params.
func (t *Table) Expand(kind string, _ time.Duration, params map[string]any) ([]sequencer.Step, error) {
	steps, ok := t.macros[kind]
	if !ok {
		return nil, fmt.Errorf("%s: %w", kind, ErrUnknownMacro)
	}

	out := make([]sequencer.Step, 0, len(steps))
	for i, st := range steps {
		rendered, err := t.render(st, params)
		if err != nil {
			return nil, fmt.Errorf("%s step %d: %w", kind, i, err)
		}
		out = append(out, rendered)
	}
	return out, nil
}

func (t *Table) render(st Step, params map[string]any) (sequencer.Step, error) {
	out := sequencer.Step{Mnemonic: st.Mnemonic, TimeCost: st.TimeCost}

	switch {
	case st.Pointing != nil:
		initial, err := numeric(st.Pointing.Initial, params)
		if err != nil {
			return out, fmt.Errorf("initial: %w", err)
		}
		final := initial
		if st.Pointing.Final != nil {
			if final, err = numeric(st.Pointing.Final, params); err != nil {
				return out, fmt.Errorf("final: %w", err)
			}
		}
		rate := 0.0
		if st.Pointing.Rate != nil {
			if rate, err = numeric(st.Pointing.Rate, params); err != nil {
				return out, fmt.Errorf("rate: %w", err)
			}
		}
		if out.Mnemonic == "" {
			out.Mnemonic = PointingMnemonic
		}
		out.Args = []models.Arg{
			{Name: "Initial", Value: initial},
			{Name: "Final", Value: final},
			{Name: "Rate", Value: rate},
		}
		out.Pointing = &sequencer.Pointing{Altitude: final, Rate: rate}
	case st.CCDSync:
		if t.sync == nil {
			return out, ErrNoSyncSettings
		}
		if out.Mnemonic == "" {
			out.Mnemonic = SyncMnemonic
		}
		out.Args = syncArgs(*t.sync)
	}

	for _, a := range st.Args {
		v, err := resolve(a.Value, params)
		if err != nil {
			return out, fmt.Errorf("arg %s: %w", a.Name, err)
		}
		out.Args = append(out.Args, models.Arg{Name: a.Name, Value: v})
	}
	return out, nil
}

// syncArgs lists the offsets of the selected sensors in index order.
func syncArgs(s ccdsync.Settings) []models.Arg {
	offsets := make([]int, 0, s.ActiveCount)
	for _, slot := range s.Slots {
		if slot.Active {
			offsets = append(offsets, slot.OffsetMS)
		}
	}
	return []models.Arg{
		{Name: "CCDSEL", Value: s.SelectMask},
		{Name: "NCCD", Value: s.ActiveCount},
		{Name: "TEXPIOFS", Value: offsets},
		{Name: "TEXPIMS", Value: s.ExposureIntervalMS},
	}
}

func resolve(v any, params map[string]any) (any, error) {
	ref, ok := v.(string)
	if !ok || !strings.HasPrefix(ref, "$") {
		return v, nil
	}
	name := strings.TrimPrefix(ref, "$")
	val, ok := params[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrMissingParameter)
	}
	return val, nil
}

func numeric(v any, params map[string]any) (float64, error) {
	resolved, err := resolve(v, params)
	if err != nil {
		return 0, err
	}
	switch val := resolved.(type) {
	case float64:
		return val, nil
	case float32:
		return float64(val), nil
	case int:
		return float64(val), nil
	case int32:
		return float64(val), nil
	case int64:
		return float64(val), nil
	case uint64:
		return float64(val), nil
	case json.Number:
		return val.Float64()
	case string:
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0, fmt.Errorf("%q: %w", val, ErrNotNumeric)
		}
		return f, nil
	case nil:
		return 0, fmt.Errorf("nil: %w", ErrNotNumeric)
	}
	return 0, fmt.Errorf("%T: %w", resolved, ErrNotNumeric)
}
