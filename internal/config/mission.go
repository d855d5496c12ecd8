/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/friendsincode/missionplan/internal/ccdsync"
	"github.com/friendsincode/missionplan/internal/macro"
	"github.com/friendsincode/missionplan/internal/readout"
)

// ErrInvalidMission indicates a structurally inconsistent mission file.
var ErrInvalidMission = errors.New("invalid mission")

const (
	defaultMaxPostponements = 1000
	defaultWorkers          = 4
)

// Mission is the YAML planning input: the window, global timing, the priority
// list and what each kind needs to be proposed and expanded.
type Mission struct {
	Start    time.Time     `yaml:"start"`
	Duration time.Duration `yaml:"duration"`

	ModeSeparation        time.Duration `yaml:"mode_separation"`
	CommandSeparation     time.Duration `yaml:"command_separation"`
	PointingStabilization time.Duration `yaml:"pointing_stabilization"`
	MinFillDuration       time.Duration `yaml:"min_fill_duration"`
	MaxPostponements      int           `yaml:"max_postponements"`
	Workers               int           `yaml:"workers"`

	Priorities []string                `yaml:"priorities"`
	Kinds      map[string]KindConfig   `yaml:"kinds"`
	Filler     FillerConfig            `yaml:"filler"`
	Macros     map[string][]macro.Step `yaml:"macros"`
	Sensors    SensorConfig            `yaml:"sensors"`

	// CandidatesFile is the oracle output for ranked kinds, relative to the
	// mission file.
	CandidatesFile string `yaml:"candidates_file"`
}

// KindConfig describes how one activity kind is proposed.
type KindConfig struct {
	Duration time.Duration `yaml:"duration"`
	// Start fixes the activity; when nil it starts Offset after mission start.
	Start  *time.Time    `yaml:"start"`
	Offset time.Duration `yaml:"offset"`
	// Ranked kinds take their candidates from the oracle. Lead is subtracted
	// from each candidate instant to get the activity start.
	Ranked     bool           `yaml:"ranked"`
	Lead       time.Duration  `yaml:"lead"`
	Parameters map[string]any `yaml:"parameters"`
}

// FillerConfig selects the default activity for unbooked gaps.
type FillerConfig struct {
	Default  string         `yaml:"default"`
	Seasonal []SeasonalRule `yaml:"seasonal"`
}

// SeasonalRule picks Kind for gaps starting in one of Months (1-12).
type SeasonalRule struct {
	Kind   string `yaml:"kind"`
	Months []int  `yaml:"months"`
}

// SensorConfig feeds the synchronization calculator.
type SensorConfig struct {
	Timing  readout.Timing   `yaml:"timing"`
	CCDs    []ccdsync.Sensor `yaml:"ccds"`
	Options ccdsync.Options  `yaml:"options"`
}

// End returns the mission end.
func (m *Mission) End() time.Time {
	return m.Start.Add(m.Duration)
}

// Durations maps each configured kind to its duration.
func (m *Mission) Durations() map[string]time.Duration {
	out := make(map[string]time.Duration, len(m.Kinds))
	for kind, kc := range m.Kinds {
		if kc.Duration > 0 {
			out[kind] = kc.Duration
		}
	}
	return out
}

// LoadMission reads, defaults and validates a mission file.
func LoadMission(path string) (*Mission, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mission: %w", err)
	}
	m, err := ParseMission(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if m.CandidatesFile != "" && !filepath.IsAbs(m.CandidatesFile) {
		m.CandidatesFile = filepath.Join(filepath.Dir(path), m.CandidatesFile)
	}
	return m, nil
}

// ParseMission decodes a mission document.
func ParseMission(data []byte) (*Mission, error) {
	var m Mission
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse mission: %w", err)
	}
	m.applyDefaults()
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Mission) applyDefaults() {
	if m.MaxPostponements <= 0 {
		m.MaxPostponements = defaultMaxPostponements
	}
	if m.Workers <= 0 {
		m.Workers = defaultWorkers
	}
	m.Start = m.Start.UTC()
}

// Validate reports the first structural inconsistency.
func (m *Mission) Validate() error {
	if m.Start.IsZero() {
		return fmt.Errorf("%w: start is required", ErrInvalidMission)
	}
	if m.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive", ErrInvalidMission)
	}
	if m.ModeSeparation < 0 || m.CommandSeparation < 0 || m.PointingStabilization < 0 || m.MinFillDuration < 0 {
		return fmt.Errorf("%w: separations must not be negative", ErrInvalidMission)
	}

	seen := make(map[string]bool, len(m.Priorities))
	for _, kind := range m.Priorities {
		if seen[kind] {
			return fmt.Errorf("%w: kind %q listed twice in priorities", ErrInvalidMission, kind)
		}
		seen[kind] = true
	}

	for kind, kc := range m.Kinds {
		if kc.Duration < 0 {
			return fmt.Errorf("%w: kind %q has negative duration", ErrInvalidMission, kind)
		}
		if kc.Ranked && kc.Start != nil {
			return fmt.Errorf("%w: kind %q cannot be both ranked and fixed", ErrInvalidMission, kind)
		}
	}

	for _, rule := range m.Filler.Seasonal {
		if rule.Kind == "" {
			return fmt.Errorf("%w: seasonal filler rule without kind", ErrInvalidMission)
		}
		for _, month := range rule.Months {
			if month < 1 || month > 12 {
				return fmt.Errorf("%w: filler %q month %d out of range", ErrInvalidMission, rule.Kind, month)
			}
		}
	}
	return nil
}
