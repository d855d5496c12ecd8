/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package oracle supplies candidate observation instants for ranked activity
// kinds. Orbital geometry is computed elsewhere; this package only carries its
// results into the planner.
package oracle

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Candidate is one opportunity for a kind, with its figure of merit (lower is
// better) and free-form geometry annotations.
type Candidate struct {
	Instant     time.Time      `yaml:"instant" json:"instant"`
	Merit       float64        `yaml:"merit" json:"merit"`
	Annotations map[string]any `yaml:"annotations,omitempty" json:"annotations,omitempty"`
}

// Oracle returns the candidates for a kind, possibly none.
type Oracle interface {
	Candidates(ctx context.Context, kind string) ([]Candidate, error)
}

// Static serves candidates precomputed into a file.
type Static struct {
	byKind map[string][]Candidate
}

// NewStatic wraps an in-memory candidate table.
func NewStatic(byKind map[string][]Candidate) *Static {
	if byKind == nil {
		byKind = make(map[string][]Candidate)
	}
	return &Static{byKind: byKind}
}

// LoadStatic reads a YAML document mapping kind to a candidate list.
func LoadStatic(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read candidates: %w", err)
	}
	var byKind map[string][]Candidate
	if err := yaml.Unmarshal(data, &byKind); err != nil {
		return nil, fmt.Errorf("parse candidates %s: %w", path, err)
	}
	return NewStatic(byKind), nil
}

// Candidates returns a copy of the candidates stored for kind.
func (s *Static) Candidates(ctx context.Context, kind string) ([]Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	src := s.byKind[kind]
	out := make([]Candidate, len(src))
	copy(out, src)
	return out, nil
}

// Kinds returns the number of kinds with at least one candidate.
func (s *Static) Kinds() int {
	n := 0
	for _, c := range s.byKind {
		if len(c) > 0 {
			n++
		}
	}
	return n
}
