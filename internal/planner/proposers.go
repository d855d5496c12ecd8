/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package planner

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/friendsincode/missionplan/internal/config"
	"github.com/friendsincode/missionplan/internal/oracle"
)

// NewConfigProposers builds one proposer per priority kind of m. Ranked kinds
// query o; the others get a fixed window. A kind without configuration or a
// positive duration is a configuration inconsistency.
func NewConfigProposers(m *config.Mission, o oracle.Oracle) (map[string]Proposer, error) {
	out := make(map[string]Proposer, len(m.Priorities))
	for _, kind := range m.Priorities {
		kc, ok := m.Kinds[kind]
		if !ok {
			return nil, fmt.Errorf("%w: kind %q has no configuration", ErrConfigInconsistency, kind)
		}
		if kc.Duration <= 0 {
			return nil, fmt.Errorf("%w: kind %q needs a positive duration", ErrConfigInconsistency, kind)
		}
		if kc.Ranked {
			if o == nil {
				return nil, fmt.Errorf("%w: ranked kind %q needs a candidate oracle", ErrConfigInconsistency, kind)
			}
			out[kind] = rankedProposer(kc, o)
			continue
		}
		out[kind] = fixedProposer(m, kc)
	}
	return out, nil
}

// ConfigFromMission derives planner settings from m.
func ConfigFromMission(m *config.Mission) Config {
	cfg := Config{
		MissionStart:     m.Start,
		MissionEnd:       m.End(),
		ModeSeparation:   m.ModeSeparation,
		MinFillDuration:  m.MinFillDuration,
		MaxPostponements: m.MaxPostponements,
		Workers:          m.Workers,
		FillerParameters: make(map[string]map[string]any),
	}
	if m.Filler.Default != "" || len(m.Filler.Seasonal) > 0 {
		rules := make([]SeasonalRule, 0, len(m.Filler.Seasonal))
		for _, r := range m.Filler.Seasonal {
			rule := SeasonalRule{Kind: r.Kind}
			for _, month := range r.Months {
				rule.Months = append(rule.Months, time.Month(month))
			}
			rules = append(rules, rule)
		}
		cfg.Filler = SeasonalFiller(rules, m.Filler.Default)
	}
	for kind, kc := range m.Kinds {
		if len(kc.Parameters) > 0 {
			cfg.FillerParameters[kind] = kc.Parameters
		}
	}
	return cfg
}

func fixedProposer(m *config.Mission, kc config.KindConfig) Proposer {
	start := m.Start.Add(kc.Offset)
	if kc.Start != nil {
		start = kc.Start.UTC()
	}
	c := Candidate{Start: start, End: start.Add(kc.Duration), Parameters: cloneParams(kc.Parameters)}
	return ProposerFunc(func(context.Context, string) (Proposal, error) {
		return Single(c), nil
	})
}

func rankedProposer(kc config.KindConfig, o oracle.Oracle) Proposer {
	return ProposerFunc(func(ctx context.Context, kind string) (Proposal, error) {
		found, err := o.Candidates(ctx, kind)
		if err != nil {
			return Proposal{}, err
		}
		sort.SliceStable(found, func(i, j int) bool { return found[i].Merit < found[j].Merit })
		cs := make([]Candidate, 0, len(found))
		for _, f := range found {
			start := f.Instant.UTC().Add(-kc.Lead)
			params := cloneParams(kc.Parameters)
			if len(f.Annotations) > 0 {
				if params == nil {
					params = make(map[string]any, len(f.Annotations))
				}
				for k, v := range f.Annotations {
					if _, set := params[k]; !set {
						params[k] = v
					}
				}
			}
			cs = append(cs, Candidate{
				Start:      start,
				End:        start.Add(kc.Duration),
				Merit:      f.Merit,
				Parameters: params,
				Annotation: describe(f.Annotations),
			})
		}
		return Ranked(cs), nil
	})
}

func describe(annotations map[string]any) string {
	if len(annotations) == 0 {
		return ""
	}
	keys := make([]string, 0, len(annotations))
	for k := range annotations {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, annotations[k])
	}
	return strings.Join(parts, " ")
}
