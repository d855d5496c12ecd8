/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package store persists planned timelines and their command streams.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/friendsincode/missionplan/internal/models"
)

// ErrRunNotFound indicates an unknown run id.
var ErrRunNotFound = errors.New("plan run not found")

// Store reads and writes plan runs.
type Store struct {
	db     *gorm.DB
	logger zerolog.Logger
}

// New constructs a store on a migrated database.
func New(db *gorm.DB, logger zerolog.Logger) *Store {
	return &Store{db: db, logger: logger.With().Str("component", "store").Logger()}
}

// SaveTimeline records tl as a new run and returns its id.
func (s *Store) SaveTimeline(ctx context.Context, tl models.Timeline) (string, error) {
	run := &models.PlanRun{
		ID:           uuid.New().String(),
		MissionStart: tl.Start(),
		MissionEnd:   tl.End(),
		Activities:   tl.Len(),
	}
	records := make([]models.ActivityRecord, 0, tl.Len())
	for i, a := range tl.Activities() {
		records = append(records, models.ActivityRecord{
			ID:         uuid.New().String(),
			RunID:      run.ID,
			Position:   i,
			Kind:       a.Kind,
			StartsAt:   a.Start,
			EndsAt:     a.End,
			Parameters: a.Parameters,
			Annotation: a.Annotation,
		})
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(run).Error; err != nil {
			return fmt.Errorf("create run: %w", err)
		}
		if len(records) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(records, 200).Error; err != nil {
			return fmt.Errorf("create activities: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	s.logger.Info().Str("run_id", run.ID).Int("activities", len(records)).Msg("timeline saved")
	return run.ID, nil
}

// LoadTimeline rebuilds the timeline of a run.
func (s *Store) LoadTimeline(ctx context.Context, runID string) (models.Timeline, error) {
	run, err := s.run(ctx, runID)
	if err != nil {
		return models.Timeline{}, err
	}
	var records []models.ActivityRecord
	if err := s.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("position ASC").
		Find(&records).Error; err != nil {
		return models.Timeline{}, fmt.Errorf("load activities: %w", err)
	}

	acts := make([]models.Activity, len(records))
	for i, r := range records {
		acts[i] = models.Activity{
			Kind:       r.Kind,
			Start:      r.StartsAt.UTC(),
			End:        r.EndsAt.UTC(),
			Parameters: r.Parameters,
			Annotation: r.Annotation,
		}
	}
	return models.NewTimeline(run.MissionStart.UTC(), run.MissionEnd.UTC(), acts)
}

// SaveCommands replaces the command stream stored for a run.
func (s *Store) SaveCommands(ctx context.Context, runID string, cmds []models.Command) error {
	records := make([]models.CommandRecord, len(cmds))
	for i, c := range cmds {
		records[i] = models.CommandRecord{
			ID:             uuid.New().String(),
			RunID:          runID,
			Position:       i,
			RelativeTimeNS: int64(c.RelativeTime),
			Mnemonic:       c.Mnemonic,
			Args:           c.Args,
			Comment:        c.Comment,
		}
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.PlanRun{}).Where("id = ?", runID).Updates(map[string]any{
			"commands":   len(cmds),
			"updated_at": time.Now().UTC(),
		})
		if res.Error != nil {
			return fmt.Errorf("update run: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%s: %w", runID, ErrRunNotFound)
		}
		if err := tx.Where("run_id = ?", runID).Delete(&models.CommandRecord{}).Error; err != nil {
			return fmt.Errorf("clear commands: %w", err)
		}
		if len(records) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(records, 500).Error; err != nil {
			return fmt.Errorf("create commands: %w", err)
		}
		return nil
	})
}

// LoadCommands returns the stored command stream of a run in order.
func (s *Store) LoadCommands(ctx context.Context, runID string) ([]models.Command, error) {
	if _, err := s.run(ctx, runID); err != nil {
		return nil, err
	}
	var records []models.CommandRecord
	if err := s.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("position ASC").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("load commands: %w", err)
	}
	out := make([]models.Command, len(records))
	for i, r := range records {
		out[i] = models.Command{
			RelativeTime: time.Duration(r.RelativeTimeNS),
			Mnemonic:     r.Mnemonic,
			Args:         r.Args,
			Comment:      r.Comment,
		}
	}
	return out, nil
}

// DeleteRun removes a run with its activities and commands.
func (s *Store) DeleteRun(ctx context.Context, runID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("run_id = ?", runID).Delete(&models.CommandRecord{}).Error; err != nil {
			return fmt.Errorf("delete commands: %w", err)
		}
		if err := tx.Where("run_id = ?", runID).Delete(&models.ActivityRecord{}).Error; err != nil {
			return fmt.Errorf("delete activities: %w", err)
		}
		res := tx.Delete(&models.PlanRun{}, "id = ?", runID)
		if res.Error != nil {
			return fmt.Errorf("delete run: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%s: %w", runID, ErrRunNotFound)
		}
		return nil
	})
}

// LatestRun returns the most recently created run.
func (s *Store) LatestRun(ctx context.Context) (*models.PlanRun, error) {
	var run models.PlanRun
	err := s.db.WithContext(ctx).Order("created_at DESC").First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load latest run: %w", err)
	}
	return &run, nil
}

func (s *Store) run(ctx context.Context, runID string) (*models.PlanRun, error) {
	var run models.PlanRun
	err := s.db.WithContext(ctx).First(&run, "id = ?", runID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%s: %w", runID, ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load run: %w", err)
	}
	return &run, nil
}
