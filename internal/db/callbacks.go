/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package db

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/friendsincode/missionplan/internal/telemetry"
)

const startedAtKey = "telemetry:started_at"

// hookPoint is a position in a gorm callback chain.
type hookPoint interface {
	Register(name string, fn func(*gorm.DB)) error
}

// RegisterCallbacks times every statement issued by the run store and counts
// failures, labelled by operation and table.
func RegisterCallbacks(database *gorm.DB) error {
	cb := database.Callback()
	hooks := []struct {
		operation     string
		before, after hookPoint
	}{
		{"query", cb.Query().Before("gorm:query"), cb.Query().After("gorm:query")},
		{"create", cb.Create().Before("gorm:create"), cb.Create().After("gorm:create")},
		{"update", cb.Update().Before("gorm:update"), cb.Update().After("gorm:update")},
		{"delete", cb.Delete().Before("gorm:delete"), cb.Delete().After("gorm:delete")},
		{"raw", cb.Raw().Before("gorm:raw"), cb.Raw().After("gorm:raw")},
	}

	for _, h := range hooks {
		if err := h.before.Register("telemetry:before_"+h.operation, markStart); err != nil {
			return fmt.Errorf("%s callback: %w", h.operation, err)
		}
		if err := h.after.Register("telemetry:after_"+h.operation, observe(h.operation)); err != nil {
			return fmt.Errorf("%s callback: %w", h.operation, err)
		}
	}
	return nil
}

func markStart(tx *gorm.DB) {
	tx.InstanceSet(startedAtKey, time.Now())
}

func observe(operation string) func(*gorm.DB) {
	return func(tx *gorm.DB) {
		v, ok := tx.InstanceGet(startedAtKey)
		if !ok {
			return
		}
		startedAt, ok := v.(time.Time)
		if !ok {
			return
		}

		table := tx.Statement.Table
		if table == "" {
			table = "unknown"
		}
		telemetry.DatabaseQueryDuration.WithLabelValues(operation, table).Observe(time.Since(startedAt).Seconds())

		// A missing run is reported to the caller, not counted as a failure.
		if tx.Error != nil && !errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			telemetry.DatabaseErrorsTotal.WithLabelValues(operation, table).Inc()
		}
	}
}
