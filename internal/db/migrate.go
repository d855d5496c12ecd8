/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/friendsincode/missionplan/internal/models"
)

// Migrate applies database schema migrations using GORM auto-migrate.
func Migrate(database *gorm.DB) error {
	if err := database.AutoMigrate(
		&models.PlanRun{},
		&models.ActivityRecord{},
		&models.CommandRecord{},
	); err != nil {
		return err
	}

	return applyPostgresActivityOverlapGuard(database)
}

// applyPostgresActivityOverlapGuard rejects overlapping activities within one
// run at the database level.
func applyPostgresActivityOverlapGuard(database *gorm.DB) error {
	if database.Dialector.Name() != "postgres" {
		return nil
	}

	stmt := `
CREATE OR REPLACE FUNCTION prevent_run_activity_overlap()
RETURNS trigger
LANGUAGE plpgsql
AS $$
BEGIN
  IF NEW.ends_at <= NEW.starts_at THEN
    RAISE EXCEPTION 'activity end must be after start'
      USING ERRCODE = '23514';
  END IF;

  IF EXISTS (
    SELECT 1
    FROM activity_records ar
    WHERE ar.run_id = NEW.run_id
      AND ar.id <> NEW.id
      AND tstzrange(ar.starts_at, ar.ends_at, '[)') && tstzrange(NEW.starts_at, NEW.ends_at, '[)')
  ) THEN
    RAISE EXCEPTION 'overlapping activities are not allowed in run %', NEW.run_id
      USING ERRCODE = '23514';
  END IF;

  RETURN NEW;
END;
$$;

DROP TRIGGER IF EXISTS trg_prevent_run_activity_overlap ON activity_records;

CREATE TRIGGER trg_prevent_run_activity_overlap
BEFORE INSERT OR UPDATE OF run_id, starts_at, ends_at
ON activity_records
FOR EACH ROW
EXECUTE FUNCTION prevent_run_activity_overlap();
`
	if err := database.Exec(stmt).Error; err != nil {
		return fmt.Errorf("apply postgres activity overlap guard: %w", err)
	}

	return nil
}
