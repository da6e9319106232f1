// Package migration creates the upload audit schema on first start.
package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"fileax/internal/logging"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_table_uploads",
		SQL: `CREATE TABLE IF NOT EXISTS uploads (
  stored_name   TEXT        PRIMARY KEY,
  original_name TEXT        NOT NULL,
  extension     TEXT        NOT NULL DEFAULT '',
  size          BIGINT      NOT NULL CHECK (size >= 0),
  content_type  TEXT        NOT NULL,
  created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_uploads_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_uploads_created_at ON uploads (created_at);`,
	},
	{
		Name: "create_index_uploads_extension",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_uploads_extension ON uploads (extension);`,
	},
}

// EnsureMigrated runs the steps unless the uploads table already exists.
func EnsureMigrated(ctx context.Context, db *sql.DB, log *logging.Logger, dbHost string) error {
	start := time.Now()
	base := func(f logging.Fields) logging.Fields {
		f["component"] = "database"
		f["db_host"] = dbHost
		return f
	}

	log.Info("db_migration_check", base(logging.Fields{"status": "starting"}))

	var exists bool
	if err := db.QueryRowContext(ctx, "SELECT to_regclass('public.uploads') IS NOT NULL").Scan(&exists); err != nil {
		log.Error("db_migration_failed", base(logging.Fields{
			"status":        "error",
			"error_message": fmt.Sprintf("failed to check sentinel table: %v", err),
			"duration_ms":   time.Since(start).Milliseconds(),
		}))
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		log.Info("db_migration_skip", base(logging.Fields{
			"status":      "success",
			"detail":      "schema already exists, skipping migration",
			"duration_ms": time.Since(start).Milliseconds(),
		}))
		return nil
	}

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			log.Error("db_migration_failed", base(logging.Fields{
				"status":           "error",
				"migration_step":   step.Name,
				"error_message":    err.Error(),
				"duration_ms":      time.Since(start).Milliseconds(),
				"step_duration_ms": time.Since(stepStart).Milliseconds(),
			}))
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		log.Info("db_migration_step", base(logging.Fields{
			"status":           "success",
			"migration_step":   step.Name,
			"step_duration_ms": time.Since(stepStart).Milliseconds(),
		}))
	}

	log.Info("db_migration_success", base(logging.Fields{
		"status":      "success",
		"duration_ms": time.Since(start).Milliseconds(),
	}))
	return nil
}
