package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type databaseMigration struct {
	version         uint16
	name            string
	migrationScript string
}

var migrations = []*databaseMigration{

	/////////////////////////////////////////////////
	{
		version: 1,
		name:    "snapshot table",
		migrationScript: `
	CREATE TABLE IF NOT EXISTS snapshot (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		version INTEGER NOT NULL,
		document TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS snapshot_name_version ON snapshot (name, version);
		`,
	},

	/////////////////////////////////////////////////
	{
		version: 2,
		name:    "snapshot summary columns",
		migrationScript: `
	ALTER TABLE snapshot ADD COLUMN clip_count INTEGER NOT NULL DEFAULT 0;
	ALTER TABLE snapshot ADD COLUMN duration_frames INTEGER NOT NULL DEFAULT 0;
		`,
	},
}

// ApplyMigrations brings the schema up to the latest version. Each
// migration runs in its own transaction together with its version entry.
func ApplyMigrations(ctx context.Context, db *sql.DB) error {
	if err := applyVersionsTable(ctx, db); err != nil {
		return err
	}

	var maxVersion uint16
	err := db.QueryRowContext(ctx, "SELECT coalesce(max(version), 0) FROM migration").Scan(&maxVersion)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("read schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.version > maxVersion {
			if err := applyMigration(ctx, db, migration); err != nil {
				return err
			}
		}
	}
	return nil
}

func applyMigration(ctx context.Context, db *sql.DB, migration *databaseMigration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `INSERT INTO migration (version, name) VALUES (?, ?)`, migration.version, migration.name); err != nil {
		return fmt.Errorf("migration %d: %w", migration.version, err)
	}
	if _, err := tx.ExecContext(ctx, migration.migrationScript); err != nil {
		return fmt.Errorf("migration %d (%s): %w", migration.version, migration.name, err)
	}
	return tx.Commit()
}

func applyVersionsTable(ctx context.Context, db *sql.DB) error {
	sqlStmt := `
	CREATE TABLE IF NOT EXISTS migration (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	)
	`
	if _, err := db.ExecContext(ctx, sqlStmt); err != nil {
		return fmt.Errorf("create migration table: %w", err)
	}
	return nil
}
