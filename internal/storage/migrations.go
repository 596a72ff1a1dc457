package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// migration is one schema step. Steps run in order inside a transaction and
// are recorded in schema_migrations.
type migration struct {
	version int
	name    string
	apply   func(ctx context.Context, tx *sql.Tx) error
}

var migrations = []migration{
	{
		version: 1,
		name:    "base schema",
		apply: func(ctx context.Context, tx *sql.Tx) error {
			schema, err := schemaFS.ReadFile("schema.sql")
			if err != nil {
				return fmt.Errorf("reading schema: %w", err)
			}
			_, err = tx.ExecContext(ctx, string(schema))
			return err
		},
	},
	{
		version: 2,
		name:    "job trigger source",
		apply: func(ctx context.Context, tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, `ALTER TABLE jobs ADD COLUMN trigger_source TEXT NOT NULL DEFAULT 'cli'`)
			if err != nil && !isDuplicateColumnError(err) {
				return err
			}
			return nil
		},
	},
}

// migrate brings the schema up to the latest version
func (ss *SQLiteStorage) migrate(ctx context.Context) error {
	_, err := ss.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating migrations table: %w", err)
	}

	current, err := ss.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}

		tx, err := ss.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("beginning migration %d: %w", m.version, err)
		}

		if err := m.apply(ctx, tx); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d (%s): %w", m.version, m.name, err)
		}

		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES (?)`, m.version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", m.version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", m.version, err)
		}
	}

	return nil
}

// SchemaVersion returns the highest applied migration, 0 for a new database
func (ss *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	var version sql.NullInt64
	err := ss.db.QueryRowContext(ctx, "SELECT MAX(version) FROM schema_migrations").Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("checking migration version: %w", err)
	}
	return int(version.Int64), nil
}

// isDuplicateColumnError checks if the error is about duplicate column
func isDuplicateColumnError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "duplicate column name")
}
