package db

import (
	"fmt"
	"strings"
)

// migrations are applied in order on top of the base schema. The schema
// version is tracked in PRAGMA user_version; each entry bumps it by one.
var migrations = []string{
	// 1: resolution notes were added to tickets after the first release;
	// older databases created from the original schema lack the column.
	// Kept as a no-op ALTER guard via the catch below.
	`ALTER TABLE tickets ADD COLUMN resolution TEXT DEFAULT ''`,

	// 2: index for per-assigner task queries used by the report
	`CREATE INDEX IF NOT EXISTS idx_tasks_assigner ON tasks(assigner_id)`,
}

// RunMigrations applies any migrations newer than the stored schema version.
// Returns the number of migrations applied.
func (db *DB) RunMigrations() (int, error) {
	var version int
	if err := db.conn.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}

	if version >= len(migrations) {
		return 0, nil
	}

	applied := 0
	for i := version; i < len(migrations); i++ {
		if _, err := db.conn.Exec(migrations[i]); err != nil {
			// "duplicate column name" means the base schema already includes
			// this migration's change; record it as applied and move on.
			if !isDuplicateColumnErr(err) {
				return applied, fmt.Errorf("migration %d: %w", i+1, err)
			}
		}
		if _, err := db.conn.Exec(fmt.Sprintf("PRAGMA user_version = %d", i+1)); err != nil {
			return applied, fmt.Errorf("bump schema version: %w", err)
		}
		applied++
	}

	return applied, nil
}

func isDuplicateColumnErr(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "duplicate column name")
}
