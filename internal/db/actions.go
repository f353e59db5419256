package db

import (
	"fmt"
	"time"

	"github.com/crewhq/crew/internal/models"
)

// LogAction appends an audit log entry. Audit failures are reported but
// callers generally treat them as non-fatal.
func (db *DB) LogAction(a *models.Action) error {
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now()
	}
	return db.withWriteLock(func() error {
		res, err := db.conn.Exec(`
			INSERT INTO actions (actor_id, action_type, entity_type, entity_id, detail, timestamp)
			VALUES (?, ?, ?, ?, ?, ?)`,
			a.ActorID, a.ActionType, a.EntityType, a.EntityID, a.Detail, a.Timestamp)
		if err != nil {
			return fmt.Errorf("insert action: %w", err)
		}
		a.ID, _ = res.LastInsertId()
		return nil
	})
}

// GetRecentActions returns the newest audit entries up to limit.
func (db *DB) GetRecentActions(limit int) ([]models.Action, error) {
	rows, err := db.conn.Query(`
		SELECT id, actor_id, action_type, entity_type, entity_id, detail, timestamp
		FROM actions ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list actions: %w", err)
	}
	defer rows.Close()

	var actions []models.Action
	for rows.Next() {
		var a models.Action
		if err := rows.Scan(&a.ID, &a.ActorID, &a.ActionType, &a.EntityType, &a.EntityID, &a.Detail, &a.Timestamp); err != nil {
			return nil, fmt.Errorf("scan action: %w", err)
		}
		actions = append(actions, a)
	}
	return actions, rows.Err()
}

// GetActionsSince returns audit entries with an ID greater than afterID,
// oldest first. Used by the SSE stream to page through new activity.
func (db *DB) GetActionsSince(afterID int64, limit int) ([]models.Action, error) {
	rows, err := db.conn.Query(`
		SELECT id, actor_id, action_type, entity_type, entity_id, detail, timestamp
		FROM actions WHERE id > ? ORDER BY id LIMIT ?`, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("list actions since: %w", err)
	}
	defer rows.Close()

	var actions []models.Action
	for rows.Next() {
		var a models.Action
		if err := rows.Scan(&a.ID, &a.ActorID, &a.ActionType, &a.EntityType, &a.EntityID, &a.Detail, &a.Timestamp); err != nil {
			return nil, fmt.Errorf("scan action: %w", err)
		}
		actions = append(actions, a)
	}
	return actions, rows.Err()
}
