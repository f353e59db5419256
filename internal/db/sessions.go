package db

import (
	"database/sql"
	"fmt"
	"time"
)

// SessionRow is an authenticated API session as stored.
type SessionRow struct {
	ID           string
	UserID       string
	TokenHash    string
	StartedAt    time.Time
	LastActivity time.Time
}

// UpsertSession inserts or replaces an API session, assigning an ID
// when the row has none.
func (db *DB) UpsertSession(s *SessionRow) error {
	if s.ID == "" {
		id, err := generateSessionID()
		if err != nil {
			return fmt.Errorf("generate session id: %w", err)
		}
		s.ID = id
	}
	return db.withWriteLock(func() error {
		_, err := db.conn.Exec(`
			INSERT OR REPLACE INTO api_sessions (id, user_id, token_hash, started_at, last_activity)
			VALUES (?, ?, ?, ?, ?)`,
			s.ID, s.UserID, s.TokenHash, s.StartedAt, s.LastActivity)
		if err != nil {
			return fmt.Errorf("upsert session: %w", err)
		}
		return nil
	})
}

// GetSessionByTokenHash looks up a session by hashed token.
// Returns nil, nil when no session matches.
func (db *DB) GetSessionByTokenHash(tokenHash string) (*SessionRow, error) {
	var s SessionRow
	err := db.conn.QueryRow(`
		SELECT id, user_id, token_hash, started_at, last_activity
		FROM api_sessions WHERE token_hash = ?`, tokenHash).
		Scan(&s.ID, &s.UserID, &s.TokenHash, &s.StartedAt, &s.LastActivity)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup session: %w", err)
	}
	return &s, nil
}

// UpdateSessionActivity bumps the last_activity timestamp for a session.
func (db *DB) UpdateSessionActivity(id string, at time.Time) error {
	return db.withWriteLock(func() error {
		_, err := db.conn.Exec(`UPDATE api_sessions SET last_activity = ? WHERE id = ?`, at, id)
		if err != nil {
			return fmt.Errorf("bump session activity: %w", err)
		}
		return nil
	})
}

// DeleteSession removes a session (logout).
func (db *DB) DeleteSession(id string) error {
	return db.withWriteLock(func() error {
		_, err := db.conn.Exec(`DELETE FROM api_sessions WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
		return nil
	})
}
