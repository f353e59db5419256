package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/crewhq/crew/internal/models"
)

// CreateDelegation inserts a new delegation and fills in its generated ID.
// The original date is pinned so revisions can be counted against it.
func (db *DB) CreateDelegation(d *models.Delegation) error {
	id, err := generateDelegationID()
	if err != nil {
		return fmt.Errorf("generate delegation id: %w", err)
	}

	now := time.Now()
	d.ID = id
	d.CreatedAt = now
	d.UpdatedAt = now
	if d.OriginalDate.IsZero() {
		d.OriginalDate = d.PlannedDate
	}

	return db.withWriteLock(func() error {
		_, err := db.conn.Exec(`
			INSERT INTO delegations (id, title, from_id, to_id, planned_date, original_date, revisions, done, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, 0, 0, ?, ?)`,
			d.ID, d.Title, d.FromID, d.ToID, d.PlannedDate, d.OriginalDate, d.CreatedAt, d.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert delegation: %w", err)
		}
		return nil
	})
}

// GetDelegation fetches a delegation by ID.
func (db *DB) GetDelegation(id string) (*models.Delegation, error) {
	row := db.conn.QueryRow(delegationSelect+" WHERE id = ?", id)
	d, err := scanDelegation(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("delegation %s not found", id)
	}
	return d, err
}

const delegationSelect = `
	SELECT id, title, from_id, to_id, planned_date, original_date, revisions, done, done_at, created_at, updated_at
	FROM delegations`

// ListDelegationsOptions filters ListDelegations.
type ListDelegationsOptions struct {
	ToID        string
	FromID      string
	PendingOnly bool
}

// ListDelegations returns delegations ordered by planned date.
func (db *DB) ListDelegations(opts ListDelegationsOptions) ([]models.Delegation, error) {
	query := delegationSelect + " WHERE 1=1"
	var args []interface{}

	if opts.ToID != "" {
		query += " AND to_id = ?"
		args = append(args, opts.ToID)
	}
	if opts.FromID != "" {
		query += " AND from_id = ?"
		args = append(args, opts.FromID)
	}
	if opts.PendingOnly {
		query += " AND done = 0"
	}
	query += " ORDER BY planned_date"

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list delegations: %w", err)
	}
	defer rows.Close()

	var delegations []models.Delegation
	for rows.Next() {
		d, err := scanDelegation(rows)
		if err != nil {
			return nil, err
		}
		delegations = append(delegations, *d)
	}
	return delegations, rows.Err()
}

// ReviseDelegation pushes the planned date out and bumps the revision count.
// A done delegation cannot be revised.
func (db *DB) ReviseDelegation(id string, newDate time.Time) error {
	return db.withWriteLock(func() error {
		res, err := db.conn.Exec(`
			UPDATE delegations SET planned_date = ?, revisions = revisions + 1, updated_at = ?
			WHERE id = ? AND done = 0`,
			newDate, time.Now(), id)
		if err != nil {
			return fmt.Errorf("revise delegation: %w", err)
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return fmt.Errorf("delegation %s not found or already done", id)
		}
		return nil
	})
}

// CompleteDelegation marks a delegation done.
func (db *DB) CompleteDelegation(id string, at time.Time) error {
	return db.withWriteLock(func() error {
		res, err := db.conn.Exec(`
			UPDATE delegations SET done = 1, done_at = ?, updated_at = ? WHERE id = ? AND done = 0`,
			at, at, id)
		if err != nil {
			return fmt.Errorf("complete delegation: %w", err)
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return fmt.Errorf("delegation %s not found or already done", id)
		}
		return nil
	})
}

func scanDelegation(row rowScanner) (*models.Delegation, error) {
	var d models.Delegation
	var done int
	var doneAt sql.NullTime

	err := row.Scan(&d.ID, &d.Title, &d.FromID, &d.ToID, &d.PlannedDate, &d.OriginalDate,
		&d.Revisions, &done, &doneAt, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}

	d.Done = done != 0
	if doneAt.Valid {
		da := doneAt.Time
		d.DoneAt = &da
	}
	return &d, nil
}
