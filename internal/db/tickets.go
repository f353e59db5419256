package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/crewhq/crew/internal/models"
)

// CreateTicket inserts a new help ticket and fills in its generated ID.
func (db *DB) CreateTicket(tk *models.Ticket) error {
	id, err := generateTicketID()
	if err != nil {
		return fmt.Errorf("generate ticket id: %w", err)
	}

	now := time.Now()
	tk.ID = id
	tk.CreatedAt = now
	tk.UpdatedAt = now
	if tk.Status == "" {
		tk.Status = models.TicketOpen
	}
	if tk.Priority == "" {
		tk.Priority = models.PriorityMedium
	}

	return db.withWriteLock(func() error {
		_, err := db.conn.Exec(`
			INSERT INTO tickets (id, title, description, requester_id, assignee_id, priority, status, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			tk.ID, tk.Title, tk.Description, tk.RequesterID, tk.AssigneeID,
			string(tk.Priority), string(tk.Status), tk.CreatedAt, tk.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert ticket: %w", err)
		}
		return nil
	})
}

// GetTicket fetches a ticket by ID (bare hex IDs are normalized).
func (db *DB) GetTicket(id string) (*models.Ticket, error) {
	id = NormalizeTicketID(id)
	row := db.conn.QueryRow(ticketSelect+" WHERE id = ?", id)
	tk, err := scanTicket(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("ticket %s not found", id)
	}
	return tk, err
}

const ticketSelect = `
	SELECT id, title, description, requester_id, assignee_id, priority, status, resolution, created_at, updated_at, resolved_at
	FROM tickets`

// ListTicketsOptions filters ListTickets.
type ListTicketsOptions struct {
	AssigneeID  string
	RequesterID string
	Status      []models.TicketStatus
}

// ListTickets returns tickets ordered by priority then age.
func (db *DB) ListTickets(opts ListTicketsOptions) ([]models.Ticket, error) {
	query := ticketSelect + " WHERE 1=1"
	var args []interface{}

	if opts.AssigneeID != "" {
		query += " AND assignee_id = ?"
		args = append(args, opts.AssigneeID)
	}
	if opts.RequesterID != "" {
		query += " AND requester_id = ?"
		args = append(args, opts.RequesterID)
	}
	if len(opts.Status) > 0 {
		placeholders := make([]string, len(opts.Status))
		for i, s := range opts.Status {
			placeholders[i] = "?"
			args = append(args, string(s))
		}
		query += " AND status IN (" + strings.Join(placeholders, ",") + ")"
	}

	query += ` ORDER BY CASE priority
		WHEN 'urgent' THEN 0
		WHEN 'high' THEN 1
		WHEN 'medium' THEN 2
		ELSE 3 END, created_at`

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	defer rows.Close()

	var tickets []models.Ticket
	for rows.Next() {
		tk, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, *tk)
	}
	return tickets, rows.Err()
}

// AssignTicket sets the assignee and moves an open ticket to in_progress.
func (db *DB) AssignTicket(id, assigneeID string) error {
	id = NormalizeTicketID(id)
	return db.withWriteLock(func() error {
		res, err := db.conn.Exec(`
			UPDATE tickets SET assignee_id = ?, status = ?, updated_at = ?
			WHERE id = ? AND status IN (?, ?)`,
			assigneeID, string(models.TicketInProgress), time.Now(),
			id, string(models.TicketOpen), string(models.TicketInProgress))
		if err != nil {
			return fmt.Errorf("assign ticket: %w", err)
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return fmt.Errorf("ticket %s not found or not open", id)
		}
		return nil
	})
}

// ResolveTicket marks a ticket resolved with a resolution note.
func (db *DB) ResolveTicket(id, resolution string, at time.Time) error {
	id = NormalizeTicketID(id)
	return db.withWriteLock(func() error {
		res, err := db.conn.Exec(`
			UPDATE tickets SET status = ?, resolution = ?, resolved_at = ?, updated_at = ?
			WHERE id = ? AND status IN (?, ?)`,
			string(models.TicketResolved), resolution, at, at,
			id, string(models.TicketOpen), string(models.TicketInProgress))
		if err != nil {
			return fmt.Errorf("resolve ticket: %w", err)
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return fmt.Errorf("ticket %s not found or already resolved", id)
		}
		return nil
	})
}

// CloseTicket closes a ticket in any non-closed state.
func (db *DB) CloseTicket(id string) error {
	id = NormalizeTicketID(id)
	return db.withWriteLock(func() error {
		res, err := db.conn.Exec(`
			UPDATE tickets SET status = ?, updated_at = ? WHERE id = ? AND status != ?`,
			string(models.TicketClosed), time.Now(), id, string(models.TicketClosed))
		if err != nil {
			return fmt.Errorf("close ticket: %w", err)
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return fmt.Errorf("ticket %s not found or already closed", id)
		}
		return nil
	})
}

// AutoCloseResolvedTickets closes tickets that were resolved before the
// cutoff and returns how many it closed.
func (db *DB) AutoCloseResolvedTickets(cutoff time.Time) (int, error) {
	var n int64
	err := db.withWriteLock(func() error {
		res, err := db.conn.Exec(`
			UPDATE tickets SET status = ?, updated_at = ?
			WHERE status = ? AND resolved_at IS NOT NULL AND resolved_at < ?`,
			string(models.TicketClosed), time.Now(),
			string(models.TicketResolved), cutoff)
		if err != nil {
			return fmt.Errorf("auto-close tickets: %w", err)
		}
		n, _ = res.RowsAffected()
		return nil
	})
	return int(n), err
}

func scanTicket(row rowScanner) (*models.Ticket, error) {
	var tk models.Ticket
	var priority, status string
	var resolvedAt sql.NullTime

	err := row.Scan(&tk.ID, &tk.Title, &tk.Description, &tk.RequesterID, &tk.AssigneeID,
		&priority, &status, &tk.Resolution, &tk.CreatedAt, &tk.UpdatedAt, &resolvedAt)
	if err != nil {
		return nil, err
	}

	tk.Priority = models.TicketPriority(priority)
	tk.Status = models.TicketStatus(status)
	if resolvedAt.Valid {
		ra := resolvedAt.Time
		tk.ResolvedAt = &ra
	}
	return &tk, nil
}
