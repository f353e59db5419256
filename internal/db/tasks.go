package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/crewhq/crew/internal/models"
)

// CreateTask inserts a new checklist task and fills in its generated ID.
func (db *DB) CreateTask(t *models.Task) error {
	id, err := generateTaskID()
	if err != nil {
		return fmt.Errorf("generate task id: %w", err)
	}

	now := time.Now()
	t.ID = id
	t.CreatedAt = now
	t.UpdatedAt = now
	if t.Status == "" {
		t.Status = models.TaskPending
	}
	if t.Recurrence == "" {
		t.Recurrence = models.RecurNone
	}

	return db.withWriteLock(func() error {
		_, err := db.conn.Exec(`
			INSERT INTO tasks (id, title, description, assignee_id, assigner_id, status, recurrence, due_at, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, t.Title, t.Description, t.AssigneeID, t.AssignerID,
			string(t.Status), string(t.Recurrence), nullTime(t.DueAt), t.CreatedAt, t.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert task: %w", err)
		}
		return nil
	})
}

// GetTask fetches a task by ID (bare hex IDs are normalized).
func (db *DB) GetTask(id string) (*models.Task, error) {
	id = NormalizeTaskID(id)
	row := db.conn.QueryRow(taskSelect+" WHERE id = ?", id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("task %s not found", id)
	}
	return t, err
}

// ListTasksOptions filters ListTasks.
type ListTasksOptions struct {
	AssigneeID string
	Status     []models.TaskStatus
	DueBefore  time.Time
	SortBy     string // "due", "created", "title"
}

const taskSelect = `
	SELECT id, title, description, assignee_id, assigner_id, status, recurrence, due_at, completed_at, created_at, updated_at
	FROM tasks`

// ListTasks returns tasks matching the options.
func (db *DB) ListTasks(opts ListTasksOptions) ([]models.Task, error) {
	query := taskSelect + " WHERE 1=1"
	var args []interface{}

	if opts.AssigneeID != "" {
		query += " AND assignee_id = ?"
		args = append(args, opts.AssigneeID)
	}
	if len(opts.Status) > 0 {
		placeholders := make([]string, len(opts.Status))
		for i, s := range opts.Status {
			placeholders[i] = "?"
			args = append(args, string(s))
		}
		query += " AND status IN (" + strings.Join(placeholders, ",") + ")"
	}
	if !opts.DueBefore.IsZero() {
		query += " AND due_at IS NOT NULL AND due_at < ?"
		args = append(args, opts.DueBefore)
	}

	switch opts.SortBy {
	case "due":
		query += " ORDER BY due_at IS NULL, due_at"
	case "title":
		query += " ORDER BY title COLLATE NOCASE"
	default:
		query += " ORDER BY created_at DESC"
	}

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// CompleteTask marks a task completed. If the task recurs, the next
// occurrence is planned in the same transaction-equivalent write.
// Returns the newly planned task, or nil when the task does not recur.
func (db *DB) CompleteTask(id string, at time.Time) (*models.Task, error) {
	task, err := db.GetTask(id)
	if err != nil {
		return nil, err
	}
	if task.Status != models.TaskPending {
		return nil, fmt.Errorf("task %s is not pending", task.ID)
	}

	var next *models.Task
	err = db.withWriteLock(func() error {
		_, err := db.conn.Exec(`
			UPDATE tasks SET status = ?, completed_at = ?, updated_at = ? WHERE id = ?`,
			string(models.TaskCompleted), at, at, task.ID)
		if err != nil {
			return fmt.Errorf("complete task: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Plan the next occurrence outside the write lock; CreateTask takes
	// its own lock.
	if nextDue := task.Recurrence.NextDue(task.DueAt); !nextDue.IsZero() {
		next = &models.Task{
			Title:       task.Title,
			Description: task.Description,
			AssigneeID:  task.AssigneeID,
			AssignerID:  task.AssignerID,
			Recurrence:  task.Recurrence,
			DueAt:       nextDue,
		}
		if err := db.CreateTask(next); err != nil {
			return nil, fmt.Errorf("plan next occurrence: %w", err)
		}
	}

	return next, nil
}

// CloseTask closes a pending task without marking it completed.
func (db *DB) CloseTask(id string) error {
	id = NormalizeTaskID(id)
	return db.withWriteLock(func() error {
		res, err := db.conn.Exec(`
			UPDATE tasks SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
			string(models.TaskClosed), time.Now(), id, string(models.TaskPending))
		if err != nil {
			return fmt.Errorf("close task: %w", err)
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return fmt.Errorf("task %s not found or not pending", id)
		}
		return nil
	})
}

func scanTask(row rowScanner) (*models.Task, error) {
	var t models.Task
	var status, recurrence string
	var dueAt, completedAt sql.NullTime

	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.AssigneeID, &t.AssignerID,
		&status, &recurrence, &dueAt, &completedAt, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}

	t.Status = models.TaskStatus(status)
	t.Recurrence = models.Recurrence(recurrence)
	if dueAt.Valid {
		t.DueAt = dueAt.Time
	}
	if completedAt.Valid {
		ca := completedAt.Time
		t.CompletedAt = &ca
	}
	return &t, nil
}

// nullTime converts a zero time to NULL for storage.
func nullTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}
