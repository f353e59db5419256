package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/crewhq/crew/internal/models"
)

// CreateUser inserts a new user and returns it with its generated ID.
func (db *DB) CreateUser(u *models.User) error {
	id, err := generateUserID()
	if err != nil {
		return fmt.Errorf("generate user id: %w", err)
	}

	now := time.Now()
	u.ID = id
	u.CreatedAt = now
	u.UpdatedAt = now
	if u.Role == "" {
		u.Role = models.RoleMember
	}

	return db.withWriteLock(func() error {
		_, err := db.conn.Exec(`
			INSERT INTO users (id, username, full_name, role, password_hash, active, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			u.ID, u.Username, u.FullName, string(u.Role), u.PasswordHash, boolToInt(u.Active), u.CreatedAt, u.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert user: %w", err)
		}
		return nil
	})
}

// GetUser fetches a user by ID.
func (db *DB) GetUser(id string) (*models.User, error) {
	row := db.conn.QueryRow(`
		SELECT id, username, full_name, role, password_hash, active, created_at, updated_at
		FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// GetUserByUsername fetches a user by username.
func (db *DB) GetUserByUsername(username string) (*models.User, error) {
	row := db.conn.QueryRow(`
		SELECT id, username, full_name, role, password_hash, active, created_at, updated_at
		FROM users WHERE username = ?`, username)
	return scanUser(row)
}

// ListUsersOptions filters ListUsers.
type ListUsersOptions struct {
	ActiveOnly bool
	Role       models.Role
}

// ListUsers returns users ordered by username.
func (db *DB) ListUsers(opts ListUsersOptions) ([]models.User, error) {
	query := `
		SELECT id, username, full_name, role, password_hash, active, created_at, updated_at
		FROM users WHERE 1=1`
	var args []interface{}

	if opts.ActiveOnly {
		query += " AND active = 1"
	}
	if opts.Role != "" {
		query += " AND role = ?"
		args = append(args, string(opts.Role))
	}
	query += " ORDER BY username"

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// UpdateUser persists mutable user fields.
func (db *DB) UpdateUser(u *models.User) error {
	u.UpdatedAt = time.Now()
	return db.withWriteLock(func() error {
		res, err := db.conn.Exec(`
			UPDATE users SET username = ?, full_name = ?, role = ?, password_hash = ?, active = ?, updated_at = ?
			WHERE id = ?`,
			u.Username, u.FullName, string(u.Role), u.PasswordHash, boolToInt(u.Active), u.UpdatedAt, u.ID)
		if err != nil {
			return fmt.Errorf("update user: %w", err)
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return fmt.Errorf("user %s not found", u.ID)
		}
		return nil
	})
}

// SetUserActive flips the active flag without touching other fields.
func (db *DB) SetUserActive(id string, active bool) error {
	return db.withWriteLock(func() error {
		res, err := db.conn.Exec(`
			UPDATE users SET active = ?, updated_at = ? WHERE id = ?`,
			boolToInt(active), time.Now(), id)
		if err != nil {
			return fmt.Errorf("set user active: %w", err)
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return fmt.Errorf("user %s not found", id)
		}
		return nil
	})
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	var role string
	var active int

	err := row.Scan(&u.ID, &u.Username, &u.FullName, &role, &u.PasswordHash, &active, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}

	u.Role = models.Role(role)
	u.Active = active != 0
	return &u, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
