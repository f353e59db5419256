package models

import (
	"fmt"
	"time"
)

// Role determines which operations a user may perform.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleMember  Role = "member"
)

// ValidRoles lists all accepted roles
var ValidRoles = []Role{RoleAdmin, RoleManager, RoleMember}

// Permission names a gated operation.
type Permission string

const (
	PermManageUsers    Permission = "manage_users"
	PermAssignTasks    Permission = "assign_tasks"
	PermBulkComplete   Permission = "bulk_complete"
	PermViewReports    Permission = "view_reports"
	PermEditSettings   Permission = "edit_settings"
	PermResolveTickets Permission = "resolve_tickets"
)

// rolePermissions maps each role to the permissions it carries.
// Admin implies everything; managers run the day-to-day; members
// act only on their own work.
var rolePermissions = map[Role][]Permission{
	RoleAdmin: {
		PermManageUsers, PermAssignTasks, PermBulkComplete,
		PermViewReports, PermEditSettings, PermResolveTickets,
	},
	RoleManager: {
		PermAssignTasks, PermBulkComplete, PermViewReports, PermResolveTickets,
	},
	RoleMember: {
		PermBulkComplete,
	},
}

// HasPermission reports whether the role carries the permission.
func (r Role) HasPermission(p Permission) bool {
	for _, rp := range rolePermissions[r] {
		if rp == p {
			return true
		}
	}
	return false
}

// ParseRole converts a role string, rejecting unknown values.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Valid reports whether the role is a known role.
func (r Role) Valid() bool {
	for _, vr := range ValidRoles {
		if r == vr {
			return true
		}
	}
	return false
}

// User is an employee account.
type User struct {
	ID           string
	Username     string
	FullName     string
	Role         Role
	PasswordHash string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TaskStatus is the lifecycle state of a checklist task.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskCompleted TaskStatus = "completed"
	TaskClosed    TaskStatus = "closed"
)

// Actionable reports whether a task in this status can still be completed.
func (s TaskStatus) Actionable() bool {
	return s == TaskPending
}

// Recurrence controls whether completing a task plans the next occurrence.
type Recurrence string

const (
	RecurNone    Recurrence = "none"
	RecurDaily   Recurrence = "daily"
	RecurWeekly  Recurrence = "weekly"
	RecurMonthly Recurrence = "monthly"
)

// NextDue returns the due date of the occurrence after the given one.
// RecurNone returns the zero time.
func (r Recurrence) NextDue(due time.Time) time.Time {
	switch r {
	case RecurDaily:
		return due.AddDate(0, 0, 1)
	case RecurWeekly:
		return due.AddDate(0, 0, 7)
	case RecurMonthly:
		return due.AddDate(0, 1, 0)
	default:
		return time.Time{}
	}
}

// Task is one checklist item assigned to a user.
type Task struct {
	ID          string
	Title       string
	Description string
	AssigneeID  string
	AssignerID  string
	Status      TaskStatus
	Recurrence  Recurrence
	DueAt       time.Time
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Overdue reports whether the task is pending past its due date at the
// given reference time.
func (t *Task) Overdue(now time.Time) bool {
	return t.Status == TaskPending && !t.DueAt.IsZero() && now.After(t.DueAt)
}

// DelayDays returns how many whole days the task was (or is) late.
// Zero for on-time or undated tasks.
func (t *Task) DelayDays(now time.Time) int {
	if t.DueAt.IsZero() {
		return 0
	}
	end := now
	if t.CompletedAt != nil {
		end = *t.CompletedAt
	} else if t.Status != TaskPending {
		return 0
	}
	if !end.After(t.DueAt) {
		return 0
	}
	return int(end.Sub(t.DueAt).Hours() / 24)
}

// Delegation is a task planned from one user to another with a target date
// that can be pushed out (revised) a tracked number of times.
type Delegation struct {
	ID           string
	Title        string
	FromID       string
	ToID         string
	PlannedDate  time.Time
	OriginalDate time.Time
	Revisions    int
	Done         bool
	DoneAt       *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TicketStatus is the lifecycle state of a help ticket.
type TicketStatus string

const (
	TicketOpen       TicketStatus = "open"
	TicketInProgress TicketStatus = "in_progress"
	TicketResolved   TicketStatus = "resolved"
	TicketClosed     TicketStatus = "closed"
)

// Actionable reports whether a ticket in this status can still be closed.
func (s TicketStatus) Actionable() bool {
	return s != TicketClosed
}

// TicketPriority orders help tickets for triage.
type TicketPriority string

const (
	PriorityLow    TicketPriority = "low"
	PriorityMedium TicketPriority = "medium"
	PriorityHigh   TicketPriority = "high"
	PriorityUrgent TicketPriority = "urgent"
)

// Ticket is a help request raised by one user and worked by another.
type Ticket struct {
	ID          string
	Title       string
	Description string
	RequesterID string
	AssigneeID  string
	Priority    TicketPriority
	Status      TicketStatus
	Resolution  string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ResolvedAt  *time.Time
}

// Action is one audit log entry: who did what to which entity.
type Action struct {
	ID         int64
	ActorID    string
	ActionType string
	EntityType string
	EntityID   string
	Detail     string
	Timestamp  time.Time
}

// Config holds per-checkout tool state persisted in .crew/config.json.
type Config struct {
	CurrentUser   string `json:"current_user,omitempty"`
	SearchQuery   string `json:"search_query,omitempty"`
	SortMode      string `json:"sort_mode,omitempty"`
	IncludeClosed bool   `json:"include_closed,omitempty"`
	BoardTab      string `json:"board_tab,omitempty"`
}

// ParseTaskStatus converts a status string, rejecting unknown values.
func ParseTaskStatus(s string) (TaskStatus, error) {
	switch TaskStatus(s) {
	case TaskPending, TaskCompleted, TaskClosed:
		return TaskStatus(s), nil
	}
	return "", fmt.Errorf("unknown task status %q", s)
}

// ParseTicketStatus converts a ticket status string, rejecting unknown values.
func ParseTicketStatus(s string) (TicketStatus, error) {
	switch TicketStatus(s) {
	case TicketOpen, TicketInProgress, TicketResolved, TicketClosed:
		return TicketStatus(s), nil
	}
	return "", fmt.Errorf("unknown ticket status %q", s)
}

// ParsePriority converts a priority string, rejecting unknown values.
func ParsePriority(s string) (TicketPriority, error) {
	switch TicketPriority(s) {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return TicketPriority(s), nil
	}
	return "", fmt.Errorf("unknown priority %q", s)
}

// ParseRecurrence converts a recurrence string, rejecting unknown values.
func ParseRecurrence(s string) (Recurrence, error) {
	switch Recurrence(s) {
	case RecurNone, RecurDaily, RecurWeekly, RecurMonthly:
		return Recurrence(s), nil
	}
	return "", fmt.Errorf("unknown recurrence %q", s)
}
