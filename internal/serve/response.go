// Package serve provides the HTTP API for crew serve: response envelopes,
// DTOs with explicit JSON serialization, token-session auth and an SSE
// stream of audit actions.
package serve

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/crewhq/crew/internal/models"
)

// Envelope is the standard response wrapper for all API responses.
// Success: {"ok": true, "data": {...}}
// Error:   {"ok": false, "error": {"code": "...", "message": "...", "details": ...}}
type Envelope struct {
	OK    bool          `json:"ok"`
	Data  interface{}   `json:"data,omitempty"`
	Error *ErrorPayload `json:"error,omitempty"`
}

// ErrorPayload holds structured error information.
type ErrorPayload struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// FieldError describes a single validation failure on a request field.
type FieldError struct {
	Field   string      `json:"field"`
	Rule    string      `json:"rule"`
	Value   interface{} `json:"value,omitempty"`
	Message string      `json:"message"`
}

// Standard error codes mapped to HTTP status codes.
const (
	ErrValidation   = "validation_error" // 400
	ErrNotFound     = "not_found"        // 404
	ErrConflict     = "conflict"         // 409
	ErrUnauthorized = "unauthorized"     // 401
	ErrForbidden    = "forbidden"        // 403
	ErrInternal     = "internal"         // 500
)

// WriteSuccess writes a JSON success envelope with the given data and status.
func WriteSuccess(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(Envelope{OK: true, Data: data}); err != nil {
		slog.Error("write success response", "err", err)
	}
}

// WriteError writes a JSON error envelope.
func WriteError(w http.ResponseWriter, code, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(Envelope{
		OK: false,
		Error: &ErrorPayload{
			Code:    code,
			Message: message,
		},
	}); err != nil {
		slog.Error("write error response", "err", err)
	}
}

// WriteValidation writes a 400 validation_error response with field-level details.
func WriteValidation(w http.ResponseWriter, fields []FieldError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	if err := json.NewEncoder(w).Encode(Envelope{
		OK: false,
		Error: &ErrorPayload{
			Code:    ErrValidation,
			Message: "Validation failed",
			Details: fields,
		},
	}); err != nil {
		slog.Error("write validation response", "err", err)
	}
}

// decodeJSON decodes the request body into dst, rejecting unknown fields.
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

// TaskDTO is the API representation of a task. Nullable fields use
// pointers so they serialize as JSON null when unset.
type TaskDTO struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	AssigneeID  string  `json:"assignee_id"`
	AssignerID  string  `json:"assigner_id"`
	Status      string  `json:"status"`
	Recurrence  string  `json:"recurrence"`
	DueAt       *string `json:"due_at"`
	CompletedAt *string `json:"completed_at"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

func taskToDTO(t *models.Task) TaskDTO {
	dto := TaskDTO{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		AssigneeID:  t.AssigneeID,
		AssignerID:  t.AssignerID,
		Status:      string(t.Status),
		Recurrence:  string(t.Recurrence),
		CreatedAt:   t.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   t.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if !t.DueAt.IsZero() {
		s := t.DueAt.UTC().Format(time.RFC3339)
		dto.DueAt = &s
	}
	if t.CompletedAt != nil {
		s := t.CompletedAt.UTC().Format(time.RFC3339)
		dto.CompletedAt = &s
	}
	return dto
}

// TicketDTO is the API representation of a help ticket.
type TicketDTO struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	RequesterID string  `json:"requester_id"`
	AssigneeID  string  `json:"assignee_id"`
	Priority    string  `json:"priority"`
	Status      string  `json:"status"`
	Resolution  string  `json:"resolution"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
	ResolvedAt  *string `json:"resolved_at"`
}

func ticketToDTO(t *models.Ticket) TicketDTO {
	dto := TicketDTO{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		RequesterID: t.RequesterID,
		AssigneeID:  t.AssigneeID,
		Priority:    string(t.Priority),
		Status:      string(t.Status),
		Resolution:  t.Resolution,
		CreatedAt:   t.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   t.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if t.ResolvedAt != nil {
		s := t.ResolvedAt.UTC().Format(time.RFC3339)
		dto.ResolvedAt = &s
	}
	return dto
}

// UserDTO is the API representation of a user. The password hash never
// leaves the server.
type UserDTO struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
	Active   bool   `json:"active"`
}

func userToDTO(u *models.User) UserDTO {
	return UserDTO{
		ID:       u.ID,
		Username: u.Username,
		FullName: u.FullName,
		Role:     string(u.Role),
		Active:   u.Active,
	}
}

// ActionDTO is the API representation of an audit log entry.
type ActionDTO struct {
	ID         int64  `json:"id"`
	ActorID    string `json:"actor_id"`
	ActionType string `json:"action_type"`
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
	Detail     string `json:"detail"`
	Timestamp  string `json:"timestamp"`
}

func actionToDTO(a *models.Action) ActionDTO {
	return ActionDTO{
		ID:         a.ID,
		ActorID:    a.ActorID,
		ActionType: a.ActionType,
		EntityType: a.EntityType,
		EntityID:   a.EntityID,
		Detail:     a.Detail,
		Timestamp:  a.Timestamp.UTC().Format(time.RFC3339),
	}
}
