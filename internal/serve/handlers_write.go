package serve

import (
	"net/http"
	"strings"
	"time"

	"github.com/crewhq/crew/internal/db"
	"github.com/crewhq/crew/internal/models"
)

// handleLogin exchanges credentials for a bearer token.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, ErrValidation, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Username == "" || req.Password == "" {
		WriteValidation(w, []FieldError{
			{Field: "username", Rule: "required", Message: "username and password are required"},
		})
		return
	}

	token, user, err := Login(s.db, req.Username, req.Password)
	if err != nil {
		WriteError(w, ErrUnauthorized, err.Error(), http.StatusUnauthorized)
		return
	}

	WriteSuccess(w, map[string]interface{}{
		"token": token,
		"user":  userToDTO(user),
	}, http.StatusOK)
}

// handleLogout removes the caller's session.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if err := Logout(s.db, token); err != nil {
		WriteError(w, ErrInternal, err.Error(), http.StatusInternalServerError)
		return
	}
	WriteSuccess(w, map[string]bool{"logged_out": true}, http.StatusOK)
}

// handleCreateTask creates a task. Assigning to someone else requires
// the assign permission.
func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	actor := userFrom(r.Context())

	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		AssigneeID  string `json:"assignee_id"`
		Recurrence  string `json:"recurrence"`
		DueAt       string `json:"due_at"`
	}
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, ErrValidation, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Title == "" {
		WriteValidation(w, []FieldError{
			{Field: "title", Rule: "required", Message: "title is required"},
		})
		return
	}

	assigneeID := req.AssigneeID
	if assigneeID == "" {
		assigneeID = actor.ID
	}
	if assigneeID != actor.ID && !actor.Role.HasPermission(models.PermAssignTasks) {
		WriteError(w, ErrForbidden, "role cannot assign tasks to others", http.StatusForbidden)
		return
	}
	if _, err := s.db.GetUser(assigneeID); err != nil {
		WriteValidation(w, []FieldError{
			{Field: "assignee_id", Rule: "exists", Value: assigneeID, Message: err.Error()},
		})
		return
	}

	recurrence := models.RecurNone
	if req.Recurrence != "" {
		var err error
		recurrence, err = models.ParseRecurrence(req.Recurrence)
		if err != nil {
			WriteValidation(w, []FieldError{
				{Field: "recurrence", Rule: "enum", Value: req.Recurrence, Message: err.Error()},
			})
			return
		}
	}

	var due time.Time
	if req.DueAt != "" {
		var err error
		due, err = time.Parse("2006-01-02", req.DueAt)
		if err != nil {
			WriteValidation(w, []FieldError{
				{Field: "due_at", Rule: "date", Value: req.DueAt, Message: "want YYYY-MM-DD"},
			})
			return
		}
	}
	if recurrence != models.RecurNone && due.IsZero() {
		WriteValidation(w, []FieldError{
			{Field: "due_at", Rule: "required", Message: "recurring tasks need a due date"},
		})
		return
	}

	task := &models.Task{
		Title:       req.Title,
		Description: req.Description,
		AssigneeID:  assigneeID,
		AssignerID:  actor.ID,
		Recurrence:  recurrence,
		DueAt:       due,
	}
	if err := s.db.CreateTask(task); err != nil {
		WriteError(w, ErrInternal, err.Error(), http.StatusInternalServerError)
		return
	}

	s.logAction(actor.ID, "task.created", "task", task.ID, task.Title)
	WriteSuccess(w, taskToDTO(task), http.StatusCreated)
}

// handleCreateTicket opens a help ticket as the caller.
func (s *Server) handleCreateTicket(w http.ResponseWriter, r *http.Request) {
	actor := userFrom(r.Context())

	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Priority    string `json:"priority"`
	}
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, ErrValidation, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Title == "" {
		WriteValidation(w, []FieldError{
			{Field: "title", Rule: "required", Message: "title is required"},
		})
		return
	}

	priority := models.PriorityMedium
	if req.Priority != "" {
		var err error
		priority, err = models.ParsePriority(req.Priority)
		if err != nil {
			WriteValidation(w, []FieldError{
				{Field: "priority", Rule: "enum", Value: req.Priority, Message: err.Error()},
			})
			return
		}
	}

	ticket := &models.Ticket{
		Title:       req.Title,
		Description: req.Description,
		RequesterID: actor.ID,
		Priority:    priority,
	}
	if err := s.db.CreateTicket(ticket); err != nil {
		WriteError(w, ErrInternal, err.Error(), http.StatusInternalServerError)
		return
	}

	s.logAction(actor.ID, "ticket.opened", "ticket", ticket.ID, ticket.Title)
	WriteSuccess(w, ticketToDTO(ticket), http.StatusCreated)
}

// bulkResult reports the outcome of one ID in a bulk operation.
type bulkResult struct {
	ID    string `json:"id"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// handleBulkCompleteTasks completes a set of tasks, continuing past
// individual failures so one bad ID cannot poison the batch.
func (s *Server) handleBulkCompleteTasks(w http.ResponseWriter, r *http.Request) {
	actor := userFrom(r.Context())
	if !actor.Role.HasPermission(models.PermBulkComplete) {
		WriteError(w, ErrForbidden, "role cannot bulk-complete", http.StatusForbidden)
		return
	}

	var req struct {
		IDs []string `json:"ids"`
	}
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, ErrValidation, err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.IDs) == 0 {
		WriteValidation(w, []FieldError{
			{Field: "ids", Rule: "required", Message: "ids must be a non-empty list"},
		})
		return
	}

	now := time.Now()
	completed := 0
	results := make([]bulkResult, 0, len(req.IDs))
	for _, id := range req.IDs {
		id = db.NormalizeTaskID(id)
		if _, err := s.db.CompleteTask(id, now); err != nil {
			results = append(results, bulkResult{ID: id, Error: err.Error()})
			continue
		}
		s.logAction(actor.ID, "task.completed", "task", id, "")
		results = append(results, bulkResult{ID: id, OK: true})
		completed++
	}

	WriteSuccess(w, map[string]interface{}{
		"completed": completed,
		"results":   results,
	}, http.StatusOK)
}

// handleBulkCloseTickets closes a set of tickets.
func (s *Server) handleBulkCloseTickets(w http.ResponseWriter, r *http.Request) {
	actor := userFrom(r.Context())
	if !actor.Role.HasPermission(models.PermResolveTickets) {
		WriteError(w, ErrForbidden, "role cannot close tickets", http.StatusForbidden)
		return
	}

	var req struct {
		IDs []string `json:"ids"`
	}
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, ErrValidation, err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.IDs) == 0 {
		WriteValidation(w, []FieldError{
			{Field: "ids", Rule: "required", Message: "ids must be a non-empty list"},
		})
		return
	}

	closed := 0
	results := make([]bulkResult, 0, len(req.IDs))
	for _, id := range req.IDs {
		id = db.NormalizeTicketID(id)
		if err := s.db.CloseTicket(id); err != nil {
			results = append(results, bulkResult{ID: id, Error: err.Error()})
			continue
		}
		s.logAction(actor.ID, "ticket.closed", "ticket", id, "")
		results = append(results, bulkResult{ID: id, OK: true})
		closed++
	}

	WriteSuccess(w, map[string]interface{}{
		"closed":  closed,
		"results": results,
	}, http.StatusOK)
}

// logAction records an audit entry; failures only lose the log line.
func (s *Server) logAction(actorID, actionType, entityType, entityID, detail string) {
	_ = s.db.LogAction(&models.Action{
		ActorID:    actorID,
		ActionType: actionType,
		EntityType: entityType,
		EntityID:   entityID,
		Detail:     detail,
	})
}
