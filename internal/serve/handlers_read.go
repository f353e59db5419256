package serve

import (
	"net/http"
	"strconv"
	"time"

	"github.com/crewhq/crew/internal/db"
	"github.com/crewhq/crew/internal/models"
	"github.com/crewhq/crew/internal/report"
)

// handleHealth reports the server and database status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{
		"status":  "ok",
		"version": "1",
	}
	if err := s.db.Conn().Ping(); err != nil {
		status["status"] = "degraded"
		status["db"] = err.Error()
	}
	WriteSuccess(w, status, http.StatusOK)
}

// handleListTasks returns tasks, filtered by the query parameters
// assignee, status and due_before.
func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	opts := db.ListTasksOptions{
		AssigneeID: q.Get("assignee"),
		SortBy:     q.Get("sort"),
	}
	if statusStr := q.Get("status"); statusStr != "" {
		status, err := models.ParseTaskStatus(statusStr)
		if err != nil {
			WriteValidation(w, []FieldError{{
				Field: "status", Rule: "enum", Value: statusStr, Message: err.Error(),
			}})
			return
		}
		opts.Status = []models.TaskStatus{status}
	}
	if dueStr := q.Get("due_before"); dueStr != "" {
		due, err := time.Parse("2006-01-02", dueStr)
		if err != nil {
			WriteValidation(w, []FieldError{{
				Field: "due_before", Rule: "date", Value: dueStr, Message: "want YYYY-MM-DD",
			}})
			return
		}
		opts.DueBefore = due
	}

	tasks, err := s.db.ListTasks(opts)
	if err != nil {
		WriteError(w, ErrInternal, err.Error(), http.StatusInternalServerError)
		return
	}

	dtos := make([]TaskDTO, 0, len(tasks))
	for i := range tasks {
		dtos = append(dtos, taskToDTO(&tasks[i]))
	}
	WriteSuccess(w, dtos, http.StatusOK)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.db.GetTask(r.PathValue("id"))
	if err != nil {
		WriteError(w, ErrNotFound, err.Error(), http.StatusNotFound)
		return
	}
	WriteSuccess(w, taskToDTO(task), http.StatusOK)
}

func (s *Server) handleListTickets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	opts := db.ListTicketsOptions{
		AssigneeID:  q.Get("assignee"),
		RequesterID: q.Get("requester"),
	}
	if statusStr := q.Get("status"); statusStr != "" {
		status, err := models.ParseTicketStatus(statusStr)
		if err != nil {
			WriteValidation(w, []FieldError{{
				Field: "status", Rule: "enum", Value: statusStr, Message: err.Error(),
			}})
			return
		}
		opts.Status = []models.TicketStatus{status}
	}

	tickets, err := s.db.ListTickets(opts)
	if err != nil {
		WriteError(w, ErrInternal, err.Error(), http.StatusInternalServerError)
		return
	}

	dtos := make([]TicketDTO, 0, len(tickets))
	for i := range tickets {
		dtos = append(dtos, ticketToDTO(&tickets[i]))
	}
	WriteSuccess(w, dtos, http.StatusOK)
}

func (s *Server) handleGetTicket(w http.ResponseWriter, r *http.Request) {
	ticket, err := s.db.GetTicket(r.PathValue("id"))
	if err != nil {
		WriteError(w, ErrNotFound, err.Error(), http.StatusNotFound)
		return
	}
	WriteSuccess(w, ticketToDTO(ticket), http.StatusOK)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	opts := db.ListUsersOptions{
		ActiveOnly: r.URL.Query().Get("all") == "",
	}
	users, err := s.db.ListUsers(opts)
	if err != nil {
		WriteError(w, ErrInternal, err.Error(), http.StatusInternalServerError)
		return
	}

	dtos := make([]UserDTO, 0, len(users))
	for i := range users {
		dtos = append(dtos, userToDTO(&users[i]))
	}
	WriteSuccess(w, dtos, http.StatusOK)
}

func (s *Server) handleListDelegations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	delegations, err := s.db.ListDelegations(db.ListDelegationsOptions{
		ToID:        q.Get("to"),
		FromID:      q.Get("from"),
		PendingOnly: q.Get("pending") != "",
	})
	if err != nil {
		WriteError(w, ErrInternal, err.Error(), http.StatusInternalServerError)
		return
	}
	WriteSuccess(w, delegations, http.StatusOK)
}

// handleWeeklyReport computes last week's scores. Reports are gated on
// the caller's role.
func (s *Server) handleWeeklyReport(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	if user == nil || !user.Role.HasPermission(models.PermViewReports) {
		WriteError(w, ErrForbidden, "role cannot view reports", http.StatusForbidden)
		return
	}

	week := report.LastWeek(time.Now(), s.settings.Org.WeekStart)
	scores, err := report.ComputeWeekly(s.db, s.settings, week)
	if err != nil {
		WriteError(w, ErrInternal, err.Error(), http.StatusInternalServerError)
		return
	}

	WriteSuccess(w, map[string]interface{}{
		"week_start": week.Start.Format("2006-01-02"),
		"week_end":   week.End.Format("2006-01-02"),
		"scores":     scores,
	}, http.StatusOK)
}

// handleListActions returns audit actions. With ?after=<id> it pages
// forward from that action, oldest first; otherwise the newest entries.
func (s *Server) handleListActions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := 50
	if limitStr := q.Get("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n < 1 || n > 500 {
			WriteValidation(w, []FieldError{{
				Field: "limit", Rule: "range", Value: limitStr, Message: "want 1..500",
			}})
			return
		}
		limit = n
	}

	var actions []models.Action
	var err error
	if afterStr := q.Get("after"); afterStr != "" {
		after, perr := strconv.ParseInt(afterStr, 10, 64)
		if perr != nil {
			WriteValidation(w, []FieldError{{
				Field: "after", Rule: "integer", Value: afterStr, Message: "want an action id",
			}})
			return
		}
		actions, err = s.db.GetActionsSince(after, limit)
	} else {
		actions, err = s.db.GetRecentActions(limit)
	}
	if err != nil {
		WriteError(w, ErrInternal, err.Error(), http.StatusInternalServerError)
		return
	}

	dtos := make([]ActionDTO, 0, len(actions))
	for i := range actions {
		dtos = append(dtos, actionToDTO(&actions[i]))
	}
	WriteSuccess(w, dtos, http.StatusOK)
}
