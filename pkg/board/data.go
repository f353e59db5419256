package board

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sahilm/fuzzy"

	"github.com/crewhq/crew/internal/db"
	"github.com/crewhq/crew/internal/models"
)

// refreshInterval is how often the board re-reads the database. Other
// processes write the same file, so the board polls rather than watches.
const refreshInterval = 2 * time.Second

// tickMsg drives the periodic refresh.
type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// refreshMsg carries a fresh snapshot of board data.
type refreshMsg struct {
	Tasks       []models.Task
	Delegations []models.Delegation
	Tickets     []models.Ticket
	Err         error
	Timestamp   time.Time
}

// bulkDoneMsg reports the outcome of a bulk mutation.
type bulkDoneMsg struct {
	FormID  string
	Applied int
	Err     error
}

// fetchCmd loads the board snapshot in the background.
func fetchCmd(database *db.DB, assigneeID string, includeClosed bool) tea.Cmd {
	return func() tea.Msg {
		msg := refreshMsg{Timestamp: time.Now()}

		statuses := []models.TaskStatus{models.TaskPending}
		if includeClosed {
			statuses = append(statuses, models.TaskCompleted, models.TaskClosed)
		}
		tasks, err := database.ListTasks(db.ListTasksOptions{
			AssigneeID: assigneeID,
			Status:     statuses,
			SortBy:     "due",
		})
		if err != nil {
			msg.Err = err
			return msg
		}
		msg.Tasks = tasks

		delegations, err := database.ListDelegations(db.ListDelegationsOptions{
			ToID:        assigneeID,
			PendingOnly: !includeClosed,
		})
		if err != nil {
			msg.Err = err
			return msg
		}
		msg.Delegations = delegations

		ticketStatuses := []models.TicketStatus{models.TicketOpen, models.TicketInProgress}
		if includeClosed {
			ticketStatuses = append(ticketStatuses, models.TicketResolved, models.TicketClosed)
		}
		tickets, err := database.ListTickets(db.ListTicketsOptions{
			AssigneeID: assigneeID,
			Status:     ticketStatuses,
		})
		if err != nil {
			msg.Err = err
			return msg
		}
		msg.Tickets = tickets

		return msg
	}
}

// bulkCompleteCmd completes the given tasks and logs one audit action per task.
func bulkCompleteCmd(database *db.DB, actorID string, ids []string) tea.Cmd {
	return func() tea.Msg {
		msg := bulkDoneMsg{FormID: formTasks}
		now := time.Now()
		for _, id := range ids {
			if _, err := database.CompleteTask(id, now); err != nil {
				msg.Err = err
				return msg
			}
			_ = database.LogAction(&models.Action{
				ActorID:    actorID,
				ActionType: "task.completed",
				EntityType: "task",
				EntityID:   id,
			})
			msg.Applied++
		}
		return msg
	}
}

// bulkCompleteDelegationsCmd marks the given delegations done and logs
// audit actions.
func bulkCompleteDelegationsCmd(database *db.DB, actorID string, ids []string) tea.Cmd {
	return func() tea.Msg {
		msg := bulkDoneMsg{FormID: formDelegations}
		now := time.Now()
		for _, id := range ids {
			if err := database.CompleteDelegation(id, now); err != nil {
				msg.Err = err
				return msg
			}
			_ = database.LogAction(&models.Action{
				ActorID:    actorID,
				ActionType: "delegation.completed",
				EntityType: "delegation",
				EntityID:   id,
			})
			msg.Applied++
		}
		return msg
	}
}

// bulkCloseTicketsCmd closes the given tickets and logs audit actions.
func bulkCloseTicketsCmd(database *db.DB, actorID string, ids []string) tea.Cmd {
	return func() tea.Msg {
		msg := bulkDoneMsg{FormID: formTickets}
		for _, id := range ids {
			if err := database.CloseTicket(id); err != nil {
				msg.Err = err
				return msg
			}
			_ = database.LogAction(&models.Action{
				ActorID:    actorID,
				ActionType: "ticket.closed",
				EntityType: "ticket",
				EntityID:   id,
			})
			msg.Applied++
		}
		return msg
	}
}

// filterTasks narrows tasks to fuzzy matches against the query.
// An empty query returns the input unchanged.
func filterTasks(tasks []models.Task, query string) []models.Task {
	if query == "" {
		return tasks
	}
	haystack := make([]string, len(tasks))
	for i, t := range tasks {
		haystack[i] = t.ID + " " + t.Title
	}
	matches := fuzzy.Find(query, haystack)
	out := make([]models.Task, 0, len(matches))
	for _, m := range matches {
		out = append(out, tasks[m.Index])
	}
	return out
}

// filterDelegations narrows delegations to fuzzy matches against the query.
func filterDelegations(delegations []models.Delegation, query string) []models.Delegation {
	if query == "" {
		return delegations
	}
	haystack := make([]string, len(delegations))
	for i, d := range delegations {
		haystack[i] = d.ID + " " + d.Title
	}
	matches := fuzzy.Find(query, haystack)
	out := make([]models.Delegation, 0, len(matches))
	for _, m := range matches {
		out = append(out, delegations[m.Index])
	}
	return out
}

// filterTickets narrows tickets to fuzzy matches against the query.
func filterTickets(tickets []models.Ticket, query string) []models.Ticket {
	if query == "" {
		return tickets
	}
	haystack := make([]string, len(tickets))
	for i, tk := range tickets {
		haystack[i] = tk.ID + " " + tk.Title
	}
	matches := fuzzy.Find(query, haystack)
	out := make([]models.Ticket, 0, len(matches))
	for _, m := range matches {
		out = append(out, tickets[m.Index])
	}
	return out
}
