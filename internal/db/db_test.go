package db

import (
	"testing"
	"time"

	"github.com/crewhq/crew/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	dir := t.TempDir()
	database, err := Initialize(dir)
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func testUser(t *testing.T, database *DB, username string, role models.Role) *models.User {
	t.Helper()
	u := &models.User{Username: username, FullName: "Test " + username, Role: role, Active: true}
	if err := database.CreateUser(u); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	return u
}

func TestInitializeAndReopen(t *testing.T) {
	dir := t.TempDir()

	database, err := Initialize(dir)
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	database.Close()

	reopened, err := Open(dir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	reopened.Close()
}

func TestOpenMissingDatabase(t *testing.T) {
	_, err := Open(t.TempDir())
	if err == nil {
		t.Fatal("expected error opening missing database")
	}
}

func TestUserCRUD(t *testing.T) {
	database := testDB(t)

	u := testUser(t, database, "asha", models.RoleManager)
	if u.ID == "" {
		t.Fatal("expected generated user ID")
	}

	got, err := database.GetUserByUsername("asha")
	if err != nil {
		t.Fatalf("GetUserByUsername failed: %v", err)
	}
	if got.Role != models.RoleManager {
		t.Errorf("Role: got %q, want %q", got.Role, models.RoleManager)
	}
	if !got.Active {
		t.Error("expected user to be active")
	}

	if err := database.SetUserActive(u.ID, false); err != nil {
		t.Fatalf("SetUserActive failed: %v", err)
	}
	got, err = database.GetUser(u.ID)
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if got.Active {
		t.Error("expected user to be deactivated")
	}

	t.Run("active filter", func(t *testing.T) {
		testUser(t, database, "ravi", models.RoleMember)
		users, err := database.ListUsers(ListUsersOptions{ActiveOnly: true})
		if err != nil {
			t.Fatalf("ListUsers failed: %v", err)
		}
		if len(users) != 1 || users[0].Username != "ravi" {
			t.Errorf("expected only ravi active, got %d users", len(users))
		}
	})

	t.Run("duplicate username", func(t *testing.T) {
		dup := &models.User{Username: "ravi", Active: true}
		if err := database.CreateUser(dup); err == nil {
			t.Error("expected unique constraint error")
		}
	})
}

func TestTaskLifecycle(t *testing.T) {
	database := testDB(t)
	u := testUser(t, database, "asha", models.RoleMember)

	due := time.Now().Add(24 * time.Hour).Truncate(time.Second)
	task := &models.Task{Title: "File GST returns", AssigneeID: u.ID, DueAt: due}
	if err := database.CreateTask(task); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	got, err := database.GetTask(task.ID)
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if got.Status != models.TaskPending {
		t.Errorf("Status: got %q, want pending", got.Status)
	}
	if got.DueAt.Unix() != due.Unix() {
		t.Errorf("DueAt: got %v, want %v", got.DueAt, due)
	}

	t.Run("bare id normalized", func(t *testing.T) {
		bare := task.ID[len("tk-"):]
		if _, err := database.GetTask(bare); err != nil {
			t.Errorf("GetTask with bare id failed: %v", err)
		}
	})

	next, err := database.CompleteTask(task.ID, time.Now())
	if err != nil {
		t.Fatalf("CompleteTask failed: %v", err)
	}
	if next != nil {
		t.Error("non-recurring task should not plan a next occurrence")
	}

	got, _ = database.GetTask(task.ID)
	if got.Status != models.TaskCompleted {
		t.Errorf("Status after complete: got %q", got.Status)
	}
	if got.CompletedAt == nil {
		t.Error("expected CompletedAt to be set")
	}

	t.Run("double complete rejected", func(t *testing.T) {
		if _, err := database.CompleteTask(task.ID, time.Now()); err == nil {
			t.Error("expected error completing a completed task")
		}
	})
}

func TestCompleteRecurringTask(t *testing.T) {
	database := testDB(t)
	u := testUser(t, database, "asha", models.RoleMember)

	due := time.Date(2026, 3, 10, 19, 0, 0, 0, time.UTC)
	task := &models.Task{
		Title:      "Daily cash reconciliation",
		AssigneeID: u.ID,
		DueAt:      due,
		Recurrence: models.RecurDaily,
	}
	if err := database.CreateTask(task); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	next, err := database.CompleteTask(task.ID, due)
	if err != nil {
		t.Fatalf("CompleteTask failed: %v", err)
	}
	if next == nil {
		t.Fatal("expected next occurrence to be planned")
	}
	if next.ID == task.ID {
		t.Error("next occurrence must be a new task")
	}
	wantDue := due.AddDate(0, 0, 1)
	if !next.DueAt.Equal(wantDue) {
		t.Errorf("next DueAt: got %v, want %v", next.DueAt, wantDue)
	}

	pending, err := database.ListTasks(ListTasksOptions{Status: []models.TaskStatus{models.TaskPending}})
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if len(pending) != 1 {
		t.Errorf("expected 1 pending task, got %d", len(pending))
	}
}

func TestListTasksFilters(t *testing.T) {
	database := testDB(t)
	asha := testUser(t, database, "asha", models.RoleMember)
	ravi := testUser(t, database, "ravi", models.RoleMember)

	now := time.Now()
	for i, spec := range []struct {
		title    string
		assignee string
		due      time.Time
	}{
		{"overdue one", asha.ID, now.Add(-48 * time.Hour)},
		{"due later", asha.ID, now.Add(48 * time.Hour)},
		{"ravi's task", ravi.ID, now.Add(24 * time.Hour)},
	} {
		task := &models.Task{Title: spec.title, AssigneeID: spec.assignee, DueAt: spec.due}
		if err := database.CreateTask(task); err != nil {
			t.Fatalf("CreateTask %d failed: %v", i, err)
		}
	}

	t.Run("by assignee", func(t *testing.T) {
		tasks, err := database.ListTasks(ListTasksOptions{AssigneeID: asha.ID})
		if err != nil {
			t.Fatalf("ListTasks failed: %v", err)
		}
		if len(tasks) != 2 {
			t.Errorf("got %d tasks, want 2", len(tasks))
		}
	})

	t.Run("due before", func(t *testing.T) {
		tasks, err := database.ListTasks(ListTasksOptions{DueBefore: now})
		if err != nil {
			t.Fatalf("ListTasks failed: %v", err)
		}
		if len(tasks) != 1 || tasks[0].Title != "overdue one" {
			t.Errorf("expected only the overdue task, got %d", len(tasks))
		}
	})

	t.Run("sorted by due", func(t *testing.T) {
		tasks, err := database.ListTasks(ListTasksOptions{SortBy: "due"})
		if err != nil {
			t.Fatalf("ListTasks failed: %v", err)
		}
		if len(tasks) != 3 || tasks[0].Title != "overdue one" {
			t.Errorf("expected overdue task first, got %+v", tasks)
		}
	})
}

func TestDelegationLifecycle(t *testing.T) {
	database := testDB(t)
	from := testUser(t, database, "meera", models.RoleManager)
	to := testUser(t, database, "ravi", models.RoleMember)

	planned := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	d := &models.Delegation{Title: "Vendor follow-up", FromID: from.ID, ToID: to.ID, PlannedDate: planned}
	if err := database.CreateDelegation(d); err != nil {
		t.Fatalf("CreateDelegation failed: %v", err)
	}

	revised := planned.AddDate(0, 0, 3)
	if err := database.ReviseDelegation(d.ID, revised); err != nil {
		t.Fatalf("ReviseDelegation failed: %v", err)
	}

	got, err := database.GetDelegation(d.ID)
	if err != nil {
		t.Fatalf("GetDelegation failed: %v", err)
	}
	if got.Revisions != 1 {
		t.Errorf("Revisions: got %d, want 1", got.Revisions)
	}
	if !got.PlannedDate.Equal(revised) {
		t.Errorf("PlannedDate: got %v, want %v", got.PlannedDate, revised)
	}
	if !got.OriginalDate.Equal(planned) {
		t.Errorf("OriginalDate must stay pinned: got %v, want %v", got.OriginalDate, planned)
	}

	if err := database.CompleteDelegation(d.ID, time.Now()); err != nil {
		t.Fatalf("CompleteDelegation failed: %v", err)
	}
	if err := database.ReviseDelegation(d.ID, revised.AddDate(0, 0, 1)); err == nil {
		t.Error("expected error revising a done delegation")
	}
}

func TestTicketLifecycle(t *testing.T) {
	database := testDB(t)
	requester := testUser(t, database, "ravi", models.RoleMember)
	assignee := testUser(t, database, "meera", models.RoleManager)

	tk := &models.Ticket{Title: "VPN not connecting", RequesterID: requester.ID, Priority: models.PriorityHigh}
	if err := database.CreateTicket(tk); err != nil {
		t.Fatalf("CreateTicket failed: %v", err)
	}

	if err := database.AssignTicket(tk.ID, assignee.ID); err != nil {
		t.Fatalf("AssignTicket failed: %v", err)
	}
	got, err := database.GetTicket(tk.ID)
	if err != nil {
		t.Fatalf("GetTicket failed: %v", err)
	}
	if got.Status != models.TicketInProgress {
		t.Errorf("Status: got %q, want in_progress", got.Status)
	}

	if err := database.ResolveTicket(tk.ID, "reissued certificate", time.Now()); err != nil {
		t.Fatalf("ResolveTicket failed: %v", err)
	}
	got, _ = database.GetTicket(tk.ID)
	if got.Status != models.TicketResolved {
		t.Errorf("Status: got %q, want resolved", got.Status)
	}
	if got.Resolution != "reissued certificate" {
		t.Errorf("Resolution: got %q", got.Resolution)
	}
	if got.ResolvedAt == nil {
		t.Error("expected ResolvedAt to be set")
	}

	if err := database.CloseTicket(tk.ID); err != nil {
		t.Fatalf("CloseTicket failed: %v", err)
	}
	if err := database.CloseTicket(tk.ID); err == nil {
		t.Error("expected error closing a closed ticket")
	}
}

func TestTicketPriorityOrdering(t *testing.T) {
	database := testDB(t)
	u := testUser(t, database, "ravi", models.RoleMember)

	for _, p := range []models.TicketPriority{models.PriorityLow, models.PriorityUrgent, models.PriorityMedium} {
		tk := &models.Ticket{Title: string(p) + " ticket", RequesterID: u.ID, Priority: p}
		if err := database.CreateTicket(tk); err != nil {
			t.Fatalf("CreateTicket failed: %v", err)
		}
	}

	tickets, err := database.ListTickets(ListTicketsOptions{})
	if err != nil {
		t.Fatalf("ListTickets failed: %v", err)
	}
	if len(tickets) != 3 {
		t.Fatalf("got %d tickets, want 3", len(tickets))
	}
	if tickets[0].Priority != models.PriorityUrgent {
		t.Errorf("expected urgent first, got %q", tickets[0].Priority)
	}
	if tickets[2].Priority != models.PriorityLow {
		t.Errorf("expected low last, got %q", tickets[2].Priority)
	}
}

func TestAutoCloseResolvedTickets(t *testing.T) {
	database := testDB(t)
	u := testUser(t, database, "ravi", models.RoleMember)

	stale := &models.Ticket{Title: "old issue", RequesterID: u.ID}
	fresh := &models.Ticket{Title: "recent issue", RequesterID: u.ID}
	open := &models.Ticket{Title: "still open", RequesterID: u.ID}
	for _, tk := range []*models.Ticket{stale, fresh, open} {
		if err := database.CreateTicket(tk); err != nil {
			t.Fatalf("CreateTicket failed: %v", err)
		}
	}
	if err := database.ResolveTicket(stale.ID, "fixed", time.Now().AddDate(0, 0, -10)); err != nil {
		t.Fatalf("ResolveTicket failed: %v", err)
	}
	if err := database.ResolveTicket(fresh.ID, "fixed", time.Now()); err != nil {
		t.Fatalf("ResolveTicket failed: %v", err)
	}

	n, err := database.AutoCloseResolvedTickets(time.Now().AddDate(0, 0, -7))
	if err != nil {
		t.Fatalf("AutoCloseResolvedTickets failed: %v", err)
	}
	if n != 1 {
		t.Errorf("closed %d tickets, want 1", n)
	}

	got, _ := database.GetTicket(stale.ID)
	if got.Status != models.TicketClosed {
		t.Errorf("stale ticket status = %q, want closed", got.Status)
	}
	got, _ = database.GetTicket(fresh.ID)
	if got.Status != models.TicketResolved {
		t.Errorf("fresh ticket status = %q, want resolved", got.Status)
	}
	got, _ = database.GetTicket(open.ID)
	if got.Status != models.TicketOpen {
		t.Errorf("open ticket status = %q, want open", got.Status)
	}
}

func TestActionLog(t *testing.T) {
	database := testDB(t)

	for i := 0; i < 3; i++ {
		a := &models.Action{ActorID: "us-1", ActionType: "complete", EntityType: "task", EntityID: "tk-1"}
		if err := database.LogAction(a); err != nil {
			t.Fatalf("LogAction failed: %v", err)
		}
		if a.ID == 0 {
			t.Error("expected LastInsertId to be recorded")
		}
	}

	recent, err := database.GetRecentActions(2)
	if err != nil {
		t.Fatalf("GetRecentActions failed: %v", err)
	}
	if len(recent) != 2 {
		t.Errorf("got %d actions, want 2", len(recent))
	}

	since, err := database.GetActionsSince(1, 10)
	if err != nil {
		t.Fatalf("GetActionsSince failed: %v", err)
	}
	if len(since) != 2 {
		t.Errorf("got %d actions since id 1, want 2", len(since))
	}
	if len(since) > 0 && since[0].ID != 2 {
		t.Errorf("expected oldest-first paging, got first id %d", since[0].ID)
	}
}

func TestSessions(t *testing.T) {
	database := testDB(t)
	u := testUser(t, database, "asha", models.RoleAdmin)

	now := time.Now().Truncate(time.Second)
	s := &SessionRow{ID: "ses-abc123", UserID: u.ID, TokenHash: "deadbeef", StartedAt: now, LastActivity: now}
	if err := database.UpsertSession(s); err != nil {
		t.Fatalf("UpsertSession failed: %v", err)
	}

	got, err := database.GetSessionByTokenHash("deadbeef")
	if err != nil {
		t.Fatalf("GetSessionByTokenHash failed: %v", err)
	}
	if got == nil || got.UserID != u.ID {
		t.Fatalf("unexpected session: %+v", got)
	}

	missing, err := database.GetSessionByTokenHash("nope")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for unknown token")
	}

	if err := database.DeleteSession(s.ID); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}
	gone, _ := database.GetSessionByTokenHash("deadbeef")
	if gone != nil {
		t.Error("expected session to be deleted")
	}
}
