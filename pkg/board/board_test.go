package board

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/crewhq/crew/internal/models"
	"github.com/crewhq/crew/internal/settings"
)

func testModel(t *testing.T, tasks []models.Task, tickets []models.Ticket) Model {
	t.Helper()
	m := New(nil, settings.Defaults(), "us-test01", false)
	m.width = 100
	m.height = 30
	m = m.applyRefresh(refreshMsg{Tasks: tasks, Tickets: tickets, Timestamp: time.Now()})
	return m
}

func pendingTasks(n int) []models.Task {
	tasks := make([]models.Task, n)
	for i := range tasks {
		tasks[i] = models.Task{
			ID:     "tk-" + string(rune('a'+i)) + "00000",
			Title:  "task " + string(rune('a'+i)),
			Status: models.TaskPending,
		}
	}
	return tasks
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func TestRefreshBuildsRows(t *testing.T) {
	m := testModel(t, pendingTasks(3), nil)

	ctrl := m.registry.Get(formTasks)
	if ctrl == nil {
		t.Fatal("tasks controller not attached")
	}
	s := ctrl.State()
	if s.TotalCount != 3 || s.SelectedCount != 0 {
		t.Errorf("state = %+v, want 3 total 0 selected", s)
	}
	if m.registry.Get(formTickets) == nil {
		t.Error("tickets controller not attached")
	}
}

func TestToggleAndRangeKeys(t *testing.T) {
	m := testModel(t, pendingTasks(5), nil)

	// Toggle the first row, then range-extend from row 0 to row 3.
	m = press(t, m, "x", "j", "j", "j", "X")

	ctrl := m.registry.Get(formTasks)
	ids := ctrl.SelectedIDs()
	if len(ids) != 4 {
		t.Fatalf("selected %v, want rows 0..3", ids)
	}
	surf := m.surfaceFor(TabTasks)
	if surf.counter != "4" {
		t.Errorf("counter = %q, want 4", surf.counter)
	}
	if !surf.indeterminate {
		t.Error("expected indeterminate select-all with 4 of 5 selected")
	}
	if !surf.submitEnabled {
		t.Error("submit should be enabled")
	}
}

func TestSelectAllAndClearKeys(t *testing.T) {
	m := testModel(t, pendingTasks(4), nil)

	m = press(t, m, "a")
	surf := m.surfaceFor(TabTasks)
	if !surf.allOn || surf.counter != "4" {
		t.Fatalf("after a: allOn=%v counter=%q", surf.allOn, surf.counter)
	}

	// a again keeps the full selection
	m = press(t, m, "a")
	if m.surfaceFor(TabTasks).counter != "4" {
		t.Errorf("second a dropped selection: counter=%q", m.surfaceFor(TabTasks).counter)
	}

	m = press(t, m, "esc")
	if m.surfaceFor(TabTasks).counter != "0" {
		t.Errorf("esc did not clear: counter=%q", m.surfaceFor(TabTasks).counter)
	}
	if m.surfaceFor(TabTasks).submitEnabled {
		t.Error("submit should be disabled after clear")
	}
}

func TestSelectionSurvivesRefresh(t *testing.T) {
	tasks := pendingTasks(3)
	m := testModel(t, tasks, nil)
	m = press(t, m, "x")

	// New snapshot with one extra task; the checked row keeps its state.
	grown := append(pendingTasks(3), models.Task{ID: "tk-z00000", Title: "task z", Status: models.TaskPending})
	m = m.applyRefresh(refreshMsg{Tasks: grown, Timestamp: time.Now()})

	ctrl := m.registry.Get(formTasks)
	s := ctrl.State()
	if s.TotalCount != 4 || s.SelectedCount != 1 {
		t.Errorf("state after refresh = %+v, want 4 total 1 selected", s)
	}
	if ids := ctrl.SelectedIDs(); len(ids) != 1 || ids[0] != tasks[0].ID {
		t.Errorf("selected ids after refresh = %v", ids)
	}
}

func TestCompletedTasksNotSelectable(t *testing.T) {
	tasks := pendingTasks(2)
	tasks = append(tasks, models.Task{ID: "tk-done01", Title: "done", Status: models.TaskCompleted})
	m := New(nil, settings.Defaults(), "us-test01", true)
	m.width = 100
	m.height = 30
	m = m.applyRefresh(refreshMsg{Tasks: tasks, Timestamp: time.Now()})

	m = press(t, m, "a")
	ctrl := m.registry.Get(formTasks)
	if s := ctrl.State(); s.TotalCount != 2 || s.SelectedCount != 2 {
		t.Errorf("state = %+v, completed task must not count", s)
	}
}

func TestEnterOpensConfirmAndSubmits(t *testing.T) {
	m := testModel(t, pendingTasks(3), nil)

	// Nothing selected: no prompt, just a status note.
	m = press(t, m, "enter")
	if m.confirming {
		t.Fatal("confirm prompt opened with empty selection")
	}
	if m.status != "nothing selected" {
		t.Errorf("status = %q", m.status)
	}

	m = press(t, m, "x", "j", "x", "enter")
	if !m.confirming {
		t.Fatal("confirm prompt did not open")
	}

	// Decline leaves the selection intact.
	m = press(t, m, "n")
	if m.confirming {
		t.Fatal("still confirming after decline")
	}
	if m.surfaceFor(TabTasks).counter != "2" {
		t.Errorf("decline changed selection: counter=%q", m.surfaceFor(TabTasks).counter)
	}

	// Accept captures the selected IDs and issues the bulk command.
	m = press(t, m, "enter")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")})
	m = next.(Model)
	if cmd == nil {
		t.Fatal("accept did not produce a command")
	}
	surf := m.surfaceFor(TabTasks)
	if len(surf.submitIDs) != 2 {
		t.Errorf("submitIDs = %v, want 2 ids", surf.submitIDs)
	}
}

func TestBulkDoneDetachesController(t *testing.T) {
	m := testModel(t, pendingTasks(2), nil)
	m = press(t, m, "a", "enter", "y")

	next, cmd := m.Update(bulkDoneMsg{FormID: formTasks, Applied: 2})
	m = next.(Model)
	if m.registry.Get(formTasks) != nil {
		t.Error("spent controller should be detached")
	}
	if cmd == nil {
		t.Error("expected a refresh command after bulk completion")
	}
	if m.status != "Completed 2 tasks" {
		t.Errorf("status = %q", m.status)
	}

	// Next snapshot attaches a fresh, unlocked controller.
	m = m.applyRefresh(refreshMsg{Tasks: pendingTasks(2), Timestamp: time.Now()})
	ctrl := m.registry.Get(formTasks)
	if ctrl == nil {
		t.Fatal("controller not re-attached after refresh")
	}
	m = press(t, m, "x")
	if !m.surfaceFor(TabTasks).submitEnabled {
		t.Error("fresh controller should accept a new submission")
	}
}

func TestSearchSuppressesSelectionKeys(t *testing.T) {
	m := testModel(t, pendingTasks(3), nil)

	m = press(t, m, "/", "a")
	ctrl := m.registry.Get(formTasks)
	if s := ctrl.State(); s.SelectedCount != 0 {
		t.Errorf("a while searching selected rows: %+v", s)
	}
	if m.query != "a" {
		t.Errorf("query = %q, want typed text", m.query)
	}
}

func TestFilterHidesRows(t *testing.T) {
	tasks := []models.Task{
		{ID: "tk-aaaaaa", Title: "write report", Status: models.TaskPending},
		{ID: "tk-bbbbbb", Title: "fix printer", Status: models.TaskPending},
	}
	m := testModel(t, tasks, nil)

	m = press(t, m, "/")
	for _, r := range "report" {
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = next.(Model)
	}
	if len(m.tasks) != 1 {
		t.Fatalf("filtered tasks = %d, want 1", len(m.tasks))
	}

	// Select-all after committing the search touches only visible rows.
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	m = press(t, m, "a")
	ctrl := m.registry.Get(formTasks)
	if s := ctrl.State(); s.TotalCount != 1 || s.SelectedCount != 1 {
		t.Errorf("state with filter = %+v, want 1/1", s)
	}
}

func TestTabSwitchKeepsPerFormSelection(t *testing.T) {
	tickets := []models.Ticket{
		{ID: "ht-111111", Title: "vpn down", Status: models.TicketOpen, Priority: models.PriorityHigh},
	}
	m := testModel(t, pendingTasks(2), tickets)

	m = press(t, m, "x", "3", "x")
	if m.tab != TabTickets {
		t.Fatalf("tab = %v", m.tab)
	}
	if got := m.surfaceFor(TabTickets).counter; got != "1" {
		t.Errorf("ticket counter = %q", got)
	}
	if got := m.surfaceFor(TabTasks).counter; got != "1" {
		t.Errorf("task selection lost on tab switch: counter = %q", got)
	}
}

func TestTabCyclesThroughAllLists(t *testing.T) {
	m := testModel(t, pendingTasks(1), nil)

	m = press(t, m, "tab")
	if m.tab != TabDelegations {
		t.Fatalf("tab after one press = %v, want delegations", m.tab)
	}
	m = press(t, m, "tab", "tab")
	if m.tab != TabTasks {
		t.Errorf("tab after full cycle = %v, want tasks", m.tab)
	}
}

func TestDelegationsTabBulkDone(t *testing.T) {
	delegations := []models.Delegation{
		{ID: "dl-111111", Title: "collect invoices", PlannedDate: time.Now().AddDate(0, 0, 1)},
		{ID: "dl-222222", Title: "bank visit", PlannedDate: time.Now().AddDate(0, 0, 2)},
		{ID: "dl-333333", Title: "filed returns", Done: true},
	}
	m := New(nil, settings.Defaults(), "us-test01", true)
	m.width = 100
	m.height = 30
	m = m.applyRefresh(refreshMsg{Delegations: delegations, Timestamp: time.Now()})

	m = press(t, m, "2", "a")
	ctrl := m.registry.Get(formDelegations)
	if ctrl == nil {
		t.Fatal("delegations controller not attached")
	}
	// The done delegation is not eligible.
	if s := ctrl.State(); s.TotalCount != 2 || s.SelectedCount != 2 {
		t.Fatalf("state = %+v, want 2/2", s)
	}

	m = press(t, m, "enter")
	if !m.confirming || m.confirmForm != formDelegations {
		t.Fatalf("confirming=%v form=%q", m.confirming, m.confirmForm)
	}
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")})
	m = next.(Model)
	if cmd == nil {
		t.Fatal("accept did not produce a command")
	}
	if ids := m.surfaceFor(TabDelegations).submitIDs; len(ids) != 2 {
		t.Errorf("submitIDs = %v, want the 2 pending delegations", ids)
	}

	next, _ = m.Update(bulkDoneMsg{FormID: formDelegations, Applied: 2})
	m = next.(Model)
	if m.status != "Completed 2 delegations" {
		t.Errorf("status = %q", m.status)
	}
}

func TestViewShowsMarkersAndCounter(t *testing.T) {
	m := testModel(t, pendingTasks(2), nil)
	m = press(t, m, "x")

	view := m.View()
	for _, want := range []string{"[x]", "1 selected", "tasks (2)"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}
