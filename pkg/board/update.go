package board

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/crewhq/crew/pkg/board/bulk"
)

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spin.Tick,
		fetchCmd(m.database, m.userID, m.includeClosed),
		tickCmd(),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		if m.loaded {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tickMsg:
		return m, tea.Batch(
			fetchCmd(m.database, m.userID, m.includeClosed),
			tickCmd(),
		)

	case refreshMsg:
		return m.applyRefresh(msg), nil

	case bulkDoneMsg:
		// The submitting controller is spent; a fresh one attaches on
		// the next snapshot.
		m.registry.Detach(msg.FormID)
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		noun := "tasks"
		verb := "Completed"
		switch msg.FormID {
		case formDelegations:
			noun = "delegations"
		case formTickets:
			noun = "tickets"
			verb = "Closed"
		}
		m.status = fmt.Sprintf("%s %d %s", verb, msg.Applied, noun)
		return m, fetchCmd(m.database, m.userID, m.includeClosed)

	case tea.KeyMsg:
		if m.confirming {
			return m.updateConfirm(msg)
		}
		if m.searching {
			return m.updateSearch(msg)
		}
		return m.updateKeys(msg)
	}

	return m, nil
}

// applyRefresh installs a new snapshot, re-applies the search filter and
// boots the bulk controllers against the updated row sets.
func (m Model) applyRefresh(msg refreshMsg) Model {
	if msg.Err != nil {
		m.err = msg.Err
		return m
	}
	m.err = nil
	m.loaded = true
	m.allTasks = msg.Tasks
	m.allDelegations = msg.Delegations
	m.allTickets = msg.Tickets
	m.applyFilter()
	return m
}

// applyFilter recomputes the filtered views and row sets from the full
// snapshot, then pushes the change through the controllers.
func (m *Model) applyFilter() {
	m.tasks = filterTasks(m.allTasks, m.query)
	m.delegations = filterDelegations(m.allDelegations, m.query)
	m.tickets = filterTickets(m.allTickets, m.query)
	m.rebuildRows()

	m.registry.Boot([]bulk.Config{
		m.bulkConfig(TabTasks),
		m.bulkConfig(TabDelegations),
		m.bulkConfig(TabTickets),
	})
	m.syncForms()
	m.clampCursor()
}

// rebuildRows rebuilds both row sets from the snapshot. Selection is
// carried over by row ID; rows filtered out by the search are hidden
// rather than dropped, and rows past their actionable state are disabled.
func (m *Model) rebuildRows() {
	visibleTasks := make(map[string]bool, len(m.tasks))
	for _, t := range m.tasks {
		visibleTasks[t.ID] = true
	}
	m.rowSets[formTasks].rows = rebuilt(m.rowSets[formTasks].rows, len(m.allTasks), func(i int) *bulk.Row {
		t := m.allTasks[i]
		return &bulk.Row{
			ID:       t.ID,
			Disabled: !t.Status.Actionable(),
			Hidden:   !visibleTasks[t.ID],
		}
	})

	visibleDelegations := make(map[string]bool, len(m.delegations))
	for _, d := range m.delegations {
		visibleDelegations[d.ID] = true
	}
	m.rowSets[formDelegations].rows = rebuilt(m.rowSets[formDelegations].rows, len(m.allDelegations), func(i int) *bulk.Row {
		d := m.allDelegations[i]
		return &bulk.Row{
			ID:       d.ID,
			Disabled: d.Done,
			Hidden:   !visibleDelegations[d.ID],
		}
	})

	visibleTickets := make(map[string]bool, len(m.tickets))
	for _, tk := range m.tickets {
		visibleTickets[tk.ID] = true
	}
	m.rowSets[formTickets].rows = rebuilt(m.rowSets[formTickets].rows, len(m.allTickets), func(i int) *bulk.Row {
		tk := m.allTickets[i]
		return &bulk.Row{
			ID:       tk.ID,
			Disabled: !tk.Status.Actionable(),
			Hidden:   !visibleTickets[tk.ID],
		}
	})
}

// rebuilt constructs n rows via build, preserving Checked from old rows
// with the same ID.
func rebuilt(old []*bulk.Row, n int, build func(i int) *bulk.Row) []*bulk.Row {
	checked := make(map[string]bool, len(old))
	for _, r := range old {
		checked[r.ID] = r.Checked
	}
	rows := make([]*bulk.Row, n)
	for i := range rows {
		rows[i] = build(i)
		rows[i].Checked = checked[rows[i].ID]
	}
	return rows
}

// syncForms flushes the coalesced row-change notifications so the next
// frame renders the recomputed state.
func (m *Model) syncForms() {
	for _, id := range []string{formTasks, formDelegations, formTickets} {
		if ctrl := m.registry.Get(id); ctrl != nil {
			ctrl.Notify()
			ctrl.Flush()
		}
	}
}

func (m *Model) clampCursor() {
	n := m.visibleCount()
	if n == 0 {
		m.cursor = 0
		m.scroll = 0
		return
	}
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.scroll > m.cursor {
		m.scroll = m.cursor
	}
}

// updateConfirm handles keys while the confirmation prompt is open.
func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "enter":
		m.confirming = false
		ctrl := m.registry.Get(m.confirmForm)
		if ctrl == nil || !ctrl.Submit() {
			return m, nil
		}
		surf := m.surfaces[m.confirmForm]
		switch m.confirmForm {
		case formDelegations:
			return m, bulkCompleteDelegationsCmd(m.database, m.userID, surf.submitIDs)
		case formTickets:
			return m, bulkCloseTicketsCmd(m.database, m.userID, surf.submitIDs)
		}
		return m, bulkCompleteCmd(m.database, m.userID, surf.submitIDs)
	case "n", "N", "esc", "q":
		m.confirming = false
		return m, nil
	}
	return m, nil
}

// updateSearch handles keys while the search input has focus. Selection
// keys are deliberately not interpreted here; they type into the query.
func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.searching = false
		m.search.Blur()
		m.search.SetValue("")
		m.query = ""
		m.applyFilter()
		return m, nil
	case "enter":
		m.searching = false
		m.search.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if q := m.search.Value(); q != m.query {
		m.query = q
		m.applyFilter()
	}
	return m, cmd
}

// updateKeys handles normal-mode keys.
func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ctrl := m.controller()

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "tab", "1", "2", "3":
		switch msg.String() {
		case "1":
			m.tab = TabTasks
		case "2":
			m.tab = TabDelegations
		case "3":
			m.tab = TabTickets
		default:
			m.tab = (m.tab + 1) % 3
		}
		m.cursor = 0
		m.scroll = 0
		m.status = ""
		return m, nil

	case "j", "down":
		if m.cursor < m.visibleCount()-1 {
			m.cursor++
			m.ensureCursorVisible()
		}
		return m, nil

	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
			m.ensureCursorVisible()
		}
		return m, nil

	case "x", " ":
		if ctrl != nil {
			if id := m.cursorID(); id != "" {
				ctrl.Click(id, false)
			}
		}
		return m, nil

	case "X":
		if ctrl != nil {
			if id := m.cursorID(); id != "" {
				ctrl.Click(id, true)
			}
		}
		return m, nil

	case "a":
		if ctrl != nil {
			ctrl.SelectAllKey()
		}
		return m, nil

	case "esc":
		if ctrl != nil && ctrl.ClearKey() {
			return m, nil
		}
		if m.query != "" {
			m.query = ""
			m.search.SetValue("")
			m.applyFilter()
			return m, nil
		}
		m.status = ""
		return m, nil

	case "enter":
		if ctrl == nil || ctrl.State().SelectedCount == 0 {
			m.status = "nothing selected"
			return m, nil
		}
		m.confirming = true
		m.confirmForm = m.tab.formID()
		m.confirmMsg = confirmMessage(m.tab)
		return m, nil

	case "/":
		m.searching = true
		m.search.Focus()
		return m, nil

	case "c":
		m.includeClosed = !m.includeClosed
		return m, fetchCmd(m.database, m.userID, m.includeClosed)

	case "r":
		return m, fetchCmd(m.database, m.userID, m.includeClosed)
	}

	return m, nil
}

// ensureCursorVisible adjusts the scroll offset so the cursor stays
// inside the list viewport.
func (m *Model) ensureCursorVisible() {
	maxVisible := m.listHeight()
	if m.cursor < m.scroll {
		m.scroll = m.cursor
	} else if m.cursor >= m.scroll+maxVisible {
		m.scroll = m.cursor - maxVisible + 1
	}
	if m.scroll < 0 {
		m.scroll = 0
	}
}
