package board

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/crewhq/crew/internal/models"
)

// Lines of chrome around the list: title, tabs, search/status line,
// blank, footer hints, footer counter.
const chromeHeight = 6

// listHeight is the number of rows the list viewport can show.
func (m Model) listHeight() int {
	h := m.height - chromeHeight
	if h < 3 {
		h = 3
	}
	return h
}

func (m Model) View() string {
	if m.width == 0 {
		return ""
	}
	if !m.loaded {
		return fmt.Sprintf("\n %s loading board...\n", m.spin.View())
	}

	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderSearchLine())
	b.WriteString("\n")
	b.WriteString(m.renderList())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())

	if m.confirming {
		return m.renderConfirmOverlay(b.String())
	}
	return b.String()
}

func (m Model) renderHeader() string {
	org := m.settings.Org.Name
	if org == "" {
		org = "crew"
	}
	title := titleStyle.Render(" " + org + " board ")

	tabs := []struct {
		tab   Tab
		label string
	}{
		{TabTasks, fmt.Sprintf("tasks (%d)", len(m.tasks))},
		{TabDelegations, fmt.Sprintf("delegations (%d)", len(m.delegations))},
		{TabTickets, fmt.Sprintf("tickets (%d)", len(m.tickets))},
	}
	line := title
	for _, tb := range tabs {
		style := tabStyle
		if m.tab == tb.tab {
			style = tabActiveStyle
		}
		line += " " + style.Render(tb.label)
	}
	if lipgloss.Width(line) > m.width {
		line = ansi.Truncate(line, m.width, "...")
	}
	return line
}

func (m Model) renderSearchLine() string {
	if m.searching {
		return searchPromptStyle.Render(m.search.View())
	}
	if m.err != nil {
		return errStyle.Render("error: " + m.err.Error())
	}
	if m.status != "" {
		return statusStyle.Render(m.status)
	}
	if m.query != "" {
		return hintStyle.Render("filter: " + m.query + "  (esc to clear)")
	}
	return ""
}

func (m Model) renderList() string {
	maxVisible := m.listHeight()
	surf := m.surfaceFor(m.tab)

	var lines []string
	switch m.tab {
	case TabDelegations:
		for i := m.scroll; i < len(m.delegations) && i < m.scroll+maxVisible; i++ {
			lines = append(lines, m.renderDelegationRow(m.delegations[i], i == m.cursor, surf))
		}
	case TabTickets:
		for i := m.scroll; i < len(m.tickets) && i < m.scroll+maxVisible; i++ {
			lines = append(lines, m.renderTicketRow(m.tickets[i], i == m.cursor, surf))
		}
	default:
		for i := m.scroll; i < len(m.tasks) && i < m.scroll+maxVisible; i++ {
			lines = append(lines, m.renderTaskRow(m.tasks[i], i == m.cursor, surf))
		}
	}

	if len(lines) == 0 {
		empty := "no tasks"
		switch m.tab {
		case TabDelegations:
			empty = "no delegations"
		case TabTickets:
			empty = "no tickets"
		}
		if m.query != "" {
			empty += " matching " + m.query
		}
		lines = append(lines, hintStyle.Render("  "+empty))
	}

	for len(lines) < maxVisible {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderTaskRow(t models.Task, selected bool, surf *surface) string {
	marker := "[ ]"
	if surf.markers[t.ID] {
		marker = markerStyle.Render("[x]")
	}
	if !t.Status.Actionable() {
		marker = hintStyle.Render(" - ")
	}

	due := ""
	if !t.DueAt.IsZero() {
		if t.Overdue(time.Now()) {
			due = overdueStyle.Render(fmt.Sprintf("  overdue %dd", t.DelayDays(time.Now())))
		} else {
			due = hintStyle.Render("  due " + t.DueAt.Format("Jan 2"))
		}
	}

	line := fmt.Sprintf(" %s %s %s%s", marker, idStyle.Render(t.ID), t.Title, due)
	if lipgloss.Width(line) > m.width {
		line = ansi.Truncate(line, m.width, "…")
	}
	if selected {
		line = highlightRow(line, m.width)
	}
	return line
}

func (m Model) renderDelegationRow(d models.Delegation, selected bool, surf *surface) string {
	marker := "[ ]"
	if surf.markers[d.ID] {
		marker = markerStyle.Render("[x]")
	}
	if d.Done {
		marker = hintStyle.Render(" - ")
	}

	planned := ""
	if !d.PlannedDate.IsZero() {
		if !d.Done && d.PlannedDate.Before(time.Now()) {
			planned = overdueStyle.Render("  planned " + d.PlannedDate.Format("Jan 2"))
		} else {
			planned = hintStyle.Render("  planned " + d.PlannedDate.Format("Jan 2"))
		}
	}
	revised := ""
	if d.Revisions > 0 {
		revised = hintStyle.Render(fmt.Sprintf("  (revised %dx)", d.Revisions))
	}

	line := fmt.Sprintf(" %s %s %s%s%s", marker, idStyle.Render(d.ID), d.Title, planned, revised)
	if lipgloss.Width(line) > m.width {
		line = ansi.Truncate(line, m.width, "…")
	}
	if selected {
		line = highlightRow(line, m.width)
	}
	return line
}

func (m Model) renderTicketRow(tk models.Ticket, selected bool, surf *surface) string {
	marker := "[ ]"
	if surf.markers[tk.ID] {
		marker = markerStyle.Render("[x]")
	}
	if !tk.Status.Actionable() {
		marker = hintStyle.Render(" - ")
	}

	prio := ""
	switch tk.Priority {
	case models.PriorityUrgent:
		prio = overdueStyle.Render("!! ")
	case models.PriorityHigh:
		prio = statusStyle.Render("!  ")
	default:
		prio = "   "
	}

	line := fmt.Sprintf(" %s %s%s %s %s", marker, prio, idStyle.Render(tk.ID), tk.Title, hintStyle.Render("["+string(tk.Status)+"]"))
	if lipgloss.Width(line) > m.width {
		line = ansi.Truncate(line, m.width, "…")
	}
	if selected {
		line = highlightRow(line, m.width)
	}
	return line
}

func (m Model) renderFooter() string {
	surf := m.surfaceFor(m.tab)

	counter := counterStyle.Render(surf.counter + " selected")
	selAll := ""
	if surf.indeterminate {
		selAll = hintStyle.Render("  [~] partial")
	} else if surf.allOn {
		selAll = hintStyle.Render("  [*] all")
	}

	action := "enter:complete"
	switch m.tab {
	case TabDelegations:
		action = "enter:done"
	case TabTickets:
		action = "enter:close"
	}
	if !surf.submitEnabled {
		action = hintStyle.Render(action)
	} else {
		action = markerStyle.Render(action)
	}

	hints := hintStyle.Render("  x:select X:range a:all esc:clear /:search tab:switch c:closed q:quit")
	line := " " + counter + selAll + "  " + action + hints
	if lipgloss.Width(line) > m.width {
		line = ansi.Truncate(line, m.width, "")
	}
	return line
}

// renderConfirmOverlay centers the confirmation prompt over the board.
func (m Model) renderConfirmOverlay(_ string) string {
	ctrl := m.registry.Get(m.confirmForm)
	count := 0
	if ctrl != nil {
		count = ctrl.State().SelectedCount
	}

	body := fmt.Sprintf("%s\n\n%d selected\n\n%s",
		m.confirmMsg,
		count,
		hintStyle.Render("y:confirm  n:cancel"))
	box := confirmBoxStyle.Render(body)

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
