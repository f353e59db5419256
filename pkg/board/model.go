// Package board is the interactive task board. It renders the current
// user's tasks, delegations and help tickets in a terminal UI with
// multi-row selection and bulk actions backed by pkg/board/bulk.
package board

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"

	"github.com/crewhq/crew/internal/db"
	"github.com/crewhq/crew/internal/models"
	"github.com/crewhq/crew/internal/settings"
	"github.com/crewhq/crew/pkg/board/bulk"
)

// Form identifiers for the bulk-selection forms on the board.
const (
	formTasks       = "board:tasks"
	formDelegations = "board:delegations"
	formTickets     = "board:tickets"
)

// Tab selects which list the board shows.
type Tab int

const (
	TabTasks Tab = iota
	TabDelegations
	TabTickets
)

func (t Tab) formID() string {
	switch t {
	case TabDelegations:
		return formDelegations
	case TabTickets:
		return formTickets
	}
	return formTasks
}

// surface receives the controller's pushed state for one form.
// The view reads from it instead of re-deriving selection per frame.
type surface struct {
	markers       map[string]bool
	counter       string
	submitEnabled bool
	allOn         bool
	indeterminate bool
	submitIDs     []string
}

func newSurface() *surface {
	return &surface{markers: make(map[string]bool)}
}

// rowSet holds the live row slice behind a stable pointer so the
// controller's Rows hook observes every refresh.
type rowSet struct {
	rows []*bulk.Row
}

// Model is the bubbletea model for the board.
type Model struct {
	database *db.DB
	settings *settings.Settings
	userID   string

	width  int
	height int

	tab    Tab
	cursor int
	scroll int

	// Full snapshot plus the filtered views the list renders.
	allTasks       []models.Task
	allDelegations []models.Delegation
	allTickets     []models.Ticket
	tasks          []models.Task
	delegations    []models.Delegation
	tickets        []models.Ticket

	includeClosed bool
	loaded        bool

	search    textinput.Model
	searching bool
	query     string

	spin spinner.Model

	registry *bulk.Registry
	surfaces map[string]*surface
	rowSets  map[string]*rowSet

	confirming  bool
	confirmMsg  string
	confirmForm string

	status string
	err    error
}

// New creates a board model for the given user.
func New(database *db.DB, st *settings.Settings, userID string, includeClosed bool) Model {
	search := textinput.New()
	search.Placeholder = "search"
	search.Prompt = "/"
	search.CharLimit = 64

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = lipgloss.NewStyle().Foreground(primaryColor)

	return Model{
		database:      database,
		settings:      st,
		userID:        userID,
		includeClosed: includeClosed,
		search:        search,
		spin:          spin,
		registry:      bulk.NewRegistry(),
		surfaces: map[string]*surface{
			formTasks:       newSurface(),
			formDelegations: newSurface(),
			formTickets:     newSurface(),
		},
		rowSets: map[string]*rowSet{
			formTasks:       {},
			formDelegations: {},
			formTickets:     {},
		},
	}
}

// controller returns the bulk controller for the active tab, or nil
// before the first snapshot arrives.
func (m Model) controller() *bulk.Controller {
	return m.registry.Get(m.tab.formID())
}

// surfaceFor returns the pushed-state surface for the active tab.
func (m Model) surfaceFor(tab Tab) *surface {
	return m.surfaces[tab.formID()]
}

// visibleCount is the number of rows the active tab currently lists.
func (m Model) visibleCount() int {
	switch m.tab {
	case TabDelegations:
		return len(m.delegations)
	case TabTickets:
		return len(m.tickets)
	}
	return len(m.tasks)
}

// cursorID returns the row ID under the cursor, or empty when the list
// is empty.
func (m Model) cursorID() string {
	switch m.tab {
	case TabDelegations:
		if m.cursor < len(m.delegations) {
			return m.delegations[m.cursor].ID
		}
	case TabTickets:
		if m.cursor < len(m.tickets) {
			return m.tickets[m.cursor].ID
		}
	default:
		if m.cursor < len(m.tasks) {
			return m.tasks[m.cursor].ID
		}
	}
	return ""
}

// confirmMessage is the prompt shown before a tab's bulk action runs.
func confirmMessage(tab Tab) string {
	switch tab {
	case TabDelegations:
		return "Mark the selected delegations as done?"
	case TabTickets:
		return "Close the selected tickets?"
	}
	return "Mark the selected tasks as completed?"
}

// bulkConfig builds the controller wiring for one form. The closures
// capture the surface and row set, both of which outlive refreshes.
func (m Model) bulkConfig(tab Tab) bulk.Config {
	id := tab.formID()
	surf := m.surfaces[id]
	rs := m.rowSets[id]

	msg := confirmMessage(tab)

	return bulk.Config{
		FormID: id,
		Rows: func() []*bulk.Row {
			return rs.rows
		},
		SelectAll: func(checked, indeterminate bool) {
			surf.allOn = checked
			surf.indeterminate = indeterminate
		},
		SubmitEnabled: func(enabled bool) {
			surf.submitEnabled = enabled
		},
		Counter: func(text string) {
			surf.counter = text
		},
		RowMarker: func(id string, selected bool) {
			surf.markers[id] = selected
		},
		ConfirmMessage: msg,
		Submit: func() {
			surf.submitIDs = nil
			for _, r := range rs.rows {
				if r.Eligible() && r.Checked {
					surf.submitIDs = append(surf.submitIDs, r.ID)
				}
			}
		},
	}
}
