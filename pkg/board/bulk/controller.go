package bulk

import (
	"strconv"
	"sync"
	"time"
)

// DefaultWindow is the mutation coalescing window: bursts of Notify calls
// inside one window collapse into a single recomputation.
const DefaultWindow = 120 * time.Millisecond

// Row is one selectable entry in a form, in document order.
// A row is eligible when it is neither disabled nor hidden; only eligible
// rows count toward totals or are touched by bulk operations.
type Row struct {
	ID       string
	Checked  bool
	Disabled bool
	Hidden   bool
}

// Eligible reports whether the row participates in selection.
func (r *Row) Eligible() bool {
	return !r.Disabled && !r.Hidden
}

// State is the selection summary derived from the current eligible rows.
type State struct {
	SelectedCount int
	TotalCount    int
}

// AllSelected reports whether every eligible row is checked.
// False when there are no eligible rows.
func (s State) AllSelected() bool {
	return s.TotalCount > 0 && s.SelectedCount == s.TotalCount
}

// NoneSelected reports whether no eligible row is checked.
func (s State) NoneSelected() bool {
	return s.SelectedCount == 0
}

// Indeterminate reports whether some but not all eligible rows are checked.
func (s State) Indeterminate() bool {
	return s.SelectedCount > 0 && s.SelectedCount < s.TotalCount
}

// Config wires a Controller to one form. The row source is required;
// every other hook is optional and simply skipped when nil, so a form
// without a counter or select-all control still selects and submits.
//
// References are resolved once at attach time; the controller re-reads
// only the row set on each recomputation.
type Config struct {
	// FormID identifies the form for Registry bookkeeping.
	FormID string

	// Rows returns the live row set in document order.
	Rows func() []*Row

	// SelectAll updates the select-all control's checked and
	// indeterminate flags.
	SelectAll func(checked, indeterminate bool)

	// SubmitEnabled flips the submit trigger's enabled state.
	SubmitEnabled func(enabled bool)

	// Counter receives the selected count rendered as a string.
	Counter func(text string)

	// RowMarker updates a per-row visual selected marker.
	RowMarker func(id string, selected bool)

	// ConfirmMessage, when non-empty, gates Submit behind a prompt.
	ConfirmMessage string

	// Confirm presents the prompt and reports affirmation. A nil Confirm
	// with a non-empty ConfirmMessage is treated as affirmed.
	Confirm func(message string) bool

	// Submit performs the bulk action once submission is allowed.
	Submit func()

	// Window overrides the mutation coalescing window. Zero means
	// DefaultWindow.
	Window time.Duration
}

// Controller tracks the selection state of one form. All methods are safe
// for concurrent use; the internal coalescing timer recomputes under the
// same lock as the event-loop methods. The Rows hook and the output hooks
// run while that lock is held, so they may fire on the timer goroutine and
// must not call back into the controller. Row mutations made before a
// Notify are therefore visible to the recompute the Notify schedules.
type Controller struct {
	cfg Config

	mu          sync.Mutex
	lastClicked string // anchor for range selection; empty until first click
	locked      bool   // submit trigger disabled after an accepted submit
	pending     bool   // a coalesced recompute is scheduled
	timer       *time.Timer
}

// Attach creates a controller for the form described by cfg and performs
// the initial recomputation. Use a Registry when forms come and go.
func Attach(cfg Config) *Controller {
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	c := &Controller{cfg: cfg}
	c.Recompute()
	return c
}

// FormID returns the identifier the controller was attached with.
func (c *Controller) FormID() string {
	return c.cfg.FormID
}

// eligibleRowsLocked returns the current eligible rows in document order.
// Callers hold c.mu.
func (c *Controller) eligibleRowsLocked() []*Row {
	if c.cfg.Rows == nil {
		return nil
	}
	var rows []*Row
	for _, r := range c.cfg.Rows() {
		if r.Eligible() {
			rows = append(rows, r)
		}
	}
	return rows
}

// ToggleAll sets every eligible row to checked and recomputes.
// Triggered by the select-all control.
func (c *Controller) ToggleAll(checked bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.toggleAllLocked(checked)
}

func (c *Controller) toggleAllLocked(checked bool) {
	for _, r := range c.eligibleRowsLocked() {
		r.Checked = checked
	}
	c.recomputeLocked()
}

// Click handles a click on a row checkbox. The row's checked value flips,
// and when rangeMod is held and a prior anchor exists, every eligible row
// between the anchor and the target (inclusive, in document order,
// regardless of direction) takes the target's post-click value.
//
// The clicked row always becomes the anchor for the next range click,
// range or not. A vanished anchor degrades to a plain toggle.
func (c *Controller) Click(id string, rangeMod bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rows := c.eligibleRowsLocked()
	target := -1
	for i, r := range rows {
		if r.ID == id {
			target = i
			break
		}
	}
	if target < 0 {
		// Ineligible or unknown row: nothing to do, anchor unchanged.
		return
	}

	rows[target].Checked = !rows[target].Checked
	value := rows[target].Checked

	if rangeMod && c.lastClicked != "" && c.lastClicked != id {
		anchor := -1
		for i, r := range rows {
			if r.ID == c.lastClicked {
				anchor = i
				break
			}
		}
		if anchor >= 0 {
			lo, hi := anchor, target
			if lo > hi {
				lo, hi = hi, lo
			}
			for i := lo; i <= hi; i++ {
				rows[i].Checked = value
			}
		}
	}

	c.lastClicked = id
	c.recomputeLocked()
}

// SelectAllKey applies the keyboard select-all policy: when any eligible
// row is unchecked, all become checked; when all are already checked the
// key re-asserts the full selection (it never toggles to empty).
//
// Callers must suppress the key while focus is inside a text input.
func (c *Controller) SelectAllKey() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.eligibleRowsLocked()) == 0 {
		return
	}
	c.toggleAllLocked(true)
}

// ClearKey clears the selection, but only when at least one row is
// checked; with nothing selected it is a no-op so the key can fall
// through to other handlers (e.g. closing a panel).
// Returns whether the key was consumed.
func (c *Controller) ClearKey() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stateLocked().SelectedCount == 0 {
		return false
	}
	c.toggleAllLocked(false)
	return true
}

// State derives the selection summary from the current eligible rows.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Controller) stateLocked() State {
	var s State
	for _, r := range c.eligibleRowsLocked() {
		s.TotalCount++
		if r.Checked {
			s.SelectedCount++
		}
	}
	return s
}

// SelectedIDs returns the IDs of all checked eligible rows in document order.
func (c *Controller) SelectedIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var ids []string
	for _, r := range c.eligibleRowsLocked() {
		if r.Checked {
			ids = append(ids, r.ID)
		}
	}
	return ids
}

// Recompute re-derives the selection state and pushes it to every
// configured hook. Missing hooks degrade silently.
func (c *Controller) Recompute() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recomputeLocked()
}

func (c *Controller) recomputeLocked() State {
	s := c.stateLocked()

	if c.cfg.Counter != nil {
		c.cfg.Counter(strconv.Itoa(s.SelectedCount))
	}
	if c.cfg.SubmitEnabled != nil {
		c.cfg.SubmitEnabled(s.SelectedCount > 0 && !c.locked)
	}
	if c.cfg.SelectAll != nil {
		c.cfg.SelectAll(s.AllSelected(), s.Indeterminate())
	}
	if c.cfg.RowMarker != nil && c.cfg.Rows != nil {
		for _, r := range c.cfg.Rows() {
			c.cfg.RowMarker(r.ID, r.Checked && r.Eligible())
		}
	}

	return s
}

// Submit attempts the bulk submission. It is blocked, without side
// effects, when nothing is selected or a previous submit already went
// through; otherwise the confirmation prompt (if configured) must be
// affirmed. On an allowed submit the trigger is disabled to prevent
// duplicates and the configured Submit action runs.
//
// The confirmation prompt runs outside the lock so a modal can block
// without stalling the coalescing timer.
func (c *Controller) Submit() bool {
	c.mu.Lock()
	if c.locked || c.stateLocked().SelectedCount == 0 {
		c.mu.Unlock()
		return false
	}
	c.mu.Unlock()

	if c.cfg.ConfirmMessage != "" && c.cfg.Confirm != nil {
		if !c.cfg.Confirm(c.cfg.ConfirmMessage) {
			// Declined: trigger stays enabled, selection untouched.
			return false
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.locked = true
	if c.cfg.SubmitEnabled != nil {
		c.cfg.SubmitEnabled(false)
	}
	if c.cfg.Submit != nil {
		c.cfg.Submit()
	}
	return true
}

// Notify signals that rows were added, removed or changed. Recomputation
// is coalesced: the first notification in a quiet period schedules one
// recompute a Window later, and further notifications inside that window
// are absorbed by it.
func (c *Controller) Notify() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending {
		return
	}
	c.pending = true
	c.timer = time.AfterFunc(c.cfg.Window, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if !c.pending {
			// A Flush won the race against the timer.
			return
		}
		c.pending = false
		c.dropVanishedAnchorLocked()
		c.recomputeLocked()
	})
}

// Flush runs any pending coalesced recomputation immediately. Used when a
// form is about to be read synchronously (e.g. before rendering a frame).
func (c *Controller) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.pending {
		return
	}
	c.pending = false
	if c.timer != nil {
		c.timer.Stop()
	}
	c.dropVanishedAnchorLocked()
	c.recomputeLocked()
}

// dropVanishedAnchorLocked forgets the range anchor if its row was removed
// by the mutation being recomputed.
func (c *Controller) dropVanishedAnchorLocked() {
	if c.lastClicked == "" {
		return
	}
	for _, r := range c.eligibleRowsLocked() {
		if r.ID == c.lastClicked {
			return
		}
	}
	c.lastClicked = ""
}

// Detach stops the coalescing timer. The controller must not be used
// afterwards.
func (c *Controller) Detach() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
	}
	c.pending = false
}
