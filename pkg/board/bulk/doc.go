// Package bulk implements the selection controller behind every multi-row
// action surface in crew: the board's task, delegation and ticket lists.
//
// A Controller owns the selection state of one form-like container of rows.
// It derives counts on demand from the live row set (never caching them),
// keeps the optional select-all control, counter display and submit trigger
// in sync, supports shift-style range selection from a per-form anchor, and
// gates submission behind a confirmation prompt.
//
// # Quick Start
//
//	ctrl := bulk.Attach(bulk.Config{
//	    FormID: "tasks",
//	    Rows:   func() []*bulk.Row { return rows },
//	    Counter: func(s string) { counter = s },
//	    SubmitEnabled: func(on bool) { submitOn = on },
//	    ConfirmMessage: "Complete 3 tasks?",
//	    Confirm: promptUser,
//	    Submit:  performBulkComplete,
//	})
//
//	ctrl.Click("tk-1", false)      // toggle one row
//	ctrl.Click("tk-7", true)       // range-select from the anchor
//	ctrl.Submit()                  // prompts, then performs the action
//
// A Registry boots controllers for every form on a page and stays idempotent
// across partial content swaps; a Guard layers page-wide confirm-before-action
// on top, deferring to the owning form's submit path for designated bulk
// submit triggers so the user is never prompted twice.
//
// All selection math runs over eligible rows only: a row that is disabled or
// carries the hidden marker never counts toward totals and is never touched
// by select-all or range operations.
package bulk
