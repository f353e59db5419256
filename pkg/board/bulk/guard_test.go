package bulk

import "testing"

func TestGuardNoMessagePassesThrough(t *testing.T) {
	g := NewGuard(NewRegistry(), func(string) bool {
		t.Fatal("no prompt may be shown without a message")
		return false
	})

	if !g.Click(Element{}) {
		t.Error("element without a message must proceed")
	}
}

func TestGuardPromptsAtClickTime(t *testing.T) {
	var prompts []string
	answer := false
	g := NewGuard(NewRegistry(), func(msg string) bool {
		prompts = append(prompts, msg)
		return answer
	})

	el := Element{ConfirmMessage: "Delete this user?"}

	if g.Click(el) {
		t.Error("declined prompt must block the action")
	}
	answer = true
	if !g.Click(el) {
		t.Error("affirmed prompt must allow the action")
	}
	if len(prompts) != 2 {
		t.Errorf("got %d prompts, want 2", len(prompts))
	}
}

func TestGuardDefersBulkSubmitTrigger(t *testing.T) {
	reg := NewRegistry()
	s := newSurface(3)
	reg.Boot([]Config{s.config("tasks")})

	g := NewGuard(reg, func(string) bool {
		t.Fatal("bulk submit trigger must not prompt at click time")
		return false
	})

	el := Element{
		ConfirmMessage: "Complete selected tasks?",
		FormID:         "tasks",
		SubmitTrigger:  true,
	}
	if !g.Click(el) {
		t.Error("bulk submit trigger click must proceed to the submit path")
	}
}

func TestGuardPromptsForTriggerOfUnknownForm(t *testing.T) {
	prompted := 0
	g := NewGuard(NewRegistry(), func(string) bool {
		prompted++
		return true
	})

	// Marked as a submit trigger but its form is not a bulk form:
	// the generic click-time guard applies.
	el := Element{
		ConfirmMessage: "Really?",
		FormID:         "not-bulk",
		SubmitTrigger:  true,
	}
	if !g.Click(el) {
		t.Error("affirmed prompt must allow the action")
	}
	if prompted != 1 {
		t.Errorf("got %d prompts, want 1", prompted)
	}
}

func TestGuardNonTriggerInsideBulkFormStillPrompts(t *testing.T) {
	reg := NewRegistry()
	s := newSurface(2)
	reg.Boot([]Config{s.config("tasks")})

	prompted := 0
	g := NewGuard(reg, func(string) bool {
		prompted++
		return true
	})

	// A per-row delete button inside the bulk form is not the designated
	// submit trigger, so it prompts immediately.
	el := Element{ConfirmMessage: "Delete this row?", FormID: "tasks"}
	g.Click(el)
	if prompted != 1 {
		t.Errorf("got %d prompts, want 1", prompted)
	}
}

func TestGuardNilConfirmAffirms(t *testing.T) {
	g := NewGuard(nil, nil)
	if !g.Click(Element{ConfirmMessage: "anything"}) {
		t.Error("nil confirm must affirm")
	}
}
