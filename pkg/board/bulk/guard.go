package bulk

// Element describes a clickable control as the Guard sees it: its
// confirmation message (empty for none) and, when it lives inside a bulk
// form, which form and whether it is that form's designated submit trigger.
type Element struct {
	ConfirmMessage string
	FormID         string
	SubmitTrigger  bool
}

// Guard is the page-wide confirm-before-action layer. Any element carrying
// a confirmation message is blocked until the user affirms the prompt —
// except a bulk form's own submit trigger, whose confirmation is deferred
// to the form's Submit path so the user is never prompted twice.
type Guard struct {
	registry *Registry
	confirm  func(message string) bool
}

// NewGuard builds a guard over the page's form registry. confirm presents
// the prompt; a nil confirm affirms everything (useful in tests).
func NewGuard(registry *Registry, confirm func(message string) bool) *Guard {
	return &Guard{registry: registry, confirm: confirm}
}

// Click decides whether the element's default action may proceed.
func (g *Guard) Click(el Element) bool {
	if el.ConfirmMessage == "" {
		return true
	}

	// A bulk form's designated submit trigger prompts at submit time,
	// not click time.
	if el.SubmitTrigger && el.FormID != "" && g.registry != nil && g.registry.Get(el.FormID) != nil {
		return true
	}

	if g.confirm == nil {
		return true
	}
	return g.confirm(el.ConfirmMessage)
}
