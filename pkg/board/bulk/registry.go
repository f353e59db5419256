package bulk

import "sync"

// Registry boots and tracks one Controller per form on a page. Booting is
// idempotent: a form that is already attached keeps its controller (and its
// anchor and handlers) across partial content swaps, while new forms get
// fresh controllers.
type Registry struct {
	mu    sync.Mutex
	forms map[string]*Controller
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{forms: make(map[string]*Controller)}
}

// Boot attaches controllers for any configs not yet attached and returns
// the newly attached ones. Forms already present are not re-initialized;
// they receive a Notify instead, since a content swap may have changed
// their rows.
func (r *Registry) Boot(configs []Config) []*Controller {
	var attached []*Controller
	for _, cfg := range configs {
		r.mu.Lock()
		existing, ok := r.forms[cfg.FormID]
		r.mu.Unlock()

		if ok {
			existing.Notify()
			continue
		}

		c := Attach(cfg)
		r.mu.Lock()
		r.forms[cfg.FormID] = c
		r.mu.Unlock()
		attached = append(attached, c)
	}
	return attached
}

// Get returns the controller attached for the form, or nil.
func (r *Registry) Get(formID string) *Controller {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.forms[formID]
}

// Detach removes and stops the controller for a form that left the page.
func (r *Registry) Detach(formID string) {
	r.mu.Lock()
	c := r.forms[formID]
	delete(r.forms, formID)
	r.mu.Unlock()

	if c != nil {
		c.Detach()
	}
}

// Len reports how many forms are attached.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.forms)
}
