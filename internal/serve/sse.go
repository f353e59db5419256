package serve

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/crewhq/crew/internal/db"
)

// Event represents a single Server-Sent Event.
type Event struct {
	ID    string // last action id, so clients can resume
	Event string // "action" or "ping"
	Data  string // JSON payload
}

// ActionHub tails the audit log and broadcasts new actions to connected
// SSE clients. Other processes write the same database, so the hub
// polls rather than hooking local writes.
type ActionHub struct {
	db           *db.DB
	pollInterval time.Duration

	mu      sync.Mutex
	clients map[chan Event]struct{}
	lastID  int64
}

// NewActionHub creates a hub that polls at the given interval.
func NewActionHub(database *db.DB, pollInterval time.Duration) *ActionHub {
	return &ActionHub{
		db:           database,
		pollInterval: pollInterval,
		clients:      make(map[chan Event]struct{}),
	}
}

// register adds a client channel and returns it.
func (h *ActionHub) register() chan Event {
	ch := make(chan Event, 16) // buffered to avoid blocking broadcasts
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	slog.Debug("sse: client registered", "clients", n)
	return ch
}

// unregister removes a client channel and closes it.
func (h *ActionHub) unregister(ch chan Event) {
	h.mu.Lock()
	if _, ok := h.clients[ch]; ok {
		delete(h.clients, ch)
		close(ch)
	}
	n := len(h.clients)
	h.mu.Unlock()
	slog.Debug("sse: client unregistered", "clients", n)
}

// broadcast sends an event to all connected clients, skipping any that
// cannot keep up.
func (h *ActionHub) broadcast(event Event) {
	h.mu.Lock()
	for ch := range h.clients {
		select {
		case ch <- event:
		default:
			slog.Debug("sse: dropped event for slow client")
		}
	}
	h.mu.Unlock()
}

// Run polls the audit log until the context is cancelled. New actions
// become "action" events; a ping goes out every 30 seconds so proxies
// keep the connections alive.
func (h *ActionHub) Run(ctx context.Context) {
	// Start tailing from the current end of the log.
	if actions, err := h.db.GetRecentActions(1); err == nil && len(actions) > 0 {
		h.mu.Lock()
		h.lastID = actions[0].ID
		h.mu.Unlock()
	}

	pollTicker := time.NewTicker(h.pollInterval)
	defer pollTicker.Stop()

	pingTicker := time.NewTicker(30 * time.Second)
	defer pingTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.closeAllClients()
			return

		case <-pollTicker.C:
			h.mu.Lock()
			lastID := h.lastID
			h.mu.Unlock()

			actions, err := h.db.GetActionsSince(lastID, 100)
			if err != nil {
				slog.Debug("sse: poll actions", "err", err)
				continue
			}
			for i := range actions {
				a := &actions[i]
				data, _ := json.Marshal(actionToDTO(a))
				h.broadcast(Event{
					ID:    strconv.FormatInt(a.ID, 10),
					Event: "action",
					Data:  string(data),
				})
				h.mu.Lock()
				h.lastID = a.ID
				h.mu.Unlock()
			}

		case <-pingTicker.C:
			h.mu.Lock()
			lastID := h.lastID
			h.mu.Unlock()
			h.broadcast(Event{
				ID:    strconv.FormatInt(lastID, 10),
				Event: "ping",
				Data:  `{}`,
			})
		}
	}
}

// closeAllClients closes all registered client channels.
func (h *ActionHub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		close(ch)
		delete(h.clients, ch)
	}
}

// handleEvents is the HTTP handler for GET /v1/events.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, ErrInternal, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// Long-lived connection: clear the server write deadline.
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		slog.Debug("sse: failed to clear write deadline", "err", err)
	}

	ch := s.hub.register()
	defer s.hub.unregister(ch)

	// Replay anything the client missed since its Last-Event-ID.
	if lastEventID := r.Header.Get("Last-Event-ID"); lastEventID != "" {
		if after, err := strconv.ParseInt(lastEventID, 10, 64); err == nil {
			actions, err := s.db.GetActionsSince(after, 100)
			if err == nil {
				for i := range actions {
					data, _ := json.Marshal(actionToDTO(&actions[i]))
					writeEvent(w, flusher, Event{
						ID:    strconv.FormatInt(actions[i].ID, 10),
						Event: "action",
						Data:  string(data),
					})
				}
			}
		}
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			writeEvent(w, flusher, event)
		}
	}
}

// writeEvent writes a single SSE frame and flushes it.
func writeEvent(w http.ResponseWriter, flusher http.Flusher, event Event) {
	fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", event.ID, event.Event, event.Data)
	flusher.Flush()
}
