package events

import (
	"context"
	"sync"

	"pronto-core/internal/models"
)

// Hub fans live domain events out to connected SSE clients, keyed by the
// role the client is watching as. Slow clients are skipped rather than
// blocking the emitter; they recover by polling the log with their last
// cursor, which is why delivery is at-least-once and clients dedupe by
// event ID.
type Hub struct {
	mu      sync.RWMutex
	clients map[string][]chan models.DomainEvent
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string][]chan models.DomainEvent)}
}

// Subscribe registers a client channel for a role. The subscription is
// torn down when ctx is cancelled (client disconnect).
func (h *Hub) Subscribe(ctx context.Context, role string) chan models.DomainEvent {
	ch := make(chan models.DomainEvent, 16)

	h.mu.Lock()
	h.clients[role] = append(h.clients[role], ch)
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.remove(role, ch)
	}()

	return ch
}

// Emit pushes the event to every subscriber of the given roles.
func (h *Hub) Emit(ev models.DomainEvent, roles ...string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, role := range roles {
		for _, ch := range h.clients[role] {
			select {
			case ch <- ev:
			default:
				// buffer full; the client catches up via the log
			}
		}
	}
}

// SubscriberCount returns how many clients are watching a role.
func (h *Hub) SubscriberCount(role string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[role])
}

func (h *Hub) remove(role string, ch chan models.DomainEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs := h.clients[role]
	for i, c := range subs {
		if c == ch {
			h.clients[role] = append(subs[:i], subs[i+1:]...)
			close(ch)
			break
		}
	}
	if len(h.clients[role]) == 0 {
		delete(h.clients, role)
	}
}
