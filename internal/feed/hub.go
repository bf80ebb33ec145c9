package feed

import (
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/thefrankalbert/radisson-menu-app-sub001/internal/domain"
)

// Unsubscribe detaches a subscriber. Safe to call more than once.
type Unsubscribe func()

// Hub fans incoming order-status events out to per-order subscribers.
// A subscriber that stops draining its channel loses events rather
// than stalling delivery to everyone else; the edit-window controller
// tolerates that because it re-fetches authoritative state on demand.
type Hub struct {
	mu   sync.Mutex
	subs map[uuid.UUID]map[int]chan domain.StatusEvent
	next int
}

func NewHub() *Hub {
	return &Hub{
		subs: make(map[uuid.UUID]map[int]chan domain.StatusEvent),
	}
}

// Subscribe registers interest in one order's status changes.
func (h *Hub) Subscribe(orderID uuid.UUID) (<-chan domain.StatusEvent, Unsubscribe) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan domain.StatusEvent, 8)
	id := h.next
	h.next++

	if h.subs[orderID] == nil {
		h.subs[orderID] = make(map[int]chan domain.StatusEvent)
	}
	h.subs[orderID][id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs[orderID], id)
			if len(h.subs[orderID]) == 0 {
				delete(h.subs, orderID)
			}
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers the event to every subscriber of its order.
func (h *Hub) Publish(ev domain.StatusEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.subs[ev.OrderID] {
		select {
		case ch <- ev:
		default:
			log.Printf("dropping status event for slow subscriber, order %s", ev.OrderID)
		}
	}
}

// SubscriberCount reports how many subscribers an order has.
func (h *Hub) SubscriberCount(orderID uuid.UUID) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[orderID])
}
