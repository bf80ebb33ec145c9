package editwindow

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/thefrankalbert/radisson-menu-app-sub001/internal/cart"
)

// Registry hosts at most one controller per order so repeated visits
// to the confirmation screen share the same window state. Controllers
// whose run loop has finished are replaced on next access, never
// revived: Locked and Expired stay terminal for a given controller.
type Registry struct {
	orders  OrderStore
	feedSrc StatusFeed
	confirm Confirmer

	mu          sync.Mutex
	controllers map[uuid.UUID]*Controller
}

func NewRegistry(orders OrderStore, feedSrc StatusFeed, confirm Confirmer) *Registry {
	return &Registry{
		orders:      orders,
		feedSrc:     feedSrc,
		confirm:     confirm,
		controllers: make(map[uuid.UUID]*Controller),
	}
}

// Acquire returns the live controller for the order, starting a new
// one when none exists yet.
func (r *Registry) Acquire(ctx context.Context, orderID uuid.UUID, cartMachine *cart.Machine) (*Controller, error) {
	r.mu.Lock()
	if c, ok := r.controllers[orderID]; ok {
		r.mu.Unlock()
		return c, nil
	}
	r.mu.Unlock()

	c := New(orderID, r.orders, r.feedSrc, cartMachine, r.confirm)
	if err := c.Start(ctx); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.controllers[orderID]; ok {
		// lost the race; keep the first one
		c.Stop()
		return existing, nil
	}
	r.controllers[orderID] = c
	return c, nil
}

// Release stops and forgets the order's controller.
func (r *Registry) Release(orderID uuid.UUID) {
	r.mu.Lock()
	c, ok := r.controllers[orderID]
	delete(r.controllers, orderID)
	r.mu.Unlock()
	if ok {
		c.Stop()
	}
}
