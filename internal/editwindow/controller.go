package editwindow

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/thefrankalbert/radisson-menu-app-sub001/internal/cart"
	"github.com/thefrankalbert/radisson-menu-app-sub001/internal/domain"
	"github.com/thefrankalbert/radisson-menu-app-sub001/internal/feed"
)

// Window is how long after submission a pending order may be retracted.
const Window = 7 * time.Minute

var (
	ErrNotEditable  = errors.New("order can no longer be modified")
	ErrNotConfirmed = errors.New("modification not confirmed")
)

type State int

const (
	// StateLocked: no pending order to edit, either because the kitchen
	// picked it up or because it was never editable to begin with.
	StateLocked State = iota
	StateEditable
	StateExpired
)

func (s State) String() string {
	switch s {
	case StateEditable:
		return "editable"
	case StateExpired:
		return "expired"
	default:
		return "locked"
	}
}

// OrderStore is the slice of the order service the controller needs.
type OrderStore interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// StatusFeed delivers realtime status changes for one order.
type StatusFeed interface {
	Subscribe(orderID uuid.UUID) (<-chan domain.StatusEvent, feed.Unsubscribe)
}

// Confirmer gates destructive actions on an explicit guest decision.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// Controller tracks one submitted order's edit window. The window is
// never decremented locally: remaining time is recomputed from
// CreatedAt and the wall clock on every tick, so it stays correct
// across suspends. A status event moving the order away from pending
// locks the window immediately, whatever the timer says; Locked and
// Expired are terminal.
type Controller struct {
	orderID uuid.UUID
	orders  OrderStore
	feedSrc StatusFeed
	cart    *cart.Machine
	confirm Confirmer

	window    time.Duration
	tickEvery time.Duration
	now       func() time.Time

	mu        sync.Mutex
	status    domain.OrderStatus
	createdAt time.Time
	items     []domain.OrderItem
	venueID   string
	state     State
	stopped   bool

	unsubscribe feed.Unsubscribe
	stop        chan struct{}
	done        chan struct{}
}

func New(orderID uuid.UUID, orders OrderStore, feedSrc StatusFeed, cartMachine *cart.Machine, confirm Confirmer) *Controller {
	return &Controller{
		orderID:   orderID,
		orders:    orders,
		feedSrc:   feedSrc,
		cart:      cartMachine,
		confirm:   confirm,
		window:    Window,
		tickEvery: time.Second,
		now:       time.Now,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start fetches the order, computes the initial state and, when the
// window is open, subscribes to the feed and begins ticking.
func (c *Controller) Start(ctx context.Context) error {
	order, err := c.orders.Get(ctx, c.orderID)
	if err != nil {
		return fmt.Errorf("fetch order %s: %w", c.orderID, err)
	}

	c.mu.Lock()
	c.status = order.Status
	c.createdAt = order.CreatedAt
	c.items = order.Items
	c.venueID = order.VenueID
	c.state = c.computeLocked()
	initial := c.state
	c.mu.Unlock()

	if initial != StateEditable {
		close(c.done)
		return nil
	}

	events, unsub := c.feedSrc.Subscribe(c.orderID)
	c.unsubscribe = unsub
	go c.run(ctx, events)
	return nil
}

func (c *Controller) run(ctx context.Context, events <-chan domain.StatusEvent) {
	defer close(c.done)
	defer c.unsubscribe()

	ticker := time.NewTicker(c.tickEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stop:
			return
		case ev, ok := <-events:
			if !ok {
				// feed dropped; the wall-clock deadline still applies
				events = nil
				continue
			}
			if c.applyStatus(ev.Status) {
				return
			}
		case <-ticker.C:
			if c.reevaluate() {
				return
			}
		}
	}
}

// applyStatus records a kitchen transition. Moving away from pending
// locks the window immediately; returns true when terminal.
func (c *Controller) applyStatus(status domain.OrderStatus) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.status = status
	c.state = c.computeLocked()
	return c.state != StateEditable
}

// reevaluate recomputes the state from the wall clock. Status is
// consulted before the timer: the kitchen is authoritative over the
// client-estimated deadline.
func (c *Controller) reevaluate() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = c.computeLocked()
	return c.state != StateEditable
}

func (c *Controller) computeLocked() State {
	if c.status != domain.OrderStatusPending {
		return StateLocked
	}
	if c.now().Sub(c.createdAt) >= c.window {
		return StateExpired
	}
	return StateEditable
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Remaining is the time left in the window, zero when closed.
func (c *Controller) Remaining() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateEditable {
		return 0
	}
	left := c.window - c.now().Sub(c.createdAt)
	if left < 0 {
		return 0
	}
	return left
}

// RequestModify retracts the order back into a fresh cart: confirm,
// delete the persisted order, clear the cart, replay the snapshotted
// lines. The delete must fully succeed before any cart mutation; if it
// fails nothing has changed and the failure is reported.
func (c *Controller) RequestModify(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateEditable {
		c.mu.Unlock()
		return ErrNotEditable
	}
	items := c.items
	venueID := c.venueID
	c.mu.Unlock()

	if !c.confirm.Confirm(ctx, "Cancel this order and edit it in your cart?") {
		return ErrNotConfirmed
	}

	if err := c.orders.Delete(ctx, c.orderID); err != nil {
		return fmt.Errorf("delete order %s: %w", c.orderID, err)
	}

	c.cart.Clear(ctx)
	for _, it := range items {
		line := domain.LineItem{
			BaseID:  it.BaseID,
			Name:    it.Name,
			Price:   it.UnitPrice,
			Option:  it.Option,
			Variant: it.Variant,
		}
		// replaying into an empty cart never conflicts
		if _, err := c.cart.AddItem(ctx, line, venueID, true); err != nil {
			log.Printf("replay of line %s failed: %v", line.Key(), err)
			continue
		}
		if it.Quantity > 1 {
			c.cart.UpdateQuantity(ctx, line.Key(), it.Quantity)
		}
	}

	c.mu.Lock()
	c.state = StateLocked
	c.mu.Unlock()
	c.Stop()
	return nil
}

// Stop tears the controller down: tick cancelled, feed unsubscribed.
// Idempotent; safe after navigation away.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	c.mu.Unlock()
	close(c.stop)
}

// Done is closed once the run loop has exited.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}
