package cart

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/thefrankalbert/radisson-menu-app-sub001/internal/domain"
)

// CompatibilityResolver decides whether an item from venueID may join
// a cart bound to boundVenue.
type CompatibilityResolver interface {
	Compatible(ctx context.Context, boundVenue, venueID string) (bool, error)
}

// AddOutcome tells the caller how AddItem resolved.
type AddOutcome int

const (
	// OutcomeAdded means the item was merged or appended.
	OutcomeAdded AddOutcome = iota
	// OutcomeConflictPending means the item was parked in the pending
	// slot and needs the guest's confirmation before it can enter.
	OutcomeConflictPending
)

const persistTimeout = time.Second

// Machine owns one session's cart: the line items, the single bound
// venue, the free-text note and the one-slot pending conflict. All
// mutations go through it; every mutation persists best-effort through
// the Store.
//
// The compatibility check in AddItem is the only suspension point: the
// decision is made against a snapshot taken at call time, the lock is
// released across the I/O, and the mutation is applied against the
// live state afterwards so concurrent edits are never overwritten.
type Machine struct {
	sessionID string
	resolver  CompatibilityResolver
	store     Store

	mu         sync.Mutex
	items      []domain.LineItem
	boundVenue string
	note       string
	pending    *domain.PendingConflict
}

// Restore builds the machine for a session, loading any persisted
// state. A missing document means a fresh cart; a store error is
// logged and the session starts empty.
func Restore(ctx context.Context, sessionID string, resolver CompatibilityResolver, store Store) *Machine {
	m := &Machine{
		sessionID: sessionID,
		resolver:  resolver,
		store:     store,
	}

	state, err := store.Load(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, ErrStateNotFound) {
			log.Printf("cart restore failed for session %s: %v", sessionID, err)
		}
		return m
	}

	m.items = state.Items
	m.boundVenue = state.BoundVenue
	m.note = state.Note
	return m
}

// AddItem runs the add-to-cart protocol.
//
// Empty cart: bind the venue and append with quantity 1. Same venue:
// merge-or-append by key. Different venue with skipConfirm: destructive
// replace, no compatibility check — an explicit skip always wins.
// Different venue otherwise: consult the resolver; compatible venues
// coexist (the bound venue keeps its first-bound value), incompatible
// ones park the item in the pending slot, last write wins.
//
// A resolver error fails closed: the conflict is assumed, the item is
// parked, and the error is surfaced so the caller can tell the guest
// the venues could not be verified.
func (m *Machine) AddItem(ctx context.Context, item domain.LineItem, venueID string, skipConfirm bool) (AddOutcome, error) {
	m.mu.Lock()

	if len(m.items) == 0 {
		m.bindAndAppend(item, venueID)
		m.persistLocked()
		m.mu.Unlock()
		return OutcomeAdded, nil
	}

	if venueID == m.boundVenue {
		m.mergeOrAppend(item, venueID)
		m.persistLocked()
		m.mu.Unlock()
		return OutcomeAdded, nil
	}

	if skipConfirm {
		m.items = nil
		m.bindAndAppend(item, venueID)
		m.persistLocked()
		m.mu.Unlock()
		return OutcomeAdded, nil
	}

	// Decision against a snapshot, mutation against live state.
	boundAtCall := m.boundVenue
	m.mu.Unlock()

	compatible, err := m.resolver.Compatible(ctx, boundAtCall, venueID)

	m.mu.Lock()
	defer m.mu.Unlock()

	if err != nil {
		m.pending = &domain.PendingConflict{Item: item, VenueID: venueID}
		return OutcomeConflictPending, err
	}
	if !compatible {
		m.pending = &domain.PendingConflict{Item: item, VenueID: venueID}
		return OutcomeConflictPending, nil
	}

	// The cart may have been emptied while we were resolving.
	if len(m.items) == 0 {
		m.bindAndAppend(item, venueID)
	} else {
		m.mergeOrAppend(item, venueID)
	}
	m.persistLocked()
	return OutcomeAdded, nil
}

// ConfirmPendingConflict replays the parked item with skipConfirm set,
// replacing the cart's contents, then clears the slot. No-op when
// nothing is pending.
func (m *Machine) ConfirmPendingConflict(ctx context.Context) error {
	m.mu.Lock()
	p := m.pending
	m.mu.Unlock()
	if p == nil {
		return nil
	}

	if _, err := m.AddItem(ctx, p.Item, p.VenueID, true); err != nil {
		return err
	}

	m.mu.Lock()
	m.pending = nil
	m.mu.Unlock()
	return nil
}

// CancelPendingConflict clears the slot without touching the items.
func (m *Machine) CancelPendingConflict() {
	m.mu.Lock()
	m.pending = nil
	m.mu.Unlock()
}

// RemoveItem drops the line whose key matches. Removing the last line
// unbinds the venue.
func (m *Machine) RemoveItem(ctx context.Context, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.items[:0]
	for _, li := range m.items {
		if li.Key() != key {
			kept = append(kept, li)
		}
	}
	m.items = kept
	if len(m.items) == 0 {
		m.items = nil
		m.boundVenue = ""
	}
	m.persistLocked()
}

// UpdateQuantity sets the line's quantity to an absolute value.
// Anything below 1 removes the line; a quantity-zero line is never
// retained.
func (m *Machine) UpdateQuantity(ctx context.Context, key string, quantity int) {
	if quantity < 1 {
		m.RemoveItem(ctx, key)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].Key() == key {
			m.items[i].Quantity = quantity
			m.persistLocked()
			return
		}
	}
}

// Clear empties the cart, unbinds the venue, drops any pending
// conflict and resets the note.
func (m *Machine) Clear(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items = nil
	m.boundVenue = ""
	m.pending = nil
	m.note = ""

	pctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := m.store.Delete(pctx, m.sessionID); err != nil && !errors.Is(err, ErrStateNotFound) {
		log.Printf("cart clear persist failed for session %s: %v", m.sessionID, err)
	}
}

func (m *Machine) SetNote(ctx context.Context, note string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.note = note
	m.persistLocked()
}

func (m *Machine) SessionID() string {
	return m.sessionID
}

// Items returns a copy of the lines in insertion order.
func (m *Machine) Items() []domain.LineItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.LineItem, len(m.items))
	copy(out, m.items)
	return out
}

func (m *Machine) BoundVenue() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.boundVenue
}

func (m *Machine) Note() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.note
}

func (m *Machine) Pending() *domain.PendingConflict {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending == nil {
		return nil
	}
	p := *m.pending
	return &p
}

// ItemCount is the sum of line quantities.
func (m *Machine) ItemCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, li := range m.items {
		total += li.Quantity
	}
	return total
}

// TotalPrice sums effective price times quantity over all lines.
func (m *Machine) TotalPrice() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total int64
	for _, li := range m.items {
		total += li.EffectivePrice() * int64(li.Quantity)
	}
	return total
}

func (m *Machine) bindAndAppend(item domain.LineItem, venueID string) {
	m.boundVenue = venueID
	item.VenueID = venueID
	item.Quantity = 1
	m.items = append(m.items, item)
}

func (m *Machine) mergeOrAppend(item domain.LineItem, venueID string) {
	key := item.Key()
	for i := range m.items {
		if m.items[i].Key() == key {
			m.items[i].Quantity++
			return
		}
	}
	item.VenueID = venueID
	item.Quantity = 1
	m.items = append(m.items, item)
}

// persistLocked writes the current state through the store. Callers
// hold the lock. Failures are logged; in-memory state stays
// authoritative for the session.
func (m *Machine) persistLocked() {
	state := &domain.CartState{
		SessionID:  m.sessionID,
		Items:      m.items,
		BoundVenue: m.boundVenue,
		Note:       m.note,
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := m.store.Save(ctx, state); err != nil {
		log.Printf("cart persist failed for session %s: %v", m.sessionID, err)
	}
}
