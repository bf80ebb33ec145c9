package http

import (
	"context"
	"sync"

	"github.com/thefrankalbert/radisson-menu-app-sub001/internal/cart"
)

// Sessions hands out one cart machine per guest session, restoring
// persisted state on first touch so a page reload lands on the same
// cart.
type Sessions struct {
	resolver cart.CompatibilityResolver
	store    cart.Store

	mu       sync.Mutex
	machines map[string]*cart.Machine
}

func NewSessions(resolver cart.CompatibilityResolver, store cart.Store) *Sessions {
	return &Sessions{
		resolver: resolver,
		store:    store,
		machines: make(map[string]*cart.Machine),
	}
}

func (s *Sessions) Machine(ctx context.Context, sessionID string) *cart.Machine {
	s.mu.Lock()
	if m, ok := s.machines[sessionID]; ok {
		s.mu.Unlock()
		return m
	}
	s.mu.Unlock()

	m := cart.Restore(ctx, sessionID, s.resolver, s.store)

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.machines[sessionID]; ok {
		return existing
	}
	s.machines[sessionID] = m
	return m
}
