package cart

import (
	"context"
	"errors"

	"github.com/thefrankalbert/radisson-menu-app-sub001/internal/domain"
)

var ErrStateNotFound = errors.New("cart state not found")

// Store persists one session's cart so a page reload restores exact
// state. Persistence is best-effort: the in-memory machine stays
// authoritative within a session and is never blocked by store errors.
// Consumers define this interface, not the MongoDB implementation.
type Store interface {
	Load(ctx context.Context, sessionID string) (*domain.CartState, error)
	Save(ctx context.Context, state *domain.CartState) error
	Delete(ctx context.Context, sessionID string) error
}
