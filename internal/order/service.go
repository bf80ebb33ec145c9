package order

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/thefrankalbert/radisson-menu-app-sub001/internal/cache"
	"github.com/thefrankalbert/radisson-menu-app-sub001/internal/cart"
	"github.com/thefrankalbert/radisson-menu-app-sub001/internal/domain"
)

var (
	ErrEmptyCart     = errors.New("cart is empty")
	ErrInvalidStatus = errors.New("invalid order status")
)

// StatusPublisher pushes a status-change event onto the realtime feed.
type StatusPublisher interface {
	PublishStatus(ctx context.Context, ev domain.StatusEvent) error
}

type Service struct {
	repo      Repository
	cache     cache.OrderCache
	publisher StatusPublisher
	sfg       singleflight.Group // Prevents cache stampede on the polled confirmation screen
	now       func() time.Time
}

func NewService(repo Repository, cache cache.OrderCache, publisher StatusPublisher) *Service {
	return &Service{
		repo:      repo,
		cache:     cache,
		publisher: publisher,
		now:       time.Now,
	}
}

// Checkout snapshots the session's cart into a pending order, inserts
// it, then clears the cart. The snapshot keeps name, quantity and unit
// price per line so later catalog edits cannot change a placed order,
// plus the original selections so the edit window can replay them.
func (s *Service) Checkout(ctx context.Context, m *cart.Machine, tableNumber string) (*domain.Order, error) {
	items := m.Items()
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	snapshot := make([]domain.OrderItem, 0, len(items))
	for _, li := range items {
		snapshot = append(snapshot, domain.OrderItem{
			BaseID:    li.BaseID,
			Name:      li.Name,
			Quantity:  li.Quantity,
			UnitPrice: li.EffectivePrice(),
			Option:    li.Option,
			Variant:   li.Variant,
		})
	}

	now := s.now()
	order := &domain.Order{
		ID:          uuid.New(),
		SessionID:   m.SessionID(),
		TableNumber: tableNumber,
		VenueID:     m.BoundVenue(),
		Status:      domain.OrderStatusPending,
		TotalPrice:  m.TotalPrice(),
		Note:        m.Note(),
		Items:       snapshot,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.CreateOrder(ctx, order); err != nil {
		log.Printf("repo create order error: %v \n", err)
		return nil, err
	}

	m.Clear(ctx)
	return order, nil
}

// Get is a read-through: cache first, then the repository, with
// concurrent misses for the same order collapsed.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	v, err, _ := s.sfg.Do(id.String(), func() (interface{}, error) {
		order, err := s.cache.Get(ctx, id)
		if err == nil {
			return order, nil
		}

		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Printf("cache get error: %v \n", err) // log cache error but continue
		}

		order, errGet := s.repo.GetOrderByID(ctx, id)
		if errGet != nil {
			return nil, errGet
		}

		// set cache
		go func() {
			errSet := s.cache.Set(context.Background(), order)
			if errSet != nil {
				log.Printf("cache set error: %v \n", errSet)
			}
		}()

		return order, nil
	})

	if err != nil {
		return nil, err
	}

	return v.(*domain.Order), nil
}

func (s *Service) ListBySession(ctx context.Context, sessionID string) ([]*domain.Order, error) {
	return s.repo.ListBySession(ctx, sessionID)
}

// SetStatus is the kitchen-side transition. It updates the row,
// invalidates the cached snapshot and emits a feed event. Feed
// publication is best-effort: losing it delays modify-availability
// detection on the guest's screen but never corrupts state.
func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error {
	switch status {
	case domain.OrderStatusPending, domain.OrderStatusPreparing, domain.OrderStatusReady,
		domain.OrderStatusDelivered, domain.OrderStatusCancelled:
	default:
		return ErrInvalidStatus
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		log.Printf("repo update status error: %v \n", err)
		return err
	}

	s.invalidateCache(id)

	ev := domain.StatusEvent{OrderID: id, Status: status, OccurredAt: s.now()}
	if err := s.publisher.PublishStatus(ctx, ev); err != nil {
		log.Printf("status event publish error for order %s: %v", id, err)
	}
	return nil
}

// Delete removes the order row entirely and drops the cached copy.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteOrder(ctx, id); err != nil {
		log.Printf("repo delete order error: %v \n", err)
		return err
	}

	s.invalidateCache(id)
	return nil
}

func (s *Service) invalidateCache(id uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	errInvalidate := s.cache.Delete(ctx, id)
	if errInvalidate != nil {
		log.Printf("cache invalidate error: %v \n", errInvalidate)
	}
}
