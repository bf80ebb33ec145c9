package cache

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/thefrankalbert/radisson-menu-app-sub001/internal/domain"
)

type OrderCache interface {
	Get(ctx context.Context, orderID uuid.UUID) (*domain.Order, error)
	Set(ctx context.Context, order *domain.Order) error
	Delete(ctx context.Context, orderID uuid.UUID) error
}

var ErrCacheMiss = errors.New("cache miss")
