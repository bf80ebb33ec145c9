package order

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/thefrankalbert/radisson-menu-app-sub001/internal/domain"
)

var (
	ErrOrderNotFound = errors.New("order not found")
)

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

type Repository interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
	GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	ListBySession(ctx context.Context, sessionID string) ([]*domain.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error
	DeleteOrder(ctx context.Context, id uuid.UUID) error
	RunMigrations(*Credentials) error
	Close() error
}
