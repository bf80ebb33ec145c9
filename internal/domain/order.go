package domain

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusPreparing OrderStatus = "PREPARING"
	OrderStatusReady     OrderStatus = "READY"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// String representation (for logging)
func (s OrderStatus) String() string {
	return string(s)
}

// OrderItem is a snapshot of a cart line at checkout time, independent
// of the live catalog. It keeps enough of the original selection
// (catalog id, option, variant) to be re-expressed as a cart line when
// the guest retracts the order inside the edit window.
type OrderItem struct {
	BaseID    string       `json:"base_id"`
	Name      string       `json:"name"`
	Quantity  int          `json:"quantity"`
	UnitPrice int64        `json:"unit_price"`
	Option    *ItemOption  `json:"option,omitempty"`
	Variant   *ItemVariant `json:"variant,omitempty"`
}

type Order struct {
	ID          uuid.UUID   `json:"id"`
	SessionID   string      `json:"session_id"`
	TableNumber string      `json:"table_number"`
	VenueID     string      `json:"venue_id"`
	Status      OrderStatus `json:"status"`
	TotalPrice  int64       `json:"total_price"`
	Note        string      `json:"note,omitempty"`
	Items       []OrderItem `json:"items"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// StatusEvent is one realtime status-change notification for an order.
type StatusEvent struct {
	OrderID    uuid.UUID   `json:"order_id"`
	Status     OrderStatus `json:"status"`
	OccurredAt time.Time   `json:"occurred_at"`
}
