package feed

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thefrankalbert/radisson-menu-app-sub001/internal/domain"
)

func TestHub_DeliversToSubscriber(t *testing.T) {
	hub := NewHub()
	orderID := uuid.New()

	ch, cancel := hub.Subscribe(orderID)
	defer cancel()

	ev := domain.StatusEvent{OrderID: orderID, Status: domain.OrderStatusPreparing, OccurredAt: time.Now()}
	hub.Publish(ev)

	select {
	case got := <-ch:
		assert.Equal(t, domain.OrderStatusPreparing, got.Status)
	case <-time.After(time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestHub_OnlyMatchingOrderReceives(t *testing.T) {
	hub := NewHub()
	orderA := uuid.New()
	orderB := uuid.New()

	chA, cancelA := hub.Subscribe(orderA)
	defer cancelA()
	chB, cancelB := hub.Subscribe(orderB)
	defer cancelB()

	hub.Publish(domain.StatusEvent{OrderID: orderA, Status: domain.OrderStatusReady})

	select {
	case <-chA:
	case <-time.After(time.Second):
		t.Fatal("subscriber A missed its event")
	}

	select {
	case ev := <-chB:
		t.Fatalf("subscriber B received foreign event: %v", ev)
	default:
	}
}

func TestHub_UnsubscribeStopsDelivery(t *testing.T) {
	hub := NewHub()
	orderID := uuid.New()

	_, cancel := hub.Subscribe(orderID)
	require.Equal(t, 1, hub.SubscriberCount(orderID))

	cancel()
	assert.Equal(t, 0, hub.SubscriberCount(orderID))

	// publishing after unsubscribe must not panic
	hub.Publish(domain.StatusEvent{OrderID: orderID, Status: domain.OrderStatusDelivered})
}

func TestHub_UnsubscribeIdempotent(t *testing.T) {
	hub := NewHub()
	orderID := uuid.New()

	_, cancel := hub.Subscribe(orderID)
	cancel()
	cancel()
	assert.Equal(t, 0, hub.SubscriberCount(orderID))
}

func TestHub_SlowSubscriberDoesNotBlock(t *testing.T) {
	hub := NewHub()
	orderID := uuid.New()

	_, cancel := hub.Subscribe(orderID) // never drained
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		// buffer is 8; overflow must drop, not block
		for i := 0; i < 20; i++ {
			hub.Publish(domain.StatusEvent{OrderID: orderID, Status: domain.OrderStatusPreparing})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on slow subscriber")
	}
}
