package feed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/thefrankalbert/radisson-menu-app-sub001/internal/domain"
)

const statusTopic = "order-status"

// Consumer reads kitchen status-change events from Kafka and feeds the
// hub. Loss of the feed never corrupts local state: the edit-window
// controller degrades to its wall-clock deadline when events stop.
type Consumer struct {
	reader *kafka.Reader
	hub    *Hub
}

func NewConsumer(hub *Hub, brokers ...string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    statusTopic,
		GroupID:  "guest-order-feed",
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{reader: reader, hub: hub}
}

func (c *Consumer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		c.readAndDispatch(ctx)
	}
}

func (c *Consumer) Close() {
	err := c.reader.Close()
	if err != nil {
		fmt.Printf("error closing reader: %v\n", err)
	}
}

func (c *Consumer) readAndDispatch(ctx context.Context) {
	m, err := c.reader.ReadMessage(ctx)
	if err != nil {
		fmt.Printf("error reading message: %v\n", err)
		return
	}

	var ev domain.StatusEvent
	if errUnMarshal := json.Unmarshal(m.Value, &ev); errUnMarshal != nil {
		fmt.Printf("error parsing status event: %v\n", errUnMarshal)
		return
	}
	if ev.OrderID == uuid.Nil {
		fmt.Println("status event missing order id")
		return
	}

	c.hub.Publish(ev)
}
