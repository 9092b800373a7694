package events

import (
	"time"

	"github.com/spec-kit/commerce-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered     EventType = "user_registered"
	EventOrderCreated       EventType = "order_created"
	EventOrderPaid          EventType = "order_paid"
	EventOrderStatusChanged EventType = "order_status_changed"
	EventOrderCancelled     EventType = "order_cancelled"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	UserID    string      `json:"user_id"`
	UserEmail string      `json:"user_email,omitempty"`
	OrderID   string      `json:"order_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// UserRegisteredPayload payload.
type UserRegisteredPayload struct {
	Name string `json:"name"`
}

// OrderCreatedPayload payload.
type OrderCreatedPayload struct {
	TotalCents int64 `json:"total_cents"`
	ItemCount  int   `json:"item_count"`
}

// OrderPaidPayload payload.
type OrderPaidPayload struct {
	TotalCents int64  `json:"total_cents"`
	Provider   string `json:"provider,omitempty"`
}

// OrderStatusChangedPayload payload.
type OrderStatusChangedPayload struct {
	OldStatus domain.OrderStatus `json:"old_status"`
	NewStatus domain.OrderStatus `json:"new_status"`
}

// OrderCancelledPayload payload.
type OrderCancelledPayload struct {
	RestoredItems int `json:"restored_items"`
}
