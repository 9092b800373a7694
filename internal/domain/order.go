package domain

import (
	"fmt"
	"time"
)

// OrderStatus enumerates fulfillment lifecycle states.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

// ParseOrderStatus validates a status value.
func ParseOrderStatus(value string) (OrderStatus, error) {
	switch OrderStatus(value) {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return OrderStatus(value), nil
	default:
		return "", fmt.Errorf("unknown order status %q", value)
	}
}

// CanTransition reports whether the forward-only status graph permits
// moving from s to next. Cancellation is allowed only before shipment
// and is terminal.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	switch s {
	case OrderStatusPending:
		return next == OrderStatusProcessing || next == OrderStatusCancelled
	case OrderStatusProcessing:
		return next == OrderStatusShipped || next == OrderStatusCancelled
	case OrderStatusShipped:
		return next == OrderStatusDelivered
	default:
		return false
	}
}

// Cancellable reports whether an order in this status may still be cancelled.
func (s OrderStatus) Cancellable() bool {
	return s == OrderStatusPending || s == OrderStatusProcessing
}

// OrderItem is one line of an order. Display fields are snapshotted at
// creation time so historical orders survive later catalog edits.
type OrderItem struct {
	ID             string
	OrderID        string
	ProductID      string
	Name           string
	ImageURL       string
	Quantity       int
	UnitPriceCents int64
}

// ShippingAddress is the address snapshot embedded in an order.
type ShippingAddress struct {
	Recipient  string `json:"recipient"`
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

// PaymentResult stores the payment provider payload verbatim.
type PaymentResult struct {
	Provider  string `json:"provider,omitempty"`
	Reference string `json:"reference,omitempty"`
	Status    string `json:"status,omitempty"`
	RawEmail  string `json:"email,omitempty"`
}

// Order is the aggregate for a purchase. Monetary amounts are integer cents.
type Order struct {
	ID     string
	UserID string
	Items  []OrderItem

	ShippingAddress ShippingAddress
	PaymentMethod   string

	ItemsCents    int64
	TaxCents      int64
	ShippingCents int64
	TotalCents    int64

	IsPaid        bool
	PaidAt        *time.Time
	PaymentResult *PaymentResult

	Status      OrderStatus
	IsDelivered bool
	DeliveredAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
