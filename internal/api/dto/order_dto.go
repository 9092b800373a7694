package dto

import (
	"time"

	"github.com/spec-kit/commerce-service/internal/domain"
)

// OrderItemRequest is one requested product/quantity pair.
type OrderItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// ShippingAddressRequest is the address snapshot for an order.
type ShippingAddressRequest struct {
	Recipient  string `json:"recipient"`
	Street     string `json:"street"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

// CreateOrderRequest payload.
type CreateOrderRequest struct {
	Items           []OrderItemRequest     `json:"items"`
	ShippingAddress ShippingAddressRequest `json:"shipping_address"`
	PaymentMethod   string                 `json:"payment_method,omitempty"`
}

// PayOrderRequest records the payment provider result verbatim.
type PayOrderRequest struct {
	Provider  string `json:"provider,omitempty"`
	Reference string `json:"reference,omitempty"`
	Status    string `json:"status,omitempty"`
	Email     string `json:"email,omitempty"`
}

// UpdateOrderStatusRequest payload for admin transitions.
type UpdateOrderStatusRequest struct {
	Status string `json:"status"`
}

// OrderItemResponse mirrors a snapshotted line item.
type OrderItemResponse struct {
	ProductID      string `json:"product_id"`
	Name           string `json:"name"`
	ImageURL       string `json:"image_url,omitempty"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}

// OrderResponse mirrors an order.
type OrderResponse struct {
	ID              string                 `json:"id"`
	UserID          string                 `json:"user_id"`
	Items           []OrderItemResponse    `json:"items"`
	ShippingAddress domain.ShippingAddress `json:"shipping_address"`
	PaymentMethod   string                 `json:"payment_method,omitempty"`
	ItemsCents      int64                  `json:"items_cents"`
	TaxCents        int64                  `json:"tax_cents"`
	ShippingCents   int64                  `json:"shipping_cents"`
	TotalCents      int64                  `json:"total_cents"`
	IsPaid          bool                   `json:"is_paid"`
	PaidAt          *time.Time             `json:"paid_at,omitempty"`
	Status          domain.OrderStatus     `json:"status"`
	IsDelivered     bool                   `json:"is_delivered"`
	DeliveredAt     *time.Time             `json:"delivered_at,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
}

// OrderStatsResponse aggregates fulfillment figures.
type OrderStatsResponse struct {
	TotalOrders   int64                        `json:"total_orders"`
	RevenueCents  int64                        `json:"revenue_cents"`
	CountByStatus map[domain.OrderStatus]int64 `json:"count_by_status"`
}

// NewOrderResponse maps a domain order.
func NewOrderResponse(o *domain.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, OrderItemResponse{
			ProductID:      item.ProductID,
			Name:           item.Name,
			ImageURL:       item.ImageURL,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
		})
	}
	return OrderResponse{
		ID:              o.ID,
		UserID:          o.UserID,
		Items:           items,
		ShippingAddress: o.ShippingAddress,
		PaymentMethod:   o.PaymentMethod,
		ItemsCents:      o.ItemsCents,
		TaxCents:        o.TaxCents,
		ShippingCents:   o.ShippingCents,
		TotalCents:      o.TotalCents,
		IsPaid:          o.IsPaid,
		PaidAt:          o.PaidAt,
		Status:          o.Status,
		IsDelivered:     o.IsDelivered,
		DeliveredAt:     o.DeliveredAt,
		CreatedAt:       o.CreatedAt,
	}
}
