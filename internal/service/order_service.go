package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/commerce-service/internal/config"
	"github.com/spec-kit/commerce-service/internal/domain"
	"github.com/spec-kit/commerce-service/internal/events"
	"github.com/spec-kit/commerce-service/internal/repository"
	apperrors "github.com/spec-kit/commerce-service/pkg/util"
)

// OrderService coordinates the order lifecycle and its stock side effects.
type OrderService struct {
	orders     repository.OrderRepository
	products   repository.ProductRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	pricing    config.OrderConfig
}

// OrderDependencies bundles requirements for the order service.
type OrderDependencies struct {
	OrderRepo   repository.OrderRepository
	ProductRepo repository.ProductRepository
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// NewOrderService constructs the service.
func NewOrderService(cfg config.OrderConfig, deps OrderDependencies) *OrderService {
	return &OrderService{
		orders:     deps.OrderRepo,
		products:   deps.ProductRepo,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		pricing:    cfg,
	}
}

// OrderLineInput is one requested product/quantity pair.
type OrderLineInput struct {
	ProductID string
	Quantity  int
}

// OrderCreateInput describes an order placement.
type OrderCreateInput struct {
	Items           []OrderLineInput
	ShippingAddress domain.ShippingAddress
	PaymentMethod   string
}

// CreateOrder validates every line item, then persists the order and
// decrements stock in one transaction. Validation failures leave no
// partial decrement behind.
func (s *OrderService) CreateOrder(ctx context.Context, userID string, input OrderCreateInput) (*domain.Order, error) {
	if len(input.Items) == 0 {
		return nil, apperrors.NewValidationError("order must contain at least one item", nil)
	}
	if strings.TrimSpace(input.ShippingAddress.Recipient) == "" ||
		strings.TrimSpace(input.ShippingAddress.Street) == "" {
		return nil, apperrors.NewValidationError("shipping address requires recipient and street", nil)
	}

	now := time.Now()
	items := make([]domain.OrderItem, 0, len(input.Items))
	var itemsCents int64

	for _, line := range input.Items {
		if line.Quantity <= 0 {
			return nil, apperrors.NewValidationError("quantity must be positive", nil)
		}
		if _, err := uuid.Parse(line.ProductID); err != nil {
			return nil, apperrors.NewValidationError("invalid product id", map[string]any{"product_id": line.ProductID})
		}
		product, err := s.products.GetByID(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("product", map[string]any{"product_id": line.ProductID})
			}
			return nil, err
		}
		if !product.IsActive {
			return nil, apperrors.NewNotFound("product", map[string]any{"product_id": line.ProductID})
		}
		if product.Stock < line.Quantity {
			return nil, apperrors.NewInsufficientStock(product.ID, product.Stock)
		}

		items = append(items, domain.OrderItem{
			ProductID:      product.ID,
			Name:           product.Name,
			ImageURL:       product.ImageURL,
			Quantity:       line.Quantity,
			UnitPriceCents: product.EffectivePriceCents(now),
		})
		itemsCents += int64(line.Quantity) * product.EffectivePriceCents(now)
	}

	taxCents := itemsCents * int64(s.pricing.TaxPercent) / 100
	shippingCents := s.pricing.ShippingFlatCents
	if s.pricing.FreeShippingAboveCents > 0 && itemsCents >= s.pricing.FreeShippingAboveCents {
		shippingCents = 0
	}

	order := &domain.Order{
		UserID:          userID,
		Items:           items,
		ShippingAddress: input.ShippingAddress,
		PaymentMethod:   input.PaymentMethod,
		ItemsCents:      itemsCents,
		TaxCents:        taxCents,
		ShippingCents:   shippingCents,
		TotalCents:      itemsCents + taxCents + shippingCents,
		Status:          domain.OrderStatusPending,
	}

	if err := s.orders.CreateWithStockDecrement(ctx, order); err != nil {
		var stockErr *repository.InsufficientStockError
		if errors.As(err, &stockErr) {
			return nil, apperrors.NewInsufficientStock(stockErr.ProductID, stockErr.Available)
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("product", nil)
		}
		return nil, err
	}

	s.publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventOrderCreated,
		UserID:    userID,
		OrderID:   order.ID,
		Timestamp: now,
		Payload:   events.OrderCreatedPayload{TotalCents: order.TotalCents, ItemCount: len(order.Items)},
	})
	return order, nil
}

// GetOrder fetches a single order, enforcing ownership.
func (s *OrderService) GetOrder(ctx context.Context, callerID string, callerRole domain.Role, orderID string) (*domain.Order, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := checkOwnership(order, callerID, callerRole); err != nil {
		return nil, err
	}
	return order, nil
}

// ConfirmPayment records the provider result and moves the order from
// pending to processing. Only the owner may confirm.
func (s *OrderService) ConfirmPayment(ctx context.Context, callerID, orderID string, result domain.PaymentResult) (*domain.Order, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != callerID {
		return nil, apperrors.NewForbidden("not your order")
	}
	if order.Status != domain.OrderStatusPending && !order.IsPaid {
		return nil, apperrors.NewInvalidState("order is not awaiting payment")
	}

	now := time.Now()
	order.IsPaid = true
	order.PaidAt = &now
	order.PaymentResult = &result
	if order.Status == domain.OrderStatusPending {
		order.Status = domain.OrderStatusProcessing
	}
	if err := s.orders.Update(ctx, order); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewInvalidState("order was cancelled concurrently")
		}
		return nil, err
	}

	s.publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventOrderPaid,
		UserID:    order.UserID,
		OrderID:   order.ID,
		Timestamp: now,
		Payload:   events.OrderPaidPayload{TotalCents: order.TotalCents, Provider: result.Provider},
	})
	return order, nil
}

// UpdateStatus applies an admin fulfillment transition. The status
// graph is strictly forward-only; cancellation routes through the
// stock-restoring path.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID string, statusValue string) (*domain.Order, error) {
	next, err := domain.ParseOrderStatus(statusValue)
	if err != nil {
		return nil, apperrors.NewInvalidState("unknown order status")
	}

	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanTransition(next) {
		return nil, apperrors.NewInvalidState("illegal status transition")
	}

	if next == domain.OrderStatusCancelled {
		return s.cancel(ctx, order)
	}

	old := order.Status
	order.Status = next
	if next == domain.OrderStatusDelivered {
		now := time.Now()
		order.IsDelivered = true
		order.DeliveredAt = &now
	}
	if err := s.orders.Update(ctx, order); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewInvalidState("order was cancelled concurrently")
		}
		return nil, err
	}

	s.publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventOrderStatusChanged,
		UserID:    order.UserID,
		OrderID:   order.ID,
		Timestamp: time.Now(),
		Payload:   events.OrderStatusChangedPayload{OldStatus: old, NewStatus: next},
	})
	return order, nil
}

// CancelOrder cancels an order on behalf of its owner or an admin,
// restoring the decremented stock.
func (s *OrderService) CancelOrder(ctx context.Context, callerID string, callerRole domain.Role, orderID string) (*domain.Order, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := checkOwnership(order, callerID, callerRole); err != nil {
		return nil, err
	}
	return s.cancel(ctx, order)
}

func (s *OrderService) cancel(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if !order.Status.Cancellable() {
		return nil, apperrors.NewInvalidState("order can no longer be cancelled")
	}
	if err := s.orders.CancelWithStockRestore(ctx, order); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// lost the race against a concurrent transition
			return nil, apperrors.NewInvalidState("order can no longer be cancelled")
		}
		return nil, err
	}

	s.publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventOrderCancelled,
		UserID:    order.UserID,
		OrderID:   order.ID,
		Timestamp: time.Now(),
		Payload:   events.OrderCancelledPayload{RestoredItems: len(order.Items)},
	})
	return order, nil
}

// ListUserOrders returns the caller's orders, newest first.
func (s *OrderService) ListUserOrders(ctx context.Context, userID string, limit, offset int) ([]domain.Order, error) {
	return s.orders.ListByUser(ctx, userID, limit, offset)
}

// ListOrders returns the admin view with aggregate statistics.
func (s *OrderService) ListOrders(ctx context.Context, filter repository.OrderFilter) ([]domain.Order, *repository.OrderStats, error) {
	orders, err := s.orders.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, nil, err
	}
	stats, err := s.orders.Stats(ctx)
	if err != nil {
		return nil, nil, err
	}
	return orders, stats, nil
}

func (s *OrderService) loadOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	if _, err := uuid.Parse(orderID); err != nil {
		return nil, apperrors.NewValidationError("invalid order id", nil)
	}
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("order", nil)
		}
		return nil, err
	}
	return order, nil
}

func (s *OrderService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish event", zap.Error(err))
	}
}

func checkOwnership(order *domain.Order, callerID string, callerRole domain.Role) error {
	if order.UserID != callerID && callerRole != domain.RoleAdmin {
		return apperrors.NewForbidden("not your order")
	}
	return nil
}
