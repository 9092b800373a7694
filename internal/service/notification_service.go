package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/commerce-service/internal/events"
	"github.com/spec-kit/commerce-service/internal/repository"
	"github.com/spec-kit/commerce-service/pkg/mail"
)

// NotificationService emits best-effort email for domain events.
type NotificationService struct {
	dispatcher events.Dispatcher
	mailer     mail.Mailer
	users      repository.UserRepository
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, mailer mail.Mailer, users repository.UserRepository, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		mailer:     mailer,
		users:      users,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventOrderCreated, n.handleOrderCreated)
	n.dispatcher.Subscribe(events.EventOrderPaid, n.handleOrderPaid)
	n.dispatcher.Subscribe(events.EventOrderStatusChanged, n.handleOrderStatusChanged)
	n.dispatcher.Subscribe(events.EventOrderCancelled, n.handleOrderCancelled)
}

func (n *NotificationService) handleOrderCreated(ctx context.Context, event events.Event) error {
	n.logger.Info("OrderCreated", zap.String("order_id", event.OrderID), zap.Any("payload", event.Payload))
	n.sendOrderEmail(ctx, event, "Order received",
		fmt.Sprintf("We received your order %s and will start processing once payment is confirmed.", event.OrderID))
	return nil
}

func (n *NotificationService) handleOrderPaid(ctx context.Context, event events.Event) error {
	n.logger.Info("OrderPaid", zap.String("order_id", event.OrderID), zap.Any("payload", event.Payload))
	n.sendOrderEmail(ctx, event, "Payment confirmed",
		fmt.Sprintf("Payment for order %s was confirmed. We are preparing your shipment.", event.OrderID))
	return nil
}

func (n *NotificationService) handleOrderStatusChanged(ctx context.Context, event events.Event) error {
	n.logger.Info("OrderStatusChanged", zap.String("order_id", event.OrderID), zap.Any("payload", event.Payload))
	payload, ok := event.Payload.(events.OrderStatusChangedPayload)
	if !ok {
		return nil
	}
	n.sendOrderEmail(ctx, event, "Order update",
		fmt.Sprintf("Your order %s is now %s.", event.OrderID, payload.NewStatus))
	return nil
}

func (n *NotificationService) handleOrderCancelled(ctx context.Context, event events.Event) error {
	n.logger.Info("OrderCancelled", zap.String("order_id", event.OrderID), zap.Any("payload", event.Payload))
	n.sendOrderEmail(ctx, event, "Order cancelled",
		fmt.Sprintf("Your order %s was cancelled and the items returned to stock.", event.OrderID))
	return nil
}

func (n *NotificationService) sendOrderEmail(ctx context.Context, event events.Event, subject, body string) {
	email := event.UserEmail
	if email == "" && event.UserID != "" {
		user, err := n.users.GetByID(ctx, event.UserID)
		if err != nil {
			n.logger.Warn("resolve order email recipient", zap.String("user_id", event.UserID), zap.Error(err))
			return
		}
		email = user.Email
	}
	if email == "" {
		return
	}
	if err := n.mailer.SendPlainTextEmail(ctx, email, subject, body); err != nil {
		n.logger.Warn("send order email",
			zap.String("order_id", event.OrderID),
			zap.Error(err))
	}
}
