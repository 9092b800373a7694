package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/commerce-service/internal/domain"
	"github.com/spec-kit/commerce-service/internal/events"
)

func TestNotificationResolvesRecipientFromUserID(t *testing.T) {
	users := newStubUserRepo()
	users.byEmail["shopper@example.com"] = &domain.User{ID: "user-1", Email: "shopper@example.com"}
	mailer := &stubMailer{}
	dispatcher := events.NewInMemoryDispatcher()

	svc := NewNotificationService(dispatcher, mailer, users, zap.NewNop())
	svc.RegisterHandlers()

	err := dispatcher.Publish(context.Background(), events.Event{
		Type:      events.EventOrderPaid,
		UserID:    "user-1",
		OrderID:   "order-1",
		Timestamp: time.Now(),
		Payload:   events.OrderPaidPayload{TotalCents: 1000},
	})
	require.NoError(t, err)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "shopper@example.com", mailer.sent[0])
	assert.Contains(t, mailer.lastMsg, "order-1")
}

func TestNotificationSilentForUnknownUser(t *testing.T) {
	mailer := &stubMailer{}
	dispatcher := events.NewInMemoryDispatcher()

	svc := NewNotificationService(dispatcher, mailer, newStubUserRepo(), zap.NewNop())
	svc.RegisterHandlers()

	err := dispatcher.Publish(context.Background(), events.Event{
		Type:    events.EventOrderCancelled,
		UserID:  "ghost",
		OrderID: "order-1",
	})
	require.NoError(t, err)
	assert.Empty(t, mailer.sent, "an unresolvable recipient never fails the event")
}

func TestNotificationStatusChangePayload(t *testing.T) {
	mailer := &stubMailer{}
	dispatcher := events.NewInMemoryDispatcher()

	svc := NewNotificationService(dispatcher, mailer, newStubUserRepo(), zap.NewNop())
	svc.RegisterHandlers()

	err := dispatcher.Publish(context.Background(), events.Event{
		Type:      events.EventOrderStatusChanged,
		UserEmail: "shopper@example.com",
		OrderID:   "order-1",
		Payload: events.OrderStatusChangedPayload{
			OldStatus: domain.OrderStatusProcessing,
			NewStatus: domain.OrderStatusShipped,
		},
	})
	require.NoError(t, err)
	require.Len(t, mailer.sent, 1)
	assert.Contains(t, mailer.lastMsg, "SHIPPED")
}
