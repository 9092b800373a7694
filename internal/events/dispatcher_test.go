package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishReachesAllSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()
	var got []string
	d.Subscribe(EventOrderPaid, func(ctx context.Context, e Event) error {
		got = append(got, "first:"+e.OrderID)
		return nil
	})
	d.Subscribe(EventOrderPaid, func(ctx context.Context, e Event) error {
		got = append(got, "second:"+e.OrderID)
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventOrderPaid, OrderID: "o-1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"first:o-1", "second:o-1"}, got)
}

func TestPublishContinuesPastFailingSubscriber(t *testing.T) {
	d := NewInMemoryDispatcher()
	boom := errors.New("mailer down")
	var delivered bool
	d.Subscribe(EventOrderCancelled, func(ctx context.Context, e Event) error {
		return boom
	})
	d.Subscribe(EventOrderCancelled, func(ctx context.Context, e Event) error {
		delivered = true
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventOrderCancelled})
	assert.ErrorIs(t, err, boom)
	assert.True(t, delivered, "later subscribers still run")
}

func TestPublishIgnoresUnrelatedEventTypes(t *testing.T) {
	d := NewInMemoryDispatcher()
	var called bool
	d.Subscribe(EventOrderCreated, func(ctx context.Context, e Event) error {
		called = true
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventUserRegistered}))
	assert.False(t, called)
}
