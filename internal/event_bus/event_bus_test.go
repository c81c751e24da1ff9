package event_bus

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus_Publish(t *testing.T) {
	t.Run("should deliver events in subscription order", func(t *testing.T) {
		// given
		bus := NewEventBus()
		var calls []string
		bus.Subscribe(TransactionCreated, func(e Event) error {
			calls = append(calls, "first")
			return nil
		})
		bus.Subscribe(TransactionCreated, func(e Event) error {
			calls = append(calls, "second")
			return nil
		})
		bus.Subscribe(TransactionDeleted, func(e Event) error {
			calls = append(calls, "other")
			return nil
		})

		// when
		err := bus.Publish(NewEvent(context.Background(), TransactionCreated, nil))

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{"first", "second"}, calls)
	})

	t.Run("should keep dispatching after a failing or panicking handler", func(t *testing.T) {
		// given
		bus := NewEventBus()
		delivered := false
		bus.Subscribe(TransactionCreated, func(e Event) error { return errors.New("boom") })
		bus.Subscribe(TransactionCreated, func(e Event) error { panic("kaboom") })
		bus.Subscribe(TransactionCreated, func(e Event) error {
			delivered = true
			return nil
		})

		// when
		err := bus.Publish(NewEvent(context.Background(), TransactionCreated, nil))

		// then
		assert.True(t, delivered)
		assert.ErrorContains(t, err, "2 handler(s) failed")
		assert.ErrorContains(t, err, "boom")
		assert.ErrorContains(t, err, "kaboom")
	})

	t.Run("should not dispatch with a cancelled context", func(t *testing.T) {
		// given
		bus := NewEventBus()
		called := false
		bus.Subscribe(TransactionCreated, func(e Event) error {
			called = true
			return nil
		})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		// when
		err := bus.Publish(NewEvent(ctx, TransactionCreated, nil))

		// then
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, called)
	})

	t.Run("should stop delivering after unsubscribe", func(t *testing.T) {
		// given
		bus := NewEventBus()
		count := 0
		unsubscribe := bus.Subscribe(TransactionCreated, func(e Event) error {
			count++
			return nil
		})

		// when
		_ = bus.Publish(NewEvent(context.Background(), TransactionCreated, nil))
		unsubscribe()
		_ = bus.Publish(NewEvent(context.Background(), TransactionCreated, nil))

		// then
		assert.Equal(t, 1, count)
	})
}

func TestSubscribeTyped(t *testing.T) {
	// given
	bus := NewEventBus()
	var received []TransactionChanged
	SubscribeTyped(bus, TransactionCreated, func(e EventT[TransactionChanged]) error {
		received = append(received, e.Data)
		return nil
	})

	// when
	err1 := bus.Publish(NewEvent(context.Background(), TransactionCreated, TransactionChanged{TransactionId: 7}))
	err2 := bus.Publish(NewEvent(context.Background(), TransactionCreated, "not a transaction"))

	// then
	assert.NoError(t, err1)
	assert.NoError(t, err2)
	require.Len(t, received, 1)
	assert.Equal(t, 7, received[0].TransactionId)
}
