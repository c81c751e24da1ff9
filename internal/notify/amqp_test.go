package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/budgetmate/budgetmate/internal/config"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConnection struct {
	closed bool
}

func (c *fakeConnection) IsClosed() bool { return c.closed }

func (c *fakeConnection) Close() error {
	c.closed = true
	return nil
}

type fakeChannel struct {
	closed     bool
	publishErr error
	published  []amqp.Publishing
	bindings   []string
}

func (c *fakeChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	return nil
}

func (c *fakeChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	return amqp.Queue{Name: name}, nil
}

func (c *fakeChannel) QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error {
	c.bindings = append(c.bindings, exchange+"->"+name)
	return nil
}

func (c *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	if c.publishErr != nil {
		return c.publishErr
	}
	c.published = append(c.published, msg)
	return nil
}

func (c *fakeChannel) IsClosed() bool { return c.closed }

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

type fakeBroker struct {
	dials    int
	dialErr  error
	channels []*fakeChannel
	conns    []*fakeConnection
}

func (b *fakeBroker) dial(url string) (amqpConnection, amqpChannel, error) {
	b.dials++
	if b.dialErr != nil {
		return nil, nil, b.dialErr
	}
	conn := &fakeConnection{}
	channel := &fakeChannel{}
	b.conns = append(b.conns, conn)
	b.channels = append(b.channels, channel)
	return conn, channel, nil
}

func newTestAmqpPublisher(t *testing.T) (*AmqpPublisher, *fakeBroker) {
	t.Helper()
	broker := &fakeBroker{}
	p := newAmqpPublisher(config.Amqp{Url: "amqp://test", Exchange: "budgetmate", Queue: "budget-alerts"}, broker.dial)
	require.NoError(t, p.connect())
	return p, broker
}

func TestAmqpPublisher_Publish(t *testing.T) {
	alert := Alert{Kind: AlertThreshold, CategoryId: 3, Budget: dec("100"), Spent: dec("85"), Timestamp: now}

	t.Run("should publish persistent json to the bound queue", func(t *testing.T) {
		// given
		p, broker := newTestAmqpPublisher(t)

		// when
		err := p.Publish(context.Background(), alert)

		// then
		require.NoError(t, err)
		require.Len(t, broker.channels[0].published, 1)
		msg := broker.channels[0].published[0]
		assert.Equal(t, "application/json", msg.ContentType)
		assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
		assert.Equal(t, string(AlertThreshold), msg.Type)
		assert.Equal(t, []string{"budgetmate->budget-alerts"}, broker.channels[0].bindings)
	})

	t.Run("should redial after the broker dropped the connection", func(t *testing.T) {
		// given
		p, broker := newTestAmqpPublisher(t)
		broker.conns[0].closed = true
		broker.channels[0].closed = true

		// when
		err := p.Publish(context.Background(), alert)

		// then
		require.NoError(t, err)
		assert.Equal(t, 2, broker.dials)
		assert.Len(t, broker.channels[1].published, 1)
		assert.Equal(t, []string{"budgetmate->budget-alerts"}, broker.channels[1].bindings)
	})

	t.Run("should retry once when publishing hits a closed channel", func(t *testing.T) {
		// given
		p, broker := newTestAmqpPublisher(t)
		broker.channels[0].publishErr = amqp.ErrClosed

		// when
		err := p.Publish(context.Background(), alert)

		// then
		require.NoError(t, err)
		assert.Equal(t, 2, broker.dials)
		assert.True(t, broker.channels[0].closed)
		assert.Len(t, broker.channels[1].published, 1)
	})

	t.Run("should keep trying on later alerts while the broker is down", func(t *testing.T) {
		// given
		p, broker := newTestAmqpPublisher(t)
		broker.conns[0].closed = true
		broker.dialErr = errors.New("connection refused")

		// when
		first := p.Publish(context.Background(), alert)
		broker.dialErr = nil
		second := p.Publish(context.Background(), alert)

		// then
		assert.ErrorContains(t, first, "connection refused")
		assert.NoError(t, second)
		assert.Equal(t, 3, broker.dials)
	})

	t.Run("should not wrap unrelated publish errors in a reconnect", func(t *testing.T) {
		// given
		p, broker := newTestAmqpPublisher(t)
		broker.channels[0].publishErr = errors.New("no route")

		// when
		err := p.Publish(context.Background(), alert)

		// then
		assert.ErrorContains(t, err, "no route")
		assert.Equal(t, 1, broker.dials)
	})
}

func TestAmqpPublisher_Close(t *testing.T) {
	p, broker := newTestAmqpPublisher(t)

	require.NoError(t, p.Close())

	assert.True(t, broker.conns[0].closed)
	assert.True(t, broker.channels[0].closed)
}
