package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/budgetmate/budgetmate/internal/config"
	amqp "github.com/rabbitmq/amqp091-go"
	log "github.com/sirupsen/logrus"
)

const publishTimeout = 5 * time.Second

type amqpConnection interface {
	IsClosed() bool
	Close() error
}

type amqpChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	IsClosed() bool
	Close() error
}

type amqpDialer func(url string) (amqpConnection, amqpChannel, error)

// AmqpPublisher sends alerts as persistent JSON messages to a durable direct exchange.
// The queue name doubles as routing key. A lost connection is re-dialed on the next publish.
type AmqpPublisher struct {
	mu           sync.Mutex
	dial         amqpDialer
	url          string
	conn         amqpConnection
	channel      amqpChannel
	exchangeName string
	queueName    string
}

func NewAmqpPublisher(cfg config.Amqp) (*AmqpPublisher, error) {
	p := newAmqpPublisher(cfg, dialAmqp)
	if err := p.connect(); err != nil {
		return nil, err
	}
	log.Infof("Publishing budget alerts to exchange %s (queue %s)", cfg.Exchange, cfg.Queue)
	return p, nil
}

func newAmqpPublisher(cfg config.Amqp, dial amqpDialer) *AmqpPublisher {
	return &AmqpPublisher{
		dial:         dial,
		url:          cfg.Url,
		exchangeName: cfg.Exchange,
		queueName:    cfg.Queue,
	}
}

func dialAmqp(url string) (amqpConnection, amqpChannel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("dial AMQP: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}

	closed := conn.NotifyClose(make(chan *amqp.Error, 1))
	go func() {
		if amqpErr, ok := <-closed; ok && amqpErr != nil {
			log.Warnf("AMQP connection closed, reconnecting on next alert: %v", amqpErr)
		}
	}()
	return conn, channel, nil
}

// connect dials and declares the topology. The caller holds mu or owns p exclusively.
func (p *AmqpPublisher) connect() error {
	conn, channel, err := p.dial(p.url)
	if err != nil {
		return err
	}
	p.conn, p.channel = conn, channel
	if err := p.setup(); err != nil {
		p.drop()
		return fmt.Errorf("setup exchange and queue: %w", err)
	}
	return nil
}

func (p *AmqpPublisher) connected() bool {
	return p.conn != nil && !p.conn.IsClosed() && p.channel != nil && !p.channel.IsClosed()
}

func (p *AmqpPublisher) drop() {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.conn, p.channel = nil, nil
}

func (p *AmqpPublisher) setup() error {
	err := p.channel.ExchangeDeclare(
		p.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = p.channel.QueueDeclare(
		p.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	err = p.channel.QueueBind(p.queueName, p.queueName, p.exchangeName, false, nil)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

func (p *AmqpPublisher) Publish(ctx context.Context, alert Alert) error {
	body, err := alert.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    alert.Timestamp,
		Type:         string(alert.Kind),
		Body:         body,
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.connected() {
		p.drop()
		if err := p.connect(); err != nil {
			return fmt.Errorf("reconnect: %w", err)
		}
	}

	err = p.publish(ctx, msg)
	if errors.Is(err, amqp.ErrClosed) {
		log.Warn("AMQP channel closed while publishing, reconnecting")
		p.drop()
		if err := p.connect(); err != nil {
			return fmt.Errorf("reconnect: %w", err)
		}
		err = p.publish(ctx, msg)
	}
	if err != nil {
		return fmt.Errorf("publish alert: %w", err)
	}
	log.Debugf("Published %s alert for category %d", alert.Kind, alert.CategoryId)
	return nil
}

func (p *AmqpPublisher) publish(ctx context.Context, msg amqp.Publishing) error {
	return p.channel.PublishWithContext(
		ctx,
		p.exchangeName, // exchange
		p.queueName,    // routing key
		false,          // mandatory
		false,          // immediate
		msg,
	)
}

func (p *AmqpPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var err error
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		err = p.conn.Close()
	}
	p.conn, p.channel = nil, nil
	return err
}
