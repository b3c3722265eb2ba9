package service

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/theater-tickets/internal/logging"
	"github.com/iliyamo/theater-tickets/internal/queue"
)

// EventPublisher announces ticket state changes.  Publishing is best
// effort: callers log a failure and carry on.
type EventPublisher interface {
	TicketVerified(ctx context.Context, ev queue.TicketVerifiedEvent) error
	TicketCancelled(ctx context.Context, ev queue.TicketCancelledEvent) error
}

// AMQPPublisher publishes events to durable RabbitMQ queues.  A connection
// is dialled per message; ticket events are rare enough that pooling is
// not worth the reconnect handling.
type AMQPPublisher struct {
	url string
}

func NewAMQPPublisher(url string) *AMQPPublisher {
	return &AMQPPublisher{url: url}
}

func (p *AMQPPublisher) TicketVerified(ctx context.Context, ev queue.TicketVerifiedEvent) error {
	return p.publish(ctx, queue.TicketVerifiedQueue, ev)
}

func (p *AMQPPublisher) TicketCancelled(ctx context.Context, ev queue.TicketCancelledEvent) error {
	return p.publish(ctx, queue.TicketCancelledQueue, ev)
}

// publish marshals event and sends it to the named queue through the
// default exchange.  Messages are marked persistent.
func (p *AMQPPublisher) publish(ctx context.Context, name string, event any) error {
	log := logging.FromContext(ctx).WithField("queue", name)

	conn, err := amqp.Dial(p.url)
	if err != nil {
		log.WithError(err).Warn("rabbitmq: dial failed")
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.WithError(err).Warn("rabbitmq: channel open failed")
		return err
	}
	defer func() { _ = ch.Close() }()

	// Idempotent; durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
		log.WithError(err).Warn("rabbitmq: queue declare failed")
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", name, false, false, pub); err != nil {
		log.WithError(err).Warn("rabbitmq: publish failed")
		return err
	}
	return nil
}

// NopPublisher drops every event.  It is used when no broker is
// configured.
type NopPublisher struct{}

func (NopPublisher) TicketVerified(context.Context, queue.TicketVerifiedEvent) error   { return nil }
func (NopPublisher) TicketCancelled(context.Context, queue.TicketCancelledEvent) error { return nil }
