package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	log "github.com/sirupsen/logrus"
)

// Consumer listens on the ticket queues and appends one line per event to
// an audit log file.
type Consumer struct {
	url     string
	logPath string
}

// NewConsumer returns a consumer for the broker at url writing to logPath.
func NewConsumer(url, logPath string) *Consumer {
	if logPath == "" {
		logPath = filepath.Join("logs", "tickets.log")
	}
	return &Consumer{url: url, logPath: logPath}
}

// Run connects to RabbitMQ, declares both durable queues and consumes
// until ctx is cancelled.  A lost connection is redialled with
// exponential backoff capped at 30s.  Messages that cannot be handled are
// rejected without requeue so a bad payload cannot loop.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			log.WithError(err).Warnf("ticket-consumer: dial failed; retrying in %s", backoff)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoff):
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return nil
		}
		log.WithError(err).Warn("ticket-consumer: consume loop ended; reconnecting")
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(2 * time.Second):
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.WithError(err).Warn("ticket-consumer: set QoS failed")
	}

	verified, err := declareAndConsume(ch, TicketVerifiedQueue)
	if err != nil {
		return err
	}
	cancelled, err := declareAndConsume(ch, TicketCancelledQueue)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-verified:
			if !ok {
				return errors.New("verified deliveries channel closed")
			}
			c.ack(d, TicketVerifiedQueue)
		case d, ok := <-cancelled:
			if !ok {
				return errors.New("cancelled deliveries channel closed")
			}
			c.ack(d, TicketCancelledQueue)
		}
	}
}

func declareAndConsume(ch *amqp.Channel, queue string) (<-chan amqp.Delivery, error) {
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("queue declare %s: %w", queue, err)
	}
	msgs, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("queue consume %s: %w", queue, err)
	}
	return msgs, nil
}

func (c *Consumer) ack(d amqp.Delivery, queue string) {
	if err := c.Handle(queue, d.Body); err != nil {
		log.WithError(err).WithField("queue", queue).Error("ticket-consumer: handle message failed")
		_ = d.Nack(false, false)
		return
	}
	_ = d.Ack(false)
}

// Handle decodes one message from queue and appends it to the audit log.
func (c *Consumer) Handle(queue string, body []byte) error {
	line, err := FormatLine(queue, body)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(c.logPath), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(c.logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// FormatLine renders an event as a single audit log line.
func FormatLine(queue string, body []byte) (string, error) {
	switch queue {
	case TicketVerifiedQueue:
		var ev TicketVerifiedEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal: %w", err)
		}
		bundle := ev.Bundle
		if bundle == "" {
			bundle = "none"
		}
		return fmt.Sprintf("[%s] Ticket verified | ticket_id=%s | user_id=%s | screen_id=%s | movie=%s | room=%q | date=%s %s | bundle=%s | total=%d cents | seats=[%s]\n",
			ev.VerifiedAt, ev.TicketID, ev.UserID, ev.ScreenID, ev.ImdbID, ev.RoomName,
			ev.Date, ev.Showtime, bundle, ev.TotalCents, strings.Join(ev.SeatLabels, ",")), nil
	case TicketCancelledQueue:
		var ev TicketCancelledEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal: %w", err)
		}
		return fmt.Sprintf("[%s] Ticket cancelled | ticket_id=%s | user_id=%s | reason=%s\n",
			ev.CancelledAt, ev.TicketID, ev.UserID, ev.Reason), nil
	}
	return "", fmt.Errorf("unknown queue %q", queue)
}
