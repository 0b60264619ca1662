// Package service holds adapters that push domain events to the message
// broker.  Failures are logged and returned so callers may ignore them
// without interrupting the request flow.
package service

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	q "github.com/iliyamo/tour-seat-planner/internal/queue"
)

// Publisher publishes seat confirmations to RabbitMQ.  A connection is
// opened per message; confirmations are rare compared to other traffic.
type Publisher struct {
	url    string
	logger *zap.Logger
}

// NewPublisher returns a Publisher for the broker at url.
func NewPublisher(url string, logger *zap.Logger) *Publisher {
	return &Publisher{url: url, logger: logger.Named("publisher")}
}

// PublishSeatsConfirmed sends event to the seats.confirmed queue as a
// persistent JSON message.
func (p *Publisher) PublishSeatsConfirmed(ctx context.Context, event q.SeatsConfirmedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("marshal event failed", zap.Error(err))
		return err
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.logger.Warn("dial failed", zap.Error(err))
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.logger.Warn("channel open failed", zap.Error(err))
		return err
	}
	defer func() { _ = ch.Close() }()

	// durable, so messages survive broker restarts
	if _, err := ch.QueueDeclare(q.SeatsQueueName, true, false, false, false, nil); err != nil {
		p.logger.Warn("queue declare failed", zap.Error(err))
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		MessageId:    event.SessionID,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", q.SeatsQueueName, false, false, pub); err != nil {
		p.logger.Warn("publish failed", zap.Error(err), zap.String("session_id", event.SessionID))
		return err
	}
	return nil
}
