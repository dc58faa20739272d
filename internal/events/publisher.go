package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"inspectai/internal/domain"
)

const recordCreatedKey = "inspection.record.created"

// Publisher emits domain events for downstream consumers (reporting,
// notifications). Failures are the caller's to log; record creation never
// depends on a successful publish.
type Publisher interface {
	RecordCreated(ctx context.Context, record domain.InspectionRecord) error
	Close() error
}

// NoopPublisher drops all events; used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) RecordCreated(context.Context, domain.InspectionRecord) error { return nil }
func (NoopPublisher) Close() error                                                 { return nil }

// AMQPPublisher publishes events to a RabbitMQ topic exchange.
type AMQPPublisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

// NewAMQPPublisher dials the broker and declares the exchange.
func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := channel.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &AMQPPublisher{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
	}, nil
}

type recordCreatedEvent struct {
	RecordID  string    `json:"recordId"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// RecordCreated publishes a persistent record-created event.
func (p *AMQPPublisher) RecordCreated(ctx context.Context, record domain.InspectionRecord) error {
	body, err := json.Marshal(recordCreatedEvent{
		RecordID:  record.ID,
		UserID:    record.UserID,
		CreatedAt: record.CreatedAt,
	})
	if err != nil {
		return err
	}
	err = p.channel.PublishWithContext(ctx, p.exchange, recordCreatedKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish record created: %w", err)
	}
	return nil
}

// Close shuts down the channel and connection.
func (p *AMQPPublisher) Close() error {
	if err := p.channel.Close(); err != nil {
		p.conn.Close()
		return err
	}
	return p.conn.Close()
}
