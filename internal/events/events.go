// Package events publishes order lifecycle events.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"globomart/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// Event types.
const (
	TypeOrderCreated       = "order.created"
	TypeOrderStatusChanged = "order.status_changed"
)

// OrderEvent is the message body written for every order change.
type OrderEvent struct {
	EventID       string            `json:"event_id"`
	Type          string            `json:"type"`
	OrderID       string            `json:"order_id"`
	UserID        string            `json:"user_id"`
	Status        model.OrderStatus `json:"status"`
	PaymentMethod string            `json:"payment_method"`
	TotalAmount   float64           `json:"total_amount"`
	Timestamp     time.Time         `json:"timestamp"`
}

// NewOrderEvent builds an event of the given type from order.
func NewOrderEvent(eventType string, order *model.Order) OrderEvent {
	return OrderEvent{
		EventID:       uuid.NewString(),
		Type:          eventType,
		OrderID:       order.ID.String(),
		UserID:        order.UserID.String(),
		Status:        order.OrderStatus,
		PaymentMethod: order.PaymentMethod,
		TotalAmount:   order.TotalAmount,
		Timestamp:     time.Now().UTC(),
	}
}

// Publisher delivers order events.
type Publisher interface {
	PublishOrderEvent(ctx context.Context, event OrderEvent) error
	Close() error
}

// MessageWriter is the subset of kafka.Writer used by the publisher.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// kafkaPublisher writes events keyed by order id, so one order's events stay in one partition.
type kafkaPublisher struct {
	writer  MessageWriter
	timeout time.Duration
	logger  zerolog.Logger
}

// NewKafkaPublisher creates a publisher writing to topic.
func NewKafkaPublisher(brokers []string, topic string, logger zerolog.Logger) Publisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}

	logger.Info().Strs("brokers", brokers).Str("topic", topic).Msg("kafka order event publisher initialised")

	return NewPublisherWithWriter(writer, logger)
}

// NewPublisherWithWriter creates a publisher over an existing writer.
func NewPublisherWithWriter(writer MessageWriter, logger zerolog.Logger) Publisher {
	return &kafkaPublisher{
		writer:  writer,
		timeout: 10 * time.Second,
		logger:  logger.With().Str("component", "order-events").Logger(),
	}
}

// PublishOrderEvent writes the event synchronously.
func (p *kafkaPublisher) PublishOrderEvent(ctx context.Context, event OrderEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.OrderID),
		Value: body,
	})
	if err != nil {
		p.logger.Error().
			Err(err).
			Str("event_id", event.EventID).
			Str("order_id", event.OrderID).
			Msg("failed to publish order event")
		return fmt.Errorf("failed to publish order event: %w", err)
	}

	p.logger.Info().
		Str("event_id", event.EventID).
		Str("type", event.Type).
		Str("order_id", event.OrderID).
		Msg("order event published")

	return nil
}

func (p *kafkaPublisher) Close() error {
	return p.writer.Close()
}

// nopPublisher drops events. Used when Kafka is disabled.
type nopPublisher struct {
	logger zerolog.Logger
}

// NewNopPublisher creates a publisher that only logs.
func NewNopPublisher(logger zerolog.Logger) Publisher {
	return &nopPublisher{logger: logger.With().Str("component", "order-events").Logger()}
}

func (p *nopPublisher) PublishOrderEvent(_ context.Context, event OrderEvent) error {
	p.logger.Debug().Str("type", event.Type).Str("order_id", event.OrderID).Msg("order event dropped, publisher disabled")
	return nil
}

func (p *nopPublisher) Close() error { return nil }
