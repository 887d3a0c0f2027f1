// Package mailer queues outgoing email on a message broker for a delivery worker.
package mailer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// Message is one outgoing email.
type Message struct {
	To      string `json:"to"`
	From    string `json:"from"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Mailer sends email.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
	Close() error
}

// ResetPasswordMessage builds the password recovery email.
func ResetPasswordMessage(to, name, resetURL string) Message {
	return Message{
		To:      to,
		Subject: "GloboMart Password Recovery",
		Body: fmt.Sprintf(
			"Hi %s,\n\nYou have requested to reset your password. Open the link below to choose a new one:\n\n%s\n\n"+
				"If you did not request this, you can ignore this email.\n\nThe GloboMart team",
			name, resetURL,
		),
	}
}

// Channel is the subset of *amqp.Channel used by the mailer.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// amqpMailer publishes messages to a durable queue.
type amqpMailer struct {
	conn   *amqp.Connection
	ch     Channel
	queue  string
	from   string
	logger zerolog.Logger
}

// NewAMQPMailer dials the broker and declares the outbox queue.
func NewAMQPMailer(url, queue, from string, logger zerolog.Logger) (Mailer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to AMQP broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open AMQP channel: %w", err)
	}

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}

	logger.Info().Str("queue", queue).Msg("AMQP mail outbox initialised")

	m := newChannelMailer(ch, queue, from, logger)
	m.conn = conn
	return m, nil
}

// NewChannelMailer creates a mailer over an already open channel.
func NewChannelMailer(ch Channel, queue, from string, logger zerolog.Logger) Mailer {
	return newChannelMailer(ch, queue, from, logger)
}

func newChannelMailer(ch Channel, queue, from string, logger zerolog.Logger) *amqpMailer {
	return &amqpMailer{
		ch:     ch,
		queue:  queue,
		from:   from,
		logger: logger.With().Str("component", "mail-outbox").Logger(),
	}
}

// Send publishes the message as a persistent JSON delivery.
func (m *amqpMailer) Send(ctx context.Context, msg Message) error {
	if msg.From == "" {
		msg.From = m.from
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal mail message: %w", err)
	}

	err = m.ch.PublishWithContext(ctx, "", m.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		m.logger.Error().Err(err).Str("queue", m.queue).Msg("failed to publish mail message")
		return fmt.Errorf("failed to publish mail message: %w", err)
	}

	m.logger.Info().Str("queue", m.queue).Str("subject", msg.Subject).Msg("mail message queued")
	return nil
}

func (m *amqpMailer) Close() error {
	if err := m.ch.Close(); err != nil {
		return err
	}
	if m.conn != nil {
		return m.conn.Close()
	}
	return nil
}

// logMailer writes messages to the log instead of sending them. Used when mail is disabled.
type logMailer struct {
	logger zerolog.Logger
}

// NewLogMailer creates a mailer that only logs.
func NewLogMailer(logger zerolog.Logger) Mailer {
	return &logMailer{logger: logger.With().Str("component", "mail-outbox").Logger()}
}

func (m *logMailer) Send(_ context.Context, msg Message) error {
	m.logger.Info().Str("to", msg.To).Str("subject", msg.Subject).Str("body", msg.Body).Msg("mail disabled, message logged")
	return nil
}

func (m *logMailer) Close() error { return nil }
