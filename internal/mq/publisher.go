package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shaiso/Clearway/internal/domain"
)

// EventType — тип события в очереди.
type EventType string

// Типы событий.
const (
	EventMessageReceived  EventType = "message.received"
	EventSubmissionStatus EventType = "submission.status"
)

// Publisher публикует события в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// Event — событие для публикации.
type Event struct {
	// ID — уникальный идентификатор события.
	ID string `json:"id"`

	// Type — тип события.
	Type EventType `json:"type"`

	// Payload — полезная нагрузка.
	Payload any `json:"payload"`

	// Timestamp — время создания.
	Timestamp time.Time `json:"timestamp"`
}

// MessageReceivedPayload — payload события о входящем сообщении.
// Payload несёт сырой XML: gateway обрабатывает сообщение целиком,
// не обращаясь к отправителю повторно.
type MessageReceivedPayload struct {
	MessageID   uuid.UUID `json:"message_id"`
	MessageType string    `json:"message_type"`
	Payload     []byte    `json:"payload"`
	ReceivedAt  time.Time `json:"received_at"`
}

// SubmissionStatusPayload — payload события о смене статуса отправки.
type SubmissionStatusPayload struct {
	SubmissionID    uuid.UUID               `json:"submission_id"`
	MessageID       string                  `json:"message_id"`
	TransactionHash string                  `json:"transaction_hash"`
	Status          domain.SubmissionStatus `json:"status"`
	RetryCount      int                     `json:"retry_count"`
	Fees            int64                   `json:"fees"`
	Error           string                  `json:"error,omitempty"`
}

// Publish публикует событие в указанный exchange с routing key.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, event *Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(
			ctx,
			string(exchange),   // exchange
			string(routingKey), // routing key
			false,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent, // событие переживёт рестарт RabbitMQ
				MessageId:    event.ID,
				Timestamp:    event.Timestamp,
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
		}

		p.logger.Debug("published event",
			"exchange", exchange,
			"routing_key", routingKey,
			"event_id", event.ID,
			"type", event.Type,
		)

		return nil
	})
}

// PublishMessageReceived публикует событие о входящем сообщении.
// Потребитель: Gateway.
func (p *Publisher) PublishMessageReceived(ctx context.Context, msg *domain.RawMessage) error {
	event := &Event{
		ID:   uuid.New().String(),
		Type: EventMessageReceived,
		Payload: MessageReceivedPayload{
			MessageID:   msg.ID,
			MessageType: msg.MessageType,
			Payload:     msg.Payload,
			ReceivedAt:  msg.ReceivedAt,
		},
		Timestamp: time.Now(),
	}

	return p.Publish(ctx, ExchangeMessages, RoutingKeyReceived, event)
}

// PublishSubmissionStatus публикует событие о смене статуса отправки.
// Потребители: внешние системы учёта.
func (p *Publisher) PublishSubmissionStatus(ctx context.Context, sub *domain.SubmissionRecord) error {
	event := &Event{
		ID:   uuid.New().String(),
		Type: EventSubmissionStatus,
		Payload: SubmissionStatusPayload{
			SubmissionID:    sub.ID,
			MessageID:       sub.MessageID,
			TransactionHash: sub.TransactionHash,
			Status:          sub.Status,
			RetryCount:      sub.RetryCount,
			Fees:            sub.Fees,
			Error:           sub.Error,
		},
		Timestamp: time.Now(),
	}

	return p.Publish(ctx, ExchangeSubmissions, RoutingKeyStatus, event)
}
