package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/Clearway/internal/telemetry"
)

// Handler — обработчик события одного типа.
// Возвращённая ошибка отправляет событие на повтор; повторный провал
// той же доставки уводит её в DLQ.
type Handler func(ctx context.Context, event *Event) error

// Исходы обработки доставки для метрик.
const (
	outcomeAck     = "ack"
	outcomeRequeue = "requeue"
	outcomeDLQ     = "dlq"
)

// Consumer потребляет события из очереди RabbitMQ и диспетчеризует
// их по типу события.
//
// Маршрутизация: каждому EventType соответствует зарегистрированный
// через On обработчик. Событие без обработчика и событие с нечитаемым
// конвертом уходят в DLQ сразу — повтор их не исправит.
type Consumer struct {
	conn     *Connection
	logger   *slog.Logger
	queue    Queue
	prefetch int

	mu       sync.RWMutex
	handlers map[EventType]Handler

	cancelFunc context.CancelFunc
}

// ConsumerConfig — конфигурация consumer.
type ConsumerConfig struct {
	// Queue — имя очереди.
	Queue Queue

	// Prefetch — количество событий для предварительной загрузки.
	Prefetch int
}

// NewConsumer создаёт Consumer без обработчиков.
// Обработчики регистрируются через On до вызова Start.
func NewConsumer(conn *Connection, logger *slog.Logger, cfg ConsumerConfig) *Consumer {
	prefetch := cfg.Prefetch
	if prefetch <= 0 {
		prefetch = 1
	}

	return &Consumer{
		conn:     conn,
		logger:   logger,
		queue:    cfg.Queue,
		prefetch: prefetch,
		handlers: make(map[EventType]Handler),
	}
}

// On регистрирует обработчик для типа события.
// Повторная регистрация того же типа заменяет обработчик.
func (c *Consumer) On(eventType EventType, h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[eventType] = h
}

// Start запускает потребление. Блокирует до отмены контекста;
// разрывы соединения переживаются через reconnect.
func (c *Consumer) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	c.cancelFunc = cancel

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		deliveries, err := c.openStream()
		if err != nil {
			c.logger.Error("failed to open consume stream", "queue", c.queue, "error", err)
			if err := c.awaitReconnect(ctx); err != nil {
				return err
			}
			continue
		}

		c.logger.Info("consumer started", "queue", c.queue)

		if err := c.drain(ctx, deliveries); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Warn("deliveries channel closed, reconnecting", "queue", c.queue)
			if err := c.awaitReconnect(ctx); err != nil {
				return err
			}
		}
	}
}

// Stop останавливает consumer.
func (c *Consumer) Stop() {
	if c.cancelFunc != nil {
		c.cancelFunc()
	}
}

// openStream настраивает канал и начинает потребление.
func (c *Consumer) openStream() (<-chan amqp.Delivery, error) {
	ch := c.conn.Channel()
	if ch == nil {
		return nil, fmt.Errorf("no channel available")
	}

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return nil, fmt.Errorf("set qos: %w", err)
	}

	deliveries, err := ch.Consume(
		string(c.queue), // queue
		"",              // consumer tag (auto-generated)
		false,           // auto-ack (ack вручную после обработки)
		false,           // exclusive
		false,           // no-local
		false,           // no-wait
		nil,             // args
	)
	if err != nil {
		return nil, fmt.Errorf("consume: %w", err)
	}

	return deliveries, nil
}

// awaitReconnect ждёт восстановления соединения или отмены контекста.
func (c *Consumer) awaitReconnect(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.conn.ReconnectNotify():
		c.logger.Info("reconnected, restarting consumer", "queue", c.queue)
		return nil
	}
}

// drain обрабатывает доставки до закрытия канала или отмены контекста.
func (c *Consumer) drain(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case raw, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("deliveries channel closed")
			}

			outcome := c.settle(ctx, raw)
			telemetry.ObserveEventConsumed(string(c.queue), eventTypeLabel(raw.Body), outcome)
		}
	}
}

// settle обрабатывает одну доставку и возвращает её исход.
//
// Нечитаемый конверт и событие без обработчика — в DLQ: повтор их не
// исправит. Ошибка обработчика на первой доставке — requeue; та же
// доставка, провалившаяся повторно, — в DLQ, чтобы битое событие не
// крутилось в очереди бесконечно.
func (c *Consumer) settle(ctx context.Context, raw amqp.Delivery) string {
	var event Event
	if err := json.Unmarshal(raw.Body, &event); err != nil {
		c.logger.Error("failed to unmarshal event",
			"queue", c.queue,
			"error", err,
			"body", string(raw.Body),
		)
		raw.Nack(false, false)
		return outcomeDLQ
	}

	c.mu.RLock()
	handler, ok := c.handlers[event.Type]
	c.mu.RUnlock()

	if !ok {
		c.logger.Error("no handler for event type",
			"queue", c.queue,
			"event_id", event.ID,
			"type", event.Type,
		)
		raw.Nack(false, false)
		return outcomeDLQ
	}

	c.logger.Debug("received event",
		"queue", c.queue,
		"event_id", event.ID,
		"type", event.Type,
	)

	if err := handler(ctx, &event); err != nil {
		c.logger.Error("handler failed",
			"queue", c.queue,
			"event_id", event.ID,
			"type", event.Type,
			"redelivered", raw.Redelivered,
			"error", err,
		)

		if raw.Redelivered {
			raw.Nack(false, false)
			return outcomeDLQ
		}
		raw.Nack(false, true)
		return outcomeRequeue
	}

	raw.Ack(false)
	return outcomeAck
}

// eventTypeLabel извлекает тип события для метрики, не доверяя
// остальному содержимому конверта.
func eventTypeLabel(body []byte) string {
	var envelope struct {
		Type EventType `json:"type"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Type == "" {
		return "unknown"
	}
	return string(envelope.Type)
}

// ParsePayload парсит payload события в указанный тип.
func ParsePayload[T any](event *Event) (T, error) {
	var result T

	// Payload после доставки — map из JSON-декодера, не исходная структура
	payloadBytes, err := json.Marshal(event.Payload)
	if err != nil {
		return result, fmt.Errorf("marshal payload: %w", err)
	}

	if err := json.Unmarshal(payloadBytes, &result); err != nil {
		return result, fmt.Errorf("unmarshal payload: %w", err)
	}

	return result, nil
}
