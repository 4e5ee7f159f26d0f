package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// Exchanges — имена обменников.
const (
	ExchangeMessages    Exchange = "clearway.messages"
	ExchangeSubmissions Exchange = "clearway.submissions"
	ExchangeDLQ         Exchange = "clearway.dlq"
)

// Queues — имена очередей.
const (
	QueueMessagesReceived  Queue = "messages.received"
	QueueSubmissionsStatus Queue = "submissions.status"
	QueueDLQMessages       Queue = "dlq.messages"
)

// Routing keys.
const (
	RoutingKeyReceived    RoutingKey = "received"
	RoutingKeyStatus      RoutingKey = "status"
	RoutingKeyDLQMessages RoutingKey = "messages"
)

func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		// 1. Создаём exchanges
		if err := declareExchanges(ch); err != nil {
			return err
		}

		// 2. Создаём queues
		if err := declareQueues(ch); err != nil {
			return err
		}

		// 3. Привязываем queues к exchanges
		if err := bindQueues(ch); err != nil {
			return err
		}

		return nil
	})
}

// declareExchanges создаёт обменники.
func declareExchanges(ch *amqp.Channel) error {
	exchanges := []struct {
		name Exchange
		kind string
	}{
		{ExchangeMessages, "direct"},
		{ExchangeSubmissions, "direct"},
		{ExchangeDLQ, "direct"},
	}

	for _, ex := range exchanges {
		err := ch.ExchangeDeclare(
			string(ex.name), // name
			ex.kind,         // type
			true,            // durable
			false,           // auto-deleted
			false,           // internal
			false,           // no-wait
			nil,             // arguments
		)
		if err != nil {
			return fmt.Errorf("declare exchange %s: %w", ex.name, err)
		}
	}

	return nil
}

// declareQueues создаёт очереди.
func declareQueues(ch *amqp.Channel) error {
	// Аргументы для очередей с DLQ
	dlqArgs := amqp.Table{
		"x-dead-letter-exchange":    string(ExchangeDLQ),
		"x-dead-letter-routing-key": string(RoutingKeyDLQMessages),
	}

	queues := []struct {
		name Queue
		args amqp.Table
	}{
		// messages.received — с DLQ: сообщение после неудачных retry
		// уходит на ручной разбор, платёжные данные не теряются
		{QueueMessagesReceived, dlqArgs},

		// submissions.status — без DLQ (события статусов, истина в БД)
		{QueueSubmissionsStatus, nil},

		// dlq.messages — сама DLQ очередь
		{QueueDLQMessages, nil},
	}

	for _, q := range queues {
		_, err := ch.QueueDeclare(
			string(q.name), // name
			true,           // durable
			false,          // delete when unused
			false,          // exclusive
			false,          // no-wait
			q.args,         // arguments
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", q.name, err)
		}
	}

	return nil
}

// bindQueues привязывает очереди к обменникам.
func bindQueues(ch *amqp.Channel) error {
	bindings := []struct {
		queue      Queue
		routingKey RoutingKey
		exchange   Exchange
	}{
		{QueueMessagesReceived, RoutingKeyReceived, ExchangeMessages},
		{QueueSubmissionsStatus, RoutingKeyStatus, ExchangeSubmissions},
		{QueueDLQMessages, RoutingKeyDLQMessages, ExchangeDLQ},
	}

	for _, b := range bindings {
		err := ch.QueueBind(
			string(b.queue),      // queue name
			string(b.routingKey), // routing key
			string(b.exchange),   // exchange
			false,                // no-wait
			nil,                  // arguments
		)
		if err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
		}
	}

	return nil
}

// TopologyInfo возвращает описание топологии для логирования.
func TopologyInfo() string {
	return `
  Clearway RabbitMQ Topology:

    clearway.messages (direct)
    └── messages.received [routing: received]
            Consumer: Gateway
            DLQ: dlq.messages

    clearway.submissions (direct)
    └── submissions.status [routing: status]
            Consumer: downstream systems

    clearway.dlq (direct)
    └── dlq.messages [routing: messages]
            Manual processing
  `
}
