// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Структура:
//   - connection.go — управление соединением с RabbitMQ (reconnect, graceful shutdown)
//   - topology.go   — объявление exchanges, queues, bindings
//   - publisher.go  — публикация событий в очереди
//   - consumer.go   — потребление с диспетчеризацией по типу события
//
// Типы событий:
//   - message.received   — входящее финансовое сообщение
//   - submission.status  — смена статуса отправки в расчётную сеть
//
// Exchanges:
//   - clearway.messages     — входящие сообщения
//   - clearway.submissions  — события статусов отправок
//   - clearway.dlq          — dead letter queue
package mq
