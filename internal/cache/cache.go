// Package cache содержит key-value кэш с TTL.
//
// Используется для кэширования разобранных определений схем сообщений
// (ключи вида "schema:<messageType>"). Реализации: Redis для production,
// in-memory для тестов и работы без Redis.
package cache

import (
	"context"
	"time"
)

// Provider — контракт key-value кэша с TTL.
//
// Кэш — разделяемый, внешний по отношению к pipeline сервис:
// реализации обязаны быть безопасны при конкурентном доступе.
type Provider interface {
	// Get возвращает значение по ключу. ok == false — ключ отсутствует
	// или истёк; это не ошибка.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Set сохраняет значение с TTL. ttl == 0 — без истечения.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Del удаляет ключ. Отсутствующий ключ — не ошибка.
	Del(ctx context.Context, key string) error
}

// SchemaKey возвращает ключ кэша для схемы типа сообщения.
func SchemaKey(messageType string) string {
	return "schema:" + messageType
}
