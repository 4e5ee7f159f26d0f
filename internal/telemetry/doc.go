// Package telemetry содержит наблюдаемость: structured logging и метрики.
//
// Включает:
//   - logging.go — настройка slog (LOG_LEVEL, LOG_FORMAT), контекстные логгеры
//   - metrics.go — prometheus-коллекторы стадий и отправок
//
// Telemetry не входит в контракт корректности pipeline — только observability.
package telemetry
