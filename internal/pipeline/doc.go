// Package pipeline содержит движок выполнения стадий.
//
// Включает:
//   - stage.go    — контракт стадии (capability-интерфейс) и конфигурация
//   - executor.go — выполнение одной стадии (retry, timeout, backoff, метрики)
//   - runner.go   — последовательное выполнение набора стадий с учётом зависимостей
//   - metrics.go  — метрики стадии и pipeline, снапшоты для подписчиков
//   - errors.go   — ошибки стадий с дискриминантом Kind
//
// Движок не знает о предметной области: валидация, трансформация и
// обработка сообщений строятся поверх него как специализации.
package pipeline
