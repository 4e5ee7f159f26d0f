package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// MetricsListener — подписчик на изменения метрик стадии.
// Получает снапшот после каждой мутации.
type MetricsListener func(StageMetrics)

// StageExecutor выполняет одну стадию с retry, таймаутом и backoff.
//
// Executor ничего не знает о pipeline: он оборачивает любую Stage
// и отвечает только за цикл попыток и метрики этой стадии.
//
// Всего попыток: MaxRetries + 1. Перед каждой попыткой после первой —
// задержка backoffDelay. Каждая попытка при настроенном Timeout
// соревнуется с таймером: кто первый, тот и определяет исход попытки.
type StageExecutor struct {
	cfg    StageConfig
	logger *slog.Logger

	mu        sync.Mutex
	metrics   StageMetrics
	listeners map[int]MetricsListener
	nextToken int
}

// NewStageExecutor создаёт executor. Невалидная конфигурация —
// немедленная фатальная ошибка, не повод для retry.
func NewStageExecutor(cfg StageConfig, logger *slog.Logger) (*StageExecutor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &StageExecutor{
		cfg:       cfg,
		logger:    logger,
		listeners: make(map[int]MetricsListener),
	}, nil
}

// Subscribe регистрирует подписчика на метрики.
// Возвращает функцию отписки.
func (e *StageExecutor) Subscribe(l MetricsListener) func() {
	e.mu.Lock()
	defer e.mu.Unlock()

	token := e.nextToken
	e.nextToken++
	e.listeners[token] = l

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.listeners, token)
	}
}

// Metrics возвращает снапшот текущих метрик.
func (e *StageExecutor) Metrics() StageMetrics {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.metrics
}

// Execute выполняет стадию до успеха или исчерпания попыток.
//
// Возвращает финальный снапшот метрик и ошибку последней попытки,
// обёрнутую в StageError с ID стадии и ExecutionID запуска.
func (e *StageExecutor) Execute(ctx context.Context, stage Stage, pc *Context) (StageMetrics, error) {
	// Свежие метрики на каждую последовательность попыток
	e.mutate(func(m *StageMetrics) {
		*m = StageMetrics{
			StageID:   stage.ID(),
			Status:    StatusRunning,
			StartedAt: time.Now(),
		}
	})

	maxAttempts := e.cfg.MaxRetries + 1

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			delay := e.cfg.backoffDelay(attempt)

			e.logger.Debug("retrying stage",
				"stage_id", stage.ID(),
				"execution_id", pc.ExecutionID,
				"attempt", attempt,
				"delay", delay,
			)

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				e.finishError(ctx.Err())
				return e.Metrics(), NewStageError(KindStage, stage.ID(), pc.ExecutionID, attempt-1, ctx.Err())
			}

			e.mutate(func(m *StageMetrics) { m.Status = StatusRunning })
		}

		lastErr = e.runAttempt(ctx, stage, pc)
		if lastErr == nil {
			e.mutate(func(m *StageMetrics) {
				m.Status = StatusSuccess
				m.FinishedAt = time.Now()
				m.Duration = m.FinishedAt.Sub(m.StartedAt)
			})
			return e.Metrics(), nil
		}

		// Фиксируем упавшую попытку до возможного retry —
		// подписчики видят прогресс по ходу выполнения.
		e.mutate(func(m *StageMetrics) {
			m.RetryAttempts++
			if attempt < maxAttempts {
				m.Status = StatusRetrying
			}
		})

		e.logger.Warn("stage attempt failed",
			"stage_id", stage.ID(),
			"execution_id", pc.ExecutionID,
			"attempt", attempt,
			"error", lastErr,
		)
	}

	e.finishError(lastErr)
	return e.Metrics(), NewStageError(KindStage, stage.ID(), pc.ExecutionID, maxAttempts, lastErr)
}

// runAttempt выполняет одну попытку, при настроенном Timeout —
// гонку работы с таймером.
//
// Проигравшая гонку работа не останавливается принудительно: она может
// ещё выполняться в фоне, когда начнётся следующая попытка. Её поздний
// результат читается из буферизованного канала и отбрасывается с
// debug-логом — перезаписать метрики или результат он не может.
func (e *StageExecutor) runAttempt(ctx context.Context, stage Stage, pc *Context) error {
	if e.cfg.Timeout <= 0 {
		return stage.Run(ctx, pc)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	done := make(chan error, 1)
	started := time.Now()

	go func() {
		done <- stage.Run(attemptCtx, pc)
	}()

	select {
	case err := <-done:
		return err

	case <-attemptCtx.Done():
		// Отмена вызывающим — не таймаут
		if ctx.Err() != nil {
			return ctx.Err()
		}

		// Поздний результат отбрасываем
		go func() {
			err := <-done
			e.logger.Debug("discarding late stage completion",
				"stage_id", stage.ID(),
				"execution_id", pc.ExecutionID,
				"elapsed", time.Since(started),
				"error", err,
			)
		}()

		return fmt.Errorf("%w after %s", ErrAttemptTimeout, e.cfg.Timeout)
	}
}

// finishError переводит метрики в терминальный статус error.
func (e *StageExecutor) finishError(err error) {
	e.mutate(func(m *StageMetrics) {
		m.Status = StatusError
		m.Error = err.Error()
		m.FinishedAt = time.Now()
		m.Duration = m.FinishedAt.Sub(m.StartedAt)
	})
}

// mutate применяет изменение метрик атомарно и синхронно уведомляет
// подписчиков снапшотом.
func (e *StageExecutor) mutate(fn func(*StageMetrics)) {
	e.mu.Lock()
	fn(&e.metrics)
	snapshot := e.metrics
	listeners := make([]MetricsListener, 0, len(e.listeners))
	for _, l := range e.listeners {
		listeners = append(listeners, l)
	}
	e.mu.Unlock()

	for _, l := range listeners {
		l(snapshot)
	}
}
