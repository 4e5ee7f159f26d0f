package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shaiso/Clearway/internal/telemetry"
)

// Listener — подписчик на метрики pipeline.
// Получает снапшот после каждой мутации метрик любой стадии.
type Listener func(Metrics)

// Runner последовательно выполняет набор стадий с учётом зависимостей.
//
// Порядок: стадия не стартует, пока все её Dependencies не завершились
// успешно; среди готовых стадий порядок определяет Order() по
// возрастанию (при равенстве — ID). Это детерминированная
// топологическая сортировка, не параллельный планировщик: внутри
// одного запуска стадии выполняются строго по одной.
//
// Fail-fast: первая стадия, исчерпавшая retry, прерывает оставшуюся
// последовательность; незапущенные стадии остаются pending.
type Runner struct {
	name     string
	defaults StageConfig
	logger   *slog.Logger

	mu        sync.Mutex
	stages    map[string]Stage
	last      *execution
	listeners map[int]Listener
	nextToken int
}

// execution — метрики одного запуска. Каждый Execute владеет своим
// экземпляром: параллельные запуски не видят чужих записей и не
// затирают друг друга при старте нового запуска.
type execution struct {
	mu      sync.Mutex
	metrics Metrics
}

func (e *execution) snapshot() Metrics {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.metrics.snapshot()
}

// NewRunner создаёт Runner с конфигурацией стадий по умолчанию.
// Невалидная конфигурация — немедленная ошибка.
func NewRunner(name string, defaults StageConfig, logger *slog.Logger) (*Runner, error) {
	if err := defaults.Validate(); err != nil {
		return nil, fmt.Errorf("pipeline %s: %w", name, err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Runner{
		name:      name,
		defaults:  defaults,
		logger:    logger.With("pipeline", name),
		stages:    make(map[string]Stage),
		listeners: make(map[int]Listener),
	}, nil
}

// Name возвращает имя pipeline.
func (r *Runner) Name() string {
	return r.name
}

// AddStage регистрирует стадию.
//
// Структурные ошибки обнаруживаются при регистрации: пустой ID,
// дубликат ID и зависимость от самой себя отклоняются сразу.
// Повторная зависимость от одной и той же стадии схлопывается в одну.
func (r *Runner) AddStage(stage Stage) error {
	if stage.ID() == "" {
		return ErrEmptyStageID
	}

	for _, dep := range stage.Dependencies() {
		if dep == stage.ID() {
			return fmt.Errorf("%w: %s", ErrSelfDependency, stage.ID())
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.stages[stage.ID()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateStageID, stage.ID())
	}

	r.stages[stage.ID()] = stage
	return nil
}

// RemoveStage удаляет стадию. Отсутствующая стадия — ошибка.
func (r *Runner) RemoveStage(stageID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.stages[stageID]; !exists {
		return fmt.Errorf("%w: %s", ErrStageNotFound, stageID)
	}

	delete(r.stages, stageID)
	return nil
}

// Subscribe регистрирует подписчика на метрики pipeline.
// Возвращает функцию отписки.
func (r *Runner) Subscribe(l Listener) func() {
	r.mu.Lock()
	defer r.mu.Unlock()

	token := r.nextToken
	r.nextToken++
	r.listeners[token] = l

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.listeners, token)
	}
}

// Metrics возвращает снапшот метрик последнего начатого запуска.
func (r *Runner) Metrics() Metrics {
	r.mu.Lock()
	last := r.last
	r.mu.Unlock()

	if last == nil {
		return Metrics{}
	}
	return last.snapshot()
}

// Execute выполняет все стадии в порядке зависимостей.
//
// Первая терминально упавшая стадия прерывает запуск: её StageError
// возвращается вызывающему, метрики незапущенных стадий остаются
// pending. Метрики запуска доступны через Metrics() и подписчиков.
func (r *Runner) Execute(ctx context.Context, pc *Context) error {
	order, err := r.resolveOrder()
	if err != nil {
		return fmt.Errorf("pipeline %s: %w", r.name, err)
	}

	// Свежие метрики запуска: по pending-записи на каждую стадию.
	// Запуск владеет своим экземпляром; Metrics() отдаёт последний начатый.
	exec := &execution{metrics: Metrics{
		ExecutionID: pc.ExecutionID.String(),
		StartedAt:   time.Now(),
		Stages:      make([]StageMetrics, 0, len(order)),
	}}
	for _, stage := range order {
		exec.metrics.Stages = append(exec.metrics.Stages, StageMetrics{
			StageID: stage.ID(),
			Status:  StatusPending,
		})
	}

	r.mu.Lock()
	r.last = exec
	r.mu.Unlock()
	r.notify(exec.snapshot())

	r.logger.Info("pipeline started",
		"execution_id", pc.ExecutionID,
		"stages", len(order),
	)

	for _, stage := range order {
		if err := r.executeStage(ctx, exec, stage, pc); err != nil {
			r.finish(exec)
			r.logger.Warn("pipeline aborted",
				"execution_id", pc.ExecutionID,
				"stage_id", stage.ID(),
				"error", err,
			)
			return err
		}
	}

	r.finish(exec)
	r.logger.Info("pipeline completed", "execution_id", pc.ExecutionID)
	return nil
}

// executeStage выполняет одну стадию через StageExecutor.
func (r *Runner) executeStage(ctx context.Context, exec *execution, stage Stage, pc *Context) error {
	cfg := r.defaults
	if c, ok := stage.(Configurable); ok {
		cfg = c.Config()
	}

	executor, err := NewStageExecutor(cfg, r.logger)
	if err != nil {
		return fmt.Errorf("stage %s: %w", stage.ID(), err)
	}

	// Пробрасываем метрики стадии в метрики своего запуска
	unsubscribe := executor.Subscribe(func(sm StageMetrics) {
		r.updateStage(exec, sm)
	})
	defer unsubscribe()

	started := time.Now()
	sm, execErr := executor.Execute(ctx, stage, pc)

	outcome := "success"
	if execErr != nil {
		outcome = "error"
	}
	telemetry.ObserveStage(r.name, stage.ID(), outcome, time.Since(started), sm.RetryAttempts)

	return execErr
}

// updateStage записывает снапшот метрик стадии и уведомляет подписчиков.
func (r *Runner) updateStage(exec *execution, sm StageMetrics) {
	exec.mu.Lock()
	for i := range exec.metrics.Stages {
		if exec.metrics.Stages[i].StageID == sm.StageID {
			exec.metrics.Stages[i] = sm
			break
		}
	}
	exec.mu.Unlock()
	r.notify(exec.snapshot())
}

// finish закрывает метрики запуска.
func (r *Runner) finish(exec *execution) {
	exec.mu.Lock()
	exec.metrics.FinishedAt = time.Now()
	exec.metrics.Duration = exec.metrics.FinishedAt.Sub(exec.metrics.StartedAt)
	exec.mu.Unlock()
	r.notify(exec.snapshot())
}

// notify синхронно уведомляет подписчиков снапшотом метрик.
func (r *Runner) notify(snapshot Metrics) {
	r.mu.Lock()
	listeners := make([]Listener, 0, len(r.listeners))
	for _, l := range r.listeners {
		listeners = append(listeners, l)
	}
	r.mu.Unlock()

	for _, l := range listeners {
		l(snapshot)
	}
}

// resolveOrder строит детерминированный топологический порядок
// (алгоритм Кана). Tie-break среди готовых стадий: Order() по
// возрастанию, при равенстве — ID.
//
// Неизвестные зависимости и циклы обнаруживаются здесь: полный набор
// стадий известен только к моменту запуска.
func (r *Runner) resolveOrder() ([]Stage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	inDegree := make(map[string]int, len(r.stages))
	dependents := make(map[string][]string, len(r.stages))

	for id, stage := range r.stages {
		if _, ok := inDegree[id]; !ok {
			inDegree[id] = 0
		}

		seen := make(map[string]bool)
		for _, dep := range stage.Dependencies() {
			// Повторная зависимость не даёт второго ребра
			if seen[dep] {
				continue
			}
			seen[dep] = true

			if _, exists := r.stages[dep]; !exists {
				return nil, fmt.Errorf("%w: %s depends on %s", ErrMissingDependency, id, dep)
			}

			inDegree[id]++
			dependents[dep] = append(dependents[dep], id)
		}
	}

	var ready []Stage
	for id, deg := range inDegree {
		if deg == 0 {
			ready = append(ready, r.stages[id])
		}
	}

	order := make([]Stage, 0, len(r.stages))
	for len(ready) > 0 {
		slices.SortFunc(ready, func(a, b Stage) int {
			if a.Order() != b.Order() {
				return a.Order() - b.Order()
			}
			return strings.Compare(a.ID(), b.ID())
		})

		stage := ready[0]
		ready = ready[1:]
		order = append(order, stage)

		for _, depID := range dependents[stage.ID()] {
			inDegree[depID]--
			if inDegree[depID] == 0 {
				ready = append(ready, r.stages[depID])
			}
		}
	}

	// Не все стадии в порядке — есть цикл
	if len(order) != len(r.stages) {
		return nil, ErrCyclicDependency
	}

	return order, nil
}
