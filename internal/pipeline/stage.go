package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Stage — одна независимо перезапускаемая единица работы внутри pipeline.
//
// Стадии — значения, реализующие capability-интерфейс: никакого
// базового типа и наследования. Executor оборачивает любое такое
// значение retry/timeout логикой, ничего не зная о его содержимом.
type Stage interface {
	// ID — идентификатор стадии, уникальный в рамках pipeline.
	ID() string

	// Name — человекочитаемое имя стадии.
	Name() string

	// Order — целое для детерминированного порядка среди стадий
	// с удовлетворёнными зависимостями (по возрастанию).
	Order() int

	// Dependencies — ID стадий, которые должны успешно завершиться
	// до запуска этой стадии.
	Dependencies() []string

	// Run выполняет стадию. ctx несёт дедлайн попытки — стадия обязана
	// проверять его кооперативно на блокирующих операциях.
	Run(ctx context.Context, pc *Context) error
}

// Configurable — опциональная способность стадии переопределить
// конфигурацию executor'а (таймаут, retry) вместо значений pipeline.
type Configurable interface {
	Config() StageConfig
}

// Context — контекст одного запуска pipeline.
//
// Создаётся на каждый вызов Execute, принадлежит только этому вызову
// и выбрасывается после возврата. Стадии обмениваются данными через Data.
type Context struct {
	// ExecutionID — идентификатор запуска для корреляции метрик и ошибок.
	ExecutionID uuid.UUID

	// Data — полезная нагрузка pipeline. Конкретный тип задаёт специализация.
	Data any

	// Metadata — произвольные ключ-значение атрибуты запуска.
	Metadata map[string]string
}

// NewContext создаёт контекст запуска с новым ExecutionID.
func NewContext(data any) *Context {
	return &Context{
		ExecutionID: uuid.New(),
		Data:        data,
		Metadata:    make(map[string]string),
	}
}

// Максимальная задержка между попытками.
const maxBackoffDelay = 30 * time.Second

// Задержка между попытками по умолчанию.
const defaultRetryDelay = time.Second

// StageConfig — конфигурация выполнения одной стадии.
//
// Нулевое значение валидно: одна попытка, без таймаута.
type StageConfig struct {
	// Timeout — таймаут одной попытки. 0 — без таймаута.
	Timeout time.Duration

	// MaxRetries — количество повторных попыток после первой.
	// Всего попыток: MaxRetries + 1.
	MaxRetries int

	// RetryDelay — базовая задержка перед повторной попыткой.
	// 0 — используется defaultRetryDelay (1s).
	RetryDelay time.Duration

	// ExponentialBackoff — удваивать задержку с каждой попыткой
	// (с потолком maxBackoffDelay).
	ExponentialBackoff bool
}

// Validate проверяет конфигурацию. Невалидная конфигурация — фатальная
// ошибка конструирования executor'а, а не повод для retry.
func (c StageConfig) Validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("%w: timeout must be positive, got %s", ErrInvalidConfig, c.Timeout)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("%w: max retries must be >= 0, got %d", ErrInvalidConfig, c.MaxRetries)
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("%w: retry delay must be positive, got %s", ErrInvalidConfig, c.RetryDelay)
	}
	return nil
}

// retryDelayOrDefault возвращает базовую задержку с учётом default.
func (c StageConfig) retryDelayOrDefault() time.Duration {
	if c.RetryDelay > 0 {
		return c.RetryDelay
	}
	return defaultRetryDelay
}

// backoffDelay вычисляет задержку перед попыткой attempt (attempt >= 2):
// min(RetryDelay * 2^(attempt-1), 30s) при экспоненциальном backoff,
// иначе плоская RetryDelay.
func (c StageConfig) backoffDelay(attempt int) time.Duration {
	base := c.retryDelayOrDefault()
	if !c.ExponentialBackoff {
		return base
	}

	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= maxBackoffDelay {
			return maxBackoffDelay
		}
	}
	return min(delay, maxBackoffDelay)
}
