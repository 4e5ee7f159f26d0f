package pipeline

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Ошибки конфигурации и регистрации стадий.
var (
	// ErrInvalidConfig — невалидная StageConfig.
	ErrInvalidConfig = errors.New("invalid stage config")

	// ErrEmptyStageID — стадия без ID.
	ErrEmptyStageID = errors.New("stage has empty ID")

	// ErrDuplicateStageID — стадия с таким ID уже зарегистрирована.
	ErrDuplicateStageID = errors.New("duplicate stage ID")

	// ErrSelfDependency — стадия зависит от самой себя.
	ErrSelfDependency = errors.New("stage depends on itself")

	// ErrMissingDependency — зависимость не зарегистрирована в pipeline.
	ErrMissingDependency = errors.New("stage depends on unknown stage")

	// ErrCyclicDependency — обнаружен цикл в зависимостях.
	ErrCyclicDependency = errors.New("cyclic dependency detected")

	// ErrStageNotFound — стадия не зарегистрирована.
	ErrStageNotFound = errors.New("stage not found")
)

// ErrAttemptTimeout — попытка проиграла гонку с таймером.
var ErrAttemptTimeout = errors.New("stage attempt timed out")

// Kind — дискриминант ошибки стадии.
//
// Ветвление по Kind заменяет проверки конкретных типов: вызывающий
// сопоставляет значение, а не динамический тип ошибки.
type Kind string

const (
	// KindValidation — ошибка валидации сообщения.
	KindValidation Kind = "validation"

	// KindTransformation — ошибка трансформации сообщения.
	KindTransformation Kind = "transformation"

	// KindSubmission — ошибка отправки в расчётную сеть.
	KindSubmission Kind = "submission"

	// KindStage — общая ошибка выполнения стадии.
	KindStage Kind = "stage"

	// KindTimeout — попытка стадии превысила таймаут.
	KindTimeout Kind = "timeout"
)

// StageError — ошибка выполнения стадии с контекстом для корреляции
// с метриками (ID стадии и ExecutionID запуска).
type StageError struct {
	// Kind — категория ошибки.
	Kind Kind

	// StageID — стадия, на которой произошла ошибка.
	StageID string

	// ExecutionID — запуск pipeline, в котором произошла ошибка.
	ExecutionID uuid.UUID

	// Attempts — количество сделанных попыток.
	Attempts int

	// Err — исходная ошибка.
	Err error
}

// Error реализует интерфейс error.
func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s (execution %s, %s): %v", e.StageID, e.ExecutionID, e.Kind, e.Err)
}

// Unwrap возвращает исходную ошибку.
func (e *StageError) Unwrap() error {
	return e.Err
}

// kindedError — ошибка, заранее помеченная категорией.
// Специализации помечают свои ошибки через WithKind, executor
// переносит категорию в итоговый StageError.
type kindedError struct {
	kind Kind
	err  error
}

func (e *kindedError) Error() string { return e.err.Error() }
func (e *kindedError) Unwrap() error { return e.err }

// WithKind помечает ошибку категорией до оборачивания в StageError.
func WithKind(kind Kind, err error) error {
	return &kindedError{kind: kind, err: err}
}

// NewStageError создаёт StageError. Таймаут попытки даёт KindTimeout;
// ошибка, помеченная WithKind, сохраняет свою категорию.
func NewStageError(kind Kind, stageID string, executionID uuid.UUID, attempts int, err error) *StageError {
	var ke *kindedError
	if errors.As(err, &ke) {
		kind = ke.kind
	}
	if errors.Is(err, ErrAttemptTimeout) {
		kind = KindTimeout
	}
	return &StageError{
		Kind:        kind,
		StageID:     stageID,
		ExecutionID: executionID,
		Attempts:    attempts,
		Err:         err,
	}
}

// IsTimeout проверяет, что ошибка — таймаут стадии.
func IsTimeout(err error) bool {
	var se *StageError
	if errors.As(err, &se) {
		return se.Kind == KindTimeout
	}
	return errors.Is(err, ErrAttemptTimeout)
}
