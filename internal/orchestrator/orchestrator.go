// Package orchestrator — сквозная обработка входящего сообщения.
//
// Один вызов ProcessMessage проводит сообщение через валидацию,
// трансформацию и отправку в расчётную сеть, создаёт запись об
// отправке и возвращает итог. Невалидное сообщение — ожидаемый
// бизнес-результат (Success == false); инфраструктурные сбои
// возвращаются через error.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shaiso/Clearway/internal/domain"
	"github.com/shaiso/Clearway/internal/processing"
	"github.com/shaiso/Clearway/internal/telemetry"
	"github.com/shaiso/Clearway/internal/tracker"
	"github.com/shaiso/Clearway/internal/transform"
	"github.com/shaiso/Clearway/internal/validation"
)

// MessageStore — аудиторское хранилище сообщений. Может быть nil:
// обработка работает и без аудиторского следа.
type MessageStore interface {
	Create(ctx context.Context, msg *domain.RawMessage) error
	AttachParsed(ctx context.Context, id uuid.UUID, parsed *domain.ParsedMessage) error
}

// Orchestrator — координатор пайплайнов обработки сообщения.
type Orchestrator struct {
	validators   *validation.Factory
	transformers *transform.Factory
	processor    *processing.Pipeline
	tracker      *tracker.Tracker
	messages     MessageStore
	logger       *slog.Logger
}

// New создаёт Orchestrator. messages может быть nil.
func New(
	validators *validation.Factory,
	transformers *transform.Factory,
	processor *processing.Pipeline,
	tr *tracker.Tracker,
	messages MessageStore,
	logger *slog.Logger,
) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}

	return &Orchestrator{
		validators:   validators,
		transformers: transformers,
		processor:    processor,
		tracker:      tr,
		messages:     messages,
		logger:       logger,
	}
}

// ProcessMessage обрабатывает одно входящее сообщение.
//
// Порядок стадий фиксирован: валидация → трансформация → отправка.
// Частично обработанное сообщение в сеть не уходит.
func (o *Orchestrator) ProcessMessage(ctx context.Context, raw *domain.RawMessage) (*domain.ProcessingResult, error) {
	logger := telemetry.WithMessageID(o.logger, raw.ID.String())
	logger.Info("processing message", "message_type", raw.MessageType)

	if o.messages != nil {
		if err := o.messages.Create(ctx, raw); err != nil {
			return nil, fmt.Errorf("persist message %s: %w", raw.ID, err)
		}
	}

	validator, err := o.validators.Pipeline(ctx, raw.MessageType)
	if err != nil {
		return nil, fmt.Errorf("message %s: %w", raw.ID, err)
	}

	result, err := validator.Validate(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("message %s: %w", raw.ID, err)
	}
	if !result.Valid {
		logger.Info("message rejected by validation", "violations", len(result.Errors))
		return &domain.ProcessingResult{
			Success: false,
			Errors:  result.ErrorMessages(),
		}, nil
	}

	transformer, err := o.transformers.Pipeline(raw.MessageType)
	if err != nil {
		return nil, fmt.Errorf("message %s: %w", raw.ID, err)
	}

	parsed, err := transformer.Transform(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("message %s: %w", raw.ID, err)
	}

	if o.messages != nil {
		if err := o.messages.AttachParsed(ctx, raw.ID, parsed); err != nil {
			// Аудиторский след не блокирует расчёт
			logger.Warn("failed to attach parsed form", "error", err)
		}
	}

	tx, err := o.processor.Process(ctx, parsed, "")
	if err != nil {
		return nil, fmt.Errorf("message %s: %w", raw.ID, err)
	}

	sub, err := o.tracker.Track(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("message %s: %w", raw.ID, err)
	}

	logger.Info("message submitted",
		"message_id", parsed.MessageID,
		"tx_hash", tx.TransactionHash,
		"submission_id", sub.ID,
		"fees", tx.Fees)

	return &domain.ProcessingResult{
		Success:             true,
		ProcessedMessage:    parsed,
		TransactionResponse: tx,
	}, nil
}
