// Package tracker — машина состояний записей об отправках.
//
// Tracker — единственная точка мутации SubmissionRecord: создание при
// первой отправке, применение отчётов сети, повторная отправка и
// отмена. Переходы валидируются доменными предикатами CanRetry и
// CanCancel; терминальные статусы неизменяемы.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Clearway/internal/config"
	"github.com/shaiso/Clearway/internal/domain"
	"github.com/shaiso/Clearway/internal/protocol"
	"github.com/shaiso/Clearway/internal/repo"
	"github.com/shaiso/Clearway/internal/telemetry"
)

// Ошибки переходов состояний.
var (
	// ErrCannotRetry — запись не в FAILED или потолок повторов исчерпан.
	ErrCannotRetry = errors.New("submission cannot be retried")

	// ErrCannotCancel — запись уже терминальна или в FAILED/RETRYING.
	ErrCannotCancel = errors.New("submission cannot be cancelled")
)

// Store — хранилище записей об отправках.
type Store interface {
	Create(ctx context.Context, sub *domain.SubmissionRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.SubmissionRecord, error)
	GetByMessageID(ctx context.Context, messageID string) (*domain.SubmissionRecord, error)
	Update(ctx context.Context, sub *domain.SubmissionRecord) error
	List(ctx context.Context, filter repo.SubmissionFilter) ([]domain.SubmissionRecord, error)
	ListUnsettled(ctx context.Context, limit int) ([]domain.SubmissionRecord, error)
}

// StatusPublisher публикует событие смены статуса. Nil-safe через
// проверку в notify: gateway без брокера работает без событий.
type StatusPublisher interface {
	PublishSubmissionStatus(ctx context.Context, sub *domain.SubmissionRecord) error
}

// Tracker — операции над записями об отправках.
type Tracker struct {
	store       Store
	network     protocol.Client
	publisher   StatusPublisher
	maxAttempts int
	logger      *slog.Logger
}

// New создаёт Tracker. publisher может быть nil.
func New(store Store, network protocol.Client, publisher StatusPublisher, provider config.Provider, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}

	return &Tracker{
		store:       store,
		network:     network,
		publisher:   publisher,
		maxAttempts: config.MaxRetryAttempts(provider),
		logger:      logger,
	}
}

// Track создаёт запись о первой отправке в статусе PENDING.
func (t *Tracker) Track(ctx context.Context, tx *domain.TransactionResponse) (*domain.SubmissionRecord, error) {
	now := time.Now()
	sub := &domain.SubmissionRecord{
		ID:              uuid.New(),
		MessageID:       tx.MessageID,
		TransactionHash: tx.TransactionHash,
		Status:          domain.SubmissionStatusPending,
		Fees:            tx.Fees,
		SubmittedAt:     now,
		UpdatedAt:       now,
	}

	if err := t.store.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("track submission %s: %w", tx.MessageID, err)
	}

	t.notify(ctx, sub)
	return sub, nil
}

// Get возвращает запись по ID.
func (t *Tracker) Get(ctx context.Context, id uuid.UUID) (*domain.SubmissionRecord, error) {
	return t.store.GetByID(ctx, id)
}

// GetByMessageID возвращает запись по идентификатору сообщения.
func (t *Tracker) GetByMessageID(ctx context.Context, messageID string) (*domain.SubmissionRecord, error) {
	return t.store.GetByMessageID(ctx, messageID)
}

// List возвращает записи с фильтрацией.
func (t *Tracker) List(ctx context.Context, filter repo.SubmissionFilter) ([]domain.SubmissionRecord, error) {
	return t.store.List(ctx, filter)
}

// ListUnsettled возвращает записи в нетерминальных статусах —
// кандидатов для сверки с сетью.
func (t *Tracker) ListUnsettled(ctx context.Context, limit int) ([]domain.SubmissionRecord, error) {
	return t.store.ListUnsettled(ctx, limit)
}

// ApplyResult применяет отчёт сети о состоянии транзакции.
// Терминальные записи не изменяются.
func (t *Tracker) ApplyResult(ctx context.Context, sub *domain.SubmissionRecord, result *protocol.MessageResult) error {
	if sub.Status.IsTerminal() {
		return nil
	}

	switch result.Status {
	case protocol.TxConfirmed:
		sub.Fees = result.Fees
		sub.MarkCompleted()
	case protocol.TxRejected:
		reason := result.Reason
		if reason == "" {
			reason = "rejected by settlement network"
		}
		sub.MarkFailed(reason)
	case protocol.TxPending:
		if sub.Status == domain.SubmissionStatusPending {
			sub.MarkProcessing()
		} else {
			return nil
		}
	default:
		return fmt.Errorf("unknown network status %q for %s", result.Status, sub.TransactionHash)
	}

	if err := t.store.Update(ctx, sub); err != nil {
		return fmt.Errorf("apply result for %s: %w", sub.MessageID, err)
	}

	t.notify(ctx, sub)
	return nil
}

// Retry выполняет повторную отправку неуспешной записи.
//
// Допустима только из FAILED и только пока не исчерпан потолок
// повторов. Неудачная повторная отправка тоже расходует попытку.
func (t *Tracker) Retry(ctx context.Context, id uuid.UUID) (*domain.SubmissionRecord, error) {
	sub, err := t.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !sub.CanRetry(t.maxAttempts) {
		return nil, fmt.Errorf("%w: %s in status %s after %d of %d attempts",
			ErrCannotRetry, sub.MessageID, sub.Status, sub.RetryCount, t.maxAttempts)
	}

	sub.MarkRetrying()
	if err := t.store.Update(ctx, sub); err != nil {
		return nil, fmt.Errorf("retry %s: %w", sub.MessageID, err)
	}
	t.notify(ctx, sub)

	tx, err := t.network.RetryMessage(ctx, protocol.SubmitRequest{
		MessageID:   sub.MessageID,
		PriorTxHash: sub.TransactionHash,
	})
	if err != nil {
		sub.RetryCount++
		sub.MarkFailed(err.Error())
		if updateErr := t.store.Update(ctx, sub); updateErr != nil {
			t.logger.Error("failed to persist retry failure",
				"message_id", sub.MessageID, "error", updateErr)
		}
		t.notify(ctx, sub)
		return nil, fmt.Errorf("retry %s: %w", sub.MessageID, err)
	}

	sub.ResetForRetry(tx.TransactionHash, tx.Fees)
	if err := t.store.Update(ctx, sub); err != nil {
		return nil, fmt.Errorf("retry %s: %w", sub.MessageID, err)
	}

	t.logger.Info("submission resubmitted",
		"message_id", sub.MessageID,
		"prior_tx_hash", sub.PriorTxHash,
		"tx_hash", sub.TransactionHash,
		"retry_count", sub.RetryCount)

	t.notify(ctx, sub)
	return sub, nil
}

// Cancel отменяет ещё не рассчитанную отправку.
// Допустима только из PENDING и PROCESSING.
func (t *Tracker) Cancel(ctx context.Context, id uuid.UUID) (*domain.SubmissionRecord, error) {
	sub, err := t.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !sub.CanCancel() {
		return nil, fmt.Errorf("%w: %s in status %s", ErrCannotCancel, sub.MessageID, sub.Status)
	}

	if err := t.network.CancelMessage(ctx, sub.TransactionHash); err != nil {
		if errors.Is(err, protocol.ErrNotCancellable) {
			return nil, fmt.Errorf("%w: %s settled in network", ErrCannotCancel, sub.MessageID)
		}
		return nil, fmt.Errorf("cancel %s: %w", sub.MessageID, err)
	}

	sub.MarkCancelled()
	if err := t.store.Update(ctx, sub); err != nil {
		return nil, fmt.Errorf("cancel %s: %w", sub.MessageID, err)
	}

	t.logger.Info("submission cancelled", "message_id", sub.MessageID, "tx_hash", sub.TransactionHash)

	t.notify(ctx, sub)
	return sub, nil
}

// notify обновляет метрики и публикует событие смены статуса.
func (t *Tracker) notify(ctx context.Context, sub *domain.SubmissionRecord) {
	telemetry.ObserveSubmissionStatus(string(sub.Status))

	if t.publisher == nil {
		return
	}
	if err := t.publisher.PublishSubmissionStatus(ctx, sub); err != nil {
		t.logger.Warn("failed to publish submission status",
			"message_id", sub.MessageID, "status", sub.Status, "error", err)
	}
}
