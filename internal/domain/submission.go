package domain

import (
	"time"

	"github.com/google/uuid"
)

// SubmissionStatus — статус сообщения, переданного в расчётную сеть.
//
// Жизненный цикл:
//
//	PENDING → PROCESSING → COMPLETED
//	                     ↘ FAILED → RETRYING → PENDING (повторная отправка)
//	PENDING/PROCESSING → CANCELLED
//
// COMPLETED и CANCELLED — терминальные: дальнейшие изменения запрещены.
type SubmissionStatus string

const (
	// SubmissionStatusPending — сообщение принято сетью, ожидает обработки.
	SubmissionStatusPending SubmissionStatus = "PENDING"

	// SubmissionStatusProcessing — сеть начала обработку транзакции.
	SubmissionStatusProcessing SubmissionStatus = "PROCESSING"

	// SubmissionStatusCompleted — транзакция завершена успешно.
	SubmissionStatusCompleted SubmissionStatus = "COMPLETED"

	// SubmissionStatusFailed — сеть сообщила об ошибке. Возможен retry.
	SubmissionStatusFailed SubmissionStatus = "FAILED"

	// SubmissionStatusCancelled — отправка отменена пользователем.
	SubmissionStatusCancelled SubmissionStatus = "CANCELLED"

	// SubmissionStatusRetrying — принят запрос на повторную отправку,
	// новый payload формируется. Промежуточный статус перед PENDING.
	SubmissionStatusRetrying SubmissionStatus = "RETRYING"
)

// IsTerminal возвращает true, если статус финальный.
func (s SubmissionStatus) IsTerminal() bool {
	switch s {
	case SubmissionStatusCompleted, SubmissionStatusCancelled:
		return true
	default:
		return false
	}
}

// SubmissionRecord — запись об отправке сообщения в расчётную сеть.
//
// Создаётся при первой успешной отправке и мутируется только через
// операции retry/cancel трекера и отчёты сети о статусе.
type SubmissionRecord struct {
	// ID — внутренний идентификатор записи.
	ID uuid.UUID `json:"id"`

	// MessageID — идентификатор сообщения (из заголовка сообщения).
	MessageID string `json:"message_id"`

	// TransactionHash — хэш транзакции в расчётной сети.
	TransactionHash string `json:"transaction_hash"`

	// Status — текущий статус.
	Status SubmissionStatus `json:"status"`

	// Fees — комиссия сети в минимальных единицах валюты.
	Fees int64 `json:"fees"`

	// RetryCount — номер повторной отправки. 0 для первой отправки,
	// первая принятая retry устанавливает 1.
	// Хранится в записи, а не в памяти — переживает рестарт.
	RetryCount int `json:"retry_count"`

	// PriorTxHash — хэш транзакции предыдущей попытки (для retry).
	PriorTxHash string `json:"prior_tx_hash,omitempty"`

	// Error — текст ошибки при статусе FAILED.
	Error string `json:"error,omitempty"`

	// SubmittedAt — время первой отправки.
	SubmittedAt time.Time `json:"submitted_at"`

	// UpdatedAt — время последнего изменения статуса.
	UpdatedAt time.Time `json:"updated_at"`
}

// MarkProcessing переводит запись в статус PROCESSING.
func (r *SubmissionRecord) MarkProcessing() {
	r.Status = SubmissionStatusProcessing
	r.UpdatedAt = time.Now()
}

// MarkCompleted переводит запись в терминальный статус COMPLETED.
func (r *SubmissionRecord) MarkCompleted() {
	r.Status = SubmissionStatusCompleted
	r.UpdatedAt = time.Now()
}

// MarkFailed переводит запись в статус FAILED с ошибкой.
func (r *SubmissionRecord) MarkFailed(errMsg string) {
	r.Status = SubmissionStatusFailed
	r.Error = errMsg
	r.UpdatedAt = time.Now()
}

// MarkCancelled переводит запись в терминальный статус CANCELLED.
func (r *SubmissionRecord) MarkCancelled() {
	r.Status = SubmissionStatusCancelled
	r.UpdatedAt = time.Now()
}

// MarkRetrying переводит запись в статус RETRYING.
func (r *SubmissionRecord) MarkRetrying() {
	r.Status = SubmissionStatusRetrying
	r.UpdatedAt = time.Now()
}

// ResetForRetry подготавливает запись к повторной отправке.
// Текущий хэш становится PriorTxHash, счётчик увеличивается на 1
// относительно значения в записи, статус сбрасывается в PENDING.
func (r *SubmissionRecord) ResetForRetry(newTxHash string, fees int64) {
	r.PriorTxHash = r.TransactionHash
	r.TransactionHash = newTxHash
	r.Fees = fees
	r.RetryCount++
	r.Error = ""
	r.Status = SubmissionStatusPending
	r.UpdatedAt = time.Now()
}

// CanRetry проверяет, допустима ли ещё одна повторная отправка.
func (r *SubmissionRecord) CanRetry(maxAttempts int) bool {
	return r.Status == SubmissionStatusFailed && r.RetryCount < maxAttempts
}

// CanCancel проверяет, допустима ли отмена из текущего статуса.
func (r *SubmissionRecord) CanCancel() bool {
	switch r.Status {
	case SubmissionStatusPending, SubmissionStatusProcessing:
		return true
	default:
		return false
	}
}
