// Package protocol — клиент расчётной сети.
//
// Сеть принимает сводку сообщения и возвращает хэш транзакции;
// итоговый статус выясняется позже через GetMessageResult. Интерфейс
// Client позволяет подменить сеть фейком в тестах orchestrator'а
// и tracker'а.
package protocol

import (
	"context"
	"errors"

	"github.com/shaiso/Clearway/internal/domain"
)

// Ошибки клиента сети.
var (
	// ErrTransactionNotFound — сеть не знает такой транзакции.
	ErrTransactionNotFound = errors.New("transaction not found in settlement network")

	// ErrNotCancellable — транзакция уже необратима в сети.
	ErrNotCancellable = errors.New("transaction can no longer be cancelled")
)

// Статусы транзакции в сети.
const (
	// TxPending — транзакция принята, но ещё не рассчитана.
	TxPending = "PENDING"

	// TxConfirmed — расчёт завершён.
	TxConfirmed = "CONFIRMED"

	// TxRejected — сеть отклонила транзакцию.
	TxRejected = "REJECTED"
)

// SubmitRequest — отправка сообщения в сеть.
type SubmitRequest struct {
	// MessageID — идентификатор сообщения.
	MessageID string `json:"message_id"`

	// ChainRef — расчётная сеть из chain mapping.
	ChainRef string `json:"chain_ref"`

	// Details — сводка полей сообщения.
	Details domain.MessageDetails `json:"details"`

	// PriorTxHash — хэш предыдущей попытки при повторной отправке.
	PriorTxHash string `json:"prior_tx_hash,omitempty"`
}

// MessageResult — состояние транзакции в сети.
type MessageResult struct {
	// TransactionHash — хэш транзакции.
	TransactionHash string `json:"transaction_hash"`

	// Status — статус в сети: PENDING, CONFIRMED или REJECTED.
	Status string `json:"status"`

	// Fees — комиссия сети в минимальных единицах валюты.
	Fees int64 `json:"fees"`

	// Reason — причина отклонения для REJECTED.
	Reason string `json:"reason,omitempty"`
}

// Client — операции расчётной сети.
type Client interface {
	// SubmitMessage отправляет сообщение и возвращает хэш транзакции.
	SubmitMessage(ctx context.Context, req SubmitRequest) (*domain.TransactionResponse, error)

	// GetMessageResult возвращает текущее состояние транзакции.
	GetMessageResult(ctx context.Context, txHash string) (*MessageResult, error)

	// RetryMessage повторно отправляет сообщение, ссылаясь на прежнюю
	// транзакцию. Сеть возвращает новый хэш.
	RetryMessage(ctx context.Context, req SubmitRequest) (*domain.TransactionResponse, error)

	// CancelMessage отменяет ещё не рассчитанную транзакцию.
	CancelMessage(ctx context.Context, txHash string) error
}
