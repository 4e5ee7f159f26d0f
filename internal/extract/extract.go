// Package extract — извлечение сводки полей для отправки в расчётную сеть.
//
// Extractor зависит от типа сообщения: кредитовый перевод и
// межбанковский перевод уходят в сеть разными способами. Реестр
// экстракторов не имеет default-ветки: неизвестный тип — фатальная
// ошибка конфигурации.
package extract

import (
	"errors"
	"fmt"
	"sync"

	"github.com/shaiso/Clearway/internal/domain"
)

// ErrUnknownMessageType — для типа сообщения не зарегистрирован extractor.
var ErrUnknownMessageType = errors.New("no extractor registered for message type")

// Extractor извлекает из разобранного сообщения сводку для отправки.
type Extractor interface {
	// ExtractDetails формирует сводку полей сообщения.
	ExtractDetails(msg *domain.ParsedMessage) (domain.MessageDetails, error)

	// SubmissionType возвращает способ передачи в расчётную сеть.
	SubmissionType() domain.SubmissionType
}

// Registry — реестр экстракторов по типам сообщений.
type Registry struct {
	mu         sync.RWMutex
	extractors map[string]Extractor
}

// NewRegistry создаёт реестр со встроенными экстракторами.
func NewRegistry() *Registry {
	r := &Registry{extractors: make(map[string]Extractor)}
	r.Register("pacs.008.001.08", CreditTransfer{})
	r.Register("pacs.009.001.08", InterbankTransfer{})
	r.Register("pain.001.001.09", CreditTransfer{})
	return r
}

// Register добавляет или заменяет extractor для типа сообщения.
func (r *Registry) Register(messageType string, e Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.extractors[messageType] = e
}

// For возвращает extractor для типа сообщения.
func (r *Registry) For(messageType string) (Extractor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.extractors[messageType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMessageType, messageType)
	}
	return e, nil
}

// CreditTransfer — extractor кредитовых переводов (pacs.008, pain.001).
type CreditTransfer struct{}

// ExtractDetails реализует Extractor.
func (CreditTransfer) ExtractDetails(msg *domain.ParsedMessage) (domain.MessageDetails, error) {
	if msg.Debtor.Account == "" || msg.Creditor.Account == "" {
		return domain.MessageDetails{}, fmt.Errorf("credit transfer %s: missing party account", msg.MessageID)
	}

	return domain.MessageDetails{
		MessageID:       msg.MessageID,
		Amount:          msg.Amount,
		Currency:        msg.Currency,
		DebtorAccount:   msg.Debtor.Account,
		CreditorAccount: msg.Creditor.Account,
		SubmissionType:  domain.SubmissionTypeCredit,
	}, nil
}

// SubmissionType реализует Extractor.
func (CreditTransfer) SubmissionType() domain.SubmissionType {
	return domain.SubmissionTypeCredit
}

// InterbankTransfer — extractor межбанковских переводов (pacs.009).
// Счетами сторон выступают BIC институтов.
type InterbankTransfer struct{}

// ExtractDetails реализует Extractor.
func (InterbankTransfer) ExtractDetails(msg *domain.ParsedMessage) (domain.MessageDetails, error) {
	if msg.SenderBIC == "" || msg.ReceiverBIC == "" {
		return domain.MessageDetails{}, fmt.Errorf("interbank transfer %s: missing agent BIC", msg.MessageID)
	}

	return domain.MessageDetails{
		MessageID:       msg.MessageID,
		Amount:          msg.Amount,
		Currency:        msg.Currency,
		DebtorAccount:   msg.SenderBIC,
		CreditorAccount: msg.ReceiverBIC,
		SubmissionType:  domain.SubmissionTypeInterbank,
	}, nil
}

// SubmissionType реализует Extractor.
func (InterbankTransfer) SubmissionType() domain.SubmissionType {
	return domain.SubmissionTypeInterbank
}
