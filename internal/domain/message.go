package domain

import (
	"time"

	"github.com/google/uuid"
)

// RawMessage — входящее финансовое сообщение до разбора.
//
// RawMessage появляется когда:
// - Сообщение приходит из очереди RabbitMQ (messages.received)
// - Пользователь отправляет сообщение через API/CLI
//
// Payload содержит XML в формате ISO 20022 (pacs.008, pacs.009, pain.001).
type RawMessage struct {
	// ID — уникальный идентификатор сообщения в системе.
	ID uuid.UUID `json:"id"`

	// MessageType — тип сообщения, например "pacs.008.001.08".
	// Определяет набор правил валидации и стадий трансформации.
	MessageType string `json:"message_type"`

	// Payload — сырой XML документ.
	Payload []byte `json:"payload"`

	// ReceivedAt — время поступления сообщения в систему.
	ReceivedAt time.Time `json:"received_at"`
}

// Party — участник платежа (дебитор или кредитор).
type Party struct {
	// Name — наименование участника.
	Name string `json:"name"`

	// Account — номер счёта (IBAN или внутренний).
	Account string `json:"account"`

	// BIC — банковский идентификационный код агента участника.
	BIC string `json:"bic,omitempty"`
}

// ParsedMessage — полностью разобранное сообщение.
//
// ParsedMessage строится инкрементально стадиями трансформации:
// каждая стадия заполняет свою часть, финальная стадия обязана
// оставить сообщение в состоянии Complete().
type ParsedMessage struct {
	// MessageType — тип исходного сообщения.
	MessageType string `json:"message_type"`

	// MessageID — идентификатор сообщения из заголовка (MsgId).
	MessageID string `json:"message_id"`

	// CreatedAt — время создания сообщения отправителем (CreDtTm).
	CreatedAt time.Time `json:"created_at"`

	// SenderBIC — BIC института-отправителя.
	SenderBIC string `json:"sender_bic"`

	// ReceiverBIC — BIC института-получателя.
	ReceiverBIC string `json:"receiver_bic"`

	// Amount — сумма расчёта в минимальных единицах валюты.
	Amount int64 `json:"amount"`

	// Currency — код валюты (ISO 4217).
	Currency string `json:"currency"`

	// Debtor — плательщик.
	Debtor Party `json:"debtor"`

	// Creditor — получатель средств.
	Creditor Party `json:"creditor"`

	// ChainRef — идентификатор расчётной сети, в которую уйдёт сообщение.
	// Заполняется стадией обработки из chain mapping.
	ChainRef string `json:"chain_ref,omitempty"`

	// Raw — исходный XML (для аудита и повторной отправки).
	Raw []byte `json:"-"`
}

// Complete проверяет, что все обязательные поля заполнены.
// Финальная стадия трансформации обязана вернуть Complete() == true.
func (m *ParsedMessage) Complete() bool {
	return m.MessageType != "" &&
		m.MessageID != "" &&
		m.SenderBIC != "" &&
		m.ReceiverBIC != "" &&
		m.Amount > 0 &&
		m.Currency != "" &&
		m.Debtor.Account != "" &&
		m.Creditor.Account != ""
}

// SubmissionType — способ передачи сообщения в расчётную сеть.
type SubmissionType string

const (
	// SubmissionTypeCredit — кредитовый перевод (pacs.008, pain.001).
	SubmissionTypeCredit SubmissionType = "CREDIT_TRANSFER"

	// SubmissionTypeInterbank — межбанковский перевод (pacs.009).
	SubmissionTypeInterbank SubmissionType = "INTERBANK_TRANSFER"
)

// MessageDetails — сводка полей сообщения для отправки в сеть.
// Формируется extractor'ом, зависящим от типа сообщения.
type MessageDetails struct {
	// MessageID — идентификатор сообщения.
	MessageID string `json:"message_id"`

	// Amount — сумма в минимальных единицах валюты.
	Amount int64 `json:"amount"`

	// Currency — код валюты.
	Currency string `json:"currency"`

	// DebtorAccount — счёт плательщика.
	DebtorAccount string `json:"debtor_account"`

	// CreditorAccount — счёт получателя.
	CreditorAccount string `json:"creditor_account"`

	// SubmissionType — способ передачи в сеть.
	SubmissionType SubmissionType `json:"submission_type"`
}
