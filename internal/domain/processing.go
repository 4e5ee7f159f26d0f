package domain

// TransactionResponse — ответ расчётной сети на отправку сообщения.
type TransactionResponse struct {
	// MessageID — идентификатор сообщения в сети.
	MessageID string `json:"message_id"`

	// TransactionHash — хэш транзакции в расчётной сети.
	TransactionHash string `json:"transaction_hash"`

	// Status — статус, который сообщила сеть при приёме.
	Status string `json:"status"`

	// Fees — комиссия сети в минимальных единицах валюты.
	Fees int64 `json:"fees"`
}

// ProcessingResult — итог обработки одного сообщения оркестратором.
//
// Success == false с заполненным Errors — ожидаемый бизнес-отказ
// (например, сообщение не прошло валидацию). Инфраструктурные сбои
// возвращаются через error, а не через ProcessingResult.
type ProcessingResult struct {
	// Success — true, если сообщение обработано и отправлено в сеть.
	Success bool `json:"success"`

	// ProcessedMessage — полностью разобранное сообщение.
	ProcessedMessage *ParsedMessage `json:"processed_message,omitempty"`

	// TransactionResponse — ответ расчётной сети.
	TransactionResponse *TransactionResponse `json:"transaction_response,omitempty"`

	// Errors — тексты бизнес-ошибок при Success == false.
	Errors []string `json:"errors,omitempty"`
}
