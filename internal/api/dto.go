package api

import (
	"time"

	"github.com/shaiso/Clearway/internal/domain"
)

// SubmitMessageRequest — входящее финансовое сообщение.
type SubmitMessageRequest struct {
	// MessageType — тип сообщения, например "pacs.008.001.08".
	MessageType string `json:"message_type"`

	// Payload — XML документ.
	Payload string `json:"payload"`

	// Async — true: принять и обработать через очередь,
	// false: обработать синхронно в рамках запроса.
	Async bool `json:"async,omitempty"`
}

// MessageAcceptedResponse — подтверждение приёма в асинхронную обработку.
type MessageAcceptedResponse struct {
	MessageID   string `json:"message_id"`
	MessageType string `json:"message_type"`
}

// ProcessingResponse — итог синхронной обработки сообщения.
type ProcessingResponse struct {
	Success     bool                 `json:"success"`
	MessageID   string               `json:"message_id,omitempty"`
	Transaction *TransactionResponse `json:"transaction,omitempty"`
	Errors      []string             `json:"errors,omitempty"`
}

// TransactionResponse — ответ расчётной сети.
type TransactionResponse struct {
	TransactionHash string `json:"transaction_hash"`
	Status          string `json:"status"`
	Fees            int64  `json:"fees"`
}

// SubmissionResponse — запись об отправке из API.
type SubmissionResponse struct {
	ID              string `json:"id"`
	MessageID       string `json:"message_id"`
	TransactionHash string `json:"transaction_hash"`
	Status          string `json:"status"`
	Fees            int64  `json:"fees"`
	RetryCount      int    `json:"retry_count"`
	PriorTxHash     string `json:"prior_tx_hash,omitempty"`
	Error           string `json:"error,omitempty"`
	SubmittedAt     string `json:"submitted_at"`
	UpdatedAt       string `json:"updated_at"`
}

// ProcessingFromDomain конвертирует ProcessingResult в DTO.
func ProcessingFromDomain(result *domain.ProcessingResult) ProcessingResponse {
	resp := ProcessingResponse{
		Success: result.Success,
		Errors:  result.Errors,
	}
	if result.ProcessedMessage != nil {
		resp.MessageID = result.ProcessedMessage.MessageID
	}
	if result.TransactionResponse != nil {
		resp.Transaction = &TransactionResponse{
			TransactionHash: result.TransactionResponse.TransactionHash,
			Status:          result.TransactionResponse.Status,
			Fees:            result.TransactionResponse.Fees,
		}
	}
	return resp
}

// SubmissionFromDomain конвертирует SubmissionRecord в DTO.
func SubmissionFromDomain(sub domain.SubmissionRecord) SubmissionResponse {
	return SubmissionResponse{
		ID:              sub.ID.String(),
		MessageID:       sub.MessageID,
		TransactionHash: sub.TransactionHash,
		Status:          string(sub.Status),
		Fees:            sub.Fees,
		RetryCount:      sub.RetryCount,
		PriorTxHash:     sub.PriorTxHash,
		Error:           sub.Error,
		SubmittedAt:     sub.SubmittedAt.Format(time.RFC3339),
		UpdatedAt:       sub.UpdatedAt.Format(time.RFC3339),
	}
}
