package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Clearway/internal/domain"
)

// SubmitMessage принимает финансовое сообщение.
// POST /api/v1/messages
//
// async=false — сообщение обрабатывается в рамках запроса, ответ несёт
// итог обработки. async=true — сообщение публикуется в очередь и
// обрабатывается gateway'ем, ответ 202.
func (h *Handler) SubmitMessage(w http.ResponseWriter, r *http.Request) {
	var req SubmitMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	if req.MessageType == "" {
		BadRequest(w, "message_type is required")
		return
	}
	if req.Payload == "" {
		BadRequest(w, "payload is required")
		return
	}

	raw := &domain.RawMessage{
		ID:          uuid.New(),
		MessageType: req.MessageType,
		Payload:     []byte(req.Payload),
		ReceivedAt:  time.Now(),
	}

	if req.Async {
		if h.publisher == nil {
			InvalidState(w, "async intake is not available without a message broker")
			return
		}
		if err := h.publisher.PublishMessageReceived(r.Context(), raw); err != nil {
			InternalError(w, h.logger, err)
			return
		}
		Accepted(w, MessageAcceptedResponse{
			MessageID:   raw.ID.String(),
			MessageType: raw.MessageType,
		})
		return
	}

	result, err := h.processor.ProcessMessage(r.Context(), raw)
	if err != nil {
		InternalError(w, h.logger, err)
		return
	}

	if !result.Success {
		// Невалидное сообщение — ожидаемый результат, не 500
		JSON(w, http.StatusUnprocessableEntity, DataResponse{Data: ProcessingFromDomain(result)})
		return
	}

	Created(w, ProcessingFromDomain(result))
}

// GetMessageSubmission возвращает запись об отправке по ID сообщения.
// GET /api/v1/messages/{id}/submission
func (h *Handler) GetMessageSubmission(w http.ResponseWriter, r *http.Request) {
	messageID := r.PathValue("id")
	if messageID == "" {
		BadRequest(w, "message id is required")
		return
	}

	sub, err := h.tracker.GetByMessageID(r.Context(), messageID)
	if HandleDomainError(w, h.logger, err, "no submission for message") {
		return
	}

	Success(w, SubmissionFromDomain(*sub))
}
