package api

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/shaiso/Clearway/internal/domain"
	"github.com/shaiso/Clearway/internal/repo"
)

// ListSubmissions возвращает записи об отправках с фильтрацией.
// GET /api/v1/submissions?status=...&limit=...&offset=...
func (h *Handler) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	filter := repo.SubmissionFilter{Limit: 50}

	if status := r.URL.Query().Get("status"); status != "" {
		filter.Status = domain.SubmissionStatus(status)
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			filter.Limit = limit
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil && offset >= 0 {
			filter.Offset = offset
		}
	}

	subs, err := h.tracker.List(r.Context(), filter)
	if HandleDomainError(w, h.logger, err, "") {
		return
	}

	result := make([]SubmissionResponse, len(subs))
	for i, sub := range subs {
		result[i] = SubmissionFromDomain(sub)
	}

	List(w, result, len(result))
}

// GetSubmission возвращает запись по ID.
// GET /api/v1/submissions/{id}
func (h *Handler) GetSubmission(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid submission id")
		return
	}

	sub, err := h.tracker.Get(r.Context(), id)
	if HandleDomainError(w, h.logger, err, "submission not found") {
		return
	}

	Success(w, SubmissionFromDomain(*sub))
}

// RetrySubmission повторно отправляет неуспешную запись.
// POST /api/v1/submissions/{id}/retry
func (h *Handler) RetrySubmission(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid submission id")
		return
	}

	sub, err := h.tracker.Retry(r.Context(), id)
	if HandleDomainError(w, h.logger, err, "submission not found") {
		return
	}

	Success(w, SubmissionFromDomain(*sub))
}

// CancelSubmission отменяет ещё не рассчитанную запись.
// POST /api/v1/submissions/{id}/cancel
func (h *Handler) CancelSubmission(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid submission id")
		return
	}

	sub, err := h.tracker.Cancel(r.Context(), id)
	if HandleDomainError(w, h.logger, err, "submission not found") {
		return
	}

	Success(w, SubmissionFromDomain(*sub))
}
