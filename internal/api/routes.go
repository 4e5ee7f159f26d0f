package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Middleware chain
	chain := Chain(
		Recovery(h.logger),
		RequestID(),
		Logging(h.logger),
	)

	// Messages
	mux.Handle("POST /api/v1/messages", chain(http.HandlerFunc(h.SubmitMessage)))
	mux.Handle("GET /api/v1/messages/{id}/submission", chain(http.HandlerFunc(h.GetMessageSubmission)))

	// Submissions
	mux.Handle("GET /api/v1/submissions", chain(http.HandlerFunc(h.ListSubmissions)))
	mux.Handle("GET /api/v1/submissions/{id}", chain(http.HandlerFunc(h.GetSubmission)))
	mux.Handle("POST /api/v1/submissions/{id}/retry", chain(http.HandlerFunc(h.RetrySubmission)))
	mux.Handle("POST /api/v1/submissions/{id}/cancel", chain(http.HandlerFunc(h.CancelSubmission)))
}
