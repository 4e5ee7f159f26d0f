package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shaiso/Clearway/internal/config"
	"github.com/shaiso/Clearway/internal/domain"
	"github.com/shaiso/Clearway/internal/protocol"
	"github.com/shaiso/Clearway/internal/repo"
	"github.com/shaiso/Clearway/internal/tracker"
)

// fakeProcessor — Processor с фиксированным результатом.
type fakeProcessor struct {
	result *domain.ProcessingResult
	err    error
}

func (f *fakeProcessor) ProcessMessage(context.Context, *domain.RawMessage) (*domain.ProcessingResult, error) {
	return f.result, f.err
}

// memStore — tracker.Store в памяти.
type memStore struct {
	records map[uuid.UUID]*domain.SubmissionRecord
}

func newMemStore() *memStore {
	return &memStore{records: make(map[uuid.UUID]*domain.SubmissionRecord)}
}

func (s *memStore) Create(_ context.Context, sub *domain.SubmissionRecord) error {
	cp := *sub
	s.records[sub.ID] = &cp
	return nil
}

func (s *memStore) GetByID(_ context.Context, id uuid.UUID) (*domain.SubmissionRecord, error) {
	sub, ok := s.records[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *sub
	return &cp, nil
}

func (s *memStore) GetByMessageID(_ context.Context, messageID string) (*domain.SubmissionRecord, error) {
	for _, sub := range s.records {
		if sub.MessageID == messageID {
			cp := *sub
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (s *memStore) Update(_ context.Context, sub *domain.SubmissionRecord) error {
	if _, ok := s.records[sub.ID]; !ok {
		return repo.ErrNotFound
	}
	cp := *sub
	s.records[sub.ID] = &cp
	return nil
}

func (s *memStore) List(_ context.Context, filter repo.SubmissionFilter) ([]domain.SubmissionRecord, error) {
	var subs []domain.SubmissionRecord
	for _, sub := range s.records {
		if filter.Status != "" && sub.Status != filter.Status {
			continue
		}
		subs = append(subs, *sub)
	}
	return subs, nil
}

func (s *memStore) ListUnsettled(context.Context, int) ([]domain.SubmissionRecord, error) {
	return nil, nil
}

// fakeNetwork — protocol.Client для retry/cancel.
type fakeNetwork struct{}

func (fakeNetwork) SubmitMessage(_ context.Context, req protocol.SubmitRequest) (*domain.TransactionResponse, error) {
	return &domain.TransactionResponse{MessageID: req.MessageID, TransactionHash: "0x1"}, nil
}

func (fakeNetwork) RetryMessage(_ context.Context, req protocol.SubmitRequest) (*domain.TransactionResponse, error) {
	return &domain.TransactionResponse{MessageID: req.MessageID, TransactionHash: "0xretry"}, nil
}

func (fakeNetwork) GetMessageResult(context.Context, string) (*protocol.MessageResult, error) {
	return nil, protocol.ErrTransactionNotFound
}

func (fakeNetwork) CancelMessage(context.Context, string) error { return nil }

func newServer(t *testing.T, processor Processor, store tracker.Store) *httptest.Server {
	t.Helper()

	tr := tracker.New(store, fakeNetwork{}, nil, config.Static{}, nil)
	h := NewHandler(Config{Processor: processor, Tracker: tr})

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestSubmitMessage_Sync(t *testing.T) {
	processor := &fakeProcessor{result: &domain.ProcessingResult{
		Success:          true,
		ProcessedMessage: &domain.ParsedMessage{MessageID: "MSG-1"},
		TransactionResponse: &domain.TransactionResponse{
			TransactionHash: "0xabc",
			Status:          protocol.TxPending,
			Fees:            42,
		},
	}}
	srv := newServer(t, processor, newMemStore())

	resp := postJSON(t, srv.URL+"/api/v1/messages",
		`{"message_type":"pacs.008.001.08","payload":"<Document/>"}`)

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}

	var dr struct {
		Data ProcessingResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !dr.Data.Success || dr.Data.Transaction.TransactionHash != "0xabc" {
		t.Errorf("unexpected body: %+v", dr.Data)
	}
}

func TestSubmitMessage_InvalidMessageIs422(t *testing.T) {
	processor := &fakeProcessor{result: &domain.ProcessingResult{
		Success: false,
		Errors:  []string{"MsgId is required"},
	}}
	srv := newServer(t, processor, newMemStore())

	resp := postJSON(t, srv.URL+"/api/v1/messages",
		`{"message_type":"pacs.008.001.08","payload":"<Document/>"}`)

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("unexpected status: %d", resp.StatusCode)
	}
}

func TestSubmitMessage_BadRequests(t *testing.T) {
	srv := newServer(t, &fakeProcessor{}, newMemStore())

	cases := []string{
		`not json`,
		`{"payload":"<Document/>"}`,
		`{"message_type":"pacs.008.001.08"}`,
	}
	for _, body := range cases {
		resp := postJSON(t, srv.URL+"/api/v1/messages", body)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("body %q: unexpected status %d", body, resp.StatusCode)
		}
	}
}

func TestSubmitMessage_AsyncWithoutBroker(t *testing.T) {
	srv := newServer(t, &fakeProcessor{}, newMemStore())

	resp := postJSON(t, srv.URL+"/api/v1/messages",
		`{"message_type":"pacs.008.001.08","payload":"<Document/>","async":true}`)

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("unexpected status: %d", resp.StatusCode)
	}
}

func TestSubmitMessage_ProcessorFailure(t *testing.T) {
	srv := newServer(t, &fakeProcessor{err: errors.New("db down")}, newMemStore())

	resp := postJSON(t, srv.URL+"/api/v1/messages",
		`{"message_type":"pacs.008.001.08","payload":"<Document/>"}`)

	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("unexpected status: %d", resp.StatusCode)
	}
}

func TestRequestIDHeader(t *testing.T) {
	srv := newServer(t, &fakeProcessor{}, newMemStore())

	// Без заголовка — идентификатор генерируется
	resp, err := http.Get(srv.URL + "/api/v1/submissions")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()
	if id := resp.Header.Get(HeaderRequestID); id == "" {
		t.Error("response must carry a generated request id")
	}

	// Идентификатор клиента сохраняется
	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/submissions", nil)
	req.Header.Set(HeaderRequestID, "client-trace-1")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()
	if id := resp.Header.Get(HeaderRequestID); id != "client-trace-1" {
		t.Errorf("client request id must be preserved, got %q", id)
	}
}

func seed(store *memStore, status domain.SubmissionStatus) uuid.UUID {
	id := uuid.New()
	store.records[id] = &domain.SubmissionRecord{
		ID:              id,
		MessageID:       "MSG-" + id.String()[:8],
		TransactionHash: "0x1",
		Status:          status,
	}
	return id
}

func TestGetSubmission(t *testing.T) {
	store := newMemStore()
	id := seed(store, domain.SubmissionStatusPending)
	srv := newServer(t, &fakeProcessor{}, store)

	resp, err := http.Get(srv.URL + "/api/v1/submissions/" + id.String())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}

	var dr struct {
		Data SubmissionResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dr.Data.ID != id.String() || dr.Data.Status != "PENDING" {
		t.Errorf("unexpected body: %+v", dr.Data)
	}
}

func TestGetSubmission_Errors(t *testing.T) {
	srv := newServer(t, &fakeProcessor{}, newMemStore())

	resp, _ := http.Get(srv.URL + "/api/v1/submissions/not-a-uuid")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unexpected status: %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp, _ = http.Get(srv.URL + "/api/v1/submissions/" + uuid.New().String())
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unexpected status: %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestGetMessageSubmission(t *testing.T) {
	store := newMemStore()
	id := seed(store, domain.SubmissionStatusProcessing)
	messageID := store.records[id].MessageID
	srv := newServer(t, &fakeProcessor{}, store)

	resp, err := http.Get(srv.URL + "/api/v1/messages/" + messageID + "/submission")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}

	var dr struct {
		Data SubmissionResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dr.Data.MessageID != messageID {
		t.Errorf("unexpected body: %+v", dr.Data)
	}

	resp, _ = http.Get(srv.URL + "/api/v1/messages/MSG-UNKNOWN/submission")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unexpected status: %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestListSubmissions_StatusFilter(t *testing.T) {
	store := newMemStore()
	seed(store, domain.SubmissionStatusPending)
	seed(store, domain.SubmissionStatusFailed)
	srv := newServer(t, &fakeProcessor{}, store)

	resp, err := http.Get(srv.URL + "/api/v1/submissions?status=FAILED")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	var lr struct {
		Data  []SubmissionResponse `json:"data"`
		Total int                  `json:"total"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lr.Data) != 1 || lr.Data[0].Status != "FAILED" {
		t.Errorf("unexpected body: %+v", lr.Data)
	}
}

func TestRetrySubmission(t *testing.T) {
	store := newMemStore()
	id := seed(store, domain.SubmissionStatusFailed)
	srv := newServer(t, &fakeProcessor{}, store)

	resp := postJSON(t, srv.URL+"/api/v1/submissions/"+id.String()+"/retry", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}

	var dr struct {
		Data SubmissionResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dr.Data.Status != "PENDING" || dr.Data.TransactionHash != "0xretry" {
		t.Errorf("unexpected body: %+v", dr.Data)
	}
}

func TestRetrySubmission_InvalidState(t *testing.T) {
	store := newMemStore()
	id := seed(store, domain.SubmissionStatusCompleted)
	srv := newServer(t, &fakeProcessor{}, store)

	resp := postJSON(t, srv.URL+"/api/v1/submissions/"+id.String()+"/retry", "")
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("unexpected status: %d", resp.StatusCode)
	}
}

func TestCancelSubmission(t *testing.T) {
	store := newMemStore()
	id := seed(store, domain.SubmissionStatusProcessing)
	srv := newServer(t, &fakeProcessor{}, store)

	resp := postJSON(t, srv.URL+"/api/v1/submissions/"+id.String()+"/cancel", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}

	var dr struct {
		Data SubmissionResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dr.Data.Status != "CANCELLED" {
		t.Errorf("unexpected body: %+v", dr.Data)
	}
}

func TestCancelSubmission_Terminal(t *testing.T) {
	store := newMemStore()
	id := seed(store, domain.SubmissionStatusCancelled)
	srv := newServer(t, &fakeProcessor{}, store)

	resp := postJSON(t, srv.URL+"/api/v1/submissions/"+id.String()+"/cancel", "")
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("unexpected status: %d", resp.StatusCode)
	}
}
