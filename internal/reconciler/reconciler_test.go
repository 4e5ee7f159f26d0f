package reconciler

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Clearway/internal/config"
	"github.com/shaiso/Clearway/internal/domain"
	"github.com/shaiso/Clearway/internal/protocol"
	"github.com/shaiso/Clearway/internal/repo"
	"github.com/shaiso/Clearway/internal/tracker"
)

func TestParseSchedule_Interval(t *testing.T) {
	s, err := ParseSchedule("30s")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	now := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	if next := s.Next(now); !next.Equal(now.Add(30 * time.Second)) {
		t.Errorf("unexpected next: %v", next)
	}
}

func TestParseSchedule_Cron(t *testing.T) {
	s, err := ParseSchedule("*/5 * * * *")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	now := time.Date(2026, 8, 24, 10, 2, 30, 0, time.UTC)
	want := time.Date(2026, 8, 24, 10, 5, 0, 0, time.UTC)
	if next := s.Next(now); !next.Equal(want) {
		t.Errorf("got %v, want %v", next, want)
	}
}

func TestParseSchedule_Invalid(t *testing.T) {
	if _, err := ParseSchedule("whenever"); err == nil {
		t.Error("expected error for garbage schedule")
	}
	if _, err := ParseSchedule("-5s"); err == nil {
		t.Error("expected error for negative interval")
	}
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

func (s *memStore) List(context.Context, repo.SubmissionFilter) ([]domain.SubmissionRecord, error) {
	return nil, nil
}

func (s *memStore) ListUnsettled(_ context.Context, _ int) ([]domain.SubmissionRecord, error) {
	var subs []domain.SubmissionRecord
	for _, sub := range s.records {
		switch sub.Status {
		case domain.SubmissionStatusPending, domain.SubmissionStatusProcessing, domain.SubmissionStatusRetrying:
			subs = append(subs, *sub)
		}
	}
	return subs, nil
}

// fakeNetwork — protocol.Client с фиксированными результатами по хэшу.
type fakeNetwork struct {
	results map[string]*protocol.MessageResult
}

func (f *fakeNetwork) SubmitMessage(_ context.Context, req protocol.SubmitRequest) (*domain.TransactionResponse, error) {
	return &domain.TransactionResponse{MessageID: req.MessageID}, nil
}

func (f *fakeNetwork) RetryMessage(_ context.Context, req protocol.SubmitRequest) (*domain.TransactionResponse, error) {
	return &domain.TransactionResponse{MessageID: req.MessageID}, nil
}

func (f *fakeNetwork) GetMessageResult(_ context.Context, txHash string) (*protocol.MessageResult, error) {
	result, ok := f.results[txHash]
	if !ok {
		return nil, protocol.ErrTransactionNotFound
	}
	return result, nil
}

func (f *fakeNetwork) CancelMessage(context.Context, string) error { return nil }

func seed(store *memStore, messageID, txHash string, status domain.SubmissionStatus) uuid.UUID {
	id := uuid.New()
	store.records[id] = &domain.SubmissionRecord{
		ID:              id,
		MessageID:       messageID,
		TransactionHash: txHash,
		Status:          status,
	}
	return id
}

func TestReconcileOnce(t *testing.T) {
	store := newMemStore()
	confirmed := seed(store, "MSG-1", "0x1", domain.SubmissionStatusProcessing)
	rejected := seed(store, "MSG-2", "0x2", domain.SubmissionStatusPending)
	pending := seed(store, "MSG-3", "0x3", domain.SubmissionStatusProcessing)
	lost := seed(store, "MSG-4", "0x4", domain.SubmissionStatusPending)
	done := seed(store, "MSG-5", "0x5", domain.SubmissionStatusCompleted)

	network := &fakeNetwork{results: map[string]*protocol.MessageResult{
		"0x1": {TransactionHash: "0x1", Status: protocol.TxConfirmed, Fees: 10},
		"0x2": {TransactionHash: "0x2", Status: protocol.TxRejected, Reason: "insufficient liquidity"},
		"0x3": {TransactionHash: "0x3", Status: protocol.TxPending},
	}}

	tr := tracker.New(store, network, nil, config.Static{}, nil)
	r := New(tr, network, Schedule{interval: time.Minute}, nil)

	if err := r.ReconcileOnce(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expect := map[uuid.UUID]domain.SubmissionStatus{
		confirmed: domain.SubmissionStatusCompleted,
		rejected:  domain.SubmissionStatusFailed,
		pending:   domain.SubmissionStatusProcessing,
		lost:      domain.SubmissionStatusFailed,
		done:      domain.SubmissionStatusCompleted,
	}
	for id, want := range expect {
		got := store.records[id].Status
		if got != want {
			t.Errorf("%s: got %s, want %s", store.records[id].MessageID, got, want)
		}
	}

	if store.records[confirmed].Fees != 10 {
		t.Errorf("final fees not applied: %d", store.records[confirmed].Fees)
	}
	if store.records[lost].Error == "" {
		t.Error("lost transaction should carry an error")
	}
}

func TestReconcileOnce_EmptyBatch(t *testing.T) {
	store := newMemStore()
	network := &fakeNetwork{}
	tr := tracker.New(store, network, nil, config.Static{}, nil)
	r := New(tr, network, Schedule{interval: time.Minute}, nil)

	if err := r.ReconcileOnce(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	store := newMemStore()
	network := &fakeNetwork{}
	tr := tracker.New(store, network, nil, config.Static{}, nil)
	r := New(tr, network, Schedule{interval: time.Hour}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("reconciler did not stop")
	}
}
