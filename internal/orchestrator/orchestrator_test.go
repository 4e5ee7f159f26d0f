package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Clearway/internal/cache"
	"github.com/shaiso/Clearway/internal/config"
	"github.com/shaiso/Clearway/internal/domain"
	"github.com/shaiso/Clearway/internal/extract"
	"github.com/shaiso/Clearway/internal/pipeline"
	"github.com/shaiso/Clearway/internal/processing"
	"github.com/shaiso/Clearway/internal/protocol"
	"github.com/shaiso/Clearway/internal/repo"
	"github.com/shaiso/Clearway/internal/tracker"
	"github.com/shaiso/Clearway/internal/transform"
	"github.com/shaiso/Clearway/internal/validation"
)

var validPacs008 = []byte(`<Document xmlns="urn:iso:std:iso:20022:tech:xsd:pacs.008.001.08">
	<FIToFICstmrCdtTrf>
		<GrpHdr>
			<MsgId>MSG-2026-0001</MsgId>
			<CreDtTm>2026-08-24T10:00:00Z</CreDtTm>
		</GrpHdr>
		<CdtTrfTxInf>
			<IntrBkSttlmAmt Ccy="EUR">1500.00</IntrBkSttlmAmt>
			<Dbtr><Nm>ACME GmbH</Nm></Dbtr>
			<DbtrAcct><Id><IBAN>DE89370400440532013000</IBAN></Id></DbtrAcct>
			<DbtrAgt><FinInstnId><BICFI>DEUTDEFF</BICFI></FinInstnId></DbtrAgt>
			<Cdtr><Nm>Globex Inc</Nm></Cdtr>
			<CdtrAcct><Id><IBAN>FR1420041010050500013M02606</IBAN></Id></CdtrAcct>
			<CdtrAgt><FinInstnId><BICFI>BNPAFRPP</BICFI></FinInstnId></CdtrAgt>
		</CdtTrfTxInf>
	</FIToFICstmrCdtTrf>
</Document>`)

// fakeNetwork — protocol.Client, принимающий всё.
type fakeNetwork struct {
	submitErr error
	submitted []protocol.SubmitRequest
}

func (f *fakeNetwork) SubmitMessage(_ context.Context, req protocol.SubmitRequest) (*domain.TransactionResponse, error) {
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	f.submitted = append(f.submitted, req)
	return &domain.TransactionResponse{
		MessageID:       req.MessageID,
		TransactionHash: "0xabc",
		Status:          protocol.TxPending,
		Fees:            42,
	}, nil
}

func (f *fakeNetwork) RetryMessage(_ context.Context, req protocol.SubmitRequest) (*domain.TransactionResponse, error) {
	return &domain.TransactionResponse{MessageID: req.MessageID, TransactionHash: "0xnew"}, nil
}

func (f *fakeNetwork) GetMessageResult(context.Context, string) (*protocol.MessageResult, error) {
	return nil, protocol.ErrTransactionNotFound
}

func (f *fakeNetwork) CancelMessage(context.Context, string) error { return nil }

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
	cp := *sub
	s.records[sub.ID] = &cp
	return nil
}

func (s *memStore) List(context.Context, repo.SubmissionFilter) ([]domain.SubmissionRecord, error) {
	return nil, nil
}

func (s *memStore) ListUnsettled(context.Context, int) ([]domain.SubmissionRecord, error) {
	return nil, nil
}

func newOrchestrator(t *testing.T, network protocol.Client, store tracker.Store) *Orchestrator {
	t.Helper()

	provider := config.Static{"chain.EUR": "sepa-instant"}

	processor, err := processing.New(processing.Config{}, extract.NewRegistry(), provider, network, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	return New(
		validation.NewFactory(cache.NewMemory(), pipeline.StageConfig{}, nil),
		transform.NewFactory(pipeline.StageConfig{}, nil),
		processor,
		tracker.New(store, network, nil, provider, nil),
		nil,
		nil,
	)
}

func rawMessage(payload []byte) *domain.RawMessage {
	return &domain.RawMessage{
		ID:          uuid.New(),
		MessageType: "pacs.008.001.08",
		Payload:     payload,
		ReceivedAt:  time.Now(),
	}
}

func TestProcessMessage_Success(t *testing.T) {
	network := &fakeNetwork{}
	store := newMemStore()
	o := newOrchestrator(t, network, store)

	result, err := o.ProcessMessage(context.Background(), rawMessage(validPacs008))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.Success {
		t.Fatalf("expected success, got errors: %v", result.Errors)
	}
	if result.ProcessedMessage == nil || result.ProcessedMessage.MessageID != "MSG-2026-0001" {
		t.Errorf("unexpected parsed message: %+v", result.ProcessedMessage)
	}
	if result.TransactionResponse == nil || result.TransactionResponse.TransactionHash != "0xabc" {
		t.Errorf("unexpected transaction: %+v", result.TransactionResponse)
	}

	// Запись об отправке создана в PENDING
	sub, err := store.GetByMessageID(context.Background(), "MSG-2026-0001")
	if err != nil {
		t.Fatalf("submission record missing: %v", err)
	}
	if sub.Status != domain.SubmissionStatusPending || sub.TransactionHash != "0xabc" {
		t.Errorf("unexpected record: %+v", sub)
	}

	if len(network.submitted) != 1 || network.submitted[0].ChainRef != "sepa-instant" {
		t.Errorf("unexpected network submission: %+v", network.submitted)
	}
}

func TestProcessMessage_InvalidMessageIsBusinessResult(t *testing.T) {
	// Без MsgId: сообщение невалидно, но это не ошибка выполнения
	payload := []byte(`<Document>
		<FIToFICstmrCdtTrf>
			<GrpHdr><CreDtTm>2026-08-24T10:00:00Z</CreDtTm></GrpHdr>
			<CdtTrfTxInf>
				<IntrBkSttlmAmt Ccy="EUR">10.00</IntrBkSttlmAmt>
				<Dbtr><Nm>ACME</Nm></Dbtr>
				<DbtrAcct><Id><IBAN>DE89370400440532013000</IBAN></Id></DbtrAcct>
				<Cdtr><Nm>Globex</Nm></Cdtr>
				<CdtrAcct><Id><IBAN>FR1420041010050500013M02606</IBAN></Id></CdtrAcct>
			</CdtTrfTxInf>
		</FIToFICstmrCdtTrf>
	</Document>`)

	network := &fakeNetwork{}
	store := newMemStore()
	o := newOrchestrator(t, network, store)

	result, err := o.ProcessMessage(context.Background(), rawMessage(payload))
	if err != nil {
		t.Fatalf("validation failure must be structured, not an error: %v", err)
	}

	if result.Success {
		t.Fatal("expected business failure")
	}
	if len(result.Errors) == 0 {
		t.Error("expected validation error messages")
	}
	if len(network.submitted) != 0 {
		t.Error("invalid message must not reach the network")
	}
	if len(store.records) != 0 {
		t.Error("invalid message must not create a submission record")
	}
}

func TestProcessMessage_UnknownType(t *testing.T) {
	o := newOrchestrator(t, &fakeNetwork{}, newMemStore())

	raw := rawMessage(validPacs008)
	raw.MessageType = "camt.053.001.08"

	_, err := o.ProcessMessage(context.Background(), raw)
	if !errors.Is(err, validation.ErrUnknownMessageType) {
		t.Errorf("expected validation.ErrUnknownMessageType, got %v", err)
	}
}

func TestProcessMessage_NetworkFailurePropagates(t *testing.T) {
	network := &fakeNetwork{submitErr: errors.New("network down")}
	store := newMemStore()
	o := newOrchestrator(t, network, store)

	_, err := o.ProcessMessage(context.Background(), rawMessage(validPacs008))
	if err == nil {
		t.Fatal("expected error")
	}

	var se *pipeline.StageError
	if !errors.As(err, &se) {
		t.Fatalf("expected StageError in chain, got %v", err)
	}
	if se.Kind != pipeline.KindSubmission {
		t.Errorf("unexpected kind: %s", se.Kind)
	}
	if len(store.records) != 0 {
		t.Error("failed submission must not create a record")
	}
}
