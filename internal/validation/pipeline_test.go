package validation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Clearway/internal/cache"
	"github.com/shaiso/Clearway/internal/domain"
	"github.com/shaiso/Clearway/internal/pipeline"
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

func rawMessage(messageType string, payload []byte) *domain.RawMessage {
	return &domain.RawMessage{
		ID:          uuid.New(),
		MessageType: messageType,
		Payload:     payload,
		ReceivedAt:  time.Now(),
	}
}

func TestFactory_ValidMessage(t *testing.T) {
	f := NewFactory(cache.NewMemory(), pipeline.StageConfig{}, nil)

	p, err := f.Pipeline(context.Background(), "pacs.008.001.08")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := p.Validate(context.Background(), rawMessage("pacs.008.001.08", validPacs008))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.Valid {
		t.Errorf("expected valid message, got errors: %v", result.Errors)
	}
}

func TestFactory_InvalidMessage(t *testing.T) {
	// Без MsgId и с недопустимой валютой
	payload := []byte(`<Document>
		<FIToFICstmrCdtTrf>
			<GrpHdr><CreDtTm>2026-08-24T10:00:00Z</CreDtTm></GrpHdr>
			<CdtTrfTxInf>
				<IntrBkSttlmAmt Ccy="XXX">1500.00</IntrBkSttlmAmt>
				<Dbtr><Nm>ACME GmbH</Nm></Dbtr>
				<DbtrAcct><Id><IBAN>DE89370400440532013000</IBAN></Id></DbtrAcct>
				<Cdtr><Nm>Globex Inc</Nm></Cdtr>
				<CdtrAcct><Id><IBAN>FR1420041010050500013M02606</IBAN></Id></CdtrAcct>
			</CdtTrfTxInf>
		</FIToFICstmrCdtTrf>
	</Document>`)

	f := NewFactory(cache.NewMemory(), pipeline.StageConfig{}, nil)
	p, err := f.Pipeline(context.Background(), "pacs.008.001.08")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := p.Validate(context.Background(), rawMessage("pacs.008.001.08", payload))
	if err != nil {
		t.Fatalf("validation failure must be structured, not an error: %v", err)
	}

	if result.Valid {
		t.Fatal("expected invalid message")
	}

	codes := map[string]bool{}
	for _, e := range result.Errors {
		codes[e.Code] = true
	}
	if !codes["REQUIRED_FIELD"] {
		t.Errorf("expected REQUIRED_FIELD among %v", result.Errors)
	}
	if !codes["INVALID_CODE"] {
		t.Errorf("expected INVALID_CODE among %v", result.Errors)
	}
}

func TestFactory_MalformedXMLIsStructuredResult(t *testing.T) {
	f := NewFactory(cache.NewMemory(), pipeline.StageConfig{}, nil)
	p, err := f.Pipeline(context.Background(), "pacs.008.001.08")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := p.Validate(context.Background(), rawMessage("pacs.008.001.08", []byte("<broken")))
	if err != nil {
		t.Fatalf("malformed XML must not produce an error: %v", err)
	}
	if result.Valid {
		t.Fatal("malformed XML must be invalid")
	}
	if result.Errors[0].Code != "MALFORMED_XML" {
		t.Errorf("unexpected code: %s", result.Errors[0].Code)
	}
}

func TestFactory_UnknownMessageType(t *testing.T) {
	f := NewFactory(cache.NewMemory(), pipeline.StageConfig{}, nil)

	_, err := f.Pipeline(context.Background(), "camt.053.001.08")
	if !errors.Is(err, ErrUnknownMessageType) {
		t.Errorf("expected ErrUnknownMessageType, got %v", err)
	}
}

func TestFactory_SchemaCached(t *testing.T) {
	mem := cache.NewMemory()
	f := NewFactory(mem, pipeline.StageConfig{}, nil)

	if _, err := f.Pipeline(context.Background(), "pacs.008.001.08"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Построение pipeline прогревает кэш схем
	if _, ok, _ := mem.Get(context.Background(), cache.SchemaKey("pacs.008.001.08")); !ok {
		t.Error("schema should be cached after first build")
	}
}

func TestFactory_RegisterRule(t *testing.T) {
	f := NewFactory(cache.NewMemory(), pipeline.StageConfig{}, nil)
	f.RegisterRule("pacs.008.001.08", "parties", CrossField("ACCOUNTS_DISTINCT", func(fields Fields) *domain.ValidationError {
		debtor, _ := fields.First("FIToFICstmrCdtTrf.CdtTrfTxInf.DbtrAcct.Id.IBAN")
		creditor, _ := fields.First("FIToFICstmrCdtTrf.CdtTrfTxInf.CdtrAcct.Id.IBAN")
		if debtor != "" && debtor == creditor {
			return &domain.ValidationError{Message: "debtor and creditor accounts must differ"}
		}
		return nil
	}))

	// Сообщение с совпадающими счетами
	payload := []byte(`<Document>
		<FIToFICstmrCdtTrf>
			<GrpHdr><MsgId>MSG-1</MsgId><CreDtTm>2026-08-24T10:00:00Z</CreDtTm></GrpHdr>
			<CdtTrfTxInf>
				<IntrBkSttlmAmt Ccy="EUR">10.00</IntrBkSttlmAmt>
				<Dbtr><Nm>ACME</Nm></Dbtr>
				<DbtrAcct><Id><IBAN>DE89370400440532013000</IBAN></Id></DbtrAcct>
				<Cdtr><Nm>ACME</Nm></Cdtr>
				<CdtrAcct><Id><IBAN>DE89370400440532013000</IBAN></Id></CdtrAcct>
			</CdtTrfTxInf>
		</FIToFICstmrCdtTrf>
	</Document>`)

	p, err := f.Pipeline(context.Background(), "pacs.008.001.08")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := p.Validate(context.Background(), rawMessage("pacs.008.001.08", payload))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Valid {
		t.Fatal("expected cross-field violation")
	}

	found := false
	for _, e := range result.Errors {
		if e.Code == "ACCOUNTS_DISTINCT" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected ACCOUNTS_DISTINCT among %v", result.Errors)
	}
}
