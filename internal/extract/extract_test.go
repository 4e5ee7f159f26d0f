package extract

import (
	"errors"
	"testing"

	"github.com/shaiso/Clearway/internal/domain"
)

func creditMessage() *domain.ParsedMessage {
	return &domain.ParsedMessage{
		MessageType: "pacs.008.001.08",
		MessageID:   "MSG-1",
		SenderBIC:   "DEUTDEFF",
		ReceiverBIC: "BNPAFRPP",
		Amount:      150000,
		Currency:    "EUR",
		Debtor:      domain.Party{Name: "ACME", Account: "DE89370400440532013000"},
		Creditor:    domain.Party{Name: "Globex", Account: "FR1420041010050500013M02606"},
	}
}

func TestRegistry_For(t *testing.T) {
	r := NewRegistry()

	for _, messageType := range []string{"pacs.008.001.08", "pacs.009.001.08", "pain.001.001.09"} {
		if _, err := r.For(messageType); err != nil {
			t.Errorf("%s: unexpected error: %v", messageType, err)
		}
	}

	if _, err := r.For("camt.053.001.08"); !errors.Is(err, ErrUnknownMessageType) {
		t.Errorf("expected ErrUnknownMessageType, got %v", err)
	}
}

func TestCreditTransfer(t *testing.T) {
	details, err := CreditTransfer{}.ExtractDetails(creditMessage())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if details.SubmissionType != domain.SubmissionTypeCredit {
		t.Errorf("unexpected submission type: %s", details.SubmissionType)
	}
	if details.DebtorAccount != "DE89370400440532013000" {
		t.Errorf("unexpected debtor account: %s", details.DebtorAccount)
	}
	if details.Amount != 150000 || details.Currency != "EUR" {
		t.Errorf("unexpected amount: %d %s", details.Amount, details.Currency)
	}

	msg := creditMessage()
	msg.Creditor.Account = ""
	if _, err := (CreditTransfer{}).ExtractDetails(msg); err == nil {
		t.Error("expected error for missing creditor account")
	}
}

func TestInterbankTransfer(t *testing.T) {
	msg := &domain.ParsedMessage{
		MessageType: "pacs.009.001.08",
		MessageID:   "MSG-FI-1",
		SenderBIC:   "DEUTDEFF",
		ReceiverBIC: "CHASUS33",
		Amount:      500000000,
		Currency:    "USD",
	}

	details, err := InterbankTransfer{}.ExtractDetails(msg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if details.SubmissionType != domain.SubmissionTypeInterbank {
		t.Errorf("unexpected submission type: %s", details.SubmissionType)
	}
	// Счетами межбанковского перевода служат BIC институтов
	if details.DebtorAccount != "DEUTDEFF" || details.CreditorAccount != "CHASUS33" {
		t.Errorf("unexpected accounts: %s / %s", details.DebtorAccount, details.CreditorAccount)
	}

	msg.ReceiverBIC = ""
	if _, err := (InterbankTransfer{}).ExtractDetails(msg); err == nil {
		t.Error("expected error for missing receiver BIC")
	}
}
