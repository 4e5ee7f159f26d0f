package validation

import (
	"testing"

	"github.com/shaiso/Clearway/internal/domain"
)

func TestParseFields(t *testing.T) {
	payload := []byte(`<Document xmlns="urn:iso:std:iso:20022:tech:xsd:pacs.008.001.08">
		<FIToFICstmrCdtTrf>
			<GrpHdr><MsgId>MSG-001</MsgId></GrpHdr>
			<CdtTrfTxInf>
				<IntrBkSttlmAmt Ccy="EUR">1500.00</IntrBkSttlmAmt>
			</CdtTrfTxInf>
		</FIToFICstmrCdtTrf>
	</Document>`)

	fields, err := ParseFields(payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if v, _ := fields.First("FIToFICstmrCdtTrf.GrpHdr.MsgId"); v != "MSG-001" {
		t.Errorf("unexpected MsgId: %q", v)
	}
	if v, _ := fields.First("FIToFICstmrCdtTrf.CdtTrfTxInf.IntrBkSttlmAmt"); v != "1500.00" {
		t.Errorf("unexpected amount: %q", v)
	}
	if v, _ := fields.Attr("FIToFICstmrCdtTrf.CdtTrfTxInf.IntrBkSttlmAmt", "Ccy"); v != "EUR" {
		t.Errorf("unexpected currency attribute: %q", v)
	}
}

func TestParseFields_MalformedXML(t *testing.T) {
	if _, err := ParseFields([]byte("<Document><Unclosed>")); err == nil {
		t.Error("expected error for malformed XML")
	}
	if _, err := ParseFields([]byte("   ")); err == nil {
		t.Error("expected error for empty document")
	}
}

func TestRequired(t *testing.T) {
	fields := Fields{"GrpHdr.MsgId": {"MSG-001"}, "Empty": {"  "}}

	if violations := Required("GrpHdr.MsgId").Check(fields); len(violations) != 0 {
		t.Errorf("present field should pass: %v", violations)
	}

	violations := Required("GrpHdr.CreDtTm").Check(fields)
	if len(violations) != 1 {
		t.Fatalf("expected 1 violation, got %d", len(violations))
	}
	if violations[0].Code != "REQUIRED_FIELD" {
		t.Errorf("unexpected code: %s", violations[0].Code)
	}
	if violations[0].Severity != domain.SeverityError {
		t.Errorf("unexpected severity: %s", violations[0].Severity)
	}

	// Поле из одних пробелов считается пустым
	if violations := Required("Empty").Check(fields); len(violations) != 1 {
		t.Error("whitespace-only field should fail required check")
	}
}

func TestFormat(t *testing.T) {
	cases := []struct {
		format string
		value  string
		valid  bool
	}{
		{"bic", "DEUTDEFF", true},
		{"bic", "DEUTDEFF500", true},
		{"bic", "deutdeff", false},
		{"iban", "DE89370400440532013000", true},
		{"iban", "XX00", false},
		{"currency", "EUR", true},
		{"currency", "EURO", false},
		{"amount", "1500.00", true},
		{"amount", "-5", false},
		{"datetime", "2026-08-24T10:00:00Z", true},
		{"datetime", "24.08.2026", false},
	}

	for _, tc := range cases {
		fields := Fields{"f": {tc.value}}
		violations := Format("f", tc.format).Check(fields)
		if tc.valid && len(violations) != 0 {
			t.Errorf("%s %q: expected valid, got %v", tc.format, tc.value, violations)
		}
		if !tc.valid && len(violations) == 0 {
			t.Errorf("%s %q: expected violation", tc.format, tc.value)
		}
	}

	// Отсутствие поля — забота Required, не Format
	if violations := Format("missing", "bic").Check(Fields{}); len(violations) != 0 {
		t.Error("format rule should skip missing fields")
	}
}

func TestLengthRangeCodeList(t *testing.T) {
	fields := Fields{
		"id":     {"MSG-0001"},
		"amount": {"250.50"},
		"ccy":    {"EUR"},
	}

	if v := Length("id", 1, 35).Check(fields); len(v) != 0 {
		t.Errorf("length should pass: %v", v)
	}
	if v := Length("id", 10, 35).Check(fields); len(v) != 1 {
		t.Error("too-short value should fail")
	}

	if v := Range("amount", 0.01, 1000).Check(fields); len(v) != 0 {
		t.Errorf("range should pass: %v", v)
	}
	if v := Range("amount", 500, 1000).Check(fields); len(v) != 1 {
		t.Error("below-min value should fail")
	}

	if v := CodeList("ccy", "EUR", "USD").Check(fields); len(v) != 0 {
		t.Errorf("codelist should pass: %v", v)
	}
	if v := CodeList("ccy", "USD", "GBP").Check(fields); len(v) != 1 {
		t.Error("code outside list should fail")
	}
}

func TestCrossField(t *testing.T) {
	rule := CrossField("ACCOUNTS_DISTINCT", func(f Fields) *domain.ValidationError {
		debtor, _ := f.First("DbtrAcct")
		creditor, _ := f.First("CdtrAcct")
		if debtor != "" && debtor == creditor {
			return &domain.ValidationError{
				Message: "debtor and creditor accounts must differ",
				Path:    "CdtrAcct",
			}
		}
		return nil
	})

	same := Fields{"DbtrAcct": {"DE89"}, "CdtrAcct": {"DE89"}}
	violations := rule.Check(same)
	if len(violations) != 1 {
		t.Fatalf("expected 1 violation, got %d", len(violations))
	}
	if violations[0].Code != "ACCOUNTS_DISTINCT" {
		t.Errorf("rule code should be filled in: %s", violations[0].Code)
	}

	distinct := Fields{"DbtrAcct": {"DE89"}, "CdtrAcct": {"FR14"}}
	if v := rule.Check(distinct); len(v) != 0 {
		t.Errorf("distinct accounts should pass: %v", v)
	}
}
