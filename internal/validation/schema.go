package validation

import (
	"fmt"
	"regexp"
)

// RuleDef — JSON-описание одного правила. Схемы хранятся в кэше
// в сериализованном виде и собираются в Rule при построении pipeline.
type RuleDef struct {
	// Kind — вид правила: required, format, length, range, pattern, codelist.
	Kind string `json:"kind"`

	// Path — путь к полю.
	Path string `json:"path"`

	// Format — имя формата для kind == format.
	Format string `json:"format,omitempty"`

	// MinLen, MaxLen — границы для kind == length.
	MinLen int `json:"min_len,omitempty"`
	MaxLen int `json:"max_len,omitempty"`

	// Min, Max — границы для kind == range.
	Min float64 `json:"min,omitempty"`
	Max float64 `json:"max,omitempty"`

	// Pattern — регулярное выражение для kind == pattern.
	Pattern string `json:"pattern,omitempty"`

	// Codes — допустимые значения для kind == codelist.
	Codes []string `json:"codes,omitempty"`
}

// build собирает Rule из описания.
func (d RuleDef) build() (Rule, error) {
	switch d.Kind {
	case "required":
		return Required(d.Path), nil
	case "format":
		return Format(d.Path, d.Format), nil
	case "length":
		return Length(d.Path, d.MinLen, d.MaxLen), nil
	case "range":
		return Range(d.Path, d.Min, d.Max), nil
	case "pattern":
		if _, err := regexp.Compile(d.Pattern); err != nil {
			return nil, fmt.Errorf("rule %s: %w", d.Path, err)
		}
		return Pattern(d.Path, d.Pattern), nil
	case "codelist":
		return CodeList(d.Path, d.Codes...), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownRuleKind, d.Kind)
	}
}

// StageDef — JSON-описание стадии валидации.
type StageDef struct {
	ID        string    `json:"id"`
	Name      string    `json:"name,omitempty"`
	Order     int       `json:"order,omitempty"`
	DependsOn []string  `json:"depends_on,omitempty"`
	Rules     []RuleDef `json:"rules"`
}

// SchemaDef — JSON-описание схемы валидации одного типа сообщения.
type SchemaDef struct {
	MessageType string     `json:"message_type"`
	Stages      []StageDef `json:"stages"`
}

// Валюты, допустимые к расчёту.
var settlementCurrencies = []string{"EUR", "USD", "GBP", "CHF", "JPY"}

// BuiltinSchemas возвращает встроенные схемы валидации.
// Кэш может переопределить их (ключ schema:<messageType>).
func BuiltinSchemas() []SchemaDef {
	return []SchemaDef{
		{
			MessageType: "pacs.008.001.08",
			Stages: []StageDef{
				{
					ID: "header", Name: "Group header", Order: 1,
					Rules: []RuleDef{
						{Kind: "required", Path: "FIToFICstmrCdtTrf.GrpHdr.MsgId"},
						{Kind: "length", Path: "FIToFICstmrCdtTrf.GrpHdr.MsgId", MinLen: 1, MaxLen: 35},
						{Kind: "required", Path: "FIToFICstmrCdtTrf.GrpHdr.CreDtTm"},
						{Kind: "format", Path: "FIToFICstmrCdtTrf.GrpHdr.CreDtTm", Format: "datetime"},
					},
				},
				{
					ID: "parties", Name: "Debtor and creditor", Order: 2, DependsOn: []string{"header"},
					Rules: []RuleDef{
						{Kind: "required", Path: "FIToFICstmrCdtTrf.CdtTrfTxInf.Dbtr.Nm"},
						{Kind: "required", Path: "FIToFICstmrCdtTrf.CdtTrfTxInf.DbtrAcct.Id.IBAN"},
						{Kind: "format", Path: "FIToFICstmrCdtTrf.CdtTrfTxInf.DbtrAcct.Id.IBAN", Format: "iban"},
						{Kind: "required", Path: "FIToFICstmrCdtTrf.CdtTrfTxInf.Cdtr.Nm"},
						{Kind: "required", Path: "FIToFICstmrCdtTrf.CdtTrfTxInf.CdtrAcct.Id.IBAN"},
						{Kind: "format", Path: "FIToFICstmrCdtTrf.CdtTrfTxInf.CdtrAcct.Id.IBAN", Format: "iban"},
						{Kind: "format", Path: "FIToFICstmrCdtTrf.CdtTrfTxInf.DbtrAgt.FinInstnId.BICFI", Format: "bic"},
						{Kind: "format", Path: "FIToFICstmrCdtTrf.CdtTrfTxInf.CdtrAgt.FinInstnId.BICFI", Format: "bic"},
					},
				},
				{
					ID: "amounts", Name: "Settlement amount", Order: 3, DependsOn: []string{"header"},
					Rules: []RuleDef{
						{Kind: "required", Path: "FIToFICstmrCdtTrf.CdtTrfTxInf.IntrBkSttlmAmt"},
						{Kind: "format", Path: "FIToFICstmrCdtTrf.CdtTrfTxInf.IntrBkSttlmAmt", Format: "amount"},
						{Kind: "range", Path: "FIToFICstmrCdtTrf.CdtTrfTxInf.IntrBkSttlmAmt", Min: 0.01, Max: 999999999},
						{Kind: "codelist", Path: "FIToFICstmrCdtTrf.CdtTrfTxInf.IntrBkSttlmAmt@Ccy", Codes: settlementCurrencies},
					},
				},
			},
		},
		{
			MessageType: "pacs.009.001.08",
			Stages: []StageDef{
				{
					ID: "header", Name: "Group header", Order: 1,
					Rules: []RuleDef{
						{Kind: "required", Path: "FICdtTrf.GrpHdr.MsgId"},
						{Kind: "length", Path: "FICdtTrf.GrpHdr.MsgId", MinLen: 1, MaxLen: 35},
						{Kind: "required", Path: "FICdtTrf.GrpHdr.CreDtTm"},
						{Kind: "format", Path: "FICdtTrf.GrpHdr.CreDtTm", Format: "datetime"},
					},
				},
				{
					ID: "agents", Name: "Instructing agents", Order: 2, DependsOn: []string{"header"},
					Rules: []RuleDef{
						{Kind: "required", Path: "FICdtTrf.CdtTrfTxInf.InstgAgt.FinInstnId.BICFI"},
						{Kind: "format", Path: "FICdtTrf.CdtTrfTxInf.InstgAgt.FinInstnId.BICFI", Format: "bic"},
						{Kind: "required", Path: "FICdtTrf.CdtTrfTxInf.InstdAgt.FinInstnId.BICFI"},
						{Kind: "format", Path: "FICdtTrf.CdtTrfTxInf.InstdAgt.FinInstnId.BICFI", Format: "bic"},
					},
				},
				{
					ID: "amounts", Name: "Settlement amount", Order: 3, DependsOn: []string{"header"},
					Rules: []RuleDef{
						{Kind: "required", Path: "FICdtTrf.CdtTrfTxInf.IntrBkSttlmAmt"},
						{Kind: "format", Path: "FICdtTrf.CdtTrfTxInf.IntrBkSttlmAmt", Format: "amount"},
						{Kind: "codelist", Path: "FICdtTrf.CdtTrfTxInf.IntrBkSttlmAmt@Ccy", Codes: settlementCurrencies},
					},
				},
			},
		},
		{
			MessageType: "pain.001.001.09",
			Stages: []StageDef{
				{
					ID: "header", Name: "Group header", Order: 1,
					Rules: []RuleDef{
						{Kind: "required", Path: "CstmrCdtTrfInitn.GrpHdr.MsgId"},
						{Kind: "length", Path: "CstmrCdtTrfInitn.GrpHdr.MsgId", MinLen: 1, MaxLen: 35},
						{Kind: "required", Path: "CstmrCdtTrfInitn.GrpHdr.CreDtTm"},
						{Kind: "format", Path: "CstmrCdtTrfInitn.GrpHdr.CreDtTm", Format: "datetime"},
					},
				},
				{
					ID: "parties", Name: "Debtor and creditor", Order: 2, DependsOn: []string{"header"},
					Rules: []RuleDef{
						{Kind: "required", Path: "CstmrCdtTrfInitn.PmtInf.Dbtr.Nm"},
						{Kind: "required", Path: "CstmrCdtTrfInitn.PmtInf.DbtrAcct.Id.IBAN"},
						{Kind: "format", Path: "CstmrCdtTrfInitn.PmtInf.DbtrAcct.Id.IBAN", Format: "iban"},
						{Kind: "required", Path: "CstmrCdtTrfInitn.PmtInf.CdtTrfTxInf.Cdtr.Nm"},
						{Kind: "required", Path: "CstmrCdtTrfInitn.PmtInf.CdtTrfTxInf.CdtrAcct.Id.IBAN"},
						{Kind: "format", Path: "CstmrCdtTrfInitn.PmtInf.CdtTrfTxInf.CdtrAcct.Id.IBAN", Format: "iban"},
					},
				},
				{
					ID: "amounts", Name: "Instructed amount", Order: 3, DependsOn: []string{"header"},
					Rules: []RuleDef{
						{Kind: "required", Path: "CstmrCdtTrfInitn.PmtInf.CdtTrfTxInf.Amt.InstdAmt"},
						{Kind: "format", Path: "CstmrCdtTrfInitn.PmtInf.CdtTrfTxInf.Amt.InstdAmt", Format: "amount"},
						{Kind: "codelist", Path: "CstmrCdtTrfInitn.PmtInf.CdtTrfTxInf.Amt.InstdAmt@Ccy", Codes: settlementCurrencies},
					},
				},
			},
		},
	}
}
