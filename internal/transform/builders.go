package transform

import (
	"context"
	"fmt"
	"time"

	"github.com/shaiso/Clearway/internal/domain"
)

// builders — наборы стадий по типам сообщений.
// Каждый builder возвращает свежие стадии: Stage хранит состояние
// зависимостей и не переиспользуется между pipeline.
var builders = map[string]func() []*Stage{
	"pacs.008.001.08": pacs008Stages,
	"pacs.009.001.08": pacs009Stages,
	"pain.001.001.09": pain001Stages,
}

// headerStage заполняет MessageID и CreatedAt из group header.
func headerStage(root string) *Stage {
	return NewStage("header", "Group header", 1, func(_ context.Context, st *State) error {
		msgID, ok := st.Fields.First(root + ".GrpHdr.MsgId")
		if !ok {
			return fmt.Errorf("missing %s.GrpHdr.MsgId", root)
		}
		st.Parsed.MessageID = msgID

		if created, ok := st.Fields.First(root + ".GrpHdr.CreDtTm"); ok {
			ts, err := time.Parse(time.RFC3339, created)
			if err != nil {
				return fmt.Errorf("bad CreDtTm %q: %w", created, err)
			}
			st.Parsed.CreatedAt = ts
		}

		return nil
	})
}

// amountStage заполняет Amount и Currency из пути с атрибутом Ccy.
func amountStage(path string) *Stage {
	return NewStage("amounts", "Settlement amount", 3, func(_ context.Context, st *State) error {
		value, ok := st.Fields.First(path)
		if !ok {
			return fmt.Errorf("missing %s", path)
		}
		currency, ok := st.Fields.Attr(path, "Ccy")
		if !ok {
			return fmt.Errorf("missing currency attribute on %s", path)
		}

		amount, err := parseAmount(value, currency)
		if err != nil {
			return err
		}

		st.Parsed.Amount = amount
		st.Parsed.Currency = currency
		return nil
	}, "header")
}

// finalizeStage прикладывает исходный XML и проверяет полноту сообщения.
func finalizeStage(deps ...string) *Stage {
	return NewStage("finalize", "Completeness check", 10, func(_ context.Context, st *State) error {
		st.Parsed.Raw = st.Raw.Payload

		if !st.Parsed.Complete() {
			return fmt.Errorf("%w: message %s", ErrIncompleteMessage, st.Parsed.MessageID)
		}
		return nil
	}, deps...)
}

func pacs008Stages() []*Stage {
	const tx = "FIToFICstmrCdtTrf.CdtTrfTxInf"

	parties := NewStage("parties", "Debtor and creditor", 2, func(_ context.Context, st *State) error {
		st.Parsed.Debtor.Name, _ = st.Fields.First(tx + ".Dbtr.Nm")
		st.Parsed.Debtor.Account, _ = st.Fields.First(tx + ".DbtrAcct.Id.IBAN")
		st.Parsed.Debtor.BIC, _ = st.Fields.First(tx + ".DbtrAgt.FinInstnId.BICFI")

		st.Parsed.Creditor.Name, _ = st.Fields.First(tx + ".Cdtr.Nm")
		st.Parsed.Creditor.Account, _ = st.Fields.First(tx + ".CdtrAcct.Id.IBAN")
		st.Parsed.Creditor.BIC, _ = st.Fields.First(tx + ".CdtrAgt.FinInstnId.BICFI")

		st.Parsed.SenderBIC = st.Parsed.Debtor.BIC
		st.Parsed.ReceiverBIC = st.Parsed.Creditor.BIC
		return nil
	}, "header")

	return []*Stage{
		headerStage("FIToFICstmrCdtTrf"),
		parties,
		amountStage(tx + ".IntrBkSttlmAmt"),
		finalizeStage("header", "parties", "amounts"),
	}
}

func pacs009Stages() []*Stage {
	const tx = "FICdtTrf.CdtTrfTxInf"

	// pacs.009 — межбанковский перевод: сторонами выступают сами
	// институты, счётом стороны служит её BIC.
	agents := NewStage("agents", "Instructing agents", 2, func(_ context.Context, st *State) error {
		instg, ok := st.Fields.First(tx + ".InstgAgt.FinInstnId.BICFI")
		if !ok {
			return fmt.Errorf("missing %s.InstgAgt.FinInstnId.BICFI", tx)
		}
		instd, ok := st.Fields.First(tx + ".InstdAgt.FinInstnId.BICFI")
		if !ok {
			return fmt.Errorf("missing %s.InstdAgt.FinInstnId.BICFI", tx)
		}

		st.Parsed.SenderBIC = instg
		st.Parsed.ReceiverBIC = instd
		st.Parsed.Debtor = partyFromBIC(instg)
		st.Parsed.Creditor = partyFromBIC(instd)
		return nil
	}, "header")

	return []*Stage{
		headerStage("FICdtTrf"),
		agents,
		amountStage(tx + ".IntrBkSttlmAmt"),
		finalizeStage("header", "agents", "amounts"),
	}
}

func pain001Stages() []*Stage {
	const pmt = "CstmrCdtTrfInitn.PmtInf"

	parties := NewStage("parties", "Debtor and creditor", 2, func(_ context.Context, st *State) error {
		st.Parsed.Debtor.Name, _ = st.Fields.First(pmt + ".Dbtr.Nm")
		st.Parsed.Debtor.Account, _ = st.Fields.First(pmt + ".DbtrAcct.Id.IBAN")
		st.Parsed.Debtor.BIC, _ = st.Fields.First(pmt + ".DbtrAgt.FinInstnId.BICFI")

		st.Parsed.Creditor.Name, _ = st.Fields.First(pmt + ".CdtTrfTxInf.Cdtr.Nm")
		st.Parsed.Creditor.Account, _ = st.Fields.First(pmt + ".CdtTrfTxInf.CdtrAcct.Id.IBAN")
		st.Parsed.Creditor.BIC, _ = st.Fields.First(pmt + ".CdtTrfTxInf.CdtrAgt.FinInstnId.BICFI")

		st.Parsed.SenderBIC = st.Parsed.Debtor.BIC
		st.Parsed.ReceiverBIC = st.Parsed.Creditor.BIC
		return nil
	}, "header")

	return []*Stage{
		headerStage("CstmrCdtTrfInitn"),
		parties,
		amountStage(pmt + ".CdtTrfTxInf.Amt.InstdAmt"),
		finalizeStage("header", "parties", "amounts"),
	}
}

func partyFromBIC(bic string) domain.Party {
	return domain.Party{Name: bic, Account: bic, BIC: bic}
}
