// Package statement renders account statements as XML documents.
package statement

import (
	"fmt"
	"io"
	"time"

	"github.com/Dan9191/bnpl-service/internal/models"
	"github.com/Dan9191/bnpl-service/internal/money"
	"github.com/beevik/etree"
)

// Statement is the content of one exported statement
type Statement struct {
	Username     string
	From         time.Time // inclusive calendar date
	To           time.Time // inclusive calendar date
	GeneratedAt  time.Time
	CreditLimit  money.Amount
	BalanceDue   money.Amount
	Transactions []models.TransactionView
}

// Document builds the XML tree for a statement
func Document(s Statement) *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("Statement")
	root.CreateAttr("holder", s.Username)
	root.CreateAttr("generatedAt", s.GeneratedAt.UTC().Format(time.RFC3339))

	period := root.CreateElement("Period")
	period.CreateElement("From").SetText(s.From.Format("2006-01-02"))
	period.CreateElement("To").SetText(s.To.Format("2006-01-02"))

	account := root.CreateElement("Account")
	account.CreateElement("CreditLimit").SetText(s.CreditLimit.String())
	account.CreateElement("BalanceDue").SetText(s.BalanceDue.String())
	account.CreateElement("AvailableCredit").SetText((s.CreditLimit - s.BalanceDue).String())

	var drawn, repaid money.Amount
	txns := root.CreateElement("Transactions")
	txns.CreateAttr("count", fmt.Sprintf("%d", len(s.Transactions)))
	for _, t := range s.Transactions {
		el := txns.CreateElement("Transaction")
		el.CreateAttr("id", t.ID.String())
		el.CreateAttr("type", string(t.Type))
		el.CreateElement("Date").SetText(t.CreatedAt.UTC().Format(time.RFC3339))
		el.CreateElement("Amount").SetText(t.SignedAmount.String())
		el.CreateElement("BalanceDueAfter").SetText(t.BalanceDueAfter.String())
		if t.MerchantName != "" {
			el.CreateElement("Merchant").SetText(t.MerchantName)
		}
		if t.SignedAmount > 0 {
			drawn += t.SignedAmount
		} else {
			repaid += t.SignedAmount.Neg()
		}
	}

	totals := root.CreateElement("Totals")
	totals.CreateElement("Drawn").SetText(drawn.String())
	totals.CreateElement("Repaid").SetText(repaid.String())

	doc.Indent(2)
	return doc
}

// Render writes the statement as indented XML
func Render(w io.Writer, s Statement) error {
	if _, err := Document(s).WriteTo(w); err != nil {
		return fmt.Errorf("failed to write statement: %w", err)
	}
	return nil
}
