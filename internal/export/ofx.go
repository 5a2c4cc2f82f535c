// Package export stores downloaded statements and reads them back just
// enough to tell the user what was fetched.
package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"
)

type StatementKind string

const (
	KindBank       StatementKind = "bank"
	KindCreditCard StatementKind = "creditcard"
)

// Statement is one statement found in an OFX file.
type Statement struct {
	Kind         StatementKind
	Account      string
	Currency     string
	Transactions int
	Balance      decimal.Decimal
	AsOf         time.Time
}

type Summary struct {
	Statements []Statement
}

func (s *Summary) Transactions() int {
	n := 0
	for _, st := range s.Statements {
		n += st.Transactions
	}
	return n
}

// Summarize parses an OFX export. The bytes themselves are never modified,
// a file that fails to parse is still a valid download.
func Summarize(body []byte) (*Summary, error) {
	resp, err := ofxgo.ParseResponse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse OFX (%d bytes): %w", len(body), err)
	}

	summary := &Summary{}
	for _, msg := range resp.Bank {
		stmt, ok := msg.(*ofxgo.StatementResponse)
		if !ok {
			continue
		}
		summary.Statements = append(summary.Statements, Statement{
			Kind:         KindBank,
			Account:      stmt.BankAcctFrom.AcctID.String(),
			Currency:     stmt.CurDef.String(),
			Transactions: countTransactions(stmt.BankTranList),
			Balance:      amount(stmt.BalAmt),
			AsOf:         stmt.DtAsOf.Time,
		})
	}
	for _, msg := range resp.CreditCard {
		stmt, ok := msg.(*ofxgo.CCStatementResponse)
		if !ok {
			continue
		}
		summary.Statements = append(summary.Statements, Statement{
			Kind:         KindCreditCard,
			Account:      stmt.CCAcctFrom.AcctID.String(),
			Currency:     stmt.CurDef.String(),
			Transactions: countTransactions(stmt.BankTranList),
			Balance:      amount(stmt.BalAmt),
			AsOf:         stmt.DtAsOf.Time,
		})
	}

	if len(summary.Statements) == 0 {
		return nil, fmt.Errorf("no bank or credit card statement in OFX file")
	}
	return summary, nil
}

func countTransactions(list *ofxgo.TransactionList) int {
	if list == nil {
		return 0
	}
	return len(list.Transactions)
}

func amount(a ofxgo.Amount) decimal.Decimal {
	d, err := decimal.NewFromString(a.FloatString(2))
	if err != nil {
		return decimal.Zero
	}
	return d
}
