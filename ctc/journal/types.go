// Package journal implements the ctc.Ledger interface on top of a plain-text
// ledger file. Invoices and payments become balanced double-entry
// transactions tagged with invoice ids in posting comments; customers live in
// a TOML sidecar next to the journal file.
package journal

import (
	"time"

	"github.com/shopspring/decimal"
)

// Posting holds one account change within a Transaction.
type Posting struct {
	Account  string
	Amount   decimal.Decimal
	Currency string
	Comment  string
}

// Transaction is one journal entry: a date, a payee line and at least two
// postings summing to zero.
type Transaction struct {
	Date         time.Time
	Payee        string
	PayeeComment string
	Postings     []Posting
	Comments     []string
}
