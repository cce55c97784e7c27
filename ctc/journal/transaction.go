package journal

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrNeedAtLeastTwoPostings        = errors.New("need at least two postings")
	ErrNoEmptyAccountForExtraBalance = errors.New("unable to balance transaction: no empty account to place extra balance")
	ErrMoreThanOneEmptyPosting       = errors.New("unable to balance transaction: more than one posting empty")
)

// IsBalanced returns nil if the transaction sums to zero, otherwise an error.
// A single posting without an amount absorbs the remaining balance, so
// hand-written journal entries can omit the obvious counter-amount.
func (t *Transaction) IsBalanced() error {
	if len(t.Postings) < 2 {
		return ErrNeedAtLeastTwoPostings
	}

	balance := decimal.Zero
	var numEmpty, emptyIdx int

	for i, p := range t.Postings {
		if p.Amount.IsZero() {
			numEmpty++
			emptyIdx = i
		}
		balance = balance.Add(p.Amount)
	}

	if !balance.IsZero() {
		switch numEmpty {
		case 0:
			return ErrNoEmptyAccountForExtraBalance
		case 1:
			// A single empty posting takes the remainder.
			t.Postings[emptyIdx].Amount = balance.Neg()
		default:
			return ErrMoreThanOneEmptyPosting
		}
	}

	return nil
}
