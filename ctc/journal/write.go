package journal

import (
	"io"
	"strings"
	"unicode/utf8"
)

const (
	transactionDateFormat = "2006/01/02"
	newLine               = "\n"
	writeColumns          = 80
)

var spaceStr = strings.Repeat(" ", writeColumns)

// WriteTransaction writes a transaction formatted to fit the journal's
// column width. Postings keep their insertion order: invoice transactions
// read better with receivables first.
func WriteTransaction(w io.StringWriter, trans *Transaction) {
	for _, c := range trans.Comments {
		w.WriteString(c)
		w.WriteString(newLine)
	}

	w.WriteString(trans.Date.Format(transactionDateFormat))
	w.WriteString(spaceStr[:1])
	w.WriteString(trans.Payee)
	if len(trans.PayeeComment) > 0 {
		spaceCount := writeColumns - 10 - utf8.RuneCountInString(trans.Payee)
		if spaceCount < 1 {
			spaceCount = 1
		}
		w.WriteString(spaceStr[:spaceCount])
		w.WriteString(trans.PayeeComment)
	}
	w.WriteString(newLine)
	for _, posting := range trans.Postings {
		outBalanceString := posting.Amount.StringFixedBank(2)
		if posting.Currency != "" {
			outBalanceString = posting.Currency + " " + outBalanceString
		}
		spaceCount := writeColumns - 4 - utf8.RuneCountInString(posting.Account) - utf8.RuneCountInString(outBalanceString)
		if spaceCount < 1 {
			spaceCount = 1
		}
		w.WriteString(spaceStr[:4])
		w.WriteString(posting.Account)
		w.WriteString(spaceStr[:spaceCount])
		w.WriteString(outBalanceString)
		if len(posting.Comment) > 0 {
			w.WriteString(spaceStr[:1])
			w.WriteString(posting.Comment)
		}
		w.WriteString(newLine)
	}
	w.WriteString(newLine)
}
