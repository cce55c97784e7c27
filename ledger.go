package ctc

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNoAccount  = errors.New("account not found")
	ErrNoCustomer = errors.New("customer not found")
	ErrNoCurrency = errors.New("currency not found")
)

// Account is an opaque handle to a ledger account.
type Account interface {
	// Name returns the full hierarchical account name.
	Name() string
}

// Customer is an opaque handle to a ledger customer.
type Customer interface {
	Name() string
}

// Currency is a handle to a currency unit known to the ledger.
type Currency interface {
	Code() string
}

// Invoice is a receivable (or credit note) under construction. Once posted
// the ledger owns it; callers keep the handle only to apply payments later.
type Invoice interface {
	ID() string

	// AddLine adds a line item priced against the target income account.
	// Lines cannot be added after the invoice has been posted.
	AddLine(description string, quantity, unitPrice decimal.Decimal, target Account) error

	// Post commits the invoice against the receivables account.
	Post(receivables Account, postDate, dueDate time.Time, autoPay bool) error

	// ApplyPayment associates a payment transaction with this invoice via the
	// clearing account. The transaction must already carry the clearing
	// posting; the ledger adds the receivables counter-posting.
	ApplyPayment(txn Transaction, clearing Account, amount decimal.Decimal, date time.Time) error
}

// Transaction is a ledger transaction under construction. Postings are
// accumulated and the whole set is committed as one unit; the ledger rejects
// unbalanced transactions at Commit.
type Transaction interface {
	SetDescription(description string)
	AddPosting(account Account, value decimal.Decimal)

	// SetAccountValue rewrites the value of the existing posting against the
	// given account. Used to split a settled amount into net and fee.
	SetAccountValue(account Account, value decimal.Decimal)

	Commit() error
}

// Ledger is the external double-entry accounting store. It owns all
// consistency invariants: balanced postings, invoice lifecycle, durability.
// This package only creates entities through it and never reads back beyond
// the idempotent lookups below.
type Ledger interface {
	// LookupAccount resolves an account by hierarchical name path.
	LookupAccount(path ...string) (Account, error)

	// FindCustomer resolves a customer by exact name. Returns ErrNoCustomer
	// (possibly wrapped) when no such customer exists.
	FindCustomer(name string) (Customer, error)

	// CreateCustomer registers a new customer; ownership transfers to the
	// ledger immediately.
	CreateCustomer(name, email string) (Customer, error)

	// Currency resolves a currency unit by ISO code.
	Currency(code string) (Currency, error)

	NewInvoice(customer Customer, currency Currency, date time.Time, creditNote bool) (Invoice, error)
	NewTransaction(currency Currency, date time.Time, description string) (Transaction, error)
}

// Suggester proposes a ledger account for settlement rows no handler claims.
// Implementations are advisory only; suggestions end up in the run report,
// never in the ledger.
type Suggester interface {
	Suggest(descriptionWords []string) (account string, ok bool)
}
