package ctc

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// memLedger is an in-memory Ledger for tests. It mirrors the invariants a
// real backend enforces: accounts must exist before lookup, transactions must
// balance at Commit, invoices must be posted before payments apply.
type memLedger struct {
	accounts     map[string]*memAccount
	customers    map[string]*memCustomer
	currencies   map[string]*memCurrency
	transactions []*memTransaction
	invoices     []*memInvoice
	nextInvoice  int
}

// newTestLedger builds a ledger provisioned the way a real club file would
// be: every account the chart can route to, the booking agent customer and
// the chart currency.
func newTestLedger(chart Chart) *memLedger {
	l := &memLedger{
		accounts:   make(map[string]*memAccount),
		customers:  make(map[string]*memCustomer),
		currencies: make(map[string]*memCurrency),
	}
	for _, path := range [][]string{
		chart.Receivables, chart.Clearing, chart.Checking,
		chart.FeeExpense, chart.CourtHire, chart.LightHire,
	} {
		l.addAccount(path...)
	}
	for _, ka := range chart.MembershipTiers {
		l.addAccount(append(chart.Memberships, ka.Account)...)
	}
	l.addAccount(append(chart.Memberships, chart.MembershipDefault)...)
	for _, ka := range chart.EventCategories {
		parent := chart.Events
		if ka.Fundraising {
			parent = chart.Fundraising
		}
		l.addAccount(append(parent, ka.Account)...)
	}
	l.addAccount(append(chart.Fundraising, chart.EventDefault)...)

	l.customers[chart.BookingAgent] = &memCustomer{name: chart.BookingAgent}
	l.currencies[chart.Currency] = &memCurrency{code: chart.Currency}
	return l
}

func (l *memLedger) addAccount(path ...string) {
	name := strings.Join(path, ":")
	l.accounts[name] = &memAccount{name: name}
}

func (l *memLedger) LookupAccount(path ...string) (Account, error) {
	name := strings.Join(path, ":")
	acct, ok := l.accounts[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrNoAccount)
	}
	return acct, nil
}

func (l *memLedger) FindCustomer(name string) (Customer, error) {
	c, ok := l.customers[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrNoCustomer)
	}
	return c, nil
}

func (l *memLedger) CreateCustomer(name, email string) (Customer, error) {
	if _, ok := l.customers[name]; ok {
		return nil, fmt.Errorf("customer %s already exists", name)
	}
	c := &memCustomer{name: name, email: email}
	l.customers[name] = c
	return c, nil
}

func (l *memLedger) Currency(code string) (Currency, error) {
	c, ok := l.currencies[code]
	if !ok {
		return nil, fmt.Errorf("%s: %w", code, ErrNoCurrency)
	}
	return c, nil
}

func (l *memLedger) NewInvoice(customer Customer, currency Currency, date time.Time, creditNote bool) (Invoice, error) {
	l.nextInvoice++
	inv := &memInvoice{
		id:         fmt.Sprintf("%06d", l.nextInvoice),
		customer:   customer.Name(),
		creditNote: creditNote,
		date:       date,
	}
	l.invoices = append(l.invoices, inv)
	return inv, nil
}

func (l *memLedger) NewTransaction(currency Currency, date time.Time, description string) (Transaction, error) {
	t := &memTransaction{date: date, description: description}
	l.transactions = append(l.transactions, t)
	return t, nil
}

// committed returns the transactions that passed Commit, in creation order.
func (l *memLedger) committed() []*memTransaction {
	var out []*memTransaction
	for _, t := range l.transactions {
		if t.committed {
			out = append(out, t)
		}
	}
	return out
}

type memAccount struct{ name string }

func (a *memAccount) Name() string { return a.name }

type memCustomer struct{ name, email string }

func (c *memCustomer) Name() string { return c.name }

type memCurrency struct{ code string }

func (c *memCurrency) Code() string { return c.code }

type memPosting struct {
	account string
	value   decimal.Decimal
}

type memTransaction struct {
	date        time.Time
	description string
	postings    []memPosting
	committed   bool
}

func (t *memTransaction) SetDescription(d string) { t.description = d }

func (t *memTransaction) AddPosting(account Account, value decimal.Decimal) {
	t.postings = append(t.postings, memPosting{account: account.Name(), value: value})
}

func (t *memTransaction) SetAccountValue(account Account, value decimal.Decimal) {
	for i := range t.postings {
		if t.postings[i].account == account.Name() {
			t.postings[i].value = value
			return
		}
	}
}

func (t *memTransaction) Commit() error {
	sum := decimal.Zero
	for _, p := range t.postings {
		sum = sum.Add(p.value)
	}
	if !sum.IsZero() {
		return fmt.Errorf("transaction %q does not balance, off by %s", t.description, sum)
	}
	t.committed = true
	return nil
}

// posting returns the value posted against account, and whether a posting for
// that account exists.
func (t *memTransaction) posting(account string) (decimal.Decimal, bool) {
	for _, p := range t.postings {
		if p.account == account {
			return p.value, true
		}
	}
	return decimal.Decimal{}, false
}

type memLine struct {
	description string
	amount      decimal.Decimal
	account     string
}

type memInvoice struct {
	id          string
	customer    string
	creditNote  bool
	date        time.Time
	lines       []memLine
	receivables string
	posted      bool
	payments    []decimal.Decimal
	recvAccount Account
}

func (i *memInvoice) ID() string { return i.id }

func (i *memInvoice) AddLine(description string, quantity, unitPrice decimal.Decimal, target Account) error {
	if i.posted {
		return errors.New("invoice already posted")
	}
	i.lines = append(i.lines, memLine{
		description: description,
		amount:      quantity.Mul(unitPrice),
		account:     target.Name(),
	})
	return nil
}

func (i *memInvoice) Post(receivables Account, postDate, dueDate time.Time, autoPay bool) error {
	if i.posted {
		return errors.New("invoice already posted")
	}
	i.receivables = receivables.Name()
	i.recvAccount = receivables
	i.posted = true
	return nil
}

func (i *memInvoice) ApplyPayment(txn Transaction, clearing Account, amount decimal.Decimal, date time.Time) error {
	if !i.posted {
		return errors.New("invoice not posted")
	}
	txn.AddPosting(i.recvAccount, amount.Neg())
	i.payments = append(i.payments, amount)
	return nil
}
