package journal

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	cache "github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"

	ctc "github.com/libr0/ctc-accounts"
)

// Journal is one open session against a plain-text ledger file. Transactions
// committed during the session are held in memory and appended to the file
// on Save; the customer sidecar is rewritten alongside.
type Journal struct {
	path string

	transactions []*Transaction // parsed from the file at Open
	pending      []*Transaction // committed this session, not yet saved

	accounts    map[string]bool
	commodities map[string]bool
	lookups     *cache.Cache

	customers   *registry
	nextInvoice int
}

var invoiceTagPattern = regexp.MustCompile(`(?:invoice|credit-note):(\d+)`)

// Open parses the journal file and its customer sidecar. The file must
// exist; an importer has no business creating the books.
func Open(path string) (*Journal, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	p, err := parseJournal(path, f)
	if err != nil {
		return nil, err
	}

	customers, err := loadCustomers(path + ".customers.toml")
	if err != nil {
		return nil, err
	}

	j := &Journal{
		path:         path,
		transactions: p.transactions,
		accounts:     p.accounts,
		commodities:  p.commodities,
		lookups:      cache.New(cache.NoExpiration, cache.NoExpiration),
		customers:    customers,
	}

	// Resume invoice numbering from the highest tag on file.
	for _, t := range p.transactions {
		for _, c := range t.Comments {
			if m := invoiceTagPattern.FindStringSubmatch(c); m != nil {
				var n int
				fmt.Sscanf(m[1], "%d", &n)
				if n > j.nextInvoice {
					j.nextInvoice = n
				}
			}
		}
	}

	return j, nil
}

// Transactions returns the transactions parsed from the file at Open.
func (j *Journal) Transactions() []*Transaction { return j.transactions }

// Pending returns the number of transactions committed but not yet saved.
func (j *Journal) Pending() int { return len(j.pending) }

// Save appends this session's transactions to the journal file and rewrites
// the customer sidecar.
func (j *Journal) Save() error {
	if len(j.pending) > 0 {
		f, err := os.OpenFile(j.path, os.O_APPEND|os.O_RDWR, 0o644)
		if err != nil {
			return err
		}
		sep, err := appendSeparator(f)
		if err != nil {
			f.Close()
			return err
		}
		w := bufio.NewWriter(f)
		w.WriteString(sep)
		for _, t := range j.pending {
			WriteTransaction(w, t)
		}
		if err := w.Flush(); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		j.transactions = append(j.transactions, j.pending...)
		j.pending = nil
	}

	return j.customers.save()
}

// appendSeparator returns whatever newlines the file is missing before an
// appended transaction: without a trailing blank line the parser would glue
// the new transaction onto the last one.
func appendSeparator(f *os.File) (string, error) {
	info, err := f.Stat()
	if err != nil {
		return "", err
	}
	size := info.Size()
	if size == 0 {
		return "", nil
	}
	buf := make([]byte, 2)
	off := size - 2
	if off < 0 {
		off = 0
		buf = buf[:1]
	}
	if _, err := f.ReadAt(buf, off); err != nil {
		return "", err
	}
	tail := string(buf)
	switch {
	case strings.HasSuffix(tail, "\n\n") || tail == "\n":
		return "", nil
	case strings.HasSuffix(tail, "\n"):
		return "\n", nil
	}
	return "\n\n", nil
}

// Close discards anything committed since the last Save.
func (j *Journal) Close() error {
	j.pending = nil
	return nil
}

// account is the handle for a resolved ledger account.
type account struct{ name string }

func (a account) Name() string { return a.name }

type currency struct{ code string }

func (c currency) Code() string { return c.code }

type customer struct{ rec *customerRecord }

func (c customer) Name() string { return c.rec.Name }

// LookupAccount resolves an account by hierarchical name path. An account
// exists when declared by an `account` directive or seen on any posting.
// Resolutions are cached for the session.
func (j *Journal) LookupAccount(path ...string) (ctc.Account, error) {
	name := strings.Join(path, ":")
	if v, ok := j.lookups.Get(name); ok {
		return v.(account), nil
	}
	if !j.accounts[name] {
		return nil, fmt.Errorf("%w: %s", ctc.ErrNoAccount, name)
	}
	a := account{name: name}
	j.lookups.Set(name, a, cache.DefaultExpiration)
	return a, nil
}

func (j *Journal) FindCustomer(name string) (ctc.Customer, error) {
	if rec := j.customers.find(name); rec != nil {
		return customer{rec: rec}, nil
	}
	return nil, fmt.Errorf("%w: %s", ctc.ErrNoCustomer, name)
}

func (j *Journal) CreateCustomer(name, email string) (ctc.Customer, error) {
	if j.customers.find(name) != nil {
		return nil, fmt.Errorf("customer %s already exists", name)
	}
	return customer{rec: j.customers.create(name, email)}, nil
}

// Currency resolves a currency unit. When the journal declares commodities
// only those are valid; a journal without declarations accepts any ISO-style
// code.
func (j *Journal) Currency(code string) (ctc.Currency, error) {
	if len(j.commodities) > 0 && !j.commodities[code] {
		return nil, fmt.Errorf("%w: %s", ctc.ErrNoCurrency, code)
	}
	if len(code) != 3 || strings.ToUpper(code) != code {
		return nil, fmt.Errorf("%w: %s", ctc.ErrNoCurrency, code)
	}
	return currency{code: code}, nil
}

func (j *Journal) NewTransaction(cur ctc.Currency, date time.Time, description string) (ctc.Transaction, error) {
	return &txn{
		j:   j,
		cur: cur.Code(),
		t:   &Transaction{Date: date, Payee: description},
	}, nil
}

func (j *Journal) NewInvoice(c ctc.Customer, cur ctc.Currency, date time.Time, creditNote bool) (ctc.Invoice, error) {
	cust, ok := c.(customer)
	if !ok {
		return nil, fmt.Errorf("customer %s does not belong to this journal", c.Name())
	}
	j.nextInvoice++
	return &invoice{
		j:          j,
		id:         fmt.Sprintf("%06d", j.nextInvoice),
		cust:       cust,
		cur:        cur.Code(),
		date:       date,
		creditNote: creditNote,
	}, nil
}

// commit validates balance and queues the transaction for Save. Accounts
// posted against become resolvable for the rest of the session.
func (j *Journal) commit(t *Transaction) error {
	if err := t.IsBalanced(); err != nil {
		return err
	}
	for _, p := range t.Postings {
		j.accounts[p.Account] = true
	}
	j.pending = append(j.pending, t)
	return nil
}

// txn builds one journal transaction.
type txn struct {
	j         *Journal
	t         *Transaction
	cur       string
	committed bool
}

func (x *txn) SetDescription(description string) { x.t.Payee = description }

func (x *txn) AddPosting(a ctc.Account, value decimal.Decimal) {
	x.t.Postings = append(x.t.Postings, Posting{
		Account:  a.Name(),
		Amount:   value,
		Currency: x.cur,
	})
}

func (x *txn) SetAccountValue(a ctc.Account, value decimal.Decimal) {
	for i := range x.t.Postings {
		if x.t.Postings[i].Account == a.Name() {
			x.t.Postings[i].Amount = value
			return
		}
	}
}

func (x *txn) hasPosting(name string) bool {
	for _, p := range x.t.Postings {
		if p.Account == name {
			return true
		}
	}
	return false
}

func (x *txn) tag(comment string) {
	x.t.Comments = append(x.t.Comments, comment)
}

func (x *txn) Commit() error {
	if x.committed {
		return fmt.Errorf("transaction %s already committed", x.t.Payee)
	}
	if err := x.j.commit(x.t); err != nil {
		return err
	}
	x.committed = true
	return nil
}

type invoiceLine struct {
	description string
	quantity    decimal.Decimal
	unitPrice   decimal.Decimal
	account     string
}

// invoice accumulates line items until posted. Posting writes one
// transaction debiting receivables for the line total and crediting each
// line's income account; credit notes are sign-reversed.
type invoice struct {
	j          *Journal
	id         string
	cust       customer
	cur        string
	date       time.Time
	creditNote bool

	lines       []invoiceLine
	receivables string
	posted      bool
}

func (in *invoice) ID() string { return in.id }

func (in *invoice) AddLine(description string, quantity, unitPrice decimal.Decimal, target ctc.Account) error {
	if in.posted {
		return fmt.Errorf("invoice %s already posted", in.id)
	}
	in.lines = append(in.lines, invoiceLine{
		description: description,
		quantity:    quantity,
		unitPrice:   unitPrice,
		account:     target.Name(),
	})
	return nil
}

func (in *invoice) Post(receivables ctc.Account, postDate, dueDate time.Time, autoPay bool) error {
	if in.posted {
		return fmt.Errorf("invoice %s already posted", in.id)
	}
	if len(in.lines) == 0 {
		return fmt.Errorf("invoice %s has no line items", in.id)
	}

	sign := decimal.NewFromInt(1)
	kind := "invoice"
	if in.creditNote {
		sign = sign.Neg()
		kind = "credit-note"
	}

	t := &Transaction{Date: postDate, Payee: in.cust.Name()}
	t.Comments = append(t.Comments,
		fmt.Sprintf("; %s:%s customer:%s due:%s", kind, in.id, in.cust.rec.ID, dueDate.Format(transactionDateFormat)))
	if autoPay {
		t.Comments = append(t.Comments, "; autopay")
	}

	total := decimal.Zero
	for _, line := range in.lines {
		total = total.Add(line.quantity.Mul(line.unitPrice))
	}
	t.Postings = append(t.Postings, Posting{
		Account:  receivables.Name(),
		Amount:   total.Mul(sign),
		Currency: in.cur,
	})
	for _, line := range in.lines {
		t.Postings = append(t.Postings, Posting{
			Account:  line.account,
			Amount:   line.quantity.Mul(line.unitPrice).Mul(sign).Neg(),
			Currency: in.cur,
			Comment:  "; " + line.description,
		})
	}

	if err := in.j.commit(t); err != nil {
		return err
	}
	in.receivables = receivables.Name()
	in.posted = true
	return nil
}

// ApplyPayment adds the receivables counter-posting for the payment and tags
// the transaction with the invoice id. The transaction must already carry
// the clearing posting.
func (in *invoice) ApplyPayment(t ctc.Transaction, clearing ctc.Account, amount decimal.Decimal, date time.Time) error {
	if !in.posted {
		return fmt.Errorf("invoice %s not posted", in.id)
	}
	x, ok := t.(*txn)
	if !ok || x.j != in.j {
		return fmt.Errorf("transaction does not belong to this journal")
	}
	if !x.hasPosting(clearing.Name()) {
		return fmt.Errorf("payment for invoice %s has no posting on %s", in.id, clearing.Name())
	}

	x.t.Postings = append(x.t.Postings, Posting{
		Account:  in.receivables,
		Amount:   amount.Neg(),
		Currency: in.cur,
	})
	x.tag(fmt.Sprintf("; payment invoice:%s customer:%s", in.id, in.cust.rec.ID))
	return nil
}
