package ctc

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"
)

// Reconciler consumes settlement rows and posts the matching payments,
// transfers and refunds against the ledger. It holds the sole mutable handle
// to the allocation index produced by the booking importer.
type Reconciler struct {
	ledger   Ledger
	routing  *Routing
	index    *AllocationIndex
	agent    Customer
	currency Currency
	suggest  Suggester
}

// NewReconciler resolves the fixed collaborators (booking agent, currency)
// and takes ownership of the allocation index.
func NewReconciler(l Ledger, rt *Routing, ix *AllocationIndex) (*Reconciler, error) {
	chart := rt.Chart()
	agent, err := l.FindCustomer(chart.BookingAgent)
	if err != nil {
		return nil, fmt.Errorf("booking agent customer %q: %w", chart.BookingAgent, err)
	}
	currency, err := l.Currency(chart.Currency)
	if err != nil {
		return nil, err
	}
	return &Reconciler{
		ledger:   l,
		routing:  rt,
		index:    ix,
		agent:    agent,
		currency: currency,
	}, nil
}

// SetSuggester installs an advisory account suggester consulted for rows no
// handler claims.
func (rc *Reconciler) SetSuggester(s Suggester) { rc.suggest = s }

// Reconcile processes the settlement rows top to bottom. Unresolved
// allocations and unparsable refund context are recorded in the report and
// processing continues; missing accounts or customers abort the run with
// prior commits intact.
func (rc *Reconciler) Reconcile(rows []SettlementRow) (*Report, error) {
	rep := &Report{}
	for i, row := range rows {
		if row.Amount.IsZero() {
			rep.Skipped++
			continue
		}

		var err error
		switch cl := ClassifyRow(row); cl.Class {
		case ClassCourtPayment:
			err = rc.courtPayment(row, rep)
		case ClassPayout:
			err = rc.payout(row)
			rep.Payouts++
		case ClassRefund:
			err = rc.refund(row, cl, rep)
		case ClassMembership:
			err = rc.membership(row, cl)
			rep.Memberships++
		case ClassEvent:
			err = rc.event(row, cl)
			rep.Events++
		default:
			rc.ignored(row, rep)
		}
		if err != nil {
			return rep, fmt.Errorf("settlement row %d (%s): %w", i+1, row.Description, err)
		}
	}
	return rep, nil
}

// courtPayment applies a settled court-booking payment to the first
// unallocated booking invoice with a matching total fee. With no match the
// row is surfaced as unresolved and nothing is posted: a one-sided payment
// would not balance, and the operator has to attribute the funds anyway.
func (rc *Reconciler) courtPayment(row SettlementRow, rep *Report) error {
	player := row.PlayerName()
	entry := rc.index.FindUnallocated(player, row.Amount)
	if entry == nil {
		slog.Warn("unable to allocate court payment to an invoice",
			"player", player, "amount", row.Amount, "date", row.Date.Format("2006-01-02"))
		rep.Unresolved = append(rep.Unresolved, Unresolved{
			Row:    row,
			Reason: fmt.Sprintf("no unallocated booking for %s with total fee %s", player, row.Amount),
		})
		return nil
	}

	txn, err := rc.ledger.NewTransaction(rc.currency, row.Date, row.Description)
	if err != nil {
		return err
	}
	txn.AddPosting(rc.routing.Clearing, row.Amount)
	if err := entry.Invoice.ApplyPayment(txn, rc.routing.Clearing, row.Amount, row.Date); err != nil {
		return err
	}
	rc.attachFee(txn, row)
	if err := txn.Commit(); err != nil {
		return err
	}

	entry.Allocated = true
	rep.CourtPayments++
	return nil
}

// payout transfers a processor payout from the clearing account to the
// checking account. Payout rows carry a negative amount, so the clearing
// posting decreases and the checking posting increases.
func (rc *Reconciler) payout(row SettlementRow) error {
	txn, err := rc.ledger.NewTransaction(rc.currency, row.Date, "Stripe Payout")
	if err != nil {
		return err
	}
	txn.AddPosting(rc.routing.Clearing, row.Amount)
	txn.AddPosting(rc.routing.Checking, row.Amount.Neg())
	return txn.Commit()
}

func (rc *Reconciler) refund(row SettlementRow, cl Classification, rep *Report) error {
	if cl.RefundItem == CourtBookingDescription {
		if err := rc.courtRefund(row, cl); err != nil {
			return err
		}
		rep.Refunds++
		return nil
	}

	// Not a court booking: no invoice to credit, post a plain two-sided
	// refund against the income account the charge was routed to.
	var target Account
	var err error
	if isMembershipItem(cl.RefundItem) {
		target, err = rc.routing.MembershipAccount(cl.RefundItem)
	} else {
		target, err = rc.routing.EventAccount(cl.RefundItem)
	}
	if err != nil {
		return err
	}

	txn, err := rc.ledger.NewTransaction(rc.currency, row.Date, "Refund")
	if err != nil {
		return err
	}
	txn.AddPosting(rc.routing.Clearing, row.Amount)
	txn.AddPosting(target, row.Amount.Neg())
	if err := txn.Commit(); err != nil {
		return err
	}
	rep.Refunds++
	return nil
}

// isMembershipItem reports whether a refunded charge's description follows
// the membership product naming convention.
func isMembershipItem(item string) bool {
	return strings.Contains(item, MembershipPrefix) ||
		strings.Contains(strings.ToLower(item), "membership")
}

// courtRefund raises a credit note against the booking agent and applies a
// refund payment to it. When the refund's session metadata matches a booking
// the amount is split into that booking's court/light proportions; otherwise
// the whole amount is attributed to court hire.
func (rc *Reconciler) courtRefund(row SettlementRow, cl Classification) error {
	total := row.Amount.Abs()
	courtFee := total
	lightFee := decimal.Zero

	var entry *BookingEntry
	if cl.SessionOK {
		entry = rc.index.FindSession(cl.Session, total)
	} else {
		slog.Warn("refund session metadata did not parse, attributing refund to court hire",
			"session", row.Session, "amount", row.Amount)
	}
	if entry != nil {
		ratio := total.Div(entry.Row.TotalFee)
		courtFee = entry.Row.CourtFee.Mul(ratio).Round(2)
		lightFee = total.Sub(courtFee)
	}

	note, err := rc.ledger.NewInvoice(rc.agent, rc.currency, row.Date, true)
	if err != nil {
		return err
	}
	if courtFee.Sign() > 0 {
		if err := note.AddLine("Court Hire Refund", one, courtFee, rc.routing.CourtHire); err != nil {
			return err
		}
	}
	if lightFee.Sign() > 0 {
		if err := note.AddLine("Light Hire Refund", one, lightFee, rc.routing.LightHire); err != nil {
			return err
		}
	}
	if err := note.Post(rc.routing.Receivables, row.Date, row.Date, false); err != nil {
		return err
	}

	txn, err := rc.ledger.NewTransaction(rc.currency, row.Date, "Book A Court Refund")
	if err != nil {
		return err
	}
	txn.AddPosting(rc.routing.Clearing, row.Amount)
	if err := note.ApplyPayment(txn, rc.routing.Clearing, row.Amount, row.Date); err != nil {
		return err
	}
	rc.attachFee(txn, row)
	if err := txn.Commit(); err != nil {
		return err
	}

	if entry != nil {
		entry.Refunded = true
	}
	return nil
}

func (rc *Reconciler) membership(row SettlementRow, cl Classification) error {
	customer, err := rc.findOrCreateCustomer(cl.CustomerName, cl.CustomerEmail)
	if err != nil {
		return err
	}
	target, err := rc.routing.MembershipAccount(cl.Detail)
	if err != nil {
		return err
	}
	return rc.invoiceAndPay(customer, target, cl.Item, row)
}

func (rc *Reconciler) event(row SettlementRow, cl Classification) error {
	customer, err := rc.findOrCreateCustomer(cl.CustomerName, cl.CustomerEmail)
	if err != nil {
		return err
	}
	target, err := rc.routing.EventAccount(cl.Detail)
	if err != nil {
		return err
	}
	return rc.invoiceAndPay(customer, target, cl.Item, row)
}

func (rc *Reconciler) ignored(row SettlementRow, rep *Report) {
	rep.Ignored++
	if rc.suggest == nil {
		return
	}
	if account, ok := rc.suggest.Suggest(strings.Fields(row.Description)); ok {
		rep.Suggestions = append(rep.Suggestions, Suggestion{Row: row, Account: account})
	}
}

// invoiceAndPay creates an invoice with a single line item, posts it to
// receivables, and immediately applies the settled payment plus processor
// fee. Shared by the membership and event handlers.
func (rc *Reconciler) invoiceAndPay(customer Customer, target Account, item string, row SettlementRow) error {
	inv, err := rc.ledger.NewInvoice(customer, rc.currency, row.Date, false)
	if err != nil {
		return err
	}
	if err := inv.AddLine(item, one, row.Amount, target); err != nil {
		return err
	}
	if err := inv.Post(rc.routing.Receivables, row.Date, row.Date, false); err != nil {
		return err
	}

	txn, err := rc.ledger.NewTransaction(rc.currency, row.Date, item)
	if err != nil {
		return err
	}
	txn.AddPosting(rc.routing.Clearing, row.Amount)
	if err := inv.ApplyPayment(txn, rc.routing.Clearing, row.Amount, row.Date); err != nil {
		return err
	}
	rc.attachFee(txn, row)
	return txn.Commit()
}

// attachFee splits the settled amount on the clearing account into net
// proceeds and the processor fee. Skipped entirely for fee-free rows.
func (rc *Reconciler) attachFee(txn Transaction, row SettlementRow) {
	if row.Fee.IsZero() {
		return
	}
	txn.SetAccountValue(rc.routing.Clearing, row.Net)
	txn.AddPosting(rc.routing.FeeExpense, row.Fee)
}

func (rc *Reconciler) findOrCreateCustomer(name, email string) (Customer, error) {
	customer, err := rc.ledger.FindCustomer(name)
	if errors.Is(err, ErrNoCustomer) {
		return rc.ledger.CreateCustomer(name, email)
	}
	return customer, err
}
