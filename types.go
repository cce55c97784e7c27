package ctc

import (
	"time"

	"github.com/shopspring/decimal"
)

// NoName is the sentinel bucket for rows without a usable player name.
const NoName = "NoName"

// BookingRow is one court booking from the booking feed. Immutable once read;
// allocation state lives on the surrounding BookingEntry.
type BookingRow struct {
	PlayerName string

	// Booked is the invoice/posting date.
	Booked time.Time

	// BookingDate and BookingTime are the raw session fields from the feed,
	// kept for diagnostics. Session is their parsed form, zero when the feed
	// values did not parse.
	BookingDate string
	BookingTime string
	Session     time.Time

	CourtFee decimal.Decimal
	LightFee decimal.Decimal
	TotalFee decimal.Decimal
}

// BookingEntry ties a booking row to the invoice created for it and tracks
// whether a settlement payment (or refund) has been applied to that invoice.
type BookingEntry struct {
	Row     BookingRow
	Invoice Invoice

	Allocated bool
	Refunded  bool
}

// AllocationIndex maps player names to their booking entries, in feed order.
// The importer produces it; the reconciler is the only writer afterwards.
type AllocationIndex struct {
	buckets map[string][]*BookingEntry
	names   []string
	size    int
}

func NewAllocationIndex() *AllocationIndex {
	return &AllocationIndex{buckets: make(map[string][]*BookingEntry)}
}

// Add files an entry under the given player name, or under the NoName
// sentinel when the name is empty.
func (ix *AllocationIndex) Add(name string, e *BookingEntry) {
	if name == "" {
		name = NoName
	}
	if _, ok := ix.buckets[name]; !ok {
		ix.names = append(ix.names, name)
	}
	ix.buckets[name] = append(ix.buckets[name], e)
	ix.size++
}

// Bucket returns the entries filed under name, in feed order.
func (ix *AllocationIndex) Bucket(name string) []*BookingEntry {
	return ix.buckets[name]
}

// Size returns the number of entries across all buckets.
func (ix *AllocationIndex) Size() int {
	return ix.size
}

// FindUnallocated returns the first entry in the player's bucket whose total
// fee equals amount and which has no payment applied yet.
func (ix *AllocationIndex) FindUnallocated(name string, amount decimal.Decimal) *BookingEntry {
	for _, e := range ix.buckets[name] {
		if !e.Allocated && e.Row.TotalFee.Equal(amount) {
			return e
		}
	}
	return nil
}

// FindSession searches every bucket for an entry whose session timestamp and
// total fee match. Entries already refunded are skipped so one booking can
// back at most one refund.
func (ix *AllocationIndex) FindSession(session time.Time, totalFee decimal.Decimal) *BookingEntry {
	for _, name := range ix.names {
		for _, e := range ix.buckets[name] {
			if e.Refunded || e.Row.Session.IsZero() {
				continue
			}
			if e.Row.Session.Equal(session) && e.Row.TotalFee.Equal(totalFee) {
				return e
			}
		}
	}
	return nil
}

// SettlementRow is one row of the payment-processor settlement report.
// Read-only; metadata fields have already had the report's column-name
// variants folded together by the feed decoder.
type SettlementRow struct {
	Description string
	Type        string

	Amount decimal.Decimal
	Fee    decimal.Decimal
	Net    decimal.Decimal

	// Date is the settlement (available-on) date.
	Date time.Time

	Email      string
	FirstName  string
	LastName   string
	Membership string
	Category   string
	CourseName string
	Session    string
}

// PlayerName joins the payer's first and last name, falling back to the
// NoName sentinel when both are empty.
func (r SettlementRow) PlayerName() string {
	name := r.FirstName
	if r.LastName != "" {
		if name != "" {
			name += " "
		}
		name += r.LastName
	}
	if name == "" {
		return NoName
	}
	return name
}

// Unresolved is a settlement row that claimed to be a court payment but
// matched no unallocated booking invoice. Surfaced to the operator through
// the run report; processing continues.
type Unresolved struct {
	Row    SettlementRow
	Reason string
}

// Suggestion is an advisory account proposal for a row no handler claimed.
type Suggestion struct {
	Row     SettlementRow
	Account string
}

// Report summarizes one reconciliation run.
type Report struct {
	CourtPayments int
	Payouts       int
	Refunds       int
	Memberships   int
	Events        int

	// Skipped counts zero-amount rows, Ignored rows no handler claimed.
	Skipped int
	Ignored int

	Unresolved  []Unresolved
	Suggestions []Suggestion
}
