package ctc

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestImportBookings(t *testing.T) {
	chart := DefaultChart()
	l := newTestLedger(chart)
	rt, err := ResolveRouting(l, chart)
	if err != nil {
		t.Fatal(err)
	}

	rows := []BookingRow{
		{
			PlayerName: "Jane Doe",
			Booked:     date(2021, 10, 17),
			CourtFee:   dec("20"),
			LightFee:   dec("5"),
			TotalFee:   dec("25"),
		},
		{
			PlayerName: "John Smith",
			Booked:     date(2021, 10, 18),
			CourtFee:   dec("15"),
			TotalFee:   dec("15"),
		},
		// Free booking, no invoice.
		{
			PlayerName: "Jane Doe",
			Booked:     date(2021, 10, 18),
		},
		{
			Booked:   date(2021, 10, 19),
			CourtFee: dec("10"),
			TotalFee: dec("10"),
		},
	}

	ix, err := ImportBookings(l, rt, rows)
	if err != nil {
		t.Fatalf("ImportBookings: %v", err)
	}

	if ix.Size() != 3 {
		t.Fatalf("index size = %d, want 3", ix.Size())
	}
	if len(l.invoices) != 3 {
		t.Fatalf("invoices = %d, want 3", len(l.invoices))
	}

	inv := l.invoices[0]
	if inv.customer != BookingAgentName {
		t.Errorf("invoice customer = %q, want %q", inv.customer, BookingAgentName)
	}
	if !inv.posted || inv.receivables != "Assets:Accounts Receivable" {
		t.Errorf("invoice not posted to receivables: posted=%v receivables=%q", inv.posted, inv.receivables)
	}
	if len(inv.lines) != 2 {
		t.Fatalf("invoice lines = %d, want 2", len(inv.lines))
	}
	if inv.lines[0].description != "Court Hire" || !inv.lines[0].amount.Equal(dec("20")) ||
		inv.lines[0].account != "Income:Casual Hire:Court Hire" {
		t.Errorf("court line = %+v", inv.lines[0])
	}
	if inv.lines[1].description != "Light Hire" || !inv.lines[1].amount.Equal(dec("5")) ||
		inv.lines[1].account != "Income:Casual Hire:Hire Light Fees" {
		t.Errorf("light line = %+v", inv.lines[1])
	}

	// Court-only booking gets a single line.
	if got := len(l.invoices[1].lines); got != 1 {
		t.Errorf("court-only invoice lines = %d, want 1", got)
	}

	if got := len(ix.Bucket("Jane Doe")); got != 1 {
		t.Errorf("Jane Doe bucket size = %d, want 1", got)
	}
	// Nameless bookings file under the sentinel bucket.
	if got := len(ix.Bucket(NoName)); got != 1 {
		t.Errorf("NoName bucket size = %d, want 1", got)
	}
}

func TestImportBookingsMissingAgent(t *testing.T) {
	chart := DefaultChart()
	chart.BookingAgent = "Nobody"
	l := newTestLedger(DefaultChart())
	rt, err := ResolveRouting(l, chart)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := ImportBookings(l, rt, nil); err == nil {
		t.Error("ImportBookings should fail when the booking agent customer is missing")
	}
}

func TestAllocationIndexFindUnallocated(t *testing.T) {
	ix := NewAllocationIndex()
	first := &BookingEntry{Row: BookingRow{TotalFee: dec("25")}}
	second := &BookingEntry{Row: BookingRow{TotalFee: dec("25")}}
	other := &BookingEntry{Row: BookingRow{TotalFee: dec("15")}}
	ix.Add("Jane Doe", first)
	ix.Add("Jane Doe", second)
	ix.Add("Jane Doe", other)

	if got := ix.FindUnallocated("Jane Doe", dec("25")); got != first {
		t.Errorf("first match = %v, want the earliest unallocated entry", got)
	}
	first.Allocated = true
	if got := ix.FindUnallocated("Jane Doe", dec("25")); got != second {
		t.Errorf("after allocation = %v, want the next entry", got)
	}
	second.Allocated = true
	if got := ix.FindUnallocated("Jane Doe", dec("25")); got != nil {
		t.Errorf("exhausted bucket = %v, want nil", got)
	}
	if got := ix.FindUnallocated("Nobody", dec("25")); got != nil {
		t.Errorf("unknown player = %v, want nil", got)
	}
}

func TestAllocationIndexFindSession(t *testing.T) {
	session := time.Date(2021, 10, 19, 17, 0, 0, 0, time.UTC)
	ix := NewAllocationIndex()
	match := &BookingEntry{Row: BookingRow{Session: session, TotalFee: dec("25")}}
	ix.Add("Jane Doe", &BookingEntry{Row: BookingRow{TotalFee: dec("25")}})
	ix.Add("John Smith", match)

	if got := ix.FindSession(session, dec("25")); got != match {
		t.Errorf("FindSession = %v, want the matching entry", got)
	}
	if got := ix.FindSession(session, dec("30")); got != nil {
		t.Errorf("fee mismatch = %v, want nil", got)
	}
	match.Refunded = true
	if got := ix.FindSession(session, dec("25")); got != nil {
		t.Errorf("refunded entry = %v, want nil", got)
	}
}
