package ctc

import (
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
)

var one = decimal.NewFromInt(1)

// ImportBookings creates one receivable invoice per booking row with a
// non-zero fee, raised against the booking-agent customer and split into
// court-hire and light-hire line items, and returns the allocation index the
// reconciler consumes.
//
// Each invoice is committed before the next row is read; a failure mid-run
// leaves prior invoices in the ledger, matching its per-invoice commit
// semantics.
func ImportBookings(l Ledger, rt *Routing, rows []BookingRow) (*AllocationIndex, error) {
	chart := rt.Chart()

	// The booking agent is provisioned with the ledger, never created here.
	agent, err := l.FindCustomer(chart.BookingAgent)
	if err != nil {
		return nil, fmt.Errorf("booking agent customer %q: %w", chart.BookingAgent, err)
	}
	currency, err := l.Currency(chart.Currency)
	if err != nil {
		return nil, err
	}

	ix := NewAllocationIndex()
	for _, row := range rows {
		if row.CourtFee.IsZero() && row.LightFee.IsZero() {
			continue
		}
		if row.PlayerName == "" {
			slog.Warn("booking row has no player name",
				"date", row.Booked.Format("2006-01-02"),
				"total", row.TotalFee)
		}

		inv, err := l.NewInvoice(agent, currency, row.Booked, false)
		if err != nil {
			return nil, err
		}
		if row.CourtFee.Sign() > 0 {
			if err := inv.AddLine("Court Hire", one, row.CourtFee, rt.CourtHire); err != nil {
				return nil, err
			}
		}
		if row.LightFee.Sign() > 0 {
			if err := inv.AddLine("Light Hire", one, row.LightFee, rt.LightHire); err != nil {
				return nil, err
			}
		}
		if err := inv.Post(rt.Receivables, row.Booked, row.Booked, false); err != nil {
			return nil, fmt.Errorf("post invoice for %s: %w", row.Booked.Format("2006-01-02"), err)
		}

		ix.Add(row.PlayerName, &BookingEntry{Row: row, Invoice: inv})
	}

	slog.Info("booking import complete", "invoices", ix.Size(), "rows", len(rows))
	return ix, nil
}
