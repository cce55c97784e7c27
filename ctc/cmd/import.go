package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/hako/durafmt"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	ctc "github.com/libr0/ctc-accounts"
	"github.com/libr0/ctc-accounts/ctc/clubspark"
	"github.com/libr0/ctc-accounts/ctc/journal"
	"github.com/libr0/ctc-accounts/ctc/stripe"
)

var clubsparkPath string
var stripePath string
var archiveDir string
var suggestAccounts bool
var columnWidth int
var columnWide bool

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import booking and settlement feeds into the ledger",
	Run: func(_ *cobra.Command, _ []string) {
		start := time.Now()

		chart := ctc.DefaultChart()
		if chartFilePath != "" {
			var err error
			if chart, err = ctc.LoadChart(chartFilePath); err != nil {
				fatal("unable to load chart of accounts", err)
			}
		}

		j, err := journal.Open(ledgerFilePath)
		if err != nil {
			fatal("unable to open ledger", err)
		}
		defer j.Close()

		routing, err := ctc.ResolveRouting(j, chart)
		if err != nil {
			fatal("unable to resolve chart accounts", err)
		}

		bookingRows, err := readBookings(clubsparkPath)
		if err != nil {
			fatal("unable to read booking feed", err)
		}
		index, err := ctc.ImportBookings(j, routing, bookingRows)
		if err != nil {
			fatal("booking import failed", err)
		}

		settlementRows, err := readSettlements(stripePath)
		if err != nil {
			fatal("unable to read settlement feed", err)
		}
		reconciler, err := ctc.NewReconciler(j, routing, index)
		if err != nil {
			fatal("unable to set up reconciler", err)
		}
		if suggestAccounts {
			if s := trainSuggester(j.Transactions(), chart); s != nil {
				reconciler.SetSuggester(s)
			} else {
				slog.Warn("not enough ledger history to train account suggestions")
			}
		}

		report, err := reconciler.Reconcile(settlementRows)
		if err != nil {
			fatal("reconciliation failed", err)
		}

		if err := j.Save(); err != nil {
			fatal("unable to save ledger", err)
		}

		if archiveDir != "" {
			if err := archiveFeeds(archiveDir, clubsparkPath, stripePath); err != nil {
				slog.Warn("unable to archive feeds", "err", err)
			}
		}

		printReport(os.Stdout, report, reportColumns())
		slog.Info("import complete",
			"invoices", index.Size(),
			"elapsed", durafmt.Parse(time.Since(start)).LimitFirstN(2).String())
	},
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVar(&clubsparkPath, "clubsparkfile", "", "Clubspark booking export CSV.")
	importCmd.Flags().StringVar(&stripePath, "stripefile", "", "Stripe settlement report CSV.")
	importCmd.Flags().StringVar(&archiveDir, "archive-dir", "", "Archive compressed copies of the feeds to this directory.")
	importCmd.Flags().BoolVar(&suggestAccounts, "suggest", false, "Suggest accounts for unclassified settlement rows.")
	importCmd.Flags().IntVar(&columnWidth, "columns", 80, "Set a column width for report output.")
	importCmd.Flags().BoolVar(&columnWide, "wide", false, "Wide report output (use terminal width).")
	importCmd.MarkFlagRequired("clubsparkfile")
	importCmd.MarkFlagRequired("stripefile")
}

// readBookings decodes the booking feed and converts it to typed rows.
// Malformed amounts or dates are fatal: half-read feeds must not be imported.
func readBookings(path string) ([]ctc.BookingRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	feed, err := clubspark.Parse(f)
	if err != nil {
		return nil, err
	}

	rows := make([]ctc.BookingRow, 0, len(feed))
	for i, r := range feed {
		booked, err := parseFeedDate(r.BookedDate)
		if err != nil {
			return nil, fmt.Errorf("booking row %d: %w", i+1, err)
		}
		courtFee, err := parseFeedAmount(r.CourtFee)
		if err != nil {
			return nil, fmt.Errorf("booking row %d: court fee: %w", i+1, err)
		}
		lightFee, err := parseFeedAmount(r.LightFee)
		if err != nil {
			return nil, fmt.Errorf("booking row %d: light fee: %w", i+1, err)
		}
		totalFee, err := parseFeedAmount(r.TotalFee)
		if err != nil {
			return nil, fmt.Errorf("booking row %d: total fee: %w", i+1, err)
		}

		session, _ := ctc.ParseBookingSession(r.BookingDate, r.BookingTime)
		rows = append(rows, ctc.BookingRow{
			PlayerName:  joinName(r.PlayerFirstName, r.PlayerLastName),
			Booked:      booked,
			BookingDate: r.BookingDate,
			BookingTime: r.BookingTime,
			Session:     session,
			CourtFee:    courtFee,
			LightFee:    lightFee,
			TotalFee:    totalFee,
		})
	}
	return rows, nil
}

// readSettlements decodes the settlement report and converts it to typed rows.
func readSettlements(path string) ([]ctc.SettlementRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	feed, err := stripe.Parse(f)
	if err != nil {
		return nil, err
	}

	rows := make([]ctc.SettlementRow, 0, len(feed))
	for i, r := range feed {
		// "2021-10-19 01:23:45" -> the date part only
		datePart, _, _ := strings.Cut(r.AvailableOn, " ")
		date, err := parseFeedDate(datePart)
		if err != nil {
			return nil, fmt.Errorf("settlement row %d: %w", i+1, err)
		}
		amount, err := parseFeedAmount(r.Amount)
		if err != nil {
			return nil, fmt.Errorf("settlement row %d: amount: %w", i+1, err)
		}
		fee, err := parseFeedAmount(r.Fee)
		if err != nil {
			return nil, fmt.Errorf("settlement row %d: fee: %w", i+1, err)
		}
		net, err := parseFeedAmount(r.Net)
		if err != nil {
			return nil, fmt.Errorf("settlement row %d: net: %w", i+1, err)
		}

		rows = append(rows, ctc.SettlementRow{
			Description: r.Description,
			Type:        r.Type,
			Amount:      amount,
			Fee:         fee,
			Net:         net,
			Date:        date,
			Email:       r.Email,
			FirstName:   r.FirstName,
			LastName:    r.LastName,
			Membership:  r.Membership,
			Category:    r.Category,
			CourseName:  r.CourseName,
			Session:     r.Session,
		})
	}
	return rows, nil
}

func joinName(first, last string) string {
	switch {
	case first == "":
		return last
	case last == "":
		return first
	}
	return first + " " + last
}

func parseFeedDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unable to parse date(%s): %w", s, err)
	}
	return t, nil
}

// parseFeedAmount parses a feed amount; empty cells are zero (Stripe leaves
// the fee column blank on fee-free rows).
func parseFeedAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
}
