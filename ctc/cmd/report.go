package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/juztin/numeronym"
	"golang.org/x/term"

	ctc "github.com/libr0/ctc-accounts"
)

func reportColumns() int {
	columns := columnWidth
	if columnWide {
		columns = 132
		fd := int(os.Stdout.Fd())
		if term.IsTerminal(fd) {
			if tw, _, err := term.GetSize(fd); err == nil {
				columns = tw
			}
		}
	}
	if columns < 40 {
		columns = 40
	}
	return columns
}

// printReport writes the run summary: per-class counters, the unresolved
// allocations an operator has to chase, and any account suggestions.
func printReport(w io.Writer, report *ctc.Report, columns int) {
	buf := bufio.NewWriter(w)

	fmt.Fprintln(buf, "Reconciliation summary")
	fmt.Fprintf(buf, "    court payments  %d\n", report.CourtPayments)
	fmt.Fprintf(buf, "    payouts         %d\n", report.Payouts)
	fmt.Fprintf(buf, "    refunds         %d\n", report.Refunds)
	fmt.Fprintf(buf, "    memberships     %d\n", report.Memberships)
	fmt.Fprintf(buf, "    events          %d\n", report.Events)
	fmt.Fprintf(buf, "    skipped (zero)  %d\n", report.Skipped)
	fmt.Fprintf(buf, "    ignored         %d\n", report.Ignored)

	if len(report.Unresolved) > 0 {
		fmt.Fprintln(buf)
		fmt.Fprintln(buf, "Unresolved allocations")
		for _, u := range report.Unresolved {
			line := fmt.Sprintf("    %s  %10s  %s",
				u.Row.Date.Format("2006/01/02"), u.Row.Amount.StringFixedBank(2), u.Reason)
			fmt.Fprintln(buf, clip(line, columns))
		}
	}

	if len(report.Suggestions) > 0 {
		fmt.Fprintln(buf)
		fmt.Fprintln(buf, "Suggested accounts for unclassified rows")
		for _, s := range report.Suggestions {
			account := s.Account
			desc := s.Row.Description
			if len(desc)+len(account)+16 > columns {
				account = abbreviateAccount(account)
			}
			line := fmt.Sprintf("    %s  %10s  %s -> %s",
				s.Row.Date.Format("2006/01/02"), s.Row.Amount.StringFixedBank(2), desc, account)
			fmt.Fprintln(buf, clip(line, columns))
		}
	}

	buf.Flush()
}

func clip(line string, columns int) string {
	if len(line) <= columns {
		return line
	}
	return line[:columns]
}

// abbreviateAccount numeronymizes all but the leaf segment of an account
// path, so "Income:Fundraising:Club Events" stays recognizable in a narrow
// report column.
func abbreviateAccount(name string) string {
	segments := strings.Split(name, ":")
	for i, segment := range segments[:len(segments)-1] {
		segments[i] = string(numeronym.Parse([]byte(segment)))
	}
	return strings.Join(segments, ":")
}
