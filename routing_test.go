package ctc

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMembershipAccountPath(t *testing.T) {
	chart := DefaultChart()
	cases := []struct {
		detail string
		want   string
	}{
		{"Senior Membership: Customer: Jane Doe, jane@example.com", "Income:Memberships:Senior"},
		{"junior membership", "Income:Memberships:Junior"},
		{"Social Membership", "Income:Memberships:Social"},
		{"Full-time Student Membership", "Income:Memberships:Student"},
		// First table entry wins when several keywords occur.
		{"Junior Student Membership", "Income:Memberships:Junior"},
		{"Adult Membership 2021-22", "Income:Memberships:Individual"},
		{"", "Income:Memberships:Individual"},
	}

	for _, tc := range cases {
		got := strings.Join(chart.MembershipAccountPath(tc.detail), ":")
		if got != tc.want {
			t.Errorf("MembershipAccountPath(%q) = %s, want %s", tc.detail, got, tc.want)
		}
	}
}

func TestEventAccountPath(t *testing.T) {
	chart := DefaultChart()
	cases := []struct {
		detail string
		want   string
	}{
		{"MensSocial", "Income:Events:MensSocial"},
		{"OpenCourtSessions", "Income:Events:Open Court Sessions"},
		{"Girl Lets Play Term 4", "Income:Events:Girl Lets Play"},
		{"Club Championships 2021", "Income:Events:Club Championships"},
		{"Friday Bingo Night", "Income:Fundraising:Bingo"},
		{"Trivia Night", "Income:Fundraising:Club Events"},
		{"", "Income:Fundraising:Club Events"},
	}

	for _, tc := range cases {
		got := strings.Join(chart.EventAccountPath(tc.detail), ":")
		if got != tc.want {
			t.Errorf("EventAccountPath(%q) = %s, want %s", tc.detail, got, tc.want)
		}
	}
}

func TestLoadChart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chart.toml")
	src := `currency = "NZD"
checking = ["Assets", "Bank", "Operating"]

[[event_category]]
keyword = "Quiz"
account = "Quiz Nights"
fundraising = true
`
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	chart, err := LoadChart(path)
	if err != nil {
		t.Fatalf("LoadChart: %v", err)
	}
	if chart.Currency != "NZD" {
		t.Errorf("Currency = %q, want NZD", chart.Currency)
	}
	if got := strings.Join(chart.Checking, ":"); got != "Assets:Bank:Operating" {
		t.Errorf("Checking = %s, want Assets:Bank:Operating", got)
	}
	// Keys absent from the file keep their defaults.
	if chart.BookingAgent != BookingAgentName {
		t.Errorf("BookingAgent = %q, want %q", chart.BookingAgent, BookingAgentName)
	}
	if got := strings.Join(chart.EventAccountPath("Pub Quiz"), ":"); got != "Income:Fundraising:Quiz Nights" {
		t.Errorf("EventAccountPath(Pub Quiz) = %s, want Income:Fundraising:Quiz Nights", got)
	}
}

func TestLoadChartMissingFile(t *testing.T) {
	if _, err := LoadChart(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("LoadChart on a missing file should fail")
	}
}

func TestResolveRouting(t *testing.T) {
	chart := DefaultChart()
	l := newTestLedger(chart)

	rt, err := ResolveRouting(l, chart)
	if err != nil {
		t.Fatalf("ResolveRouting: %v", err)
	}
	if got := rt.Clearing.Name(); got != "Assets:Current Assets:Stripe Account" {
		t.Errorf("Clearing = %s", got)
	}
	if got := rt.FeeExpense.Name(); got != "Expenses:Stripe Fee" {
		t.Errorf("FeeExpense = %s", got)
	}

	acct, err := rt.MembershipAccount("Senior Membership")
	if err != nil {
		t.Fatalf("MembershipAccount: %v", err)
	}
	if got := acct.Name(); got != "Income:Memberships:Senior" {
		t.Errorf("MembershipAccount = %s", got)
	}
}

func TestResolveRoutingMissingAccount(t *testing.T) {
	chart := DefaultChart()
	chart.Checking = []string{"Assets", "No Such Account"}
	l := newTestLedger(DefaultChart())

	_, err := ResolveRouting(l, chart)
	if err == nil {
		t.Fatal("ResolveRouting should fail for a missing account")
	}
	if !strings.Contains(err.Error(), "Assets:No Such Account") {
		t.Errorf("error %q should name the missing account", err)
	}
}
