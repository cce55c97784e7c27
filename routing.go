package ctc

import (
	"fmt"
	"os"
	"strings"

	toml "github.com/pelletier/go-toml"
)

// KeywordAccount is one entry of an ordered keyword routing table. The first
// entry whose keyword occurs (case-insensitively) in the detail text wins.
type KeywordAccount struct {
	Keyword string `toml:"keyword"`
	Account string `toml:"account"`

	// Fundraising redirects an event category under the fundraising parent
	// instead of the events parent.
	Fundraising bool `toml:"fundraising,omitempty"`
}

// Chart is the chart-of-accounts routing table: symbolic keys mapped to
// hierarchical account paths, plus the keyword tables for membership tiers
// and event categories. Loaded once at startup and injected, never
// re-resolved by string path per call.
type Chart struct {
	BookingAgent string `toml:"booking_agent"`
	Currency     string `toml:"currency"`

	Receivables []string `toml:"receivables"`
	Clearing    []string `toml:"clearing"`
	Checking    []string `toml:"checking"`
	FeeExpense  []string `toml:"fee_expense"`
	CourtHire   []string `toml:"court_hire"`
	LightHire   []string `toml:"light_hire"`

	Memberships []string `toml:"memberships"`
	Events      []string `toml:"events"`
	Fundraising []string `toml:"fundraising"`

	MembershipTiers   []KeywordAccount `toml:"membership_tier"`
	MembershipDefault string           `toml:"membership_default"`

	// EventCategories route under Events unless flagged fundraising; the
	// default lands under Fundraising.
	EventCategories []KeywordAccount `toml:"event_category"`
	EventDefault    string           `toml:"event_default"`
}

// DefaultChart returns the Coburg Tennis Club chart of accounts.
func DefaultChart() Chart {
	return Chart{
		BookingAgent: BookingAgentName,
		Currency:     "AUD",
		Receivables:  []string{"Assets", "Accounts Receivable"},
		Clearing:     []string{"Assets", "Current Assets", "Stripe Account"},
		Checking:     []string{"Assets", "Current Assets", "Checking Account"},
		FeeExpense:   []string{"Expenses", "Stripe Fee"},
		CourtHire:    []string{"Income", "Casual Hire", "Court Hire"},
		LightHire:    []string{"Income", "Casual Hire", "Hire Light Fees"},
		Memberships:  []string{"Income", "Memberships"},
		Events:       []string{"Income", "Events"},
		Fundraising:  []string{"Income", "Fundraising"},
		MembershipTiers: []KeywordAccount{
			{Keyword: "Junior", Account: "Junior"},
			{Keyword: "Social", Account: "Social"},
			{Keyword: "Student", Account: "Student"},
			{Keyword: "Senior", Account: "Senior"},
		},
		MembershipDefault: "Individual",
		EventCategories: []KeywordAccount{
			{Keyword: "OpenCourtSessions", Account: "Open Court Sessions"},
			{Keyword: "MensSocial", Account: "MensSocial"},
			{Keyword: "Girl", Account: "Girl Lets Play"},
			{Keyword: "Club Champ", Account: "Club Championships"},
			{Keyword: "Bingo", Account: "Bingo", Fundraising: true},
		},
		EventDefault: "Club Events",
	}
}

// LoadChart reads a chart from a TOML file.
func LoadChart(path string) (Chart, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Chart{}, err
	}
	c := DefaultChart()
	if err := toml.Unmarshal(b, &c); err != nil {
		return Chart{}, fmt.Errorf("unable to parse chart %s: %w", path, err)
	}
	return c, nil
}

// MembershipAccountPath selects the membership sub-account for a membership
// detail text. Pure function of the text; case-insensitive substring match,
// first keyword wins, stable fallback to the default tier.
func (c Chart) MembershipAccountPath(detail string) []string {
	sub := c.MembershipDefault
	lower := strings.ToLower(detail)
	for _, ka := range c.MembershipTiers {
		if strings.Contains(lower, strings.ToLower(ka.Keyword)) {
			sub = ka.Account
			break
		}
	}
	return append(append([]string{}, c.Memberships...), sub)
}

// EventAccountPath selects the event or fundraising sub-account for an event
// category text, with the same match semantics as memberships. Categories can
// contain several keywords ("Club Champ" inside a "Club Events" night), so
// the table order is load-bearing.
func (c Chart) EventAccountPath(detail string) []string {
	parent := c.Fundraising
	sub := c.EventDefault
	lower := strings.ToLower(detail)
	for _, ka := range c.EventCategories {
		if strings.Contains(lower, strings.ToLower(ka.Keyword)) {
			sub = ka.Account
			if !ka.Fundraising {
				parent = c.Events
			}
			break
		}
	}
	return append(append([]string{}, parent...), sub)
}

// Routing holds the chart plus the fixed account handles, resolved once
// against the ledger at startup. Missing accounts are fatal here, before any
// row is processed.
type Routing struct {
	chart  Chart
	ledger Ledger

	Receivables Account
	Clearing    Account
	Checking    Account
	FeeExpense  Account
	CourtHire   Account
	LightHire   Account
}

// ResolveRouting resolves all fixed chart accounts through the ledger.
func ResolveRouting(l Ledger, c Chart) (*Routing, error) {
	rt := &Routing{chart: c, ledger: l}
	for _, fixed := range []struct {
		path []string
		dst  *Account
	}{
		{c.Receivables, &rt.Receivables},
		{c.Clearing, &rt.Clearing},
		{c.Checking, &rt.Checking},
		{c.FeeExpense, &rt.FeeExpense},
		{c.CourtHire, &rt.CourtHire},
		{c.LightHire, &rt.LightHire},
	} {
		acct, err := l.LookupAccount(fixed.path...)
		if err != nil {
			return nil, fmt.Errorf("resolve chart account %s: %w", strings.Join(fixed.path, ":"), err)
		}
		*fixed.dst = acct
	}
	return rt, nil
}

// Chart returns the routing table configuration.
func (rt *Routing) Chart() Chart { return rt.chart }

// MembershipAccount resolves the membership sub-account for the detail text.
func (rt *Routing) MembershipAccount(detail string) (Account, error) {
	return rt.ledger.LookupAccount(rt.chart.MembershipAccountPath(detail)...)
}

// EventAccount resolves the event/fundraising sub-account for the detail text.
func (rt *Routing) EventAccount(detail string) (Account, error) {
	return rt.ledger.LookupAccount(rt.chart.EventAccountPath(detail)...)
}
