package ctc

import (
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Description patterns of the settlement feed. These are the deployment's
// fixed product strings; everything downstream routes off them.
const (
	CourtBookingDescription = "Court booking at Coburg Tennis Club"
	MembershipPrefix        = "Coburg Tennis Club:"
	EventPrefix             = "Coburg Tennis Club "
	RefundPrefix            = "REFUND FOR CHARGE"

	// BookingAgentName is the internal customer that casual-hire invoices are
	// raised against before a payment ties them to a player.
	BookingAgentName = "Book A Court"
)

const (
	// "Coburg Tennis Club Tuesday, 19 October 2021 5:00 PM"
	refundSessionLayout = EventPrefix + "Monday, 2 January 2006 3:04 PM"

	// "2021-10-17 10:30:00"
	bookingSessionLayout = "2006-01-02 15:04:05"
)

// RowClass tags a classified settlement row.
type RowClass int

const (
	ClassUnknown RowClass = iota
	ClassCourtPayment
	ClassPayout
	ClassRefund
	ClassMembership
	ClassEvent
)

func (c RowClass) String() string {
	switch c {
	case ClassCourtPayment:
		return "court-payment"
	case ClassPayout:
		return "payout"
	case ClassRefund:
		return "refund"
	case ClassMembership:
		return "membership"
	case ClassEvent:
		return "event"
	}
	return "unknown"
}

// Classification is the structured result of classifying one settlement row.
// All free-text extraction happens here; the handlers only consume fields.
type Classification struct {
	Class RowClass

	// Refund: the parenthesized original description, and the parsed session
	// timestamp when the refunded charge was a court booking. SessionOK is
	// false when the session metadata did not match the expected format.
	RefundItem string
	Session    time.Time
	SessionOK  bool

	// Membership and event payments.
	Item          string // invoice line description
	Detail        string // free text driving the account keyword routing
	CustomerName  string
	CustomerEmail string
}

var (
	refundItemPattern    = regexp.MustCompile(`^` + RefundPrefix + ` \((.*)\)`)
	customerNamePattern  = regexp.MustCompile(`Customer: ([^,]*),`)
	customerEmailPattern = regexp.MustCompile(`Customer: [^,]*, *([^,]*),`)
)

// ClassifyRow classifies a settlement row by its description and type.
// First match wins; the order mirrors the settlement report's conventions
// (the membership prefix is a strict prefix of the event prefix, so
// memberships must be tested first).
func ClassifyRow(row SettlementRow) Classification {
	switch {
	case row.Description == CourtBookingDescription:
		return Classification{Class: ClassCourtPayment}

	case row.Type == "payout":
		return Classification{Class: ClassPayout}

	case strings.HasPrefix(row.Description, RefundPrefix):
		cl := Classification{Class: ClassRefund}
		if m := refundItemPattern.FindStringSubmatch(row.Description); m != nil {
			cl.RefundItem = m[1]
		}
		if cl.RefundItem == CourtBookingDescription {
			if t, err := time.Parse(refundSessionLayout, row.Session); err == nil {
				cl.Session = t
				cl.SessionOK = true
			}
		}
		return cl

	case strings.HasPrefix(row.Description, MembershipPrefix):
		cl := Classification{
			Class:  ClassMembership,
			Item:   strings.TrimSpace(strings.TrimPrefix(row.Description, MembershipPrefix)),
			Detail: row.Membership,
		}
		if m := customerNamePattern.FindStringSubmatch(row.Membership); m != nil {
			cl.CustomerName = strings.TrimSpace(m[1])
		}
		if m := customerEmailPattern.FindStringSubmatch(row.Membership); m != nil {
			cl.CustomerEmail = strings.TrimSpace(m[1])
		}
		return cl

	case strings.HasPrefix(row.Description, EventPrefix):
		detail := row.Category
		if detail == "Custom" {
			detail = row.CourseName
		}
		return Classification{
			Class:         ClassEvent,
			Item:          detail,
			Detail:        detail,
			CustomerName:  row.PlayerName(),
			CustomerEmail: row.Email,
		}
	}

	return Classification{Class: ClassUnknown}
}

// ParseBookingSession parses a booking feed date + time pair into a session
// timestamp. Returns false when the pair does not parse; the row then simply
// never matches a refund's session search.
func ParseBookingSession(date, tm string) (time.Time, bool) {
	s := strings.TrimSpace(date) + " " + strings.TrimSpace(tm)
	if t, err := time.Parse(bookingSessionLayout, s); err == nil {
		return t, true
	}
	// Exports flip between 24h and 12h clock formats.
	if t, err := dateparse.ParseAny(s); err == nil {
		return t, true
	}
	return time.Time{}, false
}
