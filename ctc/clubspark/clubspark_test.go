package clubspark

import (
	_ "embed"
	"errors"
	"strings"
	"testing"
)

//go:embed testdata/bookings.csv
var bookingsSample string

func TestParse(t *testing.T) {
	rows, err := Parse(strings.NewReader(bookingsSample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}

	want := Row{
		PlayerFirstName: "Jane",
		PlayerLastName:  "Doe",
		BookedDate:      "2021-10-17",
		CourtFee:        "20.00",
		LightFee:        "5.00",
		TotalFee:        "25.00",
		BookingDate:     "2021-10-19",
		BookingTime:     "17:00:00",
	}
	if rows[0] != want {
		t.Errorf("row 0 = %+v, want %+v", rows[0], want)
	}

	// Nameless walk-up bookings come through with empty name fields.
	if rows[2].PlayerFirstName != "" || rows[2].TotalFee != "10.00" {
		t.Errorf("row 2 = %+v", rows[2])
	}
}

func TestParseShuffledColumns(t *testing.T) {
	src := `Total Fee,Player Last Name,Player First Name,Booked Date,Court Fee,Light Fee,Booking Date,Booking Time
25.00,Doe,Jane,2021-10-17,20.00,5.00,2021-10-19,17:00:00
`
	rows, err := Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if rows[0].PlayerFirstName != "Jane" || rows[0].TotalFee != "25.00" {
		t.Errorf("row = %+v", rows[0])
	}
}

func TestParseMissingColumn(t *testing.T) {
	src := `Player First Name,Player Last Name,Booked Date
Jane,Doe,2021-10-17
`
	_, err := Parse(strings.NewReader(src))
	if !errors.Is(err, ErrMissingColumn) {
		t.Errorf("error = %v, want ErrMissingColumn", err)
	}
}

func TestParseEmpty(t *testing.T) {
	rows, err := Parse(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("rows = %d, want 0", len(rows))
	}
}
