// Package clubspark decodes the Clubspark "Book a Court" booking export.
package clubspark

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

var ErrMissingColumn = errors.New("clubspark: missing required column")

// Row is one booking record. Fields are kept as the feed's raw strings;
// interpretation happens at the import layer.
type Row struct {
	PlayerFirstName string
	PlayerLastName  string
	BookedDate      string
	CourtFee        string
	LightFee        string
	TotalFee        string
	BookingDate     string
	BookingTime     string
}

var required = []string{
	"Player First Name",
	"Player Last Name",
	"Booked Date",
	"Court Fee",
	"Light Fee",
	"Total Fee",
	"Booking Date",
	"Booking Time",
}

// Decoder reads booking rows from a CSV stream.
type Decoder struct {
	r *csv.Reader
}

// NewDecoder returns a decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	return &Decoder{r: reader}
}

// Decode reads the whole feed. A missing required header column is an error:
// a malformed feed must not be half-imported.
func (d *Decoder) Decode() ([]Row, error) {
	records, err := d.r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	cols := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		cols[strings.TrimSpace(name)] = i
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}

	field := func(record []string, name string) string {
		return strings.TrimSpace(record[cols[name]])
	}

	rows := make([]Row, 0, len(records)-1)
	for _, record := range records[1:] {
		rows = append(rows, Row{
			PlayerFirstName: field(record, "Player First Name"),
			PlayerLastName:  field(record, "Player Last Name"),
			BookedDate:      field(record, "Booked Date"),
			CourtFee:        field(record, "Court Fee"),
			LightFee:        field(record, "Light Fee"),
			TotalFee:        field(record, "Total Fee"),
			BookingDate:     field(record, "Booking Date"),
			BookingTime:     field(record, "Booking Time"),
		})
	}
	return rows, nil
}

// Parse is a convenience helper that decodes all rows from a booking export.
func Parse(r io.Reader) ([]Row, error) {
	return NewDecoder(r).Decode()
}
