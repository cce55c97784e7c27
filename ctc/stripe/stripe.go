// Package stripe decodes the Stripe balance/settlement report export.
// The report's metadata columns vary by upstream form (three spellings of
// "first name" alone); the decoder folds the variants into one field each.
package stripe

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

var ErrMissingColumn = errors.New("stripe: missing required column")

// Row is one settlement record with metadata variants already folded.
// Fields are the feed's raw strings.
type Row struct {
	Description string
	Type        string
	Amount      string
	Fee         string
	Net         string
	AvailableOn string

	Email      string
	ContactID  string
	Mobile     string
	FirstName  string
	LastName   string
	Membership string
	Category   string
	CourseName string
	Session    string
}

var required = []string{
	"Description",
	"Type",
	"Amount",
	"Fee",
	"Net",
	"Available On (UTC)",
}

// Decoder reads settlement rows from a CSV stream.
type Decoder struct {
	r *csv.Reader
}

func NewDecoder(r io.Reader) *Decoder {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	// Stripe pads exports with ragged metadata columns on older reports.
	reader.FieldsPerRecord = -1
	return &Decoder{r: reader}
}

// Decode reads the whole report. Missing required headers are fatal;
// metadata columns are optional and default to empty.
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
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}
	first := func(record []string, names ...string) string {
		for _, name := range names {
			if v := field(record, name); v != "" {
				return v
			}
		}
		return ""
	}

	rows := make([]Row, 0, len(records)-1)
	for _, record := range records[1:] {
		rows = append(rows, Row{
			Description: field(record, "Description"),
			Type:        field(record, "Type"),
			Amount:      field(record, "Amount"),
			Fee:         field(record, "Fee"),
			Net:         field(record, "Net"),
			AvailableOn: field(record, "Available On (UTC)"),
			Email:       field(record, "Email address (metadata)"),
			ContactID:   field(record, "Contact ID (metadata)"),
			Mobile:      first(record, "Mobile number (metadata)", "Phone number (metadata)"),
			FirstName:   first(record, "First name (metadata)", "First Name (metadata)", "FirstName (metadata)"),
			LastName:    first(record, "Last name (metadata)", "Last Name (metadata)", "Surname (metadata)"),
			Membership:  field(record, "Membership (metadata)"),
			Category:    field(record, "Category (metadata)"),
			CourseName:  field(record, "Course Name (metadata)"),
			Session:     field(record, "Session (metadata)"),
		})
	}
	return rows, nil
}

// Parse is a convenience helper that decodes all rows from a settlement report.
func Parse(r io.Reader) ([]Row, error) {
	return NewDecoder(r).Decode()
}
