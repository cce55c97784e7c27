package journal

import (
	"fmt"
	"os"

	toml "github.com/pelletier/go-toml"
)

// customerRecord is one entry of the customer sidecar file. Ids follow the
// ledger's six-digit convention; 000001 is conventionally the booking agent.
type customerRecord struct {
	ID    string `toml:"id"`
	Name  string `toml:"name"`
	Email string `toml:"email"`
}

type customerFile struct {
	Customers []customerRecord `toml:"customer"`
}

// registry is the in-memory customer list backed by the TOML sidecar.
type registry struct {
	path    string
	records []customerRecord
	dirty   bool
}

// loadCustomers reads the sidecar. A missing file is an empty registry, not
// an error: a provisioned deployment seeds the file with the booking agent.
func loadCustomers(path string) (*registry, error) {
	reg := &registry{path: path}

	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return reg, nil
	}
	if err != nil {
		return nil, err
	}

	var cf customerFile
	if err := toml.Unmarshal(b, &cf); err != nil {
		return nil, fmt.Errorf("unable to parse customer file %s: %w", path, err)
	}
	reg.records = cf.Customers
	return reg, nil
}

// find returns the record with the exact name, or nil.
func (r *registry) find(name string) *customerRecord {
	for i := range r.records {
		if r.records[i].Name == name {
			return &r.records[i]
		}
	}
	return nil
}

// create appends a new record with the next free id.
func (r *registry) create(name, email string) *customerRecord {
	next := 0
	for _, rec := range r.records {
		var n int
		if _, err := fmt.Sscanf(rec.ID, "%d", &n); err == nil && n > next {
			next = n
		}
	}
	r.records = append(r.records, customerRecord{
		ID:    fmt.Sprintf("%06d", next+1),
		Name:  name,
		Email: email,
	})
	r.dirty = true
	return &r.records[len(r.records)-1]
}

// save rewrites the sidecar if anything changed.
func (r *registry) save() error {
	if !r.dirty {
		return nil
	}
	b, err := toml.Marshal(customerFile{Customers: r.records})
	if err != nil {
		return err
	}
	if err := os.WriteFile(r.path, b, 0o644); err != nil {
		return err
	}
	r.dirty = false
	return nil
}
