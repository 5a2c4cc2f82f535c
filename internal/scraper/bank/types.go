package bank

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// AccountRecord is one account row of the portal summary page.
type AccountRecord struct {
	FullName    string
	Category    string
	ID          string
	Type        string
	Caisse      string
	Description string // optional, empty when the portal shows none
	Balance     decimal.Decimal
	Unit        string
}

// HasDescription reports whether the portal showed a description line.
func (a AccountRecord) HasDescription() bool {
	return a.Description != ""
}

// CatalogEntry is an account that can be selected in the export form.
type CatalogEntry struct {
	Field string // checkbox input name, empty for VISA
	Label string
}

// Catalog maps a short account key to its export form entry.
type Catalog struct {
	Entries map[string]CatalogEntry
	// Hidden fields of the selection page, echoed back on download
	Form map[string]string
}

const VisaKey = "VISA"

func NewCatalog() *Catalog {
	return &Catalog{
		Entries: map[string]CatalogEntry{
			VisaKey: {Field: "", Label: VisaKey},
		},
		Form: map[string]string{},
	}
}

func (c *Catalog) Lookup(key string) (CatalogEntry, bool) {
	if c == nil {
		return CatalogEntry{}, false
	}
	e, ok := c.Entries[key]
	return e, ok
}

// Keys returns the catalog keys in lexical order.
func (c *Catalog) Keys() []string {
	keys := make([]string, 0, len(c.Entries))
	for k := range c.Entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Credentials are the secrets fed to the authentication sequence.
type Credentials struct {
	UserCode     string
	Password     string
	SecurePhrase string
	// Security question text -> answer
	Questions map[string]string
}

// DateRange is an inclusive range of calendar days.
type DateRange struct {
	Start time.Time
	End   time.Time
}

func (r DateRange) IsZero() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

// TrailingRange returns the range ending `endOffset` days before now and
// spanning back `days` days from now.
func TrailingRange(now time.Time, days, endOffset int) DateRange {
	return DateRange{
		Start: now.AddDate(0, 0, -days),
		End:   now.AddDate(0, 0, -endOffset),
	}
}
