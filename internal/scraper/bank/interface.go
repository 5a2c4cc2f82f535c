// Package bank defines the common structs and logic used throughout bank
// implementations.
package bank

import "context"

type BankScraper interface {
	// Login walks the authentication sequence up to the portal landing page
	Login(ctx context.Context) error
	// Accounts lists every account shown on the portal summary page
	Accounts(ctx context.Context) ([]AccountRecord, error)
	// ExportCatalog lists the accounts that can be downloaded as OFX
	ExportCatalog(ctx context.Context) (*Catalog, error)
	// Download retrieves the OFX export of one catalog entry
	Download(ctx context.Context, catalog *Catalog, key string, period DateRange) ([]byte, DateRange, error)
}

type BankCode string

const (
	BankDesjardins BankCode = "DESJARDINS"
)
