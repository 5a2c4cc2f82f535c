package report

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/grez-lucas/accesd-scraper/internal/scraper/bank"
)

// WriteCatalog prints the downloadable accounts as "KEY ==> label", keys in
// lexical order.
func WriteCatalog(w io.Writer, c *bank.Catalog) error {
	for _, key := range c.Keys() {
		if _, err := fmt.Fprintf(w, "%-10s ==> %s\n", key, c.Entries[key].Label); err != nil {
			return err
		}
	}
	return nil
}

// WriteTable prints the accounts as a table for a terminal.
func WriteTable(w io.Writer, accounts []bank.AccountRecord) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Catégorie", "No", "Type", "Caisse", "Description", "Solde"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 6, Align: text.AlignRight, AlignHeader: text.AlignRight},
	})
	for _, a := range accounts {
		t.AppendRow(table.Row{a.Category, a.ID, a.Type, a.Caisse, a.Description, a.Balance.StringFixed(2) + " " + a.Unit})
	}
	t.Render()
}
