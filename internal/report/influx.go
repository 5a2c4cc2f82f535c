// Package report renders scraped account data for other tools: InfluxDB
// line protocol for the metrics pipeline and plain listings for humans.
package report

import (
	"bufio"
	"io"
	"strings"

	"github.com/grez-lucas/accesd-scraper/internal/scraper/bank"
)

const Measurement = "accounts"

// Tag values may contain spaces, commas and equal signs, which the line
// protocol reserves.
var tagEscaper = strings.NewReplacer(" ", `\ `, ",", `\,`, "=", `\=`)

// InfluxLine formats one account, e.g.
//
//	accounts,fullname=1234\ Compte\ Chèque,category=Comptes,type=Chèque,id=1234,caisse=00012,unit=$ solde=45.20
func InfluxLine(a bank.AccountRecord) string {
	tags := [][2]string{
		{"fullname", a.FullName},
		{"category", a.Category},
		{"type", a.Type},
		{"id", a.ID},
		{"caisse", a.Caisse},
		{"unit", a.Unit},
	}
	if a.HasDescription() {
		tags = append(tags, [2]string{"description", a.Description})
	}

	var b strings.Builder
	b.WriteString(Measurement)
	for _, t := range tags {
		b.WriteByte(',')
		b.WriteString(t[0])
		b.WriteByte('=')
		b.WriteString(tagEscaper.Replace(t[1]))
	}
	b.WriteString(" solde=")
	b.WriteString(a.Balance.StringFixed(2))
	return b.String()
}

// WriteInflux writes one line per account.
func WriteInflux(w io.Writer, accounts []bank.AccountRecord) error {
	bw := bufio.NewWriter(w)
	for _, a := range accounts {
		if _, err := bw.WriteString(InfluxLine(a) + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}
