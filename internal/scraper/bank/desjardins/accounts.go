package desjardins

import (
	"context"
	"net/http"

	"github.com/grez-lucas/accesd-scraper/internal/scraper/bank"
	"github.com/grez-lucas/accesd-scraper/internal/scraper/session"
)

// Accounts reads the summary page. Rows the parser cannot read are logged
// and left out.
func (s *Scraper) Accounts(ctx context.Context) ([]bank.AccountRecord, error) {
	if err := s.loggedIn(); err != nil {
		return nil, s.fail("accounts", err)
	}

	page, err := s.sess.Do(ctx, session.Request{
		Step:   "summary",
		Host:   session.AccesD,
		Method: http.MethodGet,
		Path:   PathSummary,
		Data:   query(SummaryQuery),
	})
	if err != nil {
		return nil, s.fail("accounts", err)
	}

	accounts, err := ParseAccounts(page.Doc, func(skipped error) {
		s.log.Warn().Err(skipped).Msg("summary row skipped")
	})
	if err != nil {
		return nil, s.fail("accounts", err)
	}

	s.log.Info().Int("count", len(accounts)).Msg("accounts read")
	return accounts, nil
}
