package desjardins

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/grez-lucas/accesd-scraper/internal/scraper/bank"
	"github.com/grez-lucas/accesd-scraper/internal/scraper/htmlform"
	"github.com/grez-lucas/accesd-scraper/internal/scraper/session"
)

// DefaultRange is the period exported when none is given. Bank accounts get
// 31 days ago through yesterday, VISA gets 30 days ago through today.
func DefaultRange(key string, now time.Time) bank.DateRange {
	if key == bank.VisaKey {
		return bank.TrailingRange(now, 30, 0)
	}
	return bank.TrailingRange(now, 31, 1)
}

// ExportCatalog reads the export selection page.
func (s *Scraper) ExportCatalog(ctx context.Context) (*bank.Catalog, error) {
	if err := s.loggedIn(); err != nil {
		return nil, s.fail("export-catalog", err)
	}

	page, err := s.sess.Do(ctx, session.Request{
		Step:   "export-selection",
		Host:   session.AccesD,
		Method: http.MethodGet,
		Path:   PathExportSelection,
		Data:   query(map[string]string{FieldExportMsgID: ExportMsgStart}),
	})
	if err != nil {
		return nil, s.fail("export-catalog", err)
	}

	catalog, err := ParseCatalog(page.Doc)
	if err != nil {
		return nil, s.fail("export-catalog", err)
	}
	return catalog, nil
}

// Download fetches the OFX export of the catalog entry named key. A zero
// period is replaced by DefaultRange, and the period actually used is
// returned with the file.
func (s *Scraper) Download(ctx context.Context, catalog *bank.Catalog, key string, period bank.DateRange) ([]byte, bank.DateRange, error) {
	entry, ok := catalog.Lookup(key)
	if !ok {
		return nil, period, s.fail("download", fmt.Errorf("%w: %q", bank.ErrUnknownAccount, key))
	}
	if err := s.loggedIn(); err != nil {
		return nil, period, s.fail("download", err)
	}
	if period.IsZero() {
		period = DefaultRange(key, s.now())
	}

	log := s.log.With().
		Str("account", key).
		Time("start", period.Start).
		Time("end", period.End).
		Logger()
	log.Info().Msg("downloading statement")

	var (
		body []byte
		err  error
	)
	if key == bank.VisaKey {
		body, err = s.downloadVisa(ctx, period)
	} else {
		body, err = s.downloadAccount(ctx, catalog, entry, period)
	}
	if err != nil {
		return nil, period, s.fail("download", err)
	}

	log.Info().Int("bytes", len(body)).Msg("statement downloaded")
	return body, period, nil
}

func (s *Scraper) downloadAccount(ctx context.Context, catalog *bank.Catalog, entry bank.CatalogEntry, period bank.DateRange) ([]byte, error) {
	values, err := exportForm{
		Hidden:   htmlform.Fields(catalog.Form),
		Checkbox: entry.Field,
		Period:   period,
	}.Values()
	if err != nil {
		return nil, err
	}

	if _, err := s.sess.Do(ctx, session.Request{
		Step:   "export-submit",
		Host:   session.AccesD,
		Method: http.MethodPost,
		Path:   PathExportSelection,
		Data:   values,
	}); err != nil {
		return nil, err
	}

	return s.fetchFile(ctx, session.Request{
		Step:   "export-file",
		Host:   session.AccesD,
		Method: http.MethodGet,
		Path:   PathExportFile,
	})
}

// downloadVisa walks from the portal to the card services site and through
// its statement pages down to the download form.
func (s *Scraper) downloadVisa(ctx context.Context, period bank.DateRange) ([]byte, error) {
	page, err := s.sess.Do(ctx, session.Request{
		Step:   "card-info",
		Host:   session.AccesD,
		Method: http.MethodGet,
		Path:   PathCardInfo,
		Data:   query(map[string]string{FieldExportMsgID: ExportMsgStart}),
	})
	if err != nil {
		return nil, err
	}

	if page, err = s.sess.Do(ctx, session.Request{
		Step:   "visa-logon",
		Host:   session.Visa,
		Method: http.MethodPost,
		Path:   PathVisaLogon,
		Data:   htmlform.HiddenFields(page.Doc).Values(),
	}); err != nil {
		return nil, err
	}

	if page, err = s.sess.Do(ctx, session.Request{
		Step:   "visa-account",
		Host:   session.Visa,
		Method: http.MethodGet,
		Path:   PathVisaAccount,
		Data:   query(VisaAccountQuery),
	}); err != nil {
		return nil, err
	}

	if page, err = s.follow(ctx, "visa-statement", page, SelectorVisaStatementLink, LabelVisaStatement); err != nil {
		return nil, err
	}
	if page, err = s.follow(ctx, "visa-export", page, SelectorVisaExportLink, LabelVisaExport); err != nil {
		return nil, err
	}

	values, err := visaExportForm{
		Hidden: htmlform.HiddenFields(page.Doc),
		Period: period,
	}.Values()
	if err != nil {
		return nil, err
	}

	return s.fetchFile(ctx, session.Request{
		Step:   "visa-export-file",
		Host:   session.Visa,
		Method: http.MethodPost,
		Path:   PathVisaAccount,
		Data:   values,
	})
}

// follow opens the card services anchor labelled label.
func (s *Scraper) follow(ctx context.Context, step string, page *session.Page, selector, label string) (*session.Page, error) {
	link, err := htmlform.FindLink(page.Doc, selector, label)
	if err != nil {
		return nil, fmt.Errorf("%w: link %q on %s", bank.ErrExtractionMiss, label, page.URL)
	}
	return s.sess.Do(ctx, session.Request{
		Step:   step,
		Host:   session.Visa,
		Method: http.MethodGet,
		Path:   link.Path,
		Data:   link.Query,
	})
}

// fetchFile returns the body untouched. Statements are not HTML, so the
// error banner check does not apply.
func (s *Scraper) fetchFile(ctx context.Context, req session.Request) ([]byte, error) {
	raw, err := s.sess.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	if raw.Status < 200 || raw.Status > 299 {
		return nil, fmt.Errorf("%w: %s returned status %d", bank.ErrTransportFailure, raw.URL, raw.Status)
	}
	return raw.Body, nil
}
