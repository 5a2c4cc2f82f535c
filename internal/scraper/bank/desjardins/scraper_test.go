package desjardins

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grez-lucas/accesd-scraper/internal/scraper/bank"
	banktestutil "github.com/grez-lucas/accesd-scraper/internal/scraper/bank/testutil"
	"github.com/grez-lucas/accesd-scraper/internal/scraper/har"
	"github.com/grez-lucas/accesd-scraper/internal/scraper/session"
	"github.com/grez-lucas/accesd-scraper/internal/scraper/testutil"
)

const sampleOFX = "OFXHEADER:100\r\nDATA:OFXSGML\r\n\r\n<OFX><BANKMSGSRSV1></BANKMSGSRSV1></OFX>\r\n"

var (
	secureImage = []byte("\x89PNG\r\n\x1a\n")
	fixedNow    = time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)
)

func testCredentials() bank.Credentials {
	return bank.Credentials{
		UserCode:     "4540123412341234",
		Password:     "s3cret",
		SecurePhrase: "le chat dort au soleil",
		Questions: map[string]string{
			"Quel est le nom de votre premier animal?": "Rex",
		},
	}
}

func page(t *testing.T, name string) string {
	t.Helper()
	return string(banktestutil.LoadFixture(t, fixtureBank, name))
}

// loginEntries answers a full login where no security question is asked.
func loginEntries(t *testing.T) []har.Entry {
	t.Helper()
	return []har.Entry{
		testutil.HTML("GET", PathIdentification, page(t, "identification"), testutil.SetCookie("JSESSIONID=accweb-1; Path=/")),
		testutil.HTML("POST", PathIdentificationProcess, page(t, "identification_result")),
		testutil.HTML("GET", PathAuthentication+"?executeTime=121&reponseNormalise=true", page(t, "authentication")),
		testutil.Body("GET", "/identifiantunique/securite/image?id=XXXX", http.StatusOK, "image/png", secureImage),
		testutil.HTML("POST", PathAuthenticationProcess, `<html><body>ok</body></html>`),
		testutil.HTML("GET", PathSSORedirect, page(t, "sso_redirect")),
		testutil.HTML("POST", PathSSOLogon, page(t, "sso_logon")),
		testutil.HTML("POST", PathPortalHome, page(t, "portal_home")),
	}
}

var loginPaths = []string{
	"GET " + PathIdentification,
	"POST " + PathIdentificationProcess,
	"GET " + PathAuthentication,
	"GET /identifiantunique/securite/image",
	"POST " + PathAuthenticationProcess,
	"GET " + PathSSORedirect,
	"POST " + PathSSOLogon,
	"POST " + PathPortalHome,
}

// replace swaps the entry answering method+path, or appends it.
func replace(entries []har.Entry, e har.Entry) []har.Entry {
	out := make([]har.Entry, 0, len(entries)+1)
	done := false
	for _, cur := range entries {
		if cur.Request.Method == e.Request.Method && samePath(cur.Request.URL, e.Request.URL) {
			out = append(out, e)
			done = true
			continue
		}
		out = append(out, cur)
	}
	if !done {
		out = append(out, e)
	}
	return out
}

func samePath(a, b string) bool {
	pa, _, _ := strings.Cut(a, "?")
	pb, _, _ := strings.Cut(b, "?")
	return pa == pb
}

func newTestScraper(t *testing.T, entries []har.Entry, creds bank.Credentials, opts ...Option) (*Scraper, *testutil.Replayer) {
	t.Helper()

	replayer := testutil.NewReplayer(&har.Log{Entries: entries}, testutil.WithLogf(t.Logf))
	srv := replayer.Start(t)

	sess, err := session.New(session.Options{
		Hosts:      session.Hosts{session.AccWeb: srv.URL, session.AccesD: srv.URL, session.Visa: srv.URL},
		HTTPClient: srv.Client(),
	})
	require.NoError(t, err)

	opts = append([]Option{WithSession(sess), WithClock(func() time.Time { return fixedNow })}, opts...)
	s, err := NewScraper(creds, opts...)
	require.NoError(t, err)
	return s, replayer
}

func TestLogin_Success(t *testing.T) {
	s, replayer := newTestScraper(t, loginEntries(t), testCredentials())

	require.NoError(t, s.Login(context.Background()))
	assert.Equal(t, StatePortalReady, s.auth.State())
	assert.Equal(t, loginPaths, replayer.Paths())

	ident, ok := replayer.Find("POST", PathIdentificationProcess)
	require.True(t, ok)
	assert.Equal(t, "4540123412341234", ident.Form.Get(FieldUserCode))
	assert.Equal(t, ClientFingerprint, ident.Form.Get(FieldClientInfo))
	assert.Equal(t, "XXXX-jeton-identification", ident.Form.Get("jeton"))
	assert.Equal(t, "fr", ident.Form.Get("langueCible"))

	verify, ok := replayer.Find("GET", PathAuthentication)
	require.True(t, ok)
	assert.Equal(t, "true", verify.Query.Get("reponseNormalise"))
	assert.Equal(t, "121", verify.Query.Get("executeTime"))

	password, ok := replayer.Find("POST", PathAuthenticationProcess)
	require.True(t, ok)
	assert.Equal(t, "s3cret", password.Form.Get(FieldPassword))
	assert.Equal(t, "4540123412341234", password.Form.Get(FieldUserCode))
	assert.Equal(t, "XXXX-jeton-authentification", password.Form.Get("jeton"))

	logon, ok := replayer.Find("POST", PathSSOLogon)
	require.True(t, ok)
	assert.Equal(t, "XXXX-assertion", logon.Form.Get("SAMLResponse"))
	assert.Equal(t, "accesd", logon.Form.Get("RelayState"))

	home, ok := replayer.Find("POST", PathPortalHome)
	require.True(t, ok)
	assert.Equal(t, "XXXX-jeton-portail", home.Form.Get("jetonSession"))
	require.NotEmpty(t, home.Cookies)
	assert.Equal(t, "accweb-1", home.Cookies[0].Value)
}

func TestLogin_ChallengeDetectedOnResultPage(t *testing.T) {
	entries := replace(loginEntries(t), testutil.HTML("POST", PathIdentificationProcess, page(t, "challenge")))
	entries = append(entries, testutil.HTML("POST", PathChallengeSubmit, `<html><body>ok</body></html>`))

	s, replayer := newTestScraper(t, entries, testCredentials())
	require.NoError(t, s.Login(context.Background()))

	submit, ok := replayer.Find("POST", PathChallengeSubmit)
	require.True(t, ok)
	assert.Equal(t, "Rex", submit.Form.Get(FieldChallengeAnswer))
	assert.Equal(t, "false", submit.Form.Get(FieldChallengeRemember))
	assert.Equal(t, "XXXX-jeton-defi", submit.Form.Get("jeton"))

	_, fetched := replayer.Find("GET", PathChallenge)
	assert.False(t, fetched, "question already on the result page")
}

func TestLogin_ChallengeDetectedFromRedirect(t *testing.T) {
	entries := replace(loginEntries(t), testutil.Body("POST", PathIdentificationProcess, http.StatusFound, "text/html", nil,
		har.Header{Name: "Location", Value: PathChallenge}))
	entries = append(entries,
		testutil.HTML("GET", PathChallenge, page(t, "challenge")),
		testutil.HTML("POST", PathChallengeSubmit, `<html><body>ok</body></html>`),
	)

	s, replayer := newTestScraper(t, entries, testCredentials())
	require.NoError(t, s.Login(context.Background()))

	paths := replayer.Paths()
	assert.Equal(t, "GET "+PathChallenge, paths[2])
	assert.Equal(t, "POST "+PathChallengeSubmit, paths[3])
}

func TestLogin_ChallengeAlways(t *testing.T) {
	entries := append(loginEntries(t),
		testutil.HTML("GET", PathChallenge, page(t, "challenge")),
		testutil.HTML("POST", PathChallengeSubmit, `<html><body>ok</body></html>`),
	)

	s, replayer := newTestScraper(t, entries, testCredentials(), WithChallengeMode(ChallengeAlways))
	require.NoError(t, s.Login(context.Background()))

	_, ok := replayer.Find("POST", PathChallengeSubmit)
	assert.True(t, ok)
}

func TestLogin_ChallengeAlwaysWithoutQuestion(t *testing.T) {
	entries := append(loginEntries(t), testutil.HTML("GET", PathChallenge, page(t, "identification_result")))

	s, _ := newTestScraper(t, entries, testCredentials(), WithChallengeMode(ChallengeAlways))
	err := s.Login(context.Background())

	assert.ErrorIs(t, err, bank.ErrExtractionMiss)
	assert.Equal(t, StateAborted, s.auth.State())
}

func TestLogin_ChallengeNeverSkipsQuestion(t *testing.T) {
	entries := replace(loginEntries(t), testutil.HTML("POST", PathIdentificationProcess, page(t, "challenge")))

	s, replayer := newTestScraper(t, entries, testCredentials(), WithChallengeMode(ChallengeNever))
	require.NoError(t, s.Login(context.Background()))

	_, ok := replayer.Find("POST", PathChallengeSubmit)
	assert.False(t, ok)
}

func TestLogin_ChallengeUnanswerable(t *testing.T) {
	entries := replace(loginEntries(t), testutil.HTML("POST", PathIdentificationProcess, page(t, "challenge")))
	creds := testCredentials()
	creds.Questions = map[string]string{"Ville natale?": "Lévis"}

	s, replayer := newTestScraper(t, entries, creds)
	err := s.Login(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, bank.ErrChallengeUnanswerable)
	assert.Equal(t, bank.ExitChallengeUnanswerable, bank.ExitCode(err))
	assert.Equal(t, StateAborted, s.auth.State())
	assert.Equal(t, loginPaths[:2], replayer.Paths())
}

func TestLogin_IdentityMismatchStopsBeforePassword(t *testing.T) {
	creds := testCredentials()
	creds.SecurePhrase = "Le chien dort à l'ombre"

	s, replayer := newTestScraper(t, loginEntries(t), creds)
	err := s.Login(context.Background())

	assert.ErrorIs(t, err, bank.ErrIdentityMismatch)
	assert.Equal(t, bank.ExitIdentityMismatch, bank.ExitCode(err))

	_, sent := replayer.Find("POST", PathAuthenticationProcess)
	assert.False(t, sent, "password must not leave when the phrase differs")
}

func TestLogin_IdentityPhraseAbsent(t *testing.T) {
	entries := replace(loginEntries(t), testutil.HTML("GET", PathAuthentication,
		`<form><div><img src="/identifiantunique/securite/image?id=XXXX"></div></form>`))

	s, replayer := newTestScraper(t, entries, testCredentials())
	err := s.Login(context.Background())

	assert.ErrorIs(t, err, bank.ErrIdentityMismatch)
	_, sent := replayer.Find("POST", PathAuthenticationProcess)
	assert.False(t, sent)
}

func TestLogin_SecureImageMissing(t *testing.T) {
	entries := replace(loginEntries(t), testutil.HTML("GET", PathAuthentication, page(t, "authentication_no_image")))

	s, replayer := newTestScraper(t, entries, testCredentials())
	err := s.Login(context.Background())

	assert.ErrorIs(t, err, bank.ErrExtractionMiss)
	assert.Equal(t, bank.ExitExtractionMiss, bank.ExitCode(err))
	_, sent := replayer.Find("POST", PathAuthenticationProcess)
	assert.False(t, sent)
}

func TestLogin_SecureImageNotServed(t *testing.T) {
	entries := loginEntries(t)
	kept := entries[:0]
	for _, e := range entries {
		if e.Response.Content.MimeType != "image/png" {
			kept = append(kept, e)
		}
	}

	s, replayer := newTestScraper(t, kept, testCredentials())
	err := s.Login(context.Background())

	assert.ErrorIs(t, err, bank.ErrTransportFailure)
	assert.Equal(t, bank.ExitTransportFailure, bank.ExitCode(err))
	_, sent := replayer.Find("POST", PathAuthenticationProcess)
	assert.False(t, sent)
}

func TestLogin_PortalServerErrorAborts(t *testing.T) {
	entries := replace(loginEntries(t), testutil.Body("POST", PathPortalHome, http.StatusInternalServerError,
		"text/html", []byte(`<html><body>Erreur interne</body></html>`)))

	s, _ := newTestScraper(t, entries, testCredentials())
	err := s.Login(context.Background())

	assert.ErrorIs(t, err, bank.ErrTransportFailure)
	assert.Equal(t, StateAborted, s.auth.State())
}

func TestLogin_SecureImageRedirectFollowedOnce(t *testing.T) {
	entries := replace(loginEntries(t), testutil.Body("GET", "/identifiantunique/securite/image?id=XXXX", http.StatusFound,
		"text/html", nil, har.Header{Name: "Location", Value: "/static/securite/XXXX.png?v=2"}))
	entries = append(entries, testutil.Body("GET", "/static/securite/XXXX.png?v=2", http.StatusOK, "image/png", secureImage))

	s, replayer := newTestScraper(t, entries, testCredentials())
	require.NoError(t, s.Login(context.Background()))

	paths := replayer.Paths()
	assert.Equal(t, "GET /identifiantunique/securite/image", paths[3])
	assert.Equal(t, "GET /static/securite/XXXX.png", paths[4])
	assert.Equal(t, "POST "+PathAuthenticationProcess, paths[5])
}

func TestLogin_SecureImageRedirectToMissingImage(t *testing.T) {
	entries := replace(loginEntries(t), testutil.Body("GET", "/identifiantunique/securite/image?id=XXXX", http.StatusFound,
		"text/html", nil, har.Header{Name: "Location", Value: "/static/securite/absent.png"}))

	s, replayer := newTestScraper(t, entries, testCredentials())
	err := s.Login(context.Background())

	assert.ErrorIs(t, err, bank.ErrTransportFailure)
	_, sent := replayer.Find("POST", PathAuthenticationProcess)
	assert.False(t, sent)
}

func TestLogin_SiteErrorAborts(t *testing.T) {
	entries := replace(loginEntries(t), testutil.HTML("GET", PathIdentification, page(t, "error_banner")))

	s, replayer := newTestScraper(t, entries, testCredentials())
	err := s.Login(context.Background())

	assert.ErrorIs(t, err, bank.ErrSiteError)
	assert.Equal(t, bank.ExitSiteError, bank.ExitCode(err))
	assert.ErrorContains(t, err, "non disponible")
	assert.Len(t, replayer.Served(), 1)

	var scraperErr *bank.ScraperError
	require.ErrorAs(t, err, &scraperErr)
	assert.Equal(t, "login", scraperErr.Operation)
}

func TestLogin_RunsOnce(t *testing.T) {
	s, _ := newTestScraper(t, loginEntries(t), testCredentials())
	require.NoError(t, s.Login(context.Background()))

	err := s.auth.Run(context.Background())
	assert.ErrorContains(t, err, "already used")
}

func TestAccounts(t *testing.T) {
	entries := append(loginEntries(t), testutil.HTML("GET", PathSummary+"?token=1", page(t, "summary")))

	s, replayer := newTestScraper(t, entries, testCredentials())
	require.NoError(t, s.Login(context.Background()))

	got, err := s.Accounts(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, "1234 Compte Chèque", got[0].FullName)
	assert.Equal(t, "7777 Marge de crédit", got[3].FullName)

	served, ok := replayer.Find("GET", PathSummary)
	require.True(t, ok)
	assert.Equal(t, "1", served.Query.Get("token"))
}

func TestAccounts_ServerError(t *testing.T) {
	entries := append(loginEntries(t), testutil.Body("GET", PathSummary+"?token=1", http.StatusInternalServerError,
		"text/html", []byte(`<html><body>Erreur interne</body></html>`)))

	s, _ := newTestScraper(t, entries, testCredentials())
	require.NoError(t, s.Login(context.Background()))

	got, err := s.Accounts(context.Background())

	assert.Nil(t, got)
	assert.ErrorIs(t, err, bank.ErrTransportFailure)
	assert.Equal(t, bank.ExitTransportFailure, bank.ExitCode(err))
}

func TestAccounts_RequiresLogin(t *testing.T) {
	s, replayer := newTestScraper(t, loginEntries(t), testCredentials())

	_, err := s.Accounts(context.Background())
	assert.ErrorIs(t, err, errNotLoggedIn)
	assert.Empty(t, replayer.Served())
}

func TestExportCatalog(t *testing.T) {
	entries := append(loginEntries(t),
		testutil.HTML("GET", PathExportSelection+"?msgId=debuter", page(t, "export_selection")))

	s, _ := newTestScraper(t, entries, testCredentials())
	require.NoError(t, s.Login(context.Background()))

	got, err := s.ExportCatalog(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"EOP", "ES1", bank.VisaKey}, got.Keys())
}

func TestDownload_UnknownAccountSendsNothing(t *testing.T) {
	s, replayer := newTestScraper(t, loginEntries(t), testCredentials())

	catalog := bank.NewCatalog()
	_, _, err := s.Download(context.Background(), catalog, "NOPE", bank.DateRange{})

	assert.ErrorIs(t, err, bank.ErrUnknownAccount)
	assert.Equal(t, bank.ExitUnknownAccount, bank.ExitCode(err))
	assert.Empty(t, replayer.Served())
}

func downloadEntries(t *testing.T) []har.Entry {
	return append(loginEntries(t),
		testutil.HTML("GET", PathExportSelection+"?msgId=debuter", page(t, "export_selection")),
		testutil.HTML("POST", PathExportSelection, `<html><body><span id="erreurSystem"></span>ok</body></html>`),
		testutil.Body("GET", PathExportFile, http.StatusOK, "application/x-ofx", []byte(sampleOFX)),
	)
}

func TestDownload_AccountDefaultRange(t *testing.T) {
	s, replayer := newTestScraper(t, downloadEntries(t), testCredentials())
	ctx := context.Background()
	require.NoError(t, s.Login(ctx))
	catalog, err := s.ExportCatalog(ctx)
	require.NoError(t, err)

	body, period, err := s.Download(ctx, catalog, "EOP", bank.DateRange{})
	require.NoError(t, err)

	assert.Equal(t, []byte(sampleOFX), body)
	assert.Equal(t, "2024-02-13", period.Start.Format(time.DateOnly))
	assert.Equal(t, "2024-03-14", period.End.Format(time.DateOnly))

	submit, ok := replayer.Find("POST", PathExportSelection)
	require.True(t, ok)
	assert.Equal(t, CheckboxOn, submit.Form.Get("chCompte0"))
	assert.Empty(t, submit.Form.Get("chCompte1"))
	assert.Equal(t, "PI", submit.Form.Get(FieldExportPeriod))
	assert.Equal(t, "13", submit.Form.Get(FieldExportStartDay))
	assert.Equal(t, "02", submit.Form.Get(FieldExportStartMonth))
	assert.Equal(t, "2024", submit.Form.Get(FieldExportStartYear))
	assert.Equal(t, "14", submit.Form.Get(FieldExportEndDay))
	assert.Equal(t, "03", submit.Form.Get(FieldExportEndMonth))
	assert.Equal(t, "2024", submit.Form.Get(FieldExportEndYear))
	assert.Equal(t, "valider", submit.Form.Get(FieldExportMsgID))
	assert.Equal(t, "MOFX", submit.Form.Get(FieldExportFormat))
	assert.Equal(t, " Valider ", submit.Form.Get(FieldExportValidate))
	assert.Equal(t, "XXXX-jeton-conciliation", submit.Form.Get("jeton"))

	paths := replayer.Paths()
	assert.Equal(t, "GET "+PathExportFile, paths[len(paths)-1])
}

func TestDownload_AccountExplicitRange(t *testing.T) {
	s, replayer := newTestScraper(t, downloadEntries(t), testCredentials())
	ctx := context.Background()
	require.NoError(t, s.Login(ctx))
	catalog, err := s.ExportCatalog(ctx)
	require.NoError(t, err)

	want := bank.DateRange{
		Start: time.Date(2023, 1, 5, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC),
	}
	_, period, err := s.Download(ctx, catalog, "ES1", want)
	require.NoError(t, err)
	assert.Equal(t, want, period)

	submit, _ := replayer.Find("POST", PathExportSelection)
	assert.Equal(t, CheckboxOn, submit.Form.Get("chCompte1"))
	assert.Equal(t, "05", submit.Form.Get(FieldExportStartDay))
	assert.Equal(t, "01", submit.Form.Get(FieldExportStartMonth))
	assert.Equal(t, "31", submit.Form.Get(FieldExportEndDay))
}

func TestDownload_FileNotServed(t *testing.T) {
	entries := downloadEntries(t)
	entries = entries[:len(entries)-1]

	s, _ := newTestScraper(t, entries, testCredentials())
	ctx := context.Background()
	require.NoError(t, s.Login(ctx))
	catalog, err := s.ExportCatalog(ctx)
	require.NoError(t, err)

	_, _, err = s.Download(ctx, catalog, "EOP", bank.DateRange{})
	assert.ErrorIs(t, err, bank.ErrTransportFailure)
}

func visaEntries(t *testing.T) []har.Entry {
	return append(loginEntries(t),
		testutil.HTML("GET", PathCardInfo+"?msgId=debuter", page(t, "card_info")),
		testutil.HTML("POST", PathVisaLogon, `<html><body>ok</body></html>`),
		testutil.HTML("GET", PathVisaAccount+"?MSGID=etatActuelCpte&CLIENT=HTML", page(t, "visa_account")),
		testutil.HTML("GET", PathVisaAccount+"?MSGID=releveCpte&CLIENT=HTML&NOREL=XXXX", page(t, "visa_statement")),
		testutil.HTML("GET", PathVisaAccount+"?MSGID=conciliation&CLIENT=HTML", page(t, "visa_export")),
		testutil.Body("POST", PathVisaAccount, http.StatusOK, "application/x-ofx", []byte(sampleOFX)),
	)
}

func TestDownload_Visa(t *testing.T) {
	s, replayer := newTestScraper(t, visaEntries(t), testCredentials())
	ctx := context.Background()
	require.NoError(t, s.Login(ctx))

	body, period, err := s.Download(ctx, bank.NewCatalog(), bank.VisaKey, bank.DateRange{})
	require.NoError(t, err)
	assert.Equal(t, []byte(sampleOFX), body)
	assert.Equal(t, "2024-02-14", period.Start.Format(time.DateOnly))
	assert.Equal(t, "2024-03-15", period.End.Format(time.DateOnly))

	assert.Equal(t, []string{
		"GET " + PathCardInfo,
		"POST " + PathVisaLogon,
		"GET " + PathVisaAccount,
		"GET " + PathVisaAccount,
		"GET " + PathVisaAccount,
		"POST " + PathVisaAccount,
	}, replayer.Paths()[len(loginPaths):])

	served := replayer.Served()
	assert.Equal(t, "releveCpte", served[len(loginPaths)+3].Query.Get("MSGID"))
	assert.Equal(t, "conciliation", served[len(loginPaths)+4].Query.Get("MSGID"))

	logon, _ := replayer.Find("POST", PathVisaLogon)
	assert.Equal(t, "XXXX-jeton-carte", logon.Form.Get("jetonCarte"))

	export, _ := replayer.Find("POST", PathVisaAccount)
	assert.Equal(t, "XXXX-jeton-visa", export.Form.Get("jeton"))
	assert.Equal(t, "telechargement", export.Form.Get("MSGID"))
	assert.Equal(t, "true", export.Form.Get(FieldVisaReload))
	assert.Equal(t, "", export.Form.Get(FieldVisaPDFURL))
	assert.Equal(t, "HTML", export.Form.Get(FieldVisaOutput))
	assert.Equal(t, "-12", export.Form.Get(FieldVisaPeriod))
	assert.Equal(t, "14", export.Form.Get(FieldVisaStartDay))
	assert.Equal(t, "2", export.Form.Get(FieldVisaStartMonth))
	assert.Equal(t, "2024", export.Form.Get(FieldVisaStartYear))
	assert.Equal(t, "15", export.Form.Get(FieldVisaEndDay))
	assert.Equal(t, "3", export.Form.Get(FieldVisaEndMonth))
	assert.Equal(t, "2", export.Form.Get(FieldVisaFormatChoice))
	assert.Equal(t, "OFX", export.Form.Get(FieldVisaFormat))
}

func TestDownload_VisaStatementLinkMissing(t *testing.T) {
	entries := append(loginEntries(t),
		testutil.HTML("GET", PathCardInfo+"?msgId=debuter", page(t, "card_info")),
		testutil.HTML("POST", PathVisaLogon, `<html><body>ok</body></html>`),
		testutil.HTML("GET", PathVisaAccount+"?MSGID=etatActuelCpte&CLIENT=HTML",
			`<html><body><table><tr><td><a class="me" href="GCE/SAInfoCpte?MSGID=x">Autre</a></td></tr></table></body></html>`),
	)

	s, replayer := newTestScraper(t, entries, testCredentials())
	ctx := context.Background()
	require.NoError(t, s.Login(ctx))

	_, _, err := s.Download(ctx, bank.NewCatalog(), bank.VisaKey, bank.DateRange{})
	assert.ErrorIs(t, err, bank.ErrExtractionMiss)
	assert.ErrorContains(t, err, LabelVisaStatement)
	assert.Len(t, replayer.Served(), len(loginPaths)+3)
}

func TestDefaultRange(t *testing.T) {
	r := DefaultRange("EOP", fixedNow)
	assert.Equal(t, fixedNow.AddDate(0, 0, -31), r.Start)
	assert.Equal(t, fixedNow.AddDate(0, 0, -1), r.End)

	v := DefaultRange(bank.VisaKey, fixedNow)
	assert.Equal(t, fixedNow.AddDate(0, 0, -30), v.Start)
	assert.Equal(t, fixedNow, v.End)
}

func TestParseChallengeMode(t *testing.T) {
	for in, want := range map[string]ChallengeMode{
		"":        ChallengeDetect,
		"detect":  ChallengeDetect,
		" Always": ChallengeAlways,
		"NEVER":   ChallengeNever,
	} {
		got, err := ParseChallengeMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseChallengeMode("sometimes")
	assert.Error(t, err)
}

func TestAuthState_String(t *testing.T) {
	assert.Equal(t, "portal-ready", StatePortalReady.String())
	assert.Equal(t, "aborted", StateAborted.String())
	assert.Equal(t, "state(42)", AuthState(42).String())
}
