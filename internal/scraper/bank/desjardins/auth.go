package desjardins

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/grez-lucas/accesd-scraper/internal/scraper/bank"
	"github.com/grez-lucas/accesd-scraper/internal/scraper/htmlform"
	"github.com/grez-lucas/accesd-scraper/internal/scraper/session"
)

// ChallengeMode controls the security question step of the login.
type ChallengeMode string

const (
	// ChallengeDetect answers only when the identification result asks for it
	ChallengeDetect ChallengeMode = "detect"
	ChallengeAlways ChallengeMode = "always"
	ChallengeNever  ChallengeMode = "never"
)

func ParseChallengeMode(s string) (ChallengeMode, error) {
	switch m := ChallengeMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ChallengeDetect, nil
	case ChallengeDetect, ChallengeAlways, ChallengeNever:
		return m, nil
	default:
		return "", fmt.Errorf("unknown challenge mode %q (want detect, always or never)", s)
	}
}

// AuthState is a step of the login sequence.
type AuthState int

const (
	StateStart AuthState = iota
	StateIdentified
	StateChallengeOrSkip
	StateVerified
	StateAuthenticated
	StateSSORedirected
	StatePortalReady
	StateAborted
)

var authStateNames = [...]string{
	StateStart:           "start",
	StateIdentified:      "identified",
	StateChallengeOrSkip: "challenge-or-skip",
	StateVerified:        "verified",
	StateAuthenticated:   "authenticated",
	StateSSORedirected:   "sso-redirected",
	StatePortalReady:     "portal-ready",
	StateAborted:         "aborted",
}

func (s AuthState) String() string {
	if s < 0 || int(s) >= len(authStateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return authStateNames[s]
}

// Authenticator walks the identification sequence once. It never retries:
// the first failure moves it to StateAborted for good.
type Authenticator struct {
	sess  *session.Session
	creds bank.Credentials
	mode  ChallengeMode
	log   zerolog.Logger
	state AuthState

	// last page returned, consumed by the next step
	page *session.Page
}

func NewAuthenticator(sess *session.Session, creds bank.Credentials, mode ChallengeMode, log zerolog.Logger) *Authenticator {
	if mode == "" {
		mode = ChallengeDetect
	}
	return &Authenticator{
		sess:  sess,
		creds: creds,
		mode:  mode,
		log:   log.With().Str("component", "auth").Logger(),
		state: StateStart,
	}
}

func (a *Authenticator) State() AuthState {
	return a.state
}

// Run drives the sequence up to the portal landing page.
func (a *Authenticator) Run(ctx context.Context) error {
	if a.state != StateStart {
		return fmt.Errorf("authenticator already used (state %s)", a.state)
	}

	steps := []struct {
		next AuthState
		run  func(context.Context) error
	}{
		{StateIdentified, a.identify},
		{StateChallengeOrSkip, a.challenge},
		{StateVerified, a.verify},
		{StateAuthenticated, a.authenticate},
		{StateSSORedirected, a.ssoRedirect},
		{StatePortalReady, a.openPortal},
	}

	for _, step := range steps {
		if err := step.run(ctx); err != nil {
			failed := a.state
			a.transition(StateAborted)
			return &bank.ScraperError{
				BankCode:  bank.BankDesjardins,
				Operation: "login",
				Cause:     err,
				Details:   "after state " + failed.String(),
			}
		}
		a.transition(step.next)
	}
	return nil
}

func (a *Authenticator) transition(next AuthState) {
	a.log.Info().Str("from", a.state.String()).Str("to", next.String()).Msg("login state")
	a.state = next
}

type formValues interface {
	Values() (url.Values, error)
}

func (a *Authenticator) get(ctx context.Context, step string, host session.Host, path string, q url.Values) error {
	page, err := a.sess.Do(ctx, session.Request{
		Step:   step,
		Host:   host,
		Method: http.MethodGet,
		Path:   path,
		Data:   q,
	})
	if err != nil {
		return err
	}
	a.page = page
	return nil
}

func (a *Authenticator) post(ctx context.Context, step string, host session.Host, path string, form formValues) error {
	values, err := form.Values()
	if err != nil {
		return fmt.Errorf("%s: %w", step, err)
	}
	page, err := a.sess.Do(ctx, session.Request{
		Step:   step,
		Host:   host,
		Method: http.MethodPost,
		Path:   path,
		Data:   values,
	})
	if err != nil {
		return err
	}
	a.page = page
	return nil
}

func (a *Authenticator) hidden() htmlform.Fields {
	if a.page == nil {
		return htmlform.Fields{}
	}
	return htmlform.HiddenFields(a.page.Doc)
}

// hiddenOnly posts back the hidden fields of the previous page as they are.
type hiddenOnly htmlform.Fields

func (f hiddenOnly) Values() (url.Values, error) {
	return htmlform.Fields(f).Values(), nil
}

func (a *Authenticator) identify(ctx context.Context) error {
	if err := a.get(ctx, "identification", session.AccWeb, PathIdentification, nil); err != nil {
		return err
	}
	return a.post(ctx, "identification-process", session.AccWeb, PathIdentificationProcess, identificationForm{
		Hidden:     a.hidden(),
		UserCode:   a.creds.UserCode,
		ClientInfo: ClientFingerprint,
	})
}

func (a *Authenticator) challenge(ctx context.Context) error {
	switch a.mode {
	case ChallengeNever:
		a.log.Debug().Msg("security question skipped")
		return nil
	case ChallengeAlways:
		if err := a.get(ctx, "challenge", session.AccWeb, PathChallenge, nil); err != nil {
			return err
		}
	default:
		if !a.challengeRequested() {
			a.log.Debug().Msg("no security question asked")
			return nil
		}
		if len(SecurityQuestions(a.page.Doc)) == 0 {
			if err := a.get(ctx, "challenge", session.AccWeb, PathChallenge, nil); err != nil {
				return err
			}
		}
	}

	questions := SecurityQuestions(a.page.Doc)
	if len(questions) == 0 {
		return fmt.Errorf("%w: security question on %s", bank.ErrExtractionMiss, a.page.URL)
	}
	answer, ok := FindAnswer(questions, a.creds.Questions)
	if !ok {
		return fmt.Errorf("%w: %q", bank.ErrChallengeUnanswerable, strings.Join(questions, " | "))
	}
	a.log.Info().Str("question", questions[0]).Msg("answering security question")

	return a.post(ctx, "challenge-submit", session.AccWeb, PathChallengeSubmit, challengeForm{
		Hidden: a.hidden(),
		Answer: answer,
	})
}

// challengeRequested reports whether the identification result shows a
// question or sends the browser to the question page.
func (a *Authenticator) challengeRequested() bool {
	if a.page == nil {
		return false
	}
	if a.page.Doc != nil && len(SecurityQuestions(a.page.Doc)) > 0 {
		return true
	}
	location := a.page.Header.Get("Location")
	if location == "" {
		return false
	}
	link, err := htmlform.ParseLink(location)
	return err == nil && link.Path == PathChallenge
}

func (a *Authenticator) verify(ctx context.Context) error {
	if err := a.get(ctx, "authentication", session.AccWeb, PathAuthentication, query(AuthenticationQuery)); err != nil {
		return err
	}

	src, err := htmlform.Attr(a.page.Doc, SelectorSecureImage, "src")
	if err != nil || strings.TrimSpace(src) == "" {
		return fmt.Errorf("%w: secure image on %s", bank.ErrExtractionMiss, a.page.URL)
	}
	if err := a.fetchSecureImage(ctx, src); err != nil {
		return err
	}

	phrase, err := htmlform.Text(a.page.Doc, SelectorSecurePhrase)
	if err != nil {
		return fmt.Errorf("%w: no identity phrase shown", bank.ErrIdentityMismatch)
	}
	if !SamePhrase(phrase, a.creds.SecurePhrase) {
		return fmt.Errorf("%w: site shows %q", bank.ErrIdentityMismatch, phrase)
	}
	return nil
}

// fetchSecureImage loads the image like a browser would. The site expects
// the hit before it accepts the password. One redirect is followed.
func (a *Authenticator) fetchSecureImage(ctx context.Context, src string) error {
	link, err := htmlform.ParseLink(src)
	if err != nil {
		return fmt.Errorf("%w: secure image link %q: %v", bank.ErrExtractionMiss, src, err)
	}
	raw, err := a.fetchImage(ctx, link)
	if err != nil {
		return err
	}

	if location := raw.Header.Get("Location"); raw.Status >= 300 && raw.Status <= 399 && location != "" {
		next, err := htmlform.ParseLink(location)
		if err != nil {
			return fmt.Errorf("%w: secure image redirect %q: %v", bank.ErrTransportFailure, location, err)
		}
		if raw, err = a.fetchImage(ctx, next); err != nil {
			return err
		}
	}

	if raw.Status < 200 || raw.Status > 299 {
		return fmt.Errorf("%w: secure image returned status %d", bank.ErrTransportFailure, raw.Status)
	}
	return nil
}

func (a *Authenticator) fetchImage(ctx context.Context, link htmlform.Link) (*session.Raw, error) {
	return a.sess.Fetch(ctx, session.Request{
		Step:   "secure-image",
		Host:   session.AccWeb,
		Method: http.MethodGet,
		Path:   link.Path,
		Data:   link.Query,
	})
}

func (a *Authenticator) authenticate(ctx context.Context) error {
	return a.post(ctx, "authentication-process", session.AccWeb, PathAuthenticationProcess, credentialsForm{
		Hidden:   a.hidden(),
		UserCode: a.creds.UserCode,
		Password: a.creds.Password,
	})
}

func (a *Authenticator) ssoRedirect(ctx context.Context) error {
	return a.get(ctx, "sso-redirect", session.AccWeb, PathSSORedirect, nil)
}

func (a *Authenticator) openPortal(ctx context.Context) error {
	if err := a.post(ctx, "sso-logon", session.AccesD, PathSSOLogon, hiddenOnly(a.hidden())); err != nil {
		return err
	}
	return a.post(ctx, "portal-home", session.AccesD, PathPortalHome, hiddenOnly(a.hidden()))
}
