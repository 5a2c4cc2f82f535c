package desjardins

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/grez-lucas/accesd-scraper/internal/scraper/bank"
	"github.com/grez-lucas/accesd-scraper/internal/scraper/session"
)

var errNotLoggedIn = errors.New("login has not completed")

// Scraper implements bank.BankScraper for AccèsD. A Scraper holds one
// portal session and is meant for a single run.
type Scraper struct {
	sess  *session.Session
	creds bank.Credentials
	mode  ChallengeMode
	log   zerolog.Logger
	now   func() time.Time

	auth *Authenticator
}

var _ bank.BankScraper = (*Scraper)(nil)

type Option func(*Scraper)

// WithSession replaces the default session, e.g. one pointed at a replay
// server or carrying a recorder.
func WithSession(sess *session.Session) Option {
	return func(s *Scraper) {
		s.sess = sess
	}
}

func WithChallengeMode(mode ChallengeMode) Option {
	return func(s *Scraper) {
		s.mode = mode
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(s *Scraper) {
		s.log = log
	}
}

// WithClock sets the time source used for the default export ranges.
func WithClock(now func() time.Time) Option {
	return func(s *Scraper) {
		s.now = now
	}
}

func NewScraper(creds bank.Credentials, opts ...Option) (*Scraper, error) {
	s := &Scraper{
		creds: creds,
		mode:  ChallengeDetect,
		log:   zerolog.Nop(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.sess == nil {
		sess, err := session.New(session.Options{Logger: s.log})
		if err != nil {
			return nil, err
		}
		s.sess = sess
	}
	return s, nil
}

func (s *Scraper) Login(ctx context.Context) error {
	s.auth = NewAuthenticator(s.sess, s.creds, s.mode, s.log)
	return s.auth.Run(ctx)
}

func (s *Scraper) loggedIn() error {
	if s.auth == nil || s.auth.State() != StatePortalReady {
		return errNotLoggedIn
	}
	return nil
}

func (s *Scraper) fail(op string, err error) error {
	var scraperErr *bank.ScraperError
	if errors.As(err, &scraperErr) {
		return err
	}
	return &bank.ScraperError{
		BankCode:  bank.BankDesjardins,
		Operation: op,
		Cause:     err,
	}
}
