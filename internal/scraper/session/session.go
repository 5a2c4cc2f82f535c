// Package session is the HTTP client shared by every step of a portal run.
// It owns the cookie jar, the fixed header set and the host table, and it
// hands each response back as a parsed page.
package session

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"golang.org/x/net/publicsuffix"

	"github.com/grez-lucas/accesd-scraper/internal/scraper/bank"
	"github.com/grez-lucas/accesd-scraper/internal/scraper/har"
	"github.com/grez-lucas/accesd-scraper/internal/scraper/htmlform"
)

// Host identifies one of the sites taking part in a run.
type Host int

const (
	AccWeb Host = iota // identification and authentication
	AccesD             // account portal
	Visa               // card services
)

func (h Host) String() string {
	switch h {
	case AccWeb:
		return "accweb"
	case AccesD:
		return "accesd"
	case Visa:
		return "visa"
	default:
		return fmt.Sprintf("host(%d)", int(h))
	}
}

// Hosts maps each host to its base URL (scheme and authority, no trailing slash).
type Hosts map[Host]string

var DefaultHosts = Hosts{
	AccWeb: "https://accweb.mouv.desjardins.com",
	AccesD: "https://accesd.mouv.desjardins.com",
	Visa:   "https://www.scd-desjardins.com",
}

const (
	DefaultUserAgent     = "Mozilla/5.0 (X11; Linux x86_64; rv:10.0.7) Gecko/20100101 Firefox/10.0.7 Iceweasel/10.0.7"
	DefaultErrorSelector = "span#erreurSystem"
	DefaultTimeout       = 30 * time.Second
)

type Options struct {
	Hosts     Hosts
	UserAgent string
	// Selector of the system error banner checked on every parsed page
	ErrorSelector string
	Timeout       time.Duration

	// HTTPClient replaces the default client. Its transport must keep
	// certificate validation on.
	HTTPClient *http.Client

	// Dump receives every raw response body when non-nil
	Dump Output
	// Recorder receives every exchange when non-nil
	Recorder *har.Recorder

	Logger zerolog.Logger
}

type Session struct {
	http          *resty.Client
	hosts         Hosts
	errorSelector string
	log           zerolog.Logger
}

// Request is one portal call. Data goes to the query string for GET and to
// the form body for POST.
type Request struct {
	Step   string
	Host   Host
	Method string
	Path   string
	Data   url.Values
}

// Page is a response parsed as HTML. Doc is nil when the body could not be
// parsed at all.
type Page struct {
	URL    string
	Status int
	Header http.Header
	Doc    *goquery.Document
}

// Raw is an unparsed response.
type Raw struct {
	URL    string
	Status int
	Header http.Header
	Body   []byte
}

func New(opts Options) (*Session, error) {
	if opts.Hosts == nil {
		opts.Hosts = DefaultHosts
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.ErrorSelector == "" {
		opts.ErrorSelector = DefaultErrorSelector
	}
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}

	var client *resty.Client
	if opts.HTTPClient != nil {
		client = resty.NewWithClient(opts.HTTPClient)
	} else {
		client = resty.New()
	}
	client.SetCookieJar(jar)
	client.SetHeader("User-Agent", opts.UserAgent)
	client.SetTimeout(opts.Timeout)
	// Every hop is inspected by the caller, redirects are never followed.
	client.SetRedirectPolicy(resty.RedirectPolicyFunc(func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}))

	instrument(client, opts.Logger, opts.Dump, opts.Recorder)

	return &Session{
		http:          client,
		hosts:         opts.Hosts,
		errorSelector: opts.ErrorSelector,
		log:           opts.Logger,
	}, nil
}

// Do issues the request and parses the response. A page showing the system
// error banner aborts with bank.ErrSiteError, any other status outside the
// 2xx and 3xx ranges with bank.ErrTransportFailure.
func (s *Session) Do(ctx context.Context, req Request) (*Page, error) {
	raw, err := s.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}

	page := &Page{
		URL:    raw.URL,
		Status: raw.Status,
		Header: raw.Header,
		Doc:    htmlform.Parse(raw.Body),
	}

	if page.Doc != nil {
		if msg, err := htmlform.Text(page.Doc, s.errorSelector); err == nil && msg != "" {
			s.log.Error().Str("step", req.Step).Str("url", raw.URL).Str("banner", msg).Msg("site error")
			return nil, fmt.Errorf("%w: %q at %s", bank.ErrSiteError, msg, raw.URL)
		}
	}

	// 3xx pages are handed back as is, the caller inspects them
	if raw.Status < 200 || raw.Status >= 400 {
		s.log.Error().Str("step", req.Step).Str("url", raw.URL).Int("status", raw.Status).Msg("unexpected status")
		return nil, fmt.Errorf("%w: %s %s returned status %d", bank.ErrTransportFailure, req.Method, raw.URL, raw.Status)
	}

	if page.Doc == nil {
		s.log.Warn().Str("step", req.Step).Str("url", raw.URL).Msg("response body could not be parsed")
	}
	return page, nil
}

// Fetch issues the request and returns the body untouched.
func (s *Session) Fetch(ctx context.Context, req Request) (*Raw, error) {
	base, ok := s.hosts[req.Host]
	if !ok {
		return nil, fmt.Errorf("no base URL configured for %s", req.Host)
	}
	target := base + req.Path

	r := s.http.R().SetContext(withStep(ctx, req.Step))
	switch req.Method {
	case http.MethodGet:
		if req.Data != nil {
			r.SetQueryParamsFromValues(req.Data)
		}
	case http.MethodPost:
		if req.Data != nil {
			r.SetFormDataFromValues(req.Data)
		}
	default:
		return nil, fmt.Errorf("unsupported method %q", req.Method)
	}

	s.log.Info().Str("step", req.Step).Str("method", req.Method).Str("url", target).Msg("getting")

	res, err := r.Execute(req.Method, target)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", bank.ErrTransportFailure, req.Method, target, err)
	}

	resolved := target
	if res.Request.RawRequest != nil {
		resolved = res.Request.RawRequest.URL.String()
	}

	return &Raw{
		URL:    resolved,
		Status: res.StatusCode(),
		Header: res.Header(),
		Body:   res.Body(),
	}, nil
}

// Cookies returns the cookies the jar would send to host.
func (s *Session) Cookies(host Host) []*http.Cookie {
	u, err := url.Parse(s.hosts[host])
	if err != nil {
		return nil
	}
	return s.http.GetClient().Jar.Cookies(u)
}
