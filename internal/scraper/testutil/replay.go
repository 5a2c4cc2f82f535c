// Package testutil provides testing utilities for the scraper package,
// including a HAR-driven fake portal.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/grez-lucas/accesd-scraper/internal/scraper/har"
)

// Replayer serves recorded responses. Entries are matched on method, path
// and query, ignoring the host, so one TLS test server can stand in for
// every portal host.
type Replayer struct {
	// exactMatches maps "METHOD path?query" to entries
	exactMatches map[string]*har.Entry

	// pathMatches maps "METHOD path" to entries.
	// Used as fallback when exact match fails
	pathMatches map[string]*har.Entry

	mu     sync.Mutex
	served []Served
	logf   func(format string, args ...any)
}

// Served is a request the replayer answered, matched or not.
type Served struct {
	Method  string
	Path    string
	Query   url.Values
	Form    url.Values
	Cookies []*http.Cookie
	Matched bool
}

// ReplayerOption configures a Replayer.
type ReplayerOption func(*Replayer)

// WithLogf enables logging of matched/unmatched requests.
func WithLogf(logf func(format string, args ...any)) ReplayerOption {
	return func(r *Replayer) {
		r.logf = logf
	}
}

// NewReplayer creates a replayer from a HAR log.
func NewReplayer(log *har.Log, opts ...ReplayerOption) *Replayer {
	r := &Replayer{
		exactMatches: make(map[string]*har.Entry),
		pathMatches:  make(map[string]*har.Entry),
		logf:         func(string, ...any) {},
	}

	for _, opt := range opts {
		opt(r)
	}

	for i := range log.Entries {
		entry := &log.Entries[i]
		parsed, err := url.Parse(entry.Request.URL)
		if err != nil {
			continue
		}
		method := strings.ToUpper(entry.Request.Method)
		r.exactMatches[exactKey(method, parsed.Path, parsed.Query())] = entry

		// Only store first occurrence for path matches
		pathKey := method + " " + parsed.Path
		if _, exists := r.pathMatches[pathKey]; !exists {
			r.pathMatches[pathKey] = entry
		}
	}

	return r
}

func exactKey(method, path string, query url.Values) string {
	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		vals := append([]string(nil), query[k]...)
		sort.Strings(vals)
		for _, v := range vals {
			b.WriteString(k + "=" + v + "&")
		}
	}
	return method + " " + path + "?" + b.String()
}

func (r *Replayer) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	_ = req.ParseForm()
	served := Served{
		Method:  req.Method,
		Path:    req.URL.Path,
		Query:   req.URL.Query(),
		Form:    req.PostForm,
		Cookies: req.Cookies(),
	}

	entry, found := r.exactMatches[exactKey(req.Method, req.URL.Path, req.URL.Query())]
	if !found {
		entry, found = r.pathMatches[req.Method+" "+req.URL.Path]
	}
	served.Matched = found
	r.mu.Lock()
	r.served = append(r.served, served)
	r.mu.Unlock()

	if !found {
		r.logf("[replayer] no match for: %s %s", req.Method, req.URL)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error": "no recording found for URL"}`))
		return
	}

	r.logf("[replayer] matched: %s %s -> %d", req.Method, req.URL, entry.Response.Status)

	resp := entry.Response
	for _, h := range resp.Headers {
		switch strings.ToLower(h.Name) {
		case "content-encoding", "content-length":
			continue
		}
		w.Header().Add(h.Name, h.Value)
	}
	if w.Header().Get("Content-Type") == "" && resp.Content.MimeType != "" {
		w.Header().Set("Content-Type", resp.Content.MimeType)
	}
	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = w.Write(resp.Content.Body())
}

// Served returns the requests answered so far, in order.
func (r *Replayer) Served() []Served {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Served(nil), r.served...)
}

// Paths returns "METHOD path" for every request answered so far.
func (r *Replayer) Paths() []string {
	served := r.Served()
	out := make([]string, len(served))
	for i, s := range served {
		out[i] = s.Method + " " + s.Path
	}
	return out
}

// Find returns the last request answered for method and path.
func (r *Replayer) Find(method, path string) (Served, bool) {
	served := r.Served()
	for i := len(served) - 1; i >= 0; i-- {
		if served[i].Method == method && served[i].Path == path {
			return served[i], true
		}
	}
	return Served{}, false
}

// Start serves the replayer over TLS for the duration of the test.
func (r *Replayer) Start(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewTLSServer(r)
	t.Cleanup(srv.Close)
	return srv
}

// MustLoadHAR loads a HAR file and fails the test if it cannot be loaded.
func MustLoadHAR(t *testing.T, path string) *har.Log {
	t.Helper()

	log, err := har.Load(path)
	if err != nil {
		t.Fatalf("failed to load HAR file %s: %v", path, err)
	}
	return log
}

// HTML builds a 200 text/html entry. target is a path with an optional query.
func HTML(method, target, body string, headers ...har.Header) har.Entry {
	return Body(method, target, http.StatusOK, "text/html; charset=utf-8", []byte(body), headers...)
}

// Body builds an entry with an arbitrary status and payload.
func Body(method, target string, status int, mime string, body []byte, headers ...har.Header) har.Entry {
	return har.Entry{
		Request: har.Request{
			Method: method,
			URL:    "https://portal.test" + target,
		},
		Response: har.Response{
			Status:  status,
			Headers: headers,
			Content: har.NewContent(mime, body),
		},
	}
}

// SetCookie builds a Set-Cookie header.
func SetCookie(value string) har.Header {
	return har.Header{Name: "Set-Cookie", Value: value}
}
