package har

import (
	"net/url"
	"regexp"
	"strings"
)

const redacted = "[REDACTED]"

// sensitiveKeys matches form fields and query parameters carrying secrets
// on the AccèsD identification and card-services forms.
var sensitiveKeys = regexp.MustCompile(`(?i)` + strings.Join([]string{
	`motdepasse`,
	`password`,
	`codeutilisateur`,
	`valeurreponse`,
	`infoposteclient`,
	`token`,
	`jeton`,
	`session`,
	`nocarte`,
	`nocompte`,
	`csrf`,
}, "|"))

// sensitiveHeaders are redacted wholesale.
var sensitiveHeaders = map[string]bool{
	"authorization": true,
	"cookie":        true,
	"set-cookie":    true,
	"x-csrf-token":  true,
	"x-xsrf-token":  true,
}

// sensitiveMarkup matches hidden inputs whose values carry secrets inside
// response bodies.
var sensitiveMarkup = regexp.MustCompile(`(?i)(<input[^>]*name="[^"]*(?:jeton|token|codeUtilisateur|noCarte)[^"]*"[^>]*value=")[^"]*(")`)

// Sanitize returns a copy of log with secrets replaced by [REDACTED].
func Sanitize(log *Log) *Log {
	out := &Log{Entries: make([]Entry, len(log.Entries))}
	for i, e := range log.Entries {
		out.Entries[i] = Entry{
			Step: e.Step,
			Request: Request{
				Method:  e.Request.Method,
				URL:     sanitizeURL(e.Request.URL),
				Headers: sanitizeHeaders(e.Request.Headers),
				Body:    sanitizeForm(e.Request.Body),
			},
			Response: Response{
				Status:  e.Response.Status,
				Headers: sanitizeHeaders(e.Response.Headers),
				Content: sanitizeContent(e.Response.Content),
			},
		}
	}
	return out
}

func sanitizeURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.RawQuery == "" {
		return rawURL
	}
	query := parsed.Query()
	for key := range query {
		if sensitiveKeys.MatchString(key) {
			query.Set(key, redacted)
		}
	}
	parsed.RawQuery = query.Encode()
	return parsed.String()
}

func sanitizeHeaders(headers []Header) []Header {
	if headers == nil {
		return nil
	}
	out := make([]Header, len(headers))
	for i, h := range headers {
		out[i] = h
		if sensitiveHeaders[strings.ToLower(h.Name)] || sensitiveKeys.MatchString(h.Name) {
			out[i].Value = redacted
		}
	}
	return out
}

func sanitizeForm(body string) string {
	if body == "" || !strings.Contains(body, "=") {
		return body
	}
	values, err := url.ParseQuery(body)
	if err != nil {
		return body
	}
	for key := range values {
		if sensitiveKeys.MatchString(key) {
			values.Set(key, redacted)
		}
	}
	return values.Encode()
}

func sanitizeContent(c Content) Content {
	if c.Encoding != "" {
		return c
	}
	c.Text = sensitiveMarkup.ReplaceAllString(c.Text, "${1}"+redacted+"${2}")
	return c
}
