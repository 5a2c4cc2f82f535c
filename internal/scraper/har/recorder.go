package har

import (
	"encoding/base64"
	"net/http"
	"strings"
	"unicode/utf8"
)

// Recorder accumulates the exchanges of one run. The session is strictly
// sequential, so no locking is done.
type Recorder struct {
	log Log
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

// Add appends one exchange.
func (r *Recorder) Add(step string, req *http.Request, reqBody string, status int, header http.Header, body []byte) {
	content := NewContent(header.Get("Content-Type"), body)

	r.log.Entries = append(r.log.Entries, Entry{
		Step: step,
		Request: Request{
			Method:  req.Method,
			URL:     req.URL.String(),
			Headers: headerList(req.Header),
			Body:    reqBody,
		},
		Response: Response{
			Status:  status,
			Headers: headerList(header),
			Content: content,
		},
	})
}

// Log returns the recorded exchanges, sanitized.
func (r *Recorder) Log() *Log {
	return Sanitize(&r.log)
}

// Save writes the sanitized recording to path.
func (r *Recorder) Save(path string) error {
	return Save(path, r.Log())
}

func headerList(h http.Header) []Header {
	var out []Header
	for name, values := range h {
		for _, v := range values {
			out = append(out, Header{Name: name, Value: v})
		}
	}
	return out
}

// NewContent wraps a response body, base64 encoding it when it is not text.
func NewContent(mime string, body []byte) Content {
	c := Content{MimeType: mime, Size: len(body)}
	if utf8.Valid(body) {
		c.Text = string(body)
	} else {
		c.Text = base64.StdEncoding.EncodeToString(body)
		c.Encoding = "base64"
	}
	return c
}

// Body decodes the response content of an entry.
func (c Content) Body() []byte {
	if strings.EqualFold(c.Encoding, "base64") {
		if b, err := base64.StdEncoding.DecodeString(c.Text); err == nil {
			return b
		}
	}
	return []byte(c.Text)
}
