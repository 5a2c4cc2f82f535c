// Package har reads, writes and records a simplified HAR (HTTP Archive)
// log of a portal session, so a live run can be replayed in tests.
package har

import (
	"encoding/json"
	"fmt"
	"os"
)

// Log is the simplified HAR format used by the recorder and the test replayer.
type Log struct {
	Entries []Entry `json:"entries"`
}

// Entry is a single HTTP request/response pair.
type Entry struct {
	Step     string   `json:"step,omitempty"`
	Request  Request  `json:"request"`
	Response Response `json:"response"`
}

type Request struct {
	Method  string   `json:"method"`
	URL     string   `json:"url"`
	Headers []Header `json:"headers,omitempty"`
	Body    string   `json:"body,omitempty"`
}

type Response struct {
	Status  int      `json:"status"`
	Headers []Header `json:"headers,omitempty"`
	Content Content  `json:"content"`
}

type Header struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Content holds the response body. Binary payloads (OFX exports, images)
// are base64 encoded.
type Content struct {
	MimeType string `json:"mimeType"`
	Text     string `json:"text"`
	Encoding string `json:"encoding,omitempty"`
	Size     int    `json:"size,omitempty"`
}

// Browser exports (Chrome DevTools "Save all as HAR") wrap the entries in a
// "log" object and carry POST bodies under postData.
type browserHAR struct {
	Log struct {
		Entries []struct {
			Request struct {
				Method   string   `json:"method"`
				URL      string   `json:"url"`
				Headers  []Header `json:"headers,omitempty"`
				PostData *struct {
					Text string `json:"text"`
				} `json:"postData,omitempty"`
			} `json:"request"`
			Response Response `json:"response"`
		} `json:"entries"`
	} `json:"log"`
}

// Load reads a HAR file, accepting both the simplified format and a
// browser DevTools export.
func Load(path string) (*Log, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read HAR file: %w", err)
	}

	var browser browserHAR
	if err := json.Unmarshal(data, &browser); err == nil && len(browser.Log.Entries) > 0 {
		log := &Log{Entries: make([]Entry, len(browser.Log.Entries))}
		for i, be := range browser.Log.Entries {
			var body string
			if be.Request.PostData != nil {
				body = be.Request.PostData.Text
			}
			log.Entries[i] = Entry{
				Request: Request{
					Method:  be.Request.Method,
					URL:     be.Request.URL,
					Headers: be.Request.Headers,
					Body:    body,
				},
				Response: be.Response,
			}
		}
		return log, nil
	}

	var log Log
	if err := json.Unmarshal(data, &log); err != nil {
		return nil, fmt.Errorf("parse HAR JSON: %w", err)
	}
	return &log, nil
}

// Save writes a HAR log with pretty formatting.
func Save(path string, log *Log) error {
	data, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal HAR: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write HAR file: %w", err)
	}
	return nil
}
