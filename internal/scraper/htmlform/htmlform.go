// Package htmlform extracts form state (hidden inputs, link parameters and
// text nodes) from parsed HTML pages.
package htmlform

import (
	"bytes"
	"errors"
	"net/url"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/text/cases"
)

// ErrNotFound is returned when a lookup legitimately misses. Callers decide
// whether a miss is fatal.
var ErrNotFound = errors.New("element not found")

// Fields maps form input names to values.
type Fields map[string]string

// Clone returns a copy that can be extended without touching the original.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Values encodes the fields for a request.
func (f Fields) Values() url.Values {
	v := make(url.Values, len(f))
	for k, val := range f {
		v.Set(k, val)
	}
	return v
}

// Parse builds a document from a response body. x/net/html recovers from
// malformed markup, so nil is only returned when reading fails outright.
func Parse(body []byte) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil
	}
	return doc
}

// HiddenFields collects every input of type hidden. Inputs without a name
// are ignored, a missing value becomes "", and when a name repeats the last
// occurrence in document order wins.
func HiddenFields(doc *goquery.Document) Fields {
	fields := Fields{}
	if doc == nil {
		return fields
	}
	doc.Find("input").Each(func(_ int, s *goquery.Selection) {
		if !strings.EqualFold(s.AttrOr("type", ""), "hidden") {
			return
		}
		name, ok := s.Attr("name")
		if !ok || name == "" {
			return
		}
		fields[name] = s.AttrOr("value", "")
	})
	return fields
}

// Text returns the trimmed text of the first element matching selector.
func Text(doc *goquery.Document, selector string) (string, error) {
	if doc == nil {
		return "", ErrNotFound
	}
	sel := doc.Find(selector).First()
	if sel.Length() == 0 {
		return "", ErrNotFound
	}
	return strings.TrimSpace(sel.Text()), nil
}

// Texts returns the trimmed, non-empty text of every element matching selector.
func Texts(doc *goquery.Document, selector string) []string {
	if doc == nil {
		return nil
	}
	var out []string
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		if t := strings.TrimSpace(s.Text()); t != "" {
			out = append(out, t)
		}
	})
	return out
}

// Attr returns an attribute of the first element matching selector.
func Attr(doc *goquery.Document, selector, attr string) (string, error) {
	if doc == nil {
		return "", ErrNotFound
	}
	val, ok := doc.Find(selector).First().Attr(attr)
	if !ok {
		return "", ErrNotFound
	}
	return val, nil
}

// TextNodes walks the selection and returns its non-empty text nodes,
// trimmed, in document order.
func TextNodes(sel *goquery.Selection) []string {
	var out []string
	for _, n := range sel.Nodes {
		collectText(n, &out, false)
	}
	return out
}

// RawTextNodes returns every text node of the selection as written,
// whitespace-only nodes included.
func RawTextNodes(sel *goquery.Selection) []string {
	var out []string
	for _, n := range sel.Nodes {
		collectText(n, &out, true)
	}
	return out
}

func collectText(node *html.Node, out *[]string, raw bool) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		if raw {
			*out = append(*out, node.Data)
		} else if t := strings.TrimSpace(node.Data); t != "" {
			*out = append(*out, t)
		}
		return
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		collectText(child, out, raw)
	}
}

// Link is an anchor target split into path and query parameters.
type Link struct {
	Path  string
	Query url.Values
}

// FindLink returns the first anchor matching selector whose visible label
// equals label once both are normalized.
func FindLink(doc *goquery.Document, selector, label string) (Link, error) {
	if doc == nil {
		return Link{}, ErrNotFound
	}
	want := Normalize(label)

	var href string
	found := false
	doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if Normalize(s.Text()) != want {
			return true
		}
		href, found = s.Attr("href")
		return !found
	})
	if !found {
		return Link{}, ErrNotFound
	}
	return ParseLink(href)
}

// ParseLink splits a relative or absolute href. Relative paths are rooted.
func ParseLink(href string) (Link, error) {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return Link{}, err
	}
	path := u.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return Link{Path: path, Query: u.Query()}, nil
}

// Normalize case-folds s, collapses every run of whitespace (NBSP included)
// into one space and trims the ends.
func Normalize(s string) string {
	return cases.Fold().String(strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " "))
}
