// Package testutil loads the sanitized portal pages stored next to each
// bank package.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

// FixturePath returns <bank>/testdata/fixtures/<name>.html relative to the
// bank directory, whatever the test's working directory.
func FixturePath(bankCode, name string) string {
	_, filename, _, _ := runtime.Caller(0)
	baseDir := filepath.Dir(filepath.Dir(filename)) // up to bank/

	return filepath.Join(baseDir, bankCode, "testdata", "fixtures", name+".html")
}

// LoadFixture reads an HTML fixture file for the given bank
func LoadFixture(t *testing.T, bankCode, name string) []byte {
	t.Helper()

	data, err := os.ReadFile(FixturePath(bankCode, name))
	require.NoError(t, err, "load fixture %s/%s", bankCode, name)

	return data
}

// LoadDocument parses a fixture the way the session parses live pages.
func LoadDocument(t *testing.T, bankCode, name string) *goquery.Document {
	t.Helper()

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(LoadFixture(t, bankCode, name)))
	require.NoError(t, err, "parse fixture %s/%s", bankCode, name)

	return doc
}
