package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/grez-lucas/accesd-scraper/internal/scraper/bank"
)

const dateLayout = "20060102"

// FileName is <KEY>_<YYYYMMDD>-<YYYYMMDD>.ofx.
func FileName(key string, period bank.DateRange) string {
	safe := strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == os.PathSeparator {
			return '_'
		}
		return r
	}, key)
	return fmt.Sprintf("%s_%s-%s.ofx", safe, period.Start.Format(dateLayout), period.End.Format(dateLayout))
}

// Save writes the statement under dir and returns its path. The bytes are
// written exactly as received.
func Save(dir, key string, period bank.DateRange, body []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	path := filepath.Join(dir, FileName(key, period))
	if err := os.WriteFile(path, body, 0o600); err != nil {
		return "", fmt.Errorf("write statement: %w", err)
	}
	return path, nil
}
