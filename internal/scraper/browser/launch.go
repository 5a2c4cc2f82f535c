// Package browser drives a real Chrome through Rod. The scraper itself talks
// HTTP only; these helpers back the fixture capture and selector probe tools.
package browser

import (
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"
)

// DefaultBin is the Chrome binary used when none is given.
const DefaultBin = "/usr/bin/google-chrome"

// Launch starts a visible Chrome with the automation markers turned off and
// opens a stealth page. The caller closes the returned browser.
func Launch(bin string) (*rod.Browser, *rod.Page, error) {
	if bin == "" {
		bin = DefaultBin
	}

	controlURL, err := launcher.New().
		Bin(bin).
		Headless(false).
		Set("disable-blink-features", "AutomationControlled").
		Set("exclude-switches", "enable-automation").
		Set("no-first-run").
		Set("no-default-browser-check").
		Set("window-size", "1920,1080").
		Devtools(false).
		Launch()
	if err != nil {
		return nil, nil, fmt.Errorf("launch chrome: %w", err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		return nil, nil, fmt.Errorf("connect to chrome: %w", err)
	}

	page, err := stealth.Page(b)
	if err != nil {
		_ = b.Close()
		return nil, nil, fmt.Errorf("open stealth page: %w", err)
	}
	return b, page, nil
}
