// probe-selectors checks the scraper's selectors against the live portal.
// For each page the operator brings up, it walks the frame tree and reports
// which known selectors match in which frame.
//
// Usage:
//
//	go run ./scripts/probe-selectors
//
// Run it after a portal redesign to see which selectors in
// internal/scraper/bank/desjardins/selectors.go went stale.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-rod/rod"

	"github.com/grez-lucas/accesd-scraper/internal/scraper/bank/desjardins"
	browserutil "github.com/grez-lucas/accesd-scraper/internal/scraper/browser"
	"github.com/grez-lucas/accesd-scraper/internal/scraper/session"
)

type selectorProbe struct {
	Name     string
	Selector string
}

func field(name string) string {
	return fmt.Sprintf("[name=%q]", name)
}

// probes lists what the scraper looks for, grouped as in selectors.go.
var probes = []selectorProbe{
	// Login
	{"User code input", field(desjardins.FieldUserCode)},
	{"Security question", desjardins.SelectorChallengeQuestion},
	{"Challenge answer input", field(desjardins.FieldChallengeAnswer)},
	{"Secure image", desjardins.SelectorSecureImage},
	{"Secure phrase", desjardins.SelectorSecurePhrase},
	{"Password input", field(desjardins.FieldPassword)},
	{"System error banner", session.DefaultErrorSelector},

	// Summary
	{"Account panel", desjardins.SelectorPanel},
	{"Account section", desjardins.SelectorPanel + " " + desjardins.SelectorSection},
	{"Account balance", desjardins.SelectorSection + " " + desjardins.SelectorAccountBalance},

	// Export
	{"Export checkbox", desjardins.SelectorExportCheckbox},
	{"Export label cell", desjardins.SelectorExportLabel},
	{"Export period", field(desjardins.FieldExportPeriod)},

	// VISA
	{"VISA statement link", desjardins.SelectorVisaStatementLink},
	{"VISA export link", desjardins.SelectorVisaExportLink},
	{"VISA format choice", field(desjardins.FieldVisaFormatChoice)},
}

type pageToInspect struct {
	Name         string
	Instructions string
}

var pages = []pageToInspect{
	{"Identification", "Open the AccèsD identification page"},
	{"Security question", "Submit the user code; stop on the question page if one shows (or skip)"},
	{"Password", "Stop on the password page with the secure image"},
	{"Summary", "Log in and open the account summary"},
	{"Export selection", "Open Téléchargement > Conciliation bancaire"},
	{"VISA account", "Open the VISA current account status"},
	{"VISA export", "Click 'Relevé de compte' then 'Conciliation / Téléchargement'"},
}

func main() {
	bin := flag.String("chrome", browserutil.DefaultBin, "Chrome binary")
	timeout := flag.Duration("probe-timeout", 500*time.Millisecond, "How long to wait for each selector")
	flag.Parse()

	fmt.Println("================================================================")
	fmt.Println("  SELECTOR PROBE: ACCESD")
	fmt.Println("================================================================")
	fmt.Println()

	browser, page, err := browserutil.Launch(*bin)
	if err != nil {
		fmt.Printf("Error starting browser: %v\n", err)
		os.Exit(1)
	}
	defer browser.MustClose()

	startURL := session.DefaultHosts[session.AccWeb] + desjardins.PathIdentification
	if err := page.Navigate(startURL); err != nil {
		fmt.Printf("Error opening %s: %v\n", startURL, err)
		os.Exit(1)
	}

	reader := bufio.NewReader(os.Stdin)
	missing := map[string]bool{}
	for _, probe := range probes {
		missing[probe.Name] = true
	}

	for _, pg := range pages {
		fmt.Println("----------------------------------------------------------------")
		fmt.Printf("PAGE: %s\n", pg.Name)
		fmt.Printf("  -> %s\n", pg.Instructions)
		fmt.Print("  Press ENTER when ready (or 'skip'/'quit'): ")

		input, _ := reader.ReadString('\n')
		input = strings.TrimSpace(strings.ToLower(input))

		if input == "quit" {
			break
		}
		if input == "skip" {
			fmt.Printf("  Skipped.\n\n")
			continue
		}

		if err := browserutil.WaitForIFrames(page); err != nil {
			fmt.Printf("  ⚠️  %v\n", err)
		}
		if info, err := page.Info(); err == nil {
			fmt.Printf("\n  URL: %s\n\n", info.URL)
		}

		inspectFrame(browserutil.FrameTree(page), "main", 1, *timeout, missing)
		fmt.Println()
	}

	fmt.Println("================================================================")
	if len(missing) == 0 {
		fmt.Println("  Every selector matched at least once.")
	} else {
		fmt.Println("  Never matched:")
		for _, probe := range probes {
			if missing[probe.Name] {
				fmt.Printf("    %-26s  %s\n", probe.Name, probe.Selector)
			}
		}
	}
	fmt.Println("================================================================")
}

// inspectFrame reports the probes matching in frame, then recurses into
// its children.
func inspectFrame(frame browserutil.Frame, path string, depth int, timeout time.Duration, missing map[string]bool) {
	indent := strings.Repeat("  ", depth)

	if frame.Page == nil {
		fmt.Printf("%s(cannot access frame)\n", indent)
		return
	}

	found := 0
	for _, probe := range probes {
		count := countMatches(frame.Page, probe.Selector, timeout)
		if count == 0 {
			continue
		}
		fmt.Printf("%sFOUND  %-26s  %-40s  x%d\n", indent, probe.Name, probe.Selector, count)
		delete(missing, probe.Name)
		found++
	}
	if found == 0 {
		fmt.Printf("%s(no known selectors found)\n", indent)
	}

	for _, child := range frame.Children {
		childPath := fmt.Sprintf("%s > %s", path, child.Name)
		fmt.Printf("\n%sIFRAME %s  visible=%v  src=%s\n", indent, childPath, child.Visible, truncate(child.Src, 80))
		inspectFrame(child, childPath, depth+1, timeout, missing)
	}
}

func countMatches(page *rod.Page, selector string, timeout time.Duration) int {
	if _, err := page.Timeout(timeout).Element(selector); err != nil {
		return 0
	}
	els, err := page.Elements(selector)
	if err != nil {
		return 0
	}
	return len(els)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
