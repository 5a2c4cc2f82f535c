// capture-fixtures walks an operator through a live AccèsD session in a
// visible browser and saves each page as an HTML fixture plus a screenshot.
//
// Usage:
//
//	go run ./scripts/capture-fixtures
//	go run ./scripts/capture-fixtures -output=/tmp/fixtures -env=.env.local
//
// The user code is typed in from DESJARDINS_NUMBER when it is set. Every
// other step is done by hand; press ENTER once the requested page shows.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-rod/rod"
	"github.com/joho/godotenv"

	"github.com/grez-lucas/accesd-scraper/internal/config"
	"github.com/grez-lucas/accesd-scraper/internal/scraper/bank/desjardins"
	browserutil "github.com/grez-lucas/accesd-scraper/internal/scraper/browser"
	"github.com/grez-lucas/accesd-scraper/internal/scraper/htmlform"
	"github.com/grez-lucas/accesd-scraper/internal/scraper/session"
)

// PageCapture is one fixture the operator is asked to bring up.
type PageCapture struct {
	Name         string
	Instructions string
	// Check reports what the scraper's parsers find in the captured page.
	Check func(doc *goquery.Document) string
}

var capturePages = []PageCapture{
	{Name: "identification", Instructions: "Wait for the identification page (the user code is typed for you)"},
	{Name: "identification_result", Instructions: "Submit the user code; capture the page that follows", Check: checkHidden},
	{Name: "challenge", Instructions: "If a security question shows, capture it (or skip)", Check: checkChallenge},
	{Name: "authentication", Instructions: "Capture the password page with the secure image and phrase", Check: checkSecurePhrase},
	{Name: "portal_home", Instructions: "Log in and wait for the AccèsD home page"},
	{Name: "summary", Instructions: "Open the account summary (Sommaire)", Check: checkSummary},
	{Name: "export_selection", Instructions: "Open Téléchargement > Conciliation bancaire", Check: checkCatalog},
	{Name: "card_info", Instructions: "Open the credit card information page", Check: checkHidden},
	{Name: "visa_account", Instructions: "Open the VISA current account status"},
	{Name: "visa_statement", Instructions: "Click 'Relevé de compte'"},
	{Name: "visa_export", Instructions: "Click 'Conciliation / Téléchargement'", Check: checkHidden},
	{Name: "error_banner", Instructions: "If a system error banner shows anywhere, capture it (or skip)", Check: checkBanner},
}

func main() {
	outputDir := flag.String("output", filepath.Join("internal", "scraper", "bank", "desjardins", "testdata", "fixtures"), "Output directory")
	envFile := flag.String("env", config.DefaultEnvFile, "Env file holding DESJARDINS_NUMBER")
	bin := flag.String("chrome", browserutil.DefaultBin, "Chrome binary")
	flag.Parse()

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		fmt.Printf("Error creating directory: %v\n", err)
		os.Exit(1)
	}

	// a missing env file only means the user code is typed by hand
	_ = godotenv.Load(*envFile)
	userCode := os.Getenv(config.EnvUserCode)

	fmt.Println("╔════════════════════════════════════════════════════════════════╗")
	fmt.Println("║           ACCESD FIXTURE CAPTURE TOOL                          ║")
	fmt.Println("╠════════════════════════════════════════════════════════════════╣")
	fmt.Printf("║  Output: %-52s  ║\n", *outputDir)
	fmt.Println("╚════════════════════════════════════════════════════════════════╝")
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
	if userCode != "" {
		if err := page.WaitLoad(); err == nil {
			if err := browserutil.Fill(page, desjardins.FieldUserCode, userCode, true); err != nil {
				fmt.Printf("⚠️  Could not type the user code: %v\n", err)
			}
		}
	}

	reader := bufio.NewReader(os.Stdin)

	fmt.Println("📋 Instructions:")
	fmt.Println("   - Follow the prompts below in the browser window")
	fmt.Println("   - Press ENTER after completing each step")
	fmt.Println("   - Type 'skip' to skip a page, 'quit' to exit")
	fmt.Println()

	for _, capture := range capturePages {
		fmt.Println("────────────────────────────────────────────────────────────────")
		fmt.Printf("📄 Capturing: %s.html\n", capture.Name)
		fmt.Printf("📝 Instructions: %s\n", capture.Instructions)
		fmt.Print("   Press ENTER when ready (or 'skip'/'quit'): ")

		input, _ := reader.ReadString('\n')
		input = strings.TrimSpace(strings.ToLower(input))

		if input == "quit" {
			fmt.Println("\n👋 Exiting...")
			break
		}
		if input == "skip" {
			fmt.Printf("   ⏭️  Skipped %s\n\n", capture.Name)
			continue
		}

		if err := capturePage(page, *outputDir, capture); err != nil {
			fmt.Printf("   ❌ %v\n\n", err)
			continue
		}
		fmt.Println()
	}

	saveMetadata(*outputDir)

	fmt.Println("════════════════════════════════════════════════════════════════")
	fmt.Println("✅ Capture complete!")
	fmt.Println()
	fmt.Println("⚠️  IMPORTANT: Sanitize sensitive data before committing!")
	fmt.Println("   Run: go run ./scripts/sanitize-patterns")
	fmt.Println("════════════════════════════════════════════════════════════════")
}

func capturePage(page *rod.Page, outDir string, capture PageCapture) error {
	if err := browserutil.WaitForIFrames(page); err != nil {
		return err
	}

	// screenshot first, inlining rewrites the DOM
	screenshotPath := filepath.Join(outDir, capture.Name+".png")
	if buf, err := page.Screenshot(false, nil); err != nil {
		fmt.Printf("   ⚠️  Screenshot failed: %v\n", err)
	} else if err := os.WriteFile(screenshotPath, buf, 0o644); err != nil {
		fmt.Printf("   ⚠️  Error saving screenshot: %v\n", err)
	} else {
		fmt.Printf("   📸 Screenshot: %s\n", screenshotPath)
	}

	html, frames, err := browserutil.InlineFrames(page)
	if err != nil {
		return fmt.Errorf("capturing HTML: %w", err)
	}
	if frames > 0 {
		fmt.Printf("   🔲 Inlined %d iframe(s)\n", frames)
	}

	htmlPath := filepath.Join(outDir, capture.Name+".html")
	if err := os.WriteFile(htmlPath, []byte(html), 0o644); err != nil {
		return fmt.Errorf("saving HTML: %w", err)
	}
	fmt.Printf("   ✅ Saved: %s\n", htmlPath)

	if info, err := page.Info(); err == nil {
		fmt.Printf("   🔗 URL: %s\n", info.URL)
	}

	if capture.Check != nil {
		fmt.Printf("   🔎 %s\n", capture.Check(htmlform.Parse([]byte(html))))
	}
	return nil
}

func checkHidden(doc *goquery.Document) string {
	return fmt.Sprintf("%d hidden field(s)", len(htmlform.HiddenFields(doc)))
}

func checkChallenge(doc *goquery.Document) string {
	questions := desjardins.SecurityQuestions(doc)
	if len(questions) == 0 {
		return "no security question found"
	}
	return fmt.Sprintf("question: %q", questions[0])
}

func checkSecurePhrase(doc *goquery.Document) string {
	phrase, err := htmlform.Text(doc, desjardins.SelectorSecurePhrase)
	if err != nil {
		return "secure phrase not found"
	}
	if _, err := htmlform.Attr(doc, desjardins.SelectorSecureImage, "src"); err != nil {
		return "secure image not found"
	}
	return fmt.Sprintf("secure phrase %d chars, image present", len([]rune(phrase)))
}

func checkSummary(doc *goquery.Document) string {
	skipped := 0
	accounts, err := desjardins.ParseAccounts(doc, func(error) { skipped++ })
	if err != nil {
		return fmt.Sprintf("summary not parsed: %v", err)
	}
	return fmt.Sprintf("%d account(s), %d row(s) skipped", len(accounts), skipped)
}

func checkCatalog(doc *goquery.Document) string {
	catalog, err := desjardins.ParseCatalog(doc)
	if err != nil {
		return fmt.Sprintf("catalog not parsed: %v", err)
	}
	return fmt.Sprintf("%d exportable account(s)", len(catalog.Entries))
}

func checkBanner(doc *goquery.Document) string {
	text, err := htmlform.Text(doc, session.DefaultErrorSelector)
	if err != nil {
		return "no error banner found"
	}
	return fmt.Sprintf("banner: %q", text)
}

func saveMetadata(outDir string) {
	metadata := fmt.Sprintf(`# Fixture Metadata
portal: AccèsD (Desjardins)
captured_at: %s
captured_by: %s

## Files
One .html per page of the login, summary, export and VISA flows.
Screenshots (.png) provided for visual reference.

## Iframe Handling

Same-origin iframes are inlined during capture as:

    <div data-captured-iframe="true" data-iframe-src="..." data-iframe-name="...">
      <style data-from-iframe="true">/* iframe styles */</style>
      <!-- iframe body content -->
    </div>

## Notes
- Sanitize with scripts/sanitize-patterns before committing
- Check that the secure phrase and card numbers are gone by hand
- Re-run capture when the portal markup changes
`, time.Now().Format(time.RFC3339), os.Getenv("USER"))

	metaPath := filepath.Join(outDir, "README.md")
	if err := os.WriteFile(metaPath, []byte(metadata), 0o644); err != nil {
		fmt.Printf("⚠️  Error saving metadata: %v\n", err)
	}
}
