// sanitize-har removes secrets from a recorded session before it is
// committed as a replay fixture.
//
// Usage:
//
//	go run ./scripts/sanitize-har -scenario=login_success
//	go run ./scripts/sanitize-har -input=recording.har.json -output=sanitized.har.json
//
// Recordings come from `accesd --record-har` or a DevTools "Save all as HAR".
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/grez-lucas/accesd-scraper/internal/scraper/har"
)

func main() {
	bankCode := flag.String("bank", "desjardins", "Bank package holding the recordings")
	scenario := flag.String("scenario", "", "Scenario name (e.g., login_success)")

	inputPath := flag.String("input", "", "Input HAR file path")
	outputPath := flag.String("output", "", "Output HAR file path (defaults to input path)")

	dryRun := flag.Bool("dry-run", false, "Show what would be redacted without modifying")

	flag.Parse()

	var inPath, outPath string

	switch {
	case *scenario != "":
		inPath = filepath.Join("internal", "scraper", "bank", *bankCode, "testdata", "recordings", *scenario+".har.json")
		outPath = inPath
	case *inputPath != "":
		inPath = *inputPath
		outPath = *inputPath
		if *outputPath != "" {
			outPath = *outputPath
		}
	default:
		printUsage()
		os.Exit(1)
	}

	if _, err := os.Stat(inPath); os.IsNotExist(err) {
		fmt.Printf("Error: Input file not found: %s\n", inPath)
		os.Exit(1)
	}

	fmt.Printf("Loading HAR file: %s\n", inPath)

	log, err := har.Load(inPath)
	if err != nil {
		fmt.Printf("Error loading HAR: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Loaded %d entries\n", len(log.Entries))

	sanitized := har.Sanitize(log)

	redactions := diff(log, sanitized)
	total := 0
	for _, r := range redactions {
		total += len(r.Parts)
	}
	fmt.Printf("Redacted %d sensitive values\n", total)

	if *dryRun {
		fmt.Println("\n[DRY RUN] No changes written.")
		printRedactionSummary(redactions)
		return
	}

	if err := har.Save(outPath, sanitized); err != nil {
		fmt.Printf("Error saving HAR: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Sanitized HAR saved to: %s\n", outPath)
	fmt.Println("\nSafe to commit!")
}

func printUsage() {
	fmt.Println("sanitize-har - Remove sensitive data from HAR files before committing")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  go run ./scripts/sanitize-har -scenario=login_success")
	fmt.Println("  go run ./scripts/sanitize-har -input=recording.har.json")
	fmt.Println("  go run ./scripts/sanitize-har -input=in.har.json -output=out.har.json")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -bank      Bank package (default desjardins)")
	fmt.Println("  -scenario  Scenario name (login_success, challenge, visa_download, ...)")
	fmt.Println("  -input     Input HAR file path")
	fmt.Println("  -output    Output HAR file path (defaults to input)")
	fmt.Println("  -dry-run   Show redactions without modifying file")
}

// redaction lists what changed in one entry.
type redaction struct {
	Index  int
	Method string
	URL    string
	Parts  []string
}

func diff(original, sanitized *har.Log) []redaction {
	var out []redaction
	for i := range original.Entries {
		if i >= len(sanitized.Entries) {
			break
		}
		orig := original.Entries[i]
		san := sanitized.Entries[i]

		var parts []string
		if orig.Request.URL != san.Request.URL {
			parts = append(parts, "URL query parameters")
		}
		for j, h := range orig.Request.Headers {
			if j < len(san.Request.Headers) && h.Value != san.Request.Headers[j].Value {
				parts = append(parts, fmt.Sprintf("request header '%s'", h.Name))
			}
		}
		if orig.Request.Body != san.Request.Body {
			parts = append(parts, "request form fields")
		}
		for j, h := range orig.Response.Headers {
			if j < len(san.Response.Headers) && h.Value != san.Response.Headers[j].Value {
				parts = append(parts, fmt.Sprintf("response header '%s'", h.Name))
			}
		}
		if orig.Response.Content.Text != san.Response.Content.Text {
			parts = append(parts, "hidden inputs in response body")
		}

		if len(parts) > 0 {
			out = append(out, redaction{Index: i + 1, Method: orig.Request.Method, URL: orig.Request.URL, Parts: parts})
		}
	}
	return out
}

func printRedactionSummary(redactions []redaction) {
	fmt.Println("\nRedaction Summary:")
	fmt.Println("==================")

	for _, r := range redactions {
		fmt.Printf("\nEntry %d: %s %s\n", r.Index, r.Method, truncateURL(r.URL))
		for _, part := range r.Parts {
			fmt.Printf("  - %s redacted\n", part)
		}
	}
}

func truncateURL(url string) string {
	if len(url) > 80 {
		return url[:77] + "..."
	}
	return url
}
