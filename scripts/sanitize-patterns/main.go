// sanitize-patterns scrubs personal data from captured HTML fixtures.
//
// Usage:
//
//	go run ./scripts/sanitize-patterns [-dry-run]
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

var sanitizePatterns = []struct {
	Pattern     *regexp.Regexp
	Replacement string
	Description string
}{
	// Card numbers, keep the issuer prefix and last four digits
	{
		regexp.MustCompile(`\b(\d{4})[ -]?\d{4}[ -]?\d{4}[ -]?(\d{4})\b`),
		`${1}XXXXXXXX${2}`,
		"Card number",
	},

	// Transit-institution-folio
	{
		regexp.MustCompile(`\b\d{5}-\d{3}-\d{7}\b`),
		`00000-815-0000000`,
		"Account number (transit-institution-folio)",
	},

	// Caisse number shown under each account
	{
		regexp.MustCompile(`(Caisse)\s+\d{5}\b`),
		`$1 00000`,
		"Caisse number",
	},

	// Greeting with the holder's name
	{
		regexp.MustCompile(`(Bonjour|Bienvenue)[,\s]+\p{Lu}[\p{L}'-]+(?:\s+\p{Lu}[\p{L}'-]+)+`),
		"$1 PRÉNOM NOM",
		"Full name in greeting",
	},

	// Hidden inputs carrying the user code, session tokens or SSO assertions
	{
		regexp.MustCompile(`(?i)(name="[^"]*(?:jeton|token|codeUtilisateur|SAMLResponse|RelayState|noCarte)[^"]*"[^>]*value=")[^"]*(")`),
		`${1}REDACTED${2}`,
		"Token or identifier in hidden input",
	},

	// Secure image id, tied to the account
	{
		regexp.MustCompile(`(securite/image\?id=)[^"&'\s]+`),
		`${1}XXXX`,
		"Secure image id",
	},

	// Card relation number in VISA links
	{
		regexp.MustCompile(`(NOREL=)[^&"'\s]+`),
		`${1}XXXX`,
		"Card relation number",
	},

	// Cookies in HTML
	{
		regexp.MustCompile(`(?i)document\.cookie\s*=\s*["'][^"']+["']`),
		`document.cookie="REDACTED"`,
		"Cookie",
	},
}

func main() {
	fixturesDir := flag.String("dir", filepath.Join("internal", "scraper", "bank", "desjardins", "testdata", "fixtures"), "Fixtures directory")
	dryRun := flag.Bool("dry-run", false, "Show what would be changed without modifying files")
	flag.Parse()

	files, err := filepath.Glob(filepath.Join(*fixturesDir, "*.html"))
	if err != nil || len(files) == 0 {
		fmt.Printf("No HTML files found in %s\n", *fixturesDir)
		os.Exit(1)
	}

	fmt.Printf("🔒 Sanitizing fixtures in %s\n", *fixturesDir)
	if *dryRun {
		fmt.Println("    (DRY RUN - no files will be modified)")
	}
	fmt.Println()

	for _, file := range files {
		sanitizeFile(file, *dryRun)
	}

	fmt.Println()
	fmt.Println("✅ Sanitization complete!")
	fmt.Println("    The secure phrase is not matched by any pattern, check authentication.html by hand")
	if *dryRun {
		fmt.Println("    Run without -dry-run to apply changes")
	}
}

func sanitizeFile(path string, dryRun bool) {
	content, err := os.ReadFile(path)
	if err != nil {
		fmt.Printf("❌ Error reading %s: %v\n", path, err)
		return
	}

	sanitized := string(content)
	changes := []string{}

	for _, pattern := range sanitizePatterns {
		matches := pattern.Pattern.FindAllString(sanitized, -1)
		if len(matches) == 0 {
			continue
		}
		sanitized = pattern.Pattern.ReplaceAllString(sanitized, pattern.Replacement)
		changes = append(changes, fmt.Sprintf("  - %s: %d matched", pattern.Description, len(matches)))
	}

	filename := filepath.Base(path)

	if len(changes) == 0 {
		fmt.Printf("📄 %s: No sensitive data found\n", filename)
		return
	}

	fmt.Printf("📄 %s: Found sensitive data\n", filename)
	for _, change := range changes {
		fmt.Println(change)
	}

	if !dryRun {
		if err := os.WriteFile(path, []byte(sanitized), 0o644); err != nil {
			fmt.Printf("    ❌ Error writing %s: %v\n", path, err)
		} else {
			fmt.Println("    ✅ Sanitized and saved")
		}
	}
}
