// Package desjardins drives the AccèsD portal: the identification sequence,
// the account summary and the OFX export forms, including the card services
// site used for VISA statements.
package desjardins

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"

	"github.com/grez-lucas/accesd-scraper/internal/scraper/bank"
	"github.com/grez-lucas/accesd-scraper/internal/scraper/htmlform"
)

var errEmptyBalance = errors.New("empty balance")

// --- PUBLIC API ---

// ParseAccounts reads the summary page. Panels whose heading cannot be read
// and sections without a name or balance are reported to onSkip and left
// out; onSkip may be nil.
func ParseAccounts(doc *goquery.Document, onSkip func(error)) ([]bank.AccountRecord, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: summary page could not be parsed", bank.ErrExtractionMiss)
	}
	if onSkip == nil {
		onSkip = func(error) {}
	}

	accounts := []bank.AccountRecord{}
	doc.Find(SelectorPanel).Each(func(i int, panel *goquery.Selection) {
		category, err := panelCategory(panel)
		if err != nil {
			onSkip(fmt.Errorf("panel %d: %w", i, err))
			return
		}

		panel.Find(SelectorSection).Each(func(j int, section *goquery.Selection) {
			account, err := parseSection(section, category)
			if err != nil {
				onSkip(fmt.Errorf("panel %d (%s) section %d: %w", i, category, j, err))
				return
			}
			accounts = append(accounts, account)
		})
	})

	return accounts, nil
}

// ParseCatalog reads the export selection page. The returned catalog always
// holds the VISA entry, which is exported through the card services site.
func ParseCatalog(doc *goquery.Document) (*bank.Catalog, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: export selection page could not be parsed", bank.ErrExtractionMiss)
	}

	catalog := bank.NewCatalog()
	catalog.Form = htmlform.HiddenFields(doc)

	doc.Find(SelectorExportCheckbox).Each(func(_ int, input *goquery.Selection) {
		field := input.AttrOr("name", "")
		if field == "" {
			return
		}
		cell := input.Closest("tr").Find(SelectorExportLabel)
		raw := htmlform.RawTextNodes(cell)
		if len(raw) <= ExportKeyIndex {
			return
		}
		key := strings.TrimSpace(raw[ExportKeyIndex])
		if key == "" {
			return
		}
		catalog.Entries[key] = bank.CatalogEntry{
			Field: field,
			Label: strings.Join(htmlform.TextNodes(cell), " "),
		}
	})

	return catalog, nil
}

// SecurityQuestions returns the questions shown on a challenge page, if any.
func SecurityQuestions(doc *goquery.Document) []string {
	return htmlform.Texts(doc, SelectorChallengeQuestion)
}

// FindAnswer looks the questions up in the configured answers, ignoring case
// and whitespace differences. The first question with an answer wins.
func FindAnswer(questions []string, answers map[string]string) (string, bool) {
	normalized := make(map[string]string, len(answers))
	for q, a := range answers {
		normalized[htmlform.Normalize(q)] = a
	}
	for _, q := range questions {
		if a, ok := normalized[htmlform.Normalize(q)]; ok {
			return a, true
		}
	}
	return "", false
}

// SamePhrase compares the identity phrase shown by the site with the
// expected one, ignoring case and whitespace differences.
func SamePhrase(shown, expected string) bool {
	want := htmlform.Normalize(expected)
	return want != "" && htmlform.Normalize(shown) == want
}

// --- PRIVATE DOMAIN LOGIC ---

func panelCategory(panel *goquery.Selection) (string, error) {
	heading := panel.Find(SelectorPanelHeading).First()
	if heading.Length() == 0 {
		return "", fmt.Errorf("%w: panel heading", htmlform.ErrNotFound)
	}
	nodes := htmlform.TextNodes(heading)
	if len(nodes) <= PanelCategoryIndex {
		return "", fmt.Errorf("%w: category in heading %q", htmlform.ErrNotFound, strings.Join(nodes, " "))
	}
	return strings.ReplaceAll(nodes[PanelCategoryIndex], ",", ""), nil
}

func parseSection(section *goquery.Selection, category string) (bank.AccountRecord, error) {
	name := strings.TrimSpace(section.Find(SelectorAccountName).First().Text())
	if name == "" {
		return bank.AccountRecord{}, fmt.Errorf("%w: account name", htmlform.ErrNotFound)
	}

	balanceSel := section.Find(SelectorAccountBalance).First()
	if balanceSel.Length() == 0 {
		return bank.AccountRecord{}, fmt.Errorf("%w: balance of %q", htmlform.ErrNotFound, name)
	}
	balance, err := ParseBalance(balanceSel.Text())
	if err != nil {
		return bank.AccountRecord{}, fmt.Errorf("balance of %q: %w", name, err)
	}
	if category == CategoryCredit {
		// Credit products show the amount owed unsigned
		balance = balance.Neg()
	}

	id, kind := splitName(name)

	return bank.AccountRecord{
		FullName:    name,
		Category:    category,
		ID:          id,
		Type:        kind,
		Caisse:      strings.TrimSpace(section.Find(SelectorAccountCaisse).First().Text()),
		Description: cleanDescription(section.Find(SelectorAccountDesc).First().Text()),
		Balance:     balance,
		Unit:        CurrencyUnit,
	}, nil
}

// splitName splits "1234 Compte Chèque" into its identifier and type.
func splitName(name string) (string, string) {
	idx := strings.IndexFunc(name, unicode.IsSpace)
	if idx < 0 {
		return name, ""
	}
	return name[:idx], strings.TrimSpace(name[idx:])
}

var descriptionCleaner = strings.NewReplacer("\u2212", " ", "\u00a0", " ")

func cleanDescription(s string) string {
	return strings.TrimSpace(descriptionCleaner.Replace(s))
}

// --- LOW LEVEL UTILITIES ---

var balanceCleaner = strings.NewReplacer(CurrencyUnit, "", ",", ".", "\u2212", "-")

// ParseBalance reads an amount written the fr-CA way: space (or NBSP)
// grouped thousands, decimal comma, trailing dollar sign and a U+2212 minus.
func ParseBalance(s string) (decimal.Decimal, error) {
	compact := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	compact = balanceCleaner.Replace(compact)
	if compact == "" {
		return decimal.Zero, errEmptyBalance
	}

	amount, err := decimal.NewFromString(compact)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return amount, nil
}
