package desjardins

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grez-lucas/accesd-scraper/internal/scraper/bank"
	"github.com/grez-lucas/accesd-scraper/internal/scraper/bank/testutil"
	"github.com/grez-lucas/accesd-scraper/internal/scraper/htmlform"
)

const fixtureBank = "desjardins"

func TestParseBalance(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"45,20 $", "45.20"},
		{"1\u00a0234,56\u00a0$", "1234.56"},
		{"\u2212 56,00 $", "-56.00"},
		{"-12,5 $", "-12.5"},
		{"  0,00$ ", "0"},
		{"12\u2009345,00 $", "12345"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseBalance(tt.in)
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s, want %s", got, tt.want)
		})
	}
}

func TestParseBalance_Invalid(t *testing.T) {
	for _, in := range []string{"", " $ ", "n/d", "12,34,56 $"} {
		_, err := ParseBalance(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestParseAccounts(t *testing.T) {
	doc := testutil.LoadDocument(t, fixtureBank, "summary")

	var skipped []error
	got, err := ParseAccounts(doc, func(err error) { skipped = append(skipped, err) })
	require.NoError(t, err)
	require.Len(t, got, 4)

	assert.Equal(t, "1234 Compte Chèque", got[0].FullName)
	assert.Equal(t, "Comptes", got[0].Category)
	assert.Equal(t, "1234", got[0].ID)
	assert.Equal(t, "Compte Chèque", got[0].Type)
	assert.Equal(t, "00012", got[0].Caisse)
	assert.Equal(t, "Compte principal", got[0].Description)
	assert.Equal(t, "$", got[0].Unit)
	assert.True(t, decimal.RequireFromString("45.20").Equal(got[0].Balance))

	assert.Equal(t, "5678", got[1].ID)
	assert.Equal(t, "Épargne stable", got[1].Type)
	assert.False(t, got[1].HasDescription())
	assert.True(t, decimal.RequireFromString("1234.56").Equal(got[1].Balance))

	// Credit products are reported as owed
	assert.Equal(t, CategoryCredit, got[2].Category)
	assert.Equal(t, "4540", got[2].ID)
	assert.Equal(t, "", got[2].Caisse)
	assert.Equal(t, "Carte Odyssée", got[2].Description)
	assert.True(t, decimal.RequireFromString("56.00").Equal(got[2].Balance))

	assert.Equal(t, "7777", got[3].ID)
	assert.True(t, decimal.RequireFromString("-500").Equal(got[3].Balance))

	// Row without balance, section without name, panel without category
	require.Len(t, skipped, 3)
	for _, err := range skipped {
		assert.ErrorIs(t, err, htmlform.ErrNotFound)
	}
}

func TestParseAccounts_KeepsDocumentOrder(t *testing.T) {
	doc := htmlform.Parse([]byte(`
<div class="panel panel-tiroir"><div><h2><a><span>a</span><span>b</span>Comptes</a></h2></div>
  <div class="section tiroir"><h3>3 Trois</h3><div><span class="montant">3,00 $</span></div></div>
  <div class="section tiroir"><h3>1 Un</h3><div><span class="montant">abc $</span></div></div>
  <div class="section tiroir"><h3>2 Deux</h3><div><span class="montant">2,00 $</span></div></div>
</div>`))

	var skipped []error
	got, err := ParseAccounts(doc, func(err error) { skipped = append(skipped, err) })
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "3", got[0].ID)
	assert.Equal(t, "2", got[1].ID)
	require.Len(t, skipped, 1)
	assert.Contains(t, skipped[0].Error(), `"1 Un"`)
}

func TestParseAccounts_NameWithoutType(t *testing.T) {
	doc := htmlform.Parse([]byte(`
<div class="panel panel-tiroir"><div><h2><a><span>a</span><span>b</span>Comptes</a></h2></div>
  <div class="section tiroir"><h3>1234</h3><div><span class="montant">3,00 $</span></div></div>
</div>`))

	got, err := ParseAccounts(doc, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "1234", got[0].ID)
	assert.Equal(t, "", got[0].Type)
}

func TestParseAccounts_NilDocument(t *testing.T) {
	_, err := ParseAccounts(nil, nil)
	assert.ErrorIs(t, err, bank.ErrExtractionMiss)
}

func TestParseAccounts_EmptyPage(t *testing.T) {
	got, err := ParseAccounts(htmlform.Parse([]byte(`<html><body>rien</body></html>`)), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestParseCatalog(t *testing.T) {
	doc := testutil.LoadDocument(t, fixtureBank, "export_selection")

	got, err := ParseCatalog(doc)
	require.NoError(t, err)

	assert.Equal(t, []string{"EOP", "ES1", bank.VisaKey}, got.Keys())
	assert.Equal(t, bank.CatalogEntry{
		Field: "chCompte0",
		Label: "Caisse 00012 EOP 1234 Compte Chèque",
	}, got.Entries["EOP"])
	assert.Equal(t, "chCompte1", got.Entries["ES1"].Field)
	assert.Equal(t, "", got.Entries[bank.VisaKey].Field)

	assert.Equal(t, "XXXX-jeton-conciliation", got.Form["jeton"])
	assert.Equal(t, "debuter", got.Form["msgId"])
}

func TestParseCatalog_NoCheckboxes(t *testing.T) {
	got, err := ParseCatalog(htmlform.Parse([]byte(`<form><input type="hidden" name="a" value="1"></form>`)))
	require.NoError(t, err)
	assert.Equal(t, []string{bank.VisaKey}, got.Keys())

	_, err = ParseCatalog(nil)
	assert.True(t, errors.Is(err, bank.ErrExtractionMiss))
}

func TestParseCatalog_KeyIsThirdRawTextNode(t *testing.T) {
	doc := htmlform.Parse([]byte(`<form><table>
		<tr><td><input type="checkbox" name="chCompte0"></td>
			<td class="c">
				<b>Caisse 00012</b><br>EOP<br><span>1234 Compte</span></td></tr>
		<tr><td><input type="checkbox" name="chCompte1"></td>
			<td class="c"><b>Caisse 00012</b><br>ES1<br><span>5678 Epargne</span></td></tr>
		<tr><td><input type="checkbox" name="chCompte2"></td>
			<td class="c">
				<b>Caisse 00012</b>
				<br>ES2</td></tr>
	</table></form>`))

	got, err := ParseCatalog(doc)
	require.NoError(t, err)

	assert.Equal(t, bank.CatalogEntry{Field: "chCompte0", Label: "Caisse 00012 EOP 1234 Compte"}, got.Entries["EOP"])
	// Without the leading whitespace node the third node is the account name.
	assert.Equal(t, "chCompte1", got.Entries["5678 Epargne"].Field)
	assert.NotContains(t, got.Entries, "ES1")
	// A whitespace-only third node yields no key.
	assert.Equal(t, []string{"5678 Epargne", "EOP", bank.VisaKey}, got.Keys())
}

func TestSecurityQuestions(t *testing.T) {
	doc := testutil.LoadDocument(t, fixtureBank, "challenge")
	assert.Equal(t, []string{"Quel est le nom de   votre premier animal?"}, SecurityQuestions(doc))

	assert.Empty(t, SecurityQuestions(testutil.LoadDocument(t, fixtureBank, "identification_result")))
}

func TestFindAnswer(t *testing.T) {
	answers := map[string]string{
		"Quel est le nom de votre premier animal?": "Rex",
		"Ville natale ?": "Lévis",
	}

	got, ok := FindAnswer([]string{"QUEL est le nom de\u00a0votre  premier animal?"}, answers)
	assert.True(t, ok)
	assert.Equal(t, "Rex", got)

	got, ok = FindAnswer([]string{"Inconnue", "ville natale ?"}, answers)
	assert.True(t, ok)
	assert.Equal(t, "Lévis", got)

	_, ok = FindAnswer([]string{"Nom de votre école?"}, answers)
	assert.False(t, ok)

	_, ok = FindAnswer(nil, answers)
	assert.False(t, ok)
}

func TestSamePhrase(t *testing.T) {
	assert.True(t, SamePhrase("  Le  chat dort au soleil ", "le chat dort au soleil"))
	assert.False(t, SamePhrase("Le chien dort", "le chat dort au soleil"))
	assert.False(t, SamePhrase("", ""))
	assert.False(t, SamePhrase("Le chat", ""))
}
