package desjardins

// Every selector, visible label and path the scraper depends on lives here,
// grouped by page, so a portal markup change touches this file only.

// Identification (accweb)
const (
	PathIdentification        = "/identifiantunique/identification"
	PathIdentificationProcess = "/identifiantunique/identification/identificationProcess"

	FieldUserCode   = "codeUtilisateur"
	FieldClientInfo = "infoPosteClient"

	// Browser fingerprint expected by the identification form
	ClientFingerprint = "version=3.4.1.0_1&pm_fpua=mozilla/5.0 (x11; linux x86_64) applewebkit/537.36 (khtml, like gecko) chrome/49.0.2623.108 safari/537.36|5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/49.0.2623.108 Safari/537.36|Linux x86_64&pm_fpsc=24|1920|1200|1175&pm_fpsw=&pm_fptz=-5&pm_fpln=lang=en-US|syslang=|userlang=&pm_fpjv=0&pm_fpco=1&pm_fpasw=mhjfbmdgcfjbbpaeojofohoefgiehjai|libpepflashplayer|internal-pdf-viewer&pm_fpan=Netscape&pm_fpacn=Mozilla&pm_fpol=true&pm_fposp=&pm_fpup=&pm_fpsaw=1920&pm_fpspd=24&pm_fpsbd=&pm_fpsdx=&pm_fpsdy=&pm_fpslx=&pm_fpsly=&pm_fpsfse=&pm_fpsui=&pm_os=Linux&pm_brmjv=49&pm_br=Chrome&pm_inpt=&pm_expt="
)

// Security question (accweb)
const (
	PathChallenge       = "/identifiantunique/defi"
	PathChallengeSubmit = "/identifiantunique/defi/soumettre"

	SelectorChallengeQuestion = "label[for='valeurReponse'] b"

	FieldChallengeAnswer   = "valeurReponse"
	FieldChallengeRemember = "conserver"
)

// Password page (accweb)
const (
	PathAuthentication        = "/identifiantunique/authentification"
	PathAuthenticationProcess = "/identifiantunique/authentification/authentificationProcess"

	SelectorSecureImage  = "form div img"
	SelectorSecurePhrase = "form div strong"

	FieldPassword = "motDePasse"
)

// AuthenticationQuery is sent with the password page request.
var AuthenticationQuery = map[string]string{
	"reponseNormalise": "true",
	"executeTime":      "121",
}

// Single sign-on hand-off (accweb -> accesd)
const (
	PathSSORedirect = "/identifiantunique/sso/redirect"
	PathSSOLogon    = "/tisecuADGestionAcces/LogonSSOviaAccesWeb.do"
	PathPortalHome  = "/auportADPortail/ObtenirPageAccueilADP.do"
)

// Summary page (accesd)
const (
	PathSummary = "/sommaire-perso/sommaire/detention"

	SelectorPanel          = "div.panel.panel-tiroir"
	SelectorPanelHeading   = "div > h2 > a"
	SelectorSection        = "div.section.tiroir"
	SelectorAccountName    = "h3"
	SelectorAccountCaisse  = "p span.desc-ligne2"
	SelectorAccountDesc    = "p span.desc-ligne1"
	SelectorAccountBalance = "div span.montant"

	// Position of the category among the heading's text nodes
	PanelCategoryIndex = 2

	CategoryCredit = "Cartes prêts et marges de crédit"
	CurrencyUnit   = "$"
)

// SummaryQuery is sent with the summary page request.
var SummaryQuery = map[string]string{
	"token": "1",
}

// Export selection (accesd)
const (
	PathExportSelection = "/coreleADReleve/ObtenirSelectionConciliationBancaire.do"
	PathExportFile      = "/coreleADReleve/secondaire/ObtenirReleveOperations.do"

	SelectorExportCheckbox = "input[type='checkbox']"
	SelectorExportLabel    = "td.c"

	// Position of the short account key among the label cell's raw text
	// nodes. The cell opens with a whitespace node, then the caisse name.
	ExportKeyIndex = 2

	FieldExportPeriod   = "chPeriode"
	FieldExportFormat   = "chFormat"
	FieldExportMsgID    = "msgId"
	FieldExportValidate = "Valider"

	ExportPeriodCustom = "PI"
	ExportFormatOFX    = "MOFX"
	ExportMsgStart     = "debuter"
	ExportMsgValidate  = "valider"
	ExportValidate     = " Valider "
	CheckboxOn         = "on"
)

// Export date bounds, zero padded
const (
	FieldExportStartDay   = "chDateJourMin"
	FieldExportStartMonth = "chDateMoisMin"
	FieldExportStartYear  = "chDateAnneeMin"
	FieldExportEndDay     = "chDateJourMax"
	FieldExportEndMonth   = "chDateMoisMax"
	FieldExportEndYear    = "chDateAnneeMax"
)

// VISA card services (accesd -> visa)
const (
	PathCardInfo    = "/cooperADOperations/ObtenirInfoCartes.do"
	PathVisaLogon   = "/GCE/SALogonAccesD"
	PathVisaAccount = "/GCE/SAInfoCpte"

	SelectorVisaStatementLink = "td a.me"
	SelectorVisaExportLink    = "a.mse"

	LabelVisaStatement = "Relevé de compte"
	LabelVisaExport    = "Conciliation / Téléchargement"
)

// VisaAccountQuery opens the current account status page.
var VisaAccountQuery = map[string]string{
	"MSGID":  "etatActuelCpte",
	"CLIENT": "HTML",
}

// VISA export form, date bounds are not padded
const (
	FieldVisaReload       = "recharge"
	FieldVisaPDFURL       = "urlPDF"
	FieldVisaOutput       = "optionTelechg"
	FieldVisaPeriod       = "dropPeriode"
	FieldVisaStartDay     = "jourDebut"
	FieldVisaStartMonth   = "moisDebut"
	FieldVisaStartYear    = "anneeDebut"
	FieldVisaEndDay       = "jourFin"
	FieldVisaEndMonth     = "moisFin"
	FieldVisaEndYear      = "anneeFin"
	FieldVisaFormatChoice = "choixFormat"
	FieldVisaFormat       = "formatTelechargement"

	VisaOutputHTML   = "HTML"
	VisaPeriod12     = "-12"
	VisaFormatChoice = "2"
	VisaFormatOFX    = "OFX"
)
