package desjardins

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/grez-lucas/accesd-scraper/internal/scraper/bank"
	"github.com/grez-lucas/accesd-scraper/internal/scraper/htmlform"
)

// Each POST of the sequence is built from the hidden fields of the previous
// page plus a few known keys. The structs below name those keys so a
// missing value is caught before the request leaves.

var errMissingField = errors.New("missing form value")

func requireValue(name, value string) error {
	if value == "" {
		return fmt.Errorf("%w: %s", errMissingField, name)
	}
	return nil
}

func query(m map[string]string) url.Values {
	v := make(url.Values, len(m))
	for k, val := range m {
		v.Set(k, val)
	}
	return v
}

type identificationForm struct {
	Hidden     htmlform.Fields
	UserCode   string
	ClientInfo string
}

func (f identificationForm) Values() (url.Values, error) {
	if err := requireValue(FieldUserCode, f.UserCode); err != nil {
		return nil, err
	}
	v := f.Hidden.Clone()
	v[FieldUserCode] = f.UserCode
	v[FieldClientInfo] = f.ClientInfo
	return v.Values(), nil
}

type challengeForm struct {
	Hidden htmlform.Fields
	Answer string
}

func (f challengeForm) Values() (url.Values, error) {
	if err := requireValue(FieldChallengeAnswer, f.Answer); err != nil {
		return nil, err
	}
	v := f.Hidden.Clone()
	v[FieldChallengeAnswer] = f.Answer
	// Never register this client as a trusted device
	v[FieldChallengeRemember] = "false"
	return v.Values(), nil
}

type credentialsForm struct {
	Hidden   htmlform.Fields
	UserCode string
	Password string
}

func (f credentialsForm) Values() (url.Values, error) {
	if err := requireValue(FieldUserCode, f.UserCode); err != nil {
		return nil, err
	}
	if err := requireValue(FieldPassword, f.Password); err != nil {
		return nil, err
	}
	v := f.Hidden.Clone()
	v[FieldUserCode] = f.UserCode
	v[FieldPassword] = f.Password
	return v.Values(), nil
}

type exportForm struct {
	Hidden   htmlform.Fields
	Checkbox string
	Period   bank.DateRange
}

func (f exportForm) Values() (url.Values, error) {
	if err := requireValue("account checkbox", f.Checkbox); err != nil {
		return nil, err
	}
	if f.Period.IsZero() {
		return nil, fmt.Errorf("%w: period", errMissingField)
	}
	pad := func(n int) string { return fmt.Sprintf("%02d", n) }

	v := f.Hidden.Clone()
	v[f.Checkbox] = CheckboxOn
	v[FieldExportPeriod] = ExportPeriodCustom
	v[FieldExportStartDay] = pad(f.Period.Start.Day())
	v[FieldExportStartMonth] = pad(int(f.Period.Start.Month()))
	v[FieldExportStartYear] = pad(f.Period.Start.Year())
	v[FieldExportEndDay] = pad(f.Period.End.Day())
	v[FieldExportEndMonth] = pad(int(f.Period.End.Month()))
	v[FieldExportEndYear] = pad(f.Period.End.Year())
	v[FieldExportMsgID] = ExportMsgValidate
	v[FieldExportFormat] = ExportFormatOFX
	v[FieldExportValidate] = ExportValidate
	return v.Values(), nil
}

type visaExportForm struct {
	Hidden htmlform.Fields
	Period bank.DateRange
}

func (f visaExportForm) Values() (url.Values, error) {
	if f.Period.IsZero() {
		return nil, fmt.Errorf("%w: period", errMissingField)
	}
	v := f.Hidden.Clone()
	v[FieldVisaReload] = "true"
	v[FieldVisaPDFURL] = ""
	v[FieldVisaOutput] = VisaOutputHTML
	v[FieldVisaPeriod] = VisaPeriod12
	v[FieldVisaStartDay] = strconv.Itoa(f.Period.Start.Day())
	v[FieldVisaStartMonth] = strconv.Itoa(int(f.Period.Start.Month()))
	v[FieldVisaStartYear] = strconv.Itoa(f.Period.Start.Year())
	v[FieldVisaEndDay] = strconv.Itoa(f.Period.End.Day())
	v[FieldVisaEndMonth] = strconv.Itoa(int(f.Period.End.Month()))
	v[FieldVisaEndYear] = strconv.Itoa(f.Period.End.Year())
	v[FieldVisaFormatChoice] = VisaFormatChoice
	v[FieldVisaFormat] = VisaFormatOFX
	return v.Values(), nil
}
