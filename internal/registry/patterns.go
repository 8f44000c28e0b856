package registry

import "regexp"

// Field names of a registry record. The set is closed.
const (
	FieldNUIS             = "nuis"
	FieldBusinessName     = "business_name"
	FieldLegalForm        = "legal_form"
	FieldRegistrationDate = "registration_date"
	FieldActivityField    = "activity_field"
	FieldBusinessAddress  = "business_address"
	FieldEmail            = "email"
	FieldPhone            = "phone"
	FieldStatus           = "status"
	FieldDateGenerated    = "date_generated"
)

// fields lists the schema in output order
var fields = []string{
	FieldNUIS,
	FieldBusinessName,
	FieldLegalForm,
	FieldRegistrationDate,
	FieldActivityField,
	FieldBusinessAddress,
	FieldEmail,
	FieldPhone,
	FieldStatus,
	FieldDateGenerated,
}

// indicators are label phrases of a QKB registry extract, matched literally
// and case-sensitively
var indicators = []string{
	"EKSTRAKT I REGJISTRIT TREGTAR",
	`SUBJEKTIT "PERSON FIZIK"`,
	"GJENDJA E REGJISTRIMIT",
	"Numri unik i identifikimit të subjektit",
	"NUIS",
	"Emri i subjektit",
	"Forma ligjore",
	"Data e regjistrimit",
	"Fusha e veprimtarisë",
	"Vendi i ushtrimit të aktivitetit",
	"Statusi",
}

// Label is the presentation name of a field in Albanian and English
type Label struct {
	SQ string `json:"sq" yaml:"sq"`
	EN string `json:"en" yaml:"en"`
}

var labels = map[string]Label{
	FieldNUIS:             {SQ: "NUIS", EN: "Unique Business Identification Number"},
	FieldBusinessName:     {SQ: "Emri i subjektit", EN: "Business Name"},
	FieldLegalForm:        {SQ: "Forma ligjore", EN: "Legal Form"},
	FieldRegistrationDate: {SQ: "Data e regjistrimit", EN: "Registration Date"},
	FieldActivityField:    {SQ: "Fusha e veprimtarisë", EN: "Field of Activity"},
	FieldBusinessAddress:  {SQ: "Vendi i ushtrimit të aktivitetit", EN: "Business Address"},
	FieldEmail:            {SQ: "E-Mail", EN: "Email"},
	FieldPhone:            {SQ: "Telefon", EN: "Phone"},
	FieldStatus:           {SQ: "Statusi", EN: "Status"},
	FieldDateGenerated:    {SQ: "Datë", EN: "Document Date"},
}

// FieldPattern is one alternative for extracting a field. Group 1 of Regex
// holds the value.
type FieldPattern struct {
	Field string
	Name  string
	Regex *regexp.Regexp
}

// flags: case-insensitive, ^/$ per line, . matches newline
const flags = `(?ims)`

func pattern(field, name, expr string) FieldPattern {
	return FieldPattern{Field: field, Name: name, Regex: regexp.MustCompile(flags + expr)}
}

const (
	phoneIntl  = `(\+?355\s*[0-9]{8,9})(?:\s|$|[^\d])`
	phoneLocal = `(0[0-9]{8,9})(?:\s|$|[^\d])`
	phonePlus  = `(\+355[0-9]{8,9})(?:\s|$|[^\d])`
	emailAddr  = `([a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,})`
	address    = `([^0-9]*\d[^0-9]*\d+[^\n]*)`
	dateDMY    = `(\d{2}/\d{2}/\d{4})`
)

// fieldPatterns is ordered: within a field, the most specific alternative
// comes first and the first match wins. Terminators after a lazy capture are
// consumed by a non-capturing group since RE2 has no lookahead; only group 1
// is read.
var fieldPatterns = []FieldPattern{
	pattern(FieldNUIS, "full label", `Numri unik i identifikimit të subjektit\s*\(NUIS\)\s*([A-Z0-9]+)`),
	pattern(FieldNUIS, "label", `NUIS[:\s]*([A-Z0-9]+)`),
	pattern(FieldNUIS, "parenthesised", `\(NUIS\)\s*([A-Z0-9]+)`),

	pattern(FieldBusinessName, "uppercase name", `Emri i subjektit\s+([A-ZËÇÄÖÜ\s]+?)(?:\s*\d|\s*Person|\s*Forma)`),
	pattern(FieldBusinessName, "quoted", `subjektit\s+"([^"]+)"`),
	pattern(FieldBusinessName, "to line end", `Emri i subjektit\s+(.+?)(?:\s*\d|\s*Person|\s*Forma|\n)`),

	pattern(FieldLegalForm, "bounded", `Forma ligjore\s+([A-Za-zë\s]+?)(?:\s*\d|\n)`),
	pattern(FieldLegalForm, "open", `Forma ligjore[:\s]*([A-Za-zë\s]+)`),

	pattern(FieldRegistrationDate, "label", `Data e regjistrimit\s+`+dateDMY),
	pattern(FieldRegistrationDate, "short label", `regjistrimit[:\s]*`+dateDMY),

	pattern(FieldActivityField, "label", `Fusha e veprimtarisë\s+([^\.]+\.?)`),
	pattern(FieldActivityField, "short label", `veprimtarisë[:\s]*([^\.]+\.?)`),

	pattern(FieldBusinessAddress, "label", `Vendi i ushtrimit të aktivitetit\s+`+address),
	pattern(FieldBusinessAddress, "short label", `aktivitetit[:\s]*`+address),

	pattern(FieldEmail, "label", `E-Mail:\s*`+emailAddr),
	pattern(FieldEmail, "loose label", `email[:\s]*`+emailAddr),

	pattern(FieldPhone, "telefon international", `Telefon:\s*`+phoneIntl),
	pattern(FieldPhone, "telefon loose international", `telefon[:\s]*`+phoneIntl),
	pattern(FieldPhone, "tel international", `Tel[:\s]*`+phoneIntl),
	pattern(FieldPhone, "telefon local", `Telefon:\s*`+phoneLocal),
	pattern(FieldPhone, "telefon loose local", `telefon[:\s]*`+phoneLocal),
	pattern(FieldPhone, "tel local", `Tel[:\s]*`+phoneLocal),
	pattern(FieldPhone, "telefon plus", `Telefon:\s*`+phonePlus),
	pattern(FieldPhone, "telefon loose plus", `telefon[:\s]*`+phonePlus),
	pattern(FieldPhone, "tel plus", `Tel[:\s]*`+phonePlus),

	pattern(FieldStatus, "label", `Statusi\s+([A-Za-zë]+)`),
	// The class reads as a typo for A-Za-z; it is kept as the weak alternative.
	pattern(FieldStatus, "weak label", `Status[:\s]*([A-Zazanë]+)`),

	pattern(FieldDateGenerated, "document date", `Datë:\s*`+dateDMY),
	pattern(FieldDateGenerated, "any date label", `Data[:\s]*`+dateDMY),
}

// Indicators returns the detection phrases
func Indicators() []string {
	return append([]string(nil), indicators...)
}

// Fields returns the record schema in output order
func Fields() []string {
	return append([]string(nil), fields...)
}

// Labels returns the bilingual label of every field
func Labels() map[string]Label {
	out := make(map[string]Label, len(labels))
	for k, v := range labels {
		out[k] = v
	}
	return out
}

// Patterns returns the ordered alternatives for field
func Patterns(field string) []FieldPattern {
	var out []FieldPattern
	for _, p := range fieldPatterns {
		if p.Field == field {
			out = append(out, p)
		}
	}
	return out
}
