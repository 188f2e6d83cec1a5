// Package match implements the field-level fuzzy-matching machinery shared by
// every verification source: value normalization, per-field-type similarity
// scoring, and the match thresholds applied on top of the scores.
//
// Everything in this package is pure: no I/O, no clock, no randomness.
// Identical inputs always produce identical output.
package match

import (
	"strings"
	"time"
)

// FieldType selects the normalization and similarity algorithm for a field.
type FieldType string

const (
	FieldName    FieldType = "name"
	FieldDate    FieldType = "date_of_birth"
	FieldGender  FieldType = "gender"
	FieldPhone   FieldType = "phone"
	FieldIDNum   FieldType = "id_number"
	FieldLicense FieldType = "license_number"
	FieldEmail   FieldType = "email"
	FieldGeneric FieldType = "generic"
)

// PhonePlan describes the national dialing plan used to canonicalize phone
// numbers. An 11-digit number starting with the trunk prefix is rewritten to
// country-code form. Deployment-specific; the default suits Nigeria.
type PhonePlan struct {
	CountryCode string
	TrunkPrefix string
}

// DefaultPhonePlan returns the Nigerian dialing plan.
func DefaultPhonePlan() PhonePlan {
	return PhonePlan{CountryCode: "234", TrunkPrefix: "0"}
}

// dobLayouts is the ordered list of accepted date-of-birth formats.
// ISO first, then day-first, month-first, and dashed day-first.
var dobLayouts = []string{"2006-01-02", "02/01/2006", "01/02/2006", "02-01-2006"}

// honorifics and suffixes stripped from name fields before comparison.
var nameAffixes = map[string]struct{}{
	"mr": {}, "mrs": {}, "ms": {}, "miss": {}, "dr": {}, "prof": {},
	"engr": {}, "chief": {}, "alhaji": {}, "alhaja": {}, "rev": {}, "pastor": {},
	"jr": {}, "snr": {}, "sr": {}, "ii": {}, "iii": {}, "iv": {}, "esq": {},
}

// Normalizer canonicalizes raw field values into comparable form.
// It never fails: unparseable input degrades to trimmed passthrough so
// downstream similarity still runs.
type Normalizer struct {
	plan PhonePlan
}

// NewNormalizer builds a Normalizer for the given phone plan.
func NewNormalizer(plan PhonePlan) *Normalizer {
	if plan.CountryCode == "" {
		plan = DefaultPhonePlan()
	}
	return &Normalizer{plan: plan}
}

// Normalize canonicalizes value according to the field type.
func (n *Normalizer) Normalize(value string, ft FieldType) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	switch ft {
	case FieldName:
		return normalizeName(value)
	case FieldDate:
		return n.normalizeDate(value)
	case FieldGender:
		return normalizeGender(value)
	case FieldPhone:
		return n.NormalizePhone(value)
	case FieldIDNum:
		return digitsOnly(value)
	case FieldLicense:
		return strings.ToUpper(alphanumericOnly(value))
	case FieldEmail:
		return strings.ToLower(value)
	default:
		return strings.ToLower(value)
	}
}

func normalizeName(value string) string {
	value = strings.ToLower(value)
	tokens := strings.Fields(value)
	kept := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		tok = strings.Trim(tok, ".,")
		if tok == "" {
			continue
		}
		if _, affix := nameAffixes[tok]; affix {
			continue
		}
		kept = append(kept, tok)
	}
	if len(kept) == 0 {
		// Name was nothing but affixes; keep the collapsed original.
		return strings.Join(tokens, " ")
	}
	return strings.Join(kept, " ")
}

// normalizeDate parses against the accepted layouts and re-renders as ISO.
// On parse failure the trimmed original is returned unchanged.
func (n *Normalizer) normalizeDate(value string) string {
	if t, ok := parseDate(value); ok {
		return t.Format("2006-01-02")
	}
	return value
}

func parseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	for _, layout := range dobLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func normalizeGender(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "m", "male":
		return "male"
	case "f", "female":
		return "female"
	default:
		return strings.ToLower(strings.TrimSpace(value))
	}
}

// NormalizePhone strips non-digits and rewrites trunk-prefixed national
// numbers to country-code form.
func (n *Normalizer) NormalizePhone(value string) string {
	digits := digitsOnly(value)
	if len(digits) == 11 && strings.HasPrefix(digits, n.plan.TrunkPrefix) {
		return n.plan.CountryCode + digits[len(n.plan.TrunkPrefix):]
	}
	return digits
}

// stripCountryCode removes the plan's country code for last-10-digit
// comparison between two normalized phone numbers.
func (n *Normalizer) stripCountryCode(digits string) string {
	return strings.TrimPrefix(digits, n.plan.CountryCode)
}

func digitsOnly(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func alphanumericOnly(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		if (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
