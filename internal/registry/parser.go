// Package registry recognises Albanian National Business Center (QKB)
// registry extracts and pulls a fixed set of business fields out of their
// text.
package registry

import (
	"regexp"
	"strings"
)

// DetectionThreshold is the number of indicator phrases a text must contain
// to be treated as a registry extract
const DetectionThreshold = 3

// Record is the outcome of Parse. Fields and Labels are populated only when
// IsRegistryDocument is true.
type Record struct {
	IsRegistryDocument bool              `json:"is_registry_document" yaml:"is_registry_document"`
	IndicatorsFound    int               `json:"indicators_found" yaml:"indicators_found"`
	Fields             map[string]string `json:"business_details,omitempty" yaml:"business_details,omitempty"`
	Labels             map[string]Label  `json:"field_labels,omitempty" yaml:"field_labels,omitempty"`
}

// Get returns the value of field, or "" when it was not extracted
func (r Record) Get(field string) string {
	return r.Fields[field]
}

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	nameStrayWord = regexp.MustCompile(`(?i)\s+(?:Person|Forma|Data|Fusha)`)
	phoneJunk     = regexp.MustCompile(`[^\d+\s]`)
)

// CountIndicators returns how many indicator phrases occur in text
func CountIndicators(text string) int {
	n := 0
	for _, indicator := range indicators {
		if strings.Contains(text, indicator) {
			n++
		}
	}
	return n
}

// IsRegistryDocument reports whether text reaches the detection threshold
func IsRegistryDocument(text string) bool {
	return CountIndicators(text) >= DetectionThreshold
}

// Parse detects a registry extract and, if found, extracts every field it can
func Parse(text string) Record {
	record := Record{IndicatorsFound: CountIndicators(text)}
	if record.IndicatorsFound < DetectionThreshold {
		return record
	}

	record.IsRegistryDocument = true
	record.Fields = make(map[string]string)
	record.Labels = Labels()

	for _, field := range fields {
		if value := extractField(text, field); value != "" {
			record.Fields[field] = value
		}
	}

	if name, ok := record.Fields[FieldBusinessName]; ok {
		if cleaned := CleanBusinessName(name); cleaned != "" {
			record.Fields[FieldBusinessName] = cleaned
		}
	}

	return record
}

// extractField tries the alternatives for field in order and returns the
// first non-empty cleaned value
func extractField(text, field string) string {
	for _, p := range fieldPatterns {
		if p.Field != field {
			continue
		}
		m := p.Regex.FindStringSubmatch(text)
		if len(m) < 2 {
			continue
		}
		value := cleanValue(m[1])
		if field == FieldPhone {
			value = CleanPhone(value)
		}
		if value != "" {
			return value
		}
	}
	return ""
}

// cleanValue collapses whitespace and trims surrounding .,; punctuation
func cleanValue(s string) string {
	s = whitespaceRun.ReplaceAllString(strings.TrimSpace(s), " ")
	return strings.Trim(s, ".,;")
}

// CleanBusinessName removes label words a greedy pattern picked up
func CleanBusinessName(name string) string {
	return strings.TrimSpace(nameStrayWord.ReplaceAllString(name, ""))
}

// CleanPhone canonicalises an Albanian phone number to +355 followed by the
// subscriber number. Input that does not fit the expected shape is returned
// cleaned but otherwise unvalidated.
func CleanPhone(phone string) string {
	if phone == "" {
		return ""
	}

	cleaned := phoneJunk.ReplaceAllString(phone, "")
	cleaned = whitespaceRun.ReplaceAllString(cleaned, "")
	if cleaned == "" {
		return ""
	}

	switch {
	case strings.HasPrefix(cleaned, "355"):
		cleaned = "+" + cleaned
	case strings.HasPrefix(cleaned, "+355"):
	case strings.HasPrefix(cleaned, "0"):
		cleaned = "+355" + cleaned[1:]
	default:
		cleaned = "+355" + cleaned
	}

	return cleaned
}

// IsCanonicalPhone reports whether phone has the +355 plus nine digit shape
func IsCanonicalPhone(phone string) bool {
	if len(phone) != 13 || !strings.HasPrefix(phone, "+355") {
		return false
	}
	for _, c := range phone[1:] {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
