// Package analysis aggregates statistics over the text of an extracted
// document and attaches a registry record when one is detected.
package analysis

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/a3tai/bizharvest/internal/pdf"
	"github.com/a3tai/bizharvest/internal/registry"
)

const (
	// MaxAmounts caps the number of distinct amount-shaped values reported
	MaxAmounts = 20
	// SampleLength is the number of characters kept in Content.SampleText
	SampleLength = 500
)

// These scans are coarse and independent of the registry field patterns.
var (
	emailPattern  = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,}\b`)
	phonePattern  = regexp.MustCompile(`\+?[\d\s\-\(\)]{10,}`)
	datePattern   = regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b|\b\d{4}[/-]\d{1,2}[/-]\d{1,2}\b`)
	amountPattern = regexp.MustCompile(`\b\d{1,3}(?:,\d{3})*(?:\.\d{2})?\b`)
)

// Summary holds document level counts
type Summary struct {
	TotalPages      int  `json:"total_pages" yaml:"total_pages"`
	TotalCharacters int  `json:"total_characters" yaml:"total_characters"`
	HasText         bool `json:"has_text" yaml:"has_text"`
}

// Content holds the results of the text scans. Every list is deduplicated in
// first-seen order.
type Content struct {
	WordCount  int      `json:"word_count" yaml:"word_count"`
	Emails     []string `json:"emails_found" yaml:"emails_found"`
	Phones     []string `json:"phone_numbers" yaml:"phone_numbers"`
	Dates      []string `json:"dates_found" yaml:"dates_found"`
	Amounts    []string `json:"numerical_values" yaml:"numerical_values"`
	SampleText string   `json:"sample_text,omitempty" yaml:"sample_text,omitempty"`
}

// Report is the analysis of one document
type Report struct {
	Summary  Summary               `json:"summary" yaml:"summary"`
	Metadata *pdf.DocumentMetadata `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	Pages    []pdf.PageText        `json:"pages" yaml:"pages"`
	Content  Content               `json:"content_analysis" yaml:"content_analysis"`
	Registry *registry.Record      `json:"business_registry,omitempty" yaml:"business_registry,omitempty"`
}

// IsRegistryDocument reports whether a registry record was attached
func (r *Report) IsRegistryDocument() bool {
	return r != nil && r.Registry != nil && r.Registry.IsRegistryDocument
}

// Analyze builds a Report from extracted text. A nil result yields an empty
// report.
func Analyze(result *pdf.TextResult) *Report {
	report := &Report{}
	if result == nil {
		return report
	}

	report.Pages = result.Pages
	report.Metadata = result.Metadata
	report.Summary = Summary{
		TotalPages:      result.TotalPages,
		TotalCharacters: result.TotalTextLength,
		HasText:         result.TotalTextLength > 0,
	}

	texts := make([]string, 0, len(result.Pages))
	for _, p := range result.Pages {
		texts = append(texts, p.Text)
	}
	text := strings.Join(texts, " ")
	if strings.TrimSpace(text) == "" {
		return report
	}

	report.Content = scan(text)

	if record := registry.Parse(text); record.IsRegistryDocument {
		report.Registry = &record
	}

	return report
}

func scan(text string) Content {
	var phones []string
	for _, m := range phonePattern.FindAllString(text, -1) {
		if p := strings.TrimSpace(m); len(p) >= 10 {
			phones = append(phones, p)
		}
	}

	amounts := distinct(amountPattern.FindAllString(text, -1))
	if len(amounts) > MaxAmounts {
		amounts = amounts[:MaxAmounts]
	}

	return Content{
		WordCount:  len(strings.Fields(text)),
		Emails:     distinct(emailPattern.FindAllString(text, -1)),
		Phones:     distinct(phones),
		Dates:      distinct(datePattern.FindAllString(text, -1)),
		Amounts:    amounts,
		SampleText: sample(text),
	}
}

func distinct(values []string) []string {
	out := []string{}
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func sample(text string) string {
	if utf8.RuneCountInString(text) <= SampleLength {
		return text
	}
	runes := []rune(text)
	return string(runes[:SampleLength]) + "..."
}
