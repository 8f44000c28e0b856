package links

import (
	"net/url"
	"strings"
)

// LinkType classifies how a link was found in a document
type LinkType string

const (
	// TypeAnnotation is a clickable /Link annotation found by walking page /Annots
	TypeAnnotation LinkType = "annotation"
	// TypeTextURL is a URL-shaped substring of the page text
	TypeTextURL LinkType = "text_url"
	// TypeHyperlink is a link from the backend's own hyperlink index
	TypeHyperlink LinkType = "hyperlink"
	// TypeEmail is an email address, normalised to a mailto: URL
	TypeEmail LinkType = "email"
)

// Types lists every link type in report order
var Types = []LinkType{TypeAnnotation, TypeHyperlink, TypeTextURL, TypeEmail}

// Link is a single discovered reference. URL is never empty.
type Link struct {
	Type   LinkType `json:"type" yaml:"type"`
	URL    string   `json:"url" yaml:"url"`
	Page   int      `json:"page" yaml:"page"`
	Source string   `json:"source" yaml:"source"`
}

type linkKey struct {
	url  string
	page int
}

func (l Link) key() linkKey {
	return linkKey{url: l.URL, page: l.Page}
}

// IsHTTP reports whether the link points to an http or https resource
func (l Link) IsHTTP() bool {
	return strings.HasPrefix(l.URL, "http://") || strings.HasPrefix(l.URL, "https://")
}

// Summary counts links per type
type Summary struct {
	Annotations int `json:"annotations" yaml:"annotations"`
	Hyperlinks  int `json:"hyperlinks" yaml:"hyperlinks"`
	TextURLs    int `json:"text_urls" yaml:"text_urls"`
	Emails      int `json:"emails" yaml:"emails"`
}

// Report is the deduplicated result of ExtractAll
type Report struct {
	TotalLinks int                 `json:"total_links" yaml:"total_links"`
	Links      []Link              `json:"links" yaml:"links"`
	ByType     map[LinkType][]Link `json:"links_by_type" yaml:"links_by_type"`
	Summary    Summary             `json:"summary" yaml:"summary"`
}

// HTTPURLs returns the distinct http(s) URLs of the report in order of first
// appearance
func (r *Report) HTTPURLs() []string {
	seen := make(map[string]bool)
	var urls []string
	for _, l := range r.Links {
		if !l.IsHTTP() || seen[l.URL] {
			continue
		}
		seen[l.URL] = true
		urls = append(urls, l.URL)
	}
	return urls
}

// IsValidURL reports whether raw parses as an absolute http(s) URL with a host
func IsValidURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// newReport deduplicates links on (URL, page), first occurrence wins, and
// drops URL-typed links that fail IsValidURL. Emails bypass validation.
func newReport(all []Link) *Report {
	seen := make(map[linkKey]bool, len(all))
	unique := make([]Link, 0, len(all))

	for _, l := range all {
		if l.URL == "" || seen[l.key()] {
			continue
		}
		if l.Type != TypeEmail && !IsValidURL(l.URL) {
			continue
		}
		seen[l.key()] = true
		unique = append(unique, l)
	}

	report := &Report{
		TotalLinks: len(unique),
		Links:      unique,
		ByType:     make(map[LinkType][]Link),
	}
	for _, l := range unique {
		report.ByType[l.Type] = append(report.ByType[l.Type], l)
	}
	report.Summary = Summary{
		Annotations: len(report.ByType[TypeAnnotation]),
		Hyperlinks:  len(report.ByType[TypeHyperlink]),
		TextURLs:    len(report.ByType[TypeTextURL]),
		Emails:      len(report.ByType[TypeEmail]),
	}
	return report
}
