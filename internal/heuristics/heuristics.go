// Package heuristics estimates whether fetching a URL is likely to yield a
// PDF. Classification is advisory; the fetcher decides by inspecting content.
package heuristics

import (
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

var (
	// queryKeywords suggest a document download when found in the query string
	queryKeywords = []string{
		"pdf", "download", "bulletin", "extract", "document", "report",
		"generate", "attachment", "file", "export", "print", "doc",
	}

	// generatorPatterns are path fragments of known document generation endpoints
	generatorPatterns = []string{
		"generatebulletin", "bulletinextract", "generatedocument",
		"downloadreport", "exportpdf", "printreport", "getdocument",
	}

	// officialURLMarkers identify government and registry sites anywhere in the URL
	officialURLMarkers = []string{
		".gov.", ".org.", "official", "ministry", "department",
		"qkb.gov.al", "umbraco/surface",
	}

	// officialQueryKeywords make an official URL a strict match
	officialQueryKeywords = []string{"code", "id", "simple", "subject"}

	// skipDomains never serve the documents we are after
	skipDomains = []string{
		"facebook.com", "twitter.com", "linkedin.com", "instagram.com",
		"youtube.com", "google.com", "wikipedia.org", "amazon.com",
	}

	// documentIndicators are the liberal check's URL keywords
	documentIndicators = []string{
		".pdf", "pdf", "download", "document", "report", "bulletin",
		"extract", "generate", "export", "attachment", "file",
	}

	// officialHostMarkers identify official hosts for the liberal check
	officialHostMarkers = []string{".gov", ".org", "official", "ministry"}

	// identifierParams mark dynamically generated content
	identifierParams = []string{"id=", "code=", "subject=", "type="}
)

// Classification is the heuristic verdict for a URL
type Classification struct {
	URL      string `json:"url" yaml:"url"`
	Strict   bool   `json:"strict" yaml:"strict"`
	Liberal  bool   `json:"liberal" yaml:"liberal"`
	Official bool   `json:"official" yaml:"official"`
	Skipped  bool   `json:"skipped_domain" yaml:"skipped_domain"`
	Score    int    `json:"score" yaml:"score"`
}

// Classify runs both checks over rawURL. Score is 2 for a strict match, 1 for
// a liberal-only match and 0 otherwise.
func Classify(rawURL string) Classification {
	c := Classification{
		URL:     rawURL,
		Strict:  IsLikelyPDF(rawURL),
		Liberal: ShouldFetch(rawURL),
	}
	if u, err := url.Parse(rawURL); err == nil {
		c.Official = IsOfficialDomain(u.Hostname())
		c.Skipped = IsSkippedDomain(u.Hostname())
	}
	switch {
	case c.Strict:
		c.Score = 2
	case c.Liberal:
		c.Score = 1
	}
	return c
}

// IsLikelyPDF is the strict check: a .pdf path, a download-ish query keyword,
// a known generator endpoint, or an official site queried by identifier.
func IsLikelyPDF(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	path := strings.ToLower(u.Path)
	query := strings.ToLower(u.RawQuery)
	lower := strings.ToLower(rawURL)

	if strings.HasSuffix(path, ".pdf") {
		return true
	}
	if containsAny(query, queryKeywords) {
		return true
	}
	if containsAny(lower, generatorPatterns) {
		return true
	}
	return containsAny(lower, officialURLMarkers) && containsAny(query, officialQueryKeywords)
}

// ShouldFetch is the liberal check applied when every discovered link is
// fetched. Non-http(s) URLs and denylisted domains are always rejected.
func ShouldFetch(rawURL string) bool {
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if IsSkippedDomain(host) {
		return false
	}

	if containsAny(strings.ToLower(rawURL), documentIndicators) {
		return true
	}
	if IsOfficialDomain(host) {
		return true
	}
	query := strings.ToLower(u.RawQuery)
	return query != "" && containsAny(query, identifierParams)
}

// IsOfficialDomain reports whether host looks like a government or official site
func IsOfficialDomain(host string) bool {
	return containsAny(strings.ToLower(host), officialHostMarkers)
}

// IsSkippedDomain reports whether host belongs to a denylisted site. Matching
// is done on the registrable domain so subdomains are covered.
func IsSkippedDomain(host string) bool {
	domain := RegistrableDomain(host)
	for _, skip := range skipDomains {
		if domain == skip {
			return true
		}
	}
	return false
}

// RegistrableDomain returns the eTLD+1 of host, or the lowercased host when
// it has none (IP addresses, single labels)
func RegistrableDomain(host string) string {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	if net.ParseIP(host) != nil {
		return host
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return domain
}

// MatchesDomain reports whether host is domain or one of its subdomains
func MatchesDomain(host, domain string) bool {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	domain = strings.ToLower(domain)
	return host == domain || strings.HasSuffix(host, "."+domain)
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
