// Package links discovers every link in a PDF: clickable annotations, URLs
// and email addresses in the page text, and the backend's hyperlink index.
//
// Two backends are run over the same bytes and their results unioned before
// deduplication, since neither surfaces both annotations and in-text URLs
// reliably for every producer.
package links

import (
	"fmt"
	"io"
	"log"
	"regexp"
	"strings"

	"github.com/a3tai/bizharvest/internal/pdf/wrapper"
)

var (
	urlPattern   = regexp.MustCompile(`https?://(?:[a-zA-Z0-9$-_@.&+!*(),]|%[0-9a-fA-F]{2})+`)
	emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
)

// trailingPunct is stripped from URLs matched in running text
const trailingPunct = `.,;:)]}>'"`

// strategy is one backend's pass over a document
type strategy struct {
	lib wrapper.PDFLibrary
	// structural links are reported as this type
	structType LinkType
	// structural links come before text matches on each page
	structFirst bool
}

func (s strategy) source(kind string) string {
	return string(s.lib.GetLibraryType()) + "_" + kind
}

// Extractor runs every strategy over a document and merges the results
type Extractor struct {
	strategies []strategy
	logger     *log.Logger
}

// NewExtractor creates an extractor. Strategy A uses the ledongthuc backend
// (annotations, then text); strategy B uses pdfcpu (text, then its hyperlink
// index). A nil logger discards output.
func NewExtractor(logger *log.Logger) *Extractor {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Extractor{
		strategies: []strategy{
			{lib: wrapper.NewLedongthucLibrary(), structType: TypeAnnotation, structFirst: true},
			{lib: wrapper.NewPDFCPULibrary(), structType: TypeHyperlink},
		},
		logger: logger,
	}
}

// ExtractAll returns the deduplicated links of data. It never fails: a backend
// that cannot read the document contributes no links.
func (e *Extractor) ExtractAll(data []byte) *Report {
	var all []Link
	for _, s := range e.strategies {
		all = append(all, e.collect(s, data)...)
	}
	return newReport(all)
}

func (e *Extractor) collect(s strategy, data []byte) (found []Link) {
	lib := s.lib.GetLibraryType()
	defer func() {
		if r := recover(); r != nil {
			e.logger.Printf("Error with %s link extraction: %v", lib, r)
		}
	}()

	doc, err := s.lib.Open(data)
	if err != nil {
		e.logger.Printf("Error with %s link extraction: %v", lib, err)
		return nil
	}
	defer doc.Close()

	for pageNum := 1; pageNum <= doc.GetPageCount(); pageNum++ {
		structural := e.structuralLinks(s, doc, pageNum)
		textual := e.textLinks(s, doc, pageNum)
		if s.structFirst {
			found = append(found, structural...)
			found = append(found, textual...)
		} else {
			found = append(found, textual...)
			found = append(found, structural...)
		}
	}
	return found
}

func (e *Extractor) structuralLinks(s strategy, doc wrapper.PDFDocument, pageNum int) []Link {
	annots, err := doc.ExtractLinks(pageNum)
	if err != nil {
		e.logger.Printf("Error extracting links from page %d: %v", pageNum, err)
		return nil
	}

	found := make([]Link, 0, len(annots))
	for _, a := range annots {
		found = append(found, Link{
			Type:   s.structType,
			URL:    strings.TrimSpace(a.URI),
			Page:   pageNum,
			Source: s.source(string(s.structType)),
		})
	}
	return found
}

func (e *Extractor) textLinks(s strategy, doc wrapper.PDFDocument, pageNum int) []Link {
	text, err := doc.ExtractText(pageNum)
	if err != nil {
		e.logger.Printf("Error extracting text from page %d: %v", pageNum, err)
		return nil
	}
	return ScanText(text, pageNum, s.source("text"))
}

// ScanText finds URL- and email-shaped substrings of text. URLs come first,
// each group in order of appearance.
func ScanText(text string, page int, source string) []Link {
	var found []Link
	for _, m := range urlPattern.FindAllString(text, -1) {
		u := strings.TrimRight(m, trailingPunct)
		if u == "" {
			continue
		}
		found = append(found, Link{Type: TypeTextURL, URL: u, Page: page, Source: source})
	}
	for _, m := range emailPattern.FindAllString(text, -1) {
		found = append(found, Link{Type: TypeEmail, URL: fmt.Sprintf("mailto:%s", m), Page: page, Source: source})
	}
	return found
}
