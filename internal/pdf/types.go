package pdf

import (
	"fmt"
	"strings"

	"github.com/a3tai/bizharvest/internal/pdf/wrapper"
)

// DocumentMetadata represents the document information dictionary
type DocumentMetadata = wrapper.Metadata

// PageText is the text of a single page. Error is set only when this page
// failed; siblings are unaffected.
type PageText struct {
	PageNumber int    `json:"page_number" yaml:"page_number"`
	Text       string `json:"text" yaml:"text"`
	TextLength int    `json:"text_length" yaml:"text_length"`
	Error      string `json:"error,omitempty" yaml:"error,omitempty"`
}

// TextResult is the output of TextExtractor.Extract
type TextResult struct {
	Pages           []PageText          `json:"pages" yaml:"pages"`
	Metadata        *DocumentMetadata   `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	TotalPages      int                 `json:"total_pages" yaml:"total_pages"`
	TotalTextLength int                 `json:"total_text_length" yaml:"total_text_length"`
	Backend         wrapper.LibraryType `json:"backend" yaml:"backend"`
}

// FullText joins the text of all pages with newlines
func (r *TextResult) FullText() string {
	if r == nil {
		return ""
	}
	parts := make([]string, 0, len(r.Pages))
	for _, p := range r.Pages {
		if p.Text != "" {
			parts = append(parts, p.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// FailedPages returns the page numbers whose extraction failed
func (r *TextResult) FailedPages() []int {
	var failed []int
	for _, p := range r.Pages {
		if p.Error != "" {
			failed = append(failed, p.PageNumber)
		}
	}
	return failed
}

// DocumentParseError is returned when neither backend could open a document
type DocumentParseError struct {
	Primary  error
	Fallback error
}

func (e *DocumentParseError) Error() string {
	if e.Fallback == nil {
		return fmt.Sprintf("document could not be parsed: %v", e.Primary)
	}
	return fmt.Sprintf("document could not be parsed: primary: %v; fallback: %v", e.Primary, e.Fallback)
}

// Unwrap exposes both backend errors to errors.Is and errors.As
func (e *DocumentParseError) Unwrap() []error {
	var errs []error
	if e.Primary != nil {
		errs = append(errs, e.Primary)
	}
	if e.Fallback != nil {
		errs = append(errs, e.Fallback)
	}
	return errs
}

// FileInfo describes a PDF file found in the document directory
type FileInfo struct {
	Path    string `json:"path" yaml:"path"`
	Name    string `json:"name" yaml:"name"`
	Size    int64  `json:"size" yaml:"size"`
	ModTime string `json:"mod_time" yaml:"mod_time"`
}
