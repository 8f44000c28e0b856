package wrapper

import (
	"errors"
	"fmt"
)

// PDFLibrary defines the unified interface for opening PDFs across different libraries
type PDFLibrary interface {
	// Open parses an in-memory PDF. A returned error means the whole document
	// is unreadable by this library.
	Open(data []byte) (PDFDocument, error)

	// Library identification
	GetLibraryType() LibraryType
	GetCapabilities() LibraryCapabilities
}

// PDFDocument represents an opened PDF document with unified operations
type PDFDocument interface {
	GetPageCount() int
	GetMetadata() (*Metadata, error)

	// Per-page operations. Errors are scoped to the requested page.
	ExtractText(pageNum int) (string, error)
	ExtractLinks(pageNum int) ([]LinkAnnotation, error)

	Close() error
}

// LibraryType represents the underlying PDF library being used
type LibraryType string

const (
	LibraryPDFCPU     LibraryType = "pdfcpu"
	LibraryLedongthuc LibraryType = "ledongthuc"
)

// LibraryCapabilities describes what a library can surface
type LibraryCapabilities struct {
	TextExtraction  bool `json:"text_extraction"`
	Metadata        bool `json:"metadata"`
	LinkAnnotations bool `json:"link_annotations"`
}

// Metadata contains PDF document information dictionary entries
type Metadata struct {
	Title            string `json:"title,omitempty" yaml:"title,omitempty"`
	Author           string `json:"author,omitempty" yaml:"author,omitempty"`
	Subject          string `json:"subject,omitempty" yaml:"subject,omitempty"`
	Creator          string `json:"creator,omitempty" yaml:"creator,omitempty"`
	Producer         string `json:"producer,omitempty" yaml:"producer,omitempty"`
	CreationDate     string `json:"creation_date,omitempty" yaml:"creation_date,omitempty"`
	ModificationDate string `json:"modification_date,omitempty" yaml:"modification_date,omitempty"`
}

// IsEmpty reports whether no information entry was found
func (m *Metadata) IsEmpty() bool {
	return m == nil || *m == Metadata{}
}

// LinkAnnotation is a clickable /Link annotation carrying a URI action
type LinkAnnotation struct {
	URI  string `json:"uri"`
	Page int    `json:"page"`
}

// WrapperError is returned by library operations
type WrapperError struct {
	Library LibraryType `json:"library"`
	Op      string      `json:"operation"`
	Page    int         `json:"page,omitempty"`
	Err     error       `json:"error"`
}

func (e *WrapperError) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("PDF %s library error in %s (page %d): %v", e.Library, e.Op, e.Page, e.Err)
	}
	return fmt.Sprintf("PDF %s library error in %s: %v", e.Library, e.Op, e.Err)
}

func (e *WrapperError) Unwrap() error {
	return e.Err
}

// Common error variables
var (
	ErrUnsupportedLibrary = errors.New("unsupported library type")
	ErrDocumentClosed     = errors.New("document is closed")
	ErrInvalidPage        = errors.New("invalid page number")
	ErrNoMetadata         = errors.New("metadata not available")
	ErrNotPDF             = errors.New("data is not a PDF document")
)

// recoverAsError converts a panic raised inside a third-party parser into err.
// Both libraries panic on some malformed inputs instead of returning errors.
func recoverAsError(lib LibraryType, op string, page int, err *error) {
	if r := recover(); r != nil {
		*err = &WrapperError{Library: lib, Op: op, Page: page, Err: fmt.Errorf("parser panic: %v", r)}
	}
}
