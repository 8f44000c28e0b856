package pdf

import (
	"errors"
	"fmt"
	"io"
	"log"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/a3tai/bizharvest/internal/pdf/wrapper"
)

// TextExtractor pulls per-page text and metadata out of PDF bytes. The primary
// library is tried first; the fallback is used only when the primary cannot
// open the document at all.
type TextExtractor struct {
	primary  wrapper.PDFLibrary
	fallback wrapper.PDFLibrary
	logger   *log.Logger
}

// NewTextExtractor creates an extractor from the factory's primary and fallback
// libraries. A nil logger discards output.
func NewTextExtractor(factory *wrapper.PDFLibraryFactory, logger *log.Logger) (*TextExtractor, error) {
	if factory == nil {
		factory = wrapper.NewPDFLibraryFactory()
	}
	primary, err := factory.Primary()
	if err != nil {
		return nil, fmt.Errorf("failed to create primary library: %w", err)
	}
	fallback, err := factory.Fallback()
	if err != nil {
		return nil, fmt.Errorf("failed to create fallback library: %w", err)
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &TextExtractor{primary: primary, fallback: fallback, logger: logger}, nil
}

// Extract returns the text of every page of data. Per-page failures are
// recorded on the PageText; only a document neither library can open returns
// a *DocumentParseError.
func (e *TextExtractor) Extract(data []byte) (*TextResult, error) {
	result, primaryErr := e.extractWith(e.primary, data)
	if primaryErr == nil {
		return result, nil
	}
	e.logger.Printf("Primary %s extraction failed, falling back to %s: %v",
		e.primary.GetLibraryType(), e.fallback.GetLibraryType(), primaryErr)

	result, fallbackErr := e.extractWith(e.fallback, data)
	if fallbackErr == nil {
		return result, nil
	}
	e.logger.Printf("Fallback %s extraction failed: %v", e.fallback.GetLibraryType(), fallbackErr)

	return nil, &DocumentParseError{Primary: primaryErr, Fallback: fallbackErr}
}

func (e *TextExtractor) extractWith(lib wrapper.PDFLibrary, data []byte) (*TextResult, error) {
	doc, err := lib.Open(data)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	result := &TextResult{
		TotalPages: doc.GetPageCount(),
		Backend:    lib.GetLibraryType(),
	}

	if lib.GetCapabilities().Metadata {
		meta, err := doc.GetMetadata()
		switch {
		case err == nil && !meta.IsEmpty():
			result.Metadata = meta
		case err != nil && !errors.Is(err, wrapper.ErrNoMetadata):
			e.logger.Printf("Failed to read metadata: %v", err)
		}
	}

	for pageNum := 1; pageNum <= result.TotalPages; pageNum++ {
		text, err := doc.ExtractText(pageNum)
		if err != nil {
			e.logger.Printf("Error extracting text from page %d: %v", pageNum, err)
			result.Pages = append(result.Pages, PageText{PageNumber: pageNum, Error: err.Error()})
			continue
		}

		text = norm.NFC.String(text)
		length := utf8.RuneCountInString(text)
		result.Pages = append(result.Pages, PageText{
			PageNumber: pageNum,
			Text:       text,
			TextLength: length,
		})
		result.TotalTextLength += length
	}

	return result, nil
}
