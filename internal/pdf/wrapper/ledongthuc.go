package wrapper

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// LedongthucLibrary implements PDFLibrary using ledongthuc/pdf.
// It is the primary text backend: plain text per page, the trailer
// /Info dictionary and page-level /Annots.
type LedongthucLibrary struct{}

// NewLedongthucLibrary creates a new ledongthuc library wrapper
func NewLedongthucLibrary() *LedongthucLibrary {
	return &LedongthucLibrary{}
}

// Open parses the PDF held in data
func (l *LedongthucLibrary) Open(data []byte) (doc PDFDocument, err error) {
	defer recoverAsError(LibraryLedongthuc, "open", 0, &err)

	if !bytes.HasPrefix(data, []byte("%PDF")) {
		return nil, &WrapperError{Library: LibraryLedongthuc, Op: "open", Err: ErrNotPDF}
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &WrapperError{
			Library: LibraryLedongthuc,
			Op:      "open",
			Err:     fmt.Errorf("failed to open PDF: %w", err),
		}
	}

	pages := reader.NumPage()
	if pages <= 0 {
		return nil, &WrapperError{
			Library: LibraryLedongthuc,
			Op:      "open",
			Err:     fmt.Errorf("page tree has no pages"),
		}
	}

	return &LedongthucDocument{reader: reader, pages: pages}, nil
}

// GetLibraryType returns the library type
func (l *LedongthucLibrary) GetLibraryType() LibraryType {
	return LibraryLedongthuc
}

// GetCapabilities returns what ledongthuc/pdf exposes
func (l *LedongthucLibrary) GetCapabilities() LibraryCapabilities {
	return LibraryCapabilities{TextExtraction: true, Metadata: true, LinkAnnotations: true}
}

// LedongthucDocument implements PDFDocument using ledongthuc/pdf
type LedongthucDocument struct {
	reader *pdf.Reader
	pages  int
	closed bool
}

// GetPageCount returns the number of pages in the document
func (d *LedongthucDocument) GetPageCount() int {
	return d.pages
}

// GetMetadata reads the trailer /Info dictionary
func (d *LedongthucDocument) GetMetadata() (meta *Metadata, err error) {
	defer recoverAsError(LibraryLedongthuc, "get_metadata", 0, &err)

	if d.closed {
		return nil, &WrapperError{Library: LibraryLedongthuc, Op: "get_metadata", Err: ErrDocumentClosed}
	}

	info := d.reader.Trailer().Key("Info")
	if info.IsNull() {
		return nil, &WrapperError{Library: LibraryLedongthuc, Op: "get_metadata", Err: ErrNoMetadata}
	}

	text := func(key string) string {
		return strings.TrimSpace(info.Key(key).Text())
	}

	return &Metadata{
		Title:            text("Title"),
		Author:           text("Author"),
		Subject:          text("Subject"),
		Creator:          text("Creator"),
		Producer:         text("Producer"),
		CreationDate:     text("CreationDate"),
		ModificationDate: text("ModDate"),
	}, nil
}

// ExtractText returns the plain text of a page
func (d *LedongthucDocument) ExtractText(pageNum int) (text string, err error) {
	defer recoverAsError(LibraryLedongthuc, "extract_text", pageNum, &err)

	page, err := d.page("extract_text", pageNum)
	if err != nil {
		return "", err
	}

	text, err = page.GetPlainText(nil)
	if err != nil {
		return "", &WrapperError{Library: LibraryLedongthuc, Op: "extract_text", Page: pageNum, Err: err}
	}
	return text, nil
}

// ExtractLinks walks the page /Annots array for /Link annotations with a /URI action
func (d *LedongthucDocument) ExtractLinks(pageNum int) (links []LinkAnnotation, err error) {
	defer recoverAsError(LibraryLedongthuc, "extract_links", pageNum, &err)

	page, err := d.page("extract_links", pageNum)
	if err != nil {
		return nil, err
	}

	annots := page.V.Key("Annots")
	for i := 0; i < annots.Len(); i++ {
		annot := annots.Index(i)
		if annot.Key("Subtype").Name() != "Link" {
			continue
		}
		action := annot.Key("A")
		if s := action.Key("S").Name(); s != "" && s != "URI" {
			continue
		}
		uri := strings.TrimSpace(action.Key("URI").Text())
		if uri == "" {
			continue
		}
		links = append(links, LinkAnnotation{URI: uri, Page: pageNum})
	}
	return links, nil
}

// Close releases the document
func (d *LedongthucDocument) Close() error {
	d.closed = true
	return nil
}

func (d *LedongthucDocument) page(op string, pageNum int) (pdf.Page, error) {
	if d.closed {
		return pdf.Page{}, &WrapperError{Library: LibraryLedongthuc, Op: op, Page: pageNum, Err: ErrDocumentClosed}
	}
	if pageNum < 1 || pageNum > d.pages {
		return pdf.Page{}, &WrapperError{
			Library: LibraryLedongthuc,
			Op:      op,
			Page:    pageNum,
			Err:     fmt.Errorf("%w: %d (document has %d pages)", ErrInvalidPage, pageNum, d.pages),
		}
	}

	page := d.reader.Page(pageNum)
	if page.V.IsNull() {
		return pdf.Page{}, &WrapperError{
			Library: LibraryLedongthuc,
			Op:      op,
			Page:    pageNum,
			Err:     fmt.Errorf("page %d not found in page tree", pageNum),
		}
	}
	return page, nil
}
