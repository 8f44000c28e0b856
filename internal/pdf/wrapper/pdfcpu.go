package wrapper

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

func init() {
	// pdfcpu otherwise creates and reads a per-user config dir, which is not
	// safe when documents are parsed from several goroutines.
	api.DisableConfigDir()
}

// PDFCPULibrary implements PDFLibrary using pdfcpu.
// Text comes from decoding page content streams; the link index comes from
// pdfcpu's annotation listing. pdfcpu does not surface the info dictionary here.
type PDFCPULibrary struct{}

// NewPDFCPULibrary creates a new pdfcpu library wrapper
func NewPDFCPULibrary() *PDFCPULibrary {
	return &PDFCPULibrary{}
}

func relaxedConfig() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// Open parses the PDF held in data
func (p *PDFCPULibrary) Open(data []byte) (doc PDFDocument, err error) {
	defer recoverAsError(LibraryPDFCPU, "open", 0, &err)

	if len(data) == 0 {
		return nil, &WrapperError{Library: LibraryPDFCPU, Op: "open", Err: ErrNotPDF}
	}

	ctx, err := api.ReadContext(bytes.NewReader(data), relaxedConfig())
	if err != nil {
		return nil, &WrapperError{
			Library: LibraryPDFCPU,
			Op:      "open",
			Err:     fmt.Errorf("failed to read PDF context: %w", err),
		}
	}

	if err := ctx.EnsurePageCount(); err != nil {
		return nil, &WrapperError{
			Library: LibraryPDFCPU,
			Op:      "open",
			Err:     fmt.Errorf("failed to ensure page count: %w", err),
		}
	}

	return &PDFCPUDocument{ctx: ctx, data: data}, nil
}

// GetLibraryType returns the library type
func (p *PDFCPULibrary) GetLibraryType() LibraryType {
	return LibraryPDFCPU
}

// GetCapabilities returns what the pdfcpu wrapper exposes
func (p *PDFCPULibrary) GetCapabilities() LibraryCapabilities {
	return LibraryCapabilities{TextExtraction: true, Metadata: false, LinkAnnotations: true}
}

// PDFCPUDocument implements PDFDocument using pdfcpu
type PDFCPUDocument struct {
	ctx    *model.Context
	data   []byte
	closed bool

	linksOnce sync.Once
	links     map[int][]LinkAnnotation
	linksErr  error
}

// GetPageCount returns the number of pages in the document
func (d *PDFCPUDocument) GetPageCount() int {
	return d.ctx.PageCount
}

// GetMetadata is not supported by this backend
func (d *PDFCPUDocument) GetMetadata() (*Metadata, error) {
	return nil, &WrapperError{Library: LibraryPDFCPU, Op: "get_metadata", Err: ErrNoMetadata}
}

// ExtractText decodes the text-showing operators of the page content stream
func (d *PDFCPUDocument) ExtractText(pageNum int) (text string, err error) {
	defer recoverAsError(LibraryPDFCPU, "extract_text", pageNum, &err)

	if err := d.checkPage("extract_text", pageNum); err != nil {
		return "", err
	}

	r, err := pdfcpu.ExtractPageContent(d.ctx, pageNum)
	if err != nil {
		return "", &WrapperError{Library: LibraryPDFCPU, Op: "extract_text", Page: pageNum, Err: err}
	}
	if r == nil {
		return "", nil
	}

	content, err := io.ReadAll(r)
	if err != nil {
		return "", &WrapperError{Library: LibraryPDFCPU, Op: "extract_text", Page: pageNum, Err: err}
	}

	return TextFromContentStream(content), nil
}

// ExtractLinks returns the URI link annotations pdfcpu indexes for the page
func (d *PDFCPUDocument) ExtractLinks(pageNum int) ([]LinkAnnotation, error) {
	if err := d.checkPage("extract_links", pageNum); err != nil {
		return nil, err
	}

	d.linksOnce.Do(d.loadLinks)
	if d.linksErr != nil {
		return nil, &WrapperError{Library: LibraryPDFCPU, Op: "extract_links", Page: pageNum, Err: d.linksErr}
	}
	return d.links[pageNum], nil
}

func (d *PDFCPUDocument) loadLinks() {
	defer func() {
		if r := recover(); r != nil {
			d.linksErr = fmt.Errorf("parser panic: %v", r)
		}
	}()

	annots, err := api.Annotations(bytes.NewReader(d.data), nil, relaxedConfig())
	if err != nil {
		d.linksErr = err
		return
	}

	d.links = make(map[int][]LinkAnnotation)
	for pageNum, pageAnnots := range annots {
		linkAnnots, ok := pageAnnots[model.AnnLink]
		if !ok {
			continue
		}
		for _, renderer := range linkAnnots.Map {
			link, ok := renderer.(model.LinkAnnotation)
			if !ok || link.URI == "" {
				continue
			}
			d.links[pageNum] = append(d.links[pageNum], LinkAnnotation{URI: link.URI, Page: pageNum})
		}
		// The annotation map has no stable iteration order.
		sort.SliceStable(d.links[pageNum], func(i, j int) bool {
			return d.links[pageNum][i].URI < d.links[pageNum][j].URI
		})
	}
}

// Close releases the document
func (d *PDFCPUDocument) Close() error {
	d.closed = true
	return nil
}

func (d *PDFCPUDocument) checkPage(op string, pageNum int) error {
	if d.closed {
		return &WrapperError{Library: LibraryPDFCPU, Op: op, Page: pageNum, Err: ErrDocumentClosed}
	}
	if pageNum < 1 || pageNum > d.ctx.PageCount {
		return &WrapperError{
			Library: LibraryPDFCPU,
			Op:      op,
			Page:    pageNum,
			Err:     fmt.Errorf("%w: %d (document has %d pages)", ErrInvalidPage, pageNum, d.ctx.PageCount),
		}
	}
	return nil
}
