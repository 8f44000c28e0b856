package links

import (
	"errors"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/bizharvest/internal/pdf/wrapper"
	"github.com/a3tai/bizharvest/internal/testpdf"
)

func scenarioPDF() []byte {
	return testpdf.Build(testpdf.Document{
		Pages: []testpdf.Page{{
			Lines: []string{
				"Lista e subjekteve",
				"Raporti: https://y.org/report.pdf",
				"Kontakt: a@b.com",
			},
			Links: []string{"https://x.gov/doc?id=1"},
		}},
	})
}

func TestExtractAll_Scenario(t *testing.T) {
	report := NewExtractor(nil).ExtractAll(scenarioPDF())

	require.Equal(t, 3, report.TotalLinks, "links: %+v", report.Links)
	assert.Len(t, report.Links, 3)

	assert.Equal(t, Link{Type: TypeAnnotation, URL: "https://x.gov/doc?id=1", Page: 1, Source: "ledongthuc_annotation"}, report.Links[0])
	assert.Equal(t, Link{Type: TypeTextURL, URL: "https://y.org/report.pdf", Page: 1, Source: "ledongthuc_text"}, report.Links[1])
	assert.Equal(t, Link{Type: TypeEmail, URL: "mailto:a@b.com", Page: 1, Source: "ledongthuc_text"}, report.Links[2])

	assert.Len(t, report.ByType[TypeAnnotation], 1)
	assert.Len(t, report.ByType[TypeTextURL], 1)
	assert.Len(t, report.ByType[TypeEmail], 1)
	assert.Empty(t, report.ByType[TypeHyperlink])
	assert.Equal(t, Summary{Annotations: 1, TextURLs: 1, Emails: 1}, report.Summary)

	assert.Equal(t, []string{"https://x.gov/doc?id=1", "https://y.org/report.pdf"}, report.HTTPURLs())
}

func TestExtractAll_Idempotent(t *testing.T) {
	data := testpdf.Build(testpdf.Document{
		Pages: []testpdf.Page{
			{Lines: []string{"https://a.example/1.pdf https://a.example/2.pdf"}, Links: []string{"https://b.example/z", "https://b.example/a"}},
			{Lines: []string{"https://a.example/1.pdf", "info@example.al"}},
		},
	})

	extractor := NewExtractor(nil)
	first := extractor.ExtractAll(data)
	second := extractor.ExtractAll(data)
	assert.Equal(t, first, second)

	// The same URL on two pages is kept once per page.
	pages := map[int]bool{}
	for _, l := range first.Links {
		if l.URL == "https://a.example/1.pdf" {
			pages[l.Page] = true
		}
	}
	assert.Equal(t, map[int]bool{1: true, 2: true}, pages)
}

func TestExtractAll_NotAPDF(t *testing.T) {
	report := NewExtractor(nil).ExtractAll([]byte("definitely not a pdf"))
	assert.Equal(t, 0, report.TotalLinks)
	assert.Empty(t, report.Links)
	assert.Empty(t, report.HTTPURLs())
}

type stubLibrary struct {
	libType wrapper.LibraryType
	openErr error
	panics  bool
	doc     *stubDocument
}

func (l *stubLibrary) Open([]byte) (wrapper.PDFDocument, error) {
	if l.panics {
		panic("corrupt object stream")
	}
	if l.openErr != nil {
		return nil, l.openErr
	}
	return l.doc, nil
}

func (l *stubLibrary) GetLibraryType() wrapper.LibraryType { return l.libType }

func (l *stubLibrary) GetCapabilities() wrapper.LibraryCapabilities {
	return wrapper.LibraryCapabilities{TextExtraction: true, LinkAnnotations: true}
}

type stubDocument struct {
	text     []string
	links    [][]string
	textErrs map[int]error
}

func (d *stubDocument) GetPageCount() int                       { return len(d.text) }
func (d *stubDocument) GetMetadata() (*wrapper.Metadata, error) { return nil, wrapper.ErrNoMetadata }
func (d *stubDocument) Close() error                            { return nil }

func (d *stubDocument) ExtractText(pageNum int) (string, error) {
	if err := d.textErrs[pageNum]; err != nil {
		return "", err
	}
	return d.text[pageNum-1], nil
}

func (d *stubDocument) ExtractLinks(pageNum int) ([]wrapper.LinkAnnotation, error) {
	var out []wrapper.LinkAnnotation
	for _, u := range d.links[pageNum-1] {
		out = append(out, wrapper.LinkAnnotation{URI: u, Page: pageNum})
	}
	return out, nil
}

func newStubExtractor(a, b wrapper.PDFLibrary) *Extractor {
	return &Extractor{
		strategies: []strategy{
			{lib: a, structType: TypeAnnotation, structFirst: true},
			{lib: b, structType: TypeHyperlink},
		},
		logger: log.New(io.Discard, "", 0),
	}
}

func TestExtractAll_OneBackendFails(t *testing.T) {
	working := &stubLibrary{
		libType: wrapper.LibraryPDFCPU,
		doc: &stubDocument{
			text:  []string{"see https://qkb.gov.al/x"},
			links: [][]string{{"https://qkb.gov.al/y"}},
		},
	}

	for name, broken := range map[string]*stubLibrary{
		"error": {libType: wrapper.LibraryLedongthuc, openErr: errors.New("broken xref")},
		"panic": {libType: wrapper.LibraryLedongthuc, panics: true},
	} {
		t.Run(name, func(t *testing.T) {
			report := newStubExtractor(broken, working).ExtractAll(nil)
			require.Equal(t, 2, report.TotalLinks)
			assert.Equal(t, "pdfcpu_text", report.Links[0].Source)
			assert.Equal(t, TypeHyperlink, report.Links[1].Type)
			assert.Equal(t, "pdfcpu_hyperlink", report.Links[1].Source)
		})
	}
}

func TestExtractAll_PageErrorSkipped(t *testing.T) {
	a := &stubLibrary{
		libType: wrapper.LibraryLedongthuc,
		doc: &stubDocument{
			text:     []string{"", "page two https://two.example/doc"},
			links:    [][]string{{"https://one.example/annot"}, nil},
			textErrs: map[int]error{1: errors.New("bad stream")},
		},
	}
	b := &stubLibrary{libType: wrapper.LibraryPDFCPU, openErr: errors.New("unreadable")}

	report := newStubExtractor(a, b).ExtractAll(nil)
	require.Equal(t, 2, report.TotalLinks)
	assert.Equal(t, "https://one.example/annot", report.Links[0].URL)
	assert.Equal(t, 2, report.Links[1].Page)
}

func TestExtractAll_DedupAndValidation(t *testing.T) {
	a := &stubLibrary{
		libType: wrapper.LibraryLedongthuc,
		doc: &stubDocument{
			text:  []string{"https://dup.example/a"},
			links: [][]string{{"https://dup.example/a", "javascript:void(0)", "not a url", "", "ftp://files.example/x"}},
		},
	}
	b := &stubLibrary{
		libType: wrapper.LibraryPDFCPU,
		doc: &stubDocument{
			text:  []string{"mail: someone@example.com"},
			links: [][]string{{"https://dup.example/a"}},
		},
	}

	report := newStubExtractor(a, b).ExtractAll(nil)
	require.Equal(t, 2, report.TotalLinks, "links: %+v", report.Links)
	assert.Equal(t, TypeAnnotation, report.Links[0].Type, "first occurrence wins")
	assert.Equal(t, "mailto:someone@example.com", report.Links[1].URL)
}

func TestScanText(t *testing.T) {
	got := ScanText("Shih (https://qkb.gov.al/search?nuis=L1.) dhe https://e-albania.al, ose shkruani info@qkb.gov.al.", 3, "test")
	require.Len(t, got, 3)
	assert.Equal(t, "https://qkb.gov.al/search?nuis=L1", got[0].URL)
	assert.Equal(t, "https://e-albania.al", got[1].URL)
	assert.Equal(t, "mailto:info@qkb.gov.al", got[2].URL)
	for _, l := range got {
		assert.Equal(t, 3, l.Page)
		assert.Equal(t, "test", l.Source)
	}
}

func TestIsValidURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://example.com/a.pdf", true},
		{"http://qkb.gov.al/doc?id=1", true},
		{"not a url", false},
		{"ftp://x", false},
		{"https://", false},
		{"/relative/path", false},
		{"mailto:a@b.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidURL(tt.url))
		})
	}
}
