// Package testpdf builds small, well-formed PDF documents for tests.
//
// The generated files use a single Helvetica font with WinAnsiEncoding, one
// BT/ET block per text line and a classic cross-reference table, which keeps
// them readable by both the ledongthuc and pdfcpu backends.
package testpdf

import (
	"bytes"
	"fmt"
	"strings"
)

// Page describes the content of one generated page.
type Page struct {
	// Lines are drawn top to bottom, one text object per line.
	Lines []string
	// Links become /Link annotations with a /URI action.
	Links []string
}

// Info is the optional document information dictionary.
type Info struct {
	Title    string
	Author   string
	Subject  string
	Creator  string
	Producer string
}

// Document is the input to Build.
type Document struct {
	Pages []Page
	Info  *Info
}

// Simple builds a single-page document with the given text lines.
func Simple(lines ...string) []byte {
	return Build(Document{Pages: []Page{{Lines: lines}}})
}

// Build renders doc as PDF bytes.
func Build(doc Document) []byte {
	if len(doc.Pages) == 0 {
		doc.Pages = []Page{{}}
	}

	w := &writer{}
	w.buf.WriteString("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")

	// Object numbers: 1 catalog, 2 pages, 3 font, then per page
	// (page, contents, annotations...), then info.
	next := 4
	type pageRefs struct {
		page     int
		contents int
		annots   []int
	}
	refs := make([]pageRefs, len(doc.Pages))
	for i, p := range doc.Pages {
		refs[i].page = next
		refs[i].contents = next + 1
		next += 2
		for range p.Links {
			refs[i].annots = append(refs[i].annots, next)
			next++
		}
	}
	infoObj := 0
	if doc.Info != nil {
		infoObj = next
		next++
	}

	w.object(1, "<< /Type /Catalog /Pages 2 0 R >>")

	kids := make([]string, len(refs))
	for i, r := range refs {
		kids[i] = fmt.Sprintf("%d 0 R", r.page)
	}
	w.object(2, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d /MediaBox [0 0 612 792] >>",
		strings.Join(kids, " "), len(refs)))

	w.object(3, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	for i, p := range doc.Pages {
		r := refs[i]
		annots := ""
		if len(r.annots) > 0 {
			parts := make([]string, len(r.annots))
			for j, a := range r.annots {
				parts[j] = fmt.Sprintf("%d 0 R", a)
			}
			annots = fmt.Sprintf(" /Annots [%s]", strings.Join(parts, " "))
		}
		w.object(r.page, fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R%s >>",
			r.contents, annots))

		stream := contentStream(p.Lines)
		w.object(r.contents, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream))

		for j, uri := range p.Links {
			y := 700 - 20*j
			w.object(r.annots[j], fmt.Sprintf(
				"<< /Type /Annot /Subtype /Link /Rect [72 %d 300 %d] /Border [0 0 0] /A << /Type /Action /S /URI /URI %s >> >>",
				y, y+14, literal(uri)))
		}
	}

	if doc.Info != nil {
		w.object(infoObj, fmt.Sprintf("<< /Title %s /Author %s /Subject %s /Creator %s /Producer %s >>",
			literal(doc.Info.Title), literal(doc.Info.Author), literal(doc.Info.Subject),
			literal(doc.Info.Creator), literal(doc.Info.Producer)))
	}

	xref := w.buf.Len()
	fmt.Fprintf(&w.buf, "xref\n0 %d\n", next)
	w.buf.WriteString("0000000000 65535 f \n")
	for n := 1; n < next; n++ {
		fmt.Fprintf(&w.buf, "%010d 00000 n \n", w.offsets[n])
	}

	trailer := fmt.Sprintf("<< /Size %d /Root 1 0 R", next)
	if infoObj != 0 {
		trailer += fmt.Sprintf(" /Info %d 0 R", infoObj)
	}
	trailer += " >>"
	fmt.Fprintf(&w.buf, "trailer\n%s\nstartxref\n%d\n%%%%EOF\n", trailer, xref)

	return w.buf.Bytes()
}

type writer struct {
	buf     bytes.Buffer
	offsets map[int]int
}

func (w *writer) object(num int, body string) {
	if w.offsets == nil {
		w.offsets = make(map[int]int)
	}
	w.offsets[num] = w.buf.Len()
	fmt.Fprintf(&w.buf, "%d 0 obj\n%s\nendobj\n", num, body)
}

func contentStream(lines []string) string {
	var sb strings.Builder
	y := 760
	for _, line := range lines {
		fmt.Fprintf(&sb, "BT\n/F1 11 Tf\n50 %d Td\n%s Tj\nET\n", y, literal(line))
		y -= 16
		if y < 40 {
			y = 760
		}
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

// literal encodes s as a PDF string literal in WinAnsi (Latin-1 subset).
func literal(s string) string {
	var sb strings.Builder
	sb.WriteByte('(')
	for _, r := range s {
		switch {
		case r == '(' || r == ')' || r == '\\':
			sb.WriteByte('\\')
			sb.WriteByte(byte(r))
		case r < 0x80:
			sb.WriteByte(byte(r))
		case r < 0x100:
			fmt.Fprintf(&sb, "\\%03o", r)
		default:
			sb.WriteByte('?')
		}
	}
	sb.WriteByte(')')
	return sb.String()
}
