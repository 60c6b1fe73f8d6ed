// Package testpdf builds small, valid PDF documents in memory for tests.
package testpdf

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Options controls the generated document.
type Options struct {
	Pages         int     // Number of pages, at least 1
	Width, Height float64 // Page size in points, US Letter when zero

	// InheritMediaBox places the MediaBox on the page tree root instead of
	// on every page.
	InheritMediaBox bool

	// ReverseKids lists the pages in the page tree in descending object
	// order, so page 1 has the highest object number.
	ReverseKids bool

	// XrefStream writes a cross-reference stream instead of a table.
	XrefStream bool

	// Encrypted adds a Standard security handler with an unknown password.
	Encrypted bool

	// ExistingAnnotation gives every page one Square annotation.
	ExistingAnnotation bool

	Title string
}

type builder struct {
	buf     bytes.Buffer
	offsets []int
}

func (b *builder) object(body string) {
	b.offsets = append(b.offsets, b.buf.Len())
	fmt.Fprintf(&b.buf, "%d 0 obj\n%s\nendobj\n", len(b.offsets), body)
}

// Build returns a document described by opts.
func Build(opts Options) []byte {
	if opts.Pages < 1 {
		opts.Pages = 1
	}
	if opts.Width == 0 {
		opts.Width = 612
	}
	if opts.Height == 0 {
		opts.Height = 792
	}
	if opts.Title == "" {
		opts.Title = "Test document"
	}

	// Object numbers: 1 catalog, 2 page tree, 3 font, 4 info, then per page
	// the page, its content stream and optionally an annotation.
	perPage := 2
	if opts.ExistingAnnotation {
		perPage = 3
	}
	pageID := func(i int) int { return 5 + i*perPage }

	b := &builder{}
	b.buf.WriteString("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")

	b.object("<< /Type /Catalog /Pages 2 0 R >>")

	var kids bytes.Buffer
	for i := 0; i < opts.Pages; i++ {
		n := i
		if opts.ReverseKids {
			n = opts.Pages - 1 - i
		}
		fmt.Fprintf(&kids, " %d 0 R", pageID(n))
	}
	mediaBox := fmt.Sprintf("/MediaBox [0 0 %g %g]", opts.Width, opts.Height)
	tree := fmt.Sprintf("<< /Type /Pages /Kids [%s ] /Count %d", kids.String(), opts.Pages)
	if opts.InheritMediaBox {
		tree += " " + mediaBox
	}
	b.object(tree + " >>")

	b.object("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")
	b.object(fmt.Sprintf("<< /Title (%s) /Producer (testpdf) /CreationDate (D:20260101120000Z00'00') >>", opts.Title))

	for i := 0; i < opts.Pages; i++ {
		id := pageID(i)
		page := fmt.Sprintf("<< /Type /Page /Parent 2 0 R /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R", id+1)
		if !opts.InheritMediaBox {
			page += " " + mediaBox
		}
		if opts.ExistingAnnotation {
			page += fmt.Sprintf(" /Annots [%d 0 R]", id+2)
		}
		b.object(page + " >>")

		content := fmt.Sprintf("BT /F1 24 Tf 72 %g Td (Page %d) Tj ET\n0 0 1 RG 72 72 100 50 re S", opts.Height-72, i+1)
		b.object(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))

		if opts.ExistingAnnotation {
			b.object(fmt.Sprintf("<< /Type /Annot /Subtype /Square /Rect [10 10 20 20] /P %d 0 R /NM (existing-%d) >>", id, i+1))
		}
	}

	id := "<0123456789abcdef0123456789abcdef>"
	trailer := fmt.Sprintf("/Root 1 0 R /Info 4 0 R /ID [%s %s]", id, id)
	if opts.Encrypted {
		b.object("<< /Filter /Standard /V 1 /R 2 /O <" + fmt.Sprintf("%064x", 1) + "> /U <" + fmt.Sprintf("%064x", 2) + "> /P -4 >>")
		trailer += fmt.Sprintf(" /Encrypt %d 0 R", len(b.offsets))
	}

	if opts.XrefStream {
		b.writeXrefStream(trailer)
	} else {
		b.writeXrefTable(trailer)
	}
	return b.buf.Bytes()
}

func (b *builder) writeXrefTable(trailer string) {
	start := b.buf.Len()
	size := len(b.offsets) + 1
	fmt.Fprintf(&b.buf, "xref\n0 %d\n", size)
	b.buf.WriteString("0000000000 65535 f\r\n")
	for _, off := range b.offsets {
		fmt.Fprintf(&b.buf, "%010d 00000 n\r\n", off)
	}
	fmt.Fprintf(&b.buf, "trailer\n<< /Size %d %s >>\nstartxref\n%d\n%%%%EOF\n", size, trailer, start)
}

func (b *builder) writeXrefStream(trailer string) {
	start := b.buf.Len()
	size := len(b.offsets) + 2

	var entries bytes.Buffer
	line := func(typ byte, off uint32, gen uint16) {
		entries.WriteByte(typ)
		_ = binary.Write(&entries, binary.BigEndian, off)
		_ = binary.Write(&entries, binary.BigEndian, gen)
	}
	line(0, 0, 0xffff)
	for _, off := range b.offsets {
		line(1, uint32(off), 0)
	}
	line(1, uint32(start), 0)

	fmt.Fprintf(&b.buf, "%d 0 obj\n<< /Type /XRef /Size %d /W [1 4 2] %s /Length %d >>\nstream\n",
		size-1, size, trailer, entries.Len())
	b.buf.Write(entries.Bytes())
	b.buf.WriteString("\nendstream\nendobj\n")
	fmt.Fprintf(&b.buf, "startxref\n%d\n%%%%EOF\n", start)
}
