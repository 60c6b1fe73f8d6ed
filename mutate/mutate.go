// Package mutate opens an existing PDF, stages markup drawn onto its pages and
// saves the result as an incremental update.
//
// Each drawing primitive becomes a PDF annotation with its own appearance
// stream, so the original page content streams are never rewritten.
package mutate

import (
	"fmt"
	"sort"
	"time"

	"github.com/digitorus/pdf"
	"github.com/digitorus/pdfannot/annotation"
	"github.com/digitorus/pdfannot/common"
)

// TextOp draws a single line of text. X and Y give the baseline origin
// relative to the bottom-left corner of the page.
type TextOp struct {
	Text       string
	X, Y       float64
	Size       float64
	FontFamily string
	Color      annotation.Color
	Name       string // Unique annotation name, written as /NM
}

// ShapeOp draws a rectangle or the ellipse inscribed in it. The box is given
// relative to the bottom-left corner of the page.
type ShapeOp struct {
	X, Y, Width, Height float64
	StrokeColor         *annotation.Color
	StrokeWidth         float64
	FillColor           *annotation.Color
	Opacity             float64 // Zero is treated as opaque
	Name                string
}

type opKind int

const (
	opText opKind = iota
	opRectangle
	opEllipse
)

type op struct {
	kind  opKind
	text  TextOp
	shape ShapeOp
}

// Document is an editable handle on a parsed PDF.
//
// A Document is not safe for concurrent use. Use Fork to obtain independent
// handles on the same source.
type Document struct {
	data   []byte
	reader *pdf.Reader
	pages  []pdf.Value
	info   common.DocumentInfo
	ops    map[int][]op

	// Now returns the modification time written into new annotations.
	Now func() time.Time
}

// Open parses data. Malformed and encrypted documents fail with an error
// matching common.ErrParseFailure.
func Open(data []byte) (*Document, error) {
	rdr, pages, err := common.ReadPages(data)
	if err != nil {
		return nil, err
	}
	return &Document{
		data:   data,
		reader: rdr,
		pages:  pages,
		info:   common.ParseDocumentInfo(rdr.Trailer().Key("Info"), len(pages)),
		ops:    make(map[int][]op),
		Now:    time.Now,
	}, nil
}

// Fork returns a handle on the same source document with no staged drawing.
func (d *Document) Fork() *Document {
	return &Document{
		data:   d.data,
		reader: d.reader,
		pages:  d.pages,
		info:   d.info,
		ops:    make(map[int][]op),
		Now:    d.Now,
	}
}

// Info returns the document metadata.
func (d *Document) Info() common.DocumentInfo {
	return d.info
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int {
	return len(d.pages)
}

func (d *Document) page(n int) (pdf.Value, error) {
	if n < 1 || n > len(d.pages) {
		return pdf.Value{}, fmt.Errorf("page %d out of range [1, %d]", n, len(d.pages))
	}
	return d.pages[n-1], nil
}

// PageBox returns the MediaBox of page n (1-based), following inheritance
// through the page tree.
func (d *Document) PageBox(n int) (common.Box, error) {
	page, err := d.page(n)
	if err != nil {
		return common.Box{}, err
	}
	return common.MediaBox(page), nil
}

// PageSize returns the width and height of page n in points.
func (d *Document) PageSize(n int) (width, height float64, err error) {
	box, err := d.PageBox(n)
	if err != nil {
		return 0, 0, err
	}
	return box.Width, box.Height, nil
}

// DrawText stages text on page n.
func (d *Document) DrawText(n int, t TextOp) error {
	if _, err := d.page(n); err != nil {
		return err
	}
	if t.Size <= 0 {
		return fmt.Errorf("invalid font size %v", t.Size)
	}
	d.ops[n] = append(d.ops[n], op{kind: opText, text: t})
	return nil
}

// DrawRectangle stages a rectangle on page n.
func (d *Document) DrawRectangle(n int, s ShapeOp) error {
	return d.drawShape(n, opRectangle, s)
}

// DrawEllipse stages the ellipse inscribed in the given box on page n.
func (d *Document) DrawEllipse(n int, s ShapeOp) error {
	return d.drawShape(n, opEllipse, s)
}

func (d *Document) drawShape(n int, kind opKind, s ShapeOp) error {
	if _, err := d.page(n); err != nil {
		return err
	}
	if s.Width < 0 || s.Height < 0 {
		return fmt.Errorf("negative shape size %vx%v", s.Width, s.Height)
	}
	if s.StrokeColor == nil && s.FillColor == nil {
		return fmt.Errorf("shape has neither stroke nor fill")
	}
	d.ops[n] = append(d.ops[n], op{kind: kind, shape: s})
	return nil
}

// Staged returns the number of staged drawing operations.
func (d *Document) Staged() int {
	n := 0
	for _, ops := range d.ops {
		n += len(ops)
	}
	return n
}

// Save returns the source document followed by an incremental update holding
// the staged drawing. Without staged drawing the source bytes are returned
// unchanged. Save does not clear the staged operations.
func (d *Document) Save() (out []byte, err error) {
	if d.Staged() == 0 {
		return append([]byte(nil), d.data...), nil
	}

	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("failed to write update: %v", r)
		}
	}()

	w, err := newUpdateWriter(d.reader, d.data)
	if err != nil {
		return nil, err
	}
	now := d.Now()

	numbers := make([]int, 0, len(d.ops))
	for n := range d.ops {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	for _, n := range numbers {
		page := d.pages[n-1]
		box := common.MediaBox(page)

		var annots []uint32
		for _, o := range d.ops[n] {
			id, err := w.addAnnotation(page, box, o, now)
			if err != nil {
				return nil, fmt.Errorf("page %d: %w", n, err)
			}
			annots = append(annots, id)
		}

		if err := w.addAnnotsToPage(page, annots); err != nil {
			return nil, fmt.Errorf("page %d: %w", n, err)
		}
	}

	if err := w.finish(); err != nil {
		return nil, err
	}
	return w.bytes(), nil
}
