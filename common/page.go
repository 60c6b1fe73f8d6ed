package common

import "github.com/digitorus/pdf"

// Default page size (US Letter) used when a page has no usable MediaBox.
const (
	DefaultPageWidth  = 612.0
	DefaultPageHeight = 792.0
)

// Box is a rectangle in PDF user space.
type Box struct {
	X, Y, Width, Height float64
}

// MediaBox returns the MediaBox of a page dictionary, following inheritance
// through the page tree.
func MediaBox(page pdf.Value) Box {
	for node, depth := page, 0; node.Kind() == pdf.Dict && depth < 64; node, depth = node.Key("Parent"), depth+1 {
		mb := node.Key("MediaBox")
		if mb.Kind() != pdf.Array || mb.Len() != 4 {
			continue
		}
		x1, y1 := mb.Index(0).Float64(), mb.Index(1).Float64()
		x2, y2 := mb.Index(2).Float64(), mb.Index(3).Float64()
		if x2 < x1 {
			x1, x2 = x2, x1
		}
		if y2 < y1 {
			y1, y2 = y2, y1
		}
		if x2-x1 <= 0 || y2-y1 <= 0 {
			break
		}
		return Box{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
	}
	return Box{Width: DefaultPageWidth, Height: DefaultPageHeight}
}
