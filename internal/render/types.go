package render

import (
	"github.com/digitorus/pdfannot/annotation"
	"github.com/digitorus/pdfannot/fonts"
)

// Shape selects the outline drawn by a ShapeElement.
type Shape int

const (
	// ShapeRect is an axis-aligned rectangle.
	ShapeRect Shape = iota
	// ShapeEllipse is the ellipse inscribed in the element's box.
	ShapeEllipse
)

// Appearance describes the content of one annotation appearance stream. All
// coordinates are in the stream's own space with the origin at the bottom-left
// corner of its Width by Height box.
type Appearance struct {
	Width, Height float64
	Opacity       float64 // Constant alpha; zero is treated as opaque
	Elements      []Element
}

// Element is a visual element in an appearance.
type Element interface {
	isElement()
}

// TextElement draws a single line of text with its baseline at Y.
type TextElement struct {
	Content string
	Font    *fonts.Font
	Size    float64
	X, Y    float64
	Color   annotation.Color
}

func (TextElement) isElement() {}

// ShapeElement draws a rectangle or ellipse within the box at X, Y.
type ShapeElement struct {
	Shape                  Shape
	X, Y, Width, Height    float64
	StrokeColor, FillColor *annotation.Color
	StrokeWidth            float64
}

func (ShapeElement) isElement() {}
