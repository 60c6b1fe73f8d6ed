// Package coords converts between pointer, bitmap, unit and PDF coordinate
// spaces.
//
// Device coordinates are pixels of the rendered bitmap with the origin at the
// top-left corner. Unit coordinates divide device coordinates by the bitmap
// size. PDF coordinates are points with the origin at the bottom-left corner.
package coords

import "github.com/digitorus/pdfannot/annotation"

// DragThreshold is the size in device pixels a drag must exceed in at least one
// dimension to create an annotation.
const DragThreshold = 5.0

// Point is a position in any of the coordinate spaces.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned rectangle given by its origin and non-negative size.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Extent describes a drawing surface: the pixel size of its bitmap and the
// size it is displayed at. They differ when the surface is scaled for display.
type Extent struct {
	BitmapWidth   float64 `json:"bitmapWidth"`
	BitmapHeight  float64 `json:"bitmapHeight"`
	DisplayWidth  float64 `json:"displayWidth"`
	DisplayHeight float64 `json:"displayHeight"`
}

func (e Extent) scale() (sx, sy float64) {
	sx, sy = 1, 1
	if e.DisplayWidth > 0 {
		sx = e.BitmapWidth / e.DisplayWidth
	}
	if e.DisplayHeight > 0 {
		sy = e.BitmapHeight / e.DisplayHeight
	}
	return sx, sy
}

// ToDevice maps a pointer offset within the displayed surface to bitmap pixels.
func ToDevice(offset Point, e Extent) Point {
	sx, sy := e.scale()
	return Point{X: offset.X * sx, Y: offset.Y * sy}
}

// ToUnit divides device coordinates by the bitmap size. Values are not clamped
// and fall outside [0,1] for points beyond the surface edge.
func ToUnit(p Point, e Extent) Point {
	u := Point{}
	if e.BitmapWidth != 0 {
		u.X = p.X / e.BitmapWidth
	}
	if e.BitmapHeight != 0 {
		u.Y = p.Y / e.BitmapHeight
	}
	return u
}

// ToDisplay maps unit coordinates to a pointer offset within the displayed
// surface. It inverts ToUnit(ToDevice(p)).
func ToDisplay(u Point, e Extent) Point {
	w, h := e.DisplayWidth, e.DisplayHeight
	if w <= 0 {
		w = e.BitmapWidth
	}
	if h <= 0 {
		h = e.BitmapHeight
	}
	return Point{X: u.X * w, Y: u.Y * h}
}

// PixelRect converts an annotation's unit rectangle to pixels of a surface
// that is width by height pixels large.
func PixelRect(a annotation.Annotation, width, height float64) Rect {
	return Rect{
		X:      a.X * width,
		Y:      a.Y * height,
		Width:  a.Width * width,
		Height: a.Height * height,
	}
}

// PointInAnnotation reports whether the device point lies within the
// annotation's bounding box. Both edges are inclusive.
func PointInAnnotation(p Point, a annotation.Annotation, e Extent) bool {
	return PixelRect(a, e.BitmapWidth, e.BitmapHeight).Contains(p)
}

// Contains reports whether p lies within r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.Width &&
		p.Y >= r.Y && p.Y <= r.Y+r.Height
}

// Center returns the midpoint of r.
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// DragRect returns the rectangle spanned by a drag, normalized so that the
// origin is the top-left corner and the size is non-negative.
func DragRect(start, end Point) Rect {
	r := Rect{X: start.X, Y: start.Y, Width: end.X - start.X, Height: end.Y - start.Y}
	if r.Width < 0 {
		r.X, r.Width = end.X, -r.Width
	}
	if r.Height < 0 {
		r.Y, r.Height = end.Y, -r.Height
	}
	return r
}

// Significant reports whether a drag rectangle is large enough to keep: a
// drag is discarded only when both dimensions are at most DragThreshold.
func (r Rect) Significant() bool {
	return r.Width > DragThreshold || r.Height > DragThreshold
}

// Unit converts a device rectangle to unit coordinates.
func (r Rect) Unit(e Extent) Rect {
	o := ToUnit(Point{X: r.X, Y: r.Y}, e)
	s := ToUnit(Point{X: r.Width, Y: r.Height}, e)
	return Rect{X: o.X, Y: o.Y, Width: s.X, Height: s.Y}
}

// PDFRect converts an annotation's unit rectangle into PDF user space for a
// page of pageWidth by pageHeight points, flipping the Y axis so the returned
// origin is the bottom-left corner.
func PDFRect(a annotation.Annotation, pageWidth, pageHeight float64) Rect {
	return Rect{
		X:      a.X * pageWidth,
		Y:      pageHeight - a.Y*pageHeight - a.Height*pageHeight,
		Width:  a.Width * pageWidth,
		Height: a.Height * pageHeight,
	}
}
