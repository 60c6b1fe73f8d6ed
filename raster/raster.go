// Package raster turns PDF pages into bitmaps.
//
// An Engine is obtained from a Loader, which acquires it once per process and
// shares it between sessions. The engine opens documents, and each document
// page reports its viewport and paints itself onto a gg.Context.
package raster

import (
	"context"
	"math"

	"github.com/gogpu/gg"
)

// Viewport is the pixel geometry of a page at a given scale.
type Viewport struct {
	Width  float64 // Page width in pixels
	Height float64 // Page height in pixels
	Scale  float64 // Pixels per PDF point
}

// Pixels returns the bitmap size needed to hold the viewport, never less than
// one pixel in either direction.
func (v Viewport) Pixels() (width, height int) {
	width = int(math.Ceil(v.Width))
	height = int(math.Ceil(v.Height))
	return max(width, 1), max(height, 1)
}

// Engine opens documents for rasterization.
type Engine interface {
	// Name identifies the engine in logs.
	Name() string
	Open(ctx context.Context, data []byte) (Document, error)
}

// Document is an opened document.
type Document interface {
	PageCount() int
	// Page returns page n, counted from 1.
	Page(n int) (Page, error)
}

// Page is a single page of an opened document.
type Page interface {
	// Size returns the page size in PDF points.
	Size() (width, height float64)
	Viewport(scale float64) Viewport
	// Render paints the page onto dc, which must be at least as large as
	// the viewport.
	Render(ctx context.Context, dc *gg.Context, vp Viewport) error
}

// Acquirer hands out the process-wide rasterization engine.
type Acquirer interface {
	Acquire(ctx context.Context) (Engine, error)
}

// viewport computes the viewport of a page of the given size.
func viewport(width, height, scale float64) Viewport {
	if scale <= 0 {
		scale = 1
	}
	return Viewport{Width: width * scale, Height: height * scale, Scale: scale}
}

// Bitmap renders page at scale onto a fresh white context.
func Bitmap(ctx context.Context, page Page, scale float64) (*gg.Context, Viewport, error) {
	vp := page.Viewport(scale)
	w, h := vp.Pixels()
	dc := gg.NewContext(w, h)
	dc.ClearWithColor(gg.White)
	if err := page.Render(ctx, dc, vp); err != nil {
		return dc, vp, err
	}
	return dc, vp, nil
}
