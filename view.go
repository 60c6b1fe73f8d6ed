package pdfannot

import (
	"context"
	"errors"
	"image"
	"math"

	"github.com/digitorus/pdfannot/canvas"
	"github.com/digitorus/pdfannot/common"
)

// MainSurface is the surface name of the page view.
const MainSurface = "main"

func clampZoom(z float64) float64 {
	if z <= 0 || math.IsNaN(z) {
		return 1
	}
	return math.Min(math.Max(z, MinZoom), MaxZoom)
}

// ZoomIn increases the zoom by ZoomStep up to MaxZoom.
func (e *Editor) ZoomIn() float64 {
	e.zoom = clampZoom(e.zoom + ZoomStep)
	return e.zoom
}

// ZoomOut decreases the zoom by ZoomStep down to MinZoom.
func (e *Editor) ZoomOut() float64 {
	e.zoom = clampZoom(e.zoom - ZoomStep)
	return e.zoom
}

// ResetZoom sets the zoom to 1.
func (e *Editor) ResetZoom() float64 {
	e.zoom = 1
	return e.zoom
}

// SetZoom sets the zoom, clamped to [MinZoom, MaxZoom].
func (e *Editor) SetZoom(z float64) float64 {
	e.zoom = clampZoom(z)
	return e.zoom
}

// GoToPage shows page n. Numbers outside the document are ignored and
// reported as false.
func (e *Editor) GoToPage(n int) bool {
	if e.state != StateReady || n < 1 || n > len(e.pages) {
		return false
	}
	e.current = n
	e.drag = nil
	return true
}

// NextPage shows the following page, if any.
func (e *Editor) NextPage() bool { return e.GoToPage(e.current + 1) }

// PrevPage shows the preceding page, if any.
func (e *Editor) PrevPage() bool { return e.GoToPage(e.current - 1) }

// Surface returns the named surface, creating it on first use.
func (e *Editor) Surface(name string) *canvas.Surface {
	s, ok := e.surfaces[name]
	if !ok {
		s = canvas.NewSurface(name)
		e.surfaces[name] = s
	}
	return s
}

// RenderPage renders the current page with its annotations at the current
// zoom onto the named surface. A page that fails to rasterize is logged and
// shown blank with its annotations; the error is not returned. A render
// overtaken by a newer one on the same surface returns
// canvas.ErrSuperseded.
func (e *Editor) RenderPage(ctx context.Context, surface string) (canvas.Frame, error) {
	if !e.loaded() {
		return canvas.Frame{}, ErrNoDocument
	}
	page, err := e.raster.Page(e.current)
	if err != nil {
		return canvas.Frame{}, common.Wrap(common.ErrRenderFailure, "failed to get page", err)
	}

	f, err := e.renderer.Render(ctx, e.Surface(surface), page, e.current, e.zoom, e.pages[e.current-1].Annotations)
	if err != nil && f.Image != nil && errors.Is(err, common.ErrRenderFailure) {
		return f, nil
	}
	return f, err
}

// RenderThumbnail renders page n without annotations at
// canvas.ThumbnailScale.
func (e *Editor) RenderThumbnail(ctx context.Context, n int) (image.Image, error) {
	if err := e.checkPage(n); err != nil {
		return nil, err
	}
	page, err := e.raster.Page(n)
	if err != nil {
		return nil, common.Wrap(common.ErrRenderFailure, "failed to get page", err)
	}
	img, err := e.renderer.Thumbnail(ctx, page)
	if err != nil {
		e.logger.Warn("thumbnail rendering failed", "page", n, "error", err)
		return nil, err
	}
	return img, nil
}
