package canvas

import (
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"log/slog"

	"github.com/digitorus/pdfannot/annotation"
	"github.com/digitorus/pdfannot/common"
	"github.com/digitorus/pdfannot/raster"
	"github.com/gogpu/gg"
)

// ThumbnailScale is the scale thumbnails are rendered at.
const ThumbnailScale = 0.2

// Renderer draws pages with their annotations onto surfaces.
type Renderer struct {
	logger *slog.Logger
}

// NewRenderer returns a renderer. A nil logger discards log output.
func NewRenderer(logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Renderer{logger: logger}
}

// Render rasterizes page n at zoom, paints annotations over it and commits
// the result to s.
//
// A page that fails to rasterize does not prevent the overlay: a blank frame
// with the annotations is committed and the error, matching
// common.ErrRenderFailure, is returned alongside it. When a newer render
// started on s in the meantime nothing is committed and ErrSuperseded is
// returned.
func (r *Renderer) Render(ctx context.Context, s *Surface, page raster.Page, n int, zoom float64, annotations []annotation.Annotation) (Frame, error) {
	token := s.Begin()

	dc, vp, rerr := raster.Bitmap(ctx, page, zoom)
	defer dc.Close()

	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}
	if rerr != nil {
		rerr = common.Wrap(common.ErrRenderFailure, "failed to rasterize page", rerr)
		r.logger.Warn("page rasterization failed", "surface", s.Name(), "page", n, "error", rerr)
		dc.ClearWithColor(gg.White)
	}
	if !s.Current(token) {
		return Frame{}, ErrSuperseded
	}

	w, h := vp.Pixels()
	if err := DrawAnnotations(dc, annotations, float64(w), float64(h)); err != nil {
		return Frame{}, common.Wrap(common.ErrRenderFailure, "failed to draw annotations", err)
	}

	f := Frame{Image: dc.Image(), Viewport: vp, Page: n, Zoom: zoom}
	if !s.Commit(token, f) {
		return Frame{}, ErrSuperseded
	}
	return f, rerr
}

// Thumbnail rasterizes page at ThumbnailScale without annotations.
func (r *Renderer) Thumbnail(ctx context.Context, page raster.Page) (image.Image, error) {
	dc, _, err := raster.Bitmap(ctx, page, ThumbnailScale)
	defer dc.Close()
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, common.Wrap(common.ErrRenderFailure, "failed to rasterize thumbnail", err)
	}
	return dc.Image(), nil
}

// EncodePNG writes img as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}
