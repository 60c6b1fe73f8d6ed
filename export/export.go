// Package export replays annotations onto a document through the drawing
// primitives of the mutation library.
package export

import (
	"context"
	"fmt"

	"github.com/digitorus/pdfannot/annotation"
	"github.com/digitorus/pdfannot/common"
	"github.com/digitorus/pdfannot/coords"
	"github.com/digitorus/pdfannot/mutate"
)

// Target receives the drawing. *mutate.Document implements it.
type Target interface {
	PageCount() int
	PageSize(n int) (width, height float64, err error)
	DrawText(n int, t mutate.TextOp) error
	DrawRectangle(n int, s mutate.ShapeOp) error
	DrawEllipse(n int, s mutate.ShapeOp) error
}

var _ Target = (*mutate.Document)(nil)

// Encode draws the annotations of every page onto target. Unit rectangles
// are scaled to the target page size and flipped so their origin is the
// bottom-left corner. Errors match common.ErrExportFailure.
func Encode(ctx context.Context, target Target, pages []annotation.Page) error {
	for _, p := range pages {
		if err := ctx.Err(); err != nil {
			return err
		}
		if len(p.Annotations) == 0 {
			continue
		}
		if p.Number < 1 || p.Number > target.PageCount() {
			return common.Errorf(common.ErrExportFailure, "page %d out of range [1, %d]", p.Number, target.PageCount())
		}
		width, height, err := target.PageSize(p.Number)
		if err != nil {
			return common.Wrap(common.ErrExportFailure, fmt.Sprintf("page %d", p.Number), err)
		}
		for _, a := range p.Annotations {
			if err := draw(target, p.Number, a, width, height); err != nil {
				return common.Wrap(common.ErrExportFailure, fmt.Sprintf("page %d: annotation %s", p.Number, a.ID), err)
			}
		}
	}
	return nil
}

func draw(target Target, n int, a annotation.Annotation, width, height float64) error {
	r := coords.PDFRect(a, width, height)
	c := a.Color.WithAlpha(1)

	switch a.Type {
	case annotation.Text:
		if a.Content == "" {
			return nil
		}
		return target.DrawText(n, mutate.TextOp{
			Text:       a.Content,
			X:          r.X,
			Y:          r.Y,
			Size:       a.EffectiveFontSize(),
			FontFamily: a.EffectiveFontFamily(),
			Color:      c,
			Name:       a.ID,
		})
	case annotation.Highlight:
		return target.DrawRectangle(n, mutate.ShapeOp{
			X: r.X, Y: r.Y, Width: r.Width, Height: r.Height,
			FillColor: &c,
			Opacity:   annotation.HighlightOpacity,
			Name:      a.ID,
		})
	case annotation.Rectangle:
		return target.DrawRectangle(n, mutate.ShapeOp{
			X: r.X, Y: r.Y, Width: r.Width, Height: r.Height,
			StrokeColor: &c,
			StrokeWidth: annotation.StrokeWidth,
			Name:        a.ID,
		})
	case annotation.Circle:
		return target.DrawEllipse(n, mutate.ShapeOp{
			X: r.X, Y: r.Y, Width: r.Width, Height: r.Height,
			StrokeColor: &c,
			StrokeWidth: annotation.StrokeWidth,
			Name:        a.ID,
		})
	}
	return fmt.Errorf("%w: %q", annotation.ErrNotDrawable, a.Type)
}
