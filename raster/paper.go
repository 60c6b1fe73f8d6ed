package raster

import (
	"context"
	"fmt"

	"github.com/digitorus/pdfannot/common"
	"github.com/gogpu/gg"
)

// PaperEngine knows page geometry only and paints every page as blank paper.
// It serves as the fallback when the ContentEngine cannot be acquired.
type PaperEngine struct{}

func (PaperEngine) Name() string { return "paper" }

func (PaperEngine) Open(ctx context.Context, data []byte) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	_, pages, err := common.ReadPages(data)
	if err != nil {
		return nil, err
	}
	boxes := make([]common.Box, len(pages))
	for i, p := range pages {
		boxes[i] = common.MediaBox(p)
	}
	return paperDocument(boxes), nil
}

type paperDocument []common.Box

func (d paperDocument) PageCount() int { return len(d) }

func (d paperDocument) Page(n int) (Page, error) {
	if n < 1 || n > len(d) {
		return nil, fmt.Errorf("page %d out of range [1, %d]", n, len(d))
	}
	return paperPage(d[n-1]), nil
}

type paperPage common.Box

func (p paperPage) Size() (float64, float64) { return p.Width, p.Height }

func (p paperPage) Viewport(scale float64) Viewport {
	return viewport(p.Width, p.Height, scale)
}

func (p paperPage) Render(ctx context.Context, dc *gg.Context, vp Viewport) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dc.SetRGB(1, 1, 1)
	dc.DrawRectangle(0, 0, vp.Width, vp.Height)
	if err := dc.Fill(); err != nil {
		return common.Wrap(common.ErrRenderFailure, "failed to fill page", err)
	}
	return nil
}
