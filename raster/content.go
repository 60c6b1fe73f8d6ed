package raster

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/digitorus/pdf"
	"github.com/digitorus/pdfannot/common"
	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/goregular"
)

// ContentEngine paints the text runs and rectangles found in page content
// streams. Text is drawn with the Go Regular face regardless of the font the
// page asks for.
type ContentEngine struct {
	source *text.FontSource
}

// NewContentEngine parses the engine's font and returns the engine.
func NewContentEngine() (*ContentEngine, error) {
	src, err := text.NewFontSource(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}
	return &ContentEngine{source: src}, nil
}

func (e *ContentEngine) Name() string { return "content" }

// Open parses data. Malformed and encrypted documents fail with an error
// matching common.ErrParseFailure.
func (e *ContentEngine) Open(ctx context.Context, data []byte) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	_, pages, err := common.ReadPages(data)
	if err != nil {
		return nil, err
	}
	return &contentDocument{
		source: e.source,
		pages:  pages,
		faces:  make(map[float64]text.Face),
	}, nil
}

type contentDocument struct {
	source *text.FontSource
	pages  []pdf.Value

	mu    sync.Mutex
	faces map[float64]text.Face
}

func (d *contentDocument) PageCount() int { return len(d.pages) }

func (d *contentDocument) Page(n int) (Page, error) {
	if n < 1 || n > len(d.pages) {
		return nil, fmt.Errorf("page %d out of range [1, %d]", n, len(d.pages))
	}
	v := d.pages[n-1]
	return &contentPage{doc: d, v: v, box: common.MediaBox(v)}, nil
}

// face returns a face of the given pixel size, rounded to half pixels.
func (d *contentDocument) face(size float64) text.Face {
	size = math.Max(math.Round(size*2)/2, 1)
	d.mu.Lock()
	defer d.mu.Unlock()
	f, ok := d.faces[size]
	if !ok {
		f = d.source.Face(size)
		d.faces[size] = f
	}
	return f
}

type contentPage struct {
	doc *contentDocument
	v   pdf.Value
	box common.Box
}

func (p *contentPage) Size() (float64, float64) { return p.box.Width, p.box.Height }

func (p *contentPage) Viewport(scale float64) Viewport {
	return viewport(p.box.Width, p.box.Height, scale)
}

func (p *contentPage) Render(ctx context.Context, dc *gg.Context, vp Viewport) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			err = common.Wrap(common.ErrRenderFailure, "malformed page content", fmt.Errorf("%v", r))
		}
	}()

	content := pdf.Page{V: p.v}.Content()
	s := vp.Scale
	x := func(v float64) float64 { return (v - p.box.X) * s }
	y := func(v float64) float64 { return vp.Height - (v-p.box.Y)*s }

	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(math.Max(s, 1))
	for _, r := range content.Rect {
		dc.DrawRectangle(x(r.Min.X), y(r.Max.Y), (r.Max.X-r.Min.X)*s, (r.Max.Y-r.Min.Y)*s)
		if err := dc.Stroke(); err != nil {
			return common.Wrap(common.ErrRenderFailure, "failed to stroke rectangle", err)
		}
	}

	for i, t := range content.Text {
		if i%64 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if strings.TrimSpace(t.S) == "" || t.FontSize <= 0 {
			continue
		}
		dc.SetFont(p.doc.face(t.FontSize * s))
		dc.DrawString(t.S, x(t.X), y(t.Y))
	}
	return nil
}
