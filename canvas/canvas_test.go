package canvas

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"testing"

	"github.com/digitorus/pdfannot/annotation"
	"github.com/digitorus/pdfannot/common"
	"github.com/digitorus/pdfannot/internal/testpdf"
	"github.com/digitorus/pdfannot/raster"
	"github.com/gogpu/gg"
)

func rgb(img image.Image, x, y int) (r, g, b uint8) {
	cr, cg, cb, _ := img.At(x, y).RGBA()
	return uint8(cr >> 8), uint8(cg >> 8), uint8(cb >> 8)
}

func white(img image.Image, x, y int) bool {
	r, g, b := rgb(img, x, y)
	return r == 255 && g == 255 && b == 255
}

func paint(t *testing.T, a annotation.Annotation) image.Image {
	t.Helper()
	dc := gg.NewContext(100, 100)
	defer dc.Close()
	dc.ClearWithColor(gg.White)
	if err := DrawAnnotation(dc, a, 100, 100); err != nil {
		t.Fatalf("DrawAnnotation() error = %v", err)
	}
	return dc.Image()
}

func TestDrawHighlight(t *testing.T) {
	img := paint(t, annotation.New(annotation.Highlight, 0.1, 0.1, 0.5, 0.5, annotation.Red))

	r, g, b := rgb(img, 35, 35)
	if r < 250 || g < 100 || g > 160 || b < 100 || b > 160 {
		t.Errorf("highlight pixel = %d,%d,%d, want translucent red", r, g, b)
	}
	if !white(img, 80, 80) {
		t.Error("pixel outside the highlight was painted")
	}
}

func TestDrawRectangle(t *testing.T) {
	img := paint(t, annotation.New(annotation.Rectangle, 0.2, 0.2, 0.6, 0.6, annotation.Red))

	if !white(img, 50, 50) {
		t.Error("rectangle interior was painted")
	}
	if r, g, _ := rgb(img, 20, 50); r < 200 || g > 100 {
		t.Errorf("left edge pixel = %d,%d, want red", r, g)
	}
}

func TestDrawCircle(t *testing.T) {
	img := paint(t, annotation.New(annotation.Circle, 0.2, 0.2, 0.6, 0.6, annotation.Red))

	if !white(img, 50, 50) {
		t.Error("circle center was painted")
	}
	if r, g, _ := rgb(img, 80, 50); r < 200 || g > 100 {
		t.Errorf("rightmost point = %d,%d, want red", r, g)
	}
	if !white(img, 22, 22) {
		t.Error("corner of the bounding box was painted")
	}
}

func TestDrawText(t *testing.T) {
	a := annotation.New(annotation.Text, 0.1, 0.1, 0, 0, annotation.Black)
	a.Content = "HHHH"
	a.FontSize = 20
	img := paint(t, a)

	inked := false
	for y := 10; y <= 30 && !inked; y++ {
		for x := 10; x <= 60; x++ {
			if !white(img, x, y) {
				inked = true
				break
			}
		}
	}
	if !inked {
		t.Error("no text drawn between origin and baseline")
	}
	if !white(img, 50, 80) {
		t.Error("text drawn below the baseline area")
	}

	a.Content = ""
	empty := paint(t, a)
	for y := 0; y < 100; y += 5 {
		for x := 0; x < 100; x += 5 {
			if !white(empty, x, y) {
				t.Fatalf("empty text painted pixel %d,%d", x, y)
			}
		}
	}
}

func TestDrawSelect(t *testing.T) {
	dc := gg.NewContext(10, 10)
	defer dc.Close()
	err := DrawAnnotation(dc, annotation.Annotation{Type: annotation.Select}, 10, 10)
	if !errors.Is(err, annotation.ErrNotDrawable) {
		t.Errorf("DrawAnnotation(select) error = %v", err)
	}
}

func TestSurfaceTokens(t *testing.T) {
	s := NewSurface("main")
	first := s.Begin()
	second := s.Begin()

	if s.Current(first) || !s.Current(second) {
		t.Fatal("only the latest token should be current")
	}
	if s.Commit(first, Frame{Page: 1}) {
		t.Error("stale commit accepted")
	}
	if _, ok := s.Frame(); ok {
		t.Error("stale commit stored a frame")
	}
	if !s.Commit(second, Frame{Page: 2}) {
		t.Fatal("current commit rejected")
	}
	if f, ok := s.Frame(); !ok || f.Page != 2 {
		t.Errorf("Frame() = %+v, %v", f, ok)
	}

	s.Reset()
	if _, ok := s.Frame(); ok {
		t.Error("Reset kept the frame")
	}
	if s.Current(second) {
		t.Error("Reset kept the token current")
	}
}

type fakePage struct {
	w, h   float64
	render func(ctx context.Context, dc *gg.Context, vp raster.Viewport) error
}

func (p fakePage) Size() (float64, float64) { return p.w, p.h }

func (p fakePage) Viewport(scale float64) raster.Viewport {
	return raster.Viewport{Width: p.w * scale, Height: p.h * scale, Scale: scale}
}

func (p fakePage) Render(ctx context.Context, dc *gg.Context, vp raster.Viewport) error {
	if p.render == nil {
		return nil
	}
	return p.render(ctx, dc, vp)
}

func TestRenderFailureKeepsOverlay(t *testing.T) {
	page := fakePage{w: 100, h: 100, render: func(_ context.Context, dc *gg.Context, _ raster.Viewport) error {
		dc.SetRGB(0, 0, 0)
		dc.DrawRectangle(0, 0, 100, 100)
		_ = dc.Fill()
		return errors.New("bad content")
	}}
	s := NewSurface("main")
	annots := []annotation.Annotation{annotation.New(annotation.Rectangle, 0.2, 0.2, 0.6, 0.6, annotation.Red)}

	f, err := NewRenderer(nil).Render(context.Background(), s, page, 1, 1, annots)
	if !errors.Is(err, common.ErrRenderFailure) {
		t.Fatalf("Render() error = %v, want ErrRenderFailure", err)
	}
	if f.Image == nil {
		t.Fatal("no frame returned")
	}
	if !white(f.Image, 50, 50) {
		t.Error("failed page content was not cleared")
	}
	if r, g, _ := rgb(f.Image, 20, 50); r < 200 || g > 100 {
		t.Error("overlay missing from blank frame")
	}
	if committed, ok := s.Frame(); !ok || committed.Page != 1 {
		t.Error("blank frame was not committed")
	}
}

func TestRenderSuperseded(t *testing.T) {
	s := NewSurface("main")
	page := fakePage{w: 50, h: 50, render: func(context.Context, *gg.Context, raster.Viewport) error {
		s.Begin()
		return nil
	}}

	if _, err := NewRenderer(nil).Render(context.Background(), s, page, 1, 1, nil); !errors.Is(err, ErrSuperseded) {
		t.Fatalf("Render() error = %v, want ErrSuperseded", err)
	}
	if _, ok := s.Frame(); ok {
		t.Error("superseded render committed a frame")
	}
}

func TestRenderDocument(t *testing.T) {
	engine, err := raster.NewContentEngine()
	if err != nil {
		t.Fatal(err)
	}
	doc, err := engine.Open(context.Background(), testpdf.Build(testpdf.Options{Pages: 2}))
	if err != nil {
		t.Fatal(err)
	}
	page, _ := doc.Page(2)
	r := NewRenderer(nil)

	s := NewSurface("main")
	f, err := r.Render(context.Background(), s, page, 2, 1.5, nil)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if b := f.Image.Bounds(); b.Dx() != 918 || b.Dy() != 1188 {
		t.Errorf("frame is %dx%d, want 918x1188", b.Dx(), b.Dy())
	}
	if ext := f.Extent(459, 594); ext.BitmapWidth != 918 || ext.DisplayWidth != 459 {
		t.Errorf("Extent() = %+v", ext)
	}

	thumb, err := r.Thumbnail(context.Background(), page)
	if err != nil {
		t.Fatalf("Thumbnail() error = %v", err)
	}
	if b := thumb.Bounds(); b.Dx() != 123 || b.Dy() != 159 {
		t.Errorf("thumbnail is %dx%d, want 123x159", b.Dx(), b.Dy())
	}

	var buf bytes.Buffer
	if err := EncodePNG(&buf, thumb); err != nil {
		t.Fatalf("EncodePNG() error = %v", err)
	}
	cfg, err := png.DecodeConfig(&buf)
	if err != nil || cfg.Width != 123 {
		t.Errorf("DecodeConfig() = %+v, %v", cfg, err)
	}
}
