package canvas

import (
	"fmt"
	"math"
	"sync"

	"github.com/digitorus/pdfannot/annotation"
	"github.com/digitorus/pdfannot/coords"
	"github.com/digitorus/pdfannot/fonts"
	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
)

type faceKey struct {
	font string
	size float64
}

var (
	facesMu sync.Mutex
	sources = map[string]*text.FontSource{}
	faces   = map[faceKey]text.Face{}
)

// face returns the rasterization face for a font family at a pixel size.
func face(family string, size float64) (text.Face, error) {
	f := fonts.ForFamily(family)
	key := faceKey{font: f.Name, size: size}

	facesMu.Lock()
	defer facesMu.Unlock()
	if face, ok := faces[key]; ok {
		return face, nil
	}
	src, ok := sources[f.Name]
	if !ok {
		var err error
		if src, err = text.NewFontSource(f.Data); err != nil {
			return nil, fmt.Errorf("failed to load font %s: %w", f.Name, err)
		}
		sources[f.Name] = src
	}
	face := src.Face(size)
	faces[key] = face
	return face, nil
}

func setColor(dc *gg.Context, c annotation.Color, opacity float64) {
	r, g, b, a := c.Floats()
	dc.SetRGBA(r, g, b, a*opacity)
}

// DrawAnnotation paints a onto a surface that is width by height pixels
// large. Text is drawn with its baseline one font size below the annotation
// origin; font sizes are in surface pixels and do not follow the zoom.
func DrawAnnotation(dc *gg.Context, a annotation.Annotation, width, height float64) error {
	r := coords.PixelRect(a, width, height)

	switch a.Type {
	case annotation.Text:
		if a.Content == "" {
			return nil
		}
		size := a.EffectiveFontSize()
		f, err := face(a.EffectiveFontFamily(), size)
		if err != nil {
			return err
		}
		setColor(dc, a.Color, 1)
		dc.SetFont(f)
		dc.DrawString(a.Content, r.X, r.Y+size)
		return nil

	case annotation.Highlight:
		setColor(dc, a.Color, annotation.HighlightOpacity)
		dc.DrawRectangle(r.X, r.Y, r.Width, r.Height)
		return dc.Fill()

	case annotation.Rectangle:
		setColor(dc, a.Color, 1)
		dc.SetLineWidth(annotation.StrokeWidth)
		dc.DrawRectangle(r.X, r.Y, r.Width, r.Height)
		return dc.Stroke()

	case annotation.Circle:
		c := r.Center()
		setColor(dc, a.Color, 1)
		dc.SetLineWidth(annotation.StrokeWidth)
		dc.DrawEllipse(c.X, c.Y, math.Abs(r.Width)/2, math.Abs(r.Height)/2)
		return dc.Stroke()
	}
	return fmt.Errorf("%w: %q", annotation.ErrNotDrawable, a.Type)
}

// DrawAnnotations paints annotations in order, so later ones appear on top.
func DrawAnnotations(dc *gg.Context, annotations []annotation.Annotation, width, height float64) error {
	for _, a := range annotations {
		if err := DrawAnnotation(dc, a, width, height); err != nil {
			return fmt.Errorf("annotation %s: %w", a.ID, err)
		}
	}
	return nil
}
