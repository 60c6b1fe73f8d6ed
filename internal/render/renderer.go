// Package render writes annotation appearance streams as PDF form XObjects.
package render

import (
	"bytes"
	"compress/zlib"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/digitorus/pdfannot/annotation"
	"github.com/digitorus/pdfannot/fonts"
	"golang.org/x/text/encoding/charmap"
)

// bezierCircle is the control point distance for approximating a quarter
// circle of radius 1 with a cubic Bezier curve.
const bezierCircle = 0.5522847498

// ObjectAdder stores a new indirect object and returns its object number.
type ObjectAdder interface {
	AddObject(data []byte) (uint32, error)
}

// Renderer turns appearances into form XObjects, registering the font objects
// they reference with an ObjectAdder. Fonts are registered once per Renderer.
type Renderer struct {
	objects ObjectAdder
	fontIDs map[string]uint32
}

// NewRenderer returns a Renderer adding objects to objects.
func NewRenderer(objects ObjectAdder) *Renderer {
	return &Renderer{objects: objects, fontIDs: make(map[string]uint32)}
}

// Render returns the complete form XObject for a, including its stream.
func (r *Renderer) Render(a *Appearance) ([]byte, error) {
	fontNames := make(map[string]string)
	var fontRes bytes.Buffer

	for _, el := range a.Elements {
		te, ok := el.(TextElement)
		if !ok {
			continue
		}
		font := textFont(te)
		if _, ok := fontNames[font.Name]; ok {
			continue
		}
		id, err := r.RegisterFont(font)
		if err != nil {
			return nil, err
		}
		name := fmt.Sprintf("F%d", len(fontNames)+1)
		fontNames[font.Name] = name
		fmt.Fprintf(&fontRes, "      /%s %d 0 R\n", name, id)
	}

	content := Content(a, fontNames)

	var compressed bytes.Buffer
	w := zlib.NewWriter(&compressed)
	if _, err := w.Write(content); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString("<<\n")
	buf.WriteString("  /Type /XObject\n")
	buf.WriteString("  /Subtype /Form\n")
	fmt.Fprintf(&buf, "  /BBox [0 0 %s %s]\n", FormatNumber(a.Width), FormatNumber(a.Height))
	buf.WriteString("  /Matrix [1 0 0 1 0 0]\n")
	buf.WriteString("  /Resources <<\n")
	if fontRes.Len() > 0 {
		buf.WriteString("    /Font <<\n")
		buf.Write(fontRes.Bytes())
		buf.WriteString("    >>\n")
	}
	if translucent(a.Opacity) {
		op := FormatNumber(a.Opacity)
		fmt.Fprintf(&buf, "    /ExtGState << /GS0 << /Type /ExtGState /CA %s /ca %s >> >>\n", op, op)
	}
	buf.WriteString("  >>\n")
	buf.WriteString("  /FormType 1\n")
	buf.WriteString("  /Filter /FlateDecode\n")
	fmt.Fprintf(&buf, "  /Length %d\n", compressed.Len())
	buf.WriteString(">>\n")
	buf.WriteString("stream\n")
	buf.Write(compressed.Bytes())
	buf.WriteString("\nendstream")

	return buf.Bytes(), nil
}

// RegisterFont adds a standard Type1 font dictionary and returns its object
// number. Repeated calls for the same font return the same object.
func (r *Renderer) RegisterFont(font *fonts.Font) (uint32, error) {
	if id, ok := r.fontIDs[font.Name]; ok {
		return id, nil
	}

	var buf bytes.Buffer
	buf.WriteString("<<\n")
	buf.WriteString("  /Type /Font\n")
	buf.WriteString("  /Subtype /Type1\n")
	fmt.Fprintf(&buf, "  /BaseFont /%s\n", font.Name)
	buf.WriteString("  /Encoding /WinAnsiEncoding\n")
	buf.WriteString(">>")

	id, err := r.objects.AddObject(buf.Bytes())
	if err != nil {
		return 0, fmt.Errorf("failed to add font %s: %w", font.Name, err)
	}
	r.fontIDs[font.Name] = id
	return id, nil
}

// Content returns the uncompressed content stream for a. fontNames maps font
// names to resource names; text elements whose font has no resource name are
// skipped.
func Content(a *Appearance, fontNames map[string]string) []byte {
	var stream bytes.Buffer

	if translucent(a.Opacity) {
		stream.WriteString("/GS0 gs\n")
	}

	for _, el := range a.Elements {
		switch e := el.(type) {
		case TextElement:
			font := textFont(e)
			name, ok := fontNames[font.Name]
			if !ok {
				continue
			}
			stream.WriteString("q\nBT\n")
			fmt.Fprintf(&stream, "  /%s %s Tf\n", name, FormatNumber(e.Size))
			fmt.Fprintf(&stream, "  %s rg\n", colorOperands(e.Color))
			fmt.Fprintf(&stream, "  %s %s Td\n", FormatNumber(e.X), FormatNumber(e.Y))
			fmt.Fprintf(&stream, "  <%s> Tj\n", hex.EncodeToString(WinAnsi(e.Content)))
			stream.WriteString("ET\nQ\n")

		case ShapeElement:
			stream.WriteString("q\n")
			if e.StrokeColor != nil {
				fmt.Fprintf(&stream, "%s w\n", FormatNumber(e.StrokeWidth))
				fmt.Fprintf(&stream, "%s RG\n", colorOperands(*e.StrokeColor))
			}
			if e.FillColor != nil {
				fmt.Fprintf(&stream, "%s rg\n", colorOperands(*e.FillColor))
			}

			switch e.Shape {
			case ShapeRect:
				fmt.Fprintf(&stream, "%s %s %s %s re\n",
					FormatNumber(e.X), FormatNumber(e.Y), FormatNumber(e.Width), FormatNumber(e.Height))
			case ShapeEllipse:
				writeEllipse(&stream, e.X+e.Width/2, e.Y+e.Height/2, e.Width/2, e.Height/2)
			}

			switch {
			case e.FillColor != nil && e.StrokeColor != nil:
				stream.WriteString("B\n")
			case e.FillColor != nil:
				stream.WriteString("f\n")
			case e.StrokeColor != nil:
				stream.WriteString("S\n")
			default:
				stream.WriteString("n\n")
			}
			stream.WriteString("Q\n")
		}
	}

	return stream.Bytes()
}

func writeEllipse(buf *bytes.Buffer, cx, cy, rx, ry float64) {
	kx, ky := bezierCircle*rx, bezierCircle*ry
	n := FormatNumber
	fmt.Fprintf(buf, "%s %s m\n", n(cx+rx), n(cy))
	fmt.Fprintf(buf, "%s %s %s %s %s %s c\n", n(cx+rx), n(cy+ky), n(cx+kx), n(cy+ry), n(cx), n(cy+ry))
	fmt.Fprintf(buf, "%s %s %s %s %s %s c\n", n(cx-kx), n(cy+ry), n(cx-rx), n(cy+ky), n(cx-rx), n(cy))
	fmt.Fprintf(buf, "%s %s %s %s %s %s c\n", n(cx-rx), n(cy-ky), n(cx-kx), n(cy-ry), n(cx), n(cy-ry))
	fmt.Fprintf(buf, "%s %s %s %s %s %s c\n", n(cx+kx), n(cy-ry), n(cx+rx), n(cy-ky), n(cx+rx), n(cy))
	buf.WriteString("h\n")
}

func textFont(e TextElement) *fonts.Font {
	if e.Font != nil {
		return e.Font
	}
	return fonts.Standard(fonts.Helvetica)
}

func translucent(opacity float64) bool {
	return opacity > 0 && opacity < 1
}

func colorOperands(c annotation.Color) string {
	r, g, b, _ := c.Floats()
	return FormatNumber(r) + " " + FormatNumber(g) + " " + FormatNumber(b)
}

// FormatNumber formats f for a content stream or dictionary with at most four
// decimals and no trailing zeros.
func FormatNumber(f float64) string {
	s := strconv.FormatFloat(f, 'f', 4, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" || s == "" {
		return "0"
	}
	return s
}

// WinAnsi encodes text for a simple font using WinAnsiEncoding. Characters
// outside the encoding are replaced by '?'.
func WinAnsi(text string) []byte {
	out := make([]byte, 0, len(text))
	for _, r := range text {
		if b, ok := charmap.Windows1252.EncodeRune(r); ok {
			out = append(out, b)
		} else {
			out = append(out, '?')
		}
	}
	return out
}
