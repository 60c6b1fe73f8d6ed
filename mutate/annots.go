package mutate

import (
	"bytes"
	"fmt"
	"math"
	"time"

	"github.com/digitorus/pdf"
	"github.com/digitorus/pdfannot/annotation"
	"github.com/digitorus/pdfannot/common"
	"github.com/digitorus/pdfannot/fonts"
	"github.com/digitorus/pdfannot/internal/render"
)

// addAnnotation writes the appearance stream and annotation dictionary for o
// and returns the annotation's object number. Coordinates in o are relative
// to the page box origin.
func (w *updateWriter) addAnnotation(page pdf.Value, box common.Box, o op, now time.Time) (uint32, error) {
	var (
		rect    [4]float64
		subtype string
		app     *render.Appearance
		extra   bytes.Buffer
		name    string
	)

	switch o.kind {
	case opText:
		t := o.text
		font := fonts.ForFamily(t.FontFamily)
		width := font.Metrics.GetStringWidth(t.Text, t.Size)
		descent := math.Ceil(font.Metrics.DescentAt(t.Size))
		height := descent + t.Size

		rect = [4]float64{t.X, t.Y - descent, t.X + width, t.Y + t.Size}
		subtype = "FreeText"
		name = t.Name
		app = &render.Appearance{
			Width:  width,
			Height: height,
			Elements: []render.Element{
				render.TextElement{Content: t.Text, Font: font, Size: t.Size, Y: descent, Color: t.Color},
			},
		}

		r, g, b, _ := t.Color.Floats()
		fmt.Fprintf(&extra, "  /DA (/Helv %s Tf %s %s %s rg)\n",
			render.FormatNumber(t.Size), render.FormatNumber(r), render.FormatNumber(g), render.FormatNumber(b))
		fmt.Fprintf(&extra, "  /Contents %s\n", pdfString(t.Text))
		extra.WriteString("  /BS << /W 0 >>\n")

	case opRectangle, opEllipse:
		s := o.shape
		rect = [4]float64{s.X, s.Y, s.X + s.Width, s.Y + s.Height}
		name = s.Name

		shape := render.ShapeRect
		subtype = "Square"
		if o.kind == opEllipse {
			shape = render.ShapeEllipse
			subtype = "Circle"
		}

		// Borders are drawn inside the annotation rectangle.
		inset := 0.0
		if s.StrokeColor != nil {
			inset = s.StrokeWidth / 2
		}
		el := render.ShapeElement{
			Shape:       shape,
			X:           inset,
			Y:           inset,
			Width:       math.Max(s.Width-2*inset, 0),
			Height:      math.Max(s.Height-2*inset, 0),
			StrokeColor: s.StrokeColor,
			FillColor:   s.FillColor,
			StrokeWidth: s.StrokeWidth,
		}
		app = &render.Appearance{Width: s.Width, Height: s.Height, Opacity: s.Opacity, Elements: []render.Element{el}}

		if s.StrokeColor != nil {
			fmt.Fprintf(&extra, "  /C [%s]\n", colorArray(*s.StrokeColor))
			fmt.Fprintf(&extra, "  /BS << /W %s >>\n", render.FormatNumber(s.StrokeWidth))
		} else {
			extra.WriteString("  /BS << /W 0 >>\n")
		}
		if s.FillColor != nil {
			fmt.Fprintf(&extra, "  /IC [%s]\n", colorArray(*s.FillColor))
		}
		if s.Opacity > 0 && s.Opacity < 1 {
			fmt.Fprintf(&extra, "  /CA %s\n", render.FormatNumber(s.Opacity))
		}

	default:
		return 0, fmt.Errorf("unknown drawing operation %d", o.kind)
	}

	apID, err := w.addAppearance(app)
	if err != nil {
		return 0, err
	}

	pagePtr := page.GetPtr()

	var buf bytes.Buffer
	buf.WriteString("<<\n")
	buf.WriteString("  /Type /Annot\n")
	fmt.Fprintf(&buf, "  /Subtype /%s\n", subtype)
	fmt.Fprintf(&buf, "  /Rect [%s %s %s %s]\n",
		render.FormatNumber(box.X+rect[0]), render.FormatNumber(box.Y+rect[1]),
		render.FormatNumber(box.X+rect[2]), render.FormatNumber(box.Y+rect[3]))
	buf.WriteString("  /F 4\n")
	fmt.Fprintf(&buf, "  /P %d %d R\n", pagePtr.GetID(), pagePtr.GetGen())
	if name != "" {
		fmt.Fprintf(&buf, "  /NM %s\n", pdfString(name))
	}
	fmt.Fprintf(&buf, "  /M %s\n", pdfString(common.FormatDate(now)))
	buf.Write(extra.Bytes())
	fmt.Fprintf(&buf, "  /AP << /N %d 0 R >>\n", apID)
	buf.WriteString(">>")

	return w.AddObject(buf.Bytes())
}

func (w *updateWriter) addAppearance(app *render.Appearance) (uint32, error) {
	// Zero-sized boxes are valid annotations but need a non-empty BBox.
	if app.Width <= 0 {
		app.Width = 1
	}
	if app.Height <= 0 {
		app.Height = 1
	}
	form, err := w.appearances.Render(app)
	if err != nil {
		return 0, fmt.Errorf("failed to render appearance: %w", err)
	}
	return w.AddObject(form)
}

func colorArray(c annotation.Color) string {
	r, g, b, _ := c.Floats()
	return render.FormatNumber(r) + " " + render.FormatNumber(g) + " " + render.FormatNumber(b)
}
