// Package annotation defines the markup objects users draw on pages and the
// per-page records that own them.
//
// Positions and sizes are unit coordinates: fractions of the page width and
// height measured from the top-left corner, independent of zoom.
package annotation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Type identifies the kind of annotation, doubling as the editor tool name.
type Type string

const (
	Select    Type = "select"
	Text      Type = "text"
	Highlight Type = "highlight"
	Rectangle Type = "rectangle"
	Circle    Type = "circle"
)

// Types lists every tool in toolbar order.
var Types = []Type{Select, Text, Highlight, Rectangle, Circle}

// ParseType converts a tool name into a Type.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Types {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown annotation type %q", s)
}

// Draws reports whether the tool creates annotations.
func (t Type) Draws() bool {
	switch t {
	case Text, Highlight, Rectangle, Circle:
		return true
	}
	return false
}

const (
	DefaultFontSize   = 16.0
	DefaultFontFamily = "Arial"

	// HighlightOpacity is applied to highlight fills on screen and in exports.
	HighlightOpacity = 0.5

	// StrokeWidth is the outline width of rectangles and circles.
	StrokeWidth = 2.0
)

var (
	ErrEmptyContent = errors.New("text annotation requires content")
	ErrNotDrawable  = errors.New("annotation type does not draw")
)

// Annotation is a single markup object anchored to a page.
type Annotation struct {
	ID         string  `json:"id"`
	Type       Type    `json:"type"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Color      Color   `json:"color"`
	Content    string  `json:"content,omitempty"`
	FontSize   float64 `json:"fontSize,omitempty"`
	FontFamily string  `json:"fontFamily,omitempty"`
}

// New creates an annotation with a fresh ID. Negative extents are folded into
// absolute values.
func New(t Type, x, y, width, height float64, c Color) Annotation {
	if width < 0 {
		x, width = x+width, -width
	}
	if height < 0 {
		y, height = y+height, -height
	}
	return Annotation{
		ID:     NewID(),
		Type:   t,
		X:      x,
		Y:      y,
		Width:  width,
		Height: height,
		Color:  c,
	}
}

// NewID returns an opaque, unique annotation identifier.
func NewID() string {
	return "annotation_" + uuid.NewString()
}

// EffectiveFontSize returns the font size, falling back to DefaultFontSize.
func (a Annotation) EffectiveFontSize() float64 {
	if a.FontSize > 0 {
		return a.FontSize
	}
	return DefaultFontSize
}

// EffectiveFontFamily returns the font family, falling back to DefaultFontFamily.
func (a Annotation) EffectiveFontFamily() string {
	if a.FontFamily != "" {
		return a.FontFamily
	}
	return DefaultFontFamily
}

// Validate checks the invariants every stored annotation must satisfy.
func (a Annotation) Validate() error {
	if a.ID == "" {
		return errors.New("annotation has no id")
	}
	if _, err := ParseType(string(a.Type)); err != nil {
		return err
	}
	if !a.Type.Draws() {
		return ErrNotDrawable
	}
	if a.Width < 0 || a.Height < 0 {
		return fmt.Errorf("annotation %s has negative extent", a.ID)
	}
	if a.Type == Text && strings.TrimSpace(a.Content) == "" {
		return ErrEmptyContent
	}
	return nil
}

// Page is the annotation list owned by one page of a document.
type Page struct {
	Number      int          `json:"pageNumber"`
	Annotations []Annotation `json:"annotations"`
}

// NewPages returns one empty record per page, numbered from 1.
func NewPages(count int) []Page {
	pages := make([]Page, count)
	for i := range pages {
		pages[i] = Page{Number: i + 1, Annotations: []Annotation{}}
	}
	return pages
}

// Find returns the annotation with the given id.
func (p Page) Find(id string) (Annotation, bool) {
	for _, a := range p.Annotations {
		if a.ID == id {
			return a, true
		}
	}
	return Annotation{}, false
}

// Without returns a copy of the record with the annotation removed. The
// boolean reports whether anything was removed.
func (p Page) Without(id string) (Page, bool) {
	out := Page{Number: p.Number, Annotations: make([]Annotation, 0, len(p.Annotations))}
	removed := false
	for _, a := range p.Annotations {
		if a.ID == id {
			removed = true
			continue
		}
		out.Annotations = append(out.Annotations, a)
	}
	return out, removed
}

// ClonePages returns a deep copy that shares no memory with pages.
func ClonePages(pages []Page) []Page {
	if pages == nil {
		return nil
	}
	out := make([]Page, len(pages))
	for i, p := range pages {
		out[i] = Page{
			Number:      p.Number,
			Annotations: append(make([]Annotation, 0, len(p.Annotations)), p.Annotations...),
		}
	}
	return out
}

// Count returns the total number of annotations across pages.
func Count(pages []Page) int {
	n := 0
	for _, p := range pages {
		n += len(p.Annotations)
	}
	return n
}
