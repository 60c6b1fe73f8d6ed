// Package fonts maps user-facing font family names onto the standard PDF fonts
// used in exported appearance streams and the Go fonts used to rasterize them.
//
// Standard PDF fonts are available in all PDF readers without embedding. Each
// is paired with a metric-compatible Go font so on-screen text and exported
// text occupy roughly the same width.
package fonts

import (
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// StandardType represents standard PDF fonts.
type StandardType int

const (
	// Helvetica is the standard sans-serif font.
	Helvetica StandardType = iota
	// HelveticaBold is bold Helvetica.
	HelveticaBold
	// TimesRoman is the standard serif font.
	TimesRoman
	// Courier is the standard monospace font.
	Courier
)

var standardNames = map[StandardType]string{
	Helvetica:     "Helvetica",
	HelveticaBold: "Helvetica-Bold",
	TimesRoman:    "Times-Roman",
	Courier:       "Courier",
}

// Font is a standard PDF font together with the TrueType data used to draw and
// measure it.
type Font struct {
	Name    string   // PostScript name of the standard PDF font
	Data    []byte   // TrueType data of the rasterization face
	Metrics *Metrics // Parsed metrics for text measurement
}

var (
	loadOnce sync.Once
	standard map[StandardType]*Font
)

func load() {
	data := map[StandardType][]byte{
		Helvetica:     goregular.TTF,
		HelveticaBold: gobold.TTF,
		TimesRoman:    goregular.TTF,
		Courier:       gomono.TTF,
	}
	standard = make(map[StandardType]*Font, len(data))
	for ft, ttf := range data {
		// The Go fonts are compiled in; a parse failure leaves Metrics nil and
		// measurement falls back to an estimate.
		m, _ := ParseTTFMetrics(ttf)
		standard[ft] = &Font{Name: standardNames[ft], Data: ttf, Metrics: m}
	}
}

// Standard returns the font for a standard PDF font type.
func Standard(ft StandardType) *Font {
	loadOnce.Do(load)
	if f, ok := standard[ft]; ok {
		return f
	}
	return standard[Helvetica]
}

// ForFamily maps a CSS-style font family name, such as "Arial" or
// "Times New Roman, serif", to a standard font. Unknown families map to
// Helvetica.
func ForFamily(family string) *Font {
	return Standard(Classify(family))
}

// Classify returns the standard font type for a font family name.
func Classify(family string) StandardType {
	first, _, _ := strings.Cut(family, ",")
	name := strings.ToLower(strings.Trim(strings.TrimSpace(first), `"'`))
	bold := strings.Contains(name, "bold")

	switch {
	case strings.Contains(name, "courier"), strings.Contains(name, "mono"),
		strings.Contains(name, "consolas"):
		return Courier
	case strings.Contains(name, "times"), name == "serif", strings.Contains(name, "georgia"),
		strings.Contains(name, "garamond"):
		return TimesRoman
	case bold:
		return HelveticaBold
	}
	return Helvetica
}

// Metrics contains parsed font metrics for text measurement.
type Metrics struct {
	UnitsPerEm  int
	GlyphWidths map[rune]int // Advance widths in font units
	Ascent      int          // Ascent in font units
	Descent     int          // Descent in font units, positive below the baseline
}

// ParseTTFMetrics parses a TrueType font file and extracts glyph metrics.
func ParseTTFMetrics(data []byte) (*Metrics, error) {
	f, err := sfnt.Parse(data)
	if err != nil {
		return nil, err
	}

	unitsPerEm := f.UnitsPerEm()
	glyphWidths := make(map[rune]int)
	var buf sfnt.Buffer

	// Use unitsPerEm as the ppem so advances come back in font units.
	ppem := fixed.Int26_6(unitsPerEm) << 6

	for r := rune(32); r <= rune(255); r++ {
		idx, err := f.GlyphIndex(&buf, r)
		if err != nil || idx == 0 {
			continue
		}

		advance, err := f.GlyphAdvance(&buf, idx, ppem, font.HintingNone)
		if err != nil {
			continue
		}
		glyphWidths[r] = int(advance >> 6)
	}

	m := &Metrics{
		UnitsPerEm:  int(unitsPerEm),
		GlyphWidths: glyphWidths,
	}
	if fm, err := f.Metrics(&buf, ppem, font.HintingNone); err == nil {
		m.Ascent = int(fm.Ascent >> 6)
		m.Descent = int(fm.Descent >> 6)
	}
	return m, nil
}

// GetStringWidth calculates the width of a string in points at the given font size.
func (m *Metrics) GetStringWidth(text string, fontSize float64) float64 {
	if m == nil || m.UnitsPerEm == 0 {
		return float64(len([]rune(text))) * fontSize * 0.5
	}

	var totalWidth int
	for _, r := range text {
		if width, ok := m.GlyphWidths[r]; ok {
			totalWidth += width
		} else {
			totalWidth += m.UnitsPerEm / 2
		}
	}

	// width_in_points = (width_in_units / unitsPerEm) * fontSize
	return (float64(totalWidth) / float64(m.UnitsPerEm)) * fontSize
}

// DescentAt returns how far glyphs reach below the baseline at fontSize.
func (m *Metrics) DescentAt(fontSize float64) float64 {
	if m == nil || m.UnitsPerEm == 0 || m.Descent <= 0 {
		return fontSize * 0.25
	}
	return float64(m.Descent) / float64(m.UnitsPerEm) * fontSize
}
