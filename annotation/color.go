package annotation

import (
	"fmt"
	"strconv"
	"strings"
)

// Color is an RGBA color with 8-bit components.
type Color struct {
	R, G, B, A uint8
}

// Common colors.
var (
	Red   = Color{R: 0xff, A: 0xff}
	Black = Color{A: 0xff}
	White = Color{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

// NamedColor is a palette entry offered to users.
type NamedColor struct {
	Name  string `json:"name"`
	Color Color  `json:"color"`
}

// Palette lists the colors offered by the toolbar, in display order.
var Palette = []NamedColor{
	{"Red", MustParseHex("#ff0000")},
	{"Green", MustParseHex("#00ff00")},
	{"Blue", MustParseHex("#0000ff")},
	{"Yellow", MustParseHex("#ffff00")},
	{"Magenta", MustParseHex("#ff00ff")},
	{"Cyan", MustParseHex("#00ffff")},
	{"Black", MustParseHex("#000000")},
	{"Orange", MustParseHex("#ffa500")},
	{"Purple", MustParseHex("#800080")},
	{"Dark Green", MustParseHex("#008000")},
}

// ParseHex parses "#rgb", "#rrggbb" or "#rrggbbaa". The leading '#' is optional.
func ParseHex(s string) (Color, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	switch len(h) {
	case 3:
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]}) + "ff"
	case 6:
		h += "ff"
	case 8:
	default:
		return Color{}, fmt.Errorf("invalid hex color %q", s)
	}

	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}

	return Color{
		R: uint8(v >> 24),
		G: uint8(v >> 16),
		B: uint8(v >> 8),
		A: uint8(v),
	}, nil
}

// MustParseHex is like ParseHex but panics on malformed input.
func MustParseHex(s string) Color {
	c, err := ParseHex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Hex formats the color as "#rrggbb", or "#rrggbbaa" when not fully opaque.
func (c Color) Hex() string {
	if c.A == 0xff {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

func (c Color) String() string {
	return c.Hex()
}

// WithAlpha returns c with its alpha channel replaced by opacity (0..1).
func (c Color) WithAlpha(opacity float64) Color {
	switch {
	case opacity <= 0:
		c.A = 0
	case opacity >= 1:
		c.A = 0xff
	default:
		c.A = uint8(opacity*255 + 0.5)
	}
	return c
}

// Floats returns the components scaled to 0..1, as used by PDF color operators.
func (c Color) Floats() (r, g, b, a float64) {
	return float64(c.R) / 255, float64(c.G) / 255, float64(c.B) / 255, float64(c.A) / 255
}

// Opacity returns the alpha channel scaled to 0..1.
func (c Color) Opacity() float64 {
	return float64(c.A) / 255
}

// MarshalText encodes the color as a hex string.
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.Hex()), nil
}

// UnmarshalText decodes a hex string.
func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := ParseHex(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
